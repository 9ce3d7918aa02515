package lexer

type TokenType int

const (
	// Special
	EOF TokenType = iota

	// Pointer motion
	LEFT  // <
	RIGHT // >

	// Cell arithmetic
	INC // +
	DEC // -

	// I/O
	OUT // .
	IN  // ,

	// Loops
	LBRACK // [
	RBRACK // ]
)

var tokenChars = [...]byte{
	LEFT:   '<',
	RIGHT:  '>',
	INC:    '+',
	DEC:    '-',
	OUT:    '.',
	IN:     ',',
	LBRACK: '[',
	RBRACK: ']',
}

// Char returns the source byte for an instruction token, 0 for EOF.
func (t TokenType) Char() byte {
	if t <= EOF || int(t) >= len(tokenChars) {
		return 0
	}
	return tokenChars[t]
}

func (t TokenType) String() string {
	switch t {
	case EOF:
		return "EOF"
	case LEFT:
		return "LEFT"
	case RIGHT:
		return "RIGHT"
	case INC:
		return "INC"
	case DEC:
		return "DEC"
	case OUT:
		return "OUT"
	case IN:
		return "IN"
	case LBRACK:
		return "LBRACK"
	case RBRACK:
		return "RBRACK"
	default:
		return "ILLEGAL"
	}
}

// Lookup maps a source byte to its instruction. ok is false for comment bytes.
func Lookup(c byte) (TokenType, bool) {
	switch c {
	case '<':
		return LEFT, true
	case '>':
		return RIGHT, true
	case '+':
		return INC, true
	case '-':
		return DEC, true
	case '.':
		return OUT, true
	case ',':
		return IN, true
	case '[':
		return LBRACK, true
	case ']':
		return RBRACK, true
	}
	return EOF, false
}

type Token struct {
	Type TokenType
	Line int
	Col  int
}

func (t Token) Is(op TokenType) bool { return t.Type == op }
