package lexer

// Lexer yields the instruction tokens of a Brainfuck source. Every byte that
// is not one of the eight instructions is a comment and is skipped.
type Lexer struct {
	src  []byte
	i    int
	ch   byte
	eof  bool
	line int
	col  int
}

func New(src []byte) *Lexer {
	l := &Lexer{src: src, line: 1}
	l.read()
	return l
}

// read advances to the next byte. line/col always describe l.ch.
func (l *Lexer) read() {
	if l.i >= len(l.src) {
		l.ch = 0
		l.eof = true
		return
	}
	if l.i > 0 && l.src[l.i-1] == '\n' {
		l.line++
		l.col = 0
	}
	l.ch = l.src[l.i]
	l.i++
	l.col++
}

func (l *Lexer) Next() Token {
	for !l.eof {
		if tt, ok := Lookup(l.ch); ok {
			tok := Token{Type: tt, Line: l.line, Col: l.col}
			l.read()
			return tok
		}
		l.read()
	}
	return Token{Type: EOF, Line: l.line, Col: l.col + 1}
}

// Tokenize returns every instruction token of src in order, without the
// trailing EOF.
func Tokenize(src []byte) []Token {
	l := New(src)
	var toks []Token
	for {
		t := l.Next()
		if t.Type == EOF {
			return toks
		}
		toks = append(toks, t)
	}
}
