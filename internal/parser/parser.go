package parser

import (
	"github.com/tinyrange/bfc/internal/diag"
	"github.com/tinyrange/bfc/internal/ir"
	"github.com/tinyrange/bfc/internal/lexer"
)

// frame is a loop whose closing bracket has not been seen yet.
type frame struct {
	open lexer.Token
	body []ir.NodeID
}

type Parser struct {
	lx    *lexer.Lexer
	tok   lexer.Token
	prog  *ir.Program
	stack []frame
	body  []ir.NodeID // sequence currently being built
}

// Parse matches brackets and builds the program tree. Adjacent identical
// pointer moves and cell increments are always folded into one op.
func Parse(src []byte) (*ir.Program, error) {
	p := &Parser{lx: lexer.New(src), prog: ir.NewProgram()}
	p.next()
	for p.tok.Type != lexer.EOF {
		if err := p.parseToken(); err != nil {
			return nil, err
		}
		p.next()
	}
	if n := len(p.stack); n > 0 {
		open := p.stack[n-1].open
		return nil, &diag.SyntaxError{Line: open.Line, Col: open.Col, Msg: "unmatched open bracket"}
	}
	p.prog.Body = p.body
	return p.prog, nil
}

func (p *Parser) next() { p.tok = p.lx.Next() }

func (p *Parser) parseToken() error {
	switch p.tok.Type {
	case lexer.LBRACK:
		p.stack = append(p.stack, frame{open: p.tok, body: p.body})
		p.body = nil
	case lexer.RBRACK:
		n := len(p.stack)
		if n == 0 {
			return &diag.SyntaxError{Line: p.tok.Line, Col: p.tok.Col, Msg: "unmatched close bracket"}
		}
		f := p.stack[n-1]
		p.stack = p.stack[:n-1]
		loop := p.prog.Add(ir.Node{Op: ir.OpLoop, Body: p.body, Line: f.open.Line, Col: f.open.Col})
		p.body = append(f.body, loop)
	default:
		p.emit(opFromToken(p.tok.Type))
	}
	return nil
}

// emit appends a primitive, extending the previous op when it is the same
// foldable instruction.
func (p *Parser) emit(op ir.Op) {
	if n := len(p.body); n > 0 && foldable(op) {
		prev := p.prog.Node(p.body[n-1])
		if prev.Op == op {
			prev.Count++
			return
		}
	}
	p.body = append(p.body, p.prog.Prim(op, 1))
}

func foldable(op ir.Op) bool {
	switch op {
	case ir.OpRight, ir.OpLeft, ir.OpInc, ir.OpDec:
		return true
	}
	return false
}

func opFromToken(t lexer.TokenType) ir.Op {
	switch t {
	case lexer.RIGHT:
		return ir.OpRight
	case lexer.LEFT:
		return ir.OpLeft
	case lexer.INC:
		return ir.OpInc
	case lexer.DEC:
		return ir.OpDec
	case lexer.OUT:
		return ir.OpOut
	case lexer.IN:
		return ir.OpIn
	default:
		panic("parser: no op for token " + t.String())
	}
}
