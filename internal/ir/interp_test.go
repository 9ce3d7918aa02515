package ir_test

import (
	"errors"
	"fmt"

	"github.com/tinyrange/bfc/internal/ir"
)

var errBudget = errors.New("step budget exhausted")

// machine runs a program tree directly. It is the reference the optimizer
// is checked against.
type machine struct {
	tape  []byte
	ptr   int
	in    []byte
	out   []byte
	steps int
}

func run(p *ir.Program, input string, budget int) (*machine, error) {
	m := &machine{tape: make([]byte, 30000), in: []byte(input), steps: budget}
	return m, m.exec(p, p.Body)
}

func (m *machine) cell(off int) (*byte, error) {
	i := m.ptr + off
	if i < 0 || i >= len(m.tape) {
		return nil, fmt.Errorf("cell %d out of range", i)
	}
	return &m.tape[i], nil
}

func (m *machine) exec(p *ir.Program, body []ir.NodeID) error {
	for _, id := range body {
		if m.steps--; m.steps < 0 {
			return errBudget
		}
		n := p.Node(id)
		switch n.Op {
		case ir.OpRight:
			m.ptr += n.Count
		case ir.OpLeft:
			m.ptr -= n.Count
		case ir.OpMovePtr:
			m.ptr += n.Offset
		case ir.OpInc, ir.OpDec, ir.OpAddConst, ir.OpSetConst:
			off, d := n.Offset, n.Value
			switch n.Op {
			case ir.OpInc:
				off, d = 0, n.Count
			case ir.OpDec:
				off, d = 0, -n.Count
			}
			c, err := m.cell(off)
			if err != nil {
				return err
			}
			if n.Op == ir.OpSetConst {
				*c = byte(d)
			} else {
				*c = byte(int(*c) + d)
			}
		case ir.OpOut:
			c, err := m.cell(0)
			if err != nil {
				return err
			}
			for i := 0; i < n.Count; i++ {
				m.out = append(m.out, *c)
			}
		case ir.OpIn:
			c, err := m.cell(0)
			if err != nil {
				return err
			}
			for i := 0; i < n.Count && len(m.in) > 0; i++ {
				*c, m.in = m.in[0], m.in[1:]
			}
		case ir.OpLoop, ir.OpScan:
			for {
				c, err := m.cell(0)
				if err != nil {
					return err
				}
				if *c == 0 {
					break
				}
				if n.Op == ir.OpScan {
					m.ptr += n.Value
				} else if err := m.exec(p, n.Body); err != nil {
					return err
				}
				if m.steps--; m.steps < 0 {
					return errBudget
				}
			}
		case ir.OpMulAdd:
			src, err := m.cell(n.Src)
			if err != nil {
				return err
			}
			if *src == 0 {
				continue
			}
			dst, err := m.cell(n.Offset)
			if err != nil {
				return err
			}
			*dst = byte(int(*dst) + int(*src)*n.Value)
		default:
			return fmt.Errorf("unknown op %v", n.Op)
		}
	}
	return nil
}
