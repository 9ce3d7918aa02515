// Package codegen lowers a program tree to assembly text.
//
// The tree walk is the same for every target. Everything target-specific
// lives in a Table of emission functions, registered by the per-arch
// packages and chosen once per compilation.
package codegen

import (
	"fmt"
	"io"

	"github.com/tinyrange/bfc/internal/ir"
)

// TapeSize is the number of byte cells every generated program gets.
const TapeSize = 30000

// TapeSlack is zeroed space after the tape, so word-sized reads of the last
// cells stay inside the allocation.
const TapeSlack = 16

// Table holds the emitters of one target architecture.
type Table struct {
	Name string

	Prologue func(w *Writer)
	Epilogue func(w *Writer)

	// primitives
	Right     func(w *Writer, n int)
	Left      func(w *Writer, n int)
	Inc       func(w *Writer, n int)
	Dec       func(w *Writer, n int)
	Out       func(w *Writer)
	In        func(w *Writer)
	LoopStart func(w *Writer, label int)
	LoopEnd   func(w *Writer, label int)

	// compounds
	SetConst func(w *Writer, value, offset int)
	AddConst func(w *Writer, delta, offset int)
	MovePtr  func(w *Writer, offset int)
	Scan     func(w *Writer, label, step int)
	MulAdd   func(w *Writer, src, dst, factor int)
}

func (t *Table) validate() error {
	missing := func(name string) error { return fmt.Errorf("table %q: missing %s emitter", t.Name, name) }
	switch {
	case t.Name == "":
		return fmt.Errorf("table without a name")
	case t.Prologue == nil:
		return missing("prologue")
	case t.Epilogue == nil:
		return missing("epilogue")
	case t.Right == nil:
		return missing("right")
	case t.Left == nil:
		return missing("left")
	case t.Inc == nil:
		return missing("inc")
	case t.Dec == nil:
		return missing("dec")
	case t.Out == nil:
		return missing("out")
	case t.In == nil:
		return missing("in")
	case t.LoopStart == nil:
		return missing("loop start")
	case t.LoopEnd == nil:
		return missing("loop end")
	case t.SetConst == nil:
		return missing("set")
	case t.AddConst == nil:
		return missing("add")
	case t.MovePtr == nil:
		return missing("move")
	case t.Scan == nil:
		return missing("scan")
	case t.MulAdd == nil:
		return missing("muladd")
	}
	return nil
}

// Emit writes the assembly for p to sink using the emitters of t.
func Emit(p *ir.Program, t *Table, sink io.Writer) (Stats, error) {
	w := NewWriter(sink)
	g := &gen{p: p, t: t, w: w}
	t.Prologue(w)
	g.walk(p.Body)
	t.Epilogue(w)
	err := w.Flush()
	return w.Stats(), err
}

type gen struct {
	p         *ir.Program
	t         *Table
	w         *Writer
	nextLabel int
}

// label hands out loop label numbers. They are never reused, so two
// identical loops still get distinct labels.
func (g *gen) label() int {
	l := g.nextLabel
	g.nextLabel++
	return l
}

func (g *gen) walk(body []ir.NodeID) {
	for _, id := range body {
		if g.w.Err() != nil {
			return
		}
		n := g.p.Node(id)
		switch n.Op {
		case ir.OpRight:
			g.t.Right(g.w, n.Count)
		case ir.OpLeft:
			g.t.Left(g.w, n.Count)
		case ir.OpInc:
			g.t.Inc(g.w, n.Count)
		case ir.OpDec:
			g.t.Dec(g.w, n.Count)
		case ir.OpOut:
			for i := 0; i < n.Count; i++ {
				g.t.Out(g.w)
			}
		case ir.OpIn:
			for i := 0; i < n.Count; i++ {
				g.t.In(g.w)
			}
		case ir.OpLoop:
			l := g.label()
			if n.Line > 0 {
				g.w.Comment("loop at %d:%d", n.Line, n.Col)
			}
			g.t.LoopStart(g.w, l)
			g.walk(n.Body)
			g.t.LoopEnd(g.w, l)
		case ir.OpSetConst:
			g.t.SetConst(g.w, n.Value, n.Offset)
		case ir.OpAddConst:
			g.t.AddConst(g.w, n.Value, n.Offset)
		case ir.OpMovePtr:
			g.t.MovePtr(g.w, n.Offset)
		case ir.OpScan:
			g.t.Scan(g.w, g.label(), n.Value)
		case ir.OpMulAdd:
			g.t.MulAdd(g.w, n.Src, n.Offset, n.Value)
		default:
			panic(fmt.Sprintf("codegen: unknown op %v", n.Op))
		}
	}
}

// LoopLabels returns the start and end label names for loop number l.
func LoopLabels(l int) (start, end string) {
	return fmt.Sprintf(".Lloop%d", l), fmt.Sprintf(".Lloop%d_end", l)
}

// ScanLabels returns the start and end label names for scan number l.
func ScanLabels(l int) (start, end string) {
	return fmt.Sprintf(".Lscan%d", l), fmt.Sprintf(".Lscan%d_end", l)
}

// Mem formats a byte operand at offset from the base register.
func Mem(offset int, reg string) string {
	if offset == 0 {
		return "(" + reg + ")"
	}
	return fmt.Sprintf("%d(%s)", offset, reg)
}
