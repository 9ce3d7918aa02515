package ir

import (
	"fmt"
	"strings"

	"github.com/jinzhu/copier"
)

// Program is a Brainfuck program tree stored as an arena. Nodes refer to
// their loop bodies by index, and a body only ever refers to nodes created
// before its loop, so the tree cannot contain cycles.
type Program struct {
	Nodes []Node
	Body  []NodeID
}

type NodeID int

type Op int

const (
	// primitives, Count >= 1
	OpRight Op = iota
	OpLeft
	OpInc
	OpDec
	OpOut
	OpIn
	OpLoop // Body holds the loop body

	// compounds introduced by the optimizer
	OpAddConst // cell[Offset] += Value
	OpSetConst // cell[Offset] = Value
	OpMovePtr  // ptr += Offset
	OpScan     // while cell[0] != 0 { ptr += Value }
	OpMulAdd   // cell[Offset] += cell[Src] * Value
)

var opNames = [...]string{
	OpRight:    "right",
	OpLeft:     "left",
	OpInc:      "inc",
	OpDec:      "dec",
	OpOut:      "out",
	OpIn:       "in",
	OpLoop:     "loop",
	OpAddConst: "add",
	OpSetConst: "set",
	OpMovePtr:  "move",
	OpScan:     "scan",
	OpMulAdd:   "muladd",
}

func (o Op) String() string {
	if o < 0 || int(o) >= len(opNames) {
		return fmt.Sprintf("op(%d)", int(o))
	}
	return opNames[o]
}

// IsPrimitive reports whether o is one of the six non-loop instructions.
func (o Op) IsPrimitive() bool { return o >= OpRight && o <= OpIn }

// Node is one program node. Which fields are meaningful depends on Op.
type Node struct {
	Op    Op
	Count int // repeat count of a primitive
	// Value is the AddConst delta, SetConst value, MulAdd factor (all kept
	// in 0..255) or the signed Scan step.
	Value int
	// Offset is the cell addressed relative to the pointer, the MovePtr
	// distance, or the MulAdd destination.
	Offset int
	Src    int // MulAdd source offset
	Body   []NodeID
	// Line and Col locate the opening bracket of a loop built by the parser.
	Line, Col int
}

func NewProgram() *Program { return &Program{} }

// Node returns the node for id.
func (p *Program) Node(id NodeID) *Node { return &p.Nodes[id] }

// Add appends n to the arena and returns its id. The body of n must only
// name nodes already in the arena.
func (p *Program) Add(n Node) NodeID {
	for _, c := range n.Body {
		if c < 0 || int(c) >= len(p.Nodes) {
			panic(fmt.Sprintf("ir: body refers to node %d outside arena of %d", c, len(p.Nodes)))
		}
	}
	p.Nodes = append(p.Nodes, n)
	return NodeID(len(p.Nodes) - 1)
}

// Prim appends a primitive op with the given repeat count.
func (p *Program) Prim(op Op, count int) NodeID {
	return p.Add(Node{Op: op, Count: count})
}

func (p *Program) Loop(body []NodeID) NodeID {
	return p.Add(Node{Op: OpLoop, Body: body})
}

func (p *Program) AddConst(delta, offset int) NodeID {
	return p.Add(Node{Op: OpAddConst, Value: Wrap(delta), Offset: offset})
}

func (p *Program) SetConst(value, offset int) NodeID {
	return p.Add(Node{Op: OpSetConst, Value: Wrap(value), Offset: offset})
}

func (p *Program) MovePtr(offset int) NodeID {
	return p.Add(Node{Op: OpMovePtr, Offset: offset})
}

func (p *Program) Scan(step int) NodeID {
	return p.Add(Node{Op: OpScan, Value: step})
}

func (p *Program) MulAdd(src, dst, factor int) NodeID {
	return p.Add(Node{Op: OpMulAdd, Src: src, Offset: dst, Value: Wrap(factor)})
}

// Wrap reduces v into the cell range 0..255.
func Wrap(v int) int {
	v %= 256
	if v < 0 {
		v += 256
	}
	return v
}

// Walk visits the nodes of body in pre-order. Returning false from fn skips
// the children of a loop.
func (p *Program) Walk(body []NodeID, fn func(id NodeID, n *Node, depth int) bool) {
	p.walk(body, 0, fn)
}

func (p *Program) walk(body []NodeID, depth int, fn func(NodeID, *Node, int) bool) {
	for _, id := range body {
		n := &p.Nodes[id]
		if !fn(id, n, depth) {
			continue
		}
		if n.Op == OpLoop {
			p.walk(n.Body, depth+1, fn)
		}
	}
}

// Len is the number of nodes reachable from the root.
func (p *Program) Len() int {
	count := 0
	p.Walk(p.Body, func(NodeID, *Node, int) bool { count++; return true })
	return count
}

// Flatten expands the primitive ops and loops of the tree back into
// instruction characters. Compound nodes have no literal form and are
// written as '?'.
func (p *Program) Flatten() string {
	var b strings.Builder
	p.flatten(&b, p.Body)
	return b.String()
}

func (p *Program) flatten(b *strings.Builder, body []NodeID) {
	for _, id := range body {
		n := &p.Nodes[id]
		switch n.Op {
		case OpLoop:
			b.WriteByte('[')
			p.flatten(b, n.Body)
			b.WriteByte(']')
		case OpRight, OpLeft, OpInc, OpDec, OpOut, OpIn:
			b.WriteString(strings.Repeat(string(primChars[n.Op]), n.Count))
		default:
			b.WriteByte('?')
		}
	}
}

var primChars = [...]byte{OpRight: '>', OpLeft: '<', OpInc: '+', OpDec: '-', OpOut: '.', OpIn: ','}

// String dumps the tree, one node per line, loop bodies indented.
func (p *Program) String() string {
	var b strings.Builder
	p.Walk(p.Body, func(_ NodeID, n *Node, depth int) bool {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(n.String())
		b.WriteByte('\n')
		return true
	})
	return b.String()
}

func (n *Node) String() string {
	switch n.Op {
	case OpRight, OpLeft, OpInc, OpDec, OpOut, OpIn:
		return fmt.Sprintf("%s %d", n.Op, n.Count)
	case OpLoop:
		if n.Line > 0 {
			return fmt.Sprintf("loop @%d:%d", n.Line, n.Col)
		}
		return "loop"
	case OpAddConst, OpSetConst:
		return fmt.Sprintf("%s %d [%+d]", n.Op, n.Value, n.Offset)
	case OpMovePtr:
		return fmt.Sprintf("move %+d", n.Offset)
	case OpScan:
		return fmt.Sprintf("scan %+d", n.Value)
	case OpMulAdd:
		return fmt.Sprintf("muladd [%+d] += [%+d] * %d", n.Offset, n.Src, n.Value)
	}
	return n.Op.String()
}

// Clone returns a deep copy that shares no memory with p.
func (p *Program) Clone() *Program {
	q := &Program{}
	if err := copier.CopyWithOption(q, p, copier.Option{DeepCopy: true}); err != nil {
		// copier only fails on mismatched kinds, which cannot happen here
		panic(fmt.Sprintf("ir: clone: %v", err))
	}
	return q
}
