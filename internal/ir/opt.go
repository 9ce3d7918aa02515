package ir

import (
	"sort"
)

// Idiom recognition and offset folding. Every pass is a pure function from
// one program to a new one; Optimize runs them until none changes anything.

// Pass is one rewrite. A pass rewrites either whole loops (after their body
// was rewritten) or whole sequences (after their loops were rewritten).
type Pass struct {
	Name string
	loop func(q *Program, n *Node) ([]NodeID, bool)
	seq  func(q *Program, seq []NodeID) ([]NodeID, bool)
}

var (
	ClearLoops  = Pass{Name: "clear", loop: clearLoop}
	CopyLoops   = Pass{Name: "copy", loop: copyLoop}
	ScanLoops   = Pass{Name: "scan", loop: scanLoop}
	FoldOffsets = Pass{Name: "fold", seq: foldRun}
)

// DefaultPasses is the pipeline used when Optimize is given no passes.
var DefaultPasses = []Pass{ClearLoops, CopyLoops, ScanLoops, FoldOffsets}

// Optimize applies passes (DefaultPasses if none) to fixpoint and returns a
// compacted new program. p is not modified.
func Optimize(p *Program, passes ...Pass) *Program {
	if len(passes) == 0 {
		passes = DefaultPasses
	}
	changed := true
	for changed {
		changed = false
		for _, ps := range passes {
			var c bool
			p, c = ps.Run(p)
			changed = changed || c
		}
	}
	return Compact(p)
}

// Run applies the pass once over the whole tree.
func (ps Pass) Run(p *Program) (*Program, bool) {
	r := &rebuilder{src: p, dst: NewProgram(), loop: ps.loop, seq: ps.seq}
	r.dst.Body = r.body(p.Body)
	return r.dst, r.changed
}

// Compact copies the reachable part of p into a fresh arena.
func Compact(p *Program) *Program {
	r := &rebuilder{src: p, dst: NewProgram()}
	r.dst.Body = r.body(p.Body)
	return r.dst
}

type rebuilder struct {
	src, dst *Program
	loop     func(q *Program, n *Node) ([]NodeID, bool)
	seq      func(q *Program, seq []NodeID) ([]NodeID, bool)
	changed  bool
}

func (r *rebuilder) body(ids []NodeID) []NodeID {
	var out []NodeID
	for _, id := range ids {
		n := r.src.Nodes[id]
		if n.Op != OpLoop {
			n.Body = nil
			out = append(out, r.dst.Add(n))
			continue
		}
		n.Body = r.body(n.Body)
		if r.loop != nil {
			if repl, ok := r.loop(r.dst, &n); ok {
				out = append(out, repl...)
				r.changed = true
				continue
			}
		}
		out = append(out, r.dst.Add(n))
	}
	if r.seq != nil {
		if repl, ok := r.seq(r.dst, out); ok {
			out = repl
			r.changed = true
		}
	}
	return out
}

// cellEffect sums the net cell-0 delta and pointer motion of a single node.
// ok is false for nodes that do anything else.
func cellEffect(n *Node) (delta, move int, ok bool) {
	switch n.Op {
	case OpInc:
		return Wrap(n.Count), 0, true
	case OpDec:
		return Wrap(-n.Count), 0, true
	case OpAddConst:
		if n.Offset == 0 {
			return n.Value, 0, true
		}
	case OpRight:
		return 0, n.Count, true
	case OpLeft:
		return 0, -n.Count, true
	case OpMovePtr:
		return 0, n.Offset, true
	}
	return 0, 0, false
}

// [-] -> set 0
func clearLoop(q *Program, n *Node) ([]NodeID, bool) {
	if len(n.Body) != 1 {
		return nil, false
	}
	delta, move, ok := cellEffect(q.Node(n.Body[0]))
	if !ok || move != 0 || delta != 255 {
		return nil, false
	}
	return []NodeID{q.SetConst(0, 0)}, true
}

// [->+>++<<] -> muladd [+1] += [0]*1; muladd [+2] += [0]*2; set 0
func copyLoop(q *Program, n *Node) ([]NodeID, bool) {
	deltas := map[int]int{}
	ptr := 0
	for _, id := range n.Body {
		c := q.Node(id)
		switch c.Op {
		case OpInc:
			deltas[ptr] += c.Count
		case OpDec:
			deltas[ptr] -= c.Count
		case OpAddConst:
			deltas[ptr+c.Offset] += c.Value
		case OpRight:
			ptr += c.Count
		case OpLeft:
			ptr -= c.Count
		case OpMovePtr:
			ptr += c.Offset
		default:
			return nil, false
		}
	}
	if ptr != 0 || Wrap(deltas[0]) != 255 {
		return nil, false
	}
	var offs []int
	for off, d := range deltas {
		if off != 0 && Wrap(d) != 0 {
			offs = append(offs, off)
		}
	}
	sort.Ints(offs)
	out := make([]NodeID, 0, len(offs)+1)
	for _, off := range offs {
		out = append(out, q.MulAdd(0, off, deltas[off]))
	}
	return append(out, q.SetConst(0, 0)), true
}

// [>] -> scan +1
func scanLoop(q *Program, n *Node) ([]NodeID, bool) {
	if len(n.Body) != 1 {
		return nil, false
	}
	delta, move, ok := cellEffect(q.Node(n.Body[0]))
	if !ok || delta != 0 || move == 0 {
		return nil, false
	}
	return []NodeID{q.Scan(move)}, true
}

func foldable(op Op) bool {
	switch op {
	case OpRight, OpLeft, OpInc, OpDec, OpAddConst, OpSetConst, OpMovePtr, OpMulAdd:
		return true
	}
	return false
}

// foldRun rewrites every maximal straight-line run of seq into offset form.
func foldRun(q *Program, seq []NodeID) ([]NodeID, bool) {
	var out []NodeID
	changed := false
	for i := 0; i < len(seq); {
		if !foldable(q.Node(seq[i]).Op) {
			out = append(out, seq[i])
			i++
			continue
		}
		j := i
		for j < len(seq) && foldable(q.Node(seq[j]).Op) {
			j++
		}
		run, c := foldOffsets(q, seq[i:j])
		out = append(out, run...)
		changed = changed || c
		i = j
	}
	return out, changed
}

func foldOffsets(q *Program, run []NodeID) ([]NodeID, bool) {
	var ops []Node
	last := map[int]int{} // cell offset -> index of the latest op touching it
	ptr := 0

	add := func(off, d int) {
		if j, ok := last[off]; ok && ops[j].Offset == off && (ops[j].Op == OpAddConst || ops[j].Op == OpSetConst) {
			ops[j].Value = Wrap(ops[j].Value + d)
			return
		}
		ops = append(ops, Node{Op: OpAddConst, Value: Wrap(d), Offset: off})
		last[off] = len(ops) - 1
	}
	set := func(off, v int) {
		if j, ok := last[off]; ok && ops[j].Offset == off && (ops[j].Op == OpAddConst || ops[j].Op == OpSetConst) {
			ops[j] = Node{Op: OpSetConst, Value: Wrap(v), Offset: off}
			return
		}
		ops = append(ops, Node{Op: OpSetConst, Value: Wrap(v), Offset: off})
		last[off] = len(ops) - 1
	}

	for _, id := range run {
		n := q.Node(id)
		switch n.Op {
		case OpRight:
			ptr += n.Count
		case OpLeft:
			ptr -= n.Count
		case OpMovePtr:
			ptr += n.Offset
		case OpInc:
			add(ptr, n.Count)
		case OpDec:
			add(ptr, -n.Count)
		case OpAddConst:
			add(ptr+n.Offset, n.Value)
		case OpSetConst:
			set(ptr+n.Offset, n.Value)
		case OpMulAdd:
			ops = append(ops, Node{Op: OpMulAdd, Value: n.Value, Offset: ptr + n.Offset, Src: ptr + n.Src})
			last[ptr+n.Offset] = len(ops) - 1
			last[ptr+n.Src] = len(ops) - 1
		}
	}

	folded := ops[:0]
	for _, op := range ops {
		if op.Op == OpAddConst && op.Value == 0 {
			continue
		}
		folded = append(folded, op)
	}
	if ptr != 0 {
		folded = append(folded, Node{Op: OpMovePtr, Offset: ptr})
	}

	if sameNodes(q, run, folded) {
		return run, false
	}
	ids := make([]NodeID, len(folded))
	for i, n := range folded {
		ids[i] = q.Add(n)
	}
	return ids, true
}

func sameNodes(q *Program, ids []NodeID, nodes []Node) bool {
	if len(ids) != len(nodes) {
		return false
	}
	for i, id := range ids {
		a, b := q.Node(id), &nodes[i]
		if a.Op != b.Op || a.Count != b.Count || a.Value != b.Value || a.Offset != b.Offset || a.Src != b.Src {
			return false
		}
	}
	return true
}
