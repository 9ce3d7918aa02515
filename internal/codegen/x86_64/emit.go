package x86_64

import (
	"github.com/tinyrange/bfc/internal/codegen"
)

func init() {
	codegen.Register(Table, "x86_64", "amd64", "x86-64")
}

// Table emits AT&T syntax x86-64 assembly for Linux, as a static
// executable entered at _start. Assemble with `as` and link with `ld`.
var Table = &codegen.Table{
	Name:      "x64",
	Prologue:  prologue,
	Epilogue:  epilogue,
	Right:     right,
	Left:      left,
	Inc:       inc,
	Dec:       dec,
	Out:       out,
	In:        in,
	LoopStart: loopStart,
	LoopEnd:   loopEnd,
	SetConst:  setConst,
	AddConst:  addConst,
	MovePtr:   movePtr,
	Scan:      scan,
	MulAdd:    mulAdd,
}

func prologue(w *codegen.Writer) {
	w.Directive(".bss")
	w.Directive(".align 16")
	w.Directive("tape:")
	w.Directive("  .zero %d", codegen.TapeSize)
	w.Directive("  .zero %d", codegen.TapeSlack)
	w.Directive(".text")
	w.Directive(".globl _start")
	w.Label("_start")
	w.Ins("lea tape(%%rip), %s", ptrReg)
}

func epilogue(w *codegen.Writer) {
	w.Ins("mov $%d, %s", sysExit, syscallRegs.nr)
	w.Ins("xor %s, %s", syscallRegs.arg0, syscallRegs.arg0)
	w.Ins("syscall")
}

func right(w *codegen.Writer, n int) { movePtr(w, n) }
func left(w *codegen.Writer, n int)  { movePtr(w, -n) }
func inc(w *codegen.Writer, n int)   { addConst(w, n, 0) }
func dec(w *codegen.Writer, n int)   { addConst(w, -n, 0) }

func out(w *codegen.Writer) { rw(w, sysWrite, stdout) }

// in reads one byte into the current cell. At end of input read returns 0
// and leaves the cell untouched.
func in(w *codegen.Writer) { rw(w, sysRead, stdin) }

func rw(w *codegen.Writer, nr, fd int) {
	w.Ins("mov $%d, %s", nr, syscallRegs.nr)
	w.Ins("mov $%d, %s", fd, syscallRegs.arg0)
	w.Ins("mov %s, %s", ptrReg, syscallRegs.arg1)
	w.Ins("mov $1, %s", syscallRegs.arg2)
	w.Ins("syscall")
}

func loopStart(w *codegen.Writer, l int) {
	start, end := codegen.LoopLabels(l)
	w.Label(start)
	w.Ins("cmpb $0, %s", codegen.Mem(0, ptrReg))
	w.Ins("je %s", end)
}

func loopEnd(w *codegen.Writer, l int) {
	start, end := codegen.LoopLabels(l)
	w.Ins("jmp %s", start)
	w.Label(end)
}

func setConst(w *codegen.Writer, value, offset int) {
	w.Ins("movb $%d, %s", value&0xff, codegen.Mem(offset, ptrReg))
}

func addConst(w *codegen.Writer, delta, offset int) {
	switch d := delta & 0xff; {
	case d == 0:
	case d < 0x80:
		w.Ins("addb $%d, %s", d, codegen.Mem(offset, ptrReg))
	default:
		w.Ins("subb $%d, %s", 0x100-d, codegen.Mem(offset, ptrReg))
	}
}

func movePtr(w *codegen.Writer, offset int) {
	switch {
	case offset > 0:
		w.Ins("add $%d, %s", offset, ptrReg)
	case offset < 0:
		w.Ins("sub $%d, %s", -offset, ptrReg)
	}
}

func scan(w *codegen.Writer, l, step int) {
	start, end := codegen.ScanLabels(l)
	w.Label(start)
	w.Ins("cmpb $0, %s", codegen.Mem(0, ptrReg))
	w.Ins("je %s", end)
	movePtr(w, step)
	w.Ins("jmp %s", start)
	w.Label(end)
}

// mulAdd adds cell[src]*factor to cell[dst]. Only the low byte of the
// product is kept, and it depends only on the low byte of the multiplicand,
// so a 32-bit imul straight from the tape is exact.
func mulAdd(w *codegen.Writer, src, dst, factor int) {
	switch f := factor & 0xff; f {
	case 0:
	case 1:
		w.Ins("movb %s, %s", codegen.Mem(src, ptrReg), scratchLow)
		w.Ins("addb %s, %s", scratchLow, codegen.Mem(dst, ptrReg))
	case 0xff:
		w.Ins("movb %s, %s", codegen.Mem(src, ptrReg), scratchLow)
		w.Ins("subb %s, %s", scratchLow, codegen.Mem(dst, ptrReg))
	default:
		w.Ins("imul $%d, %s, %s", f, codegen.Mem(src, ptrReg), scratch)
		w.Ins("addb %s, %s", scratchLow, codegen.Mem(dst, ptrReg))
	}
}
