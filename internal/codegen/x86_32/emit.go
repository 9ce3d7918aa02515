package x86_32

import (
	"github.com/tinyrange/bfc/internal/codegen"
)

func init() {
	codegen.Register(Table, "x86_32", "i386", "i686", "x86-32")
}

// Table emits AT&T syntax i386 assembly for Linux using the int $0x80
// syscall gate. Assemble with `as --32` and link with `ld -m elf_i386`.
var Table = &codegen.Table{
	Name:      "x86",
	Prologue:  prologue,
	Epilogue:  epilogue,
	Right:     func(w *codegen.Writer, n int) { movePtr(w, n) },
	Left:      func(w *codegen.Writer, n int) { movePtr(w, -n) },
	Inc:       func(w *codegen.Writer, n int) { addConst(w, n, 0) },
	Dec:       func(w *codegen.Writer, n int) { addConst(w, -n, 0) },
	Out:       func(w *codegen.Writer) { sys(w, sysWrite, stdout) },
	In:        func(w *codegen.Writer) { sys(w, sysRead, stdin) },
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
	w.Ins("mov $tape, %s", ptrReg)
}

func epilogue(w *codegen.Writer) {
	w.Ins("mov $%d, %%eax", sysExit)
	w.Ins("xor %%ebx, %%ebx")
	w.Ins("int $0x80")
}

// sys issues a one-byte read or write on the current cell. A read at end of
// input transfers nothing, so the cell keeps its value.
func sys(w *codegen.Writer, nr, fd int) {
	w.Ins("mov $%d, %%eax", nr)
	w.Ins("mov $%d, %%ebx", fd)
	w.Ins("mov %s, %%ecx", ptrReg)
	w.Ins("mov $1, %%edx")
	w.Ins("int $0x80")
}

func loopStart(w *codegen.Writer, l int) {
	start, end := codegen.LoopLabels(l)
	w.Label(start)
	w.Ins("cmpb $0, (%s)", ptrReg)
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
	d := delta & 0xff
	if d == 0 {
		return
	}
	if d < 0x80 {
		w.Ins("addb $%d, %s", d, codegen.Mem(offset, ptrReg))
		return
	}
	w.Ins("subb $%d, %s", 0x100-d, codegen.Mem(offset, ptrReg))
}

func movePtr(w *codegen.Writer, offset int) {
	if offset > 0 {
		w.Ins("add $%d, %s", offset, ptrReg)
	} else if offset < 0 {
		w.Ins("sub $%d, %s", -offset, ptrReg)
	}
}

func scan(w *codegen.Writer, l, step int) {
	start, end := codegen.ScanLabels(l)
	w.Label(start)
	w.Ins("cmpb $0, (%s)", ptrReg)
	w.Ins("je %s", end)
	movePtr(w, step)
	w.Ins("jmp %s", start)
	w.Label(end)
}

func mulAdd(w *codegen.Writer, src, dst, factor int) {
	f := factor & 0xff
	switch f {
	case 0:
		return
	case 1, 0xff:
		w.Ins("movb %s, %s", codegen.Mem(src, ptrReg), scratchLow)
		op := "addb"
		if f == 0xff {
			op = "subb"
		}
		w.Ins("%s %s, %s", op, scratchLow, codegen.Mem(dst, ptrReg))
	default:
		// low byte of a 32-bit product only depends on the low byte read
		w.Ins("imul $%d, %s, %s", f, codegen.Mem(src, ptrReg), scratch)
		w.Ins("addb %s, %s", scratchLow, codegen.Mem(dst, ptrReg))
	}
}
