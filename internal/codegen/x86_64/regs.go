package x86_64

// Register assignment. The tape pointer has to survive syscalls, which
// clobber %rcx and %r11 and use %rax/%rdi/%rsi/%rdx for arguments, so it
// lives in callee-saved %rbx. %eax doubles as the multiply-add scratch.
const (
	ptrReg     = "%rbx"
	scratch    = "%eax"
	scratchLow = "%al"
)

// Linux x86-64 syscall numbers and argument registers.
const (
	sysRead  = 0
	sysWrite = 1
	sysExit  = 60

	stdin  = 0
	stdout = 1
)

var syscallRegs = struct{ nr, arg0, arg1, arg2 string }{
	nr:   "%eax",
	arg0: "%edi",
	arg1: "%rsi",
	arg2: "%edx",
}
