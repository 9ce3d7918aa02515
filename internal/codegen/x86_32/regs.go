package x86_32

// %ebx, %ecx and %edx carry int $0x80 arguments, so the tape pointer sits
// in %esi, which the gate preserves.
const (
	ptrReg     = "%esi"
	scratch    = "%eax"
	scratchLow = "%al"
)

// Linux i386 syscall numbers.
const (
	sysExit  = 1
	sysRead  = 3
	sysWrite = 4

	stdin  = 0
	stdout = 1
)
