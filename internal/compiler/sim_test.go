package compiler_test

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tinyrange/bfc/internal/codegen"
)

// The simulator executes the subset of AT&T x86 the code generators emit,
// against a flat tape and Linux-like read/write/exit.

const tapeBase = 0x10000

var errSimBudget = errors.New("instruction budget exhausted")

type insn struct {
	op   string
	args []string
}

type cpu struct {
	prog   []insn
	labels map[string]int
	regs   map[string]uint64
	mem    []byte
	in     []byte
	out    []byte
	i386   bool
	steps  int
	exited bool
}

// regName maps every width of a general purpose register onto one slot.
var regName = map[string]string{
	"%rax": "a", "%eax": "a", "%al": "a",
	"%rbx": "b", "%ebx": "b",
	"%rcx": "c", "%ecx": "c",
	"%rdx": "d", "%edx": "d",
	"%rsi": "si", "%esi": "si",
	"%rdi": "di", "%edi": "di",
}

func load(asm string, i386 bool) (*cpu, error) {
	c := &cpu{
		labels: map[string]int{},
		regs:   map[string]uint64{},
		mem:    make([]byte, codegen.TapeSize+codegen.TapeSlack),
		i386:   i386,
	}
	for _, raw := range strings.Split(asm, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "", strings.HasPrefix(line, "#"):
		case strings.HasSuffix(line, ":"):
			c.labels[strings.TrimSuffix(line, ":")] = len(c.prog)
		case strings.HasPrefix(line, "."):
		default:
			op, rest, _ := strings.Cut(line, " ")
			var args []string
			if rest != "" {
				args = strings.Split(rest, ", ")
			}
			c.prog = append(c.prog, insn{op: op, args: args})
		}
	}
	if _, ok := c.labels["_start"]; !ok {
		return nil, errors.New("no _start")
	}
	return c, nil
}

// execute runs asm with the given stdin and returns what it wrote to stdout.
func execute(asm string, i386 bool, input string, budget int) (string, error) {
	c, err := load(asm, i386)
	if err != nil {
		return "", err
	}
	c.in = []byte(input)
	c.steps = budget
	pc := c.labels["_start"]
	for !c.exited {
		if pc >= len(c.prog) {
			return "", errors.New("ran off the end of the program")
		}
		if c.steps--; c.steps < 0 {
			return string(c.out), errSimBudget
		}
		next, err := c.step(c.prog[pc], pc+1)
		if err != nil {
			return string(c.out), fmt.Errorf("%s %v: %w", c.prog[pc].op, c.prog[pc].args, err)
		}
		pc = next
	}
	return string(c.out), nil
}

func (c *cpu) addr(arg string) (int, error) {
	open := strings.IndexByte(arg, '(')
	if open < 0 || !strings.HasSuffix(arg, ")") {
		return 0, fmt.Errorf("not a memory operand: %s", arg)
	}
	reg, ok := regName[arg[open+1:len(arg)-1]]
	if !ok {
		return 0, fmt.Errorf("bad base register in %s", arg)
	}
	off := 0
	if open > 0 {
		var err error
		if off, err = strconv.Atoi(arg[:open]); err != nil {
			return 0, err
		}
	}
	a := int(c.regs[reg]) + off - tapeBase
	if a < 0 || a >= len(c.mem) {
		return 0, fmt.Errorf("tape access at %d out of range", a)
	}
	return a, nil
}

func imm(arg string) (int, error) {
	if !strings.HasPrefix(arg, "$") {
		return 0, fmt.Errorf("not an immediate: %s", arg)
	}
	return strconv.Atoi(arg[1:])
}

func (c *cpu) reg(arg string) (string, error) {
	r, ok := regName[arg]
	if !ok {
		return "", fmt.Errorf("unknown register %s", arg)
	}
	return r, nil
}

// byteOperand resolves an 8-bit source: an immediate, %al or a tape cell.
func (c *cpu) byteOperand(arg string) (byte, error) {
	if arg == "%al" {
		return byte(c.regs["a"]), nil
	}
	if strings.HasPrefix(arg, "$") {
		v, err := imm(arg)
		return byte(v), err
	}
	a, err := c.addr(arg)
	if err != nil {
		return 0, err
	}
	return c.mem[a], nil
}

func (c *cpu) step(in insn, next int) (int, error) {
	a := in.args
	switch in.op {
	case "lea":
		if a[0] != "tape(%rip)" {
			return 0, fmt.Errorf("unexpected lea source %s", a[0])
		}
		r, err := c.reg(a[1])
		c.regs[r] = tapeBase
		return next, err
	case "mov":
		r, err := c.reg(a[1])
		if err != nil {
			return 0, err
		}
		switch {
		case a[0] == "$tape":
			c.regs[r] = tapeBase
		case strings.HasPrefix(a[0], "$"):
			v, err := imm(a[0])
			if err != nil {
				return 0, err
			}
			c.regs[r] = uint64(v)
		default:
			src, err := c.reg(a[0])
			if err != nil {
				return 0, err
			}
			c.regs[r] = c.regs[src]
		}
	case "xor":
		r, err := c.reg(a[1])
		if err != nil {
			return 0, err
		}
		if a[0] != a[1] {
			return 0, errors.New("only self-xor is supported")
		}
		c.regs[r] = 0
	case "add", "sub":
		v, err := imm(a[0])
		if err != nil {
			return 0, err
		}
		r, err := c.reg(a[1])
		if err != nil {
			return 0, err
		}
		if in.op == "sub" {
			v = -v
		}
		c.regs[r] = uint64(int64(c.regs[r]) + int64(v))
	case "movb", "addb", "subb":
		v, err := c.byteOperand(a[0])
		if err != nil {
			return 0, err
		}
		if a[1] == "%al" {
			if in.op != "movb" {
				return 0, errors.New("arithmetic into %al is not supported")
			}
			c.regs["a"] = c.regs["a"]&^0xff | uint64(v)
			return next, nil
		}
		dst, err := c.addr(a[1])
		if err != nil {
			return 0, err
		}
		switch in.op {
		case "movb":
			c.mem[dst] = v
		case "addb":
			c.mem[dst] += v
		case "subb":
			c.mem[dst] -= v
		}
	case "imul":
		f, err := imm(a[0])
		if err != nil {
			return 0, err
		}
		src, err := c.addr(a[1])
		if err != nil {
			return 0, err
		}
		if src+4 > len(c.mem) {
			return 0, errors.New("imul reads past the tape")
		}
		r, err := c.reg(a[2])
		if err != nil {
			return 0, err
		}
		c.regs[r] = uint64(binary.LittleEndian.Uint32(c.mem[src:]) * uint32(f))
	case "cmpb":
		v, err := imm(a[0])
		if err != nil {
			return 0, err
		}
		p, err := c.addr(a[1])
		if err != nil {
			return 0, err
		}
		c.regs["zf"] = 0
		if c.mem[p] == byte(v) {
			c.regs["zf"] = 1
		}
	case "je", "jmp":
		target, ok := c.labels[a[0]]
		if !ok {
			return 0, fmt.Errorf("unknown label %s", a[0])
		}
		if in.op == "jmp" || c.regs["zf"] == 1 {
			return target, nil
		}
	case "syscall":
		if c.i386 {
			return 0, errors.New("syscall in i386 code")
		}
		return next, c.sys(map[uint64]string{0: "read", 1: "write", 60: "exit"}, "di", "si")
	case "int":
		if !c.i386 || a[0] != "$0x80" {
			return 0, errors.New("unexpected int")
		}
		return next, c.sys(map[uint64]string{3: "read", 4: "write", 1: "exit"}, "b", "c")
	default:
		return 0, errors.New("unsupported instruction")
	}
	return next, nil
}

func (c *cpu) sys(calls map[uint64]string, fdReg, bufReg string) error {
	call, ok := calls[c.regs["a"]]
	if !ok {
		return fmt.Errorf("unknown syscall %d", c.regs["a"])
	}
	if call == "exit" {
		c.exited = true
		return nil
	}
	if c.regs["d"] != 1 {
		return fmt.Errorf("%s of %d bytes", call, c.regs["d"])
	}
	p := int(c.regs[bufReg]) - tapeBase
	if p < 0 || p >= codegen.TapeSize {
		return fmt.Errorf("%s buffer %d outside the tape", call, p)
	}
	switch {
	case call == "write" && c.regs[fdReg] == 1:
		c.out = append(c.out, c.mem[p])
		c.regs["a"] = 1
	case call == "read" && c.regs[fdReg] == 0:
		c.regs["a"] = 0
		if len(c.in) > 0 {
			c.mem[p], c.in = c.in[0], c.in[1:]
			c.regs["a"] = 1
		}
	default:
		return fmt.Errorf("%s on fd %d", call, c.regs[fdReg])
	}
	return nil
}
