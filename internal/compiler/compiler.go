// Package compiler runs the full Brainfuck to assembly pipeline: resolve the
// target, parse, optimize, emit.
package compiler

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tinyrange/bfc/internal/codegen"
	_ "github.com/tinyrange/bfc/internal/codegen/x86_32"
	_ "github.com/tinyrange/bfc/internal/codegen/x86_64"
	"github.com/tinyrange/bfc/internal/diag"
	"github.com/tinyrange/bfc/internal/ir"
	"github.com/tinyrange/bfc/internal/parser"
)

type Compiler struct {
	cfg Config
	log logrus.FieldLogger
}

type Option func(*Compiler)

// WithLogger routes stage logging to l. Without it nothing is logged.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Compiler) { c.log = l }
}

func New(cfg Config, opts ...Option) *Compiler {
	if cfg.Arch == "" {
		cfg.Arch = DefaultArch
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	c := &Compiler{cfg: cfg, log: discard}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Compiler) Config() Config { return c.cfg }

// Result describes a successful compilation.
type Result struct {
	Stats codegen.Stats
	// Nodes is the size of the tree that was emitted.
	Nodes int
}

// Compile translates src and writes the assembly to sink. The target is
// checked before anything else, and malformed input never reaches the
// sink. Errors are *diag.StageError values.
func (c *Compiler) Compile(name string, src []byte, sink io.Writer) (Result, error) {
	log := c.log.WithFields(logrus.Fields{"file": name, "arch": c.cfg.Arch, "optimize": c.cfg.Optimize})

	table, err := codegen.Lookup(c.cfg.Arch)
	if err != nil {
		return Result{}, diag.Wrap(diag.StageResolve, err)
	}

	prog, err := c.program(log, src)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	stats, err := codegen.Emit(prog, table, sink)
	if err != nil {
		return Result{}, diag.Wrap(diag.StageEmit, err)
	}
	log.WithFields(logrus.Fields{
		"instructions": stats.Instructions,
		"bytes":        stats.Bytes,
		"elapsed":      time.Since(start),
	}).Debug("emitted")
	return Result{Stats: stats, Nodes: prog.Len()}, nil
}

// Program parses src and, if enabled, optimizes it, without emitting.
func (c *Compiler) Program(src []byte) (*ir.Program, error) {
	return c.program(c.log, src)
}

func (c *Compiler) program(log logrus.FieldLogger, src []byte) (*ir.Program, error) {
	prog, err := parser.Parse(src)
	if err != nil {
		return nil, diag.Wrap(diag.StageParse, err)
	}
	log.WithField("nodes", prog.Len()).Debug("parsed")
	if !c.cfg.Optimize {
		return prog, nil
	}
	opt := ir.Optimize(prog)
	log.WithFields(logrus.Fields{"nodes": opt.Len(), "before": prog.Len()}).Debug("optimized")
	return opt, nil
}

// Compare compiles src both with and without optimization and returns the
// two emission stats. Nothing is written anywhere.
func (c *Compiler) Compare(src []byte) (base, opt codegen.Stats, err error) {
	table, err := codegen.Lookup(c.cfg.Arch)
	if err != nil {
		return base, opt, diag.Wrap(diag.StageResolve, err)
	}
	prog, err := parser.Parse(src)
	if err != nil {
		return base, opt, diag.Wrap(diag.StageParse, err)
	}
	baseline := prog.Clone()
	if base, err = codegen.Emit(baseline, table, io.Discard); err != nil {
		return base, opt, diag.Wrap(diag.StageEmit, err)
	}
	if opt, err = codegen.Emit(ir.Optimize(prog), table, io.Discard); err != nil {
		return base, opt, diag.Wrap(diag.StageEmit, err)
	}
	return base, opt, nil
}
