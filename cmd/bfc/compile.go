package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tinyrange/bfc/internal/compiler"
)

// partials holds output files that are still being written. They are
// removed if the process exits before they are complete.
var partials = struct {
	sync.Mutex
	paths map[string]struct{}
}{paths: map[string]struct{}{}}

func trackPartial(path string) {
	partials.Lock()
	partials.paths[path] = struct{}{}
	partials.Unlock()
}

func untrackPartial(path string) {
	partials.Lock()
	delete(partials.paths, path)
	partials.Unlock()
}

func removePartials() {
	partials.Lock()
	defer partials.Unlock()
	for p := range partials.paths {
		_ = os.Remove(p)
		delete(partials.paths, p)
	}
}

// outputPath is where the result for in goes. An empty path means stdout.
func outputPath(in string, opts options, many bool) string {
	if !many {
		return opts.output
	}
	ext := ".s"
	if opts.emitIR {
		ext = ".ir"
	}
	return strings.TrimSuffix(in, filepath.Ext(in)) + ext
}

func compileAll(ctx context.Context, c *compiler.Compiler, inputs []string, opts options) error {
	many := len(inputs) > 1
	if many && opts.output != "" {
		return usageError{fmt.Errorf("-o cannot be used with %d inputs", len(inputs))}
	}
	if !many {
		return compileFile(c, inputs[0], outputPath(inputs[0], opts, false), opts)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.jobs)
	for _, in := range inputs {
		in := in
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			return compileFile(c, in, outputPath(in, opts, true), opts)
		})
	}
	return g.Wait()
}

// compileFile compiles in to out, or to stdout when out is empty. A failed
// compilation leaves no output file behind.
func compileFile(c *compiler.Compiler, in, out string, opts options) (err error) {
	src, err := os.ReadFile(in)
	if err != nil {
		return ioError{err}
	}

	var w io.Writer = os.Stdout
	if out != "" {
		f, cerr := os.Create(out)
		if cerr != nil {
			return ioError{cerr}
		}
		trackPartial(out)
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = ioError{cerr}
			}
			if err != nil {
				_ = os.Remove(out)
			}
			untrackPartial(out)
		}()
		w = f
	}

	if err := write(c, in, src, w, opts.emitIR); err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	if opts.stats && opts.log != nil {
		base, opt, err := c.Compare(src)
		if err != nil {
			return fmt.Errorf("%s: %w", in, err)
		}
		opts.log.WithFields(logrus.Fields{
			"file":        in,
			"unoptimized": base.Instructions,
			"optimized":   opt.Instructions,
		}).Info("instruction count")
	}
	return nil
}

func write(c *compiler.Compiler, name string, src []byte, w io.Writer, emitIR bool) error {
	if !emitIR {
		_, err := c.Compile(name, src, w)
		return err
	}
	prog, err := c.Program(src)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, prog.String()); err != nil {
		return ioError{err}
	}
	return nil
}
