package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/tinyrange/bfc/internal/compiler"
)

type options struct {
	output       string
	arch         string
	noOptimize   bool
	noPreprocess bool
	configPath   string
	emitIR       bool
	verbose      bool
	stats        bool
	jobs         int

	log *logrus.Logger
}

func main() {
	atexit.Register(removePartials)

	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "bfc: %v\n", err)
		atexit.Exit(exitCode(err))
	}
	atexit.Exit(0)
}

func newRootCmd() *cobra.Command {
	var opts options

	root := &cobra.Command{
		Use:           "bfc [flags] <file.bf>...",
		Short:         "Compile Brainfuck programs to x86 assembly",
		Args:          usageArgs(cobra.MinimumNArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.compiler(cmd)
			if err != nil {
				return err
			}
			return compileAll(cmd.Context(), c, args, opts)
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	f := root.PersistentFlags()
	f.StringVarP(&opts.output, "output", "o", "", "output path (single input only; default stdout)")
	f.StringVarP(&opts.arch, "arch", "a", compiler.DefaultArch, "target architecture")
	f.BoolVarP(&opts.noOptimize, "no-optimize", "O", false, "disable idiom optimization")
	f.BoolVarP(&opts.noPreprocess, "no-preprocess", "P", false, "same as --no-optimize")
	f.StringVar(&opts.configPath, "config", "", "TOML config file")
	f.BoolVar(&opts.emitIR, "emit-ir", false, "print the program tree instead of assembly")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log each pipeline stage")
	f.BoolVar(&opts.stats, "stats", false, "log instruction counts with and without optimization")
	f.IntVarP(&opts.jobs, "jobs", "j", runtime.NumCPU(), "files compiled in parallel")

	root.AddCommand(newTargetsCmd(), newWatchCmd(&opts))
	return root
}

// compiler builds a Compiler from the config file, if any, with explicitly
// set flags taking precedence.
func (o *options) compiler(cmd *cobra.Command) (*compiler.Compiler, error) {
	cfg := compiler.DefaultConfig()
	if o.configPath != "" {
		loaded, err := compiler.LoadConfig(o.configPath)
		if err != nil {
			return nil, usageError{err}
		}
		cfg = loaded
	}
	flags := cmd.Flags()
	if flags.Changed("arch") {
		cfg.Arch = o.arch
	}
	if o.noOptimize || o.noPreprocess {
		cfg.Optimize = false
	}
	if o.jobs < 1 {
		return nil, usageError{fmt.Errorf("--jobs must be at least 1, got %d", o.jobs)}
	}
	o.log = newLogger(o.verbose)
	return compiler.New(cfg, compiler.WithLogger(o.log)), nil
}

func newLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}
