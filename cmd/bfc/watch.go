package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tinyrange/bfc/internal/compiler"
)

func newWatchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <file.bf>...",
		Short: "Recompile inputs whenever they change",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 && opts.output != "" {
				return usageError{fmt.Errorf("-o cannot be used with %d inputs", len(args))}
			}
			c, err := opts.compiler(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return watch(ctx, c, args, *opts, opts.log)
		},
	}
}

// watch compiles every input once, then again on each write. Compile errors
// are logged and do not stop the watcher.
func watch(ctx context.Context, c *compiler.Compiler, inputs []string, opts options, log logrus.FieldLogger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return ioError{err}
	}
	defer w.Close()

	many := len(inputs) > 1
	watched := map[string]string{}
	dirs := map[string]bool{}
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return ioError{err}
		}
		watched[abs] = in
		// Editors often replace files on save, so watch the directory.
		if dir := filepath.Dir(abs); !dirs[dir] {
			if err := w.Add(dir); err != nil {
				return ioError{err}
			}
			dirs[dir] = true
		}
	}

	rebuild := func(in string) {
		out := outputPath(in, opts, many)
		if err := compileFile(c, in, out, opts); err != nil {
			log.WithError(err).Error("compile failed")
			return
		}
		log.WithField("file", in).Info("compiled")
	}
	for _, in := range inputs {
		rebuild(in)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if in, ok := watched[filepath.Clean(ev.Name)]; ok {
				rebuild(in)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("watch error")
		}
	}
}
