package main

import (
	"errors"
	"io/fs"

	"github.com/tinyrange/bfc/internal/diag"
)

const (
	exitOK = iota
	exitUsage
	exitIO
	exitSyntax
	exitCodegen
)

type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

type ioError struct{ err error }

func (e ioError) Error() string { return e.err.Error() }
func (e ioError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var (
		syntax *diag.SyntaxError
		arch   *diag.UnsupportedArchError
		sink   *diag.SinkWriteError
		path   *fs.PathError
	)
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &usageError{}):
		return exitUsage
	case errors.As(err, &syntax):
		return exitSyntax
	case errors.As(err, &arch):
		return exitCodegen
	case errors.As(err, &sink), errors.As(err, &ioError{}), errors.As(err, &path):
		return exitIO
	}
	if diag.StageOf(err) != "" {
		return exitCodegen
	}
	return exitUsage
}
