// Package diag defines the errors the compiler pipeline can return.
//
// Every error leaving the pipeline is a *StageError naming the stage that
// produced it. The typed causes (SyntaxError, UnsupportedArchError,
// SinkWriteError) are reachable with errors.As.
package diag

import (
	"errors"
	"fmt"
)

// Stage names a step of the compiler pipeline.
type Stage string

const (
	StageResolve Stage = "resolve"
	StageParse   Stage = "parse"
	StageEmit    Stage = "emit"
)

// SyntaxError reports an unmatched bracket at a 1-based source position.
type SyntaxError struct {
	Line int
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

// UnsupportedArchError is returned for a target outside the registered set.
type UnsupportedArchError struct {
	Arch string
	// Suggestion is the closest registered target, if any is close enough.
	Suggestion string
}

func (e *UnsupportedArchError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unsupported architecture %q (did you mean %q?)", e.Arch, e.Suggestion)
	}
	return fmt.Sprintf("unsupported architecture %q", e.Arch)
}

// SinkWriteError wraps a failure of the output sink.
type SinkWriteError struct {
	Written int64
	Err     error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("write failed after %d bytes: %v", e.Written, e.Err)
}

func (e *SinkWriteError) Unwrap() error { return e.Err }

// StageError tags an error with the pipeline stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Wrap tags err with stage. A nil err stays nil and an error that already
// carries a stage is returned unchanged.
func Wrap(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage, Err: err}
}

// StageOf returns the stage err was tagged with, or "" if it has none.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
