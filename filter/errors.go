package filter

import (
	"errors"
	"fmt"
)

// ErrUnknownPreset is returned when a preset name is not registered
var ErrUnknownPreset = errors.New("unknown filter preset")

// CompilationError reports an expression that expr rejected
type CompilationError struct {
	Expression string
	Reason     string
	Err        error
}

func (e *CompilationError) Error() string {
	msg := fmt.Sprintf("cannot compile %q: %s", e.Expression, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CompilationError) Unwrap() error { return e.Err }

// EvaluationError reports a filter that failed at run time on one record
type EvaluationError struct {
	Expression string
	Record     string
	Reason     string
	Err        error
}

func (e *EvaluationError) Error() string {
	msg := fmt.Sprintf("filter %q failed on %s: %s", e.Expression, e.Record, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EvaluationError) Unwrap() error { return e.Err }
