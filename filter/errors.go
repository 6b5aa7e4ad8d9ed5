package filter

import (
	"errors"
	"fmt"
)

// ErrEmptyExpression is returned when compiling a blank expression.
var ErrEmptyExpression = errors.New("empty expression")

// CompilationError reports an expression that does not parse, uses a name
// the issue environment lacks, or does not yield a bool.
type CompilationError struct {
	Expression string
	Err        error
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("invalid filter %q: %v", e.Expression, e.Err)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}

// EvaluationError reports a filter that failed at run time on one issue,
// e.g. by reading a field of an unset assignee.
type EvaluationError struct {
	Expression string
	IssueKey   string
	Err        error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("filter %q failed on %s: %v", e.Expression, e.IssueKey, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}
