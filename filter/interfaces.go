package filter

import (
	"context"

	"github.com/s0up4200/yatracker/tracker"
)

// Filter matches issues. Runtime errors count as no match.
type Filter interface {
	Evaluate(issue tracker.FullIssue) bool
}

// CompiledFilter is a type-checked expression, safe for concurrent use.
type CompiledFilter interface {
	Filter
	Match(issue tracker.FullIssue) (bool, error)
	Expression() string
}

// Compiler turns expression text into a CompiledFilter.
type Compiler interface {
	Compile(expression string) (CompiledFilter, error)
}

// CachingCompiler is a Compiler that reuses programs per expression text.
type CachingCompiler interface {
	Compiler
	Clear()
	Size() int
}

// Evaluator applies compiled filters to issue lists. Matches keep the
// order of the input slice.
type Evaluator interface {
	Evaluate(ctx context.Context, filter CompiledFilter, issues []tracker.FullIssue) ([]tracker.FullIssue, error)
	// EvaluateBatch returns the matches of every filter, keyed like filters.
	EvaluateBatch(ctx context.Context, filters map[string]CompiledFilter, issues []tracker.FullIssue) (map[string][]tracker.FullIssue, error)
	Stop(ctx context.Context) error
}

// WorkerPool runs submitted funcs on a fixed set of goroutines. Submit
// blocks while all workers are busy and fails with ErrPoolStopped after Stop.
type WorkerPool interface {
	Submit(work func()) error
	Stop(ctx context.Context) error
}
