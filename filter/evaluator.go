package filter

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/yatracker/tracker"
)

// EvaluatorOption configures an evaluator
type EvaluatorOption func(*ConcurrentEvaluator)

// WithWorkers sets the number of worker goroutines
func WithWorkers(workers int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		e.workerCount = workers
	}
}

// WithBatchSize sets the chunk size below which evaluation stays sequential
func WithBatchSize(size int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		e.batchSize = size
	}
}

var _ Evaluator = (*ConcurrentEvaluator)(nil)

// ConcurrentEvaluator splits issue lists into chunks and evaluates them on
// a worker pool
type ConcurrentEvaluator struct {
	workerCount int
	batchSize   int
	pool        WorkerPool
}

// NewConcurrentEvaluator creates a new concurrent evaluator
func NewConcurrentEvaluator(opts ...EvaluatorOption) *ConcurrentEvaluator {
	e := &ConcurrentEvaluator{
		workerCount: runtime.GOMAXPROCS(0),
		batchSize:   100,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.workerCount = max(e.workerCount, 1)
	e.batchSize = max(e.batchSize, 1)
	e.pool = NewWorkerPool(e.workerCount)
	return e
}

// Evaluate returns the matching issues in input order
func (e *ConcurrentEvaluator) Evaluate(ctx context.Context, filter CompiledFilter, issues []tracker.FullIssue) ([]tracker.FullIssue, error) {
	if len(issues) == 0 {
		return []tracker.FullIssue{}, nil
	}
	if len(issues) < e.batchSize {
		return evaluateSequential(filter, issues), nil
	}
	return e.evaluateConcurrent(ctx, filter, issues)
}

// EvaluateBatch runs every filter over the issues. Filters run on their own
// goroutines so the shared pool only ever holds chunk work.
func (e *ConcurrentEvaluator) EvaluateBatch(ctx context.Context, filters map[string]CompiledFilter, issues []tracker.FullIssue) (map[string][]tracker.FullIssue, error) {
	results := make(map[string][]tracker.FullIssue, len(filters))
	if len(filters) == 0 || len(issues) == 0 {
		return results, nil
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workerCount)

	for name, filter := range filters {
		g.Go(func() error {
			matches, err := e.Evaluate(ctx, filter, issues)
			if err != nil {
				return err
			}
			mu.Lock()
			results[name] = matches
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func evaluateSequential(filter CompiledFilter, issues []tracker.FullIssue) []tracker.FullIssue {
	matches := make([]tracker.FullIssue, 0, len(issues)/4)
	for _, issue := range issues {
		if filter.Evaluate(issue) {
			matches = append(matches, issue)
		}
	}
	return matches
}

func (e *ConcurrentEvaluator) evaluateConcurrent(ctx context.Context, filter CompiledFilter, issues []tracker.FullIssue) ([]tracker.FullIssue, error) {
	chunkSize := max(len(issues)/e.workerCount, e.batchSize)
	chunks := make([][]tracker.FullIssue, (len(issues)+chunkSize-1)/chunkSize)

	var wg sync.WaitGroup
	for i := range chunks {
		start := i * chunkSize
		chunk := issues[start:min(start+chunkSize, len(issues))]

		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			chunks[i] = evaluateSequential(filter, chunk)
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, err
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	total := 0
	for _, chunk := range chunks {
		total += len(chunk)
	}
	matches := make([]tracker.FullIssue, 0, total)
	for _, chunk := range chunks {
		matches = append(matches, chunk...)
	}
	return matches, nil
}

// Stop gracefully stops the evaluator's worker pool
func (e *ConcurrentEvaluator) Stop(ctx context.Context) error {
	return e.pool.Stop(ctx)
}
