package filter

import (
	"context"
	"fmt"
	"testing"
)

func BenchmarkCompileFilter(b *testing.B) {
	expressions := []struct {
		name string
		expr string
	}{
		{"simple", `inQueue("ALPHA")`},
		{"complex", `inQueue("ALPHA") and statusIs("open") and daysSince(CreatedAt) > 7`},
	}

	for _, tc := range expressions {
		b.Run(tc.name, func(b *testing.B) {
			compiler := NewExprCompiler()
			for b.Loop() {
				if _, err := compiler.Compile(tc.expr); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkCompileFilterWithCache(b *testing.B) {
	compiler := NewExprCompiler(WithCache(10))
	for b.Loop() {
		if _, err := compiler.Compile(`inQueue("ALPHA") and Votes > 3`); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEvaluateFilter(b *testing.B) {
	issue := testIssue()
	filter, err := NewExprCompiler().Compile(`assignedTo("Ivan Ivanov") and Votes > 2`)
	if err != nil {
		b.Fatal(err)
	}

	for b.Loop() {
		filter.Evaluate(issue)
	}
}

func BenchmarkEvaluateConcurrent(b *testing.B) {
	issues := generateTestIssues(10000)
	filter, err := NewExprCompiler().Compile(`inQueue("ALPHA") and Votes > 3`)
	if err != nil {
		b.Fatal(err)
	}

	for _, workers := range []int{1, 4, 8} {
		b.Run(fmt.Sprintf("workers-%d", workers), func(b *testing.B) {
			evaluator := NewConcurrentEvaluator(WithWorkers(workers))
			defer evaluator.Stop(context.Background())

			for b.Loop() {
				if _, err := evaluator.Evaluate(context.Background(), filter, issues); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
