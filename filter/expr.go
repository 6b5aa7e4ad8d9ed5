package filter

import (
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/yatracker/tracker"
)

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	helpers    map[string]any
	envPool    *sync.Pool
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) ExprCompilerOption {
	return func(c *exprCompiler) {
		if size > 0 {
			c.cache = newLRUCache[CompiledFilter](size)
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *exprCompiler) {
		maps.Copy(c.helpers, funcs)
	}
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) Compiler {
	c := &exprCompiler{
		helpers: make(map[string]any, 16),
	}
	addHelperFunctions(c.helpers)

	for _, opt := range opts {
		opt(c)
	}

	c.envPool = &sync.Pool{
		New: func() any {
			return make(map[string]any, 32)
		},
	}
	return c
}

type exprCompiler struct {
	helpers map[string]any
	cache   *lruCache[CompiledFilter]
	envPool *sync.Pool
}

// Compile type-checks the expression against an empty issue so unknown
// names fail here instead of at evaluation time.
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{Expression: expression, Err: ErrEmptyExpression}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	env := make(map[string]any, 32)
	fillEnvironment(env, c.helpers, tracker.FullIssue{})

	program, err := expr.Compile(expression, expr.Env(env), expr.AsBool())
	if err != nil {
		return nil, &CompilationError{Expression: expression, Err: err}
	}

	filter := &exprFilter{
		expression: expression,
		program:    program,
		helpers:    c.helpers,
		envPool:    c.envPool,
	}
	if c.cache != nil {
		c.cache.Put(expression, filter)
	}
	return filter, nil
}

// Clear removes all cached filters
func (c *exprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *exprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Size()
	}
	return 0
}

// Evaluate reports whether the issue matches; runtime errors count as no match.
func (f *exprFilter) Evaluate(issue tracker.FullIssue) bool {
	ok, err := f.Match(issue)
	return err == nil && ok
}

func (f *exprFilter) Match(issue tracker.FullIssue) (bool, error) {
	env := f.envPool.Get().(map[string]any)
	defer func() {
		clear(env)
		f.envPool.Put(env)
	}()
	fillEnvironment(env, f.helpers, issue)

	result, err := expr.Run(f.program, env)
	if err != nil {
		return false, &EvaluationError{Expression: f.expression, IssueKey: issue.Key, Err: err}
	}
	// AsBool guarantees the result type
	return result.(bool), nil
}

func (f *exprFilter) Expression() string {
	return f.expression
}

func addHelperFunctions(env map[string]any) {
	// Date helpers
	env["daysSince"] = func(t time.Time) int {
		return int(time.Since(t).Hours() / 24)
	}
	env["daysAgo"] = func(days int) time.Time {
		return time.Now().AddDate(0, 0, -days)
	}
	env["monthsAgo"] = func(months int) time.Time {
		return time.Now().AddDate(0, -months, 0)
	}
	env["parseDate"] = func(s string) time.Time {
		t, _ := time.Parse(tracker.DateLayout, s)
		return t
	}
	env["now"] = time.Now
	// String helpers; contains and startsWith are already infix operators
	env["icontains"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["lower"] = strings.ToLower
	env["upper"] = strings.ToUpper
}

// fillEnvironment populates env with the helpers, the issue and its
// flattened properties.
func fillEnvironment(env, helpers map[string]any, issue tracker.FullIssue) {
	maps.Copy(env, helpers)

	env["Issue"] = issue
	env["Key"] = issue.Key
	env["Summary"] = issue.Summary
	env["Description"] = issue.Description
	env["Status"] = issue.Status.Key
	env["Queue"] = issue.Queue.Key
	env["Type"] = issue.Type.Key
	env["Priority"] = issue.Priority.Key
	env["Votes"] = issue.Votes
	env["Favorite"] = issue.Favorite
	env["Aliases"] = issue.Aliases
	env["CreatedAt"] = issue.CreatedAt.Time

	updated := issue.CreatedAt.Time
	if issue.UpdatedAt != nil {
		updated = issue.UpdatedAt.Time
	}
	env["UpdatedAt"] = updated

	assignee := ""
	if issue.Assignee != nil {
		assignee = issue.Assignee.Display
	}
	env["Assignee"] = assignee

	env["hasAlias"] = hasAliasFunc(issue.Aliases)
	env["assignedTo"] = assignedToFunc(issue.Assignee)
	env["inQueue"] = func(key string) bool {
		return strings.EqualFold(issue.Queue.Key, key)
	}
	env["statusIs"] = func(status string) bool {
		return strings.EqualFold(issue.Status.Key, status) || strings.EqualFold(issue.Status.Display, status)
	}
}

func hasAliasFunc(aliases []string) func(string) bool {
	lowered := make([]string, len(aliases))
	for i, alias := range aliases {
		lowered[i] = strings.ToLower(alias)
	}
	return func(alias string) bool {
		return slices.Contains(lowered, strings.ToLower(alias))
	}
}

// assignedToFunc matches the assignee by id or display name
func assignedToFunc(assignee *tracker.User) func(string) bool {
	return func(who string) bool {
		if assignee == nil {
			return false
		}
		return assignee.ID == who || strings.EqualFold(assignee.Display, who)
	}
}
