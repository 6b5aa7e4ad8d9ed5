package tracker

import (
	"context"
	"iter"
)

// Transition is a workflow transition available for an issue.
type Transition struct {
	Base
	ID      string `json:"id"`
	URL     string `json:"self"`
	Display string `json:"display"`
	To      Status `json:"to"`
}

func (t Transition) String() string { return displayOr(t.Display, "Transition") }

// Execute performs the transition with optional extra fields such as
// "comment" or "resolution". It returns the transitions available
// afterwards.
func (t *Transition) Execute(ctx context.Context, extra Fields) ([]Transition, error) {
	c := t.Tracker()
	if c == nil {
		return nil, ErrUnbound
	}
	return c.ExecuteTransition(ctx, t, extra)
}

// Transitions is an ordered set of transitions keyed by id.
//
// Lookups may be repeated, but iteration is one-shot: Next and All share a
// cursor that only moves forward. Fetch the transitions again to iterate
// anew. A Transitions value must not be iterated from several goroutines.
type Transitions struct {
	order  []string
	byID   map[string]*Transition
	cursor int
}

// NewTransitions builds a set in the order given. A repeated id replaces
// the earlier value but keeps its position.
func NewTransitions(list []Transition) *Transitions {
	ts := &Transitions{
		order: make([]string, 0, len(list)),
		byID:  make(map[string]*Transition, len(list)),
	}
	for i := range list {
		t := &list[i]
		if _, ok := ts.byID[t.ID]; !ok {
			ts.order = append(ts.order, t.ID)
		}
		ts.byID[t.ID] = t
	}
	return ts
}

// Get returns the transition with the given id.
func (ts *Transitions) Get(id string) (*Transition, bool) {
	t, ok := ts.byID[id]
	return t, ok
}

// Len returns the number of transitions.
func (ts *Transitions) Len() int {
	return len(ts.order)
}

// Keys returns transition ids in order.
func (ts *Transitions) Keys() []string {
	return append([]string(nil), ts.order...)
}

// Next returns the next transition and advances the cursor. It reports
// false once every transition has been returned, and keeps doing so.
func (ts *Transitions) Next() (*Transition, bool) {
	if ts.cursor >= len(ts.order) {
		return nil, false
	}
	t := ts.byID[ts.order[ts.cursor]]
	ts.cursor++
	return t, true
}

// All yields the remaining transitions, advancing the shared cursor.
func (ts *Transitions) All() iter.Seq[*Transition] {
	return func(yield func(*Transition) bool) {
		for {
			t, ok := ts.Next()
			if !ok || !yield(t) {
				return
			}
		}
	}
}
