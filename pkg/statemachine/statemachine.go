package statemachine

import (
	"context"
	"fmt"
)

// Guard evaluates whether a transition should be allowed based on runtime conditions.
type Guard[S, E comparable] func(ctx context.Context, from S, event E, data any) bool

// Action runs before the state changes. Returning an error prevents the transition.
type Action[S, E comparable] func(ctx context.Context, from, to S, event E, data any) error

type transition[S, E comparable] struct {
	to      S
	guards  []Guard[S, E]
	actions []Action[S, E]
}

type key[S, E comparable] struct {
	from  S
	event E
}

// Table is an immutable set of transitions.
type Table[S, E comparable] struct {
	transitions map[key[S, E]]transition[S, E]
	outgoing    map[S]int
}

// Next returns the target state for event fired in from, ignoring guards.
func (t *Table[S, E]) Next(from S, event E) (S, error) {
	tr, ok := t.transitions[key[S, E]{from, event}]
	if !ok {
		var zero S
		return zero, &ErrNoTransitionAvailable{StateName: fmt.Sprint(from), EventName: fmt.Sprint(event)}
	}
	return tr.to, nil
}

// Can reports whether from has a transition for event.
func (t *Table[S, E]) Can(from S, event E) bool {
	_, ok := t.transitions[key[S, E]{from, event}]
	return ok
}

// IsTerminal reports whether s has no outgoing transitions.
func (t *Table[S, E]) IsTerminal(s S) bool {
	return t.outgoing[s] == 0
}

// Machine returns a machine positioned at current.
func (t *Table[S, E]) Machine(current S) *Machine[S, E] {
	return &Machine[S, E]{table: t, current: current}
}

// Machine tracks the current state of one entity. It is not safe for concurrent use.
type Machine[S, E comparable] struct {
	table   *Table[S, E]
	current S
}

func (m *Machine[S, E]) Current() S {
	return m.current
}

// Fire evaluates guards, runs actions in order and moves to the target state.
func (m *Machine[S, E]) Fire(ctx context.Context, event E, data any) error {
	tr, ok := m.table.transitions[key[S, E]{m.current, event}]
	if !ok {
		return &ErrNoTransitionAvailable{StateName: fmt.Sprint(m.current), EventName: fmt.Sprint(event)}
	}

	for _, guard := range tr.guards {
		if !guard(ctx, m.current, event, data) {
			return &ErrTransitionRejected{StateName: fmt.Sprint(m.current), EventName: fmt.Sprint(event)}
		}
	}

	for _, action := range tr.actions {
		if err := action(ctx, m.current, tr.to, event, data); err != nil {
			return err
		}
	}

	m.current = tr.to
	return nil
}
