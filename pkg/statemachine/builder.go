package statemachine

import (
	"errors"
	"fmt"
)

// Builder accumulates transitions for a Table.
type Builder[S, E comparable] struct {
	transitions map[key[S, E]]transition[S, E]
	outgoing    map[S]int
	errs        []error
}

func NewBuilder[S, E comparable]() *Builder[S, E] {
	return &Builder[S, E]{
		transitions: make(map[key[S, E]]transition[S, E]),
		outgoing:    make(map[S]int),
	}
}

// Permit adds a transition from -> to on event. Permitting the same from/event pair twice is an error reported by Build.
func (b *Builder[S, E]) Permit(from S, event E, to S) *Builder[S, E] {
	return b.PermitIf(from, event, to, nil)
}

// PermitIf adds a guarded transition with optional actions.
func (b *Builder[S, E]) PermitIf(from S, event E, to S, guard Guard[S, E], actions ...Action[S, E]) *Builder[S, E] {
	k := key[S, E]{from, event}
	if _, exists := b.transitions[k]; exists {
		b.errs = append(b.errs, fmt.Errorf("%w: %v on %v", ErrDuplicateTransition, from, event))
		return b
	}

	tr := transition[S, E]{to: to, actions: actions}
	if guard != nil {
		tr.guards = append(tr.guards, guard)
	}
	b.transitions[k] = tr
	b.outgoing[from]++
	return b
}

func (b *Builder[S, E]) Build() (*Table[S, E], error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	if len(b.transitions) == 0 {
		return nil, ErrEmptyTable
	}

	t := &Table[S, E]{
		transitions: make(map[key[S, E]]transition[S, E], len(b.transitions)),
		outgoing:    make(map[S]int, len(b.outgoing)),
	}
	for k, v := range b.transitions {
		t.transitions[k] = v
	}
	for k, v := range b.outgoing {
		t.outgoing[k] = v
	}
	return t, nil
}

// MustBuild is Build that panics on error. Intended for package-level tables.
func (b *Builder[S, E]) MustBuild() *Table[S, E] {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}
