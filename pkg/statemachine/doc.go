// Package statemachine provides an immutable transition table and a small
// machine that fires events against it.
//
// A Table is built once at start-up and shared; it is safe for concurrent use.
// Machines are cheap and are restored at whatever state a record was loaded
// with, so persisted entities (payment transactions, for instance) validate a
// transition before writing it:
//
//	table := statemachine.NewBuilder[Status, Event]().
//	    Permit(StatusPending, EventSucceed, StatusCompleted).
//	    Permit(StatusPending, EventFail, StatusFailed).
//	    MustBuild()
//
//	next, err := table.Next(tx.Status, EventSucceed)
//
// States without outgoing transitions are terminal.
package statemachine
