// Package postgres is the authoritative store on PostgreSQL. Queries are built with
// squirrel and run through pg.DB; the schema lives in the migrations subpackage.
//
// TransactionStore.Transition is a single conditional UPDATE guarded by the expected
// current status, which is what makes payment application idempotent across processes.
package postgres

import "github.com/Masterminds/squirrel"

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
