// Package sqlxrepos implements the core repositories on PostgreSQL with sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core"
)

// orderBy renders whitelisted orderings; unknown fields are ignored.
func orderBy(ordering []core.DBOrdering, allowed map[string]string, dflt string) string {
	clauses := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		col, ok := allowed[ord.Field]
		if !ok {
			continue
		}
		clauses = append(clauses, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	if len(clauses) == 0 {
		return " ORDER BY " + dflt
	}
	return " ORDER BY " + strings.Join(clauses, ", ")
}

// inTx runs fn in a transaction, rolling back if fn fails.
func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		return rollback(tx, err)
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// rollback aborts tx after cause. A failed rollback leaves the connection in an
// unknown state, so it is reported as a shutdown error.
func rollback(tx interface{ Rollback() error }, cause error) error {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return errors.Wrap(core.NewShutdownError("rolling back transaction: "+err.Error()), cause.Error())
	}
	return cause
}

func notFound(err, notFoundErr error) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFoundErr
	}
	return err
}
