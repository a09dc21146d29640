package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

const (
	tableSequence  = "global_sequence"
	sequenceRowID  = 1
	sequenceColumn = "next_val"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// seedSequence makes sure the single counter row exists. Answer events and
// LLM events both draw from it so the two tables can be merged in order.
func seedSequence(ctx context.Context, q queryer) error {
	query, args := sqlBuilder.Insert(tableSequence).
		Columns("id", sequenceColumn).
		Values(sequenceRowID, 1).
		OnConflict(entsql.DoNothing()).
		Query()
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("seed sequence: %w", err)
	}
	return nil
}

// nextSequence claims the next value. Run it inside the transaction that
// writes the event so a rolled-back insert does not burn a number.
func nextSequence(ctx context.Context, q queryer) (int64, error) {
	query, args := sqlBuilder.Update(tableSequence).
		Add(sequenceColumn, 1).
		Where(entsql.EQ("id", sequenceRowID)).
		Returning(sequenceColumn).
		Query()

	var next int64
	if err := q.QueryRowContext(ctx, query, args...).Scan(&next); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return next - 1, nil
}
