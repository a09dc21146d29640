package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/mathquest/internal/llm"
)

var llmEventColumns = []string{
	"id", "sequence", "created_at", "provider", "model", "purpose",
	"input_tokens", "output_tokens", "latency_ms", "success",
	"error_message", "request_body", "response_body",
}

// AppendLLMRequest records one provider call. It implements llm.EventLogger.
func (s *Store) AppendLLMRequest(ctx context.Context, ev llm.RequestEvent) error {
	createdAt := ev.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		seq, err := nextSequence(ctx, tx)
		if err != nil {
			return err
		}
		query, args := sqlBuilder.Insert(tableLLMEvents).
			Columns(
				"sequence", "provider", "model", "purpose", "input_tokens", "output_tokens",
				"latency_ms", "success", "error_message", "request_body", "response_body", "created_at",
			).
			Values(
				seq, ev.Provider, ev.Model, ev.Purpose, ev.InputTokens, ev.OutputTokens,
				ev.LatencyMs, ev.Success, ev.ErrorMessage, ev.RequestBody, ev.ResponseBody, millis(createdAt),
			).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("save LLM request event: %w", err)
		}
		return nil
	})
}

// QueryLLMEvents returns events newest first.
func (s *Store) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEventRecord, error) {
	sel := sqlBuilder.Select(llmEventColumns...).
		From(sqlBuilder.Table(tableLLMEvents)).
		OrderBy(entsql.Desc("sequence"))
	if opts.Purpose != "" {
		sel.Where(entsql.EQ("purpose", opts.Purpose))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	query, args := sel.Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var out []LLMEventRecord
	for rows.Next() {
		r, err := scanLLMEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetLLMEvent returns the event with id, or nil if there is none.
func (s *Store) GetLLMEvent(ctx context.Context, id int) (*LLMEventRecord, error) {
	query, args := sqlBuilder.Select(llmEventColumns...).
		From(sqlBuilder.Table(tableLLMEvents)).
		Where(entsql.EQ("id", id)).
		Query()

	r, err := scanLLMEvent(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// LLMUsageByPurpose aggregates calls, tokens and latency per purpose.
func (s *Store) LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error) {
	query, args := sqlBuilder.Select(
		"purpose",
		entsql.Count("*"),
		"COALESCE(SUM(`input_tokens`), 0)",
		"COALESCE(SUM(`output_tokens`), 0)",
		"CAST(COALESCE(AVG(`latency_ms`), 0) AS INTEGER)",
	).
		From(sqlBuilder.Table(tableLLMEvents)).
		GroupBy("purpose").
		OrderBy("purpose").
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM usage: %w", err)
	}
	defer rows.Close()

	var out []LLMUsageStats
	for rows.Next() {
		var u LLMUsageStats
		if err := rows.Scan(&u.Purpose, &u.Calls, &u.InputTokens, &u.OutputTokens, &u.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan LLM usage: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// LLMUsageByModel aggregates calls and tokens per model.
func (s *Store) LLMUsageByModel(ctx context.Context) ([]ModelUsage, error) {
	query, args := sqlBuilder.Select(
		"model",
		entsql.Count("*"),
		"COALESCE(SUM(`input_tokens`), 0)",
		"COALESCE(SUM(`output_tokens`), 0)",
	).
		From(sqlBuilder.Table(tableLLMEvents)).
		GroupBy("model").
		OrderBy("model").
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query model usage: %w", err)
	}
	defer rows.Close()

	var out []ModelUsage
	for rows.Next() {
		var u ModelUsage
		if err := rows.Scan(&u.Model, &u.Calls, &u.InputTokens, &u.OutputTokens); err != nil {
			return nil, fmt.Errorf("scan model usage: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLLMEvent(row rowScanner) (LLMEventRecord, error) {
	var (
		r         LLMEventRecord
		createdAt int64
	)
	err := row.Scan(
		&r.ID, &r.Sequence, &createdAt, &r.Provider, &r.Model, &r.Purpose,
		&r.InputTokens, &r.OutputTokens, &r.LatencyMs, &r.Success,
		&r.ErrorMessage, &r.RequestBody, &r.ResponseBody,
	)
	if err != nil {
		return LLMEventRecord{}, err
	}
	r.Timestamp = fromMillis(createdAt)
	return r, nil
}
