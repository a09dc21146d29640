package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/mathquest/internal/curriculum"
	"github.com/abhisek/mathquest/internal/difficulty"
	"github.com/abhisek/mathquest/internal/progress"
	"github.com/abhisek/mathquest/internal/session"
)

// SaveAnswerEvent appends one scored answer.
func (s *Store) SaveAnswerEvent(ctx context.Context, userID, sessionID string, ev session.AnswerEvent) error {
	normalized, err := json.Marshal(ev.Normalized)
	if err != nil {
		return fmt.Errorf("marshal normalized answer: %w", err)
	}
	expected, err := json.Marshal(ev.Expected)
	if err != nil {
		return fmt.Errorf("marshal expected answer: %w", err)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		seq, err := nextSequence(ctx, tx)
		if err != nil {
			return err
		}
		query, args := sqlBuilder.Insert(tableAnswerEvents).
			Columns(
				"sequence", "user_id", "session_id", "question_id", "question_text",
				"operation", "question_index", "raw_input", "normalized", "expected",
				"correct", "time_ms", "tier", "xp", "answered_at",
			).
			Values(
				seq, userID, sessionID, ev.QuestionID, ev.QuestionText,
				string(ev.Operation), ev.Index, ev.RawInput, string(normalized), string(expected),
				ev.Correct, ev.TimeMs, ev.Tier.String(), ev.XP, millis(ev.AnsweredAt),
			).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert answer event: %w", err)
		}
		return nil
	})
}

// History returns every answer userID has given, oldest first.
func (s *Store) History(ctx context.Context, userID string) ([]progress.Entry, error) {
	query, args := sqlBuilder.Select("operation", "correct", "answered_at").
		From(sqlBuilder.Table(tableAnswerEvents)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Asc("sequence")).
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []progress.Entry
	for rows.Next() {
		var (
			op       string
			correct  bool
			answered int64
		)
		if err := rows.Scan(&op, &correct, &answered); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, progress.Entry{
			Operation: curriculum.Operation(op),
			Correct:   correct,
			Timestamp: fromMillis(answered),
		})
	}
	return out, rows.Err()
}

// SessionAnswers returns the answers recorded for one session in the order
// they were given.
func (s *Store) SessionAnswers(ctx context.Context, sessionID string) ([]session.AnswerEvent, error) {
	query, args := sqlBuilder.Select(
		"question_id", "question_text", "operation", "question_index", "raw_input",
		"normalized", "expected", "correct", "time_ms", "tier", "xp", "answered_at",
	).
		From(sqlBuilder.Table(tableAnswerEvents)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy(entsql.Asc("sequence")).
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query session answers: %w", err)
	}
	defer rows.Close()

	var out []session.AnswerEvent
	for rows.Next() {
		var (
			ev                   session.AnswerEvent
			op, tier             string
			normalized, expected string
			answered             int64
		)
		if err := rows.Scan(
			&ev.QuestionID, &ev.QuestionText, &op, &ev.Index, &ev.RawInput,
			&normalized, &expected, &ev.Correct, &ev.TimeMs, &tier, &ev.XP, &answered,
		); err != nil {
			return nil, fmt.Errorf("scan session answer: %w", err)
		}
		if err := json.Unmarshal([]byte(normalized), &ev.Normalized); err != nil {
			return nil, fmt.Errorf("decode normalized answer: %w", err)
		}
		if err := json.Unmarshal([]byte(expected), &ev.Expected); err != nil {
			return nil, fmt.Errorf("decode expected answer: %w", err)
		}
		ev.Operation = curriculum.Operation(op)
		if ev.Tier, err = difficulty.ParseTier(tier); err != nil {
			return nil, fmt.Errorf("decode tier: %w", err)
		}
		ev.AnsweredAt = fromMillis(answered)
		out = append(out, ev)
	}
	return out, rows.Err()
}
