package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/mathquest/internal/session"
)

// SummaryRecord is a stored session summary.
type SummaryRecord struct {
	SessionID string
	UserID    string
	EndedAt   time.Time
	session.Summary
}

// SaveSessionSummary stores the summary for sessionID, replacing any earlier
// one for the same session.
func (s *Store) SaveSessionSummary(ctx context.Context, userID, sessionID string, sum session.Summary) error {
	missed := sum.Missed
	if missed == nil {
		missed = []session.AnswerEvent{}
	}
	missedJSON, err := json.Marshal(missed)
	if err != nil {
		return fmt.Errorf("marshal missed answers: %w", err)
	}

	query, args := sqlBuilder.Insert(tableSessionSummaries).
		Columns(
			"session_id", "user_id", "mode", "score", "total", "percentage",
			"letter_grade", "elapsed_ms", "xp_earned", "best_streak", "missed", "ended_at",
		).
		Values(
			sessionID, userID, string(sum.Mode), sum.Score, sum.Total, sum.Percentage,
			sum.LetterGrade, sum.Elapsed.Milliseconds(), sum.XPEarned, sum.BestStreak, string(missedJSON), millis(s.now()),
		).
		OnConflict(
			entsql.ConflictColumns("session_id"),
			entsql.ResolveWithNewValues(),
		).
		Query()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save session summary: %w", err)
	}
	return nil
}

// RecentSummaries returns up to limit summaries for userID, newest first.
func (s *Store) RecentSummaries(ctx context.Context, userID string, limit int) ([]SummaryRecord, error) {
	sel := sqlBuilder.Select(
		"session_id", "user_id", "mode", "score", "total", "percentage",
		"letter_grade", "elapsed_ms", "xp_earned", "best_streak", "missed", "ended_at",
	).
		From(sqlBuilder.Table(tableSessionSummaries)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("ended_at"))
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query session summaries: %w", err)
	}
	defer rows.Close()

	var out []SummaryRecord
	for rows.Next() {
		var (
			r         SummaryRecord
			mode      string
			elapsedMs int64
			missed    string
			endedAt   int64
		)
		if err := rows.Scan(
			&r.SessionID, &r.UserID, &mode, &r.Score, &r.Total, &r.Percentage,
			&r.LetterGrade, &elapsedMs, &r.XPEarned, &r.BestStreak, &missed, &endedAt,
		); err != nil {
			return nil, fmt.Errorf("scan session summary: %w", err)
		}
		if err := json.Unmarshal([]byte(missed), &r.Missed); err != nil {
			return nil, fmt.Errorf("decode missed answers: %w", err)
		}
		r.Mode = session.Mode(mode)
		r.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		r.EndedAt = fromMillis(endedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}
