package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/mathquest/internal/challenge"
	"github.com/abhisek/mathquest/internal/curriculum"
)

var challengeColumns = []string{
	"code", "creator_id", "opponent_id", "grade", "operations", "questions",
	"status", "version", "created_at", "updated_at",
}

// CreateChallenge inserts c with its question set.
func (s *Store) CreateChallenge(ctx context.Context, c challenge.Challenge) error {
	ops, err := json.Marshal(c.Operations)
	if err != nil {
		return fmt.Errorf("marshal operations: %w", err)
	}
	questions, err := json.Marshal(c.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		query, args := sqlBuilder.Insert(tableChallenges).
			Columns(
				"code", "creator_id", "opponent_id", "grade", "operations", "questions",
				"question_count", "status", "version", "created_at", "updated_at",
			).
			Values(
				c.Code, c.CreatorID, c.OpponentID, string(c.Grade), string(ops), string(questions),
				len(c.Questions), string(c.Status), 1, millis(c.CreatedAt), millis(c.UpdatedAt),
			).
			OnConflict(entsql.ConflictColumns("code"), entsql.DoNothing()).
			Query()
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("insert challenge: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("insert challenge: %w", err)
		} else if n == 0 {
			return challenge.ErrCodeTaken
		}

		for _, a := range c.CreatorAnswers {
			if err := insertChallengeAnswer(ctx, tx, c.Code, challenge.RoleCreator, a); err != nil {
				return err
			}
		}
		for _, a := range c.OpponentAnswers {
			if err := insertChallengeAnswer(ctx, tx, c.Code, challenge.RoleOpponent, a); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetChallenge returns the archived challenge with the given code.
func (s *Store) GetChallenge(ctx context.Context, code string) (challenge.Challenge, error) {
	c, _, err := loadChallenge(ctx, s.db, code)
	return c, err
}

// JoinChallenge claims the opponent seat with a conditional update, so two
// players racing for the same code cannot both win.
func (s *Store) JoinChallenge(ctx context.Context, code, opponentID string, at time.Time) (challenge.Challenge, error) {
	if opponentID == "" {
		return challenge.Challenge{}, challenge.ErrJoinRejected
	}

	query, args := sqlBuilder.Update(tableChallenges).
		Set("opponent_id", opponentID).
		Set("status", string(challenge.StatusActive)).
		Set("updated_at", millis(at)).
		Add("version", 1).
		Where(entsql.And(
			entsql.EQ("code", code),
			entsql.EQ("status", string(challenge.StatusWaiting)),
			entsql.EQ("opponent_id", ""),
			entsql.NEQ("creator_id", opponentID),
		)).
		Query()

	n, err := s.execWrite(ctx, query, args...)
	if err != nil {
		return challenge.Challenge{}, fmt.Errorf("join challenge: %w", err)
	}

	c, _, err := loadChallenge(ctx, s.db, code)
	if err != nil {
		return challenge.Challenge{}, err
	}
	if n == 0 {
		return challenge.Challenge{}, challenge.ErrJoinRejected
	}
	return c, nil
}

// AppendAnswer validates and inserts a inside one transaction. The composite
// key on (code, role, question_index) rejects a duplicate index even if
// another process raced past the check.
func (s *Store) AppendAnswer(ctx context.Context, code string, role challenge.Role, a challenge.Answer) (challenge.Challenge, error) {
	var out challenge.Challenge
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		c, _, err := loadChallenge(ctx, tx, code)
		if err != nil {
			return err
		}
		if err := challenge.CheckAppend(c, role, a); err != nil {
			return err
		}
		if err := insertChallengeAnswer(ctx, tx, code, role, a); err != nil {
			return err
		}

		query, args := sqlBuilder.Update(tableChallenges).
			Set("updated_at", millis(a.AnsweredAt)).
			Add("version", 1).
			Where(entsql.EQ("code", code)).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("touch challenge: %w", err)
		}

		out, _, err = loadChallenge(ctx, tx, code)
		return err
	})
	if err != nil {
		return challenge.Challenge{}, err
	}
	return out, nil
}

// CompleteChallenge flips an active challenge to completed once both players
// have answered every question. The counts are checked in the same statement
// as the status change.
func (s *Store) CompleteChallenge(ctx context.Context, code string, at time.Time) (challenge.Challenge, bool, error) {
	answered := func(role challenge.Role) *entsql.Predicate {
		return entsql.ExprP(
			"(SELECT COUNT(*) FROM `"+tableChallengeAnswers+"` AS `a` WHERE `a`.`code` = `"+tableChallenges+"`.`code` AND `a`.`role` = ?) >= `question_count`",
			string(role),
		)
	}
	query, args := sqlBuilder.Update(tableChallenges).
		Set("status", string(challenge.StatusCompleted)).
		Set("updated_at", millis(at)).
		Add("version", 1).
		Where(entsql.And(
			entsql.EQ("code", code),
			entsql.EQ("status", string(challenge.StatusActive)),
			entsql.GT("question_count", 0),
			answered(challenge.RoleCreator),
			answered(challenge.RoleOpponent),
		)).
		Query()

	n, err := s.execWrite(ctx, query, args...)
	if err != nil {
		return challenge.Challenge{}, false, fmt.Errorf("complete challenge: %w", err)
	}
	c, _, err := loadChallenge(ctx, s.db, code)
	if err != nil {
		return challenge.Challenge{}, false, err
	}
	return c, n > 0, nil
}

// SubscribeChallenge polls the challenge version and sends a fresh record
// whenever it moves. A subscriber that falls behind only loses stale
// snapshots.
func (s *Store) SubscribeChallenge(ctx context.Context, code string) (<-chan challenge.Challenge, func(), error) {
	c, version, err := loadChallenge(ctx, s.db, code)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan challenge.Challenge, 8)
	ch <- c

	done := make(chan struct{})
	var once sync.Once
	cancel := func() { once.Do(func() { close(done) }) }

	go s.pollChallenge(ctx, code, version, ch, done)
	return ch, cancel, nil
}

func (s *Store) pollChallenge(ctx context.Context, code string, version int64, ch chan challenge.Challenge, done <-chan struct{}) {
	defer close(ch)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
		}

		current, err := challengeVersion(ctx, s.db, code)
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("challenge poll failed", "code", code, "error", err)
			}
			continue
		}
		if current == version {
			continue
		}

		c, v, err := loadChallenge(ctx, s.db, code)
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("challenge reload failed", "code", code, "error", err)
			}
			continue
		}
		version = v

		select {
		case ch <- c:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- c
		}
	}
}

// execWrite runs a single write statement and returns the affected row count.
func (s *Store) execWrite(ctx context.Context, query string, args ...any) (int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func insertChallengeAnswer(ctx context.Context, q queryer, code string, role challenge.Role, a challenge.Answer) error {
	value, err := json.Marshal(a.Value)
	if err != nil {
		return fmt.Errorf("marshal answer value: %w", err)
	}
	query, args := sqlBuilder.Insert(tableChallengeAnswers).
		Columns("code", "role", "question_index", "raw", "value", "correct", "time_ms", "answered_at").
		Values(code, string(role), a.Index, a.Raw, string(value), a.Correct, a.TimeMs, millis(a.AnsweredAt)).
		Query()
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert challenge answer: %w", err)
	}
	return nil
}

func challengeVersion(ctx context.Context, q queryer, code string) (int64, error) {
	query, args := sqlBuilder.Select("version").
		From(sqlBuilder.Table(tableChallenges)).
		Where(entsql.EQ("code", code)).
		Query()
	var v int64
	if err := q.QueryRowContext(ctx, query, args...).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, challenge.ErrNotFound
		}
		return 0, err
	}
	return v, nil
}

// loadChallenge reads the challenge row and both answer sequences.
func loadChallenge(ctx context.Context, q queryer, code string) (challenge.Challenge, int64, error) {
	query, args := sqlBuilder.Select(challengeColumns...).
		From(sqlBuilder.Table(tableChallenges)).
		Where(entsql.EQ("code", code)).
		Query()

	var (
		c                   challenge.Challenge
		grade, status       string
		ops, questions      string
		version             int64
		createdAt, updatedAt int64
	)
	err := q.QueryRowContext(ctx, query, args...).Scan(
		&c.Code, &c.CreatorID, &c.OpponentID, &grade, &ops, &questions,
		&status, &version, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return challenge.Challenge{}, 0, challenge.ErrNotFound
	}
	if err != nil {
		return challenge.Challenge{}, 0, fmt.Errorf("get challenge: %w", err)
	}
	if err := json.Unmarshal([]byte(ops), &c.Operations); err != nil {
		return challenge.Challenge{}, 0, fmt.Errorf("decode operations: %w", err)
	}
	if err := json.Unmarshal([]byte(questions), &c.Questions); err != nil {
		return challenge.Challenge{}, 0, fmt.Errorf("decode questions: %w", err)
	}
	c.Grade = curriculum.Grade(grade)
	c.Status = challenge.Status(status)
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)

	query, args = sqlBuilder.Select("role", "question_index", "raw", "value", "correct", "time_ms", "answered_at").
		From(sqlBuilder.Table(tableChallengeAnswers)).
		Where(entsql.EQ("code", code)).
		OrderBy("role", "question_index").
		Query()
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return challenge.Challenge{}, 0, fmt.Errorf("query challenge answers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			a          challenge.Answer
			role       string
			value      string
			answeredAt int64
		)
		if err := rows.Scan(&role, &a.Index, &a.Raw, &value, &a.Correct, &a.TimeMs, &answeredAt); err != nil {
			return challenge.Challenge{}, 0, fmt.Errorf("scan challenge answer: %w", err)
		}
		if err := json.Unmarshal([]byte(value), &a.Value); err != nil {
			return challenge.Challenge{}, 0, fmt.Errorf("decode answer value: %w", err)
		}
		a.AnsweredAt = fromMillis(answeredAt)
		switch challenge.Role(role) {
		case challenge.RoleCreator:
			c.CreatorAnswers = append(c.CreatorAnswers, a)
		case challenge.RoleOpponent:
			c.OpponentAnswers = append(c.OpponentAnswers, a)
		}
	}
	if err := rows.Err(); err != nil {
		return challenge.Challenge{}, 0, err
	}
	return c, version, nil
}
