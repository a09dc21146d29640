package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/mathquest/internal/reward"
)

var rewardColumns = []string{"total_xp", "daily_question_count", "daily_goal", "last_active_date"}

// GetRewardState returns the reward record for userID. Unknown learners get
// a level 1 record with no XP.
func (s *Store) GetRewardState(ctx context.Context, userID string) (reward.State, error) {
	query, args := sqlBuilder.Select(rewardColumns...).
		From(sqlBuilder.Table(tableRewardStates)).
		Where(entsql.EQ("user_id", userID)).
		Query()

	st, err := scanRewardState(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return reward.State{Level: 1}, nil
	}
	if err != nil {
		return reward.State{}, fmt.Errorf("get reward state: %w", err)
	}
	return st, nil
}

// ApplyAward applies a in one upsert, so concurrent awards for the same
// learner are never lost. The statement mirrors reward.State.Apply.
func (s *Store) ApplyAward(ctx context.Context, userID string, a reward.Award) (reward.State, error) {
	xp := max(a.XP, 0)
	query, args := sqlBuilder.Insert(tableRewardStates).
		Columns("user_id", "total_xp", "daily_question_count", "daily_goal", "last_active_date").
		Values(userID, xp, 1, a.DailyGoal, a.Today).
		OnConflict(
			entsql.ConflictColumns("user_id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.Add("total_xp", xp)
				u.Set("daily_question_count", entsql.Expr(
					"CASE WHEN `last_active_date` = ? THEN `daily_question_count` + 1 ELSE 1 END", a.Today))
				u.Set("daily_goal", entsql.Expr(
					"CASE WHEN `daily_goal` = 0 THEN ? ELSE `daily_goal` END", a.DailyGoal))
				u.Set("last_active_date", a.Today)
			}),
		).
		Returning(rewardColumns...).
		Query()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	st, err := scanRewardState(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return reward.State{}, fmt.Errorf("apply award: %w", err)
	}
	return st, nil
}

func scanRewardState(row *sql.Row) (reward.State, error) {
	var st reward.State
	if err := row.Scan(&st.TotalXP, &st.DailyQuestionCount, &st.DailyGoal, &st.LastActiveDate); err != nil {
		return reward.State{}, err
	}
	st.Level = reward.LevelForXP(st.TotalXP)
	return st, nil
}
