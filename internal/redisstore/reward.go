package redisstore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/mathquest/internal/reward"
)

// awardScript mirrors reward.State.Apply on a hash.
// KEYS[1] reward hash; ARGV xp, today, default daily goal.
var awardScript = redis.NewScript(`
local xp = tonumber(ARGV[1])
local today = ARGV[2]
local total = tonumber(redis.call('HGET', KEYS[1], 'total_xp') or '0')
local count = tonumber(redis.call('HGET', KEYS[1], 'daily_question_count') or '0')
local goal = tonumber(redis.call('HGET', KEYS[1], 'daily_goal') or '0')
local last = redis.call('HGET', KEYS[1], 'last_active_date')

if last == today then
  count = count + 1
else
  count = 1
end
if goal == 0 then
  goal = tonumber(ARGV[3])
end
if xp > 0 then
  total = total + xp
end

redis.call('HSET', KEYS[1], 'total_xp', total, 'daily_question_count', count, 'daily_goal', goal, 'last_active_date', today)
return {total, count, goal}
`)

// GetRewardState returns the user's reward state, or a fresh one.
func (s *Store) GetRewardState(ctx context.Context, userID string) (reward.State, error) {
	fields, err := s.client.HGetAll(ctx, rewardKey(userID)).Result()
	if err != nil {
		return reward.State{}, fmt.Errorf("get reward state: %w", err)
	}
	if len(fields) == 0 {
		return reward.State{Level: 1}, nil
	}

	var st reward.State
	for name, dst := range map[string]*int{
		"total_xp":             &st.TotalXP,
		"daily_question_count": &st.DailyQuestionCount,
		"daily_goal":           &st.DailyGoal,
	} {
		if v, ok := fields[name]; ok {
			if *dst, err = strconv.Atoi(v); err != nil {
				return reward.State{}, fmt.Errorf("decode %s: %w", name, err)
			}
		}
	}
	st.LastActiveDate = fields["last_active_date"]
	st.Level = reward.LevelForXP(st.TotalXP)
	return st, nil
}

// ApplyAward folds a into the user's reward state atomically.
func (s *Store) ApplyAward(ctx context.Context, userID string, a reward.Award) (reward.State, error) {
	vals, err := awardScript.Run(ctx, s.client, []string{rewardKey(userID)}, a.XP, a.Today, a.DailyGoal).Int64Slice()
	if err != nil {
		return reward.State{}, fmt.Errorf("apply award: %w", err)
	}
	if len(vals) != 3 {
		return reward.State{}, fmt.Errorf("apply award: unexpected reply %v", vals)
	}
	st := reward.State{
		TotalXP:            int(vals[0]),
		DailyQuestionCount: int(vals[1]),
		DailyGoal:          int(vals[2]),
		LastActiveDate:     a.Today,
	}
	st.Level = reward.LevelForXP(st.TotalXP)
	return st, nil
}
