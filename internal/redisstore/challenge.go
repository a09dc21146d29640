package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/abhisek/mathquest/internal/challenge"
	"github.com/abhisek/mathquest/internal/curriculum"
)

// CreateChallenge stores c, failing with challenge.ErrCodeTaken if its code exists.
func (s *Store) CreateChallenge(ctx context.Context, c challenge.Challenge) error {
	ops, err := json.Marshal(c.Operations)
	if err != nil {
		return fmt.Errorf("marshal operations: %w", err)
	}
	questions, err := json.Marshal(c.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}

	args := []any{
		s.ttl.Milliseconds(),
		"code", c.Code,
		"creator_id", c.CreatorID,
		"opponent_id", c.OpponentID,
		"grade", string(c.Grade),
		"operations", string(ops),
		"questions", string(questions),
		"question_count", len(c.Questions),
		"status", string(c.Status),
		"version", 1,
		"created_at", c.CreatedAt.UnixMilli(),
		"updated_at", c.UpdatedAt.UnixMilli(),
	}
	created, err := createScript.Run(ctx, s.client, []string{challengeKey(c.Code)}, args...).Int()
	if err != nil {
		return fmt.Errorf("create challenge: %w", err)
	}
	if created == 0 {
		return challenge.ErrCodeTaken
	}

	if len(c.CreatorAnswers) == 0 && len(c.OpponentAnswers) == 0 {
		return nil
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for role, answers := range map[challenge.Role][]challenge.Answer{
			challenge.RoleCreator:  c.CreatorAnswers,
			challenge.RoleOpponent: c.OpponentAnswers,
		} {
			for _, a := range answers {
				b, err := json.Marshal(a)
				if err != nil {
					return fmt.Errorf("marshal answer: %w", err)
				}
				pipe.RPush(ctx, answersKey(c.Code, string(role)), b)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed challenge answers: %w", err)
	}
	return nil
}

// GetChallenge coalesces concurrent reads of the same version. The flight is
// keyed by the version the caller observed, so a caller never receives a
// snapshot older than its own writes.
func (s *Store) GetChallenge(ctx context.Context, code string) (challenge.Challenge, error) {
	version, err := s.client.HGet(ctx, challengeKey(code), "version").Result()
	if errors.Is(err, redis.Nil) {
		return challenge.Challenge{}, challenge.ErrNotFound
	}
	if err != nil {
		return challenge.Challenge{}, fmt.Errorf("get challenge version: %w", err)
	}

	select {
	case <-ctx.Done():
		return challenge.Challenge{}, ctx.Err()
	case res := <-s.flight(ctx, code, version):
		if res.Err != nil {
			return challenge.Challenge{}, res.Err
		}
		return res.Val.(challenge.Challenge).Clone(), nil
	}
}

// flight starts or joins the shared load of code at version. Other callers
// wait on the same load, so it ignores the starting caller's cancellation.
func (s *Store) flight(ctx context.Context, code, version string) <-chan singleflight.Result {
	loadCtx := context.WithoutCancel(ctx)
	return s.sf.DoChan(code+"@"+version, func() (any, error) {
		c, _, err := s.load(loadCtx, code)
		return c, err
	})
}

// JoinChallenge claims a waiting challenge for opponentID and activates it.
func (s *Store) JoinChallenge(ctx context.Context, code, opponentID string, at time.Time) (challenge.Challenge, error) {
	if opponentID == "" {
		return challenge.Challenge{}, challenge.ErrJoinRejected
	}
	reply, err := joinScript.Run(ctx, s.client, []string{challengeKey(code)},
		opponentID, at.UnixMilli(), s.ttl.Milliseconds()).Int64()
	if err != nil {
		return challenge.Challenge{}, fmt.Errorf("join challenge: %w", err)
	}
	if err := replyErr(reply); err != nil {
		return challenge.Challenge{}, err
	}
	s.publish(ctx, code, reply)
	return s.GetChallenge(ctx, code)
}

// AppendAnswer adds a to role's answers if its index is the next one.
func (s *Store) AppendAnswer(ctx context.Context, code string, role challenge.Role, a challenge.Answer) (challenge.Challenge, error) {
	if !role.Valid() {
		return challenge.Challenge{}, challenge.ErrOutOfOrder
	}
	b, err := json.Marshal(a)
	if err != nil {
		return challenge.Challenge{}, fmt.Errorf("marshal answer: %w", err)
	}
	reply, err := appendScript.Run(ctx, s.client,
		[]string{challengeKey(code), answersKey(code, string(role))},
		a.Index, string(b), a.AnsweredAt.UnixMilli(), s.ttl.Milliseconds()).Int64()
	if err != nil {
		return challenge.Challenge{}, fmt.Errorf("append answer: %w", err)
	}
	if err := replyErr(reply); err != nil {
		return challenge.Challenge{}, err
	}
	s.publish(ctx, code, reply)
	return s.GetChallenge(ctx, code)
}

// CompleteChallenge completes an active challenge once both players have
// finished. The bool reports whether this call made the transition.
func (s *Store) CompleteChallenge(ctx context.Context, code string, at time.Time) (challenge.Challenge, bool, error) {
	reply, err := completeScript.Run(ctx, s.client,
		[]string{
			challengeKey(code),
			answersKey(code, string(challenge.RoleCreator)),
			answersKey(code, string(challenge.RoleOpponent)),
		},
		at.UnixMilli()).Int64()
	if err != nil {
		return challenge.Challenge{}, false, fmt.Errorf("complete challenge: %w", err)
	}
	if err := replyErr(reply); err != nil {
		return challenge.Challenge{}, false, err
	}
	if reply > 0 {
		s.publish(ctx, code, reply)
	}
	c, err := s.GetChallenge(ctx, code)
	if err != nil {
		return challenge.Challenge{}, false, err
	}
	return c, reply > 0, nil
}

// SubscribeChallenge listens on the challenge channel. The subscription is
// confirmed before the first snapshot is read, so no change between the two
// can be missed.
func (s *Store) SubscribeChallenge(ctx context.Context, code string) (<-chan challenge.Challenge, func(), error) {
	ps := s.client.Subscribe(ctx, challengeChannel(code))
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, nil, fmt.Errorf("subscribe challenge: %w", err)
	}

	c, version, err := s.load(ctx, code)
	if err != nil {
		ps.Close()
		return nil, nil, err
	}

	out := make(chan challenge.Challenge, 8)
	out <- c

	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			ps.Close()
		})
	}

	msgs := ps.Channel()
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				cancel()
				return
			case <-done:
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
			}

			next, v, err := s.load(ctx, code)
			if err != nil {
				if ctx.Err() == nil {
					s.logger.Warn("challenge reload failed", "code", code, "error", err)
				}
				continue
			}
			if v <= version {
				continue
			}
			version = v

			select {
			case out <- next:
			default:
				select {
				case <-out:
				default:
				}
				out <- next
			}
		}
	}()
	return out, cancel, nil
}

func (s *Store) publish(ctx context.Context, code string, version int64) {
	if err := s.client.Publish(ctx, challengeChannel(code), version).Err(); err != nil {
		s.logger.Warn("challenge publish failed", "code", code, "error", err)
	}
}

func replyErr(reply int64) error {
	switch reply {
	case replyNotFound:
		return challenge.ErrNotFound
	case replyRejected:
		return challenge.ErrJoinRejected
	case replyNotActive:
		return challenge.ErrNotActive
	case replyOutOfOrd:
		return challenge.ErrOutOfOrder
	}
	return nil
}

// load reads the hash and both answer lists in one MULTI so the snapshot is
// consistent.
func (s *Store) load(ctx context.Context, code string) (challenge.Challenge, int64, error) {
	var (
		hash     *redis.MapStringStringCmd
		creator  *redis.StringSliceCmd
		opponent *redis.StringSliceCmd
	)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		hash = pipe.HGetAll(ctx, challengeKey(code))
		creator = pipe.LRange(ctx, answersKey(code, string(challenge.RoleCreator)), 0, -1)
		opponent = pipe.LRange(ctx, answersKey(code, string(challenge.RoleOpponent)), 0, -1)
		return nil
	})
	if err != nil {
		return challenge.Challenge{}, 0, fmt.Errorf("load challenge: %w", err)
	}

	fields := hash.Val()
	if len(fields) == 0 {
		return challenge.Challenge{}, 0, challenge.ErrNotFound
	}

	c := challenge.Challenge{
		Code:       fields["code"],
		CreatorID:  fields["creator_id"],
		OpponentID: fields["opponent_id"],
		Grade:      curriculum.Grade(fields["grade"]),
		Status:     challenge.Status(fields["status"]),
	}
	if err := json.Unmarshal([]byte(fields["operations"]), &c.Operations); err != nil {
		return challenge.Challenge{}, 0, fmt.Errorf("decode operations: %w", err)
	}
	if err := json.Unmarshal([]byte(fields["questions"]), &c.Questions); err != nil {
		return challenge.Challenge{}, 0, fmt.Errorf("decode questions: %w", err)
	}

	nums := make(map[string]int64, 3)
	for _, name := range []string{"version", "created_at", "updated_at"} {
		n, err := strconv.ParseInt(fields[name], 10, 64)
		if err != nil {
			return challenge.Challenge{}, 0, fmt.Errorf("decode %s: %w", name, err)
		}
		nums[name] = n
	}
	c.CreatedAt = time.UnixMilli(nums["created_at"]).UTC()
	c.UpdatedAt = time.UnixMilli(nums["updated_at"]).UTC()

	if c.CreatorAnswers, err = decodeAnswers(creator.Val()); err != nil {
		return challenge.Challenge{}, 0, err
	}
	if c.OpponentAnswers, err = decodeAnswers(opponent.Val()); err != nil {
		return challenge.Challenge{}, 0, err
	}
	return c, nums["version"], nil
}

func decodeAnswers(raw []string) ([]challenge.Answer, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]challenge.Answer, len(raw))
	for i, r := range raw {
		if err := json.Unmarshal([]byte(r), &out[i]); err != nil {
			return nil, fmt.Errorf("decode answer %d: %w", i, err)
		}
	}
	return out, nil
}
