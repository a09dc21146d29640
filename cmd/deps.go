package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/abhisek/mathquest/internal/challenge"
	"github.com/abhisek/mathquest/internal/config"
	"github.com/abhisek/mathquest/internal/llm"
	"github.com/abhisek/mathquest/internal/problemgen"
	"github.com/abhisek/mathquest/internal/redisstore"
	"github.com/abhisek/mathquest/internal/reward"
	"github.com/abhisek/mathquest/internal/session"
	"github.com/abhisek/mathquest/internal/store"
)

// deps is everything a command needs, wired from cfg.
type deps struct {
	store      *store.Store
	redis      *redis.Client
	rewards    *reward.Service
	challenges *challenge.Service
	sessions   *session.Controller
	generator  problemgen.Generator
	logger     *slog.Logger
}

// openDeps opens the SQLite store, connects Redis when the redis backend is
// selected, and builds the services on top. Answers, summaries and LLM
// events always go to SQLite.
func openDeps(cmd *cobra.Command, logger *slog.Logger) (*deps, error) {
	ctx := cmd.Context()
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(ctx, dbPath,
		store.WithPollInterval(cfg.Challenge.PollInterval),
		store.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	d := &deps{store: st, logger: logger}

	var rewardStore reward.Store = st
	var challengeStore challenge.Store = st
	if cfg.Backend == config.BackendRedis {
		d.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := d.redis.Ping(ctx).Err(); err != nil {
			d.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		rs := redisstore.New(d.redis,
			redisstore.WithChallengeTTL(cfg.Redis.ChallengeTTL),
			redisstore.WithLogger(logger))
		rewardStore, challengeStore = rs, rs
		logger.Info("using redis backend", "addr", cfg.Redis.Addr)
	}

	d.generator = buildGenerator(ctx, st, logger)
	d.rewards = reward.NewService(rewardStore,
		reward.WithDailyGoal(cfg.Rewards.DailyGoal),
		reward.WithLogger(logger))
	d.challenges = challenge.NewService(challengeStore, d.generator, challenge.WithLogger(logger))
	d.sessions = session.NewController(d.generator,
		session.WithHistory(st),
		session.WithAnswerSink(st),
		session.WithSummarySink(st),
		session.WithRewards(d.rewards),
		session.WithChallenges(d.challenges),
		session.WithLogger(logger))
	return d, nil
}

// buildGenerator prefers the configured LLM and falls back to templates, so
// practice works offline.
func buildGenerator(ctx context.Context, events llm.EventLogger, logger *slog.Logger) problemgen.Generator {
	template := problemgen.NewTemplateGenerator(nil)
	provider, err := llm.NewProvider(ctx, cfg.LLM, events, logger)
	if err != nil {
		if !errors.Is(err, llm.ErrDisabled) {
			logger.Warn("LLM provider not configured, using templates", "error", err)
		}
		return template
	}
	logger.Info("LLM question generation enabled", "provider", cfg.LLM.Provider, "model", provider.ModelID())
	return &problemgen.FallbackGenerator{
		Primary:   problemgen.New(provider, problemgen.DefaultConfig()),
		Secondary: template,
		Logger:    logger,
	}
}

func (d *deps) Close() {
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			d.logger.Warn("close redis", "error", err)
		}
	}
	if err := d.store.Close(); err != nil {
		d.logger.Warn("close store", "error", err)
	}
}
