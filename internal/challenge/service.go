package challenge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/mathquest/internal/curriculum"
	"github.com/abhisek/mathquest/internal/difficulty"
	"github.com/abhisek/mathquest/internal/extract"
	"github.com/abhisek/mathquest/internal/problemgen"
)

const (
	// DefaultQuestionCount is used when Create is called with n <= 0.
	DefaultQuestionCount = 5

	// MaxQuestionCount bounds the shared question set.
	MaxQuestionCount = 20

	codeAttempts     = 5
	questionAttempts = 3
)

// Service creates, joins and advances challenges on top of a Store.
type Service struct {
	store       Store
	gen         problemgen.Generator
	logger      *slog.Logger
	now         func() time.Time
	concurrency int

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger. Nil keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRand sets the source for codes and question order.
func WithRand(r *rand.Rand) Option {
	return func(s *Service) {
		if r != nil {
			s.rng = r
		}
	}
}

// WithConcurrency bounds parallel question generation.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewService returns a Service that persists to store and draws questions from gen.
func NewService(store Store, gen problemgen.Generator, opts ...Option) *Service {
	s := &Service{
		store:       store,
		gen:         gen,
		logger:      slog.Default(),
		now:         time.Now,
		concurrency: 4,
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create materializes n questions for ops and stores a waiting challenge.
// Every question carries an answer: questions the extractor cannot grade are
// regenerated.
func (s *Service) Create(ctx context.Context, creatorID string, grade curriculum.Grade, ops []curriculum.Operation, n int) (Challenge, error) {
	if creatorID == "" {
		return Challenge{}, errors.New("creator id is required")
	}
	if len(ops) == 0 {
		return Challenge{}, errors.New("at least one operation is required")
	}
	if n <= 0 {
		n = DefaultQuestionCount
	}
	if n > MaxQuestionCount {
		return Challenge{}, fmt.Errorf("question count %d exceeds maximum %d", n, MaxQuestionCount)
	}
	if !grade.Valid() {
		grade = curriculum.DefaultGrade
	}

	plan := s.planOperations(ops, n)
	questions := make([]problemgen.Question, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, op := range plan {
		g.Go(func() error {
			q, err := s.materialize(gctx, problemgen.Input{
				UserID:    creatorID,
				Grade:     grade,
				Operation: op,
				Tier:      difficulty.Medium,
			})
			if err != nil {
				return fmt.Errorf("question %d: %w", i+1, err)
			}
			questions[i] = *q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Challenge{}, fmt.Errorf("failed to generate challenge questions: %w", err)
	}

	now := s.now()
	c := Challenge{
		CreatorID:  creatorID,
		Grade:      grade,
		Operations: ops,
		Questions:  questions,
		Status:     StatusWaiting,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for range codeAttempts {
		c.Code = s.newCode()
		err := s.store.CreateChallenge(ctx, c)
		if errors.Is(err, ErrCodeTaken) {
			s.logger.Debug("challenge code collision", "code", c.Code)
			continue
		}
		if err != nil {
			return Challenge{}, fmt.Errorf("failed to save challenge: %w", err)
		}
		s.logger.Info("challenge created", "code", c.Code, "creator", creatorID, "questions", n)
		return c, nil
	}
	return Challenge{}, fmt.Errorf("no free challenge code after %d attempts: %w", codeAttempts, ErrCodeTaken)
}

// planOperations spreads n questions over ops as evenly as possible, in a
// shuffled order.
func (s *Service) planOperations(ops []curriculum.Operation, n int) []curriculum.Operation {
	plan := make([]curriculum.Operation, n)
	for i := range plan {
		plan[i] = ops[i%len(ops)]
	}
	s.mu.Lock()
	s.rng.Shuffle(len(plan), func(i, j int) { plan[i], plan[j] = plan[j], plan[i] })
	s.mu.Unlock()
	return plan
}

func (s *Service) newCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return NewCode(s.rng)
}

func (s *Service) materialize(ctx context.Context, in problemgen.Input) (*problemgen.Question, error) {
	var lastErr error
	for range questionAttempts {
		q, err := s.gen.Generate(ctx, in)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		if q.Answer == nil {
			if v, ok := extract.Extract(q.Text, q.Operation); ok {
				q = q.WithAnswer(v)
			}
		}
		if q.Answer != nil {
			return q, nil
		}
		lastErr = fmt.Errorf("cannot extract answer from %q", q.Text)
		s.logger.Debug("discarding unscorable challenge question", "operation", in.Operation, "text", q.Text)
	}
	return nil, lastErr
}

// Get returns the challenge for code.
func (s *Service) Get(ctx context.Context, code string) (Challenge, error) {
	code, err := checkCode(code)
	if err != nil {
		return Challenge{}, err
	}
	return s.store.GetChallenge(ctx, code)
}

// Join claims a waiting challenge for userID.
func (s *Service) Join(ctx context.Context, code, userID string) (Challenge, error) {
	code, err := checkCode(code)
	if err != nil {
		return Challenge{}, err
	}
	c, err := s.store.JoinChallenge(ctx, code, userID, s.now())
	if err != nil {
		return Challenge{}, err
	}
	s.logger.Info("challenge joined", "code", code, "opponent", userID)
	return c, nil
}

// SubmitAnswer appends a to role's answers, then re-reads the record and
// completes the challenge when both players are done. Completion is decided
// on the stored record so the two players never race each other into
// missing the final answer.
func (s *Service) SubmitAnswer(ctx context.Context, code string, role Role, a Answer) (Challenge, error) {
	code, err := checkCode(code)
	if err != nil {
		return Challenge{}, err
	}
	if a.AnsweredAt.IsZero() {
		a.AnsweredAt = s.now()
	}
	if _, err := s.store.AppendAnswer(ctx, code, role, a); err != nil {
		return Challenge{}, err
	}

	fresh, err := s.store.GetChallenge(ctx, code)
	if err != nil {
		return Challenge{}, err
	}
	if fresh.Status != StatusActive || !fresh.BothFinished() {
		return fresh, nil
	}
	done, changed, err := s.store.CompleteChallenge(ctx, code, s.now())
	if err != nil {
		return Challenge{}, err
	}
	if changed {
		sb := Score(done)
		s.logger.Info("challenge completed", "code", code, "winner", sb.Winner,
			"creator_correct", sb.CreatorCorrect, "opponent_correct", sb.OpponentCorrect)
	}
	return done, nil
}

// Subscribe streams updates for code until cancel is called or ctx ends.
func (s *Service) Subscribe(ctx context.Context, code string) (<-chan Challenge, func(), error) {
	code, err := checkCode(code)
	if err != nil {
		return nil, nil, err
	}
	return s.store.SubscribeChallenge(ctx, code)
}

func checkCode(code string) (string, error) {
	code = NormalizeCode(code)
	if !ValidCode(code) {
		return "", ErrInvalidCode
	}
	return code, nil
}
