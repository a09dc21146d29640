package challenge

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mathquest/internal/answer"
	"github.com/abhisek/mathquest/internal/curriculum"
	"github.com/abhisek/mathquest/internal/problemgen"
)

var fixedNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

type generatorFunc func(ctx context.Context, in problemgen.Input) (*problemgen.Question, error)

func (f generatorFunc) Generate(ctx context.Context, in problemgen.Input) (*problemgen.Question, error) {
	return f(ctx, in)
}

func newTestService(t *testing.T, gen problemgen.Generator) (*Service, *MemoryStore) {
	t.Helper()
	if gen == nil {
		gen = problemgen.NewTemplateGenerator(rand.New(rand.NewPCG(3, 4)))
	}
	store := NewMemoryStore()
	svc := NewService(store, gen,
		WithClock(func() time.Time { return fixedNow }),
		WithRand(rand.New(rand.NewPCG(5, 6))),
	)
	return svc, store
}

func createActive(t *testing.T, svc *Service, n int) Challenge {
	t.Helper()
	ctx := context.Background()
	c, err := svc.Create(ctx, "ana", curriculum.Grade45, []curriculum.Operation{curriculum.OpAddition}, n)
	require.NoError(t, err)
	c, err = svc.Join(ctx, c.Code, "ben")
	require.NoError(t, err)
	return c
}

func answerAt(i int, correct bool) Answer {
	return Answer{Index: i, Raw: "1", Value: answer.Number(1), Correct: correct, AnsweredAt: fixedNow}
}

func TestService_Create(t *testing.T) {
	svc, store := newTestService(t, nil)
	ops := []curriculum.Operation{curriculum.OpAddition, curriculum.OpFractions}

	c, err := svc.Create(context.Background(), "ana", curriculum.Grade45, ops, 6)
	require.NoError(t, err)

	assert.True(t, ValidCode(c.Code))
	assert.Equal(t, StatusWaiting, c.Status)
	assert.Equal(t, fixedNow, c.CreatedAt)
	require.Len(t, c.Questions, 6)

	perOp := map[curriculum.Operation]int{}
	for _, q := range c.Questions {
		require.NotNil(t, q.Answer, "question %q has no answer", q.Text)
		perOp[q.Operation]++
	}
	assert.Equal(t, 3, perOp[curriculum.OpAddition])
	assert.Equal(t, 3, perOp[curriculum.OpFractions])

	stored, err := store.GetChallenge(context.Background(), c.Code)
	require.NoError(t, err)
	assert.Equal(t, c.Questions, stored.Questions)
}

func TestService_Create_Validation(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	ops := []curriculum.Operation{curriculum.OpAddition}

	_, err := svc.Create(ctx, "", curriculum.Grade45, ops, 3)
	assert.Error(t, err)
	_, err = svc.Create(ctx, "ana", curriculum.Grade45, nil, 3)
	assert.Error(t, err)
	_, err = svc.Create(ctx, "ana", curriculum.Grade45, ops, MaxQuestionCount+1)
	assert.Error(t, err)

	c, err := svc.Create(ctx, "ana", "", ops, 0)
	require.NoError(t, err)
	assert.Len(t, c.Questions, DefaultQuestionCount)
	assert.Equal(t, curriculum.DefaultGrade, c.Grade)
}

func TestService_Create_RegeneratesUnscorable(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	gen := generatorFunc(func(_ context.Context, in problemgen.Input) (*problemgen.Question, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return &problemgen.Question{ID: "q1", Text: "What is the median of 3, 9, 4?", Operation: in.Operation}, nil
		}
		return &problemgen.Question{ID: "q2", Text: "What is the mean of 2, 4, 6?", Operation: in.Operation}, nil
	})
	svc, _ := newTestService(t, gen)

	c, err := svc.Create(context.Background(), "ana", curriculum.Grade45,
		[]curriculum.Operation{curriculum.OpStatistics}, 1)
	require.NoError(t, err)
	require.NotNil(t, c.Questions[0].Answer)
	assert.Equal(t, 4.0, c.Questions[0].Answer.Num)
	assert.Equal(t, 2, calls)
}

func TestService_Create_GivesUp(t *testing.T) {
	gen := generatorFunc(func(context.Context, problemgen.Input) (*problemgen.Question, error) {
		return nil, errors.New("generator down")
	})
	svc, _ := newTestService(t, gen)

	_, err := svc.Create(context.Background(), "ana", curriculum.Grade45,
		[]curriculum.Operation{curriculum.OpAddition}, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generator down")
}

type collidingStore struct {
	*MemoryStore
	failures int
}

func (s *collidingStore) CreateChallenge(ctx context.Context, c Challenge) error {
	if s.failures > 0 {
		s.failures--
		return ErrCodeTaken
	}
	return s.MemoryStore.CreateChallenge(ctx, c)
}

func TestService_Create_RetriesCodeCollision(t *testing.T) {
	gen := problemgen.NewTemplateGenerator(rand.New(rand.NewPCG(1, 1)))

	store := &collidingStore{MemoryStore: NewMemoryStore(), failures: 2}
	svc := NewService(store, gen)
	_, err := svc.Create(context.Background(), "ana", curriculum.Grade45, []curriculum.Operation{curriculum.OpAddition}, 1)
	require.NoError(t, err)

	store = &collidingStore{MemoryStore: NewMemoryStore(), failures: codeAttempts}
	svc = NewService(store, gen)
	_, err = svc.Create(context.Background(), "ana", curriculum.Grade45, []curriculum.Operation{curriculum.OpAddition}, 1)
	assert.ErrorIs(t, err, ErrCodeTaken)
}

func TestService_Join(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	c, err := svc.Create(ctx, "ana", curriculum.Grade45, []curriculum.Operation{curriculum.OpAddition}, 2)
	require.NoError(t, err)

	_, err = svc.Join(ctx, c.Code, "ana")
	assert.ErrorIs(t, err, ErrJoinRejected, "creator cannot join their own challenge")

	joined, err := svc.Join(ctx, " "+c.Code+" ", "ben")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, joined.Status)
	assert.Equal(t, "ben", joined.OpponentID)

	_, err = svc.Join(ctx, c.Code, "cy")
	assert.ErrorIs(t, err, ErrJoinRejected)

	got, err := svc.Get(ctx, c.Code)
	require.NoError(t, err)
	assert.Equal(t, "ben", got.OpponentID, "rejected join must not change the record")

	_, err = svc.Join(ctx, "ZZZZZZ", "ben")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Join(ctx, "bad", "ben")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestService_SubmitAnswer_CompletesWhenBothFinish(t *testing.T) {
	orders := map[string][]Role{
		"creator first":  {RoleCreator, RoleCreator, RoleCreator, RoleCreator, RoleCreator, RoleOpponent, RoleOpponent, RoleOpponent, RoleOpponent, RoleOpponent},
		"opponent first": {RoleOpponent, RoleOpponent, RoleOpponent, RoleOpponent, RoleOpponent, RoleCreator, RoleCreator, RoleCreator, RoleCreator, RoleCreator},
		"interleaved":    {RoleCreator, RoleOpponent, RoleOpponent, RoleCreator, RoleCreator, RoleOpponent, RoleCreator, RoleOpponent, RoleOpponent, RoleCreator},
	}

	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			svc, _ := newTestService(t, nil)
			c := createActive(t, svc, 5)

			next := map[Role]int{}
			var got Challenge
			var err error
			for i, role := range order {
				got, err = svc.SubmitAnswer(context.Background(), c.Code, role, answerAt(next[role], true))
				require.NoError(t, err)
				next[role]++
				if i < len(order)-1 {
					assert.Equal(t, StatusActive, got.Status, "completed early after %d answers", i+1)
				}
			}
			assert.Equal(t, StatusCompleted, got.Status)
			assert.Len(t, got.CreatorAnswers, 5)
			assert.Len(t, got.OpponentAnswers, 5)
		})
	}
}

func TestService_SubmitAnswer_Errors(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	waiting, err := svc.Create(ctx, "ana", curriculum.Grade45, []curriculum.Operation{curriculum.OpAddition}, 2)
	require.NoError(t, err)
	_, err = svc.SubmitAnswer(ctx, waiting.Code, RoleCreator, answerAt(0, true))
	assert.ErrorIs(t, err, ErrNotActive)

	c := createActive(t, svc, 2)
	_, err = svc.SubmitAnswer(ctx, c.Code, RoleCreator, answerAt(1, true))
	assert.ErrorIs(t, err, ErrOutOfOrder, "skipping an index")

	_, err = svc.SubmitAnswer(ctx, c.Code, RoleCreator, answerAt(0, true))
	require.NoError(t, err)
	_, err = svc.SubmitAnswer(ctx, c.Code, RoleCreator, answerAt(0, true))
	assert.ErrorIs(t, err, ErrOutOfOrder, "duplicate index")

	_, err = svc.SubmitAnswer(ctx, c.Code, RoleCreator, answerAt(1, true))
	require.NoError(t, err)
	_, err = svc.SubmitAnswer(ctx, c.Code, RoleCreator, answerAt(2, true))
	assert.ErrorIs(t, err, ErrOutOfOrder, "past the question set")

	_, err = svc.SubmitAnswer(ctx, c.Code, Role("referee"), answerAt(0, true))
	assert.ErrorIs(t, err, ErrOutOfOrder)
}

func TestService_SubmitAnswer_Concurrent(t *testing.T) {
	svc, store := newTestService(t, nil)
	c := createActive(t, svc, 10)

	var wg sync.WaitGroup
	for _, role := range []Role{RoleCreator, RoleOpponent} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 10 {
				_, err := svc.SubmitAnswer(context.Background(), c.Code, role, answerAt(i, i%2 == 0))
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	final, err := store.GetChallenge(context.Background(), c.Code)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, final.Status)
	assert.Len(t, final.CreatorAnswers, 10)
	assert.Len(t, final.OpponentAnswers, 10)
}

func TestService_Subscribe(t *testing.T) {
	svc, _ := newTestService(t, nil)
	c := createActive(t, svc, 1)

	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()
	updates, cancel, err := svc.Subscribe(ctx, c.Code)
	require.NoError(t, err)
	defer cancel()

	initial := <-updates
	assert.Equal(t, StatusActive, initial.Status)

	_, err = svc.SubmitAnswer(context.Background(), c.Code, RoleCreator, answerAt(0, true))
	require.NoError(t, err)
	_, err = svc.SubmitAnswer(context.Background(), c.Code, RoleOpponent, answerAt(0, false))
	require.NoError(t, err)

	deadline := time.After(time.Second)
	for {
		select {
		case u := <-updates:
			if u.Status == StatusCompleted {
				assert.Equal(t, "creator", Score(u).Winner)
				return
			}
		case <-deadline:
			t.Fatal("no completed update received")
		}
	}
}

func TestService_Subscribe_Unknown(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, _, err := svc.Subscribe(context.Background(), "ZZZZZZ")
	assert.ErrorIs(t, err, ErrNotFound)
}
