package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/mathquest/internal/answer"
	"github.com/abhisek/mathquest/internal/curriculum"
	"github.com/abhisek/mathquest/internal/difficulty"
	"github.com/abhisek/mathquest/internal/llm"
	"github.com/abhisek/mathquest/internal/reward"
	"github.com/abhisek/mathquest/internal/session"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func openTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mathquest.db")
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	s, err := Open(context.Background(), path, opts...)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"busy_timeout", "5000"},
	}

	for _, tt := range tests {
		var got string
		if err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got); err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mathquest.db")
	ctx := context.Background()

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if _, err := s.ApplyAward(ctx, "ana", reward.Award{XP: 10, Today: "2026-03-14", DailyGoal: 20}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s.Close()
	st, err := s.GetRewardState(ctx, "ana")
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalXP != 10 {
		t.Errorf("TotalXP after reopen = %d, want 10", st.TotalXP)
	}
}

func answerEvent(op curriculum.Operation, idx int, correct bool, at time.Time) session.AnswerEvent {
	return session.AnswerEvent{
		QuestionID:   "q" + string(rune('a'+idx)),
		QuestionText: "What is 2 + 2?",
		Operation:    op,
		Index:        idx,
		RawInput:     "4",
		Normalized:   answer.Number(4),
		Expected:     answer.Number(4),
		Correct:      correct,
		TimeMs:       1500,
		Tier:         difficulty.Hard,
		XP:           20,
		AnsweredAt:   at,
	}
}

func TestAnswerEvents_History(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	events := []session.AnswerEvent{
		answerEvent(curriculum.OpAddition, 0, true, testNow),
		answerEvent(curriculum.OpFractions, 1, false, testNow.Add(time.Second)),
		answerEvent(curriculum.OpAddition, 2, true, testNow.Add(2*time.Second)),
	}
	for _, ev := range events {
		if err := s.SaveAnswerEvent(ctx, "ana", "s1", ev); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	if err := s.SaveAnswerEvent(ctx, "ben", "s2", answerEvent(curriculum.OpDivision, 0, true, testNow)); err != nil {
		t.Fatal(err)
	}

	hist, err := s.History(ctx, "ana")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 3 {
		t.Fatalf("len(history) = %d, want 3", len(hist))
	}
	if hist[1].Operation != curriculum.OpFractions || hist[1].Correct {
		t.Errorf("history[1] = %+v", hist[1])
	}
	if !hist[2].Timestamp.Equal(testNow.Add(2 * time.Second)) {
		t.Errorf("history[2].Timestamp = %v", hist[2].Timestamp)
	}

	empty, err := s.History(ctx, "nobody")
	if err != nil || len(empty) != 0 {
		t.Errorf("unknown user history = %v, %v", empty, err)
	}
}

func TestSessionAnswers_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ev := answerEvent(curriculum.OpLogicPatterns, 0, false, testNow)
	ev.RawInput = " Tuesday "
	ev.Normalized = answer.Text("tuesday")
	ev.Expected = answer.Text("wednesday")
	if err := s.SaveAnswerEvent(ctx, "ana", "s1", ev); err != nil {
		t.Fatal(err)
	}

	got, err := s.SessionAnswers(ctx, "s1")
	if err != nil {
		t.Fatalf("session answers: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	a := got[0]
	if a.RawInput != " Tuesday " || a.Normalized != answer.Text("tuesday") || a.Expected != answer.Text("wednesday") {
		t.Errorf("answer values not preserved: %+v", a)
	}
	if a.Tier != difficulty.Hard || a.XP != 20 || a.TimeMs != 1500 {
		t.Errorf("scoring fields not preserved: %+v", a)
	}
}

func TestSessionSummary_SaveAndReplace(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sum := session.Summary{
		Mode:        session.ModeTest,
		Score:       7,
		Total:       10,
		Percentage:  70,
		LetterGrade: "C",
		Elapsed:     3 * time.Minute,
		Missed:      []session.AnswerEvent{answerEvent(curriculum.OpAddition, 4, false, testNow)},
		XPEarned:    95,
		BestStreak:  4,
	}
	if err := s.SaveSessionSummary(ctx, "ana", "s1", sum); err != nil {
		t.Fatalf("save: %v", err)
	}
	sum.Score = 8
	if err := s.SaveSessionSummary(ctx, "ana", "s1", sum); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, err := s.RecentSummaries(ctx, "ana", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1 (same session replaced)", len(got))
	}
	r := got[0]
	if r.Score != 8 || r.LetterGrade != "C" || r.Elapsed != 3*time.Minute || r.Mode != session.ModeTest {
		t.Errorf("summary = %+v", r)
	}
	if len(r.Missed) != 1 || r.Missed[0].Index != 4 {
		t.Errorf("missed = %+v", r.Missed)
	}
	if !r.EndedAt.Equal(testNow) {
		t.Errorf("EndedAt = %v, want %v", r.EndedAt, testNow)
	}
}

func TestRewardState_Unknown(t *testing.T) {
	s := openTestStore(t)
	st, err := s.GetRewardState(context.Background(), "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if st != (reward.State{Level: 1}) {
		t.Errorf("state = %+v, want level 1 only", st)
	}
}

func TestApplyAward_MatchesApply(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	awards := []reward.Award{
		{XP: 10, Today: "2026-03-14", DailyGoal: 20},
		{XP: 0, Today: "2026-03-14", DailyGoal: 20},
		{XP: 95, Today: "2026-03-14", DailyGoal: 30},
		{XP: -5, Today: "2026-03-15", DailyGoal: 20},
		{XP: 200, Today: "2026-03-15", DailyGoal: 20},
	}

	var want reward.State
	for i, a := range awards {
		want = want.Apply(a)
		got, err := s.ApplyAward(ctx, "ana", a)
		if err != nil {
			t.Fatalf("award %d: %v", i, err)
		}
		if got != want {
			t.Fatalf("award %d: got %+v, want %+v", i, got, want)
		}
	}

	stored, err := s.GetRewardState(ctx, "ana")
	if err != nil {
		t.Fatal(err)
	}
	if stored != want {
		t.Errorf("stored = %+v, want %+v", stored, want)
	}
	if stored.Level != 3 {
		t.Errorf("level = %d, want 3 for 305 XP", stored.Level)
	}
}

func TestApplyAward_Concurrent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.ApplyAward(ctx, "ana", reward.Award{XP: 10, Today: "2026-03-14", DailyGoal: 20}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("award: %v", err)
	}

	st, err := s.GetRewardState(ctx, "ana")
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalXP != n*10 || st.DailyQuestionCount != n {
		t.Errorf("state = %+v, want %d XP over %d questions", st, n*10, n)
	}
}

func TestRewardService_WithStore(t *testing.T) {
	s := openTestStore(t)
	svc := reward.NewService(s, reward.WithClock(func() time.Time { return testNow }))
	ctx := context.Background()

	res := svc.Award(ctx, "ana", reward.Event{Correct: true, Streak: 3, Tier: difficulty.Medium})
	if res.XPEarned != 21 || res.NewTotalXP != 21 || res.DailyQuestionCount != 1 {
		t.Errorf("result = %+v", res)
	}
	if res.DailyGoal != reward.DefaultDailyGoal {
		t.Errorf("DailyGoal = %d, want %d", res.DailyGoal, reward.DefaultDailyGoal)
	}
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	evs := []llm.RequestEvent{
		{Provider: "anthropic", Model: "claude-haiku-4-5-20251001", Purpose: "question-gen", InputTokens: 100, OutputTokens: 40, LatencyMs: 300, Success: true, RequestBody: "[user]\nhi", ResponseBody: `{"ok":true}`},
		{Provider: "anthropic", Model: "claude-haiku-4-5-20251001", Purpose: "question-gen", InputTokens: 120, OutputTokens: 60, LatencyMs: 500, Success: true},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "challenge-gen", InputTokens: 80, LatencyMs: 100, Success: false, ErrorMessage: "rate limited"},
	}
	for _, ev := range evs {
		if err := s.AppendLLMRequest(ctx, ev); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := s.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].Purpose != "challenge-gen" || all[0].Success {
		t.Errorf("newest event = %+v", all[0])
	}
	if !all[0].Timestamp.Equal(testNow) {
		t.Errorf("zero CreatedAt should use the store clock, got %v", all[0].Timestamp)
	}

	filtered, err := s.QueryLLMEvents(ctx, QueryOpts{Purpose: "question-gen", Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(filtered) != 1 || filtered[0].InputTokens != 120 {
		t.Errorf("filtered = %+v", filtered)
	}

	first, err := s.GetLLMEvent(ctx, all[2].ID)
	if err != nil {
		t.Fatal(err)
	}
	if first == nil || first.RequestBody != "[user]\nhi" || first.ResponseBody != `{"ok":true}` {
		t.Errorf("event = %+v", first)
	}
	missing, err := s.GetLLMEvent(ctx, 9999)
	if err != nil || missing != nil {
		t.Errorf("missing event = %v, %v", missing, err)
	}

	byPurpose, err := s.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(byPurpose) != 2 {
		t.Fatalf("by purpose = %+v", byPurpose)
	}
	qg := byPurpose[1]
	if qg.Purpose != "question-gen" || qg.Calls != 2 || qg.InputTokens != 220 || qg.OutputTokens != 100 || qg.AvgLatencyMs != 400 {
		t.Errorf("question-gen usage = %+v", qg)
	}

	byModel, err := s.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(byModel) != 2 || byModel[0].Model != "claude-haiku-4-5-20251001" || byModel[0].Calls != 2 {
		t.Errorf("by model = %+v", byModel)
	}
}

func TestSequenceSharedAcrossTables(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SaveAnswerEvent(ctx, "ana", "s1", answerEvent(curriculum.OpAddition, 0, true, testNow)); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendLLMRequest(ctx, llm.RequestEvent{Purpose: "question-gen", Success: true}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveAnswerEvent(ctx, "ana", "s1", answerEvent(curriculum.OpAddition, 1, true, testNow)); err != nil {
		t.Fatal(err)
	}

	var answerSeqs []int64
	rows, err := s.DB().Query("SELECT sequence FROM answer_events ORDER BY sequence")
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			t.Fatal(err)
		}
		answerSeqs = append(answerSeqs, v)
	}

	events, err := s.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(answerSeqs) != 2 || len(events) != 1 {
		t.Fatalf("answers=%v llm=%d", answerSeqs, len(events))
	}
	if !(answerSeqs[0] < events[0].Sequence && events[0].Sequence < answerSeqs[1]) {
		t.Errorf("sequences not interleaved: answers=%v llm=%d", answerSeqs, events[0].Sequence)
	}
}
