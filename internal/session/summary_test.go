package session

import (
	"testing"
	"time"
)

func TestLetterGrade(t *testing.T) {
	tests := []struct {
		pct  int
		want string
	}{
		{100, "A"}, {90, "A"}, {89, "B"}, {80, "B"}, {79, "C"}, {70, "C"}, {69, "D"}, {60, "D"}, {59, "F"}, {0, "F"},
	}
	for _, tt := range tests {
		if got := LetterGrade(tt.pct); got != tt.want {
			t.Errorf("LetterGrade(%d) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}

func TestBuildSummary(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	st := State{
		Mode:         ModeTest,
		CorrectCount: 7,
		TotalCount:   9,
		XPEarned:     95,
		BestStreak:   4,
		StartedAt:    start,
		Missed:       []AnswerEvent{{RawInput: "3"}, {RawInput: "8"}},
	}

	s := BuildSummary(st, start.Add(3*time.Minute+400*time.Millisecond))
	if s.Percentage != 78 || s.LetterGrade != "C" {
		t.Errorf("percentage=%d grade=%q", s.Percentage, s.LetterGrade)
	}
	if s.Elapsed != 3*time.Minute {
		t.Errorf("elapsed = %s", s.Elapsed)
	}
	if s.XPEarned != 95 || s.BestStreak != 4 || len(s.Missed) != 2 {
		t.Errorf("summary = %+v", s)
	}

	st.Mode = ModePlay
	s = BuildSummary(st, start.Add(time.Hour))
	if s.LetterGrade != "" || s.Elapsed != 0 {
		t.Error("play summary should not carry grade or time")
	}

	empty := BuildSummary(State{Mode: ModeTest, StartedAt: start}, start)
	if empty.Percentage != 0 || empty.LetterGrade != "F" || empty.Missed == nil {
		t.Errorf("empty summary = %+v", empty)
	}
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"play", "test", "challenge_creator", "challenge_opponent"} {
		if _, err := ParseMode(s); err != nil {
			t.Errorf("ParseMode(%q): %v", s, err)
		}
	}
	if _, err := ParseMode("arcade"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
