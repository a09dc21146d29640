package session

import (
	"math"
	"time"
)

// TestQuestionCount is the number of scored questions in a Test session.
const TestQuestionCount = 10

// Summary is shown when a session ends.
type Summary struct {
	Mode       Mode `json:"mode"`
	Score      int  `json:"score"`
	Total      int  `json:"total"`
	Percentage int  `json:"percentage"`

	// LetterGrade and Elapsed are only set for Test sessions.
	LetterGrade string        `json:"letterGrade,omitempty"`
	Elapsed     time.Duration `json:"elapsed,omitempty"`

	Missed     []AnswerEvent `json:"missed"`
	XPEarned   int           `json:"xpEarned"`
	BestStreak int           `json:"bestStreak"`
}

// BuildSummary summarizes st as of end.
func BuildSummary(st State, end time.Time) Summary {
	s := Summary{
		Mode:       st.Mode,
		Score:      st.CorrectCount,
		Total:      st.TotalCount,
		Missed:     st.Missed,
		XPEarned:   st.XPEarned,
		BestStreak: st.BestStreak,
	}
	if s.Missed == nil {
		s.Missed = []AnswerEvent{}
	}
	if st.TotalCount > 0 {
		s.Percentage = int(math.Round(float64(st.CorrectCount) / float64(st.TotalCount) * 100))
	}
	if st.Mode == ModeTest {
		s.LetterGrade = LetterGrade(s.Percentage)
		s.Elapsed = end.Sub(st.StartedAt).Round(time.Second)
	}
	return s
}

// LetterGrade maps a percentage to A-F.
func LetterGrade(pct int) string {
	switch {
	case pct >= 90:
		return "A"
	case pct >= 80:
		return "B"
	case pct >= 70:
		return "C"
	case pct >= 60:
		return "D"
	}
	return "F"
}
