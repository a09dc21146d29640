package session

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	sess "github.com/abhisek/mathquest/internal/session"
	"github.com/abhisek/mathquest/internal/ui/components"
	"github.com/abhisek/mathquest/internal/ui/theme"
)

type keyHint struct {
	Key         string
	Description string
}

func (m Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	v.SetContent(m.content())
	return v
}

// content renders the current screen as a string.
func (m Model) content() string {
	width := m.width
	if width == 0 {
		width = defaultWidth
	}

	switch {
	case m.err != nil:
		return renderError(width, m.err, m.started && m.state.Phase == sess.PhaseLoading)
	case !m.started:
		return centered(width, theme.Dim, "Preparing your session...")
	case m.confirmQuit:
		return renderQuitConfirm(width)
	}

	switch m.state.Phase {
	case sess.PhaseAwaitingAnswer:
		return m.renderQuestion(width)
	case sess.PhaseFeedback:
		return m.renderFeedback(width)
	case sess.PhaseComplete:
		if m.state.Summary == nil {
			return ""
		}
		return RenderSummary(*m.state.Summary, width) + "\n\n" +
			renderHints(width, []keyHint{{Key: "any key", Description: "Exit"}})
	}
	return centered(width, theme.Dim, "Getting the next question...")
}

func (m Model) renderQuestion(width int) string {
	st := m.state
	var b strings.Builder

	left := theme.Title.Render(fmt.Sprintf("  Grade %s · %s", st.Grade, modeLabel(st.Mode)))
	right := theme.Dim.Render(fmt.Sprintf("%s %d/%d  %s %d  XP %d  ",
		theme.Correct.Render("✓"), st.CorrectCount, st.TotalCount,
		theme.Celebrate.Render("streak"), st.CurrentStreak, st.XPEarned))
	b.WriteString(left)
	if pad := width - lipgloss.Width(left) - lipgloss.Width(right); pad > 0 {
		b.WriteString(strings.Repeat(" ", pad) + right)
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width, 1))))
	b.WriteString("\n")

	if done, total := progressCounts(st); total > 0 {
		bar := components.ProgressBar{Done: done, Total: total, Width: min(width-4, 50)}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar.View()))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if st.Question != nil {
		b.WriteString(lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Inherit(theme.Question).Render(st.Question.Text))
	}
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render("Answer: " + m.input.View()))
	b.WriteString("\n\n")

	if m.showHint && st.Question != nil {
		hint := "No hint for this one."
		if st.Question.Hint != "" {
			hint = "Hint: " + st.Question.Hint
		}
		b.WriteString(centered(width, theme.Hint, hint))
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString(centered(width, theme.Incorrect, m.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderHints(width, []keyHint{
		{Key: "Enter", Description: "Submit"},
		{Key: "Tab", Description: "Hint"},
		{Key: "Esc", Description: "Quit"},
	}))
	return b.String()
}

func (m Model) renderFeedback(width int) string {
	st := m.state
	var b strings.Builder
	b.WriteString("\n\n")

	ev := st.LastAnswer
	switch {
	case st.Unscorable:
		if st.Question != nil {
			b.WriteString(centered(width, theme.Body, st.Question.Text))
			b.WriteString("\n\n")
		}
		b.WriteString(centered(width, theme.Dim, unscorableNote))
	case ev != nil && ev.Correct:
		msg := fmt.Sprintf("Correct! +%d XP", ev.XP)
		if st.CurrentStreak > 1 {
			msg += fmt.Sprintf("  (streak %d)", st.CurrentStreak)
		}
		b.WriteString(centered(width, theme.Correct, msg))
	case ev != nil:
		b.WriteString(centered(width, theme.Incorrect, "Not quite"))
		b.WriteString("\n")
		b.WriteString(centered(width, theme.Dim, fmt.Sprintf("You said %s. The answer is %s.", ev.RawInput, ev.Expected)))
		if st.Question != nil && st.Question.Explanation != "" {
			b.WriteString("\n\n")
			exp := lipgloss.NewStyle().Width(min(width-8, 70)).Inherit(theme.Body).Render(st.Question.Explanation)
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, exp))
		}
	}
	b.WriteString("\n\n")

	if res := st.LastReward; res != nil {
		if res.LeveledUp {
			b.WriteString(centered(width, theme.Celebrate, fmt.Sprintf("Level up! You reached level %d.", res.NewLevel)))
			b.WriteString("\n")
		}
		if res.DailyGoal > 0 && res.DailyQuestionCount == res.DailyGoal {
			b.WriteString(centered(width, theme.Celebrate, "Daily goal reached!"))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(renderHints(width, []keyHint{
		{Key: "any key", Description: "Continue"},
		{Key: "Esc", Description: "Quit"},
	}))
	return b.String()
}

// RenderSummary renders the end-of-session card.
func RenderSummary(s sess.Summary, width int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("Session complete!"))
	b.WriteString("\n\n")

	row := func(label, value string) {
		b.WriteString(theme.Dim.Render(fmt.Sprintf("%-12s", label)))
		b.WriteString(theme.Body.Render(value))
		b.WriteString("\n")
	}
	row("Score", fmt.Sprintf("%d / %d (%d%%)", s.Score, s.Total, s.Percentage))
	if s.LetterGrade != "" {
		row("Grade", s.LetterGrade)
		row("Time", s.Elapsed.Round(time.Second).String())
	}
	row("XP earned", fmt.Sprintf("%d", s.XPEarned))
	row("Best streak", fmt.Sprintf("%d", s.BestStreak))

	if len(s.Missed) > 0 {
		b.WriteString("\n")
		b.WriteString(theme.Celebrate.Render("Review"))
		b.WriteString("\n")
		for _, ev := range s.Missed {
			b.WriteString(theme.Body.Render(ev.QuestionText))
			b.WriteString("\n")
			b.WriteString(theme.Dim.Render(fmt.Sprintf("  you said %s, answer ", ev.RawInput)))
			b.WriteString(theme.Correct.Render(ev.Expected.String()))
			b.WriteString("\n")
		}
	}

	card := theme.Card.Width(min(width-4, 64)).Render(strings.TrimRight(b.String(), "\n"))
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, card)
}

func renderQuitConfirm(width int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(centered(width, theme.Question, "End session early?"))
	b.WriteString("\n")
	b.WriteString(centered(width, theme.Dim, "Answers so far are saved."))
	b.WriteString("\n\n")
	b.WriteString(centered(width, lipgloss.NewStyle().Foreground(theme.Success), "[Y] Yes, end session"))
	b.WriteString("\n")
	b.WriteString(centered(width, lipgloss.NewStyle().Foreground(theme.Primary), "[N] No, keep going"))
	return b.String()
}

func renderError(width int, err error, retryable bool) string {
	msg := fmt.Sprintf("Error: %v\n\n", err)
	if retryable {
		msg += "Press r to retry or any other key to stop."
	} else {
		msg += "Press any key to exit."
	}
	return "\n\n\n" + centered(width, lipgloss.NewStyle().Foreground(theme.Error), msg)
}

func renderHints(width int, hints []keyHint) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, theme.Key.Render(h.Key)+" "+theme.Dim.Render(h.Description))
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, strings.Join(parts, "   "))
}

func centered(width int, style lipgloss.Style, s string) string {
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Inherit(style).Render(s)
}

// progressCounts returns answered and total questions for bounded sessions,
// or zeros in Play mode.
func progressCounts(st sess.State) (done, total int) {
	switch {
	case st.Mode == sess.ModeTest:
		return st.TotalCount, sess.TestQuestionCount
	case st.Mode.IsChallenge():
		return st.QuestionIndex - 1, len(st.ChallengeQuestions)
	}
	return 0, 0
}

func modeLabel(m sess.Mode) string {
	switch m {
	case sess.ModeTest:
		return "Test"
	case sess.ModeChallengeCreator, sess.ModeChallengeOpponent:
		return "Challenge"
	}
	return "Practice"
}
