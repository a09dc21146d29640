package problemgen

import (
	"fmt"
	"strings"

	"github.com/abhisek/mathquest/internal/curriculum"
	"github.com/abhisek/mathquest/internal/progress"
)

const systemPrompt = `You are a friendly math tutor writing practice problems for children.

Rules:
- Generate exactly one problem for the requested operation, grade band and difficulty tier.
- Write the math inline so it can be read by a program: "What is 24 + 18?", "What is 3/4 of 20?", "Solve for x: 2x + 3 = 11", "What is 2^5?", "What comes next: 2, 4, 8, 16, ?".
- Numeric answers must be a single number, a fraction like 3/4, or a mixed number like 1 1/2. No units.
- For pattern questions the answer is the next item exactly as the learner would type it.
- If you are not certain of the answer, return an empty answer string rather than guessing.
- The explanation shows the solution step by step, suitable for a child.
- Do not repeat any question from the "already asked" list.`

// buildUserMessage constructs the user message from Input and Config limits.
func buildUserMessage(input Input, cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Operation: %s\n", input.Operation.DisplayName())
	fmt.Fprintf(&b, "Grade band: %s\n", input.Grade)
	fmt.Fprintf(&b, "Difficulty tier: %s\n", input.Tier)
	if len(input.Modules) > 0 {
		fmt.Fprintf(&b, "Selected modules: %s\n", strings.Join(input.Modules, ", "))
	}

	b.WriteString("\nRecent performance:\n")
	b.WriteString(buildPerformance(progress.Recent(input.History, cfg.MaxHistory), input.Operation))

	b.WriteString("\n\nAlready asked in this session:\n")
	b.WriteString(buildDedup(input.PriorQuestions, cfg.MaxPriorQuestions))

	return b.String()
}

// buildPerformance summarizes accuracy per operation, weakest first.
func buildPerformance(history []progress.Entry, focus curriculum.Operation) string {
	if len(history) == 0 {
		return "None"
	}
	var b strings.Builder
	for _, s := range progress.WeakAreas(history) {
		marker := ""
		if s.Operation == focus {
			marker = " (this question)"
		}
		fmt.Fprintf(&b, "- %s: %d/%d correct%s\n", s.Operation.DisplayName(), s.Correct, s.Attempted, marker)
	}
	return strings.TrimRight(b.String(), "\n")
}

// buildDedup formats prior questions for the prompt, respecting the max limit.
// Returns "None" if there are no prior questions.
func buildDedup(priorQuestions []string, max int) string {
	if len(priorQuestions) == 0 {
		return "None"
	}
	if max > 0 && len(priorQuestions) > max {
		priorQuestions = priorQuestions[len(priorQuestions)-max:]
	}

	var b strings.Builder
	for i, q := range priorQuestions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return strings.TrimRight(b.String(), "\n")
}
