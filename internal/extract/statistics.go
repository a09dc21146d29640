package extract

import (
	"regexp"

	"github.com/abhisek/mathquest/internal/answer"
)

var meanRe = regexp.MustCompile(`(?i)\b(?:mean|average)\b`)

// Statistics averages every number in the text when the question asks for a
// mean or average. Other statistics phrasing (median, mode, probability) is
// only answerable through the fixture table installed in front of it.
func Statistics(text string) (answer.Value, bool) {
	if !meanRe.MatchString(text) {
		return answer.Value{}, false
	}
	nums := numbers(text)
	if len(nums) == 0 {
		return answer.Value{}, false
	}
	var sum float64
	for _, n := range nums {
		sum += n
	}
	return answer.Number(answer.Round2(sum / float64(len(nums)))), true
}
