package extract

import (
	"math"
	"regexp"
	"strings"

	"github.com/abhisek/mathquest/internal/answer"
)

var (
	// Two or more single letters separated by commas: "A, C, E"
	letterRunRe = regexp.MustCompile(`(?:^|[^A-Za-z])([A-Za-z](?:\s*,\s*[A-Za-z])+)(?:[^A-Za-z]|$)`)

	// Comma-separated numbers: "2, 4, 8, 16"
	numberRunRe = regexp.MustCompile(`-?\d+(?:\.\d+)?(?:\s*,\s*-?\d+(?:\.\d+)?)+`)
)

const seqEpsilon = 1e-9

// Sequences predicts the next term of a letter or number sequence. The
// result is always text because pattern answers compare as strings.
func Sequences(text string) (answer.Value, bool) {
	if m := letterRunRe.FindStringSubmatch(text); m != nil {
		return answer.Text(nextLetter(m[1])), true
	}

	terms := longestNumberRun(symbolReplacer.Replace(text))
	if len(terms) < 2 {
		return answer.Value{}, false
	}
	next := answer.Round2(NextTerm(terms))
	return answer.Text(answer.FormatNumber(next)), true
}

// nextLetter applies the gap between the first two letters to the last one,
// clamping at the end of the alphabet.
func nextLetter(run string) string {
	var letters []rune
	for _, r := range run {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
			letters = append(letters, r)
		}
	}
	gap := letters[1] - letters[0]
	last := letters[len(letters)-1]
	lo, hi := 'A', 'Z'
	if last >= 'a' {
		lo, hi = 'a', 'z'
	}
	next := last + gap
	if next > hi {
		next = hi
	}
	if next < lo {
		next = lo
	}
	return string(next)
}

// longestNumberRun returns the terms of the longest contiguous
// comma-separated run of numbers in text.
func longestNumberRun(text string) []float64 {
	var best []float64
	for _, run := range numberRunRe.FindAllString(text, -1) {
		var terms []float64
		for _, part := range strings.Split(run, ",") {
			f, ok := parseFloat(part)
			if !ok {
				terms = nil
				break
			}
			terms = append(terms, f)
		}
		if len(terms) > len(best) {
			best = terms
		}
	}
	return best
}

// NextTerm predicts the term after s (len(s) >= 2). Rules are tried in
// order: Fibonacci-like, geometric, quadratic, then arithmetic on the last
// difference.
func NextTerm(s []float64) float64 {
	n := len(s)
	if isFibonacciLike(s) {
		return s[n-1] + s[n-2]
	}
	if r, ok := commonRatio(s); ok {
		return s[n-1] * r
	}
	if d2, ok := constantSecondDifference(s); ok {
		return s[n-1] + (s[n-1] - s[n-2]) + d2
	}
	return s[n-1] + (s[n-1] - s[n-2])
}

// isFibonacciLike needs four terms: with three, any arithmetic run such as
// 2, 4, 6 would also pass.
func isFibonacciLike(s []float64) bool {
	if len(s) < 4 {
		return false
	}
	for i := 2; i < len(s); i++ {
		if math.Abs(s[i]-(s[i-1]+s[i-2])) > seqEpsilon {
			return false
		}
	}
	return true
}

func commonRatio(s []float64) (float64, bool) {
	if len(s) < 3 {
		return 0, false
	}
	for _, v := range s {
		if v == 0 {
			return 0, false
		}
	}
	r := s[1] / s[0]
	for i := 2; i < len(s); i++ {
		if math.Abs(s[i]/s[i-1]-r) > seqEpsilon {
			return 0, false
		}
	}
	return r, true
}

func constantSecondDifference(s []float64) (float64, bool) {
	if len(s) < 3 {
		return 0, false
	}
	d2 := (s[2] - s[1]) - (s[1] - s[0])
	for i := 3; i < len(s); i++ {
		if math.Abs((s[i]-s[i-1])-(s[i-1]-s[i-2])-d2) > seqEpsilon {
			return 0, false
		}
	}
	return d2, true
}
