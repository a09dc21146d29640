package extract

import (
	"regexp"
	"strings"

	"github.com/abhisek/mathquest/internal/answer"
)

var (
	// "w a/b OP v c/d" where either whole part may be missing: "1 1/2 + 2 1/4"
	mixedPairRe = regexp.MustCompile(`(?:(\d+)\s+)?(\d+)\s*/\s*(\d+)\s*([-+*/])\s*(?:(\d+)\s+)?(\d+)\s*/\s*(\d+)`)

	// "a/b OP c/d"
	fractionPairRe = regexp.MustCompile(`(-?\d+)\s*/\s*(\d+)\s*([-+*/])\s*(-?\d+)\s*/\s*(\d+)`)

	// "if 3/4 of a number is 12"
	fractionWholeRe = regexp.MustCompile(`if\s+(\d+)\s*/\s*(\d+)\s+of\s+(?:a|the|some)\s+number\s+is\s+(-?\d+(?:\.\d+)?)`)

	// "2/3 of 18"
	fractionOfRe = regexp.MustCompile(`(\d+)\s*/\s*(\d+)\s+of\s+(-?\d+(?:\.\d+)?)`)

	// "2/3 * 18", "2/3 times 18"
	fractionTimesRe = regexp.MustCompile(`(\d+)\s*/\s*(\d+)\s*(?:\*|times)\s*(-?\d+(?:\.\d+)?)`)

	// "18 * 2/3"
	timesFractionRe = regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*(?:\*|times)\s*(\d+)\s*/\s*(\d+)`)
)

// Fractions handles fraction arithmetic, scaling a whole by a fraction, and
// recovering a whole from a fractional part. When none of those shapes is
// present it falls back to the ratio of the first two integers in the text.
func Fractions(text string) (answer.Value, bool) {
	s := strings.ToLower(symbolReplacer.Replace(text))
	s = timesXRe.ReplaceAllString(s, "$1 * $2")

	if m := mixedPairRe.FindStringSubmatch(s); m != nil && (m[1] != "" || m[5] != "") {
		a, b := mixedParts(m[1], m[2], m[3])
		c, d := mixedParts(m[5], m[6], m[7])
		if v, ok := combineFractions(a, b, m[4][0], c, d); ok {
			return answer.Number(answer.Round2(v)), true
		}
	}

	if m := fractionPairRe.FindStringSubmatch(s); m != nil {
		a, _ := parseFloat(m[1])
		b, _ := parseFloat(m[2])
		c, _ := parseFloat(m[4])
		d, _ := parseFloat(m[5])
		if v, ok := combineFractions(a, b, m[3][0], c, d); ok {
			return answer.Number(answer.Round2(v)), true
		}
	}

	if m := fractionWholeRe.FindStringSubmatch(s); m != nil {
		a, _ := parseFloat(m[1])
		b, _ := parseFloat(m[2])
		part, _ := parseFloat(m[3])
		if a != 0 {
			return answer.Number(answer.Round2(part * b / a)), true
		}
	}

	for _, re := range []*regexp.Regexp{fractionOfRe, fractionTimesRe} {
		if m := re.FindStringSubmatch(s); m != nil {
			a, _ := parseFloat(m[1])
			b, _ := parseFloat(m[2])
			n, _ := parseFloat(m[3])
			if b != 0 {
				return answer.Number(answer.Round2(a * n / b)), true
			}
		}
	}

	if m := timesFractionRe.FindStringSubmatch(s); m != nil {
		n, _ := parseFloat(m[1])
		a, _ := parseFloat(m[2])
		b, _ := parseFloat(m[3])
		if b != 0 {
			return answer.Number(answer.Round2(a * n / b)), true
		}
	}

	ints := integers(s)
	if len(ints) >= 2 && ints[1] != 0 {
		return answer.Number(answer.Round2(float64(ints[0]) / float64(ints[1]))), true
	}
	return answer.Value{}, false
}

// mixedParts turns "w n/d" into the improper fraction (w*d+n)/d.
func mixedParts(whole, num, den string) (float64, float64) {
	w, _ := parseFloat(whole)
	n, _ := parseFloat(num)
	d, _ := parseFloat(den)
	return w*d + n, d
}

// combineFractions cross-multiplies a/b OP c/d.
func combineFractions(a, b float64, op byte, c, d float64) (float64, bool) {
	if b == 0 || d == 0 {
		return 0, false
	}
	switch op {
	case '+':
		return (a*d + c*b) / (b * d), true
	case '-':
		return (a*d - c*b) / (b * d), true
	case '*':
		return (a * c) / (b * d), true
	case '/':
		if c == 0 {
			return 0, false
		}
		return (a * d) / (b * c), true
	}
	return 0, false
}
