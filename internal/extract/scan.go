package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// A number with an optional sign. The sign only counts when it is not
	// glued to a preceding word or digit, so "5-3" scans as 5 and 3.
	numberRe = regexp.MustCompile(`(?:^|[^\w.])(-)?(\d+(?:\.\d+)?)`)

	integerRe = regexp.MustCompile(`\d+`)

	spaceRe = regexp.MustCompile(`\s+`)
)

var superscripts = map[rune]rune{
	'⁰': '0', '¹': '1', '²': '2', '³': '3', '⁴': '4',
	'⁵': '5', '⁶': '6', '⁷': '7', '⁸': '8', '⁹': '9', '⁻': '-',
}

var symbolReplacer = strings.NewReplacer(
	"−", "-",
	"–", "-",
	"×", "*",
	"·", "*",
	"÷", "/",
)

// numbers returns every number in text in order of appearance.
func numbers(text string) []float64 {
	var out []float64
	for _, m := range numberRe.FindAllStringSubmatch(symbolReplacer.Replace(text), -1) {
		f, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		if m[1] == "-" {
			f = -f
		}
		out = append(out, f)
	}
	return out
}

// integers returns every unsigned digit run in text.
func integers(text string) []int64 {
	var out []int64
	for _, s := range integerRe.FindAllString(text, -1) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

// expandSuperscripts rewrites superscript digits as caret exponents:
// "2³" becomes "2^3".
func expandSuperscripts(text string) string {
	var b strings.Builder
	inExp := false
	for _, r := range text {
		d, ok := superscripts[r]
		if !ok {
			inExp = false
			b.WriteRune(r)
			continue
		}
		if !inExp {
			b.WriteByte('^')
			inExp = true
		}
		b.WriteRune(d)
	}
	return b.String()
}

// fixtureKey normalizes question text for literal table lookups.
func fixtureKey(text string) string {
	s := strings.ToLower(expandSuperscripts(text))
	s = strings.NewReplacer("−", "-", "–", "-", "×", "*", "÷", "/").Replace(s)
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
