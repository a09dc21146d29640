package extract

import (
	"regexp"
	"strings"

	"github.com/abhisek/mathquest/internal/answer"
)

// Regex patterns for arithmetic expressions. They run on text that has been
// through arithmeticForm, so every operator is one of + - * /.
var (
	// Three or more operands: "2 + 3 * 4 - 1"
	chainRe = regexp.MustCompile(`(-?\d+(?:\.\d+)?)((?:\s*[-+*/]\s*-?\d+(?:\.\d+)?){2,})`)

	// One operator step inside a chain.
	chainStepRe = regexp.MustCompile(`\s*([-+*/])\s*(-?\d+(?:\.\d+)?)`)

	// Two operands: "345 + 278", "7.5 / 2.5"
	pairRe = regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*([-+*/])\s*(-?\d+(?:\.\d+)?)`)

	// A bare hyphenated pair with no spaces: "2-3", "10-12".
	rangeRe = regexp.MustCompile(`^\d+-\d+$`)

	// "x" or "X" used as a times sign between numbers: "6 x 7", "6x7"
	timesXRe = regexp.MustCompile(`(\d)\s*[xX]\s*(\d)`)

	// Thousands separators inside numbers: "1,250"
	groupSepRe = regexp.MustCompile(`(\d),(\d{3})\b`)
)

var wordOperators = strings.NewReplacer(
	" multiplied by ", " * ",
	" divided by ", " / ",
	" plus ", " + ",
	" minus ", " - ",
	" times ", " * ",
)

// phrase patterns: "the sum of 12 and 30"
var phrasePatterns = []struct {
	re *regexp.Regexp
	op byte
}{
	{regexp.MustCompile(`sum of (-?\d+(?:\.\d+)?) and (-?\d+(?:\.\d+)?)`), '+'},
	{regexp.MustCompile(`difference (?:between|of) (-?\d+(?:\.\d+)?) and (-?\d+(?:\.\d+)?)`), '-'},
	{regexp.MustCompile(`product of (-?\d+(?:\.\d+)?) and (-?\d+(?:\.\d+)?)`), '*'},
	{regexp.MustCompile(`quotient of (-?\d+(?:\.\d+)?) and (-?\d+(?:\.\d+)?)`), '/'},
}

// Arithmetic handles addition, subtraction, multiplication, division and
// decimals. Chained expressions are matched before two-operand ones so a
// longer expression is never truncated. Results are rounded to two places.
func Arithmetic(text string) (answer.Value, bool) {
	s := arithmeticForm(text)

	if m := lastExpression(chainRe.FindAllStringSubmatch(s, -1)); m != nil {
		if v, ok := evalChain(m[1], m[2]); ok {
			return answer.Number(answer.Round2(v)), true
		}
	}

	if m := lastExpression(pairRe.FindAllStringSubmatch(s, -1)); m != nil {
		if v, ok := evalChain(m[1], m[2]+m[3]); ok {
			return answer.Number(answer.Round2(v)), true
		}
	}

	for _, p := range phrasePatterns {
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		a, ok1 := parseFloat(m[1])
		b, ok2 := parseFloat(m[2])
		if !ok1 || !ok2 {
			continue
		}
		if v, ok := apply(a, p.op, b); ok {
			return answer.Number(answer.Round2(v)), true
		}
	}

	return answer.Value{}, false
}

// lastExpression picks the expression a question asks about: the last one in
// the text, passing over hyphenated ranges such as "2-3" when a spaced
// expression is also present.
func lastExpression(matches [][]string) []string {
	var glued []string
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		if rangeRe.MatchString(m[0]) {
			if glued == nil {
				glued = m
			}
			continue
		}
		return m
	}
	return glued
}

// arithmeticForm lower-cases text and rewrites operator symbols and words to
// + - * /.
func arithmeticForm(text string) string {
	s := " " + strings.ToLower(text) + " "
	s = symbolReplacer.Replace(s)
	s = wordOperators.Replace(s)
	s = groupSepRe.ReplaceAllString(s, "$1$2")
	// Applied twice so overlapping matches like "2x3x4" are all rewritten.
	s = timesXRe.ReplaceAllString(s, "$1 * $2")
	s = timesXRe.ReplaceAllString(s, "$1 * $2")
	return s
}

// evalChain evaluates first followed by a sequence of operator steps,
// giving * and / precedence over + and -.
func evalChain(first, steps string) (float64, bool) {
	head, ok := parseFloat(first)
	if !ok {
		return 0, false
	}
	terms := []float64{head}
	var signs []byte
	for _, m := range chainStepRe.FindAllStringSubmatch(steps, -1) {
		operand, ok := parseFloat(m[2])
		if !ok {
			return 0, false
		}
		op := m[1][0]
		switch op {
		case '*', '/':
			v, ok := apply(terms[len(terms)-1], op, operand)
			if !ok {
				return 0, false
			}
			terms[len(terms)-1] = v
		default:
			terms = append(terms, operand)
			signs = append(signs, op)
		}
	}

	result := terms[0]
	for i, op := range signs {
		result, _ = apply(result, op, terms[i+1])
	}
	return result, finite(result)
}

// apply evaluates a binary operation. Division by zero is not computable.
func apply(a float64, op byte, b float64) (float64, bool) {
	switch op {
	case '+':
		return a + b, true
	case '-':
		return a - b, true
	case '*':
		return a * b, true
	case '/':
		if b == 0 {
			return 0, false
		}
		return a / b, true
	}
	return 0, false
}
