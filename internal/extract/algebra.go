package extract

import (
	"regexp"
	"strings"

	"github.com/abhisek/mathquest/internal/answer"
)

var (
	// "Ax + B = C", "Ax - B = C", "Ax = C". A may be omitted or just a sign.
	// C must end the equation, so "5x + 10 = 2x + 19" does not match.
	linearRe = regexp.MustCompile(`(?:^|[^a-z0-9.])(-?\d*\.?\d*)\s*\*?\s*([a-z])\s*(?:([-+])\s*(\d+(?:\.\d+)?)\s*)?=\s*(-?\d+(?:\.\d+)?)(?:[^a-z0-9.]|\.(?:[^0-9]|$)|$)`)

	// "x/4 = 5"
	quotientRe = regexp.MustCompile(`(?:^|[^a-z0-9.])([a-z])\s*/\s*(\d+(?:\.\d+)?)\s*=\s*(-?\d+(?:\.\d+)?)`)
)

// Algebra solves single-variable linear equations. Literal known questions
// are handled by the fixture table installed in front of it; the last number
// in the text is the final fallback.
func Algebra(text string) (answer.Value, bool) {
	s := strings.ToLower(symbolReplacer.Replace(text))

	if m := linearRe.FindStringSubmatch(s); m != nil {
		if x, ok := solveLinear(m[1], m[3], m[4], m[5]); ok {
			return answer.Number(answer.Round2(x)), true
		}
	}

	if m := quotientRe.FindStringSubmatch(s); m != nil {
		d, _ := parseFloat(m[2])
		c, _ := parseFloat(m[3])
		return answer.Number(answer.Round2(c * d)), true
	}

	if nums := numbers(s); len(nums) > 0 {
		return answer.Number(nums[len(nums)-1]), true
	}
	return answer.Value{}, false
}

// solveLinear solves A*x (op) B = C for x.
func solveLinear(coef, op, bStr, cStr string) (float64, bool) {
	var a float64
	switch coef {
	case "":
		a = 1
	case "-":
		a = -1
	default:
		v, ok := parseFloat(coef)
		if !ok {
			return 0, false
		}
		a = v
	}
	if a == 0 {
		return 0, false
	}

	var b float64
	if op != "" {
		b, _ = parseFloat(bStr)
		if op == "-" {
			b = -b
		}
	}
	c, ok := parseFloat(cStr)
	if !ok {
		return 0, false
	}

	x := (c - b) / a
	return x, finite(x)
}
