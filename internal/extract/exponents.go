package extract

import (
	"math"
	"regexp"
	"strings"

	"github.com/abhisek/mathquest/internal/answer"
)

var (
	// "2^3 * 2^4", "5^6 / 5^2"
	powerProductRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*\^\s*(-?\d+)\s*([*/])\s*(\d+(?:\.\d+)?)\s*\^\s*(-?\d+)`)

	// "2^10"
	powerRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*\^\s*\(?\s*(-?\d+(?:\.\d+)?)`)

	sqrtSymbolRe = regexp.MustCompile(`√\s*\(?\s*(\d+(?:\.\d+)?)`)
	cbrtSymbolRe = regexp.MustCompile(`∛\s*\(?\s*(\d+(?:\.\d+)?)`)
	sqrtWordsRe  = regexp.MustCompile(`square root of (\d+(?:\.\d+)?)`)
	cbrtWordsRe  = regexp.MustCompile(`cube root of (-?\d+(?:\.\d+)?)`)
	powerWordsRe = regexp.MustCompile(`(\d+(?:\.\d+)?) (?:to the power of|raised to the power of|raised to) (-?\d+(?:\.\d+)?)`)
	squaredRe    = regexp.MustCompile(`(\d+(?:\.\d+)?) squared`)
	cubedRe      = regexp.MustCompile(`(\d+(?:\.\d+)?) cubed`)

	// "x" as a times sign between two powers: "2^3 x 2^4"
	powerTimesXRe = regexp.MustCompile(`(\d)\s+x\s+(\d)`)
)

// Exponents evaluates powers and roots written with superscripts, carets,
// radical signs or words. A product of same-base powers adds exponents;
// different bases are evaluated separately and multiplied.
func Exponents(text string) (answer.Value, bool) {
	s := strings.ToLower(symbolReplacer.Replace(expandSuperscripts(text)))
	s = powerTimesXRe.ReplaceAllString(s, "$1 * $2")

	if m := powerProductRe.FindStringSubmatch(s); m != nil {
		b1, _ := parseFloat(m[1])
		e1, _ := parseFloat(m[2])
		b2, _ := parseFloat(m[4])
		e2, _ := parseFloat(m[5])
		var v float64
		switch {
		case b1 == b2 && m[3] == "*":
			v = math.Pow(b1, e1+e2)
		case b1 == b2:
			v = math.Pow(b1, e1-e2)
		case m[3] == "*":
			v = math.Pow(b1, e1) * math.Pow(b2, e2)
		default:
			v = math.Pow(b1, e1) / math.Pow(b2, e2)
		}
		if finite(v) {
			return answer.Number(answer.Round2(v)), true
		}
	}

	if m := powerRe.FindStringSubmatch(s); m != nil {
		if v, ok := pow(m[1], m[2]); ok {
			return v, true
		}
	}

	if m := sqrtSymbolRe.FindStringSubmatch(s); m != nil {
		n, _ := parseFloat(m[1])
		return answer.Number(answer.Round2(math.Sqrt(n))), true
	}
	if m := cbrtSymbolRe.FindStringSubmatch(s); m != nil {
		n, _ := parseFloat(m[1])
		return answer.Number(answer.Round2(math.Cbrt(n))), true
	}
	if m := sqrtWordsRe.FindStringSubmatch(s); m != nil {
		n, _ := parseFloat(m[1])
		return answer.Number(answer.Round2(math.Sqrt(n))), true
	}
	if m := cbrtWordsRe.FindStringSubmatch(s); m != nil {
		n, _ := parseFloat(m[1])
		return answer.Number(answer.Round2(math.Cbrt(n))), true
	}
	if m := powerWordsRe.FindStringSubmatch(s); m != nil {
		if v, ok := pow(m[1], m[2]); ok {
			return v, true
		}
	}
	if m := squaredRe.FindStringSubmatch(s); m != nil {
		return pow(m[1], "2")
	}
	if m := cubedRe.FindStringSubmatch(s); m != nil {
		return pow(m[1], "3")
	}

	return answer.Value{}, false
}

func pow(base, exp string) (answer.Value, bool) {
	b, ok1 := parseFloat(base)
	e, ok2 := parseFloat(exp)
	if !ok1 || !ok2 {
		return answer.Value{}, false
	}
	v := math.Pow(b, e)
	if !finite(v) {
		return answer.Value{}, false
	}
	return answer.Number(answer.Round2(v)), true
}
