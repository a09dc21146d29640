package answer

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/abhisek/mathquest/internal/curriculum"
)

// ErrInvalidInput is returned when a numeric answer cannot be parsed.
var ErrInvalidInput = errors.New("need a valid number")

// Tolerance is the absolute difference under which two numeric answers are
// considered equal. It absorbs the extractor's two-decimal rounding.
const Tolerance = 0.01

var (
	// Mixed number: "1 1/2", "-2 3/4"
	mixedRe = regexp.MustCompile(`^(-?\d+)\s+(\d+)\s*/\s*(\d+)$`)

	// Simple fraction: "3/4", "-7/2", "1.5/3"
	fractionRe = regexp.MustCompile(`^(-?\d+(?:\.\d+)?)\s*/\s*(-?\d+(?:\.\d+)?)$`)

	// Thousands separators: "1,250", "12,000.5"
	groupedRe = regexp.MustCompile(`^-?\d{1,3}(?:,\d{3})+(?:\.\d+)?$`)
)

// Normalize parses free-form learner input into a number. Mixed numbers are
// tried first, then simple fractions, then plain decimals. It returns NaN for
// empty input, zero denominators, and anything non-numeric.
func Normalize(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return math.NaN()
	}
	s = strings.ReplaceAll(s, "−", "-")

	if m := mixedRe.FindStringSubmatch(s); m != nil {
		whole, _ := strconv.ParseFloat(m[1], 64)
		num, _ := strconv.ParseFloat(m[2], 64)
		den, _ := strconv.ParseFloat(m[3], 64)
		if den == 0 {
			return math.NaN()
		}
		frac := num / den
		if strings.HasPrefix(m[1], "-") {
			return whole - frac
		}
		return whole + frac
	}

	if m := fractionRe.FindStringSubmatch(s); m != nil {
		num, _ := strconv.ParseFloat(m[1], 64)
		den, _ := strconv.ParseFloat(m[2], 64)
		if den == 0 {
			return math.NaN()
		}
		return num / den
	}

	if groupedRe.MatchString(s) {
		s = strings.ReplaceAll(s, ",", "")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}

// Parse converts learner input into a Value for the given operation. Textual
// operations pass the trimmed input through unchanged.
func Parse(raw string, op curriculum.Operation) (Value, error) {
	if op.IsTextual() {
		s := strings.TrimSpace(raw)
		if s == "" {
			return Value{}, ErrInvalidInput
		}
		return Text(s), nil
	}
	f := Normalize(raw)
	if math.IsNaN(f) {
		return Value{}, ErrInvalidInput
	}
	return Number(f), nil
}

// ParseCanonical interprets an answer supplied by a question source. Unlike
// Parse it never fails; an unparseable numeric answer yields ok=false so the
// caller can fall back to extraction.
func ParseCanonical(raw string, op curriculum.Operation) (Value, bool) {
	v, err := Parse(raw, op)
	if err != nil {
		return Value{}, false
	}
	return v, true
}

// IsCorrect decides whether given matches want. Textual operations compare
// trimmed strings case-insensitively; everything else compares numbers with
// Tolerance.
func IsCorrect(op curriculum.Operation, given, want Value) bool {
	if op.IsTextual() {
		return strings.EqualFold(strings.TrimSpace(given.String()), strings.TrimSpace(want.String()))
	}
	if !given.IsNumber() || !want.IsNumber() {
		return false
	}
	return math.Abs(given.Num-want.Num) <= Tolerance+1e-9
}
