package answer

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind distinguishes numeric answers from textual ones.
type Kind int

const (
	KindNumber Kind = iota
	KindText
)

// Value is a comparable answer: either a number or a string.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
}

// Number wraps a numeric answer.
func Number(f float64) Value {
	return Value{Kind: KindNumber, Num: f}
}

// Text wraps a textual answer (pattern and logic questions).
func Text(s string) Value {
	return Value{Kind: KindText, Str: s}
}

// IsNumber reports whether v holds a number.
func (v Value) IsNumber() bool { return v.Kind == KindNumber }

// String formats numbers without trailing zeros ("2.5", "16").
func (v Value) String() string {
	if v.Kind == KindText {
		return v.Str
	}
	return FormatNumber(v.Num)
}

// FormatNumber renders f with the shortest representation that round-trips.
func FormatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Round2 rounds to two decimal places.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// MarshalJSON encodes numbers as JSON numbers and text as JSON strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Kind == KindText {
		return json.Marshal(v.Str)
	}
	return json.Marshal(v.Num)
}

// UnmarshalJSON accepts a JSON number or string.
func (v *Value) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*v = Number(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("answer value must be a number or string: %w", err)
	}
	*v = Text(s)
	return nil
}
