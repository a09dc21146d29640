package answer

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/abhisek/mathquest/internal/curriculum"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1/2", 0.5},
		{"1 1/2", 1.5},
		{"-2 1/4", -2.25},
		{"  42 ", 42},
		{"3.50", 3.5},
		{"-7", -7},
		{"7/2", 3.5},
		{"1,250", 1250},
		{"−3", -3},
	}
	for _, tt := range tests {
		got := Normalize(tt.in)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Normalize(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "3/0", "1 1/0", "NaN", "Inf", "12 apples", "1,25"} {
		if got := Normalize(in); !math.IsNaN(got) {
			t.Errorf("Normalize(%q) = %v, want NaN", in, got)
		}
	}
}

func TestParse(t *testing.T) {
	v, err := Parse("3/4", curriculum.OpFractions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.IsNumber() || v.Num != 0.75 {
		t.Errorf("Parse(3/4) = %+v, want number 0.75", v)
	}

	if _, err := Parse("seven", curriculum.OpAddition); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Parse(seven) error = %v, want ErrInvalidInput", err)
	}

	v, err = Parse("  e ", curriculum.OpLogicPatterns)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != KindText || v.Str != "e" {
		t.Errorf("Parse(e) = %+v, want text \"e\"", v)
	}

	if _, err := Parse("", curriculum.OpLogicPatterns); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty textual answer error = %v, want ErrInvalidInput", err)
	}
}

func TestIsCorrect(t *testing.T) {
	tests := []struct {
		name  string
		op    curriculum.Operation
		given Value
		want  Value
		ok    bool
	}{
		{"exact", curriculum.OpAddition, Number(5), Number(5), true},
		{"within tolerance", curriculum.OpFractions, Number(0.6667), Number(0.67), true},
		{"at tolerance", curriculum.OpDecimals, Number(1.01), Number(1.0), true},
		{"outside tolerance", curriculum.OpDecimals, Number(1.02), Number(1.0), false},
		{"text case-insensitive", curriculum.OpLogicPatterns, Text(" g "), Text("G"), true},
		{"text numeric string", curriculum.OpLogicPatterns, Text("16"), Text("16"), true},
		{"text mismatch", curriculum.OpLogicPatterns, Text("H"), Text("G"), false},
		{"numeric vs text", curriculum.OpAddition, Text("5"), Number(5), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCorrect(tt.op, tt.given, tt.want); got != tt.ok {
				t.Errorf("IsCorrect(%v, %v) = %v, want %v", tt.given, tt.want, got, tt.ok)
			}
		})
	}
}

func TestValueString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Number(16), "16"},
		{Number(2.5), "2.5"},
		{Number(-0.25), "-0.25"},
		{Text("Q"), "Q"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestValueJSON(t *testing.T) {
	data, err := json.Marshal([]Value{Number(1.5), Text("K")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `[1.5,"K"]` {
		t.Errorf("marshal = %s", data)
	}

	var got []Value
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got[0].IsNumber() || got[0].Num != 1.5 || got[1].Kind != KindText || got[1].Str != "K" {
		t.Errorf("unmarshal = %+v", got)
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(2.0 / 3.0); got != 0.67 {
		t.Errorf("Round2(2/3) = %v, want 0.67", got)
	}
	if got := Round2(12.5); got != 12.5 {
		t.Errorf("Round2(12.5) = %v, want 12.5", got)
	}
}
