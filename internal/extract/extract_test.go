package extract

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/abhisek/mathquest/internal/answer"
	"github.com/abhisek/mathquest/internal/curriculum"
)

type extractCase struct {
	text string
	want float64
}

func runNumeric(t *testing.T, name string, h Handler, tests []extractCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := h(tt.text)
			if !ok {
				t.Fatalf("%s(%q): no answer, want %v", name, tt.text, tt.want)
			}
			if !got.IsNumber() || math.Abs(got.Num-tt.want) > 1e-9 {
				t.Errorf("%s(%q) = %v, want %v", name, tt.text, got, tt.want)
			}
		})
	}
}

func runNone(t *testing.T, name string, h Handler, texts []string) {
	t.Helper()
	for _, text := range texts {
		if got, ok := h(text); ok {
			t.Errorf("%s(%q) = %v, want no answer", name, text, got)
		}
	}
}

func TestArithmetic(t *testing.T) {
	runNumeric(t, "Arithmetic", Arithmetic, []extractCase{
		{"What is 345 + 278?", 623},
		{"What is 12 - 4 + 3?", 11},
		{"What is 2 + 3 × 4?", 14},
		{"What is 4 + 5 + 6 + 7?", 22},
		{"What is 7 x 8?", 56},
		{"What is 144 ÷ 12?", 12},
		{"What is 2.5 + 1.25?", 3.75},
		{"What is 0.1 + 0.2?", 0.3},
		{"What is 10 / 4?", 2.5},
		{"What is 1 / 3?", 0.33},
		{"What is 15 - -5?", 20},
		{"What is 9 minus 4?", 5},
		{"What is 6 times 7?", 42},
		{"What is 20 divided by 5?", 4},
		{"Find the sum of 12 and 30.", 42},
		{"What is the product of 9 and 3?", 27},
		{"What is 1,250 + 750?", 2000},
		{"Grade 2-3 practice: what is 9 - 4?", 5},
		{"Level 1-2: what is 6 + 7?", 13},
		{"What is 10-4?", 6},
	})
	runNone(t, "Arithmetic", Arithmetic, []string{
		"What is 5 / 0?",
		"How many apples are left?",
	})
}

func TestArithmetic_ChainBeforePair(t *testing.T) {
	got, ok := Arithmetic("Compute 100 - 20 - 30 - 40")
	if !ok {
		t.Fatal("expected an answer")
	}
	if got.Num != 10 {
		t.Errorf("got %v, want 10 (a two-operand match would give 80)", got)
	}
}

func TestArithmetic_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 200; i++ {
		a := rng.IntN(2000) - 1000
		b := rng.IntN(2000)
		text := fmt.Sprintf("What is %d + %d?", a, b)
		got, ok := Extract(text, curriculum.OpAddition)
		if !ok {
			t.Fatalf("Extract(%q): no answer", text)
		}
		if math.Abs(got.Num-float64(a+b)) > answer.Tolerance {
			t.Errorf("Extract(%q) = %v, want %d", text, got, a+b)
		}
	}
}

func TestFractions(t *testing.T) {
	runNumeric(t, "Fractions", Fractions, []extractCase{
		{"What is 1/2 + 1/4?", 0.75},
		{"What is 2/3 - 1/6?", 0.5},
		{"What is 3/4 × 2/3?", 0.5},
		{"What is 1/2 ÷ 1/4?", 2},
		{"What is 1/3 + 1/3?", 0.67},
		{"What is 3/4 of 20?", 15},
		{"What is 2/5 × 10?", 4},
		{"What is 12 x 1/4?", 3},
		{"If 3/4 of a number is 12, what is the number?", 16},
		{"Simplify 4/8.", 0.5},
		{"What is 1 1/2 + 2 1/4?", 3.75},
		{"What is 3 1/3 - 1 2/3?", 1.67},
		{"What is 2 1/2 × 1/2?", 1.25},
		{"What is 3/4 + 1 1/4?", 2},
	})
	runNone(t, "Fractions", Fractions, []string{"Which fraction is bigger?"})
}

func TestAlgebra(t *testing.T) {
	runNumeric(t, "Algebra", Algebra, []extractCase{
		{"Solve for x: 2x + 3 = 11", 4},
		{"Solve for x: 3x − 4 = 11", 5},
		{"If 5x = 35, what is x?", 7},
		{"x + 7 = 10", 3},
		{"Solve: -2x + 4 = 0", 2},
		{"Solve for y: 4y = 2", 0.5},
		{"What is x if x/4 = 5?", 20},
		{"Solve for x: 2x + 3 = 11.", 4},
		// Variables on both sides are not solved; the last number is used.
		{"Solve for x: 5x + 10 = 2x + 19", 19},
		// Falls back to the last number.
		{"Find the missing number: 3 + ? = 8", 8},
	})
	runNone(t, "Algebra", Algebra, []string{"What is a variable?"})
}

func TestGeometry(t *testing.T) {
	runNumeric(t, "Geometry", Geometry, []extractCase{
		{"What is the area of a rectangle that is 5 cm by 3 cm?", 15},
		{"What is the perimeter of a rectangle 6 m x 4 m?", 20},
		{"A garden has a length of 8 and a width of 5. What is its perimeter?", 26},
		{"What is the area of a square with side length 4?", 16},
		{"Find the area of a triangle with a base of 6 and a height of 4.", 12},
		// Falls back to multiplying the first two numbers.
		{"A box holds 3 rows of 4 cookies. How many cookies?", 12},
	})
	runNone(t, "Geometry", Geometry, []string{"Name a shape with three sides."})
}

func TestExponents(t *testing.T) {
	runNumeric(t, "Exponents", Exponents, []extractCase{
		{"What is 2³?", 8},
		{"What is 2³ × 2⁴?", 128},
		{"What is 5^6 ÷ 5^4?", 25},
		{"What is 2^3 × 3^2?", 72},
		{"What is 3^4?", 81},
		{"What is 10^-2?", 0.01},
		{"What is √49?", 7},
		{"What is √2?", 1.41},
		{"What is ∛27?", 3},
		{"What is the square root of 81?", 9},
		{"What is the cube root of 64?", 4},
		{"What is 2 to the power of 5?", 32},
		{"What is 7 squared?", 49},
	})
	runNone(t, "Exponents", Exponents, []string{"What is an exponent?"})
}

func TestStatistics(t *testing.T) {
	runNumeric(t, "Statistics", Statistics, []extractCase{
		{"What is the mean of 4, 8, and 12?", 8},
		{"Find the average of 10, 20, 30, 40.", 25},
	})
	runNone(t, "Statistics", Statistics, []string{
		"What is the median of 2, 8, 4?",
		"What is the probability of rolling a 3?",
	})
}

func TestCalculus(t *testing.T) {
	runNumeric(t, "Calculus", Calculus, []extractCase{
		{"What is the derivative of 5x?", 5},
		{"Find the derivative of x² at x = 3.", 6},
		{"Evaluate the integral of 2x from 0 to 3.", 9},
		// Unknown phrasing defaults to 1.
		{"What is the second derivative of sin(x)?", 1},
	})
}

func TestSequences(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"What comes next: 2, 4, 6, 8, ?", "10"},
		{"What comes next: 1, 1, 2, 3, 5, 8, ?", "13"},
		{"What comes next: 3, 6, 12, 24, ?", "48"},
		{"What comes next: 1, 4, 9, 16, 25, ?", "36"},
		{"What comes next: 10, 7, 4, 1, ?", "-2"},
		{"Complete the pattern: 10, 8", "6"},
		{"In round 3 the pattern is 5, 10, 20, 40. What comes next?", "80"},
		{"What letter comes next: A, C, E, G?", "I"},
		{"What letter comes next: W, X, Y, Z?", "Z"},
		{"Next letter: b, d, f", "h"},
	}
	for _, tt := range tests {
		got, ok := Sequences(tt.text)
		if !ok {
			t.Errorf("Sequences(%q): no answer, want %q", tt.text, tt.want)
			continue
		}
		if got.Kind != answer.KindText || got.Str != tt.want {
			t.Errorf("Sequences(%q) = %v, want %q", tt.text, got, tt.want)
		}
	}
	runNone(t, "Sequences", Sequences, []string{"Is this a pattern?", "What comes after 7?"})
}

func TestNextTerm_RuleOrder(t *testing.T) {
	tests := []struct {
		name string
		seq  []float64
		want float64
	}{
		{"fibonacci", []float64{2, 3, 5, 8}, 13},
		{"three-term arithmetic is not fibonacci", []float64{2, 4, 6}, 8},
		{"geometric", []float64{1, 3, 9}, 27},
		{"quadratic", []float64{2, 5, 10, 17}, 26},
		{"arithmetic pair", []float64{7, 4}, 1},
		{"zero term skips geometric", []float64{0, 2, 4}, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextTerm(tt.seq); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("NextTerm(%v) = %v, want %v", tt.seq, got, tt.want)
			}
		})
	}
}
