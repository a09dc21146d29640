package problemgen

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"

	"github.com/abhisek/mathquest/internal/answer"
	"github.com/abhisek/mathquest/internal/curriculum"
	"github.com/abhisek/mathquest/internal/difficulty"
)

// TemplateGenerator produces rule-based questions for every operation. It
// never calls out to a network service and always supplies an answer, which
// makes it the fallback behind the LLM generator and the generator used for
// challenge materialization when no provider is configured.
type TemplateGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewTemplateGenerator returns a TemplateGenerator drawing from rng. A nil
// rng uses a randomly seeded source.
func NewTemplateGenerator(rng *rand.Rand) *TemplateGenerator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &TemplateGenerator{rng: rng}
}

type templateFunc func(r *rand.Rand, span int) (text, hint, explanation string, ans answer.Value)

var templates = map[curriculum.Operation]templateFunc{
	curriculum.OpAddition:       additionTemplate,
	curriculum.OpSubtraction:    subtractionTemplate,
	curriculum.OpMultiplication: multiplicationTemplate,
	curriculum.OpDivision:       divisionTemplate,
	curriculum.OpDecimals:       decimalsTemplate,
	curriculum.OpFractions:      fractionsTemplate,
	curriculum.OpAlgebra:        algebraTemplate,
	curriculum.OpGeometry:       geometryTemplate,
	curriculum.OpExponents:      exponentsTemplate,
	curriculum.OpStatistics:     statisticsTemplate,
	curriculum.OpCalculus:       calculusTemplate,
	curriculum.OpLogicPatterns:  patternsTemplate,
}

// Generate implements Generator.
func (g *TemplateGenerator) Generate(ctx context.Context, input Input) (*Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tmpl, ok := templates[input.Operation]
	if !ok {
		return nil, fmt.Errorf("no template for operation %q", input.Operation)
	}

	span := operandSpan(input.Grade, input.Tier)

	seen := make(map[string]bool, len(input.PriorQuestions))
	for _, p := range input.PriorQuestions {
		seen[p] = true
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var text, hint, explanation string
	var ans answer.Value
	for attempt := 0; attempt < 5; attempt++ {
		text, hint, explanation, ans = tmpl(g.rng, span)
		if !seen[text] {
			break
		}
	}

	return &Question{
		ID:          uuid.NewString(),
		Text:        text,
		Operation:   input.Operation,
		Answer:      &ans,
		Hint:        hint,
		Explanation: explanation,
		Source:      SourceTemplate,
	}, nil
}

// operandSpan returns the upper bound for generated operands. Older grades
// and harder tiers get larger numbers.
func operandSpan(g curriculum.Grade, t difficulty.Tier) int {
	var base int
	switch g {
	case curriculum.GradeK1:
		base = 10
	case curriculum.Grade23:
		base = 50
	case curriculum.Grade68:
		base = 500
	case curriculum.Grade912:
		base = 1000
	default:
		base = 100
	}
	return base + base*int(t)/2
}

// between returns a value in [lo, hi].
func between(r *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.IntN(hi-lo+1)
}

// smallSpan keeps factors, bases and divisors readable at every grade.
func smallSpan(span int) int {
	return max(5, min(15, int(math.Sqrt(float64(span)))+2))
}

func additionTemplate(r *rand.Rand, span int) (string, string, string, answer.Value) {
	a, b := between(r, 1, span), between(r, 1, span)
	return fmt.Sprintf("What is %d + %d?", a, b),
		"Add the ones first, then the tens.",
		fmt.Sprintf("%d + %d = %d", a, b, a+b),
		answer.Number(float64(a + b))
}

func subtractionTemplate(r *rand.Rand, span int) (string, string, string, answer.Value) {
	a, b := between(r, 1, span), between(r, 1, span)
	if b > a {
		a, b = b, a
	}
	return fmt.Sprintf("What is %d - %d?", a, b),
		"Take the smaller number away from the bigger one.",
		fmt.Sprintf("%d - %d = %d", a, b, a-b),
		answer.Number(float64(a - b))
}

func multiplicationTemplate(r *rand.Rand, span int) (string, string, string, answer.Value) {
	s := smallSpan(span)
	a, b := between(r, 2, s), between(r, 2, s)
	return fmt.Sprintf("What is %d × %d?", a, b),
		fmt.Sprintf("Think of %d groups of %d.", a, b),
		fmt.Sprintf("%d × %d = %d", a, b, a*b),
		answer.Number(float64(a * b))
}

func divisionTemplate(r *rand.Rand, span int) (string, string, string, answer.Value) {
	s := smallSpan(span)
	divisor, quotient := between(r, 2, s), between(r, 1, s)
	dividend := divisor * quotient
	return fmt.Sprintf("What is %d ÷ %d?", dividend, divisor),
		fmt.Sprintf("How many %ds make %d?", divisor, dividend),
		fmt.Sprintf("%d ÷ %d = %d because %d × %d = %d", dividend, divisor, quotient, divisor, quotient, dividend),
		answer.Number(float64(quotient))
}

func decimalsTemplate(r *rand.Rand, span int) (string, string, string, answer.Value) {
	// Work in hundredths so the answer is exact.
	a, b := between(r, 1, span*10), between(r, 1, span*10)
	op, sum := "+", a+b
	if r.IntN(2) == 0 {
		if b > a {
			a, b = b, a
		}
		op, sum = "-", a-b
	}
	fa, fb, fs := answer.FormatNumber(float64(a)/100), answer.FormatNumber(float64(b)/100), answer.FormatNumber(float64(sum)/100)
	return fmt.Sprintf("What is %s %s %s?", fa, op, fb),
		"Line up the decimal points.",
		fmt.Sprintf("%s %s %s = %s", fa, op, fb, fs),
		answer.Number(float64(sum) / 100)
}

func fractionsTemplate(r *rand.Rand, span int) (string, string, string, answer.Value) {
	den := between(r, 2, 8)
	num := between(r, 1, den-1)
	k := between(r, 1, max(2, span/den))
	whole := den * k
	return fmt.Sprintf("What is %d/%d of %d?", num, den, whole),
		fmt.Sprintf("Divide by %d, then multiply by %d.", den, num),
		fmt.Sprintf("%d ÷ %d = %d, and %d × %d = %d", whole, den, k, k, num, k*num),
		answer.Number(float64(k * num))
}

func algebraTemplate(r *rand.Rand, span int) (string, string, string, answer.Value) {
	s := smallSpan(span)
	a, x, b := between(r, 2, 9), between(r, 1, s), between(r, 1, 20)
	if r.IntN(2) == 0 && a*x > b {
		c := a*x - b
		return fmt.Sprintf("Solve for x: %dx - %d = %d", a, b, c),
			fmt.Sprintf("Add %d to both sides first.", b),
			fmt.Sprintf("%dx = %d, so x = %d ÷ %d = %d", a, c+b, c+b, a, x),
			answer.Number(float64(x))
	}
	c := a*x + b
	return fmt.Sprintf("Solve for x: %dx + %d = %d", a, b, c),
		fmt.Sprintf("Subtract %d from both sides first.", b),
		fmt.Sprintf("%dx = %d, so x = %d ÷ %d = %d", a, c-b, c-b, a, x),
		answer.Number(float64(x))
}

func geometryTemplate(r *rand.Rand, span int) (string, string, string, answer.Value) {
	s := smallSpan(span) + 5
	l, w := between(r, 2, s), between(r, 1, s)
	if r.IntN(2) == 0 {
		return fmt.Sprintf("What is the perimeter of a rectangle with length %d cm and width %d cm?", l, w),
			"Add up all four sides.",
			fmt.Sprintf("2 × (%d + %d) = %d", l, w, 2*(l+w)),
			answer.Number(float64(2 * (l + w)))
	}
	return fmt.Sprintf("What is the area of a rectangle with length %d cm and width %d cm?", l, w),
		"Area is length times width.",
		fmt.Sprintf("%d × %d = %d", l, w, l*w),
		answer.Number(float64(l * w))
}

func exponentsTemplate(r *rand.Rand, span int) (string, string, string, answer.Value) {
	if r.IntN(3) == 0 {
		root := between(r, 2, smallSpan(span))
		return fmt.Sprintf("What is the square root of %d?", root*root),
			"Which number times itself gives this?",
			fmt.Sprintf("%d × %d = %d", root, root, root*root),
			answer.Number(float64(root))
	}
	base, exp := between(r, 2, 9), between(r, 2, 3)
	if base <= 3 {
		exp = between(r, 2, 6)
	}
	v := int(math.Pow(float64(base), float64(exp)))
	return fmt.Sprintf("What is %d^%d?", base, exp),
		fmt.Sprintf("Multiply %d by itself %d times.", base, exp),
		fmt.Sprintf("%d^%d = %d", base, exp, v),
		answer.Number(float64(v))
}

func statisticsTemplate(r *rand.Rand, span int) (string, string, string, answer.Value) {
	n := between(r, 3, 5)
	s := min(span, 50)
	vals := make([]int, n)
	sum, lo, hi := 0, math.MaxInt, math.MinInt
	for i := range vals {
		vals[i] = between(r, 1, s)
		sum += vals[i]
		lo, hi = min(lo, vals[i]), max(hi, vals[i])
	}
	list := joinInts(vals)
	if r.IntN(2) == 0 {
		return fmt.Sprintf("What is the range of %s?", list),
			"Subtract the smallest value from the largest.",
			fmt.Sprintf("%d - %d = %d", hi, lo, hi-lo),
			answer.Number(float64(hi - lo))
	}
	mean := answer.Round2(float64(sum) / float64(n))
	return fmt.Sprintf("What is the mean of %s?", list),
		"Add them up and divide by how many there are.",
		fmt.Sprintf("%d ÷ %d = %s", sum, n, answer.FormatNumber(mean)),
		answer.Number(mean)
}

func calculusTemplate(r *rand.Rand, _ int) (string, string, string, answer.Value) {
	a, n, x := between(r, 1, 5), between(r, 2, 4), between(r, 1, 3)
	d := a * n * int(math.Pow(float64(x), float64(n-1)))
	return fmt.Sprintf("What is the derivative of %dx^%d evaluated at x = %d?", a, n, x),
		"Use the power rule: bring the exponent down and reduce it by one.",
		fmt.Sprintf("d/dx %dx^%d = %dx^%d, and at x = %d that is %d", a, n, a*n, n-1, x, d),
		answer.Number(float64(d))
}

func patternsTemplate(r *rand.Rand, span int) (string, string, string, answer.Value) {
	switch r.IntN(3) {
	case 0:
		start, gap := between(r, 0, 10), between(r, 1, 3)
		letters := make([]int, 4)
		for i := range letters {
			letters[i] = 'A' + start + i*gap
		}
		next := string(rune('A' + start + 4*gap))
		return fmt.Sprintf("What comes next: %c, %c, %c, %c, ?", letters[0], letters[1], letters[2], letters[3]),
			"Count how many letters are skipped each time.",
			fmt.Sprintf("Each letter moves forward by %d, so the next is %s.", gap, next),
			answer.Text(next)
	case 1:
		start, ratio := between(r, 1, 5), between(r, 2, 3)
		terms := []int{start, start * ratio, start * ratio * ratio, start * ratio * ratio * ratio}
		next := terms[3] * ratio
		return fmt.Sprintf("What comes next: %s, ?", joinInts(terms)),
			"Compare each number to the one before it.",
			fmt.Sprintf("Each number is multiplied by %d, so the next is %d.", ratio, next),
			answer.Text(fmt.Sprint(next))
	default:
		start, step := between(r, 1, min(span, 50)), between(r, 2, 9)
		terms := []int{start, start + step, start + 2*step, start + 3*step}
		next := start + 4*step
		return fmt.Sprintf("What comes next: %s, ?", joinInts(terms)),
			"Find the difference between neighbours.",
			fmt.Sprintf("Each number goes up by %d, so the next is %d.", step, next),
			answer.Text(fmt.Sprint(next))
	}
}

func joinInts(vals []int) string {
	var out string
	for i, v := range vals {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprint(v)
	}
	return out
}
