package curriculum

import (
	"fmt"
	"strings"
)

// Grade is a grade band such as "4-5".
type Grade string

const (
	GradeK1  Grade = "K-1"
	Grade23  Grade = "2-3"
	Grade45  Grade = "4-5"
	Grade68  Grade = "6-8"
	Grade912 Grade = "9-12"
)

// DefaultGrade is used when a grade is missing or unrecognised.
const DefaultGrade = Grade45

// AllGrades returns the grade bands from youngest to oldest.
func AllGrades() []Grade {
	return []Grade{GradeK1, Grade23, Grade45, Grade68, Grade912}
}

// ParseGrade accepts a band ("4-5") or a single grade ("4", "K", "kindergarten")
// and returns the band containing it.
func ParseGrade(s string) (Grade, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, g := range AllGrades() {
		if s == string(g) {
			return g, nil
		}
	}
	switch s {
	case "K", "KINDERGARTEN", "0", "1":
		return GradeK1, nil
	case "2", "3":
		return Grade23, nil
	case "4", "5":
		return Grade45, nil
	case "6", "7", "8":
		return Grade68, nil
	case "9", "10", "11", "12":
		return Grade912, nil
	}
	return "", fmt.Errorf("unknown grade %q", s)
}

// Rank orders grade bands; younger bands rank lower. Unknown grades rank as
// DefaultGrade.
func (g Grade) Rank() int {
	for i, known := range AllGrades() {
		if g == known {
			return i
		}
	}
	return DefaultGrade.Rank()
}

// Valid reports whether g is a known band.
func (g Grade) Valid() bool {
	for _, known := range AllGrades() {
		if g == known {
			return true
		}
	}
	return false
}
