package curriculum

import "fmt"

// Operation is the category label that drives both question generation and
// answer extraction.
type Operation string

const (
	OpAddition       Operation = "addition"
	OpSubtraction    Operation = "subtraction"
	OpMultiplication Operation = "multiplication"
	OpDivision       Operation = "division"
	OpDecimals       Operation = "decimals"
	OpFractions      Operation = "fractions"
	OpAlgebra        Operation = "algebra"
	OpGeometry       Operation = "geometry"
	OpExponents      Operation = "exponents"
	OpStatistics     Operation = "statistics"
	OpCalculus       Operation = "calculus"
	OpLogicPatterns  Operation = "logic_patterns"
)

// AllOperations returns every operation in display order.
func AllOperations() []Operation {
	return []Operation{
		OpAddition,
		OpSubtraction,
		OpMultiplication,
		OpDivision,
		OpDecimals,
		OpFractions,
		OpAlgebra,
		OpGeometry,
		OpExponents,
		OpStatistics,
		OpCalculus,
		OpLogicPatterns,
	}
}

// ParseOperation converts a tag into an Operation. Hyphens and spaces are
// accepted in place of underscores ("logic-patterns", "logic patterns").
func ParseOperation(s string) (Operation, error) {
	norm := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '-' || c == ' ':
			c = '_'
		case c >= 'A' && c <= 'Z':
			c += 'a' - 'A'
		}
		norm = append(norm, c)
	}
	op := Operation(norm)
	for _, known := range AllOperations() {
		if op == known {
			return op, nil
		}
	}
	return "", fmt.Errorf("unknown operation %q", s)
}

// DisplayName returns a human-readable name for the operation.
func (o Operation) DisplayName() string {
	switch o {
	case OpAddition:
		return "Addition"
	case OpSubtraction:
		return "Subtraction"
	case OpMultiplication:
		return "Multiplication"
	case OpDivision:
		return "Division"
	case OpDecimals:
		return "Decimals"
	case OpFractions:
		return "Fractions"
	case OpAlgebra:
		return "Algebra"
	case OpGeometry:
		return "Geometry"
	case OpExponents:
		return "Exponents & Roots"
	case OpStatistics:
		return "Statistics"
	case OpCalculus:
		return "Calculus"
	case OpLogicPatterns:
		return "Logic & Patterns"
	default:
		return string(o)
	}
}

// Family groups operations that share an answer extraction strategy.
type Family string

const (
	FamilyArithmetic Family = "arithmetic"
	FamilyFractions  Family = "fractions"
	FamilyAlgebra    Family = "algebra"
	FamilyGeometry   Family = "geometry"
	FamilyExponents  Family = "exponents"
	FamilyStatistics Family = "statistics"
	FamilyCalculus   Family = "calculus"
	FamilySequences  Family = "sequences"
)

// Family returns the extraction family for the operation. Unknown operations
// are treated as arithmetic.
func (o Operation) Family() Family {
	switch o {
	case OpFractions:
		return FamilyFractions
	case OpAlgebra:
		return FamilyAlgebra
	case OpGeometry:
		return FamilyGeometry
	case OpExponents:
		return FamilyExponents
	case OpStatistics:
		return FamilyStatistics
	case OpCalculus:
		return FamilyCalculus
	case OpLogicPatterns:
		return FamilySequences
	default:
		return FamilyArithmetic
	}
}

// IsTextual reports whether answers for the operation are compared as
// strings rather than numbers.
func (o Operation) IsTextual() bool {
	return o == OpLogicPatterns
}
