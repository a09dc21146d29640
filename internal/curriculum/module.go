package curriculum

import "fmt"

// Module is a named curricular unit a learner can select.
type Module struct {
	ID         string
	Name       string
	Operations []Operation
	MinGrade   Grade
	MaxGrade   Grade
}

// AvailableFor reports whether the module is offered to the given grade.
func (m Module) AvailableFor(g Grade) bool {
	r := g.Rank()
	return r >= m.MinGrade.Rank() && r <= m.MaxGrade.Rank()
}

var modules = []Module{
	{
		ID:         "arithmetic",
		Name:       "Arithmetic",
		Operations: []Operation{OpAddition, OpSubtraction, OpMultiplication, OpDivision},
		MinGrade:   GradeK1,
		MaxGrade:   Grade912,
	},
	{ID: "decimals", Name: "Decimals", Operations: []Operation{OpDecimals}, MinGrade: Grade45, MaxGrade: Grade912},
	{ID: "fractions", Name: "Fractions", Operations: []Operation{OpFractions}, MinGrade: Grade23, MaxGrade: Grade912},
	{ID: "algebra", Name: "Algebra", Operations: []Operation{OpAlgebra}, MinGrade: Grade68, MaxGrade: Grade912},
	{ID: "geometry", Name: "Geometry", Operations: []Operation{OpGeometry}, MinGrade: Grade23, MaxGrade: Grade912},
	{ID: "exponents", Name: "Exponents & Roots", Operations: []Operation{OpExponents}, MinGrade: Grade68, MaxGrade: Grade912},
	{ID: "statistics", Name: "Statistics", Operations: []Operation{OpStatistics}, MinGrade: Grade45, MaxGrade: Grade912},
	{ID: "calculus", Name: "Calculus", Operations: []Operation{OpCalculus}, MinGrade: Grade912, MaxGrade: Grade912},
	{ID: "logic", Name: "Logic & Patterns", Operations: []Operation{OpLogicPatterns}, MinGrade: GradeK1, MaxGrade: Grade912},
}

// AllModules returns the module catalogue in display order.
func AllModules() []Module {
	out := make([]Module, len(modules))
	copy(out, modules)
	return out
}

// ModuleByID looks up a module.
func ModuleByID(id string) (Module, error) {
	for _, m := range modules {
		if m.ID == id {
			return m, nil
		}
	}
	return Module{}, fmt.Errorf("unknown module %q", id)
}

// ModulesFor returns the modules offered to a grade.
func ModulesFor(g Grade) []Module {
	var out []Module
	for _, m := range modules {
		if m.AvailableFor(g) {
			out = append(out, m)
		}
	}
	return out
}

// OperationsFor resolves a module selection into the distinct operations it
// covers, preserving catalogue order. An empty selection means every module
// offered to the grade.
func OperationsFor(moduleIDs []string, g Grade) ([]Operation, error) {
	selected := ModulesFor(g)
	if len(moduleIDs) > 0 {
		selected = selected[:0:0]
		for _, id := range moduleIDs {
			m, err := ModuleByID(id)
			if err != nil {
				return nil, err
			}
			selected = append(selected, m)
		}
	}

	seen := make(map[Operation]bool)
	var ops []Operation
	for _, m := range selected {
		for _, op := range m.Operations {
			if !seen[op] {
				seen[op] = true
				ops = append(ops, op)
			}
		}
	}
	if len(ops) == 0 {
		return nil, fmt.Errorf("no operations available for grade %s", g)
	}
	return ops, nil
}
