package curriculum

import "testing"

func TestParseOperation(t *testing.T) {
	tests := []struct {
		in   string
		want Operation
	}{
		{"addition", OpAddition},
		{"Fractions", OpFractions},
		{"logic-patterns", OpLogicPatterns},
		{"logic patterns", OpLogicPatterns},
	}
	for _, tt := range tests {
		got, err := ParseOperation(tt.in)
		if err != nil {
			t.Fatalf("ParseOperation(%q): unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseOperation(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := ParseOperation("trigonometry"); err == nil {
		t.Error("expected error for unknown operation")
	}
}

func TestOperationFamily(t *testing.T) {
	tests := []struct {
		op   Operation
		want Family
	}{
		{OpAddition, FamilyArithmetic},
		{OpDecimals, FamilyArithmetic},
		{OpFractions, FamilyFractions},
		{OpLogicPatterns, FamilySequences},
		{Operation("unknown"), FamilyArithmetic},
	}
	for _, tt := range tests {
		if got := tt.op.Family(); got != tt.want {
			t.Errorf("%q.Family() = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestIsTextual(t *testing.T) {
	for _, op := range AllOperations() {
		want := op == OpLogicPatterns
		if got := op.IsTextual(); got != want {
			t.Errorf("%q.IsTextual() = %v, want %v", op, got, want)
		}
	}
}

func TestParseGrade(t *testing.T) {
	tests := []struct {
		in   string
		want Grade
	}{
		{"4-5", Grade45},
		{"k-1", GradeK1},
		{"K", GradeK1},
		{"3", Grade23},
		{"7", Grade68},
		{"12", Grade912},
	}
	for _, tt := range tests {
		got, err := ParseGrade(tt.in)
		if err != nil {
			t.Fatalf("ParseGrade(%q): unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseGrade(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if _, err := ParseGrade("college"); err == nil {
		t.Error("expected error for unknown grade")
	}
}

func TestOperationsFor_Selection(t *testing.T) {
	ops, err := OperationsFor([]string{"fractions", "arithmetic"}, Grade45)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Operation{OpFractions, OpAddition, OpSubtraction, OpMultiplication, OpDivision}
	if len(ops) != len(want) {
		t.Fatalf("got %d operations, want %d", len(ops), len(want))
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("ops[%d] = %q, want %q", i, ops[i], want[i])
		}
	}
}

func TestOperationsFor_EmptySelectionUsesGrade(t *testing.T) {
	ops, err := OperationsFor(nil, GradeK1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, op := range ops {
		if op == OpCalculus || op == OpAlgebra {
			t.Errorf("grade K-1 should not include %q", op)
		}
	}
	if len(ops) != 5 {
		t.Errorf("got %d operations for K-1, want 5 (arithmetic + logic)", len(ops))
	}
}

func TestOperationsFor_UnknownModule(t *testing.T) {
	if _, err := OperationsFor([]string{"poetry"}, Grade45); err == nil {
		t.Error("expected error for unknown module")
	}
}
