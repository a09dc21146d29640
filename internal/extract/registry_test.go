package extract

import (
	"testing"

	"github.com/abhisek/mathquest/internal/answer"
	"github.com/abhisek/mathquest/internal/curriculum"
)

func TestRegistry_DispatchesByFamily(t *testing.T) {
	r := NewRegistry()
	var seen string
	r.Register(curriculum.FamilyArithmetic, func(text string) (answer.Value, bool) {
		seen = text
		return answer.Number(1), true
	})

	if _, ok := r.Extract("anything", curriculum.OpDecimals); !ok {
		t.Fatal("decimals should dispatch to the arithmetic handler")
	}
	if seen != "anything" {
		t.Errorf("handler saw %q", seen)
	}
	if _, ok := r.Extract("anything", curriculum.OpGeometry); ok {
		t.Error("unregistered family should yield no answer")
	}
}

func TestRegistry_TextualOperationsYieldText(t *testing.T) {
	r := NewRegistry()
	r.Register(curriculum.FamilySequences, func(string) (answer.Value, bool) {
		return answer.Number(12), true
	})
	got, ok := r.Extract("", curriculum.OpLogicPatterns)
	if !ok {
		t.Fatal("expected an answer")
	}
	if got.Kind != answer.KindText || got.Str != "12" {
		t.Errorf("got %+v, want text \"12\"", got)
	}
}

func TestDefault_FixturesBeforeGeneric(t *testing.T) {
	tests := []struct {
		text    string
		op      curriculum.Operation
		generic Handler
		want    float64
	}{
		{"If 2(x + 3) = 14, what is x?", curriculum.OpAlgebra, Algebra, 4},
		{"How many sides does a hexagon have?", curriculum.OpGeometry, Geometry, 6},
		{"What is the median of 3, 7, 9?", curriculum.OpStatistics, Statistics, 7},
	}
	for _, tt := range tests {
		got, ok := Extract(tt.text, tt.op)
		if !ok || got.Num != tt.want {
			t.Errorf("Extract(%q) = %v, %v; want %v", tt.text, got, ok, tt.want)
		}
		// The generic path alone must not produce the fixture answer.
		if g, ok := tt.generic(tt.text); ok && g.Num == tt.want {
			t.Errorf("generic handler unexpectedly answered %q with %v", tt.text, g)
		}
	}
}

func TestFixtureKeysAreNormalized(t *testing.T) {
	tables := []map[string]float64{algebraFixtures, geometryFixtures, statisticsFixtures}
	for _, table := range tables {
		for key := range table {
			if fixtureKey(key) != key {
				t.Errorf("fixture key %q is not in normalized form %q", key, fixtureKey(key))
			}
		}
	}
	for _, f := range calculusFixtures {
		if fixtureKey(f.phrase) != f.phrase {
			t.Errorf("calculus phrase %q is not in normalized form", f.phrase)
		}
	}
}

func TestExtract_Unscorable(t *testing.T) {
	if _, ok := Extract("Which shape has the most sides?", curriculum.OpGeometry); ok {
		t.Error("expected no answer")
	}
	if _, ok := Extract("What is the median of 2, 8, 4?", curriculum.OpStatistics); ok {
		t.Error("statistics outside the table and without a mean should have no answer")
	}
}
