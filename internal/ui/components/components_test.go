package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
)

func TestAnswerInput_NumericFilter(t *testing.T) {
	tests := []struct {
		key  rune
		drop bool
	}{
		{'a', true},
		{'x', true},
		{'7', false},
		{'/', false},
		{'.', false},
		{'-', false},
		{':', false},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			in := NewAnswerInput("answer", false, 10)
			in, _ = in.Update(tea.KeyPressMsg{Code: tt.key, Text: string(tt.key)})
			if got := in.Value() == ""; got != tt.drop {
				t.Errorf("key %q: dropped = %v, want %v (value %q)", tt.key, got, tt.drop, in.Value())
			}
		})
	}
}

func TestProgressBar_View(t *testing.T) {
	if got := (ProgressBar{Done: 1, Total: 0, Width: 20}).View(); got != "" {
		t.Errorf("zero total view = %q, want empty", got)
	}
	got := ProgressBar{Done: 3, Total: 10, Width: 30}.View()
	if !strings.Contains(got, "3/10") {
		t.Errorf("view = %q, want 3/10 label", got)
	}
}
