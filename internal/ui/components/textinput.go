package components

import (
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
)

// AnswerInput wraps bubbles/textinput for typed answers. Letters are
// dropped unless the current question takes a text answer.
type AnswerInput struct {
	Model     textinput.Model
	AllowText bool
}

// NewAnswerInput returns a focused input limited to maxLen characters.
func NewAnswerInput(placeholder string, allowText bool, maxLen int) AnswerInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()
	if maxLen > 0 {
		ti.CharLimit = maxLen
	}
	return AnswerInput{Model: ti, AllowText: allowText}
}

// Init starts the cursor blinking.
func (a AnswerInput) Init() tea.Cmd {
	return a.Model.Focus()
}

// Update forwards msg to the wrapped input.
func (a AnswerInput) Update(msg tea.Msg) (AnswerInput, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyPressMsg); ok && !a.AllowText {
		if key := kmsg.String(); len(key) == 1 && !numericRune(key[0]) {
			return a, nil
		}
	}
	var cmd tea.Cmd
	a.Model, cmd = a.Model.Update(msg)
	return a, cmd
}

// numericRune reports whether c can appear in a number, fraction, ratio or
// time answer.
func numericRune(c byte) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c == '.', c == '-', c == '/', c == ':', c == ' ', c == ',', c == '$', c == '%':
		return true
	}
	return false
}

// View renders the input line.
func (a AnswerInput) View() string {
	return a.Model.View()
}

// Value returns what has been typed.
func (a AnswerInput) Value() string {
	return a.Model.Value()
}
