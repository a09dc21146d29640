// Package session is the terminal practice screen. It drives a
// session.Controller through Bubble Tea, one command per transition.
package session

import (
	"context"
	"errors"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mathquest/internal/answer"
	sess "github.com/abhisek/mathquest/internal/session"
	"github.com/abhisek/mathquest/internal/ui/components"
)

const (
	defaultWidth   = 80
	answerMaxLen   = 24
	invalidNotice  = "Please type a number."
	answerHolder   = "Type your answer..."
	textHolder     = "Type your answer (words are fine)..."
	unscorableNote = "Skipping a question I can't grade."
)

// Model is the Bubble Tea model for one practice session.
type Model struct {
	ctx  context.Context
	ctrl *sess.Controller
	opts sess.Options

	state   sess.State
	started bool

	input       components.AnswerInput
	showHint    bool
	confirmQuit bool
	notice      string
	err         error

	// busy is set while a transition command is in flight.
	busy bool

	// quitting ends the program once the session reaches Complete.
	quitting bool

	width  int
	height int
}

// New returns a model that starts a session with opts when run.
func New(ctx context.Context, ctrl *sess.Controller, opts sess.Options) Model {
	return Model{
		ctx:   ctx,
		ctrl:  ctrl,
		opts:  opts,
		input: components.NewAnswerInput(answerHolder, false, answerMaxLen),
		busy:  true,
	}
}

// State returns the latest session state. It is the zero State if the
// session never started.
func (m Model) State() sess.State {
	return m.state
}

// Err returns the last transition error, if any.
func (m Model) Err() error {
	return m.err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.start(), m.input.Init())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case startFailedMsg:
		m.busy = false
		m.err = msg.Err
		return m, nil

	case stateMsg:
		return m.handleState(msg)

	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}

	if m.awaitingAnswer() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) awaitingAnswer() bool {
	return m.started && !m.busy && m.err == nil && !m.confirmQuit && m.state.Phase == sess.PhaseAwaitingAnswer
}

func (m Model) handleState(msg stateMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	m.started = true
	m.state = msg.State

	if msg.Err != nil {
		if errors.Is(msg.Err, sess.ErrInvalidInput) {
			m.notice = invalidNotice
			return m, nil
		}
		m.err = msg.Err
		return m, nil
	}
	m.err = nil
	m.notice = ""

	switch m.state.Phase {
	case sess.PhaseLoading:
		return m.dispatch(m.load())
	case sess.PhaseAwaitingAnswer:
		m.showHint = false
		m.input = components.NewAnswerInput(placeholderFor(m.state), allowsText(m.state), answerMaxLen)
		return m, m.input.Init()
	case sess.PhaseComplete:
		if m.quitting {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		m.quitting = true
		if !m.started || m.state.Phase == sess.PhaseComplete {
			return m, tea.Quit
		}
		return m.dispatch(m.end())
	}

	// Error state: r retries a failed load, anything else ends the session.
	if m.err != nil {
		if !m.started {
			return m, tea.Quit
		}
		if key == "r" && m.state.Phase == sess.PhaseLoading {
			m.err = nil
			return m.dispatch(m.load())
		}
		m.err = nil
		m.quitting = true
		if m.state.Phase == sess.PhaseComplete {
			return m, tea.Quit
		}
		return m.dispatch(m.end())
	}

	if !m.started || m.busy {
		return m, nil
	}

	if m.confirmQuit {
		switch key {
		case "y", "Y":
			m.confirmQuit = false
			m.quitting = true
			return m.dispatch(m.end())
		case "n", "N", "esc":
			m.confirmQuit = false
		}
		return m, nil
	}

	switch m.state.Phase {
	case sess.PhaseComplete:
		return m, tea.Quit

	case sess.PhaseFeedback:
		if key == "esc" {
			m.confirmQuit = true
			return m, nil
		}
		return m.dispatch(m.next())

	case sess.PhaseAwaitingAnswer:
		switch key {
		case "enter":
			return m.dispatch(m.submit(m.input.Value()))
		case "tab":
			m.showHint = !m.showHint
			return m, nil
		case "esc":
			m.confirmQuit = true
			return m, nil
		}
		m.notice = ""
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// dispatch marks a transition in flight so keys pressed meanwhile are
// ignored.
func (m Model) dispatch(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.busy = true
	return m, cmd
}

func (m Model) start() tea.Cmd {
	ctx, ctrl, opts := m.ctx, m.ctrl, m.opts
	return func() tea.Msg {
		st, err := ctrl.Start(ctx, opts)
		if err != nil {
			return startFailedMsg{Err: err}
		}
		return stateMsg{State: st}
	}
}

func (m Model) load() tea.Cmd { return m.transition(m.ctrl.Load) }
func (m Model) next() tea.Cmd { return m.transition(m.ctrl.Next) }
func (m Model) end() tea.Cmd { return m.transition(m.ctrl.End) }

func (m Model) submit(raw string) tea.Cmd {
	ctrl := m.ctrl
	return m.transition(func(ctx context.Context, st sess.State) (sess.State, error) {
		return ctrl.Submit(ctx, st, raw)
	})
}

// transition runs f against a snapshot of the current state off the UI
// goroutine.
func (m Model) transition(f func(context.Context, sess.State) (sess.State, error)) tea.Cmd {
	ctx, st := m.ctx, m.state
	return func() tea.Msg {
		next, err := f(ctx, st)
		return stateMsg{State: next, Err: err}
	}
}

func allowsText(st sess.State) bool {
	q := st.Question
	return q != nil && q.Answer != nil && q.Answer.Kind == answer.KindText
}

func placeholderFor(st sess.State) string {
	if allowsText(st) {
		return textHolder
	}
	return answerHolder
}
