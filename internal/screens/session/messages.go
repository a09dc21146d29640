package session

import (
	sess "github.com/abhisek/mathquest/internal/session"
)

// stateMsg carries the result of one controller transition. On error State
// is whatever the controller returned, which for every transition is the
// state it was given.
type stateMsg struct {
	State sess.State
	Err   error
}

// startFailedMsg is sent when the session could not be created at all.
type startFailedMsg struct {
	Err error
}
