package challenge

import "errors"

var (
	// ErrNotFound is returned when no challenge has the given code.
	ErrNotFound = errors.New("challenge not found")
	// ErrCodeTaken is returned by Store.Create when the code already exists.
	ErrCodeTaken = errors.New("challenge code already in use")
	// ErrJoinRejected is returned when a challenge is no longer waiting for an
	// opponent, or the creator tries to join their own challenge.
	ErrJoinRejected = errors.New("challenge cannot be joined")
	// ErrOutOfOrder is returned when an answer index does not extend the
	// player's answer sequence by exactly one.
	ErrOutOfOrder = errors.New("answer out of order")
	// ErrNotActive is returned when answering a challenge that is not active.
	ErrNotActive = errors.New("challenge is not active")
	// ErrInvalidCode is returned for malformed codes.
	ErrInvalidCode = errors.New("invalid challenge code")
)
