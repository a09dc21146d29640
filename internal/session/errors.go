package session

import (
	"errors"
	"fmt"

	"github.com/abhisek/mathquest/internal/answer"
)

var (
	// ErrInvalidInput means the submission could not be parsed. Nothing was
	// scored and the learner may resubmit.
	ErrInvalidInput = answer.ErrInvalidInput

	// ErrAlreadyAnswered guards against resubmission during Feedback.
	ErrAlreadyAnswered = errors.New("question already answered")

	// ErrNoQuestion means there is no question awaiting an answer.
	ErrNoQuestion = errors.New("no question awaiting an answer")

	// ErrUnscorable means no answer could be derived for the current question.
	ErrUnscorable = errors.New("cannot grade this question")

	// ErrSessionComplete is returned by transitions on a finished session.
	ErrSessionComplete = errors.New("session is complete")

	// ErrNotLoading is returned by Load outside the Loading phase.
	ErrNotLoading = errors.New("session is not loading a question")

	// ErrAwaitingAnswer is returned by Next before the current question is
	// answered.
	ErrAwaitingAnswer = errors.New("answer the current question first")
)

// UnknownModeError is returned by ParseMode.
type UnknownModeError struct {
	Mode string
}

func (e *UnknownModeError) Error() string {
	return fmt.Sprintf("unknown session mode %q (use play, test, challenge_creator or challenge_opponent)", e.Mode)
}
