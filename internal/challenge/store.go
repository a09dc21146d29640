package challenge

import (
	"context"
	"time"
)

// Store persists challenges. Every mutating method is atomic for one code:
// two players appending concurrently must both be reflected, and a completed
// challenge never reverts.
type Store interface {
	// CreateChallenge inserts c. Returns ErrCodeTaken when the code exists.
	CreateChallenge(ctx context.Context, c Challenge) error

	// GetChallenge returns the freshest record for code.
	GetChallenge(ctx context.Context, code string) (Challenge, error)

	// JoinChallenge moves a waiting challenge to active with opponentID.
	// Returns ErrJoinRejected without changes for any other status.
	JoinChallenge(ctx context.Context, code, opponentID string, at time.Time) (Challenge, error)

	// AppendAnswer appends a to role's answers. a.Index must equal the
	// current length of that sequence.
	AppendAnswer(ctx context.Context, code string, role Role, a Answer) (Challenge, error)

	// CompleteChallenge marks an active challenge completed if both answer
	// sequences are full. The bool reports whether this call made the change.
	CompleteChallenge(ctx context.Context, code string, at time.Time) (Challenge, bool, error)

	// SubscribeChallenge streams the record after every change, starting with
	// the current one. The cancel func releases the subscription.
	SubscribeChallenge(ctx context.Context, code string) (<-chan Challenge, func(), error)
}

// CheckAppend validates an append against the current record. Every Store
// applies it inside its own atomic section.
func CheckAppend(c Challenge, role Role, a Answer) error {
	if !role.Valid() {
		return ErrOutOfOrder
	}
	if c.Status != StatusActive {
		return ErrNotActive
	}
	answers := c.AnswersFor(role)
	if a.Index != len(answers) || a.Index >= len(c.Questions) {
		return ErrOutOfOrder
	}
	return nil
}

// CheckJoin validates a join against the current record.
func CheckJoin(c Challenge, opponentID string) error {
	if c.Status != StatusWaiting || c.OpponentID != "" || opponentID == "" || opponentID == c.CreatorID {
		return ErrJoinRejected
	}
	return nil
}
