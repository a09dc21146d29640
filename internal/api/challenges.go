package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/abhisek/mathquest/internal/answer"
	"github.com/abhisek/mathquest/internal/challenge"
	"github.com/abhisek/mathquest/internal/curriculum"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// challengeView hides the question answers and what each player typed
// until the challenge completes. Correctness and timing stay visible so
// the live scoreboard can be followed.
type challengeView struct {
	challenge.Challenge
	Questions       []questionView       `json:"questions"`
	CreatorAnswers  []answerView         `json:"creatorAnswers"`
	OpponentAnswers []answerView         `json:"opponentAnswers"`
	Scoreboard      challenge.Scoreboard `json:"scoreboard"`
}

type answerView struct {
	Index      int           `json:"index"`
	Raw        string        `json:"raw,omitempty"`
	Value      *answer.Value `json:"value,omitempty"`
	Correct    bool          `json:"correct"`
	TimeMs     int64         `json:"timeMs"`
	AnsweredAt time.Time     `json:"answeredAt"`
}

func newAnswerViews(as []challenge.Answer, reveal bool) []answerView {
	out := make([]answerView, len(as))
	for i, a := range as {
		out[i] = answerView{Index: a.Index, Correct: a.Correct, TimeMs: a.TimeMs, AnsweredAt: a.AnsweredAt}
		if reveal {
			v := a.Value
			out[i].Raw = a.Raw
			out[i].Value = &v
		}
	}
	return out
}

func newChallengeView(c challenge.Challenge) challengeView {
	reveal := c.Status == challenge.StatusCompleted
	qs := make([]questionView, len(c.Questions))
	for i, q := range c.Questions {
		qs[i] = newQuestionView(q, reveal)
	}
	return challengeView{
		Challenge:       c,
		Questions:       qs,
		CreatorAnswers:  newAnswerViews(c.CreatorAnswers, reveal),
		OpponentAnswers: newAnswerViews(c.OpponentAnswers, reveal),
		Scoreboard:      challenge.Score(c),
	}
}

type createChallengeRequest struct {
	CreatorID  string   `json:"creatorId"`
	Grade      string   `json:"grade"`
	Modules    []string `json:"modules"`
	Operations []string `json:"operations"`
	Count      int      `json:"count"`
}

// CreateChallenge generates the shared question set and opens a challenge.
func (h *Handler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	var req createChallengeRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.CreatorID == "" {
		h.fail(w, r, fmt.Errorf("%w: creatorId is required", errBadRequest))
		return
	}
	grade := h.defaultGrade
	if req.Grade != "" {
		g, err := curriculum.ParseGrade(req.Grade)
		if err != nil {
			h.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
		grade = g
	}
	ops, err := challengeOperations(req, grade)
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	count := req.Count
	if count <= 0 {
		count = h.challengeQuestions
	}
	if count > challenge.MaxQuestionCount {
		h.fail(w, r, fmt.Errorf("%w: count must be at most %d", errBadRequest, challenge.MaxQuestionCount))
		return
	}

	c, err := h.challenges.Create(r.Context(), req.CreatorID, grade, ops, count)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, newChallengeView(c))
}

func challengeOperations(req createChallengeRequest, grade curriculum.Grade) ([]curriculum.Operation, error) {
	if len(req.Operations) == 0 {
		return curriculum.OperationsFor(req.Modules, grade)
	}
	ops := make([]curriculum.Operation, 0, len(req.Operations))
	for _, s := range req.Operations {
		op, err := curriculum.ParseOperation(s)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// GetChallenge returns a challenge with its scoreboard.
func (h *Handler) GetChallenge(w http.ResponseWriter, r *http.Request) {
	c, err := h.challenges.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, newChallengeView(c))
}

type joinRequest struct {
	UserID string `json:"userId"`
}

// JoinChallenge claims a waiting challenge as its opponent.
func (h *Handler) JoinChallenge(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.UserID == "" {
		h.fail(w, r, fmt.Errorf("%w: userId is required", errBadRequest))
		return
	}
	c, err := h.challenges.Join(r.Context(), chi.URLParam(r, "code"), req.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, newChallengeView(c))
}

type feedMessage struct {
	Type    string        `json:"type"`
	Payload challengeView `json:"payload"`
}

// ChallengeFeed upgrades to a WebSocket and pushes the challenge on every
// change, starting with the current snapshot. The server closes the socket
// once the challenge completes.
func (h *Handler) ChallengeFeed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	updates, stop, err := h.challenges.Subscribe(ctx, chi.URLParam(r, "code"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer stop()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Clients only listen. A read error means they went away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case c, ok := <-updates:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(feedMessage{Type: "challenge", Payload: newChallengeView(c)}); err != nil {
				h.logger.Debug("websocket write failed", "code", c.Code, "error", err)
				return
			}
			if c.Status == challenge.StatusCompleted {
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "challenge completed")
				_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
				return
			}
		}
	}
}
