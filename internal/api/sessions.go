package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/mathquest/internal/answer"
	"github.com/abhisek/mathquest/internal/challenge"
	"github.com/abhisek/mathquest/internal/curriculum"
	"github.com/abhisek/mathquest/internal/problemgen"
	"github.com/abhisek/mathquest/internal/session"
)

// questionView hides the answer until it has been scored.
type questionView struct {
	ID          string               `json:"id"`
	Text        string               `json:"text"`
	Operation   curriculum.Operation `json:"operation"`
	Hint        string               `json:"hint,omitempty"`
	Answer      *answer.Value        `json:"answer,omitempty"`
	Explanation string               `json:"explanation,omitempty"`
}

func newQuestionView(q problemgen.Question, reveal bool) questionView {
	v := questionView{ID: q.ID, Text: q.Text, Operation: q.Operation, Hint: q.Hint}
	if reveal {
		v.Answer = q.Answer
		v.Explanation = q.Explanation
	}
	return v
}

type sessionView struct {
	session.State
	Question  *questionView `json:"question,omitempty"`
	Accuracy  float64       `json:"accuracy"`
	Remaining int           `json:"remaining"`
}

func newSessionView(st session.State) sessionView {
	v := sessionView{State: st, Accuracy: st.Accuracy(), Remaining: st.Remaining()}
	if st.Question != nil {
		q := newQuestionView(*st.Question, st.Phase != session.PhaseAwaitingAnswer)
		v.Question = &q
	}
	return v
}

type createSessionRequest struct {
	UserID        string   `json:"userId"`
	Mode          string   `json:"mode"`
	Grade         string   `json:"grade"`
	Modules       []string `json:"modules"`
	ChallengeCode string   `json:"challengeCode"`
}

// CreateSession starts a session and loads its first question. When the
// first question cannot be fetched the session is still kept; POST .../next
// retries the load.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	opts, err := h.sessionOptions(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	st, err := h.sessions.Start(r.Context(), opts)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	loaded, err := h.sessions.Load(r.Context(), st)
	h.registry.put(loaded)
	if err != nil {
		h.logger.Warn("first question failed to load", "session", st.ID, "error", err)
		JSON(w, http.StatusServiceUnavailable, map[string]any{
			"error":   err.Error(),
			"session": newSessionView(loaded),
		})
		return
	}
	JSON(w, http.StatusCreated, newSessionView(loaded))
}

func (h *Handler) sessionOptions(ctx context.Context, req createSessionRequest) (session.Options, error) {
	if req.UserID == "" {
		return session.Options{}, fmt.Errorf("%w: userId is required", errBadRequest)
	}
	mode := session.ModePlay
	if req.Mode != "" {
		m, err := session.ParseMode(req.Mode)
		if err != nil {
			return session.Options{}, err
		}
		mode = m
	}
	grade := h.defaultGrade
	if req.Grade != "" {
		g, err := curriculum.ParseGrade(req.Grade)
		if err != nil {
			return session.Options{}, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		grade = g
	}
	for _, id := range req.Modules {
		if _, err := curriculum.ModuleByID(id); err != nil {
			return session.Options{}, fmt.Errorf("%w: %v", errBadRequest, err)
		}
	}

	opts := session.Options{UserID: req.UserID, Mode: mode, Grade: grade, Modules: req.Modules}
	if !mode.IsChallenge() {
		return opts, nil
	}
	if req.ChallengeCode == "" {
		return session.Options{}, fmt.Errorf("%w: challengeCode is required in %s mode", errBadRequest, mode)
	}
	ch, err := h.challenges.Get(ctx, req.ChallengeCode)
	if err != nil {
		return session.Options{}, err
	}
	if role, ok := ch.RoleOf(req.UserID); !ok || role != mode.Role() {
		return session.Options{}, fmt.Errorf("%w: %s is not the %s of challenge %s",
			challenge.ErrJoinRejected, req.UserID, mode.Role(), ch.Code)
	}
	opts.Challenge = &ch
	return opts, nil
}

// GetSession returns the current state of a session.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	st, err := h.registry.get(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, newSessionView(st))
}

type answerRequest struct {
	Answer string `json:"answer"`
}

// SubmitAnswer scores an answer to the current question.
func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	st, err := h.registry.update(chi.URLParam(r, "id"), func(st session.State) (session.State, error) {
		return h.sessions.Submit(r.Context(), st, req.Answer)
	})
	h.respond(w, r, st, err)
}

// NextQuestion moves past feedback, or retries a failed load.
func (h *Handler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	st, err := h.registry.update(chi.URLParam(r, "id"), func(st session.State) (session.State, error) {
		if st.Phase == session.PhaseLoading {
			return h.sessions.Load(r.Context(), st)
		}
		return h.sessions.Next(r.Context(), st)
	})
	h.respond(w, r, st, err)
}

// EndSession completes a session and returns its summary.
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	st, err := h.registry.update(chi.URLParam(r, "id"), func(st session.State) (session.State, error) {
		return h.sessions.End(r.Context(), st)
	})
	h.respond(w, r, st, err)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, st session.State, err error) {
	if err == nil {
		JSON(w, http.StatusOK, newSessionView(st))
		return
	}
	if errors.Is(err, errSessionNotFound) {
		h.fail(w, r, err)
		return
	}
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Warn("session transition failed", "session", st.ID, "phase", st.Phase, "error", err)
	}
	JSON(w, status, map[string]any{"error": err.Error(), "session": newSessionView(st)})
}
