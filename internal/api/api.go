// Package api serves practice sessions, learner stats and two-player
// challenges over HTTP, with a WebSocket feed for live challenge updates.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/abhisek/mathquest/internal/challenge"
	"github.com/abhisek/mathquest/internal/curriculum"
	"github.com/abhisek/mathquest/internal/progress"
	"github.com/abhisek/mathquest/internal/reward"
	"github.com/abhisek/mathquest/internal/session"
)

// Pinger is a dependency the health check probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the handlers call into.
type Deps struct {
	Sessions   *session.Controller
	Challenges *challenge.Service
	Rewards    *reward.Service
	History    progress.HistorySource

	// Checks are probed by /api/health, keyed by name.
	Checks map[string]Pinger

	// DefaultGrade applies when a request names no grade.
	DefaultGrade curriculum.Grade

	// ChallengeQuestions is the question count for new challenges when the
	// request names none.
	ChallengeQuestions int

	// SessionTTL drops sessions idle for longer. Zero uses two hours.
	SessionTTL time.Duration

	Logger *slog.Logger
	Now    func() time.Time
}

// Handler serves the HTTP API.
type Handler struct {
	sessions   *session.Controller
	challenges *challenge.Service
	rewards    *reward.Service
	history    progress.HistorySource
	checks     map[string]Pinger

	defaultGrade       curriculum.Grade
	challengeQuestions int

	registry *registry
	upgrader websocket.Upgrader
	logger   *slog.Logger
	now      func() time.Time
}

// NewHandler creates a Handler from d.
func NewHandler(d Deps) *Handler {
	h := &Handler{
		sessions:           d.Sessions,
		challenges:         d.Challenges,
		rewards:            d.Rewards,
		history:            d.History,
		checks:             d.Checks,
		defaultGrade:       d.DefaultGrade,
		challengeQuestions: d.ChallengeQuestions,
		logger:             d.Logger,
		now:                d.Now,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.now == nil {
		h.now = time.Now
	}
	if !h.defaultGrade.Valid() {
		h.defaultGrade = curriculum.DefaultGrade
	}
	ttl := d.SessionTTL
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	h.registry = newRegistry(ttl, h.now)
	return h
}

// Router returns a chi router with the standard middleware and every route.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts the API under /api.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.CreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetSession)
				r.Post("/answer", h.SubmitAnswer)
				r.Post("/next", h.NextQuestion)
				r.Post("/end", h.EndSession)
			})
		})

		r.Route("/users/{id}", func(r chi.Router) {
			r.Get("/stats", h.UserStats)
			r.Get("/rewards", h.UserRewards)
		})

		r.Route("/challenges", func(r chi.Router) {
			r.Post("/", h.CreateChallenge)
			r.Route("/{code}", func(r chi.Router) {
				r.Get("/", h.GetChallenge)
				r.Post("/join", h.JoinChallenge)
				r.Get("/ws", h.ChallengeFeed)
			})
		})
	})
}

// Health probes every configured dependency.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{"api": "ok"}
	status, code := "healthy", http.StatusOK
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			h.logger.Error("health check failed", "check", name, "error", err)
			checks[name] = "unreachable"
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	JSON(w, code, map[string]any{"status": status, "checks": checks})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

var (
	errBadRequest      = errors.New("bad request")
	errSessionNotFound = errors.New("session not found")
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var unknownMode *session.UnknownModeError
	switch {
	case errors.Is(err, session.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errBadRequest),
		errors.Is(err, challenge.ErrInvalidCode),
		errors.As(err, &unknownMode):
		return http.StatusBadRequest
	case errors.Is(err, errSessionNotFound),
		errors.Is(err, challenge.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrAlreadyAnswered),
		errors.Is(err, session.ErrUnscorable),
		errors.Is(err, session.ErrNoQuestion),
		errors.Is(err, session.ErrSessionComplete),
		errors.Is(err, session.ErrNotLoading),
		errors.Is(err, session.ErrAwaitingAnswer),
		errors.Is(err, challenge.ErrJoinRejected),
		errors.Is(err, challenge.ErrNotActive),
		errors.Is(err, challenge.ErrOutOfOrder),
		errors.Is(err, challenge.ErrCodeTaken):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()), "error", err)
	}
	Error(w, status, err.Error())
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request", "method", r.Method, "path", r.URL.Path,
				"status", ww.Status(), "bytes", ww.BytesWritten(),
				"duration", time.Since(start), "request_id", middleware.GetReqID(r.Context()))
		})
	}
}
