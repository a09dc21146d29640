package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/mathquest/internal/curriculum"
	"github.com/abhisek/mathquest/internal/progress"
	"github.com/abhisek/mathquest/internal/reward"
)

// UserStats returns dashboard stats over the learner's whole history.
// The optional grade query parameter picks the threshold table.
func (h *Handler) UserStats(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	grade := h.defaultGrade
	if q := r.URL.Query().Get("grade"); q != "" {
		g, err := curriculum.ParseGrade(q)
		if err != nil {
			h.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
		grade = g
	}

	var history []progress.Entry
	if h.history != nil {
		var err error
		if history, err = h.history.History(r.Context(), userID); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	JSON(w, http.StatusOK, progress.Compute(history, grade, h.now()))
}

type rewardsView struct {
	reward.State
	XPToNextLevel int     `json:"xpToNextLevel"`
	LevelProgress float64 `json:"levelProgress"`
}

// UserRewards returns the learner's XP, level and daily progress.
func (h *Handler) UserRewards(w http.ResponseWriter, r *http.Request) {
	if h.rewards == nil {
		Error(w, http.StatusNotFound, "rewards are not enabled")
		return
	}
	st, err := h.rewards.State(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, rewardsView{
		State:         st,
		XPToNextLevel: reward.XPToNextLevel(st.TotalXP),
		LevelProgress: reward.LevelProgress(st.TotalXP),
	})
}
