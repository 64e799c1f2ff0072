package api

import (
	"net/http"
	"strconv"

	"github.com/MikeSquared-Agency/Merit/internal/stats"
	"github.com/MikeSquared-Agency/Merit/internal/store"
)

type StatsHandler struct {
	store store.Store
}

func NewStatsHandler(s store.Store) *StatsHandler {
	return &StatsHandler{store: s}
}

// Spearman serves the rank correlation between sub-criteria, optionally
// narrowed by teacher_id and an assessed_on range (from, to; YYYY-MM-DD).
func (h *StatsHandler) Spearman(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter store.ObservationFilter
	if v := q.Get("teacher_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "invalid teacher_id")
			return
		}
		filter.TeacherID = &id
	}
	var err error
	if filter.From, err = parseDate(q.Get("from")); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.To, err = parseDate(q.Get("to")); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		writeError(w, http.StatusBadRequest, "to is before from")
		return
	}

	obs, cols, err := h.store.ListObservations(r.Context(), filter)
	if err != nil {
		writeErr(w, err)
		return
	}
	matrix, err := stats.Spearman(obs, cols)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matrix)
}
