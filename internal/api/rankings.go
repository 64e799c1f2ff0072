package api

import (
	"net/http"

	"github.com/MikeSquared-Agency/Merit/internal/ahp"
	"github.com/MikeSquared-Agency/Merit/internal/evaluation"
	"github.com/MikeSquared-Agency/Merit/internal/store"
)

type RankingsHandler struct {
	store store.Store
	svc   *evaluation.Service
}

func NewRankingsHandler(s store.Store, svc *evaluation.Service) *RankingsHandler {
	return &RankingsHandler{store: s, svc: svc}
}

// WeightsResponse is a dry run over the current data.
type WeightsResponse struct {
	Criteria    ahp.GroupResult           `json:"criteria"`
	Advice      string                    `json:"advice"`
	Subcriteria map[int64]ahp.GroupResult `json:"subcriteria"`
	Skipped     map[int64]string          `json:"skipped,omitempty"`
	Leaves      ahp.LeafWeights           `json:"leaves"`
	Ranking     []ahp.RankedResult        `json:"ranking"`
	Warnings    []string                  `json:"warnings,omitempty"`
}

func newWeightsResponse(ev *ahp.Evaluation) WeightsResponse {
	resp := WeightsResponse{
		Criteria:    ev.Criteria,
		Advice:      ev.Criteria.Consistency.Advice(),
		Subcriteria: ev.Subcriteria.Results,
		Leaves:      ev.Leaves,
		Ranking:     ev.Ranking,
	}
	if resp.Subcriteria == nil {
		resp.Subcriteria = map[int64]ahp.GroupResult{}
	}
	if resp.Ranking == nil {
		resp.Ranking = []ahp.RankedResult{}
	}
	if len(ev.Subcriteria.Skipped) > 0 {
		resp.Skipped = make(map[int64]string, len(ev.Subcriteria.Skipped))
		for cid, err := range ev.Subcriteria.Skipped {
			resp.Skipped[cid] = err.Error()
		}
	}
	for _, w := range ev.Warnings() {
		resp.Warnings = append(resp.Warnings, w.Error())
	}
	return resp
}

func (h *RankingsHandler) Weights(w http.ResponseWriter, r *http.Request) {
	ev, err := h.svc.Preview(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newWeightsResponse(ev))
}

func (h *RankingsHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	run, _, err := h.svc.Recompute(r.Context(), "api:"+r.Header.Get(assessorHeader))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, run)
}

func (h *RankingsHandler) Latest(w http.ResponseWriter, r *http.Request) {
	run, err := h.store.GetLatestRankingRun(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "no ranking computed yet")
		return
	}
	writeJSON(w, http.StatusOK, run)
}
