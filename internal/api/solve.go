package api

import (
	"net/http"

	"github.com/MikeSquared-Agency/Merit/internal/ahp"
)

// SolveHandler solves ad-hoc matrices without touching the store.
type SolveHandler struct {
	defaults ahp.Options
}

func NewSolveHandler(defaults ahp.Options) *SolveHandler {
	return &SolveHandler{defaults: defaults}
}

type SolveItem struct {
	ID   int64  `json:"id" validate:"required,gt=0"`
	Name string `json:"name" validate:"required"`
}

type SolveRequest struct {
	Items       []SolveItem       `json:"items" validate:"required,min=1,dive"`
	Comparisons []ComparisonInput `json:"comparisons" validate:"dive"`
	Method      string            `json:"method,omitempty" validate:"omitempty,oneof=eigenvector row_average"`
	Missing     string            `json:"missing_comparisons,omitempty" validate:"omitempty,oneof=neutral reject"`
}

type SolveResponse struct {
	ahp.GroupResult
	Advice  string `json:"advice"`
	Warning string `json:"warning,omitempty"`
}

func (h *SolveHandler) Solve(w http.ResponseWriter, r *http.Request) {
	var req SolveRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := h.defaults
	if req.Method != "" {
		opts.Method = ahp.Method(req.Method)
	}
	if req.Missing != "" {
		opts.Missing = ahp.MissingPolicy(req.Missing)
	}

	items := make([]ahp.Item, len(req.Items))
	for i, in := range req.Items {
		it, err := ahp.NewItem(in.ID, in.Name, 0)
		if err != nil {
			writeErr(w, err)
			return
		}
		items[i] = it
	}
	comps := make([]ahp.Comparison, len(req.Comparisons))
	for i, in := range req.Comparisons {
		c, err := ahp.NewComparison(in.A, in.B, in.Ratio)
		if err != nil {
			writeErr(w, err)
			return
		}
		comps[i] = c
	}

	res, err := ahp.NewEngine(opts).SolveMatrix(items, comps)
	if err != nil {
		writeErr(w, err)
		return
	}
	resp := SolveResponse{GroupResult: res, Advice: res.Consistency.Advice()}
	if res.Warning != nil {
		resp.Warning = res.Warning.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}
