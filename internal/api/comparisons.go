package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/MikeSquared-Agency/Merit/internal/ahp"
	"github.com/MikeSquared-Agency/Merit/internal/evaluation"
	"github.com/MikeSquared-Agency/Merit/internal/hermes"
	"github.com/MikeSquared-Agency/Merit/internal/store"
)

type ComparisonsHandler struct {
	store  store.Store
	hermes hermes.Client
	svc    *evaluation.Service
}

func NewComparisonsHandler(s store.Store, h hermes.Client, svc *evaluation.Service) *ComparisonsHandler {
	return &ComparisonsHandler{store: s, hermes: h, svc: svc}
}

type ComparisonInput struct {
	A     int64   `json:"a" validate:"required,gt=0"`
	B     int64   `json:"b" validate:"required,gt=0"`
	Ratio float64 `json:"ratio" validate:"required,gt=0"`
}

type PutComparisonsRequest struct {
	Comparisons []ComparisonInput `json:"comparisons" validate:"required,min=1,dive"`
}

// GroupView is a comparison group with the solve of its current matrix.
// Result is nil and Error set when the matrix cannot be solved yet.
type GroupView struct {
	Comparisons []ahp.Comparison `json:"comparisons"`
	Result      *ahp.GroupResult `json:"result,omitempty"`
	Advice      string           `json:"advice,omitempty"`
	Error       string           `json:"error,omitempty"`
}

func (h *ComparisonsHandler) GetCriteria(w http.ResponseWriter, r *http.Request) {
	items, err := h.criteriaItems(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	comps, err := h.store.ListCriteriaComparisons(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(items, comps))
}

func (h *ComparisonsHandler) PutCriteria(w http.ResponseWriter, r *http.Request) {
	var req PutComparisonsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.criteriaItems(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	comps, err := checkComparisons(items, req.Comparisons)
	if err != nil {
		writeErr(w, err)
		return
	}

	assessor := r.Header.Get(assessorHeader)
	if err := h.store.UpsertCriteriaComparisons(r.Context(), comps, assessor); err != nil {
		writeErr(w, err)
		return
	}
	h.changed(hermes.SubjectCriteriaComparisonsUpdated, hermes.ComparisonsUpdatedEvent{
		Count:      len(comps),
		AssessorID: assessor,
		Timestamp:  time.Now().UTC(),
	})

	stored, err := h.store.ListCriteriaComparisons(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(items, stored))
}

func (h *ComparisonsHandler) ResetCriteria(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ResetCriteriaComparisons(r.Context()); err != nil {
		writeErr(w, err)
		return
	}
	h.changed(hermes.SubjectCriteriaComparisonsUpdated, hermes.ComparisonsUpdatedEvent{
		Reset:      true,
		AssessorID: r.Header.Get(assessorHeader),
		Timestamp:  time.Now().UTC(),
	})
	w.WriteHeader(http.StatusNoContent)
}

// DeleteCriteriaPair removes the judgment on one pair of criteria.
func (h *ComparisonsHandler) DeleteCriteriaPair(w http.ResponseWriter, r *http.Request) {
	a, b, err := pairParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	found, err := h.store.DeleteCriteriaComparison(r.Context(), a, b)
	if err != nil {
		writeErr(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "comparison not found")
		return
	}
	h.changed(hermes.SubjectCriteriaComparisonsUpdated, hermes.ComparisonsUpdatedEvent{
		RemovedPair: []int64{a, b},
		AssessorID:  r.Header.Get(assessorHeader),
		Timestamp:   time.Now().UTC(),
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *ComparisonsHandler) GetSubcriteria(w http.ResponseWriter, r *http.Request) {
	c, ok := lookupCriterion(w, r, h.store)
	if !ok {
		return
	}
	comps, err := h.store.ListSubcriteriaComparisons(r.Context(), c.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(subItems(c), comps))
}

func (h *ComparisonsHandler) PutSubcriteria(w http.ResponseWriter, r *http.Request) {
	c, ok := lookupCriterion(w, r, h.store)
	if !ok {
		return
	}
	var req PutComparisonsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items := subItems(c)
	comps, err := checkComparisons(items, req.Comparisons)
	if err != nil {
		writeErr(w, err)
		return
	}

	assessor := r.Header.Get(assessorHeader)
	if err := h.store.UpsertSubcriteriaComparisons(r.Context(), c.ID, comps, assessor); err != nil {
		writeErr(w, err)
		return
	}
	h.changed(hermes.SubjectSubcriteriaComparisonsUpdated(c.ID), hermes.ComparisonsUpdatedEvent{
		CriterionID: c.ID,
		Count:       len(comps),
		AssessorID:  assessor,
		Timestamp:   time.Now().UTC(),
	})

	stored, err := h.store.ListSubcriteriaComparisons(r.Context(), c.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(items, stored))
}

func (h *ComparisonsHandler) ResetSubcriteria(w http.ResponseWriter, r *http.Request) {
	c, ok := lookupCriterion(w, r, h.store)
	if !ok {
		return
	}
	if err := h.store.ResetSubcriteriaComparisons(r.Context(), c.ID); err != nil {
		writeErr(w, err)
		return
	}
	h.changed(hermes.SubjectSubcriteriaComparisonsUpdated(c.ID), hermes.ComparisonsUpdatedEvent{
		CriterionID: c.ID,
		Reset:       true,
		AssessorID:  r.Header.Get(assessorHeader),
		Timestamp:   time.Now().UTC(),
	})
	w.WriteHeader(http.StatusNoContent)
}

// DeleteSubcriteriaPair removes the judgment on one pair of sub-criteria
// of the {id} criterion.
func (h *ComparisonsHandler) DeleteSubcriteriaPair(w http.ResponseWriter, r *http.Request) {
	a, b, err := pairParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, ok := lookupCriterion(w, r, h.store)
	if !ok {
		return
	}
	found, err := h.store.DeleteSubcriteriaComparison(r.Context(), c.ID, a, b)
	if err != nil {
		writeErr(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "comparison not found")
		return
	}
	h.changed(hermes.SubjectSubcriteriaComparisonsUpdated(c.ID), hermes.ComparisonsUpdatedEvent{
		CriterionID: c.ID,
		RemovedPair: []int64{a, b},
		AssessorID:  r.Header.Get(assessorHeader),
		Timestamp:   time.Now().UTC(),
	})
	w.WriteHeader(http.StatusNoContent)
}

func pairParams(r *http.Request) (int64, int64, error) {
	a, err := pathID(r, "a")
	if err != nil {
		return 0, 0, err
	}
	b, err := pathID(r, "b")
	if err != nil {
		return 0, 0, err
	}
	if a == b {
		return 0, 0, fmt.Errorf("%w: %d", ahp.ErrSelfComparison, a)
	}
	return a, b, nil
}

func (h *ComparisonsHandler) criteriaItems(r *http.Request) ([]ahp.Item, error) {
	criteria, err := h.store.ListCriteria(r.Context())
	if err != nil {
		return nil, err
	}
	items := make([]ahp.Item, len(criteria))
	for i, c := range criteria {
		items[i] = c.Item()
	}
	return items, nil
}

func (h *ComparisonsHandler) view(items []ahp.Item, comps []ahp.Comparison) GroupView {
	if comps == nil {
		comps = []ahp.Comparison{}
	}
	v := GroupView{Comparisons: comps}
	if len(items) == 0 {
		return v
	}
	res, err := h.svc.Engine().SolveMatrix(items, comps)
	if err != nil {
		v.Error = err.Error()
		return v
	}
	v.Result = &res
	v.Advice = res.Consistency.Advice()
	return v
}

func (h *ComparisonsHandler) changed(subject string, event hermes.ComparisonsUpdatedEvent) {
	h.svc.MarkDirty()
	if h.hermes != nil {
		_ = h.hermes.Publish(subject, event)
	}
}

func subItems(c *store.Criterion) []ahp.Item {
	items := make([]ahp.Item, len(c.Subcriteria))
	for i, sc := range c.Subcriteria {
		items[i] = sc.Item()
	}
	return items
}

// checkComparisons validates judgments against the group's items and
// returns them normalised to one entry per unordered pair.
func checkComparisons(items []ahp.Item, inputs []ComparisonInput) ([]ahp.Comparison, error) {
	known := make(map[int64]bool, len(items))
	for _, it := range items {
		known[it.ID] = true
	}
	seen := make(map[[2]int64]bool, len(inputs))
	out := make([]ahp.Comparison, 0, len(inputs))
	for _, in := range inputs {
		c, err := ahp.NewComparison(in.A, in.B, in.Ratio)
		if err != nil {
			return nil, err
		}
		for _, id := range []int64{c.A, c.B} {
			if !known[id] {
				return nil, fmt.Errorf("%w: %d is not in this group", ahp.ErrUnknownItem, id)
			}
		}
		c = store.NormalizePair(c)
		key := [2]int64{c.A, c.B}
		if seen[key] {
			return nil, fmt.Errorf("%w: (%d, %d)", ahp.ErrDuplicateComparison, c.A, c.B)
		}
		seen[key] = true
		out = append(out, c)
	}
	return out, nil
}
