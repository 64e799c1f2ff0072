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

type ScoresHandler struct {
	store  store.Store
	hermes hermes.Client
	svc    *evaluation.Service
}

func NewScoresHandler(s store.Store, h hermes.Client, svc *evaluation.Service) *ScoresHandler {
	return &ScoresHandler{store: s, hermes: h, svc: svc}
}

// ScoreInput addresses either a criterion or a sub-criterion, never both.
type ScoreInput struct {
	TeacherID      int64   `json:"teacher_id" validate:"required,gt=0"`
	CriterionID    *int64  `json:"criterion_id,omitempty" validate:"required_without=SubcriterionID,excluded_with=SubcriterionID"`
	SubcriterionID *int64  `json:"subcriterion_id,omitempty"`
	Value          float64 `json:"value" validate:"gte=0"`
	AssessedOn     string  `json:"assessed_on,omitempty"`
}

type PutScoresRequest struct {
	Scores []ScoreInput `json:"scores" validate:"required,min=1,dive"`
}

type PutScoresResponse struct {
	Saved  int                  `json:"saved"`
	Scores []*store.ScoreRecord `json:"scores"`
}

func (h *ScoresHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req PutScoresRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	criteria, err := h.store.ListCriteria(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	leaves := knownLeaves(criteria)

	assessor := r.Header.Get(assessorHeader)
	today := time.Now().UTC().Truncate(24 * time.Hour)
	records := make([]*store.ScoreRecord, 0, len(req.Scores))
	teachers := make(map[int64]int)
	var order []int64
	for _, in := range req.Scores {
		rec := &store.ScoreRecord{
			TeacherID:      in.TeacherID,
			CriterionID:    in.CriterionID,
			SubcriterionID: in.SubcriterionID,
			Value:          in.Value,
			AssessedOn:     today,
			AssessorID:     assessor,
		}
		if _, err := ahp.NewScore(rec.TeacherID, rec.Leaf(), rec.Value); err != nil {
			writeErr(w, err)
			return
		}
		if !leaves[rec.Leaf()] {
			writeErr(w, fmt.Errorf("%w: %s", ahp.ErrUnknownItem, rec.Leaf()))
			return
		}
		if in.AssessedOn != "" {
			d, err := parseDate(in.AssessedOn)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			rec.AssessedOn = *d
		}
		if _, ok := teachers[rec.TeacherID]; !ok {
			order = append(order, rec.TeacherID)
		}
		teachers[rec.TeacherID]++
		records = append(records, rec)
	}

	for _, id := range order {
		t, err := h.store.GetTeacher(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		if t == nil {
			writeErr(w, fmt.Errorf("%w: teacher %d", ahp.ErrUnknownItem, id))
			return
		}
	}

	if err := h.store.UpsertScores(r.Context(), records); err != nil {
		writeErr(w, err)
		return
	}

	h.svc.MarkDirty()
	if h.hermes != nil {
		now := time.Now().UTC()
		for _, id := range order {
			_ = h.hermes.Publish(hermes.SubjectScoreUpdated(id), hermes.ScoreUpdatedEvent{
				TeacherID:  id,
				Count:      teachers[id],
				AssessorID: assessor,
				Timestamp:  now,
			})
		}
	}
	writeJSON(w, http.StatusOK, PutScoresResponse{Saved: len(records), Scores: records})
}

// knownLeaves lists every address a score may use: each criterion and each
// sub-criterion.
func knownLeaves(criteria []*store.Criterion) map[ahp.LeafKey]bool {
	out := make(map[ahp.LeafKey]bool)
	for _, c := range criteria {
		out[ahp.CriterionLeaf(c.ID)] = true
		for _, sc := range c.Subcriteria {
			out[ahp.SubcriterionLeaf(sc.ID)] = true
		}
	}
	return out
}
