package api

import (
	"net/http"

	"github.com/MikeSquared-Agency/Merit/internal/store"
)

type CriteriaHandler struct {
	store store.Store
}

func NewCriteriaHandler(s store.Store) *CriteriaHandler {
	return &CriteriaHandler{store: s}
}

type CreateCriterionRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

func (h *CriteriaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCriterionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c := &store.Criterion{Name: req.Name, Description: req.Description, Subcriteria: []*store.Subcriterion{}}
	if err := h.store.CreateCriterion(r.Context(), c); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *CriteriaHandler) List(w http.ResponseWriter, r *http.Request) {
	criteria, err := h.store.ListCriteria(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if criteria == nil {
		criteria = []*store.Criterion{}
	}
	writeJSON(w, http.StatusOK, criteria)
}

func (h *CriteriaHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := lookupCriterion(w, r, h.store)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CriteriaHandler) CreateSubcriterion(w http.ResponseWriter, r *http.Request) {
	c, ok := lookupCriterion(w, r, h.store)
	if !ok {
		return
	}
	var req CreateCriterionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sc := &store.Subcriterion{CriterionID: c.ID, Name: req.Name, Description: req.Description}
	if err := h.store.CreateSubcriterion(r.Context(), sc); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, sc)
}

// lookupCriterion resolves the {id} criterion, writing the error response
// itself.
func lookupCriterion(w http.ResponseWriter, r *http.Request, s store.Store) (*store.Criterion, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	c, err := s.GetCriterion(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "criterion not found")
		return nil, false
	}
	return c, true
}
