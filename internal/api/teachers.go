package api

import (
	"net/http"
	"time"

	"github.com/MikeSquared-Agency/Merit/internal/evaluation"
	"github.com/MikeSquared-Agency/Merit/internal/hermes"
	"github.com/MikeSquared-Agency/Merit/internal/store"
)

type TeachersHandler struct {
	store  store.Store
	hermes hermes.Client
	svc    *evaluation.Service
}

func NewTeachersHandler(s store.Store, h hermes.Client, svc *evaluation.Service) *TeachersHandler {
	return &TeachersHandler{store: s, hermes: h, svc: svc}
}

// CreateTeacherRequest is also the body of an update, which replaces every field.
type CreateTeacherRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	NIP      string `json:"nip,omitempty" validate:"omitempty,max=32"`
	Position string `json:"position,omitempty" validate:"omitempty,max=100"`
	JoinedOn string `json:"joined_on,omitempty"`
}

func (h *TeachersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTeacherRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	joined, err := parseDate(req.JoinedOn)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t := &store.Teacher{Name: req.Name, NIP: req.NIP, Position: req.Position, JoinedOn: joined}
	if err := h.store.CreateTeacher(r.Context(), t); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *TeachersHandler) List(w http.ResponseWriter, r *http.Request) {
	teachers, err := h.store.ListTeachers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if teachers == nil {
		teachers = []*store.Teacher{}
	}
	writeJSON(w, http.StatusOK, teachers)
}

func (h *TeachersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	t, err := h.store.GetTeacher(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "teacher not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TeachersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req CreateTeacherRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	joined, err := parseDate(req.JoinedOn)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t := &store.Teacher{ID: id, Name: req.Name, NIP: req.NIP, Position: req.Position, JoinedOn: joined}
	found, err := h.store.UpdateTeacher(r.Context(), t)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "teacher not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Delete removes a teacher with their scores; the ranking is marked stale.
func (h *TeachersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	found, err := h.store.DeleteTeacher(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "teacher not found")
		return
	}

	h.svc.MarkDirty()
	if h.hermes != nil {
		_ = h.hermes.Publish(hermes.SubjectScoreUpdated(id), hermes.ScoreUpdatedEvent{
			TeacherID:      id,
			TeacherDeleted: true,
			AssessorID:     r.Header.Get(assessorHeader),
			Timestamp:      time.Now().UTC(),
		})
	}
	w.WriteHeader(http.StatusNoContent)
}
