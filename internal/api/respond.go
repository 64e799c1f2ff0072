package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/MikeSquared-Agency/Merit/internal/ahp"
	"github.com/MikeSquared-Agency/Merit/internal/stats"
)

const dateLayout = "2006-01-02"

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeErr maps domain errors onto status codes.
func writeErr(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ahp.ErrInvalidRatio),
		errors.Is(err, ahp.ErrRatioOutOfScale),
		errors.Is(err, ahp.ErrSelfComparison),
		errors.Is(err, ahp.ErrDuplicateComparison),
		errors.Is(err, ahp.ErrDuplicateItem),
		errors.Is(err, ahp.ErrUnknownItem),
		errors.Is(err, ahp.ErrInvalidItem),
		errors.Is(err, ahp.ErrInvalidScore),
		errors.Is(err, ahp.ErrMissingComparison),
		errors.Is(err, ahp.ErrInsufficientItems),
		errors.Is(err, ahp.ErrNoCriteria):
		return http.StatusUnprocessableEntity
	case errors.Is(err, stats.ErrNoObservations):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into v and runs its validate tags.
func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid request body")
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("field %s failed %s", fe.Namespace(), fe.Tag())
		}
		return err
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// parseDate parses an optional YYYY-MM-DD value.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return &t, nil
}
