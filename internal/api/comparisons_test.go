package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Merit/internal/ahp"
	"github.com/MikeSquared-Agency/Merit/internal/hermes"
	"github.com/MikeSquared-Agency/Merit/internal/store"
)

func threeCriteria() []*store.Criterion {
	return []*store.Criterion{
		{ID: 1, Name: "Pedagogy", Subcriteria: []*store.Subcriterion{}},
		{ID: 2, Name: "Professionalism", Subcriteria: []*store.Subcriterion{}},
		{ID: 3, Name: "Social", Subcriteria: []*store.Subcriterion{}},
	}
}

func TestPutCriteriaComparisons(t *testing.T) {
	env := setupTestRouter(t)
	saaty := []ahp.Comparison{{A: 1, B: 2, Ratio: 3}, {A: 1, B: 3, Ratio: 5}, {A: 2, B: 3, Ratio: 2}}
	env.store.On("ListCriteria", mock.Anything).Return(threeCriteria(), nil)
	env.store.On("UpsertCriteriaComparisons", mock.Anything, saaty, "kepsek").Return(nil)
	env.store.On("ListCriteriaComparisons", mock.Anything).Return(saaty, nil)

	// (2, 1, 1/3) is stored as (1, 2, 3)
	body := `{"comparisons":[{"a":2,"b":1,"ratio":0.3333333333333333},{"a":1,"b":3,"ratio":5},{"a":2,"b":3,"ratio":2}]}`
	w := env.do("PUT", "/api/v1/comparisons/criteria", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var view GroupView
	require.NoError(t, json.NewDecoder(w.Body).Decode(&view))
	require.NotNil(t, view.Result)
	assert.InDelta(t, 0.648, view.Result.Weights[1], 0.005)
	assert.Equal(t, ahp.Consistent, view.Result.Consistency)
	assert.NotEmpty(t, view.Advice)
	assert.Len(t, view.Comparisons, 3)

	assert.True(t, env.svc.Dirty())
	require.Equal(t, []string{hermes.SubjectCriteriaComparisonsUpdated}, env.pub.Subjects())
	event := env.pub.Published[0].Data.(hermes.ComparisonsUpdatedEvent)
	assert.Equal(t, 3, event.Count)
	assert.Equal(t, "kepsek", event.AssessorID)
	env.store.AssertExpectations(t)
}

func TestPutCriteriaComparisonsNormalisesReciprocal(t *testing.T) {
	env := setupTestRouter(t)
	env.store.On("ListCriteria", mock.Anything).Return(threeCriteria(), nil)
	env.store.On("UpsertCriteriaComparisons", mock.Anything, mock.Anything, "kepsek").Return(nil)
	env.store.On("ListCriteriaComparisons", mock.Anything).Return(nil, nil)

	w := env.do("PUT", "/api/v1/comparisons/criteria", `{"comparisons":[{"a":3,"b":1,"ratio":4}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	call := env.store.Calls[1]
	require.Equal(t, "UpsertCriteriaComparisons", call.Method)
	got := call.Arguments.Get(1).([]ahp.Comparison)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].A)
	assert.Equal(t, int64(3), got[0].B)
	assert.InDelta(t, 0.25, got[0].Ratio, 1e-12)
}

func TestPutCriteriaComparisonsRejected(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty list", `{"comparisons":[]}`, http.StatusBadRequest},
		{"zero ratio", `{"comparisons":[{"a":1,"b":2,"ratio":0}]}`, http.StatusBadRequest},
		{"out of scale", `{"comparisons":[{"a":1,"b":2,"ratio":10}]}`, http.StatusUnprocessableEntity},
		{"self", `{"comparisons":[{"a":1,"b":1,"ratio":1}]}`, http.StatusUnprocessableEntity},
		{"unknown item", `{"comparisons":[{"a":1,"b":42,"ratio":3}]}`, http.StatusUnprocessableEntity},
		{"duplicate pair", `{"comparisons":[{"a":1,"b":2,"ratio":3},{"a":2,"b":1,"ratio":0.5}]}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestRouter(t)
			env.store.On("ListCriteria", mock.Anything).Return(threeCriteria(), nil)

			w := env.do("PUT", "/api/v1/comparisons/criteria", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			env.store.AssertNotCalled(t, "UpsertCriteriaComparisons", mock.Anything, mock.Anything, mock.Anything)
			assert.False(t, env.svc.Dirty())
			assert.Empty(t, env.pub.Published)
		})
	}
}

func TestGetCriteriaComparisonsUnsolvable(t *testing.T) {
	env := setupTestRouter(t)
	env.store.On("ListCriteria", mock.Anything).Return(nil, nil)
	env.store.On("ListCriteriaComparisons", mock.Anything).Return(nil, nil)

	w := env.do("GET", "/api/v1/comparisons/criteria", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"comparisons":[]}`, w.Body.String())
}

func TestResetCriteriaComparisons(t *testing.T) {
	env := setupTestRouter(t)
	env.store.On("ResetCriteriaComparisons", mock.Anything).Return(nil)

	w := env.do("DELETE", "/api/v1/comparisons/criteria", "")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, env.svc.Dirty())
	require.Len(t, env.pub.Published, 1)
	assert.True(t, env.pub.Published[0].Data.(hermes.ComparisonsUpdatedEvent).Reset)
}

func TestResetCriteriaComparisonsStoreError(t *testing.T) {
	env := setupTestRouter(t)
	env.store.On("ResetCriteriaComparisons", mock.Anything).Return(errors.New("conn reset"))

	w := env.do("DELETE", "/api/v1/comparisons/criteria", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, env.svc.Dirty())
}

func TestDeleteCriteriaPair(t *testing.T) {
	env := setupTestRouter(t)
	env.store.On("DeleteCriteriaComparison", mock.Anything, int64(2), int64(1)).Return(true, nil)

	w := env.do("DELETE", "/api/v1/comparisons/criteria/2/1", "")
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	assert.True(t, env.svc.Dirty())
	require.Equal(t, []string{hermes.SubjectCriteriaComparisonsUpdated}, env.pub.Subjects())
	event := env.pub.Published[0].Data.(hermes.ComparisonsUpdatedEvent)
	assert.Equal(t, []int64{2, 1}, event.RemovedPair)
	assert.False(t, event.Reset)
	assert.Equal(t, "kepsek", event.AssessorID)
}

func TestDeleteCriteriaPairRejected(t *testing.T) {
	env := setupTestRouter(t)
	env.store.On("DeleteCriteriaComparison", mock.Anything, int64(1), int64(3)).Return(false, nil)

	assert.Equal(t, http.StatusNotFound, env.do("DELETE", "/api/v1/comparisons/criteria/1/3", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do("DELETE", "/api/v1/comparisons/criteria/1/1", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do("DELETE", "/api/v1/comparisons/criteria/1/x", "").Code)
	assert.False(t, env.svc.Dirty())
	assert.Empty(t, env.pub.Published)
}

func TestDeleteSubcriteriaPair(t *testing.T) {
	env := setupTestRouter(t)
	pedagogy := &store.Criterion{ID: 1, Name: "Pedagogy", Subcriteria: []*store.Subcriterion{
		{ID: 11, CriterionID: 1, Name: "Planning"},
		{ID: 12, CriterionID: 1, Name: "Delivery"},
	}}
	env.store.On("GetCriterion", mock.Anything, int64(1)).Return(pedagogy, nil)
	env.store.On("GetCriterion", mock.Anything, int64(5)).Return(nil, nil)
	env.store.On("DeleteSubcriteriaComparison", mock.Anything, int64(1), int64(11), int64(12)).Return(true, nil)

	assert.Equal(t, http.StatusNotFound, env.do("DELETE", "/api/v1/criteria/5/comparisons/11/12", "").Code)
	assert.Empty(t, env.pub.Published)

	w := env.do("DELETE", "/api/v1/criteria/1/comparisons/11/12", "")
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	assert.True(t, env.svc.Dirty())
	require.Equal(t, []string{hermes.SubjectSubcriteriaComparisonsUpdated(1)}, env.pub.Subjects())
	event := env.pub.Published[0].Data.(hermes.ComparisonsUpdatedEvent)
	assert.Equal(t, int64(1), event.CriterionID)
	assert.Equal(t, []int64{11, 12}, event.RemovedPair)
}

func TestPutSubcriteriaComparisons(t *testing.T) {
	env := setupTestRouter(t)
	pedagogy := &store.Criterion{ID: 1, Name: "Pedagogy", Subcriteria: []*store.Subcriterion{
		{ID: 11, CriterionID: 1, Name: "Planning"},
		{ID: 12, CriterionID: 1, Name: "Delivery"},
	}}
	comps := []ahp.Comparison{{A: 11, B: 12, Ratio: 0.5}}
	env.store.On("GetCriterion", mock.Anything, int64(1)).Return(pedagogy, nil)
	env.store.On("UpsertSubcriteriaComparisons", mock.Anything, int64(1), comps, "kepsek").Return(nil)
	env.store.On("ListSubcriteriaComparisons", mock.Anything, int64(1)).Return(comps, nil)

	w := env.do("PUT", "/api/v1/criteria/1/comparisons", `{"comparisons":[{"a":11,"b":12,"ratio":0.5}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var view GroupView
	require.NoError(t, json.NewDecoder(w.Body).Decode(&view))
	require.NotNil(t, view.Result)
	assert.InDelta(t, 1.0/3, view.Result.Weights[11], 1e-9)
	assert.InDelta(t, 2.0/3, view.Result.Weights[12], 1e-9)
	assert.Equal(t, []string{hermes.SubjectSubcriteriaComparisonsUpdated(1)}, env.pub.Subjects())

	// a criterion id is not a member of its own sub-criteria group
	w = env.do("PUT", "/api/v1/criteria/1/comparisons", `{"comparisons":[{"a":1,"b":12,"ratio":2}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSubcriteriaComparisonsUnknownCriterion(t *testing.T) {
	env := setupTestRouter(t)
	env.store.On("GetCriterion", mock.Anything, int64(5)).Return(nil, nil)

	assert.Equal(t, http.StatusNotFound, env.do("GET", "/api/v1/criteria/5/comparisons", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do("DELETE", "/api/v1/criteria/5/comparisons", "").Code)
}

func TestCheckComparisons(t *testing.T) {
	items := []ahp.Item{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}, {ID: 3, Name: "c"}}

	got, err := checkComparisons(items, []ComparisonInput{{A: 2, B: 1, Ratio: 9}, {A: 1, B: 3, Ratio: 1.0 / 9}})
	require.NoError(t, err)
	assert.Equal(t, []ahp.Comparison{{A: 1, B: 2, Ratio: 1.0 / 9}, {A: 1, B: 3, Ratio: 1.0 / 9}}, got)

	_, err = checkComparisons(items, []ComparisonInput{{A: 1, B: 2, Ratio: 0.1}})
	assert.ErrorIs(t, err, ahp.ErrRatioOutOfScale)

	_, err = checkComparisons(items, []ComparisonInput{{A: 1, B: 4, Ratio: 2}})
	assert.ErrorIs(t, err, ahp.ErrUnknownItem)

	_, err = checkComparisons(items, []ComparisonInput{{A: 1, B: 2, Ratio: 2}, {A: 1, B: 2, Ratio: 3}})
	assert.ErrorIs(t, err, ahp.ErrDuplicateComparison)
}
