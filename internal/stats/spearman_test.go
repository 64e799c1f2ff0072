package stats

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAverageRanks(t *testing.T) {
	assert.Equal(t, []float64{1, 2, 3.5, 5, 3.5}, AverageRanks([]float64{5, 6, 7, 8, 7}))
	assert.Equal(t, []float64{2, 2, 2}, AverageRanks([]float64{4, 4, 4}))
	assert.Empty(t, AverageRanks(nil))
}

func TestSpearmanPair(t *testing.T) {
	t.Run("monotonic", func(t *testing.T) {
		rho, p := SpearmanPair([]float64{1, 2, 3, 4, 5}, []float64{10, 20, 25, 90, 100})
		assert.InDelta(t, 1, rho, 1e-12)
		assert.InDelta(t, 0, p, 1e-6)
	})

	t.Run("reversed", func(t *testing.T) {
		rho, _ := SpearmanPair([]float64{1, 2, 3, 4}, []float64{9, 7, 5, 1})
		assert.InDelta(t, -1, rho, 1e-12)
	})

	t.Run("ties", func(t *testing.T) {
		rho, p := SpearmanPair([]float64{1, 2, 3, 4, 5}, []float64{5, 6, 7, 8, 7})
		assert.InDelta(t, 0.8207826816681233, rho, 1e-9)
		assert.Greater(t, p, 0.05)
		assert.Less(t, p, 0.1)
	})

	t.Run("too few pairs", func(t *testing.T) {
		rho, p := SpearmanPair([]float64{1, 2}, []float64{2, 1})
		assert.True(t, math.IsNaN(rho))
		assert.True(t, math.IsNaN(p))
	})

	t.Run("constant", func(t *testing.T) {
		rho, _ := SpearmanPair([]float64{1, 2, 3}, []float64{4, 4, 4})
		assert.True(t, math.IsNaN(rho))
	})
}

func TestSpearmanPivot(t *testing.T) {
	day1 := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	cols := []Column{{ID: 11, Name: "Planning"}, {ID: 12, Name: "Delivery"}, {ID: 13, Name: "Attendance"}}

	obs := []Observation{
		{TeacherID: 1, AssessedOn: day1, ColumnID: 11, Value: 70},
		// same row twice: averaged to 80
		{TeacherID: 1, AssessedOn: day1, ColumnID: 12, Value: 75},
		{TeacherID: 1, AssessedOn: day1, ColumnID: 12, Value: 85},
		{TeacherID: 2, AssessedOn: day1, ColumnID: 11, Value: 80},
		{TeacherID: 2, AssessedOn: day1, ColumnID: 12, Value: 90},
		{TeacherID: 1, AssessedOn: day2, ColumnID: 11, Value: 90},
		{TeacherID: 1, AssessedOn: day2, ColumnID: 12, Value: 95},
		{TeacherID: 3, AssessedOn: day2, ColumnID: 11, Value: 60},
		{TeacherID: 3, AssessedOn: day2, ColumnID: 12, Value: 50},
		{TeacherID: 3, AssessedOn: day2, ColumnID: 13, Value: 100},
		{TeacherID: 3, AssessedOn: day2, ColumnID: 99, Value: 1},
	}

	m, err := Spearman(obs, cols)
	require.NoError(t, err)
	assert.Equal(t, 4, m.Rows)
	require.Len(t, m.Rho, 3)

	assert.InDelta(t, 1, float64(m.Rho[0][1]), 1e-12)
	assert.Equal(t, m.Rho[0][1], m.Rho[1][0])
	assert.InDelta(t, 1, float64(m.Rho[0][0]), 1e-12)

	// column 13 has a single row
	assert.False(t, m.Rho[0][2].Defined())
	assert.False(t, m.PValue[2][2].Defined())
}

func TestSpearmanNoObservations(t *testing.T) {
	_, err := Spearman(nil, []Column{{ID: 1}})
	assert.ErrorIs(t, err, ErrNoObservations)
}

func TestFloatJSON(t *testing.T) {
	b, err := json.Marshal([]Float{Float(math.NaN()), 0.5})
	require.NoError(t, err)
	assert.JSONEq(t, `[null, 0.5]`, string(b))
}
