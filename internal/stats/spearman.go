// Package stats holds descriptive statistics over assessment scores.
package stats

import (
	"encoding/json"
	"errors"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// minPairs is the smallest sample a correlation is reported for.
const minPairs = 3

var ErrNoObservations = errors.New("no observations")

// Observation is one recorded sub-criterion score.
type Observation struct {
	TeacherID  int64     `json:"teacher_id"`
	AssessedOn time.Time `json:"assessed_on"`
	ColumnID   int64     `json:"subcriterion_id"`
	Value      float64   `json:"value"`
}

// Column names one variable of the correlation matrix.
type Column struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Float marshals NaN as JSON null.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

// Defined reports whether the value was computable.
func (f Float) Defined() bool { return !math.IsNaN(float64(f)) }

// CorrelationMatrix is a symmetric Spearman matrix over Columns.
type CorrelationMatrix struct {
	Columns []Column  `json:"columns"`
	Rows    int       `json:"rows"`
	Rho     [][]Float `json:"rho"`
	PValue  [][]Float `json:"p_value"`
}

type rowKey struct {
	teacher int64
	day     time.Time
}

type cell struct {
	sum   float64
	count int
}

// Spearman pivots observations into one row per (teacher, assessment day)
// with the mean value per column, then correlates every column pair over the
// rows where both are present. Pairs with fewer than three rows, or where
// either side is constant, are NaN.
func Spearman(observations []Observation, columns []Column) (*CorrelationMatrix, error) {
	if len(observations) == 0 {
		return nil, ErrNoObservations
	}

	colIndex := make(map[int64]int, len(columns))
	for i, c := range columns {
		colIndex[c.ID] = i
	}

	pivot := make(map[rowKey][]cell)
	for _, o := range observations {
		ci, ok := colIndex[o.ColumnID]
		if !ok || math.IsNaN(o.Value) {
			continue
		}
		k := rowKey{teacher: o.TeacherID, day: o.AssessedOn.Truncate(24 * time.Hour)}
		row, ok := pivot[k]
		if !ok {
			row = make([]cell, len(columns))
			pivot[k] = row
		}
		row[ci].sum += o.Value
		row[ci].count++
	}

	keys := make([]rowKey, 0, len(pivot))
	for k := range pivot {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].teacher != keys[j].teacher {
			return keys[i].teacher < keys[j].teacher
		}
		return keys[i].day.Before(keys[j].day)
	})

	n := len(columns)
	data := make([][]float64, n)
	for c := 0; c < n; c++ {
		data[c] = make([]float64, len(keys))
		for r, k := range keys {
			if cl := pivot[k][c]; cl.count > 0 {
				data[c][r] = cl.sum / float64(cl.count)
			} else {
				data[c][r] = math.NaN()
			}
		}
	}

	out := &CorrelationMatrix{
		Columns: columns,
		Rows:    len(keys),
		Rho:     make([][]Float, n),
		PValue:  make([][]Float, n),
	}
	for i := 0; i < n; i++ {
		out.Rho[i] = make([]Float, n)
		out.PValue[i] = make([]Float, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			rho, p := pairwise(data[i], data[j])
			out.Rho[i][j], out.Rho[j][i] = Float(rho), Float(rho)
			out.PValue[i][j], out.PValue[j][i] = Float(p), Float(p)
		}
	}
	return out, nil
}

// pairwise correlates the rows where both x and y are present.
func pairwise(x, y []float64) (rho, p float64) {
	var xs, ys []float64
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return SpearmanPair(xs, ys)
}

// SpearmanPair returns Spearman's rho and its two-sided p-value for paired
// samples, or NaN for both when the sample is too small or constant.
func SpearmanPair(x, y []float64) (rho, p float64) {
	n := len(x)
	if n != len(y) || n < minPairs {
		return math.NaN(), math.NaN()
	}
	rx, ry := AverageRanks(x), AverageRanks(y)
	if stat.Variance(rx, nil) == 0 || stat.Variance(ry, nil) == 0 {
		return math.NaN(), math.NaN()
	}
	rho = stat.Correlation(rx, ry, nil)
	// Clamp rounding so |rho| never exceeds 1.
	rho = math.Max(-1, math.Min(1, rho))
	if math.Abs(rho) == 1 {
		return rho, 0
	}

	df := float64(n - 2)
	t := rho * math.Sqrt(df/(1-rho*rho))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return rho, 2 * dist.Survival(math.Abs(t))
}

// AverageRanks ranks values from 1, giving tied values the mean of the
// ranks they span.
func AverageRanks(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	ranks := make([]float64, len(values))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}
