package ahp

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Method selects how priority weights are derived from a matrix.
type Method string

const (
	// MethodEigenvector uses the principal right eigenvector.
	MethodEigenvector Method = "eigenvector"
	// MethodRowAverage column-normalises the matrix and averages each row.
	MethodRowAverage Method = "row_average"
)

// ParseMethod accepts "eigenvector" or "row_average"; empty means eigenvector.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case "", MethodEigenvector:
		return MethodEigenvector, nil
	case MethodRowAverage:
		return MethodRowAverage, nil
	default:
		return "", fmt.Errorf("unknown weighting method %q", s)
	}
}

// Result is the outcome of solving one comparison matrix.
type Result struct {
	Weights     []float64   `json:"weights"`
	LambdaMax   float64     `json:"lambda_max"`
	CI          float64     `json:"ci"`
	RI          float64     `json:"ri"`
	CR          float64     `json:"cr"`
	Method      Method      `json:"method"`
	Consistency Consistency `json:"consistency"`
	// Warning is ErrDegenerateEigen when the eigen solve fell back to row averages.
	Warning error `json:"-"`
}

// WeightsByID pairs the weight vector with the matrix item ids.
func (r Result) WeightsByID(m *Matrix) map[int64]float64 {
	out := make(map[int64]float64, len(r.Weights))
	for i, id := range m.ids {
		out[id] = r.Weights[i]
	}
	return out
}

// Solver derives weights and consistency figures from a matrix.
type Solver struct {
	method     Method
	thresholds Thresholds
}

// NewSolver returns a Solver using method and the default thresholds.
func NewSolver(method Method) *Solver {
	if method == "" {
		method = MethodEigenvector
	}
	return &Solver{method: method, thresholds: DefaultThresholds()}
}

// WithThresholds returns a copy of s classifying with t.
func (s *Solver) WithThresholds(t Thresholds) *Solver {
	c := *s
	c.thresholds = t
	return &c
}

// Method is the configured weighting method.
func (s *Solver) Method() Method { return s.method }

// Solve computes weights, λmax, CI, RI and CR. An inconsistent matrix is
// classified, never rejected.
func (s *Solver) Solve(m *Matrix) (Result, error) {
	n := m.Order()
	if n < 1 {
		return Result{}, ErrInsufficientItems
	}
	if n == 1 {
		return Result{
			Weights:     []float64{1},
			LambdaMax:   1,
			Method:      s.method,
			Consistency: s.thresholds.Classify(0),
		}, nil
	}

	res := Result{Method: s.method}
	switch s.method {
	case MethodRowAverage:
		res.Weights = rowAverageWeights(m.cells)
		res.LambdaMax = estimateLambda(m.cells, res.Weights)
	case MethodEigenvector:
		w, lambda, ok := eigenSolve(m.cells)
		if ok {
			res.Weights, res.LambdaMax = w, lambda
		} else {
			res.Method = MethodRowAverage
			res.Warning = ErrDegenerateEigen
			res.Weights = rowAverageWeights(m.cells)
			res.LambdaMax = estimateLambda(m.cells, res.Weights)
		}
	default:
		return Result{}, fmt.Errorf("unknown weighting method %q", s.method)
	}

	res.CI = (res.LambdaMax - float64(n)) / float64(n-1)
	// λmax >= n for positive reciprocal matrices; anything below is rounding.
	if res.CI < 0 {
		res.CI = 0
	}
	res.RI = RandomIndex(n)
	if res.RI != 0 {
		res.CR = res.CI / res.RI
	}
	res.Consistency = s.thresholds.Classify(res.CR)
	return res, nil
}

// eigenSolve is swapped in tests to exercise the row-average fallback.
var eigenSolve = principalEigen

// principalEigen returns the normalised eigenvector of the eigenvalue with
// the largest real part. ok is false when that vector is not usable as a
// priority vector.
func principalEigen(cells [][]float64) (weights []float64, lambda float64, ok bool) {
	n := len(cells)
	data := make([]float64, 0, n*n)
	for _, row := range cells {
		data = append(data, row...)
	}

	var eig mat.Eigen
	if !eig.Factorize(mat.NewDense(n, n, data), mat.EigenRight) {
		return nil, 0, false
	}
	values := eig.Values(nil)
	best := 0
	for i := 1; i < len(values); i++ {
		if real(values[i]) > real(values[best]) {
			best = i
		}
	}
	lambda = real(values[best])
	if math.Abs(imag(values[best])) > 1e-9*math.Max(1, math.Abs(lambda)) {
		return nil, 0, false
	}

	var vecs mat.CDense
	eig.VectorsTo(&vecs)

	weights = make([]float64, n)
	var sum, norm float64
	for i := 0; i < n; i++ {
		v := vecs.At(i, best)
		weights[i] = real(v)
		sum += real(v)
		norm += math.Abs(real(v))
		if math.Abs(imag(v)) > 1e-9 {
			return nil, 0, false
		}
	}
	if norm == 0 || math.Abs(sum) < 1e-12 {
		return nil, 0, false
	}
	for i := range weights {
		weights[i] /= sum
		// Perron vectors are strictly one-signed; allow only rounding noise.
		if weights[i] < -1e-12 {
			return nil, 0, false
		}
		if weights[i] < 0 {
			weights[i] = 0
		}
	}
	return weights, lambda, true
}

func rowAverageWeights(cells [][]float64) []float64 {
	n := len(cells)
	colSum := make([]float64, n)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			colSum[j] += cells[i][j]
		}
	}
	weights := make([]float64, n)
	for i := 0; i < n; i++ {
		var s float64
		for j := 0; j < n; j++ {
			s += cells[i][j] / colSum[j]
		}
		weights[i] = s / float64(n)
	}
	return weights
}

// estimateLambda is mean((A·w)_i / w_i), skipping zero weights.
func estimateLambda(cells [][]float64, w []float64) float64 {
	n := len(cells)
	var total float64
	for i := 0; i < n; i++ {
		if w[i] == 0 {
			continue
		}
		var row float64
		for j := 0; j < n; j++ {
			row += cells[i][j] * w[j]
		}
		total += row / w[i]
	}
	return total / float64(n)
}
