package ahp

import (
	"fmt"
	"math"
	"strings"
)

// MissingPolicy decides what an unjudged pair means.
type MissingPolicy string

const (
	// MissingNeutral treats an unjudged pair as "equally important" (ratio 1).
	MissingNeutral MissingPolicy = "neutral"
	// MissingReject refuses to build a matrix until every pair is judged.
	MissingReject MissingPolicy = "reject"
)

// ParseMissingPolicy accepts "neutral" or "reject" (case-insensitive); empty means neutral.
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch MissingPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", MissingNeutral:
		return MissingNeutral, nil
	case MissingReject:
		return MissingReject, nil
	default:
		return "", fmt.Errorf("unknown missing comparison policy %q", s)
	}
}

// Matrix is a positive reciprocal comparison matrix over an ordered item list.
type Matrix struct {
	ids   []int64
	index map[int64]int
	cells [][]float64
}

// Build assembles a reciprocal matrix. Row and column i belong to items[i],
// which is how callers map weights back to ids.
func Build(items []Item, comparisons []Comparison, policy MissingPolicy) (*Matrix, error) {
	n := len(items)
	if n < 1 {
		return nil, ErrInsufficientItems
	}

	m := &Matrix{
		ids:   make([]int64, n),
		index: make(map[int64]int, n),
		cells: make([][]float64, n),
	}
	for i, it := range items {
		if _, dup := m.index[it.ID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateItem, it.ID)
		}
		m.ids[i] = it.ID
		m.index[it.ID] = i
		m.cells[i] = make([]float64, n)
		m.cells[i][i] = 1
	}

	set := make([][]bool, n)
	for i := range set {
		set[i] = make([]bool, n)
	}

	for _, c := range comparisons {
		i, ok := m.index[c.A]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownItem, c.A)
		}
		j, ok := m.index[c.B]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownItem, c.B)
		}
		if i == j {
			return nil, fmt.Errorf("%w: %d", ErrSelfComparison, c.A)
		}
		if err := checkRatio(c.A, c.B, c.Ratio); err != nil {
			return nil, err
		}
		if set[i][j] {
			return nil, fmt.Errorf("%w: (%d, %d)", ErrDuplicateComparison, c.A, c.B)
		}
		m.cells[i][j] = c.Ratio
		m.cells[j][i] = 1 / c.Ratio
		set[i][j], set[j][i] = true, true
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if set[i][j] {
				continue
			}
			if policy == MissingReject {
				return nil, fmt.Errorf("%w: (%d, %d)", ErrMissingComparison, m.ids[i], m.ids[j])
			}
			m.cells[i][j] = 1
			m.cells[j][i] = 1
		}
	}
	return m, nil
}

// NewMatrixFromRows wraps raw rows, e.g. a matrix posted to the stateless
// solve endpoint. Rows must be square, positive and reciprocal within 1e-6.
func NewMatrixFromRows(ids []int64, rows [][]float64) (*Matrix, error) {
	n := len(rows)
	if n < 1 {
		return nil, ErrInsufficientItems
	}
	if len(ids) != n {
		return nil, fmt.Errorf("%d ids for %d rows", len(ids), n)
	}
	m := &Matrix{ids: append([]int64(nil), ids...), index: make(map[int64]int, n), cells: make([][]float64, n)}
	for i, id := range ids {
		if _, dup := m.index[id]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateItem, id)
		}
		m.index[id] = i
	}
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("row %d has %d columns, want %d", i, len(row), n)
		}
		m.cells[i] = append([]float64(nil), row...)
	}
	for i := 0; i < n; i++ {
		if m.cells[i][i] != 1 {
			return nil, fmt.Errorf("diagonal cell %d is %g, want 1", i, m.cells[i][i])
		}
		for j := i + 1; j < n; j++ {
			if err := checkRatio(ids[i], ids[j], m.cells[i][j]); err != nil {
				return nil, err
			}
			if err := checkRatio(ids[j], ids[i], m.cells[j][i]); err != nil {
				return nil, err
			}
			want := 1 / m.cells[i][j]
			if d := math.Abs(m.cells[j][i] - want); math.IsNaN(d) || d > 1e-6*want {
				return nil, fmt.Errorf("cells (%d,%d) and (%d,%d) are not reciprocal", i, j, j, i)
			}
		}
	}
	return m, nil
}

// Order is the matrix dimension n.
func (m *Matrix) Order() int { return len(m.ids) }

// Items returns the item ids in row order.
func (m *Matrix) Items() []int64 { return append([]int64(nil), m.ids...) }

// Index returns the row of an item id.
func (m *Matrix) Index(id int64) (int, bool) {
	i, ok := m.index[id]
	return i, ok
}

// At returns M[i][j].
func (m *Matrix) At(i, j int) float64 { return m.cells[i][j] }

// Rows returns a copy of the cells.
func (m *Matrix) Rows() [][]float64 {
	out := make([][]float64, len(m.cells))
	for i, row := range m.cells {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
