package ahp

import (
	"errors"
	"math"
	"testing"
)

func items(ids ...int64) []Item {
	out := make([]Item, len(ids))
	for i, id := range ids {
		out[i] = Item{ID: id, Name: "item"}
	}
	return out
}

func TestBuildReciprocal(t *testing.T) {
	m, err := Build(items(10, 20, 30), []Comparison{{A: 10, B: 20, Ratio: 3}, {A: 30, B: 10, Ratio: 0.2}}, MissingNeutral)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if m.Order() != 3 {
		t.Fatalf("expected order 3, got %d", m.Order())
	}
	for i := 0; i < 3; i++ {
		if m.At(i, i) != 1 {
			t.Errorf("diagonal %d: expected 1, got %f", i, m.At(i, i))
		}
		for j := 0; j < 3; j++ {
			if m.At(j, i) != 1/m.At(i, j) {
				t.Errorf("M[%d][%d]=%f is not the reciprocal of M[%d][%d]=%f", j, i, m.At(j, i), i, j, m.At(i, j))
			}
		}
	}
	if m.At(0, 1) != 3 {
		t.Errorf("expected M[0][1]=3, got %f", m.At(0, 1))
	}
	if m.At(2, 0) != 0.2 || m.At(0, 2) != 5 {
		t.Errorf("expected M[2][0]=0.2 and M[0][2]=5, got %f and %f", m.At(2, 0), m.At(0, 2))
	}
	// unset pair defaults to no preference
	if m.At(1, 2) != 1 || m.At(2, 1) != 1 {
		t.Errorf("expected unset pair to be 1, got %f / %f", m.At(1, 2), m.At(2, 1))
	}
	if idx, ok := m.Index(30); !ok || idx != 2 {
		t.Errorf("expected item 30 at row 2, got %d (%v)", idx, ok)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name   string
		items  []Item
		comps  []Comparison
		policy MissingPolicy
		want   error
	}{
		{"no items", nil, nil, MissingNeutral, ErrInsufficientItems},
		{"zero ratio", items(1, 2), []Comparison{{A: 1, B: 2, Ratio: 0}}, MissingNeutral, ErrInvalidRatio},
		{"negative ratio", items(1, 2), []Comparison{{A: 1, B: 2, Ratio: -3}}, MissingNeutral, ErrInvalidRatio},
		{"unknown item", items(1, 2), []Comparison{{A: 1, B: 7, Ratio: 2}}, MissingNeutral, ErrUnknownItem},
		{"self", items(1, 2), []Comparison{{A: 2, B: 2, Ratio: 1}}, MissingNeutral, ErrSelfComparison},
		{"duplicate pair", items(1, 2), []Comparison{{A: 1, B: 2, Ratio: 2}, {A: 2, B: 1, Ratio: 0.5}}, MissingNeutral, ErrDuplicateComparison},
		{"duplicate item", items(1, 1), nil, MissingNeutral, ErrDuplicateItem},
		{"reject missing", items(1, 2, 3), []Comparison{{A: 1, B: 2, Ratio: 2}}, MissingReject, ErrMissingComparison},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.items, tt.comps, tt.policy)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestBuildRejectPolicyComplete(t *testing.T) {
	comps := []Comparison{{A: 1, B: 2, Ratio: 2}, {A: 1, B: 3, Ratio: 4}, {A: 2, B: 3, Ratio: 2}}
	if _, err := Build(items(1, 2, 3), comps, MissingReject); err != nil {
		t.Errorf("expected complete matrix to build under reject policy, got %v", err)
	}
}

func TestBuildSingleItem(t *testing.T) {
	m, err := Build(items(5), nil, MissingReject)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if m.Order() != 1 || m.At(0, 0) != 1 {
		t.Errorf("expected 1x1 identity, got %v", m.Rows())
	}
}

func TestNewMatrixFromRows(t *testing.T) {
	_, err := NewMatrixFromRows([]int64{1, 2}, [][]float64{{1, 2}, {0.5, 1}})
	if err != nil {
		t.Fatalf("expected valid matrix, got %v", err)
	}
	if _, err := NewMatrixFromRows([]int64{1, 2}, [][]float64{{1, 2}, {3, 1}}); err == nil {
		t.Error("expected non-reciprocal rows to fail")
	}
	if _, err := NewMatrixFromRows([]int64{1, 2}, [][]float64{{1, 2}}); err == nil {
		t.Error("expected id/row mismatch to fail")
	}
	if _, err := NewMatrixFromRows([]int64{1, 2}, [][]float64{{2, 2}, {0.5, 1}}); err == nil {
		t.Error("expected bad diagonal to fail")
	}
	nan, inf := math.NaN(), math.Inf(1)
	bad := map[string][][]float64{
		"nan below diagonal":  {{1, 3, 5}, {nan, 1, 2}, {0.2, 0.5, 1}},
		"nan above diagonal":  {{1, nan, 5}, {1.0 / 3, 1, 2}, {0.2, 0.5, 1}},
		"inf below diagonal":  {{1, 3, 5}, {1.0 / 3, 1, 2}, {inf, 0.5, 1}},
		"zero below diagonal": {{1, 3, 5}, {0, 1, 2}, {0.2, 0.5, 1}},
		"negative below":      {{1, 3, 5}, {1.0 / 3, 1, 2}, {0.2, -0.5, 1}},
	}
	for name, rows := range bad {
		t.Run(name, func(t *testing.T) {
			_, err := NewMatrixFromRows([]int64{1, 2, 3}, rows)
			if !errors.Is(err, ErrInvalidRatio) {
				t.Errorf("expected ErrInvalidRatio, got %v", err)
			}
		})
	}
}

func TestNewComparison(t *testing.T) {
	if _, err := NewComparison(1, 2, 9); err != nil {
		t.Errorf("expected 9 to be valid, got %v", err)
	}
	if _, err := NewComparison(1, 2, 1.0/9.0); err != nil {
		t.Errorf("expected 1/9 to be valid, got %v", err)
	}
	if _, err := NewComparison(1, 2, 0.111); err != nil {
		t.Errorf("expected rounded 1/9 to be valid, got %v", err)
	}
	_, err := NewComparison(1, 2, 12)
	if !errors.Is(err, ErrRatioOutOfScale) || !errors.Is(err, ErrInvalidRatio) {
		t.Errorf("expected out-of-scale invalid ratio, got %v", err)
	}
	if _, err := NewComparison(1, 2, 0); !errors.Is(err, ErrInvalidRatio) {
		t.Errorf("expected invalid ratio, got %v", err)
	}
	if _, err := NewComparison(3, 3, 1); !errors.Is(err, ErrSelfComparison) {
		t.Errorf("expected self comparison error, got %v", err)
	}

	c := Comparison{A: 1, B: 2, Ratio: 4}
	r := c.Reciprocal()
	if r.A != 2 || r.B != 1 || r.Ratio != 0.25 {
		t.Errorf("unexpected reciprocal %+v", r)
	}
}

func TestNewItemAndScore(t *testing.T) {
	if _, err := NewItem(0, "x", 0); !errors.Is(err, ErrInvalidItem) {
		t.Errorf("expected invalid item for id 0, got %v", err)
	}
	if _, err := NewItem(1, "  ", 0); !errors.Is(err, ErrInvalidItem) {
		t.Errorf("expected invalid item for blank name, got %v", err)
	}
	if _, err := NewItem(4, "Pedagogy", 4); !errors.Is(err, ErrInvalidItem) {
		t.Errorf("expected invalid item for self parent, got %v", err)
	}
	if it, err := NewItem(4, "Pedagogy", 1); err != nil || it.ParentID != 1 {
		t.Errorf("expected valid item, got %+v, %v", it, err)
	}

	if _, err := NewScore(1, LeafKey{Level: "nope", ID: 1}, 3); !errors.Is(err, ErrInvalidScore) {
		t.Errorf("expected invalid score for bad level, got %v", err)
	}
	if _, err := NewScore(1, SubcriterionLeaf(2), 87.5); err != nil {
		t.Errorf("expected valid score, got %v", err)
	}
}

func TestParsePolicies(t *testing.T) {
	if p, err := ParseMissingPolicy(""); err != nil || p != MissingNeutral {
		t.Errorf("expected neutral default, got %q, %v", p, err)
	}
	if p, err := ParseMissingPolicy("Reject"); err != nil || p != MissingReject {
		t.Errorf("expected reject, got %q, %v", p, err)
	}
	if _, err := ParseMissingPolicy("zero"); err == nil {
		t.Error("expected error for unknown policy")
	}
	if m, err := ParseMethod("row_average"); err != nil || m != MethodRowAverage {
		t.Errorf("expected row_average, got %q, %v", m, err)
	}
	if _, err := ParseMethod("geometric"); err == nil {
		t.Error("expected error for unknown method")
	}
}
