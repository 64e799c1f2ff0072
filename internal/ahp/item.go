// Package ahp implements the Analytic Hierarchy Process used to weight
// assessment criteria and rank teachers.
//
// Everything in this package is a pure function of its inputs: matrices are
// built from comparison snapshots, solved, aggregated over the
// criterion/sub-criterion hierarchy and combined with raw scores. Nothing is
// cached between calls.
package ahp

import (
	"fmt"
	"math"
	"strings"
)

// Saaty scale bounds for a single judgment.
const (
	MinRatio = 1.0 / 9.0
	MaxRatio = 9.0
)

// Item is anything that takes part in a comparison: a criterion or a
// sub-criterion. ParentID is zero for top-level criteria.
type Item struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ParentID int64  `json:"parent_id,omitempty"`
}

// NewItem validates and returns an Item.
func NewItem(id int64, name string, parentID int64) (Item, error) {
	if id <= 0 {
		return Item{}, fmt.Errorf("%w: id must be positive, got %d", ErrInvalidItem, id)
	}
	if strings.TrimSpace(name) == "" {
		return Item{}, fmt.Errorf("%w: name required for item %d", ErrInvalidItem, id)
	}
	if parentID < 0 || parentID == id {
		return Item{}, fmt.Errorf("%w: bad parent %d for item %d", ErrInvalidItem, parentID, id)
	}
	return Item{ID: id, Name: name, ParentID: parentID}, nil
}

// Comparison is a directed judgment: weight(A) / weight(B) = Ratio.
// The reciprocal (B, A, 1/Ratio) is implied and never stored.
type Comparison struct {
	A     int64   `json:"item_a"`
	B     int64   `json:"item_b"`
	Ratio float64 `json:"ratio"`
}

// NewComparison validates a judgment against the Saaty scale. Out-of-scale
// ratios are rejected, never clamped.
func NewComparison(a, b int64, ratio float64) (Comparison, error) {
	if a == b {
		return Comparison{}, fmt.Errorf("%w: %d", ErrSelfComparison, a)
	}
	if err := checkRatio(a, b, ratio); err != nil {
		return Comparison{}, err
	}
	// Allow a little slack so 1/9 entered as 0.111 still passes.
	if ratio < MinRatio-1e-3 || ratio > MaxRatio+1e-9 {
		return Comparison{}, fmt.Errorf("%w: %w: (%d, %d) = %g", ErrInvalidRatio, ErrRatioOutOfScale, a, b, ratio)
	}
	return Comparison{A: a, B: b, Ratio: ratio}, nil
}

// Reciprocal returns the implied comparison (B, A, 1/Ratio).
func (c Comparison) Reciprocal() Comparison {
	return Comparison{A: c.B, B: c.A, Ratio: 1 / c.Ratio}
}

func checkRatio(a, b int64, ratio float64) error {
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return fmt.Errorf("%w: (%d, %d) = %g", ErrInvalidRatio, a, b, ratio)
	}
	return nil
}

// Level says whether a leaf is addressed as a criterion or a sub-criterion.
type Level string

const (
	LevelCriterion    Level = "criterion"
	LevelSubcriterion Level = "subcriterion"
)

// LeafKey addresses a scoring leaf. Criteria and sub-criteria have separate
// id spaces, so the level is part of the key.
type LeafKey struct {
	Level Level `json:"level"`
	ID    int64 `json:"id"`
}

func CriterionLeaf(id int64) LeafKey    { return LeafKey{Level: LevelCriterion, ID: id} }
func SubcriterionLeaf(id int64) LeafKey { return LeafKey{Level: LevelSubcriterion, ID: id} }

func (k LeafKey) String() string {
	return fmt.Sprintf("%s:%d", k.Level, k.ID)
}

// Entity is a person being ranked.
type Entity struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Score is one raw judgment of an entity against a leaf.
type Score struct {
	EntityID int64   `json:"entity_id"`
	Leaf     LeafKey `json:"leaf"`
	Value    float64 `json:"value"`
}

// NewScore validates and returns a Score.
func NewScore(entityID int64, leaf LeafKey, value float64) (Score, error) {
	if entityID <= 0 {
		return Score{}, fmt.Errorf("%w: entity id must be positive, got %d", ErrInvalidScore, entityID)
	}
	if leaf.ID <= 0 || (leaf.Level != LevelCriterion && leaf.Level != LevelSubcriterion) {
		return Score{}, fmt.Errorf("%w: bad leaf %s", ErrInvalidScore, leaf)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Score{}, fmt.Errorf("%w: non-finite value for entity %d", ErrInvalidScore, entityID)
	}
	return Score{EntityID: entityID, Leaf: leaf, Value: value}, nil
}
