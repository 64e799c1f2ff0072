package ahp

import (
	"fmt"
	"math"
	"sort"
)

// weightTolerance is the relative tolerance for "sums to 1".
const weightTolerance = 1e-9

// Leaf is the global weight of one scoring unit.
type Leaf struct {
	Key         LeafKey `json:"key"`
	CriterionID int64   `json:"criterion_id"`
	Weight      float64 `json:"weight"`
}

// LeafWeights is ordered by criterion id, then leaf id.
type LeafWeights []Leaf

// Sum adds the weights in order.
func (lw LeafWeights) Sum() float64 {
	var s float64
	for _, l := range lw {
		s += l.Weight
	}
	return s
}

// Lookup returns the weight of key.
func (lw LeafWeights) Lookup(key LeafKey) (float64, bool) {
	for _, l := range lw {
		if l.Key == key {
			return l.Weight, true
		}
	}
	return 0, false
}

// Aggregate flattens the two-level hierarchy into leaf weights.
//
//	>=2 subs: leaf(sub) = w(criterion) * w_local(sub)
//	 1 sub:  leaf(sub) = w(criterion)
//	 0 subs: leaf(criterion) = w(criterion)
//
// criteriaWeights and every local group must each sum to 1.
func Aggregate(criteriaWeights map[int64]float64, subWeights map[int64]map[int64]float64) (LeafWeights, error) {
	if len(criteriaWeights) == 0 {
		return nil, ErrNoCriteria
	}
	if err := checkNormalized("criteria", criteriaWeights); err != nil {
		return nil, err
	}
	for cid, group := range subWeights {
		if _, ok := criteriaWeights[cid]; !ok {
			return nil, fmt.Errorf("%w: sub-criteria for criterion %d", ErrUnknownItem, cid)
		}
		if len(group) > 1 {
			if err := checkNormalized(fmt.Sprintf("criterion %d", cid), group); err != nil {
				return nil, err
			}
		}
	}

	criteria := sortedKeys(criteriaWeights)
	leaves := make(LeafWeights, 0, len(criteria))
	for _, cid := range criteria {
		cw := criteriaWeights[cid]
		group := subWeights[cid]
		switch len(group) {
		case 0:
			leaves = append(leaves, Leaf{Key: CriterionLeaf(cid), CriterionID: cid, Weight: cw})
		case 1:
			for sid := range group {
				leaves = append(leaves, Leaf{Key: SubcriterionLeaf(sid), CriterionID: cid, Weight: cw})
			}
		default:
			for _, sid := range sortedKeys(group) {
				leaves = append(leaves, Leaf{Key: SubcriterionLeaf(sid), CriterionID: cid, Weight: cw * group[sid]})
			}
		}
	}
	return leaves, nil
}

func checkNormalized(scope string, weights map[int64]float64) error {
	var sum float64
	for _, id := range sortedKeys(weights) {
		w := weights[id]
		if w < 0 || math.IsNaN(w) {
			return fmt.Errorf("%w: %s has weight %g for %d", ErrNotNormalized, scope, w, id)
		}
		sum += w
	}
	if math.Abs(sum-1) > weightTolerance*float64(len(weights)) {
		return fmt.Errorf("%w: %s sums to %.12f", ErrNotNormalized, scope, sum)
	}
	return nil
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
