package ahp

import "sort"

// ScoreTable holds raw scores by entity and leaf.
type ScoreTable map[int64]map[LeafKey]float64

// NewScoreTable indexes scores. A later score for the same entity and leaf
// replaces an earlier one.
func NewScoreTable(scores []Score) ScoreTable {
	t := make(ScoreTable)
	for _, s := range scores {
		t.Set(s.EntityID, s.Leaf, s.Value)
	}
	return t
}

func (t ScoreTable) Set(entityID int64, leaf LeafKey, value float64) {
	row, ok := t[entityID]
	if !ok {
		row = make(map[LeafKey]float64)
		t[entityID] = row
	}
	row[leaf] = value
}

// Get returns the score, or 0 when none was recorded.
func (t ScoreTable) Get(entityID int64, leaf LeafKey) float64 {
	return t[entityID][leaf]
}

// RankedResult is one entity's total and rank.
type RankedResult struct {
	EntityID int64   `json:"entity_id"`
	Name     string  `json:"name"`
	Total    float64 `json:"total"`
	Rank     int     `json:"rank"`
	// Breakdown is the weighted contribution per criterion id.
	Breakdown map[int64]float64 `json:"breakdown"`
}

// Rank totals each entity over the leaves and orders them by total,
// highest first. Equal totals share the minimum rank (1, 2, 2, 4) and keep
// their input order.
func Rank(entities []Entity, scores ScoreTable, leaves LeafWeights) []RankedResult {
	results := make([]RankedResult, len(entities))
	for i, e := range entities {
		r := RankedResult{EntityID: e.ID, Name: e.Name, Breakdown: make(map[int64]float64)}
		for _, l := range leaves {
			contrib := l.Weight * scores.Get(e.ID, l.Key)
			r.Total += contrib
			r.Breakdown[l.CriterionID] += contrib
		}
		results[i] = r
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Total > results[j].Total
	})

	for i := range results {
		if i > 0 && results[i].Total == results[i-1].Total {
			results[i].Rank = results[i-1].Rank
			continue
		}
		// i entities precede this one and all of them scored strictly higher.
		results[i].Rank = i + 1
	}
	return results
}
