package ahp

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Options configures an Engine.
type Options struct {
	Method     Method
	Missing    MissingPolicy
	Thresholds Thresholds
}

// Engine runs the full weighting and ranking pipeline.
type Engine struct {
	solver  *Solver
	missing MissingPolicy
	thresh  Thresholds
}

// NewEngine fills zero options with defaults: eigenvector method, neutral
// missing comparisons and 0.10 / 0.20 thresholds.
func NewEngine(opts Options) *Engine {
	if opts.Missing == "" {
		opts.Missing = MissingNeutral
	}
	if opts.Thresholds == (Thresholds{}) {
		opts.Thresholds = DefaultThresholds()
	}
	return &Engine{
		solver:  NewSolver(opts.Method).WithThresholds(opts.Thresholds),
		missing: opts.Missing,
		thresh:  opts.Thresholds,
	}
}

func (e *Engine) Method() Method               { return e.solver.Method() }
func (e *Engine) MissingPolicy() MissingPolicy { return e.missing }

// Options returns the effective options after defaults were applied.
func (e *Engine) Options() Options {
	return Options{Method: e.solver.Method(), Missing: e.missing, Thresholds: e.thresh}
}

// ClassifyConsistency classifies cr with the engine's thresholds.
func (e *Engine) ClassifyConsistency(cr float64) Consistency {
	return e.thresh.Classify(cr)
}

// GroupResult is the solve of one comparison group.
type GroupResult struct {
	Weights map[int64]float64 `json:"weights"`
	Result
}

// SolveMatrix builds and solves a single group.
func (e *Engine) SolveMatrix(items []Item, comparisons []Comparison) (GroupResult, error) {
	m, err := Build(items, comparisons, e.missing)
	if err != nil {
		return GroupResult{}, err
	}
	res, err := e.solver.Solve(m)
	if err != nil {
		return GroupResult{}, err
	}
	return GroupResult{Weights: res.WeightsByID(m), Result: res}, nil
}

// SolveCriteriaWeights solves the top-level criteria matrix.
func (e *Engine) SolveCriteriaWeights(criteria []Item, comparisons []Comparison) (GroupResult, error) {
	if len(criteria) == 0 {
		return GroupResult{}, ErrNoCriteria
	}
	res, err := e.SolveMatrix(criteria, comparisons)
	if err != nil {
		return GroupResult{}, fmt.Errorf("criteria matrix: %w", err)
	}
	return res, nil
}

// SubcriteriaOutcome holds the per-criterion solves.
type SubcriteriaOutcome struct {
	// Weights holds local weights by criterion, then sub-criterion.
	Weights map[int64]map[int64]float64 `json:"weights"`
	// Results holds the full solve (including CR) by criterion.
	Results map[int64]GroupResult `json:"results"`
	// Skipped lists groups whose matrix could not be built; those criteria
	// are scored at criterion level.
	Skipped map[int64]error `json:"-"`
}

// CR returns the consistency ratio by criterion.
func (o SubcriteriaOutcome) CR() map[int64]float64 {
	out := make(map[int64]float64, len(o.Results))
	for cid, r := range o.Results {
		out[cid] = r.CR
	}
	return out
}

// SolveSubcriteriaWeights solves every criterion's sub-criteria matrix. The
// groups are independent and are solved in parallel.
func (e *Engine) SolveSubcriteriaWeights(ctx context.Context, criteria []Item, subsByCriterion map[int64][]Item, comparisonsByCriterion map[int64][]Comparison) (SubcriteriaOutcome, error) {
	out := SubcriteriaOutcome{
		Weights: make(map[int64]map[int64]float64),
		Results: make(map[int64]GroupResult),
		Skipped: make(map[int64]error),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range criteria {
		subs := subsByCriterion[c.ID]
		if len(subs) == 0 {
			continue
		}
		cid := c.ID
		comps := comparisonsByCriterion[cid]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := e.solveGroup(cid, subs, comps)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				out.Skipped[cid] = err
				return nil
			}
			out.Weights[cid] = res.Weights
			out.Results[cid] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SubcriteriaOutcome{}, err
	}
	return out, nil
}

func (e *Engine) solveGroup(criterionID int64, subs []Item, comps []Comparison) (GroupResult, error) {
	for _, s := range subs {
		if s.ParentID != 0 && s.ParentID != criterionID {
			return GroupResult{}, fmt.Errorf("%w: sub-criterion %d belongs to %d, not %d", ErrUnknownItem, s.ID, s.ParentID, criterionID)
		}
	}
	if len(subs) == 1 {
		// Nothing to compare.
		return GroupResult{
			Weights: map[int64]float64{subs[0].ID: 1},
			Result: Result{
				Weights:     []float64{1},
				LambdaMax:   1,
				Method:      e.solver.Method(),
				Consistency: e.thresh.Classify(0),
			},
		}, nil
	}
	res, err := e.SolveMatrix(subs, comps)
	if err != nil {
		return GroupResult{}, fmt.Errorf("criterion %d: %w", criterionID, err)
	}
	return res, nil
}

// ComputeRanking aggregates leaf weights and ranks entities by score.
func (e *Engine) ComputeRanking(entities []Entity, criteriaWeights map[int64]float64, subWeights map[int64]map[int64]float64, scores []Score) ([]RankedResult, LeafWeights, error) {
	if len(criteriaWeights) == 0 {
		return nil, nil, ErrNoCriteria
	}
	leaves, err := Aggregate(criteriaWeights, subWeights)
	if err != nil {
		return nil, nil, err
	}
	return Rank(entities, NewScoreTable(scores), leaves), leaves, nil
}

// Snapshot is a consistent read of everything one evaluation needs.
type Snapshot struct {
	Criteria               []Item
	CriteriaComparisons    []Comparison
	SubsByCriterion        map[int64][]Item
	ComparisonsByCriterion map[int64][]Comparison
	Entities               []Entity
	Scores                 []Score
}

// Evaluation is the full output of one pass.
type Evaluation struct {
	Criteria    GroupResult        `json:"criteria"`
	Subcriteria SubcriteriaOutcome `json:"subcriteria"`
	Leaves      LeafWeights        `json:"leaves"`
	Ranking     []RankedResult     `json:"ranking"`
}

// Warnings lists non-fatal problems: degenerate eigen solves and skipped groups.
func (ev *Evaluation) Warnings() []error {
	var out []error
	if ev.Criteria.Warning != nil {
		out = append(out, fmt.Errorf("criteria: %w", ev.Criteria.Warning))
	}
	for _, cid := range sortedKeys(ev.Subcriteria.Results) {
		if w := ev.Subcriteria.Results[cid].Warning; w != nil {
			out = append(out, fmt.Errorf("criterion %d: %w", cid, w))
		}
	}
	for _, cid := range sortedKeys(ev.Subcriteria.Skipped) {
		out = append(out, fmt.Errorf("criterion %d skipped: %w", cid, ev.Subcriteria.Skipped[cid]))
	}
	return out
}

// Evaluate runs criteria weights, sub-criteria weights, aggregation and
// ranking over snap. Only a failure of the criteria solve aborts the pass.
func (e *Engine) Evaluate(ctx context.Context, snap Snapshot) (*Evaluation, error) {
	crit, err := e.SolveCriteriaWeights(snap.Criteria, snap.CriteriaComparisons)
	if err != nil {
		return nil, err
	}
	subs, err := e.SolveSubcriteriaWeights(ctx, snap.Criteria, snap.SubsByCriterion, snap.ComparisonsByCriterion)
	if err != nil {
		return nil, err
	}
	ranking, leaves, err := e.ComputeRanking(snap.Entities, crit.Weights, subs.Weights, snap.Scores)
	if err != nil {
		return nil, err
	}
	return &Evaluation{
		Criteria:    crit,
		Subcriteria: subs,
		Leaves:      leaves,
		Ranking:     ranking,
	}, nil
}
