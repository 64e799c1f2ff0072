// Package evaluation runs AHP passes over stored data, persists rankings and
// keeps them fresh when comparisons or scores change.
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MikeSquared-Agency/Merit/internal/ahp"
	"github.com/MikeSquared-Agency/Merit/internal/config"
	"github.com/MikeSquared-Agency/Merit/internal/hermes"
	"github.com/MikeSquared-Agency/Merit/internal/store"
)

type Service struct {
	store   store.Store
	hermes  hermes.Client
	engine  *ahp.Engine
	metrics *Metrics
	cfg     *config.Config
	logger  *slog.Logger

	// runMu serialises recomputations.
	runMu sync.Mutex
	dirty atomic.Bool

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New builds a Service. h and m may be nil.
func New(s store.Store, h hermes.Client, engine *ahp.Engine, m *Metrics, cfg *config.Config, logger *slog.Logger) *Service {
	if m == nil {
		m = NewMetrics()
	}
	return &Service{
		store:   s,
		hermes:  h,
		engine:  engine,
		metrics: m,
		cfg:     cfg,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
}

func (s *Service) Engine() *ahp.Engine { return s.engine }

// MarkDirty schedules a recompute on the next tick.
func (s *Service) MarkDirty() { s.dirty.Store(true) }

func (s *Service) Dirty() bool { return s.dirty.Load() }

// Preview evaluates the current data without persisting anything.
func (s *Service) Preview(ctx context.Context) (*ahp.Evaluation, error) {
	start := time.Now()
	ev, err := s.evaluate(ctx)
	s.metrics.ObserveRun(KindPreview, status(err), time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	s.logWarnings(ev)
	return ev, nil
}

// Recompute evaluates, stores the ranking as a new run and announces it.
func (s *Service) Recompute(ctx context.Context, triggeredBy string) (*store.RankingRun, *ahp.Evaluation, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	// Changes arriving after this point mark the state dirty again.
	s.dirty.Store(false)

	start := time.Now()
	run, ev, err := s.recompute(ctx, triggeredBy)
	s.metrics.ObserveRun(KindRecompute, status(err), time.Since(start).Seconds())
	if err != nil {
		return nil, nil, err
	}

	s.metrics.SetLastRun(float64(run.ComputedAt.Unix()))
	s.logger.Info("ranking computed",
		"run_id", run.ID,
		"teachers", len(run.Results),
		"criteria_cr", run.CriteriaCR,
		"consistency", run.Consistency,
		"triggered_by", triggeredBy,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return run, ev, nil
}

func (s *Service) recompute(ctx context.Context, triggeredBy string) (*store.RankingRun, *ahp.Evaluation, error) {
	ev, err := s.evaluate(ctx)
	if err != nil {
		return nil, nil, err
	}
	s.logWarnings(ev)

	run := NewRankingRun(ev, triggeredBy)
	if err := s.store.SaveRankingRun(ctx, run); err != nil {
		s.metrics.IncError("persist")
		return nil, nil, fmt.Errorf("save ranking run: %w", err)
	}
	s.publishRun(run, ev)
	return run, ev, nil
}

func (s *Service) evaluate(ctx context.Context) (*ahp.Evaluation, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		s.metrics.IncError("snapshot")
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	ev, err := s.engine.Evaluate(ctx, *snap)
	if err != nil {
		s.metrics.IncError("evaluate")
		return nil, err
	}

	inconsistent, fallbacks := tally(ev)
	s.metrics.SetInconsistent(inconsistent)
	s.metrics.AddEigenFallbacks(fallbacks)
	return ev, nil
}

// tally counts groups that are not consistent and groups whose eigen solve
// fell back to row averages.
func tally(ev *ahp.Evaluation) (inconsistent, fallbacks int) {
	for _, r := range append([]ahp.GroupResult{ev.Criteria}, groupResults(ev)...) {
		if r.Consistency != ahp.Consistent {
			inconsistent++
		}
		if errors.Is(r.Warning, ahp.ErrDegenerateEigen) {
			fallbacks++
		}
	}
	return inconsistent, fallbacks
}

// NewRankingRun converts an evaluation into a storable run.
func NewRankingRun(ev *ahp.Evaluation, triggeredBy string) *store.RankingRun {
	run := &store.RankingRun{
		Method:      ev.Criteria.Method,
		CriteriaCR:  ev.Criteria.CR,
		Consistency: ev.Criteria.Consistency,
		TriggeredBy: triggeredBy,
		Leaves:      ev.Leaves,
		Results:     make([]store.RankingResult, len(ev.Ranking)),
	}
	for i, r := range ev.Ranking {
		run.Results[i] = store.RankingResult{
			TeacherID:   r.EntityID,
			TeacherName: r.Name,
			Total:       r.Total,
			Rank:        r.Rank,
		}
	}
	return run
}

func (s *Service) publishRun(run *store.RankingRun, ev *ahp.Evaluation) {
	if s.hermes == nil {
		return
	}
	now := time.Now().UTC()

	event := hermes.RankingComputedEvent{
		RunID:       run.ID.String(),
		Method:      string(run.Method),
		CriteriaCR:  run.CriteriaCR,
		Consistency: string(run.Consistency),
		Teachers:    len(run.Results),
		TriggeredBy: run.TriggeredBy,
		Timestamp:   now,
	}
	if len(run.Results) > 0 {
		event.TopTeacher = run.Results[0].TeacherID
	}
	if err := s.hermes.Publish(hermes.SubjectRankingComputed(event.RunID), event); err != nil {
		s.logger.Warn("failed to publish ranking", "run_id", event.RunID, "error", err)
	}

	s.publishConsistency(hermes.CriteriaScope, ev.Criteria, now)
	for _, cid := range sortedCriterionIDs(ev.Subcriteria.Results) {
		s.publishConsistency(hermes.CriterionScope(cid), ev.Subcriteria.Results[cid], now)
	}
}

func (s *Service) publishConsistency(scope string, r ahp.GroupResult, now time.Time) {
	if r.Consistency == ahp.Consistent {
		return
	}
	event := hermes.ConsistencyWarningEvent{
		Scope:       scope,
		CR:          r.CR,
		Consistency: string(r.Consistency),
		Advice:      r.Consistency.Advice(),
		Timestamp:   now,
	}
	if err := s.hermes.Publish(hermes.SubjectConsistencyWarning(scope), event); err != nil {
		s.logger.Warn("failed to publish consistency warning", "scope", scope, "error", err)
	}
}

func (s *Service) logWarnings(ev *ahp.Evaluation) {
	for _, w := range ev.Warnings() {
		s.logger.Warn("evaluation warning", "error", w)
	}
}

// Start runs the auto-recompute loop when enabled.
func (s *Service) Start(ctx context.Context) {
	if !s.cfg.Evaluation.AutoRecompute {
		return
	}
	s.wg.Add(1)
	go s.recomputeLoop(ctx)
}

func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

func (s *Service) recomputeLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.RecomputeInterval())
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.recomputeIfDirty(ctx)
		}
	}
}

func (s *Service) recomputeIfDirty(ctx context.Context) {
	if !s.dirty.Load() {
		return
	}
	if _, _, err := s.Recompute(ctx, "auto"); err != nil {
		if errors.Is(err, ahp.ErrNoCriteria) {
			s.logger.Debug("skipping recompute, no criteria yet")
			return
		}
		s.logger.Error("auto recompute failed", "error", err)
		s.MarkDirty()
	}
}

// SetupSubscriptions marks the state dirty on comparison and score events
// from any writer.
func (s *Service) SetupSubscriptions() {
	if s.hermes == nil {
		return
	}
	for _, subject := range []string{hermes.SubjectAnyComparisonUpdated, hermes.SubjectAnyScoreUpdated} {
		if err := s.hermes.Subscribe(subject, func(subj string, _ []byte) {
			s.logger.Debug("inputs changed", "subject", subj)
			s.MarkDirty()
		}); err != nil {
			s.logger.Warn("failed to subscribe", "subject", subject, "error", err)
		}
	}
}

func groupResults(ev *ahp.Evaluation) []ahp.GroupResult {
	out := make([]ahp.GroupResult, 0, len(ev.Subcriteria.Results))
	for _, cid := range sortedCriterionIDs(ev.Subcriteria.Results) {
		out = append(out, ev.Subcriteria.Results[cid])
	}
	return out
}

func sortedCriterionIDs(m map[int64]ahp.GroupResult) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func status(err error) string {
	if err != nil {
		return StatusFailure
	}
	return StatusSuccess
}
