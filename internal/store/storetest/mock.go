// Package storetest provides a testify mock of store.Store.
package storetest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/MikeSquared-Agency/Merit/internal/ahp"
	"github.com/MikeSquared-Agency/Merit/internal/stats"
	"github.com/MikeSquared-Agency/Merit/internal/store"
)

// MockStore implements store.Store.
type MockStore struct {
	mock.Mock
}

var _ store.Store = (*MockStore)(nil)

func (m *MockStore) CreateTeacher(ctx context.Context, t *store.Teacher) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockStore) GetTeacher(ctx context.Context, id int64) (*store.Teacher, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Teacher), args.Error(1)
}

func (m *MockStore) ListTeachers(ctx context.Context) ([]*store.Teacher, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.Teacher), args.Error(1)
}

func (m *MockStore) UpdateTeacher(ctx context.Context, t *store.Teacher) (bool, error) {
	args := m.Called(ctx, t)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) DeleteTeacher(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) DeleteCriteriaComparison(ctx context.Context, a, b int64) (bool, error) {
	args := m.Called(ctx, a, b)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) DeleteSubcriteriaComparison(ctx context.Context, criterionID, a, b int64) (bool, error) {
	args := m.Called(ctx, criterionID, a, b)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) CreateCriterion(ctx context.Context, c *store.Criterion) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockStore) GetCriterion(ctx context.Context, id int64) (*store.Criterion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Criterion), args.Error(1)
}

func (m *MockStore) ListCriteria(ctx context.Context) ([]*store.Criterion, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.Criterion), args.Error(1)
}

func (m *MockStore) CreateSubcriterion(ctx context.Context, s *store.Subcriterion) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockStore) ListSubcriteria(ctx context.Context, criterionID int64) ([]*store.Subcriterion, error) {
	args := m.Called(ctx, criterionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.Subcriterion), args.Error(1)
}

func (m *MockStore) ListCriteriaComparisons(ctx context.Context) ([]ahp.Comparison, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ahp.Comparison), args.Error(1)
}

func (m *MockStore) UpsertCriteriaComparisons(ctx context.Context, comps []ahp.Comparison, assessorID string) error {
	args := m.Called(ctx, comps, assessorID)
	return args.Error(0)
}

func (m *MockStore) ResetCriteriaComparisons(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStore) ListSubcriteriaComparisons(ctx context.Context, criterionID int64) ([]ahp.Comparison, error) {
	args := m.Called(ctx, criterionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ahp.Comparison), args.Error(1)
}

func (m *MockStore) UpsertSubcriteriaComparisons(ctx context.Context, criterionID int64, comps []ahp.Comparison, assessorID string) error {
	args := m.Called(ctx, criterionID, comps, assessorID)
	return args.Error(0)
}

func (m *MockStore) ResetSubcriteriaComparisons(ctx context.Context, criterionID int64) error {
	args := m.Called(ctx, criterionID)
	return args.Error(0)
}

func (m *MockStore) UpsertScores(ctx context.Context, scores []*store.ScoreRecord) error {
	args := m.Called(ctx, scores)
	return args.Error(0)
}

func (m *MockStore) ListObservations(ctx context.Context, filter store.ObservationFilter) ([]stats.Observation, []stats.Column, error) {
	args := m.Called(ctx, filter)
	var obs []stats.Observation
	var cols []stats.Column
	if v := args.Get(0); v != nil {
		obs = v.([]stats.Observation)
	}
	if v := args.Get(1); v != nil {
		cols = v.([]stats.Column)
	}
	return obs, cols, args.Error(2)
}

func (m *MockStore) Snapshot(ctx context.Context) (*ahp.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ahp.Snapshot), args.Error(1)
}

func (m *MockStore) SaveRankingRun(ctx context.Context, run *store.RankingRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockStore) GetLatestRankingRun(ctx context.Context) (*store.RankingRun, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.RankingRun), args.Error(1)
}

func (m *MockStore) Close() error { return nil }

// Publisher records published events and lets tests deliver messages to
// registered handlers. It implements hermes.Client.
type Publisher struct {
	Published []Published
	handlers  map[string][]func(string, []byte)
}

type Published struct {
	Subject string
	Data    interface{}
}

func (p *Publisher) Publish(subject string, data interface{}) error {
	p.Published = append(p.Published, Published{Subject: subject, Data: data})
	return nil
}

func (p *Publisher) Subscribe(subject string, handler func(string, []byte)) error {
	if p.handlers == nil {
		p.handlers = make(map[string][]func(string, []byte))
	}
	p.handlers[subject] = append(p.handlers[subject], handler)
	return nil
}

// Deliver invokes every handler registered for pattern with subject and data.
func (p *Publisher) Deliver(pattern, subject string, data []byte) {
	for _, h := range p.handlers[pattern] {
		h(subject, data)
	}
}

func (p *Publisher) Connected() bool { return true }
func (p *Publisher) Close()          {}

// Subjects lists the published subjects in order.
func (p *Publisher) Subjects() []string {
	out := make([]string, len(p.Published))
	for i, e := range p.Published {
		out[i] = e.Subject
	}
	return out
}
