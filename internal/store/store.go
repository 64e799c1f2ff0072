package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Merit/internal/ahp"
	"github.com/MikeSquared-Agency/Merit/internal/stats"
)

type Teacher struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	NIP       string     `json:"nip,omitempty"`
	Position  string     `json:"position,omitempty"`
	JoinedOn  *time.Time `json:"joined_on,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Entity returns the ranking view of the teacher.
func (t *Teacher) Entity() ahp.Entity {
	return ahp.Entity{ID: t.ID, Name: t.Name}
}

type Criterion struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	Subcriteria []*Subcriterion `json:"subcriteria"`
}

func (c *Criterion) Item() ahp.Item {
	return ahp.Item{ID: c.ID, Name: c.Name}
}

type Subcriterion struct {
	ID          int64     `json:"id"`
	CriterionID int64     `json:"criterion_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Subcriterion) Item() ahp.Item {
	return ahp.Item{ID: s.ID, Name: s.Name, ParentID: s.CriterionID}
}

// ScoreRecord is one stored score. Exactly one of CriterionID and
// SubcriterionID is set.
type ScoreRecord struct {
	ID             int64     `json:"id"`
	TeacherID      int64     `json:"teacher_id"`
	CriterionID    *int64    `json:"criterion_id,omitempty"`
	SubcriterionID *int64    `json:"subcriterion_id,omitempty"`
	Value          float64   `json:"value"`
	AssessedOn     time.Time `json:"assessed_on"`
	AssessorID     string    `json:"assessor_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Leaf returns the leaf the score is recorded against.
func (s *ScoreRecord) Leaf() ahp.LeafKey {
	if s.SubcriterionID != nil {
		return ahp.SubcriterionLeaf(*s.SubcriterionID)
	}
	if s.CriterionID != nil {
		return ahp.CriterionLeaf(*s.CriterionID)
	}
	return ahp.LeafKey{}
}

type RankingRun struct {
	ID          uuid.UUID       `json:"run_id"`
	Method      ahp.Method      `json:"method"`
	CriteriaCR  float64         `json:"criteria_cr"`
	Consistency ahp.Consistency `json:"consistency"`
	TriggeredBy string          `json:"triggered_by"`
	Leaves      ahp.LeafWeights `json:"leaves"`
	ComputedAt  time.Time       `json:"computed_at"`
	Results     []RankingResult `json:"results"`
}

type RankingResult struct {
	TeacherID   int64   `json:"teacher_id"`
	TeacherName string  `json:"teacher_name"`
	Total       float64 `json:"total"`
	Rank        int     `json:"rank"`
}

// ObservationFilter narrows the scores used for correlation.
type ObservationFilter struct {
	TeacherID *int64
	From      *time.Time
	To        *time.Time
}

// NormalizePair orders a comparison so A < B, inverting the ratio when the
// pair is flipped. Each unordered pair is stored once.
func NormalizePair(c ahp.Comparison) ahp.Comparison {
	if c.A > c.B {
		return c.Reciprocal()
	}
	return c
}

// orderedPair returns a and b with the smaller id first, matching how
// NormalizePair stores comparisons.
func orderedPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

type Store interface {
	// Teachers
	CreateTeacher(ctx context.Context, t *Teacher) error
	GetTeacher(ctx context.Context, id int64) (*Teacher, error)
	ListTeachers(ctx context.Context) ([]*Teacher, error)
	// UpdateTeacher and DeleteTeacher report false when the id does not exist.
	UpdateTeacher(ctx context.Context, t *Teacher) (bool, error)
	DeleteTeacher(ctx context.Context, id int64) (bool, error)

	// Criteria
	CreateCriterion(ctx context.Context, c *Criterion) error
	GetCriterion(ctx context.Context, id int64) (*Criterion, error)
	ListCriteria(ctx context.Context) ([]*Criterion, error)
	CreateSubcriterion(ctx context.Context, s *Subcriterion) error
	ListSubcriteria(ctx context.Context, criterionID int64) ([]*Subcriterion, error)

	// Comparisons
	ListCriteriaComparisons(ctx context.Context) ([]ahp.Comparison, error)
	UpsertCriteriaComparisons(ctx context.Context, comps []ahp.Comparison, assessorID string) error
	ResetCriteriaComparisons(ctx context.Context) error
	// DeleteCriteriaComparison removes one pair in either order; false when
	// no judgment was stored for it.
	DeleteCriteriaComparison(ctx context.Context, a, b int64) (bool, error)
	ListSubcriteriaComparisons(ctx context.Context, criterionID int64) ([]ahp.Comparison, error)
	UpsertSubcriteriaComparisons(ctx context.Context, criterionID int64, comps []ahp.Comparison, assessorID string) error
	ResetSubcriteriaComparisons(ctx context.Context, criterionID int64) error
	DeleteSubcriteriaComparison(ctx context.Context, criterionID, a, b int64) (bool, error)

	// Scores
	UpsertScores(ctx context.Context, scores []*ScoreRecord) error
	ListObservations(ctx context.Context, filter ObservationFilter) ([]stats.Observation, []stats.Column, error)

	// Snapshot reads everything one evaluation needs in a single transaction.
	Snapshot(ctx context.Context) (*ahp.Snapshot, error)

	// Rankings
	SaveRankingRun(ctx context.Context, run *RankingRun) error
	GetLatestRankingRun(ctx context.Context) (*RankingRun, error)

	Close() error
}
