package hermes

import "time"

type ComparisonsUpdatedEvent struct {
	// CriterionID is zero for the top-level criteria matrix.
	CriterionID int64     `json:"criterion_id,omitempty"`
	Count       int       `json:"count"`
	Reset       bool      `json:"reset,omitempty"`
	// RemovedPair is set when a single judgment was deleted.
	RemovedPair []int64   `json:"removed_pair,omitempty"`
	AssessorID  string    `json:"assessor_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

type ScoreUpdatedEvent struct {
	TeacherID int64 `json:"teacher_id"`
	Count     int   `json:"count"`
	// TeacherDeleted is set when the teacher and all their scores were removed.
	TeacherDeleted bool      `json:"teacher_deleted,omitempty"`
	AssessorID     string    `json:"assessor_id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

type RankingComputedEvent struct {
	RunID       string    `json:"run_id"`
	Method      string    `json:"method"`
	CriteriaCR  float64   `json:"criteria_cr"`
	Consistency string    `json:"consistency"`
	Teachers    int       `json:"teachers"`
	TopTeacher  int64     `json:"top_teacher_id,omitempty"`
	TriggeredBy string    `json:"triggered_by"`
	Timestamp   time.Time `json:"timestamp"`
}

type ConsistencyWarningEvent struct {
	Scope       string    `json:"scope"`
	CR          float64   `json:"cr"`
	Consistency string    `json:"consistency"`
	Advice      string    `json:"advice"`
	Timestamp   time.Time `json:"timestamp"`
}
