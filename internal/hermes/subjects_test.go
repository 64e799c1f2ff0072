package hermes

import (
	"strings"
	"testing"
)

func TestSubjects(t *testing.T) {
	tests := []struct{ got, want string }{
		{SubjectSubcriteriaComparisonsUpdated(7), "merit.comparison.criterion.7.updated"},
		{SubjectScoreUpdated(42), "merit.score.42.updated"},
		{SubjectRankingComputed("abc"), "merit.ranking.abc.computed"},
		{SubjectConsistencyWarning(CriteriaScope), "merit.consistency.criteria.warning"},
		{SubjectConsistencyWarning(CriterionScope(3)), "merit.consistency.criterion.3.warning"},
		{SubjectCriteriaComparisonsUpdated, "merit.comparison.criteria.updated"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("expected %s, got %s", tt.want, tt.got)
		}
	}
}

func TestSubjectsInsideStream(t *testing.T) {
	prefix := strings.TrimSuffix(StreamSubjects, ">")
	for _, s := range []string{
		SubjectCriteriaComparisonsUpdated,
		SubjectSubcriteriaComparisonsUpdated(1),
		SubjectScoreUpdated(1),
		SubjectRankingComputed("x"),
		SubjectConsistencyWarning(CriteriaScope),
	} {
		if !strings.HasPrefix(s, prefix) {
			t.Errorf("subject %s is not captured by stream %s", s, StreamSubjects)
		}
	}
}
