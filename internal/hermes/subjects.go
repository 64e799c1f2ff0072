package hermes

import "strconv"

const (
	SubjectCriteriaComparisonsUpdated = "merit.comparison.criteria.updated"
	SubjectAnyComparisonUpdated       = "merit.comparison.>"
	SubjectAnyScoreUpdated            = "merit.score.*.updated"

	StreamName     = "MERIT_EVENTS"
	StreamSubjects = "merit.>"
	StreamMaxAge   = "2160h" // 90 days
)

func SubjectSubcriteriaComparisonsUpdated(criterionID int64) string {
	return "merit.comparison.criterion." + strconv.FormatInt(criterionID, 10) + ".updated"
}

func SubjectScoreUpdated(teacherID int64) string {
	return "merit.score." + strconv.FormatInt(teacherID, 10) + ".updated"
}

func SubjectRankingComputed(runID string) string { return "merit.ranking." + runID + ".computed" }

// SubjectConsistencyWarning is published per matrix whose CR is not
// consistent. scope is "criteria" or "criterion.<id>".
func SubjectConsistencyWarning(scope string) string {
	return "merit.consistency." + scope + ".warning"
}

func CriterionScope(criterionID int64) string {
	return "criterion." + strconv.FormatInt(criterionID, 10)
}

const CriteriaScope = "criteria"
