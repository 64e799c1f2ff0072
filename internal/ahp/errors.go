package ahp

import "errors"

var (
	// ErrInvalidRatio is returned for a comparison ratio that is <= 0, NaN or infinite.
	ErrInvalidRatio = errors.New("invalid comparison ratio")
	// ErrRatioOutOfScale wraps ErrInvalidRatio for ratios outside the Saaty scale [1/9, 9].
	ErrRatioOutOfScale = errors.New("comparison ratio outside [1/9, 9]")
	// ErrInsufficientItems is returned when a matrix is built from no items.
	ErrInsufficientItems = errors.New("at least one item is required")
	// ErrDegenerateEigen marks a solve that fell back to the row-average method.
	ErrDegenerateEigen = errors.New("degenerate eigen result")
	// ErrMissingComparison is returned under MissingReject when a pair has no judgment.
	ErrMissingComparison = errors.New("missing comparison")

	ErrSelfComparison      = errors.New("item compared with itself")
	ErrDuplicateComparison = errors.New("duplicate comparison for pair")
	ErrDuplicateItem       = errors.New("duplicate item id")
	ErrUnknownItem         = errors.New("unknown item")
	ErrInvalidItem         = errors.New("invalid item")
	ErrInvalidScore        = errors.New("invalid score")
	ErrNotNormalized       = errors.New("weights do not sum to 1")
	ErrNoCriteria          = errors.New("no criteria weights")
)
