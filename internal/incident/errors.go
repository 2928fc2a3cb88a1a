package incident

import "errors"

// Usage errors. These signal a caller-contract violation and are never
// produced by the data itself; callers can test for them with errors.Is.
var (
	ErrNegativeThreshold = errors.New("minimum count must not be negative")
	ErrNonPositiveN      = errors.New("n must be at least 1")
	ErrKeyColumns        = errors.New("grouping needs one or two key columns")
	ErrUnknownColumn     = errors.New("unknown column")
	ErrUnknownPeriodMode = errors.New("unknown period mode")
	ErrUnknownSeason     = errors.New("unknown season")
	ErrUnknownMonth      = errors.New("unknown month")
)
