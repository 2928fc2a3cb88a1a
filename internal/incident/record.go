// Package incident defines the core domain entities for crimescope.
// These models represent single crime reports and the immutable tables the
// analysis packages derive their summaries from.
//
// Terminology (matching the Boston police dataset):
//   - Offense: the OFFENSE_DESCRIPTION label of a report, e.g. "LARCENY".
//   - Record: one row of the incident file.
//   - Table: an ordered, read-only collection of records.
package incident

import (
	"errors"
	"strings"
)

// Missing marks an integer field that was null or unreadable in the source.
const Missing = -1

// Record represents a single crime report.
//
// Integer fields hold Missing when the source value was null; an empty
// Offense is null. Extra carries any pass-through columns the loader was
// asked to keep and is never inspected by the analysis packages.
type Record struct {
	Offense string            `json:"offense"` // OFFENSE_DESCRIPTION, trimmed
	Hour    int               `json:"hour"`    // 0-23
	Month   int               `json:"month"`   // 1-12
	Year    int               `json:"year"`
	Extra   map[string]string `json:"extra,omitempty"`
}

// OffenseKey returns the trimmed, case-normalized offense used for
// matching.
func (r Record) OffenseKey() string {
	return strings.ToLower(strings.TrimSpace(r.Offense))
}

// Has reports whether the record carries a non-null value for col.
func (r Record) Has(col Column) bool {
	switch col {
	case Offense:
		return strings.TrimSpace(r.Offense) != ""
	case Hour:
		return r.Hour != Missing
	case Month:
		return r.Month != Missing
	case Year:
		return r.Year != Missing
	}
	return false
}

// Validate checks that every non-null field is in range.
func (r *Record) Validate() error {
	if r.Hour != Missing && (r.Hour < 0 || r.Hour > 23) {
		return errors.New("hour must be between 0 and 23")
	}
	if r.Month != Missing && (r.Month < 1 || r.Month > 12) {
		return errors.New("month must be between 1 and 12")
	}
	if r.Year != Missing && r.Year < 0 {
		return errors.New("year must not be negative")
	}
	if strings.TrimSpace(r.Offense) != r.Offense {
		return errors.New("offense must be trimmed")
	}
	return nil
}
