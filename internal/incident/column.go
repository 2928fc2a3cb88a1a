package incident

import (
	"fmt"
	"strings"
)

// Column names one of the record fields the analysis packages group on.
type Column int

const (
	Offense Column = iota
	Hour
	Month
	Year
)

// Source column headers in the incident file.
const (
	HeaderOffense = "OFFENSE_DESCRIPTION"
	HeaderHour    = "HOUR"
	HeaderMonth   = "MONTH"
	HeaderYear    = "YEAR"
)

// Header returns the source file header for c.
func (c Column) Header() string {
	switch c {
	case Offense:
		return HeaderOffense
	case Hour:
		return HeaderHour
	case Month:
		return HeaderMonth
	case Year:
		return HeaderYear
	}
	return fmt.Sprintf("Column(%d)", int(c))
}

func (c Column) String() string {
	return c.Header()
}

// ParseColumn maps a source header (case-insensitive) to its Column.
func ParseColumn(name string) (Column, error) {
	for _, c := range []Column{Offense, Hour, Month, Year} {
		if strings.EqualFold(name, c.Header()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
}
