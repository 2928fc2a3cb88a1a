// Package period splits incident tables into calendar months or seasons.
//
// A Period is a closed variant: either a Month (1-12) or a Season. Seasons
// map to a fixed set of three months:
//
//	Winter = Dec, Jan, Feb
//	Spring = Mar, Apr, May
//	Summer = Jun, Jul, Aug
//	Fall   = Sep, Oct, Nov
package period

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rewired-gh/crimescope/internal/incident"
)

// Mode selects how a table is partitioned.
type Mode int

const (
	ByMonth Mode = iota
	BySeason
)

func (m Mode) String() string {
	switch m {
	case ByMonth:
		return "month"
	case BySeason:
		return "season"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses "month" or "season".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "month", "months", "monthly":
		return ByMonth, nil
	case "season", "seasons", "seasonal":
		return BySeason, nil
	}
	return 0, fmt.Errorf("%w: %q", incident.ErrUnknownPeriodMode, s)
}

// Season is one of the four fixed three-month groups.
type Season int

const (
	Winter Season = iota
	Spring
	Summer
	Fall
)

var seasonNames = [...]string{"Winter", "Spring", "Summer", "Fall"}

var seasonMonths = [...][3]int{
	Winter: {12, 1, 2},
	Spring: {3, 4, 5},
	Summer: {6, 7, 8},
	Fall:   {9, 10, 11},
}

func (s Season) String() string {
	if s < Winter || s > Fall {
		return fmt.Sprintf("Season(%d)", int(s))
	}
	return seasonNames[s]
}

// Months returns the three months of s in calendar-season order.
func (s Season) Months() []int {
	m := seasonMonths[s]
	return m[:]
}

// SeasonOf returns the season containing month.
func SeasonOf(month int) (Season, bool) {
	for s := Winter; s <= Fall; s++ {
		for _, m := range seasonMonths[s] {
			if m == month {
				return s, true
			}
		}
	}
	return 0, false
}

// ParseSeason parses a season name, case-insensitively. "Autumn" is
// accepted for Fall.
func ParseSeason(name string) (Season, error) {
	n := strings.TrimSpace(name)
	for s := Winter; s <= Fall; s++ {
		if strings.EqualFold(n, seasonNames[s]) {
			return s, nil
		}
	}
	if strings.EqualFold(n, "autumn") {
		return Fall, nil
	}
	return 0, fmt.Errorf("%w: %q", incident.ErrUnknownSeason, name)
}

var monthNames = [...]string{
	"January", "February", "March", "April", "May", "June", "July",
	"August", "September", "October", "November", "December",
}

// MonthName returns the English name of month, or "" when out of range.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}

// ParseMonth parses a month number ("4") or English name ("April", "apr").
func ParseMonth(s string) (int, error) {
	n := strings.TrimSpace(s)
	if m, err := strconv.Atoi(n); err == nil {
		if m >= 1 && m <= 12 {
			return m, nil
		}
		return 0, fmt.Errorf("%w: %d is not between 1 and 12", incident.ErrUnknownMonth, m)
	}
	if len(n) >= 3 {
		for i, name := range monthNames {
			if strings.EqualFold(n, name) || strings.EqualFold(n, name[:3]) {
				return i + 1, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", incident.ErrUnknownMonth, s)
}

// Period identifies a month or a season.
type Period struct {
	mode   Mode
	month  int
	season Season
}

// Month returns the period for month m. It panics if m is not 1-12; use
// ParseMonth to validate untrusted input.
func Month(m int) Period {
	if m < 1 || m > 12 {
		panic(fmt.Sprintf("period: month %d out of range", m))
	}
	return Period{mode: ByMonth, month: m}
}

// OfSeason returns the period for season s.
func OfSeason(s Season) Period {
	if s < Winter || s > Fall {
		panic(fmt.Sprintf("period: invalid season %d", int(s)))
	}
	return Period{mode: BySeason, season: s}
}

// Mode reports whether p is a month or a season.
func (p Period) Mode() Mode {
	return p.mode
}

// Month returns p's month number and true, or 0 and false for a season.
func (p Period) Month() (int, bool) {
	if p.mode != ByMonth {
		return 0, false
	}
	return p.month, true
}

// Season returns p's season and true, or false for a month.
func (p Period) Season() (Season, bool) {
	if p.mode != BySeason {
		return 0, false
	}
	return p.season, true
}

// Months returns the calendar months covered by p.
func (p Period) Months() []int {
	if p.mode == BySeason {
		return p.season.Months()
	}
	return []int{p.month}
}

// Contains reports whether month falls in p.
func (p Period) Contains(month int) bool {
	for _, m := range p.Months() {
		if m == month {
			return true
		}
	}
	return false
}

// String returns the month number for months ("4") and the season name for
// seasons ("Spring"). The zero Period is "".
func (p Period) String() string {
	if p.mode == BySeason {
		return p.season.String()
	}
	if p.month == 0 {
		return ""
	}
	return strconv.Itoa(p.month)
}

// Label returns a human readable name: "April" or "Spring".
func (p Period) Label() string {
	if p.mode == BySeason {
		return p.season.String()
	}
	return MonthName(p.month)
}

// Parse parses a period in the given mode.
func Parse(mode Mode, s string) (Period, error) {
	switch mode {
	case ByMonth:
		m, err := ParseMonth(s)
		if err != nil {
			return Period{}, err
		}
		return Month(m), nil
	case BySeason:
		season, err := ParseSeason(s)
		if err != nil {
			return Period{}, err
		}
		return OfSeason(season), nil
	}
	return Period{}, fmt.Errorf("%w: %v", incident.ErrUnknownPeriodMode, mode)
}

// ParseAny parses a season name or, failing that, a month number or name.
// "Spring" is a season and "April" or "4" is a month.
func ParseAny(s string) (Period, error) {
	if p, err := Parse(BySeason, s); err == nil {
		return p, nil
	}
	return Parse(ByMonth, s)
}

// Periods returns every period of mode in display order: January through
// December for months; Spring, Summer, Fall, Winter for seasons.
func Periods(mode Mode) []Period {
	switch mode {
	case ByMonth:
		ps := make([]Period, 0, 12)
		for m := 1; m <= 12; m++ {
			ps = append(ps, Month(m))
		}
		return ps
	case BySeason:
		return []Period{OfSeason(Spring), OfSeason(Summer), OfSeason(Fall), OfSeason(Winter)}
	}
	return nil
}

// MarshalText encodes p as its String form so periods can key JSON objects.
func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes the String form of a month or season.
func (p *Period) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*p = Period{}
		return nil
	}
	parsed, err := ParseAny(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
