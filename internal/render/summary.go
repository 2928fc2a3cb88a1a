package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/aclements/go-gg/table"
	"github.com/aclements/go-moremath/stats"

	"github.com/rewired-gh/crimescope/internal/period"
	"github.com/rewired-gh/crimescope/internal/rank"
)

// Stats summarises a set of period totals.
type Stats struct {
	Periods int           `json:"periods"`
	Total   int           `json:"total"`
	Mean    float64       `json:"mean"`
	StdDev  float64       `json:"stddev"`
	Min     float64       `json:"min"`
	Max     float64       `json:"max"`
	Peak    period.Period `json:"peak"`
	Trough  period.Period `json:"trough"`
}

// Summary computes descriptive statistics over totals. Peak and Trough are
// the first periods holding the maximum and minimum.
func Summary(totals []rank.Total) Stats {
	s := Stats{Periods: len(totals)}
	if len(totals) == 0 {
		return s
	}

	xs := make([]float64, len(totals))
	peak, trough := 0, 0
	for i, t := range totals {
		xs[i] = float64(t.Frequency)
		s.Total += t.Frequency
		if t.Frequency > totals[peak].Frequency {
			peak = i
		}
		if t.Frequency < totals[trough].Frequency {
			trough = i
		}
	}
	s.Mean = stats.Mean(xs)
	s.Min, s.Max = stats.Bounds(xs)
	if len(xs) > 1 {
		s.StdDev = stats.StdDev(xs)
	}
	s.Peak = totals[peak].Period
	s.Trough = totals[trough].Period
	return s
}

// SummaryTable prints s as a statistic/value table.
func SummaryTable(w io.Writer, s Stats) error {
	if s.Periods == 0 {
		return noData(w)
	}
	tab := new(table.Builder).
		Add("statistic", []string{"periods", "total", "mean", "stddev", "min", "max"}).
		Add("value", []string{
			strconv.Itoa(s.Periods),
			strconv.Itoa(s.Total),
			fmt.Sprintf("%.1f", s.Mean),
			fmt.Sprintf("%.1f", s.StdDev),
			fmt.Sprintf("%.0f (%s)", s.Min, s.Trough.Label()),
			fmt.Sprintf("%.0f (%s)", s.Max, s.Peak.Label()),
		}).
		Done()
	return fprint(w, tab)
}
