// Package rank selects the most frequent categories per period and shapes
// the results for seasonality comparison.
//
// Counting is delegated to aggregate.GroupCount; this package only sorts,
// truncates, flattens and filters. Sorting is stable, so ties keep the
// order in which categories were first encountered in the period's table.
package rank

import (
	"fmt"
	"sort"

	"github.com/rewired-gh/crimescope/internal/aggregate"
	"github.com/rewired-gh/crimescope/internal/incident"
	"github.com/rewired-gh/crimescope/internal/period"
)

// Entry is one ranked category and its frequency.
type Entry struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// RankedPeriod is the top categories of a single period, most frequent
// first.
type RankedPeriod struct {
	Period  period.Period `json:"period"`
	Entries []Entry       `json:"entries"`
}

// Ranking holds one RankedPeriod per period.
type Ranking map[period.Period]RankedPeriod

// TopN counts the distinct values of col in t and returns the n most
// frequent. Fewer than n categories yields all of them.
func TopN(t *incident.Table, col incident.Column, n int) ([]Entry, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: got %d", incident.ErrNonPositiveN, n)
	}
	g, err := aggregate.GroupCount(t, col)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, g.Len())
	for _, e := range g.Entries {
		entries = append(entries, Entry{Category: e.Key.Value(col), Count: e.Count})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

// RankAll applies TopN to every partition.
func RankAll(ps period.Partitions, col incident.Column, n int) (Ranking, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: got %d", incident.ErrNonPositiveN, n)
	}
	out := make(Ranking, len(ps))
	for p, t := range ps {
		entries, err := TopN(t, col, n)
		if err != nil {
			return nil, fmt.Errorf("failed to rank %s: %w", p, err)
		}
		out[p] = RankedPeriod{Period: p, Entries: entries}
	}
	return out, nil
}

// Ordered returns the ranked periods of r following order. Periods missing
// from r are skipped.
func (r Ranking) Ordered(order []period.Period) []RankedPeriod {
	out := make([]RankedPeriod, 0, len(order))
	for _, p := range order {
		if rp, ok := r[p]; ok {
			out = append(out, rp)
		}
	}
	return out
}
