package rank

import (
	"sort"
	"strings"

	"github.com/rewired-gh/crimescope/internal/period"
)

// Row is one (period, category, frequency) line of a flattened ranking.
type Row struct {
	Period    period.Period `json:"period"`
	Category  string        `json:"category"`
	Frequency int           `json:"frequency"`
}

// Flatten turns r into rows, period by period in the given order and rank
// order within each period.
func Flatten(r Ranking, order []period.Period) []Row {
	var rows []Row
	for _, rp := range r.Ordered(order) {
		for _, e := range rp.Entries {
			rows = append(rows, Row{Period: rp.Period, Category: e.Category, Frequency: e.Count})
		}
	}
	return rows
}

// Group reassembles rows into ranked periods following order, keeping at
// most n rows per period. Every period of order is present.
func Group(rows []Row, order []period.Period, n int) []RankedPeriod {
	byPeriod := make(map[period.Period][]Entry, len(order))
	for _, r := range rows {
		if n > 0 && len(byPeriod[r.Period]) >= n {
			continue
		}
		byPeriod[r.Period] = append(byPeriod[r.Period], Entry{Category: r.Category, Count: r.Frequency})
	}
	out := make([]RankedPeriod, len(order))
	for i, p := range order {
		out[i] = RankedPeriod{Period: p, Entries: byPeriod[p]}
	}
	return out
}

// Exclude returns the rows whose category is not in set. Matching ignores
// case.
func Exclude(rows []Row, set []string) []Row {
	idx := categorySet(set)
	return filterRows(rows, func(r Row) bool {
		return !idx[strings.ToLower(r.Category)]
	})
}

// Include returns the rows whose category is in set. Matching ignores case.
func Include(rows []Row, set []string) []Row {
	idx := categorySet(set)
	return filterRows(rows, func(r Row) bool {
		return idx[strings.ToLower(r.Category)]
	})
}

// MatchKeyword returns the rows whose category contains keyword, ignoring
// case.
func MatchKeyword(rows []Row, keyword string) []Row {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	return filterRows(rows, func(r Row) bool {
		return strings.Contains(strings.ToLower(r.Category), kw)
	})
}

// Total is the summed frequency of one period.
type Total struct {
	Period    period.Period `json:"period"`
	Frequency int           `json:"frequency"`
}

// Totals sums the frequencies of rows per period, one entry per period of
// order (zero when a period has no rows). Rows for periods outside order
// are ignored.
func Totals(rows []Row, order []period.Period) []Total {
	sums := make(map[period.Period]int)
	for _, r := range rows {
		sums[r.Period] += r.Frequency
	}
	out := make([]Total, len(order))
	for i, p := range order {
		out[i] = Total{Period: p, Frequency: sums[p]}
	}
	return out
}

// Trend is one category's frequency in each period of an order.
type Trend struct {
	Category    string `json:"category"`
	Frequencies []int  `json:"frequencies"`
}

// Pivot reshapes rows into one Trend per category, sorted by category.
// Frequencies line up with order; a period where the category did not
// rank holds zero.
func Pivot(rows []Row, order []period.Period) []Trend {
	pos := make(map[period.Period]int, len(order))
	for i, p := range order {
		pos[p] = i
	}

	byCat := make(map[string][]int)
	for _, r := range rows {
		i, ok := pos[r.Period]
		if !ok {
			continue
		}
		fs, ok := byCat[r.Category]
		if !ok {
			fs = make([]int, len(order))
			byCat[r.Category] = fs
		}
		fs[i] += r.Frequency
	}

	out := make([]Trend, 0, len(byCat))
	for c, fs := range byCat {
		out = append(out, Trend{Category: c, Frequencies: fs})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Category < out[j].Category
	})
	return out
}

// Share is one category's fraction of each period's total.
type Share struct {
	Category  string    `json:"category"`
	Fractions []float64 `json:"fractions"`
}

// Normalize divides every trend value by its period's total across all
// trends. Periods with no frequency stay at zero.
func Normalize(trends []Trend) []Share {
	if len(trends) == 0 {
		return nil
	}
	width := len(trends[0].Frequencies)
	sums := make([]int, width)
	for _, t := range trends {
		for i, f := range t.Frequencies {
			sums[i] += f
		}
	}

	out := make([]Share, len(trends))
	for k, t := range trends {
		fr := make([]float64, width)
		for i, f := range t.Frequencies {
			if sums[i] > 0 {
				fr[i] = float64(f) / float64(sums[i])
			}
		}
		out[k] = Share{Category: t.Category, Fractions: fr}
	}
	return out
}

func categorySet(set []string) map[string]bool {
	idx := make(map[string]bool, len(set))
	for _, c := range set {
		idx[strings.ToLower(strings.TrimSpace(c))] = true
	}
	return idx
}

func filterRows(rows []Row, keep func(Row) bool) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
