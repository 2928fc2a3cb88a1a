package period

import (
	"fmt"

	"github.com/rewired-gh/crimescope/internal/incident"
)

// Partitions maps each period of one mode to its sub-table.
type Partitions map[Period]*incident.Table

// Rows returns the total number of records across all partitions.
func (ps Partitions) Rows() int {
	n := 0
	for _, t := range ps {
		n += t.Len()
	}
	return n
}

// PartitionByMonth returns one sub-table per calendar month. All twelve
// months are present, empty ones holding an empty table. Records with a
// null or out-of-range month are dropped.
func PartitionByMonth(t *incident.Table) Partitions {
	return partition(t, ByMonth)
}

// PartitionBySeason returns one sub-table per season. All four seasons are
// present.
func PartitionBySeason(t *incident.Table) Partitions {
	return partition(t, BySeason)
}

// Partition dispatches to PartitionByMonth or PartitionBySeason.
func Partition(t *incident.Table, mode Mode) (Partitions, error) {
	switch mode {
	case ByMonth, BySeason:
		return partition(t, mode), nil
	}
	return nil, fmt.Errorf("%w: %v", incident.ErrUnknownPeriodMode, mode)
}

// Lookup returns the sub-table of p, or an empty table if p is not in ps.
func Lookup(ps Partitions, p Period) *incident.Table {
	if t, ok := ps[p]; ok {
		return t
	}
	return incident.NewTable(nil)
}

func partition(t *incident.Table, mode Mode) Partitions {
	buckets := make(map[Period][]incident.Record)
	for i := 0; i < t.Len(); i++ {
		r := t.At(i)
		p, ok := periodOf(r.Month, mode)
		if !ok {
			continue
		}
		buckets[p] = append(buckets[p], r)
	}

	ps := make(Partitions)
	for _, p := range Periods(mode) {
		ps[p] = incident.NewTable(buckets[p])
	}
	return ps
}

func periodOf(month int, mode Mode) (Period, bool) {
	if month < 1 || month > 12 {
		return Period{}, false
	}
	if mode == BySeason {
		s, _ := SeasonOf(month)
		return OfSeason(s), true
	}
	return Month(month), true
}
