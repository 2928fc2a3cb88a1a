// Package aggregate turns incident tables into grouped counts.
//
// GroupCount is the single counting primitive; thresholding, the offense/hour
// association ("local network"), hourly series and the ranking package are
// all built on top of it. Every function here is pure: inputs are never
// modified and a fresh result is returned on each call.
package aggregate

import (
	"fmt"
	"strconv"

	"github.com/rewired-gh/crimescope/internal/incident"
)

// Key identifies one group. Only the fields named by the grouping columns
// are meaningful; the rest hold their zero value. Offense keys are
// lower-cased.
type Key struct {
	Offense string
	Hour    int
	Month   int
	Year    int
}

// Value returns the key's value for col as display text.
func (k Key) Value(col incident.Column) string {
	switch col {
	case incident.Offense:
		return k.Offense
	case incident.Hour:
		return strconv.Itoa(k.Hour)
	case incident.Month:
		return strconv.Itoa(k.Month)
	case incident.Year:
		return strconv.Itoa(k.Year)
	}
	return ""
}

// Entry is one group and the number of records in it.
type Entry struct {
	Key   Key
	Count int
}

// GroupedCount maps each observed key combination to its record count.
// Entries are kept in first-encountered order; combinations absent from the
// data have no entry.
type GroupedCount struct {
	Columns []incident.Column
	Entries []Entry
	index   map[Key]int
}

// Len returns the number of groups.
func (g GroupedCount) Len() int {
	return len(g.Entries)
}

// Get returns the count for k and whether k was observed.
func (g GroupedCount) Get(k Key) (int, bool) {
	i, ok := g.index[k]
	if !ok {
		return 0, false
	}
	return g.Entries[i].Count, true
}

// Total returns the sum of all counts.
func (g GroupedCount) Total() int {
	n := 0
	for _, e := range g.Entries {
		n += e.Count
	}
	return n
}

// GroupCount counts the records of t per distinct combination of cols.
// One or two key columns are accepted. Records with a null in any key
// column are skipped.
func GroupCount(t *incident.Table, cols ...incident.Column) (GroupedCount, error) {
	if err := checkColumns(cols); err != nil {
		return GroupedCount{}, err
	}

	g := GroupedCount{
		Columns: append([]incident.Column(nil), cols...),
		index:   make(map[Key]int),
	}
	for i := 0; i < t.Len(); i++ {
		r := t.At(i)
		k, ok := keyOf(r, cols)
		if !ok {
			continue
		}
		if j, seen := g.index[k]; seen {
			g.Entries[j].Count++
			continue
		}
		g.index[k] = len(g.Entries)
		g.Entries = append(g.Entries, Entry{Key: k, Count: 1})
	}
	return g, nil
}

// ThresholdFilter returns the groups of g whose count is at least minCount,
// in their original order.
func ThresholdFilter(g GroupedCount, minCount int) (GroupedCount, error) {
	if minCount < 0 {
		return GroupedCount{}, fmt.Errorf("%w: got %d", incident.ErrNegativeThreshold, minCount)
	}

	out := GroupedCount{
		Columns: append([]incident.Column(nil), g.Columns...),
		index:   make(map[Key]int),
	}
	for _, e := range g.Entries {
		if e.Count < minCount {
			continue
		}
		out.index[e.Key] = len(out.Entries)
		out.Entries = append(out.Entries, e)
	}
	return out, nil
}

func checkColumns(cols []incident.Column) error {
	if len(cols) < 1 || len(cols) > 2 {
		return fmt.Errorf("%w: got %d", incident.ErrKeyColumns, len(cols))
	}
	if len(cols) == 2 && cols[0] == cols[1] {
		return fmt.Errorf("%w: %s given twice", incident.ErrKeyColumns, cols[0])
	}
	for _, c := range cols {
		switch c {
		case incident.Offense, incident.Hour, incident.Month, incident.Year:
		default:
			return fmt.Errorf("%w: %s", incident.ErrUnknownColumn, c)
		}
	}
	return nil
}

func keyOf(r incident.Record, cols []incident.Column) (Key, bool) {
	var k Key
	for _, c := range cols {
		if !r.Has(c) {
			return Key{}, false
		}
		switch c {
		case incident.Offense:
			k.Offense = r.OffenseKey()
		case incident.Hour:
			k.Hour = r.Hour
		case incident.Month:
			k.Month = r.Month
		case incident.Year:
			k.Year = r.Year
		}
	}
	return k, true
}
