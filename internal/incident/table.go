package incident

// Table is an ordered, read-only collection of records. Every operation
// that narrows a table returns a new Table; the receiver is never modified.
type Table struct {
	records []Record
}

// NewTable returns a table holding a copy of records.
func NewTable(records []Record) *Table {
	rs := make([]Record, len(records))
	copy(rs, records)
	return &Table{records: rs}
}

// Len returns the number of records in t. A nil table is empty.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// At returns the i'th record.
func (t *Table) At(i int) Record {
	return t.records[i]
}

// Records returns a copy of the records in t.
func (t *Table) Records() []Record {
	rs := make([]Record, t.Len())
	if t != nil {
		copy(rs, t.records)
	}
	return rs
}

// Filter returns a new table of the records for which keep returns true,
// in their original order.
func (t *Table) Filter(keep func(Record) bool) *Table {
	var out []Record
	for i := 0; i < t.Len(); i++ {
		if keep(t.records[i]) {
			out = append(out, t.records[i])
		}
	}
	return &Table{records: out}
}

// Count returns the number of records with a non-null value in every
// column of cols.
func (t *Table) Count(cols ...Column) int {
	n := 0
	for i := 0; i < t.Len(); i++ {
		if hasAll(t.records[i], cols) {
			n++
		}
	}
	return n
}

func hasAll(r Record, cols []Column) bool {
	for _, c := range cols {
		if !r.Has(c) {
			return false
		}
	}
	return true
}
