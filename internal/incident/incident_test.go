package incident

import (
	"errors"
	"testing"
)

func TestRecordValidate(t *testing.T) {
	tests := []struct {
		name    string
		record  Record
		wantErr bool
	}{
		{
			name:    "valid record",
			record:  Record{Offense: "LARCENY", Hour: 10, Month: 4, Year: 2023},
			wantErr: false,
		},
		{
			name:    "null fields",
			record:  Record{Hour: Missing, Month: Missing, Year: Missing},
			wantErr: false,
		},
		{
			name:    "hour out of range",
			record:  Record{Offense: "LARCENY", Hour: 24, Month: 4, Year: 2023},
			wantErr: true,
		},
		{
			name:    "month out of range",
			record:  Record{Offense: "LARCENY", Hour: 1, Month: 13, Year: 2023},
			wantErr: true,
		},
		{
			name:    "untrimmed offense",
			record:  Record{Offense: " LARCENY", Hour: 1, Month: 1, Year: 2023},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecordHas(t *testing.T) {
	r := Record{Offense: "ASSAULT", Hour: 0, Month: Missing, Year: 2023}
	if !r.Has(Offense) || !r.Has(Hour) || !r.Has(Year) {
		t.Errorf("expected offense, hour and year to be present: %+v", r)
	}
	if r.Has(Month) {
		t.Errorf("expected month to be null")
	}
	if (Record{Hour: 3}).Has(Offense) {
		t.Errorf("empty offense should be null")
	}
	if (Record{Offense: "  "}).Has(Offense) {
		t.Errorf("blank offense should be null")
	}
}

func TestOffenseKey(t *testing.T) {
	for _, offense := range []string{"LARCENY", " larceny", "Larceny \t"} {
		if got := (Record{Offense: offense}).OffenseKey(); got != "larceny" {
			t.Errorf("OffenseKey(%q) = %q, want %q", offense, got, "larceny")
		}
	}
}

func TestTableIsImmutable(t *testing.T) {
	src := []Record{
		{Offense: "LARCENY", Hour: 10, Month: 1, Year: 2023},
		{Offense: "ASSAULT", Hour: 11, Month: 2, Year: 2023},
	}
	tab := NewTable(src)
	src[0].Offense = "CHANGED"
	if got := tab.At(0).Offense; got != "LARCENY" {
		t.Errorf("table shares backing array with caller: got %q", got)
	}

	rs := tab.Records()
	rs[1].Offense = "CHANGED"
	if got := tab.At(1).Offense; got != "ASSAULT" {
		t.Errorf("Records() exposes internal slice: got %q", got)
	}

	filtered := tab.Filter(func(r Record) bool { return r.Month == 2 })
	if filtered.Len() != 1 || tab.Len() != 2 {
		t.Errorf("Filter: got len %d, source len %d", filtered.Len(), tab.Len())
	}
}

func TestTableCount(t *testing.T) {
	tab := NewTable([]Record{
		{Offense: "LARCENY", Hour: 10, Month: 1},
		{Offense: "", Hour: 10, Month: 1},
		{Offense: "ASSAULT", Hour: Missing, Month: 1},
	})
	if got := tab.Count(Offense); got != 2 {
		t.Errorf("Count(Offense) = %d, want 2", got)
	}
	if got := tab.Count(Offense, Hour); got != 1 {
		t.Errorf("Count(Offense, Hour) = %d, want 1", got)
	}
	var nilTab *Table
	if nilTab.Len() != 0 || len(nilTab.Records()) != 0 {
		t.Errorf("nil table should be empty")
	}
}

func TestParseColumn(t *testing.T) {
	c, err := ParseColumn("hour")
	if err != nil || c != Hour {
		t.Fatalf("ParseColumn(hour) = %v, %v", c, err)
	}
	if _, err := ParseColumn("DISTRICT"); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("expected ErrUnknownColumn, got %v", err)
	}
}
