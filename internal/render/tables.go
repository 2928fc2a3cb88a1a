// Package render presents analysis results as aligned text tables and SVG
// charts.
//
// Tables are laid out by go-gg's table printer and charts are drawn with
// go-gg's grammar-of-graphics plotter. Empty inputs never fail: tables print
// a "No Data Available" line and charts are titled the same way.
package render

import (
	"bytes"
	"fmt"
	"io"

	"github.com/aclements/go-gg/table"

	"github.com/rewired-gh/crimescope/internal/aggregate"
	"github.com/rewired-gh/crimescope/internal/rank"
)

// NoData is printed in place of an empty table or chart.
const NoData = "No Data Available"

// NetworkTable prints the offense/hour links of a local network.
func NetworkTable(w io.Writer, a aggregate.Association) error {
	if a.Len() == 0 {
		return noData(w)
	}
	offenses := make([]string, a.Len())
	hours := make([]int, a.Len())
	counts := make([]int, a.Len())
	for i, l := range a.Links {
		offenses[i] = l.Offense
		hours[i] = l.Hour
		counts[i] = l.Count
	}
	tab := new(table.Builder).
		Add("offense", offenses).
		Add("hour", hours).
		Add("count", counts).
		Done()
	return fprint(w, tab)
}

// HourlyTable prints an hourly series.
func HourlyTable(w io.Writer, series []aggregate.HourCount) error {
	if len(series) == 0 {
		return noData(w)
	}
	hours := make([]int, len(series))
	counts := make([]int, len(series))
	for i, hc := range series {
		hours[i] = hc.Hour
		counts[i] = hc.Count
	}
	tab := new(table.Builder).
		Add("hour", hours).
		Add("count", counts).
		Done()
	return fprint(w, tab)
}

// RankingTable prints ranked periods, one line per entry with its
// position inside the period.
func RankingTable(w io.Writer, ranked []rank.RankedPeriod) error {
	var (
		periods, offenses []string
		positions, counts []int
	)
	for _, rp := range ranked {
		for i, e := range rp.Entries {
			periods = append(periods, rp.Period.Label())
			positions = append(positions, i+1)
			offenses = append(offenses, e.Category)
			counts = append(counts, e.Count)
		}
	}
	if len(periods) == 0 {
		return noData(w)
	}
	tab := new(table.Builder).
		Add("period", periods).
		Add("rank", positions).
		Add("offense", offenses).
		Add("count", counts).
		Done()
	return fprint(w, tab)
}

// TotalsTable prints per-period totals.
func TotalsTable(w io.Writer, totals []rank.Total) error {
	if len(totals) == 0 {
		return noData(w)
	}
	periods := make([]string, len(totals))
	freqs := make([]int, len(totals))
	for i, t := range totals {
		periods[i] = t.Period.Label()
		freqs[i] = t.Frequency
	}
	tab := new(table.Builder).
		Add("period", periods).
		Add("total", freqs).
		Done()
	return fprint(w, tab)
}

// TrendTable prints one line per category with its frequency in each
// period.
func TrendTable(w io.Writer, trends []rank.Trend, labels []string) error {
	if len(trends) == 0 {
		return noData(w)
	}
	b := new(table.Builder)
	cats := make([]string, len(trends))
	for i, t := range trends {
		cats[i] = t.Category
	}
	b.Add("offense", cats)
	for j, label := range labels {
		col := make([]int, len(trends))
		for i, t := range trends {
			if j < len(t.Frequencies) {
				col[i] = t.Frequencies[j]
			}
		}
		b.Add(label, col)
	}
	return fprint(w, b.Done())
}

func fprint(w io.Writer, tab *table.Table) error {
	var buf bytes.Buffer
	table.Fprint(&buf, tab)
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	return nil
}

func noData(w io.Writer) error {
	if _, err := fmt.Fprintln(w, NoData); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	return nil
}
