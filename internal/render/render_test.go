package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/crimescope/internal/aggregate"
	"github.com/rewired-gh/crimescope/internal/period"
	"github.com/rewired-gh/crimescope/internal/rank"
)

func seasonTotals(freqs ...int) []rank.Total {
	order := period.Periods(period.BySeason)
	out := make([]rank.Total, len(freqs))
	for i, f := range freqs {
		out[i] = rank.Total{Period: order[i], Frequency: f}
	}
	return out
}

func TestTablesEmpty(t *testing.T) {
	tests := []struct {
		name string
		draw func(*bytes.Buffer) error
	}{
		{"network", func(b *bytes.Buffer) error { return NetworkTable(b, aggregate.Association{}) }},
		{"hourly", func(b *bytes.Buffer) error { return HourlyTable(b, nil) }},
		{"ranking", func(b *bytes.Buffer) error {
			return RankingTable(b, []rank.RankedPeriod{{Period: period.Month(1)}})
		}},
		{"totals", func(b *bytes.Buffer) error { return TotalsTable(b, nil) }},
		{"trend", func(b *bytes.Buffer) error { return TrendTable(b, nil, nil) }},
		{"summary", func(b *bytes.Buffer) error { return SummaryTable(b, Summary(nil)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tt.draw(&buf))
			assert.Equal(t, NoData+"\n", buf.String())
		})
	}
}

func TestNetworkTable(t *testing.T) {
	a := aggregate.Association{
		Offense:  "larceny",
		MinCount: 2,
		Links: []aggregate.Link{
			{Offense: "towed motor vehicle", Hour: 10, Count: 3},
			{Offense: "larceny", Hour: 10, Count: 2},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, NetworkTable(&buf, a))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"offense", "hour", "count"}, strings.Fields(lines[0]))
	assert.Contains(t, lines[1], "towed motor vehicle")
	assert.True(t, strings.HasSuffix(lines[1], "3"))
	assert.Contains(t, lines[2], "larceny")
}

func TestRankingTable(t *testing.T) {
	ranked := []rank.RankedPeriod{
		{Period: period.OfSeason(period.Spring), Entries: []rank.Entry{{Category: "larceny", Count: 7}, {Category: "assault", Count: 4}}},
		{Period: period.OfSeason(period.Summer), Entries: []rank.Entry{{Category: "vandalism", Count: 5}}},
	}
	var buf bytes.Buffer
	require.NoError(t, RankingTable(&buf, ranked))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"Spring", "1", "larceny", "7"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"Spring", "2", "assault", "4"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"Summer", "1", "vandalism", "5"}, strings.Fields(lines[3]))
}

func TestTotalsAndTrendTables(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TotalsTable(&buf, seasonTotals(3, 5, 0, 1)))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, []string{"Fall", "0"}, strings.Fields(lines[3]))

	buf.Reset()
	trends := []rank.Trend{{Category: "arson", Frequencies: []int{1, 0, 2, 0}}}
	require.NoError(t, TrendTable(&buf, trends, []string{"Spring", "Summer", "Fall", "Winter"}))
	lines = strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"offense", "Spring", "Summer", "Fall", "Winter"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"arson", "1", "0", "2", "0"}, strings.Fields(lines[1]))
}

func TestSummary(t *testing.T) {
	s := Summary(seasonTotals(10, 40, 20, 30))
	assert.Equal(t, 4, s.Periods)
	assert.Equal(t, 100, s.Total)
	assert.InDelta(t, 25.0, s.Mean, 1e-9)
	assert.InDelta(t, 12.9099, s.StdDev, 1e-3)
	assert.Equal(t, 10.0, s.Min)
	assert.Equal(t, 40.0, s.Max)
	assert.Equal(t, period.OfSeason(period.Summer), s.Peak)
	assert.Equal(t, period.OfSeason(period.Spring), s.Trough)

	single := Summary(seasonTotals(7))
	assert.Zero(t, single.StdDev)
	assert.Equal(t, 7.0, single.Mean)

	var buf bytes.Buffer
	require.NoError(t, SummaryTable(&buf, s))
	assert.Contains(t, buf.String(), "40 (Summer)")
	assert.Contains(t, buf.String(), "10 (Spring)")
}

func TestCharts(t *testing.T) {
	series := []aggregate.HourCount{{Hour: 0, Count: 2}, {Hour: 10, Count: 7}, {Hour: 18, Count: 4}}
	trends := []rank.Trend{
		{Category: "larceny", Frequencies: []int{5, 7, 6, 3}},
		{Category: "assault", Frequencies: []int{2, 4, 3, 1}},
	}
	tests := []struct {
		name string
		draw func(*bytes.Buffer) error
	}{
		{"hourly", func(b *bytes.Buffer) error { return HourlyChart(b, "larceny", series, Size{}) }},
		{"hourly empty", func(b *bytes.Buffer) error { return HourlyChart(b, "larceny", nil, Size{}) }},
		{"totals", func(b *bytes.Buffer) error {
			return TotalsChart(b, seasonTotals(3, 5, 0, 1), "Total by Season", Size{Width: 400, Height: 300})
		}},
		{"totals empty", func(b *bytes.Buffer) error { return TotalsChart(b, nil, "Total", Size{}) }},
		{"trend", func(b *bytes.Buffer) error {
			return TrendChart(b, trends, period.Periods(period.BySeason), "Trend", Size{})
		}},
		{"trend empty", func(b *bytes.Buffer) error {
			return TrendChart(b, nil, period.Periods(period.ByMonth), "Trend", Size{})
		}},
		{"network", func(b *bytes.Buffer) error {
			a := aggregate.Association{Offense: "larceny", MinCount: 2, Links: []aggregate.Link{
				{Offense: "towed motor vehicle", Hour: 10, Count: 3},
				{Offense: "larceny", Hour: 10, Count: 2},
				{Offense: "larceny", Hour: 14, Count: 5},
			}}
			return NetworkChart(b, a, Size{})
		}},
		{"network empty", func(b *bytes.Buffer) error { return NetworkChart(b, aggregate.Association{}, Size{}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tt.draw(&buf))
			assert.Contains(t, buf.String(), "<svg")
		})
	}
}

// Charts whose data spans a single value on an axis must still render.
func TestChartsDegenerateDomains(t *testing.T) {
	tests := []struct {
		name string
		draw func(*bytes.Buffer) error
	}{
		{"hourly empty", func(b *bytes.Buffer) error { return HourlyChart(b, "arson", nil, Size{}) }},
		{"hourly single hour", func(b *bytes.Buffer) error {
			return HourlyChart(b, "arson", []aggregate.HourCount{{Hour: 3, Count: 4}}, Size{})
		}},
		{"totals all zero", func(b *bytes.Buffer) error {
			return TotalsChart(b, seasonTotals(0, 0, 0, 0), "Total", Size{})
		}},
		{"trend all zero", func(b *bytes.Buffer) error {
			trends := []rank.Trend{{Category: "arson", Frequencies: []int{0, 0, 0, 0}}}
			return TrendChart(b, trends, period.Periods(period.BySeason), "Trend", Size{})
		}},
		{"network single link", func(b *bytes.Buffer) error {
			a := aggregate.Association{Offense: "arson", Links: []aggregate.Link{{Offense: "arson", Hour: 3, Count: 1}}}
			return NetworkChart(b, a, Size{})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NotPanics(t, func() {
				require.NoError(t, tt.draw(&buf))
			})
			assert.Contains(t, buf.String(), "<svg")
		})
	}
}

func TestAxisLabel(t *testing.T) {
	assert.Equal(t, "1 Spring, 2 Summer, 3 Fall, 4 Winter", axisLabel(period.Periods(period.BySeason)))
	assert.True(t, strings.HasPrefix(axisLabel(period.Periods(period.ByMonth)), "1 Jan, 2 Feb"))
}
