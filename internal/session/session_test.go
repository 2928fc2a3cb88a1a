package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/crimescope/internal/incident"
	"github.com/rewired-gh/crimescope/internal/loader"
	"github.com/rewired-gh/crimescope/internal/period"
)

const dataset = `OFFENSE_DESCRIPTION,HOUR,MONTH,YEAR
LARCENY SHOPLIFTING,10,1,2023
LARCENY SHOPLIFTING,10,1,2023
LARCENY SHOPLIFTING,14,7,2023
ASSAULT - SIMPLE,10,7,2023
ASSAULT - SIMPLE,10,7,2023
TOWED MOTOR VEHICLE,10,7,2023
TOWED MOTOR VEHICLE,10,7,2023
TOWED MOTOR VEHICLE,10,7,2023
VANDALISM,22,12,2024
`

func writeDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crime.csv")
	require.NoError(t, os.WriteFile(path, []byte(dataset), 0o644))
	return path
}

func loaded(t *testing.T) *Session {
	t.Helper()
	s := New(loader.Options{})
	require.NoError(t, s.Load(context.Background(), writeDataset(t)))
	return s
}

func TestLifecycle(t *testing.T) {
	s := New(loader.Options{ExcludeYears: []int{2024}})
	assert.NotEmpty(t, s.ID())

	_, err := s.Offenses()
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = s.LocalNetwork("larceny shoplifting", 1)
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = s.HourlySeries("larceny shoplifting", 1)
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = s.Rank(period.BySeason, 3)
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = s.Report(ReportOptions{Mode: period.BySeason, TopN: 3})
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = s.RankPeriod(period.Month(4), 3)
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = s.Info()
	assert.ErrorIs(t, err, ErrNotLoaded)

	path := writeDataset(t)
	require.NoError(t, s.Load(context.Background(), path))
	assert.ErrorIs(t, s.Load(context.Background(), path), ErrAlreadyLoaded)

	info, err := s.Info()
	require.NoError(t, err)
	assert.Equal(t, s.ID(), info.ID)
	assert.Equal(t, path, info.Source)
	assert.Equal(t, 8, info.Stats.Kept)
	assert.Equal(t, 1, info.Stats.ExcludedYear)
}

func TestLoadFailureLeavesSessionEmpty(t *testing.T) {
	s := New(loader.Options{})
	err := s.Load(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	_, err = s.Table()
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestSessionIDsAreUnique(t *testing.T) {
	assert.NotEqual(t, New(loader.Options{}).ID(), New(loader.Options{}).ID())
}

func TestQueries(t *testing.T) {
	s := loaded(t)

	offenses, err := s.Offenses()
	require.NoError(t, err)
	assert.Equal(t, []string{"assault - simple", "larceny shoplifting", "towed motor vehicle", "vandalism"}, offenses)

	net, err := s.LocalNetwork("Larceny Shoplifting", 2)
	require.NoError(t, err)
	assert.Equal(t, []int{10}, net.Hours())
	assert.Equal(t, []string{"towed motor vehicle", "assault - simple", "larceny shoplifting"}, net.Offenses())

	series, err := s.HourlySeries("larceny shoplifting", 0)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, 10, series[0].Hour)
	assert.Equal(t, 2, series[0].Count)

	_, err = s.LocalNetwork("larceny shoplifting", -1)
	assert.ErrorIs(t, err, incident.ErrNegativeThreshold)
}

func TestRank(t *testing.T) {
	s := loaded(t)

	r, err := s.Rank(period.BySeason, 1)
	require.NoError(t, err)
	assert.Len(t, r, 4)

	summer := r[period.OfSeason(period.Summer)]
	require.Len(t, summer.Entries, 1)
	assert.Equal(t, "towed motor vehicle", summer.Entries[0].Category)
	assert.Equal(t, 3, summer.Entries[0].Count)
	assert.Empty(t, r[period.OfSeason(period.Fall)].Entries)

	_, err = s.Rank(period.ByMonth, 0)
	assert.ErrorIs(t, err, incident.ErrNonPositiveN)
}

func TestRankPeriod(t *testing.T) {
	s := loaded(t)

	summer, err := s.RankPeriod(period.OfSeason(period.Summer), 1)
	require.NoError(t, err)
	assert.Equal(t, period.OfSeason(period.Summer), summer.Period)
	require.Len(t, summer.Entries, 1)
	assert.Equal(t, "towed motor vehicle", summer.Entries[0].Category)

	july, err := s.RankPeriod(period.Month(7), 5)
	require.NoError(t, err)
	require.Len(t, july.Entries, 3)
	assert.Equal(t, 2, july.Entries[1].Count)

	march, err := s.RankPeriod(period.Month(3), 3)
	require.NoError(t, err)
	assert.Empty(t, march.Entries)

	_, err = s.RankPeriod(period.Month(7), 0)
	assert.ErrorIs(t, err, incident.ErrNonPositiveN)
}

func TestReport(t *testing.T) {
	s := loaded(t)

	rep, err := s.Report(ReportOptions{
		Mode:     period.BySeason,
		TopN:     1,
		Exclude:  NonCrimeOffenses,
		Keywords: []string{"larceny", "arson"},
	})
	require.NoError(t, err)

	assert.Equal(t, s.ID(), rep.SessionID)
	assert.Equal(t, period.Periods(period.BySeason), rep.Order)
	require.Len(t, rep.Top, 4)
	assert.Equal(t, period.OfSeason(period.Spring), rep.Top[0].Period)

	for _, row := range rep.Rows {
		assert.NotEqual(t, "towed motor vehicle", row.Category)
	}

	// Spring, Summer, Fall, Winter.
	var totals []int
	for _, tot := range rep.Totals {
		totals = append(totals, tot.Frequency)
	}
	assert.Equal(t, []int{0, 3, 0, 3}, totals)

	require.Len(t, rep.Trends, 3)
	assert.Equal(t, "assault - simple", rep.Trends[0].Category)
	assert.Equal(t, []int{0, 2, 0, 0}, rep.Trends[0].Frequencies)

	// Each period's shares sum to one, or stay zero when it is empty.
	require.Len(t, rep.Shares, 3)
	assert.Equal(t, "assault - simple", rep.Shares[0].Category)
	assert.InDeltaSlice(t, []float64{0, 2.0 / 3, 0, 0}, rep.Shares[0].Fractions, 1e-9)
	assert.InDeltaSlice(t, []float64{0, 1.0 / 3, 0, 2.0 / 3}, rep.Shares[1].Fractions, 1e-9)

	require.Len(t, rep.Keywords, 2)
	assert.Equal(t, []string{"larceny shoplifting"}, rep.Keywords[0].Categories)
	assert.Equal(t, 1, rep.Keywords[0].Totals[1].Frequency)
	assert.Equal(t, 2, rep.Keywords[0].Totals[3].Frequency)
	assert.Empty(t, rep.Keywords[1].Categories)
	for _, tot := range rep.Keywords[1].Totals {
		assert.Zero(t, tot.Frequency)
	}
}

func TestReportDepth(t *testing.T) {
	s := loaded(t)

	rep, err := s.Report(ReportOptions{Mode: period.BySeason, TopN: 2, Depth: 1})
	require.NoError(t, err)
	// Summer keeps only towed motor vehicle.
	assert.Equal(t, 3, rep.Totals[1].Frequency)

	_, err = s.Report(ReportOptions{Mode: period.BySeason, TopN: 2, Depth: -1})
	assert.ErrorIs(t, err, incident.ErrNonPositiveN)
	_, err = s.Report(ReportOptions{Mode: period.BySeason, TopN: 0})
	assert.ErrorIs(t, err, incident.ErrNonPositiveN)
}

func TestFromTable(t *testing.T) {
	tab := incident.NewTable([]incident.Record{{Offense: "ARSON", Hour: 1, Month: 3, Year: 2023}})
	s := FromTable(tab, "memory")
	info, err := s.Info()
	require.NoError(t, err)
	assert.Equal(t, "memory", info.Source)
	assert.ErrorIs(t, s.Load(context.Background(), "ignored.csv"), ErrAlreadyLoaded)

	offenses, err := s.Offenses()
	require.NoError(t, err)
	assert.Equal(t, []string{"arson"}, offenses)
}

func TestFromTableUntrimmedOffenses(t *testing.T) {
	tab := incident.NewTable([]incident.Record{
		{Offense: " LARCENY", Hour: 9, Month: 3, Year: 2023},
		{Offense: "LARCENY ", Hour: 9, Month: 3, Year: 2023},
	})
	s := FromTable(tab, "memory")

	series, err := s.HourlySeries("larceny", 0)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, 2, series[0].Count)
}
