package aggregate

import (
	"sort"
	"strings"

	"github.com/rewired-gh/crimescope/internal/incident"
)

// Link is one (offense, hour) pair of an association and its count.
type Link struct {
	Offense string `json:"offense"`
	Hour    int    `json:"hour"`
	Count   int    `json:"count"`
}

// Association is the local network of a selected offense: every offense
// that shares a peak hour with it after thresholding.
type Association struct {
	Offense  string `json:"offense"`
	MinCount int    `json:"min_count"`
	Links    []Link `json:"links"`
}

// Len returns the number of links.
func (a Association) Len() int {
	return len(a.Links)
}

// Offenses returns the distinct offenses of a in link order.
func (a Association) Offenses() []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range a.Links {
		if !seen[l.Offense] {
			seen[l.Offense] = true
			out = append(out, l.Offense)
		}
	}
	return out
}

// Hours returns the distinct hours of a in ascending order.
func (a Association) Hours() []int {
	seen := make(map[int]bool)
	var out []int
	for _, l := range a.Links {
		if !seen[l.Hour] {
			seen[l.Hour] = true
			out = append(out, l.Hour)
		}
	}
	sort.Ints(out)
	return out
}

// HourCount is one point of an hourly series.
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// NormalizeOffense returns the form of an offense used for matching.
func NormalizeOffense(offense string) string {
	return strings.ToLower(strings.TrimSpace(offense))
}

// LocalNetwork returns the (offense, hour) pairs with at least minCount
// records whose hour is one of the selected offense's thresholded hours.
//
// Links are ordered by count descending, then offense, then hour.
func LocalNetwork(t *incident.Table, offense string, minCount int) (Association, error) {
	g, err := GroupCount(t, incident.Offense, incident.Hour)
	if err != nil {
		return Association{}, err
	}
	g, err = ThresholdFilter(g, minCount)
	if err != nil {
		return Association{}, err
	}

	selected := NormalizeOffense(offense)
	hours := make(map[int]bool)
	for _, e := range g.Entries {
		if e.Key.Offense == selected {
			hours[e.Key.Hour] = true
		}
	}

	a := Association{Offense: selected, MinCount: minCount}
	for _, e := range g.Entries {
		if hours[e.Key.Hour] {
			a.Links = append(a.Links, Link{Offense: e.Key.Offense, Hour: e.Key.Hour, Count: e.Count})
		}
	}
	sort.Slice(a.Links, func(i, j int) bool {
		li, lj := a.Links[i], a.Links[j]
		if li.Count != lj.Count {
			return li.Count > lj.Count
		}
		if li.Offense != lj.Offense {
			return li.Offense < lj.Offense
		}
		return li.Hour < lj.Hour
	})
	return a, nil
}

// HourlySeries returns the per-hour counts of a single offense, keeping
// hours with at least minCount records, in ascending hour order.
func HourlySeries(t *incident.Table, offense string, minCount int) ([]HourCount, error) {
	selected := NormalizeOffense(offense)
	sub := t.Filter(func(r incident.Record) bool {
		return r.Has(incident.Offense) && r.OffenseKey() == selected
	})
	g, err := GroupCount(sub, incident.Hour)
	if err != nil {
		return nil, err
	}
	g, err = ThresholdFilter(g, minCount)
	if err != nil {
		return nil, err
	}

	series := make([]HourCount, 0, g.Len())
	for _, e := range g.Entries {
		series = append(series, HourCount{Hour: e.Key.Hour, Count: e.Count})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Hour < series[j].Hour
	})
	return series, nil
}

// Offenses returns the distinct case-normalized offenses of t, sorted.
func Offenses(t *incident.Table) []string {
	g, _ := GroupCount(t, incident.Offense)
	out := make([]string, 0, g.Len())
	for _, e := range g.Entries {
		out = append(out, e.Key.Offense)
	}
	sort.Strings(out)
	return out
}
