package render

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/aclements/go-gg/gg"
	"github.com/aclements/go-gg/table"
	"github.com/aclements/go-moremath/stats"

	"github.com/rewired-gh/crimescope/internal/aggregate"
	"github.com/rewired-gh/crimescope/internal/period"
	"github.com/rewired-gh/crimescope/internal/rank"
)

// Size is the pixel size of a chart.
type Size struct {
	Width  int
	Height int
}

// DefaultSize is used when a chart is drawn with a zero Size.
var DefaultSize = Size{Width: 800, Height: 500}

func (s Size) orDefault() Size {
	if s.Width <= 0 || s.Height <= 0 {
		return DefaultSize
	}
	return s
}

// HourlyChart draws an offense's hourly series as bar-style steps centered
// on each hour, overlaid with a line and a point at every hour.
func HourlyChart(w io.Writer, offense string, series []aggregate.HourCount, size Size) error {
	title := fmt.Sprintf("Hourly Frequency of %s", offense)
	if len(series) == 0 {
		return emptyChart(w, size)
	}
	hours := make([]float64, len(series))
	counts := make([]float64, len(series))
	for i, hc := range series {
		hours[i] = float64(hc.Hour)
		counts[i] = float64(hc.Count)
	}
	tab := new(table.Builder).
		Add("hour", hours).
		Add("count", counts).
		Done()

	plot := gg.NewPlot(tab)
	plot.SetScale("x", xScale(hours))
	plot.SetScale("y", yScale(counts))
	plot.Add(
		gg.LayerSteps{LayerPaths: gg.LayerPaths{X: "hour", Y: "count"}, Step: gg.StepHMid},
		gg.LayerLines{X: "hour", Y: "count"},
		gg.LayerPoints{X: "hour", Y: "count"},
		gg.Title(title),
		gg.AxisLabel("x", "hour of day"),
		gg.AxisLabel("y", "incidents"),
	)
	return writeSVG(w, plot, size)
}

// TotalsChart draws per-period totals. The x axis is the position of each
// period in display order.
func TotalsChart(w io.Writer, totals []rank.Total, title string, size Size) error {
	if len(totals) == 0 {
		return emptyChart(w, size)
	}
	xs := make([]float64, len(totals))
	ys := make([]float64, len(totals))
	for i, t := range totals {
		xs[i] = float64(i + 1)
		ys[i] = float64(t.Frequency)
	}
	tab := new(table.Builder).
		Add("period", xs).
		Add("total", ys).
		Done()

	plot := gg.NewPlot(tab)
	plot.SetScale("x", xScale(xs))
	plot.SetScale("y", yScale(ys))
	plot.Add(
		gg.LayerLines{X: "period", Y: "total"},
		gg.LayerPoints{X: "period", Y: "total"},
		gg.Title(title),
		gg.AxisLabel("x", axisLabel(totalsOrder(totals))),
		gg.AxisLabel("y", "total incidents"),
	)
	return writeSVG(w, plot, size)
}

// TrendChart draws one line per category across the periods of order.
func TrendChart(w io.Writer, trends []rank.Trend, order []period.Period, title string, size Size) error {
	if len(trends) == 0 || len(order) == 0 {
		return emptyChart(w, size)
	}
	var (
		xs, ys []float64
		cats   []string
	)
	for _, t := range trends {
		for i := range order {
			f := 0
			if i < len(t.Frequencies) {
				f = t.Frequencies[i]
			}
			xs = append(xs, float64(i+1))
			ys = append(ys, float64(f))
			cats = append(cats, t.Category)
		}
	}
	tab := new(table.Builder).
		Add("period", xs).
		Add("frequency", ys).
		Add("offense", cats).
		Done()

	plot := gg.NewPlot(tab)
	plot.SetScale("x", xScale(xs))
	plot.SetScale("y", yScale(ys))
	plot.Add(
		gg.LayerLines{X: "period", Y: "frequency", Color: "offense"},
		gg.LayerPoints{X: "period", Y: "frequency", Color: "offense"},
		gg.Title(title),
		gg.AxisLabel("x", axisLabel(order)),
		gg.AxisLabel("y", "frequency"),
	)
	return writeSVG(w, plot, size)
}

// NetworkChart draws a local network as a grid of offense against hour
// with one point per link, sized by its count. Offenses are numbered along
// the y axis in link order and named in the color legend.
func NetworkChart(w io.Writer, a aggregate.Association, size Size) error {
	if a.Len() == 0 {
		return emptyChart(w, size)
	}
	offenses := a.Offenses()
	row := make(map[string]int, len(offenses))
	for i, o := range offenses {
		row[o] = i + 1
	}

	n := a.Len()
	hours := make([]float64, n)
	ys := make([]float64, n)
	counts := make([]float64, n)
	names := make([]string, n)
	for i, l := range a.Links {
		hours[i] = float64(l.Hour)
		ys[i] = float64(row[l.Offense])
		counts[i] = float64(l.Count)
		names[i] = l.Offense
	}
	tab := new(table.Builder).
		Add("hour", hours).
		Add("offense row", ys).
		Add("count", counts).
		Add("offense", names).
		Done()

	plot := gg.NewPlot(tab)
	plot.SetScale("x", xScale(hours))
	plot.SetScale("y", xScale(ys))
	plot.SetScale("size", yScale(counts))
	plot.Add(
		gg.LayerPoints{X: "hour", Y: "offense row", Color: "offense", Size: "count"},
		gg.Title(fmt.Sprintf("Local Network of %s (count >= %d)", a.Offense, a.MinCount)),
		gg.AxisLabel("x", "hour of day"),
		gg.AxisLabel("y", "offense"),
	)
	return writeSVG(w, plot, size)
}

// xScale spans the positions in vs with half a unit of padding on each
// side, so a single position still has a non-empty domain.
func xScale(vs []float64) gg.ContinuousScaler {
	lo, hi := 0.0, 0.0
	if len(vs) > 0 {
		lo, hi = stats.Bounds(vs)
	}
	return gg.NewLinearScaler().Include(lo - 0.5).Include(hi + 0.5)
}

// yScale spans zero to the largest of vs, and at least zero to one.
func yScale(vs []float64) gg.ContinuousScaler {
	top := 1.0
	if len(vs) > 0 {
		_, hi := stats.Bounds(vs)
		top = math.Max(top, hi)
	}
	return gg.NewLinearScaler().Include(0).Include(top)
}

func totalsOrder(totals []rank.Total) []period.Period {
	order := make([]period.Period, len(totals))
	for i, t := range totals {
		order[i] = t.Period
	}
	return order
}

// axisLabel names the periods behind the numeric positions, e.g.
// "1 Spring, 2 Summer, 3 Fall, 4 Winter".
func axisLabel(order []period.Period) string {
	var buf bytes.Buffer
	for i, p := range order {
		if i > 0 {
			buf.WriteString(", ")
		}
		label := p.Label()
		if p.Mode() == period.ByMonth && len(label) > 3 {
			label = label[:3]
		}
		fmt.Fprintf(&buf, "%d %s", i+1, label)
	}
	return buf.String()
}

func emptyChart(w io.Writer, size Size) error {
	tab := new(table.Builder).
		Add("x", []float64{0}).
		Add("y", []float64{0}).
		Done()
	plot := gg.NewPlot(tab)
	plot.SetScale("x", xScale(nil))
	plot.SetScale("y", yScale(nil))
	plot.Add(gg.LayerPoints{X: "x", Y: "y"}, gg.Title(NoData))
	return writeSVG(w, plot, size)
}

func writeSVG(w io.Writer, plot *gg.Plot, size Size) error {
	size = size.orDefault()
	if err := plot.WriteSVG(w, size.Width, size.Height); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
