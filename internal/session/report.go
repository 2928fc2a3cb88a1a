package session

import (
	"fmt"
	"math"
	"time"

	"github.com/rewired-gh/crimescope/internal/incident"
	"github.com/rewired-gh/crimescope/internal/period"
	"github.com/rewired-gh/crimescope/internal/rank"
)

// NonCrimeOffenses are Boston service-call categories that do not describe
// an intentional crime.
var NonCrimeOffenses = []string{
	"SICK ASSIST",
	"TOWED MOTOR VEHICLE",
	"SERVICE TO OTHER AGENCY",
	"FIRE REPORT",
	"LANDLORD - TENANT",
	"SICK/INJURED/MEDICAL - PERSON",
	"M/V ACCIDENT - PROPERTY DAMAGE",
	"M/V ACCIDENT - PERSONAL INJURY",
	"NOISY PARTY/RADIO-NO ARREST",
	"PROSTITUTION",
	"M/V ACCIDENT - OTHER",
	"PROPERTY - ACCIDENTAL DAMAGE",
	"PROPERTY - FOUND",
}

// ReportOptions parameterise a seasonality analysis.
type ReportOptions struct {
	Mode period.Mode
	// TopN is the depth of the headline ranking.
	TopN int
	// Depth limits the ranking used for totals and trends. Zero ranks every
	// category.
	Depth int
	// Exclude lists categories removed before totals and trends.
	Exclude []string
	// Keywords each get a drill-down of the matching categories.
	Keywords []string
}

// KeywordTrend is the per-period total of all categories matching a
// keyword.
type KeywordTrend struct {
	Keyword    string       `json:"keyword"`
	Categories []string     `json:"categories"`
	Totals     []rank.Total `json:"totals"`
}

// Seasonality is the result of a full seasonality analysis.
type Seasonality struct {
	SessionID   string              `json:"session_id"`
	GeneratedAt time.Time           `json:"generated_at"`
	Mode        period.Mode         `json:"-"`
	Options     ReportOptions       `json:"-"`
	Order       []period.Period     `json:"order"`
	Top         []rank.RankedPeriod `json:"top"`
	Rows        []rank.Row          `json:"rows"`
	Totals      []rank.Total        `json:"totals"`
	Trends      []rank.Trend        `json:"trends"`
	Shares      []rank.Share        `json:"shares"`
	Keywords    []KeywordTrend      `json:"keywords"`
}

// Report ranks every period of opts.Mode and derives totals, per-category
// trends and keyword drill-downs from the filtered ranking.
func (s *Session) Report(opts ReportOptions) (Seasonality, error) {
	if opts.Depth < 0 {
		return Seasonality{}, fmt.Errorf("%w: depth %d", incident.ErrNonPositiveN, opts.Depth)
	}
	ps, err := s.Partition(opts.Mode)
	if err != nil {
		return Seasonality{}, err
	}

	order := period.Periods(opts.Mode)
	top, err := rank.RankAll(ps, incident.Offense, opts.TopN)
	if err != nil {
		return Seasonality{}, err
	}

	depth := opts.Depth
	if depth == 0 {
		depth = math.MaxInt
	}
	full, err := rank.RankAll(ps, incident.Offense, depth)
	if err != nil {
		return Seasonality{}, err
	}
	rows := rank.Exclude(rank.Flatten(full, order), opts.Exclude)

	report := Seasonality{
		SessionID:   s.id,
		GeneratedAt: time.Now(),
		Mode:        opts.Mode,
		Options:     opts,
		Order:       order,
		Top:         top.Ordered(order),
		Rows:        rows,
		Totals:      rank.Totals(rows, order),
		Trends:      rank.Pivot(rows, order),
	}
	report.Shares = rank.Normalize(report.Trends)
	for _, kw := range opts.Keywords {
		matched := rank.MatchKeyword(rows, kw)
		trend := KeywordTrend{Keyword: kw, Totals: rank.Totals(matched, order)}
		for _, t := range rank.Pivot(matched, order) {
			trend.Categories = append(trend.Categories, t.Category)
		}
		report.Keywords = append(report.Keywords, trend)
	}

	log.Debug("session %s report: mode=%s rows=%d keywords=%d",
		s.id, opts.Mode, len(rows), len(report.Keywords))
	return report, nil
}
