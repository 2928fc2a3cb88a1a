// Package loader reads incident files into incident tables.
//
// Delimited text files are parsed with gota's dataframe reader; Excel
// workbooks (.xlsx) are read with excelize. Both paths share the same
// normalisation: offense text is trimmed, HOUR, MONTH and YEAR are parsed
// as integers, and values that are empty, unparsable or out of range
// become null instead of failing the load.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rewired-gh/crimescope/internal/incident"
	"github.com/rewired-gh/crimescope/internal/logger"
)

// ErrMissingColumn is returned when a required column is absent.
var ErrMissingColumn = errors.New("missing required column")

var log = logger.Named("loader")

// Options control how an incident file is read.
type Options struct {
	// Delimiter separates fields in text files. Zero means ','.
	Delimiter rune
	// Sheet selects the worksheet of an .xlsx file. Empty means the first.
	Sheet string
	// ExcludeYears drops every record reported in one of these years.
	ExcludeYears []int
	// KeepColumns lists extra source columns copied into Record.Extra.
	// Required columns are skipped.
	KeepColumns []string
}

// Stats describes what happened to the rows of a file during loading.
type Stats struct {
	Rows         int `json:"rows"`
	Kept         int `json:"kept"`
	ExcludedYear int `json:"excluded_year"`
	NullOffense  int `json:"null_offense"`
	NullHour     int `json:"null_hour"`
	NullMonth    int `json:"null_month"`
}

// frame is the row/column view shared by the CSV and workbook readers.
type frame interface {
	Names() []string
	Len() int
	// Value returns the cell at (row, col) and false when it is null.
	Value(row int, col string) (string, bool)
}

// Load reads the incident file at path. The format is chosen by extension:
// .xlsx is read as a workbook, anything else as delimited text.
func Load(ctx context.Context, path string, opts Options) (*incident.Table, Stats, error) {
	var (
		f   frame
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		f, err = readWorkbook(path, opts.Sheet)
	default:
		var file *os.File
		file, err = os.Open(path)
		if err != nil {
			return nil, Stats{}, fmt.Errorf("failed to open dataset: %w", err)
		}
		defer file.Close()
		f, err = readDelimited(file, opts.Delimiter)
	}
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	t, stats, err := build(ctx, f, opts)
	if err != nil {
		return nil, stats, err
	}
	log.Info("loaded %d of %d rows from %s", stats.Kept, stats.Rows, path)
	log.Debug("null offense=%d hour=%d month=%d, excluded by year=%d",
		stats.NullOffense, stats.NullHour, stats.NullMonth, stats.ExcludedYear)
	return t, stats, nil
}

// Read parses delimited incident data from r.
func Read(ctx context.Context, r io.Reader, opts Options) (*incident.Table, Stats, error) {
	f, err := readDelimited(r, opts.Delimiter)
	if err != nil {
		return nil, Stats{}, err
	}
	return build(ctx, f, opts)
}

func build(ctx context.Context, f frame, opts Options) (*incident.Table, Stats, error) {
	cols, err := resolveColumns(f.Names(), opts.KeepColumns)
	if err != nil {
		return nil, Stats{}, err
	}

	exclude := make(map[int]bool, len(opts.ExcludeYears))
	for _, y := range opts.ExcludeYears {
		exclude[y] = true
	}

	stats := Stats{Rows: f.Len()}
	records := make([]incident.Record, 0, f.Len())
	for i := 0; i < f.Len(); i++ {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}

		r := incident.Record{
			Offense: cell(f, i, cols.offense),
			Hour:    intCell(f, i, cols.hour, 0, 23),
			Month:   intCell(f, i, cols.month, 1, 12),
			Year:    intCell(f, i, cols.year, 0, math.MaxInt32),
		}
		if r.Year != incident.Missing && exclude[r.Year] {
			stats.ExcludedYear++
			continue
		}
		if !r.Has(incident.Offense) {
			stats.NullOffense++
		}
		if !r.Has(incident.Hour) {
			stats.NullHour++
		}
		if !r.Has(incident.Month) {
			stats.NullMonth++
		}
		if len(cols.extra) > 0 {
			r.Extra = make(map[string]string, len(cols.extra))
			for name, src := range cols.extra {
				r.Extra[name] = cell(f, i, src)
			}
		}
		records = append(records, r)
	}
	stats.Kept = len(records)
	return incident.NewTable(records), stats, nil
}

type columns struct {
	offense, hour, month, year string
	extra                      map[string]string // requested name -> source header
}

func resolveColumns(names []string, keep []string) (columns, error) {
	byFold := make(map[string]string, len(names))
	for _, n := range names {
		byFold[strings.ToUpper(cleanHeader(n))] = n
	}
	find := func(want string) (string, error) {
		n, ok := byFold[strings.ToUpper(want)]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrMissingColumn, want)
		}
		return n, nil
	}

	var c columns
	var err error
	if c.offense, err = find(incident.HeaderOffense); err != nil {
		return c, err
	}
	if c.hour, err = find(incident.HeaderHour); err != nil {
		return c, err
	}
	if c.month, err = find(incident.HeaderMonth); err != nil {
		return c, err
	}
	if c.year, err = find(incident.HeaderYear); err != nil {
		return c, err
	}
	if len(keep) > 0 {
		c.extra = make(map[string]string, len(keep))
		for _, k := range keep {
			// Required columns already have a Record field.
			if _, err := incident.ParseColumn(k); err == nil {
				continue
			}
			src, err := find(k)
			if err != nil {
				return c, err
			}
			c.extra[k] = src
		}
	}
	return c, nil
}

func cleanHeader(h string) string {
	return strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
}

func cell(f frame, row int, col string) string {
	v, ok := f.Value(row, col)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

// intCell parses an integer cell, accepting float text such as "10.0".
// Anything unparsable or outside [lo, hi] is null.
func intCell(f frame, row int, col string, lo, hi int) int {
	v := cell(f, row, col)
	if v == "" {
		return incident.Missing
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		x, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil || x != math.Trunc(x) || math.IsInf(x, 0) {
			return incident.Missing
		}
		n = int(x)
	}
	if n < lo || n > hi {
		return incident.Missing
	}
	return n
}
