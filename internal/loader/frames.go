package loader

import (
	"fmt"
	"io"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// nullValues are the cell texts gota reads as NA.
var nullValues = []string{"", "NA", "NaN", "nan", "<nil>", "NULL"}

type gotaFrame struct {
	df   dataframe.DataFrame
	cols map[string]series.Series
}

func readDelimited(r io.Reader, delim rune) (*gotaFrame, error) {
	if delim == 0 {
		delim = ','
	}
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.WithDelimiter(delim),
		dataframe.NaNValues(nullValues),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", df.Err)
	}
	return &gotaFrame{df: df, cols: make(map[string]series.Series)}, nil
}

func (g *gotaFrame) Names() []string { return g.df.Names() }

func (g *gotaFrame) Len() int { return g.df.Nrow() }

func (g *gotaFrame) Value(row int, col string) (string, bool) {
	s, ok := g.cols[col]
	if !ok {
		s = g.df.Col(col)
		g.cols[col] = s
	}
	e := s.Elem(row)
	if e.IsNA() {
		return "", false
	}
	return e.String(), true
}

type sheetFrame struct {
	header []string
	index  map[string]int
	rows   [][]string
}

func readWorkbook(path, sheet string) (*sheetFrame, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q has no header row", sheet)
	}

	sf := &sheetFrame{header: rows[0], index: make(map[string]int, len(rows[0])), rows: rows[1:]}
	for i, h := range sf.header {
		sf.index[h] = i
	}
	return sf, nil
}

func (s *sheetFrame) Names() []string { return s.header }

func (s *sheetFrame) Len() int { return len(s.rows) }

// Value treats cells past the end of a short row as null; excelize trims
// trailing empty cells.
func (s *sheetFrame) Value(row int, col string) (string, bool) {
	i, ok := s.index[col]
	if !ok || i >= len(s.rows[row]) {
		return "", false
	}
	v := s.rows[row][i]
	for _, null := range nullValues {
		if v == null {
			return "", false
		}
	}
	return v, true
}
