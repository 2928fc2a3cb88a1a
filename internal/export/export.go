// Package export writes seasonality reports to disk as JSON.
//
// Files are written atomically: the report is encoded into a temporary file
// next to the destination which is then renamed into place, so readers
// never observe a partially written report.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rewired-gh/crimescope/internal/rank"
	"github.com/rewired-gh/crimescope/internal/render"
	"github.com/rewired-gh/crimescope/internal/session"
)

// Version is the report file format version.
const Version = "1.0"

// Params records the options a report was produced with.
type Params struct {
	Mode     string   `json:"mode"`
	TopN     int      `json:"top_n"`
	Depth    int      `json:"depth"`
	Exclude  []string `json:"exclude,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// Report is the on-disk form of a seasonality analysis.
type Report struct {
	Version     string                 `json:"version"`
	SessionID   string                 `json:"session_id"`
	Source      string                 `json:"source"`
	GeneratedAt time.Time              `json:"generated_at"`
	Params      Params                 `json:"params"`
	Rankings    []rank.RankedPeriod    `json:"rankings"`
	Totals      []rank.Total           `json:"totals"`
	Summary     render.Stats           `json:"summary"`
	Trends      []rank.Trend           `json:"trends"`
	Shares      []rank.Share           `json:"shares,omitempty"`
	Keywords    []session.KeywordTrend `json:"keywords,omitempty"`
}

// NewReport builds the export form of a seasonality analysis.
func NewReport(s session.Seasonality, source string) Report {
	return Report{
		Version:     Version,
		SessionID:   s.SessionID,
		Source:      source,
		GeneratedAt: s.GeneratedAt,
		Params: Params{
			Mode:     s.Mode.String(),
			TopN:     s.Options.TopN,
			Depth:    s.Options.Depth,
			Exclude:  s.Options.Exclude,
			Keywords: s.Options.Keywords,
		},
		Rankings: s.Top,
		Totals:   s.Totals,
		Summary:  render.Summary(s.Totals),
		Trends:   s.Trends,
		Shares:   s.Shares,
		Keywords: s.Keywords,
	}
}

// Writer stores reports under a directory.
type Writer struct {
	dir             string
	filePermissions os.FileMode
	dirPermissions  os.FileMode
}

// NewWriter creates a Writer for dir. If dir is empty, reports go to a
// crimescope directory under the OS temp directory.
func NewWriter(dir string, filePermissions, dirPermissions os.FileMode) *Writer {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "crimescope")
	}
	return &Writer{
		dir:             dir,
		filePermissions: filePermissions,
		dirPermissions:  dirPermissions,
	}
}

// Dir returns the directory reports are written to.
func (w *Writer) Dir() string {
	return w.dir
}

// FileName returns the name a report is stored under.
func FileName(r Report) string {
	id := r.SessionID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("seasonality-%s-%s-%s.json",
		r.Params.Mode, r.GeneratedAt.UTC().Format("20060102T150405"), id)
}

// Write stores r and returns the path of the written file.
func (w *Writer) Write(r Report) (string, error) {
	if r.SessionID == "" {
		return "", errors.New("report has no session id")
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	return w.WriteFile(FileName(r), data)
}

// WriteFile stores an auxiliary artifact, such as a chart, next to the
// reports using the same atomic write.
func (w *Writer) WriteFile(name string, data []byte) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	if err := os.MkdirAll(w.dir, w.dirPermissions); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(w.dir, name)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, w.filePermissions); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("failed to rename file: %w", err)
	}
	return path, nil
}

// Read loads a report written by Write. A stale temporary file left next
// to path by an interrupted write is removed.
func Read(path string) (Report, error) {
	tempPath := path + ".tmp"
	if _, err := os.Stat(tempPath); err == nil {
		_ = os.Remove(tempPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("failed to read file: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return Report{}, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return r, nil
}
