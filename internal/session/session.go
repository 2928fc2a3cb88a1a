// Package session holds one loaded incident dataset and answers queries
// against it.
//
// A Session has an explicit lifecycle: New, then Load exactly once, then any
// number of queries, then discard. Queries never modify the loaded table and
// recompute their results from scratch on every call.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rewired-gh/crimescope/internal/aggregate"
	"github.com/rewired-gh/crimescope/internal/incident"
	"github.com/rewired-gh/crimescope/internal/loader"
	"github.com/rewired-gh/crimescope/internal/logger"
	"github.com/rewired-gh/crimescope/internal/period"
	"github.com/rewired-gh/crimescope/internal/rank"
)

var (
	// ErrNotLoaded is returned by queries issued before Load.
	ErrNotLoaded = errors.New("session: dataset not loaded")
	// ErrAlreadyLoaded is returned by a second call to Load.
	ErrAlreadyLoaded = errors.New("session: dataset already loaded")
)

var log = logger.Named("session")

// Session is a loaded dataset plus the loader options used to read it.
type Session struct {
	id   string
	opts loader.Options

	mu       sync.RWMutex
	table    *incident.Table
	stats    loader.Stats
	source   string
	loadedAt time.Time
}

// New creates an empty session. Call Load before issuing queries.
func New(opts loader.Options) *Session {
	return &Session{
		id:   uuid.New().String(),
		opts: opts,
	}
}

// FromTable creates a session that is already loaded with t.
func FromTable(t *incident.Table, source string) *Session {
	s := New(loader.Options{})
	s.table = t
	s.source = source
	s.stats = loader.Stats{Rows: t.Len(), Kept: t.Len()}
	s.loadedAt = time.Now()
	return s
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Load reads the dataset at path. It may only be called once.
func (s *Session) Load(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.table != nil {
		return ErrAlreadyLoaded
	}
	t, stats, err := loader.Load(ctx, path, s.opts)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	s.table = t
	s.stats = stats
	s.source = path
	s.loadedAt = time.Now()
	log.Debug("session %s loaded %d records from %s", s.id, t.Len(), path)
	return nil
}

// Table returns the loaded table.
func (s *Session) Table() (*incident.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.table == nil {
		return nil, ErrNotLoaded
	}
	return s.table, nil
}

// Info describes the loaded dataset.
type Info struct {
	ID       string       `json:"id"`
	Source   string       `json:"source"`
	LoadedAt time.Time    `json:"loaded_at"`
	Stats    loader.Stats `json:"stats"`
}

// Info returns a description of the loaded dataset.
func (s *Session) Info() (Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.table == nil {
		return Info{}, ErrNotLoaded
	}
	return Info{ID: s.id, Source: s.source, LoadedAt: s.loadedAt, Stats: s.stats}, nil
}

// Offenses lists the distinct case-normalized offenses.
func (s *Session) Offenses() ([]string, error) {
	t, err := s.Table()
	if err != nil {
		return nil, err
	}
	return aggregate.Offenses(t), nil
}

// LocalNetwork returns the offenses sharing a peak hour with offense.
func (s *Session) LocalNetwork(offense string, minCount int) (aggregate.Association, error) {
	t, err := s.Table()
	if err != nil {
		return aggregate.Association{}, err
	}
	return aggregate.LocalNetwork(t, offense, minCount)
}

// HourlySeries returns the per-hour counts of offense.
func (s *Session) HourlySeries(offense string, minCount int) ([]aggregate.HourCount, error) {
	t, err := s.Table()
	if err != nil {
		return nil, err
	}
	return aggregate.HourlySeries(t, offense, minCount)
}

// Partition splits the loaded table by mode.
func (s *Session) Partition(mode period.Mode) (period.Partitions, error) {
	t, err := s.Table()
	if err != nil {
		return nil, err
	}
	ps, err := period.Partition(t, mode)
	if err != nil {
		return nil, err
	}
	log.Debug("session %s: partitioned %d of %d records by %s", s.id, ps.Rows(), t.Len(), mode)
	return ps, nil
}

// Rank returns the n most frequent offenses of every period of mode.
func (s *Session) Rank(mode period.Mode, n int) (rank.Ranking, error) {
	ps, err := s.Partition(mode)
	if err != nil {
		return nil, err
	}
	return rank.RankAll(ps, incident.Offense, n)
}

// RankPeriod returns the n most frequent offenses of a single month or
// season.
func (s *Session) RankPeriod(p period.Period, n int) (rank.RankedPeriod, error) {
	ps, err := s.Partition(p.Mode())
	if err != nil {
		return rank.RankedPeriod{}, err
	}
	entries, err := rank.TopN(period.Lookup(ps, p), incident.Offense, n)
	if err != nil {
		return rank.RankedPeriod{}, err
	}
	return rank.RankedPeriod{Period: p, Entries: entries}, nil
}
