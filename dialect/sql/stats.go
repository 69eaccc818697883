package sql

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/syssam/relmap/dialect"
)

// QueryStats holds statement execution statistics.
type QueryStats struct {
	TotalQueries  atomic.Int64
	TotalExecs    atomic.Int64
	TotalDuration atomic.Int64 // nanoseconds
	SlowQueries   atomic.Int64
	Errors        atomic.Int64
}

// Stats returns a snapshot of the current statistics.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalQueries:  s.TotalQueries.Load(),
		TotalExecs:    s.TotalExecs.Load(),
		TotalDuration: time.Duration(s.TotalDuration.Load()),
		SlowQueries:   s.SlowQueries.Load(),
		Errors:        s.Errors.Load(),
	}
}

// StatsSnapshot is a point-in-time snapshot of query statistics.
type StatsSnapshot struct {
	TotalQueries  int64
	TotalExecs    int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
}

// String returns a human-readable summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf("queries=%d execs=%d duration=%v slow=%d errors=%d",
		s.TotalQueries, s.TotalExecs, s.TotalDuration, s.SlowQueries, s.Errors)
}

// StatsDriver wraps a dialect.Driver, logging every statement and
// collecting statistics.
type StatsDriver struct {
	dialect.Driver
	stats         QueryStats
	slowThreshold time.Duration
	log           *slog.Logger
}

// StatsOption configures the StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the duration above which statements are logged as
// slow at Warn level. Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.slowThreshold = d
	}
}

// WithLogger sets the logger of the driver. Default is slog.Default().
func WithLogger(l *slog.Logger) StatsOption {
	return func(s *StatsDriver) {
		s.log = l
	}
}

// NewStatsDriver wraps a Driver with statement logging and statistics.
func NewStatsDriver(drv dialect.Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{
		Driver:        drv,
		slowThreshold: 100 * time.Millisecond,
		log:           slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the collected statistics.
func (s *StatsDriver) QueryStats() *QueryStats {
	return &s.stats
}

// Query executes a query and records statistics.
func (s *StatsDriver) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := s.Driver.Query(ctx, query, args, v)
	s.record(ctx, query, args, start, err, true)
	return err
}

// Exec executes a statement and records statistics.
func (s *StatsDriver) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := s.Driver.Exec(ctx, query, args, v)
	s.record(ctx, query, args, start, err, false)
	return err
}

func (s *StatsDriver) record(ctx context.Context, query string, args any, start time.Time, err error, isQuery bool) {
	d := time.Since(start)
	if isQuery {
		s.stats.TotalQueries.Add(1)
	} else {
		s.stats.TotalExecs.Add(1)
	}
	s.stats.TotalDuration.Add(int64(d))
	argv, _ := args.([]any)
	switch {
	case err != nil:
		s.stats.Errors.Add(1)
		s.log.ErrorContext(ctx, "statement failed", "query", query, "args", len(argv), "error", err)
	case d > s.slowThreshold:
		s.stats.SlowQueries.Add(1)
		s.log.WarnContext(ctx, "slow statement", "query", query, "duration", d, "args", len(argv))
	default:
		s.log.DebugContext(ctx, "statement", "query", query, "duration", d, "args", len(argv))
	}
}
