// Package session holds the working dataset of one elimination workflow
// together with its per-method round counters and elimination log.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"gprspc/domain/core"
	"gprspc/domain/spc"
	"gprspc/internal"
	"gprspc/internal/controlchart"
	apperrors "gprspc/internal/errors"
	"gprspc/internal/metrics"
	"gprspc/ports"
)

// State is the coarse state of a session.
type State string

const (
	// StateLoaded means the dataset is present and nothing was computed
	// since the last load or reset.
	StateLoaded State = "loaded"
	// StateComputed means limits are available for at least one method.
	StateComputed State = "computed"
)

// Option configures a session
type Option func(*Session)

// WithLogSink persists each method's log when the session is reset
func WithLogSink(sink ports.EliminationLogSink) Option {
	return func(s *Session) { s.sinks = append(s.sinks, sink) }
}

// WithMetrics records computations and eliminations
func WithMetrics(m *metrics.SPCMetrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithClock overrides the time source used to stamp log entries
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithLogger replaces the default "[Session]" logger
func WithLogger(l *internal.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// Session is one elimination workflow over a working copy of a dataset.
// All operations are serialized: a mutation and the recomputation that
// follows it happen under one lock, so the round counter, the log and the
// latest results always describe the same dataset state.
type Session struct {
	mu sync.Mutex

	id        core.ID
	source    ports.DatasetSource
	sinks     []ports.EliminationLogSink
	metrics   *metrics.SPCMetrics
	logger    *internal.Logger
	now       func() time.Time
	createdAt time.Time

	working  *spc.Dataset
	state    State
	rounds   map[spc.Method]int
	sequence map[spc.Method]int
	logs     map[spc.Method][]spc.LogEntry
	columns  map[spc.Method][]string
	results  map[spc.Method][]*spc.ControlChartResult
}

// New loads the dataset from source and opens a session on it
func New(ctx context.Context, source ports.DatasetSource, opts ...Option) (*Session, error) {
	s := &Session{
		id:     core.NewID(),
		source: source,
		now:    time.Now,
		logger: internal.NewComponentLogger("Session"),
	}
	for _, opt := range opts {
		opt(s)
	}

	ds, err := source.Load(ctx)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to load %s", source.Describe())
	}
	s.createdAt = s.now()
	s.install(ds)
	s.logger.Info("Opened session %s on %s (%d rows, %d criteria)", s.id, source.Describe(), ds.Len(), len(ds.Criteria))
	return s, nil
}

// install replaces the working dataset and clears all derived state. The
// caller holds the lock or owns the session exclusively.
func (s *Session) install(ds *spc.Dataset) {
	s.working = ds
	s.state = StateLoaded
	s.rounds = make(map[spc.Method]int)
	s.sequence = make(map[spc.Method]int)
	s.logs = make(map[spc.Method][]spc.LogEntry)
	s.columns = make(map[spc.Method][]string)
	s.results = make(map[spc.Method][]*spc.ControlChartResult)
}

// ID returns the session identifier
func (s *Session) ID() core.ID {
	return s.id
}

// CreatedAt returns when the session was opened
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Source describes where the dataset came from
func (s *Session) Source() string {
	return s.source.Describe()
}

// State returns the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Round returns the round number the next elimination for method will use.
// Rounds start at 1.
func (s *Session) Round(method spc.Method) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roundLocked(method)
}

func (s *Session) roundLocked(method spc.Method) int {
	if r, ok := s.rounds[method]; ok {
		return r
	}
	return 1
}

// Dataset returns a copy of the working dataset
func (s *Session) Dataset() *spc.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.working.Clone()
}

// Summary describes the working dataset
func (s *Session) Summary() spc.DatasetSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.working.Summary()
}

// Log returns the elimination log of one method in append order
func (s *Session) Log(method spc.Method) []spc.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]spc.LogEntry(nil), s.logs[method]...)
}

// Logs returns the elimination log of every method that has entries
func (s *Session) Logs() map[spc.Method][]spc.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[spc.Method][]spc.LogEntry, len(s.logs))
	for m, entries := range s.logs {
		if len(entries) > 0 {
			out[m] = append([]spc.LogEntry(nil), entries...)
		}
	}
	return out
}

// Results returns the latest results computed for method
func (s *Session) Results(method spc.Method) []*spc.ControlChartResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*spc.ControlChartResult(nil), s.results[method]...)
}

// ComputeRequest selects what to compute. Empty Columns means every
// analyzable criterion; an empty Confidence means the default level.
type ComputeRequest struct {
	Method     spc.Method
	Columns    []string
	Confidence spc.ConfidenceLevel
}

func (r ComputeRequest) level() spc.ConfidenceLevel {
	if r.Confidence == "" {
		return spc.DefaultConfidence
	}
	return r.Confidence
}

// Compute recomputes limits for the requested columns from the current
// working dataset. Each call gets the next sequence number of its method.
func (s *Session) Compute(ctx context.Context, req ComputeRequest) ([]*spc.ControlChartResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	columns := req.Columns
	if len(columns) == 0 {
		columns = s.working.Criteria
	}

	start := time.Now()
	results, err := computeColumns(ctx, s.working, req.Method, columns, req.level())
	s.metrics.RecordComputation(string(req.Method), statusOf(err), time.Since(start).Seconds(), countOutliers(results))
	if err != nil {
		return nil, err
	}

	s.commitResults(req.Method, columns, results)
	s.logger.Debug("Computed %d columns with %s (sequence %d)", len(results), req.Method.DisplayName(), s.sequence[req.Method])
	return results, nil
}

func (s *Session) commitResults(method spc.Method, columns []string, results []*spc.ControlChartResult) {
	s.sequence[method]++
	for _, r := range results {
		r.Sequence = s.sequence[method]
	}
	s.columns[method] = append([]string(nil), columns...)
	s.results[method] = results
	s.state = StateComputed
}

// affectedColumns lists what an elimination without explicit columns
// recomputes: only the criterion itself, or for the cascade criterion the
// method's last computed columns (every criterion when nothing was computed).
func (s *Session) affectedColumns(method spc.Method, criterion string, ds *spc.Dataset) []string {
	if criterion != spc.CascadeCriterion {
		return []string{criterion}
	}
	if cols := s.columns[method]; len(cols) > 0 {
		return cols
	}
	return ds.Criteria
}

// mergeResults replaces the method's results for the recomputed columns and
// keeps the others, whose data did not change.
func (s *Session) mergeResults(method spc.Method, results []*spc.ControlChartResult) {
	s.sequence[method]++
	merged := append([]*spc.ControlChartResult(nil), s.results[method]...)
	columns := append([]string(nil), s.columns[method]...)
	for _, r := range results {
		r.Sequence = s.sequence[method]
		replaced := false
		for i, old := range merged {
			if old.Column == r.Column {
				merged[i] = r
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, r)
			columns = append(columns, r.Column)
		}
	}
	s.columns[method] = columns
	s.results[method] = merged
	s.state = StateComputed
}

// computeColumns fans the columns out over goroutines. The dataset is only
// read, and results keep the order of columns.
func computeColumns(ctx context.Context, ds *spc.Dataset, method spc.Method, columns []string, level spc.ConfidenceLevel) ([]*spc.ControlChartResult, error) {
	results := make([]*spc.ControlChartResult, len(columns))
	g, gctx := errgroup.WithContext(ctx)
	for i, column := range columns {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := controlchart.ComputeLimits(ds, method, column, level)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// EliminationRequest names the cells to null. Columns selects what is
// recomputed afterwards; when empty only the columns the elimination
// touched are recomputed.
type EliminationRequest struct {
	Method     spc.Method
	Confidence spc.ConfidenceLevel
	Criterion  string
	IDs        []string
	Columns    []string
}

// EliminationOutcome reports one elimination round
type EliminationOutcome struct {
	Round      int                       `json:"round"`
	Entries    []spc.LogEntry            `json:"entries"`
	Eliminated int                       `json:"eliminated"`
	Results    []*spc.ControlChartResult `json:"results"`
}

// Eliminate nulls the requested cells and recomputes the method's limits.
// The mutation is applied to a copy and committed only when the
// recomputation succeeds, so a failed request leaves the session untouched.
func (s *Session) Eliminate(ctx context.Context, req EliminationRequest) (*EliminationOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := controlchart.CalculatorFor(req.Method); err != nil {
		s.metrics.RecordElimination(string(req.Method), statusOf(err), 0)
		return nil, err
	}
	if !s.working.IsCriterion(req.Criterion) {
		err := core.NewUnknownColumnError(req.Criterion)
		s.metrics.RecordElimination(string(req.Method), statusOf(err), 0)
		return nil, err
	}

	round := s.roundLocked(req.Method)
	next := s.working.Clone()
	entries, err := controlchart.Eliminate(next, req.Method, req.Criterion, req.IDs, round)
	if err != nil {
		s.metrics.RecordElimination(string(req.Method), statusOf(err), 0)
		return nil, err
	}

	columns := req.Columns
	if len(columns) == 0 {
		columns = s.affectedColumns(req.Method, req.Criterion, next)
	}
	results, err := computeColumns(ctx, next, req.Method, columns, ComputeRequest{Confidence: req.Confidence}.level())
	if err != nil {
		s.metrics.RecordElimination(string(req.Method), statusOf(err), 0)
		return nil, fmt.Errorf("recompute after elimination round %d: %w", round, err)
	}

	at := s.now()
	for i := range entries {
		entries[i].At = at
	}
	s.working = next
	s.logs[req.Method] = append(s.logs[req.Method], entries...)
	s.rounds[req.Method] = round + 1
	s.mergeResults(req.Method, results)
	s.metrics.RecordElimination(string(req.Method), "success", len(entries))

	eliminated := controlchart.EliminatedCount(entries)
	s.logger.Info("%s round %d: eliminated %d IDs (%d cells) on %q", req.Method.DisplayName(), round, eliminated, len(entries), req.Criterion)

	return &EliminationOutcome{
		Round:      round,
		Entries:    append([]spc.LogEntry(nil), entries...),
		Eliminated: eliminated,
		Results:    results,
	}, nil
}

// Reset reloads the dataset from its source, discarding every elimination.
// Logs are handed to the configured sinks first; if the reload or any sink
// fails the session is left as it was.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh, err := s.source.Load(ctx)
	if err != nil {
		s.metrics.RecordReset(statusOf(err))
		return apperrors.Wrapf(err, "failed to reload %s", s.source.Describe())
	}

	for _, method := range spc.Methods {
		entries := s.logs[method]
		if len(entries) == 0 {
			continue
		}
		for _, sink := range s.sinks {
			if err := sink.SaveLog(ctx, s.id, method, entries); err != nil {
				s.metrics.RecordReset(apperrors.CodeDatabaseError)
				return apperrors.WithCode(apperrors.CodeDatabaseError, fmt.Errorf("failed to persist %s log: %w", method.DisplayName(), err))
			}
		}
	}

	s.install(fresh)
	s.metrics.RecordReset("success")
	s.logger.Info("Reset session %s from %s", s.id, s.source.Describe())
	return nil
}

func statusOf(err error) string {
	if err == nil {
		return "success"
	}
	return apperrors.CodeOf(err)
}

func countOutliers(results []*spc.ControlChartResult) int {
	var n int
	for _, r := range results {
		n += len(r.OutOfControl)
	}
	return n
}
