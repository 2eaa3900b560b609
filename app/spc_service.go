package app

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"gprspc/domain/core"
	"gprspc/domain/spc"
	"gprspc/internal/controlchart"
	"gprspc/internal/errors"
	"gprspc/internal/metrics"
	"gprspc/internal/profiling"
	"gprspc/internal/session"
	"gprspc/ports"
)

// SourceFactory opens a dataset source for a file path and worksheet
type SourceFactory func(path, sheet string) ports.DatasetSource

// SPCServiceConfig wires the service's collaborators. Repository, Sinks
// and Metrics are optional.
type SPCServiceConfig struct {
	Sources           SourceFactory
	Repository        ports.EliminationLogRepository
	Sinks             []ports.EliminationLogSink
	Metrics           *metrics.SPCMetrics
	DefaultMethod     spc.Method
	DefaultConfidence spc.ConfidenceLevel
}

// SPCService manages elimination sessions by ID
type SPCService struct {
	mu       sync.RWMutex
	sessions map[core.ID]*session.Session

	config   SPCServiceConfig
	analyzer *profiling.DistributionAnalyzer
}

// SessionInfo describes an open session
type SessionInfo struct {
	ID        core.ID       `json:"id"`
	Source    string        `json:"source"`
	CreatedAt time.Time     `json:"created_at"`
	State     session.State `json:"state"`
	Rows      int           `json:"rows"`
	Criteria  []string      `json:"criteria"`
	Warnings  []string      `json:"warnings,omitempty"`
}

// AutoEliminationRequest drives repeated elimination on one criterion
type AutoEliminationRequest struct {
	Method     spc.Method
	Confidence spc.ConfidenceLevel
	Criterion  string
	MaxRounds  int
}

// NewSPCService creates an SPC service
func NewSPCService(config SPCServiceConfig) *SPCService {
	if config.DefaultMethod == "" {
		config.DefaultMethod = spc.MethodShewhart
	}
	if config.DefaultConfidence == "" {
		config.DefaultConfidence = spc.DefaultConfidence
	}
	return &SPCService{
		sessions: make(map[core.ID]*session.Session),
		config:   config,
		analyzer: profiling.NewDistributionAnalyzer(),
	}
}

// OpenFile opens a session on a QA export
func (s *SPCService) OpenFile(ctx context.Context, path, sheet string) (*SessionInfo, error) {
	if path == "" {
		return nil, errors.InvalidInput("file path is required")
	}
	if s.config.Sources == nil {
		return nil, errors.InternalError("no dataset source factory configured")
	}
	return s.Open(ctx, s.config.Sources(path, sheet))
}

// Open opens a session on any dataset source
func (s *SPCService) Open(ctx context.Context, source ports.DatasetSource) (*SessionInfo, error) {
	opts := []session.Option{session.WithMetrics(s.config.Metrics)}
	if s.config.Repository != nil {
		opts = append(opts, session.WithLogSink(s.config.Repository))
	}
	for _, sink := range s.config.Sinks {
		opts = append(opts, session.WithLogSink(sink))
	}

	sess, err := session.New(ctx, source, opts...)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	s.mu.Unlock()
	s.config.Metrics.SessionOpened()

	log.Printf("[SPCService] Opened session %s", sess.ID())
	info := describe(sess)
	return &info, nil
}

func describe(sess *session.Session) SessionInfo {
	summary := sess.Summary()
	return SessionInfo{
		ID:        sess.ID(),
		Source:    sess.Source(),
		CreatedAt: sess.CreatedAt(),
		State:     sess.State(),
		Rows:      summary.Rows,
		Criteria:  summary.Criteria,
		Warnings:  summary.Warnings,
	}
}

// Session returns an open session
func (s *SPCService) Session(id core.ID) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w %s", core.ErrSessionNotFound, id)
	}
	return sess, nil
}

// Sessions lists open sessions, oldest first
func (s *SPCService) Sessions() []SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SessionInfo, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, describe(sess))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Close drops a session without persisting its log
func (s *SPCService) Close(id core.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w %s", core.ErrSessionNotFound, id)
	}
	delete(s.sessions, id)
	s.config.Metrics.SessionClosed()
	log.Printf("[SPCService] Closed session %s", id)
	return nil
}

// Info describes one session
func (s *SPCService) Info(id core.ID) (*SessionInfo, error) {
	sess, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	info := describe(sess)
	return &info, nil
}

// Summary describes the working dataset of a session
func (s *SPCService) Summary(id core.ID) (*spc.DatasetSummary, error) {
	sess, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	summary := sess.Summary()
	return &summary, nil
}

func (s *SPCService) method(m spc.Method) spc.Method {
	if m == "" {
		return s.config.DefaultMethod
	}
	return m
}

func (s *SPCService) confidence(c spc.ConfidenceLevel) spc.ConfidenceLevel {
	if c == "" {
		return s.config.DefaultConfidence
	}
	return c
}

// ComputeLimits recomputes control limits for a session
func (s *SPCService) ComputeLimits(ctx context.Context, id core.ID, req session.ComputeRequest) ([]*spc.ControlChartResult, error) {
	sess, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	req.Method = s.method(req.Method)
	req.Confidence = s.confidence(req.Confidence)
	return sess.Compute(ctx, req)
}

// Eliminate runs one elimination round
func (s *SPCService) Eliminate(ctx context.Context, id core.ID, req session.EliminationRequest) (*session.EliminationOutcome, error) {
	if req.Criterion == "" {
		return nil, errors.InvalidInput("criterion is required")
	}
	sess, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	req.Method = s.method(req.Method)
	req.Confidence = s.confidence(req.Confidence)
	return sess.Eliminate(ctx, req)
}

// AutoEliminate eliminates every flagged identifier of one criterion and
// recomputes until the criterion has no outliers or MaxRounds is reached.
func (s *SPCService) AutoEliminate(ctx context.Context, id core.ID, req AutoEliminationRequest) ([]*session.EliminationOutcome, error) {
	if req.Criterion == "" {
		return nil, errors.InvalidInput("criterion is required")
	}
	if req.MaxRounds <= 0 {
		req.MaxRounds = 10
	}
	sess, err := s.Session(id)
	if err != nil {
		return nil, err
	}

	method := s.method(req.Method)
	level := s.confidence(req.Confidence)
	columns := []string{req.Criterion}

	results, err := sess.Compute(ctx, session.ComputeRequest{Method: method, Columns: columns, Confidence: level})
	if err != nil {
		return nil, err
	}

	var outcomes []*session.EliminationOutcome
	for len(outcomes) < req.MaxRounds && results[0].HasOutliers() {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		out, err := sess.Eliminate(ctx, session.EliminationRequest{
			Method:     method,
			Confidence: level,
			Criterion:  req.Criterion,
			IDs:        results[0].OutOfControl,
			Columns:    columns,
		})
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, out)
		results = out.Results
	}
	return outcomes, nil
}

// Reset reloads a session's dataset, persisting its logs first
func (s *SPCService) Reset(ctx context.Context, id core.ID) error {
	sess, err := s.Session(id)
	if err != nil {
		return err
	}
	return sess.Reset(ctx)
}

// Log returns the in-memory elimination log of a method
func (s *SPCService) Log(id core.ID, method spc.Method) ([]spc.LogEntry, error) {
	sess, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	return sess.Log(s.method(method)), nil
}

// StoredLog returns the log entries persisted by earlier resets
func (s *SPCService) StoredLog(ctx context.Context, id core.ID) ([]spc.LogEntry, error) {
	if s.config.Repository == nil {
		return nil, errors.New(errors.CodeInvalidInput, "log persistence is not configured")
	}
	entries, err := s.config.Repository.ListLog(ctx, id)
	if err != nil {
		return nil, errors.DatabaseError("failed to list stored log", err)
	}
	return entries, nil
}

// Statistics describes the columns of a session's working dataset
func (s *SPCService) Statistics(id core.ID, columns []string) ([]profiling.ColumnStats, error) {
	sess, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	return s.analyzer.Describe(sess.Dataset(), columns)
}

// Normality runs the Anderson-Darling test on a session's working dataset
func (s *SPCService) Normality(id core.ID, columns []string) ([]profiling.NormalityResult, error) {
	sess, err := s.Session(id)
	if err != nil {
		return nil, err
	}
	return s.analyzer.TestNormality(sess.Dataset(), columns)
}

// ConfidenceLevels lists the supported confidence levels
func (s *SPCService) ConfidenceLevels() []spc.ConfidenceLevel {
	return append([]spc.ConfidenceLevel(nil), controlchart.SupportedConfidenceLevels...)
}
