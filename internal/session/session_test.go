package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gprspc/domain/core"
	"gprspc/domain/spc"
	"gprspc/internal/testkit"
)

var fixedTime = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func fixture() *spc.Dataset {
	return testkit.NewDataset(map[string][]float64{
		"Global 3%2mm": {98.5, 99.1, 97.8, 98.9, 99.4, 98.2, 91.0, 98.7, 99.0, 98.6},
		"Local 2%2mm":  {95.0, 94.1, 95.3, 93.8, 94.6, 94.0, 85.5, 94.9, 95.1, 94.4},
	})
}

type recordingSink struct {
	mu    sync.Mutex
	err   error
	saved map[spc.Method][]spc.LogEntry
	ids   []core.ID
}

func (r *recordingSink) SaveLog(ctx context.Context, sessionID core.ID, method spc.Method, entries []spc.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if r.saved == nil {
		r.saved = make(map[spc.Method][]spc.LogEntry)
	}
	r.saved[method] = append(r.saved[method], entries...)
	r.ids = append(r.ids, sessionID)
	return nil
}

func openSession(t *testing.T, ds *spc.Dataset, opts ...Option) (*Session, *testkit.StaticSource) {
	t.Helper()
	src := testkit.NewStaticSource(ds)
	opts = append([]Option{WithClock(func() time.Time { return fixedTime })}, opts...)
	s, err := New(context.Background(), src, opts...)
	require.NoError(t, err)
	return s, src
}

func TestNew_LoadFailure(t *testing.T) {
	src := &testkit.StaticSource{Err: errors.New("disk gone")}
	_, err := New(context.Background(), src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
}

func TestCompute_DefaultsToAllCriteria(t *testing.T) {
	s, _ := openSession(t, fixture())
	assert.Equal(t, StateLoaded, s.State())

	results, err := s.Compute(context.Background(), ComputeRequest{Method: spc.MethodShewhart})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Global 3%2mm", results[0].Column)
	assert.Equal(t, "Local 2%2mm", results[1].Column)
	assert.Equal(t, spc.Confidence9973, results[0].Confidence)
	assert.Equal(t, []string{"P007"}, results[0].OutOfControl)
	assert.Equal(t, 1, results[0].Sequence)
	assert.Equal(t, StateComputed, s.State())

	again, err := s.Compute(context.Background(), ComputeRequest{Method: spc.MethodShewhart, Columns: []string{"Local 2%2mm"}})
	require.NoError(t, err)
	assert.Equal(t, 2, again[0].Sequence)
	assert.Len(t, s.Results(spc.MethodShewhart), 1)

	other, err := s.Compute(context.Background(), ComputeRequest{Method: spc.MethodSC})
	require.NoError(t, err)
	assert.Equal(t, 1, other[0].Sequence)
}

func TestCompute_ErrorKeepsState(t *testing.T) {
	s, _ := openSession(t, fixture())

	_, err := s.Compute(context.Background(), ComputeRequest{Method: spc.MethodWSD, Columns: []string{"Global 3%2mm", "Global 1%1mm"}})
	assert.True(t, errors.Is(err, core.ErrUnknownColumn))
	assert.Equal(t, StateLoaded, s.State())
	assert.Empty(t, s.Results(spc.MethodWSD))

	_, err = s.Compute(context.Background(), ComputeRequest{Method: spc.MethodWSD, Confidence: "42%"})
	assert.True(t, errors.Is(err, core.ErrUnsupportedConfidenceLevel))
}

func TestEliminate_RoundCounterIsMonotonic(t *testing.T) {
	s, _ := openSession(t, fixture())
	ctx := context.Background()
	assert.Equal(t, 1, s.Round(spc.MethodShewhart))

	out, err := s.Eliminate(ctx, EliminationRequest{Method: spc.MethodShewhart, Criterion: "Local 2%2mm", IDs: []string{"P002"}})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Round)
	assert.Equal(t, 2, s.Round(spc.MethodShewhart))

	out, err = s.Eliminate(ctx, EliminationRequest{Method: spc.MethodShewhart, Criterion: "Local 2%2mm", IDs: []string{"P404"}})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Round)
	assert.Empty(t, out.Entries)
	assert.Equal(t, 3, s.Round(spc.MethodShewhart))

	// counters are per method
	assert.Equal(t, 1, s.Round(spc.MethodSWV))
}

func TestEliminate_RowWideAndRecompute(t *testing.T) {
	s, _ := openSession(t, fixture())
	ctx := context.Background()

	_, err := s.Compute(ctx, ComputeRequest{Method: spc.MethodShewhart})
	require.NoError(t, err)

	out, err := s.Eliminate(ctx, EliminationRequest{Method: spc.MethodShewhart, Criterion: spc.CascadeCriterion, IDs: []string{"P007"}})
	require.NoError(t, err)

	require.Len(t, out.Entries, 2)
	assert.Equal(t, 1, out.Eliminated)
	for _, e := range out.Entries {
		assert.Equal(t, 1, e.Round)
		assert.Equal(t, "P007", e.ID)
		assert.Equal(t, fixedTime, e.At)
	}
	assert.Equal(t, 85.5, out.Entries[1].Value)

	require.Len(t, out.Results, 2)
	for _, r := range out.Results {
		assert.Equal(t, 9, r.Count)
		assert.NotContains(t, r.OutOfControl, "P007")
		assert.Equal(t, 2, r.Sequence)
	}

	ds := s.Dataset()
	assert.True(t, spc.IsMissing(ds.Columns["Global 3%2mm"][6]))
	assert.True(t, spc.IsMissing(ds.Columns["Local 2%2mm"][6]))
	assert.Equal(t, out.Entries, s.Log(spc.MethodShewhart))
}

func TestEliminate_RecomputesLastColumns(t *testing.T) {
	s, _ := openSession(t, fixture())
	ctx := context.Background()

	_, err := s.Compute(ctx, ComputeRequest{Method: spc.MethodSC, Columns: []string{"Local 2%2mm"}})
	require.NoError(t, err)

	out, err := s.Eliminate(ctx, EliminationRequest{Method: spc.MethodSC, Criterion: "Local 2%2mm", IDs: []string{"P007"}})
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "Local 2%2mm", out.Results[0].Column)
}

func TestEliminate_RecomputesOnlyTouchedCriterion(t *testing.T) {
	s, _ := openSession(t, fixture())
	ctx := context.Background()

	_, err := s.Compute(ctx, ComputeRequest{Method: spc.MethodShewhart})
	require.NoError(t, err)

	out, err := s.Eliminate(ctx, EliminationRequest{Method: spc.MethodShewhart, Criterion: "Local 2%2mm", IDs: []string{"P007"}})
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "Local 2%2mm", out.Results[0].Column)
	assert.Equal(t, 9, out.Results[0].Count)

	all := s.Results(spc.MethodShewhart)
	require.Len(t, all, 2)
	assert.Equal(t, "Global 3%2mm", all[0].Column)
	assert.Equal(t, 10, all[0].Count)
	assert.Equal(t, 1, all[0].Sequence)
	assert.Equal(t, "Local 2%2mm", all[1].Column)
	assert.Equal(t, 2, all[1].Sequence)
}

func TestEliminate_UnrelatedSparseColumnDoesNotBlock(t *testing.T) {
	ds := testkit.NewDataset(map[string][]float64{
		"Global 3%1mm": {97.0},
		"Local 2%2mm":  {95.0, 94.1, 95.3, 93.8, 94.6, 94.0, 85.5, 94.9, 95.1, 94.4},
	})
	s, _ := openSession(t, ds)

	out, err := s.Eliminate(context.Background(), EliminationRequest{Method: spc.MethodShewhart, Criterion: "Local 2%2mm", IDs: []string{"P002"}})
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, 9, out.Results[0].Count)
	assert.Equal(t, 2, s.Round(spc.MethodShewhart))
}

func TestEliminate_FailureLeavesSessionUntouched(t *testing.T) {
	ds := testkit.NewDataset(map[string][]float64{"Global 2%2mm": {97, 98}})
	s, _ := openSession(t, ds)

	_, err := s.Eliminate(context.Background(), EliminationRequest{Method: spc.MethodWSD, Criterion: "Global 2%2mm", IDs: []string{"P001"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInsufficientData))

	assert.Equal(t, 1, s.Round(spc.MethodWSD))
	assert.Empty(t, s.Log(spc.MethodWSD))
	assert.Equal(t, 97.0, s.Dataset().Columns["Global 2%2mm"][0])
}

func TestEliminate_RejectsUnknownInputs(t *testing.T) {
	s, _ := openSession(t, fixture())
	ctx := context.Background()

	_, err := s.Eliminate(ctx, EliminationRequest{Method: "ewma", Criterion: "Local 2%2mm", IDs: []string{"P001"}})
	assert.True(t, errors.Is(err, core.ErrUnknownMethod))

	_, err = s.Eliminate(ctx, EliminationRequest{Method: spc.MethodSC, Criterion: "Local 9%9mm", IDs: []string{"P001"}})
	assert.True(t, errors.Is(err, core.ErrUnknownColumn))
}

func TestReset_RestoresSourceAndPersistsLogs(t *testing.T) {
	sink := &recordingSink{}
	original := fixture()
	s, src := openSession(t, original.Clone(), WithLogSink(sink))
	ctx := context.Background()

	_, err := s.Eliminate(ctx, EliminationRequest{Method: spc.MethodSWV, Criterion: spc.CascadeCriterion, IDs: []string{"P007"}})
	require.NoError(t, err)
	_, err = s.Eliminate(ctx, EliminationRequest{Method: spc.MethodWSD, Criterion: "Local 2%2mm", IDs: []string{"P001"}})
	require.NoError(t, err)
	_, err = s.Compute(ctx, ComputeRequest{Method: spc.MethodSC})
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx))

	assert.Equal(t, 2, src.Loads)
	assert.Equal(t, original, s.Dataset())
	assert.Equal(t, StateLoaded, s.State())
	assert.Empty(t, s.Logs())
	assert.Empty(t, s.Results(spc.MethodSC))
	for _, m := range spc.Methods {
		assert.Equal(t, 1, s.Round(m), m)
	}

	assert.Len(t, sink.saved[spc.MethodSWV], 2)
	assert.Len(t, sink.saved[spc.MethodWSD], 1)
	assert.Equal(t, []core.ID{s.ID(), s.ID()}, sink.ids)

	// sequence restarts too
	results, err := s.Compute(ctx, ComputeRequest{Method: spc.MethodSC})
	require.NoError(t, err)
	assert.Equal(t, 1, results[0].Sequence)
}

func TestReset_SinkFailureKeepsLogs(t *testing.T) {
	sink := &recordingSink{err: errors.New("db down")}
	s, _ := openSession(t, fixture(), WithLogSink(sink))
	ctx := context.Background()

	_, err := s.Eliminate(ctx, EliminationRequest{Method: spc.MethodSC, Criterion: "Local 2%2mm", IDs: []string{"P003"}})
	require.NoError(t, err)

	err = s.Reset(ctx)
	require.Error(t, err)
	assert.Len(t, s.Log(spc.MethodSC), 1)
	assert.Equal(t, 2, s.Round(spc.MethodSC))
}

func TestReset_SourceFailureKeepsState(t *testing.T) {
	s, src := openSession(t, fixture())
	ctx := context.Background()

	_, err := s.Eliminate(ctx, EliminationRequest{Method: spc.MethodSC, Criterion: "Local 2%2mm", IDs: []string{"P003"}})
	require.NoError(t, err)

	src.Err = errors.New("file locked")
	require.Error(t, s.Reset(ctx))
	assert.Equal(t, 2, s.Round(spc.MethodSC))
	assert.True(t, spc.IsMissing(s.Dataset().Columns["Local 2%2mm"][2]))
}

func TestEliminate_ConcurrentRequestsAreSerialized(t *testing.T) {
	s, _ := openSession(t, fixture())
	ctx := context.Background()

	ids := []string{"P001", "P002", "P003", "P004", "P005"}
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Eliminate(ctx, EliminationRequest{Method: spc.MethodSC, Criterion: "Local 2%2mm", IDs: []string{id}})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, len(ids)+1, s.Round(spc.MethodSC))
	rounds := make(map[int]bool)
	for _, e := range s.Log(spc.MethodSC) {
		assert.False(t, rounds[e.Round], fmt.Sprintf("round %d logged twice", e.Round))
		rounds[e.Round] = true
	}
	assert.Len(t, rounds, len(ids))
}
