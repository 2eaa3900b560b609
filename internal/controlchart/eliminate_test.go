package controlchart

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gprspc/domain/core"
	"gprspc/domain/spc"
	"gprspc/internal/testkit"
)

func eliminationFixture() *spc.Dataset {
	return testkit.NewDataset(map[string][]float64{
		"Global 3%3mm":       {99.5, 99.2, 99.8, 99.1, 99.6, 99.0, 93.0, 99.4},
		"Global 3%2mm":       {98.5, 98.1, 98.9, 97.8, 98.4, 98.0, 90.2, 98.6},
		"Local 2%2mm":        {95.0, 94.1, 95.3, 93.8, 94.6, 94.0, 85.5, 94.9},
		spc.GammaIndexColumn: {0.31, 0.33, 0.29, 0.35, 0.32, 0.34, 0.71, 0.30},
	}, testkit.WithGammaTarget(0.26))
}

func TestEliminate_RowWideOnCascadeCriterion(t *testing.T) {
	ds := eliminationFixture()

	entries, err := Eliminate(ds, spc.MethodWSD, spc.CascadeCriterion, []string{"P007"}, 2)
	require.NoError(t, err)
	require.Len(t, entries, len(ds.Criteria))

	for _, e := range entries {
		assert.Equal(t, 2, e.Round)
		assert.Equal(t, spc.MethodWSD, e.Method)
		assert.Equal(t, "P007", e.ID)
		assert.True(t, spc.IsMissing(ds.Columns[e.Criterion][6]), e.Criterion)
	}
	assert.Equal(t, 90.2, entries[1].Value)
	assert.Equal(t, spc.GammaIndexColumn, entries[3].Criterion)
	assert.Equal(t, 0.71, entries[3].Value)

	// other rows untouched
	assert.Equal(t, 98.6, ds.Columns["Global 3%2mm"][7])
}

func TestEliminate_SingleCriterion(t *testing.T) {
	ds := eliminationFixture()

	entries, err := Eliminate(ds, spc.MethodSC, "Local 2%2mm", []string{"P007", "P999"}, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, spc.LogEntry{Round: 1, Method: spc.MethodSC, Criterion: "Local 2%2mm", ID: "P007", Value: 85.5}, entries[0])

	assert.True(t, spc.IsMissing(ds.Columns["Local 2%2mm"][6]))
	assert.Equal(t, 90.2, ds.Columns["Global 3%2mm"][6])
}

func TestEliminate_FirstMatchWins(t *testing.T) {
	ds := testkit.NewDataset(map[string][]float64{"Global 2%1mm": {90, 91, 92}}, testkit.WithIDs("A", "B", "A"))

	entries, err := Eliminate(ds, spc.MethodShewhart, "Global 2%1mm", []string{"A"}, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, spc.IsMissing(ds.Columns["Global 2%1mm"][0]))
	assert.Equal(t, 92.0, ds.Columns["Global 2%1mm"][2])
}

func TestEliminate_AlreadyMissingProducesNoEntry(t *testing.T) {
	ds := eliminationFixture()

	_, err := Eliminate(ds, spc.MethodSC, "Local 2%2mm", []string{"P003"}, 1)
	require.NoError(t, err)
	entries, err := Eliminate(ds, spc.MethodSC, spc.CascadeCriterion, []string{"P003"}, 2)
	require.NoError(t, err)
	assert.Len(t, entries, len(ds.Criteria)-1)
	assert.Equal(t, 1, EliminatedCount(entries))
}

func TestEliminate_UnknownCriterion(t *testing.T) {
	_, err := Eliminate(eliminationFixture(), spc.MethodSC, "Local 9%9mm", []string{"P001"}, 1)
	assert.True(t, errors.Is(err, core.ErrUnknownColumn))
}

func TestEliminate_ThenRecomputeDropsOutlier(t *testing.T) {
	ds := testkit.NewDataset(map[string][]float64{"Global 3%2mm": endToEndGPR})

	r, err := ComputeLimits(ds, spc.MethodShewhart, "Global 3%2mm", spc.Confidence9973)
	require.NoError(t, err)
	require.Equal(t, []string{"P007"}, r.OutOfControl)

	_, err = Eliminate(ds, spc.MethodShewhart, "Global 3%2mm", r.OutOfControl, 1)
	require.NoError(t, err)

	r2, err := ComputeLimits(ds, spc.MethodShewhart, "Global 3%2mm", spc.Confidence9973)
	require.NoError(t, err)
	assert.Equal(t, 9, r2.Count)
	assert.Greater(t, r2.LCL, r.LCL)
	assert.NotContains(t, r2.OutOfControl, "P007")
}
