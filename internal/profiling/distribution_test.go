package profiling

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"gprspc/domain/core"
	"gprspc/domain/spc"
	"gprspc/internal/testkit"
)

// normalScores returns the expected order statistics of a standard normal
// sample, the most normal-looking sample of size n.
func normalScores(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 95 + 2*distuv.UnitNormal.Quantile((float64(i)+0.5)/float64(n))
	}
	return out
}

func exponentialScores(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = -math.Log(1 - (float64(i)+0.5)/float64(n))
	}
	return out
}

func TestAndersonDarling_NormalSample(t *testing.T) {
	r, err := AndersonDarling(normalScores(50))
	require.NoError(t, err)
	assert.True(t, r.Normal)
	assert.Equal(t, VerdictNormal, r.Verdict)
	assert.Less(t, r.Statistic, 0.3)
	assert.Equal(t, 50, r.Count)
}

func TestAndersonDarling_SkewedSample(t *testing.T) {
	r, err := AndersonDarling(exponentialScores(100))
	require.NoError(t, err)
	assert.False(t, r.Normal)
	assert.Equal(t, VerdictNotNormal, r.Verdict)
	assert.Greater(t, r.Statistic, r.CriticalValue)
}

func TestAndersonDarling_CriticalValue(t *testing.T) {
	values := []float64{1, 3, 2, 5, 4, 6, 8, 7, 9, 10}
	r, err := AndersonDarling(values)
	require.NoError(t, err)
	// 0.787 / (1 + 4/10 - 25/100)
	assert.Equal(t, 0.684, r.CriticalValue)
}

func TestCriticalValue5_IsRoundedBeforeComparison(t *testing.T) {
	assert.Equal(t, 0.684, criticalValue5(10))
	assert.Equal(t, 0.692, criticalValue5(20))

	// 0.6842 lies between the rounded (0.684) and exact (0.68435) value
	assert.False(t, 0.6842 < criticalValue5(10))
}

func TestAndersonDarling_Errors(t *testing.T) {
	_, err := AndersonDarling([]float64{1, 2})
	assert.True(t, errors.Is(err, core.ErrInsufficientData))

	_, err = AndersonDarling([]float64{4, 4, 4, 4})
	assert.True(t, errors.Is(err, core.ErrDegenerateDistribution))
}

func TestDescribe(t *testing.T) {
	ds := testkit.NewDataset(map[string][]float64{
		"Global 3%2mm":          {1, 2, 3, 4, 5},
		"Local 2%2mm":           {7.125, math.NaN(), math.NaN(), math.NaN(), math.NaN()},
		spc.ColumnDoseDeviation: {0.01, 0.02, 0.03, 0.02, 0.02},
	})

	got, err := NewDistributionAnalyzer().Describe(ds, nil)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "Global 3%2mm", got[0].Column)
	assert.Equal(t, 5, got[0].Count)
	assert.Equal(t, 3.0, got[0].Mean)
	require.NotNil(t, got[0].Std)
	assert.Equal(t, 1.58, *got[0].Std)
	assert.Equal(t, 1.0, got[0].Min)
	assert.Equal(t, 5.0, got[0].Max)
	assert.GreaterOrEqual(t, got[0].Q25, 1.0)
	assert.LessOrEqual(t, got[0].Q25, got[0].Median)
	assert.LessOrEqual(t, got[0].Median, got[0].Q75)

	assert.Equal(t, "Local 2%2mm", got[1].Column)
	assert.Equal(t, 1, got[1].Count)
	assert.Nil(t, got[1].Std)
	assert.Equal(t, 7.13, got[1].Mean)

	assert.Equal(t, spc.ColumnDoseDeviation, got[2].Column)
}

func TestDescribe_Errors(t *testing.T) {
	ds := testkit.NewDataset(map[string][]float64{
		"Global 3%2mm": {98, 97},
		"Local 2%2mm":  {math.NaN(), math.NaN()},
	})
	da := NewDistributionAnalyzer()

	_, err := da.Describe(ds, []string{"Local 2%2mm"})
	assert.True(t, errors.Is(err, core.ErrInsufficientData))

	_, err = da.Describe(ds, []string{"Global 9%9mm"})
	assert.True(t, errors.Is(err, core.ErrUnknownColumn))
}

func TestTestNormality_DefaultsToCriteria(t *testing.T) {
	ds := testkit.NewGPRGenerator(testkit.DefaultGPRConfig()).Generate()

	results, err := NewDistributionAnalyzer().TestNormality(ds, nil)
	require.NoError(t, err)
	require.Len(t, results, len(ds.Criteria))
	for i, r := range results {
		assert.Equal(t, ds.Criteria[i], r.Column)
		assert.Contains(t, []string{VerdictNormal, VerdictNotNormal}, r.Verdict)
	}
}
