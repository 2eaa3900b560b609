package profiling

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"gprspc/domain/core"
	"gprspc/domain/spc"
	"gprspc/internal/controlchart"
)

// Normality verdicts
const (
	VerdictNormal    = "Likely Normal"
	VerdictNotNormal = "Not Normal"
)

// adCritical5 is the asymptotic 5% critical value of the Anderson-Darling
// statistic for a normal with estimated mean and variance.
const adCritical5 = 0.787

// ColumnStats summarizes the valid observations of one column. Values are
// rounded half-up to 2 decimals; Std is nil with fewer than two values.
type ColumnStats struct {
	Column string   `json:"column"`
	Count  int      `json:"count"`
	Mean   float64  `json:"mean"`
	Std    *float64 `json:"std,omitempty"`
	Min    float64  `json:"min"`
	Q25    float64  `json:"q25"`
	Median float64  `json:"median"`
	Q75    float64  `json:"q75"`
	Max    float64  `json:"max"`
}

// NormalityResult is the outcome of an Anderson-Darling test at the 5% level
type NormalityResult struct {
	Column        string  `json:"column"`
	Count         int     `json:"count"`
	Statistic     float64 `json:"statistic"`
	CriticalValue float64 `json:"critical_value"`
	Normal        bool    `json:"normal"`
	Verdict       string  `json:"verdict"`
}

// DistributionAnalyzer handles distribution shape analysis of dataset columns
type DistributionAnalyzer struct{}

// NewDistributionAnalyzer creates a new distribution analyzer
func NewDistributionAnalyzer() *DistributionAnalyzer {
	return &DistributionAnalyzer{}
}

func validValues(ds *spc.Dataset, column string) ([]float64, error) {
	obs, err := ds.Valid(column)
	if err != nil {
		return nil, err
	}
	values := make([]float64, len(obs))
	for i, o := range obs {
		values[i] = o.Value
	}
	return values, nil
}

// StatisticsColumns lists the columns described by default: the analyzable
// criteria followed by the remaining numeric columns in name order.
func StatisticsColumns(ds *spc.Dataset) []string {
	columns := append([]string(nil), ds.Criteria...)
	var extra []string
	for name := range ds.Columns {
		if !ds.IsCriterion(name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(columns, extra...)
}

// Describe summarizes each column. Columns without any valid value fail
// with an insufficient-data error.
func (da *DistributionAnalyzer) Describe(ds *spc.Dataset, columns []string) ([]ColumnStats, error) {
	if len(columns) == 0 {
		columns = StatisticsColumns(ds)
	}
	out := make([]ColumnStats, 0, len(columns))
	for _, column := range columns {
		values, err := validValues(ds, column)
		if err != nil {
			return nil, err
		}
		cs, err := describeValues(column, values)
		if err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, nil
}

func describeValues(column string, values []float64) (ColumnStats, error) {
	if len(values) == 0 {
		return ColumnStats{}, core.NewInsufficientDataError(column, 0)
	}

	mean, err := stats.Mean(values)
	if err != nil {
		return ColumnStats{}, err
	}
	min, err := stats.Min(values)
	if err != nil {
		return ColumnStats{}, err
	}
	max, err := stats.Max(values)
	if err != nil {
		return ColumnStats{}, err
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	cs := ColumnStats{
		Column: column,
		Count:  len(values),
		Mean:   round2(mean),
		Min:    round2(min),
		Q25:    round2(stat.Quantile(0.25, stat.LinInterp, sorted, nil)),
		Median: round2(stat.Quantile(0.5, stat.LinInterp, sorted, nil)),
		Q75:    round2(stat.Quantile(0.75, stat.LinInterp, sorted, nil)),
		Max:    round2(max),
	}
	if len(values) > 1 {
		sd, err := stats.StandardDeviationSample(values)
		if err != nil {
			return ColumnStats{}, err
		}
		sd = round2(sd)
		cs.Std = &sd
	}
	return cs, nil
}

func round2(v float64) float64 {
	return controlchart.RoundHalfUp(v, 2)
}

// TestNormality runs the Anderson-Darling test on each column, defaulting
// to the analyzable criteria.
func (da *DistributionAnalyzer) TestNormality(ds *spc.Dataset, columns []string) ([]NormalityResult, error) {
	if len(columns) == 0 {
		columns = ds.Criteria
	}
	out := make([]NormalityResult, 0, len(columns))
	for _, column := range columns {
		values, err := validValues(ds, column)
		if err != nil {
			return nil, err
		}
		r, err := AndersonDarling(values)
		if err != nil {
			return nil, fmt.Errorf("normality of %q: %w", column, err)
		}
		r.Column = column
		out = append(out, r)
	}
	return out, nil
}

// AndersonDarling tests values against a normal distribution whose mean
// and standard deviation are estimated from the sample. Statistic and
// critical value are rounded to 3 decimals; the verdict compares the
// unrounded values.
func AndersonDarling(values []float64) (NormalityResult, error) {
	n := len(values)
	if n < 3 {
		return NormalityResult{}, fmt.Errorf("%w: %d valid observations, need at least 3", core.ErrInsufficientData, n)
	}

	mean, err := stats.Mean(values)
	if err != nil {
		return NormalityResult{}, err
	}
	sd, err := stats.StandardDeviationSample(values)
	if err != nil {
		return NormalityResult{}, err
	}
	if sd == 0 || math.IsNaN(sd) {
		return NormalityResult{}, fmt.Errorf("%w: zero variance", core.ErrDegenerateDistribution)
	}

	w := make([]float64, n)
	for i, v := range values {
		w[i] = (v - mean) / sd
	}
	sort.Float64s(w)

	fn := float64(n)
	var sum float64
	for i := 0; i < n; i++ {
		logCDF := math.Log(distuv.UnitNormal.CDF(w[i]))
		logSF := math.Log(distuv.UnitNormal.Survival(w[n-1-i]))
		sum += float64(2*(i+1)-1) / fn * (logCDF + logSF)
	}
	a2 := -fn - sum
	critical := criticalValue5(n)

	normal := a2 < critical
	verdict := VerdictNotNormal
	if normal {
		verdict = VerdictNormal
	}
	return NormalityResult{
		Count:         n,
		Statistic:     controlchart.RoundHalfUp(a2, 3),
		CriticalValue: critical,
		Normal:        normal,
		Verdict:       verdict,
	}, nil
}

// criticalValue5 is the 5% Anderson-Darling critical value for n
// observations, rounded to 3 decimals. The verdict compares against the
// rounded value.
func criticalValue5(n int) float64 {
	fn := float64(n)
	return controlchart.RoundHalfUp(adCritical5/(1+4/fn-25/(fn*fn)), 3)
}
