package controlchart

import (
	"fmt"

	"gprspc/domain/core"
	"gprspc/domain/spc"
)

// CalculationError carries the request context of a failed calculation.
type CalculationError struct {
	Method     spc.Method
	Column     string
	Confidence spc.ConfidenceLevel
	Err        error
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("%s limits for %q at %s: %v", e.Method.DisplayName(), e.Column, e.Confidence, e.Err)
}

func (e *CalculationError) Unwrap() error {
	return e.Err
}

func isKnownCriterion(column string) bool {
	for _, c := range spc.Criteria() {
		if c == column {
			return true
		}
	}
	return false
}

// ComputeLimits recomputes the control chart of one column from the current
// state of ds. It never mutates ds, so calling it twice on the same dataset
// yields identical results.
func ComputeLimits(ds *spc.Dataset, method spc.Method, column string, level spc.ConfidenceLevel) (*spc.ControlChartResult, error) {
	fail := func(err error) (*spc.ControlChartResult, error) {
		return nil, &CalculationError{Method: method, Column: column, Confidence: level, Err: err}
	}

	calc, err := CalculatorFor(method)
	if err != nil {
		return fail(err)
	}
	info, err := Lookup(level)
	if err != nil {
		return fail(err)
	}
	if !isKnownCriterion(column) {
		return fail(core.NewUnknownColumnError(column))
	}
	obs, err := ds.Valid(column)
	if err != nil {
		return fail(err)
	}

	kind := spc.KindOf(column)
	target := PercentageTarget
	if kind == spc.KindGammaIndex {
		if ds.GammaTarget == nil {
			return fail(core.ErrMissingGammaTarget)
		}
		target = *ds.GammaTarget
	}
	if len(obs) < 2 {
		return fail(core.NewInsufficientDataError(column, len(obs)))
	}

	values := make([]float64, len(obs))
	for i, o := range obs {
		values[i] = o.Value
	}
	limits, err := calc(Input{Values: values, Kind: kind, Alpha: info.Alpha, Z: info.Z, Target: target})
	if err != nil {
		return fail(err)
	}

	cls := Classify(obs, kind, limits)
	return &spc.ControlChartResult{
		Method:       method,
		Column:       column,
		Kind:         kind,
		Confidence:   level,
		Alpha:        info.Alpha,
		Z:            info.Z,
		CenterLine:   limits.CenterLine,
		Mean:         RoundHalfUp(limits.CenterLine, 1),
		UCL:          cls.UCL,
		LCL:          cls.LCL,
		USL:          cls.USL,
		LSL:          cls.LSL,
		Raw:          limits,
		Count:        len(obs),
		Points:       cls.Points,
		OutOfControl: cls.OutOfControl,
	}, nil
}

// ComputeAll computes every column in order and stops at the first error.
func ComputeAll(ds *spc.Dataset, method spc.Method, columns []string, level spc.ConfidenceLevel) ([]*spc.ControlChartResult, error) {
	results := make([]*spc.ControlChartResult, 0, len(columns))
	for _, column := range columns {
		r, err := ComputeLimits(ds, method, column, level)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// Outliers maps each column to its out-of-control identifiers.
func Outliers(results []*spc.ControlChartResult) map[string][]string {
	out := make(map[string][]string, len(results))
	for _, r := range results {
		out[r.Column] = append([]string(nil), r.OutOfControl...)
	}
	return out
}
