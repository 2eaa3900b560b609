package controlchart

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"gprspc/domain/core"
	"gprspc/domain/spc"
)

const (
	// D2 is the expected ratio of a two-point moving range to sigma.
	D2 = 1.128
	// Bias is the action-limit bias factor b.
	Bias = 6.0
	// PercentageTarget is the target T and tolerance ceiling of GPR criteria.
	PercentageTarget = 100.0
)

// Input carries everything a calculator needs. Values are the valid
// observations of one column in row order.
type Input struct {
	Values []float64
	Kind   spc.ColumnKind
	Alpha  float64
	Z      float64
	// Target is T in the action-limit formulas: the dataset's gamma target
	// for the gamma-index column, PercentageTarget otherwise.
	Target float64
}

// Calculator turns an Input into control limits.
type Calculator func(in Input) (spc.Limits, error)

var calculators = map[spc.Method]Calculator{
	spc.MethodShewhart: Shewhart,
	spc.MethodWSD:      WSD,
	spc.MethodSWV:      SWV,
	spc.MethodSC:       SC,
}

// CalculatorFor returns the calculator registered for a method.
func CalculatorFor(method spc.Method) (Calculator, error) {
	calc, ok := calculators[method]
	if !ok {
		return nil, fmt.Errorf("%w %q", core.ErrUnknownMethod, method)
	}
	return calc, nil
}

// Stats holds the quantities shared by every calculator.
type Stats struct {
	CenterLine      float64
	MeanMovingRange float64
	MovingRanges    []float64
}

// Describe computes the center line and moving-range statistics.
func Describe(values []float64) (Stats, error) {
	if len(values) < 2 {
		return Stats{}, fmt.Errorf("%w: %d valid observations", core.ErrInsufficientData, len(values))
	}
	cl, err := stats.Mean(values)
	if err != nil {
		return Stats{}, err
	}
	mr := MovingRanges(values)
	meanMR, err := stats.Mean(mr)
	if err != nil {
		return Stats{}, err
	}
	return Stats{CenterLine: cl, MeanMovingRange: meanMR, MovingRanges: mr}, nil
}

// MovingRanges returns |x[i+1]-x[i]| for successive observations.
func MovingRanges(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	mr := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		mr[i-1] = math.Abs(values[i] - values[i-1])
	}
	return mr
}

// FractionBelow returns P, the fraction of values <= cl.
func FractionBelow(values []float64, cl float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var n int
	for _, v := range values {
		if v <= cl {
			n++
		}
	}
	return float64(n) / float64(len(values))
}

// Skewness returns the biased sample skewness m3 / m2^1.5. Constant data
// has skewness 0.
func Skewness(values []float64) float64 {
	m2 := stat.Moment(2, values, nil)
	if m2 == 0 {
		return 0
	}
	return stat.Moment(3, values, nil) / math.Pow(m2, 1.5)
}

func actionMagnitude(spread, cl, target float64) float64 {
	return math.Hypot(spread, 3*(cl-target))
}

// Shewhart is the baseline individuals chart: sigma = mean MR / d2.
func Shewhart(in Input) (spc.Limits, error) {
	s, err := Describe(in.Values)
	if err != nil {
		return spc.Limits{}, err
	}
	cl := s.CenterLine
	sigma := s.MeanMovingRange / D2
	da := Bias * math.Sqrt(sigma*sigma+(cl-in.Target)*(cl-in.Target))

	switch in.Kind {
	case spc.KindGammaIndex:
		usl := cl + da/2
		return spc.Limits{CenterLine: cl, UCL: cl + in.Z*sigma, LCL: 0, USL: &usl}, nil
	default:
		lsl := cl - da/2
		return spc.Limits{CenterLine: cl, UCL: PercentageTarget, LCL: cl - in.Z*sigma, LSL: &lsl}, nil
	}
}

// WSD is the weighted-standard-deviation chart. Each side of the center
// line is scaled by the share of observations on that side.
func WSD(in Input) (spc.Limits, error) {
	s, err := Describe(in.Values)
	if err != nil {
		return spc.Limits{}, err
	}
	cl := s.CenterLine
	p := FractionBelow(in.Values, cl)
	d2w := WSDTable.Interpolate(p)

	switch in.Kind {
	case spc.KindGammaIndex:
		weight := 2 * p
		ucl := cl + (in.Z*s.MeanMovingRange/d2w)*weight
		usl := cl + actionMagnitude((3*s.MeanMovingRange/d2w)*weight, cl, in.Target)
		return spc.Limits{CenterLine: cl, UCL: ucl, LCL: 0, USL: &usl}, nil
	default:
		weight := 2 * (1 - p)
		lcl := cl - (in.Z*s.MeanMovingRange/d2w)*weight
		lsl := cl - actionMagnitude((3*s.MeanMovingRange/d2w)*weight, cl, in.Target)
		return spc.Limits{CenterLine: cl, UCL: PercentageTarget, LCL: lcl, LSL: &lsl}, nil
	}
}

// SWV is the scaled-weighted-variance chart with asymmetric z-scores.
func SWV(in Input) (spc.Limits, error) {
	s, err := Describe(in.Values)
	if err != nil {
		return spc.Limits{}, err
	}
	cl := s.CenterLine
	p := FractionBelow(in.Values, cl)

	switch in.Kind {
	case spc.KindGammaIndex:
		var spread, z float64
		if s.MeanMovingRange > 0 {
			z, err = tailQuantile(in.Alpha / (4 * (1 - p)))
			if err != nil {
				return spc.Limits{}, err
			}
			spread = (SWVUpperTable.Interpolate(p) / 3) * math.Sqrt(1/(2*(1-p))) * s.MeanMovingRange
		}
		ucl := cl + spread*z
		usl := cl + actionMagnitude(3*spread, cl, in.Target)
		return spc.Limits{CenterLine: cl, UCL: ucl, LCL: 0, USL: &usl}, nil
	default:
		var spread, z float64
		if s.MeanMovingRange > 0 {
			z, err = tailQuantile(in.Alpha / (4 * p))
			if err != nil {
				return spc.Limits{}, err
			}
			spread = (SWVLowerTable.Interpolate(p) / 3) * math.Sqrt(1/(2*p)) * s.MeanMovingRange
		}
		lcl := cl - spread*z
		lsl := cl - actionMagnitude(3*spread, cl, in.Target)
		return spc.Limits{CenterLine: cl, UCL: PercentageTarget, LCL: lcl, LSL: &lsl}, nil
	}
}

// tailQuantile returns the standard normal quantile of 1-tail.
func tailQuantile(tail float64) (float64, error) {
	q := 1 - tail
	if !(q > 0 && q < 1) {
		return 0, fmt.Errorf("%w: tail probability %.4f outside (0,1)", core.ErrDegenerateDistribution, tail)
	}
	return distuv.UnitNormal.Quantile(q), nil
}

// SC is the skewness-correction chart.
func SC(in Input) (spc.Limits, error) {
	s, err := Describe(in.Values)
	if err != nil {
		return spc.Limits{}, err
	}
	cl := s.CenterLine
	k3 := Skewness(in.Values)
	d2sc := SkewnessTable.Interpolate(math.Abs(k3))
	damp := 1 + 0.2*k3*k3
	skewFactor := (1.0 / 6.0) * (in.Z*in.Z - 1) * k3 / damp
	actionFactor := (4.0 / 3.0) * k3 / damp
	unit := s.MeanMovingRange / d2sc

	switch in.Kind {
	case spc.KindGammaIndex:
		ucl := cl + (in.Z+skewFactor)*unit
		usl := cl + actionMagnitude((3+actionFactor)*unit, cl, in.Target)
		return spc.Limits{CenterLine: cl, UCL: ucl, LCL: 0, USL: &usl}, nil
	default:
		lcl := cl + (-in.Z+skewFactor)*unit
		lsl := cl - actionMagnitude((-3+actionFactor)*unit, cl, in.Target)
		return spc.Limits{CenterLine: cl, UCL: PercentageTarget, LCL: lcl, LSL: &lsl}, nil
	}
}
