package controlchart

import "gprspc/domain/spc"

const (
	// gammaNudge is added to the gamma-index UCL and USL before comparison.
	gammaNudge = 0.01
	// percentageNudge is subtracted from a percentage LCL and LSL before comparison.
	percentageNudge = 0.1
)

// Classification is the outcome of comparing rounded data to rounded limits.
// The limits are the adjusted values actually used as boundaries.
type Classification struct {
	UCL          float64
	LCL          float64
	USL          *float64
	LSL          *float64
	Points       []spc.Point
	OutOfControl []string
}

// Classify rounds observations to 2 decimals, the UCL to 2 and the LCL to 1,
// applies the boundary nudge for the column kind, and flags every point
// strictly above the UCL or strictly below the LCL.
func Classify(obs []spc.Observation, kind spc.ColumnKind, limits spc.Limits) Classification {
	c := Classification{
		UCL: RoundHalfUp(limits.UCL, 2),
		LCL: RoundHalfUp(limits.LCL, 1),
		USL: limits.USL,
		LSL: limits.LSL,
	}

	switch kind {
	case spc.KindGammaIndex:
		c.UCL = RoundHalfUp(c.UCL+gammaNudge, 2)
		if c.USL != nil {
			usl := RoundHalfUp(*c.USL+gammaNudge, 2)
			c.USL = &usl
		}
	default:
		c.LCL = RoundHalfUp(c.LCL-percentageNudge, 1)
		if c.LSL != nil {
			lsl := RoundHalfUp(*c.LSL-percentageNudge, 1)
			c.LSL = &lsl
		}
	}

	c.Points = make([]spc.Point, len(obs))
	for i, o := range obs {
		v := RoundHalfUp(o.Value, 2)
		out := v > c.UCL || v < c.LCL
		c.Points[i] = spc.Point{Row: o.Row, ID: o.ID, Value: v, OutOfControl: out}
		if out {
			c.OutOfControl = append(c.OutOfControl, o.ID)
		}
	}
	return c
}
