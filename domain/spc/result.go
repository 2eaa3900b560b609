package spc

import "time"

// ConfidenceLevel is a canonical label such as "99.73%".
type ConfidenceLevel string

const (
	Confidence90   ConfidenceLevel = "90%"
	Confidence95   ConfidenceLevel = "95%"
	Confidence9545 ConfidenceLevel = "95.45%"
	Confidence99   ConfidenceLevel = "99%"
	Confidence9973 ConfidenceLevel = "99.73%"
)

// DefaultConfidence is the three-sigma level used when none is given.
const DefaultConfidence = Confidence9973

// Limits is the raw output of a control-limit calculator. USL is only set
// for the gamma-index column and LSL only for percentage columns.
type Limits struct {
	CenterLine float64
	UCL        float64
	LCL        float64
	USL        *float64
	LSL        *float64
}

// Point is one plotted observation after rounding to two decimals.
type Point struct {
	Row          int     `json:"row"`
	ID           string  `json:"id"`
	Value        float64 `json:"value"`
	OutOfControl bool    `json:"out_of_control"`
}

// ControlChartResult describes one column for one method and one round.
// It is built fresh by every calculation and never mutated afterwards.
// UCL, LCL, USL and LSL are the adjusted limits actually used to classify
// points, so a rendered chart matches the classification boundary.
type ControlChartResult struct {
	Method     Method          `json:"method"`
	Column     string          `json:"column"`
	Kind       ColumnKind      `json:"kind"`
	Confidence ConfidenceLevel `json:"confidence"`
	Alpha      float64         `json:"alpha"`
	Z          float64         `json:"z"`

	CenterLine float64  `json:"center_line"`
	Mean       float64  `json:"mean"` // center line rounded half-up to 1 decimal
	UCL        float64  `json:"ucl"`
	LCL        float64  `json:"lcl"`
	USL        *float64 `json:"usl,omitempty"`
	LSL        *float64 `json:"lsl,omitempty"`

	Raw Limits `json:"-"`

	Count        int      `json:"count"`
	Points       []Point  `json:"points"`
	OutOfControl []string `json:"out_of_control"`

	// Sequence numbers the computations of one method within a session.
	Sequence int `json:"sequence,omitempty"`
}

// HasOutliers reports whether any point fell outside the limits.
func (r *ControlChartResult) HasOutliers() bool {
	return len(r.OutOfControl) > 0
}

// LogEntry records one nulled cell.
type LogEntry struct {
	Round     int       `json:"round" db:"round"`
	Method    Method    `json:"method" db:"method"`
	Criterion string    `json:"criterion" db:"criterion"`
	ID        string    `json:"id" db:"row_id"`
	Value     float64   `json:"value" db:"eliminated_value"`
	At        time.Time `json:"at" db:"eliminated_at"`
}

// DatasetSummary is an overview of a loaded dataset.
type DatasetSummary struct {
	Rows         int        `json:"rows"`
	Columns      []string   `json:"columns"`
	Criteria     []string   `json:"criteria"`
	Sites        []string   `json:"sites"`
	FirstDate    *time.Time `json:"first_date,omitempty"`
	LastDate     *time.Time `json:"last_date,omitempty"`
	SortedByDate bool       `json:"sorted_by_date"`
	GammaTarget  *float64   `json:"gamma_target,omitempty"`
	Warnings     []string   `json:"warnings,omitempty"`
}
