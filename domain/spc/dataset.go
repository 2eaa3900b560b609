package spc

import (
	"math"
	"sort"
	"time"

	"gprspc/domain/core"
)

// Missing is the sentinel stored in a numeric cell without a value.
var Missing = math.NaN()

// IsMissing reports whether a numeric cell holds no value.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// Dataset is the working table of measurement records, stored column-wise.
// Row i of every slice describes the same QA event. Numeric cells hold
// Missing when absent; elimination nulls cells but never removes rows.
type Dataset struct {
	IDs   []string
	Names []string
	Sites []string
	Dates []time.Time // zero time when the date could not be parsed

	// Columns holds every numeric column that was loaded, keyed by name.
	Columns map[string][]float64

	// Criteria lists the analyzable criteria in canonical order.
	Criteria []string

	// GammaTarget is the fixed target T for the gamma-index column, nil when
	// no dose-deviation column was available.
	GammaTarget *float64

	Warnings []string
}

// NewDataset creates an empty dataset with n rows.
func NewDataset(n int) *Dataset {
	return &Dataset{
		IDs:     make([]string, n),
		Names:   make([]string, n),
		Sites:   make([]string, n),
		Dates:   make([]time.Time, n),
		Columns: make(map[string][]float64),
	}
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.IDs)
}

// HasColumn reports whether a numeric column is present.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.Columns[name]
	return ok
}

// IsCriterion reports whether name is one of the analyzable criteria.
func (d *Dataset) IsCriterion(name string) bool {
	for _, c := range d.Criteria {
		if c == name {
			return true
		}
	}
	return false
}

// Observation is one valid cell of a column with the row it came from.
type Observation struct {
	Row   int
	ID    string
	Value float64
}

// Valid returns the non-missing observations of a column in row order.
func (d *Dataset) Valid(column string) ([]Observation, error) {
	values, ok := d.Columns[column]
	if !ok {
		return nil, core.NewUnknownColumnError(column)
	}
	out := make([]Observation, 0, len(values))
	for i, v := range values {
		if IsMissing(v) {
			continue
		}
		out = append(out, Observation{Row: i, ID: d.IDs[i], Value: v})
	}
	return out, nil
}

// RowIndex returns the first row whose identifier equals id.
func (d *Dataset) RowIndex(id string) (int, error) {
	for i, rowID := range d.IDs {
		if rowID == id {
			return i, nil
		}
	}
	return -1, core.ErrRowNotFound
}

// Clone returns a deep copy so a working dataset can be mutated without
// touching its source.
func (d *Dataset) Clone() *Dataset {
	c := &Dataset{
		IDs:      append([]string(nil), d.IDs...),
		Names:    append([]string(nil), d.Names...),
		Sites:    append([]string(nil), d.Sites...),
		Dates:    append([]time.Time(nil), d.Dates...),
		Columns:  make(map[string][]float64, len(d.Columns)),
		Criteria: append([]string(nil), d.Criteria...),
		Warnings: append([]string(nil), d.Warnings...),
	}
	for name, values := range d.Columns {
		c.Columns[name] = append([]float64(nil), values...)
	}
	if d.GammaTarget != nil {
		t := *d.GammaTarget
		c.GammaTarget = &t
	}
	return c
}

// SortByDate orders rows by QA date ascending, rows without a date last.
// The sort is stable so equal dates keep their file order.
func (d *Dataset) SortByDate() {
	n := d.Len()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		da, db := d.Dates[order[a]], d.Dates[order[b]]
		if da.IsZero() {
			return false
		}
		if db.IsZero() {
			return true
		}
		return da.Before(db)
	})

	d.IDs = permuteStrings(d.IDs, order)
	d.Names = permuteStrings(d.Names, order)
	d.Sites = permuteStrings(d.Sites, order)
	dates := make([]time.Time, n)
	for i, src := range order {
		dates[i] = d.Dates[src]
	}
	d.Dates = dates
	for name, values := range d.Columns {
		sorted := make([]float64, n)
		for i, src := range order {
			sorted[i] = values[src]
		}
		d.Columns[name] = sorted
	}
}

func permuteStrings(in []string, order []int) []string {
	out := make([]string, len(in))
	for i, src := range order {
		out[i] = in[src]
	}
	return out
}

// ComputeGammaTarget derives T = sqrt(0.5²/2² + mean(dd)²/0.03²) from the
// dose-deviation column. Missing cells are skipped; the target stays nil
// when the column is absent or empty.
func (d *Dataset) ComputeGammaTarget() {
	values, ok := d.Columns[ColumnDoseDeviation]
	if !ok {
		d.GammaTarget = nil
		return
	}
	var sum float64
	var n int
	for _, v := range values {
		if IsMissing(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		d.GammaTarget = nil
		return
	}
	mean := sum / float64(n)
	t := math.Sqrt((0.5*0.5)/(2*2) + (mean*mean)/(0.03*0.03))
	d.GammaTarget = &t
}
