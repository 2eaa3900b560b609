package testkit

import (
	"context"
	"fmt"
	"time"

	"gprspc/domain/spc"
)

// DatasetOption customizes a fixture dataset.
type DatasetOption func(*spc.Dataset)

// WithGammaTarget sets the gamma-index target T.
func WithGammaTarget(t float64) DatasetOption {
	return func(d *spc.Dataset) {
		d.GammaTarget = &t
	}
}

// WithIDs overrides the generated row identifiers.
func WithIDs(ids ...string) DatasetOption {
	return func(d *spc.Dataset) {
		copy(d.IDs, ids)
	}
}

// NewDataset builds a dataset from named columns. Rows are identified
// P001, P002, ... and dated one day apart from 2024-01-01. Every column that
// is a known criterion becomes analyzable, in canonical order.
func NewDataset(columns map[string][]float64, opts ...DatasetOption) *spc.Dataset {
	n := 0
	for _, values := range columns {
		if len(values) > n {
			n = len(values)
		}
	}

	ds := spc.NewDataset(n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		ds.IDs[i] = fmt.Sprintf("P%03d", i+1)
		ds.Names[i] = fmt.Sprintf("Patient %d", i+1)
		ds.Sites[i] = "Prostate"
		ds.Dates[i] = start.AddDate(0, 0, i)
	}
	for name, values := range columns {
		col := make([]float64, n)
		for i := range col {
			col[i] = spc.Missing
		}
		copy(col, values)
		ds.Columns[name] = col
	}
	for _, c := range spc.Criteria() {
		if _, ok := columns[c]; ok {
			ds.Criteria = append(ds.Criteria, c)
		}
	}
	for _, opt := range opts {
		opt(ds)
	}
	return ds
}

// StaticSource serves clones of a fixed dataset. Loads counts how many
// times the source was read.
type StaticSource struct {
	Data  *spc.Dataset
	Err   error
	Loads int
}

// NewStaticSource wraps a dataset as a source.
func NewStaticSource(ds *spc.Dataset) *StaticSource {
	return &StaticSource{Data: ds}
}

// Load returns a fresh copy of the dataset.
func (s *StaticSource) Load(ctx context.Context) (*spc.Dataset, error) {
	s.Loads++
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Data.Clone(), nil
}

// Describe names the source.
func (s *StaticSource) Describe() string {
	return "static fixture"
}
