package spc

import (
	"sort"
	"time"
)

// Summary builds a DatasetSummary from the current state of the dataset.
func (d *Dataset) Summary() DatasetSummary {
	s := DatasetSummary{
		Rows:         d.Len(),
		Criteria:     append([]string(nil), d.Criteria...),
		SortedByDate: true,
		GammaTarget:  d.GammaTarget,
		Warnings:     append([]string(nil), d.Warnings...),
	}

	s.Columns = []string{ColumnID, ColumnName, ColumnQADate, ColumnSite}
	numeric := make([]string, 0, len(d.Columns))
	for name := range d.Columns {
		numeric = append(numeric, name)
	}
	sort.Strings(numeric)
	s.Columns = append(s.Columns, numeric...)

	sites := make(map[string]bool)
	for _, site := range d.Sites {
		if site != "" {
			sites[site] = true
		}
	}
	for site := range sites {
		s.Sites = append(s.Sites, site)
	}
	sort.Strings(s.Sites)

	var prev time.Time
	for _, dt := range d.Dates {
		if dt.IsZero() {
			continue
		}
		if !prev.IsZero() && dt.Before(prev) {
			s.SortedByDate = false
		}
		prev = dt
		if s.FirstDate == nil || dt.Before(*s.FirstDate) {
			first := dt
			s.FirstDate = &first
		}
		if s.LastDate == nil || dt.After(*s.LastDate) {
			last := dt
			s.LastDate = &last
		}
	}
	return s
}
