package controlchart

import (
	"errors"

	"gprspc/domain/core"
	"gprspc/domain/spc"
)

// Eliminate nulls measurements of ds in place and returns one log entry per
// nulled cell, recorded before the cell is overwritten.
//
// For each identifier the first matching row is used; identifiers without a
// row are skipped. Eliminating on spc.CascadeCriterion nulls every analyzed
// criterion of the row, any other criterion nulls only that cell. Cells that
// are already missing produce no entry.
func Eliminate(ds *spc.Dataset, method spc.Method, criterion string, ids []string, round int) ([]spc.LogEntry, error) {
	targets := []string{criterion}
	if criterion == spc.CascadeCriterion {
		targets = ds.Criteria
	}
	if !ds.HasColumn(criterion) {
		return nil, core.NewUnknownColumnError(criterion)
	}

	var entries []spc.LogEntry
	for _, id := range ids {
		row, err := ds.RowIndex(id)
		if errors.Is(err, core.ErrRowNotFound) {
			continue
		}
		for _, column := range targets {
			values, ok := ds.Columns[column]
			if !ok || spc.IsMissing(values[row]) {
				continue
			}
			entries = append(entries, spc.LogEntry{
				Round:     round,
				Method:    method,
				Criterion: column,
				ID:        id,
				Value:     values[row],
			})
			values[row] = spc.Missing
		}
	}
	return entries, nil
}

// EliminatedCount returns how many distinct identifiers a log touches.
func EliminatedCount(entries []spc.LogEntry) int {
	seen := make(map[string]bool)
	for _, e := range entries {
		seen[e.ID] = true
	}
	return len(seen)
}
