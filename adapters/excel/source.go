package excel

import (
	"context"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"gprspc/domain/spc"
	apperrors "gprspc/internal/errors"
)

// RequiredColumns must be present in every QA export.
var RequiredColumns = []string{spc.ColumnID, spc.ColumnSite, spc.ColumnQADate}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02.01.2006",
	"2.1.2006",
	"01/02/2006",
	"1/2/2006",
	"1/2/06",
}

// FileSource loads a QA export from an .xlsx workbook or a CSV file.
type FileSource struct {
	config SourceConfig
}

// NewFileSource creates a dataset source for the configured file
func NewFileSource(config SourceConfig) *FileSource {
	if config.Sheet == "" {
		config.Sheet = DefaultSheet
	}
	return &FileSource{config: config}
}

// Describe names the file backing the source
func (s *FileSource) Describe() string {
	return s.config.FilePath
}

// Load reads the file and builds a dataset sorted by QA date. Criteria that
// are absent or hold non-numeric cells are reported as warnings and left out
// of the analyzable criteria.
func (s *FileSource) Load(ctx context.Context) (*spc.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := NewDataReader(s.config.FilePath, s.config.Sheet).ReadData()
	if err != nil {
		return nil, apperrors.DataSourceError(s.config.FilePath, err)
	}

	ds, err := BuildDataset(data)
	if err != nil {
		return nil, err
	}
	log.Printf("[FileSource] Loaded %d rows, %d criteria from %s", ds.Len(), len(ds.Criteria), s.config.FilePath)
	for _, w := range ds.Warnings {
		log.Printf("[FileSource] Warning: %s", w)
	}
	return ds, nil
}

// BuildDataset converts a raw table into a dataset.
func BuildDataset(data *ExcelData) (*spc.Dataset, error) {
	var missing []string
	for _, col := range RequiredColumns {
		if !data.HasHeader(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.InvalidInput(fmt.Sprintf("missing required column(s): %s", strings.Join(missing, ", ")))
	}

	n := len(data.Rows)
	ds := spc.NewDataset(n)
	for i, row := range data.Rows {
		ds.IDs[i] = row[spc.ColumnID]
		ds.Names[i] = row[spc.ColumnName]
		ds.Sites[i] = row[spc.ColumnSite]
		ds.Dates[i] = parseDate(row[spc.ColumnQADate])
	}

	nonNumeric := make(map[string]bool)
	for _, header := range data.Headers {
		switch header {
		case "", spc.ColumnID, spc.ColumnName, spc.ColumnSite, spc.ColumnQADate:
			continue
		}
		values, ok := parseNumericColumn(data.Rows, header)
		if !ok {
			nonNumeric[header] = true
			continue
		}
		ds.Columns[header] = values
	}

	// an all-empty dose-deviation column leaves the target undefined too
	ds.ComputeGammaTarget()
	excludeGamma := ds.GammaTarget == nil
	if excludeGamma {
		ds.Warnings = append(ds.Warnings, "Column 'MedianDoseDev' not found. Global mean gamma will be skipped in the SPC analysis.")
	}

	var absent, rejected []string
	for _, criterion := range spc.Criteria() {
		switch {
		case nonNumeric[criterion]:
			rejected = append(rejected, criterion)
		case !ds.HasColumn(criterion):
			absent = append(absent, criterion)
		case criterion == spc.GammaIndexColumn && excludeGamma:
		default:
			ds.Criteria = append(ds.Criteria, criterion)
		}
	}
	for _, c := range absent {
		ds.Warnings = append(ds.Warnings, "Missing criterion: "+c)
	}
	for _, c := range rejected {
		ds.Warnings = append(ds.Warnings, "Non-numeric input in criterion: "+c)
	}

	ds.SortByDate()
	return ds, nil
}

// parseNumericColumn parses every cell of a column. Empty and NaN cells are
// missing; any other unparseable or infinite cell (decimal commas included)
// makes the whole column non-numeric.
func parseNumericColumn(rows []RawRowData, header string) ([]float64, bool) {
	values := make([]float64, len(rows))
	for i, row := range rows {
		cell := strings.TrimSpace(row[header])
		if cell == "" || strings.EqualFold(cell, "nan") {
			values[i] = spc.Missing
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}

// parseDate accepts an Excel date serial or a handful of textual layouts.
// Unparseable values yield the zero time.
func parseDate(cell string) time.Time {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return time.Time{}
	}
	if serial, err := strconv.ParseFloat(cell, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}
		}
		return t
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t
		}
	}
	return time.Time{}
}
