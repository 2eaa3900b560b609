package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"gprspc/domain/core"
	"gprspc/domain/spc"
)

// LogHeaders are the columns of an exported elimination log
var LogHeaders = []string{"#Elimination", "Method", "Criterion", "ID", "Eliminated Value"}

const logSheet = "log"

// LogWriter exports elimination logs as one file per method and reset
type LogWriter struct {
	dir    string
	format string // "xlsx" or "csv"
	now    func() time.Time
}

// NewLogWriter creates a writer storing files under dir. Any format other
// than "csv" writes workbooks.
func NewLogWriter(dir, format string) *LogWriter {
	if format != "csv" {
		format = "xlsx"
	}
	return &LogWriter{dir: dir, format: format, now: time.Now}
}

// SaveLog implements ports.EliminationLogSink. An empty log writes nothing.
func (w *LogWriter) SaveLog(ctx context.Context, sessionID core.ID, method spc.Method, entries []spc.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	name := fmt.Sprintf("elimination_log_%s_%s_%s.%s", method, sessionID, w.now().Format("20060102_150405"), w.format)
	path := filepath.Join(w.dir, name)

	var err error
	if w.format == "csv" {
		err = writeLogCSV(path, entries)
	} else {
		err = writeLogWorkbook(path, entries)
	}
	if err != nil {
		return err
	}
	log.Printf("[LogWriter] Saved %d entries to %s", len(entries), path)
	return nil
}

func logRecord(e spc.LogEntry) []string {
	return []string{
		strconv.Itoa(e.Round),
		e.Method.DisplayName(),
		e.Criterion,
		e.ID,
		strconv.FormatFloat(e.Value, 'f', -1, 64),
	}
}

func writeLogCSV(path string, entries []spc.LogEntry) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV log: %w", err)
	}
	defer file.Close()

	// BOM so spreadsheet tools detect UTF-8
	if _, err := file.WriteString("\ufeff"); err != nil {
		return err
	}
	writer := csv.NewWriter(file)
	if err := writer.Write(LogHeaders); err != nil {
		return err
	}
	for _, e := range entries {
		if err := writer.Write(logRecord(e)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeLogWorkbook(path string, entries []spc.LogEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", logSheet); err != nil {
		return err
	}
	header := make([]interface{}, len(LogHeaders))
	for i, h := range LogHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(logSheet, "A1", &header); err != nil {
		return err
	}
	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{e.Round, e.Method.DisplayName(), e.Criterion, e.ID, e.Value}
		if err := f.SetSheetRow(logSheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save log workbook: %w", err)
	}
	return nil
}
