package excel

// RawRowData represents a row of raw sheet data keyed by header
type RawRowData map[string]string

// ExcelData represents the complete table read from a sheet or CSV file
type ExcelData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}

// HasHeader reports whether a column header is present
func (d *ExcelData) HasHeader(name string) bool {
	for _, h := range d.Headers {
		if h == name {
			return true
		}
	}
	return false
}
