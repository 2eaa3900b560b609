package excel

// DefaultSheet is the worksheet a QA export keeps its measurements in
const DefaultSheet = "data"

// SourceConfig holds configuration for a file-backed dataset source
type SourceConfig struct {
	FilePath string `json:"file_path" yaml:"file"`
	Sheet    string `json:"sheet" yaml:"sheet"`
}

// DefaultSourceConfig returns sensible defaults for QA exports
func DefaultSourceConfig() SourceConfig {
	return SourceConfig{
		Sheet: DefaultSheet,
	}
}
