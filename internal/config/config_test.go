package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gprspc/domain/spc"
	"gprspc/internal/errors"
)

var envKeys = []string{
	"PORT", "GIN_MODE", "DATABASE_URL", "DB_MAX_OPEN_CONNS", "DATA_FILE", "DATA_SHEET",
	"SPC_CONFIDENCE", "SPC_METHOD", "LOG_DIR", "LOG_FORMAT", "SPC_CONFIG_FILE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.GinMode)
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, "data", cfg.Data.Sheet)
	assert.Equal(t, "./elimination_logs", cfg.Paths.LogDir)
	assert.Equal(t, spc.MethodShewhart, cfg.DefaultMethod())
	assert.Equal(t, spc.Confidence9973, cfg.DefaultConfidence())
}

func TestLoad_Env(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("SPC_METHOD", "WSD")
	t.Setenv("SPC_CONFIDENCE", "0.95")
	t.Setenv("DATA_FILE", "/tmp/qa.xlsx")
	t.Setenv("LOG_FORMAT", "csv")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, spc.MethodWSD, cfg.DefaultMethod())
	assert.Equal(t, spc.Confidence95, cfg.DefaultConfidence())
	assert.Equal(t, "/tmp/qa.xlsx", cfg.Data.File)
	assert.Equal(t, "csv", cfg.Paths.LogFormat)
}

func TestLoad_YAMLOverlay(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")

	path := filepath.Join(t.TempDir(), "spc.yaml")
	doc := `
server:
  gin_mode: debug
data:
  file: exports/prostate.xlsx
spc:
  method: swv
  confidence: "99%"
paths:
  log_dir: /var/lib/spc/logs
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	t.Setenv("SPC_CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port, "fields absent from the file keep their env value")
	assert.Equal(t, "debug", cfg.Server.GinMode)
	assert.Equal(t, "exports/prostate.xlsx", cfg.Data.File)
	assert.Equal(t, "data", cfg.Data.Sheet)
	assert.Equal(t, spc.MethodSWV, cfg.DefaultMethod())
	assert.Equal(t, spc.Confidence99, cfg.DefaultConfidence())
	assert.Equal(t, "/var/lib/spc/logs", cfg.Paths.LogDir)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"method":     {"SPC_METHOD": "ewma"},
		"confidence": {"SPC_CONFIDENCE": "80%"},
		"port":       {"PORT": "http"},
		"log format": {"LOG_FORMAT": "pdf"},
		"yaml file":  {"SPC_CONFIG_FILE": "/does/not/exist.yaml"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.CodeOf(err))
		})
	}
}
