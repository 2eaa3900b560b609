package container

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gprspc/internal/config"
)

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestBuild_WithoutDatabase(t *testing.T) {
	cfg := &config.Config{
		Paths: config.PathConfig{LogDir: t.TempDir(), LogFormat: "csv"},
		SPC:   config.SPCConfig{Method: "wsd", Confidence: "95%"},
	}
	c, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, c.LogWriter)

	svc := c.Build()
	require.NotNil(t, svc)
	assert.NotNil(t, c.Handler)
	assert.Nil(t, c.LogRepo)

	_, err = svc.StoredLog(context.Background(), "any")
	assert.Error(t, err)

	assert.NoError(t, c.Shutdown(context.Background()))
}

func TestInitWithDatabase_Nil(t *testing.T) {
	c, err := New(&config.Config{})
	require.NoError(t, err)
	assert.Error(t, c.InitWithDatabase(nil))
}
