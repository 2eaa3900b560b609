package controlchart

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gprspc/domain/core"
	"gprspc/domain/spc"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		level spc.ConfidenceLevel
		alpha float64
		z     float64
	}{
		{spc.Confidence90, 0.10, 1.645},
		{spc.Confidence95, 0.05, 1.960},
		{spc.Confidence9545, 0.0455, 2.000},
		{spc.Confidence99, 0.01, 2.576},
		{spc.Confidence9973, 0.0027, 3.000},
	}

	for _, tt := range tests {
		info, err := Lookup(tt.level)
		require.NoError(t, err)
		assert.Equal(t, tt.alpha, info.Alpha, string(tt.level))
		assert.Equal(t, tt.z, info.Z, string(tt.level))
	}
}

func TestLookup_Unsupported(t *testing.T) {
	_, err := Lookup("97%")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrUnsupportedConfidenceLevel))
	assert.Contains(t, err.Error(), "97%")
}

func TestLookupFraction(t *testing.T) {
	level, info, err := LookupFraction(0.9973)
	require.NoError(t, err)
	assert.Equal(t, spc.Confidence9973, level)
	assert.Equal(t, 3.0, info.Z)

	level, _, err = LookupFraction(0.95)
	require.NoError(t, err)
	assert.Equal(t, spc.Confidence95, level)

	_, _, err = LookupFraction(0.8)
	assert.True(t, errors.Is(err, core.ErrUnsupportedConfidenceLevel))
}

func TestFormatFraction(t *testing.T) {
	assert.Equal(t, spc.ConfidenceLevel("90%"), FormatFraction(0.9))
	assert.Equal(t, spc.ConfidenceLevel("95.45%"), FormatFraction(0.9545))
	assert.Equal(t, spc.ConfidenceLevel("99.73%"), FormatFraction(0.9973))
}

func TestParseConfidenceLevel(t *testing.T) {
	for _, in := range []string{"99.73%", "99.73", "0.9973", " 99.73% "} {
		level, err := ParseConfidenceLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, spc.Confidence9973, level, in)
	}

	for _, in := range []string{"abc", "42%", "0.42", "100"} {
		_, err := ParseConfidenceLevel(in)
		assert.True(t, errors.Is(err, core.ErrUnsupportedConfidenceLevel), in)
	}
}
