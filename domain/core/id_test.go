package core

import (
	"errors"
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 1000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id == "" {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		input    string
		hasError bool
	}{
		{"0193f1c2-7a7e-7b1c-9d55-3a0f1c9b2e10", false},
		{"", true},
		{"   ", true},
	}

	for _, tt := range tests {
		_, err := ParseID(tt.input)
		if (err != nil) != tt.hasError {
			t.Errorf("ParseID(%q) error = %v, wantErr %v", tt.input, err, tt.hasError)
		}
	}
}

func TestCalculationErrorTaxonomy(t *testing.T) {
	if !IsCalculationError(NewInsufficientDataError("Global 3%2mm", 1)) {
		t.Error("insufficient data should be a calculation error")
	}
	if !IsCalculationError(NewUnknownColumnError("nope")) {
		t.Error("unknown column should be a calculation error")
	}
	if IsCalculationError(ErrRowNotFound) {
		t.Error("row not found is recovered silently and is not a calculation error")
	}
	if !errors.Is(ErrSessionNotFound, ErrNotFound) {
		t.Error("session not found should wrap ErrNotFound")
	}
}
