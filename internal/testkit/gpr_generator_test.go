package testkit

import (
	"context"
	"testing"

	"gprspc/domain/spc"
)

func TestGPRGenerator_Deterministic(t *testing.T) {
	a := NewGPRGenerator(DefaultGPRConfig()).Generate()
	b := NewGPRGenerator(DefaultGPRConfig()).Generate()

	for _, c := range a.Criteria {
		for i := range a.Columns[c] {
			if a.Columns[c][i] != b.Columns[c][i] {
				t.Fatalf("column %s row %d differs between runs with the same seed", c, i)
			}
		}
	}
}

func TestGPRGenerator_Shape(t *testing.T) {
	config := DefaultGPRConfig()
	config.Rows = 25
	ds := NewGPRGenerator(config).Generate()

	if ds.Len() != 25 {
		t.Errorf("Expected 25 rows, got %d", ds.Len())
	}
	if ds.GammaTarget == nil {
		t.Fatal("Expected gamma target when dose deviation is generated")
	}
	if len(ds.Criteria) != len(spc.Criteria()) {
		t.Errorf("Expected %d criteria, got %d", len(spc.Criteria()), len(ds.Criteria))
	}
	for _, v := range ds.Columns["Global 3%3mm"] {
		if v > 100 {
			t.Errorf("GPR above 100%%: %f", v)
		}
	}
}

func TestGPRGenerator_WithoutDoseDeviation(t *testing.T) {
	config := DefaultGPRConfig()
	config.DoseDeviation = 0
	ds := NewGPRGenerator(config).Generate()

	if ds.GammaTarget != nil {
		t.Error("Expected undefined gamma target")
	}
	if ds.IsCriterion(spc.GammaIndexColumn) {
		t.Error("Gamma column should not be analyzable without a target")
	}
	if !ds.HasColumn(spc.GammaIndexColumn) {
		t.Error("Gamma column data should still be loaded")
	}
	if len(ds.Warnings) == 0 {
		t.Error("Expected a load warning")
	}
}

func TestStaticSource_ReturnsClones(t *testing.T) {
	src := NewStaticSource(NewDataset(map[string][]float64{"Global 3%2mm": {99, 98, 97}}))

	first, err := src.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	first.Columns["Global 3%2mm"][0] = spc.Missing

	second, _ := src.Load(context.Background())
	if spc.IsMissing(second.Columns["Global 3%2mm"][0]) {
		t.Error("Mutating a loaded dataset must not affect the source")
	}
	if src.Loads != 2 {
		t.Errorf("Expected 2 loads, got %d", src.Loads)
	}
}
