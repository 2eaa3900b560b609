package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"gprspc/domain/spc"
)

// GPRGeneratorConfig configures the synthetic QA dataset generator
type GPRGeneratorConfig struct {
	Rows          int       `json:"rows"`
	Criteria      []string  `json:"criteria"`
	BaseGPR       float64   `json:"base_gpr"`       // mean passing rate of a healthy process
	Noise         float64   `json:"noise"`          // std dev of passing rates
	OutlierRate   float64   `json:"outlier_rate"`   // share of rows with a failing plan
	OutlierDrop   float64   `json:"outlier_drop"`   // how far a failing plan drops below the mean
	MissingRate   float64   `json:"missing_rate"`   // share of empty cells
	DoseDeviation float64   `json:"dose_deviation"` // mean MedianDoseDev; 0 omits the column
	StartDate     time.Time `json:"start_date"`
	Seed          int64     `json:"seed"`
}

// DefaultGPRConfig returns sensible defaults for a prostate VMAT QA export
func DefaultGPRConfig() GPRGeneratorConfig {
	return GPRGeneratorConfig{
		Rows:          60,
		Criteria:      spc.Criteria(),
		BaseGPR:       98.0,
		Noise:         1.0,
		OutlierRate:   0.05,
		OutlierDrop:   12.0,
		MissingRate:   0.0,
		DoseDeviation: 0.012,
		StartDate:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Seed:          42,
	}
}

// GPRGenerator generates realistic gamma passing rate data
type GPRGenerator struct {
	config GPRGeneratorConfig
	rng    *rand.Rand
}

// NewGPRGenerator creates a new generator
func NewGPRGenerator(config GPRGeneratorConfig) *GPRGenerator {
	return &GPRGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate builds a dataset. Stricter criteria (smaller tolerances) get
// lower passing rates; the gamma index rises as passing rates fall.
func (g *GPRGenerator) Generate() *spc.Dataset {
	n := g.config.Rows
	ds := spc.NewDataset(n)

	failing := make([]bool, n)
	for i := 0; i < n; i++ {
		ds.IDs[i] = fmt.Sprintf("P%03d", i+1)
		ds.Names[i] = fmt.Sprintf("Plan %d", i+1)
		ds.Sites[i] = "Prostate"
		if i%7 == 3 {
			ds.Sites[i] = "Head and neck"
		}
		ds.Dates[i] = g.config.StartDate.AddDate(0, 0, i)
		failing[i] = g.rng.Float64() < g.config.OutlierRate
	}

	for idx, criterion := range g.config.Criteria {
		col := make([]float64, n)
		for i := 0; i < n; i++ {
			if g.rng.Float64() < g.config.MissingRate {
				col[i] = spc.Missing
				continue
			}
			if criterion == spc.GammaIndexColumn {
				v := 0.35 + 0.05*g.rng.NormFloat64()
				if failing[i] {
					v += 0.4
				}
				col[i] = math.Max(v, 0.01)
				continue
			}
			base := g.config.BaseGPR - float64(idx%7)*0.8
			v := base + g.config.Noise*g.rng.NormFloat64()
			if failing[i] {
				v -= g.config.OutlierDrop
			}
			col[i] = math.Min(v, 100)
		}
		ds.Columns[criterion] = col
		ds.Criteria = append(ds.Criteria, criterion)
	}

	if g.config.DoseDeviation != 0 {
		dd := make([]float64, n)
		for i := range dd {
			dd[i] = g.config.DoseDeviation + 0.005*g.rng.NormFloat64()
		}
		ds.Columns[spc.ColumnDoseDeviation] = dd
	}
	ds.ComputeGammaTarget()
	if ds.GammaTarget == nil {
		filtered := ds.Criteria[:0]
		for _, c := range ds.Criteria {
			if c != spc.GammaIndexColumn {
				filtered = append(filtered, c)
			}
		}
		ds.Criteria = filtered
		ds.Warnings = append(ds.Warnings, "Column 'MedianDoseDev' not found. Global mean gamma will be skipped in the SPC analysis.")
	}
	return ds
}
