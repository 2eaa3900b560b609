package spc

// Canonical column names of a QA export.
const (
	ColumnName          = "Name"
	ColumnID            = "ID"
	ColumnQADate        = "QA Date"
	ColumnSite          = "Site of cancer"
	ColumnDoseDeviation = "MedianDoseDev"

	// GammaIndexColumn is the single derived gamma-index criterion.
	GammaIndexColumn = "Global Mean Gamma Index"

	// CascadeCriterion triggers row-wide elimination: eliminating an ID on
	// this criterion nulls every analyzed criterion of that row.
	CascadeCriterion = "Global 3%2mm"
)

// GPRCriteria lists the percentage-valued gamma passing rate criteria in
// their canonical order.
var GPRCriteria = []string{
	"Global 3%3mm", "Global 3%2mm", "Global 3%1mm",
	"Global 2%2mm", "Global 2%1mm", "Global 1%2mm", "Global 1%1mm",
	"Local 3%3mm", "Local 3%2mm", "Local 3%1mm", "Local 2%2mm",
	"Local 2%1mm", "Local 1%2mm", "Local 1%1mm",
}

// Criteria returns every criterion the tool knows about: the GPR criteria
// followed by the gamma-index column.
func Criteria() []string {
	out := make([]string, 0, len(GPRCriteria)+1)
	out = append(out, GPRCriteria...)
	return append(out, GammaIndexColumn)
}

// ColumnKind selects which branch of every control-limit formula applies.
type ColumnKind uint8

const (
	// KindPercentage is a GPR criterion bounded above by 100%.
	KindPercentage ColumnKind = iota
	// KindGammaIndex is the derived gamma index bounded below by 0.
	KindGammaIndex
)

// KindOf classifies a column name. Only GammaIndexColumn is a gamma-index column.
func KindOf(column string) ColumnKind {
	if column == GammaIndexColumn {
		return KindGammaIndex
	}
	return KindPercentage
}

func (k ColumnKind) String() string {
	switch k {
	case KindGammaIndex:
		return "gamma_index"
	default:
		return "percentage"
	}
}
