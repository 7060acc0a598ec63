package model

// NumericToken is a numeric literal extracted from text with its optional
// adjacent unit. Raw preserves the unit's original casing; comparisons use
// the lower-cased form. Immutable once extracted.
type NumericToken struct {
	Value   float64 `json:"value"`
	Unit    string  `json:"unit,omitempty"`     // lower-cased comparison key
	RawUnit string  `json:"raw_unit,omitempty"` // as written in the text
	Start   int     `json:"start"`
	End     int     `json:"end"`
	Text    string  `json:"text"`
}

// FindingKind classifies a numeric consistency finding.
type FindingKind string

const (
	FindingUnitMismatch      FindingKind = "unit_mismatch"
	FindingArithmeticSum     FindingKind = "arithmetic_sum"
	FindingArithmeticProduct FindingKind = "arithmetic_product"
)

// ConsistencyFinding records one verified (or failed) relation among
// extracted numeric tokens. Never mutated after creation.
type ConsistencyFinding struct {
	Kind       FindingKind    `json:"kind"`
	Operands   []NumericToken `json:"operands"`
	Expected   float64        `json:"expected"`
	Observed   float64        `json:"observed"`
	Consistent bool           `json:"consistent"`
	Group      string         `json:"group,omitempty"` // unit comparability group, for unit findings
}
