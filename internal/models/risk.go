package models

// RiskCategory is a governance-risk domain a question/answer pair is classified into.
// The set of categories is closed.
type RiskCategory string

const (
	RiskBias           RiskCategory = "bias"
	RiskExplainability RiskCategory = "explainability"
	RiskData           RiskCategory = "data"
	RiskDeployment     RiskCategory = "deployment"
	RiskCompliance     RiskCategory = "compliance"
	RiskUnknown        RiskCategory = "unknown"
)

// RiskCategories lists every category except RiskUnknown, in a fixed order.
// Classifier scoring iterates this list so results are deterministic.
var RiskCategories = []RiskCategory{
	RiskBias,
	RiskExplainability,
	RiskData,
	RiskDeployment,
	RiskCompliance,
}

// String returns the category label.
func (c RiskCategory) String() string {
	return string(c)
}

// ParseRiskCategory returns the category for label, or RiskUnknown if the label
// does not name a known category.
func ParseRiskCategory(label string) RiskCategory {
	for _, c := range RiskCategories {
		if string(c) == label {
			return c
		}
	}
	return RiskUnknown
}
