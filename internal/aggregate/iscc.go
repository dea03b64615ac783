package aggregate

import (
	"github.com/RedHatInsights/carbon_ledger/internal/models/calculation"
)

// FossilComparator is the fossil fuel reference in gCO2e/MJ
const FossilComparator = 94.0

// ISCC formula terms, the last three are credits
var isccTerms = []string{"eec", "el", "ep", "etd", "eu", "esca", "eccs", "eccr"}

var isccCredits = map[string]bool{"esca": true, "eccs": true, "eccr": true}

// ISCCResult holds the ISCC greenhouse gas figures of a project
type ISCCResult struct {
	Components map[string]float64 `json:"components"`
	E          float64            `json:"total_emissions"`
	Savings    float64            `json:"savings_percent"`
	Comparator float64            `json:"fossil_comparator"`
}

// RecalculateSummary reduces the rows of an ISCC project. components maps
// step names to formula terms, rows of other steps only count in the scope
// totals. E = eec + el + ep + etd + eu - esca - eccs - eccr.
func RecalculateSummary(rows []calculation.Calculation, components map[string]string) (Totals, ISCCResult) {
	result := ISCCResult{Components: map[string]float64{}, Comparator: FossilComparator}
	for _, term := range isccTerms {
		result.Components[term] = 0
	}
	for _, row := range rows {
		if term, ok := components[row.Step]; ok {
			result.Components[term] += row.CO2e
		}
	}
	for _, term := range isccTerms {
		if isccCredits[term] {
			result.E -= result.Components[term]
		} else {
			result.E += result.Components[term]
		}
	}
	result.Savings = (FossilComparator - result.E) / FossilComparator * 100
	return UpdateProjectSummary(rows), result
}
