package aggregate

import (
	"strings"

	"github.com/RedHatInsights/carbon_ledger/internal/models/calculation"
)

// Category buckets of the summary
const (
	CategoryEnergy      = "energy"
	CategoryElectricity = "electricity"
	CategoryHeatSteam   = "heat_steam"
	CategoryFugitive    = "fugitive"
	CategoryTransport   = "transport"
	CategoryWaste       = "waste"
	CategoryWater       = "water"
	CategoryMaterials   = "materials"
	CategoryOther       = "other"
)

// rules are checked in order, the first match wins
var rules = []struct {
	bucket  string
	needles []string
}{
	{CategoryEnergy, []string{"fuel", "combustion", "energy"}},
	{CategoryElectricity, []string{"electric"}},
	{CategoryHeatSteam, []string{"heat", "steam"}},
	{CategoryFugitive, []string{"refrigerant", "fugitive"}},
	{CategoryTransport, []string{"travel", "transport", "commut", "freight", "vehicle"}},
	{CategoryWaste, []string{"waste"}},
	{CategoryWater, []string{"water"}},
	{CategoryMaterials, []string{"material", "goods"}},
}

// Bucket returns the summary bucket of a category name
func Bucket(category string) string {
	name := strings.ToLower(category)
	for _, rule := range rules {
		for _, needle := range rule.needles {
			if strings.Contains(name, needle) {
				return rule.bucket
			}
		}
	}
	return CategoryOther
}

// Totals is the reduction of the calculation rows of a project, all in kg CO2e
type Totals struct {
	Scope1     float64            `json:"scope1"`
	Scope2     float64            `json:"scope2"`
	Scope3     float64            `json:"scope3"`
	Unscoped   float64            `json:"unscoped"`
	Total      float64            `json:"total"`
	Categories map[string]float64 `json:"category_totals"`
	Gases      map[string]float64 `json:"gas_totals"`
	Steps      map[string]float64 `json:"step_totals"`
	Count      int                `json:"calculation_count"`
}

// UpdateProjectSummary sums the rows by scope, category bucket, gas and step
func UpdateProjectSummary(rows []calculation.Calculation) Totals {
	t := Totals{
		Categories: map[string]float64{},
		Gases:      map[string]float64{},
		Steps:      map[string]float64{},
	}
	for _, row := range rows {
		switch row.Scope {
		case 1:
			t.Scope1 += row.CO2e
		case 2:
			t.Scope2 += row.CO2e
		case 3:
			t.Scope3 += row.CO2e
		default:
			t.Unscoped += row.CO2e
		}
		t.Categories[Bucket(row.Category)] += row.CO2e
		gas := strings.ToUpper(strings.TrimSpace(row.GasType))
		if gas == "" {
			gas = GasCO2e
		}
		t.Gases[gas] += row.CO2e
		if row.Step != "" {
			t.Steps[row.Step] += row.CO2e
		}
		t.Count++
	}
	t.Total = t.Scope1 + t.Scope2 + t.Scope3 + t.Unscoped
	return t
}
