package aggregate

import (
	"encoding/json"
	"time"

	"github.com/RedHatInsights/carbon_ledger/internal/models/summary"
	"gorm.io/datatypes"
)

// Summary builds the summary row of a project from the totals, extra holds
// the standard specific figures and may be nil
func (t Totals) Summary(projectID int64, extra interface{}, at time.Time) (*summary.ProjectSummary, error) {
	s := &summary.ProjectSummary{
		ProjectID:        projectID,
		Scope1:           t.Scope1,
		Scope2:           t.Scope2,
		Scope3:           t.Scope3,
		Unscoped:         t.Unscoped,
		Total:            t.Total,
		CalculationCount: t.Count,
		CalculatedAt:     at,
	}
	var err error
	if s.CategoryTotals, err = toJSON(t.Categories); err != nil {
		return nil, err
	}
	if s.GasTotals, err = toJSON(t.Gases); err != nil {
		return nil, err
	}
	if s.StepTotals, err = toJSON(t.Steps); err != nil {
		return nil, err
	}
	if extra == nil {
		extra = map[string]interface{}{}
	}
	if s.Extra, err = toJSON(extra); err != nil {
		return nil, err
	}
	return s, nil
}

func toJSON(v interface{}) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
