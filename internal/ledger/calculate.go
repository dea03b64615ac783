package ledger

import (
	"context"
	"encoding/json"

	"github.com/RedHatInsights/carbon_ledger/internal/aggregate"
	"github.com/RedHatInsights/carbon_ledger/internal/apperrors"
	"github.com/RedHatInsights/carbon_ledger/internal/calculator"
	"github.com/RedHatInsights/carbon_ledger/internal/metrics"
	"github.com/RedHatInsights/carbon_ledger/internal/models/activity"
	"github.com/RedHatInsights/carbon_ledger/internal/models/calculation"
	"github.com/RedHatInsights/carbon_ledger/internal/models/project"
	"github.com/RedHatInsights/carbon_ledger/internal/models/summary"
	"github.com/RedHatInsights/carbon_ledger/internal/standards"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// CalculateInput names the step whose entries are sent to the calculator
type CalculateInput struct {
	Step string `json:"step" validate:"required"`
}

// CalculateResult reports a calculator run over one step
type CalculateResult struct {
	Step    string                  `json:"step"`
	Entries int                     `json:"entries"`
	Lines   int                     `json:"lines"`
	Summary *summary.ProjectSummary `json:"summary"`
}

// Calculate sends every entry of the step to the calculator, replaces the
// calculator rows of each entry with the returned lines and recalculates the
// summary. The calculator is called before the transaction is opened.
func (s *Service) Calculate(ctx context.Context, user string, projectID int64, in CalculateInput) (*CalculateResult, error) {
	glog := logOf(ctx)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	st := s.tx.Store()
	p, err := s.loadProject(ctx, glog, st, projectID, user)
	if err != nil {
		return nil, err
	}
	std, step, err := s.stepOf(p, in.Step)
	if err != nil {
		return nil, err
	}
	if err := requireEditable(p); err != nil {
		return nil, err
	}
	entries, err := st.Activities.ListByProject(ctx, glog, p.ID, step.Name)
	if err != nil {
		return nil, apperrors.FromDB(err, "entries")
	}

	rows := make(map[int64][]calculation.Calculation, len(entries))
	lines := 0
	for i := range entries {
		r, err := s.calculateEntry(ctx, glog, std, step, p, &entries[i])
		if err != nil {
			return nil, err
		}
		rows[entries[i].ID] = r
		lines += len(r)
	}

	result := &CalculateResult{Step: step.Name, Entries: len(entries), Lines: lines}
	err = s.tx.InTx(ctx, func(tst *Store) error {
		for i := range entries {
			if err := tst.Calculations.ReplaceForActivity(ctx, glog, entries[i].ID, rows[entries[i].ID]); err != nil {
				return apperrors.FromDB(err, "calculations")
			}
		}
		result.Summary, err = s.recalculate(ctx, glog, tst, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	glog.Infof("Calculated %d lines for %d entries of project %d step %s", lines, len(entries), p.ID, step.Name)
	return result, nil
}

// calculateEntry asks the calculator for the emission lines of one entry
// and converts them into calculation rows
func (s *Service) calculateEntry(ctx context.Context, glog *logrus.Entry, std *standards.Standard, step *standards.Step, p *project.Project, a *activity.Activity) ([]calculation.Calculation, error) {
	if s.calculator == nil {
		return nil, apperrors.Internal("no calculator configured")
	}
	data, err := a.Fields()
	if err != nil {
		glog.Errorf("Error decoding entry %d %v", a.ID, err)
		return nil, apperrors.Internal("decoding entry %d: %v", a.ID, err).Wrap(err)
	}
	req := calculator.Request{Standard: std.ID, Step: step.Name, Category: step.Category, Scope: step.Scope, Data: data}
	res, err := s.calculator.Calculate(ctx, glog, req)
	metrics.CalculatorCalls.WithLabelValues(std.ID, metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, apperrors.Internal("calculator failed for entry %d: %v", a.ID, err).Wrap(err)
	}

	var extra datatypes.JSON
	if res.Model != "" || res.Notes != "" || res.Confidence != 0 {
		b, err := json.Marshal(map[string]interface{}{"model": res.Model, "confidence": res.Confidence, "notes": res.Notes})
		if err != nil {
			return nil, apperrors.Internal("encoding calculator notes: %v", err).Wrap(err)
		}
		extra = datatypes.JSON(b)
	}

	rows := make([]calculation.Calculation, 0, len(res.Lines))
	for _, line := range res.Lines {
		row := calculation.Calculation{
			ProjectID:            p.ID,
			Step:                 step.Name,
			Category:             line.Category,
			Scope:                step.Scope,
			GasType:              line.GasType,
			ActivityValue:        line.ActivityValue,
			ActivityUnit:         line.ActivityUnit,
			EmissionFactor:       line.EmissionFactor,
			EmissionFactorUnit:   line.EmissionFactorUnit,
			EmissionFactorSource: line.EmissionFactorSource,
			GWP:                  aggregate.GWP(line.GasType),
			Method:               calculation.MethodCalculator,
			Extra:                extra,
		}
		if row.Category == "" {
			row.Category = step.Category
		}
		if line.Scope != nil {
			if *line.Scope < 0 || *line.Scope > 3 {
				return nil, apperrors.Internal("calculator returned scope %d for entry %d", *line.Scope, a.ID)
			}
			row.Scope = *line.Scope
		}
		if line.CO2e != nil {
			row.CO2e = *line.CO2e
		} else {
			row.CO2e = aggregate.CO2e(row.ActivityValue, row.EmissionFactor, row.GWP)
		}
		if !aggregate.Finite(row.ActivityValue, row.EmissionFactor, row.CO2e) {
			return nil, apperrors.Internal("calculator returned an out of range line for entry %d", a.ID)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
