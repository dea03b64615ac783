package ledger

import (
	"context"

	"github.com/RedHatInsights/carbon_ledger/internal/aggregate"
	"github.com/RedHatInsights/carbon_ledger/internal/apperrors"
	"github.com/RedHatInsights/carbon_ledger/internal/models/calculation"
	"github.com/RedHatInsights/carbon_ledger/internal/models/project"
	"github.com/sirupsen/logrus"
)

// CalculationInput is a manual emission line. Category and scope default to
// those of the step, GWP to the AR5 value of the gas and CO2e to
// value x factor x GWP.
type CalculationInput struct {
	ActivityID           *int64                 `json:"activity_id" validate:"omitempty,gt=0"`
	Step                 string                 `json:"step" validate:"required_without=Category"`
	Category             string                 `json:"category" validate:"required_without=Step"`
	Scope                *int                   `json:"scope" validate:"omitempty,min=0,max=3"`
	GasType              string                 `json:"gas_type" validate:"max=32"`
	ActivityValue        float64                `json:"activity_value" validate:"gte=0"`
	ActivityUnit         string                 `json:"activity_unit"`
	EmissionFactor       float64                `json:"emission_factor" validate:"gte=0"`
	EmissionFactorUnit   string                 `json:"emission_factor_unit"`
	EmissionFactorSource string                 `json:"emission_factor_source"`
	GWP                  *float64               `json:"gwp" validate:"omitempty,gt=0"`
	CO2e                 *float64               `json:"co2e" validate:"omitempty,gte=0"`
	Extra                map[string]interface{} `json:"extra"`
}

// ListCalculations returns the calculation rows of a project
func (s *Service) ListCalculations(ctx context.Context, user string, projectID int64) ([]calculation.Calculation, error) {
	glog := logOf(ctx)
	st := s.tx.Store()
	p, err := s.loadProject(ctx, glog, st, projectID, user)
	if err != nil {
		return nil, err
	}
	rows, err := st.Calculations.ListByProject(ctx, glog, p.ID)
	if err != nil {
		return nil, apperrors.FromDB(err, "calculations")
	}
	return rows, nil
}

// GetCalculation returns one calculation row
func (s *Service) GetCalculation(ctx context.Context, user string, calculationID int64) (*calculation.Calculation, error) {
	glog := logOf(ctx)
	st := s.tx.Store()
	c, _, err := s.loadCalculation(ctx, glog, st, calculationID, user)
	return c, err
}

func (s *Service) loadCalculation(ctx context.Context, glog *logrus.Entry, st *Store, calculationID int64, user string) (*calculation.Calculation, *project.Project, error) {
	c, err := st.Calculations.GetByID(ctx, glog, calculationID)
	if err != nil {
		return nil, nil, apperrors.FromDB(err, "calculation")
	}
	p, err := s.loadProject(ctx, glog, st, c.ProjectID, user)
	if err != nil {
		return nil, nil, err
	}
	return c, p, nil
}

// CreateCalculation stores a manual emission line and recalculates the summary
func (s *Service) CreateCalculation(ctx context.Context, user string, projectID int64, in CalculationInput) (*calculation.Calculation, error) {
	glog := logOf(ctx)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	c := &calculation.Calculation{Method: calculation.MethodManual}
	err := s.tx.InTx(ctx, func(st *Store) error {
		p, err := s.loadProject(ctx, glog, st, projectID, user)
		if err != nil {
			return err
		}
		if err := requireEditable(p); err != nil {
			return err
		}
		if err := s.fillCalculation(ctx, glog, st, p, in, c); err != nil {
			return err
		}
		if err := st.Calculations.Create(ctx, glog, c); err != nil {
			return apperrors.FromDB(err, "calculation")
		}
		_, err = s.recalculate(ctx, glog, st, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateCalculation replaces a calculation row and recalculates the summary
func (s *Service) UpdateCalculation(ctx context.Context, user string, calculationID int64, in CalculationInput) (*calculation.Calculation, error) {
	glog := logOf(ctx)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	var c *calculation.Calculation
	err := s.tx.InTx(ctx, func(st *Store) error {
		var p *project.Project
		var err error
		c, p, err = s.loadCalculation(ctx, glog, st, calculationID, user)
		if err != nil {
			return err
		}
		if err := requireEditable(p); err != nil {
			return err
		}
		if err := s.fillCalculation(ctx, glog, st, p, in, c); err != nil {
			return err
		}
		c.Method = calculation.MethodManual
		if err := st.Calculations.Update(ctx, glog, c); err != nil {
			return apperrors.FromDB(err, "calculation")
		}
		_, err = s.recalculate(ctx, glog, st, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCalculation removes a calculation row and recalculates the summary
func (s *Service) DeleteCalculation(ctx context.Context, user string, calculationID int64) error {
	glog := logOf(ctx)
	return s.tx.InTx(ctx, func(st *Store) error {
		c, p, err := s.loadCalculation(ctx, glog, st, calculationID, user)
		if err != nil {
			return err
		}
		if err := requireEditable(p); err != nil {
			return err
		}
		if err := st.Calculations.Delete(ctx, glog, c.ID); err != nil {
			return apperrors.FromDB(err, "calculation")
		}
		_, err = s.recalculate(ctx, glog, st, p)
		return err
	})
}

func (s *Service) fillCalculation(ctx context.Context, glog *logrus.Entry, st *Store, p *project.Project, in CalculationInput, c *calculation.Calculation) error {
	std, err := s.standardOf(p)
	if err != nil {
		return err
	}
	scope, category := 0, in.Category
	if in.Step != "" {
		step, ok := std.Step(in.Step)
		if !ok {
			return apperrors.BadRequest("unknown step %s for standard %s", in.Step, std.ID)
		}
		scope = step.Scope
		if category == "" {
			category = step.Category
		}
	}
	if in.Scope != nil {
		scope = *in.Scope
	}
	if in.ActivityID != nil {
		a, err := st.Activities.GetByID(ctx, glog, *in.ActivityID)
		if err != nil {
			return apperrors.FromDB(err, "entry")
		}
		if a.ProjectID != p.ID {
			return apperrors.BadRequest("entry %d does not belong to project %d", a.ID, p.ID)
		}
	}
	gwp := aggregate.GWP(in.GasType)
	if in.GWP != nil {
		gwp = *in.GWP
	}
	co2e := aggregate.CO2e(in.ActivityValue, in.EmissionFactor, gwp)
	if in.CO2e != nil {
		co2e = *in.CO2e
	}
	if !aggregate.Finite(co2e) {
		return apperrors.BadRequest("co2e of %g x %g x %g is out of range", in.ActivityValue, in.EmissionFactor, gwp)
	}
	extra, err := toJSON(in.Extra)
	if err != nil {
		return err
	}

	c.ProjectID = p.ID
	c.ActivityID = in.ActivityID
	c.Step = in.Step
	c.Category = category
	c.Scope = scope
	c.GasType = in.GasType
	c.ActivityValue = in.ActivityValue
	c.ActivityUnit = in.ActivityUnit
	c.EmissionFactor = in.EmissionFactor
	c.EmissionFactorUnit = in.EmissionFactorUnit
	c.EmissionFactorSource = in.EmissionFactorSource
	c.GWP = gwp
	c.CO2e = co2e
	c.Extra = extra
	return nil
}
