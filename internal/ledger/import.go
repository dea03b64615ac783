package ledger

import (
	"context"
	"sort"

	"github.com/RedHatInsights/carbon_ledger/internal/apperrors"
	"github.com/RedHatInsights/carbon_ledger/internal/models/project"
	"github.com/RedHatInsights/carbon_ledger/internal/models/summary"
	"github.com/RedHatInsights/carbon_ledger/internal/standards"
)

// ImportLoad stores the entries of a bulk import through st and returns the
// names of the steps it touched
type ImportLoad func(ctx context.Context, st *Store, p *project.Project, std *standards.Standard) ([]string, error)

// ImportRequest identifies the target of a bulk import
type ImportRequest struct {
	User      string
	TenantID  int64
	ProjectID int64
	Calculate bool
}

// ImportResult reports a finished bulk import
type ImportResult struct {
	Steps   []string                `json:"steps"`
	Stats   map[string]interface{}  `json:"stats"`
	Summary *summary.ProjectSummary `json:"summary"`
}

// Import runs load in one transaction after checking that the project
// belongs to the tenant and the user is a member of it. When Calculate is
// set the touched steps go through the calculator before the summary is
// recalculated. Any failure rolls the whole import back.
func (s *Service) Import(ctx context.Context, req ImportRequest, load ImportLoad) (*ImportResult, error) {
	glog := logOf(ctx)
	st := s.tx.Store()
	if _, err := st.Tenants.GetByID(ctx, glog, req.TenantID); err != nil {
		return nil, apperrors.FromDB(err, "tenant")
	}
	p, err := s.loadProject(ctx, glog, st, req.ProjectID, req.User)
	if err != nil {
		return nil, err
	}
	if p.TenantID != req.TenantID {
		return nil, apperrors.NotFound("project %d not found in tenant %d", p.ID, req.TenantID)
	}
	if err := requireEditable(p); err != nil {
		return nil, err
	}
	std, err := s.standardOf(p)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	err = s.tx.InTx(ctx, func(tst *Store) error {
		steps, err := load(ctx, tst, p, std)
		if err != nil {
			return err
		}
		sort.Strings(steps)
		result.Steps = steps
		if req.Calculate {
			for _, name := range steps {
				step, ok := std.Step(name)
				if !ok {
					return apperrors.BadRequest("unknown step %s for standard %s", name, std.ID)
				}
				entries, err := tst.Activities.ListByProject(ctx, glog, p.ID, name)
				if err != nil {
					return apperrors.FromDB(err, "entries")
				}
				for i := range entries {
					rows, err := s.calculateEntry(ctx, glog, std, step, p, &entries[i])
					if err != nil {
						return err
					}
					if err := tst.Calculations.ReplaceForActivity(ctx, glog, entries[i].ID, rows); err != nil {
						return apperrors.FromDB(err, "calculations")
					}
				}
			}
		}
		if result.Summary, err = s.recalculate(ctx, glog, tst, p); err != nil {
			return err
		}
		result.Stats = tst.Stats()
		return nil
	})
	if err != nil {
		glog.Errorf("Import into project %d rolled back %v", p.ID, err)
		return nil, err
	}
	glog.Infof("Imported steps %v into project %d", result.Steps, p.ID)
	return result, nil
}
