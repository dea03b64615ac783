package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/RedHatInsights/carbon_ledger/internal/aggregate"
	"github.com/RedHatInsights/carbon_ledger/internal/apperrors"
	"github.com/RedHatInsights/carbon_ledger/internal/calculator"
	"github.com/RedHatInsights/carbon_ledger/internal/logger"
	"github.com/RedHatInsights/carbon_ledger/internal/metrics"
	"github.com/RedHatInsights/carbon_ledger/internal/models/project"
	"github.com/RedHatInsights/carbon_ledger/internal/models/summary"
	"github.com/RedHatInsights/carbon_ledger/internal/models/tenantuser"
	"github.com/RedHatInsights/carbon_ledger/internal/standards"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Service implements the ledger operations. Every operation takes the id
// of the calling user and checks tenant membership before touching data.
type Service struct {
	tx         Transactor
	calculator calculator.Calculator
	registry   *standards.Registry
	now        func() time.Time
}

// NewService creates the service, calc may be nil when no calculator is configured
func NewService(tx Transactor, calc calculator.Calculator, registry *standards.Registry) *Service {
	if registry == nil {
		registry = standards.Default()
	}
	return &Service{tx: tx, calculator: calc, registry: registry, now: time.Now}
}

// Standards returns the registry the service validates against
func (s *Service) Standards() *standards.Registry {
	return s.registry
}

// authorize returns the membership of user in the tenant, FORBIDDEN when
// there is none
func (s *Service) authorize(ctx context.Context, glog *logrus.Entry, st *Store, tenantID int64, user string) (*tenantuser.TenantUser, error) {
	if user == "" {
		return nil, apperrors.Unauthorized("no user identity")
	}
	member, err := st.Members.Get(ctx, glog, tenantID, user)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			glog.Infof("User %s is not a member of tenant %d", user, tenantID)
			return nil, apperrors.Forbidden("user %s is not a member of tenant %d", user, tenantID)
		}
		return nil, apperrors.FromDB(err, "tenant user")
	}
	return member, nil
}

// authorizeManager requires an owner or admin membership
func (s *Service) authorizeManager(ctx context.Context, glog *logrus.Entry, st *Store, tenantID int64, user string) (*tenantuser.TenantUser, error) {
	member, err := s.authorize(ctx, glog, st, tenantID, user)
	if err != nil {
		return nil, err
	}
	if !tenantuser.CanManage(member.Role) {
		return nil, apperrors.Forbidden("user %s cannot manage tenant %d", user, tenantID)
	}
	return member, nil
}

// loadProject looks up the project and checks that user is a member of its tenant
func (s *Service) loadProject(ctx context.Context, glog *logrus.Entry, st *Store, projectID int64, user string) (*project.Project, error) {
	p, err := st.Projects.GetByID(ctx, glog, projectID)
	if err != nil {
		return nil, apperrors.FromDB(err, "project")
	}
	if _, err := s.authorize(ctx, glog, st, p.TenantID, user); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) standardOf(p *project.Project) (*standards.Standard, error) {
	std, ok := s.registry.Get(p.Standard)
	if !ok {
		return nil, apperrors.Internal("project %d has unknown standard %s", p.ID, p.Standard)
	}
	return std, nil
}

func (s *Service) stepOf(p *project.Project, name string) (*standards.Standard, *standards.Step, error) {
	std, err := s.standardOf(p)
	if err != nil {
		return nil, nil, err
	}
	step, ok := std.Step(name)
	if !ok {
		return nil, nil, apperrors.NotFound("step %s not found in standard %s", name, std.ID)
	}
	return std, step, nil
}

func requireEditable(p *project.Project) error {
	if !p.Editable() {
		return apperrors.Conflict("project %d is %s", p.ID, p.Status)
	}
	return nil
}

// recalculate reduces all calculation rows of the project and upserts its
// summary using the store of the running transaction
func (s *Service) recalculate(ctx context.Context, glog *logrus.Entry, st *Store, p *project.Project) (*summary.ProjectSummary, error) {
	std, err := s.standardOf(p)
	if err != nil {
		return nil, err
	}
	rows, err := st.Calculations.ListByProject(ctx, glog, p.ID)
	if err != nil {
		return nil, apperrors.FromDB(err, "calculations")
	}

	var totals aggregate.Totals
	var extra interface{}
	if std.Summary == standards.SummaryISCC {
		var iscc aggregate.ISCCResult
		totals, iscc = aggregate.RecalculateSummary(rows, std.Components())
		extra = iscc
	} else {
		totals = aggregate.UpdateProjectSummary(rows)
	}

	if !aggregate.Finite(totals.Scope1, totals.Scope2, totals.Scope3, totals.Unscoped, totals.Total) {
		return nil, apperrors.BadRequest("emission totals of project %d are out of range", p.ID)
	}
	ps, err := totals.Summary(p.ID, extra, s.now())
	if err != nil {
		glog.Errorf("Error building summary of project %d %v", p.ID, err)
		return nil, apperrors.Internal("building summary: %v", err).Wrap(err)
	}
	if err := st.Summaries.Upsert(ctx, glog, ps); err != nil {
		return nil, apperrors.FromDB(err, "project summary")
	}
	metrics.SummaryRecalculations.WithLabelValues(std.Summary).Inc()
	glog.Infof("Project %d summary total %f from %d rows", p.ID, ps.Total, ps.CalculationCount)
	return ps, nil
}

func logOf(ctx context.Context) *logrus.Entry {
	return logger.GetLogger(ctx)
}
