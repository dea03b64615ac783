package ledger

import (
	"context"
	"encoding/json"

	"github.com/RedHatInsights/carbon_ledger/internal/apperrors"
	"github.com/RedHatInsights/carbon_ledger/internal/models/project"
	"gorm.io/datatypes"
)

// ProjectInput is the body of a project creation
type ProjectInput struct {
	TenantID      int64                  `json:"tenant_id" validate:"required,gt=0"`
	Standard      string                 `json:"standard" validate:"required"`
	Name          string                 `json:"name" validate:"required,max=255"`
	Description   string                 `json:"description"`
	ReportingYear int                    `json:"reporting_year" validate:"omitempty,gte=1990,lte=2100"`
	BaseYear      int                    `json:"base_year" validate:"omitempty,gte=1990,lte=2100"`
	Boundary      string                 `json:"boundary" validate:"omitempty,oneof=operational financial equity"`
	Extra         map[string]interface{} `json:"extra"`
}

// ProjectUpdate changes the fields that are set
type ProjectUpdate struct {
	Name          *string                `json:"name" validate:"omitempty,min=1,max=255"`
	Description   *string                `json:"description"`
	ReportingYear *int                   `json:"reporting_year" validate:"omitempty,gte=1990,lte=2100"`
	BaseYear      *int                   `json:"base_year" validate:"omitempty,gte=1990,lte=2100"`
	Boundary      *string                `json:"boundary" validate:"omitempty,oneof=operational financial equity"`
	Extra         map[string]interface{} `json:"extra"`
}

// StatusInput requests a status transition
type StatusInput struct {
	Status string `json:"status" validate:"required"`
}

func toJSON(v map[string]interface{}) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, apperrors.BadRequest("invalid extra: %v", err)
	}
	return datatypes.JSON(b), nil
}

// CreateProject creates a project of a tenant under one standard
func (s *Service) CreateProject(ctx context.Context, user string, in ProjectInput) (*project.Project, error) {
	glog := logOf(ctx)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if _, ok := s.registry.Get(in.Standard); !ok {
		return nil, apperrors.BadRequest("unknown standard %s", in.Standard)
	}
	extra, err := toJSON(in.Extra)
	if err != nil {
		return nil, err
	}
	st := s.tx.Store()
	if _, err := st.Tenants.GetByID(ctx, glog, in.TenantID); err != nil {
		return nil, apperrors.FromDB(err, "tenant")
	}
	if _, err := s.authorize(ctx, glog, st, in.TenantID, user); err != nil {
		return nil, err
	}
	p := &project.Project{
		TenantID:      in.TenantID,
		Standard:      in.Standard,
		Name:          in.Name,
		Description:   in.Description,
		ReportingYear: in.ReportingYear,
		BaseYear:      in.BaseYear,
		Boundary:      in.Boundary,
		Extra:         extra,
	}
	if err := st.Projects.Create(ctx, glog, p); err != nil {
		return nil, apperrors.FromDB(err, "project")
	}
	glog.Infof("Project %d (%s) created in tenant %d", p.ID, p.Standard, p.TenantID)
	return p, nil
}

// GetProject returns a project of one of the caller's tenants
func (s *Service) GetProject(ctx context.Context, user string, projectID int64) (*project.Project, error) {
	return s.loadProject(ctx, logOf(ctx), s.tx.Store(), projectID, user)
}

// GetProjectsByTenant lists the projects of a tenant, optionally of one standard
func (s *Service) GetProjectsByTenant(ctx context.Context, user string, tenantID int64, standard string) ([]project.Project, error) {
	glog := logOf(ctx)
	if standard != "" {
		if _, ok := s.registry.Get(standard); !ok {
			return nil, apperrors.BadRequest("unknown standard %s", standard)
		}
	}
	st := s.tx.Store()
	if _, err := st.Tenants.GetByID(ctx, glog, tenantID); err != nil {
		return nil, apperrors.FromDB(err, "tenant")
	}
	if _, err := s.authorize(ctx, glog, st, tenantID, user); err != nil {
		return nil, err
	}
	projects, err := st.Projects.GetByTenantID(ctx, glog, tenantID, standard)
	if err != nil {
		return nil, apperrors.FromDB(err, "projects")
	}
	return projects, nil
}

// UpdateProject changes the descriptive fields of a project, archived
// projects cannot change
func (s *Service) UpdateProject(ctx context.Context, user string, projectID int64, in ProjectUpdate) (*project.Project, error) {
	glog := logOf(ctx)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	st := s.tx.Store()
	p, err := s.loadProject(ctx, glog, st, projectID, user)
	if err != nil {
		return nil, err
	}
	if p.Status == project.StatusArchived {
		return nil, apperrors.Conflict("project %d is %s", p.ID, p.Status)
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.ReportingYear != nil {
		p.ReportingYear = *in.ReportingYear
	}
	if in.BaseYear != nil {
		p.BaseYear = *in.BaseYear
	}
	if in.Boundary != nil {
		p.Boundary = *in.Boundary
	}
	if in.Extra != nil {
		if p.Extra, err = toJSON(in.Extra); err != nil {
			return nil, err
		}
	}
	if err := st.Projects.Update(ctx, glog, p); err != nil {
		return nil, apperrors.FromDB(err, "project")
	}
	return p, nil
}

// DeleteProject removes the project, its entries, calculations and summary
// go with it through the cascading foreign keys
func (s *Service) DeleteProject(ctx context.Context, user string, projectID int64) error {
	glog := logOf(ctx)
	st := s.tx.Store()
	p, err := s.loadProject(ctx, glog, st, projectID, user)
	if err != nil {
		return err
	}
	if err := st.Projects.Delete(ctx, glog, p.ID); err != nil {
		return apperrors.FromDB(err, "project")
	}
	glog.Infof("Project %d deleted by %s", p.ID, user)
	return nil
}

// SetProjectStatus moves the project along the status transition table
func (s *Service) SetProjectStatus(ctx context.Context, user string, projectID int64, in StatusInput) (*project.Project, error) {
	glog := logOf(ctx)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if !project.ValidStatus(in.Status) {
		return nil, apperrors.BadRequest("unknown status %s", in.Status)
	}
	st := s.tx.Store()
	p, err := s.loadProject(ctx, glog, st, projectID, user)
	if err != nil {
		return nil, err
	}
	from := p.Status
	if err := st.Projects.UpdateStatus(ctx, glog, p, in.Status); err != nil {
		return nil, apperrors.FromDB(err, "project")
	}
	p.Status = in.Status
	glog.Infof("Project %d moved from %s to %s", p.ID, from, p.Status)
	return p, nil
}
