package project

import (
	"context"
	"fmt"

	"github.com/RedHatInsights/carbon_ledger/internal/apperrors"
	"github.com/RedHatInsights/carbon_ledger/internal/models/base"
	"github.com/RedHatInsights/carbon_ledger/internal/models/tenant"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Project statuses
const (
	StatusDraft      = "draft"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusArchived   = "archived"
)

var transitions = map[string][]string{
	StatusDraft:      {StatusInProgress, StatusArchived},
	StatusInProgress: {StatusDraft, StatusCompleted, StatusArchived},
	StatusCompleted:  {StatusInProgress, StatusArchived},
	StatusArchived:   {StatusDraft},
}

// ValidStatus checks the status name
func ValidStatus(status string) bool {
	_, ok := transitions[status]
	return ok
}

// CanTransition reports whether a project may move from one status to another
func CanTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Repository interface supports the project CRUD operations
type Repository interface {
	Create(ctx context.Context, logger *logrus.Entry, p *Project) error
	Update(ctx context.Context, logger *logrus.Entry, p *Project) error
	Delete(ctx context.Context, logger *logrus.Entry, id int64) error
	GetByID(ctx context.Context, logger *logrus.Entry, id int64) (*Project, error)
	GetByTenantID(ctx context.Context, logger *logrus.Entry, tenantID int64, standard string) ([]Project, error)
	UpdateStatus(ctx context.Context, logger *logrus.Entry, p *Project, status string) error
	Stats() map[string]int
}

type gormRepository struct {
	db      *gorm.DB
	updates int
	creates int
	deletes int
}

// NewGORMRepository creates a new repository object
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// Stats returns a map with the number of adds/updates/deletes
func (gr *gormRepository) Stats() map[string]int {
	return map[string]int{"adds": gr.creates, "updates": gr.updates, "deletes": gr.deletes}
}

// Project is one carbon accounting exercise of a tenant under a single standard
type Project struct {
	base.Base
	TenantID      int64          `gorm:"index;not null" json:"tenant_id"`
	Tenant        tenant.Tenant  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Standard      string         `gorm:"index;not null" json:"standard"`
	Name          string         `gorm:"not null" json:"name"`
	Description   string         `json:"description"`
	ReportingYear int            `json:"reporting_year"`
	BaseYear      int            `json:"base_year"`
	Status        string         `gorm:"not null" json:"status"`
	Boundary      string         `json:"boundary"`
	Extra         datatypes.JSON `json:"extra,omitempty"`
}

// Editable reports whether step entries and calculations may still change
func (p *Project) Editable() bool {
	return p.Status != StatusArchived && p.Status != StatusCompleted
}

func (gr *gormRepository) Create(ctx context.Context, logger *logrus.Entry, p *Project) error {
	if p.Status == "" {
		p.Status = StatusDraft
	}
	if result := gr.db.WithContext(ctx).Create(p); result.Error != nil {
		logger.Errorf("Error creating project %s %v", p.Name, result.Error)
		return fmt.Errorf("Error creating project: %w", result.Error)
	}
	logger.Infof("Created %s project %s with ID %d", p.Standard, p.Name, p.ID)
	gr.creates++
	return nil
}

func (gr *gormRepository) Update(ctx context.Context, logger *logrus.Entry, p *Project) error {
	if err := gr.db.WithContext(ctx).Save(p).Error; err != nil {
		logger.Errorf("Error updating project %d %v", p.ID, err)
		return fmt.Errorf("Error updating project %d: %w", p.ID, err)
	}
	gr.updates++
	return nil
}

// Delete removes the project, its step entries, calculations and summary
// are removed by the cascading foreign keys
func (gr *gormRepository) Delete(ctx context.Context, logger *logrus.Entry, id int64) error {
	result := gr.db.WithContext(ctx).Delete(&Project{}, id)
	if result.Error != nil {
		logger.Errorf("Error deleting project %d %v", id, result.Error)
		return fmt.Errorf("Error deleting project %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("Error deleting project %d: %w", id, gorm.ErrRecordNotFound)
	}
	logger.Infof("Deleted project %d", id)
	gr.deletes++
	return nil
}

func (gr *gormRepository) GetByID(ctx context.Context, logger *logrus.Entry, id int64) (*Project, error) {
	var p Project
	if err := gr.db.WithContext(ctx).First(&p, id).Error; err != nil {
		logger.Infof("Error locating project %d %v", id, err)
		return nil, fmt.Errorf("Error locating project %d: %w", id, err)
	}
	return &p, nil
}

// GetByTenantID lists the projects of a tenant, optionally of one standard
func (gr *gormRepository) GetByTenantID(ctx context.Context, logger *logrus.Entry, tenantID int64, standard string) ([]Project, error) {
	projects := []Project{}
	tx := gr.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if standard != "" {
		tx = tx.Where("standard = ?", standard)
	}
	if err := tx.Order("id").Find(&projects).Error; err != nil {
		logger.Errorf("Error listing projects of tenant %d %v", tenantID, err)
		return nil, fmt.Errorf("Error listing projects: %w", err)
	}
	return projects, nil
}

// UpdateStatus moves the project along the status transition table
func (gr *gormRepository) UpdateStatus(ctx context.Context, logger *logrus.Entry, p *Project, status string) error {
	if !ValidStatus(status) {
		return apperrors.BadRequest("unknown project status %s", status)
	}
	if !CanTransition(p.Status, status) {
		logger.Infof("Rejecting project %d transition from %s to %s", p.ID, p.Status, status)
		return apperrors.BadRequest("project cannot move from %s to %s", p.Status, status)
	}
	if err := gr.db.WithContext(ctx).Model(p).Update("status", status).Error; err != nil {
		logger.Errorf("Error updating status of project %d %v", p.ID, err)
		return fmt.Errorf("Error updating project status %d: %w", p.ID, err)
	}
	p.Status = status
	gr.updates++
	return nil
}
