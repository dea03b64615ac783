package summary

import (
	"context"
	"fmt"
	"time"

	"github.com/RedHatInsights/carbon_ledger/internal/models/base"
	"github.com/RedHatInsights/carbon_ledger/internal/models/project"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository interface supports storing and fetching the project summary
type Repository interface {
	Upsert(ctx context.Context, logger *logrus.Entry, s *ProjectSummary) error
	GetByProject(ctx context.Context, logger *logrus.Entry, projectID int64) (*ProjectSummary, error)
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

// ProjectSummary holds the totals of all calculation rows of a project in
// kg CO2e, there is at most one per project
type ProjectSummary struct {
	base.Base
	ProjectID        int64           `gorm:"uniqueIndex;not null" json:"project_id"`
	Project          project.Project `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Scope1           float64         `gorm:"column:scope1" json:"scope1"`
	Scope2           float64         `gorm:"column:scope2" json:"scope2"`
	Scope3           float64         `gorm:"column:scope3" json:"scope3"`
	Unscoped         float64         `json:"unscoped"`
	Total            float64         `json:"total"`
	CategoryTotals   datatypes.JSON  `json:"category_totals"`
	GasTotals        datatypes.JSON  `json:"gas_totals"`
	StepTotals       datatypes.JSON  `json:"step_totals"`
	Extra            datatypes.JSON  `json:"extra,omitempty"`
	CalculationCount int             `json:"calculation_count"`
	CalculatedAt     time.Time       `json:"calculated_at"`
}

var upsertColumns = []string{"updated_at", "scope1", "scope2", "scope3", "unscoped", "total",
	"category_totals", "gas_totals", "step_totals", "extra", "calculation_count", "calculated_at"}

// Upsert writes the summary of the project, replacing the previous one
func (gr *gormRepository) Upsert(ctx context.Context, logger *logrus.Entry, s *ProjectSummary) error {
	result := gr.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}},
		DoUpdates: clause.AssignmentColumns(upsertColumns),
	}).Create(s)
	if result.Error != nil {
		logger.Errorf("Error storing summary of project %d %v", s.ProjectID, result.Error)
		return fmt.Errorf("Error storing project summary: %w", result.Error)
	}
	logger.Infof("Stored summary of project %d total %f", s.ProjectID, s.Total)
	gr.updates++
	return nil
}

func (gr *gormRepository) GetByProject(ctx context.Context, logger *logrus.Entry, projectID int64) (*ProjectSummary, error) {
	var s ProjectSummary
	if err := gr.db.WithContext(ctx).Where("project_id = ?", projectID).First(&s).Error; err != nil {
		logger.Infof("Error locating summary of project %d %v", projectID, err)
		return nil, fmt.Errorf("Error locating project summary: %w", err)
	}
	return &s, nil
}
