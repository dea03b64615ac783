package calculation

import (
	"context"
	"fmt"

	"github.com/RedHatInsights/carbon_ledger/internal/models/activity"
	"github.com/RedHatInsights/carbon_ledger/internal/models/base"
	"github.com/RedHatInsights/carbon_ledger/internal/models/project"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// How a calculation row was produced
const (
	MethodManual     = "manual"
	MethodCalculator = "calculator"
)

// Repository interface supports calculation CRUD and replacing the
// calculator output of an activity
type Repository interface {
	Create(ctx context.Context, logger *logrus.Entry, c *Calculation) error
	Update(ctx context.Context, logger *logrus.Entry, c *Calculation) error
	Delete(ctx context.Context, logger *logrus.Entry, id int64) error
	GetByID(ctx context.Context, logger *logrus.Entry, id int64) (*Calculation, error)
	ListByProject(ctx context.Context, logger *logrus.Entry, projectID int64) ([]Calculation, error)
	ReplaceForActivity(ctx context.Context, logger *logrus.Entry, activityID int64, rows []Calculation) error
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

// Calculation is one emission line of a project. Scope 0 means the line
// does not belong to a GHG scope.
type Calculation struct {
	base.Base
	ProjectID            int64              `gorm:"index;not null" json:"project_id"`
	Project              project.Project    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ActivityID           *int64             `gorm:"index" json:"activity_id,omitempty"`
	Activity             *activity.Activity `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Step                 string             `gorm:"index" json:"step"`
	Category             string             `json:"category"`
	Scope                int                `json:"scope"`
	GasType              string             `json:"gas_type"`
	ActivityValue        float64            `json:"activity_value"`
	ActivityUnit         string             `json:"activity_unit"`
	EmissionFactor       float64            `json:"emission_factor"`
	EmissionFactorUnit   string             `json:"emission_factor_unit"`
	EmissionFactorSource string             `json:"emission_factor_source"`
	GWP                  float64            `gorm:"column:gwp" json:"gwp"`
	CO2e                 float64            `gorm:"column:co2e" json:"co2e"`
	Method               string             `gorm:"not null" json:"method"`
	Extra                datatypes.JSON     `json:"extra,omitempty"`
}

func (gr *gormRepository) Create(ctx context.Context, logger *logrus.Entry, c *Calculation) error {
	if c.Method == "" {
		c.Method = MethodManual
	}
	if result := gr.db.WithContext(ctx).Create(c); result.Error != nil {
		logger.Errorf("Error creating calculation for project %d %v", c.ProjectID, result.Error)
		return fmt.Errorf("Error creating calculation: %w", result.Error)
	}
	gr.creates++
	return nil
}

func (gr *gormRepository) Update(ctx context.Context, logger *logrus.Entry, c *Calculation) error {
	if err := gr.db.WithContext(ctx).Save(c).Error; err != nil {
		logger.Errorf("Error updating calculation %d %v", c.ID, err)
		return fmt.Errorf("Error updating calculation %d: %w", c.ID, err)
	}
	gr.updates++
	return nil
}

func (gr *gormRepository) Delete(ctx context.Context, logger *logrus.Entry, id int64) error {
	result := gr.db.WithContext(ctx).Delete(&Calculation{}, id)
	if result.Error != nil {
		logger.Errorf("Error deleting calculation %d %v", id, result.Error)
		return fmt.Errorf("Error deleting calculation %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("Error deleting calculation %d: %w", id, gorm.ErrRecordNotFound)
	}
	gr.deletes++
	return nil
}

func (gr *gormRepository) GetByID(ctx context.Context, logger *logrus.Entry, id int64) (*Calculation, error) {
	var c Calculation
	if err := gr.db.WithContext(ctx).First(&c, id).Error; err != nil {
		logger.Infof("Error locating calculation %d %v", id, err)
		return nil, fmt.Errorf("Error locating calculation %d: %w", id, err)
	}
	return &c, nil
}

func (gr *gormRepository) ListByProject(ctx context.Context, logger *logrus.Entry, projectID int64) ([]Calculation, error) {
	rows := []Calculation{}
	if err := gr.db.WithContext(ctx).Where("project_id = ?", projectID).Order("id").Find(&rows).Error; err != nil {
		logger.Errorf("Error listing calculations of project %d %v", projectID, err)
		return nil, fmt.Errorf("Error listing calculations: %w", err)
	}
	return rows, nil
}

// ReplaceForActivity drops the calculator produced rows of an activity and
// stores rows in their place. Manual rows of the activity are kept.
func (gr *gormRepository) ReplaceForActivity(ctx context.Context, logger *logrus.Entry, activityID int64, rows []Calculation) error {
	result := gr.db.WithContext(ctx).Where("activity_id = ? AND method = ?", activityID, MethodCalculator).Delete(&Calculation{})
	if result.Error != nil {
		logger.Errorf("Error deleting calculator rows of activity %d %v", activityID, result.Error)
		return fmt.Errorf("Error replacing calculations: %w", result.Error)
	}
	gr.deletes += int(result.RowsAffected)
	for i := range rows {
		id := activityID
		rows[i].ActivityID = &id
		rows[i].Method = MethodCalculator
		if err := gr.db.WithContext(ctx).Create(&rows[i]).Error; err != nil {
			logger.Errorf("Error storing calculator row of activity %d %v", activityID, err)
			return fmt.Errorf("Error replacing calculations: %w", err)
		}
		gr.creates++
	}
	logger.Infof("Replaced calculator rows of activity %d with %d rows", activityID, len(rows))
	return nil
}
