package activity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/RedHatInsights/carbon_ledger/internal/models/base"
	"github.com/RedHatInsights/carbon_ledger/internal/models/project"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Repository interface supports step entry CRUD and the import upserts
type Repository interface {
	Create(ctx context.Context, logger *logrus.Entry, a *Activity) error
	Update(ctx context.Context, logger *logrus.Entry, a *Activity) error
	Delete(ctx context.Context, logger *logrus.Entry, id int64) error
	GetByID(ctx context.Context, logger *logrus.Entry, id int64) (*Activity, error)
	ListByProject(ctx context.Context, logger *logrus.Entry, projectID int64, step string) ([]Activity, error)
	CreateOrUpdate(ctx context.Context, logger *logrus.Entry, a *Activity, attrs map[string]interface{}) error
	DeleteUnwanted(ctx context.Context, logger *logrus.Entry, a *Activity, keepSourceRefs []string) error
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

// Activity is one entry of activity data in a form step of a project.
// SourceRef is only set for rows that came from a bulk import.
type Activity struct {
	base.Base
	ProjectID int64           `gorm:"index;not null" json:"project_id"`
	Project   project.Project `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Step      string          `gorm:"index;not null" json:"step"`
	SourceRef string          `gorm:"index" json:"source_ref,omitempty"`
	Data      datatypes.JSON  `json:"data"`
}

// Fields decodes the entry data
func (a *Activity) Fields() (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	if len(a.Data) == 0 {
		return fields, nil
	}
	d := json.NewDecoder(bytes.NewReader(a.Data))
	d.UseNumber()
	if err := d.Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func (a *Activity) validateAttributes(attrs map[string]interface{}) error {
	requiredAttrs := []string{"id"}
	for _, name := range requiredAttrs {
		if _, ok := attrs[name]; !ok {
			return errors.New("Missing Required Attribute " + name)
		}
	}
	return nil
}

func (a *Activity) makeObject(attrs map[string]interface{}) error {
	err := a.validateAttributes(attrs)
	if err != nil {
		return err
	}
	data := make(map[string]interface{}, len(attrs))
	for k, v := range attrs {
		if k != "id" {
			data[k] = v
		}
	}
	valueString, err := json.Marshal(data)
	if err != nil {
		return err
	}
	a.Data = datatypes.JSON(valueString)
	switch id := attrs["id"].(type) {
	case json.Number:
		a.SourceRef = id.String()
	case string:
		a.SourceRef = id
	default:
		a.SourceRef = fmt.Sprint(id)
	}
	return nil
}

func (gr *gormRepository) Create(ctx context.Context, logger *logrus.Entry, a *Activity) error {
	if result := gr.db.WithContext(ctx).Create(a); result.Error != nil {
		logger.Errorf("Error creating %s entry for project %d %v", a.Step, a.ProjectID, result.Error)
		return fmt.Errorf("Error creating activity: %w", result.Error)
	}
	gr.creates++
	return nil
}

func (gr *gormRepository) Update(ctx context.Context, logger *logrus.Entry, a *Activity) error {
	if err := gr.db.WithContext(ctx).Save(a).Error; err != nil {
		logger.Errorf("Error updating activity %d %v", a.ID, err)
		return fmt.Errorf("Error updating activity %d: %w", a.ID, err)
	}
	gr.updates++
	return nil
}

func (gr *gormRepository) Delete(ctx context.Context, logger *logrus.Entry, id int64) error {
	result := gr.db.WithContext(ctx).Delete(&Activity{}, id)
	if result.Error != nil {
		logger.Errorf("Error deleting activity %d %v", id, result.Error)
		return fmt.Errorf("Error deleting activity %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("Error deleting activity %d: %w", id, gorm.ErrRecordNotFound)
	}
	gr.deletes++
	return nil
}

func (gr *gormRepository) GetByID(ctx context.Context, logger *logrus.Entry, id int64) (*Activity, error) {
	var a Activity
	if err := gr.db.WithContext(ctx).First(&a, id).Error; err != nil {
		logger.Infof("Error locating activity %d %v", id, err)
		return nil, fmt.Errorf("Error locating activity %d: %w", id, err)
	}
	return &a, nil
}

// ListByProject returns the entries of a project, of one step when step is set
func (gr *gormRepository) ListByProject(ctx context.Context, logger *logrus.Entry, projectID int64, step string) ([]Activity, error) {
	activities := []Activity{}
	tx := gr.db.WithContext(ctx).Where("project_id = ?", projectID)
	if step != "" {
		tx = tx.Where("step = ?", step)
	}
	if err := tx.Order("id").Find(&activities).Error; err != nil {
		logger.Errorf("Error listing activities of project %d %v", projectID, err)
		return nil, fmt.Errorf("Error listing activities: %w", err)
	}
	return activities, nil
}

// CreateOrUpdate stores an imported entry, matching existing rows by
// project, step and source ref
func (gr *gormRepository) CreateOrUpdate(ctx context.Context, logger *logrus.Entry, a *Activity, attrs map[string]interface{}) error {
	err := a.makeObject(attrs)
	if err != nil {
		logger.Infof("Error creating a new activity object %v", err)
		return err
	}
	var instance Activity
	err = gr.db.WithContext(ctx).Where(&Activity{ProjectID: a.ProjectID, Step: a.Step, SourceRef: a.SourceRef}).First(&instance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Infof("Creating a new %s activity %s", a.Step, a.SourceRef)
			if result := gr.db.WithContext(ctx).Create(a); result.Error != nil {
				return fmt.Errorf("Error creating activity : %v", result.Error.Error())
			}
			gr.creates++
		} else {
			logger.Errorf("Error locating activity %s %v", a.SourceRef, err)
			return err
		}
	} else {
		logger.Infof("Activity %s exists in DB with ID %d", a.SourceRef, instance.ID)
		a.ID = instance.ID
		instance.Data = a.Data
		err := gr.db.WithContext(ctx).Save(&instance).Error
		if err != nil {
			logger.Errorf("Error updating activity %s %v", a.SourceRef, err)
			return err
		}
		gr.updates++
	}
	return nil
}

// DeleteUnwanted deletes the imported entries of the step of a that are
// not listed in keepSourceRefs. Entries created by hand are left alone.
func (gr *gormRepository) DeleteUnwanted(ctx context.Context, logger *logrus.Entry, a *Activity, keepSourceRefs []string) error {
	results, err := a.getDeleteIDs(ctx, logger, gr.db, keepSourceRefs)
	if err != nil {
		logger.Errorf("Error getting Delete IDs for activities %v", err)
		return err
	}
	for _, res := range results {
		logger.Infof("Attempting to delete activity with ID %d Source ref %s", res.ID, res.SourceRef)
		result := gr.db.WithContext(ctx).Delete(&Activity{}, res.ID)
		if result.Error != nil {
			logger.Errorf("Error deleting activity %d %s %v", res.ID, res.SourceRef, result.Error)
			return result.Error
		}
		gr.deletes++
	}
	return nil
}

func (a *Activity) getDeleteIDs(ctx context.Context, logger *logrus.Entry, tx *gorm.DB, keepSourceRefs []string) ([]base.ResultIDRef, error) {
	var result []base.ResultIDRef
	var deleteResultIDRef []base.ResultIDRef
	sort.Strings(keepSourceRefs)
	length := len(keepSourceRefs)
	err := tx.WithContext(ctx).Table("activities").Select("id, source_ref").
		Where("project_id = ? AND step = ? AND source_ref <> ''", a.ProjectID, a.Step).Scan(&result).Error
	if err != nil {
		logger.Errorf("Error fetching activities %v", err)
		return deleteResultIDRef, err
	}
	for _, res := range result {
		if !base.SourceRefExists(res.SourceRef, keepSourceRefs, length) {
			deleteResultIDRef = append(deleteResultIDRef, res)
		}
	}
	return deleteResultIDRef, nil
}
