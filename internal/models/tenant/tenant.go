package tenant

import (
	"context"
	"fmt"

	"github.com/RedHatInsights/carbon_ledger/internal/models/base"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Repository interface supports creating, fetching and deleting tenants
type Repository interface {
	Create(ctx context.Context, logger *logrus.Entry, t *Tenant) error
	GetByID(ctx context.Context, logger *logrus.Entry, id int64) (*Tenant, error)
	ListByIDs(ctx context.Context, logger *logrus.Entry, ids []int64) ([]Tenant, error)
	Delete(ctx context.Context, logger *logrus.Entry, id int64) error
	Stats() map[string]int
}

// gormRepository struct stores the DB handle and counters
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

// Tenant is the organisation that owns projects, users get access to it
// through membership rows
type Tenant struct {
	base.Base
	Name           string `gorm:"not null" json:"name"`
	ExternalTenant string `gorm:"index" json:"external_tenant"`
	Description    string `json:"description"`
}

func (gr *gormRepository) Create(ctx context.Context, logger *logrus.Entry, t *Tenant) error {
	if result := gr.db.WithContext(ctx).Create(t); result.Error != nil {
		logger.Errorf("Error creating tenant %s %v", t.Name, result.Error)
		return fmt.Errorf("Error creating tenant: %w", result.Error)
	}
	logger.Infof("Created tenant %s with ID %d", t.Name, t.ID)
	gr.creates++
	return nil
}

func (gr *gormRepository) GetByID(ctx context.Context, logger *logrus.Entry, id int64) (*Tenant, error) {
	var t Tenant
	if err := gr.db.WithContext(ctx).First(&t, id).Error; err != nil {
		logger.Infof("Error locating tenant %d %v", id, err)
		return nil, fmt.Errorf("Error locating tenant %d: %w", id, err)
	}
	return &t, nil
}

func (gr *gormRepository) ListByIDs(ctx context.Context, logger *logrus.Entry, ids []int64) ([]Tenant, error) {
	tenants := []Tenant{}
	if len(ids) == 0 {
		return tenants, nil
	}
	if err := gr.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&tenants).Error; err != nil {
		logger.Errorf("Error listing tenants %v", err)
		return nil, fmt.Errorf("Error listing tenants: %w", err)
	}
	return tenants, nil
}

// Delete removes the tenant, memberships and projects go with it
func (gr *gormRepository) Delete(ctx context.Context, logger *logrus.Entry, id int64) error {
	result := gr.db.WithContext(ctx).Delete(&Tenant{}, id)
	if result.Error != nil {
		logger.Errorf("Error deleting tenant %d %v", id, result.Error)
		return fmt.Errorf("Error deleting tenant %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("Error deleting tenant %d: %w", id, gorm.ErrRecordNotFound)
	}
	gr.deletes++
	return nil
}
