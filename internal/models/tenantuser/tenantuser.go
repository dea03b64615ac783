package tenantuser

import (
	"context"
	"fmt"

	"github.com/RedHatInsights/carbon_ledger/internal/models/base"
	"github.com/RedHatInsights/carbon_ledger/internal/models/tenant"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Membership roles
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// ValidRole checks the role name
func ValidRole(role string) bool {
	return role == RoleOwner || role == RoleAdmin || role == RoleMember
}

// CanManage reports whether the role may change memberships of the tenant
func CanManage(role string) bool {
	return role == RoleOwner || role == RoleAdmin
}

// Repository interface supports tenant membership lookups and changes
type Repository interface {
	Add(ctx context.Context, logger *logrus.Entry, tu *TenantUser) error
	Remove(ctx context.Context, logger *logrus.Entry, tenantID int64, userID string) error
	Get(ctx context.Context, logger *logrus.Entry, tenantID int64, userID string) (*TenantUser, error)
	ListByUser(ctx context.Context, logger *logrus.Entry, userID string) ([]TenantUser, error)
	ListByTenant(ctx context.Context, logger *logrus.Entry, tenantID int64) ([]TenantUser, error)
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

// TenantUser grants a user a role in a tenant
type TenantUser struct {
	base.Base
	TenantID int64         `gorm:"uniqueIndex:idx_tenant_users_tenant_user;not null" json:"tenant_id"`
	UserID   string        `gorm:"uniqueIndex:idx_tenant_users_tenant_user;not null" json:"user_id"`
	Role     string        `gorm:"not null" json:"role"`
	Tenant   tenant.Tenant `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (gr *gormRepository) Add(ctx context.Context, logger *logrus.Entry, tu *TenantUser) error {
	if result := gr.db.WithContext(ctx).Create(tu); result.Error != nil {
		logger.Errorf("Error adding user %s to tenant %d %v", tu.UserID, tu.TenantID, result.Error)
		return fmt.Errorf("Error adding tenant user: %w", result.Error)
	}
	logger.Infof("Added user %s to tenant %d as %s", tu.UserID, tu.TenantID, tu.Role)
	gr.creates++
	return nil
}

func (gr *gormRepository) Remove(ctx context.Context, logger *logrus.Entry, tenantID int64, userID string) error {
	result := gr.db.WithContext(ctx).Where("tenant_id = ? AND user_id = ?", tenantID, userID).Delete(&TenantUser{})
	if result.Error != nil {
		logger.Errorf("Error removing user %s from tenant %d %v", userID, tenantID, result.Error)
		return fmt.Errorf("Error removing tenant user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("Error removing tenant user %s: %w", userID, gorm.ErrRecordNotFound)
	}
	gr.deletes++
	return nil
}

// Get returns the membership of the user in the tenant
func (gr *gormRepository) Get(ctx context.Context, logger *logrus.Entry, tenantID int64, userID string) (*TenantUser, error) {
	var tu TenantUser
	err := gr.db.WithContext(ctx).Where("tenant_id = ? AND user_id = ?", tenantID, userID).First(&tu).Error
	if err != nil {
		logger.Infof("Membership of user %s in tenant %d not found %v", userID, tenantID, err)
		return nil, fmt.Errorf("Error locating tenant user: %w", err)
	}
	return &tu, nil
}

func (gr *gormRepository) ListByUser(ctx context.Context, logger *logrus.Entry, userID string) ([]TenantUser, error) {
	members := []TenantUser{}
	if err := gr.db.WithContext(ctx).Where("user_id = ?", userID).Order("tenant_id").Find(&members).Error; err != nil {
		logger.Errorf("Error listing tenants of user %s %v", userID, err)
		return nil, fmt.Errorf("Error listing tenant users: %w", err)
	}
	return members, nil
}

func (gr *gormRepository) ListByTenant(ctx context.Context, logger *logrus.Entry, tenantID int64) ([]TenantUser, error) {
	members := []TenantUser{}
	if err := gr.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("id").Find(&members).Error; err != nil {
		logger.Errorf("Error listing members of tenant %d %v", tenantID, err)
		return nil, fmt.Errorf("Error listing tenant users: %w", err)
	}
	return members, nil
}
