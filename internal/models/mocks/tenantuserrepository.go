package mocks

import (
	"context"
	"fmt"
	"sort"

	"github.com/RedHatInsights/carbon_ledger/internal/models/tenantuser"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type memberKey struct {
	tenantID int64
	userID   string
}

type MockTenantUserRepository struct {
	Members       map[memberKey]tenantuser.TenantUser
	nextID        int64
	DeletesCalled int
	AddsCalled    int
	UpdatesCalled int
	Error         error
}

func NewMockTenantUserRepository() *MockTenantUserRepository {
	return &MockTenantUserRepository{Members: map[memberKey]tenantuser.TenantUser{}}
}

// Seed adds a membership without counting it
func (mtur *MockTenantUserRepository) Seed(tenantID int64, userID, role string) {
	mtur.nextID++
	mtur.Members[memberKey{tenantID, userID}] = tenantuser.TenantUser{TenantID: tenantID, UserID: userID, Role: role}
}

func (mtur *MockTenantUserRepository) Add(ctx context.Context, logger *logrus.Entry, tu *tenantuser.TenantUser) error {
	if mtur.Error != nil {
		return mtur.Error
	}
	key := memberKey{tu.TenantID, tu.UserID}
	if _, ok := mtur.Members[key]; ok {
		return fmt.Errorf("Error adding tenant user: duplicate key")
	}
	mtur.nextID++
	tu.ID = mtur.nextID
	mtur.Members[key] = *tu
	mtur.AddsCalled++
	return nil
}

func (mtur *MockTenantUserRepository) Remove(ctx context.Context, logger *logrus.Entry, tenantID int64, userID string) error {
	if mtur.Error != nil {
		return mtur.Error
	}
	key := memberKey{tenantID, userID}
	if _, ok := mtur.Members[key]; !ok {
		return fmt.Errorf("Error removing tenant user %s: %w", userID, gorm.ErrRecordNotFound)
	}
	delete(mtur.Members, key)
	mtur.DeletesCalled++
	return nil
}

func (mtur *MockTenantUserRepository) Get(ctx context.Context, logger *logrus.Entry, tenantID int64, userID string) (*tenantuser.TenantUser, error) {
	if mtur.Error != nil {
		return nil, mtur.Error
	}
	tu, ok := mtur.Members[memberKey{tenantID, userID}]
	if !ok {
		return nil, fmt.Errorf("Error locating tenant user: %w", gorm.ErrRecordNotFound)
	}
	return &tu, nil
}

func (mtur *MockTenantUserRepository) ListByUser(ctx context.Context, logger *logrus.Entry, userID string) ([]tenantuser.TenantUser, error) {
	if mtur.Error != nil {
		return nil, mtur.Error
	}
	members := []tenantuser.TenantUser{}
	for key, tu := range mtur.Members {
		if key.userID == userID {
			members = append(members, tu)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].TenantID < members[j].TenantID })
	return members, nil
}

func (mtur *MockTenantUserRepository) ListByTenant(ctx context.Context, logger *logrus.Entry, tenantID int64) ([]tenantuser.TenantUser, error) {
	if mtur.Error != nil {
		return nil, mtur.Error
	}
	members := []tenantuser.TenantUser{}
	for key, tu := range mtur.Members {
		if key.tenantID == tenantID {
			members = append(members, tu)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].UserID < members[j].UserID })
	return members, nil
}

func (mtur *MockTenantUserRepository) Stats() map[string]int {
	return map[string]int{"adds": mtur.AddsCalled, "deletes": mtur.DeletesCalled, "updates": mtur.UpdatesCalled}
}
