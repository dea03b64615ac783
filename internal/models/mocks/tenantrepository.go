package mocks

import (
	"context"
	"fmt"

	"github.com/RedHatInsights/carbon_ledger/internal/models/tenant"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type MockTenantRepository struct {
	Tenants       map[int64]tenant.Tenant
	nextID        int64
	DeletesCalled int
	AddsCalled    int
	UpdatesCalled int
	Error         error
}

func NewMockTenantRepository() *MockTenantRepository {
	return &MockTenantRepository{Tenants: map[int64]tenant.Tenant{}}
}

func (mtr *MockTenantRepository) Create(ctx context.Context, logger *logrus.Entry, t *tenant.Tenant) error {
	if mtr.Error != nil {
		return mtr.Error
	}
	mtr.nextID++
	t.ID = mtr.nextID
	mtr.Tenants[t.ID] = *t
	mtr.AddsCalled++
	return nil
}

func (mtr *MockTenantRepository) GetByID(ctx context.Context, logger *logrus.Entry, id int64) (*tenant.Tenant, error) {
	if mtr.Error != nil {
		return nil, mtr.Error
	}
	t, ok := mtr.Tenants[id]
	if !ok {
		return nil, fmt.Errorf("Error locating tenant %d: %w", id, gorm.ErrRecordNotFound)
	}
	return &t, nil
}

func (mtr *MockTenantRepository) ListByIDs(ctx context.Context, logger *logrus.Entry, ids []int64) ([]tenant.Tenant, error) {
	if mtr.Error != nil {
		return nil, mtr.Error
	}
	tenants := []tenant.Tenant{}
	for _, id := range ids {
		if t, ok := mtr.Tenants[id]; ok {
			tenants = append(tenants, t)
		}
	}
	return tenants, nil
}

func (mtr *MockTenantRepository) Delete(ctx context.Context, logger *logrus.Entry, id int64) error {
	if mtr.Error != nil {
		return mtr.Error
	}
	if _, ok := mtr.Tenants[id]; !ok {
		return fmt.Errorf("Error deleting tenant %d: %w", id, gorm.ErrRecordNotFound)
	}
	delete(mtr.Tenants, id)
	mtr.DeletesCalled++
	return nil
}

func (mtr *MockTenantRepository) Stats() map[string]int {
	return map[string]int{"adds": mtr.AddsCalled, "deletes": mtr.DeletesCalled, "updates": mtr.UpdatesCalled}
}
