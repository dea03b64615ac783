package mocks

import (
	"context"
	"fmt"
	"sort"

	"github.com/RedHatInsights/carbon_ledger/internal/models/calculation"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type MockCalculationRepository struct {
	Calculations  map[int64]calculation.Calculation
	nextID        int64
	DeletesCalled int
	AddsCalled    int
	UpdatesCalled int
	Error         error
}

func NewMockCalculationRepository() *MockCalculationRepository {
	return &MockCalculationRepository{Calculations: map[int64]calculation.Calculation{}}
}

func (mcr *MockCalculationRepository) Create(ctx context.Context, logger *logrus.Entry, c *calculation.Calculation) error {
	if mcr.Error != nil {
		return mcr.Error
	}
	if c.Method == "" {
		c.Method = calculation.MethodManual
	}
	mcr.nextID++
	c.ID = mcr.nextID
	mcr.Calculations[c.ID] = *c
	mcr.AddsCalled++
	return nil
}

func (mcr *MockCalculationRepository) Update(ctx context.Context, logger *logrus.Entry, c *calculation.Calculation) error {
	if mcr.Error != nil {
		return mcr.Error
	}
	mcr.Calculations[c.ID] = *c
	mcr.UpdatesCalled++
	return nil
}

func (mcr *MockCalculationRepository) Delete(ctx context.Context, logger *logrus.Entry, id int64) error {
	if mcr.Error != nil {
		return mcr.Error
	}
	if _, ok := mcr.Calculations[id]; !ok {
		return fmt.Errorf("Error deleting calculation %d: %w", id, gorm.ErrRecordNotFound)
	}
	delete(mcr.Calculations, id)
	mcr.DeletesCalled++
	return nil
}

func (mcr *MockCalculationRepository) GetByID(ctx context.Context, logger *logrus.Entry, id int64) (*calculation.Calculation, error) {
	if mcr.Error != nil {
		return nil, mcr.Error
	}
	c, ok := mcr.Calculations[id]
	if !ok {
		return nil, fmt.Errorf("Error locating calculation %d: %w", id, gorm.ErrRecordNotFound)
	}
	return &c, nil
}

func (mcr *MockCalculationRepository) ListByProject(ctx context.Context, logger *logrus.Entry, projectID int64) ([]calculation.Calculation, error) {
	if mcr.Error != nil {
		return nil, mcr.Error
	}
	rows := []calculation.Calculation{}
	for _, c := range mcr.Calculations {
		if c.ProjectID == projectID {
			rows = append(rows, c)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

func (mcr *MockCalculationRepository) ReplaceForActivity(ctx context.Context, logger *logrus.Entry, activityID int64, rows []calculation.Calculation) error {
	if mcr.Error != nil {
		return mcr.Error
	}
	for id, c := range mcr.Calculations {
		if c.ActivityID != nil && *c.ActivityID == activityID && c.Method == calculation.MethodCalculator {
			delete(mcr.Calculations, id)
			mcr.DeletesCalled++
		}
	}
	for i := range rows {
		id := activityID
		rows[i].ActivityID = &id
		rows[i].Method = calculation.MethodCalculator
		mcr.nextID++
		rows[i].ID = mcr.nextID
		mcr.Calculations[rows[i].ID] = rows[i]
		mcr.AddsCalled++
	}
	return nil
}

func (mcr *MockCalculationRepository) Stats() map[string]int {
	return map[string]int{"adds": mcr.AddsCalled, "deletes": mcr.DeletesCalled, "updates": mcr.UpdatesCalled}
}
