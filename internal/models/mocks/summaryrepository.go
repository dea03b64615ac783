package mocks

import (
	"context"
	"fmt"

	"github.com/RedHatInsights/carbon_ledger/internal/models/summary"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type MockSummaryRepository struct {
	Summaries     map[int64]summary.ProjectSummary
	DeletesCalled int
	AddsCalled    int
	UpdatesCalled int
	Error         error
}

func NewMockSummaryRepository() *MockSummaryRepository {
	return &MockSummaryRepository{Summaries: map[int64]summary.ProjectSummary{}}
}

func (msr *MockSummaryRepository) Upsert(ctx context.Context, logger *logrus.Entry, s *summary.ProjectSummary) error {
	if msr.Error != nil {
		return msr.Error
	}
	msr.Summaries[s.ProjectID] = *s
	msr.UpdatesCalled++
	return nil
}

func (msr *MockSummaryRepository) GetByProject(ctx context.Context, logger *logrus.Entry, projectID int64) (*summary.ProjectSummary, error) {
	if msr.Error != nil {
		return nil, msr.Error
	}
	s, ok := msr.Summaries[projectID]
	if !ok {
		return nil, fmt.Errorf("Error locating project summary: %w", gorm.ErrRecordNotFound)
	}
	return &s, nil
}

func (msr *MockSummaryRepository) Stats() map[string]int {
	return map[string]int{"adds": msr.AddsCalled, "deletes": msr.DeletesCalled, "updates": msr.UpdatesCalled}
}
