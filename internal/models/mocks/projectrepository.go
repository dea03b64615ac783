package mocks

import (
	"context"
	"fmt"
	"sort"

	"github.com/RedHatInsights/carbon_ledger/internal/apperrors"
	"github.com/RedHatInsights/carbon_ledger/internal/models/project"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type MockProjectRepository struct {
	Projects      map[int64]project.Project
	nextID        int64
	DeletesCalled int
	AddsCalled    int
	UpdatesCalled int
	Error         error
}

func NewMockProjectRepository() *MockProjectRepository {
	return &MockProjectRepository{Projects: map[int64]project.Project{}}
}

func (mpr *MockProjectRepository) Create(ctx context.Context, logger *logrus.Entry, p *project.Project) error {
	if mpr.Error != nil {
		return mpr.Error
	}
	if p.Status == "" {
		p.Status = project.StatusDraft
	}
	mpr.nextID++
	p.ID = mpr.nextID
	mpr.Projects[p.ID] = *p
	mpr.AddsCalled++
	return nil
}

func (mpr *MockProjectRepository) Update(ctx context.Context, logger *logrus.Entry, p *project.Project) error {
	if mpr.Error != nil {
		return mpr.Error
	}
	mpr.Projects[p.ID] = *p
	mpr.UpdatesCalled++
	return nil
}

func (mpr *MockProjectRepository) Delete(ctx context.Context, logger *logrus.Entry, id int64) error {
	if mpr.Error != nil {
		return mpr.Error
	}
	if _, ok := mpr.Projects[id]; !ok {
		return fmt.Errorf("Error deleting project %d: %w", id, gorm.ErrRecordNotFound)
	}
	delete(mpr.Projects, id)
	mpr.DeletesCalled++
	return nil
}

func (mpr *MockProjectRepository) GetByID(ctx context.Context, logger *logrus.Entry, id int64) (*project.Project, error) {
	if mpr.Error != nil {
		return nil, mpr.Error
	}
	p, ok := mpr.Projects[id]
	if !ok {
		return nil, fmt.Errorf("Error locating project %d: %w", id, gorm.ErrRecordNotFound)
	}
	return &p, nil
}

func (mpr *MockProjectRepository) GetByTenantID(ctx context.Context, logger *logrus.Entry, tenantID int64, standard string) ([]project.Project, error) {
	if mpr.Error != nil {
		return nil, mpr.Error
	}
	projects := []project.Project{}
	for _, p := range mpr.Projects {
		if p.TenantID == tenantID && (standard == "" || p.Standard == standard) {
			projects = append(projects, p)
		}
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })
	return projects, nil
}

func (mpr *MockProjectRepository) UpdateStatus(ctx context.Context, logger *logrus.Entry, p *project.Project, status string) error {
	if mpr.Error != nil {
		return mpr.Error
	}
	if !project.CanTransition(p.Status, status) {
		return apperrors.BadRequest("project cannot move from %s to %s", p.Status, status)
	}
	p.Status = status
	mpr.Projects[p.ID] = *p
	mpr.UpdatesCalled++
	return nil
}

func (mpr *MockProjectRepository) Stats() map[string]int {
	return map[string]int{"adds": mpr.AddsCalled, "deletes": mpr.DeletesCalled, "updates": mpr.UpdatesCalled}
}
