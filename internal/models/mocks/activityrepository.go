package mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/RedHatInsights/carbon_ledger/internal/models/activity"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type MockActivityRepository struct {
	Activities    map[int64]activity.Activity
	Kept          map[string][]string
	nextID        int64
	DeletesCalled int
	AddsCalled    int
	UpdatesCalled int
	Error         error
}

func NewMockActivityRepository() *MockActivityRepository {
	return &MockActivityRepository{Activities: map[int64]activity.Activity{}, Kept: map[string][]string{}}
}

func (mar *MockActivityRepository) Create(ctx context.Context, logger *logrus.Entry, a *activity.Activity) error {
	if mar.Error != nil {
		return mar.Error
	}
	mar.nextID++
	a.ID = mar.nextID
	mar.Activities[a.ID] = *a
	mar.AddsCalled++
	return nil
}

func (mar *MockActivityRepository) Update(ctx context.Context, logger *logrus.Entry, a *activity.Activity) error {
	if mar.Error != nil {
		return mar.Error
	}
	mar.Activities[a.ID] = *a
	mar.UpdatesCalled++
	return nil
}

func (mar *MockActivityRepository) Delete(ctx context.Context, logger *logrus.Entry, id int64) error {
	if mar.Error != nil {
		return mar.Error
	}
	if _, ok := mar.Activities[id]; !ok {
		return fmt.Errorf("Error deleting activity %d: %w", id, gorm.ErrRecordNotFound)
	}
	delete(mar.Activities, id)
	mar.DeletesCalled++
	return nil
}

func (mar *MockActivityRepository) GetByID(ctx context.Context, logger *logrus.Entry, id int64) (*activity.Activity, error) {
	if mar.Error != nil {
		return nil, mar.Error
	}
	a, ok := mar.Activities[id]
	if !ok {
		return nil, fmt.Errorf("Error locating activity %d: %w", id, gorm.ErrRecordNotFound)
	}
	return &a, nil
}

func (mar *MockActivityRepository) ListByProject(ctx context.Context, logger *logrus.Entry, projectID int64, step string) ([]activity.Activity, error) {
	if mar.Error != nil {
		return nil, mar.Error
	}
	activities := []activity.Activity{}
	for _, a := range mar.Activities {
		if a.ProjectID == projectID && (step == "" || a.Step == step) {
			activities = append(activities, a)
		}
	}
	sort.Slice(activities, func(i, j int) bool { return activities[i].ID < activities[j].ID })
	return activities, nil
}

func (mar *MockActivityRepository) CreateOrUpdate(ctx context.Context, logger *logrus.Entry, a *activity.Activity, attrs map[string]interface{}) error {
	if mar.Error != nil {
		return mar.Error
	}
	ref := fmt.Sprint(attrs["id"])
	data := map[string]interface{}{}
	for k, v := range attrs {
		if k != "id" {
			data[k] = v
		}
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return err
	}
	a.SourceRef = ref
	a.Data = encoded
	for id, existing := range mar.Activities {
		if existing.ProjectID == a.ProjectID && existing.Step == a.Step && existing.SourceRef == ref {
			a.ID = id
			mar.Activities[id] = *a
			mar.UpdatesCalled++
			return nil
		}
	}
	mar.nextID++
	a.ID = mar.nextID
	mar.Activities[a.ID] = *a
	mar.AddsCalled++
	return nil
}

func (mar *MockActivityRepository) DeleteUnwanted(ctx context.Context, logger *logrus.Entry, a *activity.Activity, keepSourceRefs []string) error {
	if mar.Error != nil {
		return mar.Error
	}
	mar.Kept[a.Step] = keepSourceRefs
	keep := map[string]bool{}
	for _, ref := range keepSourceRefs {
		keep[ref] = true
	}
	for id, existing := range mar.Activities {
		if existing.ProjectID == a.ProjectID && existing.Step == a.Step && existing.SourceRef != "" && !keep[existing.SourceRef] {
			delete(mar.Activities, id)
			mar.DeletesCalled++
		}
	}
	return nil
}

func (mar *MockActivityRepository) Stats() map[string]int {
	return map[string]int{"adds": mar.AddsCalled, "deletes": mar.DeletesCalled, "updates": mar.UpdatesCalled}
}
