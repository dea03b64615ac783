package ledger

import (
	"context"
	"encoding/json"

	"github.com/RedHatInsights/carbon_ledger/internal/apperrors"
	"github.com/RedHatInsights/carbon_ledger/internal/models/activity"
	"github.com/RedHatInsights/carbon_ledger/internal/models/project"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// ListEntries returns the entries of one step of a project
func (s *Service) ListEntries(ctx context.Context, user string, projectID int64, step string) ([]activity.Activity, error) {
	glog := logOf(ctx)
	st := s.tx.Store()
	p, err := s.loadProject(ctx, glog, st, projectID, user)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.stepOf(p, step); err != nil {
		return nil, err
	}
	entries, err := st.Activities.ListByProject(ctx, glog, p.ID, step)
	if err != nil {
		return nil, apperrors.FromDB(err, "entries")
	}
	return entries, nil
}

// GetEntry returns one entry of a step
func (s *Service) GetEntry(ctx context.Context, user string, projectID int64, step string, entryID int64) (*activity.Activity, error) {
	glog := logOf(ctx)
	st := s.tx.Store()
	p, err := s.loadProject(ctx, glog, st, projectID, user)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.stepOf(p, step); err != nil {
		return nil, err
	}
	return s.loadEntry(ctx, glog, st, p, step, entryID)
}

func (s *Service) loadEntry(ctx context.Context, glog *logrus.Entry, st *Store, p *project.Project, step string, entryID int64) (*activity.Activity, error) {
	a, err := st.Activities.GetByID(ctx, glog, entryID)
	if err != nil {
		return nil, apperrors.FromDB(err, "entry")
	}
	if a.ProjectID != p.ID || a.Step != step {
		return nil, apperrors.NotFound("entry not found")
	}
	return a, nil
}

// CreateEntry validates data against the field table of the step and stores it
func (s *Service) CreateEntry(ctx context.Context, user string, projectID int64, step string, data map[string]interface{}) (*activity.Activity, error) {
	glog := logOf(ctx)
	st := s.tx.Store()
	p, err := s.loadProject(ctx, glog, st, projectID, user)
	if err != nil {
		return nil, err
	}
	_, stp, err := s.stepOf(p, step)
	if err != nil {
		return nil, err
	}
	if err := requireEditable(p); err != nil {
		return nil, err
	}
	if err := stp.Validate(data); err != nil {
		return nil, err
	}
	a := &activity.Activity{ProjectID: p.ID, Step: step}
	if a.Data, err = encodeEntry(data); err != nil {
		return nil, err
	}
	if err := st.Activities.Create(ctx, glog, a); err != nil {
		return nil, apperrors.FromDB(err, "entry")
	}
	return a, nil
}

// UpdateEntry replaces the data of an entry. The calculator rows of the
// entry were computed from the old data, they are dropped and the summary
// recalculated in the same transaction. Calculate brings them back.
func (s *Service) UpdateEntry(ctx context.Context, user string, projectID int64, step string, entryID int64, data map[string]interface{}) (*activity.Activity, error) {
	glog := logOf(ctx)
	var a *activity.Activity
	err := s.tx.InTx(ctx, func(st *Store) error {
		p, err := s.loadProject(ctx, glog, st, projectID, user)
		if err != nil {
			return err
		}
		_, stp, err := s.stepOf(p, step)
		if err != nil {
			return err
		}
		if err := requireEditable(p); err != nil {
			return err
		}
		if err := stp.Validate(data); err != nil {
			return err
		}
		if a, err = s.loadEntry(ctx, glog, st, p, step, entryID); err != nil {
			return err
		}
		if a.Data, err = encodeEntry(data); err != nil {
			return err
		}
		if err := st.Activities.Update(ctx, glog, a); err != nil {
			return apperrors.FromDB(err, "entry")
		}
		if err := st.Calculations.ReplaceForActivity(ctx, glog, a.ID, nil); err != nil {
			return apperrors.FromDB(err, "calculations")
		}
		_, err = s.recalculate(ctx, glog, st, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// DeleteEntry removes an entry with its calculations and recalculates the
// project summary in the same transaction
func (s *Service) DeleteEntry(ctx context.Context, user string, projectID int64, step string, entryID int64) error {
	glog := logOf(ctx)
	return s.tx.InTx(ctx, func(st *Store) error {
		p, err := s.loadProject(ctx, glog, st, projectID, user)
		if err != nil {
			return err
		}
		if _, _, err := s.stepOf(p, step); err != nil {
			return err
		}
		if err := requireEditable(p); err != nil {
			return err
		}
		a, err := s.loadEntry(ctx, glog, st, p, step, entryID)
		if err != nil {
			return err
		}
		if err := st.Calculations.ReplaceForActivity(ctx, glog, a.ID, nil); err != nil {
			return apperrors.FromDB(err, "calculations")
		}
		if err := st.Activities.Delete(ctx, glog, a.ID); err != nil {
			return apperrors.FromDB(err, "entry")
		}
		_, err = s.recalculate(ctx, glog, st, p)
		return err
	})
}

func encodeEntry(data map[string]interface{}) (datatypes.JSON, error) {
	if data == nil {
		data = map[string]interface{}{}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, apperrors.BadRequest("invalid entry: %v", err)
	}
	return datatypes.JSON(b), nil
}
