package ledger

import (
	"context"
	"errors"

	"github.com/RedHatInsights/carbon_ledger/internal/apperrors"
	"github.com/RedHatInsights/carbon_ledger/internal/models/project"
	"github.com/RedHatInsights/carbon_ledger/internal/models/summary"
	"gorm.io/gorm"
)

// GetSummary returns the stored summary of a project, NOT_FOUND until the
// first calculation was written or a recalculation was requested
func (s *Service) GetSummary(ctx context.Context, user string, projectID int64) (*summary.ProjectSummary, error) {
	glog := logOf(ctx)
	st := s.tx.Store()
	p, err := s.loadProject(ctx, glog, st, projectID, user)
	if err != nil {
		return nil, err
	}
	ps, err := st.Summaries.GetByProject(ctx, glog, p.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("summary of project %d not found", p.ID).Wrap(err)
		}
		return nil, apperrors.FromDB(err, "project summary")
	}
	return ps, nil
}

// RecalculateSummary rebuilds the summary of a project from its stored rows
func (s *Service) RecalculateSummary(ctx context.Context, user string, projectID int64) (*summary.ProjectSummary, error) {
	glog := logOf(ctx)
	var ps *summary.ProjectSummary
	err := s.tx.InTx(ctx, func(st *Store) error {
		var p *project.Project
		var err error
		if p, err = s.loadProject(ctx, glog, st, projectID, user); err != nil {
			return err
		}
		ps, err = s.recalculate(ctx, glog, st, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ps, nil
}
