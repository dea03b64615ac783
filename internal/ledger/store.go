package ledger

import (
	"context"

	"github.com/RedHatInsights/carbon_ledger/internal/models/activity"
	"github.com/RedHatInsights/carbon_ledger/internal/models/calculation"
	"github.com/RedHatInsights/carbon_ledger/internal/models/project"
	"github.com/RedHatInsights/carbon_ledger/internal/models/summary"
	"github.com/RedHatInsights/carbon_ledger/internal/models/tenant"
	"github.com/RedHatInsights/carbon_ledger/internal/models/tenantuser"
	"gorm.io/gorm"
)

// Store groups the repositories bound to one database handle
type Store struct {
	Tenants      tenant.Repository
	Members      tenantuser.Repository
	Projects     project.Repository
	Activities   activity.Repository
	Calculations calculation.Repository
	Summaries    summary.Repository
}

// NewGORMStore binds all repositories to db
func NewGORMStore(db *gorm.DB) *Store {
	return &Store{
		Tenants:      tenant.NewGORMRepository(db),
		Members:      tenantuser.NewGORMRepository(db),
		Projects:     project.NewGORMRepository(db),
		Activities:   activity.NewGORMRepository(db),
		Calculations: calculation.NewGORMRepository(db),
		Summaries:    summary.NewGORMRepository(db),
	}
}

// Stats returns the add/update/delete counters of every repository
func (st *Store) Stats() map[string]interface{} {
	return map[string]interface{}{
		"tenants":      st.Tenants.Stats(),
		"members":      st.Members.Stats(),
		"projects":     st.Projects.Stats(),
		"activities":   st.Activities.Stats(),
		"calculations": st.Calculations.Stats(),
		"summaries":    st.Summaries.Stats(),
	}
}

// Transactor hands out stores, InTx runs fn on a store bound to a
// transaction that is rolled back when fn returns an error
type Transactor interface {
	Store() *Store
	InTx(ctx context.Context, fn func(st *Store) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

// NewGORMTransactor creates a transactor over db
func NewGORMTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

func (gt *gormTransactor) Store() *Store {
	return NewGORMStore(gt.db)
}

func (gt *gormTransactor) InTx(ctx context.Context, fn func(st *Store) error) error {
	return gt.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGORMStore(tx))
	})
}

type staticTransactor struct {
	st *Store
}

// NewStaticTransactor runs every transaction on the same store without
// rollback, it is used with in-memory repositories
func NewStaticTransactor(st *Store) Transactor {
	return &staticTransactor{st: st}
}

func (s *staticTransactor) Store() *Store {
	return s.st
}

func (s *staticTransactor) InTx(ctx context.Context, fn func(st *Store) error) error {
	return fn(s.st)
}
