package main

import (
	"github.com/RedHatInsights/carbon_ledger/internal/models/activity"
	"github.com/RedHatInsights/carbon_ledger/internal/models/calculation"
	"github.com/RedHatInsights/carbon_ledger/internal/models/project"
	"github.com/RedHatInsights/carbon_ledger/internal/models/summary"
	"github.com/RedHatInsights/carbon_ledger/internal/models/tenant"
	"github.com/RedHatInsights/carbon_ledger/internal/models/tenantuser"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ledgerModels lists the tables in dependency order
func ledgerModels() []interface{} {
	return []interface{}{
		&tenant.Tenant{},
		&tenantuser.TenantUser{},
		&project.Project{},
		&activity.Activity{},
		&calculation.Calculation{},
		&summary.ProjectSummary{},
	}
}

func migrate(db *gorm.DB, log *logrus.Entry) error {
	if err := db.AutoMigrate(ledgerModels()...); err != nil {
		log.Errorf("Error migrating database %v", err)
		return err
	}
	log.Info("Database migrated")
	return nil
}
