package summary

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/RedHatInsights/carbon_ledger/internal/models/testhelper"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

var columns = []string{"id", "created_at", "updated_at", "project_id", "scope1", "scope2", "scope3", "unscoped",
	"total", "category_totals", "gas_totals", "step_totals", "extra", "calculation_count", "calculated_at"}
var projectID = int64(12)

func TestUpsert(t *testing.T) {
	gdb, mock, teardown := testhelper.MockDBSetup(t)
	defer teardown()

	sr := NewGORMRepository(gdb)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "project_summaries"`) + `.*` + `ON CONFLICT`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	s := ProjectSummary{ProjectID: projectID, Scope1: 10, Scope2: 5, Total: 15, CalculationCount: 2,
		CategoryTotals: []byte(`{"energy":10,"electricity":5}`), GasTotals: []byte(`{"CO2":15}`),
		StepTotals: []byte(`{"fuels":10,"electricity":5}`), CalculatedAt: time.Now()}
	err := sr.Upsert(context.TODO(), testhelper.TestLogger(), &s)
	assert.Nil(t, err)
	assert.Equal(t, 1, sr.Stats()["updates"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertError(t *testing.T) {
	gdb, mock, teardown := testhelper.MockDBSetup(t)
	defer teardown()

	sr := NewGORMRepository(gdb)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "project_summaries"`)).WillReturnError(fmt.Errorf("kaboom"))

	err := sr.Upsert(context.TODO(), testhelper.TestLogger(), &ProjectSummary{ProjectID: projectID})
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "kaboom")
	assert.Equal(t, 0, sr.Stats()["updates"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByProject(t *testing.T) {
	gdb, mock, teardown := testhelper.MockDBSetup(t)
	defer teardown()

	sr := NewGORMRepository(gdb)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "project_summaries" WHERE project_id = $1 ORDER BY "project_summaries"."id" LIMIT 1`)).
		WithArgs(projectID).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(3, time.Now(), time.Now(), projectID, 10.0, 5.0, 0.0, 0.0, 15.0,
				[]byte(`{"energy":10}`), []byte(`{"CO2":15}`), []byte(`{"fuels":10}`), []byte(`{}`), 2, time.Now()))

	s, err := sr.GetByProject(context.TODO(), testhelper.TestLogger(), projectID)
	assert.Nil(t, err)
	assert.Equal(t, 15.0, s.Total)
	assert.Equal(t, 2, s.CalculationCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByProjectMissing(t *testing.T) {
	gdb, mock, teardown := testhelper.MockDBSetup(t)
	defer teardown()

	sr := NewGORMRepository(gdb)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "project_summaries"`)).WillReturnRows(sqlmock.NewRows(columns))

	_, err := sr.GetByProject(context.TODO(), testhelper.TestLogger(), projectID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
