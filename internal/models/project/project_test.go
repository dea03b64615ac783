package project

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/RedHatInsights/carbon_ledger/internal/apperrors"
	"github.com/RedHatInsights/carbon_ledger/internal/models/base"
	"github.com/RedHatInsights/carbon_ledger/internal/models/testhelper"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

var columns = []string{"id", "created_at", "updated_at", "tenant_id", "standard", "name", "description",
	"reporting_year", "base_year", "status", "boundary", "extra"}
var tenantID = int64(99)

func TestTransitions(t *testing.T) {
	tests := []struct {
		from, to string
		allowed  bool
	}{
		{StatusDraft, StatusInProgress, true},
		{StatusDraft, StatusArchived, true},
		{StatusDraft, StatusCompleted, false},
		{StatusInProgress, StatusDraft, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusArchived, true},
		{StatusCompleted, StatusInProgress, true},
		{StatusCompleted, StatusArchived, true},
		{StatusCompleted, StatusDraft, false},
		{StatusArchived, StatusDraft, true},
		{StatusArchived, StatusInProgress, false},
		{"bogus", StatusDraft, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestEditable(t *testing.T) {
	assert.True(t, (&Project{Status: StatusDraft}).Editable())
	assert.True(t, (&Project{Status: StatusInProgress}).Editable())
	assert.False(t, (&Project{Status: StatusCompleted}).Editable())
	assert.False(t, (&Project{Status: StatusArchived}).Editable())
}

func TestCreate(t *testing.T) {
	gdb, mock, teardown := testhelper.MockDBSetup(t)
	defer teardown()

	pr := NewGORMRepository(gdb)
	insertStr := `INSERT INTO "projects" ("created_at","updated_at","tenant_id","standard","name","description","reporting_year","base_year","status","boundary","extra")`
	mock.ExpectQuery(regexp.QuoteMeta(insertStr)).
		WithArgs(testhelper.AnyTime{}, testhelper.AnyTime{}, tenantID, "defra", "FY24", "", 2024, 2019, StatusDraft, "operational", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))

	p := Project{TenantID: tenantID, Standard: "defra", Name: "FY24", ReportingYear: 2024, BaseYear: 2019, Boundary: "operational"}
	err := pr.Create(context.TODO(), testhelper.TestLogger(), &p)
	assert.Nil(t, err)
	assert.Equal(t, StatusDraft, p.Status)
	assert.Equal(t, 1, pr.Stats()["adds"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateError(t *testing.T) {
	gdb, mock, teardown := testhelper.MockDBSetup(t)
	defer teardown()

	pr := NewGORMRepository(gdb)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "projects"`)).WillReturnError(fmt.Errorf("kaboom"))

	err := pr.Create(context.TODO(), testhelper.TestLogger(), &Project{TenantID: tenantID, Standard: "defra", Name: "FY24"})
	checkErrors(t, err, mock, pr, "Expecting create failure", "kaboom")
}

func TestGetByID(t *testing.T) {
	gdb, mock, teardown := testhelper.MockDBSetup(t)
	defer teardown()

	pr := NewGORMRepository(gdb)
	str := `SELECT * FROM "projects" WHERE "projects"."id" = $1 ORDER BY "projects"."id" LIMIT 1`
	mock.ExpectQuery(regexp.QuoteMeta(str)).
		WithArgs(12).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(12, time.Now(), time.Now(), tenantID, "iscc", "Biodiesel", "plant A", 2024, 2020, StatusInProgress, "", []byte(`{"plant":"A"}`)))

	p, err := pr.GetByID(context.TODO(), testhelper.TestLogger(), 12)
	assert.Nil(t, err)
	assert.Equal(t, "iscc", p.Standard)
	assert.Equal(t, StatusInProgress, p.Status)
	assert.Equal(t, 2024, p.ReportingYear)
	assert.JSONEq(t, `{"plant":"A"}`, string(p.Extra))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	gdb, mock, teardown := testhelper.MockDBSetup(t)
	defer teardown()

	pr := NewGORMRepository(gdb)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "projects"`)).WillReturnError(gorm.ErrRecordNotFound)

	_, err := pr.GetByID(context.TODO(), testhelper.TestLogger(), 12)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestGetByTenantID(t *testing.T) {
	gdb, mock, teardown := testhelper.MockDBSetup(t)
	defer teardown()

	pr := NewGORMRepository(gdb)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "projects" WHERE tenant_id = $1 AND standard = $2 ORDER BY id`)).
		WithArgs(tenantID, "defra").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(1, time.Now(), time.Now(), tenantID, "defra", "FY23", "", 2023, 2019, StatusCompleted, "", []byte(`{}`)).
			AddRow(2, time.Now(), time.Now(), tenantID, "defra", "FY24", "", 2024, 2019, StatusDraft, "", []byte(`{}`)))

	projects, err := pr.GetByTenantID(context.TODO(), testhelper.TestLogger(), tenantID, "defra")
	assert.Nil(t, err)
	assert.Len(t, projects, 2)
	assert.Equal(t, "FY24", projects[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByTenantIDAllStandards(t *testing.T) {
	gdb, mock, teardown := testhelper.MockDBSetup(t)
	defer teardown()

	pr := NewGORMRepository(gdb)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "projects" WHERE tenant_id = $1 ORDER BY id`)).
		WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows(columns))

	projects, err := pr.GetByTenantID(context.TODO(), testhelper.TestLogger(), tenantID, "")
	assert.Nil(t, err)
	assert.Len(t, projects, 0)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate(t *testing.T) {
	gdb, mock, teardown := testhelper.MockDBSetup(t)
	defer teardown()

	pr := NewGORMRepository(gdb)
	mock.ExpectExec("^UPDATE").WillReturnResult(sqlmock.NewResult(0, 1))

	p := Project{Base: base.Base{ID: 12}, TenantID: tenantID, Standard: "defra", Name: "FY24 restated", Status: StatusDraft}
	err := pr.Update(context.TODO(), testhelper.TestLogger(), &p)
	assert.Nil(t, err)
	assert.Equal(t, 1, pr.Stats()["updates"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateError(t *testing.T) {
	gdb, mock, teardown := testhelper.MockDBSetup(t)
	defer teardown()

	pr := NewGORMRepository(gdb)
	mock.ExpectExec("^UPDATE").WillReturnError(fmt.Errorf("kaboom"))

	p := Project{Base: base.Base{ID: 12}, TenantID: tenantID, Standard: "defra", Name: "FY24", Status: StatusDraft}
	err := pr.Update(context.TODO(), testhelper.TestLogger(), &p)
	checkErrors(t, err, mock, pr, "Expecting update failure", "kaboom")
}

func TestUpdateStatus(t *testing.T) {
	gdb, mock, teardown := testhelper.MockDBSetup(t)
	defer teardown()

	pr := NewGORMRepository(gdb)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "projects" SET "status"=$1,"updated_at"=$2 WHERE`)).
		WithArgs(StatusInProgress, testhelper.AnyTime{}, 12).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p := Project{Base: base.Base{ID: 12}, Status: StatusDraft}
	err := pr.UpdateStatus(context.TODO(), testhelper.TestLogger(), &p, StatusInProgress)
	assert.Nil(t, err)
	assert.Equal(t, StatusInProgress, p.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusIllegal(t *testing.T) {
	gdb, mock, teardown := testhelper.MockDBSetup(t)
	defer teardown()

	pr := NewGORMRepository(gdb)
	p := Project{Base: base.Base{ID: 12}, Status: StatusArchived}
	err := pr.UpdateStatus(context.TODO(), testhelper.TestLogger(), &p, StatusCompleted)
	assert.Equal(t, apperrors.BadRequestCode, apperrors.CodeOf(err))
	assert.Equal(t, StatusArchived, p.Status)
	checkErrors(t, err, mock, pr, "Expecting transition failure", "cannot move")

	err = pr.UpdateStatus(context.TODO(), testhelper.TestLogger(), &p, "frozen")
	assert.Equal(t, apperrors.BadRequestCode, apperrors.CodeOf(err))
}

func TestDelete(t *testing.T) {
	gdb, mock, teardown := testhelper.MockDBSetup(t)
	defer teardown()

	pr := NewGORMRepository(gdb)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "projects" WHERE "projects"."id" = $1`)).
		WithArgs(12).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := pr.Delete(context.TODO(), testhelper.TestLogger(), 12)
	assert.Nil(t, err)
	assert.Equal(t, 1, pr.Stats()["deletes"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissing(t *testing.T) {
	gdb, mock, teardown := testhelper.MockDBSetup(t)
	defer teardown()

	pr := NewGORMRepository(gdb)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "projects"`)).WillReturnResult(sqlmock.NewResult(0, 0))

	err := pr.Delete(context.TODO(), testhelper.TestLogger(), 12)
	checkErrors(t, err, mock, pr, "Expecting delete failure", "record not found")
}

func checkErrors(t *testing.T, err error, mock sqlmock.Sqlmock, pr Repository, where string, errMessage string) {
	assert.NotNil(t, err, where)

	if !strings.Contains(err.Error(), errMessage) {
		t.Fatalf("Error message should have contained %s", errMessage)
	}

	assert.NoError(t, mock.ExpectationsWereMet(), "There were unfulfilled expectations for %s", where)
	stats := pr.Stats()
	assert.Equal(t, stats["adds"], 0)
	assert.Equal(t, stats["updates"], 0)
	assert.Equal(t, stats["deletes"], 0)
}
