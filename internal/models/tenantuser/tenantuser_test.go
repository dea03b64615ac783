package tenantuser

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/RedHatInsights/carbon_ledger/internal/models/testhelper"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

var columns = []string{"id", "created_at", "updated_at", "tenant_id", "user_id", "role"}
var tenantID = int64(99)

func TestRoles(t *testing.T) {
	assert.True(t, ValidRole(RoleOwner))
	assert.True(t, ValidRole(RoleMember))
	assert.False(t, ValidRole("superuser"))
	assert.True(t, CanManage(RoleAdmin))
	assert.False(t, CanManage(RoleMember))
}

func TestAdd(t *testing.T) {
	gdb, mock, teardown := testhelper.MockDBSetup(t)
	defer teardown()

	tr := NewGORMRepository(gdb)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "tenant_users" ("created_at","updated_at","tenant_id","user_id","role")`)).
		WithArgs(testhelper.AnyTime{}, testhelper.AnyTime{}, tenantID, "jdoe", RoleOwner).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	err := tr.Add(context.TODO(), testhelper.TestLogger(), &TenantUser{TenantID: tenantID, UserID: "jdoe", Role: RoleOwner})
	assert.Nil(t, err)
	assert.Equal(t, 1, tr.Stats()["adds"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddError(t *testing.T) {
	gdb, mock, teardown := testhelper.MockDBSetup(t)
	defer teardown()

	tr := NewGORMRepository(gdb)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "tenant_users"`)).WillReturnError(fmt.Errorf("kaboom"))

	err := tr.Add(context.TODO(), testhelper.TestLogger(), &TenantUser{TenantID: tenantID, UserID: "jdoe", Role: RoleOwner})
	checkErrors(t, err, mock, tr, "Expecting add failure", "kaboom")
}

func TestGet(t *testing.T) {
	gdb, mock, teardown := testhelper.MockDBSetup(t)
	defer teardown()

	tr := NewGORMRepository(gdb)
	str := `SELECT * FROM "tenant_users" WHERE tenant_id = $1 AND user_id = $2 ORDER BY "tenant_users"."id" LIMIT 1`
	mock.ExpectQuery(regexp.QuoteMeta(str)).
		WithArgs(tenantID, "jdoe").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(1, time.Now(), time.Now(), tenantID, "jdoe", RoleAdmin))

	tu, err := tr.Get(context.TODO(), testhelper.TestLogger(), tenantID, "jdoe")
	assert.Nil(t, err)
	assert.Equal(t, RoleAdmin, tu.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetNotMember(t *testing.T) {
	gdb, mock, teardown := testhelper.MockDBSetup(t)
	defer teardown()

	tr := NewGORMRepository(gdb)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "tenant_users"`)).WillReturnRows(sqlmock.NewRows(columns))

	_, err := tr.Get(context.TODO(), testhelper.TestLogger(), tenantID, "mallory")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByUser(t *testing.T) {
	gdb, mock, teardown := testhelper.MockDBSetup(t)
	defer teardown()

	tr := NewGORMRepository(gdb)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "tenant_users" WHERE user_id = $1 ORDER BY tenant_id`)).
		WithArgs("jdoe").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(1, time.Now(), time.Now(), 3, "jdoe", RoleOwner).
			AddRow(2, time.Now(), time.Now(), 4, "jdoe", RoleMember))

	members, err := tr.ListByUser(context.TODO(), testhelper.TestLogger(), "jdoe")
	assert.Nil(t, err)
	assert.Len(t, members, 2)
	assert.Equal(t, int64(4), members[1].TenantID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByTenant(t *testing.T) {
	gdb, mock, teardown := testhelper.MockDBSetup(t)
	defer teardown()

	tr := NewGORMRepository(gdb)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "tenant_users" WHERE tenant_id = $1 ORDER BY id`)).
		WithArgs(tenantID).
		WillReturnError(fmt.Errorf("kaboom"))

	_, err := tr.ListByTenant(context.TODO(), testhelper.TestLogger(), tenantID)
	checkErrors(t, err, mock, tr, "Expecting list failure", "kaboom")
}

func TestRemove(t *testing.T) {
	gdb, mock, teardown := testhelper.MockDBSetup(t)
	defer teardown()

	tr := NewGORMRepository(gdb)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "tenant_users" WHERE tenant_id = $1 AND user_id = $2`)).
		WithArgs(tenantID, "jdoe").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := tr.Remove(context.TODO(), testhelper.TestLogger(), tenantID, "jdoe")
	assert.Nil(t, err)
	assert.Equal(t, 1, tr.Stats()["deletes"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveNotMember(t *testing.T) {
	gdb, mock, teardown := testhelper.MockDBSetup(t)
	defer teardown()

	tr := NewGORMRepository(gdb)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "tenant_users"`)).WillReturnResult(sqlmock.NewResult(0, 0))

	err := tr.Remove(context.TODO(), testhelper.TestLogger(), tenantID, "jdoe")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	checkErrors(t, err, mock, tr, "Expecting remove failure", "record not found")
}

func checkErrors(t *testing.T, err error, mock sqlmock.Sqlmock, tr Repository, where string, errMessage string) {
	assert.NotNil(t, err, where)

	if !strings.Contains(err.Error(), errMessage) {
		t.Fatalf("Error message should have contained %s", errMessage)
	}

	assert.NoError(t, mock.ExpectationsWereMet(), "There were unfulfilled expectations for %s", where)
	stats := tr.Stats()
	assert.Equal(t, stats["adds"], 0)
	assert.Equal(t, stats["updates"], 0)
	assert.Equal(t, stats["deletes"], 0)
}
