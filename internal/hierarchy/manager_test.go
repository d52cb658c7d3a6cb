package hierarchy

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"atrium/internal/fault"
	"atrium/internal/models"
	"atrium/internal/repo"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Organization{}))
	return db
}

func mkOrg(t *testing.T, db *gorm.DB, slug string, parent *uint) *models.Organization {
	t.Helper()
	o := &models.Organization{Name: slug, Slug: slug, ParentOrganizationID: parent}
	require.NoError(t, db.Create(o).Error)
	return o
}

func TestValidateParentAssignmentSelf(t *testing.T) {
	db := openTestDB(t)
	m := New(repo.NewOrgStore(db), 5)
	a := mkOrg(t, db, "a", nil)

	err := m.ValidateParentAssignment(context.Background(), a.ID, a.ID)
	assert.Equal(t, fault.CycleDetected, fault.KindOf(err))
}

func TestValidateParentAssignmentCycle(t *testing.T) {
	db := openTestDB(t)
	m := New(repo.NewOrgStore(db), 5)
	a := mkOrg(t, db, "a", nil)
	b := mkOrg(t, db, "b", &a.ID)
	c := mkOrg(t, db, "c", &b.ID)

	// перенос a под своего потомка c — цикл
	err := m.ValidateParentAssignment(context.Background(), a.ID, c.ID)
	assert.Equal(t, fault.CycleDetected, fault.KindOf(err))

	// перенос c под a — допустимо
	assert.NoError(t, m.ValidateParentAssignment(context.Background(), c.ID, a.ID))
}

func TestValidateParentAssignmentDepth(t *testing.T) {
	db := openTestDB(t)
	m := New(repo.NewOrgStore(db), 3)
	a := mkOrg(t, db, "a", nil)
	b := mkOrg(t, db, "b", &a.ID)
	c := mkOrg(t, db, "c", &b.ID)
	d := mkOrg(t, db, "d", nil)

	// d под c — глубина 4 при максимуме 3
	err := m.ValidateParentAssignment(context.Background(), d.ID, c.ID)
	assert.Equal(t, fault.DepthExceeded, fault.KindOf(err))

	// d под b — глубина 3, ок
	assert.NoError(t, m.ValidateParentAssignment(context.Background(), d.ID, b.ID))
}

func TestValidateParentAssignmentMissingParent(t *testing.T) {
	db := openTestDB(t)
	m := New(repo.NewOrgStore(db), 5)
	a := mkOrg(t, db, "a", nil)

	err := m.ValidateParentAssignment(context.Background(), a.ID, 777)
	assert.Equal(t, fault.NotFound, fault.KindOf(err))
}

func TestListDescendants(t *testing.T) {
	db := openTestDB(t)
	m := New(repo.NewOrgStore(db), 5)
	a := mkOrg(t, db, "a", nil)
	b := mkOrg(t, db, "b", &a.ID)
	c := mkOrg(t, db, "c", &a.ID)
	d := mkOrg(t, db, "d", &b.ID)
	_ = mkOrg(t, db, "e", nil) // чужой корень

	got, err := m.ListDescendants(context.Background(), a.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{b.ID, c.ID, d.ID}, got)
	assert.NotContains(t, got, a.ID)
}

func TestListDescendantsSurvivesCorruptedCycle(t *testing.T) {
	db := openTestDB(t)
	m := New(repo.NewOrgStore(db), 5)
	a := mkOrg(t, db, "a", nil)
	b := mkOrg(t, db, "b", &a.ID)

	// портим граф в обход валидации: a ← b ← a
	require.NoError(t, db.Model(&models.Organization{}).
		Where("id = ?", a.ID).Update("parent_organization_id", b.ID).Error)

	got, err := m.ListDescendants(context.Background(), a.ID)
	require.NoError(t, err) // главное — обход завершился
	assert.ElementsMatch(t, []uint{b.ID}, got)
}
