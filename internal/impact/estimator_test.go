package impact

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"atrium/internal/fault"
	"atrium/internal/hierarchy"
	"atrium/internal/models"
	"atrium/internal/rbac"
	"atrium/internal/repo"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Organization{}, &models.User{}, &models.Member{},
		&models.Invitation{},
	))
	return db
}

func mkOrg(t *testing.T, db *gorm.DB, slug string, parent *uint) *models.Organization {
	t.Helper()
	o := &models.Organization{Name: slug, Slug: slug, ParentOrganizationID: parent}
	require.NoError(t, db.Create(o).Error)
	return o
}

func mkMember(t *testing.T, db *gorm.DB, orgID uint, email string, banned bool) {
	t.Helper()
	u := &models.User{Name: email, Email: email, Role: models.PlatformRoleUser, Banned: banned}
	require.NoError(t, db.Create(u).Error)
	require.NoError(t, db.Create(&models.Member{UserID: u.ID, OrganizationID: orgID, Role: rbac.RoleMember}).Error)
}

func TestEstimateOrgDeletionImpact(t *testing.T) {
	db := openTestDB(t)
	orgs := repo.NewOrgStore(db)
	est := NewEstimator(db, orgs, hierarchy.New(orgs, 5))

	root := mkOrg(t, db, "root-org", nil)
	child := mkOrg(t, db, "child-org", &root.ID)
	grand := mkOrg(t, db, "grand-org", &child.ID)
	_ = mkOrg(t, db, "stranger", nil)

	mkMember(t, db, root.ID, "a@acme.io", false)
	mkMember(t, db, root.ID, "b@acme.io", true) // забанен: в active не входит
	mkMember(t, db, child.ID, "c@acme.io", false)
	mkMember(t, db, grand.ID, "d@acme.io", false)

	require.NoError(t, db.Create(&models.Invitation{
		OrganizationID: root.ID, Email: "new@acme.io", Role: rbac.RoleMember,
		Status: models.InvitationPending, TokenID: "tok-1", SecretHash: []byte{1},
	}).Error)
	require.NoError(t, db.Create(&models.Invitation{
		OrganizationID: root.ID, Email: "old@acme.io", Role: rbac.RoleMember,
		Status: models.InvitationRevoked, TokenID: "tok-2", SecretHash: []byte{2},
	}).Error)

	got, err := est.EstimateOrgDeletionImpact(context.Background(), root.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.MemberCount)
	assert.Equal(t, 1, got.ActiveMembers)
	assert.Equal(t, 1, got.ChildOrgCount)      // только прямые дети
	assert.Equal(t, 2, got.ChildMemberCount)   // участники по всем потомкам
	assert.Equal(t, 1, got.PendingInvitations) // revoked не считается
}

func TestEstimateEmptyOrg(t *testing.T) {
	db := openTestDB(t)
	orgs := repo.NewOrgStore(db)
	est := NewEstimator(db, orgs, hierarchy.New(orgs, 5))
	org := mkOrg(t, db, "empty", nil)

	got, err := est.EstimateOrgDeletionImpact(context.Background(), org.ID)
	require.NoError(t, err)
	assert.Equal(t, &Impact{}, got)
}

func TestEstimateMissingOrg(t *testing.T) {
	db := openTestDB(t)
	orgs := repo.NewOrgStore(db)
	est := NewEstimator(db, orgs, hierarchy.New(orgs, 5))

	_, err := est.EstimateOrgDeletionImpact(context.Background(), 404)
	assert.Equal(t, fault.NotFound, fault.KindOf(err))
}
