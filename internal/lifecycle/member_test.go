package lifecycle

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atrium/internal/fault"
	"atrium/internal/models"
	"atrium/internal/rbac"
)

func (f *fixture) mkMember(t *testing.T, userID, orgID uint, slug string) *models.Member {
	t.Helper()
	rid := f.roleID(t, orgID, slug)
	m := &models.Member{UserID: userID, OrganizationID: orgID, Role: slug, RoleID: &rid}
	require.NoError(t, f.db.Create(m).Error)
	return m
}

func (f *fixture) memberByID(t *testing.T, id uint) *models.Member {
	t.Helper()
	var m models.Member
	require.NoError(t, f.db.First(&m, id).Error)
	return &m
}

func TestChangeMemberRoleLastOwner(t *testing.T) {
	f := newFixture(t)
	u1 := f.mkUser(t, "u1@acme.io", models.PlatformRoleUser)
	org := f.mkOrg(t, u1.ID, "acme")
	u2 := f.mkUser(t, "u2@acme.io", models.PlatformRoleUser)
	m2 := f.mkMember(t, u2.ID, org.ID, rbac.RoleAdmin)
	ctx := context.Background()

	var m1 models.Member
	require.NoError(t, f.db.Where("organization_id = ? AND user_id = ?", org.ID, u1.ID).First(&m1).Error)
	adminID := f.roleID(t, org.ID, rbac.RoleAdmin)
	ownerID := f.roleID(t, org.ID, rbac.RoleOwner)

	// единственный активный владелец — демоция запрещена
	_, err := f.engine.ChangeMemberRole(ctx, u1.ID, org.ID, m1.ID, adminID)
	assert.Equal(t, fault.LastOwnerConstraint, fault.KindOf(err))

	// поднимаем второго владельца, после чего демоция проходит
	_, err = f.engine.ChangeMemberRole(ctx, u1.ID, org.ID, m2.ID, ownerID)
	require.NoError(t, err)
	got, err := f.engine.ChangeMemberRole(ctx, u1.ID, org.ID, m1.ID, adminID)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleAdmin, got.Role)
	require.NotNil(t, got.RoleID)
	assert.Equal(t, adminID, *got.RoleID)

	rec := f.lastAudit(t, "member.role_changed")
	var before, after map[string]any
	require.NoError(t, json.Unmarshal(rec.Before, &before))
	require.NoError(t, json.Unmarshal(rec.After, &after))
	assert.Equal(t, "owner", before["role"])
	assert.Equal(t, "admin", after["role"])
}

func TestChangeMemberRoleInactiveOwner(t *testing.T) {
	f := newFixture(t)
	u1 := f.mkUser(t, "u1@acme.io", models.PlatformRoleUser)
	org := f.mkOrg(t, u1.ID, "acme")
	ctx := context.Background()

	// забаненный владелец не активен, его демоция счётчик не меняет
	require.NoError(t, f.db.Model(u1).Update("banned", true).Error)

	var m1 models.Member
	require.NoError(t, f.db.Where("organization_id = ? AND user_id = ?", org.ID, u1.ID).First(&m1).Error)
	adminID := f.roleID(t, org.ID, rbac.RoleAdmin)

	_, err := f.engine.ChangeMemberRole(ctx, u1.ID, org.ID, m1.ID, adminID)
	require.NoError(t, err)
}

func TestChangeMemberRoleNoop(t *testing.T) {
	f := newFixture(t)
	u1 := f.mkUser(t, "u1@acme.io", models.PlatformRoleUser)
	org := f.mkOrg(t, u1.ID, "acme")
	ctx := context.Background()

	var m1 models.Member
	require.NoError(t, f.db.Where("organization_id = ? AND user_id = ?", org.ID, u1.ID).First(&m1).Error)
	ownerID := f.roleID(t, org.ID, rbac.RoleOwner)

	// та же роль: без ошибки даже для последнего владельца
	got, err := f.engine.ChangeMemberRole(ctx, u1.ID, org.ID, m1.ID, ownerID)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleOwner, got.Role)
}

func TestChangeMemberRoleScoping(t *testing.T) {
	f := newFixture(t)
	u1 := f.mkUser(t, "u1@acme.io", models.PlatformRoleUser)
	org := f.mkOrg(t, u1.ID, "acme")
	other := f.mkOrg(t, u1.ID, "other")
	ctx := context.Background()

	var m1 models.Member
	require.NoError(t, f.db.Where("organization_id = ? AND user_id = ?", org.ID, u1.ID).First(&m1).Error)

	// роль чужого тенанта недоступна
	foreign := f.roleID(t, other.ID, rbac.RoleAdmin)
	_, err := f.engine.ChangeMemberRole(ctx, u1.ID, org.ID, m1.ID, foreign)
	assert.Equal(t, fault.NotFound, fault.KindOf(err))

	// членство чужого тенанта тоже
	var m2 models.Member
	require.NoError(t, f.db.Where("organization_id = ? AND user_id = ?", other.ID, u1.ID).First(&m2).Error)
	adminID := f.roleID(t, org.ID, rbac.RoleAdmin)
	_, err = f.engine.ChangeMemberRole(ctx, u1.ID, org.ID, m2.ID, adminID)
	assert.Equal(t, fault.NotFound, fault.KindOf(err))
}

func TestRemoveMember(t *testing.T) {
	f := newFixture(t)
	u1 := f.mkUser(t, "u1@acme.io", models.PlatformRoleUser)
	org := f.mkOrg(t, u1.ID, "acme")
	u2 := f.mkUser(t, "u2@acme.io", models.PlatformRoleUser)
	m2 := f.mkMember(t, u2.ID, org.ID, rbac.RoleMember)
	ctx := context.Background()

	var m1 models.Member
	require.NoError(t, f.db.Where("organization_id = ? AND user_id = ?", org.ID, u1.ID).First(&m1).Error)

	// последнего активного владельца убрать нельзя
	err := f.engine.RemoveMember(ctx, u2.ID, org.ID, m1.ID)
	assert.Equal(t, fault.LastOwnerConstraint, fault.KindOf(err))

	require.NoError(t, f.engine.RemoveMember(ctx, u1.ID, org.ID, m2.ID))
	var n int64
	require.NoError(t, f.db.Model(&models.Member{}).Where("id = ?", m2.ID).Count(&n).Error)
	assert.Zero(t, n)

	assert.EqualValues(t, 1, f.auditCount(t, "member.removed"))
}
