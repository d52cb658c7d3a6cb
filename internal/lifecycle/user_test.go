package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atrium/internal/fault"
	"atrium/internal/models"
)

func TestDeleteUserSelfAction(t *testing.T) {
	f := newFixture(t)
	u := f.mkUser(t, "solo@acme.io", models.PlatformRoleUser)

	err := f.engine.DeleteUser(context.Background(), u.ID, u.ID)
	assert.Equal(t, fault.SelfAction, fault.KindOf(err))
	assert.EqualValues(t, 0, f.auditCount(t, "user.deleted"))
}

func TestDeleteUserSuperadminProtection(t *testing.T) {
	f := newFixture(t)
	actor := f.mkUser(t, "actor@platform.io", models.PlatformRoleSuperadmin)
	ctx := context.Background()

	target := f.mkUser(t, "root@platform.io", models.PlatformRoleSuperadmin)

	// два активных суперадмина: цель не последняя, срабатывает общая защита
	err := f.engine.DeleteUser(ctx, actor.ID, target.ID)
	assert.Equal(t, fault.SuperadminProtection, fault.KindOf(err))

	err = f.engine.BanUser(ctx, actor.ID, target.ID, "test", nil)
	assert.Equal(t, fault.SuperadminProtection, fault.KindOf(err))
}

func TestDeleteUserLastSuperadmin(t *testing.T) {
	f := newFixture(t)
	actor := f.mkUser(t, "mortal@acme.io", models.PlatformRoleUser)
	target := f.mkUser(t, "root@platform.io", models.PlatformRoleSuperadmin)
	ctx := context.Background()

	// единственный активный суперадмин — более специфичная причина
	err := f.engine.DeleteUser(ctx, actor.ID, target.ID)
	assert.Equal(t, fault.LastSuperadmin, fault.KindOf(err))

	err = f.engine.BanUser(ctx, actor.ID, target.ID, "test", nil)
	assert.Equal(t, fault.LastSuperadmin, fault.KindOf(err))
}

func TestDeleteRestoreUserRoundtrip(t *testing.T) {
	f := newFixture(t)
	actor := f.mkUser(t, "admin@acme.io", models.PlatformRoleUser)
	target := f.mkUser(t, "victim@acme.io", models.PlatformRoleUser)
	ctx := context.Background()

	require.NoError(t, f.engine.DeleteUser(ctx, actor.ID, target.ID))

	mid, err := f.users.GetByID(ctx, target.ID)
	require.NoError(t, err)
	require.NotNil(t, mid.DeletedAt)
	require.NotNil(t, mid.DeleteScheduledFor)
	assert.WithinDuration(t, mid.DeletedAt.Add(30*24*time.Hour), *mid.DeleteScheduledFor, time.Second)

	// повторное удаление — ошибка состояния
	err = f.engine.DeleteUser(ctx, actor.ID, target.ID)
	assert.Equal(t, fault.AlreadyPendingDeletion, fault.KindOf(err))

	require.NoError(t, f.engine.RestoreUser(ctx, actor.ID, target.ID))
	post, err := f.users.GetByID(ctx, target.ID)
	require.NoError(t, err)
	assert.Nil(t, post.DeletedAt)
	assert.Nil(t, post.DeleteScheduledFor)

	// restore активного — ошибка
	err = f.engine.RestoreUser(ctx, actor.ID, target.ID)
	assert.Equal(t, fault.NotPendingDeletion, fault.KindOf(err))

	assert.EqualValues(t, 1, f.auditCount(t, "user.deleted"))
	assert.EqualValues(t, 1, f.auditCount(t, "user.restored"))
}

func TestBanUnbanUser(t *testing.T) {
	f := newFixture(t)
	actor := f.mkUser(t, "admin@acme.io", models.PlatformRoleUser)
	target := f.mkUser(t, "spammer@acme.io", models.PlatformRoleUser)
	ctx := context.Background()

	exp := time.Now().UTC().Add(24 * time.Hour)
	require.NoError(t, f.engine.BanUser(ctx, actor.ID, target.ID, "spam", &exp))

	got, err := f.users.GetByID(ctx, target.ID)
	require.NoError(t, err)
	assert.True(t, got.Banned)
	assert.Equal(t, "spam", got.BanReason)
	require.NotNil(t, got.BanExpires)
	assert.False(t, got.Active(time.Now().UTC()))
	// после истечения срока бан не действует
	assert.True(t, got.Active(exp.Add(time.Minute)))

	require.NoError(t, f.engine.UnbanUser(ctx, actor.ID, target.ID))
	got, err = f.users.GetByID(ctx, target.ID)
	require.NoError(t, err)
	assert.False(t, got.Banned)
	assert.Empty(t, got.BanReason)
	assert.Nil(t, got.BanExpires)

	assert.EqualValues(t, 1, f.auditCount(t, "user.banned"))
	assert.EqualValues(t, 1, f.auditCount(t, "user.unbanned"))
}
