package lifecycle

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"atrium/internal/audit"
	"atrium/internal/fault"
	"atrium/internal/models"
)

// guardUserTarget — общие защитные инварианты delete/ban пользователя.
// Порядок фиксирован: SelfAction → LastSuperadmin → SuperadminProtection
// (более специфичная причина раньше общей).
func (e *Engine) guardUserTarget(ctx context.Context, tx *gorm.DB, actorID uint, target *models.User) error {
	if actorID == target.ID {
		return fault.New(fault.SelfAction, "actor may not target their own account")
	}
	if target.Superadmin() {
		n, err := e.resolver.WithTx(tx).CountActiveSuperadmins(ctx)
		if err != nil {
			return err
		}
		if n <= 1 {
			return fault.New(fault.LastSuperadmin, "user %d is the only active superadmin", target.ID)
		}
		return fault.New(fault.SuperadminProtection, "superadmin accounts cannot be deleted or banned")
	}
	return nil
}

// DeleteUser — мягкое удаление аккаунта; каскадов нет, только таймстампы.
func (e *Engine) DeleteUser(ctx context.Context, actorID, userID uint) error {
	var before, after map[string]any
	err := e.tx(ctx, func(tx *gorm.DB) error {
		u, err := getUser(tx, userID)
		if err != nil {
			return err
		}
		if u.PendingDeletion() {
			return fault.New(fault.AlreadyPendingDeletion, "user %d is already pending deletion", userID)
		}
		if err := e.guardUserTarget(ctx, tx, actorID, u); err != nil {
			return err
		}

		before = audit.UserLifecycle(u)
		now := time.Now().UTC()
		sched := now.Add(e.grace)
		u.DeletedAt = &now
		u.DeleteScheduledFor = &sched
		u.UpdatedAt = now
		if err := tx.Save(u).Error; err != nil {
			return fault.Wrap(err, "soft delete user")
		}
		after = audit.UserLifecycle(u)
		return nil
	})
	if err != nil {
		return err
	}

	e.audit.Emit(ctx, audit.Record{
		ActorID:    actorID,
		Action:     "user.deleted",
		Resource:   "user",
		ResourceID: fmt.Sprint(userID),
		Before:     before,
		After:      after,
	})
	return nil
}

func (e *Engine) RestoreUser(ctx context.Context, actorID, userID uint) error {
	var before, after map[string]any
	err := e.tx(ctx, func(tx *gorm.DB) error {
		u, err := getUser(tx, userID)
		if err != nil {
			return err
		}
		if !u.PendingDeletion() {
			return fault.New(fault.NotPendingDeletion, "user %d is not pending deletion", userID)
		}
		before = audit.UserLifecycle(u)
		u.DeletedAt = nil
		u.DeleteScheduledFor = nil
		u.UpdatedAt = time.Now().UTC()
		if err := tx.Model(u).Select("deleted_at", "delete_scheduled_for", "updated_at").Updates(u).Error; err != nil {
			return fault.Wrap(err, "restore user")
		}
		after = audit.UserLifecycle(u)
		return nil
	})
	if err != nil {
		return err
	}

	e.audit.Emit(ctx, audit.Record{
		ActorID:    actorID,
		Action:     "user.restored",
		Resource:   "user",
		ResourceID: fmt.Sprint(userID),
		Before:     before,
		After:      after,
	})
	return nil
}

// BanUser — параллельный, более простой переключатель состояния;
// таймстампы удаления не трогает, но делит self-action/superadmin гарды.
func (e *Engine) BanUser(ctx context.Context, actorID, userID uint, reason string, expires *time.Time) error {
	var before, after map[string]any
	err := e.tx(ctx, func(tx *gorm.DB) error {
		u, err := getUser(tx, userID)
		if err != nil {
			return err
		}
		if err := e.guardUserTarget(ctx, tx, actorID, u); err != nil {
			return err
		}

		before = audit.UserBan(u)
		u.Banned = true
		u.BanReason = reason
		u.BanExpires = expires
		u.UpdatedAt = time.Now().UTC()
		if err := tx.Save(u).Error; err != nil {
			return fault.Wrap(err, "ban user")
		}
		after = audit.UserBan(u)
		return nil
	})
	if err != nil {
		return err
	}

	e.audit.Emit(ctx, audit.Record{
		ActorID:    actorID,
		Action:     "user.banned",
		Resource:   "user",
		ResourceID: fmt.Sprint(userID),
		Before:     before,
		After:      after,
	})
	return nil
}

func (e *Engine) UnbanUser(ctx context.Context, actorID, userID uint) error {
	var before, after map[string]any
	err := e.tx(ctx, func(tx *gorm.DB) error {
		u, err := getUser(tx, userID)
		if err != nil {
			return err
		}
		before = audit.UserBan(u)
		u.Banned = false
		u.BanReason = ""
		u.BanExpires = nil
		u.UpdatedAt = time.Now().UTC()
		if err := tx.Model(u).Select("banned", "ban_reason", "ban_expires", "updated_at").Updates(u).Error; err != nil {
			return fault.Wrap(err, "unban user")
		}
		after = audit.UserBan(u)
		return nil
	})
	if err != nil {
		return err
	}

	e.audit.Emit(ctx, audit.Record{
		ActorID:    actorID,
		Action:     "user.unbanned",
		Resource:   "user",
		ResourceID: fmt.Sprint(userID),
		Before:     before,
		After:      after,
	})
	return nil
}
