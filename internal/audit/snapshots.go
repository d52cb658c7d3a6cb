package audit

import "atrium/internal/models"

// Снапшоты для before/after: только поля жизненного цикла.

func OrgLifecycle(o *models.Organization) map[string]any {
	return map[string]any{
		"deleted_at":           o.DeletedAt,
		"delete_scheduled_for": o.DeleteScheduledFor,
	}
}

func UserLifecycle(u *models.User) map[string]any {
	return map[string]any{
		"deleted_at":           u.DeletedAt,
		"delete_scheduled_for": u.DeleteScheduledFor,
	}
}

func UserBan(u *models.User) map[string]any {
	return map[string]any{
		"banned":      u.Banned,
		"ban_reason":  u.BanReason,
		"ban_expires": u.BanExpires,
	}
}

func MemberRole(roleSlug string) map[string]any {
	return map[string]any{"role": roleSlug}
}
