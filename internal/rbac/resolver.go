package rbac

import (
	"context"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"atrium/internal/fault"
	"atrium/internal/models"
)

// Resolver материализует привязки роль → права и считает агрегаты
// для защитных инвариантов. Только чтение, никаких побочных эффектов.
type Resolver struct{ db *gorm.DB }

func NewResolver(db *gorm.DB) *Resolver { return &Resolver{db: db} }

// WithTx — копия резолвера поверх открытой транзакции: инвариантные
// подсчёты должны видеть то же состояние, что и мутация.
func (r *Resolver) WithTx(tx *gorm.DB) *Resolver { return &Resolver{db: tx} }

// ResolveEffectivePermissions — объединение прав роли участника.
// Авторитетен RoleID; участник без RoleID прав не имеет
// (легаси-лейбл Role — только для отображения).
func (r *Resolver) ResolveEffectivePermissions(ctx context.Context, tenantID, memberID uint) ([]string, error) {
	var m models.Member
	err := r.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", memberID, tenantID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fault.New(fault.NotFound, "member %d not found in tenant %d", memberID, tenantID)
		}
		return nil, fault.Wrap(err, "load member")
	}
	if m.RoleID == nil {
		return []string{}, nil
	}

	var perms []models.Permission
	err = r.db.WithContext(ctx).
		Joins("JOIN role_permissions rp ON rp.permission_id = permissions.id").
		Where("rp.role_id = ?", *m.RoleID).
		Find(&perms).Error
	if err != nil {
		return nil, fault.Wrap(err, "resolve permissions")
	}

	set := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		set[p.Key()] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

// activeUserCond — «активен»: не удалён и не под действующим баном.
const activeUserCond = "users.deleted_at IS NULL AND (users.banned = ? OR (users.ban_expires IS NOT NULL AND users.ban_expires <= ?))"

// CountActiveOwners считает активных владельцев тенанта.
// Используется last-owner инвариантом перед сменой/снятием роли.
func (r *Resolver) CountActiveOwners(ctx context.Context, tenantID uint) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Table("members").
		Joins("JOIN roles ON roles.id = members.role_id").
		Joins("JOIN users ON users.id = members.user_id").
		Where("members.organization_id = ? AND roles.slug = ?", tenantID, RoleOwner).
		Where(activeUserCond, false, time.Now().UTC()).
		Count(&n).Error
	if err != nil {
		return 0, fault.Wrap(err, "count active owners")
	}
	return int(n), nil
}

// CountActiveSuperadmins — по всей платформе; last-superadmin инвариант.
func (r *Resolver) CountActiveSuperadmins(ctx context.Context) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Table("users").
		Where("users.role = ?", models.PlatformRoleSuperadmin).
		Where(activeUserCond, false, time.Now().UTC()).
		Count(&n).Error
	if err != nil {
		return 0, fault.Wrap(err, "count active superadmins")
	}
	return int(n), nil
}
