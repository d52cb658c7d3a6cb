package lifecycle

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"atrium/internal/audit"
	"atrium/internal/fault"
	"atrium/internal/models"
	"atrium/internal/rbac"
)

// guardLastOwner — запрет опускать счётчик активных владельцев до нуля.
// Демоция неактивного владельца (бан/удаление) счётчик не меняет
// и потому не блокируется.
func (e *Engine) guardLastOwner(ctx context.Context, tx *gorm.DB, orgID uint, m *models.Member) error {
	slug, err := roleSlugOf(tx, m)
	if err != nil {
		return err
	}
	if !rbac.IsOwnerRole(slug) {
		return nil
	}
	u, err := getUser(tx, m.UserID)
	if err != nil {
		return err
	}
	if !u.Active(time.Now().UTC()) {
		return nil
	}
	owners, err := e.resolver.WithTx(tx).CountActiveOwners(ctx, orgID)
	if err != nil {
		return err
	}
	if owners <= 1 {
		return fault.New(fault.LastOwnerConstraint, "organization %d would be left without an active owner", orgID)
	}
	return nil
}

// ChangeMemberRole меняет роль участника тенанта. RoleID — источник
// истины, легаси-лейбл обновляется следом.
func (e *Engine) ChangeMemberRole(ctx context.Context, actorID, orgID, memberID, newRoleID uint) (*models.Member, error) {
	var member *models.Member
	var before, after map[string]any
	err := e.tx(ctx, func(tx *gorm.DB) error {
		var err error
		member, err = getMember(tx, orgID, memberID)
		if err != nil {
			return err
		}
		newRole, err := getRole(tx, orgID, newRoleID)
		if err != nil {
			return err
		}
		oldSlug, err := roleSlugOf(tx, member)
		if err != nil {
			return err
		}
		if oldSlug == newRole.Slug {
			before, after = audit.MemberRole(oldSlug), audit.MemberRole(newRole.Slug)
			return nil // no-op, но без ошибки
		}
		if !rbac.IsOwnerRole(newRole.Slug) {
			if err := e.guardLastOwner(ctx, tx, orgID, member); err != nil {
				return err
			}
		}

		before = audit.MemberRole(oldSlug)
		member.RoleID = &newRole.ID
		member.Role = newRole.Slug
		member.UpdatedAt = time.Now().UTC()
		if err := tx.Save(member).Error; err != nil {
			return fault.Wrap(err, "change member role")
		}
		after = audit.MemberRole(newRole.Slug)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.audit.Emit(ctx, audit.Record{
		ActorID:        actorID,
		OrganizationID: &orgID,
		Action:         "member.role_changed",
		Resource:       "member",
		ResourceID:     fmt.Sprint(memberID),
		Before:         before,
		After:          after,
	})
	return member, nil
}

// RemoveMember удаляет членство; тот же last-owner инвариант.
func (e *Engine) RemoveMember(ctx context.Context, actorID, orgID, memberID uint) error {
	var before map[string]any
	err := e.tx(ctx, func(tx *gorm.DB) error {
		m, err := getMember(tx, orgID, memberID)
		if err != nil {
			return err
		}
		if err := e.guardLastOwner(ctx, tx, orgID, m); err != nil {
			return err
		}
		slug, err := roleSlugOf(tx, m)
		if err != nil {
			return err
		}
		before = audit.MemberRole(slug)
		if err := tx.Delete(&models.Member{}, m.ID).Error; err != nil {
			return fault.Wrap(err, "remove member")
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.audit.Emit(ctx, audit.Record{
		ActorID:        actorID,
		OrganizationID: &orgID,
		Action:         "member.removed",
		Resource:       "member",
		ResourceID:     fmt.Sprint(memberID),
		Before:         before,
	})
	return nil
}
