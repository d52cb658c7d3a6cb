package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"atrium/internal/audit"
	"atrium/internal/fault"
	"atrium/internal/models"
	"atrium/internal/rbac"
	"atrium/internal/repo"
)

type CreateOrgInput struct {
	Name     string
	Slug     string
	ParentID *uint
}

// CreateOrganization создаёт тенант: организация + дефолтные роли +
// создатель становится owner-участником. Одна транзакция.
func (e *Engine) CreateOrganization(ctx context.Context, actorID uint, in CreateOrgInput) (*models.Organization, error) {
	if !models.ValidSlug(in.Slug) {
		return nil, fault.New(fault.SlugConflict, "slug %q is not a valid slug", in.Slug)
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fault.New(fault.SlugConflict, "organization name must not be empty")
	}
	if in.ParentID != nil {
		// Нового узла в цепочке предков быть не может — проверяется только глубина
		// и существование родителя (id=0 не встретится в chain).
		if err := e.hier.ValidateParentAssignment(ctx, 0, *in.ParentID); err != nil {
			return nil, err
		}
	}

	var org *models.Organization
	err := e.tx(ctx, func(tx *gorm.DB) error {
		actor, err := getUser(tx, actorID)
		if err != nil {
			return err
		}

		org = &models.Organization{
			Name:                 in.Name,
			Slug:                 in.Slug,
			ParentOrganizationID: in.ParentID,
		}
		if err := tx.Create(org).Error; err != nil {
			if repo.IsDuplicate(err) {
				return fault.New(fault.SlugConflict, "slug %q already taken", in.Slug)
			}
			return fault.Wrap(err, "create organization")
		}

		roleIDs, err := rbac.SeedTenant(tx, org.ID)
		if err != nil {
			return err
		}
		ownerID := roleIDs[rbac.RoleOwner]
		member := models.Member{
			UserID:         actor.ID,
			OrganizationID: org.ID,
			Role:           rbac.RoleOwner, // производный лейбл
			RoleID:         &ownerID,
		}
		if err := tx.Create(&member).Error; err != nil {
			return fault.Wrap(err, "create owner membership")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.audit.Emit(ctx, audit.Record{
		ActorID:        actorID,
		OrganizationID: &org.ID,
		Action:         "org.created",
		Resource:       "organization",
		ResourceID:     fmt.Sprint(org.ID),
		After: map[string]any{
			"name": org.Name, "slug": org.Slug,
			"parent_organization_id": org.ParentOrganizationID,
		},
	})
	return org, nil
}

// SetOrganizationParent переносит организацию в дереве.
// nil parent — вынос в корень, без проверок глубины.
func (e *Engine) SetOrganizationParent(ctx context.Context, actorID, orgID uint, parentID *uint) (*models.Organization, error) {
	if parentID != nil {
		if err := e.hier.ValidateParentAssignment(ctx, orgID, *parentID); err != nil {
			return nil, err
		}
	}

	var org *models.Organization
	var before map[string]any
	err := e.tx(ctx, func(tx *gorm.DB) error {
		var err error
		org, err = getOrg(tx, orgID)
		if err != nil {
			return err
		}
		before = map[string]any{"parent_organization_id": org.ParentOrganizationID}
		org.ParentOrganizationID = parentID
		org.UpdatedAt = time.Now().UTC()
		if err := tx.Save(org).Error; err != nil {
			return fault.Wrap(err, "update organization parent")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.audit.Emit(ctx, audit.Record{
		ActorID:        actorID,
		OrganizationID: &org.ID,
		Action:         "org.moved",
		Resource:       "organization",
		ResourceID:     fmt.Sprint(org.ID),
		Before:         before,
		After:          map[string]any{"parent_organization_id": org.ParentOrganizationID},
	})
	return org, nil
}

// DeleteOrganization — путь платформенного администратора: без
// подтверждения имени, но актор обязан быть superadmin либо владельцем.
func (e *Engine) DeleteOrganization(ctx context.Context, actorID, orgID uint) error {
	return e.softDeleteOrg(ctx, actorID, orgID, func(tx *gorm.DB, org *models.Organization) error {
		return requireOwnerOrSuperadmin(tx, actorID, orgID)
	})
}

// DeleteOrganizationWithConfirmation — self-service путь владельца:
// имя организации должно совпасть (без учёта регистра).
func (e *Engine) DeleteOrganizationWithConfirmation(ctx context.Context, actorID, orgID uint, confirmName string) error {
	return e.softDeleteOrg(ctx, actorID, orgID, func(tx *gorm.DB, org *models.Organization) error {
		if err := requireOwnerOrSuperadmin(tx, actorID, orgID); err != nil {
			return err
		}
		if !strings.EqualFold(strings.TrimSpace(confirmName), org.Name) {
			return fault.New(fault.NameConfirmationMismatch, "confirmation %q does not match organization name", confirmName)
		}
		return nil
	})
}

// softDeleteOrg — общее ядро мягкого удаления организации.
// Внутри одной транзакции: таймстампы + каскад (просрочка приглашений,
// обнуление указателей сессий). Падение на любом шаге откатывает всё.
func (e *Engine) softDeleteOrg(ctx context.Context, actorID, orgID uint, guard func(tx *gorm.DB, org *models.Organization) error) error {
	var before, after map[string]any
	err := e.tx(ctx, func(tx *gorm.DB) error {
		org, err := getOrg(tx, orgID)
		if err != nil {
			return err
		}
		if org.PendingDeletion() {
			return fault.New(fault.AlreadyPendingDeletion, "organization %d is already pending deletion", orgID)
		}
		if guard != nil {
			if err := guard(tx, org); err != nil {
				return err
			}
		}

		before = audit.OrgLifecycle(org)
		now := time.Now().UTC()
		sched := now.Add(e.grace)
		org.DeletedAt = &now
		org.DeleteScheduledFor = &sched
		org.UpdatedAt = now
		if err := tx.Save(org).Error; err != nil {
			return fault.Wrap(err, "soft delete organization")
		}
		if err := repo.ExpirePendingForOrg(tx, orgID, now); err != nil {
			return fault.Wrap(err, "expire pending invitations")
		}
		if err := repo.ClearActiveOrg(tx, orgID); err != nil {
			return fault.Wrap(err, "clear session pointers")
		}
		after = audit.OrgLifecycle(org)
		return nil
	})
	if err != nil {
		return err
	}

	meta := map[string]any{}
	if desc, derr := e.hier.ListDescendants(ctx, orgID); derr == nil && len(desc) > 0 {
		meta["descendant_orgs"] = len(desc) // остаются активными и видны как orphan
	}
	e.audit.Emit(ctx, audit.Record{
		ActorID:        actorID,
		OrganizationID: &orgID,
		Action:         "org.deleted",
		Resource:       "organization",
		ResourceID:     fmt.Sprint(orgID),
		Before:         before,
		After:          after,
		Metadata:       meta,
	})
	return nil
}

// RestoreOrganization возвращает организацию из PendingDeletion.
// При NotPendingDeletion — ни записей, ни аудита.
func (e *Engine) RestoreOrganization(ctx context.Context, actorID, orgID uint) error {
	var before, after map[string]any
	err := e.tx(ctx, func(tx *gorm.DB) error {
		org, err := getOrg(tx, orgID)
		if err != nil {
			return err
		}
		if !org.PendingDeletion() {
			return fault.New(fault.NotPendingDeletion, "organization %d is not pending deletion", orgID)
		}
		before = audit.OrgLifecycle(org)
		org.DeletedAt = nil
		org.DeleteScheduledFor = nil
		org.UpdatedAt = time.Now().UTC()
		if err := tx.Model(org).Select("deleted_at", "delete_scheduled_for", "updated_at").Updates(org).Error; err != nil {
			return fault.Wrap(err, "restore organization")
		}
		after = audit.OrgLifecycle(org)
		return nil
	})
	if err != nil {
		return err
	}

	e.audit.Emit(ctx, audit.Record{
		ActorID:        actorID,
		OrganizationID: &orgID,
		Action:         "org.restored",
		Resource:       "organization",
		ResourceID:     fmt.Sprint(orgID),
		Before:         before,
		After:          after,
	})
	return nil
}

// requireOwnerOrSuperadmin — ролевая проверка путей удаления:
// superadmin проходит всегда, иначе нужен активный owner-membership.
func requireOwnerOrSuperadmin(tx *gorm.DB, actorID, orgID uint) error {
	actor, err := getUser(tx, actorID)
	if err != nil {
		return err
	}
	if actor.Superadmin() {
		return nil
	}
	m, err := getMemberByUser(tx, actorID, orgID)
	if err != nil {
		if fault.IsKind(err, fault.NotFound) {
			return fault.New(fault.Forbidden, "actor %d is not a member of organization %d", actorID, orgID)
		}
		return err
	}
	slug, err := roleSlugOf(tx, m)
	if err != nil {
		return err
	}
	if !rbac.IsOwnerRole(slug) {
		return fault.New(fault.Forbidden, "actor %d does not hold the owner role", actorID)
	}
	return nil
}
