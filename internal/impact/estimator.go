package impact

import (
	"context"
	"time"

	"gorm.io/gorm"

	"atrium/internal/fault"
	"atrium/internal/hierarchy"
	"atrium/internal/models"
	"atrium/internal/repo"
)

// Impact — превью «радиуса поражения» удаления организации.
// ChildOrgCount — только прямые дети; ChildMemberCount — участники
// по всем потомкам.
type Impact struct {
	MemberCount        int `json:"member_count"`
	ActiveMembers      int `json:"active_members"`
	ChildOrgCount      int `json:"child_org_count"`
	ChildMemberCount   int `json:"child_member_count"`
	PendingInvitations int `json:"pending_invitations"`
}

// Estimator — только чтение: ни мутаций, ни аудита, ни блокировок.
// Безопасен для повторных и конкурентных вызовов.
type Estimator struct {
	db   *gorm.DB
	orgs *repo.OrgStore
	hier *hierarchy.Manager
}

func NewEstimator(db *gorm.DB, orgs *repo.OrgStore, hier *hierarchy.Manager) *Estimator {
	return &Estimator{db: db, orgs: orgs, hier: hier}
}

func (e *Estimator) EstimateOrgDeletionImpact(ctx context.Context, orgID uint) (*Impact, error) {
	if _, err := e.orgs.GetByID(ctx, orgID); err != nil {
		return nil, err
	}

	var out Impact

	var total int64
	if err := e.db.WithContext(ctx).Model(&models.Member{}).
		Where("organization_id = ?", orgID).
		Count(&total).Error; err != nil {
		return nil, fault.Wrap(err, "count members")
	}
	out.MemberCount = int(total)

	// «Активный» — не забанен и не в ожидании удаления.
	var active int64
	err := e.db.WithContext(ctx).Model(&models.Member{}).
		Joins("JOIN users ON users.id = members.user_id").
		Where("members.organization_id = ?", orgID).
		Where("users.deleted_at IS NULL AND (users.banned = ? OR (users.ban_expires IS NOT NULL AND users.ban_expires <= ?))",
			false, time.Now().UTC()).
		Count(&active).Error
	if err != nil {
		return nil, fault.Wrap(err, "count active members")
	}
	out.ActiveMembers = int(active)

	children, err := e.orgs.ListChildren(ctx, orgID)
	if err != nil {
		return nil, err
	}
	out.ChildOrgCount = len(children)

	descendants, err := e.hier.ListDescendants(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if len(descendants) > 0 {
		var n int64
		if err := e.db.WithContext(ctx).Model(&models.Member{}).
			Where("organization_id IN ?", descendants).
			Count(&n).Error; err != nil {
			return nil, fault.Wrap(err, "count descendant members")
		}
		out.ChildMemberCount = int(n)
	}

	var pending int64
	if err := e.db.WithContext(ctx).Model(&models.Invitation{}).
		Where("organization_id = ? AND status = ?", orgID, models.InvitationPending).
		Count(&pending).Error; err != nil {
		return nil, fault.Wrap(err, "count pending invitations")
	}
	out.PendingInvitations = int(pending)

	return &out, nil
}
