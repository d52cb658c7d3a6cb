package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"atrium/internal/fault"
	"atrium/internal/models"
)

type InvitationStore struct{ db *gorm.DB }

func NewInvitationStore(db *gorm.DB) *InvitationStore { return &InvitationStore{db: db} }

func (s *InvitationStore) Create(ctx context.Context, inv *models.Invitation) error {
	if err := s.db.WithContext(ctx).Create(inv).Error; err != nil {
		return fault.Wrap(err, "create invitation")
	}
	return nil
}

func (s *InvitationStore) GetByTokenID(ctx context.Context, tokenID string) (*models.Invitation, error) {
	var inv models.Invitation
	if err := s.db.WithContext(ctx).Where("token_id = ?", tokenID).First(&inv).Error; err != nil {
		return nil, notFoundOr(err, "invitation")
	}
	return &inv, nil
}

func (s *InvitationStore) ListPendingByOrg(ctx context.Context, orgID uint) ([]models.Invitation, error) {
	var rows []models.Invitation
	if err := s.db.WithContext(ctx).
		Where("organization_id = ? AND status = ?", orgID, models.InvitationPending).
		Find(&rows).Error; err != nil {
		return nil, fault.Wrap(err, "list pending invitations")
	}
	return rows, nil
}

func (s *InvitationStore) CountPendingByOrg(ctx context.Context, orgID uint) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Invitation{}).
		Where("organization_id = ? AND status = ?", orgID, models.InvitationPending).
		Count(&n).Error; err != nil {
		return 0, fault.Wrap(err, "count pending invitations")
	}
	return n, nil
}

// ExpirePendingForOrg переводит все pending-приглашения организации в expired.
// Вызывается из транзакции мягкого удаления — поэтому принимает tx.
func ExpirePendingForOrg(tx *gorm.DB, orgID uint, now time.Time) error {
	return tx.Model(&models.Invitation{}).
		Where("organization_id = ? AND status = ?", orgID, models.InvitationPending).
		Updates(map[string]any{"status": models.InvitationExpired, "updated_at": now}).Error
}
