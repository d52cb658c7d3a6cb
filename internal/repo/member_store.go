package repo

import (
	"context"

	"gorm.io/gorm"

	"atrium/internal/fault"
	"atrium/internal/models"
)

type MemberStore struct{ db *gorm.DB }

func NewMemberStore(db *gorm.DB) *MemberStore { return &MemberStore{db: db} }

func (s *MemberStore) GetByID(ctx context.Context, id uint) (*models.Member, error) {
	var m models.Member
	if err := s.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, notFoundOr(err, "member")
	}
	return &m, nil
}

func (s *MemberStore) GetByUserAndOrg(ctx context.Context, userID, orgID uint) (*models.Member, error) {
	var m models.Member
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND organization_id = ?", userID, orgID).
		First(&m).Error
	if err != nil {
		return nil, notFoundOr(err, "member")
	}
	return &m, nil
}

func (s *MemberStore) ListByOrg(ctx context.Context, orgID uint) ([]models.Member, error) {
	var rows []models.Member
	if err := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, fault.Wrap(err, "list members")
	}
	return rows, nil
}

func (s *MemberStore) CountByOrg(ctx context.Context, orgID uint) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Member{}).
		Where("organization_id = ?", orgID).
		Count(&n).Error; err != nil {
		return 0, fault.Wrap(err, "count members")
	}
	return n, nil
}
