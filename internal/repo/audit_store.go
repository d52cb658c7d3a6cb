package repo

import (
	"context"

	"gorm.io/gorm"

	"atrium/internal/fault"
	"atrium/internal/models"
)

type AuditStore struct{ db *gorm.DB }

func NewAuditStore(db *gorm.DB) *AuditStore { return &AuditStore{db: db} }

func (s *AuditStore) Create(ctx context.Context, rec *models.AuditLog) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fault.Wrap(err, "write audit log")
	}
	return nil
}

func (s *AuditStore) ListByOrg(ctx context.Context, orgID uint, limit int) ([]models.AuditLog, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	var rows []models.AuditLog
	if err := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at desc").Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fault.Wrap(err, "list audit logs")
	}
	return rows, nil
}
