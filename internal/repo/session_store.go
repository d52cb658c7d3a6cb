package repo

import (
	"context"

	"gorm.io/gorm"

	"atrium/internal/fault"
	"atrium/internal/models"
)

type SessionStore struct{ db *gorm.DB }

func NewSessionStore(db *gorm.DB) *SessionStore { return &SessionStore{db: db} }

func (s *SessionStore) Create(ctx context.Context, sess *models.Session) error {
	if err := s.db.WithContext(ctx).Create(sess).Error; err != nil {
		return fault.Wrap(err, "create session")
	}
	return nil
}

func (s *SessionStore) ListByUser(ctx context.Context, userID uint) ([]models.Session, error) {
	var rows []models.Session
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, fault.Wrap(err, "list sessions")
	}
	return rows, nil
}

// ClearActiveOrg обнуляет указатель на организацию у всех сессий,
// смотрящих на неё. Часть транзакции мягкого удаления — принимает tx.
func ClearActiveOrg(tx *gorm.DB, orgID uint) error {
	return tx.Model(&models.Session{}).
		Where("active_organization_id = ?", orgID).
		Update("active_organization_id", nil).Error
}
