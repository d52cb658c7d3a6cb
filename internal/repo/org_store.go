package repo

import (
	"context"

	"gorm.io/gorm"

	"atrium/internal/fault"
	"atrium/internal/models"
)

type OrgStore struct{ db *gorm.DB }

func NewOrgStore(db *gorm.DB) *OrgStore { return &OrgStore{db: db} }

// GetByID возвращает организацию независимо от статуса удаления:
// state machine сама решает, что делать с PendingDeletion.
func (s *OrgStore) GetByID(ctx context.Context, id uint) (*models.Organization, error) {
	var o models.Organization
	if err := s.db.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, notFoundOr(err, "organization")
	}
	return &o, nil
}

func (s *OrgStore) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	var o models.Organization
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&o).Error; err != nil {
		return nil, notFoundOr(err, "organization")
	}
	return &o, nil
}

func (s *OrgStore) Create(ctx context.Context, o *models.Organization) error {
	if err := s.db.WithContext(ctx).Create(o).Error; err != nil {
		if IsDuplicate(err) {
			return fault.New(fault.SlugConflict, "slug %q already taken", o.Slug)
		}
		return fault.Wrap(err, "create organization")
	}
	return nil
}

// ListActive — не удалённые организации (для построения дерева).
func (s *OrgStore) ListActive(ctx context.Context) ([]models.Organization, error) {
	var rows []models.Organization
	if err := s.db.WithContext(ctx).
		Where("deleted_at IS NULL").
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, fault.Wrap(err, "list organizations")
	}
	return rows, nil
}

func (s *OrgStore) ListChildren(ctx context.Context, parentID uint) ([]models.Organization, error) {
	var rows []models.Organization
	if err := s.db.WithContext(ctx).
		Where("parent_organization_id = ?", parentID).
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, fault.Wrap(err, "list child organizations")
	}
	return rows, nil
}
