package models

import (
	"regexp"
	"time"
)

// Organization — арендатор (tenant). Дерево через ParentOrganizationID.
// Мягкое удаление ведём вручную (DeletedAt + DeleteScheduledFor),
// НЕ через gorm.DeletedAt: restore и списки «ожидающих удаления»
// требуют выборок без автофильтра.
type Organization struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name                 string `gorm:"size:255;not null" json:"name"`
	Slug                 string `gorm:"uniqueIndex;size:128;not null" json:"slug"`
	ParentOrganizationID *uint  `gorm:"index" json:"parent_organization_id,omitempty"`

	// Инвариант: оба поля либо null, либо заданы вместе.
	DeletedAt          *time.Time `gorm:"index" json:"deleted_at,omitempty"`
	DeleteScheduledFor *time.Time `json:"delete_scheduled_for,omitempty"`
}

func (o *Organization) PendingDeletion() bool { return o.DeletedAt != nil }

var slugRe = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ValidSlug — глобальный формат слага: строчные латинские, цифры, дефисы.
func ValidSlug(s string) bool { return s != "" && len(s) <= 128 && slugRe.MatchString(s) }
