package models

import "time"

// Member — членство пользователя в организации.
// RoleID — авторитетный источник прав; Role — легаси-лейбл для отображения,
// обновляется вслед за RoleID (см. DESIGN.md).
type Member struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID         uint   `gorm:"index;not null;uniqueIndex:uniq_member,priority:1" json:"user_id"`
	OrganizationID uint   `gorm:"index;not null;uniqueIndex:uniq_member,priority:2" json:"organization_id"`
	Role           string `gorm:"size:64" json:"role"`
	RoleID         *uint  `gorm:"index" json:"role_id,omitempty"`
}
