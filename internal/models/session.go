package models

import "time"

// Session — внешняя сущность (аутентификация вне ядра); нам важен только
// указатель ActiveOrganizationID: при мягком удалении организации его
// нужно обнулить в той же транзакции.
type Session struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Token                string `gorm:"uniqueIndex;size:64;not null" json:"-"`
	UserID               uint   `gorm:"index;not null" json:"user_id"`
	ActiveOrganizationID *uint  `gorm:"index" json:"active_organization_id,omitempty"`
}
