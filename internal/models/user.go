package models

import "time"

// Платформенные роли пользователя (не путать с ролями внутри тенанта).
const (
	PlatformRoleUser       = "user"
	PlatformRoleSuperadmin = "superadmin"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name  string `gorm:"size:255" json:"name"`
	Email string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Role  string `gorm:"size:32;not null;default:user" json:"role"` // user|superadmin

	Banned     bool       `gorm:"not null;default:false" json:"banned"`
	BanReason  string     `gorm:"size:512" json:"ban_reason,omitempty"`
	BanExpires *time.Time `json:"ban_expires,omitempty"`

	// Та же пара, что и у Organization.
	DeletedAt          *time.Time `gorm:"index" json:"deleted_at,omitempty"`
	DeleteScheduledFor *time.Time `json:"delete_scheduled_for,omitempty"`
}

func (u *User) PendingDeletion() bool { return u.DeletedAt != nil }

func (u *User) Superadmin() bool { return u.Role == PlatformRoleSuperadmin }

// Active — не забанен и не в ожидании удаления; бан с истёкшим сроком не считается.
func (u *User) Active(now time.Time) bool {
	if u.DeletedAt != nil {
		return false
	}
	if u.Banned && (u.BanExpires == nil || u.BanExpires.After(now)) {
		return false
	}
	return true
}
