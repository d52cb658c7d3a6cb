package models

import "time"

const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationExpired  = "expired"
	InvitationRevoked  = "revoked"
)

// Invitation — приглашение по email. TokenID отдаётся приглашённому,
// сам секрет храним только хэшем (argon2).
type Invitation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OrganizationID uint      `gorm:"index;not null" json:"organization_id"`
	Email          string    `gorm:"size:255;not null" json:"email"`
	Role           string    `gorm:"size:64;not null" json:"role"` // слаг целевой роли
	Status         string    `gorm:"size:16;not null;default:pending;index" json:"status"`
	ExpiresAt      time.Time `gorm:"not null" json:"expires_at"`

	TokenID    string `gorm:"uniqueIndex;size:36;not null" json:"-"`
	SecretHash []byte `gorm:"not null" json:"-"`
}
