package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ActorTypeUser          = "user"
	ActorTypeImpersonation = "impersonation"
	ActorTypeSystem        = "system"
)

// AuditLog — запись аудита; формат фиксирован контрактом синка.
// Action — в нотации "resource.verb" (org.deleted, user.banned, ...).
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	ActorID        uint   `gorm:"index;not null" json:"actor_id"`
	ActorType      string `gorm:"size:16;not null;default:user" json:"actor_type"`
	ImpersonatorID *uint  `json:"impersonator_id,omitempty"`
	OrganizationID *uint  `gorm:"index" json:"organization_id,omitempty"`

	Action     string `gorm:"size:64;not null;index" json:"action"`
	Resource   string `gorm:"size:64;not null" json:"resource"`
	ResourceID string `gorm:"size:64;not null" json:"resource_id"`

	Before   datatypes.JSON `gorm:"type:jsonb" json:"before,omitempty"`
	After    datatypes.JSON `gorm:"type:jsonb" json:"after,omitempty"`
	Metadata datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
}
