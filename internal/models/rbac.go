package models

import "time"

// Role — роль внутри тенанта. Дефолтные (owner/admin/member/viewer)
// сидируются при создании организации; IsDefault запрещает их удаление
// (удаление ролей — вне этого ядра, мы только читаем флаг).
type Role struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TenantID  uint   `gorm:"index;not null;uniqueIndex:uniq_role_slug,priority:1" json:"tenant_id"`
	Name      string `gorm:"size:128;not null" json:"name"`
	Slug      string `gorm:"size:64;not null;uniqueIndex:uniq_role_slug,priority:2" json:"slug"`
	IsDefault bool   `gorm:"not null;default:false" json:"is_default"`
}

// Permission — неизменяемая запись каталога; адресуется как "resource:action".
type Permission struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Resource string `gorm:"size:64;not null;uniqueIndex:uniq_perm,priority:1" json:"resource"`
	Action   string `gorm:"size:64;not null;uniqueIndex:uniq_perm,priority:2" json:"action"`
}

func (p Permission) Key() string { return p.Resource + ":" + p.Action }

type RolePermission struct {
	ID           uint `gorm:"primaryKey"`
	RoleID       uint `gorm:"index;not null;uniqueIndex:uniq_role_perm,priority:1"`
	PermissionID uint `gorm:"not null;uniqueIndex:uniq_role_perm,priority:2"`
}
