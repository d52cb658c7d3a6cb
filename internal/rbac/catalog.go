package rbac

import (
	"gorm.io/gorm"

	"atrium/internal/fault"
	"atrium/internal/models"
)

// Слаги дефолтных ролей тенанта.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// Каталог прав: неизменяемые пары resource:action.
// Сидируется при провижининге, ядро его не мутирует.
var Catalog = []models.Permission{
	{Resource: "organization", Action: "read"},
	{Resource: "organization", Action: "update"},
	{Resource: "organization", Action: "delete"},
	{Resource: "organization", Action: "manage"},
	{Resource: "member", Action: "read"},
	{Resource: "member", Action: "create"},
	{Resource: "member", Action: "update"},
	{Resource: "member", Action: "delete"},
	{Resource: "member", Action: "manage"},
	{Resource: "invitation", Action: "read"},
	{Resource: "invitation", Action: "create"},
	{Resource: "invitation", Action: "delete"},
	{Resource: "role", Action: "read"},
	{Resource: "role", Action: "manage"},
	{Resource: "audit", Action: "read"},
}

// defaultBundles — какие права получает каждая дефолтная роль.
// owner получает весь каталог целиком (см. SeedTenant).
var defaultBundles = map[string][]string{
	RoleAdmin: {
		"organization:read", "organization:update",
		"member:read", "member:create", "member:update", "member:delete",
		"invitation:read", "invitation:create", "invitation:delete",
		"role:read", "audit:read",
	},
	RoleMember: {
		"organization:read", "member:read", "invitation:read",
	},
	RoleViewer: {
		"organization:read", "member:read",
	},
}

var defaultRoleNames = map[string]string{
	RoleOwner:  "Owner",
	RoleAdmin:  "Admin",
	RoleMember: "Member",
	RoleViewer: "Viewer",
}

func IsOwnerRole(slug string) bool { return slug == RoleOwner }

func IsDefaultRole(slug string) bool {
	_, ok := defaultRoleNames[slug]
	return ok
}

// SeedCatalog гарантирует наличие всех записей каталога (идемпотентно).
func SeedCatalog(tx *gorm.DB) error {
	for _, p := range Catalog {
		perm := p
		if err := tx.Where(models.Permission{Resource: p.Resource, Action: p.Action}).
			FirstOrCreate(&perm).Error; err != nil {
			return fault.Wrap(err, "seed permission %s", p.Key())
		}
	}
	return nil
}

// SeedTenant создаёт четыре дефолтные роли тенанта и их привязки к правам.
// Вызывается внутри транзакции создания организации.
func SeedTenant(tx *gorm.DB, tenantID uint) (map[string]uint, error) {
	if err := SeedCatalog(tx); err != nil {
		return nil, err
	}

	var perms []models.Permission
	if err := tx.Find(&perms).Error; err != nil {
		return nil, fault.Wrap(err, "load permission catalog")
	}
	byKey := make(map[string]uint, len(perms))
	for _, p := range perms {
		byKey[p.Key()] = p.ID
	}

	roleIDs := make(map[string]uint, len(defaultRoleNames))
	for _, slug := range []string{RoleOwner, RoleAdmin, RoleMember, RoleViewer} {
		role := models.Role{
			TenantID:  tenantID,
			Name:      defaultRoleNames[slug],
			Slug:      slug,
			IsDefault: true,
		}
		if err := tx.Create(&role).Error; err != nil {
			return nil, fault.Wrap(err, "seed role %s", slug)
		}
		roleIDs[slug] = role.ID

		var grants []string
		if slug == RoleOwner {
			for _, p := range perms {
				grants = append(grants, p.Key())
			}
		} else {
			grants = defaultBundles[slug]
		}
		for _, key := range grants {
			pid, ok := byKey[key]
			if !ok {
				continue
			}
			if err := tx.Create(&models.RolePermission{RoleID: role.ID, PermissionID: pid}).Error; err != nil {
				return nil, fault.Wrap(err, "bind %s to %s", key, slug)
			}
		}
	}
	return roleIDs, nil
}
