package admin

import (
	"gorm.io/gorm"

	"atrium/config"
	"atrium/internal/hierarchy"
	"atrium/internal/impact"
	"atrium/internal/invites"
	"atrium/internal/lifecycle"
	"atrium/internal/rbac"
	"atrium/internal/repo"
)

// Dependencies — всё, что нужно обработчикам админ-API.
// Собирается в server.App и передаётся одним куском.
type Dependencies struct {
	DB  *gorm.DB
	CFG *config.Config

	Engine   *lifecycle.Engine
	Orgs     *repo.OrgStore
	Users    *repo.UserStore
	Members  *repo.MemberStore
	Audit    *repo.AuditStore
	Resolver *rbac.Resolver
	Hier     *hierarchy.Manager
	Impact   *impact.Estimator
	Invites  *invites.Service
}

type Handler struct{ d Dependencies }
