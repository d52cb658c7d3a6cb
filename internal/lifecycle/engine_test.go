package lifecycle

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"atrium/internal/audit"
	"atrium/internal/hierarchy"
	"atrium/internal/logs"
	"atrium/internal/models"
	"atrium/internal/rbac"
	"atrium/internal/repo"
)

type fixture struct {
	db       *gorm.DB
	engine   *Engine
	orgs     *repo.OrgStore
	users    *repo.UserStore
	resolver *rbac.Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logs.Init(logs.Options{Level: "error"})

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Organization{}, &models.User{}, &models.Member{},
		&models.Role{}, &models.Permission{}, &models.RolePermission{},
		&models.Invitation{}, &models.Session{}, &models.AuditLog{},
	))

	orgs := repo.NewOrgStore(db)
	users := repo.NewUserStore(db)
	resolver := rbac.NewResolver(db)
	hier := hierarchy.New(orgs, 5)
	emitter := audit.NewEmitter(repo.NewAuditStore(db))

	return &fixture{
		db:       db,
		engine:   NewEngine(db, orgs, users, resolver, hier, emitter, 30),
		orgs:     orgs,
		users:    users,
		resolver: resolver,
	}
}

func (f *fixture) mkUser(t *testing.T, email, platformRole string) *models.User {
	t.Helper()
	u := &models.User{Name: email, Email: email, Role: platformRole}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func (f *fixture) mkOrg(t *testing.T, ownerID uint, slug string) *models.Organization {
	t.Helper()
	org, err := f.engine.CreateOrganization(context.Background(), ownerID, CreateOrgInput{
		Name: slug, Slug: slug,
	})
	require.NoError(t, err)
	return org
}

func (f *fixture) roleID(t *testing.T, tenantID uint, slug string) uint {
	t.Helper()
	var r models.Role
	require.NoError(t, f.db.Where("tenant_id = ? AND slug = ?", tenantID, slug).First(&r).Error)
	return r.ID
}

func (f *fixture) auditCount(t *testing.T, action string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.AuditLog{}).Where("action = ?", action).Count(&n).Error)
	return n
}

func (f *fixture) lastAudit(t *testing.T, action string) *models.AuditLog {
	t.Helper()
	var rec models.AuditLog
	require.NoError(t, f.db.Where("action = ?", action).Order("id desc").First(&rec).Error)
	return &rec
}
