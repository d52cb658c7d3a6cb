package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"

	"atrium/internal/audit"
	"atrium/internal/fault"
	"atrium/internal/hierarchy"
	"atrium/internal/models"
	"atrium/internal/rbac"
	"atrium/internal/repo"
)

// Engine — state machine жизненного цикла Organization и User:
// Active → PendingDeletion → Active (restore) | Purged (внешняя джоба).
// Каждая мутация — одна транзакция; аудит — после коммита.
type Engine struct {
	db       *gorm.DB
	orgs     *repo.OrgStore
	users    *repo.UserStore
	resolver *rbac.Resolver
	hier     *hierarchy.Manager
	audit    *audit.Emitter
	grace    time.Duration

	// TxOptions задаёт изоляцию мутаций. Продовая сборка ставит
	// serializable: last-owner/last-superadmin — это check-then-act,
	// две конкурентные попытки снять «последнего» должны дать максимум
	// один успех. nil — дефолт диалекта (тесты на sqlite).
	TxOptions *sql.TxOptions
}

func NewEngine(
	db *gorm.DB,
	orgs *repo.OrgStore,
	users *repo.UserStore,
	resolver *rbac.Resolver,
	hier *hierarchy.Manager,
	emitter *audit.Emitter,
	graceDays int,
) *Engine {
	return &Engine{
		db:       db,
		orgs:     orgs,
		users:    users,
		resolver: resolver,
		hier:     hier,
		audit:    emitter,
		grace:    time.Duration(graceDays) * 24 * time.Hour,
	}
}

func (e *Engine) tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	db := e.db.WithContext(ctx)
	if e.TxOptions != nil {
		return db.Transaction(fn, e.TxOptions)
	}
	return db.Transaction(fn)
}

// ---- загрузки внутри транзакции ----

func getOrg(tx *gorm.DB, id uint) (*models.Organization, error) {
	var o models.Organization
	if err := tx.First(&o, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fault.New(fault.NotFound, "organization %d not found", id)
		}
		return nil, fault.Wrap(err, "load organization")
	}
	return &o, nil
}

func getUser(tx *gorm.DB, id uint) (*models.User, error) {
	var u models.User
	if err := tx.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fault.New(fault.NotFound, "user %d not found", id)
		}
		return nil, fault.Wrap(err, "load user")
	}
	return &u, nil
}

func getMember(tx *gorm.DB, orgID, memberID uint) (*models.Member, error) {
	var m models.Member
	err := tx.Where("id = ? AND organization_id = ?", memberID, orgID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fault.New(fault.NotFound, "member %d not found", memberID)
		}
		return nil, fault.Wrap(err, "load member")
	}
	return &m, nil
}

func getMemberByUser(tx *gorm.DB, userID, orgID uint) (*models.Member, error) {
	var m models.Member
	err := tx.Where("user_id = ? AND organization_id = ?", userID, orgID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fault.New(fault.NotFound, "membership of user %d in organization %d not found", userID, orgID)
		}
		return nil, fault.Wrap(err, "load member")
	}
	return &m, nil
}

func getRole(tx *gorm.DB, tenantID, roleID uint) (*models.Role, error) {
	var r models.Role
	err := tx.Where("id = ? AND tenant_id = ?", roleID, tenantID).First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fault.New(fault.NotFound, "role %d not found", roleID)
		}
		return nil, fault.Wrap(err, "load role")
	}
	return &r, nil
}

// roleSlugOf — слаг роли участника; авторитетен RoleID,
// легаси-лейбл — только если привязки ещё нет (миграция).
func roleSlugOf(tx *gorm.DB, m *models.Member) (string, error) {
	if m.RoleID == nil {
		return m.Role, nil
	}
	var r models.Role
	if err := tx.First(&r, *m.RoleID).Error; err != nil {
		return "", fault.Wrap(err, "load member role")
	}
	return r.Slug, nil
}
