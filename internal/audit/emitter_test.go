package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"atrium/internal/logs"
	"atrium/internal/models"
	"atrium/internal/repo"
)

func newEmitter(t *testing.T) (*Emitter, *gorm.DB) {
	t.Helper()
	logs.Init(logs.Options{Level: "error"})
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.AuditLog{}))
	return NewEmitter(repo.NewAuditStore(db)), db
}

func TestEmit(t *testing.T) {
	e, db := newEmitter(t)
	orgID := uint(7)

	e.Emit(context.Background(), Record{
		ActorID:        1,
		OrganizationID: &orgID,
		Action:         "org.deleted",
		Resource:       "organization",
		ResourceID:     "7",
		Before:         map[string]any{"deleted_at": nil},
		Metadata:       map[string]any{"descendant_orgs": 2},
	})

	var row models.AuditLog
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, models.ActorTypeUser, row.ActorType) // пустой тип → user
	assert.Equal(t, "org.deleted", row.Action)
	require.NotNil(t, row.OrganizationID)
	assert.Equal(t, orgID, *row.OrganizationID)
	assert.Nil(t, row.After) // пустая карта не сериализуется

	var meta map[string]any
	require.NoError(t, json.Unmarshal(row.Metadata, &meta))
	assert.EqualValues(t, 2, meta["descendant_orgs"])
}

func TestEmitSinkFailureIsSwallowed(t *testing.T) {
	e, db := newEmitter(t)
	require.NoError(t, db.Migrator().DropTable(&models.AuditLog{}))

	// отказ синка не должен паниковать и не возвращает ошибку
	e.Emit(context.Background(), Record{ActorID: 1, Action: "user.banned", Resource: "user", ResourceID: "2"})
}
