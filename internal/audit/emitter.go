package audit

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"atrium/internal/logs"
	"atrium/internal/models"
	"atrium/internal/repo"
)

// Record — вход контракта аудита (см. форму синка в AuditLog).
// Before/After ограничены полями, которые менялись; никаких полных дампов.
type Record struct {
	ActorID        uint
	ActorType      string // user|impersonation|system; пусто → user
	ImpersonatorID *uint
	OrganizationID *uint
	Action         string // resource.verb: org.deleted, user.banned, ...
	Resource       string
	ResourceID     string
	Before         map[string]any
	After          map[string]any
	Metadata       map[string]any
}

// Emitter пишет записи аудита fire-and-forget: основная операция уже
// закоммичена, отказ синка логируем и глотаем — ответ вызывающему
// не откатываем и не портим.
type Emitter struct{ store *repo.AuditStore }

func NewEmitter(store *repo.AuditStore) *Emitter { return &Emitter{store: store} }

func (e *Emitter) Emit(ctx context.Context, rec Record) {
	actorType := rec.ActorType
	if actorType == "" {
		actorType = models.ActorTypeUser
	}
	row := &models.AuditLog{
		CreatedAt:      time.Now().UTC(),
		ActorID:        rec.ActorID,
		ActorType:      actorType,
		ImpersonatorID: rec.ImpersonatorID,
		OrganizationID: rec.OrganizationID,
		Action:         rec.Action,
		Resource:       rec.Resource,
		ResourceID:     rec.ResourceID,
		Before:         marshal(rec.Before),
		After:          marshal(rec.After),
		Metadata:       marshal(rec.Metadata),
	}
	if err := e.store.Create(ctx, row); err != nil {
		logs.Component("audit").Errorf("emit failed: action=%s resource=%s id=%s: %v",
			rec.Action, rec.Resource, rec.ResourceID, err)
	}
}

func marshal(m map[string]any) datatypes.JSON {
	if len(m) == 0 {
		return nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
