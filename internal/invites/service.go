package invites

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"atrium/internal/audit"
	"atrium/internal/fault"
	"atrium/internal/models"
	"atrium/internal/repo"
	"atrium/internal/secrets"
)

// Service выпускает и принимает приглашения. Секрет отдаётся один раз,
// в сторе — только хэш (см. secrets).
type Service struct {
	db    *gorm.DB
	store *repo.InvitationStore
	audit *audit.Emitter
	ttl   time.Duration
}

func New(db *gorm.DB, store *repo.InvitationStore, emitter *audit.Emitter, ttlHours int) *Service {
	return &Service{db: db, store: store, audit: emitter, ttl: time.Duration(ttlHours) * time.Hour}
}

// Issue создаёт приглашение в организацию. В архивный тенант
// (PendingDeletion) приглашать нельзя.
func (s *Service) Issue(ctx context.Context, actorID, orgID uint, email, roleSlug string) (tokenID, secret string, err error) {
	var org models.Organization
	if err := s.db.WithContext(ctx).First(&org, orgID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", fault.New(fault.NotFound, "organization %d not found", orgID)
		}
		return "", "", fault.Wrap(err, "load organization")
	}
	if org.PendingDeletion() {
		return "", "", fault.New(fault.AlreadyPendingDeletion, "organization %d is pending deletion", orgID)
	}

	var role models.Role
	if err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND slug = ?", orgID, roleSlug).
		First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", fault.New(fault.NotFound, "role %q not found in tenant %d", roleSlug, orgID)
		}
		return "", "", fault.Wrap(err, "load role")
	}

	raw, encoded := secrets.New()
	secret = encoded
	tokenID = uuid.NewString()

	inv := &models.Invitation{
		OrganizationID: orgID,
		Email:          strings.ToLower(strings.TrimSpace(email)),
		Role:           role.Slug,
		Status:         models.InvitationPending,
		ExpiresAt:      time.Now().UTC().Add(s.ttl),
		TokenID:        tokenID,
		SecretHash:     secrets.Hash(raw),
	}
	if err := s.store.Create(ctx, inv); err != nil {
		return "", "", err
	}

	s.audit.Emit(ctx, audit.Record{
		ActorID:        actorID,
		OrganizationID: &orgID,
		Action:         "invitation.created",
		Resource:       "invitation",
		ResourceID:     fmt.Sprint(inv.ID),
		After:          map[string]any{"email": inv.Email, "role": inv.Role, "expires_at": inv.ExpiresAt},
	})
	return tokenID, secret, nil
}

// Accept принимает приглашение: проверка секрета/срока/email,
// членство + смена статуса — одной транзакцией.
func (s *Service) Accept(ctx context.Context, tokenID, secret string, userID uint) (*models.Member, error) {
	rawSecret, err := hex.DecodeString(secret)
	if err != nil {
		return nil, fault.New(fault.Forbidden, "malformed invitation secret")
	}

	var member *models.Member
	var orgID uint
	var invID uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.Invitation
		if err := tx.Where("token_id = ?", tokenID).First(&inv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fault.New(fault.NotFound, "invitation not found")
			}
			return fault.Wrap(err, "load invitation")
		}
		if inv.Status != models.InvitationPending {
			return fault.New(fault.NotFound, "invitation is no longer active")
		}
		now := time.Now().UTC()
		if inv.ExpiresAt.Before(now) {
			inv.Status = models.InvitationExpired
			inv.UpdatedAt = now
			_ = tx.Save(&inv).Error
			return fault.New(fault.NotFound, "invitation expired")
		}
		if !secrets.Verify(inv.SecretHash, rawSecret) {
			return fault.New(fault.Forbidden, "invitation secret mismatch")
		}

		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fault.New(fault.NotFound, "user %d not found", userID)
			}
			return fault.Wrap(err, "load user")
		}
		if !strings.EqualFold(user.Email, inv.Email) {
			return fault.New(fault.Forbidden, "invitation was issued for a different email")
		}

		var role models.Role
		if err := tx.Where("tenant_id = ? AND slug = ?", inv.OrganizationID, inv.Role).
			First(&role).Error; err != nil {
			return fault.Wrap(err, "load invitation role")
		}

		member = &models.Member{
			UserID:         userID,
			OrganizationID: inv.OrganizationID,
			Role:           role.Slug,
			RoleID:         &role.ID,
		}
		if err := tx.Create(member).Error; err != nil {
			if repo.IsDuplicate(err) {
				return fault.New(fault.SlugConflict, "user %d is already a member", userID)
			}
			return fault.Wrap(err, "create member")
		}

		inv.Status = models.InvitationAccepted
		inv.UpdatedAt = now
		if err := tx.Save(&inv).Error; err != nil {
			return fault.Wrap(err, "accept invitation")
		}
		orgID, invID = inv.OrganizationID, inv.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Emit(ctx, audit.Record{
		ActorID:        userID,
		OrganizationID: &orgID,
		Action:         "invitation.accepted",
		Resource:       "invitation",
		ResourceID:     fmt.Sprint(invID),
		After:          map[string]any{"member_id": member.ID, "role": member.Role},
	})
	return member, nil
}

// Revoke отзывает pending-приглашение.
func (s *Service) Revoke(ctx context.Context, actorID uint, tokenID string) error {
	var orgID, invID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.Invitation
		if err := tx.Where("token_id = ?", tokenID).First(&inv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fault.New(fault.NotFound, "invitation not found")
			}
			return fault.Wrap(err, "load invitation")
		}
		if inv.Status != models.InvitationPending {
			return fault.New(fault.NotFound, "invitation is no longer active")
		}
		inv.Status = models.InvitationRevoked
		inv.UpdatedAt = time.Now().UTC()
		if err := tx.Save(&inv).Error; err != nil {
			return fault.Wrap(err, "revoke invitation")
		}
		orgID, invID = inv.OrganizationID, inv.ID
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Emit(ctx, audit.Record{
		ActorID:        actorID,
		OrganizationID: &orgID,
		Action:         "invitation.revoked",
		Resource:       "invitation",
		ResourceID:     fmt.Sprint(invID),
	})
	return nil
}
