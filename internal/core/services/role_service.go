package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coinvest-api/internal/adapters/persistence/models"
	"coinvest-api/internal/adapters/persistence/repositories"
	"coinvest-api/internal/core/domain"
	"coinvest-api/internal/pkg/metrics"

	"github.com/sirupsen/logrus"
)

const syncBatchSize = 200

// RoleService manages admin role assignments.
// The profile row is written first; the identity provider is mirrored after.
type RoleService struct {
	profiles    repositories.ProfileRepository
	idp         IdentityProvider
	invalidator PrincipalInvalidator
	metrics     *metrics.Metrics
}

// NewRoleService creates a new role service
func NewRoleService(
	profiles repositories.ProfileRepository,
	idp IdentityProvider,
	invalidator PrincipalInvalidator,
	m *metrics.Metrics,
) *RoleService {
	return &RoleService{
		profiles:    profiles,
		idp:         idp,
		invalidator: invalidator,
		metrics:     m,
	}
}

// RoleChange reports the outcome of a grant or revoke
type RoleChange struct {
	UserID   string      `json:"user_id"`
	Email    string      `json:"email"`
	Role     domain.Role `json:"role"`
	Mirrored bool        `json:"mirrored"`
}

// SyncReport summarizes a role sync run
type SyncReport struct {
	Synced int `json:"synced"`
	Failed int `json:"failed"`
}

// AdminSummary is one row of the admin list
type AdminSummary struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// GrantAdmin gives the admin role to the profile with email
func (s *RoleService) GrantAdmin(ctx context.Context, actor *domain.Principal, email string) (*RoleChange, error) {
	return s.setRole(ctx, actor, email, domain.RoleAdmin)
}

// RevokeAdmin removes the admin role from the profile with email
func (s *RoleService) RevokeAdmin(ctx context.Context, actor *domain.Principal, email string) (*RoleChange, error) {
	return s.setRole(ctx, actor, email, domain.RoleUser)
}

func (s *RoleService) setRole(ctx context.Context, actor *domain.Principal, email string, role domain.Role) (*RoleChange, error) {
	// 1. Only admins manage roles; the cached principal may be stale
	if err := s.requireCurrentAdmin(ctx, actor); err != nil {
		return nil, err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.Validationf("a valid email is required")
	}

	// 2. Find target profile
	target, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("profile %s: %w", email, domain.ErrNotFound)
		}
		return nil, err
	}

	if role != domain.RoleAdmin && target.ID == actor.ID {
		return nil, domain.ErrCannotRemoveSelf
	}

	// 3. Canonical write
	if err := s.profiles.UpdateRole(ctx, target.ID, role); err != nil {
		return nil, err
	}
	s.invalidator.Invalidate(ctx, target.ID)

	// 4. Mirror; failures are repaired by the sync job
	change := &RoleChange{UserID: target.ID, Email: target.Email, Role: role}
	change.Mirrored = s.mirror(ctx, target.ID, role)

	logrus.WithFields(logrus.Fields{
		"actor_id":  actor.ID,
		"target_id": target.ID,
		"email":     target.Email,
		"role":      role,
		"mirrored":  change.Mirrored,
	}).Info("role changed")

	return change, nil
}

// requireCurrentAdmin re-reads the actor's profile before a role write
func (s *RoleService) requireCurrentAdmin(ctx context.Context, actor *domain.Principal) error {
	if err := Authorize(actor, domain.RoleAdmin); err != nil {
		return err
	}

	profile, err := s.profiles.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrAdminRequired
		}
		return err
	}
	if domain.ParseRole(profile.Role) != domain.RoleAdmin || profile.AccountStatus == string(domain.AccountInactive) {
		return domain.ErrAdminRequired
	}
	return nil
}

func (s *RoleService) mirror(ctx context.Context, userID string, role domain.Role) bool {
	if s.idp == nil {
		return true
	}
	err := s.idp.SetRole(ctx, userID, role)
	s.metrics.MirrorResult(err == nil)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"provider": s.idp.Name(),
			"user_id":  userID,
			"role":     role,
		}).Warn("identity provider role mirror failed")
		return false
	}
	return true
}

// ListAdmins lists every profile holding the admin role
func (s *RoleService) ListAdmins(ctx context.Context, actor *domain.Principal) ([]AdminSummary, error) {
	if err := Authorize(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}

	profiles, err := s.profiles.ListByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}

	admins := make([]AdminSummary, 0, len(profiles))
	for _, p := range profiles {
		admins = append(admins, AdminSummary{ID: p.ID, Email: p.Email, FullName: p.FullName})
	}
	return admins, nil
}

// SyncRoles re-mirrors every profile role on behalf of an admin
func (s *RoleService) SyncRoles(ctx context.Context, actor *domain.Principal) (*SyncReport, error) {
	if err := s.requireCurrentAdmin(ctx, actor); err != nil {
		return nil, err
	}
	return s.SyncAll(ctx)
}

// SyncAll pushes each canonical profile role to the identity provider
func (s *RoleService) SyncAll(ctx context.Context) (*SyncReport, error) {
	report := &SyncReport{}

	err := s.profiles.EachBatch(ctx, syncBatchSize, func(batch []*models.Profile) error {
		for _, p := range batch {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
			}
			if s.mirror(ctx, p.ID, domain.ParseRole(p.Role)) {
				report.Synced++
			} else {
				report.Failed++
			}
		}
		return nil
	})

	entry := logrus.WithFields(logrus.Fields{
		"synced": report.Synced,
		"failed": report.Failed,
	})
	if err != nil {
		entry.WithError(err).Error("role sync aborted")
		return report, err
	}
	entry.Info("role sync completed")
	return report, nil
}
