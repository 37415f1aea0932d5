package services

import (
	"context"
	"time"

	"coinvest-api/internal/core/domain"
)

// PrincipalCache caches profile snapshots keyed by user id.
// A miss returns (nil, false, nil).
type PrincipalCache interface {
	Get(ctx context.Context, userID string) (*domain.Principal, bool, error)
	Set(ctx context.Context, principal *domain.Principal, ttl time.Duration) error
	Invalidate(ctx context.Context, userID string) error
}

// IdentityProvider mirrors canonical roles into the hosted identity store
type IdentityProvider interface {
	Name() string
	SetRole(ctx context.Context, userID string, role domain.Role) error
}

// PrincipalInvalidator drops cached authorization state for a user
type PrincipalInvalidator interface {
	Invalidate(ctx context.Context, userID string)
}
