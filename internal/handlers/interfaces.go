package handlers

import (
	"context"

	"github.com/vidfriends/ratingclient/internal/models"
)

// UserStore captures the persistence operations required by the account handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
}

// TokenStore issues and resolves opaque bearer tokens.
type TokenStore interface {
	Issue(ctx context.Context, userID string) (string, error)
	Resolve(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
}

// ContentStore persists rated videos.
type ContentStore interface {
	List(ctx context.Context) ([]models.ContentRecord, error)
	Get(ctx context.Context, id string) (models.ContentRecord, error)
	Create(ctx context.Context, record models.ContentRecord) error
	Update(ctx context.Context, record models.ContentRecord) error
	Delete(ctx context.Context, id string) error
}

// RateLimiter guards the login endpoint.
type RateLimiter interface {
	Allow(key string) bool
}
