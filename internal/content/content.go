// Package content fetches and mutates rated video records on behalf of views.
// Item manages one record, Collection the full list. Both read the bearer
// token from the session store directly before each mutating call.
package content

import (
	"context"
	"errors"

	"github.com/vidfriends/ratingclient/internal/auth"
	"github.com/vidfriends/ratingclient/internal/models"
)

var (
	// ErrNotAuthenticated is returned by mutating calls when no token is stored.
	ErrNotAuthenticated = errors.New("no session token stored")
	// ErrInvalidInput is returned before any request is sent for malformed input.
	ErrInvalidInput = errors.New("invalid content input")
	// ErrDeleted is returned by calls on an Item whose record was deleted.
	ErrDeleted = errors.New("content record was deleted")
)

// Gateway is the subset of the backend client used for content records.
type Gateway interface {
	GetContent(ctx context.Context, id string) (models.ContentRecord, error)
	ListContent(ctx context.Context) ([]models.ContentRecord, error)
	CreateContent(ctx context.Context, token string, in models.CreateContent) error
	UpdateContent(ctx context.Context, token, id string, in models.UpdateContent) error
	DeleteContent(ctx context.Context, token, id string) error
}

// TokenSource is the read side of the session store.
type TokenSource interface {
	Get(ctx context.Context, key string) (string, bool, error)
}

func storedToken(ctx context.Context, tokens TokenSource) (string, error) {
	token, ok, err := tokens.Get(ctx, auth.KeyToken)
	if err != nil {
		return "", err
	}
	if !ok || token == "" {
		return "", ErrNotAuthenticated
	}
	return token, nil
}
