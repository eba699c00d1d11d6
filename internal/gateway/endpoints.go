package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/vidfriends/ratingclient/internal/models"
)

// Me calls GET /auth/me with token and returns the response status.
// A 403 is returned as a *StatusError like every other non-2xx status.
func (c *Client) Me(ctx context.Context, token string) (int, error) {
	return c.do(ctx, request{op: "auth.me", method: http.MethodGet, path: "/auth/me", token: token})
}

// Login exchanges a credential for an access token.
func (c *Client) Login(ctx context.Context, cred models.Credential) (models.LoginResponse, error) {
	var out models.LoginResponse
	_, err := c.do(ctx, request{op: "auth.login", method: http.MethodPost, path: "/auth/login", body: cred, out: &out})
	return out, err
}

// Logout invalidates token on the backend.
func (c *Client) Logout(ctx context.Context, token string) error {
	_, err := c.do(ctx, request{op: "auth.logout", method: http.MethodGet, path: "/auth/logout", token: token})
	return err
}

// Register creates a user account.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (models.RegisterResponse, error) {
	var out models.RegisterResponse
	_, err := c.do(ctx, request{op: "user.register", method: http.MethodPost, path: "/user", body: req, out: &out})
	return out, err
}

// GetContent fetches one record.
func (c *Client) GetContent(ctx context.Context, id string) (models.ContentRecord, error) {
	var out models.ContentRecord
	_, err := c.do(ctx, request{op: "content.get", method: http.MethodGet, path: contentPath(id), out: &out})
	return out, err
}

// ListContent fetches the full collection.
func (c *Client) ListContent(ctx context.Context) ([]models.ContentRecord, error) {
	var out models.Contents
	if _, err := c.do(ctx, request{op: "content.list", method: http.MethodGet, path: "/content", out: &out}); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// CreateContent posts a new record.
func (c *Client) CreateContent(ctx context.Context, token string, in models.CreateContent) error {
	_, err := c.do(ctx, request{op: "content.create", method: http.MethodPost, path: "/content", token: token, body: in})
	return err
}

// UpdateContent sends a partial update of comment and rating.
func (c *Client) UpdateContent(ctx context.Context, token, id string, in models.UpdateContent) error {
	_, err := c.do(ctx, request{op: "content.update", method: http.MethodPatch, path: contentPath(id), token: token, body: in})
	return err
}

// DeleteContent removes a record.
func (c *Client) DeleteContent(ctx context.Context, token, id string) error {
	_, err := c.do(ctx, request{op: "content.delete", method: http.MethodDelete, path: contentPath(id), token: token})
	return err
}

func contentPath(id string) string {
	return "/content/" + url.PathEscape(id)
}
