package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/vidfriends/ratingclient/internal/logging"
	"github.com/vidfriends/ratingclient/internal/models"
	"github.com/vidfriends/ratingclient/internal/repositories"
)

// AuthHandler implements the session endpoints under /auth.
type AuthHandler struct {
	Users  UserStore
	Tokens TokenStore
}

// Login handles POST /auth/login.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req models.Credential
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		respondError(ctx, w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.Users.FindByUsername(ctx, req.Username)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			logger.Error("login user lookup failed", "username", req.Username, "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "unable to verify credentials")
			return
		}
		logger.Warn("login unknown user", "username", req.Username)
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		logger.Warn("login password mismatch", "userId", user.ID)
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.Tokens.Issue(ctx, user.ID)
	if err != nil {
		logger.Error("failed to issue token", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	respondJSON(ctx, w, http.StatusOK, models.LoginResponse{AccessToken: token})
}

// Me handles GET /auth/me. It answers 403 for tokens it does not recognise.
func (h AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, _, ok := authenticate(w, r, h.Users, h.Tokens)
	if !ok {
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, user.Poster())
}

// Logout handles GET /auth/logout by revoking the presented token.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, token, ok := authenticate(w, r, h.Users, h.Tokens)
	if !ok {
		return
	}
	if err := h.Tokens.Revoke(ctx, token); err != nil {
		logging.FromContext(ctx).Error("revoke token failed", "userId", user.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to end session")
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "logged out"})
}

// authenticate resolves the bearer token of r. It writes 401 when no token is
// presented and 403 when the token is unknown.
func authenticate(w http.ResponseWriter, r *http.Request, users UserStore, tokens TokenStore) (models.User, string, bool) {
	ctx := r.Context()

	token, ok := bearerToken(r)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "missing bearer token")
		return models.User{}, "", false
	}

	user, err := resolveUser(ctx, users, tokens, token)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusForbidden, "invalid token")
			return models.User{}, "", false
		}
		logging.FromContext(ctx).Error("token lookup failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to verify token")
		return models.User{}, "", false
	}
	return user, token, true
}

func resolveUser(ctx context.Context, users UserStore, tokens TokenStore, token string) (models.User, error) {
	userID, err := tokens.Resolve(ctx, token)
	if err != nil {
		return models.User{}, err
	}
	return users.FindByID(ctx, userID)
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
