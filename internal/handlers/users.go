package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidfriends/ratingclient/internal/logging"
	"github.com/vidfriends/ratingclient/internal/models"
	"github.com/vidfriends/ratingclient/internal/repositories"
)

// UserHandler implements account registration.
type UserHandler struct {
	Users UserStore
	// Cost is the bcrypt cost; zero means bcrypt.DefaultCost.
	Cost    int
	NowFunc func() time.Time
}

// Register handles POST /user.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid register payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Name = strings.TrimSpace(req.Name)
	if req.Username == "" || req.Password == "" {
		respondError(ctx, w, http.StatusBadRequest, "username and password are required")
		return
	}
	if req.Name == "" {
		req.Name = req.Username
	}

	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), cost)
	if err != nil {
		logger.Error("register failed to hash password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	user := models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Name:         req.Name,
		PasswordHash: string(hashed),
		CreatedAt:    h.now(),
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "username already taken")
			return
		}
		logger.Error("register failed to create user", "error", err, "username", req.Username)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create account")
		return
	}

	respondJSON(ctx, w, http.StatusOK, models.RegisterResponse{ID: user.ID, Username: user.Username, Name: user.Name})
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
