package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/vidfriends/ratingclient/internal/logging"
	"github.com/vidfriends/ratingclient/internal/models"
	"github.com/vidfriends/ratingclient/internal/repositories"
)

const maxRating = 5

// ContentHandler implements the /content endpoints. Reads are public;
// writes need a bearer token and only the poster may change a record.
type ContentHandler struct {
	Contents ContentStore
	Users    UserStore
	Tokens   TokenStore
	NowFunc  func() time.Time
}

type updateContentRequest struct {
	Comment *string `json:"comment"`
	Rating  *int    `json:"rating"`
}

// List handles GET /content.
func (h ContentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.Contents.List(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("list content failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to list content")
		return
	}
	respondJSON(ctx, w, http.StatusOK, models.Contents{Data: records})
}

// Get handles GET /content/{id}.
func (h ContentHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	record, ok := h.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(ctx, w, http.StatusOK, record)
}

// Create handles POST /content.
func (h ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, _, ok := authenticate(w, r, h.Users, h.Tokens)
	if !ok {
		return
	}

	var req models.CreateContent
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid content payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.VideoURL = strings.TrimSpace(req.VideoURL)
	if !validVideoURL(req.VideoURL) {
		respondError(ctx, w, http.StatusBadRequest, "videoUrl must be an http or https url")
		return
	}
	if req.Rating < 0 || req.Rating > maxRating {
		respondError(ctx, w, http.StatusBadRequest, "rating must be between 0 and 5")
		return
	}

	now := h.now()
	record := models.ContentRecord{
		ID:        uuid.NewString(),
		VideoURL:  req.VideoURL,
		Comment:   req.Comment,
		Rating:    req.Rating,
		PostedBy:  user.Poster(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Contents.Create(ctx, record); err != nil {
		logger.Error("create content failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to create content")
		return
	}

	respondJSON(ctx, w, http.StatusOK, record)
}

// Update handles PATCH /content/{id}. Only comment and rating change.
func (h ContentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	record, ok := h.authorizeOwner(w, r)
	if !ok {
		return
	}

	var req updateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid update payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Rating != nil && (*req.Rating < 0 || *req.Rating > maxRating) {
		respondError(ctx, w, http.StatusBadRequest, "rating must be between 0 and 5")
		return
	}

	if req.Comment != nil {
		record.Comment = *req.Comment
	}
	if req.Rating != nil {
		record.Rating = *req.Rating
	}
	record.UpdatedAt = h.now()

	if err := h.Contents.Update(ctx, record); err != nil {
		h.storeFailure(w, r, "update", err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, record)
}

// Delete handles DELETE /content/{id}.
func (h ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	record, ok := h.authorizeOwner(w, r)
	if !ok {
		return
	}
	if err := h.Contents.Delete(ctx, record.ID); err != nil {
		h.storeFailure(w, r, "delete", err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h ContentHandler) authorizeOwner(w http.ResponseWriter, r *http.Request) (models.ContentRecord, bool) {
	user, _, ok := authenticate(w, r, h.Users, h.Tokens)
	if !ok {
		return models.ContentRecord{}, false
	}

	record, ok := h.lookup(w, r)
	if !ok {
		return models.ContentRecord{}, false
	}
	if record.PostedBy == nil || record.PostedBy.ID != user.ID {
		respondError(r.Context(), w, http.StatusForbidden, "only the poster may change this record")
		return models.ContentRecord{}, false
	}
	return record, true
}

func (h ContentHandler) lookup(w http.ResponseWriter, r *http.Request) (models.ContentRecord, bool) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	record, err := h.Contents.Get(ctx, id)
	if err != nil {
		h.storeFailure(w, r, "get", err)
		return models.ContentRecord{}, false
	}
	return record, true
}

func (h ContentHandler) storeFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	if errors.Is(err, repositories.ErrNotFound) {
		respondError(ctx, w, http.StatusNotFound, "content not found")
		return
	}
	logging.FromContext(ctx).Error("content store failed", "op", op, "error", err)
	respondError(ctx, w, http.StatusInternalServerError, "content store unavailable")
}

func (h ContentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func validVideoURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
