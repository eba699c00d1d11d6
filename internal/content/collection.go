package content

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/vidfriends/ratingclient/internal/models"
)

// Collection caches the full record list. There is no pagination.
type Collection struct {
	gateway Gateway
	tokens  TokenSource
	logger  *slog.Logger

	loading atomic.Bool
	posting atomic.Bool

	mu      sync.RWMutex
	records []models.ContentRecord
	loaded  bool
}

// NewCollection constructs an empty Collection. Call Load to fetch it.
func NewCollection(gw Gateway, tokens TokenSource, logger *slog.Logger) *Collection {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collection{gateway: gw, tokens: tokens, logger: logger}
}

// Records returns a copy of the cached records and whether a load has succeeded.
func (c *Collection) Records() ([]models.ContentRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.ContentRecord, len(c.records))
	copy(out, c.records)
	return out, c.loaded
}

// Loading reports whether a fetch is in flight.
func (c *Collection) Loading() bool { return c.loading.Load() }

// Posting reports whether a create is in flight.
func (c *Collection) Posting() bool { return c.posting.Load() }

// Load fetches the whole collection. On failure the previous list is kept.
func (c *Collection) Load(ctx context.Context) error {
	c.loading.Store(true)
	defer c.loading.Store(false)

	records, err := c.gateway.ListContent(ctx)
	if err != nil {
		c.logger.Error("fetch content list failed", "error", err)
		return fmt.Errorf("load contents: %w", err)
	}

	c.mu.Lock()
	c.records = records
	c.loaded = true
	c.mu.Unlock()
	return nil
}

// Create posts a new record and then reloads the collection so the record is
// visible. A failed reload after a successful create is returned but the
// create itself is not retried.
func (c *Collection) Create(ctx context.Context, videoURL, comment string, rating int) error {
	videoURL = strings.TrimSpace(videoURL)
	if videoURL == "" {
		return fmt.Errorf("create content: %w: video url is required", ErrInvalidInput)
	}

	token, err := storedToken(ctx, c.tokens)
	if err != nil {
		c.logger.Error("create content without session", "error", err)
		return fmt.Errorf("create content: %w", err)
	}

	c.posting.Store(true)
	err = c.gateway.CreateContent(ctx, token, models.CreateContent{VideoURL: videoURL, Comment: comment, Rating: rating})
	c.posting.Store(false)
	if err != nil {
		c.logger.Error("create content failed", "videoUrl", videoURL, "error", err)
		return fmt.Errorf("create content: %w", err)
	}

	return c.Load(ctx)
}
