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

// Item caches a single record and exposes in-flight flags for it.
type Item struct {
	gateway Gateway
	tokens  TokenSource
	logger  *slog.Logger

	loading    atomic.Bool
	submitting atomic.Bool
	deleting   atomic.Bool

	mu      sync.RWMutex
	id      string
	record  *models.ContentRecord
	deleted bool
}

// NewItem constructs an Item for id. Call Load (or SetID) to fetch it.
func NewItem(gw Gateway, tokens TokenSource, id string, logger *slog.Logger) *Item {
	if logger == nil {
		logger = slog.Default()
	}
	return &Item{gateway: gw, tokens: tokens, id: id, logger: logger}
}

// ID returns the identifier the Item currently tracks.
func (it *Item) ID() string {
	it.mu.RLock()
	defer it.mu.RUnlock()
	return it.id
}

// Record returns the cached record, if one has been loaded.
func (it *Item) Record() (models.ContentRecord, bool) {
	it.mu.RLock()
	defer it.mu.RUnlock()
	if it.record == nil {
		return models.ContentRecord{}, false
	}
	return *it.record, true
}

// Loading reports whether a fetch is in flight.
func (it *Item) Loading() bool { return it.loading.Load() }

// Submitting reports whether an edit is in flight.
func (it *Item) Submitting() bool { return it.submitting.Load() }

// Deleting reports whether a delete is in flight.
func (it *Item) Deleting() bool { return it.deleting.Load() }

// Deleted reports whether the record was deleted through this Item.
func (it *Item) Deleted() bool {
	it.mu.RLock()
	defer it.mu.RUnlock()
	return it.deleted
}

// SetID switches the Item to another identifier, drops the cached record and
// fetches the new one.
func (it *Item) SetID(ctx context.Context, id string) error {
	it.mu.Lock()
	changed := it.id != id
	it.id = id
	if changed {
		it.record = nil
		it.deleted = false
	}
	it.mu.Unlock()
	return it.Load(ctx)
}

// Load fetches the record. On failure the previous record (if any) is kept.
func (it *Item) Load(ctx context.Context) error {
	id := it.ID()
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("load content: %w: empty id", ErrInvalidInput)
	}

	it.loading.Store(true)
	defer it.loading.Store(false)

	record, err := it.gateway.GetContent(ctx, id)
	if err != nil {
		it.logger.Error("fetch content failed", "id", id, "error", err)
		return fmt.Errorf("load content %s: %w", id, err)
	}

	it.mu.Lock()
	if it.id == id {
		it.record = &record
		it.deleted = false
	}
	it.mu.Unlock()
	return nil
}

// Edit updates comment and rating. On success the confirmed values are merged
// into the cached record.
func (it *Item) Edit(ctx context.Context, comment string, rating int) error {
	id := it.ID()
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("edit content: %w: empty id", ErrInvalidInput)
	}
	if it.Deleted() {
		return fmt.Errorf("edit content %s: %w", id, ErrDeleted)
	}

	token, err := storedToken(ctx, it.tokens)
	if err != nil {
		it.logger.Error("edit content without session", "id", id, "error", err)
		return fmt.Errorf("edit content %s: %w", id, err)
	}

	it.submitting.Store(true)
	defer it.submitting.Store(false)

	if err := it.gateway.UpdateContent(ctx, token, id, models.UpdateContent{Comment: comment, Rating: rating}); err != nil {
		it.logger.Error("edit content failed", "id", id, "error", err)
		return fmt.Errorf("edit content %s: %w", id, err)
	}

	it.mu.Lock()
	if it.id == id && it.record != nil {
		it.record.Comment = comment
		it.record.Rating = rating
	}
	it.mu.Unlock()
	return nil
}

// Delete removes the record on the backend and drops the cached copy. Other
// views holding the same record are not notified.
func (it *Item) Delete(ctx context.Context) error {
	id := it.ID()
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("delete content: %w: empty id", ErrInvalidInput)
	}
	token, err := storedToken(ctx, it.tokens)
	if err != nil {
		it.logger.Error("delete content without session", "id", id, "error", err)
		return fmt.Errorf("delete content %s: %w", id, err)
	}

	it.deleting.Store(true)
	defer it.deleting.Store(false)

	if err := it.gateway.DeleteContent(ctx, token, id); err != nil {
		it.logger.Error("delete content failed", "id", id, "error", err)
		return fmt.Errorf("delete content %s: %w", id, err)
	}

	it.mu.Lock()
	if it.id == id {
		it.record = nil
		it.deleted = true
	}
	it.mu.Unlock()
	return nil
}
