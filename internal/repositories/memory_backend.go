package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/vidfriends/ratingclient/internal/models"
)

// MemoryUserRepository keeps development backend accounts in memory.
type MemoryUserRepository struct {
	mu         sync.RWMutex
	byUsername map[string]models.User
	byID       map[string]models.User
}

// NewMemoryUserRepository constructs an empty user repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byUsername: make(map[string]models.User),
		byID:       make(map[string]models.User),
	}
}

// Create stores user. Usernames are unique, case-insensitively.
func (r *MemoryUserRepository) Create(_ context.Context, user models.User) error {
	key := strings.ToLower(user.Username)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byUsername[key]; exists {
		return ErrConflict
	}
	r.byUsername[key] = user
	r.byID[user.ID] = user
	return nil
}

// FindByUsername fetches a user by username.
func (r *MemoryUserRepository) FindByUsername(_ context.Context, username string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byUsername[strings.ToLower(username)]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

// FindByID fetches a user by identifier.
func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byID[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

// MemoryTokenRepository maps opaque bearer tokens to user ids.
type MemoryTokenRepository struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewMemoryTokenRepository constructs an empty token repository.
func NewMemoryTokenRepository() *MemoryTokenRepository {
	return &MemoryTokenRepository{tokens: make(map[string]string)}
}

// Issue creates a new token for userID.
func (r *MemoryTokenRepository) Issue(_ context.Context, userID string) (string, error) {
	token := strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ReplaceAll(uuid.NewString(), "-", "")

	r.mu.Lock()
	r.tokens[token] = userID
	r.mu.Unlock()
	return token, nil
}

// Resolve returns the user id bound to token.
func (r *MemoryTokenRepository) Resolve(_ context.Context, token string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.tokens[token]
	if !ok {
		return "", ErrNotFound
	}
	return userID, nil
}

// Revoke invalidates token.
func (r *MemoryTokenRepository) Revoke(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[token]; !ok {
		return ErrNotFound
	}
	delete(r.tokens, token)
	return nil
}

// MemoryContentRepository keeps rated videos in memory.
type MemoryContentRepository struct {
	mu      sync.RWMutex
	records map[string]models.ContentRecord
}

// NewMemoryContentRepository constructs an empty content repository.
func NewMemoryContentRepository() *MemoryContentRepository {
	return &MemoryContentRepository{records: make(map[string]models.ContentRecord)}
}

// List returns every record, newest first.
func (r *MemoryContentRepository) List(_ context.Context) ([]models.ContentRecord, error) {
	r.mu.RLock()
	out := make([]models.ContentRecord, 0, len(r.records))
	for _, record := range r.records {
		out = append(out, record)
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Get fetches one record.
func (r *MemoryContentRepository) Get(_ context.Context, id string) (models.ContentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[id]
	if !ok {
		return models.ContentRecord{}, ErrNotFound
	}
	return record, nil
}

// Create stores a new record.
func (r *MemoryContentRepository) Create(_ context.Context, record models.ContentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[record.ID]; exists {
		return ErrConflict
	}
	r.records[record.ID] = record
	return nil
}

// Update replaces an existing record.
func (r *MemoryContentRepository) Update(_ context.Context, record models.ContentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[record.ID]; !exists {
		return ErrNotFound
	}
	r.records[record.ID] = record
	return nil
}

// Delete removes a record.
func (r *MemoryContentRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[id]; !exists {
		return ErrNotFound
	}
	delete(r.records, id)
	return nil
}
