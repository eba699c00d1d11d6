package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// ErrSealedValue indicates a stored value could not be opened with the configured key.
var ErrSealedValue = errors.New("sealed session value cannot be decrypted")

// SealedStore encrypts values with NaCl secretbox before handing them to the
// wrapped Store.
type SealedStore struct {
	base Store
	key  [32]byte
}

// NewSealedStore wraps base. The key may be 64 hex characters or 32 raw bytes
// encoded as standard base64; any other non-empty secret is hashed with SHA-256.
func NewSealedStore(base Store, secret string) (*SealedStore, error) {
	if base == nil {
		return nil, errors.New("sealed store: base store must not be nil")
	}
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("sealed store: encryption key must not be empty")
	}
	return &SealedStore{base: base, key: deriveKey(secret)}, nil
}

// Get opens the value stored under key.
func (s *SealedStore) Get(ctx context.Context, key string) (string, bool, error) {
	sealed, ok, err := s.base.Get(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}

	raw, err := base64.RawStdEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceSize {
		return "", false, fmt.Errorf("open %s: %w", key, ErrSealedValue)
	}

	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", false, fmt.Errorf("open %s: %w", key, ErrSealedValue)
	}
	return string(plain), true, nil
}

// Set seals value with a fresh random nonce and stores it under key.
func (s *SealedStore) Set(ctx context.Context, key, value string) error {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("seal %s: %w", key, err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(value), &nonce, &s.key)
	return s.base.Set(ctx, key, base64.RawStdEncoding.EncodeToString(sealed))
}

// Clear clears the wrapped store.
func (s *SealedStore) Clear(ctx context.Context) error {
	return s.base.Clear(ctx)
}

func deriveKey(secret string) [32]byte {
	var key [32]byte
	if raw, err := hex.DecodeString(secret); err == nil && len(raw) == len(key) {
		copy(key[:], raw)
		return key
	}
	if raw, err := base64.StdEncoding.DecodeString(secret); err == nil && len(raw) == len(key) {
		copy(key[:], raw)
		return key
	}
	return sha256.Sum256([]byte(secret))
}
