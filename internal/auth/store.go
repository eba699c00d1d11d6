package auth

import "context"

// Keys persisted by the Session Manager.
const (
	KeyToken    = "token"
	KeyUsername = "username"
)

// Store persists the bearer token and username so a session survives process
// restarts. Get reports ok=false for a missing key; that is not an error.
// The Manager is the only writer; content managers only read.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Clear(ctx context.Context) error
}
