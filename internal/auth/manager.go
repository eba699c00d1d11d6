package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/vidfriends/ratingclient/internal/gateway"
	"github.com/vidfriends/ratingclient/internal/logging"
	"github.com/vidfriends/ratingclient/internal/models"
)

// State is the login state of a Manager.
type State int

const (
	// StateUnchecked is the initial state before the startup validity check.
	StateUnchecked State = iota
	// StateAnonymous means no valid session is held.
	StateAnonymous
	// StateAuthenticated means a token the backend accepted is held.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnchecked:
		return "unchecked"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Gateway is the subset of the backend client used for authentication.
type Gateway interface {
	Me(ctx context.Context, token string) (int, error)
	Login(ctx context.Context, cred models.Credential) (models.LoginResponse, error)
	Logout(ctx context.Context, token string) error
	Register(ctx context.Context, req models.RegisterRequest) (models.RegisterResponse, error)
}

// Manager owns the session lifecycle: startup check, login, logout and
// registration. It is the only writer of the Store.
type Manager struct {
	gateway Gateway
	store   Store
	logger  *slog.Logger

	mu       sync.RWMutex
	state    State
	username string
}

// NewManager constructs a Manager in StateUnchecked.
func NewManager(gw Gateway, store Store, logger *slog.Logger) *Manager {
	if gw == nil {
		panic("auth: gateway must not be nil")
	}
	if store == nil {
		panic("auth: session store must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{gateway: gw, store: store, logger: logger}
}

// Start runs the startup validity check against whatever token is in the
// Store and seeds the login state from its result. Infrastructure failures
// are returned and leave the Manager in StateUnchecked.
func (m *Manager) Start(ctx context.Context) error {
	token, hasToken, err := m.store.Get(ctx, KeyToken)
	if err != nil {
		return fmt.Errorf("read session token: %w", err)
	}
	username, hasUsername, err := m.store.Get(ctx, KeyUsername)
	if err != nil {
		return fmt.Errorf("read session username: %w", err)
	}

	if !hasToken || token == "" {
		m.setState(StateAnonymous, username)
		return nil
	}

	valid, err := m.CheckSessionValidity(ctx, token)
	if err != nil {
		return err
	}

	switch {
	case valid && hasUsername && username != "":
		m.setState(StateAuthenticated, username)
	case valid:
		m.logger.Warn("stored token is valid but username is missing; treating session as anonymous")
		m.setState(StateAnonymous, "")
	default:
		m.logger.Info("stored token rejected by backend", "username", username)
		m.setState(StateAnonymous, username)
	}
	return nil
}

// CheckSessionValidity asks the backend identity endpoint about token. It
// returns true on 200 and false on 403 (or another 2xx). Any other outcome is
// an *InfrastructureError. A rejected token that matches the stored one
// moves the Manager to StateAnonymous.
func (m *Manager) CheckSessionValidity(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	status, err := m.gateway.Me(ctx, token)
	if err != nil {
		if gateway.IsStatus(err, http.StatusForbidden) {
			m.dropRejected(ctx, token)
			return false, nil
		}
		return false, &InfrastructureError{Err: err}
	}
	if status != http.StatusOK {
		m.dropRejected(ctx, token)
		return false, nil
	}
	return true, nil
}

func (m *Manager) dropRejected(ctx context.Context, token string) {
	stored, ok, err := m.store.Get(ctx, KeyToken)
	if err != nil || !ok || stored != token {
		return
	}
	m.setState(StateAnonymous, m.Username())
}

// Login exchanges the credential for a token, persists token and username,
// and marks the session authenticated before returning. Every backend
// failure collapses to ErrAuthentication.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	logger := logging.FromContext(ctx)

	resp, err := m.gateway.Login(ctx, models.Credential{Username: username, Password: password})
	if err != nil {
		logger.Warn("login rejected", "username", username, "error", err)
		return ErrAuthentication
	}
	if strings.TrimSpace(resp.AccessToken) == "" {
		logger.Warn("login response carried no access token", "username", username)
		return ErrAuthentication
	}

	if err := m.store.Set(ctx, KeyToken, resp.AccessToken); err != nil {
		return fmt.Errorf("persist session token: %w", err)
	}
	if err := m.store.Set(ctx, KeyUsername, username); err != nil {
		return fmt.Errorf("persist session username: %w", err)
	}

	m.setState(StateAuthenticated, username)
	return nil
}

// Logout marks the session anonymous immediately, then invalidates the token
// on the backend. Persisted session state is cleared whatever the network
// outcome; a backend failure is returned as a *SessionError.
func (m *Manager) Logout(ctx context.Context) error {
	m.setState(StateAnonymous, "")

	token, hasToken, readErr := m.store.Get(ctx, KeyToken)

	var remoteErr error
	if readErr == nil && hasToken && token != "" {
		remoteErr = m.gateway.Logout(ctx, token)
	}

	if err := m.store.Clear(ctx); err != nil {
		clearErr := fmt.Errorf("clear session: %w", err)
		if remoteErr != nil {
			return &SessionError{Err: errors.Join(remoteErr, clearErr)}
		}
		return clearErr
	}

	if readErr != nil {
		return fmt.Errorf("read session token: %w", readErr)
	}
	if remoteErr != nil {
		logging.FromContext(ctx).Error("token invalidation failed", "error", remoteErr)
		return &SessionError{Err: remoteErr}
	}
	return nil
}

// Register creates an account. It never changes session state. Failures are
// logged and returned wrapped in ErrRegistration.
func (m *Manager) Register(ctx context.Context, username, password, displayName string) (string, error) {
	resp, err := m.gateway.Register(ctx, models.RegisterRequest{Username: username, Password: password, Name: displayName})
	if err != nil {
		logging.FromContext(ctx).Error("registration failed", "username", username, "error", err)
		return "", fmt.Errorf("%w: %w", ErrRegistration, err)
	}
	logging.FromContext(ctx).Info("registered user", "name", resp.Name)
	return resp.Name, nil
}

// State returns the current login state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsLoggedIn reports whether the session is authenticated.
func (m *Manager) IsLoggedIn() bool {
	return m.State() == StateAuthenticated
}

// Username returns the username known to the session, which may be set while
// anonymous if a stale session was found in the Store.
func (m *Manager) Username() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.username
}

// Session returns a snapshot of the current session.
func (m *Manager) Session(ctx context.Context) (models.Session, error) {
	m.mu.RLock()
	snapshot := models.Session{Username: m.username, LoggedIn: m.state == StateAuthenticated}
	m.mu.RUnlock()

	token, _, err := m.store.Get(ctx, KeyToken)
	if err != nil {
		return models.Session{}, fmt.Errorf("read session token: %w", err)
	}
	snapshot.Token = token
	if snapshot.LoggedIn && token == "" {
		snapshot.LoggedIn = false
	}
	return snapshot, nil
}

// IsInfrastructureError reports whether err came from an unreachable or
// misbehaving backend during the validity check.
func IsInfrastructureError(err error) bool {
	var infra *InfrastructureError
	return errors.As(err, &infra)
}

func (m *Manager) setState(state State, username string) {
	m.mu.Lock()
	m.state = state
	m.username = username
	m.mu.Unlock()
}
