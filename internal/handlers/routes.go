package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vidfriends/ratingclient/internal/middleware"
	"github.com/vidfriends/ratingclient/internal/repositories"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users        UserStore
	Tokens       TokenStore
	Contents     ContentStore
	LoginLimiter RateLimiter
	// PasswordCost is the bcrypt cost for new accounts; zero means the default.
	PasswordCost int
}

// NewRouter wires the rating backend routes, wrapped in request logging.
func NewRouter(deps Dependencies, logger *slog.Logger) http.Handler {
	health := HealthHandler{}
	auth := AuthHandler{Users: deps.Users, Tokens: deps.Tokens}
	users := UserHandler{Users: deps.Users, Cost: deps.PasswordCost}
	content := ContentHandler{Contents: deps.Contents, Users: deps.Users, Tokens: deps.Tokens}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", health.Handle).Methods(http.MethodGet)

	var login http.Handler = http.HandlerFunc(auth.Login)
	if deps.LoginLimiter != nil {
		login = middleware.Limit(deps.LoginLimiter, "login")(login)
	}
	r.Handle("/auth/login", login).Methods(http.MethodPost)
	r.HandleFunc("/auth/me", auth.Me).Methods(http.MethodGet)
	r.HandleFunc("/auth/logout", auth.Logout).Methods(http.MethodGet)

	r.HandleFunc("/user", users.Register).Methods(http.MethodPost)

	r.HandleFunc("/content", content.List).Methods(http.MethodGet)
	r.HandleFunc("/content", content.Create).Methods(http.MethodPost)
	r.HandleFunc("/content/{id}", content.Get).Methods(http.MethodGet)
	r.HandleFunc("/content/{id}", content.Update).Methods(http.MethodPatch)
	r.HandleFunc("/content/{id}", content.Delete).Methods(http.MethodDelete)

	return middleware.RequestLogger(logger)(r)
}

// NewMemoryDependencies returns Dependencies backed by in-memory repositories.
func NewMemoryDependencies() Dependencies {
	return Dependencies{
		Users:    repositories.NewMemoryUserRepository(),
		Tokens:   repositories.NewMemoryTokenRepository(),
		Contents: repositories.NewMemoryContentRepository(),
	}
}
