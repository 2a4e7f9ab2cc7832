package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/shortlink/pkg/config"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, links ports.LinkService, auth ports.AuthService, health *HealthHandler) http.Handler {
	h := NewHTTPHandler(links, cfg.BaseURL)
	authHandler := NewAuthHandler(cfg, auth)
	mw := NewMiddleware(auth)

	required := func(fn http.HandlerFunc) http.Handler { return mw.RequireAuth(fn) }

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz)

	// Auth
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.Handle("POST /api/v1/auth/logout", required(authHandler.Logout))
	mux.Handle("GET /api/v1/auth/me", required(authHandler.Me))
	if cfg.GoogleEnabled() {
		mux.HandleFunc("GET /auth/google/login", authHandler.GoogleLogin)
		mux.HandleFunc("GET /auth/google/callback", authHandler.GoogleCallback)
	}

	// Links
	mux.Handle("POST /api/v1/links", mw.OptionalAuth(http.HandlerFunc(h.Create)))
	mux.Handle("GET /api/v1/links", required(h.List))
	mux.HandleFunc("GET /api/v1/links/search", h.Search)
	mux.Handle("GET /api/v1/links/{short_code}/stats", required(h.Stats))
	mux.Handle("PUT /api/v1/links/{short_code}", required(h.Update))
	mux.Handle("DELETE /api/v1/links/{short_code}", required(h.Delete))

	// Resolution
	mux.HandleFunc("GET /api/v1/resolve/{short_code}", h.Resolve)
	mux.HandleFunc("GET /{short_code}", h.Redirect)

	return RequestLogger(mux)
}
