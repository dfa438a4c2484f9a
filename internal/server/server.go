// package server contains the middleware and handlers of the catalog JSON API
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cadence/internal/repositories"
	"github.com/desertthunder/cadence/internal/services"
	"github.com/desertthunder/cadence/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows the patterns it serves.
type Handler interface {
	http.Handler
	// Routes returns the "METHOD /path" patterns this handler serves.
	Routes() []string
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	// Use adds middleware to the router-wide stack.
	Use(middleware ...Middleware)
	// Handle registers a handler for method and path with optional route middleware.
	Handle(method, path string, handler http.Handler, mw ...Middleware)
	// Handler registers a custom Handler implementation.
	Handler(handler Handler)
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

// Options wires a [Server] to its collaborators.
type Options struct {
	Config shared.ServerConfig
	Store  *repositories.Store
	Auth   services.Authenticator
	Tokens services.TokenManager
	Logger *log.Logger
}

// Server serves the JSON API.
type Server struct {
	cfg    shared.ServerConfig
	store  *repositories.Store
	auth   services.Authenticator
	tokens services.TokenManager
	logger *log.Logger
	login  *ipLimiter
	router *BasicRouter
}

// New builds a [Server] and registers its routes.
func New(opts Options) (*Server, error) {
	if opts.Store == nil || opts.Auth == nil || opts.Tokens == nil {
		return nil, fmt.Errorf("%w: server requires a store, authenticator and token manager", shared.ErrInvalidConfig)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	s := &Server{
		cfg:    opts.Config,
		store:  opts.Store,
		auth:   opts.Auth,
		tokens: opts.Tokens,
		logger: opts.Logger,
		login:  newIPLimiter(opts.Config.LoginRate, opts.Config.LoginBurst),
		router: NewBasicRouter(),
	}
	s.routes()
	return s, nil
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := s.router
	r.Use(RequestLogger(s.logger), Recoverer(s.logger))

	authed := RequireAuth(s.tokens)

	r.Handle(http.MethodPost, "/api/register", http.HandlerFunc(s.handleRegister))
	r.Handle(http.MethodPost, "/api/login", http.HandlerFunc(s.handleLogin), RateLimit(s.login))
	r.Handle(http.MethodGet, "/api/me", http.HandlerFunc(s.handleMe), authed)
	r.Handle(http.MethodPut, "/api/me/password", http.HandlerFunc(s.handleChangePassword), authed)

	r.Handle(http.MethodGet, "/api/songs", http.HandlerFunc(s.handleListSongs))
	r.Handle(http.MethodGet, "/api/songs/search", http.HandlerFunc(s.handleSearchSongs))
	r.Handle(http.MethodGet, "/api/songs/{id}", http.HandlerFunc(s.handleSongDetail))
	r.Handle(http.MethodPost, "/api/songs/{id}/play", http.HandlerFunc(s.handlePlaySong), authed)
	r.Handle(http.MethodPut, "/api/songs/{id}/rating", http.HandlerFunc(s.handleRateSong), authed)

	r.Handle(http.MethodGet, "/api/playlists", http.HandlerFunc(s.handleListPlaylists), authed)
	r.Handle(http.MethodPost, "/api/playlists", http.HandlerFunc(s.handleCreatePlaylist), authed)
	r.Handle(http.MethodGet, "/api/playlists/{id}", http.HandlerFunc(s.handleGetPlaylist), authed)
	r.Handle(http.MethodDelete, "/api/playlists/{id}", http.HandlerFunc(s.handleDeletePlaylist), authed)
	r.Handle(http.MethodPost, "/api/playlists/{id}/songs", http.HandlerFunc(s.handleAddPlaylistSong), authed)
	r.Handle(http.MethodDelete, "/api/playlists/{id}/songs/{songID}", http.HandlerFunc(s.handleRemovePlaylistSong), authed)

	r.Handle(http.MethodGet, "/api/history", http.HandlerFunc(s.handleHistory), authed)
	r.Handle(http.MethodGet, "/api/subscription", http.HandlerFunc(s.handleGetSubscription), authed)
	r.Handle(http.MethodPut, "/api/subscription", http.HandlerFunc(s.handleSetSubscription), authed)
}

// Run serves on the configured address until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
