package server

import (
	"context"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/keycustody/pkg/authenticator"
	"github.com/doodlesbykumbi/keycustody/pkg/config"
	"github.com/doodlesbykumbi/keycustody/pkg/keys"
	"github.com/doodlesbykumbi/keycustody/pkg/server/middleware"
	"github.com/doodlesbykumbi/keycustody/pkg/server/store"
	"github.com/doodlesbykumbi/keycustody/pkg/token"
)

// Options are the collaborators a Server routes requests to
type Options struct {
	Authenticator *authenticator.Authenticator
	Tokens        *token.Issuer
	Keys          *keys.Service
	HealthStore   store.HealthStore
	Config        *config.CustodyConfig
}

type Server struct {
	Authenticator    *authenticator.Authenticator
	Tokens           *token.Issuer
	Keys             *keys.Service
	HealthStore      store.HealthStore
	Config           *config.CustodyConfig
	BearerMiddleware *middleware.BearerAuthenticator
	Router           *mux.Router
	srv              *http.Server
}

func NewServer(opts Options, host string, port string) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.NewDefault()
	}

	router := mux.NewRouter()
	s := &Server{
		Authenticator:    opts.Authenticator,
		Tokens:           opts.Tokens,
		Keys:             opts.Keys,
		HealthStore:      opts.HealthStore,
		Config:           cfg,
		BearerMiddleware: middleware.NewBearerAuthenticator(opts.Tokens, opts.Authenticator),
		Router:           router,
	}

	s.srv = &http.Server{
		Handler: s.Handler(),
		Addr:    net.JoinHostPort(host, port),
		// Good practice: enforce timeouts for servers you create!
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}
	return s
}

// Handler returns the router wrapped in the access log, panic recovery,
// CORS and request id middleware.
func (s *Server) Handler() http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins(s.Config.CORSAllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", middleware.RequestIDHeader}),
		handlers.ExposedHeaders([]string{middleware.RequestIDHeader}),
	)

	var h http.Handler = s.Router
	h = middleware.RequestID(h)
	h = cors(h)
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)
	return handlers.LoggingHandler(os.Stdout, h)
}

// Protect wraps h with bearer authentication.
func (s *Server) Protect(h http.HandlerFunc) http.Handler {
	return s.BearerMiddleware.Middleware(h)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.srv.Addr
}

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// StartWithListener serves on an existing listener, for tests that bind port 0.
func (s *Server) StartWithListener(l net.Listener) error {
	return s.srv.Serve(l)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
