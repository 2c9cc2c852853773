package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"todoboard-backend/internal/analytics"
	"todoboard-backend/internal/auth"
	"todoboard-backend/internal/tasks"
)

// Deps is everything the HTTP layer serves.
type Deps struct {
	Boards   *tasks.Registry
	Users    *auth.Users
	Issuer   auth.Issuer
	Recorder *analytics.Recorder
}

// Server is the todo board HTTP server.
type Server struct {
	httpServer *http.Server
}

// NewServer wires routes and CORS for the given address.
func NewServer(addr string, allowedOrigins []string, deps Deps) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewHandler(allowedOrigins, deps),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// NewHandler returns the full router wrapped in CORS.
func NewHandler(allowedOrigins []string, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	mw := auth.New(deps.Issuer.Secret)

	r.Get("/health", handleHealth)

	r.Route("/auth", auth.Routes(deps.Users, deps.Issuer, deps.Recorder))

	r.Route("/api", func(r chi.Router) {
		// a token is optional: boards belong to the client, analytics want the user
		r.Use(mw.Optional)

		tasks.Routes(deps.Boards, deps.Recorder)(r)

		r.Post("/analytics/app-opened", analytics.AppOpenedHandler(deps.Recorder))
		r.Get("/events", analytics.RecentEventsHandler(deps.Recorder))
	})

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Content-Type", "Authorization",
			"X-Client-Id", "X-Session-Id", "X-Platform", "X-App-Version",
			"X-Device-Locale", "X-Source-Event-Key", "Idempotency-Key",
		},
		AllowCredentials: true,
	})

	return c.Handler(r)
}

// Start begins listening. It blocks until the server is stopped.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	slog.Info("todo API listening", "addr", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
