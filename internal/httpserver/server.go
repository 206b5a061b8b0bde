// internal/httpserver/server.go
//
// HTTP server wiring for the chat gateway.
// Responsibilities:
//   - Router + middleware (JSON, timeouts, panic recovery, request IDs, request logging).
//   - Public endpoints: "/", "/health", "/debug/words".
//   - Gateway endpoints (bearer token when a secret is configured): mounted under /v1.
//
// Notes:
//   - The messaging adapter posts every channel message to /v1/messages and
//     relays the returned reply; it never talks to the game directly.
//   - Inbound traffic is throttled per channel.

package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/ciyi/internal/command"
	"github.com/robalobadob/ciyi/internal/game"
)

// Options configure the transport.
type Options struct {
	// GatewaySecret signs gateway bearer tokens; empty disables auth.
	GatewaySecret string
	// RatePerSec and RateBurst throttle each channel; zero disables throttling.
	RatePerSec float64
	RateBurst  int
	// Timeout bounds each request, including the catalog fetch.
	Timeout time.Duration
}

// Server bundles the router and the game collaborators.
type Server struct {
	r        *chi.Mux
	engine   *game.Engine
	dispatch *command.Dispatcher
	limits   *channelLimiter
	secret   string
}

// New constructs a Server, installs middleware, and registers routes.
func New(engine *game.Engine, dispatch *command.Dispatcher, opts Options) *Server {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	s := &Server{
		r:        chi.NewRouter(),
		engine:   engine,
		dispatch: dispatch,
		limits:   newChannelLimiter(opts.RatePerSec, opts.RateBurst),
		secret:   opts.GatewaySecret,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(requestLogger)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(opts.Timeout))
	s.r.Use(jsonContentType)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"service":"ciyi","endpoints":["/health","POST /v1/messages","POST /v1/commands/{name}","GET /v1/leaderboard"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
		a, g := engine.Pool().Stats()
		_ = json.NewEncoder(w).Encode(map[string]int{"answers": a, "allowed": g})
	})

	s.r.Route("/v1", func(r chi.Router) {
		r.Use(s.requireGateway())
		s.mountChat(r)
	})

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})
	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Handler exposes the router (useful for tests and custom listeners).
func (s *Server) Handler() http.Handler { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// requestLogger writes one zerolog line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("request_id", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}

// writeError writes {"error": code} with status.
func writeError(w http.ResponseWriter, status int, code string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}
