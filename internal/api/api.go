// Package api provides the bot's inbound HTTP surface: a signed webhook the
// content system calls to announce events, and a health endpoint.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/calloutkit/calloutbot/internal/events"
)

// Opts holds configuration options for the API server.
type Opts struct {
	Addr    string
	Secret  string
	Allowed []string
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) {
		o.Addr = addr
	}
}

// WithSecret sets the shared HMAC secret webhook tokens are signed with.
func WithSecret(secret string) Option {
	return func(o *Opts) {
		o.Secret = secret
	}
}

// WithAllowedEvents sets the webhook event names the server accepts, in
// scope form (e.g. "callout:updated").
func WithAllowedEvents(names ...string) Option {
	return func(o *Opts) {
		o.Allowed = append(o.Allowed, names...)
	}
}

// Server is the webhook HTTP server. Each accepted webhook call is emitted
// on the event bus under the event name derived from its path.
type Server struct {
	addr    string
	secret  []byte
	allowed map[string]bool
	bus     *events.Dispatcher
	srv     *http.Server
}

// NewServer creates the API server, applying any provided options.
func NewServer(bus *events.Dispatcher, opts ...Option) (*Server, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Secret == "" {
		return nil, fmt.Errorf("api server requires a webhook secret")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}

	allowed := make(map[string]bool, len(cfg.Allowed))
	for _, name := range cfg.Allowed {
		allowed[name] = true
	}
	return &Server{
		addr:    cfg.Addr,
		secret:  []byte(cfg.Secret),
		allowed: allowed,
		bus:     bus,
	}, nil
}

// Handler returns the server's route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /webhook/", s.handleWebhook)
	return mux
}

// Start begins serving in the background.
func (s *Server) Start() {
	s.srv = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("API.Start: listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("API.Start: server failed", "error", err)
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleWebhook verifies the bearer token and emits the event named by the
// request path. Token failures answer 401 with the verification error as the
// body; unknown event names answer 401 with a generic error.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/webhook/"), "/")
	name = strings.ReplaceAll(name, "/", events.ScopeSeparator)

	if err := s.verifyToken(r); err != nil {
		slog.Warn("API.handleWebhook: token verification failed", "error", err, "path", r.URL.Path)
		writeUnauthorized(w, err.Error())
		return
	}
	if !s.allowed[name] {
		slog.Warn("API.handleWebhook: unknown event name", "event", name)
		writeUnauthorized(w, "unauthorized")
		return
	}

	s.bus.Emit(r.Context(), descriptorForName(name), nil)
	slog.Info("API.handleWebhook: event emitted", "event", name)
	w.WriteHeader(http.StatusAccepted)
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func (s *Server) verifyToken(r *http.Request) error {
	raw, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found || raw == "" {
		return fmt.Errorf("missing bearer token")
	}
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return fmt.Errorf("token verification failed: %w", err)
	}
	if !token.Valid {
		return fmt.Errorf("token is not valid")
	}
	return nil
}

// descriptorForName maps an event name's segments onto the bus descriptor:
// category, then subcategory, then payload key.
func descriptorForName(name string) events.Descriptor {
	parts := strings.SplitN(name, events.ScopeSeparator, 3)
	desc := events.Descriptor{Category: parts[0]}
	if len(parts) > 1 {
		desc.Subcategory = parts[1]
	}
	if len(parts) > 2 {
		desc.PayloadKey = parts[2]
	}
	return desc
}
