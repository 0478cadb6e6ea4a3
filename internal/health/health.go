// Package health serves liveness, readiness and runtime counters over HTTP.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Vladislavbro/tango-bot/core/logger"
)

const component = "health"

// Config configures the ops server. An empty Listen disables it.
type Config struct {
	Listen string `yaml:"listen" envconfig:"HEALTH_LISTEN"`
}

// Check is a named readiness probe.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Stats is the payload of /stats.
type Stats struct {
	ActiveSessions   int    `json:"active_sessions"`
	PendingTimeouts  int    `json:"pending_timeouts"`
	MessagesSent     uint64 `json:"messages_sent"`
	DeliveryFailures uint64 `json:"delivery_failures"`
	SendQueue        int    `json:"send_queue"`
	JournalWritten   uint64 `json:"journal_written"`
	JournalDropped   uint64 `json:"journal_dropped"`
}

// Options configure the handler.
type Options struct {
	Checks       []Check
	Stats        func() Stats
	CheckTimeout time.Duration
	Now          func() time.Time
	// Version is reported by /healthz.
	Version string
}

// NewHandler builds the chi router serving /healthz, /readyz and /stats.
func NewHandler(opts Options) http.Handler {
	if opts.CheckTimeout <= 0 {
		opts.CheckTimeout = 2 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(10 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		body := map[string]any{
			"status":    "ok",
			"timestamp": opts.Now().UnixMilli(),
		}
		if opts.Version != "" {
			body["version"] = opts.Version
		}
		writeJSON(w, http.StatusOK, body)
	})

	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		checks := make(map[string]string, len(opts.Checks))
		status, code := "ok", http.StatusOK
		for _, c := range opts.Checks {
			ctx, cancel := context.WithTimeout(req.Context(), opts.CheckTimeout)
			err := c.Ping(ctx)
			cancel()
			if err != nil {
				logger.Warn(req.Context(), component, "ready.check",
					slog.String("status", "error"),
					slog.String("check", c.Name),
					slog.String("err", err.Error()),
				)
				checks[c.Name] = "unreachable"
				status, code = "degraded", http.StatusServiceUnavailable
				continue
			}
			checks[c.Name] = "ok"
		}
		writeJSON(w, code, map[string]any{"status": status, "checks": checks})
	})

	r.Get("/stats", func(w http.ResponseWriter, _ *http.Request) {
		var stats Stats
		if opts.Stats != nil {
			stats = opts.Stats()
		}
		writeJSON(w, http.StatusOK, stats)
	})

	return r
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// Server runs the ops handler until Shutdown.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// Start binds addr and serves in the background.
func Start(addr string, h http.Handler) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &Server{
		srv: &http.Server{
			Handler:           h,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		ln: ln,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), component, "server.error", slog.String("err", err.Error()))
		}
	}()
	logger.Info(context.Background(), component, "server.started", slog.String("addr", ln.Addr().String()))
	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
