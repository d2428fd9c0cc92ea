/**
 * HTTP API Server.
 *
 * Routes the external HTTP surface spec.md §6 describes: dynamic-scan
 * lifecycle, history/results queries, live WebSocket streams, and the
 * static-scan endpoint. Grounded on the gorilla/mux + gorilla/websocket
 * pairing DataDog-datadog-agent carries in its dependency surface (the
 * only pack repo with both alongside a comparable HTTP control-plane).
 * Bearer-token auth is hand-rolled since header-parsing/auth/CORS/
 * routing internals beyond this pairing are explicit external
 * collaborators per spec.md §1. See spec.md §6/§7.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/netsentry/netsentry/internal/scheduler"
	"github.com/netsentry/netsentry/internal/staticscan"
	"github.com/netsentry/netsentry/internal/storage"
)

// defaultStaticScanTimeout bounds the whole /static_scan request,
// independent of each probe's own per-probe timeout (spec.md §6: "504
// if static scan exceeds its global timeout").
const defaultStaticScanTimeout = 30 * time.Second

// Server wires the Store, Scheduler, and static-scan Orchestrator to
// an HTTP mux.
type Server struct {
	store        *storage.Store
	scheduler    *scheduler.Scheduler
	orchestrator *staticscan.Orchestrator
	token        string
	log          *zap.Logger
	upgrader     websocket.Upgrader

	staticScanTimeout time.Duration
}

// Config bundles Server's dependencies.
type Config struct {
	Store             *storage.Store
	Scheduler         *scheduler.Scheduler
	Orchestrator      *staticscan.Orchestrator
	Token             string // empty disables bearer-token auth entirely
	StaticScanTimeout time.Duration
}

// New builds a Server. Call Router to obtain the http.Handler to serve.
func New(cfg Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.StaticScanTimeout
	if timeout <= 0 {
		timeout = defaultStaticScanTimeout
	}
	return &Server{
		store:             cfg.Store,
		scheduler:         cfg.Scheduler,
		orchestrator:      cfg.Orchestrator,
		token:             cfg.Token,
		log:               log,
		staticScanTimeout: timeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Router builds the full gorilla/mux router, including every path
// alias spec.md §6 lists.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.authMiddleware)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	for _, base := range []string{"/scan/dynamic", "/dynamic-scan", "/dynamic_scan"} {
		r.HandleFunc(base+"/start", s.handleStart).Methods(http.MethodPost)
		r.HandleFunc(base+"/stop", s.handleStop).Methods(http.MethodPost)
		r.HandleFunc(base+"/results", s.handleResults).Methods(http.MethodGet)
		r.HandleFunc(base+"/history", s.handleHistory).Methods(http.MethodGet)
	}

	r.HandleFunc("/dynamic-scan/dns-history", s.handleDNSHistory).Methods(http.MethodGet)

	for _, path := range []string{"/ws/scan/dynamic", "/ws/dynamic-scan"} {
		r.HandleFunc(path, s.handleWSFindings)
	}
	r.HandleFunc("/ws/device-alerts", s.handleWSDeviceAlerts)

	r.HandleFunc("/static_scan", s.handleStaticScan).Methods(http.MethodGet)

	return r
}

func (s *Server) staticScanContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, s.staticScanTimeout)
}
