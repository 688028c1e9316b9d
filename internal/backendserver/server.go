package backendserver

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"p2p-social/internal/message"
	"p2p-social/internal/peerlist"
)

const (
	defaultHost     = "127.0.0.1"
	defaultBasePort = 4001
	defaultRelayTTL = 10 * time.Minute
)

// Options configures a Server. Every field is optional.
type Options struct {
	// DB enables PostgreSQL persistence. Nil runs the server in stateless mode.
	DB *sql.DB
	// Store overrides the store derived from DB.
	Store  Store
	Logger *zerolog.Logger
	// Host and BasePort shape the multiaddrs handed to new identities.
	Host     string
	BasePort int
	// RelayTTL is how long an announced relay stays listed.
	RelayTTL time.Duration
}

// Server is the development backend: it issues session identities and routes
// commands and events between websocket sessions.
type Server struct {
	db       *sql.DB
	store    Store
	hub      *Hub
	relays   *peerlist.Store
	logger   zerolog.Logger
	host     string
	nextPort atomic.Int64
	upgrader websocket.Upgrader
}

func New(opts Options) *Server {
	store := opts.Store
	if store == nil {
		if opts.DB != nil {
			store = NewSQLStore(opts.DB)
		} else {
			store = NewMemoryStore()
		}
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	host := opts.Host
	if host == "" {
		host = defaultHost
	}
	base := opts.BasePort
	if base <= 0 {
		base = defaultBasePort
	}
	ttl := opts.RelayTTL
	if ttl == 0 {
		ttl = defaultRelayTTL
	}
	s := &Server{
		db:     opts.DB,
		store:  store,
		hub:    newHub(),
		relays: peerlist.NewStore(ttl),
		logger: logger,
		host:   host,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.nextPort.Store(int64(base) - 1)
	return s
}

// Hub exposes the session registry.
func (s *Server) Hub() *Hub { return s.hub }

// Router wires up chi routes, middleware, and handlers ready for http.ListenAndServe.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(s.metricsMiddleware())

	r.Post("/session", s.sessionHandler())
	r.Get("/ws", s.wsHandler())
	r.Get("/relays", s.relaysHandler())
	r.Get("/healthz", s.healthHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

func (s *Server) newIdentity() message.MyInfo {
	port := s.nextPort.Add(1)
	return message.MyInfo{
		PeerID:    message.PeerID(strings.ReplaceAll(uuid.NewString(), "-", "")),
		Multiaddr: fmt.Sprintf("/ip4/%s/tcp/%d", s.host, port),
	}
}
