package relay

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"github.com/AltairaLabs/incident-relay/internal/relay/config"
	"github.com/AltairaLabs/incident-relay/internal/tools"
	"github.com/AltairaLabs/incident-relay/internal/types"
)

// Server hosts the WebSocket relay, tool discovery, health endpoints and
// the MCP surface.
type Server struct {
	cfg        config.Config
	logger     *slog.Logger
	upgrader   websocket.Upgrader
	registry   *Registry
	dispatcher *Dispatcher
	engine     *Engine
	mcp        *MCPServer
	health     *health.Server
	grpc       *grpc.Server
}

// NewServer wires the relay components around backend
func NewServer(cfg config.Config, backend types.TicketBackend, logger *slog.Logger) (*Server, error) {
	registry := NewRegistry(logger)
	dispatcher := NewDispatcher(backend, NewAuditLogger(logger), logger)

	mcpServer, err := NewMCPServer(cfg.Name, cfg.Version, dispatcher, logger)
	if err != nil {
		return nil, err
	}

	hs := newHealthServer()

	return &Server{
		cfg:        cfg,
		logger:     logger,
		upgrader:   makeUpgrader(cfg.HTTP.AllowedOrigins),
		registry:   registry,
		dispatcher: dispatcher,
		engine:     NewEngine(registry, dispatcher, logger),
		mcp:        mcpServer,
		health:     hs,
		grpc:       newGRPCServer(hs),
	}, nil
}

// makeUpgrader creates a WebSocket upgrader with origin checking
func makeUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowAll := len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*")
	originSet := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originSet[o] = true
	}

	return websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if allowAll {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true // non-browser clients
			}
			return originSet[origin]
		},
	}
}

// Registry returns the live session registry
func (s *Server) Registry() *Registry {
	return s.registry
}

// Handler returns the HTTP routes served on the HTTP port
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /mcp", s.handleWebSocket)
	mux.HandleFunc("GET /tools", s.handleTools)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle(mcpBasePath+"/", s.mcp.SSEHandler())
	return mux
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Warn("websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	readLimit := s.cfg.HTTP.ReadLimit
	if readLimit <= 0 {
		readLimit = config.DefaultReadLimit
	}
	ws.SetReadLimit(readLimit)

	conn := NewWebSocketConn(ws, s.cfg.HTTP.WriteTimeout)
	if err := s.engine.Serve(r.Context(), conn); err != nil {
		s.logger.Warn("session ended with error", "remote_addr", conn.RemoteAddr(), "error", err)
	}
}

func (s *Server) handleTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, tools.Catalog())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, map[string]string{
		"status":  config.HealthStatus,
		"message": config.HealthMessage,
	})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to write response", "error", err)
	}
}
