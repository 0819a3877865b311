package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AltairaLabs/incident-relay/internal/protocol"
)

// ErrAlreadyRegistered is returned when a transport already has a live session
var ErrAlreadyRegistered = errors.New("transport already registered")

// registeredSession is one live connection. mu serializes writes to conn and
// guards closed, so different sessions never contend on the write path.
type registeredSession struct {
	info   SessionInfo
	conn   Conn
	mu     sync.Mutex
	closed bool
}

// Registry tracks live sessions keyed by generated session id
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*registeredSession
	byConn   map[Conn]string
	newID    func() string
	logger   *slog.Logger
}

// NewRegistry creates an empty session registry
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*registeredSession),
		byConn:   make(map[Conn]string),
		newID:    protocol.NewID,
		logger:   logger,
	}
}

// Register assigns a fresh session id to conn
func (r *Registry) Register(conn Conn) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byConn[conn]; ok {
		return "", fmt.Errorf("%w: session %s", ErrAlreadyRegistered, id)
	}

	id := r.newID()
	for _, taken := r.sessions[id]; taken; _, taken = r.sessions[id] {
		id = r.newID()
	}

	r.sessions[id] = &registeredSession{
		info: SessionInfo{
			ID:         id,
			RemoteAddr: conn.RemoteAddr(),
			CreatedAt:  time.Now(),
		},
		conn: conn,
	}
	r.byConn[conn] = id
	return id, nil
}

// Deregister removes a session. Unknown or already removed ids are ignored.
func (r *Registry) Deregister(sessionID string) {
	r.mu.RLock()
	s := r.sessions[sessionID]
	r.mu.RUnlock()
	if s == nil {
		return
	}

	// Waits for an in-flight send on this session to finish.
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	r.remove(sessionID, s)
}

// remove drops s from the maps if it is still the entry for sessionID
func (r *Registry) remove(sessionID string, s *registeredSession) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sessions[sessionID] != s {
		return
	}
	delete(r.sessions, sessionID)
	delete(r.byConn, s.conn)
}

// Lookup returns the transport registered under sessionID
func (r *Registry) Lookup(sessionID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return s.conn, true
}

// Send writes env to the session. Sending to an unknown session is logged
// and ignored. A failed write deregisters the session, closes its
// transport and returns the write error.
func (r *Registry) Send(ctx context.Context, sessionID string, env *protocol.Envelope) error {
	data, err := protocol.Encode(env)
	if err != nil {
		return err
	}

	r.mu.RLock()
	s := r.sessions[sessionID]
	r.mu.RUnlock()
	if s == nil {
		r.logger.WarnContext(ctx, "send to unknown session",
			"session_id", sessionID,
			"type", env.Type,
			"id", env.ID,
		)
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		r.logger.DebugContext(ctx, "send to closed session", "session_id", sessionID, "type", env.Type)
		return nil
	}
	err = s.conn.WriteFrame(data)
	if err != nil {
		s.closed = true
	}
	s.mu.Unlock()

	if err != nil {
		r.logger.WarnContext(ctx, "send failed, removing session",
			"session_id", sessionID,
			"type", env.Type,
			"error", err,
		)
		r.remove(sessionID, s)
		_ = s.conn.Close()
		return fmt.Errorf("send to session %s: %w", sessionID, err)
	}
	return nil
}

// Count returns the number of registered sessions
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sessions returns a snapshot of all registered sessions
func (r *Registry) Sessions() []SessionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]SessionInfo, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s.info)
	}
	return out
}
