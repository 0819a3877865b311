package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AltairaLabs/incident-relay/internal/protocol"
	"github.com/AltairaLabs/incident-relay/internal/relay/config"
)

// Engine runs the lifecycle of individual relay sessions
type Engine struct {
	registry   *Registry
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// NewEngine creates a session engine
func NewEngine(registry *Registry, dispatcher *Dispatcher, logger *slog.Logger) *Engine {
	return &Engine{
		registry:   registry,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Serve owns conn until it closes: it registers the session, announces the
// session id, then answers frames one at a time in arrival order. It
// returns nil on a clean disconnect or when ctx is canceled.
func (e *Engine) Serve(ctx context.Context, conn Conn) error {
	sessionID, err := e.registry.Register(conn)
	if err != nil {
		return err
	}
	logger := e.logger.With("session_id", sessionID)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	// Closing the transport unblocks ReadFrame; cancel runs on every exit.
	_ = context.AfterFunc(ctx, func() { _ = conn.Close() })

	defer func() {
		e.registry.Deregister(sessionID)
		logger.Info("session closed",
			"state", SessionStateClosed,
			"active_sessions", e.registry.Count(),
		)
	}()

	logger.Info("session connected",
		"state", SessionStateConnecting,
		"remote_addr", conn.RemoteAddr(),
		"active_sessions", e.registry.Count(),
	)

	if err := e.registry.Send(ctx, sessionID, protocol.NewSessionAnnouncement(sessionID)); err != nil {
		return err
	}
	logger.Info("session active", "state", SessionStateActive)

	frames, readErr := e.readLoop(ctx, cancel, conn)
	for raw := range frames {
		resp := e.process(ctx, logger, sessionID, raw)
		if ctx.Err() != nil {
			break
		}
		if resp == nil {
			continue
		}
		if err := e.registry.Send(ctx, sessionID, resp); err != nil {
			return err
		}
	}

	select {
	case err := <-readErr:
		if errors.Is(err, ErrTransportClosed) || ctx.Err() != nil {
			logger.Info("client disconnected", "reason", err)
			return nil
		}
		logger.Warn("connection error", "error", err)
		return err
	default:
		return nil
	}
}

// readLoop pulls frames off conn. A read error cancels the session context
// so an in-flight backend call for this session is abandoned.
func (e *Engine) readLoop(ctx context.Context, cancel context.CancelFunc, conn Conn) (<-chan []byte, <-chan error) {
	frames := make(chan []byte)
	readErr := make(chan error, 1)

	go func() {
		defer close(frames)
		for {
			raw, err := conn.ReadFrame()
			if err != nil {
				readErr <- err
				cancel()
				return
			}
			select {
			case frames <- raw:
			case <-ctx.Done():
				return
			}
		}
	}()

	return frames, readErr
}

// process decodes and dispatches one frame. Handler panics are answered
// with an error envelope instead of ending the session.
func (e *Engine) process(ctx context.Context, logger *slog.Logger, sessionID string, raw []byte) (resp *protocol.Envelope) {
	var messageID string
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while handling message", "id", messageID, "panic", r)
			resp = protocol.NewError(messageID, fmt.Sprintf(config.ErrInternal, r))
		}
	}()

	logger.Debug("received frame", "raw", string(raw))

	env, err := protocol.Decode(raw)
	if err != nil {
		logger.Warn("invalid JSON received", "error", err)
		return protocol.NewError("", config.MsgInvalidJSON)
	}
	messageID = env.ID

	resp = e.dispatcher.Handle(ctx, sessionID, env)
	if resp != nil {
		logger.Info("response ready", "id", resp.ID, "type", resp.Type)
	}
	return resp
}
