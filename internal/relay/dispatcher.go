package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AltairaLabs/incident-relay/internal/protocol"
	"github.com/AltairaLabs/incident-relay/internal/relay/config"
	"github.com/AltairaLabs/incident-relay/internal/tools"
	"github.com/AltairaLabs/incident-relay/internal/tools/handlers/incident"
	"github.com/AltairaLabs/incident-relay/internal/types"
)

// Dispatcher turns inbound envelopes into responses. It holds no
// per-session state.
type Dispatcher struct {
	toolRegistry *tools.ToolHandlerRegistry
	auditLogger  types.AuditLogger
	logger       *slog.Logger
}

// NewDispatcher wires the incident tools to backend
func NewDispatcher(backend types.TicketBackend, audit types.AuditLogger, logger *slog.Logger) *Dispatcher {
	getHandler := incident.NewGetHandler(backend)
	createHandler := incident.NewCreateHandler(backend)

	toolRegistry := tools.NewToolHandlerRegistry()
	toolRegistry.Register(config.ToolGetIncidentDetails, getHandler.Handle)
	toolRegistry.Register(config.ToolCreateIncident, createHandler.Handle)

	return &Dispatcher{
		toolRegistry: toolRegistry,
		auditLogger:  audit,
		logger:       logger,
	}
}

// Handle produces the response for env, or nil when none is due.
// Every response carries env's id.
func (d *Dispatcher) Handle(ctx context.Context, sessionID string, env *protocol.Envelope) *protocol.Envelope {
	if err := protocol.Validate(env); err != nil {
		switch {
		case errors.Is(err, protocol.ErrMissingType):
			d.logger.WarnContext(ctx, "message without type", "session_id", sessionID, "id", env.ID)
			return protocol.NewError(env.ID, config.MsgTypeMissing)
		default:
			d.logger.WarnContext(ctx, "unhandled message type",
				"session_id", sessionID,
				"id", env.ID,
				"type", env.Type,
			)
			return protocol.NewError(env.ID, fmt.Sprintf(config.ErrUnhandledType, env.Type))
		}
	}

	switch env.Type {
	case protocol.TypeHeartbeat:
		d.logger.DebugContext(ctx, "heartbeat", "session_id", sessionID, "id", env.ID)
		return protocol.NewHeartbeatAck(env)
	case protocol.TypeExecute:
		return d.execute(ctx, sessionID, env)
	}
	return nil
}

func (d *Dispatcher) execute(ctx context.Context, sessionID string, env *protocol.Envelope) *protocol.Envelope {
	if err := env.ParamsError(); err != nil {
		if _, lookupErr := d.toolRegistry.GetHandler(env.ToolName); lookupErr != nil {
			err = lookupErr
		}
		d.logger.WarnContext(ctx, "rejected tool call",
			"session_id", sessionID,
			"id", env.ID,
			"tool_name", env.ToolName,
			"error", err,
		)
		return protocol.NewError(env.ID, ErrorMessage(env.ToolName, err))
	}

	params := env.Params
	if params == nil {
		params = map[string]any{}
	}

	record, err := d.Execute(ctx, sessionID, env.ID, env.ToolName, params)
	if err != nil {
		return protocol.NewError(env.ID, ErrorMessage(env.ToolName, err))
	}
	return protocol.NewToolResult(env.ID, env.ToolName, record)
}

// Execute runs one tool call. The error, if any, is either
// tools.ErrUnknownTool, incident.ErrInvalidParams or the backend's own error.
func (d *Dispatcher) Execute(
	ctx context.Context,
	sessionID, messageID, toolName string,
	params map[string]any,
) (types.Record, error) {
	handler, err := d.toolRegistry.GetHandler(toolName)
	if err != nil {
		d.logger.WarnContext(ctx, "unknown tool",
			"session_id", sessionID,
			"id", messageID,
			"tool_name", toolName,
		)
		return nil, err
	}

	start := time.Now()
	d.auditLogger.LogToolCall(ctx, &types.AuditEntry{
		Timestamp: start,
		SessionID: sessionID,
		MessageID: messageID,
		ToolName:  toolName,
		Arguments: params,
	})

	record, err := handler(ctx, params)

	result := &types.AuditEntry{
		Timestamp: time.Now(),
		SessionID: sessionID,
		MessageID: messageID,
		ToolName:  toolName,
		Duration:  time.Since(start),
	}
	if err != nil {
		result.ErrorMsg = err.Error()
	}
	d.auditLogger.LogToolResult(ctx, result)

	if err != nil {
		return nil, err
	}
	return record, nil
}

// ErrorMessage renders a tool failure as the client-facing error text
func ErrorMessage(toolName string, err error) string {
	if errors.Is(err, tools.ErrUnknownTool) {
		return fmt.Sprintf(config.ErrUnknownTool, toolName)
	}
	return fmt.Sprintf(config.ErrToolExecution, toolName, err)
}
