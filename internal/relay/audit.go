package relay

import (
	"context"
	"log/slog"

	"github.com/AltairaLabs/incident-relay/internal/types"
)

// AuditLogger handles audit logging for tool calls
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// LogToolCall logs a tool invocation with all relevant context
func (al *AuditLogger) LogToolCall(ctx context.Context, entry *types.AuditEntry) {
	al.logger.InfoContext(ctx, "tool_call",
		"session_id", entry.SessionID,
		"message_id", entry.MessageID,
		"tool_name", entry.ToolName,
		"arguments", entry.Arguments,
		"timestamp", entry.Timestamp,
	)
}

// LogToolResult logs a tool execution result
func (al *AuditLogger) LogToolResult(ctx context.Context, entry *types.AuditEntry) {
	if entry.ErrorMsg != "" {
		al.logger.ErrorContext(ctx, "tool_error",
			"session_id", entry.SessionID,
			"message_id", entry.MessageID,
			"tool_name", entry.ToolName,
			"error", entry.ErrorMsg,
			"duration_ms", entry.Duration.Milliseconds(),
		)
		return
	}
	al.logger.InfoContext(ctx, "tool_result",
		"session_id", entry.SessionID,
		"message_id", entry.MessageID,
		"tool_name", entry.ToolName,
		"duration_ms", entry.Duration.Milliseconds(),
	)
}
