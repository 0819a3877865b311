// Package types provides shared types used across the incident-relay codebase
package types

import (
	"context"
	"time"
)

// Record is an opaque backend ticket record. Fields pass through untouched.
type Record = map[string]any

// IncidentQuery selects a single incident by number or sys_id
type IncidentQuery struct {
	Number string
	SysID  string
}

// Empty reports whether neither selector is set
func (q IncidentQuery) Empty() bool {
	return q.Number == "" && q.SysID == ""
}

// TicketBackend is the external ticketing system the tools operate on.
// GetIncident returns an empty record, not an error, when nothing matches.
type TicketBackend interface {
	GetIncident(ctx context.Context, query IncidentQuery) (Record, error)
	CreateIncident(ctx context.Context, fields Record) (Record, error)
}

// AuditEntry represents an audit log entry for tool calls and results
type AuditEntry struct {
	Timestamp time.Time
	SessionID string
	MessageID string
	ToolName  string
	Arguments map[string]interface{}
	Duration  time.Duration
	ErrorMsg  string
}

// AuditLogger provides audit logging operations
type AuditLogger interface {
	LogToolCall(ctx context.Context, entry *AuditEntry)
	LogToolResult(ctx context.Context, entry *AuditEntry)
}
