package protocol

import (
	"encoding/json"

	"github.com/google/uuid"
)

// MessageType is the envelope "type" tag.
type MessageType string

const (
	// TypeHeartbeat is a client liveness probe.
	TypeHeartbeat MessageType = "heartbeat"
	// TypeExecute asks the server to run a tool.
	TypeExecute MessageType = "execute"
	// TypeSessionID announces the session identifier (server to client).
	TypeSessionID MessageType = "session_id"
	// TypeHeartbeatAck answers a heartbeat (server to client).
	TypeHeartbeatAck MessageType = "heartbeat_ack"
	// TypeToolResult carries a successful tool outcome (server to client).
	TypeToolResult MessageType = "tool_result"
	// TypeError carries a recoverable failure (server to client).
	TypeError MessageType = "error"
)

// Inbound reports whether clients may send this type.
func (t MessageType) Inbound() bool {
	return t == TypeHeartbeat || t == TypeExecute
}

// Envelope is one message exchanged over a relay connection.
//
// Result is typed as any so that an empty record still encodes as {}
// while envelopes that carry no result omit the field entirely.
type Envelope struct {
	ID        string          `json:"id,omitempty"`
	Type      MessageType     `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	ToolName  string          `json:"tool_name,omitempty"`
	Params    map[string]any  `json:"params,omitempty"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
	Result    any             `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`

	paramsErr error
}

// ParamsError reports whether the decoded params field was unusable.
func (e *Envelope) ParamsError() error {
	return e.paramsErr
}

var jsonNull = json.RawMessage("null")

// NewID returns a fresh correlation identifier.
func NewID() string {
	return uuid.NewString()
}

// NewSessionAnnouncement builds the handshake sent on accept. Its id is
// generated independently of the session id.
func NewSessionAnnouncement(sessionID string) *Envelope {
	return &Envelope{
		ID:        NewID(),
		Type:      TypeSessionID,
		SessionID: sessionID,
	}
}

// NewHeartbeatAck answers hb, echoing its id and timestamp verbatim.
func NewHeartbeatAck(hb *Envelope) *Envelope {
	ts := hb.Timestamp
	if len(ts) == 0 {
		ts = jsonNull
	}
	return &Envelope{
		ID:        hb.ID,
		Type:      TypeHeartbeatAck,
		Timestamp: ts,
	}
}

// NewToolResult builds a tool_result answering the envelope with id.
func NewToolResult(id, toolName string, result map[string]any) *Envelope {
	if result == nil {
		result = map[string]any{}
	}
	return &Envelope{
		ID:       id,
		Type:     TypeToolResult,
		ToolName: toolName,
		Result:   result,
	}
}

// NewError builds an error envelope. id may be empty when the trigger
// could not be parsed.
func NewError(id, message string) *Envelope {
	return &Envelope{
		ID:    id,
		Type:  TypeError,
		Error: message,
	}
}
