// Package protocol defines the relay wire envelope and its JSON codec.
//
// Every frame on the /mcp connection is one JSON object carrying a "type"
// tag and an "id" correlation token. Inbound clients send "heartbeat" and
// "execute"; the server answers with "heartbeat_ack", "tool_result" or
// "error", and announces the connection with a "session_id" envelope.
//
// Decode is lenient about what it accepts as an envelope: a
// document missing "type" or naming an unknown type still decodes, and
// Validate reports the condition so the dispatcher can answer it with an
// error envelope instead of dropping the connection.
package protocol
