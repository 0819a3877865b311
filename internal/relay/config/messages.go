package config

// Protocol error messages sent to clients
const (
	// MsgInvalidJSON answers a frame that could not be parsed
	MsgInvalidJSON = "Invalid JSON received."
	// MsgTypeMissing answers an envelope without a type
	MsgTypeMissing = "Message type missing."
	// ErrUnhandledType is the format string for unknown message types
	ErrUnhandledType = "Unhandled message type: %s"
	// ErrUnknownTool is the format string for unknown tool names
	ErrUnknownTool = "Unknown tool: '%s'"
	// ErrToolExecution is the format string for failed tool calls
	ErrToolExecution = "Error executing tool '%s': %v"
	// ErrInternal is the format string for recovered handler panics
	ErrInternal = "Internal server error: %v"
)

// Health record served on /health
const (
	HealthStatus  = "ok"
	HealthMessage = "ServiceNow MCP Server is running."
)
