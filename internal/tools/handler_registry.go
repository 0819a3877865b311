package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/AltairaLabs/incident-relay/internal/types"
)

// ErrUnknownTool is returned for a tool name with no registered handler
var ErrUnknownTool = errors.New("unknown tool")

// ToolHandlerFunc handles one tool call. It returns the backend record on
// success or an error describing why the call failed.
type ToolHandlerFunc func(ctx context.Context, params map[string]any) (types.Record, error)

// ToolHandlerRegistry maps tool names to handler functions.
// Register is meant for setup; lookups are safe for concurrent use once
// registration is done.
type ToolHandlerRegistry struct {
	handlers map[string]ToolHandlerFunc
}

// NewToolHandlerRegistry creates an empty registry
func NewToolHandlerRegistry() *ToolHandlerRegistry {
	return &ToolHandlerRegistry{
		handlers: make(map[string]ToolHandlerFunc),
	}
}

// Register adds or replaces a handler for a tool name
func (r *ToolHandlerRegistry) Register(toolName string, handler ToolHandlerFunc) {
	r.handlers[toolName] = handler
}

// GetHandler returns the handler function for a given tool name
func (r *ToolHandlerRegistry) GetHandler(toolName string) (ToolHandlerFunc, error) {
	h, ok := r.handlers[toolName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, toolName)
	}
	return h, nil
}
