package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/AltairaLabs/incident-relay/internal/protocol"
	"github.com/AltairaLabs/incident-relay/internal/relay/config"
	"github.com/AltairaLabs/incident-relay/internal/tools"
)

const (
	mcpBasePath      = "/mcp-sse"
	mcpDefaultSessID = "mcp-default-session"
)

// MCPServer serves the incident tools to MCP clients through mcp-go. Calls
// go through the same Dispatcher as the WebSocket relay.
type MCPServer struct {
	server     *server.MCPServer
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// NewMCPServer creates the MCP server and registers every catalog tool
func NewMCPServer(name, version string, dispatcher *Dispatcher, logger *slog.Logger) (*MCPServer, error) {
	mcpServer := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	ms := &MCPServer{
		server:     mcpServer,
		dispatcher: dispatcher,
		logger:     logger,
	}

	for _, name := range config.AllTools() {
		d, ok := tools.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("no descriptor for tool %s", name)
		}
		tool, err := d.MCPTool()
		if err != nil {
			return nil, err
		}
		ms.server.AddTool(tool, ms.handleToolCall)
	}

	return ms, nil
}

// handleToolCall runs one tool call. Failures are reported as tool errors,
// never as protocol errors.
func (ms *MCPServer) handleToolCall(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	toolName := request.Params.Name
	params := request.GetArguments()
	if params == nil {
		params = map[string]any{}
	}

	record, err := ms.dispatcher.Execute(ctx, ms.getSessionID(ctx), protocol.NewID(), toolName, params)
	if err != nil {
		return mcp.NewToolResultError(ErrorMessage(toolName, err)), nil
	}
	if record == nil {
		record = map[string]any{}
	}

	body, err := json.Marshal(record)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

func (ms *MCPServer) getSessionID(ctx context.Context) string {
	if clientSession := server.ClientSessionFromContext(ctx); clientSession != nil {
		return clientSession.SessionID()
	}
	return mcpDefaultSessID
}

// Server returns the underlying mcp-go server
func (ms *MCPServer) Server() *server.MCPServer {
	return ms.server
}

// SSEHandler returns the HTTP/SSE transport mounted under /mcp-sse
func (ms *MCPServer) SSEHandler() *server.SSEServer {
	return server.NewSSEServer(ms.server, server.WithStaticBasePath(mcpBasePath))
}
