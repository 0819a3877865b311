// Command relay-probe connects to a running relay, reads the session
// handshake and exercises each tool while heartbeats run in the background.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/AltairaLabs/incident-relay/internal/protocol"
	"github.com/AltairaLabs/incident-relay/internal/relay/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type probeOptions struct {
	url       string
	incident  string
	caller    string
	heartbeat time.Duration
	linger    time.Duration
	timeout   time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &probeOptions{}

	cmd := &cobra.Command{
		Use:          "relay-probe",
		Short:        "Exercise a running incident relay over WebSocket",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runProbe(ctx, opts, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.url, "url", "ws://localhost:8000/mcp", "relay WebSocket URL")
	f.StringVar(&opts.incident, "incident", "INC0010007", "incident number to look up")
	f.StringVar(&opts.caller, "caller", "abel.tuter", "caller_id for the created incident")
	f.DurationVar(&opts.heartbeat, "heartbeat", config.DefaultProbeHeartbeatInterval, "heartbeat interval")
	f.DurationVar(&opts.linger, "linger", 10*time.Second, "time to keep heartbeating after the calls")
	f.DurationVar(&opts.timeout, "timeout", 30*time.Second, "per-response read timeout")
	return cmd
}

// prober owns one relay connection. Only the caller of await reads; writes
// from the heartbeat loop and the calls are serialized by mu.
type prober struct {
	ws      *websocket.Conn
	timeout time.Duration
	mu      sync.Mutex

	outMu sync.Mutex
	out   io.Writer
}

func runProbe(ctx context.Context, opts *probeOptions, out io.Writer) error {
	dialer := websocket.Dialer{HandshakeTimeout: opts.timeout}
	ws, resp, err := dialer.DialContext(ctx, opts.url, nil)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", opts.url, err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer ws.Close()
	fmt.Fprintf(out, "Connected to %s\n", opts.url)

	p := &prober{ws: ws, out: out, timeout: opts.timeout}

	hello, err := p.read()
	if err != nil {
		return err
	}
	if hello.Type != protocol.TypeSessionID {
		return fmt.Errorf("expected session_id message, got %s", hello.Type)
	}
	p.logf("Received session ID: %s\n", hello.SessionID)

	hbCtx, stopHeartbeats := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.heartbeats(hbCtx, opts.heartbeat)
	}()
	defer func() {
		stopHeartbeats()
		wg.Wait()
	}()

	calls := []struct {
		tool   string
		params map[string]any
	}{
		{config.ToolGetIncidentDetails, map[string]any{"incident_number": opts.incident}},
		{config.ToolCreateIncident, map[string]any{
			"short_description": fmt.Sprintf("AI-requested: System alert %d.", time.Now().Unix()),
			"caller_id":         opts.caller,
			"description":       "The AI agent detected an unusual system load and created this incident.",
			"impact":            "3",
			"urgency":           "3",
		}},
		{"unknown_tool_name", map[string]any{}},
	}

	for _, c := range calls {
		if _, err := p.call(c.tool, c.params); err != nil {
			return err
		}
	}

	select {
	case <-time.After(opts.linger):
	case <-ctx.Done():
	}
	_ = p.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	p.logf("Connection closed.\n")
	return nil
}

// call sends one execute request and returns its response
func (p *prober) call(tool string, params map[string]any) (*protocol.Envelope, error) {
	req := &protocol.Envelope{
		ID:       protocol.NewID(),
		Type:     protocol.TypeExecute,
		ToolName: tool,
		Params:   params,
	}
	data, err := protocol.Encode(req)
	if err != nil {
		return nil, err
	}
	p.logf("\nSending: %s\n", data)
	if err := p.write(websocket.TextMessage, data); err != nil {
		return nil, err
	}

	resp, err := p.await(req.ID)
	if err != nil {
		return nil, err
	}
	switch resp.Type {
	case protocol.TypeToolResult:
		number := ""
		if m, ok := resp.Result.(map[string]any); ok {
			number, _ = m["number"].(string)
		}
		p.logf("%s succeeded: %s\n", tool, number)
	case protocol.TypeError:
		p.logf("%s failed: %s\n", tool, resp.Error)
	}
	return resp, nil
}

// await reads until the response correlated with id arrives, skipping
// interleaved heartbeat acks
func (p *prober) await(id string) (*protocol.Envelope, error) {
	for {
		env, err := p.read()
		if err != nil {
			return nil, err
		}
		if env.Type == protocol.TypeHeartbeatAck {
			p.logf("Received heartbeat ACK: %s\n", env.ID)
			continue
		}
		if env.ID == id {
			return env, nil
		}
		p.logf("Skipping uncorrelated %s message %s\n", env.Type, env.ID)
	}
}

func (p *prober) read() (*protocol.Envelope, error) {
	if p.timeout > 0 {
		_ = p.ws.SetReadDeadline(time.Now().Add(p.timeout))
	}
	_, data, err := p.ws.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	p.logf("Received: %s\n", data)

	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode %s: %w", data, err)
	}
	return &env, nil
}

func (p *prober) logf(format string, args ...any) {
	p.outMu.Lock()
	defer p.outMu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

func (p *prober) write(messageType int, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ws.WriteMessage(messageType, data)
}

func (p *prober) heartbeats(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ts, _ := json.Marshal(time.Now().UnixMilli())
			hb := &protocol.Envelope{
				ID:        protocol.NewID(),
				Type:      protocol.TypeHeartbeat,
				Timestamp: ts,
			}
			data, err := protocol.Encode(hb)
			if err != nil {
				continue
			}
			p.logf("Sending heartbeat: %s\n", hb.ID)
			if err := p.write(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
