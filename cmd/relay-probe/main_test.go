package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AltairaLabs/incident-relay/internal/relay"
	"github.com/AltairaLabs/incident-relay/internal/relay/config"
	"github.com/AltairaLabs/incident-relay/internal/types"
)

type stubBackend struct {
	mu      sync.Mutex
	created []types.Record
}

func (b *stubBackend) GetIncident(_ context.Context, q types.IncidentQuery) (types.Record, error) {
	return types.Record{"number": q.Number}, nil
}

func (b *stubBackend) CreateIncident(_ context.Context, fields types.Record) (types.Record, error) {
	b.mu.Lock()
	b.created = append(b.created, fields)
	b.mu.Unlock()
	return types.Record{"number": "INC0010101"}, nil
}

func startRelay(t *testing.T, backend types.TicketBackend) string {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := relay.NewServer(config.Default(), backend, logger)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/mcp"
}

func TestRunProbe(t *testing.T) {
	backend := &stubBackend{}
	url := startRelay(t, backend)

	var out bytes.Buffer
	opts := &probeOptions{
		url:       url,
		incident:  "INC0010007",
		caller:    "abel.tuter",
		heartbeat: 20 * time.Millisecond,
		linger:    100 * time.Millisecond,
		timeout:   2 * time.Second,
	}
	if err := runProbe(context.Background(), opts, &out); err != nil {
		t.Fatalf("runProbe failed: %v", err)
	}

	text := out.String()
	for _, want := range []string{
		"Received session ID:",
		"get_incident_details succeeded: INC0010007",
		"create_incident succeeded: INC0010101",
		"unknown_tool_name failed: Unknown tool: 'unknown_tool_name'",
		"Sending heartbeat:",
		"Connection closed.",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected output to contain %q\n%s", want, text)
		}
	}

	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.created) != 1 || backend.created[0]["caller_id"] != "abel.tuter" {
		t.Errorf("Unexpected create calls %v", backend.created)
	}
}

func TestRunProbe_DialFailure(t *testing.T) {
	opts := &probeOptions{url: "ws://127.0.0.1:1/mcp", timeout: time.Second}
	if err := runProbe(context.Background(), opts, io.Discard); err == nil {
		t.Fatal("Expected dial failure")
	}
}

func TestProbeFlags(t *testing.T) {
	cmd := newRootCmd()
	hb, err := cmd.Flags().GetDuration("heartbeat")
	if err != nil || hb != config.DefaultProbeHeartbeatInterval {
		t.Errorf("Expected default heartbeat %v, got %v (%v)", config.DefaultProbeHeartbeatInterval, hb, err)
	}
}
