package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/AltairaLabs/incident-relay/internal/protocol"
	"github.com/AltairaLabs/incident-relay/internal/types"
)

const testTimeout = 2 * time.Second

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeConn is an in-memory Conn. Frames pushed to in are read by the
// session; frames the session writes land on out.
type fakeConn struct {
	in        chan []byte
	out       chan []byte
	closed    chan struct{}
	closeOnce sync.Once
	addr      string

	mu       sync.Mutex
	writeErr error
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan []byte),
		out:    make(chan []byte, 64),
		closed: make(chan struct{}),
		addr:   "127.0.0.1:40000",
	}
}

func (c *fakeConn) ReadFrame() ([]byte, error) {
	select {
	case data, ok := <-c.in:
		if !ok {
			return nil, ErrTransportClosed
		}
		return data, nil
	case <-c.closed:
		return nil, ErrTransportClosed
	}
}

func (c *fakeConn) WriteFrame(data []byte) error {
	c.mu.Lock()
	err := c.writeErr
	c.mu.Unlock()
	if err != nil {
		return err
	}

	select {
	case <-c.closed:
		return ErrTransportClosed
	default:
	}
	select {
	case c.out <- data:
		return nil
	case <-c.closed:
		return ErrTransportClosed
	}
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) RemoteAddr() string {
	return c.addr
}

func (c *fakeConn) failWrites(err error) {
	c.mu.Lock()
	c.writeErr = err
	c.mu.Unlock()
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// send delivers one frame to the session
func (c *fakeConn) send(t *testing.T, frame string) {
	t.Helper()
	select {
	case c.in <- []byte(frame):
	case <-time.After(testTimeout):
		t.Fatalf("session did not read frame %s", frame)
	}
}

// next returns the next envelope written by the session, decoded generically
func (c *fakeConn) next(t *testing.T) map[string]any {
	t.Helper()
	select {
	case data := <-c.out:
		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("session wrote invalid JSON %s: %v", data, err)
		}
		return msg
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for a frame")
		return nil
	}
}

// fakeBackend is a TicketBackend with canned answers
type fakeBackend struct {
	mu          sync.Mutex
	getFn       func(ctx context.Context, q types.IncidentQuery) (types.Record, error)
	createFn    func(ctx context.Context, fields types.Record) (types.Record, error)
	getCalls    int
	createCalls []types.Record
}

func (f *fakeBackend) GetIncident(ctx context.Context, q types.IncidentQuery) (types.Record, error) {
	f.mu.Lock()
	f.getCalls++
	fn := f.getFn
	f.mu.Unlock()
	if fn == nil {
		return types.Record{}, nil
	}
	return fn(ctx, q)
}

func (f *fakeBackend) CreateIncident(ctx context.Context, fields types.Record) (types.Record, error) {
	f.mu.Lock()
	f.createCalls = append(f.createCalls, fields)
	fn := f.createFn
	f.mu.Unlock()
	if fn == nil {
		return types.Record{"number": "INC0010099"}, nil
	}
	return fn(ctx, fields)
}

func (f *fakeBackend) gets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls
}

func newTestDispatcher(backend types.TicketBackend) *Dispatcher {
	logger := newTestLogger()
	return NewDispatcher(backend, NewAuditLogger(logger), logger)
}

func mustDecode(t *testing.T, raw string) *protocol.Envelope {
	t.Helper()
	env, err := protocol.Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode(%s) failed: %v", raw, err)
	}
	return env
}

var errWriteBroken = errors.New("broken pipe")
