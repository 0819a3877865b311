package relay

import "time"

// SessionState represents the lifecycle state of a relay session
type SessionState string

const (
	// SessionStateConnecting covers accept, registration and the handshake send
	SessionStateConnecting SessionState = "connecting"
	// SessionStateActive indicates the receive loop is running
	SessionStateActive SessionState = "active"
	// SessionStateClosed is terminal; the session has been deregistered
	SessionStateClosed SessionState = "closed"
)

// SessionInfo is a read-only snapshot of a registered session
type SessionInfo struct {
	ID         string
	RemoteAddr string
	CreatedAt  time.Time
}
