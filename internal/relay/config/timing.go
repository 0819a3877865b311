package config

import "time"

// Default timing configurations used throughout the relay
const (
	// DefaultWriteTimeout bounds a single outbound frame write
	DefaultWriteTimeout = 10 * time.Second

	// DefaultBackendTimeout is the HTTP client timeout for ServiceNow calls
	DefaultBackendTimeout = 30 * time.Second

	// DefaultShutdownTimeout bounds graceful shutdown before forcing stop
	DefaultShutdownTimeout = 2 * time.Second

	// DefaultProbeHeartbeatInterval is how often the probe client sends heartbeats
	DefaultProbeHeartbeatInterval = 5 * time.Second
)

// DefaultReadLimit is the largest inbound frame accepted, in bytes
const DefaultReadLimit int64 = 1 << 20
