package client

import (
	"errors"
	"time"

	"github.com/nexusai/dashlink/internal/envelope"
)

// Errors
var (
	ErrNotConnected = errors.New("not connected")
	ErrStopped      = errors.New("client stopped")
)

// State is the connection lifecycle state.
type State string

const (
	StateDisconnected  State = "disconnected"
	StateConnecting    State = "connecting"
	StateHandshaking   State = "handshaking"
	StateConnected     State = "connected"
	StateReconnectWait State = "reconnect_wait"
	StateStopped       State = "stopped"
)

// Recorder receives a copy of every successfully sent envelope. Used to
// feed the optional journal; implementations must not block.
type Recorder interface {
	Record(env envelope.Envelope, wireBytes int)
}

// Config configures the dashboard client.
type Config struct {
	URL      string // ws:// or wss:// dashboard endpoint
	APIKey   string // bearer credential, empty = unauthenticated
	SystemID string

	MaxReconnectAttempts int
	ReconnectDelay       time.Duration
	MaxReconnectDelay    time.Duration
	ConnectTimeout       time.Duration
	WriteTimeout         time.Duration

	SendInterval      time.Duration
	BatchSize         int
	HeartbeatInterval time.Duration
	Compress          bool
	QueueLimit        int // soft queue cap, 0 = unbounded

	// TLSVerify enables certificate verification for wss endpoints.
	// Off by default for compatibility with self-signed dashboards.
	TLSVerify bool

	// OnRestart is invoked when the dashboard issues a restart command.
	// The client only signals; it never restarts the process itself.
	OnRestart func()

	// Recorder, when set, observes every successfully sent envelope.
	Recorder Recorder
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		SystemID:             "nexus_ai_local",
		MaxReconnectAttempts: 10,
		ReconnectDelay:       5 * time.Second,
		MaxReconnectDelay:    300 * time.Second,
		ConnectTimeout:       30 * time.Second,
		WriteTimeout:         5 * time.Second,
		SendInterval:         2 * time.Second,
		BatchSize:            10,
		HeartbeatInterval:    30 * time.Second,
		Compress:             true,
		QueueLimit:           10000,
	}
}

// Stats holds process-lifetime counters for the publishing pipeline.
type Stats struct {
	MessagesSent   uint64
	MessagesFailed uint64
	BytesSent      uint64
	Reconnections  uint64
	LastHeartbeat  time.Time
}

// ConnectionStatus is a read-only snapshot exposed to status queries.
type ConnectionStatus struct {
	Connected         bool
	Running           bool
	State             State
	ReconnectAttempts int
	QueueDepth        int
	QueueDropped      uint64
	Stats             Stats
}

// handshakePayload announces identity and capabilities after a fresh
// connection.
type handshakePayload struct {
	SystemInfo handshakeSystemInfo `json:"system_info"`
	Config     handshakeConfig     `json:"config"`
}

type handshakeSystemInfo struct {
	SystemID     string   `json:"system_id"`
	Version      string   `json:"version"`
	Timestamp    string   `json:"timestamp"`
	Capabilities []string `json:"capabilities"`
}

type handshakeConfig struct {
	SendInterval float64 `json:"send_interval"` // seconds
	BatchSize    int     `json:"batch_size"`
	Compression  bool    `json:"compression"`
}

// heartbeatPayload carries real-time liveness data, bypassing the queue.
type heartbeatPayload struct {
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"` // seconds
	QueueSize int     `json:"queue_size"`
}

// statusPayload is the data field of a system_status envelope.
type statusPayload struct {
	Status     string         `json:"status"`
	Connection string         `json:"connection"`
	Stats      statsPayload   `json:"stats"`
	Config     map[string]any `json:"config"`
}

type statsPayload struct {
	MessagesSent   uint64 `json:"messages_sent"`
	MessagesFailed uint64 `json:"messages_failed"`
	BytesSent      uint64 `json:"bytes_sent"`
	Reconnections  uint64 `json:"reconnections"`
	LastHeartbeat  string `json:"last_heartbeat,omitempty"`
}
