package config

import "time"

// Config is the root configuration for a dashlink instance.
type Config struct {
	Instance   InstanceConfig   `yaml:"instance"`
	Dashboard  DashboardConfig  `yaml:"dashboard"`
	Connection ConnectionConfig `yaml:"connection"`
	Publishing PublishingConfig `yaml:"publishing"`
	Journal    JournalConfig    `yaml:"journal"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// InstanceConfig identifies this trading system.
type InstanceConfig struct {
	ID string `yaml:"id"` // system_id stamped on every envelope
}

// DashboardConfig holds dashboard endpoint settings.
type DashboardConfig struct {
	URL    string `yaml:"url"`     // ws:// or wss:// endpoint
	APIKey string `yaml:"api_key"` // bearer credential
	// TLSVerify enables certificate verification for wss endpoints.
	// Default off for compatibility with self-signed dashboards.
	TLSVerify bool `yaml:"tls_verify"`
}

// ConnectionConfig holds reconnect behavior.
type ConnectionConfig struct {
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
	ReconnectDelay       time.Duration `yaml:"reconnect_delay"`
	MaxReconnectDelay    time.Duration `yaml:"max_reconnect_delay"`
	Timeout              time.Duration `yaml:"timeout"`
	WriteTimeout         time.Duration `yaml:"write_timeout"`
}

// PublishingConfig holds batching and cadence settings.
type PublishingConfig struct {
	SendInterval      time.Duration `yaml:"send_interval"`
	BatchSize         int           `yaml:"batch_size"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	StatusInterval    time.Duration `yaml:"status_interval"`
	Compress          *bool         `yaml:"compress_data"` // nil = default (on)
	QueueLimit        int           `yaml:"queue_limit"` // 0 = unbounded
	MaxHistoryLength  int           `yaml:"max_history_length"`
}

// JournalConfig holds the optional sent-envelope audit trail.
type JournalConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Database      DBConfig      `yaml:"database"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
