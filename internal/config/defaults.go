package config

import "time"

// Default values applied by LoadWithDefaults.
const (
	DefaultSystemID             = "nexus_ai_local"
	DefaultMaxReconnectAttempts = 10
	DefaultReconnectDelay       = 5 * time.Second
	DefaultMaxReconnectDelay    = 300 * time.Second
	DefaultConnectionTimeout    = 30 * time.Second
	DefaultWriteTimeout         = 5 * time.Second
	DefaultSendInterval         = 2 * time.Second
	DefaultBatchSize            = 10
	DefaultHeartbeatInterval    = 30 * time.Second
	DefaultStatusInterval       = 30 * time.Second
	DefaultQueueLimit           = 10000
	DefaultMaxHistoryLength     = 1000
	DefaultJournalBatchSize     = 100
	DefaultJournalFlushInterval = 5 * time.Second
	DefaultDBPort               = 5432
	DefaultDBMaxConns           = 4
	DefaultDBMinConns           = 1
	DefaultMetricsPort          = 9090
	DefaultMetricsPath          = "/metrics"
)

// applyDefaults fills zero-valued fields. compress_data defaults to on; an
// explicit false survives because the field is a pointer.
func (c *Config) applyDefaults() {
	if c.Instance.ID == "" {
		c.Instance.ID = DefaultSystemID
	}

	if c.Connection.MaxReconnectAttempts == 0 {
		c.Connection.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.Connection.ReconnectDelay == 0 {
		c.Connection.ReconnectDelay = DefaultReconnectDelay
	}
	if c.Connection.MaxReconnectDelay == 0 {
		c.Connection.MaxReconnectDelay = DefaultMaxReconnectDelay
	}
	if c.Connection.Timeout == 0 {
		c.Connection.Timeout = DefaultConnectionTimeout
	}
	if c.Connection.WriteTimeout == 0 {
		c.Connection.WriteTimeout = DefaultWriteTimeout
	}

	if c.Publishing.SendInterval == 0 {
		c.Publishing.SendInterval = DefaultSendInterval
	}
	if c.Publishing.BatchSize == 0 {
		c.Publishing.BatchSize = DefaultBatchSize
	}
	if c.Publishing.HeartbeatInterval == 0 {
		c.Publishing.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.Publishing.StatusInterval == 0 {
		c.Publishing.StatusInterval = DefaultStatusInterval
	}
	if c.Publishing.QueueLimit == 0 {
		c.Publishing.QueueLimit = DefaultQueueLimit
	}
	if c.Publishing.MaxHistoryLength == 0 {
		c.Publishing.MaxHistoryLength = DefaultMaxHistoryLength
	}
	if c.Publishing.Compress == nil {
		on := true
		c.Publishing.Compress = &on
	}

	if c.Journal.BatchSize == 0 {
		c.Journal.BatchSize = DefaultJournalBatchSize
	}
	if c.Journal.FlushInterval == 0 {
		c.Journal.FlushInterval = DefaultJournalFlushInterval
	}
	if c.Journal.Database.Port == 0 {
		c.Journal.Database.Port = DefaultDBPort
	}
	if c.Journal.Database.MaxConns == 0 {
		c.Journal.Database.MaxConns = DefaultDBMaxConns
	}
	if c.Journal.Database.MinConns == 0 {
		c.Journal.Database.MinConns = DefaultDBMinConns
	}

	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

// CompressData reports whether outbound envelopes are compressed.
func (c *Config) CompressData() bool {
	return c.Publishing.Compress == nil || *c.Publishing.Compress
}
