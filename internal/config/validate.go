package config

import (
	"fmt"
	"strings"
)

// Validate checks required fields and consistency. Call after
// applyDefaults.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return fmt.Errorf("instance.id is required")
	}

	if c.Dashboard.URL == "" {
		return fmt.Errorf("dashboard.url is required")
	}
	if !strings.HasPrefix(c.Dashboard.URL, "ws://") && !strings.HasPrefix(c.Dashboard.URL, "wss://") {
		return fmt.Errorf("dashboard.url must use ws:// or wss:// scheme")
	}

	if c.Connection.ReconnectDelay > c.Connection.MaxReconnectDelay {
		return fmt.Errorf("connection.reconnect_delay exceeds connection.max_reconnect_delay")
	}

	if c.Publishing.BatchSize < 1 {
		return fmt.Errorf("publishing.batch_size must be at least 1")
	}
	if c.Publishing.QueueLimit < 0 {
		return fmt.Errorf("publishing.queue_limit must not be negative")
	}

	if c.Journal.Enabled {
		if c.Journal.Database.Host == "" {
			return fmt.Errorf("journal.database.host is required when journal is enabled")
		}
		if c.Journal.Database.Name == "" {
			return fmt.Errorf("journal.database.name is required when journal is enabled")
		}
		if c.Journal.Database.User == "" {
			return fmt.Errorf("journal.database.user is required when journal is enabled")
		}
		if c.Journal.Database.MinConns > c.Journal.Database.MaxConns {
			return fmt.Errorf("journal.database.min_conns exceeds max_conns")
		}
	}

	return nil
}
