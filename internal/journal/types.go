package journal

import (
	"time"
)

// Config contains configuration for the journal writer.
type Config struct {
	// BatchSize is the number of rows to accumulate before flushing.
	BatchSize int

	// FlushInterval is the maximum time between flushes.
	FlushInterval time.Duration

	// QueueLimit bounds the pending record queue. Oldest records are
	// dropped when the writer cannot keep up.
	QueueLimit int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     100,
		FlushInterval: 5 * time.Second,
		QueueLimit:    10000,
	}
}

// record represents a row to be inserted into the sent_envelopes table.
type record struct {
	MessageType string
	SystemID    string
	SequenceID  int64
	SentAt      time.Time
	WireBytes   int
	Payload     []byte // JSONB
}

// Metrics holds counters for the journal writer.
type Metrics struct {
	Inserts int64
	Errors  int64
	Flushes int64
	Dropped int64
}
