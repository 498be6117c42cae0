package envelope

import (
	"sync/atomic"
	"time"
)

// Outbound message types.
const (
	TypeHandshake       = "handshake"
	TypePong            = "pong"
	TypePortfolioUpdate = "portfolio_update"
	TypeTradeSignal     = "trade_signal"
	TypeRiskAlert       = "risk_alert"
	TypeSystemStatus    = "system_status"
	TypeHeartbeat       = "heartbeat"
	TypeBatch           = "batch"
)

// Inbound message types.
const (
	TypePing         = "ping"
	TypeConfigUpdate = "config_update"
	TypeCommand      = "command"
)

// Envelope is the wrapper around every message sent to the dashboard.
// Envelopes are immutable once enqueued.
type Envelope struct {
	MessageType string `json:"message_type"`
	Timestamp   string `json:"timestamp"` // ISO-8601
	Data        any    `json:"data"`
	SystemID    string `json:"system_id"`
	SequenceID  uint64 `json:"sequence_id"`
}

// New creates an envelope stamped with the current time.
func New(messageType string, data any, systemID string, sequenceID uint64) Envelope {
	return Envelope{
		MessageType: messageType,
		Timestamp:   time.Now().Format(time.RFC3339Nano),
		Data:        data,
		SystemID:    systemID,
		SequenceID:  sequenceID,
	}
}

// BatchPayload is the data field of a batch envelope: an ordered list of
// member envelopes in send order.
type BatchPayload struct {
	Messages []Envelope `json:"messages"`
}

// Sequencer issues strictly increasing sequence ids. The counter continues
// across reconnects so the dashboard can detect gaps caused by a dropped
// connection.
type Sequencer struct {
	n atomic.Uint64
}

// Next returns the next sequence id, starting at 1.
func (s *Sequencer) Next() uint64 {
	return s.n.Add(1)
}

// Current returns the most recently issued sequence id.
func (s *Sequencer) Current() uint64 {
	return s.n.Load()
}
