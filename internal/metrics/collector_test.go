package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nexusai/dashlink/internal/client"
)

type staticSource struct {
	status client.ConnectionStatus
}

func (s *staticSource) Status() client.ConnectionStatus {
	return s.status
}

func TestCollector_Collect(t *testing.T) {
	source := &staticSource{
		status: client.ConnectionStatus{
			Connected:    true,
			Running:      true,
			State:        client.StateConnected,
			QueueDepth:   42,
			QueueDropped: 3,
			Stats: client.Stats{
				MessagesSent:   100,
				MessagesFailed: 2,
				BytesSent:      4096,
				Reconnections:  5,
			},
		},
	}

	c := NewCollector(source)

	expected := `
# HELP dashlink_bytes_sent_total Total wire bytes written
# TYPE dashlink_bytes_sent_total counter
dashlink_bytes_sent_total 4096
# HELP dashlink_connected Whether the dashboard connection is established (1 or 0)
# TYPE dashlink_connected gauge
dashlink_connected 1
# HELP dashlink_messages_failed_total Total envelope writes that failed
# TYPE dashlink_messages_failed_total counter
dashlink_messages_failed_total 2
# HELP dashlink_messages_sent_total Total envelopes written to the wire
# TYPE dashlink_messages_sent_total counter
dashlink_messages_sent_total 100
# HELP dashlink_queue_depth Envelopes waiting in the outbound queue
# TYPE dashlink_queue_depth gauge
dashlink_queue_depth 42
# HELP dashlink_queue_dropped_total Envelopes dropped from the outbound queue at capacity
# TYPE dashlink_queue_dropped_total counter
dashlink_queue_dropped_total 3
# HELP dashlink_reconnections_total Total successful connection establishments
# TYPE dashlink_reconnections_total counter
dashlink_reconnections_total 5
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics output: %v", err)
	}
}

func TestCollector_Disconnected(t *testing.T) {
	source := &staticSource{
		status: client.ConnectionStatus{
			State: client.StateReconnectWait,
		},
	}

	c := NewCollector(source)

	expected := `
# HELP dashlink_connected Whether the dashboard connection is established (1 or 0)
# TYPE dashlink_connected gauge
dashlink_connected 0
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(expected), "dashlink_connected"); err != nil {
		t.Errorf("unexpected metrics output: %v", err)
	}
}

func TestCollector_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(NewCollector(&staticSource{})); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
}
