// Package metrics exposes Prometheus metrics for the publishing
// pipeline.
//
// Key metrics:
//   - Connection state and reconnect counts
//   - Message and byte throughput
//   - Outbound queue depth and drops
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nexusai/dashlink/internal/client"
)

// StatusSource supplies the snapshot the collector scrapes. The
// dashboard client satisfies it.
type StatusSource interface {
	Status() client.ConnectionStatus
}

// Collector translates a status snapshot into Prometheus metrics on
// each scrape. The client keeps its own counters, so no background
// goroutine is needed here.
type Collector struct {
	source StatusSource

	messagesSent   *prometheus.Desc
	messagesFailed *prometheus.Desc
	bytesSent      *prometheus.Desc
	reconnections  *prometheus.Desc
	queueDepth     *prometheus.Desc
	queueDropped   *prometheus.Desc
	connected      *prometheus.Desc
}

// NewCollector creates a collector over a status source.
func NewCollector(source StatusSource) *Collector {
	return &Collector{
		source: source,
		messagesSent: prometheus.NewDesc(
			"dashlink_messages_sent_total",
			"Total envelopes written to the wire",
			nil, nil,
		),
		messagesFailed: prometheus.NewDesc(
			"dashlink_messages_failed_total",
			"Total envelope writes that failed",
			nil, nil,
		),
		bytesSent: prometheus.NewDesc(
			"dashlink_bytes_sent_total",
			"Total wire bytes written",
			nil, nil,
		),
		reconnections: prometheus.NewDesc(
			"dashlink_reconnections_total",
			"Total successful connection establishments",
			nil, nil,
		),
		queueDepth: prometheus.NewDesc(
			"dashlink_queue_depth",
			"Envelopes waiting in the outbound queue",
			nil, nil,
		),
		queueDropped: prometheus.NewDesc(
			"dashlink_queue_dropped_total",
			"Envelopes dropped from the outbound queue at capacity",
			nil, nil,
		),
		connected: prometheus.NewDesc(
			"dashlink_connected",
			"Whether the dashboard connection is established (1 or 0)",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.messagesSent
	ch <- c.messagesFailed
	ch <- c.bytesSent
	ch <- c.reconnections
	ch <- c.queueDepth
	ch <- c.queueDropped
	ch <- c.connected
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st := c.source.Status()

	ch <- prometheus.MustNewConstMetric(c.messagesSent, prometheus.CounterValue, float64(st.Stats.MessagesSent))
	ch <- prometheus.MustNewConstMetric(c.messagesFailed, prometheus.CounterValue, float64(st.Stats.MessagesFailed))
	ch <- prometheus.MustNewConstMetric(c.bytesSent, prometheus.CounterValue, float64(st.Stats.BytesSent))
	ch <- prometheus.MustNewConstMetric(c.reconnections, prometheus.CounterValue, float64(st.Stats.Reconnections))
	ch <- prometheus.MustNewConstMetric(c.queueDepth, prometheus.GaugeValue, float64(st.QueueDepth))
	ch <- prometheus.MustNewConstMetric(c.queueDropped, prometheus.CounterValue, float64(st.QueueDropped))

	connected := 0.0
	if st.Connected {
		connected = 1.0
	}
	ch <- prometheus.MustNewConstMetric(c.connected, prometheus.GaugeValue, connected)
}
