package client

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nexusai/dashlink/internal/backoff"
	"github.com/nexusai/dashlink/internal/envelope"
	"github.com/nexusai/dashlink/internal/queue"
	"github.com/nexusai/dashlink/internal/version"
)

// Client streams telemetry envelopes to the dashboard over a single
// resilient WebSocket connection.
type Client interface {
	// Start launches the connection manager, send, and heartbeat loops.
	Start(ctx context.Context) error

	// Stop terminates all loops, closes the connection, and waits for
	// shutdown. Calling Stop twice is a no-op the second time.
	Stop(ctx context.Context) error

	// PublishPortfolioUpdate enqueues a portfolio_update envelope.
	PublishPortfolioUpdate(data any) error

	// PublishTradeSignal enqueues a trade_signal envelope.
	PublishTradeSignal(data any) error

	// PublishRiskAlert enqueues a risk_alert envelope.
	PublishRiskAlert(data any) error

	// PublishSystemStatus enqueues a system_status envelope snapshotting
	// the client's own state.
	PublishSystemStatus() error

	// Status returns a point-in-time connection status snapshot.
	Status() ConnectionStatus

	// State returns the current lifecycle state.
	State() State
}

// client implements the Client interface.
type client struct {
	cfg    Config
	logger *slog.Logger

	queue *queue.Queue[envelope.Envelope]
	seq   envelope.Sequencer

	// Lifecycle and session state
	mu                sync.RWMutex
	state             State
	sess              *session
	reconnectAttempts int
	startedAt         time.Time
	running           bool

	// Publishing parameters, mutable via config_update
	paramMu      sync.RWMutex
	sendInterval time.Duration
	batchSize    int
	compress     bool

	statsMu sync.Mutex
	stats   Stats

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a dashboard client. Zero-valued timing and sizing fields are
// filled from DefaultConfig.
func New(cfg Config, logger *slog.Logger) Client {
	if logger == nil {
		logger = slog.Default()
	}

	def := DefaultConfig()
	if cfg.SystemID == "" {
		cfg.SystemID = def.SystemID
	}
	if cfg.MaxReconnectAttempts <= 0 {
		cfg.MaxReconnectAttempts = def.MaxReconnectAttempts
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = def.ReconnectDelay
	}
	if cfg.MaxReconnectDelay <= 0 {
		cfg.MaxReconnectDelay = def.MaxReconnectDelay
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = def.ConnectTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.SendInterval <= 0 {
		cfg.SendInterval = def.SendInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = def.HeartbeatInterval
	}

	return &client{
		cfg:          cfg,
		logger:       logger,
		queue:        queue.New[envelope.Envelope](cfg.QueueLimit),
		state:        StateDisconnected,
		sendInterval: cfg.SendInterval,
		batchSize:    cfg.BatchSize,
		compress:     cfg.Compress,
	}
}

// Start launches the background loops. It does not wait for the first
// connection; the manager loop keeps retrying until Stop.
func (c *client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		c.logger.Warn("client already running")
		return nil
	}
	c.running = true
	c.startedAt = time.Now()
	c.state = StateDisconnected
	c.mu.Unlock()

	c.ctx, c.cancel = context.WithCancel(ctx)

	c.wg.Add(3)
	go c.connectLoop()
	go c.sendLoop()
	go c.heartbeatLoop()

	c.logger.Info("dashboard client started",
		"url", c.cfg.URL,
		"system_id", c.cfg.SystemID,
		"compress", c.cfg.Compress,
	)
	return nil
}

// Stop shuts down all loops and closes the live connection.
func (c *client) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false
	c.mu.Unlock()

	c.logger.Info("stopping dashboard client")

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		c.logger.Warn("shutdown timeout, forcing close")
	}

	c.mu.Lock()
	if c.sess != nil {
		c.sess.close()
		c.sess = nil
	}
	c.state = StateStopped
	c.mu.Unlock()

	c.queue.Close()

	c.logger.Info("dashboard client stopped")
	return nil
}

func (c *client) PublishPortfolioUpdate(data any) error {
	return c.publish(envelope.TypePortfolioUpdate, data)
}

func (c *client) PublishTradeSignal(data any) error {
	return c.publish(envelope.TypeTradeSignal, data)
}

func (c *client) PublishRiskAlert(data any) error {
	return c.publish(envelope.TypeRiskAlert, data)
}

func (c *client) PublishSystemStatus() error {
	return c.publish(envelope.TypeSystemStatus, c.statusPayload())
}

// publish wraps data in a sequenced envelope and enqueues it.
func (c *client) publish(messageType string, data any) error {
	c.mu.RLock()
	running := c.running
	c.mu.RUnlock()
	if !running {
		return ErrStopped
	}

	env := envelope.New(messageType, data, c.cfg.SystemID, c.seq.Next())
	if !c.queue.Enqueue(env) {
		return ErrStopped
	}
	return nil
}

// Status returns a snapshot of connection state and counters.
func (c *client) Status() ConnectionStatus {
	c.mu.RLock()
	state := c.state
	attempts := c.reconnectAttempts
	running := c.running
	c.mu.RUnlock()

	qs := c.queue.Stats()

	c.statsMu.Lock()
	stats := c.stats
	c.statsMu.Unlock()

	return ConnectionStatus{
		Connected:         state == StateConnected,
		Running:           running,
		State:             state,
		ReconnectAttempts: attempts,
		QueueDepth:        qs.Pending,
		QueueDropped:      qs.Dropped,
		Stats:             stats,
	}
}

// State returns the current lifecycle state.
func (c *client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// connectLoop is the connection manager: it drives the
// connect → handshake → stream → reconnect-wait cycle until cancellation.
func (c *client) connectLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		c.setState(StateConnecting)
		c.logger.Info("connecting to dashboard", "url", c.cfg.URL)

		sess, err := c.dial()
		if err != nil {
			c.logger.Error("failed to connect to dashboard", "error", err)
			c.setState(StateReconnectWait)
			if !c.waitReconnect() {
				return
			}
			continue
		}

		// Handshake is fire-and-forget: the connection counts as usable
		// as soon as the handshake write succeeds.
		c.setState(StateHandshaking)
		if err := c.write(sess, c.handshakeEnvelope()); err != nil {
			c.logger.Error("handshake send failed", "error", err)
			sess.close()
			c.setState(StateReconnectWait)
			if !c.waitReconnect() {
				return
			}
			continue
		}
		c.logger.Info("handshake sent to dashboard")

		c.mu.Lock()
		c.sess = sess
		c.state = StateConnected
		c.reconnectAttempts = 0
		c.mu.Unlock()

		c.statsMu.Lock()
		c.stats.Reconnections++
		c.statsMu.Unlock()

		readDone := make(chan struct{})
		go c.readLoop(sess, readDone)

		select {
		case <-c.ctx.Done():
			sess.close()
			<-readDone
			c.mu.Lock()
			c.sess = nil
			c.mu.Unlock()
			return
		case <-readDone:
		}

		c.mu.Lock()
		c.sess = nil
		c.mu.Unlock()

		c.setState(StateReconnectWait)
		if !c.waitReconnect() {
			return
		}
	}
}

// dial opens the WebSocket connection with auth headers and the configured
// TLS verification mode.
func (c *client) dial() (*session, error) {
	header := http.Header{}
	header.Set("X-System-ID", c.cfg.SystemID)
	header.Set("X-Client-Type", "nexus-trading")
	if c.cfg.APIKey != "" {
		header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.ConnectTimeout,
	}
	if strings.HasPrefix(c.cfg.URL, "wss://") {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: !c.cfg.TLSVerify,
		}
	}

	ctx, cancel := context.WithTimeout(c.ctx, c.cfg.ConnectTimeout)
	defer cancel()

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		return nil, err
	}

	return newSession(conn, c.cfg.WriteTimeout), nil
}

func (c *client) handshakeEnvelope() envelope.Envelope {
	c.paramMu.RLock()
	interval := c.sendInterval
	batchSize := c.batchSize
	compress := c.compress
	c.paramMu.RUnlock()

	payload := handshakePayload{
		SystemInfo: handshakeSystemInfo{
			SystemID:     c.cfg.SystemID,
			Version:      version.Version,
			Timestamp:    time.Now().Format(time.RFC3339Nano),
			Capabilities: []string{"real_time_data", "compressed_data", "batch_updates"},
		},
		Config: handshakeConfig{
			SendInterval: interval.Seconds(),
			BatchSize:    batchSize,
			Compression:  compress,
		},
	}

	// Handshake bypasses the sequence stream.
	return envelope.New(envelope.TypeHandshake, payload, c.cfg.SystemID, 0)
}

// readLoop decodes every inbound frame and dispatches it. Transport errors
// end the session; decode and handler errors never do.
func (c *client) readLoop(sess *session, done chan struct{}) {
	defer close(done)

	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.ctx.Done():
			default:
				c.logger.Warn("dashboard connection lost", "error", err)
			}
			return
		}
		c.handleInbound(data)
	}
}

// sendLoop periodically drains the queue and sends batches while connected.
func (c *client) sendLoop() {
	defer c.wg.Done()

	for {
		interval, batchSize := c.publishParams()

		select {
		case <-c.ctx.Done():
			return
		case <-time.After(interval):
		}

		if c.State() != StateConnected {
			continue
		}

		batch := c.queue.DrainBatch(batchSize)
		if len(batch) == 0 {
			continue
		}

		var env envelope.Envelope
		if len(batch) == 1 {
			env = batch[0]
		} else {
			env = envelope.New(
				envelope.TypeBatch,
				envelope.BatchPayload{Messages: batch},
				c.cfg.SystemID,
				c.seq.Next(),
			)
		}

		// At-most-once: a failed batch is not requeued, the next periodic
		// publish re-establishes current state.
		if err := c.send(env); err != nil {
			c.logger.Error("send failed, dropping batch",
				"count", len(batch),
				"error", err,
			)
		} else if len(batch) > 1 {
			c.logger.Debug("sent batch", "count", len(batch))
		}
	}
}

// heartbeatLoop sends out-of-band liveness envelopes on a fixed period.
func (c *client) heartbeatLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-time.After(c.cfg.HeartbeatInterval):
		}

		if c.State() != StateConnected {
			continue
		}

		c.mu.RLock()
		uptime := time.Since(c.startedAt).Seconds()
		c.mu.RUnlock()

		payload := heartbeatPayload{
			Timestamp: time.Now().Format(time.RFC3339Nano),
			Uptime:    uptime,
			QueueSize: c.queue.Len(),
		}
		env := envelope.New(envelope.TypeHeartbeat, payload, c.cfg.SystemID, c.seq.Next())

		if err := c.send(env); err != nil {
			c.logger.Warn("heartbeat send failed", "error", err)
			continue
		}

		c.statsMu.Lock()
		c.stats.LastHeartbeat = time.Now()
		c.statsMu.Unlock()
	}
}

// waitReconnect applies exponential backoff between attempts. Once the
// attempt budget is exhausted it falls back to a fixed slow cadence and
// resets the counter; the client never permanently gives up. Returns false
// on cancellation.
func (c *client) waitReconnect() bool {
	c.mu.Lock()
	var wait time.Duration
	if c.reconnectAttempts < c.cfg.MaxReconnectAttempts {
		c.reconnectAttempts++
		attempt := c.reconnectAttempts
		wait = backoff.Delay(attempt, c.cfg.ReconnectDelay, c.cfg.MaxReconnectDelay)
		c.mu.Unlock()

		c.logger.Info("reconnecting to dashboard",
			"wait", wait,
			"attempt", attempt,
			"max_attempts", c.cfg.MaxReconnectAttempts,
		)
	} else {
		c.reconnectAttempts = 0
		wait = c.cfg.MaxReconnectDelay
		c.mu.Unlock()

		c.logger.Error("reconnect attempts exhausted, slowing retry cadence",
			"wait", wait,
		)
	}

	select {
	case <-c.ctx.Done():
		return false
	case <-time.After(wait):
		return true
	}
}

// send writes an envelope through the live session, if any. The caller
// never touches the connection handle directly.
func (c *client) send(env envelope.Envelope) error {
	c.mu.RLock()
	sess := c.sess
	c.mu.RUnlock()

	if sess == nil {
		return ErrNotConnected
	}
	return c.write(sess, env)
}

// write encodes and writes an envelope, maintaining counters. A write
// failure closes the session so the read loop triggers the reconnect
// cycle.
func (c *client) write(sess *session, env envelope.Envelope) error {
	c.paramMu.RLock()
	compress := c.compress
	c.paramMu.RUnlock()

	data, err := envelope.Encode(env, compress)
	if err != nil {
		return err
	}

	if err := sess.write(data); err != nil {
		c.statsMu.Lock()
		c.stats.MessagesFailed++
		c.statsMu.Unlock()

		sess.close()
		return err
	}

	c.statsMu.Lock()
	c.stats.MessagesSent++
	c.stats.BytesSent += uint64(len(data))
	c.statsMu.Unlock()

	if c.cfg.Recorder != nil {
		c.cfg.Recorder.Record(env, len(data))
	}
	return nil
}

func (c *client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *client) publishParams() (time.Duration, int) {
	c.paramMu.RLock()
	defer c.paramMu.RUnlock()
	return c.sendInterval, c.batchSize
}

func (c *client) statusPayload() statusPayload {
	c.mu.RLock()
	running := c.running
	connected := c.state == StateConnected
	c.mu.RUnlock()

	c.statsMu.Lock()
	stats := c.stats
	c.statsMu.Unlock()

	c.paramMu.RLock()
	interval := c.sendInterval
	batchSize := c.batchSize
	compress := c.compress
	c.paramMu.RUnlock()

	status := "stopped"
	if running {
		status = "running"
	}
	connection := "disconnected"
	if connected {
		connection = "connected"
	}

	payload := statusPayload{
		Status:     status,
		Connection: connection,
		Stats: statsPayload{
			MessagesSent:   stats.MessagesSent,
			MessagesFailed: stats.MessagesFailed,
			BytesSent:      stats.BytesSent,
			Reconnections:  stats.Reconnections,
		},
		Config: map[string]any{
			"send_interval":      interval.Seconds(),
			"batch_size":         batchSize,
			"compress_data":      compress,
			"heartbeat_interval": c.cfg.HeartbeatInterval.Seconds(),
		},
	}
	if !stats.LastHeartbeat.IsZero() {
		payload.Stats.LastHeartbeat = stats.LastHeartbeat.Format(time.RFC3339Nano)
	}
	return payload
}
