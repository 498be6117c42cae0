package journal

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexusai/dashlink/internal/envelope"
	"github.com/nexusai/dashlink/internal/queue"
)

// Writer records every envelope handed to the wire into the
// sent_envelopes table. It is an audit trail, not a delivery guarantee:
// records are accepted without blocking the send path and dropped when
// the database cannot keep up.
type Writer struct {
	cfg    Config
	logger *slog.Logger

	// Input from the client send path
	input *queue.Queue[record]

	// Database
	db *pgxpool.Pool

	// Batching
	batch       []record
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Metrics
	metrics Metrics
}

// NewWriter creates a journal writer over an established pool.
func NewWriter(cfg Config, db *pgxpool.Pool, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultConfig().FlushInterval
	}
	if cfg.QueueLimit <= 0 {
		cfg.QueueLimit = DefaultConfig().QueueLimit
	}
	return &Writer{
		cfg:    cfg,
		db:     db,
		logger: logger,
		input:  queue.New[record](cfg.QueueLimit),
		batch:  make([]record, 0, cfg.BatchSize),
	}
}

// Record implements client.Recorder. It never blocks the caller.
func (w *Writer) Record(env envelope.Envelope, wireBytes int) {
	payload, err := json.Marshal(env.Data)
	if err != nil {
		payload = []byte("null")
	}

	sentAt, err := time.Parse(time.RFC3339Nano, env.Timestamp)
	if err != nil {
		sentAt = time.Now().UTC()
	}

	w.input.Enqueue(record{
		MessageType: env.MessageType,
		SystemID:    env.SystemID,
		SequenceID:  int64(env.SequenceID),
		SentAt:      sentAt,
		WireBytes:   wireBytes,
		Payload:     payload,
	})
}

// Start begins consuming records and writing to the database.
func (w *Writer) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.consumeLoop()

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("journal writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the writer.
func (w *Writer) Stop(ctx context.Context) error {
	w.logger.Info("stopping journal writer")

	if w.cancel != nil {
		w.cancel()
	}

	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("journal writer stopped")
	case <-ctx.Done():
		w.logger.Warn("journal writer stop timed out")
	}

	// Final flush
	w.drainInput()
	w.flush()

	return nil
}

// Stats returns current metrics.
func (w *Writer) Stats() Metrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	m := w.metrics
	m.Dropped = int64(w.input.Stats().Dropped)
	return m
}

// consumeLoop drains the input queue and accumulates batches.
func (w *Writer) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
			if !w.drainInput() {
				// Queue empty, wait a bit before trying again
				select {
				case <-w.ctx.Done():
					return
				case <-time.After(10 * time.Millisecond):
				}
			}
		}
	}
}

// drainInput moves pending records into the batch. Returns false when
// the queue was empty.
func (w *Writer) drainInput() bool {
	recs := w.input.DrainBatch(w.cfg.BatchSize)
	if len(recs) == 0 {
		return false
	}

	w.batchMu.Lock()
	w.batch = append(w.batch, recs...)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush()
	}
	return true
}

// flushLoop periodically flushes the batch.
func (w *Writer) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush()
		}
	}
}

// flush writes the current batch to the database.
func (w *Writer) flush() {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := w.batch
	w.batch = make([]record, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	if err := w.batchInsert(batch); err != nil {
		w.logger.Error("journal insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(batch))
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed journal records",
		"count", len(batch),
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch.
func (w *Writer) batchInsert(rows []record) error {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO sent_envelopes (message_type, system_id, sequence_id, sent_at, wire_bytes, payload)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, r.MessageType, r.SystemID, r.SequenceID, r.SentAt, r.WireBytes, r.Payload)
	}

	// The final flush runs after the writer context is cancelled, so
	// give it its own bounded context.
	ctx := w.ctx
	if ctx == nil || ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}

	return nil
}
