package publisher

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nexusai/dashlink/internal/client"
)

const alertRetention = 24 * time.Hour

// Config configures the data publisher.
type Config struct {
	// StatusInterval is the period of the system-status loop.
	StatusInterval time.Duration

	// MaxHistoryLength bounds the signal cache and per-model performance
	// history.
	MaxHistoryLength int
}

// DefaultConfig returns the default publisher configuration.
func DefaultConfig() Config {
	return Config{
		StatusInterval:   30 * time.Second,
		MaxHistoryLength: 1000,
	}
}

// Publisher formats and publishes trading data through the dashboard
// client.
type Publisher struct {
	cfg    Config
	client client.Client
	logger *slog.Logger

	mu                  sync.Mutex
	running             bool
	lastPortfolioUpdate time.Time
	signalCache         []TradeSignal
	riskAlerts          []RiskAlert
	perfHistory         map[string][]ModelPerformance

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a publisher on top of a dashboard client.
func New(cfg Config, c client.Client, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.StatusInterval <= 0 {
		cfg.StatusInterval = def.StatusInterval
	}
	if cfg.MaxHistoryLength <= 0 {
		cfg.MaxHistoryLength = def.MaxHistoryLength
	}

	return &Publisher{
		cfg:         cfg,
		client:      c,
		logger:      logger,
		perfHistory: make(map[string][]ModelPerformance),
	}
}

// Start launches the periodic system-status loop.
func (p *Publisher) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		p.logger.Warn("publisher already running")
		return nil
	}
	p.running = true
	p.mu.Unlock()

	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.statusLoop()

	p.logger.Info("data publisher started", "status_interval", p.cfg.StatusInterval)
	return nil
}

// Stop terminates the status loop.
func (p *Publisher) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		p.logger.Warn("publisher stop timed out")
	}

	p.logger.Info("data publisher stopped")
	return nil
}

// PublishPortfolio publishes a portfolio snapshot. A missing timestamp is
// filled with the current time.
func (p *Publisher) PublishPortfolio(data PortfolioData) error {
	if data.Timestamp == "" {
		data.Timestamp = time.Now().Format(time.RFC3339Nano)
	}

	if err := p.client.PublishPortfolioUpdate(data); err != nil {
		return err
	}

	p.mu.Lock()
	p.lastPortfolioUpdate = time.Now()
	p.mu.Unlock()

	p.logger.Debug("portfolio data published",
		"total_value", data.Portfolio.TotalValue,
		"positions", data.Portfolio.PositionCount,
	)
	return nil
}

// PublishTradeSignal publishes a trading signal and caches it.
func (p *Publisher) PublishTradeSignal(sig TradeSignal) error {
	if sig.Timestamp == "" {
		sig.Timestamp = time.Now().Format(time.RFC3339Nano)
	}
	if sig.Strategy == "" {
		sig.Strategy = "unknown"
	}
	if sig.Action == "" {
		sig.Action = "HOLD"
	}

	if err := p.client.PublishTradeSignal(sig); err != nil {
		return err
	}

	p.mu.Lock()
	p.signalCache = append(p.signalCache, sig)
	p.trimSignalCache()
	p.mu.Unlock()

	p.logger.Debug("trade signal published",
		"strategy", sig.Strategy,
		"symbol", sig.Symbol,
		"action", sig.Action,
	)
	return nil
}

// PublishRiskAlert publishes a risk alert with a generated alert id and
// caches it for 24 hours.
func (p *Publisher) PublishRiskAlert(alertType, message, severity string, data map[string]any) error {
	now := time.Now()
	alert := RiskAlert{
		AlertID:   alertType + "_" + uuid.NewString(),
		Timestamp: now.Format(time.RFC3339Nano),
		Type:      alertType,
		Message:   message,
		Severity:  strings.ToLower(severity),
		Data:      data,
		at:        now,
	}

	if err := p.client.PublishRiskAlert(alert); err != nil {
		return err
	}

	p.mu.Lock()
	p.riskAlerts = append(p.riskAlerts, alert)
	p.expireRiskAlerts(now)
	p.mu.Unlock()

	p.logger.Info("risk alert published",
		"type", alertType,
		"severity", alert.Severity,
	)
	return nil
}

// PublishModelPerformance publishes a model performance sample and appends
// it to the bounded per-model history.
func (p *Publisher) PublishModelPerformance(modelName string, metrics ModelMetrics) error {
	perf := ModelPerformance{
		Timestamp: time.Now().Format(time.RFC3339Nano),
		ModelName: modelName,
		Metrics:   metrics,
	}

	if err := p.client.PublishPortfolioUpdate(map[string]any{"model_performance": perf}); err != nil {
		return err
	}

	p.mu.Lock()
	history := append(p.perfHistory[modelName], perf)
	if len(history) > p.cfg.MaxHistoryLength {
		history = history[len(history)-p.cfg.MaxHistoryLength:]
	}
	p.perfHistory[modelName] = history
	p.mu.Unlock()

	p.logger.Debug("model performance published", "model", modelName)
	return nil
}

// PerformanceHistory returns the cached samples for a model, newest last.
func (p *Publisher) PerformanceHistory(modelName string) []ModelPerformance {
	p.mu.Lock()
	defer p.mu.Unlock()
	history := p.perfHistory[modelName]
	out := make([]ModelPerformance, len(history))
	copy(out, history)
	return out
}

// Status returns a snapshot of publisher state.
func (p *Publisher) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		Running:             p.running,
		LastPortfolioUpdate: p.lastPortfolioUpdate,
		SignalsCached:       len(p.signalCache),
		AlertsCached:        len(p.riskAlerts),
	}
}

// statusLoop periodically publishes a system_status envelope.
func (p *Publisher) statusLoop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-time.After(p.cfg.StatusInterval):
		}

		if err := p.client.PublishSystemStatus(); err != nil {
			p.logger.Warn("system status publish failed", "error", err)
		}
	}
}

// trimSignalCache halves the cache when it exceeds the history bound.
// Must be called with p.mu held.
func (p *Publisher) trimSignalCache() {
	if len(p.signalCache) > p.cfg.MaxHistoryLength {
		keep := p.cfg.MaxHistoryLength / 2
		p.signalCache = append([]TradeSignal(nil), p.signalCache[len(p.signalCache)-keep:]...)
	}
}

// expireRiskAlerts drops alerts older than the retention window. Must be
// called with p.mu held.
func (p *Publisher) expireRiskAlerts(now time.Time) {
	cutoff := now.Add(-alertRetention)
	kept := p.riskAlerts[:0]
	for _, alert := range p.riskAlerts {
		if alert.at.After(cutoff) {
			kept = append(kept, alert)
		}
	}
	p.riskAlerts = kept
}
