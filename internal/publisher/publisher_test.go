package publisher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexusai/dashlink/internal/client"
)

// fakeClient captures publishes without a network.
type fakeClient struct {
	mu         sync.Mutex
	portfolios []any
	signals    []any
	alerts     []any
	statuses   int
}

func (f *fakeClient) Start(ctx context.Context) error { return nil }
func (f *fakeClient) Stop(ctx context.Context) error  { return nil }
func (f *fakeClient) Status() client.ConnectionStatus { return client.ConnectionStatus{} }
func (f *fakeClient) State() client.State             { return client.StateConnected }

func (f *fakeClient) PublishPortfolioUpdate(data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.portfolios = append(f.portfolios, data)
	return nil
}

func (f *fakeClient) PublishTradeSignal(data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signals = append(f.signals, data)
	return nil
}

func (f *fakeClient) PublishRiskAlert(data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, data)
	return nil
}

func (f *fakeClient) PublishSystemStatus() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses++
	return nil
}

func (f *fakeClient) statusCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statuses
}

func TestPublisher_PortfolioFillsTimestamp(t *testing.T) {
	fc := &fakeClient{}
	p := New(DefaultConfig(), fc, nil)

	err := p.PublishPortfolio(PortfolioData{
		Portfolio: PortfolioSummary{TotalValue: 100000, PositionCount: 3},
	})
	require.NoError(t, err)

	require.Len(t, fc.portfolios, 1)
	sent := fc.portfolios[0].(PortfolioData)
	assert.NotEmpty(t, sent.Timestamp)
	assert.Equal(t, float64(100000), sent.Portfolio.TotalValue)

	status := p.Status()
	assert.False(t, status.LastPortfolioUpdate.IsZero())
}

func TestPublisher_TradeSignalDefaults(t *testing.T) {
	fc := &fakeClient{}
	p := New(DefaultConfig(), fc, nil)

	err := p.PublishTradeSignal(TradeSignal{Symbol: "BTC-USD", Price: 64250.0})
	require.NoError(t, err)

	require.Len(t, fc.signals, 1)
	sent := fc.signals[0].(TradeSignal)
	assert.Equal(t, "unknown", sent.Strategy)
	assert.Equal(t, "HOLD", sent.Action)
	assert.NotEmpty(t, sent.Timestamp)

	assert.Equal(t, 1, p.Status().SignalsCached)
}

func TestPublisher_SignalCacheTrimmed(t *testing.T) {
	fc := &fakeClient{}
	cfg := DefaultConfig()
	cfg.MaxHistoryLength = 10
	p := New(cfg, fc, nil)

	for i := 0; i < 11; i++ {
		require.NoError(t, p.PublishTradeSignal(TradeSignal{Symbol: "AAPL"}))
	}

	// Crossing the bound halves the cache.
	assert.Equal(t, 5, p.Status().SignalsCached)
}

func TestPublisher_RiskAlert(t *testing.T) {
	fc := &fakeClient{}
	p := New(DefaultConfig(), fc, nil)

	err := p.PublishRiskAlert("drawdown", "max drawdown breached", "HIGH", map[string]any{
		"drawdown": 0.12,
	})
	require.NoError(t, err)

	require.Len(t, fc.alerts, 1)
	sent := fc.alerts[0].(RiskAlert)
	assert.Equal(t, "drawdown", sent.Type)
	assert.Equal(t, "high", sent.Severity, "severity is normalized to lower case")
	assert.NotEmpty(t, sent.AlertID)
	assert.Contains(t, sent.AlertID, "drawdown_")

	assert.Equal(t, 1, p.Status().AlertsCached)
}

func TestPublisher_ExpiredAlertsDropped(t *testing.T) {
	fc := &fakeClient{}
	p := New(DefaultConfig(), fc, nil)

	// Seed a stale alert directly, then publish a fresh one to trigger
	// expiry.
	p.mu.Lock()
	p.riskAlerts = append(p.riskAlerts, RiskAlert{Type: "old", at: time.Now().Add(-25 * time.Hour)})
	p.mu.Unlock()

	require.NoError(t, p.PublishRiskAlert("fresh", "msg", "low", nil))

	assert.Equal(t, 1, p.Status().AlertsCached)
}

func TestPublisher_ModelPerformanceHistoryBounded(t *testing.T) {
	fc := &fakeClient{}
	cfg := DefaultConfig()
	cfg.MaxHistoryLength = 5
	p := New(cfg, fc, nil)

	for i := 0; i < 8; i++ {
		err := p.PublishModelPerformance("lstm_v2", ModelMetrics{Accuracy: float64(i)})
		require.NoError(t, err)
	}

	history := p.PerformanceHistory("lstm_v2")
	require.Len(t, history, 5)
	// Oldest samples were evicted.
	assert.Equal(t, float64(3), history[0].Metrics.Accuracy)
	assert.Equal(t, float64(7), history[4].Metrics.Accuracy)

	assert.Empty(t, p.PerformanceHistory("unknown_model"))
}

func TestPublisher_StatusLoop(t *testing.T) {
	fc := &fakeClient{}
	cfg := Config{StatusInterval: 20 * time.Millisecond, MaxHistoryLength: 10}
	p := New(cfg, fc, nil)

	require.NoError(t, p.Start(context.Background()))
	defer p.Stop(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for fc.statusCount() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("status loop published %d times, want >= 2", fc.statusCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPublisher_StopIdempotent(t *testing.T) {
	fc := &fakeClient{}
	p := New(DefaultConfig(), fc, nil)

	require.NoError(t, p.Start(context.Background()))
	require.NoError(t, p.Stop(context.Background()))
	require.NoError(t, p.Stop(context.Background()))
	assert.False(t, p.Status().Running)
}
