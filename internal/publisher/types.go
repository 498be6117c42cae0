package publisher

import "time"

// PortfolioData is the payload of a portfolio_update envelope.
type PortfolioData struct {
	Timestamp    string             `json:"timestamp"`
	Portfolio    PortfolioSummary   `json:"portfolio"`
	Performance  PerformanceMetrics `json:"performance"`
	Positions    []Position         `json:"positions"`
	RecentTrades []TradeRecord      `json:"recent_trades"`
	EquityCurve  []EquityPoint      `json:"equity_curve"`
	Risk         *RiskMetrics       `json:"risk,omitempty"`
}

// PortfolioSummary aggregates current portfolio value and P&L.
type PortfolioSummary struct {
	TotalValue     float64 `json:"total_value"`
	Cash           float64 `json:"cash"`
	PositionsValue float64 `json:"positions_value"`
	UnrealizedPnL  float64 `json:"unrealized_pnl"`
	RealizedPnL    float64 `json:"realized_pnl"`
	TotalPnL       float64 `json:"total_pnl"`
	PositionCount  int     `json:"position_count"`
}

// PerformanceMetrics summarizes strategy performance.
type PerformanceMetrics struct {
	TotalReturn  float64 `json:"total_return"`
	DailyReturn  float64 `json:"daily_return"`
	SharpeRatio  float64 `json:"sharpe_ratio"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	WinRate      float64 `json:"win_rate"`
	ProfitFactor float64 `json:"profit_factor"`
}

// Position is a single open position.
type Position struct {
	Symbol           string  `json:"symbol"`
	Quantity         float64 `json:"quantity"`
	AvgPrice         float64 `json:"avg_price"`
	CurrentPrice     float64 `json:"current_price"`
	MarketValue      float64 `json:"market_value"`
	UnrealizedPnL    float64 `json:"unrealized_pnl"`
	UnrealizedPnLPct float64 `json:"unrealized_pnl_pct"`
	Side             string  `json:"side"`
	EntryTime        string  `json:"entry_time"`
	LastUpdate       string  `json:"last_update"`
}

// TradeRecord is a completed trade.
type TradeRecord struct {
	TradeID    string  `json:"trade_id"`
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Quantity   float64 `json:"quantity"`
	Price      float64 `json:"price"`
	Value      float64 `json:"value"`
	PnL        float64 `json:"pnl"`
	Commission float64 `json:"commission"`
	Timestamp  string  `json:"timestamp"`
	Strategy   string  `json:"strategy"`
}

// EquityPoint is one point on the equity curve chart.
type EquityPoint struct {
	Timestamp string  `json:"timestamp"`
	Equity    float64 `json:"equity"`
	Drawdown  float64 `json:"drawdown"`
}

// RiskMetrics holds portfolio risk measures.
type RiskMetrics struct {
	VaR95                 float64 `json:"var_95"`
	ExpectedShortfall     float64 `json:"expected_shortfall"`
	PositionConcentration float64 `json:"position_concentration"`
	Leverage              float64 `json:"leverage"`
	CorrelationRisk       float64 `json:"correlation_risk"`
	LiquidityRisk         float64 `json:"liquidity_risk"`
}

// TradeSignal is the payload of a trade_signal envelope.
type TradeSignal struct {
	Timestamp  string         `json:"timestamp"`
	Strategy   string         `json:"strategy"`
	Action     string         `json:"action"`
	Symbol     string         `json:"symbol"`
	Price      float64        `json:"price"`
	Quantity   float64        `json:"quantity"`
	Confidence float64        `json:"confidence"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// RiskAlert is the payload of a risk_alert envelope.
type RiskAlert struct {
	AlertID   string         `json:"alert_id"`
	Timestamp string         `json:"timestamp"`
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Severity  string         `json:"severity"`
	Data      map[string]any `json:"data,omitempty"`

	at time.Time // retained for cache expiry
}

// ModelPerformance is a per-model performance sample.
type ModelPerformance struct {
	Timestamp string       `json:"timestamp"`
	ModelName string       `json:"model_name"`
	Metrics   ModelMetrics `json:"metrics"`
}

// ModelMetrics holds prediction-quality and return measures for a model.
type ModelMetrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1_score"`
	Returns   float64 `json:"returns"`
	Sharpe    float64 `json:"sharpe"`
}

// Status is a read-only snapshot of publisher state.
type Status struct {
	Running             bool
	LastPortfolioUpdate time.Time
	SignalsCached       int
	AlertsCached        int
}
