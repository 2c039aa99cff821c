package domain

import "time"

// Trend is the overall direction read from the recent price window.
type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
)

// Action is a trading recommendation direction.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Recommendation is the human-facing summary of a forecast.
type Recommendation struct {
	Action         Action  `json:"action"`
	Confidence     float64 `json:"confidence"`
	PriceChangePct float64 `json:"price_change_pct"`
	Reasoning      string  `json:"reasoning"`
}

// ForecastResult is the full output of one forecaster invocation. It is
// created fresh per call and never mutated afterwards.
type ForecastResult struct {
	ID             int64     `json:"id,omitempty"`
	Symbol         string    `json:"symbol"`
	Timeframe      Timeframe `json:"timeframe"`
	CurrentPrice   float64   `json:"current_price"`
	PredictedPrice float64   `json:"predicted_price"`

	Trend      Trend   `json:"trend"`
	Confidence float64 `json:"confidence"`

	Support    float64 `json:"support"`
	Resistance float64 `json:"resistance"`

	VolatilityPct float64 `json:"volatility_pct"`
	MomentumPct   float64 `json:"momentum_pct"`
	AvgChangePct  float64 `json:"avg_change_pct"`

	RiskScore         int     `json:"risk_score"`
	PriceIncreaseProb int     `json:"price_increase_prob"`
	SentimentScore    float64 `json:"sentiment_score"`

	ShortTermTarget float64 `json:"short_term_target"`
	MidTermTarget   float64 `json:"mid_term_target"`
	LongTermTarget  float64 `json:"long_term_target"`

	Recommendation Recommendation `json:"recommendation"`

	// Synthetic is set when the forecast was computed over generated
	// fallback data rather than a real price history.
	Synthetic bool      `json:"synthetic"`
	CreatedAt time.Time `json:"created_at"`
}
