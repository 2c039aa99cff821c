package domain

import (
	"fmt"
	"time"
)

// Timeframe is the prediction horizon. It governs both the granularity of
// the historical lookback and the scaling applied by the forecaster.
type Timeframe string

const (
	Timeframe30m Timeframe = "30m"
	Timeframe1h  Timeframe = "1h"
	Timeframe4h  Timeframe = "4h"
	Timeframe24h Timeframe = "24h"
)

// Timeframes lists all supported timeframes in ascending horizon order.
var Timeframes = []Timeframe{Timeframe30m, Timeframe1h, Timeframe4h, Timeframe24h}

// ParseTimeframe validates a timeframe string.
func ParseTimeframe(s string) (Timeframe, error) {
	switch Timeframe(s) {
	case Timeframe30m, Timeframe1h, Timeframe4h, Timeframe24h:
		return Timeframe(s), nil
	}
	return "", fmt.Errorf("unsupported timeframe %q (want one of 30m, 1h, 4h, 24h)", s)
}

// TimeframeParams bundles every per-timeframe constant: fetch granularity
// for each upstream source and the forecaster's scaling multipliers. The
// values are tuned empirically, not derived; treat them as configuration.
type TimeframeParams struct {
	// Horizon is the duration the prediction looks ahead.
	Horizon time.Duration

	// CoinGeckoDays is the market_chart `days` query parameter.
	CoinGeckoDays float64
	// BackendDays is the lookback sent to the primary prediction backend,
	// and BackendInterval the spacing of the points it returns. The
	// backend serves bare price arrays, so timestamps are synthesized
	// from ChartLookback and BackendInterval.
	BackendDays     float64
	BackendInterval time.Duration
	// BinanceInterval / BinanceLimit map to the klines endpoint.
	BinanceInterval string
	BinanceLimit    int
	// CoinCapInterval maps to the assets history endpoint; ChartLookback
	// is the shared history window (also CoinCap's start parameter).
	CoinCapInterval string
	ChartLookback   time.Duration

	// SyntheticPoints / SyntheticInterval shape generated fallback series.
	SyntheticPoints   int
	SyntheticInterval time.Duration

	// Forecaster multipliers and the sanity-clamp band around the
	// current price. Every timeframe must define all of them.
	VolatilityMult float64
	PredictionMult float64
	ConfidenceMult float64
	MaxChange      float64
}

var timeframeParams = map[Timeframe]TimeframeParams{
	Timeframe30m: {
		Horizon:           30 * time.Minute,
		CoinGeckoDays:     0.021,
		BackendDays:       0.5,
		BackendInterval:   5 * time.Minute,
		BinanceInterval:   "30m",
		BinanceLimit:      60,
		CoinCapInterval:   "m5",
		ChartLookback:     2 * time.Hour,
		SyntheticPoints:   60,
		SyntheticInterval: 30 * time.Second,
		VolatilityMult:    0.5,
		PredictionMult:    0.5,
		ConfidenceMult:    0.8,
		MaxChange:         0.02,
	},
	Timeframe1h: {
		Horizon:           time.Hour,
		CoinGeckoDays:     0.042,
		BackendDays:       1,
		BackendInterval:   15 * time.Minute,
		BinanceInterval:   "1h",
		BinanceLimit:      60,
		CoinCapInterval:   "m15",
		ChartLookback:     24 * time.Hour,
		SyntheticPoints:   96,
		SyntheticInterval: 15 * time.Minute,
		VolatilityMult:    1.0,
		PredictionMult:    1.0,
		ConfidenceMult:    1.0,
		MaxChange:         0.04,
	},
	Timeframe4h: {
		Horizon:           4 * time.Hour,
		CoinGeckoDays:     0.17,
		BackendDays:       7,
		BackendInterval:   time.Hour,
		BinanceInterval:   "4h",
		BinanceLimit:      60,
		CoinCapInterval:   "h1",
		ChartLookback:     7 * 24 * time.Hour,
		SyntheticPoints:   42,
		SyntheticInterval: time.Hour,
		VolatilityMult:    1.5,
		PredictionMult:    1.5,
		ConfidenceMult:    1.2,
		MaxChange:         0.08,
	},
	Timeframe24h: {
		Horizon:           24 * time.Hour,
		CoinGeckoDays:     1,
		BackendDays:       30,
		BackendInterval:   time.Hour,
		BinanceInterval:   "1d",
		BinanceLimit:      24,
		CoinCapInterval:   "h1",
		ChartLookback:     30 * 24 * time.Hour,
		SyntheticPoints:   30,
		SyntheticInterval: time.Hour,
		VolatilityMult:    2.0,
		PredictionMult:    2.0,
		ConfidenceMult:    1.5,
		MaxChange:         0.15,
	},
}

// Params returns the constant table for the timeframe. Unknown timeframes
// are a configuration error; ParseTimeframe guards every external input,
// so ok is false only for values constructed internally by mistake.
func (t Timeframe) Params() (TimeframeParams, bool) {
	p, ok := timeframeParams[t]
	return p, ok
}

// MustParams is Params for timeframes already validated by ParseTimeframe.
func (t Timeframe) MustParams() TimeframeParams {
	p, ok := timeframeParams[t]
	if !ok {
		panic(fmt.Sprintf("no params registered for timeframe %q", t))
	}
	return p
}

func (t Timeframe) String() string { return string(t) }
