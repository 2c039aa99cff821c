// Package forecast derives a heuristic price forecast from a recent price
// window. The forecaster is a pure computation over its inputs plus an
// injected random source; it performs no I/O.
package forecast

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"foresight/internal/domain"
)

// analysisWindow caps how many trailing points feed the heuristic.
const analysisWindow = 20

// defaultVolatility seeds the estimate when the window is too short to
// compute one and no 24h change is available.
const defaultVolatility = 0.02

// Input carries everything one forecast needs.
type Input struct {
	Symbol    string
	Timeframe domain.Timeframe
	// Window is the recent price history, oldest first. Only the last
	// 20 points are analyzed.
	Window []domain.PricePoint
	// CurrentPrice anchors the prediction. Usually the live quote, or
	// the window's final price when no quote is available.
	CurrentPrice float64
	// Change24hPct is the 24h percent change from the quote source. It
	// seeds the volatility estimate for windows too short to compute one.
	Change24hPct float64
	// Synthetic is propagated to the result unchanged.
	Synthetic bool
}

// Forecaster computes heuristic forecasts.
type Forecaster struct {
	rng *rand.Rand
}

// New creates a forecaster. Pass a seeded rand for deterministic tests.
func New(rng *rand.Rand) *Forecaster {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Forecaster{rng: rng}
}

// Forecast analyzes the input window and produces a full result. The window
// may be arbitrarily short; degenerate inputs fall back to neutral values
// rather than erroring.
func (f *Forecaster) Forecast(in Input) domain.ForecastResult {
	params := in.Timeframe.MustParams()

	window := in.Window
	if len(window) > analysisWindow {
		window = window[len(window)-analysisWindow:]
	}

	changes := make([]float64, 0, len(window))
	for i := 1; i < len(window); i++ {
		prev := window[i-1].Price
		if prev == 0 {
			continue
		}
		changes = append(changes, (window[i].Price-prev)/prev)
	}

	avgChange := mean(changes)

	baseVolatility := stddev(changes, avgChange)
	if len(changes) == 0 {
		baseVolatility = math.Abs(in.Change24hPct) / 100
		if baseVolatility == 0 {
			baseVolatility = defaultVolatility
		}
	}
	volatility := baseVolatility * params.VolatilityMult

	trend := domain.TrendBearish
	if len(window) > 0 && window[len(window)-1].Price > window[0].Price {
		trend = domain.TrendBullish
	}

	// Momentum compares the back half of the window against the front
	// half, so accelerating moves score higher than steady ones.
	half := len(changes) / 2
	momentum := mean(changes[half:]) - mean(changes[:half])

	trendConsistency := 0.0
	if len(changes) > 0 {
		agree := 0
		for _, c := range changes {
			if (trend == domain.TrendBullish && c > 0) || (trend == domain.TrendBearish && c < 0) {
				agree++
			}
		}
		trendConsistency = float64(agree) / float64(len(changes))
	}

	confidence := clamp(math.Floor(trendConsistency*100*params.ConfidenceMult-volatility*500), 60, 95)

	pm := params.PredictionMult
	predictedChange := (avgChange*5+momentum*10)*pm + (f.rng.Float64()-0.5)*volatility*2
	predictedChange = clamp(predictedChange, -params.MaxChange, params.MaxChange)
	predictedPrice := in.CurrentPrice * (1 + predictedChange)

	lo, hi := priceRange(window, in.CurrentPrice)
	support := lo * (1 - volatility*pm)
	resistance := hi * (1 + volatility*pm)

	dir := 1.0
	if trend == domain.TrendBearish {
		dir = -1
	}
	shortTarget := predictedPrice * (1 + f.rng.Float64()*0.05*pm*dir)
	midTarget := predictedPrice * (1 + f.rng.Float64()*0.15*pm*dir)
	longTarget := predictedPrice * (1 + f.rng.Float64()*0.3*pm*dir)

	sentiment := clamp(50+avgChange*1000*pm+momentum*500*pm, 0, 100)
	risk := int(clamp(math.Round(volatility*100*pm), 1, 10))
	prob := int(clamp(math.Round(50+momentum*500*pm+avgChange*300*pm), 1, 99))

	return domain.ForecastResult{
		Symbol:            in.Symbol,
		Timeframe:         in.Timeframe,
		CurrentPrice:      in.CurrentPrice,
		PredictedPrice:    predictedPrice,
		Trend:             trend,
		Confidence:        confidence,
		Support:           support,
		Resistance:        resistance,
		VolatilityPct:     volatility * 100,
		MomentumPct:       momentum * 100,
		AvgChangePct:      avgChange * 100,
		RiskScore:         risk,
		PriceIncreaseProb: prob,
		SentimentScore:    sentiment,
		ShortTermTarget:   shortTarget,
		MidTermTarget:     midTarget,
		LongTermTarget:    longTarget,
		Recommendation:    recommend(predictedPrice, in.CurrentPrice, in.Timeframe),
		Synthetic:         in.Synthetic,
		CreatedAt:         time.Now().UTC(),
	}
}

// recommend turns the predicted move into a directional call with a
// confidence proportional to the move's size.
func recommend(predicted, current float64, tf domain.Timeframe) domain.Recommendation {
	pct := 0.0
	if current != 0 {
		pct = (predicted - current) / current * 100
	}

	if pct > 0 {
		return domain.Recommendation{
			Action:         domain.ActionBuy,
			Confidence:     clamp(50+pct*2, 50, 100),
			PriceChangePct: pct,
			Reasoning:      fmt.Sprintf("Good time to buy - predicted %s price increase of %.2f%%", tf, pct),
		}
	}
	return domain.Recommendation{
		Action:         domain.ActionSell,
		Confidence:     clamp(50+math.Abs(pct)*2, 50, 100),
		PriceChangePct: pct,
		Reasoning:      fmt.Sprintf("Good time to sell - predicted %s price decrease of %.2f%%", tf, math.Abs(pct)),
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64, avg float64) float64 {
	if len(xs) == 0 {
		return defaultVolatility
	}
	sum := 0.0
	for _, x := range xs {
		d := x - avg
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}

func priceRange(window []domain.PricePoint, fallback float64) (lo, hi float64) {
	if len(window) == 0 {
		return fallback, fallback
	}
	lo, hi = window[0].Price, window[0].Price
	for _, pt := range window[1:] {
		lo = math.Min(lo, pt.Price)
		hi = math.Max(hi, pt.Price)
	}
	return lo, hi
}

// clamp bounds v to [lo, hi] and maps NaN to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
