package advisor

import (
	"fmt"
	"strings"

	"foresight/internal/domain"
)

const systemPrompt = `You are a crypto forecast narrator. You receive the output of a heuristic price forecaster and explain it in plain language.

Rules:
- Only reference the numbers you were given. Never fabricate data.
- Mention the risk score and what it implies for position sizing.
- If the forecast is marked synthetic, state clearly that it is based on simulated data.
- Keep it to three or four sentences. You are writing for a chat message.
- Do not add financial advice disclaimers.`

// ForecastContext renders a forecast as the user message for the LLM.
func ForecastContext(f *domain.ForecastResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s forecast over %s:\n", f.Symbol, f.Timeframe))
	sb.WriteString(fmt.Sprintf("  current $%.2f, predicted $%.2f (%+.2f%%)\n",
		f.CurrentPrice, f.PredictedPrice, f.Recommendation.PriceChangePct))
	sb.WriteString(fmt.Sprintf("  trend %s, confidence %.0f%%, probability of increase %d%%\n",
		f.Trend, f.Confidence, f.PriceIncreaseProb))
	sb.WriteString(fmt.Sprintf("  volatility %.2f%%, momentum %+.2f%%, risk %d/10\n",
		f.VolatilityPct, f.MomentumPct, f.RiskScore))
	sb.WriteString(fmt.Sprintf("  support $%.2f, resistance $%.2f\n", f.Support, f.Resistance))
	sb.WriteString(fmt.Sprintf("  recommendation: %s (%.0f%% confidence)\n",
		f.Recommendation.Action, f.Recommendation.Confidence))
	if f.Synthetic {
		sb.WriteString("  NOTE: based on simulated data, real sources were unavailable\n")
	}
	return sb.String()
}

// TemplateSummary is the LLM-free narrative used when no model is
// configured or the call fails.
func TemplateSummary(f *domain.ForecastResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s looks %s over the next %s: predicted $%.2f from $%.2f (%+.2f%%). ",
		f.Symbol, f.Trend, f.Timeframe, f.PredictedPrice, f.CurrentPrice, f.Recommendation.PriceChangePct))
	sb.WriteString(fmt.Sprintf("Confidence %.0f%% with risk %d/10; support near $%.2f, resistance near $%.2f. ",
		f.Confidence, f.RiskScore, f.Support, f.Resistance))
	sb.WriteString(fmt.Sprintf("Recommendation: %s.", f.Recommendation.Action))
	if f.Synthetic {
		sb.WriteString(" Note: this forecast is based on simulated data.")
	}
	return sb.String()
}
