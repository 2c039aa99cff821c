package provider

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"foresight/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const coincapBaseURL = "https://api.coincap.io/v2"

// CoinCapProvider fetches asset price history from the CoinCap API. It is
// the last real source in the fallback chain.
type CoinCapProvider struct {
	client  *Client
	baseURL string
	tracer  trace.Tracer
}

// NewCoinCapProvider creates a provider on the shared rate-limited client.
func NewCoinCapProvider(client *Client, tracer trace.Tracer) *CoinCapProvider {
	return &CoinCapProvider{
		client:  client,
		baseURL: coincapBaseURL,
		tracer:  tracer,
	}
}

func (p *CoinCapProvider) Name() string { return "coincap" }

// FetchHistory fetches the asset's price history over the timeframe's
// lookback window. CoinCap returns prices as strings.
func (p *CoinCapProvider) FetchHistory(ctx context.Context, symbol string, tf domain.Timeframe) ([]domain.PricePoint, error) {
	ctx, span := p.tracer.Start(ctx, "coincap.fetch-history")
	defer span.End()

	ccID, ok := domain.CoinCapID[symbol]
	if !ok {
		return nil, fmt.Errorf("unsupported symbol: %s", symbol)
	}

	params := tf.MustParams()
	end := time.Now()
	start := end.Add(-params.ChartLookback)
	url := fmt.Sprintf("%s/assets/%s/history?interval=%s&start=%d&end=%d",
		p.baseURL, ccID, params.CoinCapInterval, start.UnixMilli(), end.UnixMilli())

	var raw struct {
		Data []struct {
			PriceUSD string `json:"priceUsd"`
			Time     int64  `json:"time"`
		} `json:"data"`
	}
	if err := p.client.GetJSON(ctx, url, &raw); err != nil {
		return nil, fmt.Errorf("fetch history for %s: %w", symbol, err)
	}
	if len(raw.Data) == 0 {
		return nil, ErrEmptySeries
	}

	points := make([]domain.PricePoint, 0, len(raw.Data))
	for _, d := range raw.Data {
		price, err := strconv.ParseFloat(d.PriceUSD, 64)
		if err != nil {
			continue
		}
		points = append(points, domain.PricePoint{
			Timestamp: time.UnixMilli(d.Time),
			Price:     price,
		})
	}
	if len(points) == 0 {
		return nil, ErrEmptySeries
	}
	return points, nil
}
