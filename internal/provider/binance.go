package provider

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"foresight/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const binanceBaseURL = "https://api.binance.com/api/v3"

// BinanceProvider fetches kline close prices from the public Binance API.
type BinanceProvider struct {
	client  *Client
	baseURL string
	tracer  trace.Tracer
}

// NewBinanceProvider creates a provider on the shared rate-limited client.
func NewBinanceProvider(client *Client, tracer trace.Tracer) *BinanceProvider {
	return &BinanceProvider{
		client:  client,
		baseURL: binanceBaseURL,
		tracer:  tracer,
	}
}

func (p *BinanceProvider) Name() string { return "binance" }

// FetchHistory fetches klines for SYMBOLUSDT and keeps open time plus close.
// Klines arrive as mixed-type arrays; the close at index 4 is a string.
func (p *BinanceProvider) FetchHistory(ctx context.Context, symbol string, tf domain.Timeframe) ([]domain.PricePoint, error) {
	ctx, span := p.tracer.Start(ctx, "binance.fetch-history")
	defer span.End()

	params := tf.MustParams()
	url := fmt.Sprintf("%s/klines?symbol=%sUSDT&interval=%s&limit=%d",
		p.baseURL, symbol, params.BinanceInterval, params.BinanceLimit)

	var raw [][]any
	if err := p.client.GetJSON(ctx, url, &raw); err != nil {
		return nil, fmt.Errorf("fetch klines for %s: %w", symbol, err)
	}
	if len(raw) == 0 {
		return nil, ErrEmptySeries
	}

	points := make([]domain.PricePoint, 0, len(raw))
	for _, k := range raw {
		if len(k) < 5 {
			continue
		}
		openTime, ok := k[0].(float64)
		if !ok {
			continue
		}
		closeStr, ok := k[4].(string)
		if !ok {
			continue
		}
		price, err := strconv.ParseFloat(closeStr, 64)
		if err != nil {
			continue
		}
		points = append(points, domain.PricePoint{
			Timestamp: time.UnixMilli(int64(openTime)),
			Price:     price,
		})
	}
	if len(points) == 0 {
		return nil, ErrEmptySeries
	}
	return points, nil
}
