package provider

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"foresight/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoProvider fetches price history and live quotes from the
// CoinGecko free API. It doubles as the PriceSource used to anchor
// synthetic series.
type CoinGeckoProvider struct {
	client  *Client
	baseURL string
	tracer  trace.Tracer
}

// NewCoinGeckoProvider creates a provider on the shared rate-limited client.
func NewCoinGeckoProvider(client *Client, tracer trace.Tracer) *CoinGeckoProvider {
	return &CoinGeckoProvider{
		client:  client,
		baseURL: coingeckoBaseURL,
		tracer:  tracer,
	}
}

func (p *CoinGeckoProvider) Name() string { return "coingecko" }

// FetchHistory fetches the market_chart price array for the timeframe's
// fractional-day window.
func (p *CoinGeckoProvider) FetchHistory(ctx context.Context, symbol string, tf domain.Timeframe) ([]domain.PricePoint, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-history")
	defer span.End()

	cgID, ok := domain.CoinGeckoID[symbol]
	if !ok {
		return nil, fmt.Errorf("unsupported symbol: %s", symbol)
	}

	params := tf.MustParams()
	url := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%s",
		p.baseURL, cgID, strconv.FormatFloat(params.CoinGeckoDays, 'f', -1, 64))

	var raw struct {
		Prices [][]float64 `json:"prices"`
	}
	if err := p.client.GetJSON(ctx, url, &raw); err != nil {
		return nil, fmt.Errorf("fetch market chart for %s: %w", symbol, err)
	}
	if len(raw.Prices) == 0 {
		return nil, ErrEmptySeries
	}

	points := make([]domain.PricePoint, 0, len(raw.Prices))
	for _, pt := range raw.Prices {
		if len(pt) < 2 {
			continue
		}
		points = append(points, domain.PricePoint{
			Timestamp: time.UnixMilli(int64(pt[0])),
			Price:     pt[1],
		})
	}
	if len(points) == 0 {
		return nil, ErrEmptySeries
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	return points, nil
}

// FetchPrice fetches the latest quote for one symbol.
func (p *CoinGeckoProvider) FetchPrice(ctx context.Context, symbol string) (*domain.PriceSnapshot, error) {
	snaps, err := p.FetchPrices(ctx, []string{symbol})
	if err != nil {
		return nil, err
	}
	snap, ok := snaps[symbol]
	if !ok {
		return nil, fmt.Errorf("no price returned for %s", symbol)
	}
	return snap, nil
}

// FetchPrices fetches current quotes for the given symbols in one call.
func (p *CoinGeckoProvider) FetchPrices(ctx context.Context, symbols []string) (map[string]*domain.PriceSnapshot, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-prices")
	defer span.End()

	ids := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		id, ok := domain.CoinGeckoID[sym]
		if !ok {
			return nil, fmt.Errorf("unsupported symbol: %s", sym)
		}
		ids = append(ids, id)
	}

	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd&include_24hr_vol=true&include_24hr_change=true",
		p.baseURL, strings.Join(ids, ","))

	// Response shape: {"bitcoin": {"usd": 97000, "usd_24h_vol": 45000000000, "usd_24h_change": 2.34}, ...}
	var raw map[string]map[string]float64
	if err := p.client.GetJSON(ctx, url, &raw); err != nil {
		return nil, fmt.Errorf("fetch prices: %w", err)
	}

	now := time.Now().Unix()
	result := make(map[string]*domain.PriceSnapshot, len(raw))
	for cgID, data := range raw {
		symbol, ok := domain.CoinGeckoIDToSymbol[cgID]
		if !ok {
			continue
		}
		result[symbol] = &domain.PriceSnapshot{
			Symbol:          symbol,
			PriceUSD:        data["usd"],
			Volume24h:       data["usd_24h_vol"],
			Change24hPct:    data["usd_24h_change"],
			LastUpdatedUnix: now,
		}
	}
	return result, nil
}
