package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"foresight/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

const priceCacheTTL = 90 * time.Second

// PriceProvider is the upstream quote source. One FetchPrices call covers
// every requested symbol, so a cache miss costs a single rate-limited
// request rather than one per asset.
type PriceProvider interface {
	FetchPrices(ctx context.Context, symbols []string) (map[string]*domain.PriceSnapshot, error)
}

// PriceService serves current-price snapshots through a Redis read-through
// cache. It fronts the forecaster's currentPrice lookup, the bot and the
// TUI, and anchors synthetic series.
type PriceService struct {
	tracer   trace.Tracer
	provider PriceProvider
	redis    RedisClient
}

func NewPriceService(tracer trace.Tracer, provider PriceProvider, redisClient RedisClient) *PriceService {
	return &PriceService{
		tracer:   tracer,
		provider: provider,
		redis:    redisClient,
	}
}

// FetchPrice returns the latest cached price for a symbol. A cache miss
// fetches all supported symbols in one batched call and caches them.
func (s *PriceService) FetchPrice(ctx context.Context, symbol string) (*domain.PriceSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "price-service.fetch-price")
	defer span.End()

	if !domain.IsSupported(symbol) {
		return nil, fmt.Errorf("unsupported symbol: %s", symbol)
	}

	if s.redis != nil {
		cached, err := s.getPriceCache(ctx, symbol)
		if err != nil {
			log.Printf("redis cache read error: %v", err)
		}
		if cached != nil {
			return cached, nil
		}
	}

	prices, err := s.provider.FetchPrices(ctx, domain.SupportedSymbols)
	if err != nil {
		return nil, err
	}
	s.cacheAll(ctx, prices)

	snap, ok := prices[symbol]
	if !ok {
		return nil, fmt.Errorf("price not available for %s", symbol)
	}
	return snap, nil
}

// Snapshots returns the latest prices for all supported symbols, serving
// from cache where possible and batch-fetching the rest.
func (s *PriceService) Snapshots(ctx context.Context) ([]*domain.PriceSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "price-service.snapshots")
	defer span.End()

	var snapshots []*domain.PriceSnapshot
	var missing []string

	for _, symbol := range domain.SupportedSymbols {
		if s.redis != nil {
			cached, _ := s.getPriceCache(ctx, symbol)
			if cached != nil {
				snapshots = append(snapshots, cached)
				continue
			}
		}
		missing = append(missing, symbol)
	}

	if len(missing) > 0 {
		prices, err := s.provider.FetchPrices(ctx, domain.SupportedSymbols)
		if err != nil {
			return snapshots, err
		}
		s.cacheAll(ctx, prices)
		for _, symbol := range missing {
			if snap, ok := prices[symbol]; ok {
				snapshots = append(snapshots, snap)
			}
		}
	}

	return snapshots, nil
}

// RefreshPrices fetches latest quotes for every supported symbol and
// caches them. The warm poller calls this each tick.
func (s *PriceService) RefreshPrices(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "price-service.refresh-prices")
	defer span.End()

	prices, err := s.provider.FetchPrices(ctx, domain.SupportedSymbols)
	if err != nil {
		return err
	}
	s.cacheAll(ctx, prices)

	log.Printf("Refreshed prices for %d assets", len(prices))
	return nil
}

func (s *PriceService) cacheAll(ctx context.Context, prices map[string]*domain.PriceSnapshot) {
	if s.redis == nil {
		return
	}
	for _, snap := range prices {
		if err := s.setPriceCache(ctx, snap); err != nil {
			log.Printf("redis cache write error for %s: %v", snap.Symbol, err)
		}
	}
}

func (s *PriceService) setPriceCache(ctx context.Context, snapshot *domain.PriceSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, "price:"+snapshot.Symbol, data, priceCacheTTL).Err()
}

func (s *PriceService) getPriceCache(ctx context.Context, symbol string) (*domain.PriceSnapshot, error) {
	data, err := s.redis.Get(ctx, "price:"+symbol).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snapshot domain.PriceSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
