package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	"foresight/internal/domain"
	"foresight/internal/provider"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// minUsablePoints is the shortest history the forecaster accepts; shorter
// series count as degenerate.
const minUsablePoints = 10

// syntheticBasePrice anchors generated series when no live quote and no
// partial history is available.
const syntheticBasePrice = 100.0

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// SeriesGenerator fabricates a fallback series anchored at basePrice,
// with noise scaled by the asset's 24h change percentage.
type SeriesGenerator interface {
	Generate(symbol string, tf domain.Timeframe, basePrice, dailyChangePct float64) []domain.PricePoint
}

// HistoryService loads price history through an ordered chain of sources,
// falling back to a synthetic series when every source fails. Loads for
// the same key are cached in Redis and deduplicated in flight.
type HistoryService struct {
	tracer    trace.Tracer
	providers []provider.HistoryProvider
	prices    provider.PriceSource
	generator SeriesGenerator
	redis     RedisClient
	cacheTTL  time.Duration
	group     singleflight.Group
}

func NewHistoryService(
	tracer trace.Tracer,
	providers []provider.HistoryProvider,
	prices provider.PriceSource,
	generator SeriesGenerator,
	redisClient RedisClient,
	cacheTTL time.Duration,
) *HistoryService {
	return &HistoryService{
		tracer:    tracer,
		providers: providers,
		prices:    prices,
		generator: generator,
		redis:     redisClient,
		cacheTTL:  cacheTTL,
	}
}

// LoadHistory returns the price series for symbol and timeframe. It never
// fails over data availability; the worst case is a synthetic series with
// Synthetic set.
func (s *HistoryService) LoadHistory(ctx context.Context, symbol string, tf domain.Timeframe) (*domain.Series, error) {
	ctx, span := s.tracer.Start(ctx, "history-service.load-history")
	defer span.End()

	if !domain.IsSupported(symbol) {
		return nil, fmt.Errorf("unsupported symbol: %s", symbol)
	}
	if _, ok := tf.Params(); !ok {
		return nil, fmt.Errorf("unsupported timeframe: %s", tf)
	}

	key := historyCacheKey(symbol, tf)
	if s.redis != nil {
		cached, err := s.getSeriesCache(ctx, key)
		if err != nil {
			log.Printf("redis cache read error: %v", err)
		}
		if cached != nil {
			return cached, nil
		}
	}

	// Collapse concurrent loads for the same key into one upstream pass.
	// The flight is shared by every waiter, so it must not die with the
	// caller that happened to start it.
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		ctx := context.WithoutCancel(ctx)
		series := s.loadFresh(ctx, symbol, tf)
		if s.redis != nil {
			if err := s.setSeriesCache(ctx, key, series); err != nil {
				log.Printf("redis cache write error for %s: %v", key, err)
			}
		}
		return series, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Series), nil
}

// loadFresh walks the source chain in order and falls back to a synthetic
// series when nothing real survives the degenerate check.
func (s *HistoryService) loadFresh(ctx context.Context, symbol string, tf domain.Timeframe) *domain.Series {
	var lastDegenerate []domain.PricePoint

	for _, p := range s.providers {
		points, err := p.FetchHistory(ctx, symbol, tf)
		if err != nil {
			log.Printf("history source %s failed for %s/%s: %v", p.Name(), symbol, tf, err)
			continue
		}
		if isDegenerate(points) {
			log.Printf("history source %s returned degenerate series for %s/%s (%d points)", p.Name(), symbol, tf, len(points))
			lastDegenerate = points
			continue
		}
		return &domain.Series{
			Symbol:    symbol,
			Timeframe: tf,
			Points:    points,
			Source:    p.Name(),
		}
	}

	base, changePct := s.syntheticBase(ctx, symbol, lastDegenerate)
	log.Printf("all history sources failed for %s/%s, generating synthetic series at %.4f", symbol, tf, base)
	return &domain.Series{
		Symbol:    symbol,
		Timeframe: tf,
		Points:    s.generator.Generate(symbol, tf, base, changePct),
		Source:    "synthetic",
		Synthetic: true,
	}
}

// syntheticBase picks the anchor price for a generated series: the live
// quote if available, then the last price of a degenerate series, then a
// fixed default. The quote's 24h change rides along to scale the
// generator's noise; without a quote it is zero and the generator falls
// back to its default volatility.
func (s *HistoryService) syntheticBase(ctx context.Context, symbol string, degenerate []domain.PricePoint) (float64, float64) {
	if s.prices != nil {
		snap, err := s.prices.FetchPrice(ctx, symbol)
		if err == nil && snap.PriceUSD > 0 {
			return snap.PriceUSD, snap.Change24hPct
		}
		if err != nil {
			log.Printf("price lookup for synthetic base failed for %s: %v", symbol, err)
		}
	}
	if len(degenerate) > 0 {
		if last := degenerate[len(degenerate)-1].Price; last > 0 {
			return last, 0
		}
	}
	return syntheticBasePrice, 0
}

// isDegenerate reports whether a series is too flat or too short to carry
// signal. Flat lines come from sources that pad outages with a constant
// price; forecasting over them yields nonsense.
func isDegenerate(points []domain.PricePoint) bool {
	if len(points) < minUsablePoints {
		return true
	}

	sum := 0.0
	lo, hi := points[0].Price, points[0].Price
	for _, pt := range points {
		sum += pt.Price
		lo = math.Min(lo, pt.Price)
		hi = math.Max(hi, pt.Price)
	}
	mean := sum / float64(len(points))

	variance := 0.0
	for _, pt := range points {
		d := pt.Price - mean
		variance += d * d
	}
	sd := math.Sqrt(variance / float64(len(points)))

	if sd < math.Max(0.005, math.Abs(mean)*0.005) {
		return true
	}
	return hi-lo < math.Abs(mean)*0.01
}

func historyCacheKey(symbol string, tf domain.Timeframe) string {
	return "history:" + symbol + ":" + string(tf)
}

func (s *HistoryService) setSeriesCache(ctx context.Context, key string, series *domain.Series) error {
	data, err := json.Marshal(series)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, key, data, s.cacheTTL).Err()
}

func (s *HistoryService) getSeriesCache(ctx context.Context, key string) (*domain.Series, error) {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var series domain.Series
	if err := json.Unmarshal(data, &series); err != nil {
		return nil, err
	}
	return &series, nil
}
