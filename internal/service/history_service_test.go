package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"foresight/internal/domain"
	"foresight/internal/provider"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace/noop"
)

var testTracer = noop.NewTracerProvider().Tracer("test")

func realisticPoints(n int, start float64) []domain.PricePoint {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	points := make([]domain.PricePoint, n)
	price := start
	for i := range points {
		// Alternate moves large enough to pass the flatness check.
		if i%2 == 0 {
			price *= 1.02
		} else {
			price *= 0.99
		}
		points[i] = domain.PricePoint{Timestamp: base.Add(time.Duration(i) * time.Minute), Price: price}
	}
	return points
}

func flatPoints(n int, price float64) []domain.PricePoint {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	points := make([]domain.PricePoint, n)
	for i := range points {
		points[i] = domain.PricePoint{Timestamp: base.Add(time.Duration(i) * time.Minute), Price: price}
	}
	return points
}

type mockHistoryProvider struct {
	name   string
	points []domain.PricePoint
	err    error
	calls  int
}

func (m *mockHistoryProvider) Name() string { return m.name }

func (m *mockHistoryProvider) FetchHistory(ctx context.Context, symbol string, tf domain.Timeframe) ([]domain.PricePoint, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.points, nil
}

type mockPriceSource struct {
	snap *domain.PriceSnapshot
	err  error
}

func (m *mockPriceSource) FetchPrice(ctx context.Context, symbol string) (*domain.PriceSnapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.snap, nil
}

func (m *mockPriceSource) Snapshots(ctx context.Context) ([]*domain.PriceSnapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []*domain.PriceSnapshot{m.snap}, nil
}

type mockGenerator struct {
	lastBase      float64
	lastChangePct float64
	calls         int
}

func (m *mockGenerator) Generate(symbol string, tf domain.Timeframe, basePrice, dailyChangePct float64) []domain.PricePoint {
	m.calls++
	m.lastBase = basePrice
	m.lastChangePct = dailyChangePct
	return realisticPoints(20, basePrice)
}

type fakeRedis struct {
	data   map[string][]byte
	setErr error
	getErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string][]byte)}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = append([]byte(nil), v...)
	case string:
		f.data[key] = []byte(v)
	default:
		bytes, _ := json.Marshal(v)
		f.data[key] = bytes
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	if v, ok := f.data[key]; ok {
		return redis.NewStringResult(string(v), nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func newHistoryService(providers []provider.HistoryProvider, prices provider.PriceSource, gen SeriesGenerator, rc RedisClient) *HistoryService {
	return NewHistoryService(testTracer, providers, prices, gen, rc, time.Minute)
}

func TestHistoryService_FirstSourceWins(t *testing.T) {
	t.Parallel()

	first := &mockHistoryProvider{name: "backend", points: realisticPoints(30, 100)}
	second := &mockHistoryProvider{name: "coingecko", points: realisticPoints(30, 200)}
	svc := newHistoryService([]provider.HistoryProvider{first, second}, nil, &mockGenerator{}, nil)

	series, err := svc.LoadHistory(context.Background(), "BTC", domain.Timeframe1h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series.Source != "backend" || series.Synthetic {
		t.Fatalf("expected backend series, got %+v", series)
	}
	if second.calls != 0 {
		t.Fatal("second source should not be consulted when the first succeeds")
	}
}

func TestHistoryService_FallsThroughOnError(t *testing.T) {
	t.Parallel()

	first := &mockHistoryProvider{name: "backend", err: errors.New("down")}
	second := &mockHistoryProvider{name: "coingecko", points: realisticPoints(30, 200)}
	svc := newHistoryService([]provider.HistoryProvider{first, second}, nil, &mockGenerator{}, nil)

	series, err := svc.LoadHistory(context.Background(), "ETH", domain.Timeframe4h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series.Source != "coingecko" {
		t.Fatalf("expected fallback to coingecko, got %s", series.Source)
	}
}

func TestHistoryService_SkipsDegenerateSeries(t *testing.T) {
	t.Parallel()

	flat := &mockHistoryProvider{name: "backend", points: flatPoints(30, 50)}
	good := &mockHistoryProvider{name: "binance", points: realisticPoints(30, 50)}
	svc := newHistoryService([]provider.HistoryProvider{flat, good}, nil, &mockGenerator{}, nil)

	series, err := svc.LoadHistory(context.Background(), "SOL", domain.Timeframe1h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series.Source != "binance" {
		t.Fatalf("flat series should be skipped, got source %s", series.Source)
	}
}

func TestHistoryService_SyntheticFallbackUsesQuote(t *testing.T) {
	t.Parallel()

	dead := &mockHistoryProvider{name: "backend", err: errors.New("down")}
	gen := &mockGenerator{}
	prices := &mockPriceSource{snap: &domain.PriceSnapshot{Symbol: "BTC", PriceUSD: 91000, Change24hPct: -3.4}}
	svc := newHistoryService([]provider.HistoryProvider{dead}, prices, gen, nil)

	series, err := svc.LoadHistory(context.Background(), "BTC", domain.Timeframe24h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !series.Synthetic || series.Source != "synthetic" {
		t.Fatalf("expected synthetic series, got %+v", series)
	}
	if gen.lastBase != 91000 {
		t.Fatalf("expected generator anchored at quote, got %f", gen.lastBase)
	}
	if gen.lastChangePct != -3.4 {
		t.Fatalf("expected 24h change passed to generator, got %f", gen.lastChangePct)
	}
}

func TestHistoryService_SyntheticFallbackUsesDegenerateLastPrice(t *testing.T) {
	t.Parallel()

	flat := &mockHistoryProvider{name: "backend", points: flatPoints(30, 2.5)}
	gen := &mockGenerator{}
	prices := &mockPriceSource{err: errors.New("quota exceeded")}
	svc := newHistoryService([]provider.HistoryProvider{flat}, prices, gen, nil)

	if _, err := svc.LoadHistory(context.Background(), "XRP", domain.Timeframe1h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.lastBase != 2.5 {
		t.Fatalf("expected degenerate last price as base, got %f", gen.lastBase)
	}
}

func TestHistoryService_SyntheticFallbackDefaultBase(t *testing.T) {
	t.Parallel()

	dead := &mockHistoryProvider{name: "backend", err: errors.New("down")}
	gen := &mockGenerator{}
	svc := newHistoryService([]provider.HistoryProvider{dead}, nil, gen, nil)

	if _, err := svc.LoadHistory(context.Background(), "ADA", domain.Timeframe30m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.lastBase != syntheticBasePrice {
		t.Fatalf("expected default base, got %f", gen.lastBase)
	}
}

func TestHistoryService_CachesSeries(t *testing.T) {
	t.Parallel()

	source := &mockHistoryProvider{name: "backend", points: realisticPoints(30, 100)}
	rc := newFakeRedis()
	svc := newHistoryService([]provider.HistoryProvider{source}, nil, &mockGenerator{}, rc)

	if _, err := svc.LoadHistory(context.Background(), "BTC", domain.Timeframe1h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := rc.data["history:BTC:1h"]; !ok {
		t.Fatal("series not cached")
	}

	// Second call must come from cache.
	if _, err := svc.LoadHistory(context.Background(), "BTC", domain.Timeframe1h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected 1 upstream fetch, got %d", source.calls)
	}
}

type ctxSensitiveProvider struct {
	points []domain.PricePoint
}

func (m *ctxSensitiveProvider) Name() string { return "backend" }

func (m *ctxSensitiveProvider) FetchHistory(ctx context.Context, symbol string, tf domain.Timeframe) ([]domain.PricePoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.points, nil
}

func TestHistoryService_FetchSurvivesCallerCancellation(t *testing.T) {
	t.Parallel()

	source := &ctxSensitiveProvider{points: realisticPoints(30, 100)}
	svc := newHistoryService([]provider.HistoryProvider{source}, nil, &mockGenerator{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A cancelled initiator must not degrade the shared fetch to the
	// synthetic fallback.
	series, err := svc.LoadHistory(ctx, "BTC", domain.Timeframe1h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series.Synthetic {
		t.Fatal("cancelled caller produced a synthetic series")
	}
	if series.Source != "backend" {
		t.Fatalf("expected real source, got %s", series.Source)
	}
}

func TestHistoryService_RejectsUnsupportedSymbol(t *testing.T) {
	t.Parallel()

	svc := newHistoryService(nil, nil, &mockGenerator{}, nil)
	if _, err := svc.LoadHistory(context.Background(), "FAKE", domain.Timeframe1h); err == nil {
		t.Fatal("expected error for unsupported symbol")
	}
}

func TestIsDegenerate(t *testing.T) {
	t.Parallel()

	if !isDegenerate(flatPoints(30, 100)) {
		t.Fatal("flat series should be degenerate")
	}
	if !isDegenerate(realisticPoints(5, 100)) {
		t.Fatal("short series should be degenerate")
	}
	if isDegenerate(realisticPoints(30, 100)) {
		t.Fatal("varied series should not be degenerate")
	}
}
