package service

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"foresight/internal/domain"
	"foresight/internal/forecast"
)

type mockHistoryLoader struct {
	series *domain.Series
	err    error
}

func (m *mockHistoryLoader) LoadHistory(ctx context.Context, symbol string, tf domain.Timeframe) (*domain.Series, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.series, nil
}

type mockForecastStore struct {
	inserted []*domain.ForecastResult
	listResp []*domain.ForecastResult
	insErr   error

	lastListSymbol string
	lastListLimit  int
}

func (m *mockForecastStore) InsertForecast(ctx context.Context, f *domain.ForecastResult) error {
	if m.insErr != nil {
		return m.insErr
	}
	m.inserted = append(m.inserted, f)
	return nil
}

func (m *mockForecastStore) ListForecasts(ctx context.Context, symbol string, limit int) ([]*domain.ForecastResult, error) {
	m.lastListSymbol = symbol
	m.lastListLimit = limit
	return m.listResp, nil
}

func testSeries(synthetic bool) *domain.Series {
	return &domain.Series{
		Symbol:    "BTC",
		Timeframe: domain.Timeframe1h,
		Points:    realisticPoints(30, 90000),
		Source:    "backend",
		Synthetic: synthetic,
	}
}

func newForecastService(history HistoryLoader, quotes QuoteSource, store ForecastStore) *ForecastService {
	return NewForecastService(testTracer, history, quotes, forecast.New(rand.New(rand.NewSource(1))), store)
}

func TestForecastService_PredictUsesQuotePrice(t *testing.T) {
	t.Parallel()

	quotes := &mockPriceSource{snap: &domain.PriceSnapshot{Symbol: "BTC", PriceUSD: 95000, Change24hPct: 2.1}}
	store := &mockForecastStore{}
	svc := newForecastService(&mockHistoryLoader{series: testSeries(false)}, quotes, store)

	result, err := svc.Predict(context.Background(), "BTC", "1h")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CurrentPrice != 95000 {
		t.Fatalf("expected quote price as anchor, got %f", result.CurrentPrice)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("expected 1 persisted forecast, got %d", len(store.inserted))
	}
}

func TestForecastService_PredictFallsBackToSeriesPrice(t *testing.T) {
	t.Parallel()

	series := testSeries(false)
	quotes := &mockPriceSource{err: errors.New("quota exceeded")}
	svc := newForecastService(&mockHistoryLoader{series: series}, quotes, nil)

	result, err := svc.Predict(context.Background(), "BTC", "1h")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CurrentPrice != series.Last().Price {
		t.Fatalf("expected series last price, got %f", result.CurrentPrice)
	}
}

func TestForecastService_PredictPropagatesSynthetic(t *testing.T) {
	t.Parallel()

	svc := newForecastService(&mockHistoryLoader{series: testSeries(true)}, nil, nil)

	result, err := svc.Predict(context.Background(), "BTC", "1h")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Synthetic {
		t.Fatal("synthetic flag should propagate from series")
	}
}

func TestForecastService_PredictSurvivesStoreFailure(t *testing.T) {
	t.Parallel()

	store := &mockForecastStore{insErr: errors.New("db down")}
	svc := newForecastService(&mockHistoryLoader{series: testSeries(false)}, nil, store)

	if _, err := svc.Predict(context.Background(), "BTC", "1h"); err != nil {
		t.Fatalf("store failure should not fail the forecast: %v", err)
	}
}

func TestForecastService_PredictValidatesInput(t *testing.T) {
	t.Parallel()

	svc := newForecastService(&mockHistoryLoader{series: testSeries(false)}, nil, nil)

	if _, err := svc.Predict(context.Background(), "FAKE", "1h"); err == nil {
		t.Fatal("expected error for unsupported symbol")
	}
	if _, err := svc.Predict(context.Background(), "BTC", "2h"); err == nil {
		t.Fatal("expected error for unsupported timeframe")
	}
}

func TestForecastService_PreviousDefaultsLimit(t *testing.T) {
	t.Parallel()

	store := &mockForecastStore{listResp: []*domain.ForecastResult{{Symbol: "BTC"}}}
	svc := newForecastService(&mockHistoryLoader{}, nil, store)

	results, err := svc.Previous(context.Background(), "BTC", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.lastListLimit != 20 {
		t.Fatalf("expected default limit 20, got %d", store.lastListLimit)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestForecastService_HistoryValidatesTimeframe(t *testing.T) {
	t.Parallel()

	svc := newForecastService(&mockHistoryLoader{series: testSeries(false)}, nil, nil)
	if _, err := svc.History(context.Background(), "BTC", "7d"); err == nil {
		t.Fatal("expected error for unsupported timeframe")
	}
}
