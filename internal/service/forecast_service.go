package service

import (
	"context"
	"fmt"
	"log"

	"foresight/internal/domain"
	"foresight/internal/forecast"

	"go.opentelemetry.io/otel/trace"
)

// forecastWindow is how many trailing points feed one forecast.
const forecastWindow = 20

type HistoryLoader interface {
	LoadHistory(ctx context.Context, symbol string, tf domain.Timeframe) (*domain.Series, error)
}

type QuoteSource interface {
	FetchPrice(ctx context.Context, symbol string) (*domain.PriceSnapshot, error)
	Snapshots(ctx context.Context) ([]*domain.PriceSnapshot, error)
}

type ForecastStore interface {
	InsertForecast(ctx context.Context, f *domain.ForecastResult) error
	ListForecasts(ctx context.Context, symbol string, limit int) ([]*domain.ForecastResult, error)
}

// Forecaster computes a forecast from a prepared input.
type Forecaster interface {
	Forecast(in forecast.Input) domain.ForecastResult
}

// ForecastService orchestrates quote lookup, history loading, the
// heuristic forecast and persistence.
type ForecastService struct {
	tracer     trace.Tracer
	history    HistoryLoader
	quotes     QuoteSource
	forecaster Forecaster
	store      ForecastStore
}

func NewForecastService(
	tracer trace.Tracer,
	history HistoryLoader,
	quotes QuoteSource,
	forecaster Forecaster,
	store ForecastStore,
) *ForecastService {
	return &ForecastService{
		tracer:     tracer,
		history:    history,
		quotes:     quotes,
		forecaster: forecaster,
		store:      store,
	}
}

// Predict produces a forecast for symbol over the given timeframe. A dead
// quote source is tolerated; the series' final price anchors the forecast
// instead. Persistence failures are logged, not returned.
func (s *ForecastService) Predict(ctx context.Context, symbol, timeframe string) (*domain.ForecastResult, error) {
	ctx, span := s.tracer.Start(ctx, "forecast-service.predict")
	defer span.End()

	if !domain.IsSupported(symbol) {
		return nil, fmt.Errorf("unsupported symbol: %s", symbol)
	}
	tf, err := domain.ParseTimeframe(timeframe)
	if err != nil {
		return nil, err
	}

	currentPrice := 0.0
	change24h := 0.0
	if s.quotes != nil {
		snap, err := s.quotes.FetchPrice(ctx, symbol)
		if err != nil {
			log.Printf("quote lookup failed for %s: %v", symbol, err)
		} else {
			currentPrice = snap.PriceUSD
			change24h = snap.Change24hPct
		}
	}

	series, err := s.history.LoadHistory(ctx, symbol, tf)
	if err != nil {
		return nil, err
	}
	if currentPrice == 0 {
		currentPrice = series.Last().Price
	}

	result := s.forecaster.Forecast(forecast.Input{
		Symbol:       symbol,
		Timeframe:    tf,
		Window:       series.Tail(forecastWindow),
		CurrentPrice: currentPrice,
		Change24hPct: change24h,
		Synthetic:    series.Synthetic,
	})

	if s.store != nil {
		if err := s.store.InsertForecast(ctx, &result); err != nil {
			log.Printf("failed to persist forecast for %s/%s: %v", symbol, tf, err)
		}
	}
	return &result, nil
}

// Previous returns the most recent stored forecasts for a symbol.
func (s *ForecastService) Previous(ctx context.Context, symbol string, limit int) ([]*domain.ForecastResult, error) {
	ctx, span := s.tracer.Start(ctx, "forecast-service.previous")
	defer span.End()

	if !domain.IsSupported(symbol) {
		return nil, fmt.Errorf("unsupported symbol: %s", symbol)
	}
	if s.store == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	return s.store.ListForecasts(ctx, symbol, limit)
}

// History exposes the loaded series for charting.
func (s *ForecastService) History(ctx context.Context, symbol, timeframe string) (*domain.Series, error) {
	ctx, span := s.tracer.Start(ctx, "forecast-service.history")
	defer span.End()

	tf, err := domain.ParseTimeframe(timeframe)
	if err != nil {
		return nil, err
	}
	return s.history.LoadHistory(ctx, symbol, tf)
}

// Price returns the live quote for a symbol.
func (s *ForecastService) Price(ctx context.Context, symbol string) (*domain.PriceSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "forecast-service.price")
	defer span.End()

	if !domain.IsSupported(symbol) {
		return nil, fmt.Errorf("unsupported symbol: %s", symbol)
	}
	if s.quotes == nil {
		return nil, fmt.Errorf("no quote source configured")
	}
	return s.quotes.FetchPrice(ctx, symbol)
}

// Prices returns quotes for every supported symbol in one pass.
func (s *ForecastService) Prices(ctx context.Context) ([]*domain.PriceSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "forecast-service.prices")
	defer span.End()

	if s.quotes == nil {
		return nil, fmt.Errorf("no quote source configured")
	}
	return s.quotes.Snapshots(ctx)
}
