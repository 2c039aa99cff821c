package provider

import (
	"context"

	"foresight/internal/domain"
)

// HistoryProvider fetches an ordered price history for one symbol and
// timeframe. Implementations return ErrEmptySeries when the upstream
// answered but produced nothing usable; the loader falls through to the
// next source on any error.
type HistoryProvider interface {
	Name() string
	FetchHistory(ctx context.Context, symbol string, tf domain.Timeframe) ([]domain.PricePoint, error)
}

// PriceSource fetches the latest quote for a symbol. CoinGecko implements
// it; the loader uses it to anchor synthetic series at the live price.
type PriceSource interface {
	FetchPrice(ctx context.Context, symbol string) (*domain.PriceSnapshot, error)
}
