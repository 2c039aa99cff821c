package job

import (
	"context"
	"log"
	"time"

	"foresight/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// WarmPoller keeps caches warm: each tick refreshes the price snapshots
// for all assets and loads one symbol's series, round-robin across all
// supported assets and timeframes. Warm caches mean forecast requests
// rarely pay the upstream fetch cost.
type WarmPoller struct {
	tracer       trace.Tracer
	loader       HistoryWarmer
	prices       PriceRefresher
	pollInterval time.Duration
}

type HistoryWarmer interface {
	LoadHistory(ctx context.Context, symbol string, tf domain.Timeframe) (*domain.Series, error)
}

// PriceRefresher re-fetches and caches all quotes in one batched call.
type PriceRefresher interface {
	RefreshPrices(ctx context.Context) error
}

func NewWarmPoller(tracer trace.Tracer, loader HistoryWarmer, prices PriceRefresher, pollIntervalSecs int) *WarmPoller {
	return &WarmPoller{
		tracer:       tracer,
		loader:       loader,
		prices:       prices,
		pollInterval: time.Duration(pollIntervalSecs) * time.Second,
	}
}

// Start blocks until ctx is cancelled.
func (p *WarmPoller) Start(ctx context.Context) {
	log.Println("Cache warmer starting...")

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	index := 0
	p.warmNext(ctx, &index)

	for {
		select {
		case <-ctx.Done():
			log.Println("Cache warmer stopped")
			return
		case <-ticker.C:
			p.warmNext(ctx, &index)
		}
	}
}

// warmNext refreshes all price snapshots, then loads one (symbol,
// timeframe) pair and advances the cursor.
func (p *WarmPoller) warmNext(ctx context.Context, index *int) {
	ctx, span := p.tracer.Start(ctx, "warm-poller.warm-next")
	defer span.End()

	if p.prices != nil {
		if err := p.prices.RefreshPrices(ctx); err != nil {
			log.Printf("price refresh error: %v", err)
		}
	}

	symbols := domain.SupportedSymbols
	pairs := len(symbols) * len(domain.Timeframes)
	i := *index % pairs
	*index++

	symbol := symbols[i/len(domain.Timeframes)]
	tf := domain.Timeframes[i%len(domain.Timeframes)]

	if _, err := p.loader.LoadHistory(ctx, symbol, tf); err != nil {
		log.Printf("cache warm error for %s/%s: %v", symbol, tf, err)
	}
}
