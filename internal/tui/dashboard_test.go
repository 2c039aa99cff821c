package tui

import (
	"context"
	"strings"
	"testing"

	"foresight/internal/domain"

	tea "github.com/charmbracelet/bubbletea"
)

type stubClient struct {
	result     *domain.ForecastResult
	snaps      []*domain.PriceSnapshot
	priceCalls int
}

func (s *stubClient) Predict(ctx context.Context, symbol, timeframe string) (*domain.ForecastResult, error) {
	return s.result, nil
}

func (s *stubClient) Prices(ctx context.Context) ([]*domain.PriceSnapshot, error) {
	s.priceCalls++
	return s.snaps, nil
}

func TestModelViewListsSymbols(t *testing.T) {
	m := NewModel(&stubClient{})
	view := m.View()
	for _, sym := range []string{"BTC", "ETH", "SOL"} {
		if !strings.Contains(view, sym) {
			t.Fatalf("expected %s in view", sym)
		}
	}
}

func TestModelCyclesTimeframe(t *testing.T) {
	m := NewModel(&stubClient{})

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})
	next := updated.(Model)
	if next.timeframe != domain.Timeframe4h {
		t.Fatalf("expected 4h after cycling from 1h, got %s", next.timeframe)
	}

	// Full cycle returns to the start.
	for i := 0; i < 3; i++ {
		updated, _ = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})
		next = updated.(Model)
	}
	if next.timeframe != domain.Timeframe1h {
		t.Fatalf("expected wrap to 1h, got %s", next.timeframe)
	}
}

func TestModelRendersForecast(t *testing.T) {
	m := NewModel(&stubClient{})

	result := &domain.ForecastResult{
		Symbol:         "BTC",
		Timeframe:      domain.Timeframe1h,
		CurrentPrice:   90000,
		PredictedPrice: 91000,
		Trend:          domain.TrendBullish,
		Confidence:     75,
		RiskScore:      4,
		Recommendation: domain.Recommendation{Action: domain.ActionBuy, PriceChangePct: 1.11},
		Synthetic:      true,
	}
	updated, _ := m.Update(forecastMsg{result: result})
	view := updated.(Model).View()

	if !strings.Contains(view, "90000.00") || !strings.Contains(view, "91000.00") {
		t.Fatalf("expected prices in view:\n%s", view)
	}
	if !strings.Contains(view, "simulated data") {
		t.Fatalf("expected simulated-data notice in view:\n%s", view)
	}
}

func TestModelUpdatesPrices(t *testing.T) {
	m := NewModel(&stubClient{})

	snaps := map[string]*domain.PriceSnapshot{
		"BTC": {Symbol: "BTC", PriceUSD: 90000, Change24hPct: 1.5},
	}
	updated, _ := m.Update(pricesMsg{snaps: snaps})
	view := updated.(Model).View()

	if !strings.Contains(view, "$90000.00") {
		t.Fatalf("expected BTC price in view:\n%s", view)
	}
}

func TestLoadPricesUsesOneBatchedCall(t *testing.T) {
	client := &stubClient{snaps: []*domain.PriceSnapshot{
		{Symbol: "BTC", PriceUSD: 90000},
		{Symbol: "ETH", PriceUSD: 3000},
	}}
	m := NewModel(client)

	msg := m.loadPrices()()
	prices, ok := msg.(pricesMsg)
	if !ok {
		t.Fatalf("unexpected message type: %T", msg)
	}
	if prices.err != nil {
		t.Fatalf("unexpected error: %v", prices.err)
	}
	if client.priceCalls != 1 {
		t.Fatalf("refresh should cost one upstream call, got %d", client.priceCalls)
	}
	if prices.snaps["ETH"].PriceUSD != 3000 {
		t.Fatalf("unexpected snapshots: %+v", prices.snaps)
	}
}

func TestNextTimeframe(t *testing.T) {
	if got := nextTimeframe(domain.Timeframe24h); got != domain.Timeframe30m {
		t.Fatalf("expected wrap from 24h to 30m, got %s", got)
	}
	if got := nextTimeframe("bogus"); got != domain.Timeframe1h {
		t.Fatalf("expected 1h fallback, got %s", got)
	}
}
