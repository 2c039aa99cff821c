package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"foresight/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// BackendProvider queries the in-house prediction API. It is the first
// source in the fallback chain because its response carries model
// predictions alongside actual prices.
type BackendProvider struct {
	client  *Client
	baseURL string
	tracer  trace.Tracer
}

// NewBackendProvider creates a provider against baseURL (no trailing slash).
func NewBackendProvider(client *Client, baseURL string, tracer trace.Tracer) *BackendProvider {
	return &BackendProvider{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		tracer:  tracer,
	}
}

func (p *BackendProvider) Name() string { return "backend" }

type backendRequest struct {
	Symbol    string  `json:"symbol"`
	Timeframe string  `json:"timeframe"`
	Days      float64 `json:"days"`
}

// The backend returns bare price arrays without timestamps; points are
// spaced at the timeframe's backend interval starting at the lookback
// window's left edge.
type backendResponse struct {
	Actuals     []float64 `json:"actuals"`
	Predictions []float64 `json:"predictions"`
}

// FetchHistory returns actual points followed by predicted ones. Predicted
// points are flagged so charts can render them differently.
func (p *BackendProvider) FetchHistory(ctx context.Context, symbol string, tf domain.Timeframe) ([]domain.PricePoint, error) {
	ctx, span := p.tracer.Start(ctx, "backend.fetch-history")
	defer span.End()

	params := tf.MustParams()
	req := backendRequest{
		Symbol:    strings.ToUpper(symbol),
		Timeframe: tf.String(),
		Days:      params.BackendDays,
	}

	var resp backendResponse
	url := p.baseURL + "/api/v1/predictions/previous_predictions"
	if err := p.client.PostJSON(ctx, url, req, &resp); err != nil {
		return nil, fmt.Errorf("backend history for %s: %w", symbol, err)
	}
	if len(resp.Actuals) == 0 {
		return nil, ErrEmptySeries
	}

	start := time.Now().Add(-params.ChartLookback)
	points := make([]domain.PricePoint, 0, len(resp.Actuals)+len(resp.Predictions))
	for i, price := range resp.Actuals {
		points = append(points, domain.PricePoint{
			Timestamp: start.Add(time.Duration(i) * params.BackendInterval),
			Price:     price,
		})
	}

	// Predictions continue on the same grid past the last actual point.
	lastActual := points[len(points)-1].Timestamp
	for i, price := range resp.Predictions {
		points = append(points, domain.PricePoint{
			Timestamp:  lastActual.Add(time.Duration(i+1) * params.BackendInterval),
			Price:      price,
			Prediction: true,
		})
	}
	return points, nil
}
