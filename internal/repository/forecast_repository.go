package repository

import (
	"context"

	"foresight/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

const createForecastsTable = `
CREATE TABLE IF NOT EXISTS forecasts (
    id                  BIGSERIAL   PRIMARY KEY,
    symbol              TEXT        NOT NULL,
    timeframe           TEXT        NOT NULL,
    current_price       NUMERIC     NOT NULL,
    predicted_price     NUMERIC     NOT NULL,
    trend               TEXT        NOT NULL,
    confidence          NUMERIC     NOT NULL,
    support             NUMERIC     NOT NULL,
    resistance          NUMERIC     NOT NULL,
    volatility_pct      NUMERIC     NOT NULL,
    momentum_pct        NUMERIC     NOT NULL,
    avg_change_pct      NUMERIC     NOT NULL,
    risk_score          INT         NOT NULL,
    price_increase_prob INT         NOT NULL,
    sentiment_score     NUMERIC     NOT NULL,
    action              TEXT        NOT NULL,
    synthetic           BOOLEAN     NOT NULL,
    created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_forecasts_symbol_time
    ON forecasts (symbol, created_at DESC);
`

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ForecastRepository persists forecast results for later review.
type ForecastRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewForecastRepository(pool PgxPool, tracer trace.Tracer) *ForecastRepository {
	return &ForecastRepository{pool: pool, tracer: tracer}
}

func (r *ForecastRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "forecast-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createForecastsTable)
	return err
}

// InsertForecast stores the result and fills in its assigned ID.
func (r *ForecastRepository) InsertForecast(ctx context.Context, f *domain.ForecastResult) error {
	_, span := r.tracer.Start(ctx, "forecast-repo.insert-forecast")
	defer span.End()

	return r.pool.QueryRow(ctx,
		`INSERT INTO forecasts (symbol, timeframe, current_price, predicted_price, trend,
		     confidence, support, resistance, volatility_pct, momentum_pct, avg_change_pct,
		     risk_score, price_increase_prob, sentiment_score, action, synthetic, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		 RETURNING id`,
		f.Symbol, string(f.Timeframe), f.CurrentPrice, f.PredictedPrice, string(f.Trend),
		f.Confidence, f.Support, f.Resistance, f.VolatilityPct, f.MomentumPct, f.AvgChangePct,
		f.RiskScore, f.PriceIncreaseProb, f.SentimentScore, string(f.Recommendation.Action),
		f.Synthetic, f.CreatedAt,
	).Scan(&f.ID)
}

// ListForecasts returns the most recent forecasts for a symbol, newest first.
func (r *ForecastRepository) ListForecasts(ctx context.Context, symbol string, limit int) ([]*domain.ForecastResult, error) {
	_, span := r.tracer.Start(ctx, "forecast-repo.list-forecasts")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT id, symbol, timeframe, current_price, predicted_price, trend,
		     confidence, support, resistance, volatility_pct, momentum_pct, avg_change_pct,
		     risk_score, price_increase_prob, sentiment_score, action, synthetic, created_at
		 FROM forecasts
		 WHERE symbol = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		symbol, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var forecasts []*domain.ForecastResult
	for rows.Next() {
		f := &domain.ForecastResult{}
		var tf, trend, action string
		if err := rows.Scan(&f.ID, &f.Symbol, &tf, &f.CurrentPrice, &f.PredictedPrice, &trend,
			&f.Confidence, &f.Support, &f.Resistance, &f.VolatilityPct, &f.MomentumPct, &f.AvgChangePct,
			&f.RiskScore, &f.PriceIncreaseProb, &f.SentimentScore, &action, &f.Synthetic, &f.CreatedAt,
		); err != nil {
			return nil, err
		}
		f.Timeframe = domain.Timeframe(tf)
		f.Trend = domain.Trend(trend)
		f.Recommendation.Action = domain.Action(action)
		forecasts = append(forecasts, f)
	}
	return forecasts, rows.Err()
}
