package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foresight/internal/advisor"
	"foresight/internal/bot"
	"foresight/internal/cache"
	"foresight/internal/config"
	"foresight/internal/db"
	"foresight/internal/forecast"
	"foresight/internal/handler"
	"foresight/internal/job"
	"foresight/internal/provider"
	"foresight/internal/repository"
	"foresight/internal/service"
	"foresight/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "foresight/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	newForecastRepoFunc    = repository.NewForecastRepository
	newHistoryServiceFunc  = service.NewHistoryService
	newForecastServiceFunc = service.NewForecastService
	newWarmPollerFunc      = job.NewWarmPoller
	startPollerFunc        = func(p *job.WarmPoller, ctx context.Context) { go p.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Foresight API
// @version         1.0
// @description     Heuristic crypto price forecasting service.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DatabaseURL != "" {
		initPostgresFunc(ctx, cfg.DatabaseURL)
	}
	initRedisFunc(ctx, cfg.RedisURL)

	os.Setenv("TRACING_ENABLED", boolString(cfg.TracingEnabled))
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Forecast store (optional, nil without a database)
	var store service.ForecastStore
	if db.Pool != nil {
		repo := newForecastRepoFunc(db.Pool, tracer)
		if err := repo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		store = repo
	}

	// Shared rate-limited client and the history source chain
	limiter := provider.NewRateLimiter(time.Duration(cfg.FetchMinIntervalMs) * time.Millisecond)
	client := provider.NewClient(limiter, time.Duration(cfg.FetchTimeoutSecs)*time.Second, cfg.FetchMaxRetries)

	coingecko := provider.NewCoinGeckoProvider(client, tracer)
	var sources []provider.HistoryProvider
	if cfg.PredictionAPIURL != "" {
		sources = append(sources, provider.NewBackendProvider(client, cfg.PredictionAPIURL, tracer))
	}
	sources = append(sources,
		coingecko,
		provider.NewBinanceProvider(client, tracer),
		provider.NewCoinCapProvider(client, tracer),
	)

	priceService := service.NewPriceService(tracer, coingecko, cache.Client)
	historyService := newHistoryServiceFunc(
		tracer, sources, priceService,
		provider.NewSyntheticGenerator(nil),
		cache.Client,
		time.Duration(cfg.HistoryCacheSecs)*time.Second,
	)
	forecastService := newForecastServiceFunc(tracer, historyService, priceService, forecast.New(nil), store)

	// Keep caches warm in the background
	poller := newWarmPollerFunc(tracer, historyService, priceService, cfg.WarmPollSecs)
	startPollerFunc(poller, ctx)

	// Advisor backs the Telegram bot's /forecast narratives
	var llm advisor.LLMClient
	if cfg.OpenAIAPIKey != "" {
		llm = advisor.NewOpenAIClient(cfg.OpenAIAPIKey)
	}
	advisorService := advisor.NewAdvisorService(tracer, llm, cfg.OpenAIModel)
	startTelegramBotFunc(cfg.TelegramBotToken, forecastService, advisorService)

	h := newHandlerFunc(tracer, forecastService)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("foresight"))
	r.Use(handler.APIKeyAuth(cfg.APIKey))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
