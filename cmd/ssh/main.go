package main

import (
	"context"
	"fmt"
	"log"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"foresight/internal/cache"
	"foresight/internal/config"
	"foresight/internal/forecast"
	"foresight/internal/provider"
	"foresight/internal/service"
	"foresight/internal/tui"
	"foresight/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
	gossh "golang.org/x/crypto/ssh"
)

var (
	loadEnvFunc       = godotenv.Load
	loadConfigFunc    = config.Load
	initRedisFunc     = cache.InitRedis
	initTracerFunc    = tracing.InitTracer
	newWishServerFunc = wish.NewServer
	setupSignalNotify = ossignal.Notify
	waitForSignalFunc = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initRedisFunc(ctx, cfg.RedisURL)

	os.Setenv("TRACING_ENABLED", "false")
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

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
	historyService := service.NewHistoryService(
		tracer, sources, priceService,
		provider.NewSyntheticGenerator(nil),
		cache.Client,
		time.Duration(cfg.HistoryCacheSecs)*time.Second,
	)
	forecastService := service.NewForecastService(tracer, historyService, priceService, forecast.New(nil), nil)

	addr := fmt.Sprintf("%s:%d", cfg.SSHBind, cfg.SSHPort)

	srv, err := newWishServerFunc(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(".ssh/foresight_ed25519"),
		wish.WithPublicKeyAuth(func(ctx ssh.Context, key ssh.PublicKey) bool {
			log.Printf("SSH session: fingerprint=%s", gossh.FingerprintSHA256(key))
			return true
		}),
		wish.WithMiddleware(
			bubbletea.Middleware(func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
				model := tui.NewModel(forecastService)
				pty, _, _ := s.Pty()
				model.SetSize(pty.Window.Width, pty.Window.Height)
				return model, []tea.ProgramOption{tea.WithAltScreen()}
			}),
			logging.Middleware(),
		),
	)
	if err != nil {
		log.Fatalf("failed to create SSH server: %v", err)
	}

	if srv != nil {
		go func() {
			log.Printf("SSH server listening on %s", addr)
			if err := srv.ListenAndServe(); err != nil {
				log.Printf("SSH server stopped: %v", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down SSH server...")

	cancel()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("SSH server shutdown error: %v", err)
		}
	}

	log.Println("SSH server exited")
}
