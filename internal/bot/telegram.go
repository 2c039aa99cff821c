package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"foresight/internal/advisor"
	"foresight/internal/domain"
	"foresight/internal/service"

	tele "gopkg.in/telebot.v3"
)

// StartTelegramBot wires /price and /forecast commands to the forecast
// service. A missing token disables the bot without failing startup.
func StartTelegramBot(token string, forecastService *service.ForecastService, advisorService *advisor.AdvisorService) {
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/price", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send(fmt.Sprintf("Usage: /price BTC\nSupported: %s", strings.Join(domain.SupportedSymbols, ", ")))
		}
		symbol := strings.ToUpper(args[0])
		if !domain.IsSupported(symbol) {
			return c.Send(fmt.Sprintf("Unknown symbol: %s\nSupported: %s", symbol, strings.Join(domain.SupportedSymbols, ", ")))
		}
		snapshot, err := forecastService.Price(context.Background(), symbol)
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching price for %s: %v", symbol, err))
		}
		msg := fmt.Sprintf(
			"%s\nPrice: $%.2f\n24h Change: %.2f%%\n24h Volume: $%.0f",
			symbol, snapshot.PriceUSD, snapshot.Change24hPct, snapshot.Volume24h,
		)
		return c.Send(msg)
	})

	b.Handle("/forecast", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send(fmt.Sprintf("Usage: /forecast BTC [30m|1h|4h|24h]\nSupported: %s", strings.Join(domain.SupportedSymbols, ", ")))
		}
		symbol := strings.ToUpper(args[0])
		if !domain.IsSupported(symbol) {
			return c.Send(fmt.Sprintf("Unknown symbol: %s\nSupported: %s", symbol, strings.Join(domain.SupportedSymbols, ", ")))
		}
		timeframe := string(domain.Timeframe1h)
		if len(args) > 1 {
			tf, err := domain.ParseTimeframe(args[1])
			if err != nil {
				return c.Send(err.Error())
			}
			timeframe = string(tf)
		}

		result, err := forecastService.Predict(context.Background(), symbol, timeframe)
		if err != nil {
			return c.Send(fmt.Sprintf("Error forecasting %s: %v", symbol, err))
		}
		return c.Send(advisorService.Explain(context.Background(), result))
	})

	log.Println("Telegram bot started")
	go b.Start()
}
