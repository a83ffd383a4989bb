package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	dex "github.com/traderoom/dexcore"
	"github.com/traderoom/dexcore/server"
	"github.com/traderoom/dexcore/token"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	dex.SetLogger(logger)

	addr := getEnv("LISTEN_ADDR", ":8080")
	admin := getEnv("ADMIN", "admin")
	adminKey := getEnv("ADMIN_KEY", "")
	quote := getEnv("QUOTE_TICKER", "DAI")
	tickers := splitList(getEnv("TICKERS", "BAT,REP,ZRX"))
	corsOrigins := splitList(getEnv("CORS_ORIGINS", "*"))
	seedTraders := splitList(getEnv("SEED_TRADERS", ""))
	seedAmount, err := decimal.NewFromString(getEnv("SEED_AMOUNT", "1000"))
	if err != nil {
		slog.Error("invalid SEED_AMOUNT", "error", err)
		os.Exit(1)
	}

	feed := server.NewFeed()
	exchange := dex.NewExchange(admin, dex.WithPublisher(feed))
	vault := token.NewVault()

	srv := server.New(exchange, feed, vault, server.Config{
		AdminKey:    adminKey,
		CORSOrigins: corsOrigins,
	})

	// The quote asset must be registered first.
	for _, ticker := range append([]string{quote}, tickers...) {
		if err := srv.AddAsset(ticker); err != nil {
			slog.Error("asset registration failed", "ticker", ticker, "error", err)
			os.Exit(1)
		}
	}

	for _, trader := range seedTraders {
		for _, ticker := range append([]string{quote}, tickers...) {
			tok, _ := vault.Get(ticker)
			if err := tok.Faucet(trader, seedAmount); err != nil {
				slog.Error("seed faucet failed", "trader", trader, "ticker", ticker, "error", err)
				os.Exit(1)
			}
		}
		slog.Info("trader seeded", "trader", trader, "amount", seedAmount)
	}

	if err := srv.Run(addr); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
