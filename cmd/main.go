// Command bandrev runs the Bollinger-reversion trading bot.
//
// The bot evaluates each configured instrument once per cycle: it computes
// indicators over recent candle history, looks for a band breakout on the
// most recently closed candle, asks the pretrained classifier whether the
// breakout will revert, and on a positive answer submits a market order with
// stop-loss and take-profit at the instrument's display precision.
//
// Usage:
//
//	bandrev --config config.yaml
//	bandrev --instruments EUR_USD,GBP_USD --once
//
// Required environment variables:
//
//	For OANDA: OANDA_API_TOKEN, OANDA_ACCOUNT_ID
//	For email notifications: EMAIL_APP_PASSWORD
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"bandrev/config"
	"bandrev/internal"
	"bandrev/internal/clients"
	"bandrev/internal/notifier"
	"bandrev/internal/services/strategy"
	"bandrev/internal/storage/decisions"
)

func main() {
	// .env is optional; real deployments use actual environment variables
	_ = godotenv.Load()

	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	featureNames, err := clients.LoadFeatureNames(cfg.FeaturesPath)
	if err != nil {
		logger.Fatal("failed to load model feature list", zap.Error(err))
	}

	model, err := clients.NewModelClient(cfg.ModelEndpoint)
	if err != nil {
		logger.Fatal("failed to create model client", zap.Error(err))
	}

	strat, err := strategy.NewReversion(logger, cfg.Indicators, featureNames, model, cfg.StopLossPips)
	if err != nil {
		logger.Fatal("failed to create strategy", zap.Error(err))
	}

	var candles internal.CandleProvider
	var broker internal.Broker
	switch cfg.Platform {
	case "oanda":
		token := os.Getenv("OANDA_API_TOKEN")
		accountID := os.Getenv("OANDA_ACCOUNT_ID")
		if token == "" || accountID == "" {
			logger.Fatal("OANDA_API_TOKEN and OANDA_ACCOUNT_ID environment variables must be set")
		}
		client, err := clients.NewOandaClient(cfg.Environment, token, accountID)
		if err != nil {
			logger.Fatal("failed to create OANDA client", zap.Error(err))
		}
		candles = client
		broker = client
	case "dryrun":
		candles = clients.NewBinanceCandleProvider()
	default:
		logger.Fatal("unsupported platform", zap.String("platform", cfg.Platform))
	}

	var notify notifier.Notifier = notifier.Noop{}
	if cfg.Email.Enabled {
		emailNotifier, err := notifier.NewEmailNotifier(
			cfg.Email.Host, cfg.Email.Port, cfg.Email.Sender,
			os.Getenv("EMAIL_APP_PASSWORD"), cfg.Email.Recipient)
		if err != nil {
			logger.Fatal("failed to create email notifier", zap.Error(err))
		}
		notify = emailNotifier
	}

	store, err := decisions.NewWALStore(cfg.WALDir)
	if err != nil {
		logger.Fatal("failed to open decision journal", zap.Error(err))
	}
	defer store.Close()

	bot := internal.NewTradingBot(cfg, candles, broker, strat, store, notify, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := bot.Run(ctx); err != nil && err != context.Canceled {
		logger.Fatal("bot stopped", zap.Error(err))
	}
	logger.Info("bot finished")
}
