package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tradekit/autobot/config"
	"github.com/tradekit/autobot/internal/adapters/clob"
	"github.com/tradekit/autobot/internal/adapters/gamma"
	"github.com/tradekit/autobot/internal/adapters/ledger"
	"github.com/tradekit/autobot/internal/adapters/notify"
	"github.com/tradekit/autobot/internal/adapters/onchain"
	"github.com/tradekit/autobot/internal/application/engine"
	"github.com/tradekit/autobot/internal/ports"
	"github.com/tradekit/autobot/internal/retry"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one trade cycle and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	skipApprovals := flag.Bool("skip-approvals", false, "skip the on-chain approval check at startup")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	if cfg.PrivateKey == "" {
		slog.Error("PRIVATE_KEY is not set (env or .env)")
		os.Exit(1)
	}

	slog.Info("autobot starting",
		"config", *configPath,
		"interval", cfg.PollInterval(),
		"tradeSize", cfg.Trading.TradeSizeUSDC,
		"storage", cfg.Storage.Backend,
		"once", *once,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	session, err := clob.NewSession(cfg.API.CLOBBase, cfg.PrivateKey)
	if err != nil {
		slog.Error("failed to create CLOB session", "err", err)
		os.Exit(1)
	}

	// Credentials are mandatory before the first cycle; transient API
	// trouble at boot gets a few patient attempts, then we give up loudly.
	startupAuth := retry.Policy{
		MaxAttempts: 5,
		Backoff:     retry.Linear(3*time.Second, 0),
	}
	if err := startupAuth.Do(ctx, session.DeriveCredentials); err != nil {
		slog.Error("could not derive API credentials", "err", err)
		os.Exit(1)
	}
	slog.Info("API credentials derived", "address", session.Address())

	wallet, err := onchain.NewWallet(cfg.API.PolygonRPC, cfg.PrivateKey)
	if err != nil {
		slog.Error("failed to connect to Polygon RPC", "err", err, "rpc", cfg.API.PolygonRPC)
		os.Exit(1)
	}

	if !*skipApprovals {
		if err := wallet.EnsureApprovals(ctx); err != nil {
			slog.Error("exchange approvals not in place", "err", err)
			os.Exit(1)
		}
	}

	repo, err := openRepository(cfg.Storage)
	if err != nil {
		slog.Error("failed to open ledger storage", "err", err)
		os.Exit(1)
	}
	defer repo.Close()

	log := slog.Default()
	led, err := engine.NewLedger(ctx, repo, log)
	if err != nil {
		slog.Error("failed to load ledger", "err", err)
		os.Exit(1)
	}

	notifiers := []ports.Notifier{notify.NewConsole()}
	if sms := notify.NewSMS(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.From, cfg.Twilio.To); sms != nil {
		slog.Info("SMS notifications enabled", "to", cfg.Twilio.To)
		notifiers = append(notifiers, sms)
	}

	eng := engine.New(
		engine.Config{
			TradeSizeUSDC: cfg.Trading.TradeSizeUSDC,
			TakeProfitPct: cfg.Trading.TakeProfitPct,
			StopLossPct:   cfg.Trading.StopLossPct,
			PollInterval:  cfg.PollInterval(),
			Limits:        cfg.Limits(),
			Scoring:       cfg.Scoring(),
		},
		session,
		gamma.NewClient(cfg.API.GammaBase),
		clob.NewClient(cfg.API.CLOBBase),
		wallet,
		led,
		notifiers,
		log,
	)

	if *once {
		if err := eng.RunOnce(ctx); err != nil {
			slog.Error("cycle failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if err := eng.Run(ctx); err != nil {
		slog.Error("engine exited with error", "err", err)
		os.Exit(1)
	}
	slog.Info("autobot stopped cleanly")
}

func openRepository(cfg config.StorageConfig) (ports.LedgerRepository, error) {
	if cfg.Backend == "sqlite" {
		return ledger.NewSQLiteRepository(cfg.Path)
	}
	return ledger.NewFileRepository(cfg.Path), nil
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
