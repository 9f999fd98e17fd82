// Command approve sets the one-time exchange allowances: USDC.e spending
// and CTF token transfers for the three exchange contracts. Run once per
// wallet before trading.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/tradekit/autobot/config"
	"github.com/tradekit/autobot/internal/adapters/onchain"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}
	if cfg.PrivateKey == "" {
		slog.Error("PRIVATE_KEY is not set (env or .env)")
		os.Exit(1)
	}

	wallet, err := onchain.NewWallet(cfg.API.PolygonRPC, cfg.PrivateKey)
	if err != nil {
		slog.Error("failed to connect to Polygon RPC", "err", err, "rpc", cfg.API.PolygonRPC)
		os.Exit(1)
	}

	slog.Info("checking approvals", "address", wallet.Address())
	if err := wallet.EnsureApprovals(context.Background()); err != nil {
		slog.Error("approval failed", "err", err)
		os.Exit(1)
	}
	slog.Info("all approvals in place")
}
