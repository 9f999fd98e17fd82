// Command balance prints the wallet's USDC balance and a summary of the
// persisted ledger without starting the trading loop.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/olekukonko/tablewriter"

	"github.com/tradekit/autobot/config"
	"github.com/tradekit/autobot/internal/adapters/ledger"
	"github.com/tradekit/autobot/internal/adapters/onchain"
	"github.com/tradekit/autobot/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}
	if cfg.PrivateKey == "" {
		slog.Error("PRIVATE_KEY is not set (env or .env)")
		os.Exit(1)
	}

	ctx := context.Background()

	wallet, err := onchain.NewWallet(cfg.API.PolygonRPC, cfg.PrivateKey)
	if err != nil {
		slog.Error("failed to connect to Polygon RPC", "err", err, "rpc", cfg.API.PolygonRPC)
		os.Exit(1)
	}

	usdc, err := wallet.USDCBalance(ctx)
	if err != nil {
		slog.Error("failed to read USDC balance", "err", err)
		os.Exit(1)
	}

	var repo ports.LedgerRepository
	if cfg.Storage.Backend == "sqlite" {
		repo, err = ledger.NewSQLiteRepository(cfg.Storage.Path)
		if err != nil {
			slog.Error("failed to open ledger storage", "err", err)
			os.Exit(1)
		}
	} else {
		repo = ledger.NewFileRepository(cfg.Storage.Path)
	}
	defer repo.Close()

	state, err := repo.Load(ctx)
	if err != nil {
		slog.Error("failed to load ledger", "err", err)
		os.Exit(1)
	}

	fmt.Printf("\nWallet %s\n\n", wallet.Address())

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("USDC", "Open", "Exposure", "Daily spent", "Realized", "Unrealized")
	table.Append(
		fmt.Sprintf("$%.2f", usdc),
		fmt.Sprintf("%d", len(state.Positions)),
		fmt.Sprintf("$%.2f", state.Exposure()),
		fmt.Sprintf("$%.2f", state.DailySpent),
		fmt.Sprintf("$%+.2f", state.RealizedPnL()),
		fmt.Sprintf("$%+.2f", state.UnrealizedPnL()),
	)
	table.Render()

	if len(state.Positions) > 0 {
		fmt.Println()
		pos := tablewriter.NewWriter(os.Stdout)
		pos.Header("Market", "Outcome", "Entry", "Shares", "Cost")
		for _, p := range state.Positions {
			q := p.Question
			if len(q) > 40 {
				q = q[:37] + "..."
			}
			pos.Append(
				q,
				p.Outcome,
				fmt.Sprintf("%.0fc", p.EntryPrice*100),
				fmt.Sprintf("%.1f", p.Shares),
				fmt.Sprintf("$%.2f", p.CostUSDC),
			)
		}
		pos.Render()
	}
}
