package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tradekit/autobot/internal/domain"
	"github.com/tradekit/autobot/internal/ports"
)

// Config holds the engine's trading parameters.
type Config struct {
	TradeSizeUSDC float64
	TakeProfitPct float64 // close when unrealized return >= this
	StopLossPct   float64 // close when unrealized return <= -this
	PollInterval  time.Duration
	Limits        domain.Limits
	Scoring       domain.ScoringConfig
}

// Engine drives the trade cycle. One goroutine, sequential network calls:
// the order flow must observe its own writes, so there is nothing to gain
// from fanning out.
type Engine struct {
	cfg       Config
	executor  ports.OrderExecutor
	markets   ports.MarketProvider
	books     ports.BookProvider
	balance   ports.BalanceProvider
	ledger    *Ledger
	notifiers []ports.Notifier
	log       *slog.Logger
}

// New wires the engine. balance may be nil (no on-chain check before entries).
func New(cfg Config, executor ports.OrderExecutor, markets ports.MarketProvider,
	books ports.BookProvider, balance ports.BalanceProvider, ledger *Ledger,
	notifiers []ports.Notifier, log *slog.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		executor:  executor,
		markets:   markets,
		books:     books,
		balance:   balance,
		ledger:    ledger,
		notifiers: notifiers,
		log:       log,
	}
}

// Run polls until the context is cancelled. The first cycle starts
// immediately; cancellation is honored between cycles, never mid-persist.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info("engine started",
		"interval", e.cfg.PollInterval,
		"tradeSize", e.cfg.TradeSizeUSDC,
		"maxPositions", e.cfg.Limits.MaxPositions)

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := e.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			e.log.Error("cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			e.log.Info("engine stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce executes one full cycle: daily reset, scan, entries, exits,
// mark-to-market, status.
func (e *Engine) RunOnce(ctx context.Context) error {
	start := time.Now()

	if err := e.ledger.ResetDailyIfNeeded(ctx, start); err != nil {
		return err
	}

	markets, err := e.markets.FetchActiveMarkets(ctx)
	if err != nil {
		return fmt.Errorf("engine: market scan: %w", err)
	}
	opps := domain.RankOpportunities(markets, e.cfg.Scoring, start)
	e.log.Info("cycle scan", "markets", len(markets), "opportunities", len(opps))

	e.enterPositions(ctx, opps)
	e.managePositions(ctx)
	e.ledger.Persist(ctx)

	state := e.ledger.Snapshot()
	for _, n := range e.notifiers {
		if err := n.Status(ctx, state, opps); err != nil {
			e.log.Warn("status notification failed", "error", err)
		}
	}

	e.log.Debug("cycle done", "took", time.Since(start))
	return nil
}

// enterPositions works through the ranked opportunities, entering every one
// the guards allow. An auth failure abandons the rest of the batch; the
// next cycle retries with fresh credentials.
func (e *Engine) enterPositions(ctx context.Context, opps []domain.Opportunity) {
	if len(opps) == 0 {
		return
	}

	if e.balance != nil {
		bal, err := e.balance.USDCBalance(ctx)
		if err != nil {
			e.log.Warn("balance check failed, skipping entries", "error", err)
			return
		}
		if bal < e.cfg.TradeSizeUSDC {
			e.log.Warn("wallet below trade size, skipping entries",
				"balance", bal, "tradeSize", e.cfg.TradeSizeUSDC)
			return
		}
	}

	snapshot := e.ledger.Snapshot()
	entered := 0

	for _, opp := range opps {
		if e.cfg.Limits.MaxNewPerCycle > 0 && entered >= e.cfg.Limits.MaxNewPerCycle {
			break
		}

		book, err := e.books.FetchOrderBook(ctx, opp.TokenID)
		if err != nil {
			e.log.Warn("book fetch failed", "token", opp.TokenID, "error", err)
			continue
		}

		ask := book.BestAsk()
		if ask <= 0 || ask >= 1 {
			continue
		}
		// The scan price is stale by now; re-check the edge at the live ask.
		if ask >= opp.FairValue {
			e.log.Debug("edge gone at live ask", "key", opp.Key(), "ask", ask, "fair", opp.FairValue)
			continue
		}

		candidate := domain.Candidate{
			Key:         opp.Key(),
			SizeUSDC:    e.cfg.TradeSizeUSDC,
			SpreadCents: book.SpreadCents(),
		}
		decision := domain.EvaluateGuards(candidate, snapshot, e.cfg.Limits, entered)
		if !decision.Allowed {
			e.log.Debug("entry blocked", "key", candidate.Key, "reason", decision.Reason)
			continue
		}

		result, err := e.executor.PlaceOrder(ctx, domain.PlaceOrderRequest{
			TokenID: opp.TokenID,
			Side:    domain.SideBuy,
			Price:   ask,
			Amount:  e.cfg.TradeSizeUSDC,
			NegRisk: opp.Market.NegRisk,
		})
		if err != nil {
			if e.handleAuthError(ctx, err) {
				return
			}
			e.log.Error("buy failed", "key", opp.Key(), "error", err)
			continue
		}

		switch r := result.(type) {
		case domain.Filled:
			pos := domain.Position{
				TokenID:     opp.TokenID,
				ConditionID: opp.Market.ConditionID,
				Outcome:     opp.Outcome,
				Question:    opp.Market.Question,
				EntryPrice:  ask,
				Shares:      e.cfg.TradeSizeUSDC / ask,
				CostUSDC:    e.cfg.TradeSizeUSDC,
				NegRisk:     opp.Market.NegRisk,
			}
			if err := e.ledger.Open(ctx, pos); err != nil {
				e.log.Error("ledger open failed after fill", "key", opp.Key(),
					"orderId", r.OrderID, "error", err)
				continue
			}
			entered++
		case domain.Rejected:
			e.log.Info("buy rejected", "key", opp.Key(), "reason", r.Reason)
		case domain.Ambiguous:
			// Could have filled. Never resubmit; a later cycle either sees
			// the position on chain or the spend never happened.
			e.log.Warn("buy outcome unknown, not resubmitting",
				"key", opp.Key(), "httpStatus", r.HTTPStatus)
		}
	}
}

// managePositions checks every open position against the exit rules and
// refreshes mark-to-market prices for the rest.
func (e *Engine) managePositions(ctx context.Context) {
	snapshot := e.ledger.Snapshot()

	for key, pos := range snapshot.Positions {
		book, err := e.books.FetchOrderBook(ctx, pos.TokenID)
		if err != nil {
			e.log.Warn("book fetch failed", "key", key, "error", err)
			continue
		}

		bid := book.BestBid()
		if bid <= 0 {
			e.log.Debug("no bids, holding", "key", key)
			continue
		}

		ret := (bid - pos.EntryPrice) / pos.EntryPrice
		takeProfit := ret >= e.cfg.TakeProfitPct
		stopLoss := ret <= -e.cfg.StopLossPct
		if !takeProfit && !stopLoss {
			e.ledger.MarkToMarket(key, bid)
			continue
		}

		reason := "take profit"
		if stopLoss {
			reason = "stop loss"
		}
		e.log.Info("exit triggered", "key", key, "reason", reason,
			"entry", pos.EntryPrice, "bid", bid, "return", ret)

		result, err := e.executor.PlaceOrder(ctx, domain.PlaceOrderRequest{
			TokenID: pos.TokenID,
			Side:    domain.SideSell,
			Price:   bid,
			Amount:  pos.Shares,
			NegRisk: pos.NegRisk,
		})
		if err != nil {
			if e.handleAuthError(ctx, err) {
				return
			}
			e.log.Error("sell failed", "key", key, "error", err)
			continue
		}

		switch r := result.(type) {
		case domain.Filled:
			trade, err := e.ledger.Close(ctx, key, bid)
			if err != nil {
				e.log.Error("ledger close failed after fill", "key", key,
					"orderId", r.OrderID, "error", err)
				continue
			}
			total := e.ledger.Snapshot().RealizedPnL()
			for _, n := range e.notifiers {
				n.TradeClosed(ctx, trade, total)
			}
		case domain.Rejected:
			e.log.Info("sell rejected, holding", "key", key, "reason", r.Reason)
			e.ledger.MarkToMarket(key, bid)
		case domain.Ambiguous:
			// The position stays open in the ledger. If the sell actually
			// filled, the next exit attempt gets rejected for missing
			// balance and the operator reconciles by hand.
			e.log.Warn("sell outcome unknown, not resubmitting",
				"key", key, "httpStatus", r.HTTPStatus)
		}
	}
}

// handleAuthError re-derives credentials on an auth failure and reports
// whether the current batch should be abandoned.
func (e *Engine) handleAuthError(ctx context.Context, err error) bool {
	var authErr *domain.AuthError
	if !errors.As(err, &authErr) {
		return false
	}

	e.log.Warn("authentication rejected, re-deriving credentials",
		"status", authErr.Status)
	if rerr := e.executor.Reauthenticate(ctx); rerr != nil {
		e.log.Error("re-derivation failed, will retry next cycle", "error", rerr)
	}
	return true
}
