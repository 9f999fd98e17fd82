// Package ports defines the interfaces between the trading engine and its
// collaborators. Implementations live under internal/adapters.
package ports

import (
	"context"

	"github.com/tradekit/autobot/internal/domain"
)

// OrderExecutor builds, signs, and submits orders against the exchange.
type OrderExecutor interface {
	// PlaceOrder signs and submits one order. The returned SubmitResult is
	// matched exhaustively: Filled, Rejected, or Ambiguous. An error means
	// the trade attempt failed before a result existed (auth, constraint,
	// or pre-send transport failure).
	PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (domain.SubmitResult, error)

	// Reauthenticate re-derives API credentials after an auth failure,
	// replacing the session's only copy.
	Reauthenticate(ctx context.Context) error
}

// MarketProvider scans the public catalog of active markets.
type MarketProvider interface {
	FetchActiveMarkets(ctx context.Context) ([]domain.Market, error)
}

// BookProvider fetches the order book for one outcome token.
type BookProvider interface {
	FetchOrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error)
}

// BalanceProvider reads on-chain balances of the settlement asset.
type BalanceProvider interface {
	// USDCBalance returns the wallet's USDC balance in whole USDC.
	USDCBalance(ctx context.Context) (float64, error)
}

// LedgerRepository persists the full ledger state. Save must complete
// before an open/close transition returns control to the polling loop.
type LedgerRepository interface {
	Load(ctx context.Context) (domain.LedgerState, error)
	Save(ctx context.Context, state domain.LedgerState) error
	Close() error
}

// Notifier reports portfolio status and realized profits to the user.
type Notifier interface {
	// Status renders the current cycle summary (console table).
	Status(ctx context.Context, state domain.LedgerState, opps []domain.Opportunity) error

	// TradeClosed announces one realized trade (best effort, e.g. SMS).
	TradeClosed(ctx context.Context, trade domain.RealizedTrade, totalPnL float64)
}
