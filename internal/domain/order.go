package domain

// Side of an order from the wallet's perspective.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// PlaceOrderRequest describes a candidate order before building/signing.
// For BUY, Amount is USDC to spend; for SELL, Amount is shares to offer.
type PlaceOrderRequest struct {
	TokenID string
	Side    Side
	Price   float64
	Amount  float64
	NegRisk bool
}

// SubmitResult is the outcome of one order submission, matched exhaustively
// downstream. Exactly one of Filled, Rejected, or Ambiguous.
type SubmitResult interface {
	submitResult()
}

// Filled means the exchange confirmed the order (truthy success flag or a
// non-empty order ID — the only success signals the protocol provides).
type Filled struct {
	OrderID string
}

// Rejected is a well-formed response declining the order: insufficient
// allowance, price moved, market closed.
type Rejected struct {
	Reason string
}

// Ambiguous means the outcome is unknown: the request may have reached the
// exchange (timeout, connection drop, unparseable body). The same salt must
// never be resubmitted automatically.
type Ambiguous struct {
	HTTPStatus int
}

func (Filled) submitResult()    {}
func (Rejected) submitResult()  {}
func (Ambiguous) submitResult() {}
