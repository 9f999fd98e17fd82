package domain

// Opportunity is one scored outcome produced by the strategy layer.
// Ranked by Score; only BUY-side opportunities are produced.
type Opportunity struct {
	Market    Market
	Outcome   string
	TokenID   string
	Price     float64
	FairValue float64
	Edge      float64  // FairValue - Price
	RRRatio   float64  // (1 - price) / price
	Score     float64  // composite ranking score
	Reasons   []string // which heuristics fired
	HoursLeft float64  // hours to resolution, -1 if unknown
}

// Key returns the ledger key this opportunity would occupy if entered.
func (o Opportunity) Key() string {
	return PositionKey(o.Market.ConditionID, o.TokenID)
}
