package domain

import "time"

// Market is an active prediction market from the public catalog.
type Market struct {
	ID          string
	ConditionID string
	Slug        string
	Question    string
	NegRisk     bool
	EndDate     time.Time
	Liquidity   float64
	Volume24h   float64
	Outcomes    []MarketOutcome
}

// MarketOutcome is one tradeable outcome of a market.
type MarketOutcome struct {
	Label   string
	TokenID string
	Price   float64 // last catalog price, 0 if unknown
}

// HoursToEnd returns hours until resolution, or -1 when no end date is set.
func (m Market) HoursToEnd(now time.Time) float64 {
	if m.EndDate.IsZero() {
		return -1
	}
	return m.EndDate.Sub(now).Hours()
}
