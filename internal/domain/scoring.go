package domain

// scoring.go — heuristic opportunity scoring.
//
// Identifies mispriced outcomes across active markets:
//  1. CONTRARIAN    — cheap outcomes on busy markets suggest panic selling
//  2. MEAN REVERSION — extreme prices (>90c complement) tend to revert
//  3. TIME DECAY    — cheap outcomes near expiry carry the highest edge
//  4. LIQUIDITY     — only trade markets you can actually exit

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// ScoringConfig are the strategy tuning knobs.
type ScoringConfig struct {
	MinEdge      float64 // minimum fair-value edge to consider
	MinLiquidity float64 // minimum market liquidity in USDC
}

// DefaultScoringConfig mirrors the tuned production values.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{MinEdge: 0.05, MinLiquidity: 3000}
}

// ScoreOutcome scores a single market outcome. Returns false when the
// outcome is not tradeable under the strategy rules.
func ScoreOutcome(m Market, o MarketOutcome, cfg ScoringConfig, now time.Time) (Opportunity, bool) {
	if o.Price <= 0 || o.Price >= 1 {
		return Opportunity{}, false
	}
	if m.Liquidity < cfg.MinLiquidity {
		return Opportunity{}, false
	}

	hoursLeft := m.HoursToEnd(now)
	// Resolving within the hour is too risky for an autonomous entry;
	// >90 days out carries no time edge.
	if hoursLeft >= 0 && hoursLeft < 1 {
		return Opportunity{}, false
	}
	if hoursLeft > 90*24 {
		return Opportunity{}, false
	}

	var score float64
	var reasons []string

	switch {
	case o.Price <= 0.15 && m.Volume24h > 500:
		score += 3
		reasons = append(reasons, fmt.Sprintf("cheap@%.0fc", o.Price*100))
	case o.Price <= 0.25 && m.Volume24h > 1000:
		score += 2
		reasons = append(reasons, fmt.Sprintf("underpriced@%.0fc", o.Price*100))
	}

	if 1-o.Price > 0.90 {
		score += 2
		reasons = append(reasons, "complement>90c")
	}

	if hoursLeft >= 1 && hoursLeft <= 168 && o.Price <= 0.30 {
		score += 2
		reasons = append(reasons, fmt.Sprintf("expires_%.0fh", hoursLeft))
	}

	if m.Volume24h > 5000 {
		score++
		reasons = append(reasons, "high_vol")
	}
	if m.Liquidity > 10000 {
		score++
		reasons = append(reasons, "deep_liquidity")
	}

	fair := fairValue(o.Price)
	edge := fair - o.Price
	if edge < cfg.MinEdge && score < 4 {
		return Opportunity{}, false
	}
	if edge <= 0 {
		return Opportunity{}, false
	}

	rr := (1 - o.Price) / o.Price
	composite := score + edge*10 + math.Min(rr, 5)

	return Opportunity{
		Market:    m,
		Outcome:   o.Label,
		TokenID:   o.TokenID,
		Price:     o.Price,
		FairValue: math.Round(fair*100) / 100,
		Edge:      math.Round(edge*1000) / 1000,
		RRRatio:   math.Round(rr*10) / 10,
		Score:     math.Round(composite*10) / 10,
		Reasons:   reasons,
		HoursLeft: hoursLeft,
	}, true
}

// fairValue is the simple reversion model: extreme prices drift toward the
// center. Real edge comes from the scoring factors; this sets its size.
func fairValue(price float64) float64 {
	switch {
	case price <= 0.10:
		return price + 0.08
	case price <= 0.20:
		return price + 0.06
	case price <= 0.30:
		return price + 0.04
	case price >= 0.85:
		return price - 0.04
	default:
		return price
	}
}

// RankOpportunities scores every outcome of every market and returns the
// tradeable ones sorted by composite score, best first.
func RankOpportunities(markets []Market, cfg ScoringConfig, now time.Time) []Opportunity {
	var opps []Opportunity
	for _, m := range markets {
		for _, o := range m.Outcomes {
			if opp, ok := ScoreOutcome(m, o, cfg, now); ok {
				opps = append(opps, opp)
			}
		}
	}
	sort.Slice(opps, func(i, j int) bool { return opps[i].Score > opps[j].Score })
	return opps
}
