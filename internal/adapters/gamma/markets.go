// Package gamma scans the public Gamma market catalog. Collaborator around
// the trading core: plain paginated reads, no authentication.
package gamma

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/tradekit/autobot/internal/domain"
)

const (
	defaultBaseURL = "https://gamma-api.polymarket.com"

	marketsPath = "/markets"
	pageSize    = 100
	// Cap per scan; beyond this the tail is stale low-volume markets.
	maxMarkets = 500

	// Gamma /markets: 300/10s documented; run at 60%.
	ratePerSec = 18

	requestTimeout = 30 * time.Second
)

// Client is the Gamma catalog client.
type Client struct {
	http    *http.Client
	baseURL string
	limiter *rate.Limiter
}

// NewClient creates a Client. An empty baseURL selects production.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: requestTimeout},
		baseURL: baseURL,
		limiter: rate.NewLimiter(ratePerSec, 10),
	}
}

// gammaMarket is the subset of the catalog payload the strategy needs.
// Outcome labels, prices, and token IDs arrive as JSON-encoded strings.
type gammaMarket struct {
	ID            string          `json:"id"`
	ConditionID   string          `json:"conditionId"`
	Slug          string          `json:"slug"`
	Question      string          `json:"question"`
	NegRisk       bool            `json:"negRisk"`
	EndDate       string          `json:"endDate"`
	Liquidity     json.Number     `json:"liquidityNum"`
	Volume24h     json.Number     `json:"volume24hr"`
	Outcomes      json.RawMessage `json:"outcomes"`
	OutcomePrices json.RawMessage `json:"outcomePrices"`
	ClobTokenIDs  json.RawMessage `json:"clobTokenIds"`
}

// FetchActiveMarkets implements ports.MarketProvider: pages through every
// active order-book market, capped at maxMarkets per scan.
func (c *Client) FetchActiveMarkets(ctx context.Context) ([]domain.Market, error) {
	var all []domain.Market

	for offset := 0; offset <= maxMarkets; offset += pageSize {
		url := fmt.Sprintf("%s%s?active=true&closed=false&enableOrderBook=true&limit=%d&offset=%d",
			c.baseURL, marketsPath, pageSize, offset)

		batch, err := c.fetchPage(ctx, url)
		if err != nil {
			if offset == 0 {
				return nil, fmt.Errorf("gamma.FetchActiveMarkets: %w", err)
			}
			// Partial catalog beats no catalog mid-scan.
			slog.Warn("gamma: page fetch failed, using partial scan", "offset", offset, "err", err)
			break
		}
		if len(batch) == 0 {
			break
		}

		for _, gm := range batch {
			all = append(all, mapMarket(gm))
		}
		if len(batch) < pageSize {
			break
		}
	}

	slog.Debug("gamma: active markets fetched", "total", len(all))
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, url string) ([]gammaMarket, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gamma status %d: %s", resp.StatusCode, body)
	}

	var batch []gammaMarket
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		return nil, fmt.Errorf("decode markets page: %w", err)
	}
	return batch, nil
}

// mapMarket converts the wire shape to the domain type. Malformed outcome
// arrays yield a market with no outcomes, which the scorer skips.
func mapMarket(gm gammaMarket) domain.Market {
	m := domain.Market{
		ID:          gm.ID,
		ConditionID: gm.ConditionID,
		Slug:        gm.Slug,
		Question:    gm.Question,
		NegRisk:     gm.NegRisk,
	}
	if gm.EndDate != "" {
		if t, err := time.Parse(time.RFC3339, gm.EndDate); err == nil {
			m.EndDate = t.UTC()
		}
	}
	m.Liquidity, _ = gm.Liquidity.Float64()
	m.Volume24h, _ = gm.Volume24h.Float64()

	labels := decodeStringArray(gm.Outcomes)
	prices := decodeStringArray(gm.OutcomePrices)
	tokenIDs := decodeStringArray(gm.ClobTokenIDs)

	for i, label := range labels {
		if i >= len(tokenIDs) || tokenIDs[i] == "" {
			continue
		}
		o := domain.MarketOutcome{Label: label, TokenID: tokenIDs[i]}
		if i < len(prices) {
			o.Price = domain.ParsePrice(prices[i])
		}
		m.Outcomes = append(m.Outcomes, o)
	}
	return m
}

// decodeStringArray handles Gamma's two encodings of the same field: a JSON
// array, or a string containing a JSON array.
func decodeStringArray(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr
	}
	var inner string
	if err := json.Unmarshal(raw, &inner); err != nil {
		return nil
	}
	if err := json.Unmarshal([]byte(inner), &arr); err != nil {
		return nil
	}
	return arr
}
