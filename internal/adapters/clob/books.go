package clob

import (
	"context"
	"fmt"

	"github.com/tradekit/autobot/internal/domain"
)

const bookPath = "/book"

type bookEntryJSON struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

type bookResponse struct {
	Bids []bookEntryJSON `json:"bids"`
	Asks []bookEntryJSON `json:"asks"`
}

// FetchOrderBook implements ports.BookProvider: GET /book for one token.
func (c *Client) FetchOrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error) {
	url := fmt.Sprintf("%s%s?token_id=%s", c.baseURL, bookPath, tokenID)

	var resp bookResponse
	if err := c.get(ctx, c.bookLimiter, url, &resp); err != nil {
		return domain.OrderBook{}, fmt.Errorf("clob.FetchOrderBook %s: %w", tokenID, err)
	}

	book := domain.OrderBook{TokenID: tokenID}
	for _, b := range resp.Bids {
		book.Bids = append(book.Bids, domain.BookEntry{Price: domain.ParsePrice(b.Price), Size: domain.ParsePrice(b.Size)})
	}
	for _, a := range resp.Asks {
		book.Asks = append(book.Asks, domain.BookEntry{Price: domain.ParsePrice(a.Price), Size: domain.ParsePrice(a.Size)})
	}
	return book, nil
}
