package domain

import (
	"math"
	"strconv"
)

// OrderBook is the book for a single outcome token.
type OrderBook struct {
	TokenID string
	Bids    []BookEntry
	Asks    []BookEntry
}

// BookEntry is one price level in the book.
type BookEntry struct {
	Price float64
	Size  float64
}

// BestBid returns the highest bid price, or 0 if there are no bids.
func (ob OrderBook) BestBid() float64 {
	best := 0.0
	for _, b := range ob.Bids {
		if b.Price > best {
			best = b.Price
		}
	}
	return best
}

// BestAsk returns the lowest ask price, or 0 if there are no asks.
func (ob OrderBook) BestAsk() float64 {
	best := 0.0
	for _, a := range ob.Asks {
		if best == 0 || a.Price < best {
			best = a.Price
		}
	}
	return best
}

// Spread returns best ask minus best bid, or 0 when either side is empty.
func (ob OrderBook) Spread() float64 {
	bid := ob.BestBid()
	ask := ob.BestAsk()
	if bid == 0 || ask == 0 {
		return 0
	}
	return ask - bid
}

// SpreadCents returns the spread in whole cents. An empty side counts as
// maximally wide — an unquotable market must not pass the spread guard.
func (ob OrderBook) SpreadCents() int {
	bid := ob.BestBid()
	ask := ob.BestAsk()
	if bid == 0 || ask == 0 {
		return 99
	}
	return int(math.Round((ask - bid) * 100))
}

// ParsePrice converts an API price string to float64.
func ParsePrice(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
