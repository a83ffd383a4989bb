package dex

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side int8

const (
	Buy  Side = 1
	Sell Side = 2
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return "unknown"
}

// Opposite returns the side a taker order matches against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Order represents the state of a resting limit order.
// Orders are append-only: once created they are never removed from the book.
// Filled is the only field that changes after creation; an order with
// Filled == Amount stays in place and is skipped by matching.
type Order struct {
	ID        uint64          `json:"id"`
	Trader    string          `json:"trader"`
	Ticker    string          `json:"ticker"`
	Side      Side            `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
	Filled    decimal.Decimal `json:"filled"`
	Timestamp int64           `json:"timestamp"` // Unix nano, creation time

	// Intrusive linked list pointers (ignored by JSON)
	next *Order
	prev *Order
}

// Available returns the unfilled remainder of the order.
func (o *Order) Available() decimal.Decimal {
	return o.Amount.Sub(o.Filled)
}

// Fill records one trade produced by a market order walking the book.
// Price is always the maker's price; Quote is Price * Amount.
type Fill struct {
	ID           string          `json:"id"`
	TradeID      uint64          `json:"trade_id"`
	Ticker       string          `json:"ticker"`
	Taker        string          `json:"taker"`
	Maker        string          `json:"maker"`
	MakerOrderID uint64          `json:"maker_order_id"`
	Side         Side            `json:"side"` // taker side
	Price        decimal.Decimal `json:"price"`
	Amount       decimal.Decimal `json:"amount"`
	Quote        decimal.Decimal `json:"quote"`
	CreatedAt    time.Time       `json:"created_at"`
}

// DepthItem is one aggregated price level of a book side.
type DepthItem struct {
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

// Depth is a point-in-time aggregated view of one ticker's book.
type Depth struct {
	UpdateID uint64       `json:"update_id"`
	Asks     []*DepthItem `json:"asks"`
	Bids     []*DepthItem `json:"bids"`
}

// DepthChange represents a change in the order book depth.
type DepthChange struct {
	Side     Side
	Price    decimal.Decimal
	SizeDiff decimal.Decimal
}
