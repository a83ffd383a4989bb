package dex

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type LogType string

const (
	LogTypeOpen  LogType = "open"
	LogTypeMatch LogType = "match"
)

// BookLog represents an event in one ticker's order book.
// SequenceID increases by one for every event of the ticker, used for
// ordering, deduplication, and rebuild synchronization in downstream
// consumers such as AggregatedBook.
// - Open: a limit order entered the book.
// - Match: a market order consumed size from a resting order. Side is the
//   taker's side; the maker's side is the opposite.
type BookLog struct {
	SequenceID   uint64          `json:"seq_id"`
	TradeID      uint64          `json:"trade_id,omitempty"` // Sequential trade ID, only set for Match events
	Type         LogType         `json:"type"`
	Ticker       string          `json:"ticker"`
	Side         Side            `json:"side"`
	Price        decimal.Decimal `json:"price"`
	Size         decimal.Decimal `json:"size"`
	Amount       decimal.Decimal `json:"amount,omitempty"` // Price * Size, only set for Match events
	OrderID      uint64          `json:"order_id"`
	Trader       string          `json:"trader"`
	MakerOrderID uint64          `json:"maker_order_id,omitempty"`
	MakerTrader  string          `json:"maker_trader,omitempty"`
	FillID       string          `json:"fill_id,omitempty"` // only set for Match events
	CreatedAt    time.Time       `json:"created_at"`
}

var bookLogPool = sync.Pool{
	New: func() any {
		return new(BookLog)
	},
}

func acquireBookLog() *BookLog {
	return bookLogPool.Get().(*BookLog)
}

func releaseBookLog(log *BookLog) {
	// Reset structure to zero values.
	// For decimal.Decimal, the zero value (nil internal pointer) represents 0, which is valid.
	*log = BookLog{}
	bookLogPool.Put(log)
}

func newOpenLog(seqID uint64, order *Order, now time.Time) *BookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.Type = LogTypeOpen
	log.Ticker = order.Ticker
	log.Side = order.Side
	log.Price = order.Price
	log.Size = order.Amount
	log.OrderID = order.ID
	log.Trader = order.Trader
	log.CreatedAt = now
	return log
}

func newMatchLog(seqID uint64, fill *Fill) *BookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.TradeID = fill.TradeID
	log.Type = LogTypeMatch
	log.Ticker = fill.Ticker
	log.Side = fill.Side
	log.Price = fill.Price
	log.Size = fill.Amount
	log.Amount = fill.Quote
	log.Trader = fill.Taker
	log.MakerOrderID = fill.MakerOrderID
	log.MakerTrader = fill.Maker
	log.FillID = fill.ID
	log.CreatedAt = fill.CreatedAt
	return log
}
