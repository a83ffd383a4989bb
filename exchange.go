package dex

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/shopspring/decimal"
)

// book holds both sides of one ticker's order book plus the per-ticker
// event counters. The BookLog sequence is per ticker so that downstream
// consumers can rebuild one ticker's depth without observing gaps.
type book struct {
	ticker   string
	bidQueue *queue
	askQueue *queue
	seqID    uint64
	tradeID  uint64
}

func newBook(ticker string) *book {
	return &book{
		ticker:   ticker,
		bidQueue: newBuyerQueue(),
		askQueue: newSellerQueue(),
	}
}

func (b *book) queue(side Side) *queue {
	if side == Buy {
		return b.bidQueue
	}
	return b.askQueue
}

func (b *book) nextSeqID() uint64 {
	b.seqID++
	return b.seqID
}

func (b *book) nextTradeID() uint64 {
	b.tradeID++
	return b.tradeID
}

// BookStats contains statistics about one ticker's book queues.
type BookStats struct {
	AskDepthCount int64 `json:"ask_depth_count"`
	AskOrderCount int64 `json:"ask_order_count"`
	BidDepthCount int64 `json:"bid_depth_count"`
	BidOrderCount int64 `json:"bid_order_count"`
}

// Exchange is the DEX core: asset registry, balance ledger, per-ticker order
// books and the matching engine over them. It is a single sequential state
// machine: every operation runs to completion under one lock, so no caller
// ever observes another operation's partial effects. Custodian transfers
// happen inside the critical section; a custodian that tried to reenter the
// exchange would deadlock rather than interleave.
type Exchange struct {
	mu          sync.RWMutex
	admin       string
	registry    *registry
	ledger      *ledger
	books       map[string]*book
	nextOrderID uint64
	publisher   PublishLog
}

// Option configures an Exchange.
type Option func(*Exchange)

// WithPublisher sets the publisher that receives BookLog events.
func WithPublisher(p PublishLog) Option {
	return func(e *Exchange) {
		e.publisher = p
	}
}

// NewExchange creates an exchange whose administrative operations are
// restricted to the given admin identity.
func NewExchange(admin string, opts ...Option) *Exchange {
	e := &Exchange{
		admin:     admin,
		registry:  newRegistry(),
		ledger:    newLedger(),
		books:     make(map[string]*book),
		publisher: NewDiscardPublishLog(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Admin returns the admin identity configured at construction.
func (e *Exchange) Admin() string {
	return e.admin
}

// RegisterAsset registers a ticker backed by the given custodian. The first
// registered ticker becomes the quote asset; every later ticker is tradable
// and priced against it. Only the admin may register assets, and a ticker can
// never be registered twice.
func (e *Exchange) RegisterAsset(caller, ticker string, custodian Custodian) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.admin {
		return ErrUnauthorized
	}

	if err := e.registry.register(ticker, custodian); err != nil {
		return err
	}

	if ticker != e.registry.quoteTicker() {
		e.books[ticker] = newBook(ticker)
	}

	logger.Info("asset registered", "ticker", ticker, "quote", ticker == e.registry.quoteTicker())
	return nil
}

// QuoteTicker returns the ticker of the quote asset, or "" before the first
// registration.
func (e *Exchange) QuoteTicker() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.quoteTicker()
}

// Assets returns the registered tickers in lexical order.
func (e *Exchange) Assets() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.tickers()
}

// Deposit moves amount of ticker from the trader's wallet into custody and
// credits the ledger. The custodian transfer happens first; the ledger is
// only mutated after it succeeds.
func (e *Exchange) Deposit(trader, ticker string, amount decimal.Decimal) error {
	if trader == "" || !amount.IsPositive() {
		return ErrInvalidParam
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	custodian, ok := e.registry.custodian(ticker)
	if !ok {
		return ErrUnknownAsset
	}

	if err := custodian.TransferIn(trader, amount); err != nil {
		return fmt.Errorf("custodian transfer-in failed: %w", err)
	}

	e.ledger.credit(trader, ticker, amount)
	return nil
}

// Withdraw debits the ledger and returns amount of ticker to the trader's
// wallet. The debit and the custodian transfer form one atomic unit: if the
// transfer fails, the debit is restored before returning.
func (e *Exchange) Withdraw(trader, ticker string, amount decimal.Decimal) error {
	if trader == "" || !amount.IsPositive() {
		return ErrInvalidParam
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	custodian, ok := e.registry.custodian(ticker)
	if !ok {
		return ErrUnknownAsset
	}

	if err := e.ledger.debit(trader, ticker, amount); err != nil {
		return err
	}

	if err := custodian.TransferOut(trader, amount); err != nil {
		e.ledger.credit(trader, ticker, amount)
		return fmt.Errorf("custodian transfer-out failed: %w", err)
	}

	return nil
}

// TraderBalance returns the trader's ledger balance for the ticker.
// Pure read; unknown combinations report zero.
func (e *Exchange) TraderBalance(trader, ticker string) decimal.Decimal {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.balance(trader, ticker)
}

// CreateLimitOrder rests a new limit order in the book and returns its ID.
// Limit orders never match at creation time: they only supply liquidity for
// later market orders. The balance checks inspect the ledger at call time
// only and reserve nothing, so several resting orders may rely on the same
// funds; the checks are re-run against real balances when a market order
// actually settles.
func (e *Exchange) CreateLimitOrder(trader, ticker string, amount, price decimal.Decimal, side Side) (uint64, error) {
	if trader == "" || !amount.IsPositive() || !price.IsPositive() || (side != Buy && side != Sell) {
		return 0, ErrInvalidParam
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkTradableAsset(ticker); err != nil {
		return 0, err
	}

	quote := e.registry.quoteTicker()
	if side == Sell {
		if e.ledger.balance(trader, ticker).LessThan(amount) {
			return 0, ErrInsufficientBalance
		}
	} else {
		if e.ledger.balance(trader, quote).LessThan(amount.Mul(price)) {
			return 0, ErrInsufficientQuoteBalance
		}
	}

	e.nextOrderID++
	order := &Order{
		ID:        e.nextOrderID,
		Trader:    trader,
		Ticker:    ticker,
		Side:      side,
		Price:     price,
		Amount:    amount,
		Filled:    decimal.Zero,
		Timestamp: time.Now().UnixNano(),
	}

	b := e.books[ticker]
	b.queue(side).insertOrder(order)

	log := newOpenLog(b.nextSeqID(), order, time.Now().UTC())
	e.publisher.Publish(log)
	releaseBookLog(log)

	return order.ID, nil
}

// plannedFill is one prospective trade computed by the dry-run pass of a
// market order. Nothing is mutated until the whole plan validates.
type plannedFill struct {
	maker  *Order
	amount decimal.Decimal
	quote  decimal.Decimal
}

// CreateMarketOrder fills amount of ticker against the opposite side of the
// book and returns the resulting fills. Execution is all-or-nothing: the
// plan is computed and fully validated first, and either every fill settles
// or the call returns an error with zero observable effect. The unfilled
// remainder of a market order is dropped; market orders never rest.
func (e *Exchange) CreateMarketOrder(trader, ticker string, amount decimal.Decimal, side Side) ([]*Fill, error) {
	if trader == "" || !amount.IsPositive() || (side != Buy && side != Sell) {
		return nil, ErrInvalidParam
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkTradableAsset(ticker); err != nil {
		return nil, err
	}

	quote := e.registry.quoteTicker()
	if side == Sell && e.ledger.balance(trader, ticker).LessThan(amount) {
		return nil, ErrInsufficientBalance
	}

	b := e.books[ticker]

	// Dry run: walk the opposite side in priority order and record every
	// fill that would occur. Trades settle at the resting order's price.
	planned := make([]*plannedFill, 0, 8)
	totalQuote := decimal.Zero
	remaining := amount

	b.queue(side.Opposite()).scanAvailable(func(maker *Order) bool {
		matched := decimal.Min(maker.Available(), remaining)
		quoteAmount := matched.Mul(maker.Price)

		planned = append(planned, &plannedFill{
			maker:  maker,
			amount: matched,
			quote:  quoteAmount,
		})
		totalQuote = totalQuote.Add(quoteAmount)
		remaining = remaining.Sub(matched)

		return remaining.IsPositive()
	})

	if side == Buy && e.ledger.balance(trader, quote).LessThan(totalQuote) {
		return nil, ErrInsufficientQuoteBalance
	}

	// Placement-time balance checks reserve nothing, so a maker may no
	// longer be able to honor a resting order. Project every party's final
	// balance and abort before committing anything if one would go negative.
	deltas := make(map[balanceKey]decimal.Decimal)
	addDelta := func(party, asset string, diff decimal.Decimal) {
		key := balanceKey{trader: party, ticker: asset}
		deltas[key] = deltas[key].Add(diff)
	}

	for _, pf := range planned {
		if side == Sell {
			// Taker sells the asset; the maker of a resting buy order pays quote.
			addDelta(trader, ticker, pf.amount.Neg())
			addDelta(trader, quote, pf.quote)
			addDelta(pf.maker.Trader, ticker, pf.amount)
			addDelta(pf.maker.Trader, quote, pf.quote.Neg())
		} else {
			// Taker buys the asset; the maker of a resting sell order delivers it.
			addDelta(trader, quote, pf.quote.Neg())
			addDelta(trader, ticker, pf.amount)
			addDelta(pf.maker.Trader, quote, pf.quote)
			addDelta(pf.maker.Trader, ticker, pf.amount.Neg())
		}
	}

	for key, diff := range deltas {
		if e.ledger.balance(key.trader, key.ticker).Add(diff).IsNegative() {
			if key.ticker == quote {
				return nil, ErrInsufficientQuoteBalance
			}
			return nil, ErrInsufficientBalance
		}
	}

	// Commit. No step below can fail.
	now := time.Now().UTC()
	oppQueue := b.queue(side.Opposite())
	fills := make([]*Fill, 0, len(planned))
	logs := make([]*BookLog, 0, len(planned))

	for _, pf := range planned {
		pf.maker.Filled = pf.maker.Filled.Add(pf.amount)
		oppQueue.onFill(pf.maker, pf.amount)

		fill := &Fill{
			ID:           xid.New().String(),
			TradeID:      b.nextTradeID(),
			Ticker:       ticker,
			Taker:        trader,
			Maker:        pf.maker.Trader,
			MakerOrderID: pf.maker.ID,
			Side:         side,
			Price:        pf.maker.Price,
			Amount:       pf.amount,
			Quote:        pf.quote,
			CreatedAt:    now,
		}
		fills = append(fills, fill)
		logs = append(logs, newMatchLog(b.nextSeqID(), fill))
	}

	for key, diff := range deltas {
		e.ledger.balances[key] = e.ledger.balances[key].Add(diff)
	}

	if len(logs) > 0 {
		e.publisher.Publish(logs...)
		for _, log := range logs {
			releaseBookLog(log)
		}
	}

	return fills, nil
}

// GetOrders returns every order ever created for (ticker, side) in priority
// order: best price first, earlier orders first at equal prices. Fully
// filled orders are included. Pure read; the returned orders are copies.
func (e *Exchange) GetOrders(ticker string, side Side) ([]Order, error) {
	if side != Buy && side != Sell {
		return nil, ErrInvalidParam
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.registry.exists(ticker) {
		return nil, ErrUnknownAsset
	}

	b, ok := e.books[ticker]
	if !ok {
		// The quote asset has no book.
		return []Order{}, nil
	}

	orders := b.queue(side).orders()
	out := make([]Order, 0, len(orders))
	for _, order := range orders {
		cpy := *order
		cpy.next = nil
		cpy.prev = nil
		out = append(out, cpy)
	}
	return out, nil
}

// Depth returns the aggregated unfilled size of the best price levels of the
// ticker's book, up to the specified limit per side.
func (e *Exchange) Depth(ticker string, limit uint32) (*Depth, error) {
	if limit == 0 {
		return nil, ErrInvalidParam
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.registry.exists(ticker) {
		return nil, ErrUnknownAsset
	}

	b, ok := e.books[ticker]
	if !ok {
		return &Depth{}, nil
	}

	return &Depth{
		UpdateID: b.seqID,
		Asks:     b.askQueue.depth(limit),
		Bids:     b.bidQueue.depth(limit),
	}, nil
}

// Stats returns usage statistics for the ticker's book queues.
func (e *Exchange) Stats(ticker string) (*BookStats, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	b, ok := e.books[ticker]
	if !ok {
		return nil, ErrUnknownAsset
	}

	return &BookStats{
		AskDepthCount: b.askQueue.depthCount(),
		AskOrderCount: b.askQueue.orderCount(),
		BidDepthCount: b.bidQueue.depthCount(),
		BidOrderCount: b.bidQueue.orderCount(),
	}, nil
}

// checkTradableAsset verifies the ticker is registered and is not the quote
// asset. Callers must hold the lock.
func (e *Exchange) checkTradableAsset(ticker string) error {
	if !e.registry.exists(ticker) {
		return ErrUnknownAsset
	}
	if ticker == e.registry.quoteTicker() {
		return ErrForbiddenAsset
	}
	return nil
}
