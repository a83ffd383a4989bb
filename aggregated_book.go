package dex

import (
	"sync"

	"github.com/igrmk/treemap/v2"
	"github.com/shopspring/decimal"
)

// AggregatedBook maintains a simplified view of one ticker's order book,
// tracking only price levels and their aggregated unfilled sizes (depth).
// It is designed for downstream consumers that rebuild book state from
// BookLog events received off the publisher, without access to the live
// Exchange state.
type AggregatedBook struct {
	mu    sync.RWMutex
	seqID uint64 // Last applied SequenceID for gap detection and deduplication
	ask   *treemap.TreeMap[decimal.Decimal, decimal.Decimal]
	bid   *treemap.TreeMap[decimal.Decimal, decimal.Decimal]
}

// NewAggregatedBook creates a new AggregatedBook instance with empty ask and bid sides.
func NewAggregatedBook() *AggregatedBook {
	return &AggregatedBook{
		ask: treemap.NewWithKeyCompare[decimal.Decimal, decimal.Decimal](func(a, b decimal.Decimal) bool {
			return a.LessThan(b)
		}),
		bid: treemap.NewWithKeyCompare[decimal.Decimal, decimal.Decimal](func(a, b decimal.Decimal) bool {
			return a.LessThan(b)
		}),
	}
}

// SequenceID returns the last applied sequence ID.
// Used for synchronization and gap detection during rebuild.
func (ab *AggregatedBook) SequenceID() uint64 {
	ab.mu.RLock()
	defer ab.mu.RUnlock()
	return ab.seqID
}

// Replay applies a BookLog event to update the aggregated book state.
// Events at or below the last applied sequence ID are dropped as duplicates;
// a jump past the next expected ID fails with ErrSequenceGap and leaves the
// book unchanged, signalling that the consumer must rebuild.
func (ab *AggregatedBook) Replay(log *BookLog) error {
	ab.mu.Lock()
	defer ab.mu.Unlock()

	if ab.seqID != 0 {
		if log.SequenceID <= ab.seqID {
			return nil
		}
		if log.SequenceID != ab.seqID+1 {
			return ErrSequenceGap
		}
	}

	change := CalculateDepthChange(log)
	if !change.SizeDiff.IsZero() {
		side := ab.bid
		if change.Side == Sell {
			side = ab.ask
		}

		current, _ := side.Get(change.Price)
		next := current.Add(change.SizeDiff)
		if next.IsPositive() {
			side.Set(change.Price, next)
		} else {
			side.Del(change.Price)
		}
	}

	ab.seqID = log.SequenceID
	return nil
}

// Depth returns the aggregated size at a specific price level for the given side.
// Returns zero if the price level does not exist.
func (ab *AggregatedBook) Depth(side Side, price decimal.Decimal) (decimal.Decimal, error) {
	if side != Buy && side != Sell {
		return decimal.Zero, ErrInvalidParam
	}

	ab.mu.RLock()
	defer ab.mu.RUnlock()

	m := ab.bid
	if side == Sell {
		m = ab.ask
	}

	size, _ := m.Get(price)
	return size, nil
}

// Levels returns the best price levels of the given side, best price first,
// up to the specified limit.
func (ab *AggregatedBook) Levels(side Side, limit int) []*DepthItem {
	ab.mu.RLock()
	defer ab.mu.RUnlock()

	result := make([]*DepthItem, 0, limit)

	if side == Buy {
		// Bids are keyed ascending; walk backwards for best-price-first.
		for it := ab.bid.Reverse(); it.Valid() && len(result) < limit; it.Next() {
			result = append(result, &DepthItem{Price: it.Key(), Size: it.Value()})
		}
	} else {
		for it := ab.ask.Iterator(); it.Valid() && len(result) < limit; it.Next() {
			result = append(result, &DepthItem{Price: it.Key(), Size: it.Value()})
		}
	}

	return result
}
