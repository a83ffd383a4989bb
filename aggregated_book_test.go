package dex

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openLog(seqID uint64, side Side, price, size int64) *BookLog {
	return &BookLog{
		SequenceID: seqID,
		Type:       LogTypeOpen,
		Ticker:     "BAT",
		Side:       side,
		Price:      decimal.NewFromInt(price),
		Size:       decimal.NewFromInt(size),
	}
}

func matchLog(seqID uint64, takerSide Side, price, size int64) *BookLog {
	return &BookLog{
		SequenceID: seqID,
		Type:       LogTypeMatch,
		Ticker:     "BAT",
		Side:       takerSide,
		Price:      decimal.NewFromInt(price),
		Size:       decimal.NewFromInt(size),
	}
}

func TestAggregatedBookReplay(t *testing.T) {
	book := NewAggregatedBook()

	assert.NoError(t, book.Replay(openLog(1, Sell, 10, 5)))
	assert.NoError(t, book.Replay(openLog(2, Sell, 10, 3)))
	assert.NoError(t, book.Replay(openLog(3, Buy, 8, 4)))

	size, err := book.Depth(Sell, decimal.NewFromInt(10))
	assert.NoError(t, err)
	assert.Equal(t, "8", size.String())

	size, err = book.Depth(Buy, decimal.NewFromInt(8))
	assert.NoError(t, err)
	assert.Equal(t, "4", size.String())

	// A match removes size from the maker side (opposite of the taker side).
	assert.NoError(t, book.Replay(matchLog(4, Buy, 10, 6)))

	size, err = book.Depth(Sell, decimal.NewFromInt(10))
	assert.NoError(t, err)
	assert.Equal(t, "2", size.String())

	// Draining a level removes it.
	assert.NoError(t, book.Replay(matchLog(5, Buy, 10, 2)))
	size, err = book.Depth(Sell, decimal.NewFromInt(10))
	assert.NoError(t, err)
	assert.True(t, size.IsZero())

	assert.Equal(t, uint64(5), book.SequenceID())
}

func TestAggregatedBookDeduplication(t *testing.T) {
	book := NewAggregatedBook()

	require.NoError(t, book.Replay(openLog(1, Sell, 10, 5)))

	// Replaying an already applied event is a no-op.
	require.NoError(t, book.Replay(openLog(1, Sell, 10, 5)))

	size, err := book.Depth(Sell, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.Equal(t, "5", size.String())
	assert.Equal(t, uint64(1), book.SequenceID())
}

func TestAggregatedBookSequenceGap(t *testing.T) {
	book := NewAggregatedBook()

	require.NoError(t, book.Replay(openLog(1, Sell, 10, 5)))

	err := book.Replay(openLog(3, Sell, 11, 5))
	assert.ErrorIs(t, err, ErrSequenceGap)

	// The failed event must leave the book unchanged.
	size, err := book.Depth(Sell, decimal.NewFromInt(11))
	require.NoError(t, err)
	assert.True(t, size.IsZero())
	assert.Equal(t, uint64(1), book.SequenceID())
}

func TestAggregatedBookLevels(t *testing.T) {
	book := NewAggregatedBook()

	require.NoError(t, book.Replay(openLog(1, Buy, 8, 1)))
	require.NoError(t, book.Replay(openLog(2, Buy, 9, 2)))
	require.NoError(t, book.Replay(openLog(3, Buy, 7, 3)))
	require.NoError(t, book.Replay(openLog(4, Sell, 11, 4)))
	require.NoError(t, book.Replay(openLog(5, Sell, 10, 5)))

	bids := book.Levels(Buy, 2)
	require.Len(t, bids, 2)
	assert.Equal(t, "9", bids[0].Price.String())
	assert.Equal(t, "8", bids[1].Price.String())

	asks := book.Levels(Sell, 10)
	require.Len(t, asks, 2)
	assert.Equal(t, "10", asks[0].Price.String())
	assert.Equal(t, "11", asks[1].Price.String())
}

func TestAggregatedBookDepthInvalidSide(t *testing.T) {
	book := NewAggregatedBook()
	_, err := book.Depth(Side(9), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrInvalidParam)
}

// TestAggregatedBookMatchesLiveDepth rebuilds depth from the event stream and
// compares it to the exchange's own view.
func TestAggregatedBookMatchesLiveDepth(t *testing.T) {
	publisher := NewMemoryPublishLog()
	exchange := NewExchange("admin", WithPublisher(publisher))

	quote := newStubCustodian()
	base := newStubCustodian()
	require.NoError(t, exchange.RegisterAsset("admin", "DAI", quote))
	require.NoError(t, exchange.RegisterAsset("admin", "BAT", base))

	for _, trader := range []string{"alice", "bob"} {
		quote.fund(trader, decimal.NewFromInt(10000))
		base.fund(trader, decimal.NewFromInt(10000))
		require.NoError(t, exchange.Deposit(trader, "DAI", decimal.NewFromInt(10000)))
		require.NoError(t, exchange.Deposit(trader, "BAT", decimal.NewFromInt(10000)))
	}

	for i := int64(0); i < 10; i++ {
		_, err := exchange.CreateLimitOrder("alice", "BAT", decimal.NewFromInt(5), decimal.NewFromInt(10+i), Sell)
		require.NoError(t, err)
		_, err = exchange.CreateLimitOrder("bob", "BAT", decimal.NewFromInt(5), decimal.NewFromInt(9-(i%3)), Buy)
		require.NoError(t, err)
	}
	_, err := exchange.CreateMarketOrder("bob", "BAT", decimal.NewFromInt(12), Buy)
	require.NoError(t, err)
	_, err = exchange.CreateMarketOrder("alice", "BAT", decimal.NewFromInt(7), Sell)
	require.NoError(t, err)

	book := NewAggregatedBook()
	for _, log := range publisher.Logs() {
		require.NoError(t, book.Replay(log))
	}

	live, err := exchange.Depth("BAT", 100)
	require.NoError(t, err)
	assert.Equal(t, live.UpdateID, book.SequenceID())

	rebuiltAsks := book.Levels(Sell, 100)
	require.Equal(t, len(live.Asks), len(rebuiltAsks))
	for i, item := range live.Asks {
		assert.True(t, item.Price.Equal(rebuiltAsks[i].Price))
		assert.True(t, item.Size.Equal(rebuiltAsks[i].Size))
	}

	rebuiltBids := book.Levels(Buy, 100)
	require.Equal(t, len(live.Bids), len(rebuiltBids))
	for i, item := range live.Bids {
		assert.True(t, item.Price.Equal(rebuiltBids[i].Price))
		assert.True(t, item.Size.Equal(rebuiltBids[i].Size))
	}
}

func TestCalculateDepthChange(t *testing.T) {
	change := CalculateDepthChange(openLog(1, Buy, 10, 5))
	assert.Equal(t, Buy, change.Side)
	assert.Equal(t, "5", change.SizeDiff.String())

	change = CalculateDepthChange(matchLog(2, Buy, 10, 5))
	assert.Equal(t, Sell, change.Side)
	assert.Equal(t, "-5", change.SizeDiff.String())

	change = CalculateDepthChange(&BookLog{Type: LogType("unknown")})
	assert.True(t, change.SizeDiff.IsZero())
}
