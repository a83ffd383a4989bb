package dex

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func limitOrder(id uint64, side Side, price, amount int64) *Order {
	return &Order{
		ID:     id,
		Side:   side,
		Price:  decimal.NewFromInt(price),
		Amount: decimal.NewFromInt(amount),
	}
}

func TestBuyerQueueOrdering(t *testing.T) {
	q := newBuyerQueue()

	q.insertOrder(limitOrder(101, Buy, 10, 1))
	q.insertOrder(limitOrder(201, Buy, 20, 10))
	q.insertOrder(limitOrder(301, Buy, 30, 10))
	q.insertOrder(limitOrder(202, Buy, 20, 100))

	assert.Equal(t, int64(4), q.orderCount())
	assert.Equal(t, int64(3), q.depthCount())

	orders := q.orders()
	ids := make([]uint64, 0, len(orders))
	for _, order := range orders {
		ids = append(ids, order.ID)
	}

	// Highest price first, FIFO within the same price.
	assert.Equal(t, []uint64{301, 201, 202, 101}, ids)
}

func TestSellerQueueOrdering(t *testing.T) {
	q := newSellerQueue()

	q.insertOrder(limitOrder(101, Sell, 10, 1))
	q.insertOrder(limitOrder(201, Sell, 20, 10))
	q.insertOrder(limitOrder(301, Sell, 30, 10))
	q.insertOrder(limitOrder(202, Sell, 20, 100))

	orders := q.orders()
	ids := make([]uint64, 0, len(orders))
	for _, order := range orders {
		ids = append(ids, order.ID)
	}

	// Lowest price first, FIFO within the same price.
	assert.Equal(t, []uint64{101, 201, 202, 301}, ids)
}

func TestQueueOnFill(t *testing.T) {
	q := newSellerQueue()

	first := limitOrder(1, Sell, 10, 5)
	second := limitOrder(2, Sell, 10, 5)
	q.insertOrder(first)
	q.insertOrder(second)
	q.insertOrder(limitOrder(3, Sell, 12, 7))

	assert.Equal(t, int64(2), q.depthCount())

	// Fully fill the first order at 10.
	first.Filled = decimal.NewFromInt(5)
	q.onFill(first, decimal.NewFromInt(5))

	depth := q.depth(10)
	assert.Len(t, depth, 2)
	assert.Equal(t, "10", depth[0].Price.String())
	assert.Equal(t, "5", depth[0].Size.String())

	// scanAvailable must skip the exhausted order but keep the level.
	var available []uint64
	q.scanAvailable(func(order *Order) bool {
		available = append(available, order.ID)
		return true
	})
	assert.Equal(t, []uint64{2, 3}, available)

	// Exhaust the level entirely.
	second.Filled = decimal.NewFromInt(5)
	q.onFill(second, decimal.NewFromInt(5))

	assert.Equal(t, int64(1), q.depthCount())

	depth = q.depth(10)
	assert.Len(t, depth, 1)
	assert.Equal(t, "12", depth[0].Price.String())

	// Filled orders stay in the book.
	assert.Equal(t, int64(3), q.orderCount())
	assert.Len(t, q.orders(), 3)
}

func TestQueueDepthLimit(t *testing.T) {
	q := newBuyerQueue()
	for i := int64(1); i <= 5; i++ {
		q.insertOrder(limitOrder(uint64(i), Buy, i*10, 1))
	}

	depth := q.depth(3)
	assert.Len(t, depth, 3)
	assert.Equal(t, "50", depth[0].Price.String())
	assert.Equal(t, "40", depth[1].Price.String())
	assert.Equal(t, "30", depth[2].Price.String())
}

func TestQueueReusedPriceLevel(t *testing.T) {
	q := newSellerQueue()

	order := limitOrder(1, Sell, 10, 4)
	q.insertOrder(order)

	order.Filled = decimal.NewFromInt(4)
	q.onFill(order, decimal.NewFromInt(4))
	assert.Equal(t, int64(0), q.depthCount())

	// A new order at the same price revives the level.
	q.insertOrder(limitOrder(2, Sell, 10, 3))
	assert.Equal(t, int64(1), q.depthCount())

	depth := q.depth(10)
	assert.Len(t, depth, 1)
	assert.Equal(t, "3", depth[0].Size.String())
}
