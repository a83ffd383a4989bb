package dex

import (
	"github.com/huandu/skiplist"
	"github.com/shopspring/decimal"
)

// priceUnit is one price level: an intrusive FIFO linked list of every order
// ever placed at this price, plus the aggregated unfilled size. Fully filled
// orders stay in the list (append-only book) and only availableSize shrinks.
type priceUnit struct {
	price         decimal.Decimal
	availableSize decimal.Decimal
	head          *Order
	tail          *Order
	count         int64
}

// queue holds one side of a ticker's order book. Price levels live in a
// skiplist ordered best-price-first; orders within a level keep creation
// order (earlier orders first). Levels are never removed, so a full walk
// yields every order ever created for the side in priority order.
// Not safe for concurrent use; guarded by the Exchange state lock.
type queue struct {
	side        Side
	totalOrders int64
	depths      int64 // price levels with unfilled size
	depthList   *skiplist.SkipList
	priceList   map[string]*skiplist.Element // keyed by Price.String(); decimal is not map-comparable
}

// newBuyerQueue creates a queue for buy orders (bids).
// The price levels are sorted in descending order (highest price first).
func newBuyerQueue() *queue {
	return &queue{
		side: Buy,
		depthList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			d1, _ := lhs.(decimal.Decimal)
			d2, _ := rhs.(decimal.Decimal)

			if d1.LessThan(d2) {
				return 1
			} else if d1.GreaterThan(d2) {
				return -1
			}

			return 0
		})),
		priceList: make(map[string]*skiplist.Element),
	}
}

// newSellerQueue creates a queue for sell orders (asks).
// The price levels are sorted in ascending order (lowest price first).
func newSellerQueue() *queue {
	return &queue{
		side: Sell,
		depthList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			d1, _ := lhs.(decimal.Decimal)
			d2, _ := rhs.(decimal.Decimal)

			if d1.GreaterThan(d2) {
				return 1
			} else if d1.LessThan(d2) {
				return -1
			}

			return 0
		})),
		priceList: make(map[string]*skiplist.Element),
	}
}

// insertOrder appends the order to the back of its price level, creating the
// level if needed. Insertion position is the only thing that establishes
// priority; orders are never re-ordered afterwards.
func (q *queue) insertOrder(order *Order) {
	key := order.Price.String()

	el, ok := q.priceList[key]
	if ok {
		unit, _ := el.Value.(*priceUnit)

		order.prev = unit.tail
		order.next = nil
		if unit.tail != nil {
			unit.tail.next = order
		}
		unit.tail = order
		if unit.head == nil {
			unit.head = order
		}

		if unit.availableSize.IsZero() {
			q.depths++
		}
		unit.availableSize = unit.availableSize.Add(order.Available())
		unit.count++
	} else {
		unit := &priceUnit{
			price:         order.Price,
			availableSize: order.Available(),
			head:          order,
			tail:          order,
			count:         1,
		}
		order.next = nil
		order.prev = nil

		el := q.depthList.Set(order.Price, unit)
		q.priceList[key] = el
		q.depths++
	}

	q.totalOrders++
}

// onFill adjusts level accounting after the order's Filled counter has been
// incremented by matched. The order itself stays in place.
func (q *queue) onFill(order *Order, matched decimal.Decimal) {
	el, ok := q.priceList[order.Price.String()]
	if !ok {
		return
	}
	unit, _ := el.Value.(*priceUnit)

	unit.availableSize = unit.availableSize.Sub(matched)
	if unit.availableSize.IsZero() {
		q.depths--
	}
}

// scan walks every order (filled ones included) in priority order.
// Returning false from fn stops the walk.
func (q *queue) scan(fn func(*Order) bool) {
	for el := q.depthList.Front(); el != nil; el = el.Next() {
		unit, _ := el.Value.(*priceUnit)
		for order := unit.head; order != nil; order = order.next {
			if !fn(order) {
				return
			}
		}
	}
}

// scanAvailable walks only orders with an unfilled remainder, in priority
// order, skipping exhausted price levels entirely.
func (q *queue) scanAvailable(fn func(*Order) bool) {
	for el := q.depthList.Front(); el != nil; el = el.Next() {
		unit, _ := el.Value.(*priceUnit)
		if unit.availableSize.IsZero() {
			continue
		}
		for order := unit.head; order != nil; order = order.next {
			if order.Available().IsZero() {
				continue
			}
			if !fn(order) {
				return
			}
		}
	}
}

// orders returns every order on this side in priority order.
func (q *queue) orders() []*Order {
	result := make([]*Order, 0, q.totalOrders)
	q.scan(func(order *Order) bool {
		result = append(result, order)
		return true
	})
	return result
}

// depth returns the aggregated unfilled size of the best price levels, up to
// the specified limit. Exhausted levels are skipped.
func (q *queue) depth(limit uint32) []*DepthItem {
	result := make([]*DepthItem, 0, limit)

	for el := q.depthList.Front(); el != nil && uint32(len(result)) < limit; el = el.Next() {
		unit, _ := el.Value.(*priceUnit)
		if unit.availableSize.IsZero() {
			continue
		}
		result = append(result, &DepthItem{
			Price: unit.price,
			Size:  unit.availableSize,
		})
	}

	return result
}

// orderCount returns the total number of orders ever placed on this side.
func (q *queue) orderCount() int64 {
	return q.totalOrders
}

// depthCount returns the number of price levels with unfilled size.
func (q *queue) depthCount() int64 {
	return q.depths
}
