package server

import (
	"log/slog"
	"sync"

	dex "github.com/traderoom/dexcore"
)

// Feed implements dex.PublishLog. It clones every BookLog (the exchange
// recycles them after Publish returns), keeps a per-ticker AggregatedBook up
// to date, and fans the events out to WebSocket subscribers through the hub.
type Feed struct {
	mu    sync.RWMutex
	books map[string]*dex.AggregatedBook
	hub   *hub[*dex.BookLog]
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{
		books: make(map[string]*dex.AggregatedBook),
		hub:   newHub[*dex.BookLog](),
	}
}

// Publish satisfies dex.PublishLog.
func (f *Feed) Publish(logs ...*dex.BookLog) {
	for _, log := range logs {
		cpy := new(dex.BookLog)
		*cpy = *log

		if err := f.book(cpy.Ticker).Replay(cpy); err != nil {
			slog.Warn("depth replay failed", "ticker", cpy.Ticker, "seq_id", cpy.SequenceID, "error", err)
		}

		f.hub.Broadcast(cpy)
	}
}

// Book returns the aggregated depth view for the ticker.
func (f *Feed) Book(ticker string) *dex.AggregatedBook {
	return f.book(ticker)
}

// Subscribe registers a new event subscriber with the given channel buffer.
func (f *Feed) Subscribe(buffer int) *subscription[*dex.BookLog] {
	return f.hub.Subscribe(buffer)
}

// Unsubscribe removes the subscriber and closes its channel.
func (f *Feed) Unsubscribe(sub *subscription[*dex.BookLog]) {
	f.hub.Unsubscribe(sub)
}

func (f *Feed) book(ticker string) *dex.AggregatedBook {
	f.mu.RLock()
	book, ok := f.books[ticker]
	f.mu.RUnlock()
	if ok {
		return book
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if book, ok = f.books[ticker]; ok {
		return book
	}
	book = dex.NewAggregatedBook()
	f.books[ticker] = book
	return book
}
