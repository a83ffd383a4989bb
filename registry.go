package dex

import "sort"

// registry maps ticker symbols to their custodians and designates the quote
// asset. It is not safe for concurrent use on its own; the Exchange guards
// it with its state lock, the same way the book queues are guarded.
type registry struct {
	custodians map[string]Custodian
	quote      string
}

func newRegistry() *registry {
	return &registry{
		custodians: make(map[string]Custodian),
	}
}

// register adds a ticker. The first registered ticker becomes the quote
// asset. Re-registering a ticker fails with ErrDuplicateAsset; assets are
// never overwritten or removed.
func (r *registry) register(ticker string, custodian Custodian) error {
	if ticker == "" || custodian == nil {
		return ErrInvalidParam
	}

	if _, exists := r.custodians[ticker]; exists {
		return ErrDuplicateAsset
	}

	r.custodians[ticker] = custodian
	if r.quote == "" {
		r.quote = ticker
	}
	return nil
}

func (r *registry) custodian(ticker string) (Custodian, bool) {
	c, ok := r.custodians[ticker]
	return c, ok
}

func (r *registry) exists(ticker string) bool {
	_, ok := r.custodians[ticker]
	return ok
}

func (r *registry) quoteTicker() string {
	return r.quote
}

func (r *registry) tickers() []string {
	out := make([]string, 0, len(r.custodians))
	for ticker := range r.custodians {
		out = append(out, ticker)
	}
	sort.Strings(out)
	return out
}
