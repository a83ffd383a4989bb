package token

import (
	"errors"
	"sync"
)

var ErrDuplicateTicker = errors.New("token: ticker already exists")

// Vault is a concurrency-safe collection of tokens keyed by ticker.
type Vault struct {
	mu     sync.RWMutex
	tokens map[string]*Token
}

// NewVault creates an empty vault.
func NewVault() *Vault {
	return &Vault{tokens: make(map[string]*Token)}
}

// Create mints a new token for the ticker and stores it.
func (v *Vault) Create(ticker string) (*Token, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.tokens[ticker]; ok {
		return nil, ErrDuplicateTicker
	}

	tok := New(ticker)
	v.tokens[ticker] = tok
	return tok, nil
}

// Get returns the token for the ticker, if any.
func (v *Vault) Get(ticker string) (*Token, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	tok, ok := v.tokens[ticker]
	return tok, ok
}

// Tickers returns the tickers of all stored tokens, in no particular order.
func (v *Vault) Tickers() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]string, 0, len(v.tokens))
	for ticker := range v.tokens {
		out = append(out, ticker)
	}
	return out
}
