// Package token provides in-memory asset custodians for the exchange core.
// A Token models the wallet ledger of one asset: traders hold wallet
// balances, and the exchange moves value between wallets and custody through
// the Custodian capability. The exchange ledger stays authoritative for
// trading; the token only accounts for what is in custody.
package token

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount       = errors.New("token: amount must be positive")
	ErrInsufficientFunds   = errors.New("token: insufficient wallet balance")
	ErrInsufficientCustody = errors.New("token: insufficient custody balance")
)

// Token is an in-memory asset custodian. It implements dex.Custodian.
type Token struct {
	mu      sync.RWMutex
	ticker  string
	wallets map[string]decimal.Decimal
	custody decimal.Decimal
}

// New creates a token with the given ticker and no supply.
func New(ticker string) *Token {
	return &Token{
		ticker:  ticker,
		wallets: make(map[string]decimal.Decimal),
	}
}

// Ticker returns the token's ticker symbol.
func (t *Token) Ticker() string {
	return t.ticker
}

// Faucet mints amount into the trader's wallet.
func (t *Token) Faucet(trader string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.wallets[trader] = t.wallets[trader].Add(amount)
	return nil
}

// TransferIn moves amount from the trader's wallet into custody.
func (t *Token) TransferIn(trader string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	balance := t.wallets[trader]
	if balance.LessThan(amount) {
		return ErrInsufficientFunds
	}

	t.wallets[trader] = balance.Sub(amount)
	t.custody = t.custody.Add(amount)
	return nil
}

// TransferOut returns amount from custody to the trader's wallet.
func (t *Token) TransferOut(trader string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.custody.LessThan(amount) {
		return ErrInsufficientCustody
	}

	t.custody = t.custody.Sub(amount)
	t.wallets[trader] = t.wallets[trader].Add(amount)
	return nil
}

// BalanceOf reports the trader's wallet balance.
func (t *Token) BalanceOf(trader string) decimal.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.wallets[trader]
}

// CustodyBalance reports the total amount held in custody.
func (t *Token) CustodyBalance() decimal.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.custody
}
