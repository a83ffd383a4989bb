package dex

import "github.com/shopspring/decimal"

type balanceKey struct {
	trader string
	ticker string
}

// ledger tracks the available amount per (trader, ticker). Entries are
// created implicitly at zero and never destroyed. Balances are never
// negative: every debit is preceded by a covering-balance check.
// Guarded by the Exchange state lock.
type ledger struct {
	balances map[balanceKey]decimal.Decimal
}

func newLedger() *ledger {
	return &ledger{
		balances: make(map[balanceKey]decimal.Decimal),
	}
}

func (l *ledger) balance(trader, ticker string) decimal.Decimal {
	return l.balances[balanceKey{trader: trader, ticker: ticker}]
}

func (l *ledger) credit(trader, ticker string, amount decimal.Decimal) {
	key := balanceKey{trader: trader, ticker: ticker}
	l.balances[key] = l.balances[key].Add(amount)
}

// debit decreases the balance, failing with ErrInsufficientBalance when the
// current balance does not cover the amount.
func (l *ledger) debit(trader, ticker string, amount decimal.Decimal) error {
	key := balanceKey{trader: trader, ticker: ticker}
	current := l.balances[key]
	if current.LessThan(amount) {
		return ErrInsufficientBalance
	}
	l.balances[key] = current.Sub(amount)
	return nil
}
