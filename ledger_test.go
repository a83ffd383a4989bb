package dex

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLedgerCreditDebit(t *testing.T) {
	l := newLedger()

	assert.True(t, l.balance("alice", "BAT").IsZero())

	l.credit("alice", "BAT", decimal.NewFromInt(100))
	assert.Equal(t, "100", l.balance("alice", "BAT").String())

	err := l.debit("alice", "BAT", decimal.NewFromInt(40))
	assert.NoError(t, err)
	assert.Equal(t, "60", l.balance("alice", "BAT").String())

	// Balances are per (trader, ticker).
	assert.True(t, l.balance("alice", "DAI").IsZero())
	assert.True(t, l.balance("bob", "BAT").IsZero())
}

func TestLedgerDebitInsufficient(t *testing.T) {
	l := newLedger()
	l.credit("alice", "BAT", decimal.NewFromInt(10))

	err := l.debit("alice", "BAT", decimal.NewFromInt(11))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, "10", l.balance("alice", "BAT").String())

	err = l.debit("bob", "BAT", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}
