package dex

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type nopCustodian struct{}

func (nopCustodian) TransferIn(string, decimal.Decimal) error  { return nil }
func (nopCustodian) TransferOut(string, decimal.Decimal) error { return nil }
func (nopCustodian) BalanceOf(string) decimal.Decimal          { return decimal.Zero }

func TestRegistryQuoteDesignation(t *testing.T) {
	r := newRegistry()
	assert.Equal(t, "", r.quoteTicker())

	assert.NoError(t, r.register("DAI", nopCustodian{}))
	assert.Equal(t, "DAI", r.quoteTicker())

	assert.NoError(t, r.register("BAT", nopCustodian{}))
	// The quote asset never changes after the first registration.
	assert.Equal(t, "DAI", r.quoteTicker())

	assert.True(t, r.exists("BAT"))
	assert.False(t, r.exists("ZRX"))

	_, ok := r.custodian("DAI")
	assert.True(t, ok)
}

func TestRegistryRejectsDuplicatesAndInvalid(t *testing.T) {
	r := newRegistry()

	assert.ErrorIs(t, r.register("", nopCustodian{}), ErrInvalidParam)
	assert.ErrorIs(t, r.register("DAI", nil), ErrInvalidParam)

	assert.NoError(t, r.register("DAI", nopCustodian{}))
	assert.ErrorIs(t, r.register("DAI", nopCustodian{}), ErrDuplicateAsset)
}

func TestRegistryTickersSorted(t *testing.T) {
	r := newRegistry()
	for _, ticker := range []string{"ZRX", "BAT", "DAI", "REP"} {
		assert.NoError(t, r.register(ticker, nopCustodian{}))
	}
	assert.Equal(t, []string{"BAT", "DAI", "REP", "ZRX"}, r.tickers())
}
