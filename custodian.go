package dex

import "github.com/shopspring/decimal"

// Custodian is the external asset-transfer capability backing a registered
// ticker. The ledger is authoritative for trading balances; the custodian
// only moves value in and out of custody. Calls are synchronous and any
// non-nil error aborts the enclosing operation with no ledger mutation
// retained.
type Custodian interface {
	// TransferIn moves amount from the trader's wallet into exchange custody.
	TransferIn(trader string, amount decimal.Decimal) error

	// TransferOut returns amount from exchange custody to the trader's wallet.
	TransferOut(trader string, amount decimal.Decimal) error

	// BalanceOf reports the trader's wallet balance. Diagnostics only.
	BalanceOf(trader string) decimal.Decimal
}
