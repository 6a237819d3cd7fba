/*
Contract storage model.

# Summary
Key-value storage format:
  - 's' -> std.Serialize(Config)
    administrator and approved asset, written once at initialization
  - 'v' -> std.Serialize([name, version])
    contract name and numeric version, written once at initialization
  - w<interop.Hash160> -> int
    withdrawable balance of the recipient

# Accounting
Absent balance key is equal to zero balance. Keys are never deleted.
*/
package splitterconst

const (
	// ConfigKey is a storage key of the ledger configuration.
	ConfigKey = 's'
	// VersionKey is a storage key of the contract version info.
	VersionKey = 'v'
	// BalancePrefix is a storage key prefix of withdrawable balances.
	BalancePrefix = 'w'
)

// Notification names.
const (
	InitializeEvent    = "Initialize"
	CreditEvent        = "Credit"
	SendCoinsEvent     = "SendCoins"
	WithdrawCoinsEvent = "WithdrawCoins"
)

// MaxAmountBits limits amounts and balances to unsigned 128-bit integers.
const MaxAmountBits = 128
