package transfer

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/splitter-contract/identity"
)

var (
	// ErrInvalidAmount is returned for negative transfer amounts.
	ErrInvalidAmount = errors.New("invalid transfer amount")
	// ErrUnknownAsset is returned for assets the primitive is not allowed to move.
	ErrUnknownAsset = errors.New("unknown asset")
	// ErrInsufficientFunds is returned when the sender does not have enough
	// external balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Error describes transfer that could not be made.
type Error struct {
	From, To, Asset identity.Identity
	Amount          *big.Int
	Err             error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transfer %s of %s from %s to %s: %v", e.Amount, e.Asset, e.From, e.To, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Instruction is a deferred NEP-17 transfer to be executed by the host.
type Instruction struct {
	ID     uuid.UUID         `json:"id"`
	Asset  identity.Identity `json:"asset"`
	From   identity.Identity `json:"from"`
	To     identity.Identity `json:"to"`
	Amount *big.Int          `json:"amount"`
	Data   []byte            `json:"data,omitempty"`
}

// Script returns NeoVM script calling `transfer` method of the asset contract
// and asserting its result.
func (x Instruction) Script() ([]byte, error) {
	return smartcontract.CreateCallWithAssertScript(x.Asset.ScriptHash(), "transfer",
		x.From.ScriptHash(), x.To.ScriptHash(), x.Amount, x.Data)
}

// Transferer is the asset-transfer primitive.
type Transferer interface {
	// Transfer returns Instruction moving amount of asset from one account to
	// another. Refusals are returned as *Error.
	Transfer(from, to, asset identity.Identity, amount *big.Int, data []byte) (Instruction, error)
}

// BalanceReader provides external balances of NEP-17 assets.
type BalanceReader interface {
	BalanceOf(asset, account util.Uint160) (*big.Int, error)
}

// NEP17 is a Transferer producing NEP-17 transfer instructions. Zero value
// accepts any asset and does not look at external balances.
type NEP17 struct {
	// Assets the primitive is allowed to move. Empty list allows any asset.
	Assets []util.Uint160

	// Optional source of external balances. If set, transfers exceeding the
	// sender's balance are refused.
	Balances BalanceReader
}

// Transfer implements Transferer.
func (x NEP17) Transfer(from, to, asset identity.Identity, amount *big.Int, data []byte) (Instruction, error) {
	fail := func(err error) (Instruction, error) {
		return Instruction{}, &Error{From: from, To: to, Asset: asset, Amount: amount, Err: err}
	}

	if amount == nil || amount.Sign() < 0 {
		return fail(ErrInvalidAmount)
	}

	if !x.knownAsset(asset.ScriptHash()) {
		return fail(ErrUnknownAsset)
	}

	if x.Balances != nil {
		bal, err := x.Balances.BalanceOf(asset.ScriptHash(), from.ScriptHash())
		if err != nil {
			return fail(fmt.Errorf("get balance of the sender: %w", err))
		}

		if bal.Cmp(amount) < 0 {
			return fail(fmt.Errorf("%w: %s < %s", ErrInsufficientFunds, bal, amount))
		}
	}

	return Instruction{
		ID:     uuid.New(),
		Asset:  asset,
		From:   from,
		To:     to,
		Amount: new(big.Int).Set(amount),
		Data:   data,
	}, nil
}

func (x NEP17) knownAsset(h util.Uint160) bool {
	if len(x.Assets) == 0 {
		return true
	}

	for i := range x.Assets {
		if x.Assets[i].Equals(h) {
			return true
		}
	}

	return false
}
