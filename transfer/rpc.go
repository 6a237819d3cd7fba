package transfer

import (
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/rpcclient/nep17"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// RPCBalanceReader reads NEP-17 balances through Neo RPC.
type RPCBalanceReader struct {
	invoker nep17.Invoker
}

// NewRPCBalanceReader returns RPCBalanceReader working through the given
// invoker.
func NewRPCBalanceReader(inv nep17.Invoker) *RPCBalanceReader {
	return &RPCBalanceReader{invoker: inv}
}

// BalanceOf implements BalanceReader.
func (x *RPCBalanceReader) BalanceOf(asset, account util.Uint160) (*big.Int, error) {
	bal, err := nep17.NewReader(x.invoker, asset).BalanceOf(account)
	if err != nil {
		return nil, fmt.Errorf("call 'balanceOf' of %s: %w", asset.StringLE(), err)
	}

	return bal, nil
}

// Decimals returns precision of the asset.
func (x *RPCBalanceReader) Decimals(asset util.Uint160) (int, error) {
	d, err := nep17.NewReader(x.invoker, asset).Decimals()
	if err != nil {
		return 0, fmt.Errorf("call 'decimals' of %s: %w", asset.StringLE(), err)
	}

	return d, nil
}
