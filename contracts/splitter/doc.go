/*
Package splitter implements the coin splitter ledger.

The ledger accepts a deposit, splits it evenly between two recipients and lets
each recipient withdraw the accrued amount later. Deposit and withdrawal do not
move assets: they return transfer instructions produced by the injected
transfer.Transferer, and the host executes them after the operation.

All operations work with common.Storage supplied by the caller. The caller must
commit storage changes only if the operation returned no error; the ledger
may leave incomplete writes in the view on failure.

# Contract notifications

Initialize notification. Produced once when the ledger is initialized.

	Initialize:
	  - name: owner
	    type: Hash160
	  - name: asset
	    type: Hash160

Credit notification. Produced for each recipient of a split deposit.

	Credit:
	  - name: recipient
	    type: Hash160
	  - name: amount
	    type: Integer

SendCoins notification. Produced after Credit notifications of a deposit.

	SendCoins:
	  - name: from
	    type: Hash160
	  - name: amount
	    type: Integer
	  - name: recipient1
	    type: Hash160
	  - name: recipient2
	    type: Hash160

WithdrawCoins notification. Produced on each successful withdrawal.

	WithdrawCoins:
	  - name: from
	    type: Hash160
	  - name: amount
	    type: Integer
*/
package splitter
