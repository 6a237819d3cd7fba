/*
Package transfer provides the asset-transfer primitive consumed by the
splitter ledger.

The ledger never moves assets itself. Instead, it asks a Transferer for an
Instruction describing NEP-17 transfer to be executed by the host after the
operation completes. Transferer implementations may refuse to produce an
instruction, e.g. for an unknown asset or a sender without enough funds; such
refusal fails the whole ledger operation.
*/
package transfer
