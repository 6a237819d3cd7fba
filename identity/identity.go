/*
Package identity provides validated principal references used by the splitter
ledger: callers, recipients, the administrator and the approved asset.

An Identity can only be obtained from a Validator or from an already typed
script hash. Ledger code never builds one from an unchecked string.
*/
package identity

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// ErrInvalidAddress is returned by Validator implementations when the input
// string does not reference a valid principal.
var ErrInvalidAddress = errors.New("invalid address")

// Identity is a validated reference to a Neo account or contract.
type Identity struct {
	h util.Uint160
}

// FromScriptHash returns Identity of the given script hash. It is intended for
// principals that are already authenticated by the host (transaction sender,
// the ledger's own address), not for user input.
func FromScriptHash(h util.Uint160) Identity {
	return Identity{h: h}
}

// ScriptHash returns script hash referenced by the Identity.
func (x Identity) ScriptHash() util.Uint160 {
	return x.h
}

// Equals checks whether both identities reference the same principal.
func (x Identity) Equals(other Identity) bool {
	return x.h.Equals(other.h)
}

// String returns Neo N3 address of the Identity.
func (x Identity) String() string {
	return address.Uint160ToString(x.h)
}

// MarshalText implements encoding.TextMarshaler.
func (x Identity) MarshalText() ([]byte, error) {
	return []byte(x.String()), nil
}

// Validator turns raw strings into identities.
type Validator interface {
	// Validate returns Identity referenced by s. It returns an error wrapping
	// ErrInvalidAddress if s is malformed.
	Validate(s string) (Identity, error)
}

// AddressValidator is a Validator accepting Neo N3 base58check addresses.
type AddressValidator struct{}

// Validate implements Validator.
func (AddressValidator) Validate(s string) (Identity, error) {
	h, err := address.StringToUint160(s)
	if err != nil {
		return Identity{}, fmt.Errorf("%w '%s': %v", ErrInvalidAddress, s, err)
	}

	return Identity{h: h}, nil
}
