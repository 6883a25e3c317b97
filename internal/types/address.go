package types

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Address is a validated 20-byte chain address in canonical lowercase hex.
// The zero value is invalid; construct via NewAddress.
type Address struct {
	value string
}

// NewAddress validates raw and returns its canonical form. Invalid input
// yields no address, never a partially-valid one.
func NewAddress(raw string) (Address, error) {
	trimmed := strings.TrimSpace(raw)
	if !common.IsHexAddress(trimmed) {
		return Address{}, fmt.Errorf("invalid address %q", raw)
	}
	return Address{value: strings.ToLower(common.HexToAddress(trimmed).Hex())}, nil
}

// MustAddress is NewAddress for compile-time constants.
func MustAddress(raw string) Address {
	addr, err := NewAddress(raw)
	if err != nil {
		panic(err)
	}
	return addr
}

// Hex returns the canonical lowercase hex form, 0x-prefixed.
func (a Address) Hex() string {
	return a.value
}

// Common converts to the go-ethereum address type for RPC calls.
func (a Address) Common() common.Address {
	return common.HexToAddress(a.value)
}

// IsZero reports whether the address was never initialised.
func (a Address) IsZero() bool {
	return a.value == ""
}

func (a Address) String() string {
	return a.value
}
