// Package base58 decodes and encodes the base58 account addresses used
// throughout the runtime.
package base58

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// MustDecodeFromString decodes a 32-byte address, panicking on malformed
// input. Intended for package-level address constants.
func MustDecodeFromString(str string) [32]byte {
	addr, err := DecodeFromString(str)
	if err != nil {
		panic(err)
	}
	return addr
}

func DecodeFromString(str string) ([32]byte, error) {
	var addr [32]byte
	b, err := base58.Decode(str)
	if err != nil {
		return addr, err
	}
	if len(b) != len(addr) {
		return addr, fmt.Errorf("invalid address length %d for %q", len(b), str)
	}
	copy(addr[:], b)
	return addr, nil
}

func Encode(b []byte) string {
	return base58.Encode(b)
}
