package sealevel

import (
	"bytes"

	"github.com/gagliardetto/solana-go"
)

// ValidateAndCreateWithSeed derives the address of base, seed and owner,
// refusing seeds longer than solana.MaxSeedLength and owners that end in the
// program-derived-address marker.
func ValidateAndCreateWithSeed(base solana.PublicKey, seed string, owner solana.PublicKey) (solana.PublicKey, error) {
	if len(seed) > solana.MaxSeedLength {
		return solana.PublicKey{}, InstrErrMaxSeedLengthExceeded
	}

	// solana.CreateWithSeed skips this check
	slice := owner[(len(owner) - len(solana.PDA_MARKER)):]
	if bytes.Equal(slice, []byte(solana.PDA_MARKER)) {
		return solana.PublicKey{}, InstrErrIllegalOwner
	}

	pk, err := solana.CreateWithSeed(base, seed, owner)
	if err != nil {
		return solana.PublicKey{}, InstrErrMaxSeedLengthExceeded
	}
	return pk, nil
}
