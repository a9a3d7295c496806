package base58

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase58_Decode_Encode(t *testing.T) {
	addr := MustDecodeFromString("11111111111111111111111111111111")
	assert.Equal(t, [32]byte{}, addr)

	const stakeProgram = "Stake11111111111111111111111111111111111111"
	addr, err := DecodeFromString(stakeProgram)
	require.NoError(t, err)
	assert.Equal(t, stakeProgram, Encode(addr[:]))
}

func TestBase58_Decode_WrongLength(t *testing.T) {
	_, err := DecodeFromString("2g")
	assert.Error(t, err)

	assert.Panics(t, func() { MustDecodeFromString("0OIl") })
}
