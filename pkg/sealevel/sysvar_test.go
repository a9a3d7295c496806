package sealevel

import (
	"math"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.firedancer.io/stake/pkg/features"
)

func TestMarshal_Unmarshal_SysvarClock(t *testing.T) {
	clock := SysvarClock{Slot: 1234, EpochStartTimestamp: -5, Epoch: 7, LeaderScheduleEpoch: 8, UnixTimestamp: 1700000000}
	data, err := clock.Marshal()
	require.NoError(t, err)
	require.Len(t, data, SysvarClockStructLen)

	var decoded SysvarClock
	require.NoError(t, decoded.UnmarshalWithDecoder(bin.NewBinDecoder(data)))
	assert.Equal(t, clock, decoded)

	err = decoded.UnmarshalWithDecoder(bin.NewBinDecoder(data[:SysvarClockStructLen-1]))
	assert.Error(t, err)
}

func TestMarshal_Unmarshal_SysvarRent(t *testing.T) {
	rent := DefaultRent()
	data, err := rent.Marshal()
	require.NoError(t, err)
	require.Len(t, data, SysvarRentStructLen)

	var decoded SysvarRent
	require.NoError(t, decoded.UnmarshalWithDecoder(bin.NewBinDecoder(data)))
	assert.Equal(t, rent, decoded)

	err = decoded.UnmarshalWithDecoder(bin.NewBinDecoder(data[:16]))
	assert.Error(t, err)
}

func TestSysvarRent_MinimumBalance(t *testing.T) {
	rent := DefaultRent()
	assert.Equal(t, uint64(testStakeRentReserve), rent.MinimumBalance(StakeStateV2Size))
	assert.Equal(t, uint64(890880), rent.MinimumBalance(0))

	assert.True(t, rent.IsExempt(testStakeRentReserve, StakeStateV2Size))
	assert.False(t, rent.IsExempt(testStakeRentReserve-1, StakeStateV2Size))

	huge := SysvarRent{LamportsPerUint8Year: math.MaxUint64, ExemptionThreshold: 2.0}
	assert.Equal(t, uint64(math.MaxUint64), huge.MinimumBalance(StakeStateV2Size))
}

func TestSysvarCache_Unset(t *testing.T) {
	var sysvarCache SysvarCache

	_, err := sysvarCache.GetClock()
	assert.ErrorIs(t, err, InstrErrUnsupportedSysvar)
	_, err = sysvarCache.GetRent()
	assert.ErrorIs(t, err, InstrErrUnsupportedSysvar)
	_, err = sysvarCache.GetStakeHistory()
	assert.ErrorIs(t, err, InstrErrUnsupportedSysvar)

	sysvarCache.SetClock(testStakeClock)
	clock, err := sysvarCache.GetClock()
	require.NoError(t, err)
	assert.Equal(t, testStakeClock, clock)
}

func TestExecutionCtx_WarmupCooldownRateEpoch(t *testing.T) {
	epoch := uint64(600)
	execCtx := &ExecutionCtx{NewWarmupCooldownRateEpoch: &epoch}
	assert.Nil(t, execCtx.WarmupCooldownRateEpoch())

	f := features.NewFeaturesDefault()
	f.EnableFeature(features.ReduceStakeWarmupCooldown, 0)
	execCtx.Features = *f
	require.NotNil(t, execCtx.WarmupCooldownRateEpoch())
	assert.Equal(t, epoch, *execCtx.WarmupCooldownRateEpoch())
}
