package sealevel

import (
	"math"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStakeProgramExecute_Records_Instruction_Results(t *testing.T) {
	ok := stakeInstructionsTotal.WithLabelValues("GetMinimumDelegation", "ok")
	failed := stakeInstructionsTotal.WithLabelValues("Merge", InstrErrInvalidInstructionData.Error())
	okBefore := testutil.ToFloat64(ok)
	failedBefore := testutil.ToFloat64(failed)

	execCtx := newStakeExecCtx(t, nil)
	require.NoError(t, execCtx.Invoke(newStakeInstruction(t, StakeProgramInstrTypeGetMinimumDelegation, nil)))
	assert.Error(t, execCtx.Invoke(newStakeInstruction(t, StakeProgramInstrTypeMerge, nil)))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(failed))
}

func epochsWalkedSamples(t *testing.T) uint64 {
	t.Helper()
	metric := new(dto.Metric)
	require.NoError(t, activationEpochsWalked.Write(metric))
	return metric.GetHistogram().GetSampleCount()
}

func TestStakeActivatingAndDeactivating_Observes_Only_History_Walks(t *testing.T) {
	history := warmupStakeHistory()
	before := epochsWalkedSamples(t)

	bootstrap := NewDelegation(solana.PublicKey{}, 1000, math.MaxUint64)
	bootstrap.StakeActivatingAndDeactivating(3, history, nil)
	pending := NewDelegation(solana.PublicKey{}, 1000, 9)
	pending.StakeActivatingAndDeactivating(3, history, nil)
	assert.Equal(t, before, epochsWalkedSamples(t))

	warming := NewDelegation(solana.PublicKey{}, 1000, 0)
	warming.StakeActivatingAndDeactivating(2, history, nil)
	assert.Equal(t, before+1, epochsWalkedSamples(t))
}
