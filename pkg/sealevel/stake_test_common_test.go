package sealevel

import (
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
	"go.firedancer.io/stake/pkg/accounts"
	"go.firedancer.io/stake/pkg/features"
)

var testStakeClock = SysvarClock{Slot: 4320000, EpochStartTimestamp: 1699990000, Epoch: 10,
	LeaderScheduleEpoch: 11, UnixTimestamp: 1700000000}

// rent exempt reserve of a stake account under DefaultRent
const testStakeRentReserve = 2282880

// newStakeExecCtx builds an execution context holding the stake program,
// the clock, rent and stake history sysvar accounts, and accts.
func newStakeExecCtx(t *testing.T, f *features.Features, accts ...accounts.Account) *ExecutionCtx {
	t.Helper()

	all := []accounts.Account{
		{Key: StakeProgramAddr, Owner: NativeLoaderAddr, Executable: true, Lamports: 1},
		{Key: SysvarClockAddr, Owner: SysvarOwnerAddr, Lamports: 1},
		{Key: SysvarRentAddr, Owner: SysvarOwnerAddr, Lamports: 1},
		{Key: SysvarStakeHistoryAddr, Owner: SysvarOwnerAddr, Lamports: 1},
	}
	all = append(all, accts...)

	execCtx := &ExecutionCtx{TransactionContext: NewTransactionCtx(NewTransactionAccounts(all))}
	if f != nil {
		execCtx.Features = *f
	}
	execCtx.SysvarCache.SetClock(testStakeClock)
	execCtx.SysvarCache.SetRent(DefaultRent())
	execCtx.SysvarCache.SetStakeHistory(SysvarStakeHistory{})
	return execCtx
}

func newStakeAccount(t *testing.T, key solana.PublicKey, lamports uint64, state *StakeStateV2) accounts.Account {
	t.Helper()
	data, err := MarshalStakeState(state)
	require.NoError(t, err)
	return accounts.Account{Key: key, Lamports: lamports, Data: data, Owner: StakeProgramAddr}
}

func newStakeInstruction(t *testing.T, instrType uint32, instr bin.BinaryMarshaler, metas ...AccountMeta) Instruction {
	t.Helper()
	data, err := MarshalStakeInstruction(instrType, instr)
	require.NoError(t, err)
	return Instruction{Accounts: metas, Data: data, ProgramId: StakeProgramAddr}
}

func txAccountByKey(t *testing.T, execCtx *ExecutionCtx, key solana.PublicKey) *accounts.Account {
	t.Helper()
	txCtx := execCtx.TransactionContext
	idx, err := txCtx.IndexOfAccount(key)
	require.NoError(t, err)
	acct, err := txCtx.Accounts.GetAccount(idx)
	require.NoError(t, err)
	return acct
}

func stakeStateByKey(t *testing.T, execCtx *ExecutionCtx, key solana.PublicKey) *StakeStateV2 {
	t.Helper()
	state, err := UnmarshalStakeState(txAccountByKey(t, execCtx, key).Data)
	require.NoError(t, err)
	return state
}

func newTestMeta(staker, withdrawer solana.PublicKey) Meta {
	return Meta{RentExemptReserve: testStakeRentReserve, Authorized: Authorized{Staker: staker, Withdrawer: withdrawer}}
}

func newActiveStakeState(meta Meta, voter solana.PublicKey, stake uint64) *StakeStateV2 {
	return NewStakeStakeState(meta, Stake{Delegation: NewDelegation(voter, stake, 0), CreditsObserved: 0}, StakeFlags{})
}
