package sealevel

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.firedancer.io/stake/pkg/accounts"
	"go.firedancer.io/stake/pkg/features"
)

// unitRent makes MinimumBalance(n) == 128 + n
var unitRent = SysvarRent{LamportsPerUint8Year: 1, ExemptionThreshold: 1.0, BurnPercent: 50}

func TestValidateSplitAmount_Zero_And_Overdraw(t *testing.T) {
	meta := Meta{RentExemptReserve: 100}

	_, err := ValidateSplitAmount(1100, 328, 0, &meta, 200, 1, false, unitRent)
	assert.Equal(t, InstrErrInsufficientFunds, err)

	_, err = ValidateSplitAmount(1100, 328, 1101, &meta, 200, 1, false, unitRent)
	assert.Equal(t, InstrErrInsufficientFunds, err)
}

func TestValidateSplitAmount_Source_Minimum_Balance(t *testing.T) {
	meta := Meta{RentExemptReserve: 100}

	// 100 left behind is below reserve + minimum delegation
	_, err := ValidateSplitAmount(1100, 328, 1000, &meta, 200, 1, false, unitRent)
	assert.Equal(t, InstrErrInsufficientFunds, err)

	info, err := ValidateSplitAmount(1100, 328, 999, &meta, 200, 1, false, unitRent)
	require.NoError(t, err)
	assert.Equal(t, uint64(101), info.SourceRemainingBalance)

	// draining the source entirely is always allowed
	info, err = ValidateSplitAmount(1100, 0, 1100, &meta, 200, 1, true, unitRent)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), info.SourceRemainingBalance)
	assert.Equal(t, uint64(328), info.DestinationRentExemptReserve)
}

func TestValidateSplitAmount_Active_Stake_Needs_Prefunded_Destination(t *testing.T) {
	meta := Meta{RentExemptReserve: 100}

	_, err := ValidateSplitAmount(1100, 327, 400, &meta, 200, 1, true, unitRent)
	assert.Equal(t, InstrErrInsufficientFunds, err)

	info, err := ValidateSplitAmount(1100, 328, 400, &meta, 200, 1, true, unitRent)
	require.NoError(t, err)
	assert.Equal(t, ValidatedSplitInfo{SourceRemainingBalance: 700, DestinationRentExemptReserve: 328}, info)

	// inactive stake may fund the destination reserve out of the split
	_, err = ValidateSplitAmount(1100, 0, 400, &meta, 200, 1, false, unitRent)
	require.NoError(t, err)
}

func TestValidateSplitAmount_Destination_Deficit(t *testing.T) {
	meta := Meta{RentExemptReserve: 100}

	// destination needs 328 + 1, split only brings 200
	_, err := ValidateSplitAmount(1100, 0, 200, &meta, 200, 1, false, unitRent)
	assert.Equal(t, InstrErrInsufficientFunds, err)

	_, err = ValidateSplitAmount(1100, 0, 329, &meta, 200, 1, false, unitRent)
	require.NoError(t, err)

	_, err = ValidateSplitAmount(1100, 129, 200, &meta, 200, 1, false, unitRent)
	require.NoError(t, err)
}

func TestValidateSplitAmount_Is_Pure(t *testing.T) {
	meta := Meta{RentExemptReserve: 100}
	first, err1 := ValidateSplitAmount(5000, 328, 1234, &meta, 200, 7, true, unitRent)
	second, err2 := ValidateSplitAmount(5000, 328, 1234, &meta, 200, 7, true, unitRent)
	assert.Equal(t, first, second)
	assert.Equal(t, err1, err2)
	assert.Equal(t, Meta{RentExemptReserve: 100}, meta)
}

type splitTestAccounts struct {
	staker      solana.PublicKey
	source      solana.PublicKey
	destination solana.PublicKey
}

func newSplitTestAccounts(t *testing.T) splitTestAccounts {
	return splitTestAccounts{staker: newTestPubkey(t), source: newTestPubkey(t), destination: newTestPubkey(t)}
}

func (s splitTestAccounts) instruction(t *testing.T, lamports uint64) Instruction {
	return newStakeInstruction(t, StakeProgramInstrTypeSplit, &StakeInstrSplit{Lamports: lamports},
		NewAccountMeta(s.source, false, true),
		NewAccountMeta(s.destination, false, true),
		NewAccountMeta(s.staker, true, false))
}

func (s splitTestAccounts) stakerAccount() accounts.Account {
	return accounts.Account{Key: s.staker, Lamports: 1000000, Owner: SystemProgramAddr}
}

func TestExecute_Tx_Stake_Split_Active_Stake(t *testing.T) {
	s := newSplitTestAccounts(t)
	voter := newTestPubkey(t)
	meta := newTestMeta(s.staker, s.staker)

	execCtx := newStakeExecCtx(t, nil,
		newStakeAccount(t, s.source, testStakeRentReserve+1000, newActiveStakeState(meta, voter, 1000)),
		newStakeAccount(t, s.destination, testStakeRentReserve, &StakeStateV2{}),
		s.stakerAccount())

	err := execCtx.Invoke(s.instruction(t, 400))
	require.NoError(t, err)

	sourceState := stakeStateByKey(t, execCtx, s.source)
	require.Equal(t, uint32(StakeStateV2StatusStake), sourceState.Status)
	assert.Equal(t, uint64(600), sourceState.Stake.Stake.Delegation.Stake)
	assert.Equal(t, meta, sourceState.Stake.Meta)

	destinationState := stakeStateByKey(t, execCtx, s.destination)
	require.Equal(t, uint32(StakeStateV2StatusStake), destinationState.Status)
	assert.Equal(t, uint64(400), destinationState.Stake.Stake.Delegation.Stake)
	assert.Equal(t, voter, destinationState.Stake.Stake.Delegation.VoterPubkey)
	assert.Equal(t, uint64(0), destinationState.Stake.Stake.Delegation.ActivationEpoch)
	assert.Equal(t, uint64(testStakeRentReserve), destinationState.Stake.Meta.RentExemptReserve)
	assert.Equal(t, meta.Authorized, destinationState.Stake.Meta.Authorized)

	assert.Equal(t, uint64(testStakeRentReserve+600), txAccountByKey(t, execCtx, s.source).Lamports)
	assert.Equal(t, uint64(testStakeRentReserve+400), txAccountByKey(t, execCtx, s.destination).Lamports)
}

func TestExecute_Tx_Stake_Split_Remaining_Below_Minimum_Delegation(t *testing.T) {
	s := newSplitTestAccounts(t)
	meta := newTestMeta(s.staker, s.staker)

	f := features.NewFeaturesDefault()
	f.EnableFeature(features.StakeRaiseMinimumDelegationTo1Sol, 0)

	// 3 SOL held, 2 SOL delegated: splitting 1.5 SOL leaves 0.5 SOL delegated
	execCtx := newStakeExecCtx(t, f,
		newStakeAccount(t, s.source, testStakeRentReserve+3*LamportsPerSol, newActiveStakeState(meta, newTestPubkey(t), 2*LamportsPerSol)),
		newStakeAccount(t, s.destination, testStakeRentReserve, &StakeStateV2{}),
		s.stakerAccount())

	err := execCtx.Invoke(s.instruction(t, 3*LamportsPerSol/2))
	assert.Equal(t, StakeErrInsufficientDelegation, err)

	assert.Equal(t, uint64(2*LamportsPerSol), stakeStateByKey(t, execCtx, s.source).Stake.Stake.Delegation.Stake)
	assert.Equal(t, uint32(StakeStateV2StatusUninitialized), stakeStateByKey(t, execCtx, s.destination).Status)
}

func TestExecute_Tx_Stake_Split_Amount_Below_Minimum_Delegation(t *testing.T) {
	s := newSplitTestAccounts(t)
	meta := newTestMeta(s.staker, s.staker)

	f := features.NewFeaturesDefault()
	f.EnableFeature(features.StakeRaiseMinimumDelegationTo1Sol, 0)

	execCtx := newStakeExecCtx(t, f,
		newStakeAccount(t, s.source, testStakeRentReserve+3*LamportsPerSol, newActiveStakeState(meta, newTestPubkey(t), 3*LamportsPerSol)),
		newStakeAccount(t, s.destination, testStakeRentReserve+LamportsPerSol, &StakeStateV2{}),
		s.stakerAccount())

	err := execCtx.Invoke(s.instruction(t, LamportsPerSol/2))
	assert.Equal(t, StakeErrInsufficientDelegation, err)
	assert.Equal(t, uint64(testStakeRentReserve+3*LamportsPerSol), txAccountByKey(t, execCtx, s.source).Lamports)
}

func TestExecute_Tx_Stake_Split_Full_Drain(t *testing.T) {
	s := newSplitTestAccounts(t)
	meta := newTestMeta(s.staker, s.staker)

	execCtx := newStakeExecCtx(t, nil,
		newStakeAccount(t, s.source, testStakeRentReserve+1000, newActiveStakeState(meta, newTestPubkey(t), 1000)),
		newStakeAccount(t, s.destination, 0, &StakeStateV2{}),
		s.stakerAccount())

	err := execCtx.Invoke(s.instruction(t, testStakeRentReserve+1000))
	require.NoError(t, err)

	sourceAcct := txAccountByKey(t, execCtx, s.source)
	assert.Equal(t, uint64(0), sourceAcct.Lamports)
	assert.Equal(t, make([]byte, StakeStateV2Size), sourceAcct.Data)

	destinationState := stakeStateByKey(t, execCtx, s.destination)
	require.Equal(t, uint32(StakeStateV2StatusStake), destinationState.Status)
	assert.Equal(t, uint64(1000), destinationState.Stake.Stake.Delegation.Stake)
	assert.Equal(t, uint64(testStakeRentReserve+1000), txAccountByKey(t, execCtx, s.destination).Lamports)
}

func TestExecute_Tx_Stake_Split_Initialized(t *testing.T) {
	s := newSplitTestAccounts(t)
	meta := newTestMeta(s.staker, s.staker)

	execCtx := newStakeExecCtx(t, nil,
		newStakeAccount(t, s.source, 2*testStakeRentReserve+5000, NewInitializedStakeState(meta)),
		newStakeAccount(t, s.destination, 0, &StakeStateV2{}),
		s.stakerAccount())

	err := execCtx.Invoke(s.instruction(t, testStakeRentReserve+1000))
	require.NoError(t, err)

	sourceState := stakeStateByKey(t, execCtx, s.source)
	assert.Equal(t, NewInitializedStakeState(meta), sourceState)

	destinationState := stakeStateByKey(t, execCtx, s.destination)
	require.Equal(t, uint32(StakeStateV2StatusInitialized), destinationState.Status)
	assert.Equal(t, meta, destinationState.Initialized.Meta)

	assert.Equal(t, uint64(testStakeRentReserve+4000), txAccountByKey(t, execCtx, s.source).Lamports)
	assert.Equal(t, uint64(testStakeRentReserve+1000), txAccountByKey(t, execCtx, s.destination).Lamports)
}

func TestExecute_Tx_Stake_Split_Uninitialized_Source(t *testing.T) {
	s := newSplitTestAccounts(t)

	execCtx := newStakeExecCtx(t, nil,
		newStakeAccount(t, s.source, 5000, &StakeStateV2{}),
		newStakeAccount(t, s.destination, 0, &StakeStateV2{}),
		s.stakerAccount())

	// the source itself has to sign
	err := execCtx.Invoke(s.instruction(t, 2000))
	assert.Equal(t, InstrErrMissingRequiredSignature, err)

	instr := newStakeInstruction(t, StakeProgramInstrTypeSplit, &StakeInstrSplit{Lamports: 2000},
		NewAccountMeta(s.source, true, true),
		NewAccountMeta(s.destination, false, true))
	err = execCtx.Invoke(instr)
	require.NoError(t, err)

	assert.Equal(t, uint64(3000), txAccountByKey(t, execCtx, s.source).Lamports)
	assert.Equal(t, uint64(2000), txAccountByKey(t, execCtx, s.destination).Lamports)
	assert.Equal(t, uint32(StakeStateV2StatusUninitialized), stakeStateByKey(t, execCtx, s.destination).Status)
}

func TestExecute_Tx_Stake_Split_Failures_Leave_Accounts_Untouched(t *testing.T) {
	s := newSplitTestAccounts(t)
	other := newTestPubkey(t)
	meta := newTestMeta(s.staker, s.staker)

	sourceAcct := newStakeAccount(t, s.source, testStakeRentReserve+1000, newActiveStakeState(meta, newTestPubkey(t), 1000))
	destinationAcct := newStakeAccount(t, s.destination, testStakeRentReserve, &StakeStateV2{})

	execCtx := newStakeExecCtx(t, nil, sourceAcct, destinationAcct, s.stakerAccount(),
		accounts.Account{Key: other, Lamports: 1000000, Owner: SystemProgramAddr})

	// missing staker signature
	instr := newStakeInstruction(t, StakeProgramInstrTypeSplit, &StakeInstrSplit{Lamports: 400},
		NewAccountMeta(s.source, false, true),
		NewAccountMeta(s.destination, false, true),
		NewAccountMeta(other, true, false))
	err := execCtx.Invoke(instr)
	assert.Equal(t, InstrErrMissingRequiredSignature, err)

	// zero and overdrawn amounts
	err = execCtx.Invoke(s.instruction(t, 0))
	assert.Equal(t, InstrErrInsufficientFunds, err)
	err = execCtx.Invoke(s.instruction(t, testStakeRentReserve+1001))
	assert.Equal(t, InstrErrInsufficientFunds, err)

	// source and destination are the same account
	instr = newStakeInstruction(t, StakeProgramInstrTypeSplit, &StakeInstrSplit{Lamports: 400},
		NewAccountMeta(s.source, false, true),
		NewAccountMeta(s.source, false, true),
		NewAccountMeta(s.staker, true, false))
	err = execCtx.Invoke(instr)
	assert.Equal(t, InstrErrAccountBorrowOutstanding, err)

	// read-only destination fails before anything is written
	instr = newStakeInstruction(t, StakeProgramInstrTypeSplit, &StakeInstrSplit{Lamports: 400},
		NewAccountMeta(s.source, false, true),
		NewAccountMeta(s.destination, false, false),
		NewAccountMeta(s.staker, true, false))
	err = execCtx.Invoke(instr)
	assert.Equal(t, InstrErrReadonlyDataModified, err)

	source := txAccountByKey(t, execCtx, s.source)
	assert.Equal(t, sourceAcct.Lamports, source.Lamports)
	assert.Equal(t, sourceAcct.Data, source.Data)

	destination := txAccountByKey(t, execCtx, s.destination)
	assert.Equal(t, destinationAcct.Lamports, destination.Lamports)
	assert.Equal(t, destinationAcct.Data, destination.Data)

	assert.Empty(t, execCtx.TransactionContext.Accounts.TouchedAccounts())
}

func TestExecute_Tx_Stake_Split_Bad_Destination(t *testing.T) {
	s := newSplitTestAccounts(t)
	meta := newTestMeta(s.staker, s.staker)
	sourceState := newActiveStakeState(meta, newTestPubkey(t), 1000)

	// not owned by the stake program
	notOwned := newStakeAccount(t, s.destination, testStakeRentReserve, &StakeStateV2{})
	notOwned.Owner = SystemProgramAddr
	execCtx := newStakeExecCtx(t, nil,
		newStakeAccount(t, s.source, testStakeRentReserve+1000, sourceState), notOwned, s.stakerAccount())
	err := execCtx.Invoke(s.instruction(t, 400))
	assert.Equal(t, InstrErrIncorrectProgramId, err)

	// wrong size
	wrongSize := accounts.Account{Key: s.destination, Lamports: testStakeRentReserve, Data: make([]byte, 199), Owner: StakeProgramAddr}
	execCtx = newStakeExecCtx(t, nil,
		newStakeAccount(t, s.source, testStakeRentReserve+1000, sourceState), wrongSize, s.stakerAccount())
	err = execCtx.Invoke(s.instruction(t, 400))
	assert.Equal(t, InstrErrInvalidAccountData, err)

	// already initialized
	execCtx = newStakeExecCtx(t, nil,
		newStakeAccount(t, s.source, testStakeRentReserve+1000, sourceState),
		newStakeAccount(t, s.destination, testStakeRentReserve, NewInitializedStakeState(meta)), s.stakerAccount())
	err = execCtx.Invoke(s.instruction(t, 400))
	assert.Equal(t, InstrErrInvalidAccountData, err)
}

func TestExecute_Tx_Stake_Split_Not_Enough_Accounts(t *testing.T) {
	s := newSplitTestAccounts(t)
	meta := newTestMeta(s.staker, s.staker)

	execCtx := newStakeExecCtx(t, nil,
		newStakeAccount(t, s.source, testStakeRentReserve+1000, newActiveStakeState(meta, newTestPubkey(t), 1000)))

	instr := newStakeInstruction(t, StakeProgramInstrTypeSplit, &StakeInstrSplit{Lamports: 400},
		NewAccountMeta(s.source, true, true))
	err := execCtx.Invoke(instr)
	assert.Equal(t, InstrErrNotEnoughAccountKeys, err)
}
