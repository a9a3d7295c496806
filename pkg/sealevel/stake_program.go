package sealevel

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/stake/pkg/features"
	"k8s.io/klog/v2"
)

const (
	StakeProgramInstrTypeInitialize = iota
	StakeProgramInstrTypeAuthorize
	StakeProgramInstrTypeDelegateStake
	StakeProgramInstrTypeSplit
	StakeProgramInstrTypeWithdraw
	StakeProgramInstrTypeDeactivate
	StakeProgramInstrTypeSetLockup
	StakeProgramInstrTypeMerge
	StakeProgramInstrTypeAuthorizeWithSeed
	StakeProgramInstrTypeInitializeChecked
	StakeProgramInstrTypeAuthorizeChecked
	StakeProgramInstrTypeAuthorizeCheckedWithSeed
	StakeProgramInstrTypeSetLockupChecked
	StakeProgramInstrTypeGetMinimumDelegation
	StakeProgramInstrTypeDeactivateDelinquent
	StakeProgramInstrTypeRedelegate
	StakeProgramInstrTypeMoveStake
	StakeProgramInstrTypeMoveLamports
)

var stakeInstrNames = map[uint32]string{
	StakeProgramInstrTypeInitialize:               "Initialize",
	StakeProgramInstrTypeAuthorize:                "Authorize",
	StakeProgramInstrTypeDelegateStake:            "DelegateStake",
	StakeProgramInstrTypeSplit:                    "Split",
	StakeProgramInstrTypeWithdraw:                 "Withdraw",
	StakeProgramInstrTypeDeactivate:               "Deactivate",
	StakeProgramInstrTypeSetLockup:                "SetLockup",
	StakeProgramInstrTypeMerge:                    "Merge",
	StakeProgramInstrTypeAuthorizeWithSeed:        "AuthorizeWithSeed",
	StakeProgramInstrTypeInitializeChecked:        "InitializeChecked",
	StakeProgramInstrTypeAuthorizeChecked:         "AuthorizeChecked",
	StakeProgramInstrTypeAuthorizeCheckedWithSeed: "AuthorizeCheckedWithSeed",
	StakeProgramInstrTypeSetLockupChecked:         "SetLockupChecked",
	StakeProgramInstrTypeGetMinimumDelegation:     "GetMinimumDelegation",
	StakeProgramInstrTypeDeactivateDelinquent:     "DeactivateDelinquent",
	StakeProgramInstrTypeRedelegate:               "Redelegate",
	StakeProgramInstrTypeMoveStake:                "MoveStake",
	StakeProgramInstrTypeMoveLamports:             "MoveLamports",
}

// StakeInstrName returns the name of a stake instruction discriminant.
func StakeInstrName(instrType uint32) string {
	name, ok := stakeInstrNames[instrType]
	if !ok {
		return "Unknown"
	}
	return name
}

const LamportsPerSol = 1000000000

type StakeInstrInitialize struct {
	Authorized Authorized
	Lockup     StakeLockup
}

type StakeInstrAuthorize struct {
	Pubkey         solana.PublicKey
	StakeAuthorize uint32
}

type StakeInstrSplit struct {
	Lamports uint64
}

type StakeInstrSetLockup struct {
	LockupArgs
}

type StakeInstrAuthorizeWithSeed struct {
	NewAuthorizedPubkey solana.PublicKey
	StakeAuthorize      uint32
	AuthoritySeed       string
	AuthorityOwner      solana.PublicKey
}

type StakeInstrAuthorizeChecked struct {
	StakeAuthorize uint32
}

type StakeInstrAuthorizeCheckedWithSeed struct {
	StakeAuthorize uint32
	AuthoritySeed  string
	AuthorityOwner solana.PublicKey
}

type StakeInstrSetLockupChecked struct {
	UnixTimestamp *int64
	Epoch         *uint64
}

func readStakeAuthorize(decoder *bin.Decoder) (uint32, error) {
	stakeAuthorize, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return 0, err
	}
	if stakeAuthorize != StakeAuthorizeStaker && stakeAuthorize != StakeAuthorizeWithdrawer {
		return 0, invalidEnumValue
	}
	return stakeAuthorize, nil
}

func readPubkey(decoder *bin.Decoder) (solana.PublicKey, error) {
	pk, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(pk), nil
}

func readOptionalInt64(decoder *bin.Decoder) (*int64, error) {
	exists, err := decoder.ReadBool()
	if err != nil || !exists {
		return nil, err
	}
	val, err := decoder.ReadInt64(bin.LE)
	if err != nil {
		return nil, err
	}
	return &val, nil
}

func readOptionalUint64(decoder *bin.Decoder) (*uint64, error) {
	exists, err := decoder.ReadBool()
	if err != nil || !exists {
		return nil, err
	}
	val, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return nil, err
	}
	return &val, nil
}

func writeOptionalInt64(encoder *bin.Encoder, val *int64) error {
	err := encoder.WriteBool(val != nil)
	if err != nil || val == nil {
		return err
	}
	return encoder.WriteInt64(*val, bin.LE)
}

func writeOptionalUint64(encoder *bin.Encoder, val *uint64) error {
	err := encoder.WriteBool(val != nil)
	if err != nil || val == nil {
		return err
	}
	return encoder.WriteUint64(*val, bin.LE)
}

func (initialize *StakeInstrInitialize) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	err := initialize.Authorized.UnmarshalWithDecoder(decoder)
	if err != nil {
		return err
	}
	return initialize.Lockup.UnmarshalWithDecoder(decoder)
}

func (initialize *StakeInstrInitialize) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := initialize.Authorized.MarshalWithEncoder(encoder)
	if err != nil {
		return err
	}
	return initialize.Lockup.MarshalWithEncoder(encoder)
}

func (auth *StakeInstrAuthorize) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	auth.Pubkey, err = readPubkey(decoder)
	if err != nil {
		return err
	}
	auth.StakeAuthorize, err = readStakeAuthorize(decoder)
	return err
}

func (auth *StakeInstrAuthorize) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteBytes(auth.Pubkey[:], false)
	if err != nil {
		return err
	}
	return encoder.WriteUint32(auth.StakeAuthorize, bin.LE)
}

func (split *StakeInstrSplit) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	split.Lamports, err = decoder.ReadUint64(bin.LE)
	return err
}

func (split *StakeInstrSplit) MarshalWithEncoder(encoder *bin.Encoder) error {
	return encoder.WriteUint64(split.Lamports, bin.LE)
}

func (lockup *StakeInstrSetLockup) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	lockup.UnixTimestamp, err = readOptionalInt64(decoder)
	if err != nil {
		return err
	}

	lockup.Epoch, err = readOptionalUint64(decoder)
	if err != nil {
		return err
	}

	custodianExists, err := decoder.ReadBool()
	if err != nil {
		return err
	}
	if custodianExists {
		pk, err := readPubkey(decoder)
		if err != nil {
			return err
		}
		lockup.Custodian = &pk
	}
	return nil
}

func (lockup *StakeInstrSetLockup) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := writeOptionalInt64(encoder, lockup.UnixTimestamp)
	if err != nil {
		return err
	}
	err = writeOptionalUint64(encoder, lockup.Epoch)
	if err != nil {
		return err
	}
	err = encoder.WriteBool(lockup.Custodian != nil)
	if err != nil || lockup.Custodian == nil {
		return err
	}
	return encoder.WriteBytes(lockup.Custodian[:], false)
}

func (authWithSeed *StakeInstrAuthorizeWithSeed) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	authWithSeed.NewAuthorizedPubkey, err = readPubkey(decoder)
	if err != nil {
		return err
	}

	authWithSeed.StakeAuthorize, err = readStakeAuthorize(decoder)
	if err != nil {
		return err
	}

	authWithSeed.AuthoritySeed, err = decoder.ReadRustString()
	if err != nil {
		return err
	}

	authWithSeed.AuthorityOwner, err = readPubkey(decoder)
	return err
}

func (authWithSeed *StakeInstrAuthorizeWithSeed) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteBytes(authWithSeed.NewAuthorizedPubkey[:], false)
	if err != nil {
		return err
	}
	err = encoder.WriteUint32(authWithSeed.StakeAuthorize, bin.LE)
	if err != nil {
		return err
	}
	err = encoder.WriteRustString(authWithSeed.AuthoritySeed)
	if err != nil {
		return err
	}
	return encoder.WriteBytes(authWithSeed.AuthorityOwner[:], false)
}

func (authChecked *StakeInstrAuthorizeChecked) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	authChecked.StakeAuthorize, err = readStakeAuthorize(decoder)
	return err
}

func (authChecked *StakeInstrAuthorizeChecked) MarshalWithEncoder(encoder *bin.Encoder) error {
	return encoder.WriteUint32(authChecked.StakeAuthorize, bin.LE)
}

func (authCheckedWithSeed *StakeInstrAuthorizeCheckedWithSeed) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	authCheckedWithSeed.StakeAuthorize, err = readStakeAuthorize(decoder)
	if err != nil {
		return err
	}

	authCheckedWithSeed.AuthoritySeed, err = decoder.ReadRustString()
	if err != nil {
		return err
	}

	authCheckedWithSeed.AuthorityOwner, err = readPubkey(decoder)
	return err
}

func (authCheckedWithSeed *StakeInstrAuthorizeCheckedWithSeed) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint32(authCheckedWithSeed.StakeAuthorize, bin.LE)
	if err != nil {
		return err
	}
	err = encoder.WriteRustString(authCheckedWithSeed.AuthoritySeed)
	if err != nil {
		return err
	}
	return encoder.WriteBytes(authCheckedWithSeed.AuthorityOwner[:], false)
}

func (lockup *StakeInstrSetLockupChecked) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	lockup.UnixTimestamp, err = readOptionalInt64(decoder)
	if err != nil {
		return err
	}
	lockup.Epoch, err = readOptionalUint64(decoder)
	return err
}

func (lockup *StakeInstrSetLockupChecked) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := writeOptionalInt64(encoder, lockup.UnixTimestamp)
	if err != nil {
		return err
	}
	return writeOptionalUint64(encoder, lockup.Epoch)
}

// MarshalStakeInstruction prefixes the encoded instruction with its
// discriminant. A nil instr encodes the discriminant alone.
func MarshalStakeInstruction(instrType uint32, instr bin.BinaryMarshaler) ([]byte, error) {
	data := new(bytes.Buffer)
	enc := bin.NewBinEncoder(data)

	err := enc.WriteUint32(instrType, bin.LE)
	if err != nil {
		return nil, err
	}
	if instr != nil {
		err = instr.MarshalWithEncoder(enc)
		if err != nil {
			return nil, err
		}
	}
	return data.Bytes(), nil
}

func getOptionalPubkey(txCtx *TransactionCtx, instrCtx *InstructionCtx, instrAcctIdx uint64, mustBeSigner bool) (*solana.PublicKey, error) {
	if instrAcctIdx >= instrCtx.NumberOfInstructionAccounts() {
		// no pubkey, not an error
		return nil, nil
	}

	isSigner, err := instrCtx.IsInstructionAccountSigner(instrAcctIdx)
	if err != nil {
		return nil, err
	}
	if mustBeSigner && !isSigner {
		return nil, InstrErrMissingRequiredSignature
	}

	pubkey, err := instrCtx.InstructionAccountKey(txCtx, instrAcctIdx)
	if err != nil {
		return nil, err
	}
	return &pubkey, nil
}

// WarmupCooldownRateEpoch is the rate change epoch in effect, nil while the
// ReduceStakeWarmupCooldown gate is inactive.
func (execCtx *ExecutionCtx) WarmupCooldownRateEpoch() *uint64 {
	if execCtx.Features.IsActive(features.ReduceStakeWarmupCooldown) {
		return execCtx.NewWarmupCooldownRateEpoch
	}
	return nil
}

func StakeProgramExecute(execCtx *ExecutionCtx) error {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	decoder := bin.NewBinDecoder(instrCtx.Data)
	instructionType, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		recordStakeInstruction("Unknown", InstrErrInvalidInstructionData)
		return InstrErrInvalidInstructionData
	}

	err = executeStakeInstruction(execCtx, txCtx, instrCtx, instructionType, decoder)
	recordStakeInstruction(StakeInstrName(instructionType), err)
	return err
}

func executeStakeInstruction(execCtx *ExecutionCtx, txCtx *TransactionCtx, instrCtx *InstructionCtx, instructionType uint32, decoder *bin.Decoder) error {
	signers, err := instrCtx.Signers(txCtx)
	if err != nil {
		return err
	}

	getStakeAccount := func() (*BorrowedAccount, error) {
		acct, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
		if err != nil {
			return nil, err
		}
		if acct.Owner() != StakeProgramAddr {
			acct.Drop()
			return nil, InstrErrInvalidAccountOwner
		}
		return acct, nil
	}

	requireCustodian := execCtx.Features.IsActive(features.RequireCustodianForLockedStakeAuthorize)

	switch instructionType {
	case StakeProgramInstrTypeInitialize:
		var initialize StakeInstrInitialize
		err = initialize.UnmarshalWithDecoder(decoder)
		if err != nil {
			return InstrErrInvalidInstructionData
		}

		me, err := getStakeAccount()
		if err != nil {
			return err
		}
		defer me.Drop()

		err = checkAcctForRentSysvar(txCtx, instrCtx, 1)
		if err != nil {
			return err
		}
		rent, err := execCtx.SysvarCache.GetRent()
		if err != nil {
			return err
		}

		return StakeProgramInitialize(me, initialize.Authorized, initialize.Lockup, rent)

	case StakeProgramInstrTypeAuthorize:
		var authorize StakeInstrAuthorize
		err = authorize.UnmarshalWithDecoder(decoder)
		if err != nil {
			return InstrErrInvalidInstructionData
		}

		me, err := getStakeAccount()
		if err != nil {
			return err
		}
		defer me.Drop()

		if !requireCustodian {
			return StakeProgramAuthorize(me, signers, authorize.Pubkey, authorize.StakeAuthorize, nil)
		}

		err = checkAcctForClockSysvar(txCtx, instrCtx, 1)
		if err != nil {
			return err
		}
		clock, err := execCtx.SysvarCache.GetClock()
		if err != nil {
			return err
		}

		err = instrCtx.CheckNumOfInstructionAccounts(3)
		if err != nil {
			return err
		}

		custodianPubkey, err := getOptionalPubkey(txCtx, instrCtx, 3, false)
		if err != nil {
			return err
		}

		return StakeProgramAuthorize(me, signers, authorize.Pubkey, authorize.StakeAuthorize,
			&LockupCustodianArgs{Clock: clock, Custodian: custodianPubkey})

	case StakeProgramInstrTypeSplit:
		var split StakeInstrSplit
		err = split.UnmarshalWithDecoder(decoder)
		if err != nil {
			return InstrErrInvalidInstructionData
		}

		me, err := getStakeAccount()
		if err != nil {
			return err
		}
		me.Drop()

		err = instrCtx.CheckNumOfInstructionAccounts(2)
		if err != nil {
			return err
		}

		return StakeProgramSplit(execCtx, txCtx, instrCtx, split.Lamports, signers)

	case StakeProgramInstrTypeDeactivate:
		me, err := getStakeAccount()
		if err != nil {
			return err
		}
		defer me.Drop()

		err = checkAcctForClockSysvar(txCtx, instrCtx, 1)
		if err != nil {
			return err
		}
		clock, err := execCtx.SysvarCache.GetClock()
		if err != nil {
			return err
		}
		stakeHistory, err := execCtx.SysvarCache.GetStakeHistory()
		if err != nil {
			return err
		}

		return StakeProgramDeactivate(me, clock, stakeHistory, signers, execCtx.WarmupCooldownRateEpoch())

	case StakeProgramInstrTypeSetLockup:
		var setLockup StakeInstrSetLockup
		err = setLockup.UnmarshalWithDecoder(decoder)
		if err != nil {
			return InstrErrInvalidInstructionData
		}

		me, err := getStakeAccount()
		if err != nil {
			return err
		}
		defer me.Drop()

		clock, err := execCtx.SysvarCache.GetClock()
		if err != nil {
			return err
		}

		return StakeProgramSetLockup(me, setLockup.LockupArgs, signers, clock)

	case StakeProgramInstrTypeAuthorizeWithSeed:
		var authorizeWithSeed StakeInstrAuthorizeWithSeed
		err = authorizeWithSeed.UnmarshalWithDecoder(decoder)
		if err != nil {
			return InstrErrInvalidInstructionData
		}

		me, err := getStakeAccount()
		if err != nil {
			return err
		}
		defer me.Drop()

		err = instrCtx.CheckNumOfInstructionAccounts(2)
		if err != nil {
			return err
		}

		var lockupArgs *LockupCustodianArgs
		if requireCustodian {
			err = checkAcctForClockSysvar(txCtx, instrCtx, 2)
			if err != nil {
				return err
			}
			clock, err := execCtx.SysvarCache.GetClock()
			if err != nil {
				return err
			}
			custodianPubkey, err := getOptionalPubkey(txCtx, instrCtx, 3, false)
			if err != nil {
				return err
			}
			lockupArgs = &LockupCustodianArgs{Clock: clock, Custodian: custodianPubkey}
		}

		return StakeProgramAuthorizeWithSeed(txCtx, instrCtx, me, 1, authorizeWithSeed.AuthoritySeed,
			authorizeWithSeed.AuthorityOwner, authorizeWithSeed.NewAuthorizedPubkey, authorizeWithSeed.StakeAuthorize, lockupArgs)

	case StakeProgramInstrTypeInitializeChecked:
		me, err := getStakeAccount()
		if err != nil {
			return err
		}
		defer me.Drop()

		err = instrCtx.CheckNumOfInstructionAccounts(4)
		if err != nil {
			return err
		}

		staker, err := instrCtx.InstructionAccountKey(txCtx, 2)
		if err != nil {
			return err
		}

		withdrawer, err := instrCtx.InstructionAccountKey(txCtx, 3)
		if err != nil {
			return err
		}
		isSigner, err := instrCtx.IsInstructionAccountSigner(3)
		if err != nil {
			return err
		}
		if !isSigner {
			klog.Errorf("InitializeChecked: withdrawer %s did not sign", withdrawer)
			return InstrErrMissingRequiredSignature
		}

		err = checkAcctForRentSysvar(txCtx, instrCtx, 1)
		if err != nil {
			return err
		}
		rent, err := execCtx.SysvarCache.GetRent()
		if err != nil {
			return err
		}

		return StakeProgramInitialize(me, Authorized{Staker: staker, Withdrawer: withdrawer}, StakeLockup{}, rent)

	case StakeProgramInstrTypeAuthorizeChecked:
		var authorizeChecked StakeInstrAuthorizeChecked
		err = authorizeChecked.UnmarshalWithDecoder(decoder)
		if err != nil {
			return InstrErrInvalidInstructionData
		}

		me, err := getStakeAccount()
		if err != nil {
			return err
		}
		defer me.Drop()

		err = checkAcctForClockSysvar(txCtx, instrCtx, 1)
		if err != nil {
			return err
		}
		clock, err := execCtx.SysvarCache.GetClock()
		if err != nil {
			return err
		}

		err = instrCtx.CheckNumOfInstructionAccounts(4)
		if err != nil {
			return err
		}

		authorizedPubkey, err := getOptionalPubkey(txCtx, instrCtx, 3, true)
		if err != nil {
			return err
		}

		custodianPubkey, err := getOptionalPubkey(txCtx, instrCtx, 4, false)
		if err != nil {
			return err
		}

		return StakeProgramAuthorize(me, signers, *authorizedPubkey, authorizeChecked.StakeAuthorize,
			&LockupCustodianArgs{Clock: clock, Custodian: custodianPubkey})

	case StakeProgramInstrTypeAuthorizeCheckedWithSeed:
		var authorizeCheckedWithSeed StakeInstrAuthorizeCheckedWithSeed
		err = authorizeCheckedWithSeed.UnmarshalWithDecoder(decoder)
		if err != nil {
			return InstrErrInvalidInstructionData
		}

		me, err := getStakeAccount()
		if err != nil {
			return err
		}
		defer me.Drop()

		err = instrCtx.CheckNumOfInstructionAccounts(2)
		if err != nil {
			return err
		}

		err = checkAcctForClockSysvar(txCtx, instrCtx, 2)
		if err != nil {
			return err
		}
		clock, err := execCtx.SysvarCache.GetClock()
		if err != nil {
			return err
		}

		err = instrCtx.CheckNumOfInstructionAccounts(4)
		if err != nil {
			return err
		}

		authorizedPubkey, err := getOptionalPubkey(txCtx, instrCtx, 3, true)
		if err != nil {
			return err
		}

		custodianPubkey, err := getOptionalPubkey(txCtx, instrCtx, 4, false)
		if err != nil {
			return err
		}

		return StakeProgramAuthorizeWithSeed(txCtx, instrCtx, me, 1, authorizeCheckedWithSeed.AuthoritySeed,
			authorizeCheckedWithSeed.AuthorityOwner, *authorizedPubkey, authorizeCheckedWithSeed.StakeAuthorize,
			&LockupCustodianArgs{Clock: clock, Custodian: custodianPubkey})

	case StakeProgramInstrTypeSetLockupChecked:
		var setLockupChecked StakeInstrSetLockupChecked
		err = setLockupChecked.UnmarshalWithDecoder(decoder)
		if err != nil {
			return InstrErrInvalidInstructionData
		}

		me, err := getStakeAccount()
		if err != nil {
			return err
		}
		defer me.Drop()

		custodianPubkey, err := getOptionalPubkey(txCtx, instrCtx, 2, true)
		if err != nil {
			return err
		}

		clock, err := execCtx.SysvarCache.GetClock()
		if err != nil {
			return err
		}

		lockupArgs := LockupArgs{UnixTimestamp: setLockupChecked.UnixTimestamp, Epoch: setLockupChecked.Epoch, Custodian: custodianPubkey}
		return StakeProgramSetLockup(me, lockupArgs, signers, clock)

	case StakeProgramInstrTypeGetMinimumDelegation:
		minimumDelegation := determineMinimumDelegation(execCtx.Features)
		returnData := make([]byte, 8)
		bin.LE.PutUint64(returnData, minimumDelegation)
		txCtx.SetReturnData(StakeProgramAddr, returnData)
		return nil

	case StakeProgramInstrTypeDelegateStake, StakeProgramInstrTypeWithdraw, StakeProgramInstrTypeMerge,
		StakeProgramInstrTypeDeactivateDelinquent, StakeProgramInstrTypeRedelegate,
		StakeProgramInstrTypeMoveStake, StakeProgramInstrTypeMoveLamports:
		klog.Errorf("stake instruction %s not supported", StakeInstrName(instructionType))
		return InstrErrInvalidInstructionData

	default:
		return InstrErrInvalidInstructionData
	}
}

func StakeProgramInitialize(stakeAcct *BorrowedAccount, authorized Authorized, lockup StakeLockup, rent SysvarRent) error {
	if len(stakeAcct.Data()) != StakeStateV2Size {
		return InstrErrInvalidAccountData
	}

	state, err := getStakeAccountState(stakeAcct)
	if err != nil {
		return err
	}

	if state.Status != StakeStateV2StatusUninitialized {
		klog.Errorf("Initialize: %s already %s", stakeAcct.Key(), state)
		return InstrErrInvalidAccountData
	}

	rentExemptReserve := rent.MinimumBalance(uint64(len(stakeAcct.Data())))
	if stakeAcct.Lamports() < rentExemptReserve {
		klog.Errorf("Initialize: %s holds %d lamports, needs %d", stakeAcct.Key(), stakeAcct.Lamports(), rentExemptReserve)
		return InstrErrInsufficientFunds
	}

	newState := NewInitializedStakeState(Meta{RentExemptReserve: rentExemptReserve, Authorized: authorized, Lockup: lockup})
	return setStakeAccountState(stakeAcct, newState)
}

func determineMinimumDelegation(f features.Features) uint64 {
	if f.IsActive(features.StakeRaiseMinimumDelegationTo1Sol) {
		const minimumDelegationSol = 1
		return minimumDelegationSol * LamportsPerSol
	}
	return 1
}

// StakeProgramAuthorize assigns newAuthority to the stakeAuthorize role.
// When lockupArgs is non-nil its Lockup is replaced with the account's own
// lockup before the withdrawer lockup check runs.
func StakeProgramAuthorize(stakeAcct *BorrowedAccount, signers []solana.PublicKey, newAuthority solana.PublicKey, stakeAuthorize uint32, lockupArgs *LockupCustodianArgs) error {
	state, err := getStakeAccountState(stakeAcct)
	if err != nil {
		return err
	}

	meta, ok := state.Meta()
	if !ok {
		return InstrErrInvalidAccountData
	}

	if lockupArgs != nil {
		lockupArgs.Lockup = meta.Lockup
	}

	err = meta.Authorized.Authorize(signers, newAuthority, stakeAuthorize, lockupArgs)
	if err != nil {
		klog.Errorf("Authorize: %s: %s", stakeAcct.Key(), err)
		return err
	}

	return setStakeAccountState(stakeAcct, state)
}

func StakeProgramAuthorizeWithSeed(txCtx *TransactionCtx, instrCtx *InstructionCtx, stakeAcct *BorrowedAccount, authorityBaseIndex uint64, authoritySeed string, authorityOwner solana.PublicKey, newAuthority solana.PublicKey, stakeAuthorize uint32, lockupArgs *LockupCustodianArgs) error {
	var signers []solana.PublicKey

	isSigner, err := instrCtx.IsInstructionAccountSigner(authorityBaseIndex)
	if err != nil {
		return err
	}

	if isSigner {
		basePubkey, err := instrCtx.InstructionAccountKey(txCtx, authorityBaseIndex)
		if err != nil {
			return err
		}
		pk, err := ValidateAndCreateWithSeed(basePubkey, authoritySeed, authorityOwner)
		if err != nil {
			return err
		}
		signers = append(signers, pk)
	}

	return StakeProgramAuthorize(stakeAcct, signers, newAuthority, stakeAuthorize, lockupArgs)
}

func StakeProgramDeactivate(stakeAcct *BorrowedAccount, clock SysvarClock, stakeHistory StakeHistoryLookup, signers []solana.PublicKey, newRateActivationEpoch *uint64) error {
	state, err := getStakeAccountState(stakeAcct)
	if err != nil {
		return err
	}

	if state.Status != StakeStateV2StatusStake {
		return InstrErrInvalidAccountData
	}

	meta := &state.Stake.Meta
	stake := &state.Stake.Stake
	flags := &state.Stake.StakeFlags

	err = meta.Authorized.Check(signers, StakeAuthorizeStaker)
	if err != nil {
		klog.Errorf("Deactivate: staker %s did not sign", meta.Authorized.Staker)
		return err
	}

	if flags.Contains(StakeFlagsMustFullyActivateBeforeDeactivationIsPermitted) {
		status := stake.Delegation.StakeActivatingAndDeactivating(clock.Epoch, stakeHistory, newRateActivationEpoch)
		if status.Activating != 0 {
			return StakeErrRedelegatedStakeMustFullyActivateBeforeDeactivationIsPermitted
		}
		flags.Remove(StakeFlagsMustFullyActivateBeforeDeactivationIsPermitted)
	}

	err = stake.Deactivate(clock.Epoch)
	if err != nil {
		return err
	}

	klog.V(2).Infof("Deactivate: %s deactivating at epoch %d", stakeAcct.Key(), clock.Epoch)
	return setStakeAccountState(stakeAcct, state)
}

func StakeProgramSetLockup(stakeAcct *BorrowedAccount, lockupArgs LockupArgs, signers []solana.PublicKey, clock SysvarClock) error {
	state, err := getStakeAccountState(stakeAcct)
	if err != nil {
		return err
	}

	meta, ok := state.Meta()
	if !ok {
		return InstrErrInvalidAccountData
	}

	err = meta.SetLockup(lockupArgs, signers, clock)
	if err != nil {
		return err
	}

	return setStakeAccountState(stakeAcct, state)
}

// MinimumDelegationFromReturnData decodes GetMinimumDelegation's result.
func MinimumDelegationFromReturnData(data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, InstrErrInvalidAccountData
	}
	return bin.LE.Uint64(data), nil
}
