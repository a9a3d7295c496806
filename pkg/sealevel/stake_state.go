package sealevel

import (
	"bytes"
	"fmt"
	"math"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const StakeStateV2Size = 200

const (
	StakeStateV2StatusUninitialized = iota
	StakeStateV2StatusInitialized
	StakeStateV2StatusStake
	StakeStateV2StatusRewardsPool
)

const (
	StakeAuthorizeStaker = iota
	StakeAuthorizeWithdrawer
)

const (
	StakeFlagsEmpty                                          byte = 0
	StakeFlagsMustFullyActivateBeforeDeactivationIsPermitted byte = 1
)

type Authorized struct {
	Staker     solana.PublicKey
	Withdrawer solana.PublicKey
}

type StakeLockup struct {
	UnixTimestamp int64
	Epoch         uint64
	Custodian     solana.PublicKey
}

type Meta struct {
	RentExemptReserve uint64
	Authorized        Authorized
	Lockup            StakeLockup
}

// Delegation omits the per-delegation warmup/cooldown rate that older
// layouts carried; see warmupCooldownRate.
type Delegation struct {
	VoterPubkey       solana.PublicKey
	Stake             uint64
	ActivationEpoch   uint64
	DeactivationEpoch uint64
}

type Stake struct {
	Delegation      Delegation
	CreditsObserved uint64
}

type StakeFlags struct {
	Bits byte
}

func (flags StakeFlags) Contains(flag byte) bool {
	return flags.Bits&flag == flag
}

func (flags *StakeFlags) Set(flag byte) {
	flags.Bits |= flag
}

func (flags *StakeFlags) Remove(flag byte) {
	flags.Bits &^= flag
}

type StakeStateV2Initialized struct {
	Meta Meta
}

type StakeStateV2Stake struct {
	Meta       Meta
	Stake      Stake
	StakeFlags StakeFlags
}

type StakeStateV2 struct {
	Status      uint32
	Initialized StakeStateV2Initialized
	Stake       StakeStateV2Stake
}

func NewDelegation(voterPubkey solana.PublicKey, stake uint64, activationEpoch uint64) Delegation {
	return Delegation{VoterPubkey: voterPubkey, Stake: stake, ActivationEpoch: activationEpoch,
		DeactivationEpoch: math.MaxUint64}
}

func NewInitializedStakeState(meta Meta) *StakeStateV2 {
	return &StakeStateV2{Status: StakeStateV2StatusInitialized, Initialized: StakeStateV2Initialized{Meta: meta}}
}

func NewStakeStakeState(meta Meta, stake Stake, flags StakeFlags) *StakeStateV2 {
	return &StakeStateV2{Status: StakeStateV2StatusStake,
		Stake: StakeStateV2Stake{Meta: meta, Stake: stake, StakeFlags: flags}}
}

// Meta returns the metadata of Initialized and Stake states.
func (state *StakeStateV2) Meta() (*Meta, bool) {
	switch state.Status {
	case StakeStateV2StatusInitialized:
		return &state.Initialized.Meta, true
	case StakeStateV2StatusStake:
		return &state.Stake.Meta, true
	default:
		return nil, false
	}
}

func (state *StakeStateV2) String() string {
	switch state.Status {
	case StakeStateV2StatusUninitialized:
		return "Uninitialized"
	case StakeStateV2StatusInitialized:
		return "Initialized"
	case StakeStateV2StatusStake:
		return "Stake"
	case StakeStateV2StatusRewardsPool:
		return "RewardsPool"
	default:
		return fmt.Sprintf("Unknown(%d)", state.Status)
	}
}

func (authorized *Authorized) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	pk, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	copy(authorized.Staker[:], pk)

	pk, err = decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	copy(authorized.Withdrawer[:], pk)
	return nil
}

func (authorized *Authorized) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteBytes(authorized.Staker[:], false)
	if err != nil {
		return err
	}
	return encoder.WriteBytes(authorized.Withdrawer[:], false)
}

func (lockup *StakeLockup) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	lockup.UnixTimestamp, err = decoder.ReadInt64(bin.LE)
	if err != nil {
		return err
	}

	lockup.Epoch, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	pk, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	copy(lockup.Custodian[:], pk)

	return nil
}

func (lockup *StakeLockup) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteInt64(lockup.UnixTimestamp, bin.LE)
	if err != nil {
		return err
	}
	err = encoder.WriteUint64(lockup.Epoch, bin.LE)
	if err != nil {
		return err
	}
	return encoder.WriteBytes(lockup.Custodian[:], false)
}

func (meta *Meta) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	meta.RentExemptReserve, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	err = meta.Authorized.UnmarshalWithDecoder(decoder)
	if err != nil {
		return err
	}

	return meta.Lockup.UnmarshalWithDecoder(decoder)
}

func (meta *Meta) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint64(meta.RentExemptReserve, bin.LE)
	if err != nil {
		return err
	}
	err = meta.Authorized.MarshalWithEncoder(encoder)
	if err != nil {
		return err
	}
	return meta.Lockup.MarshalWithEncoder(encoder)
}

func (delegation *Delegation) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	voterPubkey, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return err
	}
	copy(delegation.VoterPubkey[:], voterPubkey)

	delegation.Stake, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	delegation.ActivationEpoch, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	delegation.DeactivationEpoch, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	// deprecated warmup_cooldown_rate, ignored
	_, err = decoder.ReadBytes(8)
	return err
}

func (delegation *Delegation) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteBytes(delegation.VoterPubkey[:], false)
	if err != nil {
		return err
	}
	err = encoder.WriteUint64(delegation.Stake, bin.LE)
	if err != nil {
		return err
	}
	err = encoder.WriteUint64(delegation.ActivationEpoch, bin.LE)
	if err != nil {
		return err
	}
	err = encoder.WriteUint64(delegation.DeactivationEpoch, bin.LE)
	if err != nil {
		return err
	}
	return encoder.WriteFloat64(DefaultWarmupCooldownRate, bin.LE)
}

func (stake *Stake) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	err := stake.Delegation.UnmarshalWithDecoder(decoder)
	if err != nil {
		return err
	}

	stake.CreditsObserved, err = decoder.ReadUint64(bin.LE)
	return err
}

func (stake *Stake) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := stake.Delegation.MarshalWithEncoder(encoder)
	if err != nil {
		return err
	}
	return encoder.WriteUint64(stake.CreditsObserved, bin.LE)
}

func (stake *StakeStateV2Stake) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	err := stake.Meta.UnmarshalWithDecoder(decoder)
	if err != nil {
		return err
	}

	err = stake.Stake.UnmarshalWithDecoder(decoder)
	if err != nil {
		return err
	}

	stake.StakeFlags.Bits, err = decoder.ReadByte()
	return err
}

func (stake *StakeStateV2Stake) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := stake.Meta.MarshalWithEncoder(encoder)
	if err != nil {
		return err
	}
	err = stake.Stake.MarshalWithEncoder(encoder)
	if err != nil {
		return err
	}
	return encoder.WriteByte(stake.StakeFlags.Bits)
}

func (state *StakeStateV2) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	status, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return err
	}

	switch status {
	case StakeStateV2StatusUninitialized, StakeStateV2StatusRewardsPool:
		// nothing to deserialize

	case StakeStateV2StatusInitialized:
		err = state.Initialized.Meta.UnmarshalWithDecoder(decoder)

	case StakeStateV2StatusStake:
		err = state.Stake.UnmarshalWithDecoder(decoder)

	default:
		return InstrErrInvalidAccountData
	}

	state.Status = status
	return err
}

func (state *StakeStateV2) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint32(state.Status, bin.LE)
	if err != nil {
		return err
	}

	switch state.Status {
	case StakeStateV2StatusUninitialized, StakeStateV2StatusRewardsPool:
		return nil

	case StakeStateV2StatusInitialized:
		return state.Initialized.Meta.MarshalWithEncoder(encoder)

	case StakeStateV2StatusStake:
		return state.Stake.MarshalWithEncoder(encoder)

	default:
		return InstrErrInvalidAccountData
	}
}

// UnmarshalStakeState decodes a stake account's data. Any malformed input
// is reported as InstrErrInvalidAccountData.
func UnmarshalStakeState(data []byte) (*StakeStateV2, error) {
	state := new(StakeStateV2)
	decoder := bin.NewBinDecoder(data)

	err := state.UnmarshalWithDecoder(decoder)
	if err != nil {
		return nil, InstrErrInvalidAccountData
	}
	return state, nil
}

// MarshalStakeState encodes state into exactly StakeStateV2Size bytes,
// zero padding the tail.
func MarshalStakeState(state *StakeStateV2) ([]byte, error) {
	data := new(bytes.Buffer)
	enc := bin.NewBinEncoder(data)

	err := state.MarshalWithEncoder(enc)
	if err != nil {
		return nil, err
	}
	if data.Len() > StakeStateV2Size {
		return nil, InstrErrAccountDataTooSmall
	}

	out := make([]byte, StakeStateV2Size)
	copy(out, data.Bytes())
	return out, nil
}

func getStakeAccountState(acct *BorrowedAccount) (*StakeStateV2, error) {
	return UnmarshalStakeState(acct.Data())
}

func setStakeAccountState(acct *BorrowedAccount, state *StakeStateV2) error {
	data, err := MarshalStakeState(state)
	if err != nil {
		return err
	}
	return acct.SetState(data)
}
