package sealevel

import (
	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/stake/pkg/safemath"
	"k8s.io/klog/v2"
)

type ValidatedSplitInfo struct {
	SourceRemainingBalance       uint64
	DestinationRentExemptReserve uint64
}

// ValidateSplitAmount checks that splitting splitLamports out of the source
// leaves both accounts adequately funded, and computes the destination's
// rent exempt reserve.
func ValidateSplitAmount(sourceLamports uint64, destinationLamports uint64, splitLamports uint64, sourceMeta *Meta,
	destinationDataLen uint64, additionalRequiredLamports uint64, sourceIsActive bool, rent SysvarRent) (ValidatedSplitInfo, error) {

	if splitLamports == 0 {
		return ValidatedSplitInfo{}, InstrErrInsufficientFunds
	}

	if splitLamports > sourceLamports {
		return ValidatedSplitInfo{}, InstrErrInsufficientFunds
	}

	// the source must either keep its minimum balance or be emptied entirely
	sourceMinimumBalance := safemath.SaturatingAddU64(sourceMeta.RentExemptReserve, additionalRequiredLamports)
	sourceRemainingBalance := safemath.SaturatingSubU64(sourceLamports, splitLamports)
	if sourceRemainingBalance != 0 && sourceRemainingBalance < sourceMinimumBalance {
		return ValidatedSplitInfo{}, InstrErrInsufficientFunds
	}

	destinationRentExemptReserve := rent.MinimumBalance(destinationDataLen)

	// active stake may only land in a prefunded destination, unless the
	// source is drained completely
	if sourceIsActive && sourceRemainingBalance != 0 && destinationLamports < destinationRentExemptReserve {
		return ValidatedSplitInfo{}, InstrErrInsufficientFunds
	}

	destinationMinimumBalance := safemath.SaturatingAddU64(destinationRentExemptReserve, additionalRequiredLamports)
	destinationBalanceDeficit := safemath.SaturatingSubU64(destinationMinimumBalance, destinationLamports)
	if splitLamports < destinationBalanceDeficit {
		return ValidatedSplitInfo{}, InstrErrInsufficientFunds
	}

	return ValidatedSplitInfo{SourceRemainingBalance: sourceRemainingBalance,
		DestinationRentExemptReserve: destinationRentExemptReserve}, nil
}

// StakeProgramSplit moves splitLamports, and the matching share of the
// delegation, from the stake account at instruction index 0 into the
// uninitialized stake account at index 1. Nothing is written unless every
// check passes.
func StakeProgramSplit(execCtx *ExecutionCtx, txCtx *TransactionCtx, instrCtx *InstructionCtx, splitLamports uint64, signers []solana.PublicKey) error {
	clock, err := execCtx.SysvarCache.GetClock()
	if err != nil {
		return err
	}
	rent, err := execCtx.SysvarCache.GetRent()
	if err != nil {
		return err
	}
	stakeHistory, err := execCtx.SysvarCache.GetStakeHistory()
	if err != nil {
		return err
	}

	source, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	defer source.Drop()

	destination, err := instrCtx.BorrowInstructionAccount(txCtx, 1)
	if err != nil {
		return err
	}
	defer destination.Drop()

	if destination.Owner() != StakeProgramAddr {
		klog.Errorf("Split: destination %s not owned by the stake program", destination.Key())
		return InstrErrIncorrectProgramId
	}

	destinationDataLen := uint64(len(destination.Data()))
	if destinationDataLen != StakeStateV2Size {
		return InstrErrInvalidAccountData
	}

	destinationState, err := getStakeAccountState(destination)
	if err != nil {
		return err
	}
	if destinationState.Status != StakeStateV2StatusUninitialized {
		klog.Errorf("Split: destination %s is %s", destination.Key(), destinationState)
		return InstrErrInvalidAccountData
	}

	sourceLamports := source.Lamports()
	destinationLamports := destination.Lamports()

	if splitLamports > sourceLamports {
		return InstrErrInsufficientFunds
	}

	sourceState, err := getStakeAccountState(source)
	if err != nil {
		return err
	}

	var newSourceState, newDestinationState *StakeStateV2

	switch sourceState.Status {
	case StakeStateV2StatusStake:
		meta := sourceState.Stake.Meta
		stake := sourceState.Stake.Stake
		flags := sourceState.Stake.StakeFlags

		err = meta.Authorized.Check(signers, StakeAuthorizeStaker)
		if err != nil {
			klog.Errorf("Split: staker %s did not sign", meta.Authorized.Staker)
			return err
		}

		minimumDelegation := determineMinimumDelegation(execCtx.Features)
		status := stake.Delegation.StakeActivatingAndDeactivating(clock.Epoch, stakeHistory, execCtx.WarmupCooldownRateEpoch())
		isActive := status.Effective > 0

		splitInfo, err := ValidateSplitAmount(sourceLamports, destinationLamports, splitLamports, &meta,
			destinationDataLen, minimumDelegation, isActive, rent)
		if err != nil {
			klog.Errorf("Split: %d lamports from %s not fundable", splitLamports, source.Key())
			return err
		}

		var remainingStakeDelta, splitStakeAmount uint64
		if splitInfo.SourceRemainingBalance == 0 {
			// a full split carries exactly the source stake, regardless of
			// any prefunding or reserve difference at the destination
			remainingStakeDelta = safemath.SaturatingSubU64(splitLamports, meta.RentExemptReserve)
			splitStakeAmount = remainingStakeDelta
		} else {
			if safemath.SaturatingSubU64(stake.Delegation.Stake, splitLamports) < minimumDelegation {
				klog.Errorf("Split: remaining stake below minimum delegation %d", minimumDelegation)
				return StakeErrInsufficientDelegation
			}
			remainingStakeDelta = splitLamports
			splitStakeAmount = safemath.SaturatingSubU64(splitLamports,
				safemath.SaturatingSubU64(splitInfo.DestinationRentExemptReserve, destinationLamports))
		}

		if splitStakeAmount < minimumDelegation {
			klog.Errorf("Split: split stake %d below minimum delegation %d", splitStakeAmount, minimumDelegation)
			return StakeErrInsufficientDelegation
		}

		destinationStake, err := stake.Split(remainingStakeDelta, splitStakeAmount)
		if err != nil {
			return err
		}

		destinationMeta := meta
		destinationMeta.RentExemptReserve = splitInfo.DestinationRentExemptReserve

		newSourceState = NewStakeStakeState(meta, stake, flags)
		newDestinationState = NewStakeStakeState(destinationMeta, destinationStake, flags)

	case StakeStateV2StatusInitialized:
		meta := sourceState.Initialized.Meta

		err = meta.Authorized.Check(signers, StakeAuthorizeStaker)
		if err != nil {
			klog.Errorf("Split: staker %s did not sign", meta.Authorized.Staker)
			return err
		}

		splitInfo, err := ValidateSplitAmount(sourceLamports, destinationLamports, splitLamports, &meta,
			destinationDataLen, 0, false, rent)
		if err != nil {
			klog.Errorf("Split: %d lamports from %s not fundable", splitLamports, source.Key())
			return err
		}

		destinationMeta := meta
		destinationMeta.RentExemptReserve = splitInfo.DestinationRentExemptReserve
		newDestinationState = NewInitializedStakeState(destinationMeta)

	case StakeStateV2StatusUninitialized:
		if !source.IsSigner() {
			klog.Errorf("Split: uninitialized source %s did not sign", source.Key())
			return InstrErrMissingRequiredSignature
		}

	default:
		return InstrErrInvalidAccountData
	}

	// deinitialize state upon zero balance
	if splitLamports == sourceLamports {
		newSourceState = &StakeStateV2{Status: StakeStateV2StatusUninitialized}
	}

	newSourceLamports := sourceLamports - splitLamports
	newDestinationLamports, err := safemath.CheckedAddU64(destinationLamports, splitLamports)
	if err != nil {
		return InstrErrArithmeticOverflow
	}

	var sourceData, destinationData []byte
	if newSourceState != nil {
		err = source.DataCanBeChanged()
		if err != nil {
			return err
		}
		sourceData, err = MarshalStakeState(newSourceState)
		if err != nil {
			return err
		}
	}
	if newDestinationState != nil {
		err = destination.DataCanBeChanged()
		if err != nil {
			return err
		}
		destinationData, err = MarshalStakeState(newDestinationState)
		if err != nil {
			return err
		}
	}
	if splitLamports != 0 {
		err = source.LamportsCanBeChanged(newSourceLamports)
		if err != nil {
			return err
		}
		err = destination.LamportsCanBeChanged(newDestinationLamports)
		if err != nil {
			return err
		}
	}

	if sourceData != nil {
		err = source.SetState(sourceData)
		if err != nil {
			return err
		}
	}
	if destinationData != nil {
		err = destination.SetState(destinationData)
		if err != nil {
			return err
		}
	}

	err = source.CheckedSubLamports(splitLamports)
	if err != nil {
		return err
	}
	err = destination.CheckedAddLamports(splitLamports)
	if err != nil {
		return err
	}

	klog.V(2).Infof("Split: moved %d lamports from %s to %s", splitLamports, source.Key(), destination.Key())
	return nil
}
