package sealevel

import (
	"math"

	"go.firedancer.io/stake/pkg/safemath"
)

const (
	DefaultWarmupCooldownRate = 0.25
	NewWarmupCooldownRate     = 0.09
)

// warmupCooldownRate is the fraction of cluster effective stake that may
// newly activate or deactivate in currentEpoch.
func warmupCooldownRate(currentEpoch uint64, newRateActivationEpoch *uint64) float64 {
	if newRateActivationEpoch == nil {
		return DefaultWarmupCooldownRate
	}
	if currentEpoch < *newRateActivationEpoch {
		return DefaultWarmupCooldownRate
	}
	return NewWarmupCooldownRate
}

func (delegation *Delegation) IsBootstrap() bool {
	return delegation.ActivationEpoch == math.MaxUint64
}

func (delegation *Delegation) IsDeactivating() bool {
	return delegation.DeactivationEpoch != math.MaxUint64
}

// EffectiveStake is the portion of the delegation that is effective at
// epoch.
func (delegation *Delegation) EffectiveStake(epoch uint64, history StakeHistoryLookup, newRateActivationEpoch *uint64) uint64 {
	return delegation.StakeActivatingAndDeactivating(epoch, history, newRateActivationEpoch).Effective
}

// StakeActivatingAndDeactivating splits the delegated stake into its
// effective, activating and deactivating parts at targetEpoch.
func (delegation *Delegation) StakeActivatingAndDeactivating(targetEpoch uint64, history StakeHistoryLookup, newRateActivationEpoch *uint64) StakeHistoryEntry {
	var epochsWalked int
	defer func() {
		if epochsWalked > 0 {
			activationEpochsWalked.Observe(float64(epochsWalked))
		}
	}()

	effectiveStake, activatingStake, walked := delegation.stakeAndActivating(targetEpoch, history, newRateActivationEpoch)
	epochsWalked += walked

	if targetEpoch < delegation.DeactivationEpoch {
		return StakeHistoryEntry{Effective: effectiveStake, Activating: activatingStake}
	} else if targetEpoch == delegation.DeactivationEpoch {
		// can only deactivate what's effective
		return StakeHistoryEntry{Effective: effectiveStake, Deactivating: effectiveStake}
	}

	clusterStakeAtDeactivationEpoch := history.Get(delegation.DeactivationEpoch)
	if clusterStakeAtDeactivationEpoch == nil {
		// no history or dropped out of history, so assume fully deactivated
		return StakeHistoryEntry{}
	}

	prevEpoch := delegation.DeactivationEpoch
	prevClusterStake := *clusterStakeAtDeactivationEpoch
	currentEffectiveStake := effectiveStake

	for {
		currentEpoch := prevEpoch + 1
		epochsWalked++

		// nothing left deactivating cluster-wide, so ours is done too
		if prevClusterStake.Deactivating == 0 {
			currentEffectiveStake = 0
			break
		}

		// our share of the cluster's deactivating stake in the previous epoch
		weight := float64(currentEffectiveStake) / float64(prevClusterStake.Deactivating)
		rate := warmupCooldownRate(currentEpoch, newRateActivationEpoch)

		newlyNotEffectiveClusterStake := float64(prevClusterStake.Effective) * rate
		newlyNotEffectiveStake := max(safemath.F64ToU64(weight*newlyNotEffectiveClusterStake), 1)

		currentEffectiveStake = safemath.SaturatingSubU64(currentEffectiveStake, newlyNotEffectiveStake)
		if currentEffectiveStake == 0 {
			break
		}

		if currentEpoch >= targetEpoch {
			break
		}

		currentClusterStake := history.Get(currentEpoch)
		if currentClusterStake == nil {
			break
		}
		prevEpoch = currentEpoch
		prevClusterStake = *currentClusterStake
	}

	return StakeHistoryEntry{Effective: currentEffectiveStake, Deactivating: currentEffectiveStake}
}

// stakeAndActivating returns the effective and activating stake at
// targetEpoch ignoring deactivation, plus the number of history epochs
// walked.
func (delegation *Delegation) stakeAndActivating(targetEpoch uint64, history StakeHistoryLookup, newRateActivationEpoch *uint64) (uint64, uint64, int) {
	delegatedStake := delegation.Stake

	if delegation.IsBootstrap() {
		return delegatedStake, 0, 0
	} else if delegation.ActivationEpoch == delegation.DeactivationEpoch {
		// activated and deactivated in the same epoch
		return 0, 0, 0
	} else if targetEpoch == delegation.ActivationEpoch {
		return 0, delegatedStake, 0
	} else if targetEpoch < delegation.ActivationEpoch {
		return 0, 0, 0
	}

	clusterStakeAtActivationEpoch := history.Get(delegation.ActivationEpoch)
	if clusterStakeAtActivationEpoch == nil {
		// no history or dropped out of history, so assume fully effective
		return delegatedStake, 0, 0
	}

	prevEpoch := delegation.ActivationEpoch
	prevClusterStake := *clusterStakeAtActivationEpoch
	currentEffectiveStake := uint64(0)
	var walked int

	for {
		currentEpoch := prevEpoch + 1
		walked++

		// cluster activating stake exhausted, so ours is fully effective
		if prevClusterStake.Activating == 0 {
			currentEffectiveStake = delegatedStake
			break
		}

		remainingActivatingStake := delegatedStake - currentEffectiveStake
		weight := float64(remainingActivatingStake) / float64(prevClusterStake.Activating)
		rate := warmupCooldownRate(currentEpoch, newRateActivationEpoch)

		newlyEffectiveClusterStake := float64(prevClusterStake.Effective) * rate
		newlyEffectiveStake := max(safemath.F64ToU64(weight*newlyEffectiveClusterStake), 1)

		currentEffectiveStake = safemath.SaturatingAddU64(currentEffectiveStake, newlyEffectiveStake)
		if currentEffectiveStake >= delegatedStake {
			currentEffectiveStake = delegatedStake
			break
		}

		if currentEpoch >= targetEpoch || currentEpoch >= delegation.DeactivationEpoch {
			break
		}

		currentClusterStake := history.Get(currentEpoch)
		if currentClusterStake == nil {
			break
		}
		prevEpoch = currentEpoch
		prevClusterStake = *currentClusterStake
	}

	return currentEffectiveStake, delegatedStake - currentEffectiveStake, walked
}

// Split moves remainingStakeDelta out of this stake and returns a copy
// delegating splitStakeAmount.
func (stake *Stake) Split(remainingStakeDelta uint64, splitStakeAmount uint64) (Stake, error) {
	if remainingStakeDelta > stake.Delegation.Stake {
		return Stake{}, StakeErrInsufficientStake
	}
	stake.Delegation.Stake -= remainingStakeDelta

	newStake := *stake
	newStake.Delegation.Stake = splitStakeAmount
	return newStake, nil
}

func (stake *Stake) Deactivate(epoch uint64) error {
	if stake.Delegation.IsDeactivating() {
		return StakeErrAlreadyDeactivated
	}
	stake.Delegation.DeactivationEpoch = epoch
	return nil
}
