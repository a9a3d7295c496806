package sealevel

import (
	"github.com/gagliardetto/solana-go"
	"k8s.io/klog/v2"
)

// LockupCustodianArgs is the lockup context for a withdrawer change: the
// lockup being enforced, the current clock and the custodian account
// passed to the instruction, if any.
type LockupCustodianArgs struct {
	Lockup    StakeLockup
	Clock     SysvarClock
	Custodian *solana.PublicKey
}

// LockupArgs are the optional lockup fields of SetLockup. Nil fields are
// left unchanged.
type LockupArgs struct {
	UnixTimestamp *int64
	Epoch         *uint64
	Custodian     *solana.PublicKey
}

// IsInForce reports whether the lockup still restricts the account at
// clock. A custodian equal to the lockup's own custodian lifts it.
func (lockup *StakeLockup) IsInForce(clock SysvarClock, custodian *solana.PublicKey) bool {
	if custodian != nil && *custodian == lockup.Custodian {
		return false
	}
	return lockup.UnixTimestamp > clock.UnixTimestamp || lockup.Epoch > clock.Epoch
}

func (authorized *Authorized) Check(signers []solana.PublicKey, stakeAuthorize uint32) error {
	switch stakeAuthorize {
	case StakeAuthorizeStaker:
		return verifySigner(authorized.Staker, signers)
	case StakeAuthorizeWithdrawer:
		return verifySigner(authorized.Withdrawer, signers)
	default:
		return invalidEnumValue
	}
}

func (authorized *Authorized) Authorize(signers []solana.PublicKey, newAuthorized solana.PublicKey, stakeAuthorize uint32, lockupCustodianArgs *LockupCustodianArgs) error {
	switch stakeAuthorize {
	case StakeAuthorizeStaker:
		// the withdrawer may always reassign the staker
		if verifySigner(authorized.Staker, signers) != nil && verifySigner(authorized.Withdrawer, signers) != nil {
			return InstrErrMissingRequiredSignature
		}
		authorized.Staker = newAuthorized

	case StakeAuthorizeWithdrawer:
		if lockupCustodianArgs != nil {
			lockup := lockupCustodianArgs.Lockup
			clock := lockupCustodianArgs.Clock
			custodian := lockupCustodianArgs.Custodian

			if lockup.IsInForce(clock, nil) {
				if custodian == nil {
					return StakeErrCustodianMissing
				}
				if verifySigner(*custodian, signers) != nil {
					return StakeErrCustodianSignatureMissing
				}
				if lockup.IsInForce(clock, custodian) {
					return StakeErrLockupInForce
				}
			}
		}

		err := authorized.Check(signers, stakeAuthorize)
		if err != nil {
			return err
		}
		authorized.Withdrawer = newAuthorized

	default:
		return invalidEnumValue
	}

	return nil
}

// SetLockup applies the present fields of args. While the lockup is in
// force only the custodian may change it, otherwise the withdrawer.
func (meta *Meta) SetLockup(args LockupArgs, signers []solana.PublicKey, clock SysvarClock) error {
	if meta.Lockup.IsInForce(clock, nil) {
		err := verifySigner(meta.Lockup.Custodian, signers)
		if err != nil {
			klog.Errorf("SetLockup: lockup in force and custodian %s did not sign", meta.Lockup.Custodian)
			return err
		}
	} else {
		err := verifySigner(meta.Authorized.Withdrawer, signers)
		if err != nil {
			klog.Errorf("SetLockup: withdrawer %s did not sign", meta.Authorized.Withdrawer)
			return err
		}
	}

	if args.UnixTimestamp != nil {
		meta.Lockup.UnixTimestamp = *args.UnixTimestamp
	}
	if args.Epoch != nil {
		meta.Lockup.Epoch = *args.Epoch
	}
	if args.Custodian != nil {
		meta.Lockup.Custodian = *args.Custodian
	}
	return nil
}
