package sealevel

import "errors"

// instruction errors
var (
	InstrErrInvalidArgument             = errors.New("InstrErrInvalidArgument")
	InstrErrInvalidInstructionData      = errors.New("InstrErrInvalidInstructionData")
	InstrErrInvalidAccountData          = errors.New("InstrErrInvalidAccountData")
	InstrErrAccountDataTooSmall         = errors.New("InstrErrAccountDataTooSmall")
	InstrErrInsufficientFunds           = errors.New("InstrErrInsufficientFunds")
	InstrErrIncorrectProgramId          = errors.New("InstrErrIncorrectProgramId")
	InstrErrMissingRequiredSignature    = errors.New("InstrErrMissingRequiredSignature")
	InstrErrAccountAlreadyInitialized   = errors.New("InstrErrAccountAlreadyInitialized")
	InstrErrUninitializedAccount        = errors.New("InstrErrUninitializedAccount")
	InstrErrExternalAccountLamportSpend = errors.New("InstrErrExternalAccountLamportSpend")
	InstrErrExternalAccountDataModified = errors.New("InstrErrExternalAccountDataModified")
	InstrErrReadonlyLamportChange       = errors.New("InstrErrReadonlyLamportChange")
	InstrErrReadonlyDataModified        = errors.New("InstrErrReadonlyDataModified")
	InstrErrNotEnoughAccountKeys        = errors.New("InstrErrNotEnoughAccountKeys")
	InstrErrAccountDataSizeChanged      = errors.New("InstrErrAccountDataSizeChanged")
	InstrErrAccountNotExecutable        = errors.New("InstrErrAccountNotExecutable")
	InstrErrAccountBorrowOutstanding    = errors.New("InstrErrAccountBorrowOutstanding")
	InstrErrExecutableDataModified      = errors.New("InstrErrExecutableDataModified")
	InstrErrExecutableLamportChange     = errors.New("InstrErrExecutableLamportChange")
	InstrErrUnsupportedProgramId        = errors.New("InstrErrUnsupportedProgramId")
	InstrErrMissingAccount              = errors.New("InstrErrMissingAccount")
	InstrErrCallDepth                   = errors.New("InstrErrCallDepth")
	InstrErrMaxSeedLengthExceeded       = errors.New("InstrErrMaxSeedLengthExceeded")
	InstrErrInvalidAccountOwner         = errors.New("InstrErrInvalidAccountOwner")
	InstrErrArithmeticOverflow          = errors.New("InstrErrArithmeticOverflow")
	InstrErrUnsupportedSysvar           = errors.New("InstrErrUnsupportedSysvar")
	InstrErrIllegalOwner                = errors.New("InstrErrIllegalOwner")
)

// stake errors, in custom error code order
var (
	StakeErrNoCreditsToRedeem                                         = errors.New("StakeErrNoCreditsToRedeem")
	StakeErrLockupInForce                                             = errors.New("StakeErrLockupInForce")
	StakeErrAlreadyDeactivated                                        = errors.New("StakeErrAlreadyDeactivated")
	StakeErrTooSoonToRedelegate                                       = errors.New("StakeErrTooSoonToRedelegate")
	StakeErrInsufficientStake                                         = errors.New("StakeErrInsufficientStake")
	StakeErrMergeTransientStake                                       = errors.New("StakeErrMergeTransientStake")
	StakeErrMergeMismatch                                             = errors.New("StakeErrMergeMismatch")
	StakeErrCustodianMissing                                          = errors.New("StakeErrCustodianMissing")
	StakeErrCustodianSignatureMissing                                 = errors.New("StakeErrCustodianSignatureMissing")
	StakeErrInsufficientReferenceVotes                                = errors.New("StakeErrInsufficientReferenceVotes")
	StakeErrVoteAddressMismatch                                       = errors.New("StakeErrVoteAddressMismatch")
	StakeErrMinimumDelinquentEpochsForDeactivationNotMet              = errors.New("StakeErrMinimumDelinquentEpochsForDeactivationNotMet")
	StakeErrInsufficientDelegation                                    = errors.New("StakeErrInsufficientDelegation")
	StakeErrRedelegateTransientOrInactiveStake                        = errors.New("StakeErrRedelegateTransientOrInactiveStake")
	StakeErrRedelegateToSameVoteAccount                               = errors.New("StakeErrRedelegateToSameVoteAccount")
	StakeErrRedelegatedStakeMustFullyActivateBeforeDeactivationIsPermitted = errors.New("StakeErrRedelegatedStakeMustFullyActivateBeforeDeactivationIsPermitted")
	StakeErrEpochRewardsActive                                        = errors.New("StakeErrEpochRewardsActive")
)

var stakeErrs = []error{
	StakeErrNoCreditsToRedeem,
	StakeErrLockupInForce,
	StakeErrAlreadyDeactivated,
	StakeErrTooSoonToRedelegate,
	StakeErrInsufficientStake,
	StakeErrMergeTransientStake,
	StakeErrMergeMismatch,
	StakeErrCustodianMissing,
	StakeErrCustodianSignatureMissing,
	StakeErrInsufficientReferenceVotes,
	StakeErrVoteAddressMismatch,
	StakeErrMinimumDelinquentEpochsForDeactivationNotMet,
	StakeErrInsufficientDelegation,
	StakeErrRedelegateTransientOrInactiveStake,
	StakeErrRedelegateToSameVoteAccount,
	StakeErrRedelegatedStakeMustFullyActivateBeforeDeactivationIsPermitted,
	StakeErrEpochRewardsActive,
}

// instruction errors - Solana numerical error codes (enum index + 1)
const (
	InstrErrCodeSuccess                     = 0
	InstrErrCodeInvalidArgument             = 2
	InstrErrCodeInvalidInstructionData      = 3
	InstrErrCodeInvalidAccountData          = 4
	InstrErrCodeAccountDataTooSmall         = 5
	InstrErrCodeInsufficientFunds           = 6
	InstrErrCodeIncorrectProgramId          = 7
	InstrErrCodeMissingRequiredSignature    = 8
	InstrErrCodeAccountAlreadyInitialized   = 9
	InstrErrCodeUninitializedAccount        = 10
	InstrErrCodeExternalAccountLamportSpend = 13
	InstrErrCodeExternalAccountDataModified = 14
	InstrErrCodeReadonlyLamportChange       = 15
	InstrErrCodeReadonlyDataModified        = 16
	InstrErrCodeNotEnoughAccountKeys        = 20
	InstrErrCodeAccountDataSizeChanged      = 21
	InstrErrCodeAccountNotExecutable        = 22
	InstrErrCodeAccountBorrowOutstanding    = 24
	InstrErrCodeCustom                      = 26
	InstrErrCodeExecutableDataModified      = 28
	InstrErrCodeExecutableLamportChange     = 29
	InstrErrCodeUnsupportedProgramId        = 31
	InstrErrCodeMissingAccount              = 33
	InstrErrCodeCallDepth                   = 34
	InstrErrCodeMaxSeedLengthExceeded       = 35
	InstrErrCodeInvalidAccountOwner         = 47
	InstrErrCodeArithmeticOverflow          = 48
	InstrErrCodeUnsupportedSysvar           = 49
	InstrErrCodeIllegalOwner                = 50
)

var instrErrCodes = map[error]int{
	InstrErrInvalidArgument:             InstrErrCodeInvalidArgument,
	InstrErrInvalidInstructionData:      InstrErrCodeInvalidInstructionData,
	InstrErrInvalidAccountData:          InstrErrCodeInvalidAccountData,
	InstrErrAccountDataTooSmall:         InstrErrCodeAccountDataTooSmall,
	InstrErrInsufficientFunds:           InstrErrCodeInsufficientFunds,
	InstrErrIncorrectProgramId:          InstrErrCodeIncorrectProgramId,
	InstrErrMissingRequiredSignature:    InstrErrCodeMissingRequiredSignature,
	InstrErrAccountAlreadyInitialized:   InstrErrCodeAccountAlreadyInitialized,
	InstrErrUninitializedAccount:        InstrErrCodeUninitializedAccount,
	InstrErrExternalAccountLamportSpend: InstrErrCodeExternalAccountLamportSpend,
	InstrErrExternalAccountDataModified: InstrErrCodeExternalAccountDataModified,
	InstrErrReadonlyLamportChange:       InstrErrCodeReadonlyLamportChange,
	InstrErrReadonlyDataModified:        InstrErrCodeReadonlyDataModified,
	InstrErrNotEnoughAccountKeys:        InstrErrCodeNotEnoughAccountKeys,
	InstrErrAccountDataSizeChanged:      InstrErrCodeAccountDataSizeChanged,
	InstrErrAccountNotExecutable:        InstrErrCodeAccountNotExecutable,
	InstrErrAccountBorrowOutstanding:    InstrErrCodeAccountBorrowOutstanding,
	InstrErrExecutableDataModified:      InstrErrCodeExecutableDataModified,
	InstrErrExecutableLamportChange:     InstrErrCodeExecutableLamportChange,
	InstrErrUnsupportedProgramId:        InstrErrCodeUnsupportedProgramId,
	InstrErrMissingAccount:              InstrErrCodeMissingAccount,
	InstrErrCallDepth:                   InstrErrCodeCallDepth,
	InstrErrMaxSeedLengthExceeded:       InstrErrCodeMaxSeedLengthExceeded,
	InstrErrInvalidAccountOwner:         InstrErrCodeInvalidAccountOwner,
	InstrErrArithmeticOverflow:          InstrErrCodeArithmeticOverflow,
	InstrErrUnsupportedSysvar:           InstrErrCodeUnsupportedSysvar,
	InstrErrIllegalOwner:                InstrErrCodeIllegalOwner,
}

// StakeErrCode returns the custom program error code of a stake error.
func StakeErrCode(err error) (uint32, bool) {
	for code, stakeErr := range stakeErrs {
		if errors.Is(err, stakeErr) {
			return uint32(code), true
		}
	}
	return 0, false
}

// TranslateErrToInstrErrCode maps err onto the numeric instruction error
// code reported across the runtime boundary. Stake errors report as Custom;
// the custom code itself comes from StakeErrCode.
func TranslateErrToInstrErrCode(err error) int {
	if err == nil {
		return InstrErrCodeSuccess
	}
	if _, isStakeErr := StakeErrCode(err); isStakeErr {
		return InstrErrCodeCustom
	}
	for instrErr, code := range instrErrCodes {
		if errors.Is(err, instrErr) {
			return code
		}
	}
	// generic error
	return 1
}
