package sealevel

import (
	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/stake/pkg/features"
	"k8s.io/klog/v2"
)

// ExecutionCtx carries everything a native program may consult while
// executing one instruction. Sysvars come from SysvarCache rather than from
// accounts looked up at runtime.
type ExecutionCtx struct {
	TransactionContext *TransactionCtx
	SysvarCache        SysvarCache
	Features           features.Features

	// NewWarmupCooldownRateEpoch is the epoch from which the reduced
	// warmup/cooldown rate applies. nil keeps the default rate forever.
	NewWarmupCooldownRateEpoch *uint64
}

// PrepareInstruction maps the instruction's account metas onto transaction
// account indices. Repeated metas for the same account are merged, with
// signer and writable flags OR'd together.
func (execCtx *ExecutionCtx) PrepareInstruction(ix Instruction) ([]InstructionAccount, []uint64, error) {
	txCtx := execCtx.TransactionContext

	dedupInstructionAccounts := make([]InstructionAccount, 0)
	duplicateIndices := make([]uint64, 0)

	for instructionAcctIndex, accountMeta := range ix.Accounts {
		indexInTx, err := txCtx.IndexOfAccount(accountMeta.Pubkey)
		if err != nil {
			klog.Errorf("instruction references unknown account %s", accountMeta.Pubkey)
			return nil, nil, err
		}

		duplicateIndex := -1
		for index, instrAcct := range dedupInstructionAccounts {
			if instrAcct.IndexInTransaction == indexInTx {
				duplicateIndex = index
				break
			}
		}

		if duplicateIndex != -1 {
			duplicateIndices = append(duplicateIndices, uint64(duplicateIndex))
			dedupInstructionAccounts[duplicateIndex].IsSigner = dedupInstructionAccounts[duplicateIndex].IsSigner || accountMeta.IsSigner
			dedupInstructionAccounts[duplicateIndex].IsWritable = dedupInstructionAccounts[duplicateIndex].IsWritable || accountMeta.IsWritable
		} else {
			duplicateIndices = append(duplicateIndices, uint64(len(dedupInstructionAccounts)))
			instrAcct := InstructionAccount{IndexInTransaction: indexInTx,
				IndexInCaller: indexInTx,
				IndexInCallee: uint64(instructionAcctIndex),
				IsSigner:      accountMeta.IsSigner,
				IsWritable:    accountMeta.IsWritable}
			dedupInstructionAccounts = append(dedupInstructionAccounts, instrAcct)
		}
	}

	instructionAccounts := make([]InstructionAccount, 0, len(duplicateIndices))
	for _, duplicateIndex := range duplicateIndices {
		instrAcct := dedupInstructionAccounts[duplicateIndex]
		instructionAccounts = append(instructionAccounts, instrAcct)
	}

	programAcctIdx, err := txCtx.IndexOfAccount(ix.ProgramId)
	if err != nil {
		klog.Errorf("unknown program %s", ix.ProgramId)
		return nil, nil, InstrErrUnsupportedProgramId
	}

	programAcct, err := txCtx.Accounts.GetAccount(programAcctIdx)
	if err != nil {
		return nil, nil, err
	}
	if !programAcct.Executable {
		klog.Errorf("account %s is not executable", ix.ProgramId)
		return nil, nil, InstrErrAccountNotExecutable
	}

	return instructionAccounts, []uint64{programAcctIdx}, nil
}

func (execCtx *ExecutionCtx) ProcessInstruction(instrData []byte, instructionAccts []InstructionAccount, programIndices []uint64) error {
	txCtx := execCtx.TransactionContext

	instrCtx := new(InstructionCtx)
	instrCtx.Configure(programIndices, instructionAccts, instrData)

	programId, err := instrCtx.LastProgramKey(txCtx)
	if err != nil {
		return InstrErrUnsupportedProgramId
	}
	instrCtx.programId = programId

	txCtx.PushInstructionCtx(instrCtx)
	err1 := execCtx.ExecuteInstruction()
	err2 := txCtx.PopInstructionCtx()
	if err1 != nil {
		return err1
	}
	return err2
}

func (execCtx *ExecutionCtx) ExecuteInstruction() error {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	borrowedRootAccount, err := instrCtx.BorrowProgramAccount(txCtx, 0)
	if err != nil {
		return InstrErrUnsupportedProgramId
	}
	ownerId := borrowedRootAccount.Owner()
	rootKey := borrowedRootAccount.Key()
	borrowedRootAccount.Drop()

	var builtinId solana.PublicKey
	if ownerId == NativeLoaderAddr {
		builtinId = rootKey
	} else {
		builtinId = ownerId
	}

	nativeProgramFn, err := resolveNativeProgramById(builtinId)
	if err != nil {
		klog.V(2).Infof("no native program for %s", builtinId)
		return err
	}

	return nativeProgramFn(execCtx)
}

// Invoke prepares and runs ix as a top-level instruction.
func (execCtx *ExecutionCtx) Invoke(ix Instruction) error {
	instrAccts, programIndices, err := execCtx.PrepareInstruction(ix)
	if err != nil {
		return err
	}
	return execCtx.ProcessInstruction(ix.Data, instrAccts, programIndices)
}
