package sealevel

import (
	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/stake/pkg/accounts"
)

type TransactionAccounts struct {
	Accounts []*accounts.Account
	Touched  []bool
	borrowed []bool
}

func NewTransactionAccounts(accts []accounts.Account) *TransactionAccounts {
	txAccounts := new(TransactionAccounts)
	for idx := range accts {
		txAccounts.Accounts = append(txAccounts.Accounts, accts[idx].Clone())
	}
	txAccounts.Touched = make([]bool, len(accts))
	txAccounts.borrowed = make([]bool, len(accts))
	return txAccounts
}

func (txAccounts *TransactionAccounts) GetAccount(idx uint64) (*accounts.Account, error) {
	if idx >= uint64(len(txAccounts.Accounts)) {
		return nil, InstrErrMissingAccount
	}
	return txAccounts.Accounts[idx], nil
}

func (txAccounts *TransactionAccounts) Touch(idx uint64) error {
	if idx >= uint64(len(txAccounts.Touched)) {
		return InstrErrNotEnoughAccountKeys
	}
	txAccounts.Touched[idx] = true
	return nil
}

func (txAccounts *TransactionAccounts) TouchedAccounts() []*accounts.Account {
	var touched []*accounts.Account
	for idx, acct := range txAccounts.Accounts {
		if txAccounts.Touched[idx] {
			touched = append(touched, acct)
		}
	}
	return touched
}

func (txAccounts *TransactionAccounts) tryBorrow(idx uint64) (*accounts.Account, error) {
	acct, err := txAccounts.GetAccount(idx)
	if err != nil {
		return nil, err
	}
	if txAccounts.borrowed[idx] {
		return nil, InstrErrAccountBorrowOutstanding
	}
	txAccounts.borrowed[idx] = true
	return acct, nil
}

func (txAccounts *TransactionAccounts) release(idx uint64) {
	if idx < uint64(len(txAccounts.borrowed)) {
		txAccounts.borrowed[idx] = false
	}
}

type TxReturnData struct {
	programId solana.PublicKey
	data      []byte
}

type TransactionCtx struct {
	Accounts         *TransactionAccounts
	instructionStack []*InstructionCtx
	returnData       TxReturnData
}

func NewTransactionCtx(txAccounts *TransactionAccounts) *TransactionCtx {
	return &TransactionCtx{Accounts: txAccounts}
}

func (txCtx *TransactionCtx) PushInstructionCtx(ixCtx *InstructionCtx) {
	txCtx.instructionStack = append(txCtx.instructionStack, ixCtx)
}

func (txCtx *TransactionCtx) PopInstructionCtx() error {
	if len(txCtx.instructionStack) == 0 {
		return InstrErrCallDepth
	}
	txCtx.instructionStack = txCtx.instructionStack[:len(txCtx.instructionStack)-1]
	return nil
}

func (txCtx *TransactionCtx) InstructionCtxStackHeight() uint64 {
	return uint64(len(txCtx.instructionStack))
}

func (txCtx *TransactionCtx) CurrentInstructionCtx() (*InstructionCtx, error) {
	if len(txCtx.instructionStack) == 0 {
		return nil, InstrErrCallDepth
	}
	return txCtx.instructionStack[len(txCtx.instructionStack)-1], nil
}

func (txCtx *TransactionCtx) KeyOfAccountAtIndex(index uint64) (solana.PublicKey, error) {
	acct, err := txCtx.Accounts.GetAccount(index)
	if err != nil {
		return solana.PublicKey{}, InstrErrNotEnoughAccountKeys
	}
	return acct.Key, nil
}

func (txCtx *TransactionCtx) IndexOfAccount(pubkey solana.PublicKey) (uint64, error) {
	for idx, acct := range txCtx.Accounts.Accounts {
		if acct.Key == pubkey {
			return uint64(idx), nil
		}
	}
	return 0, InstrErrMissingAccount
}

func (txCtx *TransactionCtx) SetReturnData(programId solana.PublicKey, data []byte) {
	txCtx.returnData.programId = programId
	txCtx.returnData.data = append([]byte(nil), data...)
}

func (txCtx *TransactionCtx) ReturnData() (solana.PublicKey, []byte) {
	return txCtx.returnData.programId, txCtx.returnData.data
}
