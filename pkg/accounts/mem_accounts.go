package accounts

import (
	"errors"
	"sync"
)

var ErrNoAccount = errors.New("ErrNoAccount")

// MemAccounts is an in-memory Accounts store. Stored accounts are copied
// on the way in and out, so callers never share a data buffer with it.
type MemAccounts struct {
	mu  sync.RWMutex
	Map map[[32]byte]*Account
}

func NewMemAccounts() *MemAccounts {
	return &MemAccounts{
		Map: make(map[[32]byte]*Account),
	}
}

func (m *MemAccounts) GetAccount(pubkey *[32]byte) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acct, ok := m.Map[*pubkey]
	if !ok {
		return nil, ErrNoAccount
	}
	return acct.Clone(), nil
}

func (m *MemAccounts) SetAccount(pubkey *[32]byte, acc *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Map[*pubkey] = acc.Clone()
	return nil
}
