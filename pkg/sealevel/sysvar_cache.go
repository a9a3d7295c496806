package sealevel

import "go.firedancer.io/stake/pkg/base58"

const SysvarOwnerAddrStr = "Sysvar1111111111111111111111111111111111111"

// SysvarOwnerAddr owns every sysvar account.
var SysvarOwnerAddr = base58.MustDecodeFromString(SysvarOwnerAddrStr)

// SysvarCache holds the sysvars available to native programs. Sysvars that
// were never set read back as InstrErrUnsupportedSysvar.
type SysvarCache struct {
	clock        *SysvarClock
	rent         *SysvarRent
	stakeHistory *SysvarStakeHistory
}

func (sysvarCache *SysvarCache) SetClock(clock SysvarClock) {
	sysvarCache.clock = &clock
}

func (sysvarCache *SysvarCache) GetClock() (SysvarClock, error) {
	if sysvarCache.clock == nil {
		return SysvarClock{}, InstrErrUnsupportedSysvar
	}
	return *sysvarCache.clock, nil
}

func (sysvarCache *SysvarCache) SetRent(rent SysvarRent) {
	sysvarCache.rent = &rent
}

func (sysvarCache *SysvarCache) GetRent() (SysvarRent, error) {
	if sysvarCache.rent == nil {
		return SysvarRent{}, InstrErrUnsupportedSysvar
	}
	return *sysvarCache.rent, nil
}

func (sysvarCache *SysvarCache) SetStakeHistory(stakeHistory SysvarStakeHistory) {
	sysvarCache.stakeHistory = &stakeHistory
}

func (sysvarCache *SysvarCache) GetStakeHistory() (SysvarStakeHistory, error) {
	if sysvarCache.stakeHistory == nil {
		return nil, InstrErrUnsupportedSysvar
	}
	return *sysvarCache.stakeHistory, nil
}
