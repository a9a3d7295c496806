package sealevel

import (
	"bytes"
	"fmt"
	"sort"

	bin "github.com/gagliardetto/binary"
	"go.firedancer.io/stake/pkg/base58"
	"go.firedancer.io/stake/pkg/safemath"
)

const SysvarStakeHistoryAddrStr = "SysvarStakeHistory1111111111111111111111111"

var SysvarStakeHistoryAddr = base58.MustDecodeFromString(SysvarStakeHistoryAddrStr)

const StakeHistoryMaxEntries = 512

type StakeHistoryEntry struct {
	Effective    uint64
	Activating   uint64
	Deactivating uint64
}

// Add sums two entries field by field, saturating at math.MaxUint64.
func (entry StakeHistoryEntry) Add(other StakeHistoryEntry) StakeHistoryEntry {
	return StakeHistoryEntry{
		Effective:    safemath.SaturatingAddU64(entry.Effective, other.Effective),
		Activating:   safemath.SaturatingAddU64(entry.Activating, other.Activating),
		Deactivating: safemath.SaturatingAddU64(entry.Deactivating, other.Deactivating),
	}
}

type StakeHistoryPair struct {
	Epoch uint64
	Entry StakeHistoryEntry
}

// StakeHistoryLookup is the read side of the cluster stake history
// consumed by the activation engine.
type StakeHistoryLookup interface {
	Get(epoch uint64) *StakeHistoryEntry
}

// SysvarStakeHistory holds per-epoch cluster stake totals sorted by
// ascending epoch. The account encoding lists them newest first.
type SysvarStakeHistory []StakeHistoryPair

func (sh SysvarStakeHistory) search(epoch uint64) int {
	return sort.Search(len(sh), func(i int) bool {
		return sh[i].Epoch >= epoch
	})
}

// Add records entry for epoch, replacing an existing entry for the same
// epoch. Only the newest StakeHistoryMaxEntries epochs are kept.
func (sh *SysvarStakeHistory) Add(epoch uint64, entry StakeHistoryEntry) {
	history := *sh
	idx := history.search(epoch)
	if idx < len(history) && history[idx].Epoch == epoch {
		history[idx].Entry = entry
		return
	}

	history = append(history, StakeHistoryPair{})
	copy(history[idx+1:], history[idx:])
	history[idx] = StakeHistoryPair{Epoch: epoch, Entry: entry}

	if len(history) > StakeHistoryMaxEntries {
		history = history[len(history)-StakeHistoryMaxEntries:]
	}
	*sh = history
}

func (sh SysvarStakeHistory) Get(epoch uint64) *StakeHistoryEntry {
	entry, ok := sh.GetEntry(epoch)
	if !ok {
		return nil
	}
	return &entry
}

func (sh SysvarStakeHistory) GetEntry(epoch uint64) (StakeHistoryEntry, bool) {
	idx := sh.search(epoch)
	if idx < len(sh) && sh[idx].Epoch == epoch {
		return sh[idx].Entry, true
	}
	return StakeHistoryEntry{}, false
}

func (sh SysvarStakeHistory) Len() int {
	return len(sh)
}

func (sh *SysvarStakeHistory) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	entriesLen, err := decoder.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("failed to read length of entries when decoding SysvarStakeHistory: %w", err)
	}
	if entriesLen > StakeHistoryMaxEntries {
		return fmt.Errorf("too many entries when decoding SysvarStakeHistory: %d", entriesLen)
	}

	stakeHistory := SysvarStakeHistory{}

	for count := uint64(0); count < entriesLen; count++ {
		var pair StakeHistoryPair
		pair.Epoch, err = decoder.ReadUint64(bin.LE)
		if err != nil {
			return fmt.Errorf("failed to read Epoch when decoding SysvarStakeHistory: %w", err)
		}

		pair.Entry.Effective, err = decoder.ReadUint64(bin.LE)
		if err != nil {
			return fmt.Errorf("failed to read Effective when decoding SysvarStakeHistory: %w", err)
		}

		pair.Entry.Activating, err = decoder.ReadUint64(bin.LE)
		if err != nil {
			return fmt.Errorf("failed to read Activating when decoding SysvarStakeHistory: %w", err)
		}

		pair.Entry.Deactivating, err = decoder.ReadUint64(bin.LE)
		if err != nil {
			return fmt.Errorf("failed to read Deactivating when decoding SysvarStakeHistory: %w", err)
		}

		stakeHistory.Add(pair.Epoch, pair.Entry)
	}

	*sh = stakeHistory
	return
}

func (sh *SysvarStakeHistory) MarshalWithEncoder(encoder *bin.Encoder) error {
	history := *sh

	err := encoder.WriteUint64(uint64(len(history)), bin.LE)
	if err != nil {
		return fmt.Errorf("failed to serialize len of StakeHistory: %w", err)
	}

	for idx := len(history) - 1; idx >= 0; idx-- {
		err = encoder.WriteUint64(history[idx].Epoch, bin.LE)
		if err != nil {
			return fmt.Errorf("failed to serialize Epoch for StakeHistory: %w", err)
		}

		err = encoder.WriteUint64(history[idx].Entry.Effective, bin.LE)
		if err != nil {
			return fmt.Errorf("failed to serialize Effective for StakeHistory: %w", err)
		}

		err = encoder.WriteUint64(history[idx].Entry.Activating, bin.LE)
		if err != nil {
			return fmt.Errorf("failed to serialize Activating for StakeHistory: %w", err)
		}

		err = encoder.WriteUint64(history[idx].Entry.Deactivating, bin.LE)
		if err != nil {
			return fmt.Errorf("failed to serialize Deactivating for StakeHistory: %w", err)
		}
	}
	return nil
}

func (sh *SysvarStakeHistory) Marshal() ([]byte, error) {
	data := new(bytes.Buffer)
	enc := bin.NewBinEncoder(data)

	err := sh.MarshalWithEncoder(enc)
	if err != nil {
		return nil, err
	}
	return data.Bytes(), nil
}
