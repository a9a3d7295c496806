// Package config loads the cluster environment stake instructions execute
// against: clock, rent, stake history, active feature gates and the
// warmup/cooldown rate change epoch.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"go.firedancer.io/stake/pkg/features"
	"go.firedancer.io/stake/pkg/sealevel"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownFeature        = errors.New("unknown feature gate")
	ErrInvalidRent           = errors.New("invalid rent parameters")
	ErrDuplicateHistoryEpoch = errors.New("duplicate stake history epoch")
	ErrTooManyHistoryEntries = errors.New("too many stake history entries")
)

type Clock struct {
	Slot                uint64 `yaml:"slot"`
	EpochStartTimestamp int64  `yaml:"epoch_start_timestamp"`
	Epoch               uint64 `yaml:"epoch"`
	LeaderScheduleEpoch uint64 `yaml:"leader_schedule_epoch"`
	UnixTimestamp       int64  `yaml:"unix_timestamp"`
}

type Rent struct {
	LamportsPerByteYear uint64  `yaml:"lamports_per_byte_year"`
	ExemptionThreshold  float64 `yaml:"exemption_threshold"`
	BurnPercent         uint8   `yaml:"burn_percent"`
}

type StakeHistoryEntry struct {
	Epoch        uint64 `yaml:"epoch"`
	Effective    uint64 `yaml:"effective"`
	Activating   uint64 `yaml:"activating"`
	Deactivating uint64 `yaml:"deactivating"`
}

type Config struct {
	Clock Clock `yaml:"clock"`

	// Rent defaults to sealevel.DefaultRent when omitted.
	Rent *Rent `yaml:"rent"`

	// NewWarmupCooldownRateEpoch only takes effect while the
	// ReduceStakeWarmupCooldown gate is listed in FeatureNames.
	NewWarmupCooldownRateEpoch *uint64 `yaml:"new_warmup_cooldown_rate_epoch"`

	FeatureNames []string            `yaml:"features"`
	StakeHistory []StakeHistoryEntry `yaml:"stake_history"`
}

// Load reads and validates the YAML config at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML config. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := new(Config)

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	err := decoder.Decode(cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	if cfg.Rent != nil {
		threshold := cfg.Rent.ExemptionThreshold
		if math.IsNaN(threshold) || math.IsInf(threshold, 0) || threshold < 0 {
			return fmt.Errorf("%w: exemption threshold %v", ErrInvalidRent, threshold)
		}
		if cfg.Rent.BurnPercent > 100 {
			return fmt.Errorf("%w: burn percent %d", ErrInvalidRent, cfg.Rent.BurnPercent)
		}
	}

	for _, name := range cfg.FeatureNames {
		if _, ok := features.GateByName(name); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownFeature, name)
		}
	}

	if len(cfg.StakeHistory) > sealevel.StakeHistoryMaxEntries {
		return fmt.Errorf("%w: %d", ErrTooManyHistoryEntries, len(cfg.StakeHistory))
	}
	seen := make(map[uint64]struct{}, len(cfg.StakeHistory))
	for _, entry := range cfg.StakeHistory {
		if _, dup := seen[entry.Epoch]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateHistoryEpoch, entry.Epoch)
		}
		seen[entry.Epoch] = struct{}{}
	}

	return nil
}

func (cfg *Config) SysvarClock() sealevel.SysvarClock {
	return sealevel.SysvarClock{
		Slot:                cfg.Clock.Slot,
		EpochStartTimestamp: cfg.Clock.EpochStartTimestamp,
		Epoch:               cfg.Clock.Epoch,
		LeaderScheduleEpoch: cfg.Clock.LeaderScheduleEpoch,
		UnixTimestamp:       cfg.Clock.UnixTimestamp,
	}
}

func (cfg *Config) SysvarRent() sealevel.SysvarRent {
	if cfg.Rent == nil {
		return sealevel.DefaultRent()
	}
	return sealevel.SysvarRent{
		LamportsPerUint8Year: cfg.Rent.LamportsPerByteYear,
		ExemptionThreshold:   cfg.Rent.ExemptionThreshold,
		BurnPercent:          cfg.Rent.BurnPercent,
	}
}

func (cfg *Config) SysvarStakeHistory() sealevel.SysvarStakeHistory {
	var history sealevel.SysvarStakeHistory
	for _, entry := range cfg.StakeHistory {
		history.Add(entry.Epoch, sealevel.StakeHistoryEntry{
			Effective:    entry.Effective,
			Activating:   entry.Activating,
			Deactivating: entry.Deactivating,
		})
	}
	return history
}

// SysvarCache returns a cache populated with the configured clock, rent
// and stake history.
func (cfg *Config) SysvarCache() sealevel.SysvarCache {
	var sysvarCache sealevel.SysvarCache
	sysvarCache.SetClock(cfg.SysvarClock())
	sysvarCache.SetRent(cfg.SysvarRent())
	sysvarCache.SetStakeHistory(cfg.SysvarStakeHistory())
	return sysvarCache
}

// Features activates every listed gate at slot 0.
func (cfg *Config) Features() (*features.Features, error) {
	f := features.NewFeaturesDefault()
	for _, name := range cfg.FeatureNames {
		gate, ok := features.GateByName(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownFeature, name)
		}
		f.EnableFeature(gate, 0)
	}
	return f, nil
}

// NewWarmupCooldownRateActivationEpoch returns the configured rate change
// epoch, or nil when the reduced rate never applies.
func (cfg *Config) NewWarmupCooldownRateActivationEpoch() *uint64 {
	if cfg.NewWarmupCooldownRateEpoch == nil {
		return nil
	}
	epoch := *cfg.NewWarmupCooldownRateEpoch
	return &epoch
}

// ExecutionCtx builds an execution context over txCtx with the configured
// environment.
func (cfg *Config) ExecutionCtx(txCtx *sealevel.TransactionCtx) (*sealevel.ExecutionCtx, error) {
	f, err := cfg.Features()
	if err != nil {
		return nil, err
	}
	return &sealevel.ExecutionCtx{
		TransactionContext:         txCtx,
		SysvarCache:                cfg.SysvarCache(),
		Features:                   *f,
		NewWarmupCooldownRateEpoch: cfg.NewWarmupCooldownRateActivationEpoch(),
	}, nil
}
