// Package features tracks which protocol feature gates are active.
package features

import (
	"fmt"
	"sort"

	"go.firedancer.io/stake/pkg/base58"
)

// Features maps an enabled feature gate to the slot it was activated at.
type Features struct {
	enabled map[[32]byte]enabledFeature
}

type enabledFeature struct {
	gate FeatureGate
	slot uint64
}

func NewFeaturesDefault() *Features {
	return &Features{enabled: make(map[[32]byte]enabledFeature)}
}

func (f *Features) EnableFeature(gate FeatureGate, slot uint64) {
	if f.enabled == nil {
		f.enabled = make(map[[32]byte]enabledFeature)
	}
	f.enabled[gate.Address] = enabledFeature{gate: gate, slot: slot}
}

func (f *Features) DisableFeature(gate FeatureGate) {
	delete(f.enabled, gate.Address)
}

func (f Features) IsActive(gate FeatureGate) bool {
	_, ok := f.enabled[gate.Address]
	return ok
}

// ActivationSlot returns the slot at which gate was enabled.
func (f Features) ActivationSlot(gate FeatureGate) (uint64, bool) {
	feature, ok := f.enabled[gate.Address]
	return feature.slot, ok
}

// AllEnabled returns a human readable line per enabled gate, sorted by name.
func (f Features) AllEnabled() []string {
	names := make([]string, 0, len(f.enabled))
	for _, feature := range f.enabled {
		names = append(names, fmt.Sprintf("feature %s (%s) enabled", feature.gate.Name, base58.Encode(feature.gate.Address[:])))
	}
	sort.Strings(names)
	return names
}
