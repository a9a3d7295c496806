package features

import (
	"go.firedancer.io/stake/pkg/base58"
)

type FeatureGate struct {
	Name    string
	Address [32]byte
}

var StakeRaiseMinimumDelegationTo1Sol = FeatureGate{Name: "StakeRaiseMinimumDelegationTo1Sol", Address: base58.MustDecodeFromString("9onWzzvCzNC2jfhxxeqRgs5q7nFAAKpCUvkj6T6GJK9i")}
var ReduceStakeWarmupCooldown = FeatureGate{Name: "ReduceStakeWarmupCooldown", Address: base58.MustDecodeFromString("GwtDQBghCTBgmX2cpEGNPxTEBUTQRaDMGTr5qychdGMj")}
var RequireCustodianForLockedStakeAuthorize = FeatureGate{Name: "RequireCustodianForLockedStakeAuthorize", Address: base58.MustDecodeFromString("D4jsDcXaqdW8tDAWn8H4R25Cdns2YwLneujSL1zvjW6R")}

// AllFeatureGates lists every gate known to the stake program, in
// registration order.
var AllFeatureGates = []FeatureGate{StakeRaiseMinimumDelegationTo1Sol, ReduceStakeWarmupCooldown, RequireCustodianForLockedStakeAuthorize}

func GateByName(name string) (FeatureGate, bool) {
	for _, gate := range AllFeatureGates {
		if gate.Name == name {
			return gate, true
		}
	}
	return FeatureGate{}, false
}
