package resilient

import "fmt"

// ResourceKey identifies one rate/quota/circuit scope.
//
// It is a composite of the upstream provider (e.g. "instagram"), the
// operation class (e.g. "search", "profile"), and the client identity on
// whose behalf the call is made. All stateful components (window counters,
// quota ledgers, circuit state, cache entries) are looked up by this key.
//
// ResourceKey is comparable and never mutated after creation, so it can be
// used directly as a map key.
type ResourceKey struct {
	// Provider is the upstream API this key scopes (e.g. "tiktok").
	Provider string

	// Operation is the operation class within the provider.
	// Different operation classes typically carry different quota costs.
	Operation string

	// Client identifies the credential or tenant making the call.
	Client string
}

// String returns the canonical "provider:operation:client" form of the key.
//
// This form is used for logging and event payloads. Metrics use the
// individual fields as labels to keep cardinality under control.
func (k ResourceKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Provider, k.Operation, k.Client)
}
