package sources

import (
	"fmt"
	"strings"
)

// Capability represents an operation a source store supports.
// Users see capabilities (READ, SEED), not engines or drivers.
type Capability string

const (
	// CapabilityRead allows the three feed queries to run against the source.
	CapabilityRead Capability = "READ"

	// CapabilitySeed allows the bundled fixture schema and roster to be
	// applied through Exec. Managed warehouses are read-only here.
	CapabilitySeed Capability = "SEED"
)

// AllCapabilities returns all valid capabilities.
func AllCapabilities() []Capability {
	return []Capability{
		CapabilityRead,
		CapabilitySeed,
	}
}

// IsValid checks if the capability is a known valid capability.
func (c Capability) IsValid() bool {
	for _, valid := range AllCapabilities() {
		if c == valid {
			return true
		}
	}
	return false
}

// String returns the string representation of the capability.
func (c Capability) String() string {
	return string(c)
}

// ParseCapability parses a string into a Capability.
// Returns an error if the string is not a valid capability.
func ParseCapability(s string) (Capability, error) {
	c := Capability(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("invalid capability: %s (valid: %v)", s, AllCapabilities())
	}
	return c, nil
}

// CapabilitySet is a set of capabilities for efficient lookup.
type CapabilitySet map[Capability]struct{}

// NewCapabilitySet creates a new CapabilitySet from a slice of capabilities.
func NewCapabilitySet(caps []Capability) CapabilitySet {
	set := make(CapabilitySet, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// Has checks if the set contains the given capability.
func (cs CapabilitySet) Has(c Capability) bool {
	_, ok := cs[c]
	return ok
}

// CanSeed reports whether a store accepts the bundled fixture.
func CanSeed(store Store) bool {
	return NewCapabilitySet(store.Capabilities()).Has(CapabilitySeed)
}
