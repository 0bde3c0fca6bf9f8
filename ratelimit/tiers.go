/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"fmt"
	"sort"
)

// Tiers holds independent gates for API tiers with different quotas
// (e.g. 60 requests per minute for one group of endpoints and 300 for another).
// Gates of different tiers never coordinate with each other.
type Tiers struct {
	gates map[string]*Gate
}

// NewTiers creates a gate for every named rate.
// Logger and MetricsCollector from opts are shared by all gates, Name is replaced by the tier name.
func NewTiers(rates map[string]Rate, opts GateOpts) (*Tiers, error) {
	gates := make(map[string]*Gate, len(rates))
	for name, r := range rates {
		gateOpts := opts
		gateOpts.Name = name
		g, err := NewGateWithOpts(r.Count, r.Duration, gateOpts)
		if err != nil {
			return nil, fmt.Errorf("tier %q: %w", name, err)
		}
		gates[name] = g
	}
	return &Tiers{gates: gates}, nil
}

// Get returns the gate of the tier with the given name.
func (t *Tiers) Get(name string) (*Gate, bool) {
	if t == nil {
		return nil, false
	}
	g, ok := t.gates[name]
	return g, ok
}

// Names returns the sorted names of all tiers.
func (t *Tiers) Names() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.gates))
	for name := range t.gates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
