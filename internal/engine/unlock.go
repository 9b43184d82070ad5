package engine

import (
	"fmt"

	"github.com/talgya/creature-farm/internal/catalog"
)

// CanUnlock reports whether f is affordable: currency covers its cost and
// tech meets its requirement.
func CanUnlock(s *State, f catalog.Facility) bool {
	return s.Currency >= f.Cost && s.Tech >= f.TechRequirement
}

// Unlock buys the named facility. Only currency is spent; the tech
// requirement is a gate. Unlocking an owned facility is rejected without
// charging.
func Unlock(s *State, table *catalog.FacilityTable, name string) (catalog.Facility, error) {
	f, ok := table.Get(name)
	if !ok {
		return catalog.Facility{}, fmt.Errorf("%w: %q", ErrUnknownFacility, name)
	}
	if s.IsUnlocked(name) {
		return catalog.Facility{}, ErrAlreadyUnlocked
	}
	if s.Currency < f.Cost {
		return catalog.Facility{}, ErrInsufficientFunds
	}
	if s.Tech < f.TechRequirement {
		return catalog.Facility{}, ErrInsufficientTech
	}

	s.Currency -= f.Cost
	s.Unlocked[name] = f
	return f, nil
}

// Affordable lists the locked facilities that could be unlocked right now.
func Affordable(s *State, table *catalog.FacilityTable) []catalog.Facility {
	var out []catalog.Facility
	for _, f := range table.All() {
		if !s.IsUnlocked(f.Name) && CanUnlock(s, f) {
			out = append(out, f)
		}
	}
	return out
}
