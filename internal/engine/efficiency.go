// Facility production: what a creature yields for one turn of work.
package engine

import (
	"github.com/talgya/creature-farm/internal/catalog"
	"github.com/talgya/creature-farm/internal/creatures"
)

// Status labels how well a creature's type suits its facility.
type Status string

const (
	StatusResting      Status = "" // Idle; no yield
	StatusIncompatible Status = "incompatible"
	StatusNormal       Status = "normal"
	StatusOptimal      Status = "optimal"
	StatusSpecialized  Status = "specialized" // Boosted type at a knowledge facility
)

// Type multipliers applied to the governing stat.
const (
	bannedMultiplier  = 0.0
	neutralMultiplier = 1.0
	boostedMultiplier = 2.0
)

// Output scaling.
const (
	currencyPerStat     = 2 // Ordinary facilities: governing stat × multiplier × 2
	techPerSpecialAtk   = 1 // Ordinary facilities: flat special-attack trickle
	knowledgeTechFactor = 2 // Knowledge facility: special attack × 2
	specializedFactor   = 5 // Knowledge facility, boosted type: special attack × 5
)

// Yield is one creature's output for one turn.
type Yield struct {
	Currency int    `json:"currency"`
	Tech     int    `json:"tech"`
	Status   Status `json:"status"`
}

// TypeMultiplier returns the governing-stat multiplier for a creature type at
// facility f. Banned is checked before boosted.
func TypeMultiplier(t creatures.ElementType, f catalog.Facility) (float64, Status) {
	switch t {
	case f.Banned:
		return bannedMultiplier, StatusIncompatible
	case f.Boosted:
		return boostedMultiplier, StatusOptimal
	}
	return neutralMultiplier, StatusNormal
}

// Efficiency computes what archetype a yields for one turn at facility f.
// It is a pure function of its inputs. Idle creatures yield the zero Yield and
// never reach this function.
//
// Ordinary facilities pay currency = trunc(stat × multiplier × 2) and
// tech = special attack, regardless of type. The knowledge facility pays no
// currency; its tech is special attack × 2, or × 5 for its boosted type, and
// nothing for its banned type.
func Efficiency(a *creatures.Archetype, f catalog.Facility) Yield {
	mult, status := TypeMultiplier(a.Type, f)

	if f.Output == catalog.OutputKnowledge {
		switch status {
		case StatusIncompatible:
			return Yield{Status: StatusIncompatible}
		case StatusOptimal:
			return Yield{Tech: a.Stats.SpecialAttack * specializedFactor, Status: StatusSpecialized}
		}
		return Yield{Tech: a.Stats.SpecialAttack * knowledgeTechFactor, Status: status}
	}

	// Multiply in floating point and truncate once.
	base := float64(a.Stats.Get(f.Stat)) * mult * currencyPerStat
	return Yield{
		Currency: int(base),
		Tech:     a.Stats.SpecialAttack * techPerSpecialAtk,
		Status:   status,
	}
}

// Preview returns the yield for a creature at its current assignment.
func Preview(s *State, oc *OwnedCreature) (Yield, error) {
	name, ok := oc.Assignment.Facility()
	if !ok {
		return Yield{Status: StatusResting}, nil
	}
	f, ok := s.Unlocked[name]
	if !ok {
		return Yield{}, &IntegrityError{Op: "preview", Detail: name, Err: ErrFacilityLocked}
	}
	return Efficiency(oc.Archetype, f), nil
}
