package engine

import (
	"github.com/talgya/creature-farm/internal/creatures"
	"github.com/talgya/creature-farm/internal/entropy"
)

// Rules holds the tunable economy parameters.
type Rules struct {
	StartingCurrency int
	GachaBaseCost    int
	GachaIncrement   int
	MatchWeight      float64 // Probability of drawing from the preferred-type group
}

// DefaultRules returns the standard economy.
func DefaultRules() Rules {
	return Rules{
		StartingCurrency: 100,
		GachaBaseCost:    100,
		GachaIncrement:   100,
		MatchWeight:      0.3,
	}
}

// DrawResult describes a successful draw.
type DrawResult struct {
	Creature *OwnedCreature `json:"creature"`
	Paid     int            `json:"paid"`
	NextCost int            `json:"next_cost"`
	Matched  bool           `json:"matched"` // Drawn from the preferred-type group
}

// Draw spends the current gacha cost on one random archetype the player does
// not own yet. Failures are checked in order (no catalog, insufficient funds,
// collection complete) and never charge.
//
// Un-owned archetypes are split by whether their type equals preferred. When
// both groups are non-empty the preferred group is chosen with probability
// rules.MatchWeight; the pick within a group is uniform.
func Draw(s *State, archetypes []creatures.Archetype, preferred creatures.ElementType, rules Rules, src entropy.Source) (DrawResult, error) {
	if len(archetypes) == 0 {
		return DrawResult{}, ErrNoCatalog
	}
	if s.Currency < s.GachaCost {
		return DrawResult{}, ErrInsufficientFunds
	}

	var matches, others []*creatures.Archetype
	for i := range archetypes {
		a := &archetypes[i]
		if s.Owns(a.Name) {
			continue
		}
		if a.Type == preferred {
			matches = append(matches, a)
		} else {
			others = append(others, a)
		}
	}
	if len(matches) == 0 && len(others) == 0 {
		return DrawResult{}, ErrCollectionComplete
	}

	group, matched := others, false
	switch {
	case len(others) == 0:
		group, matched = matches, true
	case len(matches) > 0 && src.Float64() < rules.MatchWeight:
		group, matched = matches, true
	}
	pick := group[src.IntN(len(group))]

	paid := s.GachaCost
	s.Currency -= paid
	s.GachaCost += rules.GachaIncrement
	oc := s.AddCreature(pick)

	return DrawResult{Creature: oc, Paid: paid, NextCost: s.GachaCost, Matched: matched}, nil
}
