package engine

import (
	"fmt"
	"sort"

	"github.com/talgya/creature-farm/internal/catalog"
	"github.com/talgya/creature-farm/internal/creatures"
)

// CreatureID identifies an owned creature. IDs are assigned from a monotonic
// counter and never reused.
type CreatureID uint64

// Assignment is either Idle or AssignedTo a facility name.
// The zero value is Idle.
type Assignment struct {
	facility string
}

// Idle is the resting assignment.
func Idle() Assignment { return Assignment{} }

// AssignedTo targets the named facility.
func AssignedTo(facility string) Assignment { return Assignment{facility: facility} }

// ParseAssignment maps the reserved idle name (or "") to Idle and anything
// else to AssignedTo.
func ParseAssignment(s string) Assignment {
	if s == "" || s == catalog.IdleName {
		return Idle()
	}
	return AssignedTo(s)
}

// IsIdle reports whether the creature is resting.
func (a Assignment) IsIdle() bool { return a.facility == "" }

// Facility returns the assigned facility name; ok is false when idle.
func (a Assignment) Facility() (name string, ok bool) {
	return a.facility, a.facility != ""
}

func (a Assignment) String() string {
	if a.IsIdle() {
		return catalog.IdleName
	}
	return a.facility
}

func (a Assignment) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Assignment) UnmarshalText(b []byte) error {
	*a = ParseAssignment(string(b))
	return nil
}

// OwnedCreature is one roster entry. The archetype is shared and read-only.
type OwnedCreature struct {
	ID         CreatureID           `json:"id"`
	Archetype  *creatures.Archetype `json:"archetype"`
	Assignment Assignment           `json:"assignment"`
}

// State is the complete session state. It is mutated only by the engine
// operations in this package.
type State struct {
	Turn      int                         `json:"turn"` // Starts at 1, +1 per advance
	Currency  int                         `json:"currency"`
	Tech      int                         `json:"tech"`
	GachaCost int                         `json:"gacha_cost"` // Never decreases
	Roster    []*OwnedCreature            `json:"roster"`
	Unlocked  map[string]catalog.Facility `json:"unlocked"`
	NextID    CreatureID                  `json:"next_id"`
}

// NewState creates a fresh session with the starter facility unlocked and an
// empty roster.
func NewState(table *catalog.FacilityTable, rules Rules) *State {
	starter := table.Starter()
	return &State{
		Turn:      1,
		Currency:  rules.StartingCurrency,
		GachaCost: rules.GachaBaseCost,
		Unlocked:  map[string]catalog.Facility{starter.Name: starter},
		NextID:    1,
	}
}

// AddCreature appends a new idle creature with a fresh ID.
func (s *State) AddCreature(a *creatures.Archetype) *OwnedCreature {
	oc := &OwnedCreature{ID: s.NextID, Archetype: a}
	s.NextID++
	s.Roster = append(s.Roster, oc)
	return oc
}

// Creature looks up a roster entry by ID.
func (s *State) Creature(id CreatureID) (*OwnedCreature, bool) {
	for _, oc := range s.Roster {
		if oc.ID == id {
			return oc, true
		}
	}
	return nil, false
}

// Owns reports whether any roster entry is of the named archetype.
func (s *State) Owns(name string) bool {
	for _, oc := range s.Roster {
		if oc.Archetype.Name == name {
			return true
		}
	}
	return false
}

// IsUnlocked reports whether the named facility is in the unlocked set.
func (s *State) IsUnlocked(name string) bool {
	_, ok := s.Unlocked[name]
	return ok
}

// UnlockedNames returns the unlocked facility names ordered by cost, then name.
func (s *State) UnlockedNames() []string {
	list := make([]catalog.Facility, 0, len(s.Unlocked))
	for _, f := range s.Unlocked {
		list = append(list, f)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Cost != list[j].Cost {
			return list[i].Cost < list[j].Cost
		}
		return list[i].Name < list[j].Name
	})
	names := make([]string, 0, len(list))
	for _, f := range list {
		names = append(names, f.Name)
	}
	return names
}

// Assign sets a creature's assignment. The target must be Idle or an
// unlocked facility.
func Assign(s *State, id CreatureID, target Assignment) error {
	oc, ok := s.Creature(id)
	if !ok {
		return &IntegrityError{Op: "assign", Detail: fmt.Sprintf("creature %d", id), Err: ErrUnknownCreature}
	}
	if name, ok := target.Facility(); ok && !s.IsUnlocked(name) {
		return &IntegrityError{Op: "assign", Detail: fmt.Sprintf("facility %q", name), Err: ErrFacilityLocked}
	}
	oc.Assignment = target
	return nil
}
