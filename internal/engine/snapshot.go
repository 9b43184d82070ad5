package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/creature-farm/internal/catalog"
	"github.com/talgya/creature-farm/internal/creatures"
	"github.com/talgya/creature-farm/internal/entropy"
)

// CreatureView is a read-only roster entry with its current yield.
type CreatureView struct {
	ID         CreatureID            `json:"id"`
	Name       string                `json:"name"`
	Type       creatures.ElementType `json:"type"`
	Stats      creatures.Stats       `json:"stats"`
	Assignment Assignment            `json:"assignment"`
	Yield      Yield                 `json:"yield"`
}

// Snapshot is a point-in-time copy of a session, detached from the Game.
type Snapshot struct {
	SessionID string         `json:"session_id"`
	Turn      int            `json:"turn"`
	Currency  int            `json:"currency"`
	Tech      int            `json:"tech"`
	GachaCost int            `json:"gacha_cost"`
	NextID    CreatureID     `json:"next_id"`
	Roster    []CreatureView `json:"roster"`
	Unlocked  []string       `json:"unlocked"`
	Events    []Event        `json:"events,omitempty"`
}

// Snapshot copies the current session.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.state
	snap := Snapshot{
		SessionID: g.SessionID,
		Turn:      s.Turn,
		Currency:  s.Currency,
		Tech:      s.Tech,
		GachaCost: s.GachaCost,
		NextID:    s.NextID,
		Roster:    make([]CreatureView, 0, len(s.Roster)),
		Unlocked:  s.UnlockedNames(),
		Events:    append([]Event(nil), g.events...),
	}
	for _, oc := range s.Roster {
		y, err := Preview(s, oc)
		if err != nil {
			// The view still goes out with a zero yield; the broken
			// assignment is reported, not hidden.
			slog.Error("snapshot found an invalid assignment", "creature", oc.ID, "assignment", oc.Assignment.String(), "error", err)
		}
		snap.Roster = append(snap.Roster, CreatureView{
			ID:         oc.ID,
			Name:       oc.Archetype.Name,
			Type:       oc.Archetype.Type,
			Stats:      oc.Archetype.Stats,
			Assignment: oc.Assignment,
			Yield:      y,
		})
	}
	return snap
}

// RestoreGame rebuilds a session from a snapshot. Every roster archetype must
// exist in the catalog and every unlocked facility in the table; assignments
// must reference unlocked facilities.
func RestoreGame(snap Snapshot, archetypes []creatures.Archetype, facilities *catalog.FacilityTable, rules Rules, rng entropy.Source) (*Game, error) {
	g := newGame(archetypes, facilities, rules, rng)
	g.SessionID = snap.SessionID

	st := NewState(facilities, rules)
	st.Turn = snap.Turn
	st.Currency = snap.Currency
	st.Tech = snap.Tech
	st.GachaCost = snap.GachaCost
	if st.Turn < 1 || st.Currency < 0 || st.Tech < 0 || st.GachaCost < 0 {
		return nil, &IntegrityError{Op: "restore", Detail: fmt.Sprintf("turn=%d currency=%d tech=%d gacha_cost=%d", st.Turn, st.Currency, st.Tech, st.GachaCost), Err: errors.New("counters out of range")}
	}

	for _, name := range snap.Unlocked {
		f, ok := facilities.Get(name)
		if !ok {
			return nil, &IntegrityError{Op: "restore", Detail: fmt.Sprintf("facility %q", name), Err: ErrUnknownFacility}
		}
		st.Unlocked[name] = f
	}

	var maxID CreatureID
	seen := make(map[CreatureID]bool, len(snap.Roster))
	for _, cv := range snap.Roster {
		a, ok := g.byName[cv.Name]
		if !ok {
			return nil, &IntegrityError{Op: "restore", Detail: fmt.Sprintf("archetype %q", cv.Name), Err: ErrUnknownCreature}
		}
		if seen[cv.ID] || cv.ID == 0 {
			return nil, &IntegrityError{Op: "restore", Detail: fmt.Sprintf("creature id %d", cv.ID), Err: errors.New("duplicate or zero id")}
		}
		seen[cv.ID] = true
		if name, ok := cv.Assignment.Facility(); ok && !st.IsUnlocked(name) {
			return nil, &IntegrityError{Op: "restore", Detail: fmt.Sprintf("creature %d assigned to %q", cv.ID, name), Err: ErrFacilityLocked}
		}
		st.Roster = append(st.Roster, &OwnedCreature{ID: cv.ID, Archetype: a, Assignment: cv.Assignment})
		if cv.ID > maxID {
			maxID = cv.ID
		}
	}

	// IDs are never reused, even if the saved counter lags the roster.
	st.NextID = snap.NextID
	if st.NextID <= maxID {
		st.NextID = maxID + 1
	}

	g.state = st
	g.events = append([]Event(nil), snap.Events...)
	if len(g.events) > maxEvents {
		g.events = g.events[len(g.events)-maxEvents:]
	}
	return g, nil
}
