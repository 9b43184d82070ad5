// Game ties the session state to the catalog and serializes every action.
package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/talgya/creature-farm/internal/catalog"
	"github.com/talgya/creature-farm/internal/creatures"
	"github.com/talgya/creature-farm/internal/entropy"
)

const maxEvents = 1000

// MaxTurnsPerAdvance bounds a single multi-turn advance.
const MaxTurnsPerAdvance = 1000

// Event is a notable occurrence in the session.
type Event struct {
	Turn        int    `json:"turn" db:"turn"`
	Description string `json:"description" db:"description"`
	Category    string `json:"category" db:"category"` // "turn", "draw", "unlock", "assign"
}

// Game owns one session. The HTTP API, the REPL and the auto-advance ticker
// all act through it; its mutex makes each action atomic.
type Game struct {
	SessionID string

	mu         sync.Mutex
	state      *State
	archetypes []creatures.Archetype
	byName     map[string]*creatures.Archetype
	facilities *catalog.FacilityTable
	rules      Rules
	rng        entropy.Source
	events     []Event
}

// NewGame starts a fresh session. The roster is seeded with the named starter
// archetype, or the first catalog entry when the name is not found. An empty
// catalog yields an empty roster.
func NewGame(archetypes []creatures.Archetype, facilities *catalog.FacilityTable, rules Rules, rng entropy.Source, starter string) *Game {
	g := newGame(archetypes, facilities, rules, rng)
	g.SessionID = uuid.NewString()
	g.state = NewState(facilities, rules)

	if len(g.archetypes) > 0 {
		a, ok := g.byName[starter]
		if !ok {
			a = &g.archetypes[0]
		}
		oc := g.state.AddCreature(a)
		g.record(g.state.Turn, "draw", fmt.Sprintf("%s joined the farm", oc.Archetype.Name))
	}

	slog.Info("new game",
		"session", g.SessionID,
		"archetypes", len(g.archetypes),
		"starter_facility", facilities.Starter().Name,
		"currency", g.state.Currency,
	)
	return g
}

func newGame(archetypes []creatures.Archetype, facilities *catalog.FacilityTable, rules Rules, rng entropy.Source) *Game {
	list := make([]creatures.Archetype, len(archetypes))
	copy(list, archetypes)
	byName := make(map[string]*creatures.Archetype, len(list))
	for i := range list {
		byName[list[i].Name] = &list[i]
	}
	return &Game{
		archetypes: list,
		byName:     byName,
		facilities: facilities,
		rules:      rules,
		rng:        rng,
	}
}

// Assign moves a creature to a facility or to rest.
func (g *Game) Assign(id CreatureID, target Assignment) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := Assign(g.state, id, target); err != nil {
		slog.Error("assign rejected", "creature", id, "target", target.String(), "error", err)
		return err
	}
	oc, _ := g.state.Creature(id)
	g.record(g.state.Turn, "assign", fmt.Sprintf("%s (#%d) assigned to %s", oc.Archetype.Name, id, target))
	return nil
}

// AdvanceTurn resolves one turn.
func (g *Game) AdvanceTurn() (TurnReport, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.advanceLocked()
}

// AdvanceTurns resolves n turns in sequence, stopping at the first failure.
// Turns resolved before a failure stay applied. n outside
// 1..MaxTurnsPerAdvance is rejected with ErrTurnCount before anything runs.
func (g *Game) AdvanceTurns(n int) ([]TurnReport, error) {
	if n < 1 || n > MaxTurnsPerAdvance {
		return nil, fmt.Errorf("%w: got %d", ErrTurnCount, n)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	reports := make([]TurnReport, 0, n)
	for i := 0; i < n; i++ {
		r, err := g.advanceLocked()
		if err != nil {
			return reports, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}

func (g *Game) advanceLocked() (TurnReport, error) {
	report, err := AdvanceTurn(g.state)
	if err != nil {
		slog.Error("turn failed", "turn", g.state.Turn, "error", err)
		return report, err
	}

	slog.Info("turn resolved",
		"turn", report.Turn,
		"currency_gained", report.Currency,
		"tech_gained", report.Tech,
		"workers", len(report.Contributions),
		"currency", g.state.Currency,
		"tech", g.state.Tech,
	)
	g.record(report.Turn, "turn", fmt.Sprintf("turn %d: +%d currency, +%d tech", report.Turn, report.Currency, report.Tech))
	return report, nil
}

// Draw performs one gacha draw with the given type preference.
func (g *Game) Draw(preferred creatures.ElementType) (DrawResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	res, err := Draw(g.state, g.archetypes, preferred, g.rules, g.rng)
	if err != nil {
		slog.Debug("draw rejected", "preferred", preferred, "cost", g.state.GachaCost, "currency", g.state.Currency, "error", err)
		return res, err
	}

	slog.Info("creature drawn",
		"name", res.Creature.Archetype.Name,
		"type", res.Creature.Archetype.Type,
		"id", res.Creature.ID,
		"preferred", preferred,
		"matched", res.Matched,
		"paid", res.Paid,
		"next_cost", res.NextCost,
	)
	g.record(g.state.Turn, "draw", fmt.Sprintf("drew %s (%s) for %d", res.Creature.Archetype.Name, res.Creature.Archetype.Type, res.Paid))
	return res, nil
}

// CanUnlock reports whether the named facility is locked and affordable.
func (g *Game) CanUnlock(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	f, ok := g.facilities.Get(name)
	return ok && !g.state.IsUnlocked(name) && CanUnlock(g.state, f)
}

// Unlock buys the named facility.
func (g *Game) Unlock(name string) (catalog.Facility, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	f, err := Unlock(g.state, g.facilities, name)
	if err != nil {
		slog.Debug("unlock rejected", "facility", name, "error", err)
		return f, err
	}

	slog.Info("facility unlocked", "facility", f.Name, "cost", f.Cost, "currency", g.state.Currency)
	g.record(g.state.Turn, "unlock", fmt.Sprintf("unlocked %s for %d", f.Name, f.Cost))
	return f, nil
}

// Affordable lists the locked facilities that can be bought now.
func (g *Game) Affordable() []catalog.Facility {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Affordable(g.state, g.facilities)
}

// Preview returns what creature id would yield at target without changing
// its assignment.
func (g *Game) Preview(id CreatureID, target Assignment) (Yield, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	oc, ok := g.state.Creature(id)
	if !ok {
		return Yield{}, &IntegrityError{Op: "preview", Detail: fmt.Sprintf("creature %d", id), Err: ErrUnknownCreature}
	}
	trial := *oc
	trial.Assignment = target
	return Preview(g.state, &trial)
}

// Catalog returns the archetype catalog.
func (g *Game) Catalog() []creatures.Archetype {
	out := make([]creatures.Archetype, len(g.archetypes))
	copy(out, g.archetypes)
	return out
}

// Facilities returns the static facility table.
func (g *Game) Facilities() *catalog.FacilityTable { return g.facilities }

// Rules returns the economy parameters.
func (g *Game) Rules() Rules { return g.rules }

// Events returns up to limit most recent events, oldest first.
// limit <= 0 returns all retained events.
func (g *Game) Events(limit int) []Event {
	g.mu.Lock()
	defer g.mu.Unlock()

	start := 0
	if limit > 0 && len(g.events) > limit {
		start = len(g.events) - limit
	}
	out := make([]Event, len(g.events)-start)
	copy(out, g.events[start:])
	return out
}

func (g *Game) record(turn int, category, desc string) {
	g.events = append(g.events, Event{Turn: turn, Description: desc, Category: category})
	if len(g.events) > maxEvents {
		g.events = g.events[len(g.events)-maxEvents:]
	}
}
