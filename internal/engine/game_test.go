package engine

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/talgya/creature-farm/internal/creatures"
	"github.com/talgya/creature-farm/internal/entropy"
)

func newTestGame(t *testing.T) *Game {
	t.Helper()
	return NewGame(testCatalog(), testTable(t), DefaultRules(), entropy.NewSeeded(7), "Bulbasaur")
}

func TestNewGameSeedsStarter(t *testing.T) {
	g := newTestGame(t)
	snap := g.Snapshot()

	if snap.SessionID == "" {
		t.Fatal("expected a session id")
	}
	if snap.Turn != 1 || snap.GachaCost != 100 || snap.Currency != 100 {
		t.Fatalf("unexpected initial counters: %+v", snap)
	}
	if len(snap.Roster) != 1 || snap.Roster[0].Name != "Bulbasaur" || snap.Roster[0].ID != 1 {
		t.Fatalf("unexpected starter roster: %+v", snap.Roster)
	}
	if len(snap.Unlocked) != 1 || snap.Unlocked[0] != "farm" {
		t.Fatalf("unexpected unlocked set: %v", snap.Unlocked)
	}
}

func TestNewGameUnknownStarterFallsBack(t *testing.T) {
	g := NewGame(testCatalog(), testTable(t), DefaultRules(), entropy.NewSeeded(1), "Mew")
	if got := g.Snapshot().Roster[0].Name; got != "Abra" {
		t.Fatalf("expected first catalog entry, got %s", got)
	}
}

func TestNewGameEmptyCatalog(t *testing.T) {
	g := NewGame(nil, testTable(t), DefaultRules(), entropy.NewSeeded(1), "")
	if len(g.Snapshot().Roster) != 0 {
		t.Fatal("expected empty roster")
	}
	if _, err := g.Draw(creatures.TypeFire); !errors.Is(err, ErrNoCatalog) {
		t.Fatalf("expected ErrNoCatalog, got %v", err)
	}
}

func TestAdvanceTurnsRejectsOutOfRangeCount(t *testing.T) {
	g := newTestGame(t)
	if err := g.Assign(1, AssignedTo("farm")); err != nil {
		t.Fatal(err)
	}
	before := g.Snapshot()

	for _, n := range []int{0, -1, MaxTurnsPerAdvance + 1, 1 << 60} {
		reports, err := g.AdvanceTurns(n)
		if !errors.Is(err, ErrTurnCount) {
			t.Fatalf("AdvanceTurns(%d): expected ErrTurnCount, got %v", n, err)
		}
		if len(reports) != 0 {
			t.Fatalf("AdvanceTurns(%d) resolved %d turns", n, len(reports))
		}
	}
	after := g.Snapshot()
	if after.Turn != before.Turn || after.Currency != before.Currency || after.Tech != before.Tech {
		t.Fatalf("rejected advance changed state: %+v -> %+v", before, after)
	}

	reports, err := g.AdvanceTurns(MaxTurnsPerAdvance)
	if err != nil || len(reports) != MaxTurnsPerAdvance {
		t.Fatalf("advance at the bound: %d reports, %v", len(reports), err)
	}
}

func TestGamePlaythrough(t *testing.T) {
	g := newTestGame(t)

	if err := g.Assign(1, AssignedTo("farm")); err != nil {
		t.Fatalf("assign: %v", err)
	}
	// Bulbasaur is grass, boosted at the farm: hp 45 × 2 × 2 = 180.
	y, err := g.Preview(1, AssignedTo("farm"))
	if err != nil || y.Currency != 180 || y.Status != StatusOptimal {
		t.Fatalf("preview = %+v, %v", y, err)
	}

	reports, err := g.AdvanceTurns(5)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if len(reports) != 5 || reports[4].Turn != 5 {
		t.Fatalf("unexpected reports: %+v", reports)
	}
	snap := g.Snapshot()
	if snap.Turn != 6 || snap.Currency != 100+5*180 || snap.Tech != 5*65 {
		t.Fatalf("after 5 turns: %+v", snap)
	}

	if !g.CanUnlock("fishery") {
		t.Fatal("fishery should be affordable")
	}
	if g.CanUnlock("farm") {
		t.Fatal("an unlocked facility is never unlockable")
	}
	if _, err := g.Unlock("fishery"); err != nil {
		t.Fatalf("unlock: %v", err)
	}

	res, err := g.Draw(creatures.TypeWater)
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	if res.Creature.ID != 2 {
		t.Fatalf("expected id 2, got %d", res.Creature.ID)
	}

	events := g.Events(0)
	if len(events) == 0 {
		t.Fatal("expected events")
	}
	if last := g.Events(1); len(last) != 1 || last[0].Category != "draw" {
		t.Fatalf("unexpected last event: %+v", last)
	}
}

func TestGamePreviewUnknownCreature(t *testing.T) {
	g := newTestGame(t)
	if _, err := g.Preview(42, Idle()); !errors.Is(err, ErrUnknownCreature) {
		t.Fatalf("expected ErrUnknownCreature, got %v", err)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	g := newTestGame(t)
	if err := g.Assign(1, AssignedTo("farm")); err != nil {
		t.Fatal(err)
	}
	if _, err := g.AdvanceTurns(3); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Draw(creatures.TypePsychic); err != nil {
		t.Fatal(err)
	}
	snap := g.Snapshot()

	restored, err := RestoreGame(snap, testCatalog(), testTable(t), DefaultRules(), entropy.NewSeeded(7))
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	got := restored.Snapshot()
	if got.SessionID != snap.SessionID || got.Turn != snap.Turn || got.Currency != snap.Currency ||
		got.Tech != snap.Tech || got.GachaCost != snap.GachaCost || got.NextID != snap.NextID {
		t.Fatalf("counters differ:\n got %+v\nwant %+v", got, snap)
	}
	if len(got.Roster) != len(snap.Roster) {
		t.Fatalf("roster length %d, want %d", len(got.Roster), len(snap.Roster))
	}
	for i := range got.Roster {
		if got.Roster[i] != snap.Roster[i] {
			t.Fatalf("roster[%d] = %+v, want %+v", i, got.Roster[i], snap.Roster[i])
		}
	}
	if len(got.Events) != len(snap.Events) {
		t.Fatalf("events %d, want %d", len(got.Events), len(snap.Events))
	}
}

func TestRestoreRejectsBadSnapshots(t *testing.T) {
	base := newTestGame(t).Snapshot()

	tests := map[string]func(s *Snapshot){
		"unknown archetype": func(s *Snapshot) { s.Roster[0].Name = "Mew" },
		"unknown facility":  func(s *Snapshot) { s.Unlocked = append(s.Unlocked, "casino") },
		"locked assignment": func(s *Snapshot) { s.Roster[0].Assignment = AssignedTo("forge") },
		"zero turn":         func(s *Snapshot) { s.Turn = 0 },
		"negative cost":     func(s *Snapshot) { s.GachaCost = -1 },
		"duplicate id": func(s *Snapshot) {
			s.Roster = append(s.Roster, s.Roster[0])
		},
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			snap := base
			snap.Roster = append([]CreatureView(nil), base.Roster...)
			snap.Unlocked = append([]string(nil), base.Unlocked...)
			mutate(&snap)
			if _, err := RestoreGame(snap, testCatalog(), testTable(t), DefaultRules(), entropy.NewSeeded(1)); !IsIntegrity(err) {
				t.Fatalf("expected integrity error, got %v", err)
			}
		})
	}
}

func TestRestoreBumpsLaggingNextID(t *testing.T) {
	snap := newTestGame(t).Snapshot()
	snap.NextID = 1
	g, err := RestoreGame(snap, testCatalog(), testTable(t), DefaultRules(), entropy.NewSeeded(1))
	if err != nil {
		t.Fatal(err)
	}
	if got := g.Snapshot().NextID; got != 2 {
		t.Fatalf("NextID = %d, want 2", got)
	}
}

func TestRestoreKeepsCostBelowConfiguredBase(t *testing.T) {
	snap := newTestGame(t).Snapshot()
	rules := DefaultRules()
	rules.GachaBaseCost = snap.GachaCost * 5

	g, err := RestoreGame(snap, testCatalog(), testTable(t), rules, entropy.NewSeeded(1))
	if err != nil {
		t.Fatalf("raising the base cost must not strand old saves: %v", err)
	}
	if got := g.Snapshot().GachaCost; got != snap.GachaCost {
		t.Fatalf("GachaCost = %d, want saved %d", got, snap.GachaCost)
	}
}

func TestSnapshotLogsInvalidAssignment(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	g := newTestGame(t)
	g.state.Roster[0].Assignment = AssignedTo("forge") // locked

	snap := g.Snapshot()
	if len(snap.Roster) != 1 || snap.Roster[0].Yield != (Yield{}) {
		t.Fatalf("expected zero yield for broken entry, got %+v", snap.Roster)
	}
	out := buf.String()
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "creature=1") || !strings.Contains(out, "forge") {
		t.Fatalf("expected an error log for creature 1, got %q", out)
	}
}

func TestTickerAdvancesUntilCancelled(t *testing.T) {
	g := newTestGame(t)
	if err := g.Assign(1, AssignedTo("farm")); err != nil {
		t.Fatal(err)
	}
	tk := ForGame(g, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	if err := tk.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if tk.Running() {
		t.Fatal("ticker still marked running")
	}
	if g.Snapshot().Turn < 3 {
		t.Fatalf("expected several turns, got turn %d", g.Snapshot().Turn)
	}
}

func TestTickerPausedDoesNotAdvance(t *testing.T) {
	calls := 0
	tk := NewTicker(time.Millisecond, func() error { calls++; return nil })
	tk.SetSpeed(0)

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	if err := tk.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Fatalf("paused ticker advanced %d times", calls)
	}
}

func TestTickerHaltsOnError(t *testing.T) {
	boom := errors.New("boom")
	tk := NewTicker(time.Millisecond, func() error { return boom })
	if err := tk.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}
