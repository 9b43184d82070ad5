package command

import (
	"errors"
	"fmt"
	"testing"

	"github.com/talgya/creature-farm/internal/creatures"
	"github.com/talgya/creature-farm/internal/engine"
)

var testFacilities = []string{"farm", "fishery", "power_plant", "quarry", "forge", "dojo", "library"}

func TestParseCommandWords(t *testing.T) {
	p := NewParser(testFacilities)
	tests := map[string]Kind{
		"help":       KindHelp,
		"?":          KindHelp,
		"status":     KindStatus,
		"STATUS":     KindStatus,
		"statsu":     KindStatus,
		"roster":     KindRoster,
		"rostr":      KindRoster,
		"facilities": KindFacilities,
		"facilites":  KindFacilities,
		"turn":       KindTurn,
		"next":       KindTurn,
		"save":       KindSave,
		"q":          KindQuit,
		"exit":       KindQuit,
		"events":     KindEvents,
	}
	for input, want := range tests {
		cmd, err := p.Parse(input)
		if err != nil {
			t.Errorf("Parse(%q): %v", input, err)
			continue
		}
		if cmd.Kind != want {
			t.Errorf("Parse(%q).Kind = %v, want %v", input, cmd.Kind, want)
		}
	}
}

func TestParseEmptyAndUnknown(t *testing.T) {
	p := NewParser(testFacilities)
	if _, err := p.Parse("   "); !errors.Is(err, ErrEmpty) {
		t.Errorf("blank input: got %v, want ErrEmpty", err)
	}
	if _, err := p.Parse("xyzzy"); err == nil {
		t.Error("expected error for unknown command")
	}
}

func TestParseAssign(t *testing.T) {
	p := NewParser(testFacilities)

	cmd, err := p.Parse("assign 3 forge")
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Kind != KindAssign || cmd.Creature != 3 || cmd.Target != engine.AssignedTo("forge") {
		t.Fatalf("unexpected command %+v", cmd)
	}

	cmd, err = p.Parse("assign #7 idle")
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Creature != 7 || !cmd.Target.IsIdle() {
		t.Fatalf("expected #7 idle, got %+v", cmd)
	}

	cmd, err = p.Parse("assign 2 power plant")
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Target != engine.AssignedTo("power_plant") {
		t.Fatalf("multi-word facility: got %v", cmd.Target)
	}

	cmd, err = p.Parse("assign 2 fishry")
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Target != engine.AssignedTo("fishery") {
		t.Fatalf("typo facility: got %v", cmd.Target)
	}

	for _, bad := range []string{"assign", "assign 3", "assign x forge", "assign 0 forge", "assign 1 spaceport"} {
		if _, err := p.Parse(bad); err == nil {
			t.Errorf("Parse(%q) should fail", bad)
		}
	}
}

func TestParsePreview(t *testing.T) {
	p := NewParser(testFacilities)
	cmd, err := p.Parse("preview 4 lib")
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Kind != KindPreview || cmd.Creature != 4 || cmd.Target != engine.AssignedTo("library") {
		t.Fatalf("unexpected command %+v", cmd)
	}
}

func TestParseTurnCount(t *testing.T) {
	p := NewParser(testFacilities)

	cmd, err := p.Parse("turn")
	if err != nil || cmd.Count != 1 {
		t.Fatalf("turn: %+v, %v", cmd, err)
	}
	cmd, err = p.Parse("turn 5")
	if err != nil || cmd.Count != 5 {
		t.Fatalf("turn 5: %+v, %v", cmd, err)
	}
	if _, err := p.Parse("turn 0"); err == nil {
		t.Error("turn 0 should fail")
	}
	if _, err := p.Parse("turn many"); err == nil {
		t.Error("turn many should fail")
	}
	if cmd, err := p.Parse(fmt.Sprintf("turn %d", engine.MaxTurnsPerAdvance)); err != nil || cmd.Count != engine.MaxTurnsPerAdvance {
		t.Errorf("turn at the bound: %+v, %v", cmd, err)
	}
	for _, big := range []string{"turn 1001", "turn 1000000000000000", "turn 99999999999999999999"} {
		if _, err := p.Parse(big); err == nil {
			t.Errorf("Parse(%q) should fail", big)
		}
	}

	cmd, err = p.Parse("events")
	if err != nil || cmd.Count != 10 {
		t.Fatalf("events default: %+v, %v", cmd, err)
	}
}

func TestParseDraw(t *testing.T) {
	p := NewParser(testFacilities)
	tests := map[string]creatures.ElementType{
		"draw fire":    creatures.TypeFire,
		"draw psychic": creatures.TypePsychic,
		"draw psy":     creatures.TypePsychic,
		"gacha watr":   creatures.TypeWater,
	}
	for input, want := range tests {
		cmd, err := p.Parse(input)
		if err != nil {
			t.Errorf("Parse(%q): %v", input, err)
			continue
		}
		if cmd.Kind != KindDraw || cmd.Type != want {
			t.Errorf("Parse(%q) = %+v, want type %v", input, cmd, want)
		}
	}
	if _, err := p.Parse("draw"); err == nil {
		t.Error("draw without type should fail")
	}
	if _, err := p.Parse("draw plasma"); err == nil {
		t.Error("draw with unknown type should fail")
	}
}

func TestParseUnlock(t *testing.T) {
	p := NewParser(testFacilities)
	cmd, err := p.Parse("unlock library")
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Kind != KindUnlock || cmd.Facility != "library" {
		t.Fatalf("unexpected command %+v", cmd)
	}

	if _, err := p.Parse("unlock f"); err == nil {
		t.Error("single-letter facility should fail")
	}
	if _, ok := resolve("fa", []string{"farm", "factory"}, true); ok {
		t.Error("ambiguous prefix should not resolve")
	}
	if _, err := p.Parse("unlock"); err == nil {
		t.Error("unlock without facility should fail")
	}
}

func TestLevenshteinLimit(t *testing.T) {
	tests := []struct{ length, want int }{
		{3, 1}, {4, 1}, {5, 2}, {8, 2}, {9, 3}, {20, 3},
	}
	for _, tt := range tests {
		if got := levenshteinLimit(tt.length); got != tt.want {
			t.Errorf("levenshteinLimit(%d) = %d, want %d", tt.length, got, tt.want)
		}
	}
}

func TestUsageCoversCommands(t *testing.T) {
	if len(Usage()) != len(commandDefs) {
		t.Fatalf("Usage() = %d lines, want %d", len(Usage()), len(commandDefs))
	}
}
