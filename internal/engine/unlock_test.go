package engine

import (
	"errors"
	"testing"
)

func TestUnlockSpendsCurrencyOnly(t *testing.T) {
	table := testTable(t)
	s := NewState(table, DefaultRules())
	fishery, _ := table.Get("fishery")
	s.Currency = fishery.Cost + 50
	s.Tech = fishery.TechRequirement

	if !CanUnlock(s, fishery) {
		t.Fatal("expected fishery to be affordable")
	}
	f, err := Unlock(s, table, "fishery")
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if f.Name != "fishery" || !s.IsUnlocked("fishery") {
		t.Fatalf("fishery not unlocked")
	}
	if s.Currency != 50 {
		t.Fatalf("currency = %d, want 50", s.Currency)
	}
	if s.Tech != fishery.TechRequirement {
		t.Fatalf("tech was spent: %d", s.Tech)
	}
}

func TestUnlockTwiceDoesNotDoubleCharge(t *testing.T) {
	table := testTable(t)
	s := NewState(table, DefaultRules())
	s.Currency = 10000
	s.Tech = 10000

	if _, err := Unlock(s, table, "forge"); err != nil {
		t.Fatalf("first unlock: %v", err)
	}
	after := s.Currency
	if _, err := Unlock(s, table, "forge"); !errors.Is(err, ErrAlreadyUnlocked) {
		t.Fatalf("expected ErrAlreadyUnlocked, got %v", err)
	}
	if s.Currency != after {
		t.Fatalf("second unlock charged: %d → %d", after, s.Currency)
	}
}

func TestUnlockGates(t *testing.T) {
	table := testTable(t)
	forge, _ := table.Get("forge")

	tests := []struct {
		name     string
		currency int
		tech     int
		want     error
	}{
		{"short on currency", forge.Cost - 1, forge.TechRequirement, ErrInsufficientFunds},
		{"short on tech", forge.Cost, forge.TechRequirement - 1, ErrInsufficientTech},
		{"exact", forge.Cost, forge.TechRequirement, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState(table, DefaultRules())
			s.Currency, s.Tech = tt.currency, tt.tech

			if got := CanUnlock(s, forge); got != (tt.want == nil) {
				t.Fatalf("CanUnlock = %v", got)
			}
			_, err := Unlock(s, table, "forge")
			if !errors.Is(err, tt.want) {
				t.Fatalf("Unlock err = %v, want %v", err, tt.want)
			}
			if tt.want != nil {
				if !errors.Is(err, ErrInsufficientResources) {
					t.Fatalf("expected insufficient-resources family, got %v", err)
				}
				if s.Currency != tt.currency || s.IsUnlocked("forge") {
					t.Fatal("failed unlock changed state")
				}
			}
		})
	}
}

func TestUnlockUnknownFacility(t *testing.T) {
	table := testTable(t)
	s := NewState(table, DefaultRules())
	if _, err := Unlock(s, table, "casino"); !errors.Is(err, ErrUnknownFacility) {
		t.Fatalf("expected ErrUnknownFacility, got %v", err)
	}
}

func TestUnlockedFacilityBecomesAssignable(t *testing.T) {
	table := testTable(t)
	s := NewState(table, DefaultRules())
	oc := s.AddCreature(&testCatalog()[0])
	s.Currency, s.Tech = 5000, 5000

	if err := Assign(s, oc.ID, AssignedTo("library")); err == nil {
		t.Fatal("expected locked library to be rejected")
	}
	if _, err := Unlock(s, table, "library"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if err := Assign(s, oc.ID, AssignedTo("library")); err != nil {
		t.Fatalf("assign after unlock: %v", err)
	}
}

func TestAffordable(t *testing.T) {
	table := testTable(t)
	s := NewState(table, DefaultRules())
	s.Currency, s.Tech = 600, 450

	got := Affordable(s, table)
	names := make(map[string]bool)
	for _, f := range got {
		names[f.Name] = true
	}
	if !names["fishery"] || !names["power_plant"] || names["quarry"] || names["farm"] {
		t.Fatalf("unexpected affordable set %v", names)
	}
}
