package engine

import (
	"testing"

	"github.com/talgya/creature-farm/internal/catalog"
	"github.com/talgya/creature-farm/internal/creatures"
)

func testTable(t *testing.T) *catalog.FacilityTable {
	t.Helper()
	table, err := catalog.DefaultFacilities()
	if err != nil {
		t.Fatalf("default facilities: %v", err)
	}
	return table
}

func testFacility(t *testing.T, name string) catalog.Facility {
	t.Helper()
	f, ok := testTable(t).Get(name)
	if !ok {
		t.Fatalf("facility %q missing from default table", name)
	}
	return f
}

func testCatalog() []creatures.Archetype {
	return []creatures.Archetype{
		{Name: "Abra", Type: creatures.TypePsychic, Stats: creatures.Stats{HP: 25, Attack: 20, Defense: 15, SpecialAttack: 105, SpecialDefense: 55, Speed: 90}},
		{Name: "Drowzee", Type: creatures.TypePsychic, Stats: creatures.Stats{HP: 60, Attack: 48, Defense: 45, SpecialAttack: 43, SpecialDefense: 90, Speed: 42}},
		{Name: "Bulbasaur", Type: creatures.TypeGrass, Stats: creatures.Stats{HP: 45, Attack: 49, Defense: 49, SpecialAttack: 65, SpecialDefense: 65, Speed: 45}},
		{Name: "Charmander", Type: creatures.TypeFire, Stats: creatures.Stats{HP: 39, Attack: 52, Defense: 43, SpecialAttack: 60, SpecialDefense: 50, Speed: 65}},
		{Name: "Squirtle", Type: creatures.TypeWater, Stats: creatures.Stats{HP: 44, Attack: 48, Defense: 65, SpecialAttack: 50, SpecialDefense: 64, Speed: 43}},
		{Name: "Eevee", Type: creatures.TypeNormal, Stats: creatures.Stats{HP: 55, Attack: 55, Defense: 50, SpecialAttack: 45, SpecialDefense: 65, Speed: 55}},
		{Name: "Houndour", Type: creatures.TypeDark, Stats: creatures.Stats{HP: 45, Attack: 60, Defense: 30, SpecialAttack: 80, SpecialDefense: 50, Speed: 65}},
	}
}

// stubSource replays fixed values; it panics when exhausted.
type stubSource struct {
	floats []float64
	ints   []int
}

func (s *stubSource) Float64() float64 {
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func (s *stubSource) IntN(n int) int {
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v % n
}
