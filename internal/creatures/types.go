// Package creatures provides the creature archetype data model: elemental
// types, the six base stats, and the immutable archetype records loaded from
// the catalog.
package creatures

import "strings"

// ElementType is a creature's primary elemental type.
type ElementType uint8

const (
	TypeNormal ElementType = iota
	TypeFire
	TypeWater
	TypeGrass
	TypeElectric
	TypeIce
	TypeFighting
	TypePoison
	TypeGround
	TypeFlying
	TypePsychic
	TypeBug
	TypeRock
	TypeGhost
	TypeDragon
	TypeDark
	TypeSteel
	TypeFairy

	typeCount
)

var typeNames = [typeCount]string{
	TypeNormal:   "normal",
	TypeFire:     "fire",
	TypeWater:    "water",
	TypeGrass:    "grass",
	TypeElectric: "electric",
	TypeIce:      "ice",
	TypeFighting: "fighting",
	TypePoison:   "poison",
	TypeGround:   "ground",
	TypeFlying:   "flying",
	TypePsychic:  "psychic",
	TypeBug:      "bug",
	TypeRock:     "rock",
	TypeGhost:    "ghost",
	TypeDragon:   "dragon",
	TypeDark:     "dark",
	TypeSteel:    "steel",
	TypeFairy:    "fairy",
}

// typeTags is the fixed translation table from catalog tags to element types.
// Catalog sources spell some types differently; every alias is listed here.
var typeTags = map[string]ElementType{
	"normal":   TypeNormal,
	"fire":     TypeFire,
	"water":    TypeWater,
	"grass":    TypeGrass,
	"plant":    TypeGrass,
	"electric": TypeElectric,
	"electr":   TypeElectric,
	"ice":      TypeIce,
	"fighting": TypeFighting,
	"fight":    TypeFighting,
	"poison":   TypePoison,
	"ground":   TypeGround,
	"flying":   TypeFlying,
	"psychic":  TypePsychic,
	"psychc":   TypePsychic,
	"bug":      TypeBug,
	"rock":     TypeRock,
	"ghost":    TypeGhost,
	"dragon":   TypeDragon,
	"dark":     TypeDark,
	"steel":    TypeSteel,
	"fairy":    TypeFairy,
}

// String returns the canonical lowercase tag of the type.
func (t ElementType) String() string {
	if t < typeCount {
		return typeNames[t]
	}
	return "unknown"
}

// MarshalText encodes the type as its canonical tag.
func (t ElementType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tag through the translation table.
// Unrecognized tags decode to TypeNormal.
func (t *ElementType) UnmarshalText(b []byte) error {
	*t = TranslateType(string(b))
	return nil
}

// TranslateType maps a catalog tag to an element type. Unrecognized tags map
// to TypeNormal.
func TranslateType(tag string) ElementType {
	if et, ok := LookupType(tag); ok {
		return et
	}
	return TypeNormal
}

// LookupType is TranslateType without the fallback.
func LookupType(tag string) (ElementType, bool) {
	et, ok := typeTags[strings.ToLower(strings.TrimSpace(tag))]
	return et, ok
}

// AllTypes returns every element type in declaration order.
func AllTypes() []ElementType {
	out := make([]ElementType, 0, typeCount)
	for t := ElementType(0); t < typeCount; t++ {
		out = append(out, t)
	}
	return out
}

// Stat names one of the six base stats.
type Stat uint8

const (
	StatHP Stat = iota
	StatAttack
	StatDefense
	StatSpecialAttack
	StatSpecialDefense
	StatSpeed

	statCount
)

var statNames = [statCount]string{
	StatHP:             "hp",
	StatAttack:         "attack",
	StatDefense:        "defense",
	StatSpecialAttack:  "special_attack",
	StatSpecialDefense: "special_defense",
	StatSpeed:          "speed",
}

func (s Stat) String() string {
	if s < statCount {
		return statNames[s]
	}
	return "unknown"
}

// ParseStat resolves a stat name. Accepts the canonical snake_case names and
// the short forms sp_atk / sp_def.
func ParseStat(name string) (Stat, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "sp_atk", "spatk", "sp. atk":
		return StatSpecialAttack, true
	case "sp_def", "spdef", "sp. def":
		return StatSpecialDefense, true
	}
	for s := Stat(0); s < statCount; s++ {
		if statNames[s] == n {
			return s, true
		}
	}
	return 0, false
}

// MarshalText encodes the stat as its canonical name.
func (s Stat) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Stats holds the six base stats of an archetype.
type Stats struct {
	HP             int `json:"hp"`
	Attack         int `json:"attack"`
	Defense        int `json:"defense"`
	SpecialAttack  int `json:"special_attack"`
	SpecialDefense int `json:"special_defense"`
	Speed          int `json:"speed"`
}

// Get returns the value of the named stat.
func (s Stats) Get(stat Stat) int {
	switch stat {
	case StatHP:
		return s.HP
	case StatAttack:
		return s.Attack
	case StatDefense:
		return s.Defense
	case StatSpecialAttack:
		return s.SpecialAttack
	case StatSpecialDefense:
		return s.SpecialDefense
	case StatSpeed:
		return s.Speed
	}
	return 0
}

// Archetype is an immutable creature species loaded from the catalog.
// Name is the unique key.
type Archetype struct {
	Name  string      `json:"name"`
	Type  ElementType `json:"type"`
	Stats Stats       `json:"stats"`
}
