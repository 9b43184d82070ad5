package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/talgya/creature-farm/internal/creatures"
)

//go:embed facilities.yaml
var facilityTableYAML []byte

// IdleName is the reserved assignment name for resting creatures.
const IdleName = "idle"

// OutputKind selects how a facility converts work into resources.
type OutputKind uint8

const (
	// OutputOrdinary facilities pay currency from the governing stat and a
	// flat tech trickle from special attack.
	OutputOrdinary OutputKind = iota
	// OutputKnowledge facilities pay tech only.
	OutputKnowledge
)

func (k OutputKind) String() string {
	if k == OutputKnowledge {
		return "knowledge"
	}
	return "ordinary"
}

func (k OutputKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Facility is an immutable facility definition from the static table.
type Facility struct {
	Name            string                `json:"name"`
	Description     string                `json:"description"`
	Cost            int                   `json:"cost"`
	TechRequirement int                   `json:"tech_requirement"`
	Banned          creatures.ElementType `json:"banned_type"`
	Boosted         creatures.ElementType `json:"boosted_type"`
	Stat            creatures.Stat        `json:"stat"`
	Output          OutputKind            `json:"output"`
	Starter         bool                  `json:"starter"`
}

// FacilityTable is the ordered, validated facility table.
type FacilityTable struct {
	list   []Facility
	byName map[string]Facility
}

type rawFacilityTable struct {
	TechRequirementRatio float64       `yaml:"tech_requirement_ratio"`
	Facilities           []rawFacility `yaml:"facilities"`
}

type rawFacility struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Starter     bool   `yaml:"starter"`
	Cost        int    `yaml:"cost"`
	Banned      string `yaml:"banned"`
	Boosted     string `yaml:"boosted"`
	Stat        string `yaml:"stat"`
	Knowledge   bool   `yaml:"knowledge"`
}

// DefaultFacilities returns the facility table compiled into the binary.
func DefaultFacilities() (*FacilityTable, error) {
	return ParseFacilities(facilityTableYAML)
}

// ParseFacilities parses and validates a YAML facility table.
func ParseFacilities(data []byte) (*FacilityTable, error) {
	var raw rawFacilityTable
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Source: "facility table", Err: err}
	}
	table, err := buildTable(raw)
	if err != nil {
		return nil, &ConfigError{Source: "facility table", Err: err}
	}
	return table, nil
}

func buildTable(raw rawFacilityTable) (*FacilityTable, error) {
	if len(raw.Facilities) == 0 {
		return nil, errors.New("no facilities defined")
	}
	if raw.TechRequirementRatio < 0 || math.IsNaN(raw.TechRequirementRatio) {
		return nil, fmt.Errorf("invalid tech_requirement_ratio %v", raw.TechRequirementRatio)
	}

	t := &FacilityTable{byName: make(map[string]Facility, len(raw.Facilities))}
	starters := 0
	for _, rf := range raw.Facilities {
		if rf.Name == "" {
			return nil, errors.New("facility with empty name")
		}
		if strings.EqualFold(rf.Name, IdleName) {
			return nil, fmt.Errorf("facility name %q is reserved", rf.Name)
		}
		if _, dup := t.byName[rf.Name]; dup {
			return nil, fmt.Errorf("duplicate facility %q", rf.Name)
		}
		if rf.Cost < 0 {
			return nil, fmt.Errorf("facility %q: negative cost", rf.Name)
		}
		banned, ok := creatures.LookupType(rf.Banned)
		if !ok {
			return nil, fmt.Errorf("facility %q: unknown banned type %q", rf.Name, rf.Banned)
		}
		boosted, ok := creatures.LookupType(rf.Boosted)
		if !ok {
			return nil, fmt.Errorf("facility %q: unknown boosted type %q", rf.Name, rf.Boosted)
		}
		if banned == boosted {
			return nil, fmt.Errorf("facility %q: banned and boosted type are both %s", rf.Name, banned)
		}
		stat, ok := creatures.ParseStat(rf.Stat)
		if !ok {
			return nil, fmt.Errorf("facility %q: unknown stat %q", rf.Name, rf.Stat)
		}
		if rf.Starter {
			starters++
		}

		f := Facility{
			Name:            rf.Name,
			Description:     rf.Description,
			Cost:            rf.Cost,
			TechRequirement: int(float64(rf.Cost) * raw.TechRequirementRatio),
			Banned:          banned,
			Boosted:         boosted,
			Stat:            stat,
			Starter:         rf.Starter,
		}
		if rf.Knowledge {
			f.Output = OutputKnowledge
		}
		t.list = append(t.list, f)
		t.byName[f.Name] = f
	}
	if starters != 1 {
		return nil, fmt.Errorf("expected exactly one starter facility, found %d", starters)
	}

	sort.SliceStable(t.list, func(i, j int) bool { return t.list[i].Cost < t.list[j].Cost })
	return t, nil
}

// All returns the facilities ordered by unlock cost.
func (t *FacilityTable) All() []Facility {
	out := make([]Facility, len(t.list))
	copy(out, t.list)
	return out
}

// Get looks up a facility by name.
func (t *FacilityTable) Get(name string) (Facility, bool) {
	f, ok := t.byName[name]
	return f, ok
}

// Starter returns the always-available facility.
func (t *FacilityTable) Starter() Facility {
	for _, f := range t.list {
		if f.Starter {
			return f
		}
	}
	// buildTable guarantees exactly one starter.
	panic("catalog: facility table has no starter")
}

// Names returns all facility names ordered by unlock cost.
func (t *FacilityTable) Names() []string {
	out := make([]string, 0, len(t.list))
	for _, f := range t.list {
		out = append(out, f.Name)
	}
	return out
}
