// Package catalog loads the static game data: the creature archetype catalog
// (CSV) and the facility table compiled into the binary.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/talgya/creature-farm/internal/creatures"
)

// ConfigError reports missing or malformed static game data.
// Play cannot continue until the source is fixed.
type ConfigError struct {
	Source string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error in %s: %v", e.Source, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Column headers accepted for each stat. Headers are matched case-insensitively.
var columnAliases = map[string][]string{
	"name":            {"name", "english_name", "pokemon"},
	"type":            {"type", "type1", "primary_type"},
	"hp":              {"hp"},
	"attack":          {"attack", "atk"},
	"defense":         {"defense", "def"},
	"special_attack":  {"special_attack", "sp_attack", "sp_atk", "spatk"},
	"special_defense": {"special_defense", "sp_defense", "sp_def", "spdef"},
	"speed":           {"speed", "spe"},
}

var requiredColumns = []string{
	"name", "type", "hp", "attack", "defense",
	"special_attack", "special_defense", "speed",
}

// LoadCreatures reads the archetype catalog from a CSV file.
// On any failure it returns an empty catalog and a *ConfigError.
func LoadCreatures(path string) ([]creatures.Archetype, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigError{Source: path, Err: err}
	}
	defer f.Close()

	list, err := ReadCreatures(f)
	if err != nil {
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			cfgErr.Source = path
			return nil, cfgErr
		}
		return nil, &ConfigError{Source: path, Err: err}
	}

	slog.Info("creature catalog loaded", "path", path, "archetypes", len(list))
	return list, nil
}

// ReadCreatures parses catalog CSV from r. The first record is the header.
func ReadCreatures(r io.Reader) ([]creatures.Archetype, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &ConfigError{Source: "catalog", Err: errors.New("empty file")}
	}
	if err != nil {
		return nil, &ConfigError{Source: "catalog", Err: fmt.Errorf("read header: %w", err)}
	}

	cols, err := resolveColumns(header)
	if err != nil {
		return nil, &ConfigError{Source: "catalog", Err: err}
	}

	var list []creatures.Archetype
	seen := make(map[string]bool)
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ConfigError{Source: "catalog", Err: fmt.Errorf("line %d: %w", line, err)}
		}
		if isBlank(rec) {
			continue
		}

		a, err := parseArchetype(rec, cols)
		if err != nil {
			return nil, &ConfigError{Source: "catalog", Err: fmt.Errorf("line %d: %w", line, err)}
		}
		if seen[a.Name] {
			return nil, &ConfigError{Source: "catalog", Err: fmt.Errorf("line %d: duplicate creature %q", line, a.Name)}
		}
		seen[a.Name] = true
		list = append(list, a)
	}

	return list, nil
}

func resolveColumns(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}

	cols := make(map[string]int, len(requiredColumns))
	for _, field := range requiredColumns {
		found := false
		for _, alias := range columnAliases[field] {
			if i, ok := index[alias]; ok {
				cols[field] = i
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("missing column %q", field)
		}
	}
	return cols, nil
}

func parseArchetype(rec []string, cols map[string]int) (creatures.Archetype, error) {
	field := func(name string) (string, error) {
		i := cols[name]
		if i >= len(rec) {
			return "", fmt.Errorf("missing %s", name)
		}
		return strings.TrimSpace(rec[i]), nil
	}

	name, err := field("name")
	if err != nil {
		return creatures.Archetype{}, err
	}
	if name == "" {
		return creatures.Archetype{}, errors.New("empty name")
	}
	tag, err := field("type")
	if err != nil {
		return creatures.Archetype{}, err
	}

	stat := func(col string) (int, error) {
		raw, err := field(col)
		if err != nil {
			return 0, err
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("%s %s: %w", name, col, err)
		}
		if v < 0 {
			return 0, fmt.Errorf("%s %s: negative value %d", name, col, v)
		}
		return v, nil
	}

	var s creatures.Stats
	for _, target := range []struct {
		col string
		dst *int
	}{
		{"hp", &s.HP},
		{"attack", &s.Attack},
		{"defense", &s.Defense},
		{"special_attack", &s.SpecialAttack},
		{"special_defense", &s.SpecialDefense},
		{"speed", &s.Speed},
	} {
		v, err := stat(target.col)
		if err != nil {
			return creatures.Archetype{}, err
		}
		*target.dst = v
	}

	et, ok := creatures.LookupType(tag)
	if !ok {
		slog.Debug("unrecognized type tag, using normal", "creature", name, "tag", tag)
		et = creatures.TypeNormal
	}

	return creatures.Archetype{Name: name, Type: et, Stats: s}, nil
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
