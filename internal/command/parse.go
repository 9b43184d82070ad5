// Package command parses REPL input into game actions. Command words,
// facility names and element types tolerate typos via edit distance.
package command

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/talgya/creature-farm/internal/catalog"
	"github.com/talgya/creature-farm/internal/creatures"
	"github.com/talgya/creature-farm/internal/engine"
)

// Kind identifies a command.
type Kind uint8

const (
	KindHelp Kind = iota
	KindStatus
	KindRoster
	KindFacilities
	KindAssign
	KindTurn
	KindDraw
	KindUnlock
	KindPreview
	KindEvents
	KindSave
	KindQuit
)

// Command is a parsed REPL line.
type Command struct {
	Kind     Kind
	Creature engine.CreatureID
	Target   engine.Assignment    // assign, preview
	Facility string               // unlock
	Type     creatures.ElementType // draw
	Count    int                  // turn, events
}

// ErrEmpty is returned for blank input.
var ErrEmpty = errors.New("empty command")

type commandDef struct {
	canonical string
	aliases   []string
	kind      Kind
	usage     string
}

var commandDefs = []commandDef{
	{"help", []string{"h", "?", "commands"}, KindHelp, "help"},
	{"status", []string{"st", "stats"}, KindStatus, "status"},
	{"roster", []string{"ls", "creatures", "team"}, KindRoster, "roster"},
	{"facilities", []string{"fac", "shop"}, KindFacilities, "facilities"},
	{"assign", []string{"a", "work", "send"}, KindAssign, "assign <creature-id> <facility|idle>"},
	{"turn", []string{"t", "next", "advance"}, KindTurn, "turn [count]"},
	{"draw", []string{"d", "gacha", "pull"}, KindDraw, "draw <type>"},
	{"unlock", []string{"u", "buy"}, KindUnlock, "unlock <facility>"},
	{"preview", []string{"p", "try"}, KindPreview, "preview <creature-id> <facility|idle>"},
	{"events", []string{"log", "history"}, KindEvents, "events [count]"},
	{"save", nil, KindSave, "save"},
	{"quit", []string{"q", "exit"}, KindQuit, "quit"},
}

// Usage lists every command's syntax.
func Usage() []string {
	out := make([]string, 0, len(commandDefs))
	for _, d := range commandDefs {
		out = append(out, d.usage)
	}
	return out
}

// Parser resolves REPL lines against the known facility names.
type Parser struct {
	facilities []string
	words      map[string]commandDef
	wordList   []string
	typeNames  []string
}

// NewParser creates a parser that recognises the given facility names.
func NewParser(facilities []string) *Parser {
	p := &Parser{
		facilities: append([]string(nil), facilities...),
		words:      make(map[string]commandDef),
	}
	for _, d := range commandDefs {
		p.words[d.canonical] = d
		p.wordList = append(p.wordList, d.canonical)
		for _, a := range d.aliases {
			p.words[a] = d
			p.wordList = append(p.wordList, a)
		}
	}
	for _, t := range creatures.AllTypes() {
		p.typeNames = append(p.typeNames, t.String())
	}
	return p
}

// Parse turns one input line into a Command.
func (p *Parser) Parse(line string) (Command, error) {
	tokens := strings.Fields(strings.ToLower(strings.TrimSpace(line)))
	if len(tokens) == 0 {
		return Command{}, ErrEmpty
	}

	word, ok := resolve(tokens[0], p.wordList, false)
	if !ok {
		return Command{}, fmt.Errorf("unknown command %q (try help)", tokens[0])
	}
	def := p.words[word]
	args := tokens[1:]
	cmd := Command{Kind: def.kind}

	usageErr := func() error { return fmt.Errorf("usage: %s", def.usage) }

	switch def.kind {
	case KindAssign, KindPreview:
		if len(args) < 2 {
			return Command{}, usageErr()
		}
		id, err := strconv.ParseUint(strings.TrimPrefix(args[0], "#"), 10, 64)
		if err != nil || id == 0 {
			return Command{}, fmt.Errorf("invalid creature id %q", args[0])
		}
		cmd.Creature = engine.CreatureID(id)
		target, err := p.resolveTarget(args[1:])
		if err != nil {
			return Command{}, err
		}
		cmd.Target = target

	case KindTurn, KindEvents:
		cmd.Count = 1
		if def.kind == KindEvents {
			cmd.Count = 10
		}
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 || n > engine.MaxTurnsPerAdvance {
				return Command{}, fmt.Errorf("invalid count %q (1-%d)", args[0], engine.MaxTurnsPerAdvance)
			}
			cmd.Count = n
		}

	case KindDraw:
		if len(args) != 1 {
			return Command{}, usageErr()
		}
		name, ok := resolve(args[0], p.typeNames, true)
		if !ok {
			return Command{}, fmt.Errorf("unknown type %q", args[0])
		}
		cmd.Type, _ = creatures.LookupType(name)

	case KindUnlock:
		if len(args) == 0 {
			return Command{}, usageErr()
		}
		name, ok := resolve(strings.Join(args, "_"), p.facilities, true)
		if !ok {
			return Command{}, fmt.Errorf("unknown facility %q", strings.Join(args, " "))
		}
		cmd.Facility = name
	}

	return cmd, nil
}

func (p *Parser) resolveTarget(args []string) (engine.Assignment, error) {
	joined := strings.Join(args, "_")
	if joined == catalog.IdleName || joined == "rest" {
		return engine.Idle(), nil
	}
	name, ok := resolve(joined, p.facilities, true)
	if !ok {
		return engine.Assignment{}, fmt.Errorf("unknown facility %q", strings.Join(args, " "))
	}
	return engine.AssignedTo(name), nil
}

type scored struct {
	val   string
	score float64
}

// resolve picks the best candidate for token: exact match, then prefix, then
// the closest candidate within the edit-distance limit. Prefix matches are
// only accepted when allowPrefix is set or the token is at least 3 runes.
func resolve(token string, candidates []string, allowPrefix bool) (string, bool) {
	token = strings.TrimSpace(strings.ToLower(token))
	if token == "" {
		return "", false
	}

	results := make([]scored, 0, len(candidates))
	for _, cand := range candidates {
		score := 0.0
		switch {
		case token == cand:
			score = 1.0
		case strings.HasPrefix(cand, token) && (allowPrefix || len(token) >= 3) && len(token) >= 2:
			score = 0.9
		default:
			if len(token) < 3 {
				continue
			}
			dist := levenshtein.ComputeDistance(token, cand)
			if dist > levenshteinLimit(len(cand)) {
				continue
			}
			score = 0.72 - (0.08 * float64(dist))
		}
		results = append(results, scored{val: cand, score: score})
	}
	if len(results) == 0 {
		return "", false
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score == results[j].score {
			return results[i].val < results[j].val
		}
		return results[i].score > results[j].score
	})
	// Two prefix hits with nothing better is ambiguous.
	if len(results) > 1 && results[0].score == 0.9 && results[1].score == 0.9 {
		return "", false
	}
	return results[0].val, true
}

func levenshteinLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}
