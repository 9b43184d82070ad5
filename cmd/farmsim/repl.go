package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/talgya/creature-farm/internal/command"
	"github.com/talgya/creature-farm/internal/engine"
	"github.com/talgya/creature-farm/internal/persistence"
)

// repl is the terminal front end. Every action goes through the Game, so it
// can share the session with the HTTP API and the ticker.
type repl struct {
	game   *engine.Game
	db     *persistence.DB
	parser *command.Parser
	out    io.Writer
}

func newREPL(g *engine.Game, db *persistence.DB, out io.Writer) *repl {
	return &repl{
		game:   g,
		db:     db,
		parser: command.NewParser(g.Facilities().Names()),
		out:    out,
	}
}

// run reads commands until quit or end of input.
func (r *repl) run(in io.Reader) {
	fmt.Fprintln(r.out, "Welcome to the creature farm. Type help for commands.")
	r.status()

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return
		}
		cmd, err := r.parser.Parse(scanner.Text())
		if errors.Is(err, command.ErrEmpty) {
			continue
		}
		if err != nil {
			fmt.Fprintln(r.out, err)
			continue
		}
		if r.exec(cmd) {
			return
		}
	}
}

// exec runs one command and reports whether the session should end.
func (r *repl) exec(cmd command.Command) bool {
	switch cmd.Kind {
	case command.KindHelp:
		fmt.Fprintln(r.out, "Commands:")
		for _, u := range command.Usage() {
			fmt.Fprintf(r.out, "  %s\n", u)
		}

	case command.KindStatus:
		r.status()

	case command.KindRoster:
		r.roster()

	case command.KindFacilities:
		r.facilities()

	case command.KindAssign:
		if err := r.game.Assign(cmd.Creature, cmd.Target); err != nil {
			r.reject(err)
			return false
		}
		y, err := r.game.Preview(cmd.Creature, cmd.Target)
		if err != nil {
			fmt.Fprintf(r.out, "INTERNAL ERROR: %v\n", err)
			return false
		}
		fmt.Fprintf(r.out, "#%d now %s %s\n", cmd.Creature, describeAssignment(cmd.Target), describeYield(y))

	case command.KindTurn:
		reports, err := r.game.AdvanceTurns(cmd.Count)
		for _, rep := range reports {
			fmt.Fprintf(r.out, "Turn %d: +%s currency, +%s tech from %d workers\n",
				rep.Turn, humanize.Comma(int64(rep.Currency)), humanize.Comma(int64(rep.Tech)), len(rep.Contributions))
		}
		if err != nil {
			r.reject(err)
			return false
		}
		r.status()

	case command.KindDraw:
		res, err := r.game.Draw(cmd.Type)
		if err != nil {
			r.reject(err)
			return false
		}
		a := res.Creature.Archetype
		fmt.Fprintf(r.out, "You drew %s (%s) as #%d for %s. Next draw costs %s.\n",
			a.Name, a.Type, res.Creature.ID, humanize.Comma(int64(res.Paid)), humanize.Comma(int64(res.NextCost)))

	case command.KindUnlock:
		f, err := r.game.Unlock(cmd.Facility)
		if err != nil {
			r.reject(err)
			return false
		}
		fmt.Fprintf(r.out, "Unlocked %s for %s.\n", f.Name, humanize.Comma(int64(f.Cost)))

	case command.KindPreview:
		y, err := r.game.Preview(cmd.Creature, cmd.Target)
		if err != nil {
			r.reject(err)
			return false
		}
		fmt.Fprintf(r.out, "#%d %s would yield %s\n", cmd.Creature, describeAssignment(cmd.Target), describeYield(y))

	case command.KindEvents:
		for _, e := range r.game.Events(cmd.Count) {
			fmt.Fprintf(r.out, "[turn %d] %s\n", e.Turn, e.Description)
		}

	case command.KindSave:
		if r.db == nil {
			fmt.Fprintln(r.out, "Saving is disabled (set FARMSIM_DB).")
			return false
		}
		if err := r.db.SaveGame(r.game.Snapshot()); err != nil {
			fmt.Fprintf(r.out, "Save failed: %v\n", err)
			return false
		}
		fmt.Fprintln(r.out, "Game saved.")

	case command.KindQuit:
		return true
	}
	return false
}

func (r *repl) status() {
	snap := r.game.Snapshot()
	fmt.Fprintf(r.out, "Turn %d | Currency %s | Tech %s | Next draw %s | Creatures %d/%d\n",
		snap.Turn,
		humanize.Comma(int64(snap.Currency)),
		humanize.Comma(int64(snap.Tech)),
		humanize.Comma(int64(snap.GachaCost)),
		len(snap.Roster), len(r.game.Catalog()),
	)
}

func (r *repl) roster() {
	for _, cv := range r.game.Snapshot().Roster {
		fmt.Fprintf(r.out, "#%-3d %-12s %-9s %-12s %s\n",
			cv.ID, cv.Name, cv.Type, cv.Assignment, describeYield(cv.Yield))
	}
}

func (r *repl) facilities() {
	snap := r.game.Snapshot()
	unlocked := make(map[string]bool, len(snap.Unlocked))
	for _, name := range snap.Unlocked {
		unlocked[name] = true
	}
	affordable := make(map[string]bool)
	for _, f := range r.game.Affordable() {
		affordable[f.Name] = true
	}

	for _, f := range r.game.Facilities().All() {
		state := "locked"
		switch {
		case unlocked[f.Name]:
			state = "open"
		case affordable[f.Name]:
			state = "affordable"
		}
		fmt.Fprintf(r.out, "%-12s %-10s cost %-6s tech %-6s %s+ %s- %s (%s)\n",
			f.Name, state,
			humanize.Comma(int64(f.Cost)), humanize.Comma(int64(f.TechRequirement)),
			f.Boosted, f.Banned, f.Stat, f.Output)
	}
}

// reject prints an action failure. Expected rejections read as game
// feedback; integrity violations are called out as bugs.
func (r *repl) reject(err error) {
	if engine.IsIntegrity(err) {
		switch {
		case errors.Is(err, engine.ErrUnknownCreature):
			fmt.Fprintln(r.out, "No such creature. Check roster for ids.")
			return
		case errors.Is(err, engine.ErrFacilityLocked):
			fmt.Fprintln(r.out, "That facility is still locked.")
			return
		}
		fmt.Fprintf(r.out, "INTERNAL ERROR: %v\n", err)
		return
	}
	msg := err.Error()
	fmt.Fprintf(r.out, "Rejected: %s%s\n", strings.ToUpper(msg[:1]), msg[1:])
}

func describeAssignment(a engine.Assignment) string {
	if name, ok := a.Facility(); ok {
		return "at " + name
	}
	return "resting"
}

func describeYield(y engine.Yield) string {
	if y.Status == engine.StatusResting {
		return "resting"
	}
	return fmt.Sprintf("+%s currency, +%s tech [%s]",
		humanize.Comma(int64(y.Currency)), humanize.Comma(int64(y.Tech)), y.Status)
}
