// Package persistence provides SQLite-based save games.
// The core rules never touch it; cmd/farmsim saves and restores sessions
// through engine.Snapshot.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/creature-farm/internal/engine"
)

// ErrNoSave is returned by LoadGame when the database holds no save.
var ErrNoSave = errors.New("no saved game")

// DB wraps a SQLite connection for save game storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS roster (
		id INTEGER PRIMARY KEY,
		archetype TEXT NOT NULL,
		assignment TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS facilities (
		name TEXT PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		turn INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS game_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_turn ON events(turn);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type rosterRow struct {
	ID         uint64 `db:"id"`
	Archetype  string `db:"archetype"`
	Assignment string `db:"assignment"`
}

// Meta keys.
const (
	metaSession   = "session_id"
	metaTurn      = "turn"
	metaCurrency  = "currency"
	metaTech      = "tech"
	metaGachaCost = "gacha_cost"
	metaNextID    = "next_id"
)

// SaveGame writes a full snapshot, replacing any previous save, in one
// transaction.
func (db *DB) SaveGame(snap engine.Snapshot) error {
	slog.Info("saving game", "session", snap.SessionID, "turn", snap.Turn, "roster", len(snap.Roster))

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"roster", "facilities", "events", "game_meta"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	stmt, err := tx.Preparex("INSERT INTO roster (id, archetype, assignment) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, cv := range snap.Roster {
		if _, err := stmt.Exec(uint64(cv.ID), cv.Name, cv.Assignment.String()); err != nil {
			return fmt.Errorf("insert creature %d: %w", cv.ID, err)
		}
	}

	for _, name := range snap.Unlocked {
		if _, err := tx.Exec("INSERT INTO facilities (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("insert facility %q: %w", name, err)
		}
	}

	for _, e := range snap.Events {
		_, err := tx.Exec(
			"INSERT INTO events (turn, description, category) VALUES (?, ?, ?)",
			e.Turn, e.Description, e.Category,
		)
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}

	meta := map[string]string{
		metaSession:   snap.SessionID,
		metaTurn:      strconv.Itoa(snap.Turn),
		metaCurrency:  strconv.Itoa(snap.Currency),
		metaTech:      strconv.Itoa(snap.Tech),
		metaGachaCost: strconv.Itoa(snap.GachaCost),
		metaNextID:    strconv.FormatUint(uint64(snap.NextID), 10),
	}
	for k, v := range meta {
		if _, err := tx.Exec("INSERT INTO game_meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("save meta %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("game saved")
	return nil
}

// HasGame reports whether a save exists.
func (db *DB) HasGame() bool {
	_, err := db.getMeta(metaSession)
	return err == nil
}

// LoadGame reads the saved snapshot. The snapshot still has to be validated
// against the catalog by engine.RestoreGame.
func (db *DB) LoadGame() (engine.Snapshot, error) {
	var snap engine.Snapshot

	session, err := db.getMeta(metaSession)
	if errors.Is(err, sql.ErrNoRows) {
		return snap, ErrNoSave
	}
	if err != nil {
		return snap, fmt.Errorf("load meta: %w", err)
	}
	snap.SessionID = session

	for key, dst := range map[string]*int{
		metaTurn:      &snap.Turn,
		metaCurrency:  &snap.Currency,
		metaTech:      &snap.Tech,
		metaGachaCost: &snap.GachaCost,
	} {
		raw, err := db.getMeta(key)
		if err != nil {
			return snap, fmt.Errorf("load meta %s: %w", key, err)
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return snap, fmt.Errorf("parse meta %s: %w", key, err)
		}
		*dst = v
	}
	rawNext, err := db.getMeta(metaNextID)
	if err != nil {
		return snap, fmt.Errorf("load meta %s: %w", metaNextID, err)
	}
	next, err := strconv.ParseUint(rawNext, 10, 64)
	if err != nil {
		return snap, fmt.Errorf("parse meta %s: %w", metaNextID, err)
	}
	snap.NextID = engine.CreatureID(next)

	var rows []rosterRow
	if err := db.conn.Select(&rows, "SELECT id, archetype, assignment FROM roster ORDER BY id"); err != nil {
		return snap, fmt.Errorf("load roster: %w", err)
	}
	for _, r := range rows {
		snap.Roster = append(snap.Roster, engine.CreatureView{
			ID:         engine.CreatureID(r.ID),
			Name:       r.Archetype,
			Assignment: engine.ParseAssignment(r.Assignment),
		})
	}

	if err := db.conn.Select(&snap.Unlocked, "SELECT name FROM facilities ORDER BY name"); err != nil {
		return snap, fmt.Errorf("load facilities: %w", err)
	}

	if err := db.conn.Select(&snap.Events, "SELECT turn, description, category FROM events ORDER BY id"); err != nil {
		return snap, fmt.Errorf("load events: %w", err)
	}

	slog.Info("game loaded", "session", snap.SessionID, "turn", snap.Turn, "roster", len(snap.Roster))
	return snap, nil
}

// getMeta retrieves a metadata value.
func (db *DB) getMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM game_meta WHERE key = ?", key)
	return value, err
}
