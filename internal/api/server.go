// Package api provides the HTTP API for observing and playing a farm session.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/creature-farm/internal/catalog"
	"github.com/talgya/creature-farm/internal/creatures"
	"github.com/talgya/creature-farm/internal/engine"
	"github.com/talgya/creature-farm/internal/persistence"
)

// Server serves one game session over HTTP.
type Server struct {
	Game        *engine.Game
	Ticker      *engine.Ticker  // Nil when auto-advance is off
	DB          *persistence.DB // Nil when saves are disabled
	Port        int
	AdminKey    string // Bearer token for POST endpoints. Empty = POST disabled.
	CORSOrigins []string

	// Draws per client per hour. Zero uses the default.
	DrawLimit int
}

// Handler builds the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	limit := s.DrawLimit
	if limit <= 0 {
		limit = 120
	}
	drawLimiter := NewRateLimiter(limit, time.Hour)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/roster", s.handleRoster)
	mux.HandleFunc("/api/v1/facilities", s.handleFacilities)
	mux.HandleFunc("/api/v1/catalog", s.handleCatalog)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/efficiency", s.handleEfficiency)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/assign", s.adminOnly(postOnly(s.handleAssign)))
	mux.HandleFunc("/api/v1/turn", s.adminOnly(postOnly(s.handleTurn)))
	mux.HandleFunc("/api/v1/draw", s.adminOnly(postOnly(RateLimitMiddleware(drawLimiter, s.handleDraw))))
	mux.HandleFunc("/api/v1/unlock", s.adminOnly(postOnly(s.handleUnlock)))
	mux.HandleFunc("/api/v1/save", s.adminOnly(postOnly(s.handleSave)))
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))

	return corsMiddleware(s.CORSOrigins, mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	handler := s.Handler()
	go func() {
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Localhost dev servers are always allowed.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowedOrigins[origin] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no FARMSIM_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func postOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.Game.Snapshot()

	affordable := []string{}
	for _, f := range s.Game.Affordable() {
		affordable = append(affordable, f.Name)
	}

	status := map[string]any{
		"session":          snap.SessionID,
		"turn":             snap.Turn,
		"currency":         snap.Currency,
		"currency_display": humanize.Comma(int64(snap.Currency)),
		"tech":             snap.Tech,
		"tech_display":     humanize.Comma(int64(snap.Tech)),
		"gacha_cost":       snap.GachaCost,
		"roster_size":      len(snap.Roster),
		"catalog_size":     len(s.Game.Catalog()),
		"unlocked":         snap.Unlocked,
		"affordable":       affordable,
		"auto_advance":     s.Ticker != nil,
	}
	if s.Ticker != nil {
		status["speed"] = s.Ticker.Speed()
		status["running"] = s.Ticker.Running()
	}
	writeJSON(w, status)
}

func (s *Server) handleRoster(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Game.Snapshot().Roster)
}

func (s *Server) handleFacilities(w http.ResponseWriter, r *http.Request) {
	type facilityEntry struct {
		catalog.Facility
		Unlocked   bool `json:"unlocked"`
		Affordable bool `json:"affordable"`
	}

	unlocked := make(map[string]bool)
	for _, name := range s.Game.Snapshot().Unlocked {
		unlocked[name] = true
	}
	affordable := make(map[string]bool)
	for _, f := range s.Game.Affordable() {
		affordable[f.Name] = true
	}

	all := s.Game.Facilities().All()
	result := make([]facilityEntry, 0, len(all))
	for _, f := range all {
		result = append(result, facilityEntry{
			Facility:   f,
			Unlocked:   unlocked[f.Name],
			Affordable: affordable[f.Name],
		})
	}
	writeJSON(w, result)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	type catalogEntry struct {
		creatures.Archetype
		Owned bool `json:"owned"`
	}

	owned := make(map[string]bool)
	for _, cv := range s.Game.Snapshot().Roster {
		owned[cv.Name] = true
	}

	typeFilter := r.URL.Query().Get("type")
	var want creatures.ElementType
	if typeFilter != "" {
		t, ok := creatures.LookupType(typeFilter)
		if !ok {
			http.Error(w, fmt.Sprintf("unknown type %q", typeFilter), http.StatusBadRequest)
			return
		}
		want = t
	}

	result := []catalogEntry{}
	for _, a := range s.Game.Catalog() {
		if typeFilter != "" && a.Type != want {
			continue
		}
		result = append(result, catalogEntry{Archetype: a, Owned: owned[a.Name]})
	}
	writeJSON(w, result)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	events := s.Game.Events(0)

	// Optional category filter (turn, draw, unlock, assign).
	if category := r.URL.Query().Get("category"); category != "" {
		var filtered []engine.Event
		for _, e := range events {
			if e.Category == category {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	start := 0
	if len(events) > limit {
		start = len(events) - limit
	}
	writeJSON(w, append([]engine.Event{}, events[start:]...))
}

// handleEfficiency previews a creature's yield at a facility without moving it.
func (s *Server) handleEfficiency(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.URL.Query().Get("creature"), 10, 64)
	if err != nil {
		http.Error(w, "creature must be a numeric id", http.StatusBadRequest)
		return
	}
	target, ok := s.resolveTarget(r.URL.Query().Get("facility"))
	if !ok {
		http.Error(w, "unknown facility", http.StatusNotFound)
		return
	}

	y, err := s.Game.Preview(engine.CreatureID(id), target)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"creature":   id,
		"assignment": target,
		"yield":      y,
	})
}

// resolveTarget parses a facility name or "idle", rejecting names that are
// not in the facility table at all.
func (s *Server) resolveTarget(name string) (engine.Assignment, bool) {
	target := engine.ParseAssignment(strings.ToLower(strings.TrimSpace(name)))
	if f, ok := target.Facility(); ok {
		if _, known := s.Game.Facilities().Get(f); !known {
			return target, false
		}
	}
	return target, true
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Creature engine.CreatureID `json:"creature"`
		Facility string            `json:"facility"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Facility == "" {
		http.Error(w, `facility is required ("idle" to rest)`, http.StatusBadRequest)
		return
	}

	target, ok := s.resolveTarget(req.Facility)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown facility %q", req.Facility), http.StatusNotFound)
		return
	}
	if err := s.Game.Assign(req.Creature, target); err != nil {
		writeError(w, err)
		return
	}
	y, err := s.Game.Preview(req.Creature, target)
	if err != nil {
		// The assignment was just accepted, so this is never the caller's fault.
		slog.Error("preview after assign failed", "creature", req.Creature, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"creature":   req.Creature,
		"assignment": target,
		"yield":      y,
	})
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Count int `json:"count"`
	}{Count: 1}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
	}
	if req.Count < 1 || req.Count > engine.MaxTurnsPerAdvance {
		http.Error(w, fmt.Sprintf("count must be 1-%d", engine.MaxTurnsPerAdvance), http.StatusBadRequest)
		return
	}

	reports, err := s.Game.AdvanceTurns(req.Count)
	if err != nil {
		// A failed turn is never the caller's fault.
		slog.Error("turn failed", "error", err, "resolved", len(reports))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	snap := s.Game.Snapshot()
	writeJSON(w, map[string]any{
		"reports":  reports,
		"turn":     snap.Turn,
		"currency": snap.Currency,
		"tech":     snap.Tech,
	})
}

func (s *Server) handleDraw(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	preferred, ok := creatures.LookupType(strings.ToLower(req.Type))
	if !ok {
		http.Error(w, fmt.Sprintf("unknown type %q", req.Type), http.StatusBadRequest)
		return
	}

	res, err := s.Game.Draw(preferred)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Facility string `json:"facility"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	f, err := s.Game.Unlock(req.Facility)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"facility": f,
		"currency": s.Game.Snapshot().Currency,
	})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	snap := s.Game.Snapshot()
	if err := s.DB.SaveGame(snap); err != nil {
		slog.Error("save failed", "error", err)
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"turn":    snap.Turn,
		"message": "game saved",
	})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Ticker == nil {
		http.Error(w, "auto-advance disabled (no FARMSIM_AUTO_ADVANCE set)", http.StatusServiceUnavailable)
		return
	}
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Ticker.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Ticker.Speed()})
}

// statusFor maps an engine error to an HTTP status. Expected rejections are
// client errors; anything else is a server fault.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrInsufficientResources):
		return http.StatusPaymentRequired
	case errors.Is(err, engine.ErrCollectionComplete),
		errors.Is(err, engine.ErrAlreadyUnlocked),
		errors.Is(err, engine.ErrFacilityLocked),
		errors.Is(err, engine.ErrNoCatalog):
		return http.StatusConflict
	case errors.Is(err, engine.ErrUnknownCreature),
		errors.Is(err, engine.ErrUnknownFacility):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		slog.Error("request failed", "error", err, "integrity", engine.IsIntegrity(err))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
