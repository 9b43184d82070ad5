// Package engine implements the farm rules: production efficiency, turn
// resolution, the gacha draw and facility unlocks, plus the Game session
// that serializes them and the ticker that advances turns on its own.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Ticker advances turns on a fixed interval, the idle half of the game.
type Ticker struct {
	Interval time.Duration // Base interval between turns
	OnTurn   func() error  // Called once per interval; populated during setup

	mu      sync.Mutex
	speed   float64 // Multiplier: 1.0 = base interval, 0 = paused
	running bool
}

// NewTicker creates a ticker at normal speed.
func NewTicker(interval time.Duration, onTurn func() error) *Ticker {
	return &Ticker{
		Interval: interval,
		OnTurn:   onTurn,
		speed:    1.0,
	}
}

// ForGame returns a ticker that advances g by one turn per interval.
func ForGame(g *Game, interval time.Duration) *Ticker {
	return NewTicker(interval, func() error {
		_, err := g.AdvanceTurn()
		return err
	})
}

// Speed returns the current speed multiplier.
func (t *Ticker) Speed() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.speed
}

// SetSpeed changes the speed multiplier. Zero or negative pauses.
func (t *Ticker) SetSpeed(speed float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.speed = speed
}

// Running reports whether Run is active.
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Run advances turns until ctx is cancelled or OnTurn returns an error.
// Blocks. An OnTurn error is an integrity violation and stops the ticker.
func (t *Ticker) Run(ctx context.Context) error {
	t.mu.Lock()
	t.running = true
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		t.running = false
		t.mu.Unlock()
	}()

	slog.Info("auto-advance started", "interval", t.Interval, "speed", t.Speed())

	for {
		speed := t.Speed()
		wait := 100 * time.Millisecond // Paused; poll for a speed change.
		if speed > 0 {
			wait = time.Duration(float64(t.Interval) / speed)
		}

		select {
		case <-ctx.Done():
			slog.Info("auto-advance stopped")
			return nil
		case <-time.After(wait):
		}

		if speed <= 0 || t.OnTurn == nil {
			continue
		}
		if err := t.OnTurn(); err != nil {
			slog.Error("auto-advance halted", "error", err)
			return err
		}
	}
}
