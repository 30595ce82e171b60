package controller

import "time"

// ButtonSource reads the confirmation push button, true while held down
type ButtonSource interface {
	Pressed() bool
}

// Debouncer turns raw button levels into accepted presses: only a
// low-to-high transition at least Window after the previous accepted press
// counts.
type Debouncer struct {
	Window time.Duration

	lastLevel    bool
	lastAccepted time.Time
}

// Press feeds one sampled level and reports whether it is an accepted press
func (d *Debouncer) Press(level bool, now time.Time) bool {
	edge := level && !d.lastLevel
	d.lastLevel = level

	if !edge {
		return false
	}
	if !d.lastAccepted.IsZero() && now.Sub(d.lastAccepted) < d.Window {
		return false
	}

	d.lastAccepted = now
	return true
}
