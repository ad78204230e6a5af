package clock

import "time"

// Manual is a Clock whose readings only move when told to. It is not safe
// for concurrent use.
type Manual struct {
	now Stamp
}

// NewManual returns a manual clock starting at zero.
func NewManual() *Manual {
	return &Manual{}
}

// Now implements Clock.
func (m *Manual) Now() Stamp {
	return m.now
}

// Advance moves both readings forward.
func (m *Manual) Advance(wall, cpu time.Duration) {
	m.now.Wall += wall
	m.now.CPU += cpu
}

// Set replaces the current reading.
func (m *Manual) Set(s Stamp) {
	m.now = s
}
