package core

import "time"

// Clock measures elapsed time for the frame loop. Call Update just
// before reading Elapsed; a stopped clock keeps its last reading.
type Clock struct {
	startTime time.Time
	elapsed   time.Duration
}

func NewClock() *Clock {
	return &Clock{}
}

// Start resets and begins the clock.
func (c *Clock) Start() {
	c.startTime = time.Now()
	c.elapsed = 0
}

// Update refreshes the elapsed reading. No effect on a stopped clock.
func (c *Clock) Update() {
	if !c.startTime.IsZero() {
		c.elapsed = time.Since(c.startTime)
	}
}

// Stop freezes the clock without resetting the elapsed reading.
func (c *Clock) Stop() {
	c.startTime = time.Time{}
}

// Elapsed returns seconds since Start, as of the last Update.
func (c *Clock) Elapsed() float64 {
	return c.elapsed.Seconds()
}
