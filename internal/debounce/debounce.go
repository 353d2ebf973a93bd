// Package debounce provides a cancel-and-reschedule timer: only the most
// recently scheduled call fires, and only after the delay passes without
// another Schedule or Cancel.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs at most one delayed function at a time.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	seq   uint64
}

// New returns a Debouncer with the given quiescence delay.
func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Schedule replaces any pending call with fn and returns its id. fn receives
// the id so callers can tag the work it starts.
func (d *Debouncer) Schedule(fn func(id uint64)) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	id := d.seq
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current := d.seq == id
		if current {
			d.timer = nil
		}
		d.mu.Unlock()
		// A timer that already fired when Stop was called still lands here.
		if current {
			fn(id)
		}
	})
	return id
}

// Cancel drops the pending call, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
}

// Current returns the id of the most recent Schedule or Cancel.
func (d *Debouncer) Current() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seq
}

// Pending reports whether a call is waiting to fire.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

