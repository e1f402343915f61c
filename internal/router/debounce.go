package router

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of writes to the same key into a single fire.
// Each Touch (re)arms a per-key timer; the fire callback runs only once the
// key has gone quiet for the full window. Agents write drop-files
// incrementally, so firing on the first write would capture a partial
// message.
type Debouncer struct {
	quiet time.Duration
	fire  func(key string)

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// NewDebouncer creates a Debouncer that invokes fire after a key has been
// quiet for the given window. The fire callback runs on a timer goroutine.
func NewDebouncer(quiet time.Duration, fire func(key string)) *Debouncer {
	return &Debouncer{
		quiet:  quiet,
		fire:   fire,
		timers: make(map[string]*time.Timer),
	}
}

// Touch marks the key as freshly written, starting or re-arming its quiet
// window.
func (d *Debouncer) Touch(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	if timer, ok := d.timers[key]; ok {
		timer.Reset(d.quiet)
		return
	}

	d.timers[key] = time.AfterFunc(d.quiet, func() {
		d.mu.Lock()
		delete(d.timers, key)
		closed := d.closed
		d.mu.Unlock()

		if !closed {
			d.fire(key)
		}
	})
}

// Cancel drops any pending fire for the key.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.timers[key]; ok {
		timer.Stop()
		delete(d.timers, key)
	}
}

// Stop cancels all pending fires. The Debouncer cannot be reused afterwards.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	for key, timer := range d.timers {
		timer.Stop()
		delete(d.timers, key)
	}
}

// Pending returns the number of keys with an armed quiet window.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}
