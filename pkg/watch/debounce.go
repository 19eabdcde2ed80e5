package watch

import (
	"sync"
	"time"
)

// DefaultWindow is the debounce window for mutation-triggered rescans.
const DefaultWindow = 500 * time.Millisecond

// Debouncer collapses bursts of triggers into one call of fn, made once
// the window has passed without a new trigger.
type Debouncer struct {
	mu     sync.Mutex
	window time.Duration
	timer  *time.Timer
	fn     func()
}

// NewDebouncer returns a Debouncer. Window <= 0 selects DefaultWindow.
func NewDebouncer(window time.Duration, fn func()) *Debouncer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Debouncer{window: window, fn: fn}
}

// Trigger (re)starts the window.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	d.timer = nil
	d.mu.Unlock()
	d.fn()
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop cancels a scheduled call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
