package session

import (
	"sync"
	"time"
)

// watchdog fires onExpire once no activity was seen for timeout. Activity only
// records a timestamp; the timer re-arms itself for the remaining time when it fires early.
type watchdog struct {
	timeout  time.Duration
	onExpire func()

	mu      sync.Mutex
	timer   *time.Timer
	last    time.Time
	stopped bool
}

func newWatchdog(timeout time.Duration, onExpire func()) *watchdog {
	w := &watchdog{timeout: timeout, onExpire: onExpire, last: time.Now()}
	w.timer = time.AfterFunc(timeout, w.fire)
	return w
}

func (w *watchdog) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.last = time.Now()
}

func (w *watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	w.timer.Stop()
}

func (w *watchdog) fire() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	if idle := time.Since(w.last); idle < w.timeout {
		w.timer.Reset(w.timeout - idle)
		w.mu.Unlock()
		return
	}
	w.stopped = true
	w.mu.Unlock()

	w.onExpire()
}
