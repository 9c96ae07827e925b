package dashboard

import (
	"sync"
	"time"
)

// ToastDuration is how long a notification stays visible.
const ToastDuration = 1600 * time.Millisecond

// Toast is a single shared notification. Showing a new message replaces
// the current one and restarts the hide timer; messages are not queued.
type Toast struct {
	ttl   time.Duration
	after func(time.Duration, func()) func() bool

	mu      sync.Mutex
	msg     string
	visible bool
	gen     uint64
	stop    func() bool
}

// NewToast returns a Toast whose messages hide after ttl.
func NewToast(ttl time.Duration) *Toast {
	return &Toast{
		ttl: ttl,
		after: func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		},
	}
}

// Show displays msg, interrupting any message already shown.
func (t *Toast) Show(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stop != nil {
		t.stop()
	}
	t.gen++
	gen := t.gen
	t.msg = msg
	t.visible = true
	t.stop = t.after(t.ttl, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.gen == gen {
			t.visible = false
		}
	})
}

// Current returns the visible message, if any.
func (t *Toast) Current() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.visible {
		return "", false
	}
	return t.msg, true
}
