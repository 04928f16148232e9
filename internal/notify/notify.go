// Package notify owns the operator notification: at most one message is live,
// and it clears itself after a fixed time unless a newer one replaced it.
package notify

import (
	"sync"
	"time"

	"github.com/abrezinsky/claimboard/internal/logger"
	"github.com/abrezinsky/claimboard/internal/models"
)

// DefaultTTL is how long a notification stays visible
const DefaultTTL = 3 * time.Second

// Timer is a scheduled callback that can be cancelled
type Timer interface {
	Stop() bool
}

// Clock supplies time and scheduling so expiry can be driven by tests
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock returns the wall clock
func RealClock() Clock {
	return realClock{}
}

// Notifier holds the current notification and its expiry timer
type Notifier struct {
	mu       sync.Mutex
	log      logger.Logger
	clock    Clock
	ttl      time.Duration
	current  *models.Notification
	seq      uint64
	timer    Timer
	onChange func()
}

// New creates a Notifier. A nil clock means the wall clock and a
// non-positive ttl means DefaultTTL.
func New(log logger.Logger, clock Clock, ttl time.Duration) *Notifier {
	if clock == nil {
		clock = RealClock()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Notifier{log: log, clock: clock, ttl: ttl}
}

// SetOnChange registers fn to run whenever the notification appears or clears.
func (n *Notifier) SetOnChange(fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onChange = fn
}

// Notify replaces any current notification and restarts the expiry timer.
// The previous timer is cancelled, and an expiry that still fires checks
// the sequence number so it can only clear its own notification.
func (n *Notifier) Notify(text string, severity models.Severity) {
	n.mu.Lock()
	if n.timer != nil {
		n.timer.Stop()
	}
	n.seq++
	seq := n.seq
	n.current = &models.Notification{
		Seq:       seq,
		Text:      text,
		Severity:  severity,
		ExpiresAt: n.clock.Now().Add(n.ttl),
	}
	n.timer = n.clock.AfterFunc(n.ttl, func() { n.expire(seq) })
	fn := n.onChange
	n.mu.Unlock()

	if severity == models.SeverityError {
		n.log.Warn("Notification", "text", text, "severity", severity)
	} else {
		n.log.Info("Notification", "text", text, "severity", severity)
	}

	if fn != nil {
		fn()
	}
}

// Success shows a success notification
func (n *Notifier) Success(text string) {
	n.Notify(text, models.SeveritySuccess)
}

// Error shows an error notification
func (n *Notifier) Error(text string) {
	n.Notify(text, models.SeverityError)
}

func (n *Notifier) expire(seq uint64) {
	n.mu.Lock()
	if n.current == nil || n.current.Seq != seq {
		n.mu.Unlock()
		return
	}
	n.current = nil
	n.timer = nil
	fn := n.onChange
	n.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Current returns a copy of the live notification, or nil
func (n *Notifier) Current() *models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return nil
	}
	c := *n.current
	return &c
}

// Close cancels any pending expiry
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}
