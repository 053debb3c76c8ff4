// Package advisory provides the rate-limit notice shown to the operator at
// most once per cooldown window.
package advisory

import (
	"context"
	"sync"
	"time"

	"roster-console/internal/shared/eventbus"
	"roster-console/internal/shared/logger"
)

const (
	// DefaultWindow is the suppression window after an advisory fires
	DefaultWindow = 30 * time.Second

	DefaultTitle   = "API Rate Limit Reached"
	DefaultMessage = "The demo API has a request limit. Please wait a moment before trying again. This is not an application error."

	// DetailKey marks a rate-limited error whose advisory was delivered
	DetailKey = "advisory"
)

// Clock returns the current time
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock is the wall clock
var SystemClock Clock = ClockFunc(time.Now)

// Advisory is a user-facing notice
type Advisory struct {
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Source  string    `json:"source,omitempty"`
	FiredAt time.Time `json:"firedAt"`
}

// Sink delivers advisories to the operator
type Sink interface {
	Notify(ctx context.Context, a Advisory)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(ctx context.Context, a Advisory)

func (f SinkFunc) Notify(ctx context.Context, a Advisory) { f(ctx, a) }

// Notifier is the contract the HTTP access layer depends on
type Notifier interface {
	Fire(ctx context.Context, source string) bool
}

// Cooldown notifies its sinks at most once per window. It is safe for
// concurrent use; the window starts when an advisory is actually delivered.
type Cooldown struct {
	mu      sync.Mutex
	window  time.Duration
	clock   Clock
	sinks   []Sink
	last    time.Time
	fired   bool
	title   string
	message string
}

// NewCooldown creates a cooldown-gated notifier. A zero window falls back to
// DefaultWindow and a nil clock to SystemClock.
func NewCooldown(window time.Duration, clock Clock, sinks ...Sink) *Cooldown {
	if window <= 0 {
		window = DefaultWindow
	}
	if clock == nil {
		clock = SystemClock
	}
	return &Cooldown{
		window:  window,
		clock:   clock,
		sinks:   sinks,
		title:   DefaultTitle,
		message: DefaultMessage,
	}
}

// AddSink registers another delivery target
func (c *Cooldown) AddSink(s Sink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sinks = append(c.sinks, s)
}

// Fire delivers an advisory unless one was delivered within the window.
// It reports whether the advisory was delivered.
func (c *Cooldown) Fire(ctx context.Context, source string) bool {
	c.mu.Lock()
	now := c.clock.Now()
	if c.fired && now.Sub(c.last) < c.window {
		c.mu.Unlock()
		return false
	}
	c.fired = true
	c.last = now
	sinks := append([]Sink(nil), c.sinks...)
	c.mu.Unlock()

	a := Advisory{Title: c.title, Message: c.message, Source: source, FiredAt: now}
	for _, s := range sinks {
		s.Notify(ctx, a)
	}
	return true
}

// Suppressed reports whether a Fire call right now would be swallowed
func (c *Cooldown) Suppressed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fired && c.clock.Now().Sub(c.last) < c.window
}

// Reset clears the window
func (c *Cooldown) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fired = false
	c.last = time.Time{}
}

// LogSink writes advisories as warnings
func LogSink(log logger.Logger) Sink {
	log = log.WithComponent("advisory")
	return SinkFunc(func(ctx context.Context, a Advisory) {
		log.WithContext(ctx).WithFields(map[string]interface{}{
			"source": a.Source,
		}).Warnf("%s: %s", a.Title, a.Message)
	})
}

// BusSink publishes advisories on the event bus for the notification stream
func BusSink(bus eventbus.Bus) Sink {
	return SinkFunc(func(ctx context.Context, a Advisory) {
		bus.PublishAndForget(ctx, eventbus.NewEvent(eventbus.EventTypeRateLimited, a, a.Source))
	})
}
