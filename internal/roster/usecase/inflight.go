package usecase

import (
	"errors"
	"sync"

	sharederrors "roster-console/internal/shared/errors"
)

// ErrOperationInProgress is the cause of the conflict returned when the same
// mutating operation is submitted while it is still running.
var ErrOperationInProgress = errors.New("operation already in progress")

// InFlight rejects concurrent submissions of the same keyed operation
type InFlight struct {
	mu      sync.Mutex
	running map[string]struct{}
}

func NewInFlight() *InFlight {
	return &InFlight{running: make(map[string]struct{})}
}

// Do runs fn unless an operation with the same key is already running
func (g *InFlight) Do(key string, fn func() error) error {
	if !g.acquire(key) {
		return sharederrors.NewConflictError("This operation is already in progress").
			WithCause(ErrOperationInProgress).WithDetail("operation", key)
	}
	defer g.release(key)
	return fn()
}

// Running reports whether key is currently held
func (g *InFlight) Running(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.running[key]
	return ok
}

func (g *InFlight) acquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.running[key]; busy {
		return false
	}
	g.running[key] = struct{}{}
	return true
}

func (g *InFlight) release(key string) {
	g.mu.Lock()
	delete(g.running, key)
	g.mu.Unlock()
}
