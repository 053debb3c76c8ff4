package di

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"roster-console/internal/roster"
	rosterconfig "roster-console/internal/roster/config"
	"roster-console/internal/session"
	sessionconfig "roster-console/internal/session/config"
	"roster-console/internal/shared/eventbus"
	"roster-console/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
)

// Container owns the console's modules and their lifecycle
type Container struct {
	mu sync.RWMutex
	// Module instances
	SessionModule *session.SessionModule
	RosterModule  *roster.RosterModule
	// Configuration
	SessionConfig *sessionconfig.Config
	RosterConfig  *rosterconfig.Config
	// Shared infrastructure
	Bus    *eventbus.EventBus
	Logger logger.Logger
}

// NewContainer creates a container with a shared event bus
func NewContainer(log logger.Logger) *Container {
	if log == nil {
		log = logger.NewLogger()
	}
	return &Container{
		Bus:    eventbus.NewEventBus(log.WithComponent("eventbus")),
		Logger: log,
	}
}

// InitializeSession builds the session module and restores any stored session
func (c *Container) InitializeSession(ctx context.Context, cfg *sessionconfig.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, err := session.NewSessionModule(ctx, cfg, c.Logger, c.Bus, nil)
	if err != nil {
		return fmt.Errorf("failed to create session module: %w", err)
	}
	state := m.Store().Restore(ctx)
	if state.IsAuthenticated {
		c.Logger.Infof("Restored session for %s", state.Identity.Email)
	}

	c.SessionConfig = cfg
	c.SessionModule = m
	return nil
}

// InitializeRoster builds the roster module. The session module supplies
// the bearer credential and must be initialized first.
func (c *Container) InitializeRoster(cfg *rosterconfig.Config, opts ...roster.Option) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SessionModule == nil {
		return fmt.Errorf("session module must be initialized before roster module")
	}

	m, err := roster.NewRosterModule(cfg, c.SessionModule.Store(), c.Bus, c.Logger, opts...)
	if err != nil {
		return fmt.Errorf("failed to create roster module: %w", err)
	}

	c.RosterConfig = cfg
	c.RosterModule = m
	return nil
}

// RegisterRoutes mounts the session routes under /session and the protected
// roster routes on router.
func (c *Container) RegisterRoutes(router fiber.Router) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.SessionModule == nil || c.RosterModule == nil {
		return fmt.Errorf("modules must be initialized before registering routes")
	}
	c.SessionModule.RegisterRoutes(router.Group("/session"))
	c.RosterModule.RegisterRoutes(router, c.SessionModule.Middleware().Protect())
	return nil
}

// HealthCheck checks that the remote roster API answers
func (c *Container) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.RosterModule == nil {
		return fmt.Errorf("roster module not initialized")
	}
	status, err := c.RosterModule.Health().Check(ctx)
	if err != nil {
		return fmt.Errorf("roster API health check failed: %w", err)
	}
	if status.Status != "UP" {
		return fmt.Errorf("roster API reports status %s", status.Status)
	}
	return nil
}

// Cleanup releases module resources in reverse order of initialization
func (c *Container) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	c.RosterModule = nil
	if c.SessionModule != nil {
		if err := c.SessionModule.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop session module: %w", err))
		}
		c.SessionModule = nil
	}
	return errors.Join(errs...)
}

// Close shuts the container down with a timeout
func (c *Container) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.Cleanup(ctx); err != nil {
		c.Logger.Warnf("cleanup errors occurred: %v", err)
		return err
	}
	c.Logger.Info("Container resources closed")
	return nil
}
