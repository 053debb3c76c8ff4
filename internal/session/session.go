package session

import (
	"context"
	"fmt"

	sessionhttp "roster-console/internal/session/adapter/http"
	"roster-console/internal/session/adapter/identity"
	"roster-console/internal/session/adapter/security"
	"roster-console/internal/session/adapter/storage"
	"roster-console/internal/session/config"
	"roster-console/internal/session/domain/repository"
	"roster-console/internal/session/usecase"
	"roster-console/internal/shared/eventbus"
	"roster-console/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
)

// SessionModule wires the session store with its adapters
type SessionModule struct {
	store      *usecase.SessionStore
	handler    *sessionhttp.SessionHTTPHandler
	middleware *sessionhttp.SessionMiddleware
	closeFn    storage.CloseFunc
	config     *config.Config
}

// NewSessionModule builds the module. When durable is nil the backend named
// by cfg.DurableBackend is opened.
func NewSessionModule(ctx context.Context, cfg *config.Config, log logger.Logger, bus eventbus.Bus, durable repository.Storage) (*SessionModule, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	creds := identity.DemoCredentials()
	if cfg.DemoUsers != "" {
		parsed, err := identity.ParseCredentials(cfg.DemoUsers)
		if err != nil {
			return nil, fmt.Errorf("failed to parse demo users: %w", err)
		}
		creds = parsed
	}
	verifier, err := identity.NewStaticVerifier(creds, cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to create verifier: %w", err)
	}

	tokenSvc, err := security.NewJWTokenService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	closeFn := storage.CloseFunc(func(context.Context) error { return nil })
	if durable == nil {
		durable, closeFn, err = storage.OpenDurable(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
	}

	opts := []usecase.Option{}
	if bus != nil {
		opts = append(opts, usecase.WithEventBus(bus))
	}
	store := usecase.NewSessionStore(verifier, tokenSvc, durable, storage.NewMemoryStorage(), cfg, log, opts...)

	return &SessionModule{
		store:      store,
		handler:    sessionhttp.NewSessionHTTPHandler(store, log),
		middleware: sessionhttp.NewSessionMiddleware(store),
		closeFn:    closeFn,
		config:     cfg,
	}, nil
}

// RegisterRoutes registers session routes with the provided router
func (m *SessionModule) RegisterRoutes(router fiber.Router) {
	m.handler.SetupRoutes(router, m.middleware)
}

// Store returns the session store
func (m *SessionModule) Store() *usecase.SessionStore {
	return m.store
}

// Middleware returns the session middleware
func (m *SessionModule) Middleware() *sessionhttp.SessionMiddleware {
	return m.middleware
}

// Stop releases the durable backend
func (m *SessionModule) Stop(ctx context.Context) error {
	return m.closeFn(ctx)
}
