package roster

import (
	"fmt"

	rosterhttp "roster-console/internal/roster/adapter/http"
	"roster-console/internal/roster/adapter/httpapi"
	"roster-console/internal/roster/adapter/remote"
	"roster-console/internal/roster/config"
	"roster-console/internal/roster/usecase"
	"roster-console/internal/shared/advisory"
	"roster-console/internal/shared/eventbus"
	"roster-console/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
)

// RosterModule wires the HTTP access layer, repositories and use cases
type RosterModule struct {
	config     *config.Config
	cooldown   *advisory.Cooldown
	client     *httpapi.Client
	students   *remote.StudentRepository
	courses    *remote.CourseRepository
	health     *remote.HealthRepository
	reconciler *usecase.Reconciler
	dashboard  *usecase.DashboardUsecase
	directory  *usecase.StudentDirectory
	handler    *rosterhttp.RosterHTTPHandler
	hub        *rosterhttp.NotificationHub
}

// Option customizes module construction
type Option func(*options)

type options struct {
	clock advisory.Clock
}

// WithAdvisoryClock replaces the clock of the rate-limit advisory
func WithAdvisoryClock(clock advisory.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// NewRosterModule builds the module. tokens supplies the session bearer
// credential; bus may be nil.
func NewRosterModule(cfg *config.Config, tokens httpapi.TokenSource, bus eventbus.Bus, log logger.Logger, opts ...Option) (*RosterModule, error) {
	if cfg == nil {
		return nil, fmt.Errorf("roster configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	o := &options{clock: advisory.SystemClock}
	for _, opt := range opts {
		opt(o)
	}

	cooldown := advisory.NewCooldown(cfg.AdvisoryCooldown, o.clock, advisory.LogSink(log))
	if bus != nil {
		cooldown.AddSink(advisory.BusSink(bus))
	}

	client := httpapi.NewClient(httpapi.ClientConfig{
		BaseURL:      cfg.APIBaseURL,
		Timeout:      cfg.APITimeout,
		MaxBodyBytes: cfg.MaxBodyBytes,
	}, tokens, cooldown, log)

	students := remote.NewStudentRepository(client, cfg, log)
	courses := remote.NewCourseRepository(client, log)
	health := remote.NewHealthRepository(client)

	guard := usecase.NewInFlight()
	reconcilerOpts := []usecase.ReconcilerOption{usecase.WithInFlight(guard)}
	if bus != nil {
		reconcilerOpts = append(reconcilerOpts, usecase.WithReconcilerEventBus(bus))
	}
	reconciler := usecase.NewReconciler(students, courses, log, reconcilerOpts...)
	dashboard := usecase.NewDashboardUsecase(students, courses, log)
	directory := usecase.NewStudentDirectory(students)

	handler := rosterhttp.NewRosterHTTPHandler(rosterhttp.Deps{
		Students:   students,
		Courses:    courses,
		Health:     health,
		Reconciler: reconciler,
		Dashboard:  dashboard,
		Directory:  directory,
		Guard:      guard,
	}, log)

	return &RosterModule{
		config:     cfg,
		cooldown:   cooldown,
		client:     client,
		students:   students,
		courses:    courses,
		health:     health,
		reconciler: reconciler,
		dashboard:  dashboard,
		directory:  directory,
		handler:    handler,
		hub:        rosterhttp.NewNotificationHub(bus, log),
	}, nil
}

// RegisterRoutes mounts the roster API and the notification stream behind
// the given guards. Unguarded routes sharing router must be registered first.
func (m *RosterModule) RegisterRoutes(router fiber.Router, guards ...fiber.Handler) {
	m.hub.RegisterRoutes(router, guards...)
	protected := router.Group("", guards...)
	m.handler.SetupRoutes(protected)
}

func (m *RosterModule) Advisory() *advisory.Cooldown         { return m.cooldown }
func (m *RosterModule) Client() *httpapi.Client              { return m.client }
func (m *RosterModule) Students() *remote.StudentRepository  { return m.students }
func (m *RosterModule) Courses() *remote.CourseRepository    { return m.courses }
func (m *RosterModule) Reconciler() *usecase.Reconciler      { return m.reconciler }
func (m *RosterModule) Dashboard() *usecase.DashboardUsecase { return m.dashboard }
func (m *RosterModule) Hub() *rosterhttp.NotificationHub     { return m.hub }
func (m *RosterModule) Health() *remote.HealthRepository     { return m.health }
