// Package fakeapi is an in-memory implementation of the remote roster API
// used for local development and tests.
package fakeapi

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"roster-console/internal/roster/domain/model"
	"roster-console/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// Options configures the fake API
type Options struct {
	// RatePerSecond enables token-bucket limiting when positive
	RatePerSecond float64
	Burst         int
	// WrapLists returns lists as {"students": [...]} or {"courses": [...]}
	WrapLists bool
	// Prefix is the mount path of every route, "/api" by default
	Prefix string
}

// Server holds the roster in memory
type Server struct {
	mu          sync.RWMutex
	students    map[int64]model.Student
	courses     map[string]model.Course
	enrollments model.EnrollmentSet
	nextID      int64

	failMu   sync.Mutex
	failures map[string][]int

	limiter *rate.Limiter
	opts    Options
	log     logger.Logger
}

func New(opts Options, log logger.Logger) *Server {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if opts.Prefix == "" {
		opts.Prefix = "/api"
	}
	s := &Server{
		students:    make(map[int64]model.Student),
		courses:     make(map[string]model.Course),
		enrollments: model.NewEnrollmentSet(),
		nextID:      1,
		failures:    make(map[string][]int),
		opts:        opts,
		log:         log.WithComponent("fake-api"),
	}
	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}
	return s
}

// App builds the fiber application serving the API
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "roster-mock",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"message": err.Error()})
		},
	})
	s.SetupRoutes(app)
	return app
}

// SetupRoutes registers the API on router
func (s *Server) SetupRoutes(router fiber.Router) {
	api := router.Group(s.opts.Prefix, s.rateLimit, s.injectFailure)

	api.Get("/health", s.health)
	api.Get("/health/details", s.healthDetails)

	students := api.Group("/students")
	students.Get("/", s.listStudents)
	students.Post("/", s.createStudent)
	students.Get("/paged", s.pagedStudents)
	students.Get("/search", s.searchStudents)
	students.Get("/:id", s.getStudent)
	students.Put("/:id", s.updateStudent)
	students.Delete("/:id", s.deleteStudent)
	students.Get("/:id/courses", s.studentCourses)
	students.Post("/:id/courses", s.replaceStudentCourses)

	courses := api.Group("/courses")
	courses.Get("/", s.listCourses)
	courses.Post("/", s.createCourse)
	courses.Get("/students/:id", s.coursesByStudent)
	courses.Get("/not-taken/:id", s.coursesNotTaken)
	courses.Get("/:code", s.getCourse)
	courses.Put("/:code", s.updateCourse)
	courses.Delete("/:code", s.deleteCourse)
	courses.Get("/:code/students", s.courseStudents)
}

// FailNext makes the next request matching method and path (relative to
// the prefix) answer with status.
func (s *Server) FailNext(method, path string, status int) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	key := method + " " + path
	s.failures[key] = append(s.failures[key], status)
}

// Seed loads a small demo roster
func (s *Server) Seed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range []model.Course{
		{Code: "CS101", Title: "Introduction to Programming", Description: "Fundamentals of programming with a modern language"},
		{Code: "MATH200", Title: "Linear Algebra", Description: "Vectors, matrices and linear transformations"},
		{Code: "PHYS150", Title: "Classical Mechanics", Description: "Motion, forces and energy"},
		{Code: "HIST110", Title: "World History", Description: "From antiquity to the modern era"},
	} {
		s.courses[c.Code] = c
	}
	for _, st := range []model.StudentInput{
		{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
		{FirstName: "Alan", LastName: "Turing", Email: "alan@example.com"},
		{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com"},
		{FirstName: "Edsger", LastName: "Dijkstra", Email: "edsger@example.com"},
		{FirstName: "Barbara", LastName: "Liskov", Email: "barbara@example.com"},
		{FirstName: "Donald", LastName: "Knuth", Email: "donald@example.com"},
	} {
		s.insertStudent(st)
	}
	s.enrollments.ReplaceStudent(1, []string{"CS101", "MATH200"})
	s.enrollments.ReplaceStudent(2, []string{"CS101"})
	s.enrollments.ReplaceStudent(3, []string{"PHYS150"})
}

// PutStudent inserts or replaces a student with a fixed id
func (s *Server) PutStudent(st model.Student, codes ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.Courses = nil
	s.students[st.ID] = st
	if st.ID >= s.nextID {
		s.nextID = st.ID + 1
	}
	s.enrollments.ReplaceStudent(st.ID, codes)
}

// PutCourse inserts or replaces a course
func (s *Server) PutCourse(c model.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Students = nil
	s.courses[c.Code] = c
}

// Enrollments returns a copy of the current enrollment graph
func (s *Server) Enrollments() model.EnrollmentSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := model.NewEnrollmentSet()
	for e := range s.enrollments {
		out.Add(e)
	}
	return out
}

func (s *Server) rateLimit(c *fiber.Ctx) error {
	if s.limiter != nil && !s.limiter.Allow() {
		s.log.Warnf("rate limit exceeded for %s %s", c.Method(), c.Path())
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"message": "Too Many Requests"})
	}
	return c.Next()
}

func (s *Server) injectFailure(c *fiber.Ctx) error {
	key := c.Method() + " " + strings.TrimPrefix(c.Path(), s.opts.Prefix)
	s.failMu.Lock()
	queue := s.failures[key]
	var status int
	if len(queue) > 0 {
		status, s.failures[key] = queue[0], queue[1:]
	}
	s.failMu.Unlock()

	if status == 0 {
		return c.Next()
	}
	if status == fiber.StatusNoContent {
		return c.SendStatus(status)
	}
	return c.Status(status).JSON(fiber.Map{"message": fmt.Sprintf("Injected failure %d", status)})
}

func (s *Server) list(c *fiber.Ctx, key string, items interface{}) error {
	if s.opts.WrapLists {
		return c.JSON(fiber.Map{key: items})
	}
	return c.JSON(items)
}

func notFound(c *fiber.Ctx, format string, args ...interface{}) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": fmt.Sprintf(format, args...)})
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(model.HealthStatus{Status: "UP"})
}

func (s *Server) healthDetails(c *fiber.Ctx) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return c.JSON(model.HealthStatus{Status: "UP", Details: map[string]interface{}{
		"students":    len(s.students),
		"courses":     len(s.courses),
		"enrollments": s.enrollments.Len(),
	}})
}

func studentID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid student id")
	}
	return id, nil
}

// sortedStudents must be called with s.mu held
func (s *Server) sortedStudents(order model.SortSpec) []model.Student {
	out := make([]model.Student, 0, len(s.students))
	for _, st := range s.students {
		out = append(out, st)
	}
	less := func(a, b model.Student) bool { return a.ID < b.ID }
	switch order.Field {
	case "firstName":
		less = func(a, b model.Student) bool { return a.FirstName < b.FirstName }
	case "lastName":
		less = func(a, b model.Student) bool { return a.LastName < b.LastName }
	case "email":
		less = func(a, b model.Student) bool { return a.Email < b.Email }
	}
	sort.SliceStable(out, func(i, j int) bool {
		if order.Direction == model.Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

// coursesOf must be called with s.mu held
func (s *Server) coursesOf(id int64) []model.Course {
	out := []model.Course{}
	for _, code := range s.enrollments.CodesOf(id) {
		if c, ok := s.courses[code]; ok {
			out = append(out, c)
		}
	}
	return out
}

// studentsOf must be called with s.mu held
func (s *Server) studentsOf(code string) []model.Student {
	out := []model.Student{}
	for _, id := range s.enrollments.StudentsOf(code) {
		if st, ok := s.students[id]; ok {
			out = append(out, st)
		}
	}
	return out
}

// insertStudent must be called with s.mu held
func (s *Server) insertStudent(in model.StudentInput) model.Student {
	st := model.Student{ID: s.nextID, FirstName: in.FirstName, LastName: in.LastName, Email: in.Email}
	s.students[st.ID] = st
	s.nextID++
	return st
}

// emailTaken must be called with s.mu held
func (s *Server) emailTaken(email string, except int64) bool {
	for _, st := range s.students {
		if st.ID != except && strings.EqualFold(st.Email, email) {
			return true
		}
	}
	return false
}
