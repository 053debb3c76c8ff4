package http

import (
	"strconv"
	"strings"

	"roster-console/internal/roster/domain/model"
	"roster-console/internal/roster/domain/repository"
	"roster-console/internal/roster/usecase"
	sharederrors "roster-console/internal/shared/errors"
	"roster-console/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
)

// RosterHTTPHandler is the console's JSON facade over the roster core
type RosterHTTPHandler struct {
	students   repository.StudentRepository
	courses    repository.CourseRepository
	health     repository.HealthRepository
	reconciler usecase.ReconcilerInterface
	dashboard  *usecase.DashboardUsecase
	directory  *usecase.StudentDirectory
	guard      *usecase.InFlight
	log        logger.Logger
}

// Deps groups the handler's collaborators
type Deps struct {
	Students   repository.StudentRepository
	Courses    repository.CourseRepository
	Health     repository.HealthRepository
	Reconciler usecase.ReconcilerInterface
	Dashboard  *usecase.DashboardUsecase
	Directory  *usecase.StudentDirectory
	Guard      *usecase.InFlight
}

// EnrollCoursesRequest is the body of POST /students/:id/courses
type EnrollCoursesRequest struct {
	Codes []string `json:"codes"`
}

// EnrollStudentsRequest is the body of POST /courses/:code/students
type EnrollStudentsRequest struct {
	StudentIDs []int64 `json:"studentIds"`
}

func NewRosterHTTPHandler(deps Deps, log logger.Logger) *RosterHTTPHandler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	guard := deps.Guard
	if guard == nil {
		guard = usecase.NewInFlight()
	}
	return &RosterHTTPHandler{
		students:   deps.Students,
		courses:    deps.Courses,
		health:     deps.Health,
		reconciler: deps.Reconciler,
		dashboard:  deps.Dashboard,
		directory:  deps.Directory,
		guard:      guard,
		log:        log.WithComponent("roster-http"),
	}
}

// SetupRoutes registers the roster routes on router. Callers protect the
// group with the session middleware.
func (h *RosterHTTPHandler) SetupRoutes(router fiber.Router) {
	router.Get("/dashboard", h.Dashboard)
	router.Get("/health", h.Health)
	router.Get("/health/details", h.HealthDetails)

	students := router.Group("/students")
	students.Get("/", h.ListStudents)
	students.Get("/all", h.AllStudents)
	students.Post("/", h.CreateStudent)
	students.Get("/:id", h.GetStudent)
	students.Put("/:id", h.UpdateStudent)
	students.Delete("/:id", h.DeleteStudent)
	students.Get("/:id/courses", h.StudentCourses)
	students.Get("/:id/available-courses", h.AvailableCourses)
	students.Post("/:id/courses", h.EnrollStudent)
	students.Delete("/:id/courses/:code", h.UnenrollStudent)

	courses := router.Group("/courses")
	courses.Get("/", h.ListCourses)
	courses.Post("/", h.CreateCourse)
	courses.Get("/:code", h.GetCourse)
	courses.Put("/:code", h.UpdateCourse)
	courses.Delete("/:code", h.DeleteCourse)
	courses.Get("/:code/students", h.CourseStudents)
	courses.Get("/:code/available-students", h.AvailableStudents)
	courses.Post("/:code/students", h.EnrollStudents)
	courses.Delete("/:code/students/:id", h.RemoveStudent)
}

func (h *RosterHTTPHandler) fail(c *fiber.Ctx, err error) error {
	return handleError(c, h.log, err)
}

func paramID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, sharederrors.NewValidationError("Invalid student id").WithDetail("id", c.Params("id"))
	}
	return id, nil
}

func badBody() error {
	return sharederrors.NewValidationError("Invalid request body")
}

// Dashboard handles GET /dashboard
func (h *RosterHTTPHandler) Dashboard(c *fiber.Ctx) error {
	return c.JSON(h.dashboard.Stats(c.UserContext()))
}

// Health handles GET /health
func (h *RosterHTTPHandler) Health(c *fiber.Ctx) error {
	status, err := h.health.Check(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(status)
}

// HealthDetails handles GET /health/details
func (h *RosterHTTPHandler) HealthDetails(c *fiber.Ctx) error {
	status, err := h.health.Details(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(status)
}

// ListStudents handles GET /students?query=&page=&size=&sort=
func (h *RosterHTTPHandler) ListStudents(c *fiber.Ctx) error {
	sortSpec, err := model.ParseSort(c.Query("sort"))
	if err != nil {
		return h.fail(c, sharederrors.NewValidationError(err.Error()))
	}
	req := model.PageRequest{Page: c.QueryInt("page", 0), Size: c.QueryInt("size", 0), Sort: sortSpec}
	page, err := h.directory.Browse(c.UserContext(), c.Query("query"), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(page)
}

// AllStudents handles GET /students/all
func (h *RosterHTTPHandler) AllStudents(c *fiber.Ctx) error {
	students, err := h.students.List(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(students)
}

func (h *RosterHTTPHandler) GetStudent(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return h.fail(c, err)
	}
	student, err := h.students.Get(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(student)
}

func (h *RosterHTTPHandler) CreateStudent(c *fiber.Ctx) error {
	var in model.StudentInput
	if err := c.BodyParser(&in); err != nil {
		return h.fail(c, badBody())
	}
	var created *model.Student
	err := h.guard.Do("students:create:"+strings.ToLower(in.Email), func() error {
		var err error
		created, err = h.students.Create(c.UserContext(), in)
		return err
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *RosterHTTPHandler) UpdateStudent(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return h.fail(c, err)
	}
	var in model.StudentInput
	if err := c.BodyParser(&in); err != nil {
		return h.fail(c, badBody())
	}
	var updated *model.Student
	err = h.guard.Do("students:write:"+c.Params("id"), func() error {
		var err error
		updated, err = h.students.Update(c.UserContext(), id, in)
		return err
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(updated)
}

func (h *RosterHTTPHandler) DeleteStudent(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return h.fail(c, err)
	}
	err = h.guard.Do("students:write:"+c.Params("id"), func() error {
		return h.students.Delete(c.UserContext(), id)
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *RosterHTTPHandler) StudentCourses(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return h.fail(c, err)
	}
	courses, err := h.students.EnrolledCourses(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(courses)
}

func (h *RosterHTTPHandler) AvailableCourses(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return h.fail(c, err)
	}
	courses, err := h.reconciler.AvailableCourses(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(courses)
}

// EnrollStudent handles POST /students/:id/courses
func (h *RosterHTTPHandler) EnrollStudent(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req EnrollCoursesRequest
	if err := c.BodyParser(&req); err != nil || len(req.Codes) == 0 {
		return h.fail(c, sharederrors.NewValidationError("Select at least one course"))
	}
	courses, err := h.reconciler.EnrollStudent(c.UserContext(), id, req.Codes...)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(courses)
}

// UnenrollStudent handles DELETE /students/:id/courses/:code
func (h *RosterHTTPHandler) UnenrollStudent(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return h.fail(c, err)
	}
	courses, err := h.reconciler.UnenrollStudent(c.UserContext(), id, c.Params("code"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(courses)
}

// ListCourses handles GET /courses?q=&where=. q is a substring filter and
// where a CEL predicate over course.
func (h *RosterHTTPHandler) ListCourses(c *fiber.Ctx) error {
	courses, err := h.courses.List(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	courses = usecase.Filter(courses, c.Query("q"))
	if expr := strings.TrimSpace(c.Query("where")); expr != "" {
		if courses, err = usecase.Where(courses, expr); err != nil {
			return h.fail(c, err)
		}
	}
	return c.JSON(courses)
}

func (h *RosterHTTPHandler) GetCourse(c *fiber.Ctx) error {
	course, err := h.courses.Get(c.UserContext(), c.Params("code"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(course)
}

func (h *RosterHTTPHandler) CreateCourse(c *fiber.Ctx) error {
	var in model.Course
	if err := c.BodyParser(&in); err != nil {
		return h.fail(c, badBody())
	}
	var created *model.Course
	err := h.guard.Do("courses:write:"+in.Code, func() error {
		var err error
		created, err = h.courses.Create(c.UserContext(), in)
		return err
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *RosterHTTPHandler) UpdateCourse(c *fiber.Ctx) error {
	code := c.Params("code")
	var in model.Course
	if err := c.BodyParser(&in); err != nil {
		return h.fail(c, badBody())
	}
	var updated *model.Course
	err := h.guard.Do("courses:write:"+code, func() error {
		var err error
		updated, err = h.courses.Update(c.UserContext(), code, in)
		return err
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(updated)
}

func (h *RosterHTTPHandler) DeleteCourse(c *fiber.Ctx) error {
	code := c.Params("code")
	err := h.guard.Do("courses:write:"+code, func() error {
		return h.courses.Delete(c.UserContext(), code)
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *RosterHTTPHandler) CourseStudents(c *fiber.Ctx) error {
	students, err := h.courses.EnrolledStudents(c.UserContext(), c.Params("code"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(students)
}

func (h *RosterHTTPHandler) AvailableStudents(c *fiber.Ctx) error {
	students, err := h.reconciler.AvailableStudents(c.UserContext(), c.Params("code"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(students)
}

// EnrollStudents handles POST /courses/:code/students
func (h *RosterHTTPHandler) EnrollStudents(c *fiber.Ctx) error {
	var req EnrollStudentsRequest
	if err := c.BodyParser(&req); err != nil || len(req.StudentIDs) == 0 {
		return h.fail(c, sharederrors.NewValidationError("Select at least one student"))
	}
	students, err := h.reconciler.EnrollStudentsInCourse(c.UserContext(), c.Params("code"), req.StudentIDs...)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(students)
}

// RemoveStudent handles DELETE /courses/:code/students/:id
func (h *RosterHTTPHandler) RemoveStudent(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return h.fail(c, err)
	}
	students, err := h.reconciler.RemoveStudentFromCourse(c.UserContext(), c.Params("code"), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(students)
}
