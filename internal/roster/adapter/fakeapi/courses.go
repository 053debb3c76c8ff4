package fakeapi

import (
	"sort"

	"roster-console/internal/roster/domain/model"

	"github.com/gofiber/fiber/v2"
)

// sortedCourses must be called with s.mu held
func (s *Server) sortedCourses(keep func(model.Course) bool) []model.Course {
	out := []model.Course{}
	for _, c := range s.courses {
		if keep == nil || keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (s *Server) listCourses(c *fiber.Ctx) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list(c, "courses", s.sortedCourses(nil))
}

func (s *Server) getCourse(c *fiber.Ctx) error {
	code := c.Params("code")
	s.mu.RLock()
	defer s.mu.RUnlock()
	course, ok := s.courses[code]
	if !ok {
		return notFound(c, "Course not found with code: %s", code)
	}
	course.Students = s.studentsOf(code)
	return c.JSON(course)
}

func (s *Server) createCourse(c *fiber.Ctx) error {
	var in model.Course
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	in.Students = nil
	if err := in.Validate(); err != nil {
		return badRequest(c, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.courses[in.Code]; exists {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Course with code " + in.Code + " already exists"})
	}
	s.courses[in.Code] = in
	return c.Status(fiber.StatusCreated).JSON(in)
}

func (s *Server) updateCourse(c *fiber.Ctx) error {
	code := c.Params("code")
	var in model.Course
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	in.Code, in.Students = code, nil
	if err := in.Validate(); err != nil {
		return badRequest(c, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[code]; !ok {
		return notFound(c, "Course not found with code: %s", code)
	}
	s.courses[code] = in
	return c.JSON(in)
}

func (s *Server) deleteCourse(c *fiber.Ctx) error {
	code := c.Params("code")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[code]; !ok {
		return notFound(c, "Course not found with code: %s", code)
	}
	delete(s.courses, code)
	s.enrollments.RemoveCourse(code)
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) courseStudents(c *fiber.Ctx) error {
	code := c.Params("code")
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.courses[code]; !ok {
		return notFound(c, "Course not found with code: %s", code)
	}
	return s.list(c, "students", s.studentsOf(code))
}

func (s *Server) coursesByStudent(c *fiber.Ctx) error {
	id, err := studentID(c)
	if err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.students[id]; !ok {
		return notFound(c, "Student not found with id: %d", id)
	}
	return s.list(c, "courses", s.coursesOf(id))
}

func (s *Server) coursesNotTaken(c *fiber.Ctx) error {
	id, err := studentID(c)
	if err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.students[id]; !ok {
		return notFound(c, "Student not found with id: %d", id)
	}
	return s.list(c, "courses", s.sortedCourses(func(course model.Course) bool {
		return !s.enrollments.Has(model.Enrollment{StudentID: id, CourseCode: course.Code})
	}))
}
