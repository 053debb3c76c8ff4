package fakeapi

import (
	"strings"

	"roster-console/internal/roster/domain/model"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) listStudents(c *fiber.Ctx) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list(c, "students", s.sortedStudents(model.SortSpec{}))
}

func (s *Server) pagedStudents(c *fiber.Ctx) error {
	page := c.QueryInt("page", 0)
	size := c.QueryInt("size", 10)
	if page < 0 || size <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid paging parameters")
	}
	order, err := model.ParseSort(c.Query("sort", "id,asc"))
	if err != nil {
		return badRequest(c, err)
	}

	s.mu.RLock()
	all := s.sortedStudents(order)
	s.mu.RUnlock()

	total := len(all)
	start := min(page*size, total)
	end := min(start+size, total)
	content := all[start:end]
	totalPages := (total + size - 1) / size

	return c.JSON(model.Page[model.Student]{
		Content:          content,
		TotalElements:    int64(total),
		TotalPages:       totalPages,
		Size:             size,
		Number:           page,
		First:            page == 0,
		Last:             page >= totalPages-1,
		NumberOfElements: len(content),
		Empty:            len(content) == 0,
	})
}

func (s *Server) searchStudents(c *fiber.Ctx) error {
	q := strings.ToLower(strings.TrimSpace(c.Query("query")))
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Student{}
	for _, st := range s.sortedStudents(model.SortSpec{}) {
		if strings.Contains(strings.ToLower(st.FirstName), q) ||
			strings.Contains(strings.ToLower(st.LastName), q) ||
			strings.Contains(strings.ToLower(st.Email), q) {
			out = append(out, st)
		}
	}
	return s.list(c, "students", out)
}

func (s *Server) getStudent(c *fiber.Ctx) error {
	id, err := studentID(c)
	if err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.students[id]
	if !ok {
		return notFound(c, "Student not found with id: %d", id)
	}
	st.Courses = s.coursesOf(id)
	return c.JSON(st)
}

func (s *Server) createStudent(c *fiber.Ctx) error {
	var in model.StudentInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := in.Validate(); err != nil {
		return badRequest(c, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTaken(in.Email, 0) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Email already in use: " + in.Email})
	}
	return c.Status(fiber.StatusCreated).JSON(s.insertStudent(in))
}

func (s *Server) updateStudent(c *fiber.Ctx) error {
	id, err := studentID(c)
	if err != nil {
		return err
	}
	var in model.StudentInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := in.Validate(); err != nil {
		return badRequest(c, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[id]; !ok {
		return notFound(c, "Student not found with id: %d", id)
	}
	if s.emailTaken(in.Email, id) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Email already in use: " + in.Email})
	}
	st := model.Student{ID: id, FirstName: in.FirstName, LastName: in.LastName, Email: in.Email}
	s.students[id] = st
	return c.JSON(st)
}

func (s *Server) deleteStudent(c *fiber.Ctx) error {
	id, err := studentID(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[id]; !ok {
		return notFound(c, "Student not found with id: %d", id)
	}
	delete(s.students, id)
	s.enrollments.RemoveStudent(id)
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) studentCourses(c *fiber.Ctx) error {
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

func (s *Server) replaceStudentCourses(c *fiber.Ctx) error {
	id, err := studentID(c)
	if err != nil {
		return err
	}
	var codes []string
	if err := c.BodyParser(&codes); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Expected a JSON array of course codes")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.students[id]
	if !ok {
		return notFound(c, "Student not found with id: %d", id)
	}
	for _, code := range codes {
		if _, ok := s.courses[code]; !ok {
			return notFound(c, "Course not found with code: %s", code)
		}
	}
	s.enrollments.ReplaceStudent(id, codes)
	st.Courses = s.coursesOf(id)
	return c.JSON(st)
}
