package usecase

import (
	"context"
	"sort"
	"sync"

	"roster-console/internal/roster/domain/model"
	sharederrors "roster-console/internal/shared/errors"
)

// replaceCall is one submitted replacement list
type replaceCall struct {
	studentID int64
	codes     []string
}

// memoryRoster backs both repositories with one enrollment set
type memoryRoster struct {
	mu          sync.Mutex
	students    map[int64]model.Student
	courses     map[string]model.Course
	enrollments model.EnrollmentSet
	failReplace map[int64]error
	replaces    []replaceCall
	lists       int
}

func newMemoryRoster() *memoryRoster {
	return &memoryRoster{
		students:    map[int64]model.Student{},
		courses:     map[string]model.Course{},
		enrollments: model.NewEnrollmentSet(),
		failReplace: map[int64]error{},
	}
}

func (m *memoryRoster) addStudent(id int64, first string, codes ...string) {
	m.students[id] = model.Student{ID: id, FirstName: first, LastName: "Test", Email: first + "@example.com"}
	m.enrollments.ReplaceStudent(id, codes)
}

func (m *memoryRoster) addCourse(code, title string) {
	m.courses[code] = model.Course{Code: code, Title: title}
}

func (m *memoryRoster) replacedIDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.replaces))
	for _, call := range m.replaces {
		ids = append(ids, call.studentID)
	}
	return ids
}

func (m *memoryRoster) lastReplace() (replaceCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.replaces) == 0 {
		return replaceCall{}, false
	}
	return m.replaces[len(m.replaces)-1], true
}

func (m *memoryRoster) replaceCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.replaces)
}

func (m *memoryRoster) coursesOf(id int64) []model.Course {
	out := []model.Course{}
	for _, code := range m.enrollments.CodesOf(id) {
		out = append(out, m.courses[code])
	}
	return out
}

func (m *memoryRoster) sortedStudents() []model.Student {
	out := make([]model.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type studentRepo struct{ *memoryRoster }

func (r studentRepo) List(context.Context) ([]model.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists++
	return r.sortedStudents(), nil
}

func (r studentRepo) ListPage(_ context.Context, req model.PageRequest) (*model.Page[model.Student], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := model.SinglePage(r.sortedStudents())
	p.Number = req.Page
	return &p, nil
}

func (r studentRepo) Get(_ context.Context, id int64) (*model.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.students[id]
	if !ok {
		return nil, sharederrors.NewAPIError(404, "Student not found")
	}
	s.Courses = r.coursesOf(id)
	return &s, nil
}

func (r studentRepo) Search(_ context.Context, query string) ([]model.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Student{}
	for _, s := range r.sortedStudents() {
		if s.FirstName == query {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r studentRepo) Create(context.Context, model.StudentInput) (*model.Student, error) {
	return nil, sharederrors.NewInternalError("not supported")
}

func (r studentRepo) Update(context.Context, int64, model.StudentInput) (*model.Student, error) {
	return nil, sharederrors.NewInternalError("not supported")
}

func (r studentRepo) Delete(context.Context, int64) error {
	return sharederrors.NewInternalError("not supported")
}

func (r studentRepo) EnrolledCourses(_ context.Context, id int64) ([]model.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.coursesOf(id), nil
}

func (r studentRepo) ReplaceEnrolledCourses(_ context.Context, id int64, codes []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failReplace[id]; err != nil {
		return err
	}
	r.replaces = append(r.replaces, replaceCall{studentID: id, codes: append([]string(nil), codes...)})
	r.enrollments.ReplaceStudent(id, codes)
	return nil
}

type courseRepo struct{ *memoryRoster }

func (r courseRepo) List(context.Context) ([]model.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Course, 0, len(r.courses))
	for _, c := range r.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r courseRepo) Get(_ context.Context, code string) (*model.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[code]
	if !ok {
		return nil, sharederrors.NewAPIError(404, "Course not found")
	}
	return &c, nil
}

func (r courseRepo) Create(context.Context, model.Course) (*model.Course, error) {
	return nil, sharederrors.NewInternalError("not supported")
}

func (r courseRepo) Update(context.Context, string, model.Course) (*model.Course, error) {
	return nil, sharederrors.NewInternalError("not supported")
}

func (r courseRepo) Delete(context.Context, string) error {
	return sharederrors.NewInternalError("not supported")
}

func (r courseRepo) EnrolledStudents(_ context.Context, code string) ([]model.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Student{}
	for _, id := range r.enrollments.StudentsOf(code) {
		out = append(out, r.students[id])
	}
	return out, nil
}

func (r courseRepo) CoursesByStudent(_ context.Context, id int64) ([]model.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.coursesOf(id), nil
}

func (r courseRepo) CoursesNotTakenBy(_ context.Context, id int64) ([]model.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	taken := map[string]bool{}
	for _, code := range r.enrollments.CodesOf(id) {
		taken[code] = true
	}
	out := []model.Course{}
	for _, c := range r.courses {
		if !taken[c.Code] {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
