package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"roster-console/internal/roster/adapter/httpapi"
	"roster-console/internal/roster/domain/model"
	"roster-console/internal/roster/domain/repository"
	sharederrors "roster-console/internal/shared/errors"
	"roster-console/internal/shared/logger"
)

// CourseRepository is the remote implementation of repository.CourseRepository
type CourseRepository struct {
	client *httpapi.Client
	log    logger.Logger
}

var _ repository.CourseRepository = (*CourseRepository)(nil)

func NewCourseRepository(client *httpapi.Client, log logger.Logger) *CourseRepository {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &CourseRepository{client: client, log: log.WithComponent("course-repository")}
}

func coursePath(code string) string {
	return "/courses/" + url.PathEscape(code)
}

func (r *CourseRepository) courses(ctx context.Context, path, what string) ([]model.Course, error) {
	raw, err := r.client.DoRaw(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	res, err := httpapi.NormalizeList[model.Course](raw, "courses")
	if err != nil {
		return nil, err
	}
	if !res.Ok() {
		r.log.WithContext(ctx).Warnf("unexpected response shape for %s, treating as empty", what)
	}
	return res.Items, nil
}

// List returns all courses
func (r *CourseRepository) List(ctx context.Context) ([]model.Course, error) {
	return r.courses(ctx, "/courses", "course list")
}

// Get returns a course with its enrolled students
func (r *CourseRepository) Get(ctx context.Context, code string) (*model.Course, error) {
	raw, err := r.client.DoRaw(ctx, http.MethodGet, coursePath(code), nil)
	if err != nil {
		return nil, err
	}
	if isEmptyBody(raw) {
		return nil, sharederrors.NewNotFoundError("course " + code).WithComponent("course-repository")
	}
	var c model.Course
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, sharederrors.NewTransportError("failed to decode course", err).WithComponent("course-repository")
	}
	return &c, nil
}

// Create validates and creates a course
func (r *CourseRepository) Create(ctx context.Context, c model.Course) (*model.Course, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	var created model.Course
	if err := r.client.Post(ctx, "/courses", c.Summary(), &created); err != nil {
		return nil, err
	}
	r.log.WithContext(ctx).Infof("Course created: %s", c.Code)
	return &created, nil
}

// Update validates and replaces a course's title and description. The code
// is taken from the path; a different code in c is rejected.
func (r *CourseRepository) Update(ctx context.Context, code string, c model.Course) (*model.Course, error) {
	if c.Code == "" {
		c.Code = code
	}
	if c.Code != code {
		return nil, sharederrors.NewValidationError("Course code cannot be changed").
			WithDetail("field", "code").WithComponent("course-repository")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	var updated model.Course
	if err := r.client.Put(ctx, coursePath(code), c.Summary(), &updated); err != nil {
		return nil, err
	}
	updated.Code = code
	return &updated, nil
}

// Delete removes a course
func (r *CourseRepository) Delete(ctx context.Context, code string) error {
	if err := r.client.Delete(ctx, coursePath(code)); err != nil {
		return err
	}
	r.log.WithContext(ctx).Infof("Course deleted: %s", code)
	return nil
}

// EnrolledStudents returns the students enrolled in a course
func (r *CourseRepository) EnrolledStudents(ctx context.Context, code string) ([]model.Student, error) {
	raw, err := r.client.DoRaw(ctx, http.MethodGet, coursePath(code)+"/students", nil)
	if err != nil {
		return nil, err
	}
	res, err := httpapi.NormalizeList[model.Student](raw, "students")
	if err != nil {
		return nil, err
	}
	if !res.Ok() {
		r.log.WithContext(ctx).WithFields(map[string]interface{}{"course_code": code}).
			Warn("unexpected response shape for enrolled students, treating as empty")
	}
	return res.Items, nil
}

// CoursesByStudent returns the courses a student is enrolled in, read through
// the course resource.
func (r *CourseRepository) CoursesByStudent(ctx context.Context, studentID int64) ([]model.Course, error) {
	return r.courses(ctx, "/courses/students/"+strconv.FormatInt(studentID, 10), "courses by student")
}

// CoursesNotTakenBy returns the courses a student is not enrolled in
func (r *CourseRepository) CoursesNotTakenBy(ctx context.Context, studentID int64) ([]model.Course, error) {
	return r.courses(ctx, "/courses/not-taken/"+strconv.FormatInt(studentID, 10), "courses not taken")
}
