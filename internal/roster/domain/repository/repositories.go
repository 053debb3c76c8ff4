package repository

import (
	"context"

	"roster-console/internal/roster/domain/model"
)

// StudentRepository maps student operations onto the remote API
type StudentRepository interface {
	List(ctx context.Context) ([]model.Student, error)
	ListPage(ctx context.Context, req model.PageRequest) (*model.Page[model.Student], error)
	Get(ctx context.Context, id int64) (*model.Student, error)
	Search(ctx context.Context, query string) ([]model.Student, error)
	Create(ctx context.Context, in model.StudentInput) (*model.Student, error)
	Update(ctx context.Context, id int64, in model.StudentInput) (*model.Student, error)
	Delete(ctx context.Context, id int64) error

	// EnrolledCourses returns the student's courses
	EnrolledCourses(ctx context.Context, id int64) ([]model.Course, error)
	// ReplaceEnrolledCourses sets the student's full course list. It is the
	// only relationship mutation the server offers.
	ReplaceEnrolledCourses(ctx context.Context, id int64, codes []string) error
}

// CourseRepository maps course operations onto the remote API
type CourseRepository interface {
	List(ctx context.Context) ([]model.Course, error)
	Get(ctx context.Context, code string) (*model.Course, error)
	Create(ctx context.Context, c model.Course) (*model.Course, error)
	Update(ctx context.Context, code string, c model.Course) (*model.Course, error)
	Delete(ctx context.Context, code string) error

	EnrolledStudents(ctx context.Context, code string) ([]model.Student, error)
	CoursesByStudent(ctx context.Context, studentID int64) ([]model.Course, error)
	CoursesNotTakenBy(ctx context.Context, studentID int64) ([]model.Course, error)
}

// HealthRepository reads the remote API health endpoints
type HealthRepository interface {
	Check(ctx context.Context) (*model.HealthStatus, error)
	Details(ctx context.Context) (*model.HealthStatus, error)
}
