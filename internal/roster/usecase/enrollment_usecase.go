package usecase

import (
	"context"
	"fmt"
	"strconv"

	"roster-console/internal/roster/domain/model"
	"roster-console/internal/roster/domain/repository"
	"roster-console/internal/shared/eventbus"
	"roster-console/internal/shared/logger"

	"golang.org/x/sync/errgroup"
)

// Enrollment actions carried by EnrollmentChange
const (
	ActionEnroll   = "enroll"
	ActionUnenroll = "unenroll"
)

// EnrollmentChange is published after a student's course list is replaced
type EnrollmentChange struct {
	Action    string   `json:"action"`
	StudentID int64    `json:"studentId"`
	Codes     []string `json:"codes"`
}

// BulkError reports an aborted bulk enrollment. Students in Applied were
// already written and are not rolled back.
type BulkError struct {
	CourseCode string
	Applied    []int64
	Failed     int64
	Step       int
	Err        error
}

func (e *BulkError) Error() string {
	return fmt.Sprintf("enrolling student %d in %s failed at step %d of the batch (%d already enrolled): %v",
		e.Failed, e.CourseCode, e.Step, len(e.Applied), e.Err)
}

func (e *BulkError) Unwrap() error { return e.Err }

// ReconcilerInterface defines the enrollment operations
type ReconcilerInterface interface {
	EnrollStudent(ctx context.Context, studentID int64, codes ...string) ([]model.Course, error)
	UnenrollStudent(ctx context.Context, studentID int64, code string) ([]model.Course, error)
	EnrollStudentsInCourse(ctx context.Context, code string, studentIDs ...int64) ([]model.Student, error)
	RemoveStudentFromCourse(ctx context.Context, code string, studentID int64) ([]model.Student, error)
	AvailableCourses(ctx context.Context, studentID int64) ([]model.Course, error)
	AvailableStudents(ctx context.Context, code string) ([]model.Student, error)
}

// Reconciler edits the enrollment graph. The remote API only accepts a full
// replacement of one student's course list, so every edit is a
// read-modify-write on that student. Writes for one call run sequentially.
type Reconciler struct {
	students repository.StudentRepository
	courses  repository.CourseRepository
	guard    *InFlight
	bus      eventbus.Bus
	log      logger.Logger
}

var _ ReconcilerInterface = (*Reconciler)(nil)

// ReconcilerOption configures a Reconciler
type ReconcilerOption func(*Reconciler)

// WithReconcilerEventBus publishes EnrollmentChange events on bus
func WithReconcilerEventBus(bus eventbus.Bus) ReconcilerOption {
	return func(r *Reconciler) { r.bus = bus }
}

// WithInFlight shares a guard with other components
func WithInFlight(guard *InFlight) ReconcilerOption {
	return func(r *Reconciler) { r.guard = guard }
}

func NewReconciler(students repository.StudentRepository, courses repository.CourseRepository, log logger.Logger, opts ...ReconcilerOption) *Reconciler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	r := &Reconciler{
		students: students,
		courses:  courses,
		guard:    NewInFlight(),
		log:      log.WithComponent("enrollment-reconciler"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EnrollStudent adds codes to a student's courses and returns the refreshed
// list as the student view shows it.
func (r *Reconciler) EnrollStudent(ctx context.Context, studentID int64, codes ...string) ([]model.Course, error) {
	var out []model.Course
	err := r.guard.Do("enrollment:student:"+strconv.FormatInt(studentID, 10), func() error {
		current, err := r.students.EnrolledCourses(ctx, studentID)
		if err != nil {
			return err
		}
		if err := r.apply(ctx, studentID, model.CourseCodes(current), Delta{Add: codes}, ActionEnroll); err != nil {
			return err
		}
		out, err = r.students.EnrolledCourses(ctx, studentID)
		return err
	})
	return out, err
}

// UnenrollStudent removes one course from a student, from the student view
func (r *Reconciler) UnenrollStudent(ctx context.Context, studentID int64, code string) ([]model.Course, error) {
	var out []model.Course
	err := r.guard.Do("enrollment:student:"+strconv.FormatInt(studentID, 10), func() error {
		current, err := r.students.EnrolledCourses(ctx, studentID)
		if err != nil {
			return err
		}
		if err := r.apply(ctx, studentID, model.CourseCodes(current), Delta{Remove: []string{code}}, ActionUnenroll); err != nil {
			return err
		}
		out, err = r.students.EnrolledCourses(ctx, studentID)
		return err
	})
	return out, err
}

// EnrollStudentsInCourse enrolls each student in code, one after another.
// The first failure aborts the batch with a *BulkError; earlier students
// stay enrolled. On success the refreshed course roster is returned.
func (r *Reconciler) EnrollStudentsInCourse(ctx context.Context, code string, studentIDs ...int64) ([]model.Student, error) {
	var out []model.Student
	err := r.guard.Do("enrollment:course:"+code, func() error {
		applied := make([]int64, 0, len(studentIDs))
		for i, id := range studentIDs {
			if err := r.enrollFromCourseView(ctx, code, id); err != nil {
				r.log.WithContext(ctx).WithFields(map[string]interface{}{
					"course_code": code,
					"student_id":  id,
					"applied":     len(applied),
				}).Errorf("bulk enrollment aborted: %v", err)
				return &BulkError{CourseCode: code, Applied: applied, Failed: id, Step: i + 1, Err: err}
			}
			applied = append(applied, id)
		}
		var err error
		out, err = r.courses.EnrolledStudents(ctx, code)
		return err
	})
	return out, err
}

// RemoveStudentFromCourse removes one enrollment, from the course view
func (r *Reconciler) RemoveStudentFromCourse(ctx context.Context, code string, studentID int64) ([]model.Student, error) {
	var out []model.Student
	err := r.guard.Do("enrollment:course:"+code, func() error {
		current, err := r.courses.CoursesByStudent(ctx, studentID)
		if err != nil {
			return err
		}
		if err := r.apply(ctx, studentID, model.CourseCodes(current), Delta{Remove: []string{code}}, ActionUnenroll); err != nil {
			return err
		}
		out, err = r.courses.EnrolledStudents(ctx, code)
		return err
	})
	return out, err
}

// AvailableCourses lists the courses a student can still enroll in
func (r *Reconciler) AvailableCourses(ctx context.Context, studentID int64) ([]model.Course, error) {
	return r.courses.CoursesNotTakenBy(ctx, studentID)
}

// AvailableStudents lists all students not enrolled in code
func (r *Reconciler) AvailableStudents(ctx context.Context, code string) ([]model.Student, error) {
	var all, enrolled []model.Student
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		all, err = r.students.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		enrolled, err = r.courses.EnrolledStudents(gctx, code)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	taken := make(map[int64]struct{}, len(enrolled))
	for _, s := range enrolled {
		taken[s.ID] = struct{}{}
	}
	out := make([]model.Student, 0, len(all))
	for _, s := range all {
		if _, ok := taken[s.ID]; !ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *Reconciler) enrollFromCourseView(ctx context.Context, code string, studentID int64) error {
	current, err := r.courses.CoursesByStudent(ctx, studentID)
	if err != nil {
		return err
	}
	return r.apply(ctx, studentID, model.CourseCodes(current), Delta{Add: []string{code}}, ActionEnroll)
}

// apply submits the reconciled list when it differs from current
func (r *Reconciler) apply(ctx context.Context, studentID int64, current []string, d Delta, action string) error {
	next, changed := Reconcile(current, d)
	if !changed {
		r.log.WithContext(ctx).Debugf("enrollment for student %d unchanged, skipping write", studentID)
		return nil
	}
	if err := r.students.ReplaceEnrolledCourses(ctx, studentID, next); err != nil {
		return err
	}
	r.log.WithContext(ctx).Infof("Enrollment updated for student %d: %v", studentID, next)
	if r.bus != nil {
		r.bus.PublishAndForget(ctx, eventbus.NewEvent(eventbus.EventTypeEnrollmentChanged,
			EnrollmentChange{Action: action, StudentID: studentID, Codes: next}, "enrollment-reconciler"))
	}
	return nil
}
