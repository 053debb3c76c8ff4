package fakeapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"roster-console/internal/roster/adapter/fakeapi"
	"roster-console/internal/roster/adapter/httpapi"
	"roster-console/internal/roster/adapter/remote"
	"roster-console/internal/roster/domain/model"
	"roster-console/internal/roster/usecase"
	"roster-console/internal/shared/advisory"
	sharederrors "roster-console/internal/shared/errors"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	api      *fakeapi.Server
	client   *httpapi.Client
	students *remote.StudentRepository
	courses  *remote.CourseRepository
}

func newHarness(t *testing.T, opts fakeapi.Options, notifier advisory.Notifier) *harness {
	t.Helper()
	api := fakeapi.New(opts, nil)
	api.Seed()
	srv := httptest.NewServer(adaptor.FiberApp(api.App()))
	t.Cleanup(srv.Close)

	client := httpapi.NewClient(httpapi.ClientConfig{BaseURL: srv.URL + "/api", Timeout: 5 * time.Second}, nil, notifier, nil)
	return &harness{
		api:      api,
		client:   client,
		students: remote.NewStudentRepository(client, nil, nil),
		courses:  remote.NewCourseRepository(client, nil),
	}
}

func TestFakeAPI_StudentCRUD(t *testing.T) {
	h := newHarness(t, fakeapi.Options{}, nil)
	ctx := context.Background()

	created, err := h.students.Create(ctx, model.StudentInput{FirstName: "Margaret", LastName: "Hamilton", Email: "margaret@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), created.ID)

	_, err = h.students.Create(ctx, model.StudentInput{FirstName: "M", LastName: "H", Email: "margaret@example.com"})
	require.Error(t, err)
	assert.True(t, sharederrors.IsAPI(err))
	assert.Equal(t, "Email already in use: margaret@example.com", err.Error())

	updated, err := h.students.Update(ctx, created.ID, model.StudentInput{FirstName: "Margaret", LastName: "H.", Email: "margaret@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "H.", updated.LastName)

	got, err := h.students.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Margaret H.", got.FullName())

	require.NoError(t, h.students.Delete(ctx, created.ID))
	_, err = h.students.Get(ctx, created.ID)
	assert.True(t, sharederrors.IsAPI(err))
	assert.Equal(t, "Student not found with id: 7", err.Error())
}

func TestFakeAPI_PagingAndSearch(t *testing.T) {
	h := newHarness(t, fakeapi.Options{}, nil)
	ctx := context.Background()

	page, err := h.students.ListPage(ctx, model.PageRequest{Page: 1, Size: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(6), page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.Last)
	assert.Equal(t, []int64{5, 6}, model.StudentIDs(page.Content))

	page, err = h.students.ListPage(ctx, model.PageRequest{Size: 2, Sort: model.SortSpec{Field: "lastName", Direction: model.Desc}})
	require.NoError(t, err)
	assert.Equal(t, "Turing", page.Content[0].LastName)

	found, err := h.students.Search(ctx, "hop")
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, model.StudentIDs(found))
}

func TestFakeAPI_WrappedLists(t *testing.T) {
	h := newHarness(t, fakeapi.Options{WrapLists: true}, nil)
	ctx := context.Background()

	courses, err := h.students.EnrolledCourses(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"CS101", "MATH200"}, model.CourseCodes(courses))

	students, err := h.courses.EnrolledStudents(ctx, "CS101")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, model.StudentIDs(students))
}

func TestFakeAPI_ReplaceRoundTrip(t *testing.T) {
	h := newHarness(t, fakeapi.Options{}, nil)
	ctx := context.Background()

	require.NoError(t, h.students.ReplaceEnrolledCourses(ctx, 4, []string{"HIST110", "CS101"}))
	courses, err := h.students.EnrolledCourses(ctx, 4)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"CS101", "HIST110"}, model.CourseCodes(courses))

	byCourse, err := h.courses.CoursesByStudent(ctx, 4)
	require.NoError(t, err)
	assert.ElementsMatch(t, model.CourseCodes(courses), model.CourseCodes(byCourse))

	notTaken, err := h.courses.CoursesNotTakenBy(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"MATH200", "PHYS150"}, model.CourseCodes(notTaken))
}

func TestFakeAPI_CourseConflictAndDelete(t *testing.T) {
	h := newHarness(t, fakeapi.Options{}, nil)
	ctx := context.Background()

	_, err := h.courses.Create(ctx, model.Course{Code: "CS101", Title: "Dup"})
	require.Error(t, err)
	assert.Equal(t, "Course with code CS101 already exists", err.Error())

	require.NoError(t, h.courses.Delete(ctx, "CS101"))
	assert.Equal(t, []string{"MATH200"}, h.api.Enrollments().CodesOf(1))
}

func TestReconciler_AgainstFakeAPI(t *testing.T) {
	h := newHarness(t, fakeapi.Options{}, nil)
	ctx := context.Background()
	r := usecase.NewReconciler(h.students, h.courses, nil)

	roster, err := r.RemoveStudentFromCourse(ctx, "CS101", 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, model.StudentIDs(roster))
	assert.Equal(t, []string{"MATH200"}, h.api.Enrollments().CodesOf(1))

	h.api.FailNext(http.MethodPost, "/students/5/courses", http.StatusInternalServerError)
	_, err = r.EnrollStudentsInCourse(ctx, "HIST110", 4, 5, 6)
	require.Error(t, err)
	var bulk *usecase.BulkError
	require.ErrorAs(t, err, &bulk)
	assert.Equal(t, []int64{4}, bulk.Applied)
	assert.Equal(t, int64(5), bulk.Failed)
	assert.Equal(t, []int64{4}, h.api.Enrollments().StudentsOf("HIST110"))
}

type countingSink struct{ n int32 }

func (s *countingSink) Notify(context.Context, advisory.Advisory) { atomic.AddInt32(&s.n, 1) }

func TestFakeAPI_RateLimitFiresSingleAdvisory(t *testing.T) {
	sink := &countingSink{}
	h := newHarness(t, fakeapi.Options{RatePerSecond: 0.001, Burst: 1}, advisory.NewCooldown(30*time.Second, nil, sink))
	ctx := context.Background()

	_, err := h.courses.List(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var limited int32
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.courses.List(ctx); sharederrors.IsRateLimited(err) {
				atomic.AddInt32(&limited, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), limited)
	assert.Equal(t, int32(1), atomic.LoadInt32(&sink.n))
}

func TestFakeAPI_Health(t *testing.T) {
	h := newHarness(t, fakeapi.Options{}, nil)
	health := remote.NewHealthRepository(h.client)

	status, err := health.Details(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "UP", status.Status)
	assert.EqualValues(t, 6, status.Details["students"])
}
