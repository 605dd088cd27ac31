package analytics_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edumarket/edumarket/analytics"
	"github.com/edumarket/edumarket/auth"
	"github.com/edumarket/edumarket/catalog"
)

type stubCourses struct {
	byMentor map[uuid.UUID][]*catalog.Course
	enrolled map[uuid.UUID]int
}

func (s stubCourses) ListByMentor(ctx context.Context, mentorID uuid.UUID) ([]*catalog.Course, error) {
	return s.byMentor[mentorID], nil
}

func (s stubCourses) CountEnrolled(ctx context.Context, studentID uuid.UUID) (int, error) {
	return s.enrolled[studentID], nil
}

type stubRequests struct {
	pending map[uuid.UUID]int
}

func (s stubRequests) CountPending(ctx context.Context, mentorID uuid.UUID) (int, error) {
	return s.pending[mentorID], nil
}

func courseWith(students ...uuid.UUID) *catalog.Course {
	course := &catalog.Course{ID: uuid.New(), Title: "Course"}
	for _, id := range students {
		course.EnrolledStudents = course.EnrolledStudents.Add(id)
	}
	return course
}

func TestStudentReport(t *testing.T) {
	ctx := context.Background()
	student := uuid.New()

	svc := analytics.NewService(
		stubCourses{enrolled: map[uuid.UUID]int{student: 4}},
		stubRequests{},
	)

	report, err := svc.StudentReport(ctx, student)
	require.NoError(t, err)

	assert.Equal(t, 4, report.EnrolledCourses)
	assert.Equal(t, 0, report.CompletedCourses)
	assert.Equal(t, 0, report.Certificates)
	assert.Equal(t, 3, report.ResumeCredits)
}

func TestTutorReport(t *testing.T) {
	ctx := context.Background()
	mentor := uuid.New()
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	svc := analytics.NewService(
		stubCourses{byMentor: map[uuid.UUID][]*catalog.Course{
			mentor: {
				courseWith(a, b),
				courseWith(b, c),
				courseWith(),
			},
		}},
		stubRequests{pending: map[uuid.UUID]int{mentor: 2}},
	)

	report, err := svc.TutorReport(ctx, mentor)
	require.NoError(t, err)

	// a student counts once per course they sit in
	assert.Equal(t, 4, report.TotalStudents)
	assert.Equal(t, 3, report.ActiveCourses)
	assert.Equal(t, 2, report.PendingRequests)
	assert.Equal(t, 0.0, report.TotalEarnings)
}

func TestTutorReportEmpty(t *testing.T) {
	svc := analytics.NewService(stubCourses{}, stubRequests{})

	report, err := svc.TutorReport(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Zero(t, report.TotalStudents)
	assert.Zero(t, report.ActiveCourses)
	assert.Zero(t, report.PendingRequests)
}

func TestReportDispatch(t *testing.T) {
	ctx := context.Background()
	user := uuid.New()
	svc := analytics.NewService(
		stubCourses{enrolled: map[uuid.UUID]int{user: 1}},
		stubRequests{},
	)

	t.Run("student", func(t *testing.T) {
		report, err := svc.Report(ctx, user, auth.RoleStudent)
		require.NoError(t, err)
		assert.IsType(t, &analytics.StudentReport{}, report)
	})

	t.Run("tutor", func(t *testing.T) {
		report, err := svc.Report(ctx, user, auth.RoleTutor)
		require.NoError(t, err)
		assert.IsType(t, &analytics.TutorReport{}, report)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := svc.Report(ctx, user, auth.UserRole("admin"))
		assert.ErrorIs(t, err, analytics.ErrInvalidRole)
	})
}
