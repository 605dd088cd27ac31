// Package analytics aggregates per-role dashboard figures from the
// catalog and mentorship stores.
package analytics

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/edumarket/edumarket/auth"
	"github.com/edumarket/edumarket/catalog"
)

// CourseSource is the slice of the course store the aggregates need.
// catalog.Courses satisfies it.
type CourseSource interface {
	ListByMentor(ctx context.Context, mentorID uuid.UUID) ([]*catalog.Course, error)
	CountEnrolled(ctx context.Context, studentID uuid.UUID) (int, error)
}

// RequestSource counts a mentor's undecided requests.
// mentorship.StudentRequests satisfies it.
type RequestSource interface {
	CountPending(ctx context.Context, mentorID uuid.UUID) (int, error)
}

// StudentReport is the student dashboard payload. Completion,
// certificate, and resume-credit figures are placeholders kept for
// response compatibility until those features land.
type StudentReport struct {
	EnrolledCourses  int `json:"enrolled_courses"`
	CompletedCourses int `json:"completed_courses"`
	Certificates     int `json:"certificates"`
	ResumeCredits    int `json:"resume_credits"`
}

// TutorReport is the tutor dashboard payload. Earnings stay zero until
// payments exist.
type TutorReport struct {
	TotalStudents   int     `json:"total_students"`
	ActiveCourses   int     `json:"active_courses"`
	PendingRequests int     `json:"pending_requests"`
	TotalEarnings   float64 `json:"total_earnings"`
}

const defaultResumeCredits = 3

var ErrInvalidRole = goerrors.New("Invalid role", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode("INVALID_ROLE")

type Service struct {
	courses  CourseSource
	requests RequestSource
	logger   auth.Logger
}

type ServiceOption func(*Service)

func WithServiceLogger(logger auth.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(courses CourseSource, requests RequestSource, opts ...ServiceOption) *Service {
	s := &Service{
		courses:  courses,
		requests: requests,
		logger:   auth.DefaultLogger(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Report dispatches on role. The role comes from the request rather
// than the stored user so a tutor can preview the student view of
// their own account.
func (s *Service) Report(ctx context.Context, userID uuid.UUID, role auth.UserRole) (any, error) {
	switch role {
	case auth.RoleStudent:
		return s.StudentReport(ctx, userID)
	case auth.RoleTutor:
		return s.TutorReport(ctx, userID)
	default:
		return nil, ErrInvalidRole
	}
}

func (s *Service) StudentReport(ctx context.Context, studentID uuid.UUID) (*StudentReport, error) {
	enrolled, err := s.courses.CountEnrolled(ctx, studentID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to count enrollments")
	}

	return &StudentReport{
		EnrolledCourses: enrolled,
		ResumeCredits:   defaultResumeCredits,
	}, nil
}

func (s *Service) TutorReport(ctx context.Context, mentorID uuid.UUID) (*TutorReport, error) {
	owned, err := s.courses.ListByMentor(ctx, mentorID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to list courses")
	}

	report := &TutorReport{
		ActiveCourses: len(owned),
	}
	for _, course := range owned {
		report.TotalStudents += len(course.EnrolledStudents)
	}

	report.PendingRequests, err = s.requests.CountPending(ctx, mentorID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to count pending requests")
	}

	return report, nil
}
