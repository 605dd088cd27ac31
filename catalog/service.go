package catalog

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"

	"github.com/edumarket/edumarket/auth"
)

// UserDirectory is the slice of the users repository the catalog needs to
// resolve mentor and student summaries. auth.Users satisfies it.
type UserDirectory interface {
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*auth.User, error)
}

// Service owns the catalog reads and the enroll/review mutations
type Service struct {
	courses Courses
	users   UserDirectory
	logger  auth.Logger
}

type ServiceOption func(*Service)

func WithServiceLogger(l auth.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewService(courses Courses, users UserDirectory, opts ...ServiceOption) *Service {
	s := &Service{
		courses: courses,
		users:   users,
		logger:  auth.DefaultLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create persists a new course owned by the mentor
func (s *Service) Create(ctx context.Context, course *Course) (*Course, error) {
	created, err := s.courses.Create(ctx, course)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to create course")
	}

	s.decorateMentor(ctx, created)
	return created, nil
}

// List returns courses matching the filter, newest first, each with its
// mentor summary resolved.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Course, error) {
	records, err := s.courses.ListFiltered(ctx, filter)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to list courses")
	}

	// one lookup per mentor, not per course
	cache := map[uuid.UUID]*auth.UserSummary{}
	for _, course := range records {
		summary, ok := cache[course.MentorID]
		if !ok {
			summary = s.lookupSummary(ctx, course.MentorID)
			cache[course.MentorID] = summary
		}
		course.Mentor = summary
	}

	return records, nil
}

// Get loads one course with mentor and enrolled-student summaries
func (s *Service) Get(ctx context.Context, id string) (*Course, error) {
	course, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	s.decorateMentor(ctx, course)

	course.Enrolled = make([]*auth.UserSummary, 0, len(course.EnrolledStudents))
	for _, studentID := range course.EnrolledStudents {
		if summary := s.lookupSummary(ctx, studentID); summary != nil {
			course.Enrolled = append(course.Enrolled, summary)
		}
	}

	return course, nil
}

// Update applies a partial edit. The controller merged the payload into the
// loaded record already; this persists it.
func (s *Service) Update(ctx context.Context, course *Course) (*Course, error) {
	updated, err := s.courses.Update(ctx, course)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrCourseNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to update course")
	}

	s.decorateMentor(ctx, updated)
	return updated, nil
}

// Enroll adds the student to the course roster. Enrolling twice is a
// conflict, not a no-op, so clients can surface it.
func (s *Service) Enroll(ctx context.Context, courseID string, studentID uuid.UUID) (*Course, error) {
	course, err := s.load(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if course.EnrolledStudents.Contains(studentID) {
		return nil, ErrAlreadyEnrolled
	}

	course.EnrolledStudents = course.EnrolledStudents.Add(studentID)
	if err := s.courses.ReplaceEnrollment(ctx, course.ID, course.EnrolledStudents); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to save enrollment")
	}

	return course, nil
}

// Review records one rating plus review text per student per course
func (s *Service) Review(ctx context.Context, courseID string, studentID uuid.UUID, rating int, review string) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}

	course, err := s.load(ctx, courseID)
	if err != nil {
		return err
	}

	if _, exists := course.Ratings.ByStudent(studentID); exists {
		return ErrAlreadyReviewed
	}

	course.Ratings = append(course.Ratings, Rating{
		StudentID: studentID,
		Rating:    rating,
		Review:    review,
	})

	if err := s.courses.ReplaceRatings(ctx, course.ID, course.Ratings); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "unable to save review")
	}

	return nil
}

func (s *Service) load(ctx context.Context, id string) (*Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrCourseNotFound
	}

	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrCourseNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to load course")
	}

	return course, nil
}

func (s *Service) decorateMentor(ctx context.Context, course *Course) {
	if course == nil {
		return
	}
	course.Mentor = s.lookupSummary(ctx, course.MentorID)
}

func (s *Service) lookupSummary(ctx context.Context, id uuid.UUID) *auth.UserSummary {
	if id == uuid.Nil {
		return nil
	}

	user, err := s.users.GetByID(ctx, id.String())
	if err != nil {
		s.logger.Warn("catalog user lookup %s: %v", id, err)
		return nil
	}

	return user.Summary()
}
