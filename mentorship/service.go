package mentorship

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"

	"github.com/edumarket/edumarket/auth"
)

// StudentDirectory resolves student summaries for request listings.
// auth.Users satisfies it.
type StudentDirectory interface {
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*auth.User, error)
}

// CreateRequestInput carries a new mentorship ask
type CreateRequestInput struct {
	StudentID uuid.UUID
	MentorID  uuid.UUID
	CourseID  string
	Message   string
}

// Service owns the request workflow: creation with the duplicate-pending
// guard, mentor listings, and decisions through the state machine.
type Service struct {
	requests StudentRequests
	users    StudentDirectory
	machine  RequestStateMachine
	sink     auth.ActivitySink
	logger   auth.Logger
}

type ServiceOption func(*Service)

func WithServiceLogger(l auth.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithServiceActivitySink(sink auth.ActivitySink) ServiceOption {
	return func(s *Service) {
		if sink != nil {
			s.sink = sink
		}
	}
}

func WithServiceStateMachine(machine RequestStateMachine) ServiceOption {
	return func(s *Service) {
		if machine != nil {
			s.machine = machine
		}
	}
}

func NewService(requests StudentRequests, users StudentDirectory, opts ...ServiceOption) *Service {
	s := &Service{
		requests: requests,
		users:    users,
		logger:   auth.DefaultLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.machine == nil {
		machineOpts := []StateMachineOption{}
		if s.sink != nil {
			machineOpts = append(machineOpts, WithStateMachineActivitySink(s.sink))
		}
		s.machine = NewRequestStateMachine(requests, machineOpts...)
	}

	return s
}

// Create opens a request. One pending request per (student, mentor) pair:
// a second ask while the first is undecided is a conflict.
func (s *Service) Create(ctx context.Context, input CreateRequestInput) (*StudentRequest, error) {
	existing, err := s.requests.FindPending(ctx, input.StudentID, input.MentorID)
	if err != nil && !isNoRows(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to check pending requests")
	}
	if existing != nil {
		return nil, ErrDuplicatePending
	}

	request := &StudentRequest{
		StudentID: input.StudentID,
		MentorID:  input.MentorID,
		Message:   strings.TrimSpace(input.Message),
		Status:    StatusPending,
	}

	if courseID := strings.TrimSpace(input.CourseID); courseID != "" {
		id, parseErr := uuid.Parse(courseID)
		if parseErr != nil {
			return nil, goerrors.New("Invalid course id", goerrors.CategoryValidation).
				WithCode(goerrors.CodeBadRequest)
		}
		request.CourseID = &id
	}

	created, err := s.requests.Create(ctx, request)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to create request")
	}

	s.record(ctx, auth.ActivityEvent{
		EventType: ActivityEventRequestCreated,
		Actor:     auth.ActorRef{ID: input.StudentID.String(), Type: "user"},
		UserID:    input.StudentID.String(),
		Metadata: map[string]any{
			"request_id": created.ID.String(),
			"mentor_id":  input.MentorID.String(),
		},
	})

	return created, nil
}

// ListForMentor returns the mentor's requests, newest first, with student
// summaries resolved
func (s *Service) ListForMentor(ctx context.Context, mentorID uuid.UUID, status string) ([]*StudentRequest, error) {
	if status != "" {
		if _, ok := ParseRequestStatus(status); !ok {
			return nil, ErrInvalidStatus
		}
	}

	records, err := s.requests.ListForMentor(ctx, mentorID, status)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to list requests")
	}

	for _, r := range records {
		r.Student = s.lookupSummary(ctx, r.StudentID)
	}

	return records, nil
}

// PendingCount returns the mentor's open request count
func (s *Service) PendingCount(ctx context.Context, mentorID uuid.UUID) (int, error) {
	count, err := s.requests.CountPending(ctx, mentorID)
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to count requests")
	}
	return count, nil
}

// ErrNotRequestMentor guards decisions: only the addressed mentor decides
var ErrNotRequestMentor = goerrors.New("Cannot decide another mentor's request", goerrors.CategoryAuthz).
	WithTextCode("NOT_REQUEST_MENTOR").
	WithCode(goerrors.CodeForbidden)

// Decide moves a request to accepted or rejected through the state machine.
// The actor must be the mentor the request was addressed to.
func (s *Service) Decide(ctx context.Context, actor auth.ActorRef, requestID string, target RequestStatus) (*StudentRequest, error) {
	if target != StatusAccepted && target != StatusRejected {
		return nil, ErrInvalidStatus
	}

	request, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if actor.ID != "" && request.MentorID.String() != actor.ID {
		return nil, ErrNotRequestMentor
	}

	decided, err := s.machine.Transition(ctx, actor, request, target)
	if err != nil {
		return nil, err
	}

	decided.Student = s.lookupSummary(ctx, decided.StudentID)
	return decided, nil
}

func (s *Service) load(ctx context.Context, id string) (*StudentRequest, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrRequestNotFound
	}

	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrRequestNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to load request")
	}

	return request, nil
}

func (s *Service) lookupSummary(ctx context.Context, id uuid.UUID) *auth.UserSummary {
	user, err := s.users.GetByID(ctx, id.String())
	if err != nil {
		s.logger.Warn("mentorship user lookup %s: %v", id, err)
		return nil
	}
	return user.Summary()
}

func (s *Service) record(ctx context.Context, event auth.ActivityEvent) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Record(ctx, event); err != nil {
		s.logger.Warn("mentorship activity sink error: %v", err)
	}
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err)
}
