package mentorship_test

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"

	"github.com/edumarket/edumarket/auth"
	"github.com/edumarket/edumarket/mentorship"
)

// stubRequests is an in-memory StudentRequests store
type stubRequests struct {
	mentorship.StudentRequests
	byID map[string]*mentorship.StudentRequest

	statusWrites int
}

func newStubRequests(records ...*mentorship.StudentRequest) *stubRequests {
	s := &stubRequests{byID: map[string]*mentorship.StudentRequest{}}
	for _, r := range records {
		s.add(r)
	}
	return s
}

func (s *stubRequests) add(r *mentorship.StudentRequest) {
	s.byID[r.ID.String()] = r
}

func (s *stubRequests) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*mentorship.StudentRequest, error) {
	if r, ok := s.byID[id]; ok {
		return r, nil
	}
	return nil, repository.NewRecordNotFound()
}

func (s *stubRequests) Create(ctx context.Context, record *mentorship.StudentRequest, criteria ...repository.InsertCriteria) (*mentorship.StudentRequest, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Status == "" {
		record.Status = mentorship.StatusPending
	}
	s.add(record)
	return record, nil
}

func (s *stubRequests) FindPending(ctx context.Context, studentID, mentorID uuid.UUID) (*mentorship.StudentRequest, error) {
	for _, r := range s.byID {
		if r.StudentID == studentID && r.MentorID == mentorID && r.Status == mentorship.StatusPending {
			return r, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubRequests) ListForMentor(ctx context.Context, mentorID uuid.UUID, status string) ([]*mentorship.StudentRequest, error) {
	var out []*mentorship.StudentRequest
	for _, r := range s.byID {
		if r.MentorID != mentorID {
			continue
		}
		if status != "" && string(r.Status) != status {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *stubRequests) CountPending(ctx context.Context, mentorID uuid.UUID) (int, error) {
	count := 0
	for _, r := range s.byID {
		if r.MentorID == mentorID && r.Status == mentorship.StatusPending {
			count++
		}
	}
	return count, nil
}

func (s *stubRequests) UpdateStatus(ctx context.Context, id uuid.UUID, status mentorship.RequestStatus) (*mentorship.StudentRequest, error) {
	s.statusWrites++
	r, ok := s.byID[id.String()]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}
	r.Status = status
	return r, nil
}

// stubDirectory resolves student summaries
type stubDirectory struct {
	byID map[string]*auth.User
}

func (s stubDirectory) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*auth.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, repository.NewRecordNotFound()
}

// recordingSink captures activity events for assertions
type recordingSink struct {
	events []auth.ActivityEvent
}

func (r *recordingSink) Record(ctx context.Context, event auth.ActivityEvent) error {
	r.events = append(r.events, event)
	return nil
}
