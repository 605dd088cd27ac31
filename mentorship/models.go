package mentorship

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/edumarket/edumarket/auth"
)

// RequestStatus is the lifecycle state of a mentorship request
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusAccepted RequestStatus = "accepted"
	StatusRejected RequestStatus = "rejected"
)

// ParseRequestStatus maps a wire value onto a known status
func ParseRequestStatus(s string) (RequestStatus, bool) {
	switch RequestStatus(s) {
	case StatusPending, StatusAccepted, StatusRejected:
		return RequestStatus(s), true
	default:
		return "", false
	}
}

// IsTerminal reports whether the status permits no further transitions
func (s RequestStatus) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// StudentRequest is one student's ask to a mentor, optionally tied to a
// course. It starts pending and ends accepted or rejected.
type StudentRequest struct {
	bun.BaseModel `bun:"table:student_requests,alias:req"`

	ID        uuid.UUID     `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	StudentID uuid.UUID     `bun:"student_id,notnull,type:uuid" json:"student_id"`
	MentorID  uuid.UUID     `bun:"mentor_id,notnull,type:uuid" json:"mentor_id"`
	CourseID  *uuid.UUID    `bun:"course_id,nullzero,type:uuid" json:"course_id,omitempty"`
	Message   string        `bun:"message" json:"message,omitempty"`
	Status    RequestStatus `bun:"status,notnull" json:"status"`

	Student *auth.UserSummary `bun:"-" json:"student,omitempty"`

	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// EnsureStatus backfills the default for records created before the status
// column existed
func (r *StudentRequest) EnsureStatus() {
	if r != nil && r.Status == "" {
		r.Status = StatusPending
	}
}
