package catalog

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/edumarket/edumarket/auth"
)

// Course is the catalog document. Modules, ratings, and the enrolled student
// list are embedded JSON columns; the mentor and enrolled summaries are
// resolved at read time and never persisted.
type Course struct {
	bun.BaseModel `bun:"table:courses,alias:crs"`

	ID          uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Title       string    `bun:"title,notnull" json:"title"`
	Description string    `bun:"description,notnull" json:"description"`
	Thumbnail   string    `bun:"thumbnail" json:"thumbnail,omitempty"`
	Category    string    `bun:"category,notnull" json:"category"`
	Price       float64   `bun:"price" json:"price"`
	MentorID    uuid.UUID `bun:"mentor_id,notnull,type:uuid" json:"mentor_id"`

	EnrolledStudents UUIDList   `bun:"enrolled_students,type:jsonb" json:"enrolled_students,omitempty"`
	Modules          ModuleList `bun:"modules,type:jsonb" json:"modules,omitempty"`
	Ratings          RatingList `bun:"ratings,type:jsonb" json:"ratings,omitempty"`

	Mentor   *auth.UserSummary   `bun:"-" json:"mentor,omitempty"`
	Enrolled []*auth.UserSummary `bun:"-" json:"enrolled,omitempty"`

	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// CourseVideo is one playable item inside a module
type CourseVideo struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Duration string `json:"duration,omitempty"`
}

// CourseModule groups videos under a heading
type CourseModule struct {
	Title  string        `json:"title"`
	Videos []CourseVideo `json:"videos,omitempty"`
}

// ModuleList is the embedded syllabus, persisted as a JSON column
type ModuleList []CourseModule

// Value implements driver.Valuer
func (l ModuleList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]CourseModule(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (l *ModuleList) Scan(src any) error {
	return scanJSONColumn(src, l, "modules")
}

// Rating is one student's score and review text
type Rating struct {
	StudentID uuid.UUID `json:"student_id"`
	Rating    int       `json:"rating"`
	Review    string    `json:"review,omitempty"`
}

// RatingList is the embedded review list, persisted as a JSON column
type RatingList []Rating

// ByStudent returns the rating left by the student, if any
func (l RatingList) ByStudent(studentID uuid.UUID) (Rating, bool) {
	for _, r := range l {
		if r.StudentID == studentID {
			return r, true
		}
	}
	return Rating{}, false
}

// Average returns the mean score, zero when unrated
func (l RatingList) Average() float64 {
	if len(l) == 0 {
		return 0
	}
	total := 0
	for _, r := range l {
		total += r.Rating
	}
	return float64(total) / float64(len(l))
}

// Value implements driver.Valuer
func (l RatingList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]Rating(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (l *RatingList) Scan(src any) error {
	return scanJSONColumn(src, l, "ratings")
}

// UUIDList is an id set persisted as a JSON column
type UUIDList []uuid.UUID

// Contains reports membership
func (l UUIDList) Contains(id uuid.UUID) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// Add appends the id if absent and returns a new list
func (l UUIDList) Add(id uuid.UUID) UUIDList {
	if l.Contains(id) {
		return l
	}
	out := make(UUIDList, 0, len(l)+1)
	out = append(out, l...)
	return append(out, id)
}

// Value implements driver.Valuer
func (l UUIDList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]uuid.UUID(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (l *UUIDList) Scan(src any) error {
	return scanJSONColumn(src, l, "id list")
}

func scanJSONColumn(src, dst any, label string) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported %s column type %T", label, src)
	}
}
