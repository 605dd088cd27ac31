package auth

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model. The session registry lives on the user document
// itself, as an ordered list under the sessions column.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID             uuid.UUID   `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role           UserRole    `bun:"user_role,notnull" json:"role,omitempty"`
	FullName       string      `bun:"full_name,notnull" json:"full_name,omitempty"`
	Email          string      `bun:"email,notnull,unique" json:"email,omitempty"`
	Mobile         string      `bun:"mobile" json:"mobile,omitempty"`
	Gender         string      `bun:"gender" json:"gender,omitempty"`
	Avatar         string      `bun:"avatar" json:"avatar,omitempty"`
	PasswordHash   string      `bun:"password_hash" json:"-"`
	Interests      Interests   `bun:"interests,type:jsonb" json:"interests,omitempty"`
	Sessions       SessionList `bun:"sessions,type:jsonb" json:"-"`
	LoginAttempts  int         `bun:"login_attempts" json:"-"`
	LoginAttemptAt *time.Time  `bun:"login_attempt_at" json:"-"`
	LoggedInAt     *time.Time  `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time  `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// Summary returns the public projection used in API responses. Password hash
// and session tokens never leave the server through this path.
func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:       u.ID,
		FullName: u.FullName,
		Email:    u.Email,
		Role:     u.Role,
		Avatar:   u.Avatar,
	}
}

// UserSummary is the wire shape for user references
type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email,omitempty"`
	Role     UserRole  `json:"role,omitempty"`
	Avatar   string    `json:"avatar,omitempty"`
}

// Session is a registry entry: the live token for one device class. It is a
// value owned by its user; it has no lifecycle of its own and is only ever
// replaced wholesale by a new login on the same class.
type Session struct {
	DeviceClass DeviceClass `json:"device_class"`
	Token       string      `json:"token"`
	LastLogin   time.Time   `json:"last_login"`
}

// SessionList is the ordered per-user session list, persisted as a JSON
// column on the users table.
type SessionList []Session

// ForDevice returns the session for the given class, if any
func (l SessionList) ForDevice(device DeviceClass) (Session, bool) {
	for _, s := range l {
		if s.DeviceClass == device {
			return s, true
		}
	}
	return Session{}, false
}

// Holds reports whether any session carries a bit-equal token
func (l SessionList) Holds(token string) bool {
	if token == "" {
		return false
	}
	for _, s := range l {
		if s.Token == token {
			return true
		}
	}
	return false
}

// Replace drops any session for the device class and appends the new entry,
// preserving the order of the remaining sessions. It returns a new list.
func (l SessionList) Replace(entry Session) SessionList {
	out := make(SessionList, 0, len(l)+1)
	for _, s := range l {
		if s.DeviceClass != entry.DeviceClass {
			out = append(out, s)
		}
	}
	return append(out, entry)
}

// Drop removes the session for the device class, if present
func (l SessionList) Drop(device DeviceClass) SessionList {
	out := make(SessionList, 0, len(l))
	for _, s := range l {
		if s.DeviceClass != device {
			out = append(out, s)
		}
	}
	return out
}

// Value implements driver.Valuer
func (l SessionList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]Session(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (l *SessionList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		if len(v) == 0 {
			*l = nil
			return nil
		}
		return json.Unmarshal(v, l)
	case string:
		if v == "" {
			*l = nil
			return nil
		}
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported sessions column type %T", src)
	}
}
