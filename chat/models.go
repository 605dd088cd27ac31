package chat

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/edumarket/edumarket/auth"
)

// MessageType distinguishes one-to-one messages from tech-stack broadcasts
type MessageType string

const (
	MessageDirect    MessageType = "direct"
	MessageBroadcast MessageType = "broadcast"
)

// ParseMessageType maps a wire value onto a known type. Empty defaults to
// direct, matching how clients omit the field for plain messages.
func ParseMessageType(s string) (MessageType, bool) {
	switch MessageType(s) {
	case MessageDirect, "":
		return MessageDirect, true
	case MessageBroadcast:
		return MessageBroadcast, true
	default:
		return "", false
	}
}

// Message is one chat entry. Broadcast messages fan out through the
// receivers list instead of being copied per recipient.
type Message struct {
	bun.BaseModel `bun:"table:messages,alias:msg"`

	ID        uuid.UUID   `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	SenderID  uuid.UUID   `bun:"sender_id,notnull,type:uuid" json:"sender_id"`
	Receivers IDList      `bun:"receivers,type:jsonb" json:"receivers"`
	Content   string      `bun:"content,notnull" json:"content"`
	Type      MessageType `bun:"message_type,notnull" json:"type"`
	TechStack string      `bun:"tech_stack" json:"tech_stack,omitempty"`
	ReadBy    IDList      `bun:"read_by,type:jsonb" json:"read_by,omitempty"`

	Sender *auth.UserSummary `bun:"-" json:"sender,omitempty"`

	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// IDList is a user id set persisted as a JSON column
type IDList []uuid.UUID

// Contains reports membership
func (l IDList) Contains(id uuid.UUID) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// Value implements driver.Valuer
func (l IDList) Value() (driver.Value, error) {
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
func (l *IDList) Scan(src any) error {
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
		return fmt.Errorf("unsupported receivers column type %T", src)
	}
}
