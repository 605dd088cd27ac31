package chat

import (
	"context"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Messages interface {
	repository.Repository[*Message]

	Create(ctx context.Context, record *Message, criteria ...repository.InsertCriteria) (*Message, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Message, criteria ...repository.InsertCriteria) (*Message, error)

	Conversation(ctx context.Context, userID, otherID uuid.UUID) ([]*Message, error)
	Inbox(ctx context.Context, userID uuid.UUID) ([]*Message, error)
}

type messages struct {
	repository.Repository[*Message]
	db *bun.DB
}

var (
	_ Messages                        = (*messages)(nil)
	_ repository.Repository[*Message] = (*messages)(nil)
)

func NewMessagesRepository(db *bun.DB) Messages {
	repo := repository.NewRepository[*Message](db, repository.ModelHandlers[*Message]{
		NewRecord: func() *Message { return &Message{} },
		GetID: func(m *Message) uuid.UUID {
			if m == nil {
				return uuid.Nil
			}
			return m.ID
		},
		SetID: func(m *Message, id uuid.UUID) {
			if m != nil {
				m.ID = id
			}
		},
	})

	return &messages{
		Repository: repo,
		db:         db,
	}
}

func (r *messages) Create(ctx context.Context, record *Message, criteria ...repository.InsertCriteria) (*Message, error) {
	return r.CreateTx(ctx, r.db, record, criteria...)
}

func (r *messages) CreateTx(ctx context.Context, tx bun.IDB, record *Message, criteria ...repository.InsertCriteria) (*Message, error) {
	prepareMessageDefaults(record)
	return r.Repository.CreateTx(ctx, tx, record, criteria...)
}

// Conversation returns the pairwise history, oldest first. Receiver
// membership is matched against the JSON id list.
func (r *messages) Conversation(ctx context.Context, userID, otherID uuid.UUID) ([]*Message, error) {
	var records []*Message

	err := r.db.NewSelect().
		Model(&records).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				WhereGroup(" OR ", func(q *bun.SelectQuery) *bun.SelectQuery {
					return q.
						Where("?TableAlias.sender_id = ?", userID.String()).
						Where("?TableAlias.receivers LIKE ?", likeID(otherID))
				}).
				WhereGroup(" OR ", func(q *bun.SelectQuery) *bun.SelectQuery {
					return q.
						Where("?TableAlias.sender_id = ?", otherID.String()).
						Where("?TableAlias.receivers LIKE ?", likeID(userID))
				})
		}).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return records, nil
}

// Inbox returns every message the user sent or received, oldest first
func (r *messages) Inbox(ctx context.Context, userID uuid.UUID) ([]*Message, error) {
	var records []*Message

	err := r.db.NewSelect().
		Model(&records).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				WhereOr("?TableAlias.sender_id = ?", userID.String()).
				WhereOr("?TableAlias.receivers LIKE ?", likeID(userID))
		}).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return records, nil
}

func likeID(id uuid.UUID) string {
	return "%" + strings.ToLower(id.String()) + "%"
}

func prepareMessageDefaults(record *Message) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.Type == "" {
		record.Type = MessageDirect
	}
}
