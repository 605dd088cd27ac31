package chat_test

import (
	"context"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edumarket/edumarket/auth"
	"github.com/edumarket/edumarket/chat"
)

// stubMessages is an in-memory Messages store
type stubMessages struct {
	chat.Messages
	created []*chat.Message

	conversations int
	inboxes       int
}

func (s *stubMessages) Create(ctx context.Context, record *chat.Message, criteria ...repository.InsertCriteria) (*chat.Message, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	s.created = append(s.created, record)
	return record, nil
}

func (s *stubMessages) Conversation(ctx context.Context, userID, otherID uuid.UUID) ([]*chat.Message, error) {
	s.conversations++
	return s.created, nil
}

func (s *stubMessages) Inbox(ctx context.Context, userID uuid.UUID) ([]*chat.Message, error) {
	s.inboxes++
	return s.created, nil
}

// stubDirectory serves users and a filtered tutor listing
type stubDirectory struct {
	users []*auth.User
}

func (s stubDirectory) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*auth.User, error) {
	for _, u := range s.users {
		if u.ID.String() == id {
			return u, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

func (s stubDirectory) ListMentors(ctx context.Context, skill, search string) ([]*auth.User, error) {
	var out []*auth.User
	for _, u := range s.users {
		if u.Role != auth.RoleTutor {
			continue
		}
		if skill != "" && !u.Interests.Match(skill) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(u.FullName), strings.ToLower(search)) {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func tutor(name string, interests ...string) *auth.User {
	return &auth.User{
		ID:        uuid.New(),
		Role:      auth.RoleTutor,
		FullName:  name,
		Interests: auth.NormalizeInterests(interests),
	}
}

func student(name string) *auth.User {
	return &auth.User{
		ID:       uuid.New(),
		Role:     auth.RoleStudent,
		FullName: name,
	}
}

func TestServiceMentors(t *testing.T) {
	ctx := context.Background()
	goTutor := tutor("Go Mentor", "go", "databases")
	jsTutor := tutor("JS Mentor", "javascript")
	learner := student("Learner")

	store := &stubMessages{}
	svc := chat.NewService(store, stubDirectory{users: []*auth.User{goTutor, jsTutor, learner}})

	t.Run("all tutors", func(t *testing.T) {
		mentors, err := svc.Mentors(ctx, "", "")
		require.NoError(t, err)
		assert.Len(t, mentors, 2)
	})

	t.Run("skill filter", func(t *testing.T) {
		mentors, err := svc.Mentors(ctx, "go", "")
		require.NoError(t, err)
		require.Len(t, mentors, 1)
		assert.Equal(t, goTutor.FullName, mentors[0].FullName)
	})

	t.Run("summaries only", func(t *testing.T) {
		mentors, err := svc.Mentors(ctx, "", "")
		require.NoError(t, err)
		for _, m := range mentors {
			assert.NotEmpty(t, m.ID)
			assert.NotEmpty(t, m.FullName)
		}
	})
}

func TestServiceSendDirect(t *testing.T) {
	ctx := context.Background()
	sender := student("Sender")
	receiver := tutor("Receiver", "go")

	store := &stubMessages{}
	svc := chat.NewService(store, stubDirectory{users: []*auth.User{sender, receiver}})

	t.Run("delivers to one receiver", func(t *testing.T) {
		message, err := svc.Send(ctx, sender.ID, chat.SendRequest{
			ReceiverID: receiver.ID.String(),
			Content:    "hello",
			Type:       chat.MessageDirect,
		})
		require.NoError(t, err)

		assert.Equal(t, chat.IDList{receiver.ID}, message.Receivers)
		require.NotNil(t, message.Sender)
		assert.Equal(t, sender.FullName, message.Sender.FullName)
	})

	t.Run("missing receiver", func(t *testing.T) {
		_, err := svc.Send(ctx, sender.ID, chat.SendRequest{
			Content: "hello",
			Type:    chat.MessageDirect,
		})
		assert.ErrorIs(t, err, chat.ErrReceiverRequired)
	})

	t.Run("empty content", func(t *testing.T) {
		_, err := svc.Send(ctx, sender.ID, chat.SendRequest{
			ReceiverID: receiver.ID.String(),
			Content:    "   ",
			Type:       chat.MessageDirect,
		})
		require.Error(t, err)
	})
}

func TestServiceSendBroadcast(t *testing.T) {
	ctx := context.Background()
	sender := student("Sender")
	goTutor := tutor("Go Mentor", "go")
	otherGoTutor := tutor("Other Go Mentor", "go", "kubernetes")
	jsTutor := tutor("JS Mentor", "javascript")

	store := &stubMessages{}
	svc := chat.NewService(store, stubDirectory{users: []*auth.User{sender, goTutor, otherGoTutor, jsTutor}})

	t.Run("fans out to matching tutors", func(t *testing.T) {
		message, err := svc.Send(ctx, sender.ID, chat.SendRequest{
			Content:   "anyone up for Go?",
			Type:      chat.MessageBroadcast,
			TechStack: "go",
		})
		require.NoError(t, err)

		require.Len(t, message.Receivers, 2)
		assert.True(t, message.Receivers.Contains(goTutor.ID))
		assert.True(t, message.Receivers.Contains(otherGoTutor.ID))
		assert.False(t, message.Receivers.Contains(jsTutor.ID))
	})

	t.Run("no matching tutors", func(t *testing.T) {
		_, err := svc.Send(ctx, sender.ID, chat.SendRequest{
			Content:   "anyone?",
			Type:      chat.MessageBroadcast,
			TechStack: "cobol",
		})
		require.Error(t, err)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, "No mentors found for cobol", richErr.Message)
		assert.Equal(t, "NO_MENTORS_FOUND", richErr.TextCode)
	})

	t.Run("missing tech stack", func(t *testing.T) {
		_, err := svc.Send(ctx, sender.ID, chat.SendRequest{
			Content: "anyone?",
			Type:    chat.MessageBroadcast,
		})
		assert.ErrorIs(t, err, chat.ErrTechStackRequired)
	})
}

func TestServiceHistory(t *testing.T) {
	ctx := context.Background()
	sender := student("Sender")
	other := tutor("Other", "go")

	store := &stubMessages{}
	svc := chat.NewService(store, stubDirectory{users: []*auth.User{sender, other}})

	_, err := svc.Send(ctx, sender.ID, chat.SendRequest{
		ReceiverID: other.ID.String(),
		Content:    "hi",
		Type:       chat.MessageDirect,
	})
	require.NoError(t, err)

	t.Run("pairwise", func(t *testing.T) {
		records, err := svc.History(ctx, sender.ID, other.ID.String())
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, 1, store.conversations)
		require.NotNil(t, records[0].Sender)
		assert.Equal(t, sender.FullName, records[0].Sender.FullName)
	})

	t.Run("inbox when no other user", func(t *testing.T) {
		_, err := svc.History(ctx, sender.ID, "")
		require.NoError(t, err)
		assert.Equal(t, 1, store.inboxes)
	})

	t.Run("malformed other user id", func(t *testing.T) {
		_, err := svc.History(ctx, sender.ID, "not-a-uuid")
		require.Error(t, err)
	})
}

func TestParseMessageType(t *testing.T) {
	cases := []struct {
		in   string
		want chat.MessageType
		ok   bool
	}{
		{"direct", chat.MessageDirect, true},
		{"broadcast", chat.MessageBroadcast, true},
		{"", chat.MessageDirect, true},
		{"shout", "", false},
	}

	for _, tc := range cases {
		got, ok := chat.ParseMessageType(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}
