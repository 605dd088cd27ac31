package chat

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"

	"github.com/edumarket/edumarket/auth"
)

// MentorDirectory is the slice of the users repository the chat needs:
// summary lookups plus the tutor listing used for broadcasts and the mentor
// directory. auth.Users satisfies it.
type MentorDirectory interface {
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*auth.User, error)
	ListMentors(ctx context.Context, skill, search string) ([]*auth.User, error)
}

// SendRequest carries one outgoing message
type SendRequest struct {
	ReceiverID string
	Content    string
	Type       MessageType
	TechStack  string
}

// Service routes messages and serves the mentor directory
type Service struct {
	messages Messages
	users    MentorDirectory
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

func NewService(messages Messages, users MentorDirectory, opts ...ServiceOption) *Service {
	s := &Service{
		messages: messages,
		users:    users,
		logger:   auth.DefaultLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Mentors lists tutors, optionally narrowed by skill and name search.
// Password hashes and session lists never serialize from the summary shape.
func (s *Service) Mentors(ctx context.Context, skill, search string) ([]*auth.UserSummary, error) {
	mentors, err := s.users.ListMentors(ctx, skill, search)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to list mentors")
	}

	out := make([]*auth.UserSummary, 0, len(mentors))
	for _, m := range mentors {
		out = append(out, m.Summary())
	}
	return out, nil
}

// Send routes a direct message to its receiver or fans a broadcast out to
// every tutor matching the tech stack. A broadcast that reaches nobody is an
// error, not a silent success.
func (s *Service) Send(ctx context.Context, senderID uuid.UUID, req SendRequest) (*Message, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, goerrors.New("Message content is required", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	receivers, err := s.resolveReceivers(ctx, req)
	if err != nil {
		return nil, err
	}

	message := &Message{
		SenderID:  senderID,
		Receivers: receivers,
		Content:   req.Content,
		Type:      req.Type,
		TechStack: req.TechStack,
	}

	created, err := s.messages.Create(ctx, message)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to save message")
	}

	s.decorateSender(ctx, created)
	return created, nil
}

// History returns the pairwise conversation when otherUserID is given,
// otherwise the user's whole inbox. Oldest first either way.
func (s *Service) History(ctx context.Context, userID uuid.UUID, otherUserID string) ([]*Message, error) {
	var records []*Message
	var err error

	if otherUserID = strings.TrimSpace(otherUserID); otherUserID != "" {
		otherID, parseErr := uuid.Parse(otherUserID)
		if parseErr != nil {
			return nil, goerrors.New("Invalid user id", goerrors.CategoryValidation).
				WithCode(goerrors.CodeBadRequest)
		}
		records, err = s.messages.Conversation(ctx, userID, otherID)
	} else {
		records, err = s.messages.Inbox(ctx, userID)
	}

	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to load chat history")
	}

	// sender summaries resolved once per distinct sender
	cache := map[uuid.UUID]*auth.UserSummary{}
	for _, m := range records {
		summary, ok := cache[m.SenderID]
		if !ok {
			summary = s.lookupSummary(ctx, m.SenderID)
			cache[m.SenderID] = summary
		}
		m.Sender = summary
	}

	return records, nil
}

func (s *Service) resolveReceivers(ctx context.Context, req SendRequest) (IDList, error) {
	switch req.Type {
	case MessageBroadcast:
		techStack := strings.TrimSpace(req.TechStack)
		if techStack == "" {
			return nil, ErrTechStackRequired
		}

		mentors, err := s.users.ListMentors(ctx, techStack, "")
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to resolve broadcast receivers")
		}

		if len(mentors) == 0 {
			return nil, NoMentorsFound(techStack)
		}

		receivers := make(IDList, 0, len(mentors))
		for _, m := range mentors {
			receivers = append(receivers, m.ID)
		}
		return receivers, nil

	case MessageDirect:
		receiverID, err := uuid.Parse(strings.TrimSpace(req.ReceiverID))
		if err != nil {
			return nil, ErrReceiverRequired
		}
		return IDList{receiverID}, nil

	default:
		return nil, ErrInvalidMessageType
	}
}

func (s *Service) decorateSender(ctx context.Context, message *Message) {
	if message == nil {
		return
	}
	message.Sender = s.lookupSummary(ctx, message.SenderID)
}

func (s *Service) lookupSummary(ctx context.Context, id uuid.UUID) *auth.UserSummary {
	if id == uuid.Nil {
		return nil
	}

	user, err := s.users.GetByID(ctx, id.String())
	if err != nil {
		s.logger.Warn("chat user lookup %s: %v", id, err)
		return nil
	}

	return user.Summary()
}
