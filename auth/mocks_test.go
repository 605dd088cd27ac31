package auth_test

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/edumarket/edumarket/auth"
)

// stubUsers is an in-memory Users store. Only the methods the session
// lifecycle touches are implemented; anything else panics through the
// embedded nil interface.
type stubUsers struct {
	auth.Users
	byID map[string]*auth.User

	getErr     error
	replaceErr error

	lookups  int
	replaces int

	attempted  []*auth.User
	successful []*auth.User
}

func newStubUsers(users ...*auth.User) *stubUsers {
	s := &stubUsers{byID: map[string]*auth.User{}}
	for _, u := range users {
		s.byID[u.ID.String()] = u
	}
	return s
}

func (s *stubUsers) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*auth.User, error) {
	s.lookups++
	if s.getErr != nil {
		return nil, s.getErr
	}
	if user, ok := s.byID[id]; ok {
		return user, nil
	}
	return nil, repository.NewRecordNotFound()
}

func (s *stubUsers) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*auth.User, error) {
	s.lookups++
	if s.getErr != nil {
		return nil, s.getErr
	}
	for _, u := range s.byID {
		if u.Email == identifier || u.ID.String() == identifier {
			return u, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

func (s *stubUsers) ReplaceSessions(ctx context.Context, id uuid.UUID, sessions auth.SessionList) error {
	s.replaces++
	if s.replaceErr != nil {
		return s.replaceErr
	}
	user, ok := s.byID[id.String()]
	if !ok {
		return sql.ErrNoRows
	}
	user.Sessions = sessions
	return nil
}

func (s *stubUsers) TrackAttemptedLogin(ctx context.Context, user *auth.User) error {
	user.LoginAttempts++
	now := time.Now()
	user.LoginAttemptAt = &now
	s.attempted = append(s.attempted, user)
	return nil
}

func (s *stubUsers) TrackSuccessfulLogin(ctx context.Context, user *auth.User) error {
	user.LoginAttempts = 0
	user.LoginAttemptAt = nil
	s.successful = append(s.successful, user)
	return nil
}

func (s *stubUsers) CreateTx(ctx context.Context, tx bun.IDB, user *auth.User, criteria ...repository.InsertCriteria) (*auth.User, error) {
	for _, u := range s.byID {
		if u.Email == user.Email {
			return nil, errors.New("UNIQUE constraint failed: users.email")
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.byID[user.ID.String()] = user
	return user, nil
}

func (s *stubUsers) Update(ctx context.Context, user *auth.User, criteria ...repository.UpdateCriteria) (*auth.User, error) {
	s.byID[user.ID.String()] = user
	return user, nil
}

// stubRepo is a RepositoryManager over stubUsers. RunInTx hands the callback
// a zero transaction; the stub store ignores it.
type stubRepo struct {
	users *stubUsers
}

func (r stubRepo) Validate() error { return nil }
func (r stubRepo) MustValidate()   {}
func (r stubRepo) Users() auth.Users {
	return r.users
}
func (r stubRepo) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

// recordingSink captures activity events for assertions
type recordingSink struct {
	events []auth.ActivityEvent
}

func (r *recordingSink) Record(ctx context.Context, event auth.ActivityEvent) error {
	r.events = append(r.events, event)
	return nil
}

// testConfig implements auth.Config
type testConfig struct {
	signingKey      string
	tokenExpiration int
}

func (c testConfig) GetSigningKey() string { return c.signingKey }
func (c testConfig) GetTokenExpiration() int {
	if c.tokenExpiration == 0 {
		return 720
	}
	return c.tokenExpiration
}
func (c testConfig) GetTokenLookup() string { return "header:Authorization" }
func (c testConfig) GetAuthScheme() string  { return "Bearer" }
func (c testConfig) GetContextKey() string  { return "user" }
func (c testConfig) GetIssuer() string      { return "edumarket" }
func (c testConfig) GetAudience() []string  { return nil }

func newTestUser(role auth.UserRole) *auth.User {
	return &auth.User{
		ID:       uuid.New(),
		Role:     role,
		FullName: "Test User",
		Email:    "user@example.com",
	}
}
