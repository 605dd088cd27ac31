package auth

import (
	"context"
	"reflect"
	"time"
)

// Auther ties credential verification, token minting, and the session
// registry together. A login that verifies but fails to register its token
// is not a login: the registry write has to land before the token goes out.
type Auther struct {
	provider        IdentityProvider
	users           Users
	registry        SessionRegistry
	signingKey      []byte
	tokenExpiration int
	issuer          string
	audience        []string
	logger          Logger
	tokenService    TokenService
	activitySink    ActivitySink
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, users Users, registry SessionRegistry, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		provider:        provider,
		users:           users,
		registry:        registry,
		signingKey:      []byte(opts.GetSigningKey()),
		tokenExpiration: opts.GetTokenExpiration(),
		audience:        opts.GetAudience(),
		issuer:          opts.GetIssuer(),
		logger:          defLogger{},
		tokenService:    tokenService,
		activitySink:    noopActivitySink{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	s.tokenService = NewTokenService(
		s.signingKey,
		s.tokenExpiration,
		s.issuer,
		s.audience,
		logger,
	)
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithTokenService overrides the default token service.
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies credentials, mints a session token, and registers it for the
// device class. The device class is checked before credentials so a bad
// payload never burns a login attempt.
func (s *Auther) Login(ctx context.Context, identifier, password string, device DeviceClass) (*LoginResult, error) {
	if !device.IsValid() {
		return nil, ErrInvalidDeviceClass
	}

	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Error("Login verify identity error: %v", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"identifier": identifier,
			"device":     string(device),
			"error":      err.Error(),
		})
		return nil, err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"identifier": identifier,
			"device":     string(device),
			"error":      ErrIdentityNotFound.Error(),
		})
		return nil, ErrIdentityNotFound
	}

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, s.actorFromIdentity(identity), identity.ID(), map[string]any{
			"identifier": identifier,
			"device":     string(device),
			"error":      err.Error(),
		})
		return nil, err
	}

	user, err := s.users.GetByID(ctx, identity.ID())
	if err != nil {
		s.logger.Error("Login user load error: %v", err)
		user = nil
	}

	var displaced *Session
	if user != nil {
		if prev, found := user.Sessions.ForDevice(device); found {
			displaced = &prev
		}
	}

	sessions, err := s.registry.Upsert(ctx, identity.ID(), device, token, time.Now())
	if err != nil {
		s.logger.Error("Login session registry upsert error: %v", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, s.actorFromIdentity(identity), identity.ID(), map[string]any{
			"identifier": identifier,
			"device":     string(device),
			"error":      err.Error(),
		})
		return nil, err
	}

	if displaced != nil && displaced.Token != token {
		s.emitAuthEvent(ctx, ActivityEventSessionSuperseded, s.actorFromIdentity(identity), identity.ID(), map[string]any{
			"device": string(device),
		})
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, s.actorFromIdentity(identity), identity.ID(), map[string]any{
		"identifier": identifier,
		"device":     string(device),
	})

	return &LoginResult{
		Token:    token,
		User:     user,
		Sessions: sessions,
	}, nil
}

// Logout drops the registered session for the device class. The token itself
// stays valid until expiry, the registry check is what locks it out.
func (s *Auther) Logout(ctx context.Context, userID string, device DeviceClass) error {
	if !device.IsValid() {
		return ErrInvalidDeviceClass
	}

	if err := s.registry.Revoke(ctx, userID, device); err != nil {
		s.logger.Error("Logout revoke error: %v", err)
		return err
	}

	s.emitAuthEvent(ctx, ActivityEventLogout, ActorRef{ID: userID, Type: "user"}, userID, map[string]any{
		"device": string(device),
	})

	return nil
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		UserID:    userID,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

func (s *Auther) actorFromIdentity(identity Identity) ActorRef {
	if identity == nil {
		return ActorRef{Type: "unknown"}
	}

	return ActorRef{
		ID:   identity.ID(),
		Type: "user",
	}
}

var _ Authenticator = (*Auther)(nil)
