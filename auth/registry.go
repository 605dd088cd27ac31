package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// registryStore keeps the per-user session list on the user record. Upsert is
// read-modify-write over the whole list: no row locks, no compare-and-swap.
// Two concurrent logins for the same user can interleave and the later write
// wins, which at worst leaves one of the two fresh tokens unregistered. That
// token fails the registry check on first use and its owner logs in again.
type registryStore struct {
	users  Users
	logger Logger
}

// NewSessionRegistry builds a registry backed by the users store
func NewSessionRegistry(users Users) SessionRegistry {
	return &registryStore{
		users:  users,
		logger: defLogger{},
	}
}

func (r *registryStore) WithLogger(l Logger) *registryStore {
	if l != nil {
		r.logger = l
	}
	return r
}

// Upsert registers token as the live session for (userID, device), replacing
// whatever session that device class held. Sessions for the other class are
// untouched, so a phone and a laptop session coexist for the same user.
func (r *registryStore) Upsert(ctx context.Context, userID string, device DeviceClass, token string, issuedAt time.Time) (SessionList, error) {
	if !device.IsValid() {
		return nil, ErrInvalidDeviceClass
	}

	user, err := r.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	sessions := user.Sessions.Replace(Session{
		DeviceClass: device,
		Token:       token,
		LastLogin:   issuedAt,
	})

	if err := r.users.ReplaceSessions(ctx, user.ID, sessions); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to persist session registry")
	}

	return sessions, nil
}

// IsLive reports whether token is bit-equal to a registered session token for
// the user. A token replaced by a later login on the same device class is no
// longer in the list and comes back false.
func (r *registryStore) IsLive(ctx context.Context, userID string, token string) (bool, error) {
	user, err := r.load(ctx, userID)
	if err != nil {
		return false, err
	}

	return user.Sessions.Holds(token), nil
}

// Revoke drops the session for the device class. Revoking a class with no
// session is a no-op.
func (r *registryStore) Revoke(ctx context.Context, userID string, device DeviceClass) error {
	if !device.IsValid() {
		return ErrInvalidDeviceClass
	}

	user, err := r.load(ctx, userID)
	if err != nil {
		return err
	}

	if _, found := user.Sessions.ForDevice(device); !found {
		return nil
	}

	sessions := user.Sessions.Drop(device)
	if err := r.users.ReplaceSessions(ctx, user.ID, sessions); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to persist session registry")
	}

	return nil
}

func (r *registryStore) load(ctx context.Context, userID string) (*User, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, ErrIdentityNotFound
	}

	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load user for session registry")
	}

	if user == nil {
		return nil, ErrIdentityNotFound
	}

	return user, nil
}
