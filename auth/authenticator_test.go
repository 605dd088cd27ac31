package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edumarket/edumarket/auth"
)

func autherFixture(t *testing.T, users ...*auth.User) (*auth.Auther, *stubUsers, *recordingSink) {
	t.Helper()
	store := newStubUsers(users...)
	provider := auth.NewUserProvider(store)
	registry := auth.NewSessionRegistry(store)
	sink := &recordingSink{}

	auther := auth.NewAuthenticator(provider, store, registry, testConfig{signingKey: "auther-test-key"}).
		WithActivitySink(sink)

	return auther, store, sink
}

func sinkHasEvent(sink *recordingSink, eventType auth.ActivityEventType) bool {
	for _, event := range sink.events {
		if event.EventType == eventType {
			return true
		}
	}
	return false
}

func TestAutherLogin(t *testing.T) {
	ctx := context.Background()

	hash, err := auth.HashPassword("correct horse battery")
	require.NoError(t, err)

	t.Run("successful login registers the token", func(t *testing.T) {
		user := newTestUser(auth.RoleStudent)
		user.PasswordHash = hash
		auther, _, sink := autherFixture(t, user)

		result, err := auther.Login(ctx, user.Email, "correct horse battery", auth.DevicePhone)
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.NotEmpty(t, result.Token)
		assert.True(t, result.Sessions.Holds(result.Token))
		assert.True(t, user.Sessions.Holds(result.Token))

		require.NotEmpty(t, sink.events)
		assert.Equal(t, auth.ActivityEventLoginSuccess, sink.events[len(sink.events)-1].EventType)
	})

	t.Run("second login replaces the first on the same class", func(t *testing.T) {
		user := newTestUser(auth.RoleStudent)
		user.PasswordHash = hash
		auther, _, sink := autherFixture(t, user)

		first, err := auther.Login(ctx, user.Email, "correct horse battery", auth.DevicePhone)
		require.NoError(t, err)
		assert.False(t, sinkHasEvent(sink, auth.ActivityEventSessionSuperseded))

		second, err := auther.Login(ctx, user.Email, "correct horse battery", auth.DevicePhone)
		require.NoError(t, err)

		assert.False(t, user.Sessions.Holds(first.Token))
		assert.True(t, user.Sessions.Holds(second.Token))
		assert.Len(t, user.Sessions, 1)

		// the replacement is recorded, then the fresh login
		require.GreaterOrEqual(t, len(sink.events), 2)
		assert.Equal(t, auth.ActivityEventSessionSuperseded, sink.events[len(sink.events)-2].EventType)
		assert.Equal(t, auth.ActivityEventLoginSuccess, sink.events[len(sink.events)-1].EventType)
	})

	t.Run("logins on different classes do not supersede", func(t *testing.T) {
		user := newTestUser(auth.RoleStudent)
		user.PasswordHash = hash
		auther, _, sink := autherFixture(t, user)

		_, err := auther.Login(ctx, user.Email, "correct horse battery", auth.DevicePhone)
		require.NoError(t, err)
		_, err = auther.Login(ctx, user.Email, "correct horse battery", auth.DeviceLaptop)
		require.NoError(t, err)

		assert.Len(t, user.Sessions, 2)
		assert.False(t, sinkHasEvent(sink, auth.ActivityEventSessionSuperseded))
	})

	t.Run("invalid device class fails before credentials", func(t *testing.T) {
		user := newTestUser(auth.RoleStudent)
		user.PasswordHash = hash
		auther, store, _ := autherFixture(t, user)

		_, err := auther.Login(ctx, user.Email, "correct horse battery", auth.DeviceClass("tablet"))
		require.ErrorIs(t, err, auth.ErrInvalidDeviceClass)
		assert.Zero(t, store.lookups)
	})

	t.Run("bad credentials emit a failure event", func(t *testing.T) {
		user := newTestUser(auth.RoleStudent)
		user.PasswordHash = hash
		auther, _, sink := autherFixture(t, user)

		_, err := auther.Login(ctx, user.Email, "wrong", auth.DevicePhone)
		require.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)

		require.NotEmpty(t, sink.events)
		assert.Equal(t, auth.ActivityEventLoginFailure, sink.events[len(sink.events)-1].EventType)
	})

	t.Run("registry write failure fails the login", func(t *testing.T) {
		user := newTestUser(auth.RoleStudent)
		user.PasswordHash = hash
		auther, store, _ := autherFixture(t, user)
		store.replaceErr = assert.AnError

		_, err := auther.Login(ctx, user.Email, "correct horse battery", auth.DevicePhone)
		require.Error(t, err)
		assert.Empty(t, user.Sessions)
	})
}

func TestAutherLogout(t *testing.T) {
	ctx := context.Background()

	hash, err := auth.HashPassword("correct horse battery")
	require.NoError(t, err)

	user := newTestUser(auth.RoleTutor)
	user.PasswordHash = hash
	auther, _, sink := autherFixture(t, user)

	phone, err := auther.Login(ctx, user.Email, "correct horse battery", auth.DevicePhone)
	require.NoError(t, err)
	laptop, err := auther.Login(ctx, user.Email, "correct horse battery", auth.DeviceLaptop)
	require.NoError(t, err)

	require.NoError(t, auther.Logout(ctx, user.ID.String(), auth.DevicePhone))

	assert.False(t, user.Sessions.Holds(phone.Token))
	assert.True(t, user.Sessions.Holds(laptop.Token))
	assert.Equal(t, auth.ActivityEventLogout, sink.events[len(sink.events)-1].EventType)

	t.Run("invalid device class", func(t *testing.T) {
		err := auther.Logout(ctx, user.ID.String(), auth.DeviceClass("watch"))
		assert.ErrorIs(t, err, auth.ErrInvalidDeviceClass)
	})
}
