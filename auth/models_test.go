package auth_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edumarket/edumarket/auth"
)

func TestSessionListReplace(t *testing.T) {
	now := time.Now()

	t.Run("same device class is replaced", func(t *testing.T) {
		list := auth.SessionList{
			{DeviceClass: auth.DevicePhone, Token: "token-a", LastLogin: now.Add(-time.Hour)},
		}

		out := list.Replace(auth.Session{DeviceClass: auth.DevicePhone, Token: "token-b", LastLogin: now})

		require.Len(t, out, 1)
		assert.Equal(t, "token-b", out[0].Token)
		assert.False(t, out.Holds("token-a"))
	})

	t.Run("other device class survives", func(t *testing.T) {
		list := auth.SessionList{
			{DeviceClass: auth.DevicePhone, Token: "phone-token", LastLogin: now},
		}

		out := list.Replace(auth.Session{DeviceClass: auth.DeviceLaptop, Token: "laptop-token", LastLogin: now})

		require.Len(t, out, 2)
		assert.True(t, out.Holds("phone-token"))
		assert.True(t, out.Holds("laptop-token"))
	})

	t.Run("does not mutate the receiver", func(t *testing.T) {
		list := auth.SessionList{
			{DeviceClass: auth.DevicePhone, Token: "original", LastLogin: now},
		}

		_ = list.Replace(auth.Session{DeviceClass: auth.DevicePhone, Token: "replacement", LastLogin: now})

		assert.True(t, list.Holds("original"))
	})
}

func TestSessionListDrop(t *testing.T) {
	now := time.Now()
	list := auth.SessionList{
		{DeviceClass: auth.DevicePhone, Token: "phone-token", LastLogin: now},
		{DeviceClass: auth.DeviceLaptop, Token: "laptop-token", LastLogin: now},
	}

	out := list.Drop(auth.DevicePhone)

	require.Len(t, out, 1)
	assert.Equal(t, auth.DeviceLaptop, out[0].DeviceClass)

	// dropping a class with no session is a no-op
	out = out.Drop(auth.DevicePhone)
	assert.Len(t, out, 1)
}

func TestSessionListHolds(t *testing.T) {
	list := auth.SessionList{
		{DeviceClass: auth.DevicePhone, Token: "abc.def.ghi"},
	}

	assert.True(t, list.Holds("abc.def.ghi"))
	assert.False(t, list.Holds("abc.def.ghX"))
	assert.False(t, list.Holds(""))
	assert.False(t, auth.SessionList{}.Holds("abc.def.ghi"))
}

func TestSessionListForDevice(t *testing.T) {
	list := auth.SessionList{
		{DeviceClass: auth.DeviceLaptop, Token: "laptop-token"},
	}

	s, ok := list.ForDevice(auth.DeviceLaptop)
	require.True(t, ok)
	assert.Equal(t, "laptop-token", s.Token)

	_, ok = list.ForDevice(auth.DevicePhone)
	assert.False(t, ok)
}

func TestSessionListSQLRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	list := auth.SessionList{
		{DeviceClass: auth.DevicePhone, Token: "phone-token", LastLogin: now},
		{DeviceClass: auth.DeviceLaptop, Token: "laptop-token", LastLogin: now},
	}

	val, err := list.Value()
	require.NoError(t, err)

	var out auth.SessionList
	require.NoError(t, out.Scan(val))

	require.Len(t, out, 2)
	assert.Equal(t, list[0].Token, out[0].Token)
	assert.Equal(t, list[1].DeviceClass, out[1].DeviceClass)

	t.Run("empty list stores as empty array", func(t *testing.T) {
		val, err := auth.SessionList{}.Value()
		require.NoError(t, err)
		assert.Equal(t, "[]", val)
	})

	t.Run("nil column scans clean", func(t *testing.T) {
		var out auth.SessionList
		require.NoError(t, out.Scan(nil))
		assert.Nil(t, out)
	})
}

func TestUserSummaryOmitsSecrets(t *testing.T) {
	user := &auth.User{
		FullName:     "Ada Lovelace",
		Email:        "ada@example.com",
		Role:         auth.RoleTutor,
		PasswordHash: "$2a$14$secret",
		Sessions: auth.SessionList{
			{DeviceClass: auth.DevicePhone, Token: "live-token"},
		},
	}

	b, err := json.Marshal(user.Summary())
	require.NoError(t, err)

	assert.NotContains(t, string(b), "secret")
	assert.NotContains(t, string(b), "live-token")
	assert.Contains(t, string(b), "Ada Lovelace")
}

func TestUserJSONHidesSessions(t *testing.T) {
	user := &auth.User{
		FullName:     "Ada Lovelace",
		PasswordHash: "$2a$14$secret",
		Sessions: auth.SessionList{
			{DeviceClass: auth.DevicePhone, Token: "live-token"},
		},
		LoginAttempts: 3,
	}

	b, err := json.Marshal(user)
	require.NoError(t, err)

	assert.NotContains(t, string(b), "password_hash")
	assert.NotContains(t, string(b), "live-token")
	assert.NotContains(t, string(b), "login_attempts")
}
