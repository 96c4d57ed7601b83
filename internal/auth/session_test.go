package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-review/internal/model"
)

type stubUsers struct {
	calls int
	err   error
}

func (s *stubUsers) UpsertFromTelegram(_ context.Context, telegramID int64, displayName, username string) (*model.User, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &model.User{ID: "user-1", TelegramID: telegramID, DisplayName: displayName, Username: username}, nil
}

func TestSignInCreatesSession(t *testing.T) {
	users := &stubUsers{}
	m := NewManager(users)

	s, err := m.SignIn(context.Background(), Identity{TelegramID: 42, FirstName: "Ada", LastName: "L"})
	require.NoError(t, err)
	assert.Equal(t, "user-1", s.UserID)
	assert.Equal(t, "Ada L", s.DisplayName)

	again, err := m.SignIn(context.Background(), Identity{TelegramID: 42})
	require.NoError(t, err)
	assert.Same(t, s, again)
	assert.Equal(t, 1, users.calls)

	current, ok := m.Current(42)
	require.True(t, ok)
	assert.Same(t, s, current)
}

func TestSignInRequiresIdentity(t *testing.T) {
	m := NewManager(&stubUsers{})
	_, err := m.SignIn(context.Background(), Identity{})
	assert.ErrorIs(t, err, model.ErrNotAuthenticated)
}

func TestSignInStoreFailure(t *testing.T) {
	m := NewManager(&stubUsers{err: model.ErrStoreUnavailable})
	_, err := m.SignIn(context.Background(), Identity{TelegramID: 1})
	assert.True(t, errors.Is(err, model.ErrStoreUnavailable))
	_, ok := m.Current(1)
	assert.False(t, ok)
}

type countingCloser struct{ closed int }

func (c *countingCloser) Close() { c.closed++ }

func TestSignOutClosesSessionState(t *testing.T) {
	m := NewManager(&stubUsers{})
	s, err := m.SignIn(context.Background(), Identity{TelegramID: 7, Username: "neo"})
	require.NoError(t, err)
	assert.Equal(t, "neo", s.DisplayName)

	review := &countingCloser{}
	s.Set("review", review)
	s.Set("hide_completed", true)

	assert.True(t, m.SignOut(7))
	assert.Equal(t, 1, review.closed)
	_, ok := s.Get("review")
	assert.False(t, ok)
	_, ok = m.Current(7)
	assert.False(t, ok)

	assert.False(t, m.SignOut(7))
	assert.Equal(t, 1, review.closed)
}

func TestSessionClosesReplacedState(t *testing.T) {
	s := &Session{UserID: "u1"}
	first, second := &countingCloser{}, &countingCloser{}

	s.Set("review", first)
	s.Set("review", first)
	assert.Equal(t, 0, first.closed)

	s.Set("review", second)
	assert.Equal(t, 1, first.closed)

	s.Delete("review")
	assert.Equal(t, 1, second.closed)
	_, ok := s.Get("review")
	assert.False(t, ok)

	s.Delete("review")
	assert.Equal(t, 1, second.closed)
}
