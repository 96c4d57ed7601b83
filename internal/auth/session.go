package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"daily-review/internal/model"
)

// Identity is what the chat front end knows about a person.
type Identity struct {
	TelegramID int64
	FirstName  string
	LastName   string
	Username   string
}

func (i Identity) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(i.FirstName) + " " + strings.TrimSpace(i.LastName))
	if name == "" {
		return i.Username
	}
	return name
}

// UserStore persists users on sign-in.
type UserStore interface {
	UpsertFromTelegram(ctx context.Context, telegramID int64, displayName, username string) (*model.User, error)
}

// Session is one signed-in user. Everything a handler touches hangs off it.
type Session struct {
	UserID      string
	TelegramID  int64
	DisplayName string
	Email       string
	SignedInAt  time.Time

	mu     sync.Mutex
	values map[string]any
}

// closer is session state that holds resources, such as running timers.
// Such values are closed when replaced, deleted or when the session ends.
type closer interface{ Close() }

// Set stores per-session state under key. A previous value that has a Close
// method is closed once it is replaced.
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	if s.values == nil {
		s.values = make(map[string]any)
	}
	old, had := s.values[key]
	s.values[key] = value
	s.mu.Unlock()

	if c, ok := old.(closer); had && ok && old != value {
		c.Close()
	}
}

func (s *Session) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Delete removes key, closing its value if it has a Close method.
func (s *Session) Delete(key string) {
	s.mu.Lock()
	old, had := s.values[key]
	delete(s.values, key)
	s.mu.Unlock()

	if c, ok := old.(closer); had && ok {
		c.Close()
	}
}

func (s *Session) close() {
	s.mu.Lock()
	var closers []closer
	for _, v := range s.values {
		if c, ok := v.(closer); ok {
			closers = append(closers, c)
		}
	}
	s.values = nil
	s.mu.Unlock()

	for _, c := range closers {
		c.Close()
	}
}

// Manager tracks active sessions by Telegram id.
type Manager struct {
	users UserStore
	now   func() time.Time

	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewManager(users UserStore) *Manager {
	return &Manager{users: users, now: time.Now, sessions: make(map[int64]*Session)}
}

// SignIn upserts the user and returns their session, reusing an active one.
func (m *Manager) SignIn(ctx context.Context, id Identity) (*Session, error) {
	if id.TelegramID == 0 {
		return nil, fmt.Errorf("sign in: missing telegram id: %w", model.ErrNotAuthenticated)
	}
	if s, ok := m.Current(id.TelegramID); ok {
		return s, nil
	}

	user, err := m.users.UpsertFromTelegram(ctx, id.TelegramID, id.DisplayName(), id.Username)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	session := &Session{
		UserID:      user.ID,
		TelegramID:  user.TelegramID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		SignedInAt:  m.now(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[id.TelegramID]; ok {
		return existing, nil
	}
	m.sessions[id.TelegramID] = session
	return session, nil
}

// Current returns the active session, if any.
func (m *Manager) Current(telegramID int64) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[telegramID]
	return s, ok
}

// SignOut ends the session and runs its teardown hooks.
func (m *Manager) SignOut(telegramID int64) bool {
	m.mu.Lock()
	s, ok := m.sessions[telegramID]
	delete(m.sessions, telegramID)
	m.mu.Unlock()

	if ok {
		s.close()
	}
	return ok
}

// Sessions lists active sessions.
func (m *Manager) Sessions() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// Close signs everyone out.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[int64]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}
