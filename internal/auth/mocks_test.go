package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/parla-social/parla/internal/apperror"
	"github.com/parla-social/parla/internal/audit"
)

// --- In-memory UserRepository ---

// memUserRepo implements UserRepository on a map. When failAll is set,
// every call returns a storage error, for exercising failure paths.
type memUserRepo struct {
	mu      sync.Mutex
	nextID  int64
	users   map[int64]*User
	failAll bool
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[int64]*User)}
}

func (m *memUserRepo) storageErr() error {
	return apperror.NewStorage(errors.New("storage unavailable"))
}

func (m *memUserRepo) Create(ctx context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return m.storageErr()
	}
	m.nextID++
	user.ID = m.nextID
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memUserRepo) FindByID(ctx context.Context, id int64) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return nil, m.storageErr()
	}
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memUserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	return m.find(func(u *User) bool { return u.Email == email })
}

func (m *memUserRepo) FindByLogin(ctx context.Context, login string) (*User, error) {
	return m.find(func(u *User) bool { return u.Username == login || u.Email == login })
}

func (m *memUserRepo) find(match func(*User) bool) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return nil, m.storageErr()
	}
	for _, u := range m.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	u, err := m.find(func(u *User) bool { return u.Username == username })
	return u != nil, err
}

func (m *memUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	u, err := m.find(func(u *User) bool { return u.Email == email })
	return u != nil, err
}

func (m *memUserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return m.update(id, func(u *User) { u.PasswordHash = passwordHash })
}

func (m *memUserRepo) SetBanned(ctx context.Context, id int64, banned bool) error {
	return m.update(id, func(u *User) { u.IsBanned = banned })
}

func (m *memUserRepo) SetAdmin(ctx context.Context, id int64, admin bool) error {
	return m.update(id, func(u *User) { u.IsAdmin = admin })
}

func (m *memUserRepo) update(id int64, apply func(*User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return m.storageErr()
	}
	u, ok := m.users[id]
	if !ok {
		return apperror.NewNotFound("user not found")
	}
	apply(u)
	return nil
}

func (m *memUserRepo) List(ctx context.Context, offset, limit int) ([]User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return nil, 0, m.storageErr()
	}
	var users []User
	for id := m.nextID; id >= 1; id-- {
		if u, ok := m.users[id]; ok {
			users = append(users, *u)
		}
	}
	total := len(users)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return users[offset:end], total, nil
}

// --- In-memory SessionStore ---

// memSessionStore implements SessionStore on a map, honoring lazy expiry
// in Get the way the real store's SQL filter does.
type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	failAll  bool
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]*Session)}
}

func (m *memSessionStore) storageErr() error {
	return apperror.NewStorage(errors.New("storage unavailable"))
}

func (m *memSessionStore) Create(ctx context.Context, userID int64, ttl time.Duration, meta SessionMetadata) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return "", m.storageErr()
	}
	token, err := GenerateToken(TokenBytes)
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	sess := &Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if meta.UserAgent != "" {
		sess.UserAgent = &meta.UserAgent
	}
	if meta.IPAddress != "" {
		sess.IPAddress = &meta.IPAddress
	}
	m.sessions[token] = sess
	return token, nil
}

func (m *memSessionStore) Get(ctx context.Context, token string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return nil, m.storageErr()
	}
	sess, ok := m.sessions[token]
	if !ok || !sess.ExpiresAt.After(time.Now().UTC()) {
		return nil, nil
	}
	cp := *sess
	return &cp, nil
}

func (m *memSessionStore) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return m.storageErr()
	}
	delete(m.sessions, token)
	return nil
}

func (m *memSessionStore) DeleteAllForUser(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return m.storageErr()
	}
	for token, sess := range m.sessions {
		if sess.UserID == userID {
			delete(m.sessions, token)
		}
	}
	return nil
}

// count returns the number of live sessions for a user.
func (m *memSessionStore) count(userID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, sess := range m.sessions {
		if sess.UserID == userID {
			n++
		}
	}
	return n
}

// --- In-memory ResetTokenStore ---

type resetEntry struct {
	userID  int64
	expires time.Time
}

type memResetStore struct {
	mu      sync.Mutex
	entries map[string]resetEntry
}

func newMemResetStore() *memResetStore {
	return &memResetStore{entries: make(map[string]resetEntry)}
}

func (m *memResetStore) Save(ctx context.Context, tokenHash string, userID int64, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[tokenHash] = resetEntry{userID: userID, expires: time.Now().Add(ttl)}
	return nil
}

func (m *memResetStore) Consume(ctx context.Context, tokenHash string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[tokenHash]
	if !ok || time.Now().After(entry.expires) {
		return 0, nil
	}
	delete(m.entries, tokenHash)
	return entry.userID, nil
}

// --- Audit recorder spy ---

// recorderSpy records actions for assertions.
type recorderSpy struct {
	mu      sync.Mutex
	actions []string
}

func (r *recorderSpy) Record(ctx context.Context, event *audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, event.Action)
}

func (r *recorderSpy) has(action string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.actions {
		if a == action {
			return true
		}
	}
	return false
}

// --- Reset notifier capture ---

// notifierSpy captures the last delivered reset token.
type notifierSpy struct {
	mu        sync.Mutex
	lastEmail string
	lastToken string
	calls     int
}

func (n *notifierSpy) Notify(ctx context.Context, email, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lastEmail = email
	n.lastToken = token
	n.calls++
	return nil
}

// --- Helpers ---

// newTestService wires an AuthService over the in-memory fakes.
func newTestService() (AuthService, *memUserRepo, *memSessionStore, *memResetStore, *notifierSpy, *recorderSpy) {
	users := newMemUserRepo()
	sessions := newMemSessionStore()
	resets := newMemResetStore()
	notifier := &notifierSpy{}
	events := &recorderSpy{}
	svc := NewAuthService(users, sessions, resets, notifier, events,
		24*time.Hour, time.Hour)
	return svc, users, sessions, resets, notifier, events
}

// seedUser inserts a user with a real password hash.
func seedUser(repo *memUserRepo, username, email, password string) *User {
	hash, err := HashPassword(password)
	if err != nil {
		panic(fmt.Sprintf("seeding user: %v", err))
	}
	u := &User{
		Username:     username,
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), u); err != nil {
		panic(fmt.Sprintf("seeding user: %v", err))
	}
	return u
}
