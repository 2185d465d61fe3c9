package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/cliptube/backend/internal/auth"
	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
)

// memAccounts is an in-memory UserStore shared by the handler tests.
type memAccounts struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newMemAccounts() *memAccounts {
	return &memAccounts{users: make(map[string]models.User)}
}

func (s *memAccounts) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *memAccounts) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *memAccounts) FindByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *memAccounts) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *memAccounts) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.PasswordHash = passwordHash
	s.users[userID] = user
	return nil
}

// credentialView adapts memAccounts to auth.CredentialStore, translating the
// not-found sentinel the way the real credential store does.
type credentialView struct {
	accounts *memAccounts
}

func (v credentialView) FindByID(ctx context.Context, id string) (models.User, error) {
	user, err := v.accounts.FindByID(ctx, id)
	if err != nil {
		return models.User{}, auth.ErrIdentityNotFound
	}
	return user, nil
}

func (v credentialView) SetRefreshToken(_ context.Context, userID, token string) error {
	v.accounts.mu.Lock()
	defer v.accounts.mu.Unlock()
	user, ok := v.accounts.users[userID]
	if !ok {
		return auth.ErrIdentityNotFound
	}
	user.RefreshToken = token
	v.accounts.users[userID] = user
	return nil
}

func (v credentialView) SwapRefreshToken(_ context.Context, userID, current, next string) error {
	v.accounts.mu.Lock()
	defer v.accounts.mu.Unlock()
	user, ok := v.accounts.users[userID]
	if !ok || user.RefreshToken != current {
		return auth.ErrTokenMismatch
	}
	user.RefreshToken = next
	v.accounts.users[userID] = user
	return nil
}

func (v credentialView) ClearRefreshToken(_ context.Context, userID string) error {
	v.accounts.mu.Lock()
	defer v.accounts.mu.Unlock()
	user, ok := v.accounts.users[userID]
	if !ok {
		return auth.ErrIdentityNotFound
	}
	user.RefreshToken = ""
	v.accounts.users[userID] = user
	return nil
}

func newTestSessions(accounts *memAccounts) *auth.Manager {
	codec := auth.NewTokenCodec("access-test-secret", "refresh-test-secret", time.Minute, time.Hour)
	return auth.NewManager(codec, credentialView{accounts: accounts})
}

func testHasher() auth.Hasher {
	return auth.NewHasher(bcrypt.MinCost)
}

// seedUser registers a user directly in the store with the given password.
func seedUser(t *testing.T, accounts *memAccounts, id, username, password string) models.User {
	t.Helper()
	hashed, err := testHasher().Hash(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{
		ID:           id,
		Username:     username,
		Email:        username + "@example.com",
		DisplayName:  username,
		PasswordHash: hashed,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := accounts.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

// loginAs issues a session for the user and returns the pair.
func loginAs(t *testing.T, sessions SessionService, user models.User) models.SessionTokens {
	t.Helper()
	tokens, err := sessions.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	return tokens
}

func withBearer(r *http.Request, token string) *http.Request {
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode response envelope: %v", err)
	}
	return env
}

// denyAllLimiter trips the rate limit guard unconditionally.
type denyAllLimiter struct{}

func (denyAllLimiter) Allow(string) bool { return false }
