package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthHandlerRegister(t *testing.T) {
	accounts := newMemAccounts()
	sessions := newTestSessions(accounts)
	handler := AuthHandler{Users: accounts, Sessions: sessions, Hasher: testHasher()}

	body, err := json.Marshal(registerRequest{Username: "NewUser", Email: "new@example.com", Password: "supersafe"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	cookies := rec.Result().Cookies()
	names := map[string]bool{}
	for _, cookie := range cookies {
		names[cookie.Name] = cookie.Value != "" && cookie.HttpOnly
	}
	if !names[accessCookieName] || !names[refreshCookieName] {
		t.Fatalf("expected http-only session cookies, got %v", cookies)
	}

	stored, err := accounts.FindByUsername(context.Background(), "newuser")
	if err != nil {
		t.Fatalf("expected user to be stored under lowercase username: %v", err)
	}
	if stored.PasswordHash == "supersafe" || stored.PasswordHash == "" {
		t.Fatal("stored password is not hashed")
	}
	if !testHasher().Verify("supersafe", stored.PasswordHash) {
		t.Fatal("stored hash does not match the password")
	}
}

func TestAuthHandlerRegisterDuplicate(t *testing.T) {
	accounts := newMemAccounts()
	sessions := newTestSessions(accounts)
	handler := AuthHandler{Users: accounts, Sessions: sessions, Hasher: testHasher()}
	seedUser(t, accounts, "user-1", "taken", "password123")

	body, _ := json.Marshal(registerRequest{Username: "taken", Email: "fresh@example.com", Password: "supersafe"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status %d got %d", http.StatusConflict, rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Success {
		t.Fatal("expected failure envelope")
	}
}

func TestAuthHandlerRegisterValidation(t *testing.T) {
	accounts := newMemAccounts()
	handler := AuthHandler{Users: accounts, Sessions: newTestSessions(accounts), Hasher: testHasher()}

	cases := []struct {
		name string
		req  registerRequest
	}{
		{"missing username", registerRequest{Email: "a@example.com", Password: "supersafe"}},
		{"bad email", registerRequest{Username: "abc", Email: "not-an-email", Password: "supersafe"}},
		{"short password", registerRequest{Username: "abc", Email: "a@example.com", Password: "short"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(tc.req)
			rec := httptest.NewRecorder()
			handler.Register(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(body)))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
			}
		})
	}
}

func TestAuthHandlerLogin(t *testing.T) {
	accounts := newMemAccounts()
	sessions := newTestSessions(accounts)
	handler := AuthHandler{Users: accounts, Sessions: sessions, Hasher: testHasher()}
	user := seedUser(t, accounts, "user-1", "alice", "password123")

	body, _ := json.Marshal(loginRequest{Username: "alice", Password: "password123"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	stored, err := accounts.FindByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if stored.RefreshToken == "" {
		t.Fatal("expected login to persist a refresh token")
	}
}

func TestAuthHandlerLoginUnknownAccount(t *testing.T) {
	accounts := newMemAccounts()
	handler := AuthHandler{Users: accounts, Sessions: newTestSessions(accounts), Hasher: testHasher()}

	body, _ := json.Marshal(loginRequest{Username: "ghost", Password: "password123"})
	rec := httptest.NewRecorder()
	handler.Login(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body)))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d for unknown account got %d", http.StatusNotFound, rec.Code)
	}
}

func TestAuthHandlerLoginWrongPassword(t *testing.T) {
	accounts := newMemAccounts()
	handler := AuthHandler{Users: accounts, Sessions: newTestSessions(accounts), Hasher: testHasher()}
	seedUser(t, accounts, "user-1", "alice", "password123")

	body, _ := json.Marshal(loginRequest{Username: "alice", Password: "wrong-password"})
	rec := httptest.NewRecorder()
	handler.Login(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body)))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d for wrong password got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAuthHandlerLoginRateLimited(t *testing.T) {
	accounts := newMemAccounts()
	handler := AuthHandler{Users: accounts, Sessions: newTestSessions(accounts), Hasher: testHasher(), Limiter: denyAllLimiter{}}

	body, _ := json.Marshal(loginRequest{Username: "alice", Password: "password123"})
	rec := httptest.NewRecorder()
	handler.Login(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body)))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d got %d", http.StatusTooManyRequests, rec.Code)
	}
}

func TestAuthHandlerRefreshRotates(t *testing.T) {
	accounts := newMemAccounts()
	sessions := newTestSessions(accounts)
	handler := AuthHandler{Users: accounts, Sessions: sessions, Hasher: testHasher()}
	user := seedUser(t, accounts, "user-1", "alice", "password123")
	tokens := loginAs(t, sessions, user)

	body, _ := json.Marshal(refreshRequest{RefreshToken: tokens.RefreshToken})
	rec := httptest.NewRecorder()
	handler.Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	// The presented token was consumed; replaying it must fail.
	body, _ = json.Marshal(refreshRequest{RefreshToken: tokens.RefreshToken})
	rec = httptest.NewRecorder()
	handler.Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewReader(body)))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d replaying rotated token got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAuthHandlerRefreshFromCookie(t *testing.T) {
	accounts := newMemAccounts()
	sessions := newTestSessions(accounts)
	handler := AuthHandler{Users: accounts, Sessions: sessions, Hasher: testHasher()}
	user := seedUser(t, accounts, "user-1", "alice", "password123")
	tokens := loginAs(t, sessions, user)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: tokens.RefreshToken})
	rec := httptest.NewRecorder()

	handler.Refresh(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
}

func TestAuthHandlerRefreshMissingToken(t *testing.T) {
	accounts := newMemAccounts()
	handler := AuthHandler{Users: accounts, Sessions: newTestSessions(accounts), Hasher: testHasher()}

	rec := httptest.NewRecorder()
	handler.Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAuthHandlerLogoutRevokes(t *testing.T) {
	accounts := newMemAccounts()
	sessions := newTestSessions(accounts)
	handler := AuthHandler{Users: accounts, Sessions: sessions, Hasher: testHasher()}
	user := seedUser(t, accounts, "user-1", "alice", "password123")
	tokens := loginAs(t, sessions, user)

	req := withBearer(httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil), tokens.AccessToken)
	rec := httptest.NewRecorder()
	handler.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	// The stored refresh token is gone, so rotation fails until next login.
	body, _ := json.Marshal(refreshRequest{RefreshToken: tokens.RefreshToken})
	rec = httptest.NewRecorder()
	handler.Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewReader(body)))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d after logout got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAuthHandlerChangePassword(t *testing.T) {
	accounts := newMemAccounts()
	sessions := newTestSessions(accounts)
	handler := AuthHandler{Users: accounts, Sessions: sessions, Hasher: testHasher()}
	user := seedUser(t, accounts, "user-1", "alice", "password123")
	tokens := loginAs(t, sessions, user)

	body, _ := json.Marshal(changePasswordRequest{OldPassword: "wrong", NewPassword: "freshpassword"})
	rec := httptest.NewRecorder()
	handler.ChangePassword(rec, withBearer(httptest.NewRequest(http.MethodPost, "/api/v1/auth/change-password", bytes.NewReader(body)), tokens.AccessToken))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d for wrong old password got %d", http.StatusBadRequest, rec.Code)
	}

	body, _ = json.Marshal(changePasswordRequest{OldPassword: "password123", NewPassword: "freshpassword"})
	rec = httptest.NewRecorder()
	handler.ChangePassword(rec, withBearer(httptest.NewRequest(http.MethodPost, "/api/v1/auth/change-password", bytes.NewReader(body)), tokens.AccessToken))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	stored, err := accounts.FindByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if !testHasher().Verify("freshpassword", stored.PasswordHash) {
		t.Fatal("expected new password to be stored")
	}
}
