package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"net/mail"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cliptube/backend/internal/logging"
	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
)

const maxAvatarBytes = 5 << 20

// AuthHandler implements account registration and the session token lifecycle.
type AuthHandler struct {
	Users    UserStore
	Sessions SessionService
	Hasher   PasswordHasher
	Storage  AssetStorage
	Limiter  RateLimiter
	NowFunc  func() time.Time
}

// Register handles POST /api/v1/auth/register. The request may be JSON or
// multipart form data carrying an optional avatar image.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Sessions == nil || h.Hasher == nil {
		logger.Error("registration dependencies unavailable",
			"hasUsers", h.Users != nil, "hasSessions", h.Sessions != nil, "hasHasher", h.Hasher != nil)
		respondFailure(ctx, w, http.StatusInternalServerError, "registration services unavailable")
		return
	}

	req, avatar, err := decodeRegisterRequest(r)
	if err != nil {
		logger.Warn("invalid registration payload", "error", err)
		respondFailure(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	if avatar != nil {
		defer avatar.file.Close()
	}

	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.DisplayName = strings.TrimSpace(req.DisplayName)

	if req.Username == "" || req.Email == "" || req.Password == "" {
		respondFailure(ctx, w, http.StatusBadRequest, "username, email, and password are required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondFailure(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(req.Password) < 8 {
		respondFailure(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	if req.DisplayName == "" {
		req.DisplayName = req.Username
	}

	hashed, err := h.Hasher.Hash(req.Password)
	if err != nil {
		logger.Error("failed to hash password", "error", err)
		respondFailure(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	avatarURL := ""
	if avatar != nil && h.Storage != nil {
		key := "avatars/" + uuid.NewString() + path.Ext(avatar.filename)
		avatarURL, err = h.Storage.Save(ctx, key, avatar.contentType, avatar.file)
		if err != nil {
			logger.Error("avatar upload failed", "error", err)
			respondError(ctx, w, err)
			return
		}
	}

	now := h.now()
	user := models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		AvatarURL:    avatarURL,
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			logger.Warn("registration conflict", "username", req.Username)
			respondFailure(ctx, w, http.StatusConflict, "an account with that username or email already exists")
			return
		}
		logger.Error("failed to create account", "error", err)
		respondError(ctx, w, err)
		return
	}

	tokens, err := h.Sessions.Issue(ctx, user)
	if err != nil {
		logger.Error("failed to issue session after registration", "error", err, "userId", user.ID)
		respondError(ctx, w, err)
		return
	}

	setSessionCookies(w, tokens.AccessToken, tokens.AccessExpiresAt, tokens.RefreshToken, tokens.RefreshExpiresAt)
	public := user.Public()
	respondData(ctx, w, http.StatusCreated, "account created", sessionResponse{User: &public, Tokens: tokens})
}

// Login handles POST /api/v1/auth/login. An unknown account is a 404 while a
// wrong password for a known account is a 401.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Sessions == nil || h.Hasher == nil {
		logger.Error("login dependencies unavailable",
			"hasUsers", h.Users != nil, "hasSessions", h.Sessions != nil, "hasHasher", h.Hasher != nil)
		respondFailure(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	if !allowRequest(h.Limiter, r, "login") {
		respondFailure(ctx, w, http.StatusTooManyRequests, "too many login attempts, try again later")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondFailure(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if (req.Username == "" && req.Email == "") || req.Password == "" {
		respondFailure(ctx, w, http.StatusBadRequest, "username or email and password are required")
		return
	}

	var (
		user models.User
		err  error
	)
	if req.Username != "" {
		user, err = h.Users.FindByUsername(ctx, req.Username)
	} else {
		user, err = h.Users.FindByEmail(ctx, req.Email)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			logger.Warn("login for unknown account", "username", req.Username, "email", req.Email)
			respondFailure(ctx, w, http.StatusNotFound, "account does not exist")
			return
		}
		logger.Error("login account lookup failed", "error", err)
		respondError(ctx, w, err)
		return
	}

	if !h.Hasher.Verify(req.Password, user.PasswordHash) {
		logger.Warn("login password mismatch", "userId", user.ID)
		respondFailure(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	tokens, err := h.Sessions.Issue(ctx, user)
	if err != nil {
		logger.Error("failed to issue session", "error", err, "userId", user.ID)
		respondError(ctx, w, err)
		return
	}

	setSessionCookies(w, tokens.AccessToken, tokens.AccessExpiresAt, tokens.RefreshToken, tokens.RefreshExpiresAt)
	public := user.Public()
	respondData(ctx, w, http.StatusOK, "logged in", sessionResponse{User: &public, Tokens: tokens})
}

// Refresh handles POST /api/v1/auth/refresh, rotating the refresh token. The
// token is read from the session cookie first, then the request body.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session service unavailable")
		respondFailure(ctx, w, http.StatusInternalServerError, "session service unavailable")
		return
	}

	if !allowRequest(h.Limiter, r, "refresh") {
		respondFailure(ctx, w, http.StatusTooManyRequests, "too many refresh attempts, try again later")
		return
	}

	var req refreshRequest
	if r.Body != nil {
		// The body is optional when the cookie carries the token.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	presented := refreshTokenFrom(r, req.RefreshToken)
	if presented == "" {
		respondFailure(ctx, w, http.StatusUnauthorized, "refresh token is required")
		return
	}

	tokens, err := h.Sessions.Rotate(ctx, presented)
	if err != nil {
		logger.Warn("refresh rotation failed", "error", err)
		respondError(ctx, w, err)
		return
	}

	setSessionCookies(w, tokens.AccessToken, tokens.AccessExpiresAt, tokens.RefreshToken, tokens.RefreshExpiresAt)
	respondData(ctx, w, http.StatusOK, "session refreshed", sessionResponse{Tokens: tokens})
}

// Logout handles POST /api/v1/auth/logout, revoking the stored refresh token
// and clearing session cookies.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session service unavailable")
		respondFailure(ctx, w, http.StatusInternalServerError, "session service unavailable")
		return
	}

	claims, err := authenticate(h.Sessions, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Sessions.Revoke(ctx, claims.Subject); err != nil {
		logger.Error("failed to revoke session", "error", err, "userId", claims.Subject)
		respondError(ctx, w, err)
		return
	}

	clearSessionCookies(w)
	respondData(ctx, w, http.StatusOK, "logged out", nil)
}

// ChangePassword handles POST /api/v1/auth/change-password for the
// authenticated user. A wrong current password is a 400, matching the
// validation failures rather than the authentication ones.
func (h AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Sessions == nil || h.Hasher == nil {
		logger.Error("password change dependencies unavailable")
		respondFailure(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	claims, err := authenticate(h.Sessions, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid change password payload", "error", err)
		respondFailure(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.OldPassword == "" || req.NewPassword == "" {
		respondFailure(ctx, w, http.StatusBadRequest, "old and new passwords are required")
		return
	}
	if len(req.NewPassword) < 8 {
		respondFailure(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	user, err := h.Users.FindByID(ctx, claims.Subject)
	if err != nil {
		logger.Error("password change account lookup failed", "error", err, "userId", claims.Subject)
		respondError(ctx, w, err)
		return
	}

	if !h.Hasher.Verify(req.OldPassword, user.PasswordHash) {
		logger.Warn("password change with wrong old password", "userId", user.ID)
		respondFailure(ctx, w, http.StatusBadRequest, "invalid old password")
		return
	}

	hashed, err := h.Hasher.Hash(req.NewPassword)
	if err != nil {
		logger.Error("failed to hash new password", "error", err)
		respondFailure(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	if err := h.Users.UpdatePassword(ctx, user.ID, hashed); err != nil {
		logger.Error("failed to update password", "error", err, "userId", user.ID)
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, "password changed", nil)
}

type registerRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type sessionResponse struct {
	User   *models.PublicUser   `json:"user,omitempty"`
	Tokens models.SessionTokens `json:"tokens"`
}

type uploadedFile struct {
	file        multipart.File
	filename    string
	contentType string
}

func decodeRegisterRequest(r *http.Request) (registerRequest, *uploadedFile, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return registerRequest{}, nil, err
		}
		return req, nil, nil
	}

	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		return registerRequest{}, nil, err
	}

	req := registerRequest{
		Username:    r.FormValue("username"),
		Email:       r.FormValue("email"),
		Password:    r.FormValue("password"),
		DisplayName: r.FormValue("displayName"),
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return req, nil, nil
		}
		return registerRequest{}, nil, err
	}

	return req, &uploadedFile{
		file:        file,
		filename:    header.Filename,
		contentType: header.Header.Get("Content-Type"),
	}, nil
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
