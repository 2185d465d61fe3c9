package auth

import (
	"context"
	"errors"

	"github.com/cliptube/backend/internal/models"
)

// CredentialStore persists identities together with their single current
// refresh token. SwapRefreshToken must be atomic: the update applies only if
// the stored token still equals current, and returns ErrTokenMismatch
// otherwise.
type CredentialStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	SetRefreshToken(ctx context.Context, userID, token string) error
	SwapRefreshToken(ctx context.Context, userID, current, next string) error
	ClearRefreshToken(ctx context.Context, userID string) error
}

// Manager manages the lifecycle of issued session tokens backed by the
// credential store. A user has at most one live refresh token: issuing a new
// pair invalidates whatever was stored before.
type Manager struct {
	codec *TokenCodec
	store CredentialStore
}

// NewManager constructs a Manager issuing tokens through the provided codec.
func NewManager(codec *TokenCodec, store CredentialStore) *Manager {
	if codec == nil {
		panic("auth: token codec must not be nil")
	}
	if store == nil {
		panic("auth: credential store must not be nil")
	}
	return &Manager{codec: codec, store: store}
}

// Issue creates a new access/refresh pair for the user and records the
// refresh token on the identity. The pair is only returned once the store has
// acknowledged the write; a token the caller holds is always a token the
// store knows about.
func (m *Manager) Issue(ctx context.Context, user models.User) (models.SessionTokens, error) {
	if user.ID == "" {
		return models.SessionTokens{}, errors.New("user id must be provided")
	}

	accessToken, accessExpires, err := m.codec.SignAccess(user)
	if err != nil {
		return models.SessionTokens{}, err
	}

	refreshToken, refreshExpires, err := m.codec.SignRefresh(user.ID)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if err := m.store.SetRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return models.SessionTokens{}, err
	}

	return models.SessionTokens{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpires,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpires,
	}, nil
}

// ValidateAccess verifies an access token and returns its claims.
func (m *Manager) ValidateAccess(token string) (AccessClaims, error) {
	return m.codec.VerifyAccess(token)
}

// Rotate exchanges a refresh token for a new pair. The presented token must
// both verify and equal the token currently stored for the identity; a stale
// token that was already rotated away fails with ErrTokenMismatch. The swap
// is compare-and-set, so of two concurrent rotations presenting the same
// token at most one succeeds.
func (m *Manager) Rotate(ctx context.Context, presented string) (models.SessionTokens, error) {
	userID, err := m.codec.VerifyRefresh(presented)
	if err != nil {
		return models.SessionTokens{}, err
	}

	user, err := m.store.FindByID(ctx, userID)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if user.RefreshToken == "" || user.RefreshToken != presented {
		return models.SessionTokens{}, ErrTokenMismatch
	}

	accessToken, accessExpires, err := m.codec.SignAccess(user)
	if err != nil {
		return models.SessionTokens{}, err
	}

	refreshToken, refreshExpires, err := m.codec.SignRefresh(user.ID)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if err := m.store.SwapRefreshToken(ctx, user.ID, presented, refreshToken); err != nil {
		return models.SessionTokens{}, err
	}

	return models.SessionTokens{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpires,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpires,
	}, nil
}

// Revoke clears the stored refresh token for the identity. Rotation attempts
// fail until the next login.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.New("user id must be provided")
	}
	return m.store.ClearRefreshToken(ctx, userID)
}
