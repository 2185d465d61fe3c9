package handlers

import (
	"context"
	"io"

	"github.com/cliptube/backend/internal/auth"
	"github.com/cliptube/backend/internal/models"
)

// UserStore captures the persistence operations required by the account handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// SessionService manages the issued token lifecycle for authenticated users.
type SessionService interface {
	Issue(ctx context.Context, user models.User) (models.SessionTokens, error)
	ValidateAccess(token string) (auth.AccessClaims, error)
	Rotate(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, userID string) error
}

// PasswordHasher hashes and checks login credentials.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// VideoStore captures persistence for uploaded videos.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	Update(ctx context.Context, video models.Video) error
	Delete(ctx context.Context, id string) error
}

// PlaylistStore captures persistence for playlists and their membership.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	AddVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
	Delete(ctx context.Context, id string) error
}

// SubscriptionStore manages channel subscription edges.
type SubscriptionStore interface {
	Create(ctx context.Context, sub models.Subscription) error
	Delete(ctx context.Context, channelID, subscriberID string) error
}

// ProfileViewer produces the channel profile read model.
type ProfileViewer interface {
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
}

// HistoryViewer produces the enriched watch history read model.
type HistoryViewer interface {
	WatchHistory(ctx context.Context, viewerID string) ([]models.EnrichedVideo, error)
}

// PlaylistViewer produces the playlist detail read model.
type PlaylistViewer interface {
	PlaylistDetail(ctx context.Context, playlistID, viewerID string) (models.PlaylistDetail, error)
}

// WatchRecorder schedules asynchronous watch history writes.
type WatchRecorder interface {
	Enqueue(ctx context.Context, userID, videoID string) error
}

// AssetStorage persists uploaded media and returns a public location.
type AssetStorage interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}
