package models

import "time"

// User represents an account within the ClipTube platform. A user doubles as
// a channel: other users subscribe to it and it owns videos and playlists.
type User struct {
	ID           string
	Username     string
	Email        string
	DisplayName  string
	AvatarURL    string
	PasswordHash string
	// RefreshToken holds the single currently valid refresh token, or the
	// empty string when the user is logged out.
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Public strips credential material from a user record for use in responses
// and request contexts.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		CreatedAt:   u.CreatedAt,
	}
}

// PublicUser is the externally visible projection of a user. It never carries
// the password hash or refresh token.
type PublicUser struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	AvatarURL   string    `json:"avatarUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Video is an uploaded media item owned by a user.
type Video struct {
	ID           string
	OwnerID      string
	Title        string
	Description  string
	MediaURL     string
	ThumbnailURL string
	Duration     float64
	IsPublished  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Playlist is an ordered collection of video references. VideoIDs may point
// at videos that no longer exist; readers must tolerate dangling entries.
type Playlist struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	VideoIDs    []string
	UpdatedAt   time.Time
}

// Subscription is a directed edge: subscriber follows channel.
type Subscription struct {
	ID           string
	ChannelID    string
	SubscriberID string
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// ChannelProfile is the denormalized channel read model.
type ChannelProfile struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	DisplayName     string    `json:"displayName"`
	AvatarURL       string    `json:"avatarUrl"`
	SubscriberCount int       `json:"subscriberCount"`
	SubscribedTo    int       `json:"channelsSubscribedToCount"`
	IsSubscribed    bool      `json:"isSubscribed"`
	CreatedAt       time.Time `json:"createdAt"`
}

// VideoOwner is the minimal owner projection attached to enriched videos.
type VideoOwner struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}

// EnrichedVideo is a video joined with its owner. Owner is nil when the
// owning account no longer exists.
type EnrichedVideo struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	MediaURL     string      `json:"mediaUrl"`
	ThumbnailURL string      `json:"thumbnailUrl"`
	Duration     float64     `json:"duration"`
	IsPublished  bool        `json:"isPublished"`
	CreatedAt    time.Time   `json:"createdAt"`
	Owner        *VideoOwner `json:"owner"`
}

// PlaylistDetail is the denormalized playlist read model. Videos is always
// non-nil; dangling references are dropped while preserving order.
type PlaylistDetail struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"ownerId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	Videos      []EnrichedVideo `json:"videos"`
}
