// Package views assembles denormalized read models from normalized entity
// stores. Each read model is built from small join-then-project stages over
// indexed lookups so the stages stay independently testable.
package views

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cliptube/backend/internal/auth"
	"github.com/cliptube/backend/internal/models"
)

// ErrForbidden indicates the viewer is authenticated but not entitled to the
// requested read model.
var ErrForbidden = errors.New("viewer does not own this resource")

// IdentityDirectory resolves identities by unique username and by id batch.
type IdentityDirectory interface {
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
}

// SubscriptionIndex exposes aggregate lookups over the subscription edges.
type SubscriptionIndex interface {
	CountSubscribers(ctx context.Context, channelID string) (int, error)
	CountSubscribedTo(ctx context.Context, subscriberID string) (int, error)
	IsSubscribed(ctx context.Context, channelID, subscriberID string) (bool, error)
}

// VideoCatalog resolves a batch of video ids. Missing ids are simply absent
// from the result map; that is not an error.
type VideoCatalog interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Video, error)
}

// PlaylistCatalog resolves playlists by id.
type PlaylistCatalog interface {
	FindByID(ctx context.Context, id string) (models.Playlist, error)
}

// HistoryLog returns the ordered video-id sequence a user has watched.
type HistoryLog interface {
	List(ctx context.Context, userID string) ([]string, error)
}

// Assembler builds the channel profile, watch history, and playlist detail
// read models.
type Assembler struct {
	identities    IdentityDirectory
	subscriptions SubscriptionIndex
	videos        VideoCatalog
	playlists     PlaylistCatalog
	history       HistoryLog
}

// NewAssembler wires an Assembler over the provided stores.
func NewAssembler(
	identities IdentityDirectory,
	subscriptions SubscriptionIndex,
	videos VideoCatalog,
	playlists PlaylistCatalog,
	history HistoryLog,
) *Assembler {
	return &Assembler{
		identities:    identities,
		subscriptions: subscriptions,
		videos:        videos,
		playlists:     playlists,
		history:       history,
	}
}

// ChannelProfile assembles the public channel view for a username. The
// username match is case-insensitive. viewerID may be empty for anonymous
// viewers, in which case IsSubscribed is always false.
func (a *Assembler) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	user, err := a.identities.FindByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("resolve channel %q: %w", username, err)
	}

	subscribers, err := a.subscriptions.CountSubscribers(ctx, user.ID)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("count subscribers: %w", err)
	}

	subscribedTo, err := a.subscriptions.CountSubscribedTo(ctx, user.ID)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("count subscribed channels: %w", err)
	}

	isSubscribed := false
	if viewerID != "" {
		isSubscribed, err = a.subscriptions.IsSubscribed(ctx, user.ID, viewerID)
		if err != nil {
			return models.ChannelProfile{}, fmt.Errorf("check viewer subscription: %w", err)
		}
	}

	return models.ChannelProfile{
		ID:              user.ID,
		Username:        user.Username,
		DisplayName:     user.DisplayName,
		AvatarURL:       user.AvatarURL,
		SubscriberCount: subscribers,
		SubscribedTo:    subscribedTo,
		IsSubscribed:    isSubscribed,
		CreatedAt:       user.CreatedAt,
	}, nil
}

// WatchHistory resolves the viewer's watch sequence to enriched videos,
// preserving the stored order. Ids whose video no longer exists are dropped
// without disturbing the rest.
func (a *Assembler) WatchHistory(ctx context.Context, viewerID string) ([]models.EnrichedVideo, error) {
	ids, err := a.history.List(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("list watch history: %w", err)
	}
	return a.enrichVideos(ctx, ids)
}

// PlaylistDetail assembles a playlist with its resolved videos. Only the
// owner may view a playlist; the ownership check runs before any videos are
// resolved so a forbidden request never touches (or leaks) playlist content.
func (a *Assembler) PlaylistDetail(ctx context.Context, playlistID, viewerID string) (models.PlaylistDetail, error) {
	playlist, err := a.playlists.FindByID(ctx, playlistID)
	if err != nil {
		return models.PlaylistDetail{}, fmt.Errorf("resolve playlist %q: %w", playlistID, err)
	}

	if !auth.IsOwner(viewerID, playlist.OwnerID) {
		return models.PlaylistDetail{}, ErrForbidden
	}

	videos, err := a.enrichVideos(ctx, playlist.VideoIDs)
	if err != nil {
		return models.PlaylistDetail{}, err
	}

	return models.PlaylistDetail{
		ID:          playlist.ID,
		OwnerID:     playlist.OwnerID,
		Title:       playlist.Title,
		Description: playlist.Description,
		UpdatedAt:   playlist.UpdatedAt,
		Videos:      videos,
	}, nil
}

// enrichVideos is the shared join pipeline: resolve ids to videos in order,
// then attach each video's owner projection. The result is never nil.
func (a *Assembler) enrichVideos(ctx context.Context, ids []string) ([]models.EnrichedVideo, error) {
	resolved := make([]models.Video, 0, len(ids))
	if len(ids) > 0 {
		found, err := a.videos.FindByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("resolve videos: %w", err)
		}
		resolved = resolveInOrder(ids, found)
	}

	owners := map[string]models.User{}
	if ownerIDs := collectOwnerIDs(resolved); len(ownerIDs) > 0 {
		var err error
		owners, err = a.identities.FindByIDs(ctx, ownerIDs)
		if err != nil {
			return nil, fmt.Errorf("resolve video owners: %w", err)
		}
	}

	enriched := make([]models.EnrichedVideo, 0, len(resolved))
	for _, video := range resolved {
		enriched = append(enriched, joinOwner(video, owners))
	}
	return enriched, nil
}

// resolveInOrder walks the requested ids and keeps the videos that still
// exist, in the original order. Dangling references are dropped.
func resolveInOrder(ids []string, found map[string]models.Video) []models.Video {
	videos := make([]models.Video, 0, len(ids))
	for _, id := range ids {
		if video, ok := found[id]; ok {
			videos = append(videos, video)
		}
	}
	return videos
}

// collectOwnerIDs returns the distinct owner ids of the given videos.
func collectOwnerIDs(videos []models.Video) []string {
	seen := make(map[string]struct{}, len(videos))
	ids := make([]string, 0, len(videos))
	for _, video := range videos {
		if video.OwnerID == "" {
			continue
		}
		if _, ok := seen[video.OwnerID]; ok {
			continue
		}
		seen[video.OwnerID] = struct{}{}
		ids = append(ids, video.OwnerID)
	}
	return ids
}

// joinOwner projects a video together with its owner. A missing owner leaves
// the owner field nil; the video itself is kept.
func joinOwner(video models.Video, owners map[string]models.User) models.EnrichedVideo {
	enriched := models.EnrichedVideo{
		ID:           video.ID,
		Title:        video.Title,
		Description:  video.Description,
		MediaURL:     video.MediaURL,
		ThumbnailURL: video.ThumbnailURL,
		Duration:     video.Duration,
		IsPublished:  video.IsPublished,
		CreatedAt:    video.CreatedAt,
	}

	if owner, ok := owners[video.OwnerID]; ok {
		enriched.Owner = &models.VideoOwner{
			ID:          owner.ID,
			Username:    owner.Username,
			DisplayName: owner.DisplayName,
			AvatarURL:   owner.AvatarURL,
		}
	}

	return enriched
}
