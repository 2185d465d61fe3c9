package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cliptube/backend/internal/auth"
	"github.com/cliptube/backend/internal/logging"
	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/views"
)

// PlaylistHandler implements playlist management and the playlist detail
// read model.
type PlaylistHandler struct {
	Playlists PlaylistStore
	Videos    VideoStore
	Sessions  SessionService
	Details   PlaylistViewer
	NowFunc   func() time.Time
}

// Create handles POST /api/v1/playlists.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Playlists == nil || h.Sessions == nil {
		logger.Error("playlist dependencies unavailable", "hasPlaylists", h.Playlists != nil, "hasSessions", h.Sessions != nil)
		respondFailure(ctx, w, http.StatusInternalServerError, "playlist services unavailable")
		return
	}

	claims, err := authenticate(h.Sessions, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req createPlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid playlist payload", "error", err)
		respondFailure(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		respondFailure(ctx, w, http.StatusBadRequest, "title is required")
		return
	}

	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     claims.Subject,
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		VideoIDs:    []string{},
		UpdatedAt:   h.now(),
	}

	if err := h.Playlists.Create(ctx, playlist); err != nil {
		logger.Error("failed to create playlist", "error", err)
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusCreated, "playlist created", playlist)
}

// Detail handles GET /api/v1/playlists/{id}. A malformed id is rejected
// before any lookup; the assembler enforces that only the owner can view.
func (h PlaylistHandler) Detail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil || h.Details == nil {
		logger.Error("playlist detail dependencies unavailable", "hasSessions", h.Sessions != nil, "hasDetails", h.Details != nil)
		respondFailure(ctx, w, http.StatusInternalServerError, "playlist services unavailable")
		return
	}

	claims, err := authenticate(h.Sessions, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	playlistID := r.PathValue("id")
	if uuid.Validate(playlistID) != nil {
		respondFailure(ctx, w, http.StatusBadRequest, "malformed playlist id")
		return
	}

	detail, err := h.Details.PlaylistDetail(ctx, playlistID, claims.Subject)
	if err != nil {
		logger.Warn("playlist detail assembly failed", "playlistId", playlistID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, "playlist detail", detail)
}

// AddVideo handles POST /api/v1/playlists/{id}/videos/{videoId}. The video
// must exist at insertion time; only later deletions leave dangling entries.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	playlist, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	if h.Videos == nil {
		logger.Error("video store unavailable")
		respondFailure(ctx, w, http.StatusInternalServerError, "playlist services unavailable")
		return
	}

	videoID := r.PathValue("videoId")
	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Playlists.AddVideo(ctx, playlist.ID, videoID); err != nil {
		logger.Warn("failed to add playlist video", "playlistId", playlist.ID, "videoId", videoID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, "video added to playlist", nil)
}

// RemoveVideo handles DELETE /api/v1/playlists/{id}/videos/{videoId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	playlist, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	videoID := r.PathValue("videoId")
	if err := h.Playlists.RemoveVideo(ctx, playlist.ID, videoID); err != nil {
		logger.Warn("failed to remove playlist video", "playlistId", playlist.ID, "videoId", videoID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, "video removed from playlist", nil)
}

// Delete handles DELETE /api/v1/playlists/{id}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	playlist, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	if err := h.Playlists.Delete(ctx, playlist.ID); err != nil {
		logger.Error("failed to delete playlist", "error", err, "playlistId", playlist.ID)
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, "playlist deleted", nil)
}

// loadOwned authenticates the caller and loads the target playlist, enforcing
// ownership. It writes the failure response itself when any step fails.
func (h PlaylistHandler) loadOwned(w http.ResponseWriter, r *http.Request) (models.Playlist, bool) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Playlists == nil || h.Sessions == nil {
		logger.Error("playlist dependencies unavailable", "hasPlaylists", h.Playlists != nil, "hasSessions", h.Sessions != nil)
		respondFailure(ctx, w, http.StatusInternalServerError, "playlist services unavailable")
		return models.Playlist{}, false
	}

	claims, err := authenticate(h.Sessions, r)
	if err != nil {
		respondError(ctx, w, err)
		return models.Playlist{}, false
	}

	playlistID := r.PathValue("id")
	if uuid.Validate(playlistID) != nil {
		respondFailure(ctx, w, http.StatusBadRequest, "malformed playlist id")
		return models.Playlist{}, false
	}

	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		respondError(ctx, w, err)
		return models.Playlist{}, false
	}

	if !auth.IsOwner(claims.Subject, playlist.OwnerID) {
		respondError(ctx, w, views.ErrForbidden)
		return models.Playlist{}, false
	}

	return playlist, true
}

type createPlaylistRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (h PlaylistHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
