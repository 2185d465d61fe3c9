package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cliptube/backend/internal/auth"
	"github.com/cliptube/backend/internal/logging"
	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/views"
)

const maxUploadBytes = 512 << 20

// VideoHandler implements video publishing, retrieval, and management.
type VideoHandler struct {
	Videos   VideoStore
	Sessions SessionService
	Storage  AssetStorage
	Recorder WatchRecorder
	NowFunc  func() time.Time
}

// Publish handles POST /api/v1/videos. The multipart body carries the media
// file, an optional thumbnail, and the video metadata fields.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Videos == nil || h.Sessions == nil || h.Storage == nil {
		logger.Error("video publish dependencies unavailable",
			"hasVideos", h.Videos != nil, "hasSessions", h.Sessions != nil, "hasStorage", h.Storage != nil)
		respondFailure(ctx, w, http.StatusInternalServerError, "video services unavailable")
		return
	}

	claims, err := authenticate(h.Sessions, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		logger.Warn("invalid video upload payload", "error", err)
		respondFailure(ctx, w, http.StatusBadRequest, "invalid multipart request body")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		respondFailure(ctx, w, http.StatusBadRequest, "title is required")
		return
	}

	duration := 0.0
	if raw := strings.TrimSpace(r.FormValue("duration")); raw != "" {
		duration, err = strconv.ParseFloat(raw, 64)
		if err != nil || duration < 0 {
			respondFailure(ctx, w, http.StatusBadRequest, "duration must be a non-negative number")
			return
		}
	}

	videoID := uuid.NewString()

	mediaFile, mediaHeader, err := r.FormFile("videoFile")
	if err != nil {
		respondFailure(ctx, w, http.StatusBadRequest, "video file is required")
		return
	}
	defer mediaFile.Close()

	mediaURL, err := h.Storage.Save(ctx, "videos/"+videoID+path.Ext(mediaHeader.Filename), mediaHeader.Header.Get("Content-Type"), mediaFile)
	if err != nil {
		logger.Error("video upload failed", "error", err, "videoId", videoID)
		respondError(ctx, w, err)
		return
	}

	thumbnailURL := ""
	if thumbFile, thumbHeader, err := r.FormFile("thumbnail"); err == nil {
		defer thumbFile.Close()
		thumbnailURL, err = h.Storage.Save(ctx, "thumbnails/"+videoID+path.Ext(thumbHeader.Filename), thumbHeader.Header.Get("Content-Type"), thumbFile)
		if err != nil {
			logger.Error("thumbnail upload failed", "error", err, "videoId", videoID)
			respondError(ctx, w, err)
			return
		}
	} else if !errors.Is(err, http.ErrMissingFile) {
		respondFailure(ctx, w, http.StatusBadRequest, "invalid thumbnail upload")
		return
	}

	now := h.now()
	video := models.Video{
		ID:           videoID,
		OwnerID:      claims.Subject,
		Title:        title,
		Description:  strings.TrimSpace(r.FormValue("description")),
		MediaURL:     mediaURL,
		ThumbnailURL: thumbnailURL,
		Duration:     duration,
		IsPublished:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		logger.Error("failed to persist video", "error", err, "videoId", videoID)
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusCreated, "video published", video)
}

// Get handles GET /api/v1/videos/{id}. An authenticated fetch also schedules
// a watch history entry; the response never waits on that write.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Videos == nil {
		logger.Error("video store unavailable")
		respondFailure(ctx, w, http.StatusInternalServerError, "video services unavailable")
		return
	}

	videoID := r.PathValue("id")
	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if claims, ok := maybeAuthenticate(h.Sessions, r); ok && h.Recorder != nil {
		if err := h.Recorder.Enqueue(ctx, claims.Subject, video.ID); err != nil {
			logger.Warn("failed to schedule watch event", "error", err, "videoId", video.ID)
		}
	}

	respondData(ctx, w, http.StatusOK, "video", video)
}

// Update handles PATCH /api/v1/videos/{id}. Only the owner may edit.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	video, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var req updateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid video update payload", "error", err)
		respondFailure(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			respondFailure(ctx, w, http.StatusBadRequest, "title must not be empty")
			return
		}
		video.Title = title
	}
	if req.Description != nil {
		video.Description = strings.TrimSpace(*req.Description)
	}
	if req.IsPublished != nil {
		video.IsPublished = *req.IsPublished
	}

	if err := h.Videos.Update(ctx, video); err != nil {
		logger.Error("failed to update video", "error", err, "videoId", video.ID)
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, "video updated", video)
}

// Delete handles DELETE /api/v1/videos/{id}. Only the owner may delete.
// Playlist references to the removed video become dangling and are dropped by
// readers.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	video, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	if err := h.Videos.Delete(ctx, video.ID); err != nil {
		logger.Error("failed to delete video", "error", err, "videoId", video.ID)
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, "video deleted", nil)
}

// loadOwned authenticates the caller and loads the target video, enforcing
// ownership. It writes the failure response itself when any step fails.
func (h VideoHandler) loadOwned(w http.ResponseWriter, r *http.Request) (models.Video, bool) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Videos == nil || h.Sessions == nil {
		logger.Error("video dependencies unavailable", "hasVideos", h.Videos != nil, "hasSessions", h.Sessions != nil)
		respondFailure(ctx, w, http.StatusInternalServerError, "video services unavailable")
		return models.Video{}, false
	}

	claims, err := authenticate(h.Sessions, r)
	if err != nil {
		respondError(ctx, w, err)
		return models.Video{}, false
	}

	video, err := h.Videos.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		respondError(ctx, w, err)
		return models.Video{}, false
	}

	if !auth.IsOwner(claims.Subject, video.OwnerID) {
		respondError(ctx, w, views.ErrForbidden)
		return models.Video{}, false
	}

	return video, true
}

type updateVideoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	IsPublished *bool   `json:"isPublished"`
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
