package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/cliptube/backend/internal/logging"
	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
)

// ChannelHandler serves channel profiles and subscription management.
type ChannelHandler struct {
	Users         UserStore
	Sessions      SessionService
	Profiles      ProfileViewer
	Subscriptions SubscriptionStore
}

// Profile handles GET /api/v1/channels/{username}. Authentication is
// optional: anonymous viewers get the profile with IsSubscribed false.
func (h ChannelHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Profiles == nil {
		logger.Error("profile viewer unavailable")
		respondFailure(ctx, w, http.StatusInternalServerError, "channel services unavailable")
		return
	}

	username := strings.TrimSpace(r.PathValue("username"))
	if username == "" {
		respondFailure(ctx, w, http.StatusBadRequest, "channel username is required")
		return
	}

	viewerID := ""
	if claims, ok := maybeAuthenticate(h.Sessions, r); ok {
		viewerID = claims.Subject
	}

	profile, err := h.Profiles.ChannelProfile(ctx, username, viewerID)
	if err != nil {
		logger.Warn("channel profile lookup failed", "username", username, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, "channel profile", profile)
}

// Subscribe handles POST /api/v1/channels/{username}/subscribe.
func (h ChannelHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	channel, viewerID, ok := h.resolveSubscription(w, r)
	if !ok {
		return
	}

	if channel.ID == viewerID {
		respondFailure(ctx, w, http.StatusBadRequest, "you cannot subscribe to your own channel")
		return
	}

	sub := models.Subscription{
		ID:           uuid.NewString(),
		ChannelID:    channel.ID,
		SubscriberID: viewerID,
	}
	if err := h.Subscriptions.Create(ctx, sub); err != nil {
		logger.Warn("subscribe failed", "channelId", channel.ID, "subscriberId", viewerID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusCreated, "subscribed", nil)
}

// Unsubscribe handles DELETE /api/v1/channels/{username}/subscribe.
func (h ChannelHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	channel, viewerID, ok := h.resolveSubscription(w, r)
	if !ok {
		return
	}

	if err := h.Subscriptions.Delete(ctx, channel.ID, viewerID); err != nil {
		logger.Warn("unsubscribe failed", "channelId", channel.ID, "subscriberId", viewerID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, "unsubscribed", nil)
}

// resolveSubscription authenticates the caller and resolves the target
// channel. It writes the failure response itself when either step fails.
func (h ChannelHandler) resolveSubscription(w http.ResponseWriter, r *http.Request) (models.User, string, bool) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Sessions == nil || h.Subscriptions == nil {
		logger.Error("subscription dependencies unavailable")
		respondFailure(ctx, w, http.StatusInternalServerError, "channel services unavailable")
		return models.User{}, "", false
	}

	claims, err := authenticate(h.Sessions, r)
	if err != nil {
		respondError(ctx, w, err)
		return models.User{}, "", false
	}

	username := strings.TrimSpace(r.PathValue("username"))
	if username == "" {
		respondFailure(ctx, w, http.StatusBadRequest, "channel username is required")
		return models.User{}, "", false
	}

	channel, err := h.Users.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			logger.Warn("channel lookup failed", "username", username, "error", err)
		}
		respondError(ctx, w, err)
		return models.User{}, "", false
	}

	return channel, claims.Subject, true
}
