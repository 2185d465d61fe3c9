package handlers

import (
	"net/http"

	"github.com/cliptube/backend/internal/logging"
)

// UserHandler serves the authenticated user's own account data.
type UserHandler struct {
	Users    UserStore
	Sessions SessionService
}

// Me handles GET /api/v1/users/me.
func (h UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Sessions == nil {
		logger.Error("user dependencies unavailable", "hasUsers", h.Users != nil, "hasSessions", h.Sessions != nil)
		respondFailure(ctx, w, http.StatusInternalServerError, "user services unavailable")
		return
	}

	claims, err := authenticate(h.Sessions, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	user, err := h.Users.FindByID(ctx, claims.Subject)
	if err != nil {
		logger.Error("account lookup failed", "error", err, "userId", claims.Subject)
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, "current user", user.Public())
}
