package handlers

import (
	"net/http"

	"github.com/cliptube/backend/internal/logging"
)

// HistoryHandler serves the authenticated user's watch history read model.
type HistoryHandler struct {
	Sessions SessionService
	History  HistoryViewer
}

// List handles GET /api/v1/users/watch-history.
func (h HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil || h.History == nil {
		logger.Error("history dependencies unavailable", "hasSessions", h.Sessions != nil, "hasHistory", h.History != nil)
		respondFailure(ctx, w, http.StatusInternalServerError, "history services unavailable")
		return
	}

	claims, err := authenticate(h.Sessions, r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	watched, err := h.History.WatchHistory(ctx, claims.Subject)
	if err != nil {
		logger.Error("watch history assembly failed", "error", err, "userId", claims.Subject)
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, "watch history", watched)
}
