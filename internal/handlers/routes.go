package handlers

import "net/http"

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	auth := AuthHandler{
		Users:    deps.Users,
		Sessions: deps.Sessions,
		Hasher:   deps.Hasher,
		Storage:  deps.Storage,
		Limiter:  deps.AuthLimiter,
	}
	users := UserHandler{Users: deps.Users, Sessions: deps.Sessions}
	channels := ChannelHandler{
		Users:         deps.Users,
		Sessions:      deps.Sessions,
		Profiles:      deps.Profiles,
		Subscriptions: deps.Subscriptions,
	}
	history := HistoryHandler{Sessions: deps.Sessions, History: deps.History}
	videos := VideoHandler{
		Videos:   deps.Videos,
		Sessions: deps.Sessions,
		Storage:  deps.Storage,
		Recorder: deps.Recorder,
	}
	playlists := PlaylistHandler{
		Playlists: deps.Playlists,
		Videos:    deps.Videos,
		Sessions:  deps.Sessions,
		Details:   deps.PlaylistDetails,
	}

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /api/v1/auth/register", auth.Register)
	mux.HandleFunc("POST /api/v1/auth/login", auth.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", auth.Refresh)
	mux.HandleFunc("POST /api/v1/auth/logout", auth.Logout)
	mux.HandleFunc("PATCH /api/v1/auth/change-password", auth.ChangePassword)

	mux.HandleFunc("GET /api/v1/users/me", users.Me)
	mux.HandleFunc("GET /api/v1/users/watch-history", history.List)

	mux.HandleFunc("GET /api/v1/channels/{username}", channels.Profile)
	mux.HandleFunc("POST /api/v1/channels/{username}/subscribe", channels.Subscribe)
	mux.HandleFunc("DELETE /api/v1/channels/{username}/subscribe", channels.Unsubscribe)

	mux.HandleFunc("POST /api/v1/videos", videos.Publish)
	mux.HandleFunc("GET /api/v1/videos/{id}", videos.Get)
	mux.HandleFunc("PATCH /api/v1/videos/{id}", videos.Update)
	mux.HandleFunc("DELETE /api/v1/videos/{id}", videos.Delete)

	mux.HandleFunc("POST /api/v1/playlists", playlists.Create)
	mux.HandleFunc("GET /api/v1/playlists/{id}", playlists.Detail)
	mux.HandleFunc("DELETE /api/v1/playlists/{id}", playlists.Delete)
	mux.HandleFunc("POST /api/v1/playlists/{id}/videos/{videoId}", playlists.AddVideo)
	mux.HandleFunc("DELETE /api/v1/playlists/{id}/videos/{videoId}", playlists.RemoveVideo)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users           UserStore
	Sessions        SessionService
	Hasher          PasswordHasher
	Videos          VideoStore
	Playlists       PlaylistStore
	Subscriptions   SubscriptionStore
	Profiles        ProfileViewer
	History         HistoryViewer
	PlaylistDetails PlaylistViewer
	Recorder        WatchRecorder
	Storage         AssetStorage
	AuthLimiter     RateLimiter
}
