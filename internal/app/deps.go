package app

import (
	"context"
	"log/slog"

	"github.com/cliptube/backend/internal/auth"
	"github.com/cliptube/backend/internal/config"
	"github.com/cliptube/backend/internal/db"
	"github.com/cliptube/backend/internal/handlers"
	"github.com/cliptube/backend/internal/history"
	"github.com/cliptube/backend/internal/middleware"
	"github.com/cliptube/backend/internal/repositories"
	"github.com/cliptube/backend/internal/storage"
	"github.com/cliptube/backend/internal/views"
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleanup drains the watch recorder so buffered events
// are not lost on shutdown.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, func(context.Context) error, error) {
	users := repositories.NewPostgresUserRepository(pool)
	videos := repositories.NewPostgresVideoRepository(pool)
	playlists := repositories.NewPostgresPlaylistRepository(pool)
	subscriptions := repositories.NewPostgresSubscriptionRepository(pool)
	watchHistory := repositories.NewPostgresWatchHistoryRepository(pool)

	codec := auth.NewTokenCodec(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	sessions := auth.NewManager(codec, repositories.NewPostgresCredentialStore(pool))

	assembler := views.NewAssembler(users, subscriptions, videos, playlists, watchHistory)
	profiles := views.NewCachingProfileSource(assembler, cfg.ProfileCacheTTL)

	var assets handlers.AssetStorage
	if cfg.ObjectStore.Bucket != "" {
		s3, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return handlers.Dependencies{}, nil, err
		}
		assets = s3
	}

	recorder := history.NewRecorder(watchHistory, history.RecorderConfig{
		QueueSize: cfg.HistoryQueueSize,
		Workers:   cfg.HistoryWorkers,
	}, logger)

	limiter := middleware.NewIPRateLimiter(
		cfg.AuthRateLimit.Requests,
		cfg.AuthRateLimit.Window,
		cfg.AuthRateLimit.Burst,
		cfg.AuthRateLimit.TTL,
	)

	deps := handlers.Dependencies{
		Users:           users,
		Sessions:        sessions,
		Hasher:          auth.NewHasher(cfg.BcryptCost),
		Videos:          videos,
		Playlists:       playlists,
		Subscriptions:   subscriptions,
		Profiles:        profiles,
		History:         assembler,
		PlaylistDetails: assembler,
		Recorder:        recorder,
		Storage:         assets,
		AuthLimiter:     limiter,
	}

	cleanup := func(ctx context.Context) error {
		return recorder.Shutdown(ctx)
	}

	return deps, cleanup, nil
}
