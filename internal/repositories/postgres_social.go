package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cliptube/backend/internal/db"
	"github.com/cliptube/backend/internal/history"
	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/views"
)

// PostgresSubscriptionRepository manages the channel/subscriber edge table.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Create records that the subscriber follows the channel. Subscribing twice
// to the same channel returns ErrConflict.
func (r *PostgresSubscriptionRepository) Create(ctx context.Context, sub models.Subscription) error {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO subscriptions (id, channel_id, subscriber_id, created_at)
        VALUES ($1, $2, $3, now())
    `, sub.ID, sub.ChannelID, sub.SubscriberID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert subscription: %w", err)
	}

	return nil
}

// Delete removes the edge between channel and subscriber.
func (r *PostgresSubscriptionRepository) Delete(ctx context.Context, channelID, subscriberID string) error {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM subscriptions
        WHERE channel_id = $1 AND subscriber_id = $2
    `, channelID, subscriberID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// CountSubscribers reports how many users follow the channel.
func (r *PostgresSubscriptionRepository) CountSubscribers(ctx context.Context, channelID string) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM subscriptions WHERE channel_id = $1`, channelID)
}

// CountSubscribedTo reports how many channels the subscriber follows.
func (r *PostgresSubscriptionRepository) CountSubscribedTo(ctx context.Context, subscriberID string) (int, error) {
	return r.count(ctx, `SELECT count(*) FROM subscriptions WHERE subscriber_id = $1`, subscriberID)
}

func (r *PostgresSubscriptionRepository) count(ctx context.Context, query, arg string) (int, error) {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	var total int
	if err := conn.QueryRow(ctx, query, arg).Scan(&total); err != nil {
		return 0, fmt.Errorf("count subscriptions: %w", err)
	}

	return total, nil
}

// IsSubscribed reports whether the edge exists.
func (r *PostgresSubscriptionRepository) IsSubscribed(ctx context.Context, channelID, subscriberID string) (bool, error) {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return false, err
	}
	defer conn.Release()

	var exists bool
	err = conn.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM subscriptions
            WHERE channel_id = $1 AND subscriber_id = $2
        )
    `, channelID, subscriberID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check subscription: %w", err)
	}

	return exists, nil
}

// PostgresWatchHistoryRepository stores watch events per user. A serial
// position column preserves append order across reads.
type PostgresWatchHistoryRepository struct {
	pool db.Pool
}

// NewPostgresWatchHistoryRepository constructs a watch history repository backed by PostgreSQL.
func NewPostgresWatchHistoryRepository(pool db.Pool) *PostgresWatchHistoryRepository {
	return &PostgresWatchHistoryRepository{pool: pool}
}

// Append records that the user watched the video.
func (r *PostgresWatchHistoryRepository) Append(ctx context.Context, userID, videoID string) error {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO watch_history (user_id, video_id, watched_at)
        VALUES ($1, $2, now())
    `, userID, videoID)
	if err != nil {
		return fmt.Errorf("insert watch event: %w", err)
	}

	return nil
}

// List returns the video ids the user watched, oldest first. A user with no
// history gets an empty slice.
func (r *PostgresWatchHistoryRepository) List(ctx context.Context, userID string) ([]string, error) {
	conn, err := acquire(ctx, r.pool)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT video_id FROM watch_history
        WHERE user_id = $1
        ORDER BY position ASC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	videoIDs := []string{}
	for rows.Next() {
		var videoID string
		if err := rows.Scan(&videoID); err != nil {
			return nil, fmt.Errorf("scan watch event: %w", err)
		}
		videoIDs = append(videoIDs, videoID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}

	return videoIDs, nil
}

var _ SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)
var _ WatchHistoryRepository = (*PostgresWatchHistoryRepository)(nil)
var _ views.SubscriptionIndex = (*PostgresSubscriptionRepository)(nil)
var _ views.HistoryLog = (*PostgresWatchHistoryRepository)(nil)
var _ views.IdentityDirectory = (*PostgresUserRepository)(nil)
var _ history.Store = (*PostgresWatchHistoryRepository)(nil)
