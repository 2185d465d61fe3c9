// Package history records watch events asynchronously so a video fetch never
// blocks on the history write.
package history

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Store appends watch events to a user's history.
type Store interface {
	Append(ctx context.Context, userID, videoID string) error
}

// RecorderConfig controls the concurrency characteristics of the recorder.
// With a single worker (the default) events for a user land in the order they
// were enqueued.
type RecorderConfig struct {
	QueueSize int
	Workers   int
}

// Recorder buffers watch events and persists them through a worker pool.
type Recorder struct {
	store  Store
	logger *slog.Logger

	jobs   chan watchEvent
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

type watchEvent struct {
	userID  string
	videoID string
}

var errRecorderClosed = errors.New("watch recorder closed")

// NewRecorder constructs a background recorder writing through the store.
func NewRecorder(store Store, cfg RecorderConfig, logger *slog.Logger) *Recorder {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	rec := &Recorder{
		store:  store,
		logger: logger,
		jobs:   make(chan watchEvent, cfg.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	rec.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go rec.worker()
	}

	return rec
}

// Enqueue schedules a watch event. It blocks only while the buffer is full
// and fails once the recorder has shut down.
func (r *Recorder) Enqueue(ctx context.Context, userID, videoID string) error {
	if userID == "" || videoID == "" {
		return errors.New("user id and video id must be provided")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.ctx.Done():
		return errRecorderClosed
	default:
	}

	event := watchEvent{userID: userID, videoID: videoID}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.ctx.Done():
		return errRecorderClosed
	case r.jobs <- event:
		return nil
	}
}

// Shutdown waits for the worker pool to drain outstanding events.
func (r *Recorder) Shutdown(ctx context.Context) error {
	r.once.Do(func() {
		r.cancel()
		close(r.jobs)
	})

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for event := range r.jobs {
		r.record(event)
	}
}

func (r *Recorder) record(event watchEvent) {
	if r.store == nil {
		r.logger.Error("watch recorder missing store")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.store.Append(ctx, event.userID, event.videoID); err != nil {
		r.logger.Error("append watch event", "userId", event.userID, "videoId", event.videoID, "error", err)
	}
}
