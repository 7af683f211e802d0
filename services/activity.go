package services

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"phone-console/models"
)

// ActivitySink delivers one audit envelope. *AdminAPI is the production sink
// (POST /api/admin/activity); tests substitute their own.
type ActivitySink interface {
	PostActivity(ctx context.Context, auth *Auth, event models.ActivityEvent) error
}

type queuedActivity struct {
	auth  Auth
	event models.ActivityEvent
}

// ActivityLogger is the best-effort audit emitter. Every create, update,
// delete and failure path calls Log; delivery happens on a single drain
// goroutine and the outcome never reaches the caller. A full buffer drops
// the event rather than blocking the triggering operation.
type ActivityLogger struct {
	sink      ActivitySink
	feed      *FeedHub
	ch        chan queuedActivity
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewActivityLogger starts the drain goroutine. feed may be nil.
func NewActivityLogger(sink ActivitySink, bufferSize int, feed *FeedHub) *ActivityLogger {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	l := &ActivityLogger{
		sink: sink,
		feed: feed,
		ch:   make(chan queuedActivity, bufferSize),
		done: make(chan struct{}),
	}
	l.wg.Add(1)
	go l.run()
	return l
}

// Log queues one audit event. The envelope (id, timestamp, actor, company) is
// stamped here, once, for every call site; details stays an open field.
// Never blocks and never reports failure to the caller.
func (l *ActivityLogger) Log(auth Auth, admin *models.Admin, action string, details map[string]any) {
	if l == nil || l.closed.Load() {
		return
	}
	if action == "" {
		slog.Warn("Activity event without action dropped")
		return
	}

	event := models.ActivityEvent{
		ID:        uuid.NewString(),
		Action:    action,
		Details:   details,
		Timestamp: time.Now().UTC(),
		User:      "unknown",
	}
	if admin != nil {
		event.User = admin.Username
		event.CompanyID = admin.CompanyID
	}

	select {
	case l.ch <- queuedActivity{auth: auth, event: event}:
	case <-l.done:
	default:
		l.dropped.Add(1)
	}
}

func (l *ActivityLogger) run() {
	defer l.wg.Done()

	for {
		select {
		case item := <-l.ch:
			l.emit(item)
		case <-l.done:
			for {
				select {
				case item := <-l.ch:
					l.emit(item)
				default:
					return
				}
			}
		}
	}
}

func (l *ActivityLogger) emit(item queuedActivity) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := l.sink.PostActivity(ctx, &item.auth, item.event); err != nil {
		// Never escalate: the triggering operation already finished.
		slog.Warn("Failed to log activity", "action", item.event.Action, "error", err)
	}

	if l.feed != nil {
		l.feed.Broadcast(item.event)
	}
}

// Close drains queued events and stops the logger.
func (l *ActivityLogger) Close() {
	if l == nil {
		return
	}
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.done)
		l.wg.Wait()
	})
}

// Dropped returns how many events were discarded on a full buffer.
func (l *ActivityLogger) Dropped() uint64 {
	if l == nil {
		return 0
	}
	return l.dropped.Load()
}
