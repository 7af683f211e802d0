package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"phone-console/models"
)

type captureSink struct {
	mu     sync.Mutex
	events []models.ActivityEvent
	err    error
}

func (s *captureSink) PostActivity(ctx context.Context, auth *Auth, event models.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) all() []models.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ActivityEvent(nil), s.events...)
}

func TestLogStampsEnvelope(t *testing.T) {
	sink := &captureSink{}
	logger := NewActivityLogger(sink, 8, nil)

	admin := &models.Admin{Username: "j.doe", CompanyID: "c1"}
	logger.Log(Auth{SessionID: "s1", Token: "t1"}, admin, "create_employee", map[string]any{"email": "a@b.com"})
	logger.Close()

	events := sink.all()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	e := events[0]
	if e.ID == "" {
		t.Errorf("event ID not stamped")
	}
	if e.Timestamp.IsZero() {
		t.Errorf("timestamp not stamped")
	}
	if e.User != "j.doe" || e.CompanyID != "c1" {
		t.Errorf("actor not stamped: %+v", e)
	}
	if e.Details["email"] != "a@b.com" {
		t.Errorf("details not preserved: %+v", e.Details)
	}
}

func TestLogWithoutAdminUsesUnknown(t *testing.T) {
	sink := &captureSink{}
	logger := NewActivityLogger(sink, 8, nil)

	logger.Log(Auth{}, nil, "login_failed", nil)
	logger.Close()

	events := sink.all()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].User != "unknown" {
		t.Fatalf("user = %q, want unknown", events[0].User)
	}
}

func TestLogRejectsEmptyAction(t *testing.T) {
	sink := &captureSink{}
	logger := NewActivityLogger(sink, 8, nil)

	logger.Log(Auth{}, nil, "", map[string]any{"x": 1})
	logger.Close()

	if len(sink.all()) != 0 {
		t.Fatalf("empty action must be dropped")
	}
}

func TestSinkFailureNeverEscapes(t *testing.T) {
	sink := &captureSink{err: errors.New("sink down")}
	logger := NewActivityLogger(sink, 8, nil)

	// Must not panic or block regardless of the sink failing.
	for i := 0; i < 5; i++ {
		logger.Log(Auth{}, &models.Admin{Username: "j.doe"}, "update_employee", nil)
	}
	logger.Close()
}

type blockingSink struct {
	release chan struct{}
}

func (s *blockingSink) PostActivity(ctx context.Context, auth *Auth, event models.ActivityEvent) error {
	select {
	case <-s.release:
	case <-ctx.Done():
	}
	return nil
}

func TestFullBufferDropsAndCounts(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	logger := NewActivityLogger(sink, 1, nil)

	// First event occupies the drainer, second fills the buffer, the rest drop.
	for i := 0; i < 10; i++ {
		logger.Log(Auth{}, nil, "login", nil)
	}

	deadline := time.After(2 * time.Second)
	for logger.Dropped() == 0 {
		select {
		case <-deadline:
			t.Fatalf("expected dropped events, counter still zero")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

	close(sink.release)
	logger.Close()
}

func TestCloseDrainsQueued(t *testing.T) {
	sink := &captureSink{}
	logger := NewActivityLogger(sink, 16, nil)

	for i := 0; i < 10; i++ {
		logger.Log(Auth{}, nil, "login", nil)
	}
	logger.Close()

	if got := len(sink.all()); got+int(logger.Dropped()) != 10 {
		t.Fatalf("delivered %d + dropped %d, want 10 total", got, logger.Dropped())
	}
}
