package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/certquest/arena-backend/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type recorder struct {
	mu      sync.Mutex
	results []model.Result
	done    chan struct{}
}

func newRecorder() *recorder { return &recorder{done: make(chan struct{}, 8)} }

func (r *recorder) onFinish(_ context.Context, res model.Result) {
	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for OnFinish")
	}
}

func newTestManager(tick time.Duration, rec *recorder) *Manager {
	return NewManager(ManagerOptions{
		TickInterval: tick,
		Retention:    time.Hour,
		OnFinish:     rec.onFinish,
	}, zerolog.New(io.Discard))
}

func TestManagerStartWithoutQuestions(t *testing.T) {
	m := newTestManager(time.Hour, newRecorder())
	defer m.Shutdown()

	exam, _ := fixture(10)
	if _, err := m.Start(exam, nil, nil); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("err = %v, want ErrNoQuestions", err)
	}
	if m.Len() != 0 {
		t.Error("failed start must not register a session")
	}
}

func TestManagerManualFinishDeliversOnce(t *testing.T) {
	rec := newRecorder()
	m := newTestManager(time.Hour, rec)
	defer m.Shutdown()

	exam, qs := fixture(10)
	userID := uuid.New()
	s, err := m.Start(exam, qs, &userID)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.Apply(s.ID(), func(s *Session) error {
		return s.Select(qs[0].ID.String(), opt(qs[0], 1))
	}); err != nil {
		t.Fatal(err)
	}

	snap, err := m.Finish(s.ID())
	if err != nil {
		t.Fatal(err)
	}
	if snap.State != StateFinished || snap.Finish == nil || snap.Finish.Reason != FinishManual {
		t.Errorf("snapshot = %+v", snap)
	}
	rec.wait(t)

	if _, err := m.Finish(s.ID()); !errors.Is(err, ErrNotInProgress) {
		t.Errorf("second finish err = %v", err)
	}
	if rec.count() != 1 {
		t.Fatalf("OnFinish called %d times, want 1", rec.count())
	}
	res := rec.results[0]
	if res.ID != s.ID() || res.UserID == nil || *res.UserID != userID || res.CorrectAnswers != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestManagerTimeoutFinishes(t *testing.T) {
	rec := newRecorder()
	m := newTestManager(time.Millisecond, rec)
	defer m.Shutdown()

	exam, qs := fixture(1)
	s, err := m.Start(exam, qs, nil)
	if err != nil {
		t.Fatal(err)
	}
	rec.wait(t)

	if s.State() != StateFinished {
		t.Fatalf("state = %s, want finished", s.State())
	}
	res := rec.results[0]
	if res.TimeSpentSeconds != 60 || res.Score != 0 || res.Passed {
		t.Errorf("timeout result = %+v", res)
	}

	// The timer goroutine is gone; nothing else may be delivered.
	time.Sleep(20 * time.Millisecond)
	if rec.count() != 1 {
		t.Errorf("OnFinish called %d times, want 1", rec.count())
	}
}

func TestManagerAbandon(t *testing.T) {
	rec := newRecorder()
	m := newTestManager(time.Hour, rec)
	defer m.Shutdown()

	exam, qs := fixture(10)
	s, _ := m.Start(exam, qs, nil)
	ch, cancel, err := m.Subscribe(s.ID())
	if err != nil {
		t.Fatal(err)
	}
	defer cancel()

	if err := m.Abandon(s.ID()); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Get(s.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("abandoned session still tracked: %v", err)
	}

	var last Snapshot
	for snap := range ch {
		last = snap
	}
	if last.State != StateAbandoned {
		t.Errorf("last streamed state = %s, want abandoned", last.State)
	}
	if rec.count() != 0 {
		t.Error("abandoned session must not be persisted")
	}
}

func TestManagerSubscribeStreamsUpdates(t *testing.T) {
	m := newTestManager(time.Hour, newRecorder())
	defer m.Shutdown()

	exam, qs := fixture(10)
	s, _ := m.Start(exam, qs, nil)
	ch, cancel, err := m.Subscribe(s.ID())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.Apply(s.ID(), func(s *Session) error { return s.Navigate(1) }); err != nil {
		t.Fatal(err)
	}
	select {
	case snap := <-ch:
		if snap.CurrentIndex != 1 {
			t.Errorf("streamed index = %d, want 1", snap.CurrentIndex)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot streamed")
	}

	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after cancel")
	}
}

func TestManagerSlowSubscriberGetsFinalSnapshot(t *testing.T) {
	m := newTestManager(time.Hour, newRecorder())
	defer m.Shutdown()

	exam, qs := fixture(10)
	s, _ := m.Start(exam, qs, nil)
	ch, cancel, err := m.Subscribe(s.ID())
	if err != nil {
		t.Fatal(err)
	}
	defer cancel()

	// Fill the subscriber buffer without reading from it.
	for i := 0; i < 6; i++ {
		delta := 1
		if i%2 == 1 {
			delta = -1
		}
		if _, err := m.Apply(s.ID(), func(s *Session) error { return s.Navigate(delta) }); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := m.Finish(s.ID()); err != nil {
		t.Fatal(err)
	}

	var last Snapshot
	received := 0
	timeout := time.After(time.Second)
	for done := false; !done; {
		select {
		case snap, ok := <-ch:
			if !ok {
				done = true
				break
			}
			last = snap
			received++
		case <-timeout:
			t.Fatal("channel not closed after finish")
		}
	}
	if received == 0 || last.State != StateFinished {
		t.Errorf("last of %d snapshots has state %q, want %q", received, last.State, StateFinished)
	}
}

func TestManagerUnknownSession(t *testing.T) {
	m := newTestManager(time.Hour, newRecorder())
	defer m.Shutdown()

	id := uuid.New()
	if _, err := m.Get(id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get err = %v", err)
	}
	if _, _, err := m.Subscribe(id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Subscribe err = %v", err)
	}
	if err := m.Abandon(id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Abandon err = %v", err)
	}
}
