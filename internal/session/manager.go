package session

import (
	"context"
	"sync"
	"time"

	"github.com/certquest/arena-backend/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultTickInterval = time.Second
	DefaultRetention    = 10 * time.Minute
)

// FinishFunc receives the result of every finished session exactly once,
// whether the taker finished or the timer ran out.
type FinishFunc func(ctx context.Context, result model.Result)

// ManagerOptions tunes a Manager. Zero values take the defaults.
type ManagerOptions struct {
	TickInterval time.Duration
	// Retention is how long a finished session stays readable.
	Retention time.Duration
	OnFinish  FinishFunc
	Now       func() time.Time
}

type entry struct {
	s        *Session
	stop     chan struct{}
	stopOnce sync.Once
	doneOnce sync.Once

	subMu sync.Mutex
	subs  map[chan Snapshot]struct{}
}

func (e *entry) halt() {
	e.stopOnce.Do(func() { close(e.stop) })
}

// Manager owns live sessions keyed by attempt id and runs one countdown
// goroutine per session.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*entry

	tick      time.Duration
	retention time.Duration
	onFinish  FinishFunc
	now       func() time.Time
	log       zerolog.Logger
	wg        sync.WaitGroup
}

// NewManager creates an empty Manager.
func NewManager(opts ManagerOptions, log zerolog.Logger) *Manager {
	m := &Manager{
		sessions:  make(map[uuid.UUID]*entry),
		tick:      opts.TickInterval,
		retention: opts.Retention,
		onFinish:  opts.OnFinish,
		now:       opts.Now,
		log:       log.With().Str("component", "session_manager").Logger(),
	}
	if m.tick <= 0 {
		m.tick = DefaultTickInterval
	}
	if m.retention <= 0 {
		m.retention = DefaultRetention
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Start creates and starts a session for exam. It fails with ErrNoQuestions
// when the question set is empty.
func (m *Manager) Start(exam model.Exam, questions []model.Question, userID *uuid.UUID) (*Session, error) {
	s := New(uuid.New(), exam, questions, userID)
	if err := s.Start(m.now()); err != nil {
		return nil, err
	}

	e := &entry{
		s:    s,
		stop: make(chan struct{}),
		subs: make(map[chan Snapshot]struct{}),
	}

	m.mu.Lock()
	m.sessions[s.ID()] = e
	m.mu.Unlock()

	m.wg.Add(1)
	go m.run(e)

	m.log.Info().
		Str("session_id", s.ID().String()).
		Str("exam_id", exam.ID.String()).
		Int("questions", len(questions)).
		Int("duration_minutes", exam.DurationMinutes).
		Msg("Session started")
	return s, nil
}

func (m *Manager) run(e *entry) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			if e.s.Tick(m.now()) {
				m.complete(e)
				return
			}
			m.publish(e)
		}
	}
}

// Get returns the session with id.
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	e, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return e.s, nil
}

// Apply runs fn against the session, then publishes the new state. When fn
// finished the session (for example Ctrl+Enter) the result is delivered.
func (m *Manager) Apply(id uuid.UUID, fn func(s *Session) error) (Snapshot, error) {
	e, err := m.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	if err := fn(e.s); err != nil {
		return e.s.Snapshot(), err
	}
	if e.s.State() == StateFinished {
		m.complete(e)
	} else {
		m.publish(e)
	}
	return e.s.Snapshot(), nil
}

// Finish ends the session manually.
func (m *Manager) Finish(id uuid.UUID) (Snapshot, error) {
	return m.Apply(id, func(s *Session) error { return s.Finish(m.now()) })
}

// Abandon discards the session without persisting anything.
func (m *Manager) Abandon(id uuid.UUID) error {
	e, err := m.lookup(id)
	if err != nil {
		return err
	}
	if err := e.s.Abandon(); err != nil {
		return err
	}
	e.halt()
	m.publishFinal(e)
	m.remove(id)

	m.log.Info().Str("session_id", id.String()).Msg("Session abandoned")
	return nil
}

// Subscribe streams snapshots of the session. The channel is closed when the
// session ends. Call cancel to stop receiving early.
func (m *Manager) Subscribe(id uuid.UUID) (<-chan Snapshot, func(), error) {
	e, err := m.lookup(id)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan Snapshot, 4)
	e.subMu.Lock()
	if e.subs == nil {
		e.subMu.Unlock()
		close(ch)
		return ch, func() {}, nil
	}
	e.subs[ch] = struct{}{}
	e.subMu.Unlock()

	cancel := func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		if _, ok := e.subs[ch]; ok {
			delete(e.subs, ch)
			close(ch)
		}
	}
	return ch, cancel, nil
}

// Len returns the number of tracked sessions, finished ones included.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Shutdown stops every timer and waits for the timer goroutines to exit.
// Running sessions are dropped, like a taker navigating away.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	entries := make([]*entry, 0, len(m.sessions))
	for _, e := range m.sessions {
		entries = append(entries, e)
	}
	m.mu.Unlock()

	for _, e := range entries {
		e.halt()
		m.closeSubscribers(e)
	}
	m.wg.Wait()
	m.log.Info().Int("sessions", len(entries)).Msg("Session manager stopped")
}

// complete delivers the result of a finished session once and schedules its
// eviction.
func (m *Manager) complete(e *entry) {
	e.doneOnce.Do(func() {
		e.halt()
		m.publishFinal(e)

		result, ok := e.s.Result()
		if ok {
			m.log.Info().
				Str("session_id", result.ID.String()).
				Str("exam_id", result.ExamID.String()).
				Int("correct", result.CorrectAnswers).
				Int("total", result.TotalQuestions).
				Float64("score", result.Score).
				Bool("passed", result.Passed).
				Msg("Session finished")

			if m.onFinish != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				m.onFinish(ctx, result)
				cancel()
			}
		}

		id := e.s.ID()
		time.AfterFunc(m.retention, func() { m.remove(id) })
	})
}

func (m *Manager) publish(e *entry) {
	snap := e.s.Snapshot()
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for ch := range e.subs {
		select {
		case ch <- snap:
		default:
			// Slow reader: drop this snapshot, the next one supersedes it.
		}
	}
}

// publishFinal hands every subscriber the terminal snapshot and closes its
// channel. A full buffer loses its oldest snapshot so the last one always
// fits; the manager is the only sender, so the send never blocks.
func (m *Manager) publishFinal(e *entry) {
	snap := e.s.Snapshot()
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for ch := range e.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
		close(ch)
	}
	e.subs = nil
}

func (m *Manager) closeSubscribers(e *entry) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for ch := range e.subs {
		close(ch)
	}
	e.subs = nil
}

func (m *Manager) lookup(id uuid.UUID) (*entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e, nil
}

func (m *Manager) remove(id uuid.UUID) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}
