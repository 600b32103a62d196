package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/certquest/arena-backend/internal/config"
	"github.com/certquest/arena-backend/internal/model"
	"github.com/certquest/arena-backend/internal/repository"
	"github.com/certquest/arena-backend/internal/session"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var ErrSessionForbidden = errors.New("session belongs to another user")

// SessionService starts timed attempts and hands finished ones to the result
// queue. The session engine itself lives in package session.
type SessionService struct {
	exams      *ExamService
	resultRepo *repository.ResultRepository
	rdb        *redis.Client
	manager    *session.Manager
	log        zerolog.Logger
}

// NewSessionService creates a SessionService and its session manager.
// opts.OnFinish is replaced by the service's persistence hook.
func NewSessionService(
	exams *ExamService,
	resultRepo *repository.ResultRepository,
	rdb *redis.Client,
	opts session.ManagerOptions,
	log zerolog.Logger,
) *SessionService {
	s := &SessionService{
		exams:      exams,
		resultRepo: resultRepo,
		rdb:        rdb,
		log:        log.With().Str("component", "session_service").Logger(),
	}
	opts.OnFinish = s.enqueueResult
	s.manager = session.NewManager(opts, log)
	return s
}

// Start loads the exam and its questions and begins a timed attempt.
func (s *SessionService) Start(ctx context.Context, examID uuid.UUID, language string, userID *uuid.UUID) (session.Snapshot, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return session.Snapshot{}, err
	}
	if !exam.Active {
		return session.Snapshot{}, ErrExamNotAvailable
	}

	language = AttemptLanguage(language, exam)
	questions, err := s.exams.Questions(ctx, examID, language)
	if err != nil {
		return session.Snapshot{}, err
	}
	questions = inLanguage(questions, language)

	sess, err := s.manager.Start(*exam, questions, userID)
	if err != nil {
		return session.Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

// Get returns the current state of a session.
func (s *SessionService) Get(id uuid.UUID, caller *uuid.UUID) (session.Snapshot, error) {
	sess, err := s.owned(id, caller)
	if err != nil {
		return session.Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

// Answer selects (or toggles) an option of a question.
func (s *SessionService) Answer(id uuid.UUID, caller *uuid.UUID, questionID, optionID string) (session.Snapshot, error) {
	return s.apply(id, caller, func(sess *session.Session) error {
		return sess.Select(questionID, optionID)
	})
}

// Navigate moves by delta, or jumps to index when index is set.
func (s *SessionService) Navigate(id uuid.UUID, caller *uuid.UUID, delta int, index *int) (session.Snapshot, error) {
	return s.apply(id, caller, func(sess *session.Session) error {
		if index != nil {
			return sess.GoTo(*index)
		}
		return sess.Navigate(delta)
	})
}

// Key applies a keyboard shortcut.
func (s *SessionService) Key(id uuid.UUID, caller *uuid.UUID, key string) (session.Snapshot, error) {
	return s.apply(id, caller, func(sess *session.Session) error {
		return sess.HandleKey(key, nowFunc())
	})
}

// Finish ends the attempt and returns the graded snapshot.
func (s *SessionService) Finish(id uuid.UUID, caller *uuid.UUID) (session.Snapshot, error) {
	if _, err := s.owned(id, caller); err != nil {
		return session.Snapshot{}, err
	}
	return s.manager.Finish(id)
}

// Abandon drops the attempt without storing a result.
func (s *SessionService) Abandon(id uuid.UUID, caller *uuid.UUID) error {
	if _, err := s.owned(id, caller); err != nil {
		return err
	}
	return s.manager.Abandon(id)
}

// Subscribe streams the session's snapshots until it ends.
func (s *SessionService) Subscribe(id uuid.UUID, caller *uuid.UUID) (<-chan session.Snapshot, func(), error) {
	if _, err := s.owned(id, caller); err != nil {
		return nil, nil, err
	}
	return s.manager.Subscribe(id)
}

// Active returns the number of tracked sessions.
func (s *SessionService) Active() int {
	return s.manager.Len()
}

// Shutdown stops every session timer.
func (s *SessionService) Shutdown() {
	s.manager.Shutdown()
}

func (s *SessionService) apply(id uuid.UUID, caller *uuid.UUID, fn func(*session.Session) error) (session.Snapshot, error) {
	if _, err := s.owned(id, caller); err != nil {
		return session.Snapshot{}, err
	}
	return s.manager.Apply(id, fn)
}

func (s *SessionService) owned(id uuid.UUID, caller *uuid.UUID) (*session.Session, error) {
	sess, err := s.manager.Get(id)
	if err != nil {
		return nil, err
	}
	if owner := sess.UserID(); owner != nil && (caller == nil || *caller != *owner) {
		return nil, ErrSessionForbidden
	}
	return sess, nil
}

// enqueueResult hands a finished attempt to the ResultWorker. If Redis is
// unreachable the result is written directly.
func (s *SessionService) enqueueResult(ctx context.Context, result model.Result) {
	raw, err := json.Marshal(result)
	if err != nil {
		s.log.Error().Err(err).Str("session_id", result.ID.String()).Msg("Failed to encode result")
		return
	}

	err = s.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw).Err()
	if err == nil {
		return
	}
	s.log.Warn().Err(err).Str("session_id", result.ID.String()).Msg("Result queue unavailable, writing directly")

	if _, err := s.resultRepo.Create(ctx, &result); err != nil {
		s.log.Error().Err(fmt.Errorf("persist result: %w", err)).
			Str("session_id", result.ID.String()).
			Msg("Result could not be stored")
	}
}
