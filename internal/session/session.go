// Package session drives timed exam attempts in memory. A Session owns the
// answer map, the current question index and the countdown; the Manager owns
// the sessions and runs their timers.
package session

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/certquest/arena-backend/internal/model"
	"github.com/certquest/arena-backend/internal/scoring"
	"github.com/google/uuid"
)

var (
	ErrNoQuestions     = errors.New("exam has no questions")
	ErrNotInProgress   = errors.New("session is not in progress")
	ErrUnknownQuestion = errors.New("question does not belong to this exam")
	ErrUnknownOption   = errors.New("option does not belong to this question")
	ErrIndexOutOfRange = errors.New("question index out of range")
	ErrUnknownKey      = errors.New("unknown shortcut key")
	ErrSessionNotFound = errors.New("session not found")
)

// State is the lifecycle position of a session. Loading moves to InProgress
// once, and InProgress moves to Finished or Abandoned once. There is no way back.
type State string

const (
	StateLoading    State = "loading"
	StateInProgress State = "in_progress"
	StateFinished   State = "finished"
	StateAbandoned  State = "abandoned"
)

type FinishReason string

const (
	FinishManual  FinishReason = "manual"
	FinishTimeout FinishReason = "timeout"
)

// Session is one attempt at one exam. All methods are safe for concurrent use;
// timer ticks and taker input touch disjoint state but share one lock.
type Session struct {
	mu sync.Mutex

	id        uuid.UUID
	exam      model.Exam
	questions []model.Question
	userID    *uuid.UUID
	startedAt time.Time

	state       State
	index       int
	answers     model.AnswerMap
	remaining   int
	helpVisible bool

	reason      FinishReason
	outcome     *scoring.Outcome
	completedAt time.Time
}

// New creates a session in the Loading state.
func New(id uuid.UUID, exam model.Exam, questions []model.Question, userID *uuid.UUID) *Session {
	return &Session{
		id:        id,
		exam:      exam,
		questions: questions,
		userID:    userID,
		state:     StateLoading,
		answers:   make(model.AnswerMap),
	}
}

// Start moves the session to InProgress with a full timer at the first question.
func (s *Session) Start(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLoading {
		return ErrNotInProgress
	}
	if len(s.questions) == 0 {
		return ErrNoQuestions
	}
	s.state = StateInProgress
	s.index = 0
	s.remaining = s.exam.DurationMinutes * 60
	s.startedAt = now
	return nil
}

func (s *Session) ID() uuid.UUID { return s.id }

func (s *Session) ExamID() uuid.UUID { return s.exam.ID }

// UserID is the taker's account, or nil for an anonymous attempt.
func (s *Session) UserID() *uuid.UUID { return s.userID }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Select records optionID for questionID. Single-choice questions keep only
// the latest option; multiple-choice questions toggle the option in the set.
func (s *Session) Select(questionID, optionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return ErrNotInProgress
	}
	q := s.findQuestion(questionID)
	if q == nil {
		return ErrUnknownQuestion
	}
	if !q.HasOption(optionID) {
		return ErrUnknownOption
	}
	s.applySelection(q, optionID)
	return nil
}

func (s *Session) applySelection(q *model.Question, optionID string) {
	qid := q.ID.String()
	if q.Type != model.QuestionTypeMultipleChoice {
		s.answers[qid] = model.SingleAnswer(optionID)
		return
	}

	prev := s.answers[qid]
	next := make([]string, 0, len(prev.Selected)+1)
	removed := false
	for _, id := range prev.Selected {
		if id == optionID {
			removed = true
			continue
		}
		next = append(next, id)
	}
	if !removed {
		next = append(next, optionID)
	}
	if len(next) == 0 {
		delete(s.answers, qid)
		return
	}
	s.answers[qid] = model.MultiAnswer(next...)
}

// SelectNth selects the n-th (1-based) option of the current question.
func (s *Session) SelectNth(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return ErrNotInProgress
	}
	q := &s.questions[s.index]
	if n < 1 || n > len(q.Options) {
		return ErrUnknownOption
	}
	s.applySelection(q, q.Options[n-1].ID.String())
	return nil
}

// Navigate moves the current index by delta, clamped to the question range.
func (s *Session) Navigate(delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return ErrNotInProgress
	}
	i := s.index + delta
	if i < 0 {
		i = 0
	}
	if i >= len(s.questions) {
		i = len(s.questions) - 1
	}
	s.index = i
	return nil
}

// GoTo jumps to the question at index i (0-based).
func (s *Session) GoTo(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return ErrNotInProgress
	}
	if i < 0 || i >= len(s.questions) {
		return ErrIndexOutOfRange
	}
	s.index = i
	return nil
}

// ToggleHelp shows or hides the shortcut help panel.
func (s *Session) ToggleHelp() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return ErrNotInProgress
	}
	s.helpVisible = !s.helpVisible
	return nil
}

// HandleKey applies a keyboard shortcut:
//
//	1-9                    select the n-th option of the current question
//	ArrowLeft, ArrowUp, p  previous question
//	ArrowRight, ArrowDown, n  next question
//	Ctrl+Enter             finish now
//	h                      toggle the help panel
func (s *Session) HandleKey(key string, now time.Time) error {
	switch key {
	case "ArrowLeft", "ArrowUp", "p", "P":
		return s.Navigate(-1)
	case "ArrowRight", "ArrowDown", "n", "N":
		return s.Navigate(1)
	case "Ctrl+Enter", "Control+Enter":
		return s.Finish(now)
	case "h", "H":
		return s.ToggleHelp()
	}
	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		n, _ := strconv.Atoi(key)
		return s.SelectNth(n)
	}
	return ErrUnknownKey
}

// Tick advances the countdown by one second. It reports true when this tick
// ran the timer out and finished the session.
func (s *Session) Tick(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return false
	}
	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining == 0 {
		s.finishLocked(FinishTimeout, now)
		return true
	}
	return false
}

// Finish ends the session with the answers collected so far.
func (s *Session) Finish(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return ErrNotInProgress
	}
	s.finishLocked(FinishManual, now)
	return nil
}

func (s *Session) finishLocked(reason FinishReason, now time.Time) {
	out := scoring.Grade(s.questions, s.answers, s.exam.PassingThreshold())
	s.outcome = &out
	s.reason = reason
	s.state = StateFinished
	s.completedAt = now
}

// Abandon discards the attempt. Nothing is persisted for an abandoned session.
func (s *Session) Abandon() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress && s.state != StateLoading {
		return ErrNotInProgress
	}
	s.state = StateAbandoned
	return nil
}

// Result builds the record to persist for a finished session. The result id
// is the session id, so one attempt maps to one row.
func (s *Session) Result() (model.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateFinished || s.outcome == nil {
		return model.Result{}, false
	}
	answers := make(model.AnswerMap, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}
	return model.Result{
		ID:               s.id,
		ExamID:           s.exam.ID,
		UserID:           s.userID,
		Answers:          answers,
		CorrectAnswers:   s.outcome.Correct,
		TotalQuestions:   s.outcome.Total,
		Score:            s.outcome.Score,
		TimeSpentSeconds: scoring.TimeSpent(s.exam.DurationMinutes, s.remaining, s.reason == FinishTimeout),
		Passed:           s.outcome.Passed,
		CompletedAt:      s.completedAt,
	}, true
}

func (s *Session) findQuestion(questionID string) *model.Question {
	for i := range s.questions {
		if s.questions[i].ID.String() == questionID {
			return &s.questions[i]
		}
	}
	return nil
}
