package session

import (
	"time"

	"github.com/certquest/arena-backend/internal/model"
	"github.com/certquest/arena-backend/internal/scoring"
	"github.com/google/uuid"
)

// Snapshot is the read-only view of a session sent to the taker. It never
// contains the answer key while the session is running.
type Snapshot struct {
	ID               uuid.UUID               `json:"id"`
	ExamID           uuid.UUID               `json:"exam_id"`
	ExamTitle        string                  `json:"exam_title"`
	State            State                   `json:"state"`
	CurrentIndex     int                     `json:"current_index"`
	TotalQuestions   int                     `json:"total_questions"`
	Current          *model.QuestionForTaker `json:"current_question,omitempty"`
	Answers          model.AnswerMap         `json:"answers"`
	AnsweredCount    int                     `json:"answered_count"`
	RemainingSeconds int                     `json:"remaining_seconds"`
	HelpVisible      bool                    `json:"help_visible"`
	StartedAt        time.Time               `json:"started_at"`
	Finish           *FinishSummary          `json:"finish,omitempty"`
}

// FinishSummary is attached to the snapshot of a finished session.
type FinishSummary struct {
	Reason           FinishReason           `json:"reason"`
	CorrectAnswers   int                    `json:"correct_answers"`
	TotalQuestions   int                    `json:"total_questions"`
	Score            float64                `json:"score"`
	Passed           bool                   `json:"passed"`
	PassingScore     float64                `json:"passing_score"`
	TimeSpentSeconds int                    `json:"time_spent_seconds"`
	Review           []model.QuestionReview `json:"review"`
}

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	answers := make(model.AnswerMap, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}

	snap := Snapshot{
		ID:               s.id,
		ExamID:           s.exam.ID,
		ExamTitle:        s.exam.Title,
		State:            s.state,
		CurrentIndex:     s.index,
		TotalQuestions:   len(s.questions),
		Answers:          answers,
		AnsweredCount:    len(answers),
		RemainingSeconds: s.remaining,
		HelpVisible:      s.helpVisible,
		StartedAt:        s.startedAt,
	}

	if s.state == StateInProgress && s.index < len(s.questions) {
		q := s.questions[s.index].ForTaker()
		snap.Current = &q
	}

	if s.state == StateFinished && s.outcome != nil {
		snap.Finish = &FinishSummary{
			Reason:           s.reason,
			CorrectAnswers:   s.outcome.Correct,
			TotalQuestions:   s.outcome.Total,
			Score:            s.outcome.Score,
			Passed:           s.outcome.Passed,
			PassingScore:     s.exam.PassingThreshold(),
			TimeSpentSeconds: scoring.TimeSpent(s.exam.DurationMinutes, s.remaining, s.reason == FinishTimeout),
			Review:           s.outcome.Review,
		}
	}
	return snap
}
