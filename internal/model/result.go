package model

import (
	"time"

	"github.com/google/uuid"
)

// Result is the persisted outcome of one finished attempt. It is inserted
// once and never updated.
type Result struct {
	ID               uuid.UUID  `json:"id"`
	ExamID           uuid.UUID  `json:"exam_id"`
	UserID           *uuid.UUID `json:"user_id"`
	Answers          AnswerMap  `json:"answers"`
	CorrectAnswers   int        `json:"correct_answers"`
	TotalQuestions   int        `json:"total_questions"`
	Score            float64    `json:"score"`
	TimeSpentSeconds int        `json:"time_spent_seconds"`
	Passed           bool       `json:"passed"`
	CompletedAt      time.Time  `json:"completed_at"`
}

// QuestionReview pairs a question with the taker's answer for the review screen.
type QuestionReview struct {
	QuestionID       uuid.UUID    `json:"question_id"`
	Text             string       `json:"text"`
	Type             QuestionType `json:"type"`
	Selected         Answer       `json:"selected"`
	CorrectOptionIDs []string     `json:"correct_option_ids"`
	Correct          bool         `json:"correct"`
	Explanation      string       `json:"explanation"`
}

// ResultDetail is a result with its per-question review.
type ResultDetail struct {
	Result
	Review []QuestionReview `json:"review"`
}

// SubmitResultRequest is the payload of POST /api/resultados. Score fields sent
// by older clients are accepted but recomputed on the server.
type SubmitResultRequest struct {
	ExamID           uuid.UUID `json:"exam_id" binding:"required"`
	Language         string    `json:"language" binding:"omitempty,oneof=pt en es fr"`
	Answers          AnswerMap `json:"answers"`
	TimeSpentSeconds int       `json:"time_spent_seconds" binding:"min=0"`
	CorrectAnswers   *int      `json:"correct_answers"`
	Score            *float64  `json:"score"`
	Passed           *bool     `json:"passed"`
}
