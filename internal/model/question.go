package model

import (
	"github.com/google/uuid"
)

type QuestionType string

const (
	QuestionTypeSingleChoice   QuestionType = "single_choice"
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
)

// Question represents a single exam question with its options.
type Question struct {
	ID           uuid.UUID    `json:"id"`
	ExamID       uuid.UUID    `json:"exam_id"`
	Text         string       `json:"text"`
	Type         QuestionType `json:"type"`
	Explanation  string       `json:"explanation"`
	Category     string       `json:"category"`
	Difficulty   string       `json:"difficulty"`
	Points       int          `json:"points"`
	Tags         []string     `json:"tags"`
	ReferenceURL *string      `json:"reference_url,omitempty"`
	Language     string       `json:"language"`
	OrderNum     int          `json:"order_num"`
	Options      []Option     `json:"options"`
}

// Option is one selectable answer of a question.
type Option struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	Text       string    `json:"text"`
	IsCorrect  bool      `json:"is_correct"`
	OrderNum   int       `json:"order_num"`
}

// CorrectOptionIDs returns the ids of the options flagged correct, as strings.
func (q *Question) CorrectOptionIDs() []string {
	ids := make([]string, 0, 1)
	for _, o := range q.Options {
		if o.IsCorrect {
			ids = append(ids, o.ID.String())
		}
	}
	return ids
}

// HasOption reports whether optionID belongs to the question.
func (q *Question) HasOption(optionID string) bool {
	for _, o := range q.Options {
		if o.ID.String() == optionID {
			return true
		}
	}
	return false
}

// QuestionForTaker is a question without correctness flags, shown while a session runs.
type QuestionForTaker struct {
	ID       uuid.UUID        `json:"id"`
	Text     string           `json:"text"`
	Type     QuestionType     `json:"type"`
	Points   int              `json:"points"`
	Options  []OptionForTaker `json:"options"`
	OrderNum int              `json:"order_num"`
}

type OptionForTaker struct {
	ID   uuid.UUID `json:"id"`
	Text string    `json:"text"`
}

// ForTaker strips the answer key from q.
func (q *Question) ForTaker() QuestionForTaker {
	opts := make([]OptionForTaker, len(q.Options))
	for i, o := range q.Options {
		opts[i] = OptionForTaker{ID: o.ID, Text: o.Text}
	}
	return QuestionForTaker{
		ID:       q.ID,
		Text:     q.Text,
		Type:     q.Type,
		Points:   q.Points,
		Options:  opts,
		OrderNum: q.OrderNum,
	}
}

// AddOptionRequest is one option of an AddQuestionRequest.
type AddOptionRequest struct {
	Text      string `json:"text" binding:"required,min=1,max=2000"`
	IsCorrect bool   `json:"is_correct"`
}

// AddQuestionRequest is the payload for adding a question to an exam.
type AddQuestionRequest struct {
	Text         string             `json:"text" binding:"required,min=1,max=5000"`
	Type         string             `json:"type" binding:"required,oneof=single_choice multiple_choice"`
	Explanation  string             `json:"explanation" binding:"omitempty,max=5000"`
	Category     string             `json:"category" binding:"omitempty,max=100"`
	Difficulty   string             `json:"difficulty" binding:"omitempty,max=30"`
	Points       int                `json:"points" binding:"omitempty,min=1,max=100"`
	Tags         []string           `json:"tags" binding:"omitempty,dive,max=50"`
	ReferenceURL *string            `json:"reference_url" binding:"omitempty,url"`
	Language     string             `json:"language" binding:"omitempty,oneof=pt en es fr"`
	OrderNum     int                `json:"order_num" binding:"min=0"`
	Options      []AddOptionRequest `json:"options" binding:"required,min=2,max=10,dive"`
}
