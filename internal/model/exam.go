package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultPassingScore applies when an exam has no passing threshold configured.
const DefaultPassingScore = 70.0

// Exam represents a practice exam ("simulado").
type Exam struct {
	ID                 uuid.UUID  `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	DurationMinutes    int        `json:"duration_minutes"`
	Difficulty         string     `json:"difficulty"`
	Active             bool       `json:"active"`
	Price              *float64   `json:"price,omitempty"`
	DiscountedPrice    *float64   `json:"discounted_price,omitempty"`
	DiscountPercentage *float64   `json:"discount_percentage,omitempty"`
	DiscountExpiresAt  *time.Time `json:"discount_expires_at,omitempty"`
	// QuestionCount is informational only; sessions count question rows.
	QuestionCount int       `json:"question_count"`
	PassingScore  *float64  `json:"passing_score,omitempty"`
	Category      string    `json:"category"`
	IsFree        bool      `json:"is_gratis"`
	Language      string    `json:"language"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PassingThreshold returns the configured passing score or the default.
func (e *Exam) PassingThreshold() float64 {
	if e.PassingScore == nil {
		return DefaultPassingScore
	}
	return *e.PassingScore
}

// ExamListItem is an exam as shown in the catalog, with its current price.
type ExamListItem struct {
	Exam
	EffectivePrice float64 `json:"effective_price"`
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Title              string     `json:"title" binding:"required,min=3,max=255"`
	Description        string     `json:"description" binding:"omitempty,max=5000"`
	DurationMinutes    int        `json:"duration_minutes" binding:"required,min=1,max=480"`
	Difficulty         string     `json:"difficulty" binding:"omitempty,oneof=iniciante intermediario avancado"`
	Active             *bool      `json:"active"`
	Price              *float64   `json:"price" binding:"omitempty,min=0"`
	DiscountedPrice    *float64   `json:"discounted_price" binding:"omitempty,min=0"`
	DiscountPercentage *float64   `json:"discount_percentage" binding:"omitempty,min=0,max=100"`
	DiscountExpiresAt  *time.Time `json:"discount_expires_at"`
	PassingScore       *float64   `json:"passing_score" binding:"omitempty,min=0,max=100"`
	Category           string     `json:"category" binding:"omitempty,max=100"`
	IsFree             bool       `json:"is_gratis"`
	Language           string     `json:"language" binding:"omitempty,oneof=pt en es fr"`
}

// UpdateExamRequest is the payload for updating an existing exam.
// Omitted fields keep their stored value.
type UpdateExamRequest struct {
	Title              *string    `json:"title" binding:"omitempty,min=3,max=255"`
	Description        *string    `json:"description" binding:"omitempty,max=5000"`
	DurationMinutes    *int       `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	Difficulty         *string    `json:"difficulty" binding:"omitempty,oneof=iniciante intermediario avancado"`
	Active             *bool      `json:"active"`
	Price              *float64   `json:"price" binding:"omitempty,min=0"`
	DiscountedPrice    *float64   `json:"discounted_price" binding:"omitempty,min=0"`
	DiscountPercentage *float64   `json:"discount_percentage" binding:"omitempty,min=0,max=100"`
	DiscountExpiresAt  *time.Time `json:"discount_expires_at"`
	PassingScore       *float64   `json:"passing_score" binding:"omitempty,min=0,max=100"`
	Category           *string    `json:"category" binding:"omitempty,max=100"`
	IsFree             *bool      `json:"is_gratis"`
	Language           *string    `json:"language" binding:"omitempty,oneof=pt en es fr"`

	// Clear flags reset nullable fields and win over values sent alongside.
	ClearPrice        bool `json:"clear_price"`
	ClearDiscount     bool `json:"clear_discount"`
	ClearPassingScore bool `json:"clear_passing_score"`
}

// Apply copies the set fields of the request onto e, then applies the clear
// flags. ClearDiscount drops the discounted price, percentage and expiry.
func (r *UpdateExamRequest) Apply(e *Exam) {
	if r.Title != nil {
		e.Title = *r.Title
	}
	if r.Description != nil {
		e.Description = *r.Description
	}
	if r.DurationMinutes != nil {
		e.DurationMinutes = *r.DurationMinutes
	}
	if r.Difficulty != nil {
		e.Difficulty = *r.Difficulty
	}
	if r.Active != nil {
		e.Active = *r.Active
	}
	if r.Price != nil {
		e.Price = r.Price
	}
	if r.DiscountedPrice != nil {
		e.DiscountedPrice = r.DiscountedPrice
	}
	if r.DiscountPercentage != nil {
		e.DiscountPercentage = r.DiscountPercentage
	}
	if r.DiscountExpiresAt != nil {
		e.DiscountExpiresAt = r.DiscountExpiresAt
	}
	if r.PassingScore != nil {
		e.PassingScore = r.PassingScore
	}
	if r.Category != nil {
		e.Category = *r.Category
	}
	if r.IsFree != nil {
		e.IsFree = *r.IsFree
	}
	if r.Language != nil {
		e.Language = *r.Language
	}

	if r.ClearPrice {
		e.Price = nil
	}
	if r.ClearDiscount {
		e.DiscountedPrice = nil
		e.DiscountPercentage = nil
		e.DiscountExpiresAt = nil
	}
	if r.ClearPassingScore {
		e.PassingScore = nil
	}
}
