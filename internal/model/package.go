package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultPackageDiscount is the discount percentage packages start with.
	DefaultPackageDiscount = 25.0
	// DefaultPackageDurationDays is the access length of a non-subscription package.
	DefaultPackageDurationDays = 365
)

// Package bundles several exams sold together at a discount ("pacote").
type Package struct {
	ID                 uuid.UUID   `json:"id"`
	Title              string      `json:"title"`
	Description        string      `json:"description"`
	Price              float64     `json:"price"`
	DiscountedPrice    float64     `json:"discounted_price"`
	DiscountPercentage float64     `json:"discount_percentage"`
	IsSubscription     bool        `json:"is_subscription"`
	DurationDays       int         `json:"duration_days"`
	Category           string      `json:"category"`
	Active             bool        `json:"active"`
	ExamIDs            []uuid.UUID `json:"exam_ids"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// PackagePricing holds prices derived from the member exams at read time.
type PackagePricing struct {
	TotalWithoutDiscount float64 `json:"total_without_discount"`
	TotalWithDiscount    float64 `json:"total_with_discount"`
	Savings              float64 `json:"savings"`
}

// PackageDetail is a package with its member exams and computed pricing.
type PackageDetail struct {
	Package
	Exams   []Exam         `json:"exams"`
	Pricing PackagePricing `json:"pricing"`
}

// TitleGroup is a set of paid exams sharing a grouping key.
type TitleGroup struct {
	Title    string
	Category string
	ExamIDs  []uuid.UUID
}

// BundleReport summarises one auto-bundler run.
type BundleReport struct {
	Created   []string `json:"created"`
	Refreshed []string `json:"refreshed"`
	Links     int      `json:"links"`
}

// PackageRequest is the payload for creating or updating a package.
type PackageRequest struct {
	Title              string      `json:"title" binding:"required,min=3,max=255"`
	Description        string      `json:"description" binding:"omitempty,max=5000"`
	Price              float64     `json:"price" binding:"min=0"`
	DiscountedPrice    float64     `json:"discounted_price" binding:"min=0"`
	DiscountPercentage *float64    `json:"discount_percentage" binding:"omitempty,min=0,max=100"`
	IsSubscription     bool        `json:"is_subscription"`
	DurationDays       int         `json:"duration_days" binding:"omitempty,min=1,max=3650"`
	Category           string      `json:"category" binding:"omitempty,max=100"`
	Active             *bool       `json:"active"`
	ExamIDs            []uuid.UUID `json:"exam_ids" binding:"omitempty,dive,required"`
}

// ToPackage builds a Package from the request, applying defaults.
func (r *PackageRequest) ToPackage() *Package {
	p := &Package{
		Title:              r.Title,
		Description:        r.Description,
		Price:              r.Price,
		DiscountedPrice:    r.DiscountedPrice,
		DiscountPercentage: DefaultPackageDiscount,
		IsSubscription:     r.IsSubscription,
		DurationDays:       DefaultPackageDurationDays,
		Category:           r.Category,
		Active:             true,
		ExamIDs:            r.ExamIDs,
	}
	if r.DiscountPercentage != nil {
		p.DiscountPercentage = *r.DiscountPercentage
	}
	if r.DurationDays > 0 {
		p.DurationDays = r.DurationDays
	}
	if r.Active != nil {
		p.Active = *r.Active
	}
	return p
}
