// Package pricing derives package and exam prices at read time.
package pricing

import (
	"math"
	"time"

	"github.com/certquest/arena-backend/internal/model"
)

// ForPackage sums the member exam prices and applies the package discount.
// Nil prices count as zero, so a package with unpriced members is discounted
// over whatever prices exist.
func ForPackage(prices []*float64, discountPercentage float64) model.PackagePricing {
	var total float64
	for _, p := range prices {
		if p == nil || math.IsNaN(*p) || *p < 0 {
			continue
		}
		total += *p
	}

	pct := clamp(discountPercentage, 0, 100)
	discounted := total * (1 - pct/100)

	total = roundCents(total)
	discounted = roundCents(discounted)
	return model.PackagePricing{
		TotalWithoutDiscount: total,
		TotalWithDiscount:    discounted,
		Savings:              roundCents(total - discounted),
	}
}

// ExamPrices extracts the base price of each exam.
func ExamPrices(exams []model.Exam) []*float64 {
	prices := make([]*float64, len(exams))
	for i := range exams {
		prices[i] = exams[i].Price
	}
	return prices
}

// EffectiveExamPrice is the price a buyer pays now: the discounted price while
// the discount has not expired, else the base price. Missing prices are zero.
func EffectiveExamPrice(e *model.Exam, now time.Time) float64 {
	if e.IsFree {
		return 0
	}
	base := 0.0
	if e.Price != nil {
		base = *e.Price
	}
	if e.DiscountExpiresAt != nil && !now.Before(*e.DiscountExpiresAt) {
		return roundCents(base)
	}
	if e.DiscountedPrice != nil {
		return roundCents(*e.DiscountedPrice)
	}
	if e.DiscountPercentage != nil && *e.DiscountPercentage > 0 {
		return roundCents(base * (1 - clamp(*e.DiscountPercentage, 0, 100)/100))
	}
	return roundCents(base)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
