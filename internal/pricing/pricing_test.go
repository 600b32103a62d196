package pricing

import (
	"testing"
	"time"

	"github.com/certquest/arena-backend/internal/model"
)

func f(v float64) *float64 { return &v }

func TestForPackage(t *testing.T) {
	tests := []struct {
		name     string
		prices   []*float64
		discount float64
		want     model.PackagePricing
	}{
		{"documented example", []*float64{f(10), f(20), f(30)}, 25, model.PackagePricing{TotalWithoutDiscount: 60, TotalWithDiscount: 45, Savings: 15}},
		{"nil prices count as zero", []*float64{f(10), nil, f(30)}, 25, model.PackagePricing{TotalWithoutDiscount: 40, TotalWithDiscount: 30, Savings: 10}},
		{"no members", nil, 25, model.PackagePricing{}},
		{"no discount", []*float64{f(19.9), f(0.1)}, 0, model.PackagePricing{TotalWithoutDiscount: 20, TotalWithDiscount: 20, Savings: 0}},
		{"discount above 100 clamps", []*float64{f(50)}, 150, model.PackagePricing{TotalWithoutDiscount: 50, TotalWithDiscount: 0, Savings: 50}},
		{"rounds to cents", []*float64{f(33.33)}, 10, model.PackagePricing{TotalWithoutDiscount: 33.33, TotalWithDiscount: 30, Savings: 3.33}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ForPackage(tc.prices, tc.discount); got != tc.want {
				t.Errorf("ForPackage = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestEffectiveExamPrice(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		exam model.Exam
		want float64
	}{
		{"free exam", model.Exam{IsFree: true, Price: f(50)}, 0},
		{"base only", model.Exam{Price: f(50)}, 50},
		{"active discounted price", model.Exam{Price: f(50), DiscountedPrice: f(35), DiscountExpiresAt: &future}, 35},
		{"expired discount", model.Exam{Price: f(50), DiscountedPrice: f(35), DiscountExpiresAt: &past}, 50},
		{"percentage only", model.Exam{Price: f(80), DiscountPercentage: f(25)}, 60},
		{"no price", model.Exam{}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := EffectiveExamPrice(&tc.exam, now); got != tc.want {
				t.Errorf("EffectiveExamPrice = %v, want %v", got, tc.want)
			}
		})
	}
}
