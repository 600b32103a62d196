package config

import (
	"testing"
	"time"
)

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{"https://a.com", []string{"https://a.com"}},
		{" https://a.com , ,https://b.com ", []string{"https://a.com", "https://b.com"}},
	}
	for _, tc := range tests {
		got := parseOrigins(tc.raw)
		if len(got) != len(tc.want) {
			t.Fatalf("parseOrigins(%q) = %v, want %v", tc.raw, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("parseOrigins(%q)[%d] = %q, want %q", tc.raw, i, got[i], tc.want[i])
			}
		}
	}
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("QUESTION_CACHE_TTL_MINUTES", "5")
	t.Setenv("BUNDLE_GROUP_BY_CATEGORY", "true")
	t.Setenv("BUNDLE_DEFAULT_DISCOUNT", "not-a-number")
	t.Setenv("AUTO_MIGRATE", "false")

	cfg := Load()
	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q", cfg.ServerPort)
	}
	if cfg.QuestionCacheTTL != 5*time.Minute {
		t.Errorf("QuestionCacheTTL = %v", cfg.QuestionCacheTTL)
	}
	if !cfg.BundleGroupByCategory {
		t.Error("BundleGroupByCategory should be true")
	}
	if cfg.BundleDefaultDiscount != 25 {
		t.Errorf("BundleDefaultDiscount = %v, want fallback 25", cfg.BundleDefaultDiscount)
	}
	if cfg.AutoMigrate {
		t.Error("AutoMigrate should be false")
	}
}

func TestCacheKeys(t *testing.T) {
	if got := CacheKey.ExamQuestionsKey("e1", ""); got != "exam:e1:questions:all" {
		t.Errorf("got %q", got)
	}
	if got := CacheKey.ExamQuestionsKey("e1", "pt"); got != "exam:e1:questions:pt" {
		t.Errorf("got %q", got)
	}
}
