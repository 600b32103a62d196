package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if ok, _ := rl.Allow("1.1.1.1"); !ok {
		t.Fatal("first request denied")
	}
	if ok, _ := rl.Allow("1.1.1.1"); !ok {
		t.Fatal("second request denied")
	}
	ok, wait := rl.Allow("1.1.1.1")
	if ok || wait <= 0 || wait > time.Minute {
		t.Fatalf("third request: ok=%v wait=%v", ok, wait)
	}
	if ok, _ := rl.Allow("2.2.2.2"); !ok {
		t.Error("other clients have their own bucket")
	}

	now = now.Add(time.Minute)
	if ok, _ := rl.Allow("1.1.1.1"); !ok {
		t.Error("bucket should refill after the interval")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(1, time.Hour)
	defer rl.Stop()

	r := gin.New()
	r.POST("/login", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 2)
	for i := range codes {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes[i] = w.Code
		if i == 1 && w.Header().Get("Retry-After") == "" {
			t.Error("429 should carry Retry-After")
		}
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}
