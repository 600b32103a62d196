package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		page, perPage, total int
		wantPages            int
	}{
		{1, 10, 0, 0},
		{1, 10, 10, 1},
		{2, 10, 11, 2},
		{1, 0, 5, 0},
	}
	for _, tt := range tests {
		p := NewPagination(tt.page, tt.perPage, tt.total)
		if p.TotalPages != tt.wantPages {
			t.Errorf("NewPagination(%d, %d, %d).TotalPages = %d, want %d",
				tt.page, tt.perPage, tt.total, p.TotalPages, tt.wantPages)
		}
	}
}

func TestFailWithDetailsEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) {
		FailWithDetails(c, http.StatusInternalServerError, ErrBundleFailed, "tx aborted")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var body Response
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error == nil || body.Error.Code != ErrBundleFailed || body.Error.Details != "tx aborted" {
		t.Errorf("error body = %+v", body.Error)
	}
	if body.Error.Message != GetMessage(ErrBundleFailed) {
		t.Errorf("message = %q", body.Error.Message)
	}
	if body.Metadata.RequestID != "req-1" {
		t.Errorf("request id = %q", body.Metadata.RequestID)
	}
}

func TestRequestIDReplacesOverlongHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	var seen string
	r.GET("/", func(c *gin.Context) { seen = RequestID(c) })

	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"empty", "", false},
		{"short", "abc-123", true},
		{"overlong", strings.Repeat("x", maxRequestIDLen+1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("X-Request-ID", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if (seen == tt.header) != tt.keep {
				t.Errorf("request id = %q, keep = %v", seen, tt.keep)
			}
			if seen == "" || w.Header().Get("X-Request-ID") != seen {
				t.Errorf("header = %q, context = %q", w.Header().Get("X-Request-ID"), seen)
			}
		})
	}
}
