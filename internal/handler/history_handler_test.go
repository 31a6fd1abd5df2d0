package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func historyContext(t *testing.T, query string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req, err := http.NewRequest(http.MethodGet, "/api/v1/history"+query, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	c.Request = req
	return c
}

func TestParseHistoryLimit(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		query     string
		limit     int
		cacheable bool
	}{
		{"default", "", 50, true},
		{"explicit default", "?limit=50", 50, true},
		{"custom limit skips cache", "?limit=5", 5, false},
		{"larger limit skips cache", "?limit=100", 100, false},
		{"garbage falls back to default", "?limit=abc", 50, true},
		{"non-positive falls back to default", "?limit=0", 50, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			limit, cacheable := parseHistoryLimit(historyContext(t, tc.query))
			if limit != tc.limit {
				t.Errorf("limit: expected %d, got %d", tc.limit, limit)
			}
			if cacheable != tc.cacheable {
				t.Errorf("cacheable: expected %v, got %v", tc.cacheable, cacheable)
			}
		})
	}
}
