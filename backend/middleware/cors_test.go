package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCORSPreflight(t *testing.T) {
	router := gin.New()
	router.Use(CORS())
	router.POST("/api/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected Access-Control-Allow-Origin header")
	}
}

func TestCacheControl(t *testing.T) {
	router := gin.New()
	router.Use(CacheControl("/files"))
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	router.GET("/api/reservations", ok)
	router.GET("/files/contratos/a.pdf", ok)
	router.GET("/health", ok)

	tests := []struct {
		path string
		want string
	}{
		{"/api/reservations", "no-cache, no-store, must-revalidate"},
		{"/files/contratos/a.pdf", "public, max-age=86400, immutable"},
		{"/health", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("GET", tt.path, nil))
			if got := w.Header().Get("Cache-Control"); got != tt.want {
				t.Errorf("Expected Cache-Control %q, got %q", tt.want, got)
			}
		})
	}
}
