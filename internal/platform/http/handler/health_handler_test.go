package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func setupRouter(db Pinger) *gin.Engine {
	h := NewHealthHandler(db)
	r := gin.New()
	r.GET("/healthz", h.Health)
	r.HEAD("/healthz", h.Health)
	r.OPTIONS("/healthz", h.Health)
	return r
}

func TestHealth_ResponseStatus(t *testing.T) {
	t.Parallel()

	healthy := pingerFunc(func(ctx context.Context) error { return nil })
	down := pingerFunc(func(ctx context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name           string
		db             Pinger
		method         string
		expectedStatus int
		expectedBody   string
	}{
		{"GET healthy", healthy, http.MethodGet, http.StatusOK, "ok"},
		{"GET without db", nil, http.MethodGet, http.StatusOK, "ok"},
		{"GET db down", down, http.MethodGet, http.StatusServiceUnavailable, "unavailable"},
		{"HEAD healthy", healthy, http.MethodHead, http.StatusOK, ""},
		{"HEAD db down", down, http.MethodHead, http.StatusServiceUnavailable, ""},
		{"OPTIONS", down, http.MethodOptions, http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			setupRouter(tt.db).ServeHTTP(w, httptest.NewRequest(tt.method, "/healthz", nil))

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if w.Header().Get("Cache-Control") != "no-store" {
				t.Errorf("expected Cache-Control 'no-store', got %q", w.Header().Get("Cache-Control"))
			}

			if tt.expectedBody == "" {
				if w.Body.Len() != 0 {
					t.Errorf("expected empty body, got %d bytes", w.Body.Len())
				}
				return
			}
			var response map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if response["status"] != tt.expectedBody {
				t.Errorf("expected status %q, got %q", tt.expectedBody, response["status"])
			}
		})
	}
}
