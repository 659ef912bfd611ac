package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingMiddlewareRequestID(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("assigns an id when absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		LoggingMiddleware(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/games", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	})

	t.Run("echoes a caller-supplied id", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/games", nil)
		r.Header.Set(RequestIDHeader, "abc-123")

		w := httptest.NewRecorder()
		LoggingMiddleware(next).ServeHTTP(w, r)

		assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	})
}

func TestRecoveryMiddlewareConvertsPanics(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	RecoveryMiddleware(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/games", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Internal server error", body["error"])
}
