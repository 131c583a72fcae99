package shared

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requestWithLogger returns a GET request whose context carries a trace ID
// and a text logger writing to buf.
func requestWithLogger(buf *strings.Builder) *http.Request {
	l := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.WithValue(context.Background(), TraceIDKey, "test-trace-id")
	ctx = logger.WithLogger(ctx, l)
	return httptest.NewRequest(http.MethodGet, "/test", nil).WithContext(ctx)
}

func TestRespondWithJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	RespondWithJSON(w, req, http.StatusCreated, map[string]any{"message": "success", "data": 123})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "success", body["message"])
	assert.Equal(t, float64(123), body["data"])
}

func TestRespondWithJSON_EncodingError(t *testing.T) {
	var logBuf strings.Builder
	req := requestWithLogger(&logBuf)
	w := httptest.NewRecorder()

	RespondWithJSON(w, req, http.StatusOK, map[string]any{"fn": func() {}})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, logBuf.String(), "failed to encode JSON response")
}

func TestRespondWithMessage(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/test", nil)
	w := httptest.NewRecorder()

	RespondWithMessage(w, req, http.StatusOK, "Task deleted")

	assert.JSONEq(t, `{"message":"Task deleted"}`, w.Body.String())
}

func TestRespondWithError(t *testing.T) {
	t.Run("with trace id", func(t *testing.T) {
		var logBuf strings.Builder
		w := httptest.NewRecorder()

		RespondWithError(w, requestWithLogger(&logBuf), http.StatusBadRequest, "Invalid request")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Invalid request", resp.Error)
		assert.Equal(t, "test-trace-id", resp.TraceID)
		assert.NotContains(t, w.Body.String(), `"Code"`)
	})

	t.Run("without trace id", func(t *testing.T) {
		w := httptest.NewRecorder()

		RespondWithError(w, httptest.NewRequest(http.MethodGet, "/test", nil), http.StatusUnauthorized, "Unauthorized")

		assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
	})
}

func TestRespondWithErrorAndLog(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		elevate   bool
		wantLevel string
	}{
		{"server error", http.StatusInternalServerError, false, "level=ERROR"},
		{"client error", http.StatusBadRequest, false, "level=DEBUG"},
		{"elevated client error", http.StatusForbidden, true, "level=WARN"},
		{"rate limited", http.StatusTooManyRequests, false, "level=WARN"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var logBuf strings.Builder
			req := requestWithLogger(&logBuf)
			w := httptest.NewRecorder()
			err := errors.New("dial postgres://app:s3cret@db:5432/tasks failed")

			var opts []ResponseOption
			if tc.elevate {
				opts = append(opts, WithElevatedLogLevel())
			}
			RespondWithErrorAndLog(w, req, tc.status, "Something went wrong", err, opts...)

			assert.Equal(t, tc.status, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "Something went wrong", resp.Error)
			assert.Equal(t, "test-trace-id", resp.TraceID)
			assert.NotContains(t, w.Body.String(), "postgres")

			logs := logBuf.String()
			assert.Contains(t, logs, tc.wantLevel)
			assert.Contains(t, logs, "trace_id=test-trace-id")
			assert.Contains(t, logs, "error_type=")
			assert.NotContains(t, logs, "s3cret")
		})
	}
}
