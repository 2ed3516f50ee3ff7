package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogMiddlewareRecordsStatus(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := LogMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/rooms", nil))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "HTTP Request", entry.Message)
	assert.Equal(t, http.StatusTeapot, entry.Data["status"])
	assert.Equal(t, "/rooms", entry.Data["path"])
	assert.Equal(t, http.MethodGet, entry.Data["method"])
}

func TestLogWebSocketDisconnect(t *testing.T) {
	logger, hook := test.NewNullLogger()

	LogWebSocketConnect(logger, "1.2.3.4:5", "/ws/r1")
	LogWebSocketDisconnect(logger, "1.2.3.4:5", "/ws/r1", errors.New("reset"))

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "WebSocket connected", entries[0].Message)
	assert.Equal(t, logrus.InfoLevel, entries[1].Level)
	assert.EqualError(t, entries[1].Data["error"].(error), "reset")
}

func TestStatusRecorderHijackUnsupported(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	_, _, err := rec.Hijack()
	assert.Error(t, err)
}
