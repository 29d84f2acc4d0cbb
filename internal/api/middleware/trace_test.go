package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/hifz/internal/api/shared"
	"github.com/phrazzld/hifz/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrace(t *testing.T) {
	base, buf := logger.GetTestLogger(t)

	var seenTraceID, seenRequestID string
	handler := Trace(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenTraceID = shared.GetTraceID(r.Context())
		seenRequestID = logger.RequestID(r.Context())
		logger.FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users/x/summary", nil))

	require.Len(t, seenTraceID, shared.TraceIDLength)
	assert.Equal(t, seenTraceID, seenRequestID)
	assert.Equal(t, seenTraceID, w.Header().Get(TraceHeader))
	assert.Equal(t, http.StatusTeapot, w.Code)

	logger.AssertLogField(t, buf, "request_id", seenTraceID)
	logger.AssertLogField(t, buf, "msg", "request completed")
	logger.AssertLogField(t, buf, "status", float64(http.StatusTeapot))
}

func TestTraceIDsAreUnique(t *testing.T) {
	var ids []string
	handler := Trace(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, shared.GetTraceID(r.Context()))
	}))

	for range 3 {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	}

	require.Len(t, ids, 3)
	assert.NotEqual(t, ids[0], ids[1])
	assert.NotEqual(t, ids[1], ids[2])
}
