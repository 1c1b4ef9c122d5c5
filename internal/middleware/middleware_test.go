package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/energydash/internal/storage/memory"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

type failingStore struct{}

func (failingStore) CheckRateLimit(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}
func (failingStore) Close() error { return nil }

func TestRateLimit_PerIP(t *testing.T) {
	h := RateLimit(memory.New(2, time.Minute), nil)(okHandler)

	send := func(remote string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/auth", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.5:1111"))
	assert.Equal(t, http.StatusOK, send("10.0.0.5:2222"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.5:3333"))
	assert.Equal(t, http.StatusOK, send("10.0.0.6:1111"))
}

func TestRateLimit_FailsOpen(t *testing.T) {
	rec := httptest.NewRecorder()
	RateLimit(failingStore{}, nil)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecoverJSON(t *testing.T) {
	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		RecoverJSON(panicking).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, rec.Body.String())
}

func TestRecoverJSON_AfterHeadersSent(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		panic("late")
	})
	rec := httptest.NewRecorder()
	RecoverJSON(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestRequestLog_CapturesStatus(t *testing.T) {
	var seen *statusWriter
	h := RequestLog(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		seen = w.(*statusWriter)
		w.WriteHeader(http.StatusNotFound)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/heartbeat", nil))
	require.NotNil(t, seen)
	assert.Equal(t, http.StatusNotFound, seen.status)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
