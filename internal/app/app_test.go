package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err   error
	calls int
}

func (s *stubPinger) Ping(context.Context) error {
	s.calls++
	return s.err
}

func TestReadyHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("no dependencies configured", func(t *testing.T) {
		a := &App{logger: logger}
		rec := httptest.NewRecorder()
		a.readyHandler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("storage down", func(t *testing.T) {
		db := &stubPinger{}
		bucket := &stubPinger{err: errors.New("no such bucket")}
		a := &App{logger: logger, readiness: []readinessCheck{
			{name: "postgres", target: db},
			{name: "storage", target: bucket},
		}}

		rec := httptest.NewRecorder()
		a.readyHandler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "storage", body["dependency"])
		assert.Equal(t, 1, db.calls)
		assert.Equal(t, 1, bucket.calls)
	})

	t.Run("all reachable", func(t *testing.T) {
		a := &App{logger: logger, readiness: []readinessCheck{{name: "storage", target: &stubPinger{}}}}
		rec := httptest.NewRecorder()
		a.readyHandler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
	})
}
