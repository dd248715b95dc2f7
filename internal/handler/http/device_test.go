package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/medicore-hms/attendance-backend-go/internal/domain/device"
	syncdomain "github.com/medicore-hms/attendance-backend-go/internal/domain/sync"
)

type stubTransport struct {
	logs     []device.LogEntry
	fetchErr error
}

func (s *stubTransport) FetchRecentLogs(ctx context.Context) ([]device.LogEntry, error) {
	return s.logs, s.fetchErr
}

type stubSyncService struct {
	running   bool
	triggered chan struct{}
}

func (s *stubSyncService) ProcessLogs(ctx context.Context, logs []device.LogEntry) syncdomain.BatchResult {
	return syncdomain.BatchResult{}
}

func (s *stubSyncService) ProcessEntry(ctx context.Context, entry device.LogEntry) syncdomain.Outcome {
	return syncdomain.OutcomeApplied
}

func (s *stubSyncService) TriggerSync(ctx context.Context) bool {
	if s.triggered != nil {
		close(s.triggered)
	}
	return true
}

func (s *stubSyncService) Running() bool { return s.running }

func newDeviceRouter(transport device.Transport, svc syncdomain.Service) *chi.Mux {
	r := chi.NewRouter()
	h := NewDeviceHandler(transport, svc)
	r.Get("/device/logs", h.Logs)
	r.Post("/device/sync", h.Sync)
	return r
}

func TestDeviceHandler_Sync_Accepted(t *testing.T) {
	svc := &stubSyncService{triggered: make(chan struct{})}
	router := newDeviceRouter(&stubTransport{}, svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/device/sync", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case <-svc.triggered:
	case <-time.After(time.Second):
		t.Fatal("expected the sync to be triggered")
	}
}

func TestDeviceHandler_Sync_ConflictWhileRunning(t *testing.T) {
	svc := &stubSyncService{running: true}
	router := newDeviceRouter(&stubTransport{}, svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/device/sync", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeviceHandler_Logs(t *testing.T) {
	transport := &stubTransport{logs: []device.LogEntry{
		{DeviceUserID: "7", Timestamp: time.Date(2024, 1, 10, 8, 2, 0, 0, time.UTC), RawDirection: device.RawStateCheckIn},
	}}
	router := newDeviceRouter(transport, &stubSyncService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/device/logs", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"device_user_id":"7"`)
	assert.Contains(t, rec.Body.String(), `"direction":"clock_in"`)
}

func TestDeviceHandler_Logs_DeviceUnavailable(t *testing.T) {
	transport := &stubTransport{fetchErr: device.ErrDeviceUnavailable}
	router := newDeviceRouter(transport, &stubSyncService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/device/logs", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
