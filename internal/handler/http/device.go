package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/medicore-hms/attendance-backend-go/internal/domain/device"
	syncdomain "github.com/medicore-hms/attendance-backend-go/internal/domain/sync"
	"github.com/medicore-hms/attendance-backend-go/internal/handler/http/response"
)

type DeviceHandler interface {
	Logs(w http.ResponseWriter, r *http.Request)
	Sync(w http.ResponseWriter, r *http.Request)
}

type deviceHandlerImpl struct {
	transport   device.Transport
	syncService syncdomain.Service
}

func NewDeviceHandler(transport device.Transport, syncService syncdomain.Service) DeviceHandler {
	return &deviceHandlerImpl{
		transport:   transport,
		syncService: syncService,
	}
}

type deviceLogResponse struct {
	DeviceUserID string `json:"device_user_id"`
	Timestamp    string `json:"timestamp"`
	Direction    string `json:"direction"`
}

// Logs implements DeviceHandler. It reads the terminal's log buffer as-is,
// without touching the attendance store. Useful for diagnosing enrollment
// mismatches.
func (h *deviceHandlerImpl) Logs(w http.ResponseWriter, r *http.Request) {
	entries, err := h.transport.FetchRecentLogs(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	logs := make([]deviceLogResponse, 0, len(entries))
	for _, entry := range entries {
		logs = append(logs, deviceLogResponse{
			DeviceUserID: entry.DeviceUserID,
			Timestamp:    entry.Timestamp.Format(time.RFC3339),
			Direction:    string(entry.Direction()),
		})
	}

	response.Success(w, logs)
}

// Sync implements DeviceHandler. The sync itself runs in the background;
// a run already in flight is reported as a conflict rather than queued.
// Accepted means the trigger was handed off, not that the run has started:
// if the poller wins the single-flight race in between, its run drains the
// same device buffer, so the punches this trigger was after are still
// picked up.
func (h *deviceHandlerImpl) Sync(w http.ResponseWriter, r *http.Request) {
	if h.syncService.Running() {
		response.Conflict(w, "A sync is already in progress")
		return
	}

	// The run outlives the request; detach it from the request's cancel.
	go func(ctx context.Context) {
		if !h.syncService.TriggerSync(ctx) {
			slog.Debug("Manual sync trigger lost the race to a scheduled run")
		}
	}(context.WithoutCancel(r.Context()))

	response.Accepted(w, "Sync started")
}
