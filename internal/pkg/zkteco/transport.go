package zkteco

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/medicore-hms/attendance-backend-go/internal/domain/device"
)

// Transport implements device.Transport and device.Listener against a
// physical terminal.
type Transport struct {
	cfg Config
}

func NewTransport(cfg Config) *Transport {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Transport{cfg: cfg}
}

// FetchRecentLogs implements device.Transport. The session lives only for
// this call; the deferred close keeps connection slots from leaking on
// partial failures.
func (t *Transport) FetchRecentLogs(ctx context.Context) ([]device.LogEntry, error) {
	c, err := dial(ctx, t.cfg)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	entries, err := c.readAttendanceLogs()
	if err != nil {
		return nil, fmt.Errorf("read attendance logs: %w", err)
	}
	return entries, nil
}

// Listen implements device.Listener: it keeps a realtime session open and
// invokes fn per pushed punch until ctx is cancelled. Session drops are
// retried with a fixed backoff; the terminal buffers punches it could not
// push, so the next poll cycle recovers anything missed in between.
func (t *Transport) Listen(ctx context.Context, fn func(device.LogEntry)) error {
	const reconnectDelay = 10 * time.Second

	for {
		if err := t.listenOnce(ctx, fn); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("Realtime session lost, reconnecting", "addr", t.cfg.Addr, "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (t *Transport) listenOnce(ctx context.Context, fn func(device.LogEntry)) error {
	c, err := dial(ctx, t.cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.registerRealtime(); err != nil {
		return err
	}
	slog.Info("Realtime attendance listener registered", "addr", t.cfg.Addr)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Short deadlines keep the loop responsive to cancellation.
		entry, err := c.nextRealtimeEvent(time.Now().Add(2 * time.Second))
		if err != nil {
			if isTimeout(err) {
				continue
			}
			return err
		}

		fn(entry)
	}
}
