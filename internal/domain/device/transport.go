package device

import "context"

// Transport reads punch events from the biometric terminal. A session is
// scoped per call: implementations open, operate and always close, so a
// failed fetch never leaks a device connection slot.
type Transport interface {
	// FetchRecentLogs drains the terminal's event buffer. It returns
	// ErrDeviceUnavailable when a session cannot be established; callers
	// treat that as an empty batch, not a fatal error.
	FetchRecentLogs(ctx context.Context) ([]LogEntry, error)
}

// Listener is the push-mode variant: it registers for realtime events and
// invokes fn for every punch until ctx is cancelled.
type Listener interface {
	Listen(ctx context.Context, fn func(LogEntry)) error
}
