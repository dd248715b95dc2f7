package device

import "errors"

var (
	ErrDeviceUnavailable = errors.New("biometric device unavailable")
	ErrInvalidReply      = errors.New("malformed device reply")
)
