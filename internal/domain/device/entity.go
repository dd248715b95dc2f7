package device

import "time"

// Direction is the resolved punch direction.
type Direction string

const (
	DirectionIn      Direction = "clock_in"
	DirectionOut     Direction = "clock_out"
	DirectionUnknown Direction = "unknown"
)

// Raw state codes reported by the terminal. Anything else is treated as
// unknown and resolved by the reconciliation engine.
const (
	RawStateCheckIn  = 0
	RawStateCheckOut = 1
)

// LogEntry is one punch event read from the terminal, normalized at the
// transport boundary. The device-reported field names and widths vary by
// firmware; none of that ambiguity leaks past this type.
type LogEntry struct {
	DeviceUserID string
	Timestamp    time.Time
	RawDirection int
	SourceAddr   string
}

// Direction maps the device state code to a punch direction. Codes the
// firmware does not guarantee come back as DirectionUnknown.
func (e LogEntry) Direction() Direction {
	switch e.RawDirection {
	case RawStateCheckIn:
		return DirectionIn
	case RawStateCheckOut:
		return DirectionOut
	default:
		return DirectionUnknown
	}
}
