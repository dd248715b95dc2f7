// Package zkteco speaks the binary protocol of ZK-family fingerprint
// terminals (UDP, port 4370) and normalizes their punch records into
// device.LogEntry at the boundary.
package zkteco

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/medicore-hms/attendance-backend-go/internal/domain/device"
)

// Config holds the terminal connection settings.
type Config struct {
	Addr    string
	CommKey int
	Timeout time.Duration
}

// client is one protocol session. Sessions are cheap and scoped per
// operation; use dial/Close around every exchange.
type client struct {
	cfg     Config
	conn    net.Conn
	session uint16
	replyID uint16
	buf     [4096]byte
}

// dial opens a session: UDP connect, CMD_CONNECT handshake, and comm-key
// auth when the device demands it.
func dial(ctx context.Context, cfg Config) (*client, error) {
	d := net.Dialer{Timeout: cfg.Timeout}
	conn, err := d.DialContext(ctx, "udp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", device.ErrDeviceUnavailable, err)
	}

	c := &client{cfg: cfg, conn: conn}

	reply, err := c.roundTrip(cmdConnect, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: connect handshake: %v", device.ErrDeviceUnavailable, err)
	}
	c.session = reply.sessionID

	if reply.command == cmdAckUnauth {
		auth, err := c.roundTrip(cmdAuth, makeCommKey(cfg.CommKey, c.session))
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("%w: auth: %v", device.ErrDeviceUnavailable, err)
		}
		if auth.command != cmdAckOK {
			conn.Close()
			return nil, fmt.Errorf("%w: comm key rejected", device.ErrDeviceUnavailable)
		}
	}

	return c, nil
}

// Close ends the session. The exit command is best-effort; the socket is
// closed regardless.
func (c *client) Close() error {
	_, _ = c.roundTrip(cmdExit, nil)
	return c.conn.Close()
}

func (c *client) roundTrip(command uint16, payload []byte) (packet, error) {
	if err := c.send(command, payload); err != nil {
		return packet{}, err
	}
	return c.recv()
}

func (c *client) send(command uint16, payload []byte) error {
	c.replyID++
	p := packet{
		command:   command,
		sessionID: c.session,
		replyID:   c.replyID,
		payload:   payload,
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.Timeout)); err != nil {
		return err
	}
	_, err := c.conn.Write(p.marshal())
	return err
}

func (c *client) recv() (packet, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.Timeout)); err != nil {
		return packet{}, err
	}
	n, err := c.conn.Read(c.buf[:])
	if err != nil {
		return packet{}, err
	}
	return unmarshalPacket(c.buf[:n])
}

// readAttendanceLogs drains the stored attendance buffer. Large buffers
// arrive as a CMD_PREPARE_DATA announcement followed by CMD_DATA chunks.
func (c *client) readAttendanceLogs() ([]device.LogEntry, error) {
	reply, err := c.roundTrip(cmdAttLogRead, nil)
	if err != nil {
		return nil, err
	}

	var data []byte
	switch reply.command {
	case cmdAckOK:
		// Small buffers come back inline.
		data = reply.payload
	case cmdPrepareData:
		if len(reply.payload) < 4 {
			return nil, fmt.Errorf("%w: prepare-data without size", device.ErrInvalidReply)
		}
		size := int(binary.LittleEndian.Uint32(reply.payload[:4]))
		data = make([]byte, 0, size)
		for len(data) < size {
			chunk, err := c.recv()
			if err != nil {
				return nil, err
			}
			switch chunk.command {
			case cmdData:
				data = append(data, chunk.payload...)
			case cmdAckOK:
				// Device finished early; trust what we have.
				size = len(data)
			default:
				return nil, fmt.Errorf("%w: unexpected reply %d during data transfer", device.ErrInvalidReply, chunk.command)
			}
		}
		_ = c.send(cmdFreeData, nil)
	default:
		return nil, fmt.Errorf("%w: unexpected reply %d to attendance read", device.ErrInvalidReply, reply.command)
	}

	sourceAddr := c.conn.RemoteAddr().String()
	var entries []device.LogEntry
	for off := 0; off+attRecordSize <= len(data); off += attRecordSize {
		entry, err := parseAttRecord(data[off:off+attRecordSize], sourceAddr)
		if err != nil {
			// A single corrupt record must not lose the rest of the buffer.
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// registerRealtime subscribes the session to pushed attendance events.
func (c *client) registerRealtime() error {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint32(payload, efAttLog)
	reply, err := c.roundTrip(cmdRegEvent, payload)
	if err != nil {
		return err
	}
	if reply.command != cmdAckOK {
		return fmt.Errorf("%w: event registration refused (%d)", device.ErrDeviceUnavailable, reply.command)
	}
	return nil
}

// nextRealtimeEvent blocks until the device pushes a punch or the read
// deadline passes.
func (c *client) nextRealtimeEvent(deadline time.Time) (device.LogEntry, error) {
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return device.LogEntry{}, err
	}
	n, err := c.conn.Read(c.buf[:])
	if err != nil {
		return device.LogEntry{}, err
	}
	p, err := unmarshalPacket(c.buf[:n])
	if err != nil {
		return device.LogEntry{}, err
	}
	if p.command != cmdRegEvent {
		return device.LogEntry{}, fmt.Errorf("%w: unexpected packet %d on realtime session", device.ErrInvalidReply, p.command)
	}
	return parseRealtimeEvent(p.payload, c.conn.RemoteAddr().String())
}

// isTimeout reports whether err is a network timeout, which on a realtime
// session just means "no punches yet".
func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
