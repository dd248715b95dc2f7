package zkteco

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/medicore-hms/attendance-backend-go/internal/domain/device"
)

// Command words of the terminal's binary protocol.
const (
	cmdConnect     = 1000
	cmdExit        = 1001
	cmdAuth        = 1102
	cmdAttLogRead  = 13
	cmdRegEvent    = 500
	cmdAckOK       = 2000
	cmdAckError    = 2001
	cmdAckUnauth   = 2005
	cmdPrepareData = 1500
	cmdData        = 1501
	cmdFreeData    = 1502

	// Realtime event flag for attendance punches.
	efAttLog = 1
)

const headerSize = 8

// attRecordSize is the on-wire size of one stored attendance record.
const attRecordSize = 40

// packet is one protocol datagram: an 8-byte header (command, checksum,
// session id, reply id, all little-endian uint16) followed by the payload.
type packet struct {
	command   uint16
	sessionID uint16
	replyID   uint16
	payload   []byte
}

func (p packet) marshal() []byte {
	buf := make([]byte, headerSize+len(p.payload))
	binary.LittleEndian.PutUint16(buf[0:2], p.command)
	binary.LittleEndian.PutUint16(buf[4:6], p.sessionID)
	binary.LittleEndian.PutUint16(buf[6:8], p.replyID)
	copy(buf[headerSize:], p.payload)
	binary.LittleEndian.PutUint16(buf[2:4], checksum(buf))
	return buf
}

func unmarshalPacket(buf []byte) (packet, error) {
	if len(buf) < headerSize {
		return packet{}, fmt.Errorf("%w: short packet (%d bytes)", device.ErrInvalidReply, len(buf))
	}
	p := packet{
		command:   binary.LittleEndian.Uint16(buf[0:2]),
		sessionID: binary.LittleEndian.Uint16(buf[4:6]),
		replyID:   binary.LittleEndian.Uint16(buf[6:8]),
		payload:   append([]byte(nil), buf[headerSize:]...),
	}
	want := binary.LittleEndian.Uint16(buf[2:4])
	if got := checksum(buf); got != want {
		return packet{}, fmt.Errorf("%w: checksum mismatch (got %#x, want %#x)", device.ErrInvalidReply, got, want)
	}
	return p, nil
}

// checksum is the 16-bit ones' complement word sum the terminal expects,
// computed with the checksum field itself zeroed.
func checksum(buf []byte) uint16 {
	var sum uint32
	for i := 0; i+1 < len(buf); i += 2 {
		if i == 2 {
			continue // checksum field
		}
		sum += uint32(binary.LittleEndian.Uint16(buf[i : i+2]))
	}
	if len(buf)%2 == 1 {
		sum += uint32(buf[len(buf)-1])
	}
	for sum > 0xffff {
		sum = (sum & 0xffff) + (sum >> 16)
	}
	return uint16(^sum) & 0xffff
}

// decodePackedTime expands the terminal's packed 32-bit timestamp. The
// device clock has no zone; values are taken as local wall-clock time.
func decodePackedTime(v uint32) time.Time {
	sec := int(v % 60)
	v /= 60
	min := int(v % 60)
	v /= 60
	hour := int(v % 24)
	v /= 24
	day := int(v%31) + 1
	v /= 31
	month := time.Month(v%12) + 1
	v /= 12
	year := int(v) + 2000
	return time.Date(year, month, day, hour, min, sec, 0, time.Local)
}

func encodePackedTime(t time.Time) uint32 {
	return ((uint32(t.Year()-2000)*12+uint32(t.Month())-1)*31+uint32(t.Day())-1)*24*60*60 +
		uint32(t.Hour())*3600 + uint32(t.Minute())*60 + uint32(t.Second())
}

// parseAttRecord decodes one stored attendance record:
//
//	[0:2]   sequence number
//	[2:26]  user id, NUL-padded ASCII
//	[26]    verify type
//	[27:31] packed timestamp
//	[31]    state code
//	[32:40] reserved
func parseAttRecord(buf []byte, sourceAddr string) (device.LogEntry, error) {
	if len(buf) < attRecordSize {
		return device.LogEntry{}, fmt.Errorf("%w: attendance record too short (%d bytes)", device.ErrInvalidReply, len(buf))
	}

	userID := string(bytes.TrimRight(buf[2:26], "\x00"))
	if userID == "" {
		return device.LogEntry{}, fmt.Errorf("%w: attendance record with empty user id", device.ErrInvalidReply)
	}

	return device.LogEntry{
		DeviceUserID: userID,
		Timestamp:    decodePackedTime(binary.LittleEndian.Uint32(buf[27:31])),
		RawDirection: int(buf[31]),
		SourceAddr:   sourceAddr,
	}, nil
}

// parseRealtimeEvent decodes a pushed attendance event. Realtime payloads
// use a different shape than stored records: the timestamp arrives as six
// calendar bytes instead of the packed form.
//
//	[0:24] user id, NUL-padded ASCII
//	[24]   state code
//	[25]   verify type
//	[26:32] year-2000, month, day, hour, minute, second
func parseRealtimeEvent(buf []byte, sourceAddr string) (device.LogEntry, error) {
	if len(buf) < 32 {
		return device.LogEntry{}, fmt.Errorf("%w: realtime event too short (%d bytes)", device.ErrInvalidReply, len(buf))
	}

	userID := string(bytes.TrimRight(buf[0:24], "\x00"))
	if userID == "" {
		return device.LogEntry{}, fmt.Errorf("%w: realtime event with empty user id", device.ErrInvalidReply)
	}

	ts := time.Date(
		int(buf[26])+2000, time.Month(buf[27]), int(buf[28]),
		int(buf[29]), int(buf[30]), int(buf[31]), 0, time.Local,
	)

	return device.LogEntry{
		DeviceUserID: userID,
		Timestamp:    ts,
		RawDirection: int(buf[24]),
		SourceAddr:   sourceAddr,
	}, nil
}

// makeCommKey derives the connect-time authentication payload from the
// configured comm key and the session id, per the vendor's scheme: the key
// is bit-reversed, offset by the session id, then XOR-folded with a fixed
// tag.
func makeCommKey(key int, sessionID uint16) []byte {
	var rev uint32
	k := uint32(key)
	for i := 0; i < 32; i++ {
		rev <<= 1
		rev |= k & 1
		k >>= 1
	}
	rev += uint32(sessionID)

	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, rev)
	tag := []byte{'Z', 'K', 'S', 'O'}
	for i := range buf {
		buf[i] ^= tag[i]
	}
	buf[0], buf[1] = buf[1], buf[0]
	buf[2], buf[3] = buf[3], buf[2]
	return buf
}
