package zkteco

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/medicore-hms/attendance-backend-go/internal/domain/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacketRoundTrip(t *testing.T) {
	in := packet{
		command:   cmdConnect,
		sessionID: 0x1234,
		replyID:   7,
		payload:   []byte{0xde, 0xad, 0xbe, 0xef},
	}

	out, err := unmarshalPacket(in.marshal())
	require.NoError(t, err)
	assert.Equal(t, in.command, out.command)
	assert.Equal(t, in.sessionID, out.sessionID)
	assert.Equal(t, in.replyID, out.replyID)
	assert.Equal(t, in.payload, out.payload)
}

func TestUnmarshalPacket_ChecksumMismatch(t *testing.T) {
	buf := packet{command: cmdAckOK, sessionID: 1, replyID: 1}.marshal()
	buf[0] ^= 0xff // corrupt the command word

	_, err := unmarshalPacket(buf)
	assert.ErrorIs(t, err, device.ErrInvalidReply)
}

func TestUnmarshalPacket_Short(t *testing.T) {
	_, err := unmarshalPacket([]byte{1, 2, 3})
	assert.ErrorIs(t, err, device.ErrInvalidReply)
}

func TestPackedTimeRoundTrip(t *testing.T) {
	cases := []time.Time{
		time.Date(2024, time.January, 10, 8, 2, 0, 0, time.Local),
		time.Date(2024, time.January, 10, 17, 5, 30, 0, time.Local),
		time.Date(2031, time.December, 31, 23, 59, 59, 0, time.Local),
	}
	for _, want := range cases {
		got := decodePackedTime(encodePackedTime(want))
		assert.True(t, got.Equal(want), "round trip %v, got %v", want, got)
	}
}

func makeAttRecord(userID string, ts time.Time, state byte) []byte {
	buf := make([]byte, attRecordSize)
	binary.LittleEndian.PutUint16(buf[0:2], 1)
	copy(buf[2:26], userID)
	binary.LittleEndian.PutUint32(buf[27:31], encodePackedTime(ts))
	buf[31] = state
	return buf
}

func TestParseAttRecord(t *testing.T) {
	ts := time.Date(2024, time.January, 10, 8, 2, 0, 0, time.Local)

	entry, err := parseAttRecord(makeAttRecord("7", ts, device.RawStateCheckIn), "192.168.1.100:4370")
	require.NoError(t, err)

	assert.Equal(t, "7", entry.DeviceUserID)
	assert.True(t, entry.Timestamp.Equal(ts))
	assert.Equal(t, device.DirectionIn, entry.Direction())
	assert.Equal(t, "192.168.1.100:4370", entry.SourceAddr)
}

func TestParseAttRecord_EmptyUserID(t *testing.T) {
	_, err := parseAttRecord(make([]byte, attRecordSize), "dev")
	assert.ErrorIs(t, err, device.ErrInvalidReply)
}

func TestParseAttRecord_UnknownState(t *testing.T) {
	ts := time.Date(2024, time.January, 10, 8, 2, 0, 0, time.Local)

	entry, err := parseAttRecord(makeAttRecord("42", ts, 255), "dev")
	require.NoError(t, err)
	assert.Equal(t, device.DirectionUnknown, entry.Direction())
}

func TestParseRealtimeEvent(t *testing.T) {
	buf := make([]byte, 32)
	copy(buf[0:24], "1007")
	buf[24] = device.RawStateCheckOut
	buf[26] = 24 // 2024
	buf[27] = 1
	buf[28] = 10
	buf[29] = 17
	buf[30] = 5
	buf[31] = 0

	entry, err := parseRealtimeEvent(buf, "192.168.1.100:4370")
	require.NoError(t, err)

	assert.Equal(t, "1007", entry.DeviceUserID)
	assert.Equal(t, device.DirectionOut, entry.Direction())
	want := time.Date(2024, time.January, 10, 17, 5, 0, 0, time.Local)
	assert.True(t, entry.Timestamp.Equal(want))
}

func TestMakeCommKey_SessionDependent(t *testing.T) {
	a := makeCommKey(12345, 1)
	b := makeCommKey(12345, 2)
	assert.NotEqual(t, a, b, "comm key payload must bind to the session")
	assert.Len(t, a, 4)
}
