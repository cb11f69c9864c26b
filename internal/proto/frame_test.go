package proto

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestRoundTrip(t *testing.T) {
	req := Request{
		ReqID:     7,
		Timestamp: Timespec{Seconds: 100, Nanoseconds: 0},
		Length:    Timespec{Seconds: 0, Nanoseconds: 500_000_000},
	}

	var buf bytes.Buffer
	var raw [RequestSize]byte
	putTimespec := func(off int, ts Timespec) {
		putU64(raw[off:], uint64(ts.Seconds))
		putU64(raw[off+8:], uint64(ts.Nanoseconds))
	}
	putU64(raw[0:], req.ReqID)
	putTimespec(8, req.Timestamp)
	putTimespec(24, req.Length)
	buf.Write(raw[:])

	got, err := ReadRequest(&buf)
	require.NoError(t, err)
	require.Equal(t, req, got)
}

func TestReadRequestShortFrame(t *testing.T) {
	_, err := ReadRequest(bytes.NewReader(make([]byte, RequestSize-1)))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReadRequestEOF(t *testing.T) {
	_, err := ReadRequest(bytes.NewReader(nil))
	require.ErrorIs(t, err, io.EOF)
}

func TestWriteResponse(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteResponse(&buf, Response{ReqID: 42, Ack: AckRejected})
	require.NoError(t, err)
	require.Equal(t, ResponseSize, n)
	require.Equal(t, uint64(42), getU64(buf.Bytes()[0:8]))
	require.Equal(t, AckRejected, buf.Bytes()[8])
}

func TestTimespecString(t *testing.T) {
	cases := map[Timespec]string{
		{Seconds: 100, Nanoseconds: 0}:         "100.000000",
		{Seconds: 0, Nanoseconds: 500_000_000}: "0.500000",
		{Seconds: 0, Nanoseconds: 0}:           "0.000000",
	}
	for ts, want := range cases {
		require.Equal(t, want, ts.String())
	}
}

func TestTimespecValidate(t *testing.T) {
	require.NoError(t, Timespec{Seconds: 0, Nanoseconds: 0}.Validate())
	require.ErrorIs(t, Timespec{Seconds: -1}.Validate(), ErrMalformedDuration)
	require.ErrorIs(t, Timespec{Nanoseconds: 1_000_000_000}.Validate(), ErrMalformedDuration)
}

func putU64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func getU64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}
