// Package proto defines the fixed-size wire frames exchanged between the
// request server and its client, and their little-endian encoding.
package proto

import (
	"encoding/binary"
	"errors"
	"io"
	"time"
)

// RequestSize is the encoded byte length of a Request frame.
const RequestSize = 8 + 8 + 8 + 8 + 8

// ResponseSize is the encoded byte length of a Response frame.
const ResponseSize = 8 + 1

// ErrMalformedDuration reports a (seconds, nanoseconds) pair outside the
// domain 0 <= ns < 1e9, ns >= 0, s >= 0.
var ErrMalformedDuration = errors.New("proto: malformed duration")

// Timespec is a (seconds, nanoseconds) pair in a monotonic-clock domain,
// mirroring the wire representation of struct timespec used by the
// reference protocol.
type Timespec struct {
	Seconds     int64
	Nanoseconds int64
}

// Duration converts t to a time.Duration. Callers must validate t first;
// Duration does not range-check.
func (t Timespec) Duration() time.Duration {
	return time.Duration(t.Seconds)*time.Second + time.Duration(t.Nanoseconds)*time.Nanosecond
}

// Validate reports whether t is a well-formed non-negative duration.
func (t Timespec) Validate() error {
	if t.Seconds < 0 || t.Nanoseconds < 0 || t.Nanoseconds >= 1_000_000_000 {
		return ErrMalformedDuration
	}
	return nil
}

// String renders t as seconds with a fixed six-digit fractional part,
// matching the reference server's printf("%lf", ...) formatting.
func (t Timespec) String() string {
	whole := t.Seconds
	frac := t.Nanoseconds / 1000 // microsecond resolution, at least
	return formatFixed(whole, frac)
}

// FromDuration builds a Timespec from a time.Duration measured against the
// monotonic clock.
func FromDuration(d time.Duration) Timespec {
	s := int64(d / time.Second)
	ns := int64(d % time.Second)
	return Timespec{Seconds: s, Nanoseconds: ns}
}

// Request is the fixed-size frame a client sends to request service.
type Request struct {
	ReqID     uint64
	Timestamp Timespec // client-side send time, client's monotonic domain
	Length    Timespec // requested synthetic service duration, >= 0
}

// Response is the fixed-size frame the server sends back to the client.
type Response struct {
	ReqID uint64
	Ack   uint8 // 0 = completed, 1 = rejected for overflow
}

const (
	// AckCompleted marks a response to an accepted, now-completed request.
	AckCompleted uint8 = 0
	// AckRejected marks a response to a request rejected for queue overflow.
	AckRejected uint8 = 1
)

// ReadRequest reads exactly one Request frame from r. A zero-byte read (EOF
// before any byte is consumed) is reported as io.EOF; a partial frame is
// reported as io.ErrUnexpectedEOF. Both are treated by callers as an
// orderly client disconnect.
func ReadRequest(r io.Reader) (Request, error) {
	var buf [RequestSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Request{}, err
	}
	req := Request{
		ReqID: binary.LittleEndian.Uint64(buf[0:8]),
		Timestamp: Timespec{
			Seconds:     int64(binary.LittleEndian.Uint64(buf[8:16])),
			Nanoseconds: int64(binary.LittleEndian.Uint64(buf[16:24])),
		},
		Length: Timespec{
			Seconds:     int64(binary.LittleEndian.Uint64(buf[24:32])),
			Nanoseconds: int64(binary.LittleEndian.Uint64(buf[32:40])),
		},
	}
	return req, nil
}

// EncodeResponse encodes resp into its fixed-size wire representation.
func EncodeResponse(resp Response) [ResponseSize]byte {
	var buf [ResponseSize]byte
	binary.LittleEndian.PutUint64(buf[0:8], resp.ReqID)
	buf[8] = resp.Ack
	return buf
}

// WriteResponse writes a Response frame to w.
func WriteResponse(w io.Writer, resp Response) (int, error) {
	buf := EncodeResponse(resp)
	return w.Write(buf[:])
}

// formatFixed renders whole seconds and microsecond-resolution fraction as
// "<seconds>.<frac>" with a fixed six-digit fractional part.
func formatFixed(whole, fracMicros int64) string {
	const pad = "000000"
	s := itoa(fracMicros)
	if len(s) < 6 {
		s = pad[:6-len(s)] + s
	}
	return itoa(whole) + "." + s
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
