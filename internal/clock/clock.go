// Package clock centralizes monotonic-clock sampling so that the receipt,
// start, completion, and reject timestamps the server stamps, and the
// elapsed-time measurements the wait primitives report, all come from the
// same clock domain.
package clock

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/renatolabs/reqfifo/internal/proto"
)

// Now samples CLOCK_MONOTONIC and returns it as a Timespec.
func Now() proto.Timespec {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		panic("clock: clock_gettime(CLOCK_MONOTONIC): " + err.Error())
	}
	return proto.Timespec{Seconds: int64(ts.Sec), Nanoseconds: int64(ts.Nsec)}
}

// NowDuration samples CLOCK_MONOTONIC and returns it as a time.Duration
// since an arbitrary epoch, suitable only for computing deltas.
func NowDuration() time.Duration {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		panic("clock: clock_gettime(CLOCK_MONOTONIC): " + err.Error())
	}
	return time.Duration(ts.Sec)*time.Second + time.Duration(ts.Nsec)*time.Nanosecond
}
