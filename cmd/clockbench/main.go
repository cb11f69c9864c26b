// Command clockbench reports ticks elapsed per second over a real-time
// wait, using either the OS-suspending sleep or the non-yielding busy spin
// from internal/wait. The ticks internal/wait reports are monotonic-clock
// nanoseconds, not CPU cycle-counter reads, so ClockSpeed comes out near
// 1000 (MHz) on any host; it does not measure the hardware cycle-counter
// frequency. It is a standalone utility, independent of the
// request-processing core, that exercises internal/wait in isolation.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/renatolabs/reqfifo/internal/wait"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	fs := flag.NewFlagSet("clockbench", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if fs.NArg() != 3 {
		fmt.Fprintln(stderr, "Usage: clockbench <wait_seconds> <wait_nanoseconds> <s|b>")
		return 1
	}

	seconds, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil || seconds < 0 {
		fmt.Fprintln(stderr, "invalid wait_seconds")
		return 1
	}
	nanoseconds, err := strconv.ParseInt(fs.Arg(1), 10, 64)
	if err != nil || nanoseconds < 0 {
		fmt.Fprintln(stderr, "invalid wait_nanoseconds")
		return 1
	}

	d := time.Duration(seconds)*time.Second + time.Duration(nanoseconds)*time.Nanosecond
	waitSeconds := float64(seconds) + float64(nanoseconds)/1e9

	var elapsed uint64
	var method string
	switch fs.Arg(2) {
	case "s":
		method = "SLEEP"
		elapsed = wait.Sleep(d)
	case "b":
		method = "BUSYWAIT"
		elapsed = wait.Busy(d)
	default:
		fmt.Fprintln(stderr, "wait method must be 's' or 'b'")
		return 1
	}

	clockSpeedMHz := float64(elapsed) / waitSeconds / (1000 * 1000)

	fmt.Fprintf(stdout, "WaitMethod: %s\n", method)
	fmt.Fprintf(stdout, "WaitTime: %d %d\n", seconds, nanoseconds)
	fmt.Fprintf(stdout, "ClocksElapsed: %d\n", elapsed)
	fmt.Fprintf(stdout, "ClockSpeed: %f\n", clockSpeedMHz)

	return 0
}
