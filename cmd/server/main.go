// Command server accepts a single client connection on the given port and
// processes its requests in strict FIFO order behind a bounded admission
// queue. Argument parsing and the bind/listen/accept boilerplate are
// trivial glue kept to a thin main package.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"

	"github.com/renatolabs/reqfifo/internal/metrics"
	"github.com/renatolabs/reqfifo/internal/server"
)

// defaultQueueSize is used when -q is omitted, an intentional, documented
// default rather than a required flag.
const defaultQueueSize = 500

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(stderr)
	queueSize := fs.Int("q", defaultQueueSize, "maximum number of queued requests")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *queueSize <= 0 {
		fmt.Fprintln(stderr, "Invalid queue size")
		return 1
	}

	if fs.NArg() != 1 {
		fmt.Fprintf(stderr, "Usage: %s [-q queue_size] <port_number>\n", os.Args[0])
		return 1
	}

	port := fs.Arg(0)
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		fmt.Fprintln(stderr, "Unable to bind/listen:", err)
		return 1
	}
	defer listener.Close()

	fmt.Fprintln(stdout, "INFO: Waiting for incoming connection...")
	conn, err := listener.Accept()
	if err != nil {
		fmt.Fprintln(stderr, "Unable to accept connection:", err)
		return 1
	}

	connMetrics := metrics.NewConnection()
	coord := server.NewCoordinator(server.Params{
		QueueSize: *queueSize,
		Metrics:   connMetrics,
		Log:       stdout,
	})

	if err := coord.Run(context.Background(), conn); err != nil {
		fmt.Fprintln(stderr, "WARN: connection ended with error:", err)
	}

	return 0
}
