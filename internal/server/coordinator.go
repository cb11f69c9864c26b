// Package server implements the connection-scoped coordinator and its
// producer (receiver) and consumer (worker) halves: the request-processing
// core of the server.
package server

import (
	"context"
	"fmt"
	"io"
	"net"

	"golang.org/x/sync/errgroup"

	"github.com/renatolabs/reqfifo/internal/metrics"
	"github.com/renatolabs/reqfifo/internal/queue"
)

// Params configures a single connection's Coordinator.
type Params struct {
	// QueueSize is the bounded queue's fixed capacity (must be > 0).
	QueueSize int
	// Metrics is optional; nil disables instrumentation.
	Metrics *metrics.Connection
	// Log is where log lines are written. Defaults to nil-safe no-op if
	// left unset by the zero value (callers should set it explicitly).
	Log io.Writer
}

// Coordinator owns the bounded queue and a single connection's lifetime:
// it spawns the consumer, runs the producer inline, and on teardown
// signals the consumer to exit and joins it.
type Coordinator struct {
	params Params
	log    *logger
}

// NewCoordinator constructs a Coordinator for a freshly accepted
// connection.
func NewCoordinator(params Params) *Coordinator {
	return &Coordinator{params: params, log: newLogger(params.Log)}
}

// Run executes the full connection lifecycle: allocate the queue, spawn
// the consumer, run the producer on the caller's goroutine, then tear
// down in order. It returns only after the consumer has joined and the
// connection has been shut down and closed.
func (c *Coordinator) Run(ctx context.Context, conn net.Conn) error {
	defer conn.Close()

	q, err := queue.New(c.params.QueueSize)
	if err != nil {
		c.shutdownConn(conn)
		return fmt.Errorf("server: allocate queue: %w", err)
	}

	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(cctx)

	cons := &consumer{conn: conn, q: q, log: c.log, metrics: c.params.Metrics}
	g.Go(func() error {
		c.log.info("worker thread started")
		cons.run(gctx)
		c.log.info("worker thread exited")
		return nil
	})

	prod := &producer{conn: conn, q: q, log: c.log, metrics: c.params.Metrics}
	runErr := prod.run()

	// Producer returned (client disconnected, or a transport error):
	// signal the consumer and wait for it to drain any still-queued
	// items and exit. The errgroup context is canceled only via the
	// deferred cancel() above, which runs after the wait (canceling it here would
	// race the queue's own shutdown wake against any request still
	// sitting in the queue and could drop it before it completes).
	q.Shutdown()
	_ = g.Wait()

	c.shutdownConn(conn)
	c.log.info("client disconnected")

	return runErr
}

func (c *Coordinator) shutdownConn(conn net.Conn) {
	if tc, ok := conn.(interface{ CloseWrite() error }); ok {
		_ = tc.CloseWrite()
	}
	if tc, ok := conn.(interface{ CloseRead() error }); ok {
		_ = tc.CloseRead()
	}
}
