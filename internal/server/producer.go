package server

import (
	"errors"
	"io"

	"github.com/renatolabs/reqfifo/internal/clock"
	"github.com/renatolabs/reqfifo/internal/metrics"
	"github.com/renatolabs/reqfifo/internal/proto"
	"github.com/renatolabs/reqfifo/internal/queue"
)

// frameConn is the minimal surface producer and consumer each need from a
// connection: producer only ever reads requests and writes reject frames,
// consumer only ever writes completion frames. Narrowing to this interface
// (instead of net.Conn) keeps both testable against a generated mock
// without a real socket.
type frameConn interface {
	io.Reader
	io.Writer
}

// producer is the receiver half of a connection: it owns the read side of
// conn and the enqueue-capable handle on the queue. It never sends
// completion responses, only reject responses for admission failures,
// keeping the dedicated read loop and the dedicated send loop separate.
type producer struct {
	conn    frameConn
	q       *queue.Queue
	log     *logger
	metrics *metrics.Connection
}

// run reads fixed-size request frames until the client disconnects
// or a non-retryable transport error occurs, enqueuing each one and
// rejecting immediately on overflow. It returns nil on orderly disconnect;
// any other error is a transport error for the caller to log.
func (p *producer) run() error {
	for {
		req, err := proto.ReadRequest(p.conn)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}

		receipt := clock.Now()
		item := queue.RequestMetadata{Request: req, Receipt: receipt}

		if err := p.q.TryEnqueue(item); err != nil {
			item.Reject = clock.Now()
			item.Rejected = true

			if p.metrics != nil {
				p.metrics.Rejected.Inc()
			}

			if _, werr := proto.WriteResponse(p.conn, proto.Response{
				ReqID: req.ReqID,
				Ack:   proto.AckRejected,
			}); werr != nil {
				// Logged, not fatal: a send failure on a reject does not
				// terminate the receive loop.
				p.log.info("WARN: failed to send reject response: " + werr.Error())
			}
			p.log.reject(item)
			continue
		}

		if p.metrics != nil {
			p.metrics.Accepted.Inc()
		}
	}
}
