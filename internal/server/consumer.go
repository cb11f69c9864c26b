package server

import (
	"context"

	sbufio "github.com/sagernet/sing/common/bufio"

	"github.com/renatolabs/reqfifo/internal/clock"
	"github.com/renatolabs/reqfifo/internal/metrics"
	"github.com/renatolabs/reqfifo/internal/proto"
	"github.com/renatolabs/reqfifo/internal/queue"
	"github.com/renatolabs/reqfifo/internal/wait"
)

// consumer is the worker half of a connection: it owns the dequeue-capable
// handle on the queue and the write side of conn for completion
// responses.
type consumer struct {
	conn    frameConn
	q       *queue.Queue
	log     *logger
	metrics *metrics.Connection
}

// run emits the worker-alive log line, then repeatedly dequeues a request,
// busy-waits for its declared service duration, stamps completion, sends a
// success response, and logs the completion and queue-snapshot lines.
// It returns when Dequeue reports shutdown (ctx canceled or the queue's
// own Shutdown was posted with nothing left to drain).
func (c *consumer) run(ctx context.Context) {
	c.log.workerAlive(clock.Now())

	for {
		item, ok := c.q.Dequeue(ctx)
		if !ok {
			return
		}

		if err := item.Request.Length.Validate(); err != nil {
			c.log.info("WARN: skipping malformed request length for req_id=" +
				itoa(item.Request.ReqID) + ": " + err.Error())
			continue
		}

		item.Start = clock.Now()
		wait.Busy(item.Request.Length.Duration())
		item.Complete = clock.Now()

		c.sendResponse(proto.Response{ReqID: item.Request.ReqID, Ack: proto.AckCompleted})

		ids := c.q.SnapshotIDs()
		if c.metrics != nil {
			c.metrics.Completed.Inc()
			c.metrics.QueueSize.Set(float64(len(ids)))
		}

		c.log.completion(item)
		c.log.snapshot(ids)
	}
}

// sendResponse writes a response frame, preferring the connection's
// vectorised-write path when available. A send failure is logged but
// does not abort the worker loop.
func (c *consumer) sendResponse(resp proto.Response) {
	buf := proto.EncodeResponse(resp)

	if bw, ok := sbufio.CreateVectorisedWriter(c.conn); ok {
		if _, werr := sbufio.WriteVectorised(bw, [][]byte{buf[:]}); werr != nil {
			c.log.info("WARN: failed to send response: " + werr.Error())
		}
		return
	}

	if _, werr := c.conn.Write(buf[:]); werr != nil {
		c.log.info("WARN: failed to send response: " + werr.Error())
	}
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var b [20]byte
	i := len(b)
	for v > 0 {
		i--
		b[i] = byte('0' + v%10)
		v /= 10
	}
	return string(b[i:])
}
