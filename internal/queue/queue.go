// Package queue implements the bounded FIFO admission queue shared between
// the producer (receiver) and consumer (worker) goroutines of a single
// connection.
//
// The hot payload path is a lock-free code.hybscloud.com/lfq.SPSC ring,
// matching the single-producer/single-consumer shape the server always
// runs under. lfq rounds capacity up to the next power of two internally;
// an atomix.Int64 admission counter enforces the caller's exact requested
// capacity so that rounding never leaks into the external contract (P4).
// A small mutex-guarded id ledger mirrors enqueue/dequeue order so that
// SnapshotIDs can report front-to-rear req_ids without reaching into the
// ring's lock-free internals, which expose no safe traversal.
package queue

import (
	"context"
	"errors"
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"

	"github.com/renatolabs/reqfifo/internal/proto"
)

// ErrInvalidCapacity is returned by New when capacity <= 0.
var ErrInvalidCapacity = errors.New("queue: capacity must be positive")

// ErrFull is returned by TryEnqueue when the queue is at capacity.
var ErrFull = errors.New("queue: full")

// RequestMetadata wraps a Request with the server-side timestamps recorded
// as it moves through the queue. Rejected discriminates the two
// timestamp-validity regimes instead of leaving Start/Completion
// "undefined" for rejects, since a zero-value proto.Timespec is a
// legitimate timestamp and cannot double as an undefined marker.
type RequestMetadata struct {
	Request  proto.Request
	Receipt  proto.Timespec
	Start    proto.Timespec
	Complete proto.Timespec
	Reject   proto.Timespec
	Rejected bool
}

// Queue is a bounded FIFO queue of RequestMetadata, fixed at construction.
type Queue struct {
	capacity int
	ring     *lfq.SPSC[RequestMetadata]
	admitted atomix.Int64 // exact logical size, bounded by capacity

	notify chan struct{} // counting dequeue-wake signal, buffered

	mu  sync.Mutex
	ids []uint64 // ledger mirroring ring order, front at index 0

	closeOnce sync.Once
	closed    chan struct{}
}

// New constructs an empty queue of fixed capacity. Fails if capacity <= 0.
func New(capacity int) (*Queue, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	ringCap := capacity
	if ringCap < 2 {
		ringCap = 2 // lfq.NewSPSC requires capacity >= 2
	}
	return &Queue{
		capacity: capacity,
		ring:     lfq.NewSPSC[RequestMetadata](ringCap),
		notify:   make(chan struct{}, capacity+1), // room for one wake per admitted item
		ids:      make([]uint64, 0, capacity),
		closed:   make(chan struct{}),
	}, nil
}

// Capacity returns the queue's fixed, exact capacity.
func (q *Queue) Capacity() int {
	return q.capacity
}

// TryEnqueue appends item at the rear, or returns ErrFull without
// modifying the queue. On success it wakes at most one blocked dequeuer.
// Single-producer only.
func (q *Queue) TryEnqueue(item RequestMetadata) error {
	if q.admitted.Add(1) > int64(q.capacity) {
		q.admitted.Add(-1)
		return ErrFull
	}

	if err := q.ring.Enqueue(&item); err != nil {
		// Cannot happen: the admission counter never lets more than
		// capacity items be in flight, and the ring's rounded-up
		// capacity is always >= capacity.
		q.admitted.Add(-1)
		return ErrFull
	}

	q.mu.Lock()
	q.ids = append(q.ids, item.Request.ReqID)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

// Dequeue blocks until an item is available or Shutdown is called (or ctx
// is done). The boolean result is false exactly when no item was
// returned: either ctx was canceled, or shutdown was posted with an empty
// queue. Single-consumer only.
func (q *Queue) Dequeue(ctx context.Context) (RequestMetadata, bool) {
	var backoff iox.Backoff
	for {
		select {
		case <-q.notify:
		case <-q.closed:
			// Shutdown may race a pending notify; drain without
			// blocking so a real item already signaled is not lost.
			select {
			case <-q.notify:
			default:
				return RequestMetadata{}, false
			}
		case <-ctx.Done():
			return RequestMetadata{}, false
		}

		item, err := q.ring.Dequeue()
		if err != nil {
			// Woken with an empty ring: only reachable via a
			// shutdown post that raced an already-drained queue.
			// The notify/ring pair is usually consistent by the
			// time we get here, so this is rare; back off per
			// the ecosystem's documented retry pattern rather
			// than spinning the select tight.
			if lfq.IsWouldBlock(err) {
				backoff.Wait()
				continue
			}
			return RequestMetadata{}, false
		}
		backoff.Reset()

		q.admitted.Add(-1)
		q.mu.Lock()
		if len(q.ids) > 0 {
			q.ids = q.ids[1:]
		}
		q.mu.Unlock()
		return item, true
	}
}

// SnapshotIDs atomically reads the current req_id sequence, front to rear,
// without modifying the queue.
func (q *Queue) SnapshotIDs() []uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]uint64, len(q.ids))
	copy(out, q.ids)
	return out
}

// Shutdown closes the queue's shutdown signal without adding an item: a
// consumer parked in Dequeue wakes, and from then on every Dequeue that
// finds no pending item returns false. Idempotent.
func (q *Queue) Shutdown() {
	q.closeOnce.Do(func() {
		close(q.closed)
	})
}
