package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/renatolabs/reqfifo/internal/proto"
)

func meta(id uint64) RequestMetadata {
	return RequestMetadata{Request: proto.Request{ReqID: id}}
}

func TestNewRejectsNonPositiveCapacity(t *testing.T) {
	_, err := New(0)
	require.ErrorIs(t, err, ErrInvalidCapacity)
	_, err = New(-1)
	require.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestFIFOOrder(t *testing.T) {
	q, err := New(100)
	require.NoError(t, err)

	for i := uint64(1); i <= 50; i++ {
		require.NoError(t, q.TryEnqueue(meta(i)))
	}

	ctx := context.Background()
	for i := uint64(1); i <= 50; i++ {
		item, ok := q.Dequeue(ctx)
		require.True(t, ok)
		require.Equal(t, i, item.Request.ReqID)
	}
}

func TestOverflowRejectsAtExactCapacity(t *testing.T) {
	q, err := New(1)
	require.NoError(t, err)

	require.NoError(t, q.TryEnqueue(meta(1)))
	err = q.TryEnqueue(meta(2))
	require.ErrorIs(t, err, ErrFull)

	ctx := context.Background()
	item, ok := q.Dequeue(ctx)
	require.True(t, ok)
	require.Equal(t, uint64(1), item.Request.ReqID)

	// Capacity freed: a subsequent enqueue now succeeds.
	require.NoError(t, q.TryEnqueue(meta(3)))
}

func TestSnapshotIDsReflectsOrder(t *testing.T) {
	q, err := New(5)
	require.NoError(t, err)
	for _, id := range []uint64{1, 2, 3, 4} {
		require.NoError(t, q.TryEnqueue(meta(id)))
	}

	require.Equal(t, []uint64{1, 2, 3, 4}, q.SnapshotIDs())

	ctx := context.Background()
	_, ok := q.Dequeue(ctx)
	require.True(t, ok)

	require.Equal(t, []uint64{2, 3, 4}, q.SnapshotIDs())
}

func TestSnapshotIDsEmptyIsEmptyNotNilSlice(t *testing.T) {
	q, err := New(5)
	require.NoError(t, err)
	ids := q.SnapshotIDs()
	require.NotNil(t, ids)
	require.Len(t, ids, 0)
}

func TestShutdownUnblocksEmptyDequeue(t *testing.T) {
	q, err := New(3)
	require.NoError(t, err)

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Dequeue(context.Background())
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	q.Shutdown()

	select {
	case ok := <-done:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not unblock after Shutdown")
	}
}

func TestShutdownDrainsRemainingItemsFirst(t *testing.T) {
	q, err := New(3)
	require.NoError(t, err)
	require.NoError(t, q.TryEnqueue(meta(1)))
	require.NoError(t, q.TryEnqueue(meta(2)))

	q.Shutdown()

	ctx := context.Background()
	item, ok := q.Dequeue(ctx)
	require.True(t, ok)
	require.Equal(t, uint64(1), item.Request.ReqID)

	item, ok = q.Dequeue(ctx)
	require.True(t, ok)
	require.Equal(t, uint64(2), item.Request.ReqID)

	_, ok = q.Dequeue(ctx)
	require.False(t, ok)
}

func TestShutdownIdempotent(t *testing.T) {
	q, err := New(1)
	require.NoError(t, err)
	require.NotPanics(t, func() {
		q.Shutdown()
		q.Shutdown()
	})
}

func TestNeverExceedsCapacity(t *testing.T) {
	q, err := New(2)
	require.NoError(t, err)
	require.NoError(t, q.TryEnqueue(meta(1)))
	require.NoError(t, q.TryEnqueue(meta(2)))
	require.ErrorIs(t, q.TryEnqueue(meta(3)), ErrFull)
	require.LessOrEqual(t, len(q.SnapshotIDs()), q.Capacity())
}
