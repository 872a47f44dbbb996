// Package backup implements the concurrent backup pipeline: per-member
// enumeration producers, a deduplicating bounded queue, and a fixed pool
// of download consumers with a two-phase shutdown handshake.
package backup

import (
	"sync"

	"github.com/dbxbak/dbxbak/internal/types"
)

// WorkItem pairs a remote entry with the member that owns it. Identity is
// the provider-assigned entry ID; the member is carried only so the
// download can act as the right user.
type WorkItem struct {
	Entry  types.FileMetadata
	Member types.Member
}

// ID returns the item's stable identity
func (w WorkItem) ID() string {
	return w.Entry.EntryID
}

// queueItem is the tagged union travelling through the queue: either a
// WorkItem or the stop sentinel. Keeping the sentinel a distinct variant
// means no legitimate item can ever be mistaken for it.
type queueItem struct {
	work     WorkItem
	sentinel bool
}

// SetQueue is a blocking FIFO hand-off between producers and consumers
// with two extra guarantees: an item (by ID) is accepted at most once for
// the lifetime of the queue, and the number of pending items never
// exceeds the configured capacity, blocking producers when full.
//
// Sentinels are exempt from deduplication so that exactly N sentinels
// reach exactly N consumers; they still respect capacity.
//
// The seen-set is never pruned: it grows with the number of distinct
// items enqueued during one run, which is bounded by the team's file
// population.
type SetQueue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	items    []queueItem
	maxSize  int
	seen     map[string]struct{}
}

// NewSetQueue creates a queue with the given capacity; 0 means unbounded.
func NewSetQueue(maxSize int) *SetQueue {
	q := &SetQueue{
		maxSize: maxSize,
		seen:    make(map[string]struct{}),
	}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

func (q *SetQueue) full() bool {
	return q.maxSize > 0 && len(q.items) >= q.maxSize
}

// Put enqueues a work item. A duplicate of an item ever enqueued before
// is a silent no-op and returns immediately, even when the queue is full.
// A new item blocks while the queue is at capacity.
func (q *SetQueue) Put(item WorkItem) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, dup := q.seen[item.ID()]; dup {
		return
	}
	// Marked before waiting so concurrent duplicates no-op instead of
	// queueing up behind a full queue.
	q.seen[item.ID()] = struct{}{}

	for q.full() {
		q.notFull.Wait()
	}
	q.items = append(q.items, queueItem{work: item})
	q.notEmpty.Signal()
}

// PutSentinel enqueues one stop marker. Every call delivers a distinct
// sentinel; they are never deduplicated.
func (q *SetQueue) PutSentinel() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.full() {
		q.notFull.Wait()
	}
	q.items = append(q.items, queueItem{sentinel: true})
	q.notEmpty.Signal()
}

// Get blocks until an item is available. ok is false when the received
// item is a sentinel; the caller must stop and must not call Get again.
func (q *SetQueue) Get() (item WorkItem, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 {
		q.notEmpty.Wait()
	}
	head := q.items[0]
	q.items = q.items[1:]
	q.notFull.Signal()

	if head.sentinel {
		return WorkItem{}, false
	}
	return head.work, true
}

// Len returns the number of pending items
func (q *SetQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
