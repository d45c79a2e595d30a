package core

import (
	"sync/atomic"
)

const (
	postQueueSize = 256
	postQueueMask = postQueueSize - 1
)

// PostedEvent is one cross-goroutine event awaiting main-thread dispatch.
type PostedEvent struct {
	Type StringHash
	Data EventData
}

// PostQueue is a lock-free MPSC ring buffer bridging worker goroutines
// (the audio mixer in particular) to the main dispatch goroutine.
//
// Thread-Safety:
//   - Push: lock-free CAS, multiple producers OK
//   - Consume: single consumer (main goroutine)
//   - Published flags prevent reading partial writes
//
// Overflow: oldest events are overwritten when full.
type PostQueue struct {
	events    [postQueueSize]PostedEvent
	published [postQueueSize]atomic.Bool // true = slot fully written
	head      atomic.Uint64              // read index
	tail      atomic.Uint64              // write index
}

func NewPostQueue() *PostQueue {
	return &PostQueue{}
}

// Push adds an event using lock-free CAS with published flags.
// Safe for concurrent producers. O(1) amortized.
func (q *PostQueue) Push(event PostedEvent) {
	for {
		currentTail := q.tail.Load()
		nextTail := currentTail + 1

		if q.tail.CompareAndSwap(currentTail, nextTail) {
			idx := currentTail & postQueueMask

			q.events[idx] = event
			q.published[idx].Store(true) // MUST be after write

			// Advance head if overwriting unread events
			currentHead := q.head.Load()
			if nextTail-currentHead > postQueueSize {
				q.head.CompareAndSwap(currentHead, nextTail-postQueueSize)
			}
			return
		}
	}
}

// Consume returns all pending events in FIFO order and advances head.
// Single-consumer design; checks published flags for safety.
func (q *PostQueue) Consume() []PostedEvent {
	for {
		currentHead := q.head.Load()
		currentTail := q.tail.Load()

		if currentTail == currentHead {
			return nil
		}

		maxAvailable := currentTail - currentHead
		if maxAvailable > postQueueSize {
			maxAvailable = postQueueSize
			currentHead = currentTail - postQueueSize
		}

		result := make([]PostedEvent, 0, maxAvailable)
		for i := uint64(0); i < maxAvailable; i++ {
			idx := (currentHead + i) & postQueueMask

			if !q.published[idx].Load() {
				break // writer incomplete
			}

			result = append(result, q.events[idx])
			q.published[idx].Store(false)
		}

		newHead := currentHead + uint64(len(result))
		if q.head.CompareAndSwap(currentHead, newHead) {
			if len(result) == 0 {
				return nil
			}
			return result
		}
	}
}

// Len returns a snapshot of the pending event count.
func (q *PostQueue) Len() int {
	available := q.tail.Load() - q.head.Load()
	if available > postQueueSize {
		return postQueueSize
	}
	return int(available)
}
