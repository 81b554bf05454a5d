package handler

import "sync"

// availableQueue is the FIFO of ready-to-dispatch wrappers described in
// spec.md §4.1. Concurrent producers (control loop, SubmitResult-on-failure,
// timeout sweep) and concurrent consumers (GetNextJob) share it under a
// single mutex; the operations it exposes are the non-blocking
// try-dequeue and emptiness query spec.md requires.
type availableQueue struct {
	mu    sync.Mutex
	items []*JobWrapper
}

func newAvailableQueue() *availableQueue {
	return &availableQueue{}
}

func (q *availableQueue) Push(w *JobWrapper) {
	q.mu.Lock()
	q.items = append(q.items, w)
	q.mu.Unlock()
}

// TryPop removes and returns the oldest wrapper, or (nil, false) if empty.
func (q *availableQueue) TryPop() (*JobWrapper, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	w := q.items[0]
	q.items = q.items[1:]
	return w, true
}

func (q *availableQueue) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == 0
}

func (q *availableQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Snapshot returns a shallow copy of the queued wrappers for reporting.
func (q *availableQueue) Snapshot() []*JobWrapper {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*JobWrapper, len(q.items))
	copy(out, q.items)
	return out
}

// finishedQueue is the FIFO of wrappers awaiting ProcessResult, per
// spec.md §4.1. Single consumer (the control loop); producers are
// SubmitResult calls on success.
type finishedQueue struct {
	mu    sync.Mutex
	items []*JobWrapper
}

func newFinishedQueue() *finishedQueue {
	return &finishedQueue{}
}

func (q *finishedQueue) Push(w *JobWrapper) {
	q.mu.Lock()
	q.items = append(q.items, w)
	q.mu.Unlock()
}

// DrainAll removes and returns every queued wrapper in insertion order.
func (q *finishedQueue) DrainAll() []*JobWrapper {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

func (q *finishedQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// edgeSignal is a one-shot wakeup channel: Raise is a non-blocking send
// that collapses repeated raises between reads into a single pending
// notification, matching spec.md §4.1's "edge-triggered events"
// (AvailableDrained, ResultReady) used to unblock the control loop's wait.
type edgeSignal struct {
	ch chan struct{}
}

func newEdgeSignal() *edgeSignal {
	return &edgeSignal{ch: make(chan struct{}, 1)}
}

func (s *edgeSignal) Raise() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

func (s *edgeSignal) C() <-chan struct{} {
	return s.ch
}
