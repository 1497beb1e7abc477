package model

import (
	"context"
	"sync"
)

// commandQueue runs session commands one at a time, in the order they were
// requested, on a single goroutine. Pending commands are dropped on stop.
type commandQueue struct {
	mu      sync.Mutex
	pending []func()
	stopped bool
	wake    chan struct{}
	done    chan struct{}
}

func newCommandQueue() *commandQueue {
	q := &commandQueue{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *commandQueue) push(fn func()) bool {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return false
	}
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
	q.signal()
	return true
}

func (q *commandQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *commandQueue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		if q.stopped {
			q.mu.Unlock()
			return
		}
		if len(q.pending) == 0 {
			q.mu.Unlock()
			<-q.wake
			continue
		}
		fn := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()
		fn()
	}
}

// stop drops pending commands and waits for the running one to return.
func (q *commandQueue) stop() {
	q.mu.Lock()
	q.stopped = true
	q.pending = nil
	q.mu.Unlock()
	q.signal()
	<-q.done
}

// RequestOpen queues a switch to peerID. Session requests run one at a time
// in call order, so a later Close or Open always wins over an earlier one.
// done, when set, receives the result on the queue goroutine; a superseded
// open is reported as nil.
func (vm *ViewModel) RequestOpen(ctx context.Context, peerID string, done func(error)) {
	vm.queue.push(func() {
		err := vm.Open(ctx, peerID)
		if done != nil {
			done(err)
		}
	})
}

// RequestClose queues leaving the active conversation. done, when set, runs
// on the queue goroutine once the session is closed.
func (vm *ViewModel) RequestClose(done func()) {
	vm.queue.push(func() {
		vm.Close()
		if done != nil {
			done()
		}
	})
}
