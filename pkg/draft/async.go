package draft

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned by an Async store after Close.
var ErrClosed = errors.New("draft writer closed")

type pendingOp struct {
	snap  *Snapshot
	clear bool
}

// Async wraps a Store so Save and Clear return immediately. A single worker
// applies operations in key order of arrival; while an operation for a key
// is still queued, newer ones replace it, so only the latest state is
// written. Failures are reported through OnError and never to the caller.
type Async struct {
	store   Store
	onError func(key string, err error)
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]pendingOp
	order   []string
	idle    chan struct{}
	closed  bool
	wake    chan struct{}
	done    chan struct{}
}

// AsyncOption configures NewAsync.
type AsyncOption func(*Async)

// OnError sets the failure callback. It runs on the worker goroutine.
func OnError(fn func(key string, err error)) AsyncOption {
	return func(a *Async) { a.onError = fn }
}

// WriteTimeout bounds each backend call.
func WriteTimeout(d time.Duration) AsyncOption {
	return func(a *Async) { a.timeout = d }
}

// NewAsync starts the worker.
func NewAsync(store Store, opts ...AsyncOption) *Async {
	a := &Async{
		store:   store,
		timeout: 10 * time.Second,
		pending: make(map[string]pendingOp),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(a)
	}
	go a.run()
	return a
}

// Save queues snap. The snapshot is copied.
func (a *Async) Save(_ context.Context, key string, snap *Snapshot) error {
	if snap == nil {
		return nil
	}
	cp := *snap
	cp.Answers = snap.Answers.Clone()
	return a.enqueue(key, pendingOp{snap: &cp})
}

// Clear queues removal of key.
func (a *Async) Clear(_ context.Context, key string) error {
	return a.enqueue(key, pendingOp{clear: true})
}

// Load answers from the queue when an operation for key is pending, and
// from the backend otherwise.
func (a *Async) Load(ctx context.Context, key string) (*Snapshot, error) {
	a.mu.Lock()
	op, ok := a.pending[key]
	a.mu.Unlock()
	if ok {
		if op.clear {
			return nil, ErrNotFound
		}
		cp := *op.snap
		cp.Answers = op.snap.Answers.Clone()
		return &cp, nil
	}
	return a.store.Load(ctx, key)
}

func (a *Async) enqueue(key string, op pendingOp) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	if _, queued := a.pending[key]; !queued {
		a.order = append(a.order, key)
	}
	a.pending[key] = op
	if a.idle == nil {
		a.idle = make(chan struct{})
	}
	a.mu.Unlock()

	select {
	case a.wake <- struct{}{}:
	default:
	}
	return nil
}

func (a *Async) run() {
	defer close(a.done)
	for {
		a.mu.Lock()
		for len(a.order) == 0 {
			if a.idle != nil {
				close(a.idle)
				a.idle = nil
			}
			if a.closed {
				a.mu.Unlock()
				return
			}
			a.mu.Unlock()
			<-a.wake
			a.mu.Lock()
		}
		key := a.order[0]
		a.order = a.order[1:]
		op := a.pending[key]
		delete(a.pending, key)
		a.mu.Unlock()

		a.apply(key, op)
	}
}

func (a *Async) apply(key string, op pendingOp) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	var err error
	if op.clear {
		err = a.store.Clear(ctx, key)
	} else {
		err = a.store.Save(ctx, key, op.snap)
	}
	if err != nil && a.onError != nil {
		a.onError(key, err)
	}
}

// Flush waits until every queued operation has been applied.
func (a *Async) Flush(ctx context.Context) error {
	a.mu.Lock()
	idle := a.idle
	a.mu.Unlock()
	if idle == nil {
		return nil
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the queue and stops the worker. Further writes fail with
// ErrClosed.
func (a *Async) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		<-a.done
		return nil
	}
	a.closed = true
	a.mu.Unlock()
	select {
	case a.wake <- struct{}{}:
	default:
	}
	<-a.done
	return nil
}
