package bridge

import (
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
)

type waiterState int

const (
	waiterPending waiterState = iota
	waiterResolved
	waiterRejected
	waiterAbandoned
)

// outcome is what a waiter hands back to its caller.
type outcome struct {
	payload url.Values
	err     error
}

// Waiter is a single-resolution slot for one caller's outstanding request.
// Exactly one of resolve, reject or abandon takes effect.
type Waiter struct {
	ID     string
	Family string

	mu           sync.Mutex
	state        waiterState
	dispatchedAt time.Time
	done         chan outcome
}

func newWaiter(family string) *Waiter {
	return &Waiter{
		ID:     uuid.New().String(),
		Family: family,
		done:   make(chan outcome, 1),
	}
}

// resolve delivers a callback payload. It reports false if the waiter was
// already settled or abandoned.
func (w *Waiter) resolve(payload url.Values) bool {
	return w.settle(waiterResolved, outcome{payload: payload})
}

// reject delivers a failure. It reports false if the waiter was already
// settled or abandoned.
func (w *Waiter) reject(err error) bool {
	return w.settle(waiterRejected, outcome{err: err})
}

func (w *Waiter) settle(state waiterState, o outcome) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != waiterPending {
		return false
	}
	w.state = state
	w.done <- o
	return true
}

// abandon marks the waiter as no longer listened to. It reports false when a
// result has already been delivered, in which case the caller should consume it.
func (w *Waiter) abandon() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != waiterPending {
		return false
	}
	w.state = waiterAbandoned
	return true
}

// expired reports whether w is a tombstone dispatched more than grace before now.
func (w *Waiter) expired(now time.Time, grace time.Duration) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state == waiterAbandoned && grace > 0 && now.Sub(w.dispatchedAt) > grace
}

// Queue is the FIFO of waiters for one operation family. Bear callbacks carry
// no request id, so the oldest waiter always receives the next callback.
//
// Abandoned waiters remain queued as tombstones: a late callback for a caller
// that gave up is absorbed by its own tombstone rather than handed to the
// next caller. A tombstone is discarded on dequeue once grace has passed since
// its action was dispatched, so an action Bear never answers cannot swallow
// the next caller's callback beyond that window.
//
// The two failure modes trade against each other. Within grace, a tombstone
// whose action is never answered still consumes the next callback, so that
// caller times out. After grace, a late answer reaches the next caller. With
// grace shorter than the call timeout, a timed-out waiter expires as soon as
// it is abandoned and only early cancellations keep absorbing.
type Queue struct {
	family string
	grace  time.Duration
	now    func() time.Time

	mu      sync.Mutex
	waiters []*Waiter
}

// NewQueue creates an empty queue. grace is measured from dispatch; 0 keeps
// tombstones until a callback consumes them.
func NewQueue(family string, grace time.Duration) *Queue {
	return &Queue{
		family: family,
		grace:  grace,
		now:    time.Now,
	}
}

// Enqueue appends w to the tail and stamps its dispatch time. It never fails
// and enforces no bound. Call it right before the action fires.
func (q *Queue) Enqueue(w *Waiter) {
	now := q.now()
	w.mu.Lock()
	w.dispatchedAt = now
	w.mu.Unlock()

	q.mu.Lock()
	defer q.mu.Unlock()
	q.waiters = append(q.waiters, w)
	pendingWaiters.WithLabelValues(q.family).Set(float64(len(q.waiters)))
}

// DequeueOldest removes and returns the head of the queue. The returned
// waiter may be a tombstone; callers check before resolving. ok is false when
// the queue is empty. It never blocks on anything but the queue mutex.
func (q *Queue) DequeueOldest() (w *Waiter, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := q.now()
	for len(q.waiters) > 0 {
		head := q.waiters[0]
		q.waiters[0] = nil
		q.waiters = q.waiters[1:]
		if head.expired(now, q.grace) {
			continue
		}
		w, ok = head, true
		break
	}
	pendingWaiters.WithLabelValues(q.family).Set(float64(len(q.waiters)))
	return w, ok
}

// Remove revokes w if it is still queued. Used when the outbound action could
// not be dispatched, so no callback will ever arrive for it.
func (q *Queue) Remove(w *Waiter) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, cur := range q.waiters {
		if cur == w {
			q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
			pendingWaiters.WithLabelValues(q.family).Set(float64(len(q.waiters)))
			return true
		}
	}
	return false
}

// Drain removes and returns every queued waiter.
func (q *Queue) Drain() []*Waiter {
	q.mu.Lock()
	defer q.mu.Unlock()
	drained := q.waiters
	q.waiters = nil
	pendingWaiters.WithLabelValues(q.family).Set(0)
	return drained
}

// Len returns the number of queued waiters, tombstones included.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiters)
}

// Registry holds one queue per operation family. It is fixed at construction.
type Registry struct {
	queues map[string]*Queue
	order  []string
}

// NewRegistry creates a queue for each family.
func NewRegistry(families []string, grace time.Duration) *Registry {
	r := &Registry{queues: make(map[string]*Queue, len(families))}
	for _, f := range families {
		if _, dup := r.queues[f]; dup {
			continue
		}
		r.queues[f] = NewQueue(f, grace)
		r.order = append(r.order, f)
	}
	return r
}

// Queue returns the queue for family.
func (r *Registry) Queue(family string) (*Queue, bool) {
	q, ok := r.queues[family]
	return q, ok
}

// Families returns the registered families in registration order.
func (r *Registry) Families() []string {
	return append([]string(nil), r.order...)
}

// CancelAll drains every queue and rejects live waiters with err.
// It returns how many callers were notified.
func (r *Registry) CancelAll(err error) int {
	n := 0
	for _, f := range r.order {
		for _, w := range r.queues[f].Drain() {
			if w.reject(err) {
				n++
			}
		}
	}
	return n
}
