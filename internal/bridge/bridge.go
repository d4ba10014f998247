// Package bridge turns Bear's fire-and-forget x-callback-url actions into
// synchronous calls.
//
// Every call enqueues a Waiter on its family's Queue, fires the outbound URI
// and blocks until the callback Listener settles that Waiter. Bear does not
// echo any request id, so callbacks are matched strictly by arrival order
// within a family: concurrent callers of the same family only receive their
// own results if Bear answers in the order the actions were issued. Callers of
// different families never interfere. Set Config.Serialize to allow a single
// in-flight action per family when that ordering matters.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds the bridge settings. It is immutable once the bridge starts.
type Config struct {
	// Host and Port are where the callback listener binds. Port 0 picks a free port.
	Host string
	Port int

	// Families are the operation families served by the listener.
	Families []string

	// Timeout bounds each call's wait for its callback. 0 relies on the caller's context.
	Timeout time.Duration

	// LateCallbackGrace is how long after dispatch an abandoned waiter keeps
	// absorbing its late callback. 0 keeps it until a callback arrives.
	LateCallbackGrace time.Duration

	// DispatchRate limits outbound actions per second across all families. 0 disables.
	DispatchRate  float64
	DispatchBurst int

	// Serialize allows at most one in-flight action per family.
	Serialize bool

	// Metrics exposes /metrics on the callback listener.
	Metrics bool

	// ShutdownTimeout bounds graceful listener shutdown in Run.
	ShutdownTimeout time.Duration
}

// Request is one bridged call.
type Request struct {
	Family string
	Params Params
}

// Bridge correlates outbound Bear actions with their inbound callbacks.
type Bridge struct {
	cfg      Config
	logger   *slog.Logger
	registry *Registry
	listener *Listener
	invoker  *Invoker
	limiter  *rate.Limiter
	slots    map[string]*semaphore.Weighted

	state        atomic.Int32
	callbackBase string
	server       *http.Server
	serveDone    chan error
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New creates a bridge that fires actions through opener. Call Start before Call.
func New(cfg Config, opener Opener, opts ...Option) *Bridge {
	b := &Bridge{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.registry = NewRegistry(cfg.Families, cfg.LateCallbackGrace)
	b.listener = NewListener(b.registry, b.logger, cfg.Metrics)
	b.invoker = NewInvoker(opener)

	if cfg.DispatchRate > 0 {
		burst := cfg.DispatchBurst
		if burst < 1 {
			burst = 1
		}
		b.limiter = rate.NewLimiter(rate.Limit(cfg.DispatchRate), burst)
	}
	if cfg.Serialize {
		b.slots = make(map[string]*semaphore.Weighted, len(cfg.Families))
		for _, f := range b.registry.Families() {
			b.slots[f] = semaphore.NewWeighted(1)
		}
	}
	return b
}

// Registry returns the bridge's queue registry.
func (b *Bridge) Registry() *Registry {
	return b.registry
}

// CallbackBase returns the base URL Bear calls back on, e.g. "http://127.0.0.1:11599".
// It is empty until the listener is bound.
func (b *Bridge) CallbackBase() string {
	if b.State() < StateReady {
		return ""
	}
	return b.callbackBase
}

// Call fires req and waits for its callback. It returns the callback's query
// parameters, or an *ExternalActionError, *TimeoutError, *DispatchError,
// ErrCancelled, ErrBridgeClosed or ErrNotReady.
func (b *Bridge) Call(ctx context.Context, req Request) (url.Values, error) {
	if b.State() != StateReady {
		return nil, ErrNotReady
	}
	q, ok := b.registry.Queue(req.Family)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFamily, req.Family)
	}

	if b.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.Timeout)
		defer cancel()
	}

	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, b.waitFailed(ctx, req.Family)
		}
	}
	if slot := b.slots[req.Family]; slot != nil {
		if err := slot.Acquire(ctx, 1); err != nil {
			return nil, b.waitFailed(ctx, req.Family)
		}
		defer slot.Release(1)
	}

	w := newWaiter(req.Family)
	logger := b.logger.With("family", req.Family, "waiter_id", w.ID)

	// The waiter must be queued before the action fires, or a fast callback
	// would find nothing to settle.
	q.Enqueue(w)
	if b.State() != StateReady {
		q.Remove(w)
		return nil, ErrNotReady
	}

	uri := b.invoker.Build(req.Family, req.Params, b.callbackBase)
	start := time.Now()
	logger.Debug("dispatching action", "uri", redact(uri))
	if err := b.invoker.Fire(ctx, uri); err != nil {
		q.Remove(w)
		w.abandon()
		calls.WithLabelValues(req.Family, "dispatch_error").Inc()
		logger.Warn("failed to dispatch action", "error", err)
		return nil, &DispatchError{Family: req.Family, Cause: err}
	}

	select {
	case o := <-w.done:
		return b.finish(logger, req.Family, start, o)
	case <-ctx.Done():
		if !w.abandon() {
			// The callback won the race with the deadline.
			return b.finish(logger, req.Family, start, <-w.done)
		}
		err := b.waitFailed(ctx, req.Family)
		logger.Warn("abandoning waiter", "error", err)
		return nil, err
	}
}

func (b *Bridge) finish(logger *slog.Logger, family string, start time.Time, o outcome) (url.Values, error) {
	callDuration.WithLabelValues(family).Observe(time.Since(start).Seconds())
	if o.err != nil {
		var appErr *ExternalActionError
		switch {
		case errors.As(o.err, &appErr):
			calls.WithLabelValues(family, "app_error").Inc()
		case errors.Is(o.err, ErrBridgeClosed):
			calls.WithLabelValues(family, "closed").Inc()
		default:
			calls.WithLabelValues(family, "error").Inc()
		}
		logger.Debug("call failed", "error", o.err)
		return nil, o.err
	}
	calls.WithLabelValues(family, "ok").Inc()
	logger.Debug("call resolved", "elapsed", time.Since(start))
	return o.payload, nil
}

// waitFailed maps a finished context to the caller-facing error.
func (b *Bridge) waitFailed(ctx context.Context, family string) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		calls.WithLabelValues(family, "cancelled").Inc()
		return fmt.Errorf("%s: %w", family, ErrCancelled)
	}
	// Deadline passed, or the limiter knew it would pass before a token was free.
	calls.WithLabelValues(family, "timeout").Inc()
	return &TimeoutError{Family: family, Timeout: b.cfg.Timeout}
}

// redact hides the API token in logged URIs.
func redact(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	q := u.Query()
	if q.Get("token") == "" {
		return uri
	}
	q.Set("token", "REDACTED")
	u.RawQuery = q.Encode()
	return u.String()
}
