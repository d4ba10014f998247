package bridge

import (
	"log/slog"
	"net/http"
	"strconv"
)

// Listener serves the x-success and x-error callback routes for every family
// in a Registry. Handlers only dequeue and settle; payload decoding happens in
// the waiting caller.
type Listener struct {
	registry *Registry
	logger   *slog.Logger
	mux      *http.ServeMux
}

// NewListener builds the callback routes. When metrics is true the listener
// also serves /metrics.
func NewListener(registry *Registry, logger *slog.Logger, metrics bool) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Listener{
		registry: registry,
		logger:   logger,
		mux:      http.NewServeMux(),
	}
	for _, family := range registry.Families() {
		l.mux.HandleFunc("GET /"+family+"/success", l.successHandler(family))
		l.mux.HandleFunc("GET /"+family+"/error", l.errorHandler(family))
	}
	l.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if metrics {
		l.mux.Handle("GET /metrics", MetricsHandler())
	}
	return l
}

// ServeHTTP implements http.Handler.
func (l *Listener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l.mux.ServeHTTP(w, r)
}

func (l *Listener) successHandler(family string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l.deliver(family, "success", func(waiter *Waiter) bool {
			return waiter.resolve(r.URL.Query())
		})
		w.WriteHeader(http.StatusNoContent)
	}
}

func (l *Listener) errorHandler(family string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appErr := parseErrorCallback(family, r)
		l.deliver(family, "error", func(waiter *Waiter) bool {
			return waiter.reject(appErr)
		})
		w.WriteHeader(http.StatusNoContent)
	}
}

// deliver hands a callback to the oldest waiter of family. Empty queues and
// tombstones drop the callback; neither is an error.
func (l *Listener) deliver(family, kind string, settle func(*Waiter) bool) {
	q, ok := l.registry.Queue(family)
	if !ok {
		return
	}
	waiter, ok := q.DequeueOldest()
	if !ok {
		callbacks.WithLabelValues(family, kind, "empty").Inc()
		l.logger.Debug("dropping callback with no pending waiter", "family", family, "kind", kind)
		return
	}
	if !settle(waiter) {
		callbacks.WithLabelValues(family, kind, "late").Inc()
		l.logger.Debug("dropping late callback for abandoned waiter", "family", family, "kind", kind, "waiter_id", waiter.ID)
		return
	}
	callbacks.WithLabelValues(family, kind, "live").Inc()
	l.logger.Debug("callback delivered", "family", family, "kind", kind, "waiter_id", waiter.ID)
}

// parseErrorCallback reads error-Code (default 0) and errorMessage (default "").
func parseErrorCallback(family string, r *http.Request) *ExternalActionError {
	q := r.URL.Query()
	code, err := strconv.Atoi(q.Get("error-Code"))
	if err != nil {
		code = 0
	}
	return &ExternalActionError{
		Family:  family,
		Code:    code,
		Message: q.Get("errorMessage"),
	}
}
