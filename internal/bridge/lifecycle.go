package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
)

// State is the lifecycle state of a Bridge.
type State int32

const (
	StateNotStarted State = iota
	StateListenerStarting
	StateReady
	StateShuttingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateListenerStarting:
		return "listener-starting"
	case StateReady:
		return "ready"
	case StateShuttingDown:
		return "shutting-down"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

const defaultShutdownTimeout = 5 * time.Second

// State returns the current lifecycle state.
func (b *Bridge) State() State {
	return State(b.state.Load())
}

// Start binds the callback listener and moves the bridge to ready. A bind
// failure is returned as *ListenerStartupError and leaves the bridge stopped.
func (b *Bridge) Start(ctx context.Context) error {
	if !b.state.CompareAndSwap(int32(StateNotStarted), int32(StateListenerStarting)) {
		return fmt.Errorf("bridge cannot start from state %s", b.State())
	}

	addr := net.JoinHostPort(b.cfg.Host, strconv.Itoa(b.cfg.Port))
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		b.state.Store(int32(StateStopped))
		return &ListenerStartupError{Addr: addr, Cause: err}
	}

	b.callbackBase = callbackBase(b.cfg.Host, ln.Addr())
	b.server = &http.Server{
		Handler:           b.listener,
		ReadHeaderTimeout: 5 * time.Second,
	}
	b.serveDone = make(chan error, 1)
	go func() {
		err := b.server.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		} else if err != nil {
			b.logger.Error("callback listener stopped unexpectedly", "error", err)
		}
		b.serveDone <- err
	}()

	b.state.Store(int32(StateReady))
	b.logger.Info("callback listener ready", "addr", ln.Addr().String(), "callback_base", b.callbackBase)
	return nil
}

// Shutdown stops accepting callbacks, lets in-flight requests finish and
// rejects every pending waiter with ErrBridgeClosed. It is safe to call more
// than once.
func (b *Bridge) Shutdown(ctx context.Context) error {
	if !b.state.CompareAndSwap(int32(StateReady), int32(StateShuttingDown)) {
		b.state.CompareAndSwap(int32(StateNotStarted), int32(StateStopped))
		return nil
	}
	b.logger.Info("stopping callback listener")

	shutdownErr := b.server.Shutdown(ctx)
	if n := b.registry.CancelAll(ErrBridgeClosed); n > 0 {
		b.logger.Info("cancelled pending calls", "count", n)
	}
	serveErr := <-b.serveDone

	b.state.Store(int32(StateStopped))
	return errors.Join(shutdownErr, serveErr)
}

// Run starts the bridge, runs serve until it returns or ctx is done, then
// shuts the bridge down. The listener is ready before serve is called and does
// not outlive it.
func (b *Bridge) Run(ctx context.Context, serve func(ctx context.Context) error) error {
	if err := b.Start(ctx); err != nil {
		return err
	}

	timeout := b.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		defer stop()
		return serve(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		return b.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// callbackBase derives the URL Bear should call back on. Unspecified hosts
// fall back to loopback since Bear runs on the same machine.
func callbackBase(host string, bound net.Addr) string {
	port := ""
	if tcp, ok := bound.(*net.TCPAddr); ok {
		port = strconv.Itoa(tcp.Port)
	} else if _, p, err := net.SplitHostPort(bound.String()); err == nil {
		port = p
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}
