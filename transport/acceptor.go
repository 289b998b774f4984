package transport

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
)

// Acceptor owns the listening socket, assigns each accepted connection to
// the next reactor in round-robin order, and wires the process's signal
// set to the pool's Stop. Mirrors the original Server class.
type Acceptor struct {
	listener net.Listener
	pool     *Pool
	engine   NounEngine
	metrics  *Metrics
	log      zerolog.Logger
}

// NewAcceptor builds an Acceptor over an already-bound listener.
func NewAcceptor(listener net.Listener, pool *Pool, engine NounEngine, metrics *Metrics, log zerolog.Logger) *Acceptor {
	return &Acceptor{
		listener: listener,
		pool:     pool,
		engine:   engine,
		metrics:  metrics,
		log:      log.With().Str("component", "acceptor").Logger(),
	}
}

// Serve runs the accept loop: for every accepted socket, obtain the next
// reactor via round robin and start a Connection on it. Returns when
// Accept fails, which happens once the listener is closed by Shutdown.
func (a *Acceptor) Serve() error {
	a.log.Info().Str("addr", a.listener.Addr().String()).Msg("listening")
	for {
		conn, err := a.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				a.log.Debug().Msg("listener closed, accept loop exiting")
				return nil
			}
			return err
		}
		reactor := a.pool.NextReactor()
		c := newConnection(conn, reactor, a.engine, a.metrics, a.log)
		reactor.Submit(c.Start)
	}
}

// Shutdown closes the listener, which unblocks Serve's Accept call.
func (a *Acceptor) Shutdown() error {
	return a.listener.Close()
}

// NotifyShutdownSignals registers SIGINT/SIGTERM/SIGQUIT so that
// receiving any of them stops the reactor pool and closes the listener,
// per spec.md §4.6. Returns a context cancelled once a signal arrives (or
// ctx is otherwise cancelled), and a stop function the caller should
// defer to release the underlying signal.Notify registration.
func (a *Acceptor) NotifyShutdownSignals(ctx context.Context) (context.Context, func()) {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sigCtx.Done()
		a.log.Info().Msg("shutdown signal received")
		a.pool.Stop()
		_ = a.Shutdown()
	}()
	return sigCtx, stop
}
