package transport

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Pool is a fixed-size array of Reactors with round-robin assignment of
// new connections. Mirrors the original IoContextPool, but spawns one
// goroutine per reactor instead of one OS thread per io_context.
type Pool struct {
	reactors []*Reactor
	next     uint64 // atomic round-robin index, per Design Notes §9

	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
	log     zerolog.Logger
}

// NewPool constructs a pool of size reactors. size must be > 0; a
// zero or negative size is a fatal initialisation error per spec.md §4.6.
func NewPool(size int, log zerolog.Logger) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("transport: reactor pool size must be > 0, got %d", size)
	}
	p := &Pool{
		reactors: make([]*Reactor, size),
		log:      log.With().Str("component", "reactor-pool").Logger(),
	}
	for i := range p.reactors {
		p.reactors[i] = newReactor(i, p.log)
	}
	return p, nil
}

// Size returns the number of reactors in the pool.
func (p *Pool) Size() int {
	return len(p.reactors)
}

// NextReactor returns the next reactor to use, in strict round-robin
// order, using an interlocked index advance so concurrent Accept-time
// callers never race on the same counter.
func (p *Pool) NextReactor() *Reactor {
	i := atomic.AddUint64(&p.next, 1) - 1
	return p.reactors[i%uint64(len(p.reactors))]
}

// Run spawns one goroutine per reactor and blocks until every one has
// exited (i.e. until Stop has been called and each reactor has drained).
func (p *Pool) Run() {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.wg.Add(len(p.reactors))
	p.mu.Unlock()

	for _, r := range p.reactors {
		go r.run(&p.wg)
	}
	p.wg.Wait()
}

// Stop signals every reactor to exit its loop. Safe to call from a
// signal handler's scheduled callback, and safe to call more than once.
func (p *Pool) Stop() {
	p.log.Info().Msg("stopping reactor pool")
	for _, r := range p.reactors {
		r.stop()
	}
}
