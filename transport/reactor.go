package transport

import (
	"sync"

	"github.com/rs/zerolog"
)

// jobQueueSize bounds how many pending jobs a reactor will buffer before
// Submit starts blocking the caller. Generous enough that a connection's
// read pump rarely stalls waiting for its reactor to drain.
const jobQueueSize = 256

// Reactor is a single-threaded event loop: one goroutine drains a queue
// of closures and runs each to completion before picking up the next.
// Every Connection assigned to a Reactor is only ever touched from
// inside a closure run by that Reactor's own goroutine, which is what
// gives the "no Connection is touched by more than one thread at a time"
// guarantee from spec.md §5 without needing a per-Connection mutex.
//
// Go has no io_context to wrap, so this realises spec.md's "single-
// threaded event loop" with the idiomatic Go primitive for that shape: a
// goroutine plus a channel of work, per Design Notes §9's license to use
// "whatever shared-ownership primitive is idiomatic".
type Reactor struct {
	id   int
	jobs chan func()
	done chan struct{}
	log  zerolog.Logger
}

func newReactor(id int, log zerolog.Logger) *Reactor {
	return &Reactor{
		id:   id,
		jobs: make(chan func(), jobQueueSize),
		done: make(chan struct{}),
		log:  log.With().Int("reactor", id).Logger(),
	}
}

// Submit enqueues job to run on this reactor's goroutine. Safe to call
// from any goroutine (e.g. a Connection's read pump). Submitting after
// Stop is a no-op: the job is dropped rather than panicking on a closed
// channel.
func (r *Reactor) Submit(job func()) {
	select {
	case r.jobs <- job:
	case <-r.done:
	}
}

// run drains the job queue until Stop closes r.done. A keep-alive work
// guard isn't needed the way the original IoContextPool needed one: an
// idle Go channel receive doesn't spin or exit, it just parks the
// goroutine, so the loop survives gaps between connections for free.
func (r *Reactor) run(wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case job := <-r.jobs:
			job()
		case <-r.done:
			// Drain whatever is already queued before exiting so a Stop
			// racing with an in-flight Submit doesn't silently drop work
			// that was already handed off.
			for {
				select {
				case job := <-r.jobs:
					job()
				default:
					return
				}
			}
		}
	}
}

func (r *Reactor) stop() {
	select {
	case <-r.done:
		// already stopped
	default:
		close(r.done)
	}
}
