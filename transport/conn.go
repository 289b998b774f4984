package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/victorcarri/mpp/protocol"
)

// readBufferSize is the minimum read buffer size spec.md §4.5 requires
// ("≥ 8 KiB").
const readBufferSize = 8192

// Connection is a state-bearing actor owning exactly one socket, one read
// buffer, one RequestParser and one in-flight Request/Reply pair. It
// supports exactly one request/response cycle (spec.md §4.5's baseline,
// one-shot contract); keep-alive/pipelining is an explicit non-goal.
//
// A Connection is pinned to the Reactor it was constructed with: every
// method that mutates its state (req, parser) is only ever invoked from
// a closure submitted to that Reactor, so no internal locking is needed
// — mirroring the teacher's TCPConnection, which is likewise only ever
// driven by the single goroutine reading it. The one exception is
// invokeEngine, which reads req on its own goroutine once parsing is
// Done and hands the reply back to the Reactor for writing.
type Connection struct {
	ID      uuid.UUID
	conn    net.Conn
	reactor *Reactor
	engine  NounEngine
	metrics *Metrics
	log     zerolog.Logger

	req    *protocol.Request
	parser *protocol.RequestParser

	closeOnce sync.Once
}

func newConnection(conn net.Conn, reactor *Reactor, engine NounEngine, metrics *Metrics, log zerolog.Logger) *Connection {
	id := uuid.New()
	req := protocol.NewRequest()
	c := &Connection{
		ID:      id,
		conn:    conn,
		reactor: reactor,
		engine:  engine,
		metrics: metrics,
		req:     req,
		parser:  protocol.NewRequestParser(req),
		log: log.With().
			Str("conn", id.String()).
			Str("raddr", conn.RemoteAddr().String()).
			Logger(),
	}
	return c
}

// Start initiates the connection's read pump. Mirrors Connection::start
// issuing the first asynchronous read.
func (c *Connection) Start() {
	if c.metrics != nil {
		c.metrics.ConnectionsAccepted.Inc()
		c.metrics.ConnectionsActive.Inc()
	}
	c.log.Debug().Msg("connection started")
	go c.readPump()
}

// readPump performs the actual blocking socket reads. It never touches
// parser/request state directly — each chunk read is handed to the
// owning Reactor via Submit so that state is mutated from one goroutine
// only, per spec.md §5's Connection-local ownership rule.
func (c *Connection) readPump() {
	for {
		buf := make([]byte, readBufferSize)
		n, err := c.conn.Read(buf)
		if n > 0 {
			data := buf[:n]
			done := make(chan struct{})
			c.reactor.Submit(func() {
				defer close(done)
				c.onRead(data)
			})
			<-done
		}
		if err != nil {
			c.reactor.Submit(func() { c.onReadError(err) })
			return
		}
	}
}

// onRead feeds data to the request parser. Runs on the Reactor goroutine.
func (c *Connection) onRead(data []byte) {
	outcome, _ := c.parser.ConsumeBytes(data)
	switch outcome {
	case protocol.NeedMore:
		return
	case protocol.Done:
		c.log.Debug().Str("command", c.req.Command.String()).Msg("request parsed")
		go c.invokeEngine()
	case protocol.Malformed:
		status := c.parser.Status()
		if c.metrics != nil {
			c.metrics.ParseErrorsTotal.WithLabelValues(strconv.Itoa(int(status))).Inc()
		}
		c.log.Warn().Int("status", int(status)).Msg("malformed request")
		c.writeReply(protocol.StockReply(status), true)
	}
}

// invokeEngine calls the NounEngine off the reactor goroutine (it may
// block on a database round trip) and hands the result back to the
// reactor to serialise the write, per Design Notes §9.
func (c *Connection) invokeEngine() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	reply, err := c.engine.Handle(ctx, c.req)
	c.reactor.Submit(func() {
		if err != nil {
			c.log.Error().Err(err).Msg("noun engine failed")
			c.writeReply(protocol.StockReply(protocol.BadRequest), true)
			return
		}
		if c.metrics != nil {
			c.metrics.RequestsTotal.WithLabelValues(strconv.Itoa(int(reply.Status))).Inc()
		}
		c.writeReply(reply, true)
	})
}

// writeReply linearises rep via the Wire Codec and writes it back.
// closeAfter requests a write-side half-close once the write completes,
// signalling end-of-response to the client (spec.md §4.5).
func (c *Connection) writeReply(rep *protocol.Reply, closeAfter bool) {
	buffers := protocol.EncodeReply(rep)
	nb := net.Buffers(buffers)
	_, err := nb.WriteTo(c.conn)
	if err != nil {
		c.log.Error().Err(err).Msg("write failed")
		c.Close()
		return
	}
	if closeAfter {
		c.halfClose()
	}
}

// halfClose shuts down the write side only, letting any remaining client
// bytes (there shouldn't be any, under the one-shot contract) drain
// before the socket is fully closed by readPump hitting EOF/error.
func (c *Connection) halfClose() {
	type writeCloser interface {
		CloseWrite() error
	}
	if wc, ok := c.conn.(writeCloser); ok {
		if err := wc.CloseWrite(); err != nil {
			c.log.Debug().Err(err).Msg("half-close failed")
		}
		return
	}
	// No half-close available on this net.Conn implementation (e.g. a
	// net.Pipe in tests): fall back to a full close.
	c.Close()
}

// onReadError handles any I/O error in the read pump. Per spec.md §7,
// any I/O error is terminal: no reply is attempted, the connection just
// closes.
func (c *Connection) onReadError(err error) {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		c.log.Debug().Msg("connection closed by peer")
	} else {
		c.log.Error().Err(err).Msg("read error")
	}
	c.Close()
}

// Close tears down the socket and updates the active-connection gauge.
// Idempotent enough for the one-shot lifecycle this Connection supports.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		_ = c.conn.Close()
		if c.metrics != nil {
			c.metrics.ConnectionsActive.Dec()
		}
	})
}
