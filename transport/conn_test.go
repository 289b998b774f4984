package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorcarri/mpp/protocol"
)

type fakeEngine struct {
	reply *protocol.Reply
	err   error
}

func (f *fakeEngine) Handle(ctx context.Context, req *protocol.Request) (*protocol.Reply, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func newTestPool(t *testing.T) *Pool {
	t.Helper()
	pool, err := NewPool(1, zerolog.Nop())
	require.NoError(t, err)
	go pool.Run()
	t.Cleanup(pool.Stop)
	return pool
}

func TestConnectionHappyPathWritesReply(t *testing.T) {
	pool := newTestPool(t)
	client, server := net.Pipe()
	defer client.Close()

	engine := &fakeEngine{reply: protocol.NewReply(protocol.Singular, nil)}
	c := newConnection(server, pool.NextReactor(), engine, nil, zerolog.Nop())
	c.Start()

	req := []byte("MPP/2.3.3 ISSING\r\nContent-Length: 3\r\n\r\nഅ")
	go func() {
		_, _ = client.Write(req)
	}()

	// The reply arrives as one write per encoded span, so keep reading
	// until the parser has seen a whole reply.
	buf := make([]byte, 256)
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	rep := &protocol.Reply{}
	p := protocol.NewReplyParser(rep)
	outcome := protocol.NeedMore
	for outcome == protocol.NeedMore {
		n, err := client.Read(buf)
		require.NoError(t, err)
		outcome, _ = p.ConsumeBytes(buf[:n])
	}
	require.Equal(t, protocol.Done, outcome)
	assert.Equal(t, protocol.Singular, rep.Status)
}

func TestConnectionMalformedRequestGetsStockReply(t *testing.T) {
	pool := newTestPool(t)
	client, server := net.Pipe()
	defer client.Close()

	engine := &fakeEngine{}
	c := newConnection(server, pool.NextReactor(), engine, nil, zerolog.Nop())
	c.Start()

	go func() {
		_, _ = client.Write([]byte("MPP/9.9.9 ISSING\r\n"))
	}()

	buf := make([]byte, 256)
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	rep := &protocol.Reply{}
	p := protocol.NewReplyParser(rep)
	outcome := protocol.NeedMore
	for outcome == protocol.NeedMore {
		n, err := client.Read(buf)
		require.NoError(t, err)
		outcome, _ = p.ConsumeBytes(buf[:n])
	}
	require.Equal(t, protocol.Done, outcome)
	assert.Equal(t, protocol.BadMajor, rep.Status)
}
