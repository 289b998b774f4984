package transport

import (
	"context"

	"github.com/victorcarri/mpp/protocol"
)

// NounEngine answers a fully-parsed Request with a Reply. It is the
// out-of-scope collaborator spec.md describes: the Connection calls it
// exactly once per request, after the Request Parser signals Done, and
// treats it as a black box.
//
// Per Design Notes §9, implementations backed by a database should pool
// connections internally (e.g. via database/sql's own pool) rather than
// opening one connection per call, and Handle must be safe for
// concurrent invocation since the pool may share one NounEngine across
// every reactor.
type NounEngine interface {
	Handle(ctx context.Context, req *protocol.Request) (*protocol.Reply, error)
}
