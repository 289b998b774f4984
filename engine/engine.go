// Package engine implements the NounEngine collaborator transport.Connection
// calls once a request is fully parsed. spec.md treats the engine's
// linguistic logic, schema, and persistence as out of scope; what lives
// here is only enough of a real implementation to exercise the
// transport.NounEngine contract end to end — the noun table is a plain
// lookup of recorded singular/plural pairs, not a pluralisation rule
// engine.
package engine

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/victorcarri/mpp/protocol"
)

// delimiter separates multiple candidate forms in a FOF reply's content,
// matching the original ReqHandler::handleReq's "Delimiter" header.
const delimiter = ";"

// NounTable is the minimal shape a NounEngine needs from its backing
// store: given a noun, find its plural form(s) or singular form(s).
// MemoryTable and SQLTable both implement this and share Engine.Handle.
type NounTable interface {
	// IsSingular reports whether noun is treated as singular: recorded as
	// a singular form, or not recorded as a plural form either.
	IsSingular(ctx context.Context, noun string) (bool, error)
	// Plurals returns every recorded plural form of a singular noun.
	Plurals(ctx context.Context, singular string) ([]string, error)
	// Singulars returns every recorded singular form of a plural noun.
	Singulars(ctx context.Context, plural string) ([]string, error)
}

// Engine adapts a NounTable into a transport.NounEngine. It satisfies
// that interface structurally; this package does not import transport,
// which only needs the Handle method shape.
type Engine struct {
	Table NounTable
}

func New(table NounTable) *Engine {
	return &Engine{Table: table}
}

// Handle implements the ISSING/FOF logic described in spec.md §3-4 on
// top of whatever NounTable is wired in. Mirrors
// mpp::ReqHandler::handleReq.
func (e *Engine) Handle(ctx context.Context, req *protocol.Request) (*protocol.Reply, error) {
	noun := string(req.Noun)

	switch req.Command {
	case protocol.ISSING:
		singular, err := e.Table.IsSingular(ctx, noun)
		if err != nil {
			return nil, fmt.Errorf("engine: IsSingular(%q): %w", noun, err)
		}
		if singular {
			return protocol.NewReply(protocol.Singular, nil), nil
		}
		return protocol.NewReply(protocol.Plural, nil), nil

	case protocol.FOF:
		singular, err := e.Table.IsSingular(ctx, noun)
		if err != nil {
			return nil, fmt.Errorf("engine: IsSingular(%q): %w", noun, err)
		}
		if singular {
			forms, err := e.Table.Plurals(ctx, noun)
			if err != nil {
				return nil, fmt.Errorf("engine: Plurals(%q): %w", noun, err)
			}
			if len(forms) == 0 {
				return protocol.NewReply(protocol.NoPlural, nil), nil
			}
			return formsReply(protocol.PluralForm, forms), nil
		}
		forms, err := e.Table.Singulars(ctx, noun)
		if err != nil {
			return nil, fmt.Errorf("engine: Singulars(%q): %w", noun, err)
		}
		if len(forms) == 0 {
			return protocol.NewReply(protocol.NoSingular, nil), nil
		}
		return formsReply(protocol.SingularForm, forms), nil

	default:
		return protocol.StockReply(protocol.BadRequest), nil
	}
}

// SwappableTable wraps a NounTable behind an atomic pointer so a new
// backing table (e.g. a freshly opened SQLTable against rotated
// credentials) can be swapped in while reactors are concurrently
// calling Engine.Handle, without ever observing a half-updated table.
// Grounded on config.Watcher's hot-reload: cmd/mpp-server builds one of
// these around the initial SQLTable and calls Swap from the watcher's
// reload callback.
type SwappableTable struct {
	current atomic.Pointer[NounTable]
}

// NewSwappableTable wraps an initial NounTable for hot-swapping.
func NewSwappableTable(initial NounTable) *SwappableTable {
	s := &SwappableTable{}
	s.current.Store(&initial)
	return s
}

// Swap installs table as the NounTable future calls are routed to.
func (s *SwappableTable) Swap(table NounTable) {
	s.current.Store(&table)
}

func (s *SwappableTable) IsSingular(ctx context.Context, noun string) (bool, error) {
	return (*s.current.Load()).IsSingular(ctx, noun)
}

func (s *SwappableTable) Plurals(ctx context.Context, singular string) ([]string, error) {
	return (*s.current.Load()).Plurals(ctx, singular)
}

func (s *SwappableTable) Singulars(ctx context.Context, plural string) ([]string, error) {
	return (*s.current.Load()).Singulars(ctx, plural)
}

func formsReply(status protocol.Status, forms []string) *protocol.Reply {
	content := []byte(strings.Join(forms, delimiter))
	rep := protocol.NewReply(status, content)
	if len(forms) > 1 {
		rep.AddHeader(protocol.TextHeader("Delimiter", delimiter))
	}
	return rep
}
