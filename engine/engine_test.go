package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorcarri/mpp/protocol"
)

func newIssingReq(noun string) *protocol.Request {
	req := protocol.NewRequest()
	req.Command = protocol.ISSING
	req.Noun = []byte(noun)
	return req
}

func newFOFReq(noun string) *protocol.Request {
	req := newIssingReq(noun)
	req.Command = protocol.FOF
	return req
}

func TestHandleISSINGSingular(t *testing.T) {
	table := NewMemoryTable()
	table.Add("കത്തി", "കത്തികള്")
	e := New(table)

	rep, err := e.Handle(context.Background(), newIssingReq("കത്തി"))
	require.NoError(t, err)
	assert.Equal(t, protocol.Singular, rep.Status)
}

func TestHandleISSINGPlural(t *testing.T) {
	table := NewMemoryTable()
	table.Add("കത്തി", "കത്തികള്")
	e := New(table)

	rep, err := e.Handle(context.Background(), newIssingReq("കത്തികള്"))
	require.NoError(t, err)
	assert.Equal(t, protocol.Plural, rep.Status)
}

func TestHandleFOFSinglePluralForm(t *testing.T) {
	table := NewMemoryTable()
	table.Add("singular", "plural1")
	e := New(table)

	rep, err := e.Handle(context.Background(), newFOFReq("singular"))
	require.NoError(t, err)
	assert.Equal(t, protocol.PluralForm, rep.Status)
	assert.Equal(t, "plural1", string(rep.Content))
	_, ok := rep.Headers.Get("Delimiter")
	assert.False(t, ok)
}

func TestHandleFOFMultiplePluralFormsSetsDelimiterHeader(t *testing.T) {
	table := NewMemoryTable()
	table.Add("singular", "plural1", "plural2")
	e := New(table)

	rep, err := e.Handle(context.Background(), newFOFReq("singular"))
	require.NoError(t, err)
	assert.Equal(t, protocol.PluralForm, rep.Status)
	assert.Equal(t, "plural1;plural2", string(rep.Content))
	h, ok := rep.Headers.Get("Delimiter")
	require.True(t, ok)
	assert.Equal(t, ";", h.Value())
}

func TestHandleFOFNoPlural(t *testing.T) {
	table := NewMemoryTable()
	e := New(table)

	rep, err := e.Handle(context.Background(), newFOFReq("unknown"))
	require.NoError(t, err)
	assert.Equal(t, protocol.NoPlural, rep.Status)
}

func TestHandleFOFSingularForm(t *testing.T) {
	table := NewMemoryTable()
	table.Add("singular", "plural1")
	e := New(table)

	rep, err := e.Handle(context.Background(), newFOFReq("plural1"))
	require.NoError(t, err)
	assert.Equal(t, protocol.SingularForm, rep.Status)
	assert.Equal(t, "singular", string(rep.Content))
}

func TestHandleUnknownCommandIsBadRequest(t *testing.T) {
	table := NewMemoryTable()
	e := New(table)

	req := newIssingReq("x")
	req.Command = protocol.INVALID
	rep, err := e.Handle(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, protocol.BadRequest, rep.Status)
}

func TestMemoryTableDefaultsUnknownNounToSingular(t *testing.T) {
	table := NewMemoryTable()
	singular, err := table.IsSingular(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.True(t, singular)
}
