package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func happyISSING() []byte {
	return []byte("MPP/2.3.3 ISSING\r\nContent-Type: text/plain;charset=utf-8\r\nContent-Length: 3\r\n\r\nഅ")
}

func TestRequestParserHappyISSING(t *testing.T) {
	req := NewRequest()
	p := NewRequestParser(req)

	outcome, n := p.ConsumeBytes(happyISSING())
	require.Equal(t, Done, outcome)
	assert.Equal(t, len(happyISSING()), n)
	assert.Equal(t, ISSING, req.Command)
	assert.Equal(t, "അ", string(req.Noun))
	assert.Equal(t, CurrentVersion, req.Version)
}

func TestRequestParserBadMajor(t *testing.T) {
	req := NewRequest()
	p := NewRequestParser(req)
	data := []byte("MPP/9.0.0 ISSING\r\nContent-Length: 0\r\n\r\n")
	outcome, _ := p.ConsumeBytes(data)
	assert.Equal(t, Malformed, outcome)
	assert.Equal(t, BadMajor, p.Status())
}

func TestRequestParserUnknownVerb(t *testing.T) {
	req := NewRequest()
	p := NewRequestParser(req)
	data := []byte("MPP/2.3.3 XISSING\r\n")
	outcome, _ := p.ConsumeBytes(data)
	assert.Equal(t, Malformed, outcome)
	assert.Equal(t, UnknownVerb, p.Status())
}

func TestRequestParserFOOBARIsBadRequest(t *testing.T) {
	req := NewRequest()
	p := NewRequestParser(req)
	data := []byte("MPP/2.3.3 FOOBAR\r\n")
	outcome, _ := p.ConsumeBytes(data)
	assert.Equal(t, Malformed, outcome)
	assert.Equal(t, BadRequest, p.Status())
}

func TestRequestParserInvalidUTF8Noun(t *testing.T) {
	req := NewRequest()
	p := NewRequestParser(req)
	data := []byte("MPP/2.3.3 ISSING\r\nContent-Length: 2\r\n\r\n")
	data = append(data, 0xC0, 0x20)
	outcome, _ := p.ConsumeBytes(data)
	assert.Equal(t, Malformed, outcome)
	assert.Equal(t, InvalidUTF8, p.Status())
}

func TestRequestParserNonMalayalamCodepoint(t *testing.T) {
	req := NewRequest()
	p := NewRequestParser(req)
	data := []byte("MPP/2.3.3 ISSING\r\nContent-Length: 1\r\n\r\nA")
	outcome, _ := p.ConsumeBytes(data)
	assert.Equal(t, Malformed, outcome)
	assert.Equal(t, BadRequest, p.Status())
}

func TestRequestParserChunkIndependence(t *testing.T) {
	full := happyISSING()

	reqFull := NewRequest()
	pFull := NewRequestParser(reqFull)
	outcomeFull, _ := pFull.ConsumeBytes(full)
	require.Equal(t, Done, outcomeFull)

	reqChunked := NewRequest()
	pChunked := NewRequestParser(reqChunked)
	var last Outcome
	for _, c := range full {
		last = pChunked.Consume(c)
	}
	assert.Equal(t, Done, last)
	assert.Equal(t, reqFull.Command, reqChunked.Command)
	assert.Equal(t, string(reqFull.Noun), string(reqChunked.Noun))
}

func TestRequestParserResetIsIdempotent(t *testing.T) {
	req := NewRequest()
	p := NewRequestParser(req)

	data := []byte("MPP/9.9.9 BAD\r\n")
	outcome, _ := p.ConsumeBytes(data)
	assert.Equal(t, Malformed, outcome)

	p.Reset()
	outcome2, n := p.ConsumeBytes(happyISSING())
	assert.Equal(t, Done, outcome2)
	assert.Equal(t, len(happyISSING()), n)
	assert.Equal(t, ISSING, req.Command)
}

func TestRequestParserNeedMoreOnPartialData(t *testing.T) {
	req := NewRequest()
	p := NewRequestParser(req)
	outcome, n := p.ConsumeBytes([]byte("MPP/2.3"))
	assert.Equal(t, NeedMore, outcome)
	assert.Equal(t, 7, n)
}

func TestRequestParserStopsExactlyAtContentLength(t *testing.T) {
	req := NewRequest()
	p := NewRequestParser(req)
	// Content-Length says 3 bytes (one Malayalam codepoint); a second,
	// unrelated request follows in the same buffer and must be left unread.
	data := append(happyISSING(), []byte("MPP/2.3.3 ISSING\r\n")...)
	outcome, n := p.ConsumeBytes(data)
	assert.Equal(t, Done, outcome)
	assert.Equal(t, len(happyISSING()), n)
	assert.Less(t, n, len(data))
}
