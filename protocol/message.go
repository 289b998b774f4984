package protocol

import (
	uuid "github.com/satori/go.uuid"
)

// Request is the server-side view of an MPP request, mutated exclusively
// by RequestParser while it consumes bytes, then handed read-only to the
// NounEngine once parsing reaches Done.
type Request struct {
	Version Version
	Command Command
	Headers HeaderList
	Noun    []byte

	// TraceID is a local diagnostic id stamped on Done, never put on the
	// wire. Mirrors sip/message.go's use of satori/go.uuid for message
	// identity.
	TraceID uuid.UUID
}

// NewRequest returns an empty Request ready to be driven by a RequestParser.
func NewRequest() *Request {
	return &Request{Command: INVALID}
}

func (r *Request) AddHeader(h Header) {
	r.Headers = append(r.Headers, h)
}

// Reply is the client-side view of an MPP reply and also what the server
// builds after consulting the NounEngine.
type Reply struct {
	Status  Status
	Reason  string
	Headers HeaderList
	Content []byte

	TraceID uuid.UUID
}

// NewReply builds a Reply with the canonical reason phrase for status and
// always a Content-Type header, content-free replies included — mirroring
// mpp::ReqHandler::handleReq, which sets Content-Type to "text/utf-8" on
// every reply path it builds (ISSING's content-free Singular/Plural,
// FOF's content-free noPlural/noSingular, and FOF's form replies alike).
func NewReply(status Status, content []byte) *Reply {
	r := &Reply{
		Status:  status,
		Reason:  status.Reason(),
		Content: content,
	}
	r.AddHeader(TextHeader("Content-Type", "text/utf-8"))
	return r
}

func (r *Reply) AddHeader(h Header) {
	r.Headers = append(r.Headers, h)
}

// StockReply synthesises a minimal, content-free Reply for a failure
// status. Mirrors mpp::Reply::stockReply, which tags every stock reply
// "text/plain" rather than handleReq's "text/utf-8" — the two code paths
// use different literal strings in the original and that distinction is
// preserved here.
func StockReply(status Status) *Reply {
	return &Reply{
		Status:  status,
		Reason:  status.Reason(),
		Headers: HeaderList{TextHeader("Content-Type", "text/plain")},
	}
}
