package protocol

import (
	"strconv"
)

// BufferList is the codec's zero-copy-ish output: an ordered list of byte
// spans to be written in sequence. Mirrors mpp::Reply::toBuffers /
// mpp::Request::toBuffers, which hand Boost.Asio a vector of const_buffer
// referencing the live Reply/Request; here each span is computed once at
// encode time and must not be mutated while a write is outstanding.
type BufferList [][]byte

// Size returns the total byte length across every span, used for
// partial-write accounting by callers that track how much of a
// BufferList has already been written.
func (bl BufferList) Size() int {
	n := 0
	for _, b := range bl {
		n += len(b)
	}
	return n
}

// Bytes flattens the list into a single contiguous slice. Convenience for
// callers (like net.Buffers-averse transports, or tests) that don't need
// vectored I/O.
func (bl BufferList) Bytes() []byte {
	out := make([]byte, 0, bl.Size())
	for _, b := range bl {
		out = append(out, b...)
	}
	return out
}

var (
	crlf       = []byte("\r\n")
	headerSep  = []byte(": ")
	space      = []byte(" ")
	mppSlash   = []byte("MPP/")
	dot        = []byte(".")
)

// EncodeRequest linearises a Request into the wire format described in
// spec.md §4.2.
func EncodeRequest(r *Request) BufferList {
	var bl BufferList
	bl = append(bl, mppSlash)
	bl = append(bl, []byte(strconv.Itoa(r.Version.Major)), dot)
	bl = append(bl, []byte(strconv.Itoa(r.Version.Minor)), dot)
	bl = append(bl, []byte(strconv.Itoa(r.Version.Patch)), space)
	bl = append(bl, []byte(r.Command.String()), crlf)

	headers := r.Headers
	if _, ok := headers.Get(ContentLengthHeaderName); !ok {
		headers = append(HeaderList{IntHeader(ContentLengthHeaderName, uint64(len(r.Noun)))}, headers...)
	}
	for _, h := range headers {
		bl = append(bl, []byte(h.Name), headerSep, []byte(h.Value()), crlf)
	}
	bl = append(bl, crlf)
	if len(r.Noun) > 0 {
		bl = append(bl, r.Noun)
	}
	return bl
}

// EncodeReply linearises a Reply into the wire format described in
// spec.md §4.2.
func EncodeReply(r *Reply) BufferList {
	var bl BufferList
	bl = append(bl, mppSlash)
	bl = append(bl, []byte(strconv.Itoa(CurrentVersion.Major)), dot)
	bl = append(bl, []byte(strconv.Itoa(CurrentVersion.Minor)), dot)
	bl = append(bl, []byte(strconv.Itoa(CurrentVersion.Patch)), space)
	bl = append(bl, []byte(strconv.Itoa(int(r.Status))), space)
	bl = append(bl, []byte(r.Reason), crlf)

	headers := r.Headers
	if _, ok := headers.Get(ContentLengthHeaderName); !ok {
		headers = append(HeaderList{IntHeader(ContentLengthHeaderName, uint64(len(r.Content)))}, headers...)
	}
	for _, h := range headers {
		bl = append(bl, []byte(h.Name), headerSep, []byte(h.Value()), crlf)
	}
	bl = append(bl, crlf)
	if len(r.Content) > 0 {
		bl = append(bl, r.Content)
	}
	return bl
}
