package protocol

import (
	"log/slog"
	"strconv"

	uuid "github.com/satori/go.uuid"
)

// reqState enumerates the request parser's states. Transitions are
// implemented case by case in RequestParser.Consume; see spec.md §4.3.
type reqState int

const (
	rsProtoM reqState = iota
	rsProtoP1
	rsProtoP2
	rsSlash
	rsMajor
	rsMinor
	rsPatch
	rsVerbStart
	rsIssingS1
	rsIssingS2
	rsIssingI2
	rsIssingN
	rsIssingG
	rsFofO
	rsFofF
	rsCrAfterVerb
	rsLfAfterVerb
	rsHeaderName
	rsSpaceAfterName
	rsHeaderValue
	rsLfAfterHeaderValue
	rsLfAfterHeaders
	rsNoun
)

// Safety caps not specified by the wire grammar itself (spec.md §4.3:
// "There is no maximum header count or size in the contract;
// implementations should impose a safety cap").
const (
	MaxHeaders        = 64
	MaxHeaderValueLen = 8192
	MaxHeaderNameLen  = 128
)

// RequestParser is a restartable, byte-at-a-time state machine that
// consumes wire bytes and populates a Request. It holds no reference to
// any socket or buffer beyond its own small accumulators, so it can be
// driven by any byte source (a direct read, a chunked iterator, or tests
// that feed one byte at a time).
type RequestParser struct {
	state reqState
	req   *Request

	digitBuf [3]byte
	digitLen int

	headerName  []byte
	headerValue []byte

	nBytes int // residual bytes expected for the noun (mNBytes)
	noun   []byte

	status Status // failure code retained for the caller after Malformed

	log *slog.Logger
}

// NewRequestParser returns a parser ready to populate req. req is reset
// to empty (Command = INVALID) as a side effect.
func NewRequestParser(req *Request) *RequestParser {
	p := &RequestParser{req: req, log: DefaultLogger().With("caller", "RequestParser")}
	p.Reset()
	return p
}

// Reset returns the parser to rsProtoM and discards all accumulators.
// Must be called before reusing the parser for another request. Also
// resets the bound Request to empty.
func (p *RequestParser) Reset() {
	p.state = rsProtoM
	p.digitLen = 0
	p.headerName = p.headerName[:0]
	p.headerValue = p.headerValue[:0]
	p.nBytes = 0
	p.noun = nil
	p.status = Invalid
	if p.req != nil {
		p.req.Command = INVALID
		p.req.Headers = nil
		p.req.Noun = nil
		p.req.Version = Version{}
	}
}

// Status returns the failure code set by the most recent Malformed
// outcome. Meaningless otherwise.
func (p *RequestParser) Status() Status {
	return p.status
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t'
}
func isHeaderNameByte(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '-'
}

func toUpper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

func (p *RequestParser) fail(s Status) Outcome {
	p.status = s
	p.log.Debug("request malformed", "status", s, "reason", s.Reason())
	return Malformed
}

// Consume feeds one byte to the parser and returns the resulting outcome.
func (p *RequestParser) Consume(c byte) Outcome {
	switch p.state {
	case rsProtoM:
		if c != 'M' {
			return p.fail(BadRequest)
		}
		p.state = rsProtoP1
		return NeedMore
	case rsProtoP1:
		if c != 'P' {
			return p.fail(BadRequest)
		}
		p.state = rsProtoP2
		return NeedMore
	case rsProtoP2:
		if c != 'P' {
			return p.fail(BadRequest)
		}
		p.state = rsSlash
		return NeedMore
	case rsSlash:
		if c != '/' {
			return p.fail(BadRequest)
		}
		p.digitLen = 0
		p.state = rsMajor
		return NeedMore

	case rsMajor:
		return p.consumeVersionDigit(c, '.', rsMinor, func(v int) Outcome {
			p.req.Version.Major = v
			if v != CurrentVersion.Major {
				return p.fail(BadMajor)
			}
			return NeedMore
		})
	case rsMinor:
		return p.consumeVersionDigit(c, '.', rsPatch, func(v int) Outcome {
			p.req.Version.Minor = v
			if v != CurrentVersion.Minor {
				return p.fail(BadMinor)
			}
			return NeedMore
		})
	case rsPatch:
		if isDigit(c) {
			if p.digitLen >= len(p.digitBuf) {
				return p.fail(BadRequest)
			}
			p.digitBuf[p.digitLen] = c
			p.digitLen++
			return NeedMore
		}
		if isSpaceByte(c) {
			v, err := p.parseDigitBuf()
			if err != nil {
				return p.fail(BadRequest)
			}
			p.req.Version.Patch = v
			if v != CurrentVersion.Patch {
				return p.fail(BadPatch)
			}
			p.state = rsVerbStart
			return NeedMore
		}
		return p.fail(BadRequest)

	case rsVerbStart:
		switch toUpper(c) {
		case 'I':
			p.state = rsIssingS1
			return NeedMore
		case 'F':
			p.state = rsFofO
			return NeedMore
		default:
			return p.fail(UnknownVerb)
		}

	case rsIssingS1:
		return p.expectLetter(c, 'S', rsIssingS2)
	case rsIssingS2:
		return p.expectLetter(c, 'S', rsIssingI2)
	case rsIssingI2:
		return p.expectLetter(c, 'I', rsIssingN)
	case rsIssingN:
		return p.expectLetter(c, 'N', rsIssingG)
	case rsIssingG:
		if toUpper(c) != 'G' {
			return p.fail(BadRequest)
		}
		p.req.Command = ISSING
		p.state = rsCrAfterVerb
		return NeedMore

	case rsFofO:
		return p.expectLetter(c, 'O', rsFofF)
	case rsFofF:
		if toUpper(c) != 'F' {
			return p.fail(BadRequest)
		}
		p.req.Command = FOF
		p.state = rsCrAfterVerb
		return NeedMore

	case rsCrAfterVerb:
		if c != '\r' {
			return p.fail(BadRequest)
		}
		p.state = rsLfAfterVerb
		return NeedMore
	case rsLfAfterVerb:
		if c != '\n' {
			return p.fail(BadRequest)
		}
		p.state = rsHeaderName
		return NeedMore

	case rsHeaderName:
		if c == ':' {
			p.state = rsSpaceAfterName
			return NeedMore
		}
		if c == '\r' {
			p.state = rsLfAfterHeaders
			return NeedMore
		}
		if !isHeaderNameByte(c) {
			return p.fail(BadRequest)
		}
		if len(p.headerName) >= MaxHeaderNameLen {
			return p.fail(BadRequest)
		}
		p.headerName = append(p.headerName, c)
		return NeedMore

	case rsSpaceAfterName:
		if !isSpaceByte(c) {
			return p.fail(BadRequest)
		}
		p.state = rsHeaderValue
		return NeedMore

	case rsHeaderValue:
		if c == '\r' {
			if err := p.commitHeader(); err != nil {
				return p.fail(BadRequest)
			}
			p.state = rsLfAfterHeaderValue
			return NeedMore
		}
		if len(p.headerValue) >= MaxHeaderValueLen {
			return p.fail(BadRequest)
		}
		p.headerValue = append(p.headerValue, c)
		return NeedMore

	case rsLfAfterHeaderValue:
		if c != '\n' {
			return p.fail(BadRequest)
		}
		if len(p.req.Headers) > MaxHeaders {
			return p.fail(BadRequest)
		}
		p.state = rsHeaderName
		return NeedMore

	case rsLfAfterHeaders:
		if c != '\n' {
			return p.fail(BadRequest)
		}
		if p.nBytes > 0 {
			p.noun = make([]byte, 0, p.nBytes)
		}
		p.state = rsNoun
		if p.nBytes == 0 {
			return p.finishNoun()
		}
		return NeedMore

	case rsNoun:
		if p.nBytes <= 0 {
			return p.fail(BadRequest)
		}
		p.noun = append(p.noun, c)
		p.nBytes--
		if p.nBytes == 0 {
			return p.finishNoun()
		}
		return NeedMore

	default:
		return p.fail(BadRequest)
	}
}

// expectLetter matches the single-letter verb-spelling states.
func (p *RequestParser) expectLetter(c byte, want byte, next reqState) Outcome {
	if toUpper(c) != want {
		return p.fail(BadRequest)
	}
	p.state = next
	return NeedMore
}

func (p *RequestParser) parseDigitBuf() (int, error) {
	if p.digitLen == 0 {
		return 0, strconv.ErrSyntax
	}
	v, err := strconv.Atoi(string(p.digitBuf[:p.digitLen]))
	p.digitLen = 0
	return v, err
}

func (p *RequestParser) consumeVersionDigit(c byte, terminator byte, next reqState, onTerminate func(int) Outcome) Outcome {
	if isDigit(c) {
		if p.digitLen >= len(p.digitBuf) {
			return p.fail(BadRequest)
		}
		p.digitBuf[p.digitLen] = c
		p.digitLen++
		return NeedMore
	}
	if c == terminator {
		v, err := p.parseDigitBuf()
		if err != nil {
			return p.fail(BadRequest)
		}
		p.state = next
		return onTerminate(v)
	}
	return p.fail(BadRequest)
}

func (p *RequestParser) commitHeader() error {
	name := string(p.headerName)
	value := string(p.headerValue)
	p.headerName = p.headerName[:0]
	p.headerValue = p.headerValue[:0]

	if name == ContentLengthHeaderName {
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		p.nBytes = int(n)
		p.req.Headers = append(p.req.Headers, IntHeader(name, n))
		return nil
	}
	p.req.Headers = append(p.req.Headers, TextHeader(name, value))
	return nil
}

func (p *RequestParser) finishNoun() Outcome {
	if !ValidUTF8(p.noun) {
		return p.fail(InvalidUTF8)
	}
	if !AllMalayalam(p.noun) {
		return p.fail(BadRequest)
	}
	p.req.Noun = p.noun
	p.req.TraceID = uuid.NewV4()
	return Done
}

// ConsumeBytes drives the parser over data and returns the outcome plus
// the number of bytes consumed. On Done or Malformed, parsing halts and
// the caller can recover data[n:] as unread suffix. On NeedMore, n ==
// len(data): every byte was consumed.
func (p *RequestParser) ConsumeBytes(data []byte) (Outcome, int) {
	for i, c := range data {
		switch p.Consume(c) {
		case Done:
			return Done, i + 1
		case Malformed:
			return Malformed, i + 1
		}
	}
	return NeedMore, len(data)
}
