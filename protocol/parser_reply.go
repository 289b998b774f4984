package protocol

import (
	"log/slog"
	"strconv"

	uuid "github.com/satori/go.uuid"
)

// repState enumerates the reply parser's states; mirrors reqState but for
// the status-line grammar of spec.md §4.4.
type repState int

const (
	rpProtoM repState = iota
	rpProtoP1
	rpProtoP2
	rpSlash
	rpMajor
	rpMinor
	rpPatch
	rpCode1
	rpCode2
	rpCode3
	rpSpaceAfterCode
	rpReason
	rpLfAfterStatus
	rpHeaderName
	rpSpaceAfterName
	rpHeaderValue
	rpLfAfterHeaderValue
	rpLfAfterHeaders
	rpContent
)

// ReplyParser is the mirror of RequestParser for the client side: a
// restartable, byte-at-a-time machine that consumes server output and
// populates a Reply.
type ReplyParser struct {
	state repState
	rep   *Reply

	digitBuf  [3]byte
	digitLen  int
	codeBuf   [3]byte
	codeLen   int
	reasonBuf []byte

	headerName  []byte
	headerValue []byte

	nBytes  int
	content []byte

	status Status

	log *slog.Logger
}

// NewReplyParser returns a parser ready to populate rep.
func NewReplyParser(rep *Reply) *ReplyParser {
	p := &ReplyParser{rep: rep, log: DefaultLogger().With("caller", "ReplyParser")}
	p.Reset()
	return p
}

func (p *ReplyParser) Reset() {
	p.state = rpProtoM
	p.digitLen = 0
	p.codeLen = 0
	p.reasonBuf = p.reasonBuf[:0]
	p.headerName = p.headerName[:0]
	p.headerValue = p.headerValue[:0]
	p.nBytes = 0
	p.content = nil
	p.status = Invalid
	if p.rep != nil {
		p.rep.Status = Invalid
		p.rep.Reason = ""
		p.rep.Headers = nil
		p.rep.Content = nil
	}
}

func (p *ReplyParser) Status() Status {
	return p.status
}

func (p *ReplyParser) fail(s Status) Outcome {
	p.status = s
	p.log.Debug("reply malformed", "status", s, "reason", s.Reason())
	return Malformed
}

// SetState is the back-door described in spec.md §4.4: it lets a caller
// that already consumed the status line with a line-based I/O primitive
// (e.g. bufio.Reader.ReadString('\n')) hand the parsed fields straight to
// the Reply and resume parsing at the header phase. Rarely needed; the
// byte-at-a-time Consume path handles the status line itself just fine.
func (p *ReplyParser) SetState(version Version, status Status, reason string) {
	p.rep.Status = status
	p.rep.Reason = reason
	_ = version
	p.state = rpHeaderName
}

func (p *ReplyParser) Consume(c byte) Outcome {
	switch p.state {
	case rpProtoM:
		if c != 'M' {
			return p.fail(BadRequest)
		}
		p.state = rpProtoP1
		return NeedMore
	case rpProtoP1:
		if c != 'P' {
			return p.fail(BadRequest)
		}
		p.state = rpProtoP2
		return NeedMore
	case rpProtoP2:
		if c != 'P' {
			return p.fail(BadRequest)
		}
		p.state = rpSlash
		return NeedMore
	case rpSlash:
		if c != '/' {
			return p.fail(BadRequest)
		}
		p.digitLen = 0
		p.state = rpMajor
		return NeedMore

	case rpMajor:
		if isDigit(c) {
			return p.accumDigit(c)
		}
		if c == '.' {
			if _, err := p.parseDigitBuf(); err != nil {
				return p.fail(BadRequest)
			}
			p.state = rpMinor
			return NeedMore
		}
		return p.fail(BadRequest)
	case rpMinor:
		if isDigit(c) {
			return p.accumDigit(c)
		}
		if c == '.' {
			if _, err := p.parseDigitBuf(); err != nil {
				return p.fail(BadRequest)
			}
			p.state = rpPatch
			return NeedMore
		}
		return p.fail(BadRequest)
	case rpPatch:
		if isDigit(c) {
			return p.accumDigit(c)
		}
		if isSpaceByte(c) {
			if _, err := p.parseDigitBuf(); err != nil {
				return p.fail(BadRequest)
			}
			p.state = rpCode1
			return NeedMore
		}
		return p.fail(BadRequest)

	case rpCode1, rpCode2:
		if !isDigit(c) {
			return p.fail(BadRequest)
		}
		p.codeBuf[p.codeLen] = c
		p.codeLen++
		if p.state == rpCode1 {
			p.state = rpCode2
		} else {
			p.state = rpCode3
		}
		return NeedMore
	case rpCode3:
		if !isDigit(c) {
			return p.fail(BadRequest)
		}
		p.codeBuf[p.codeLen] = c
		p.codeLen++
		code, err := strconv.Atoi(string(p.codeBuf[:p.codeLen]))
		p.codeLen = 0
		if err != nil {
			return p.fail(BadRequest)
		}
		p.rep.Status = Status(code)
		p.state = rpSpaceAfterCode
		return NeedMore

	case rpSpaceAfterCode:
		if !isSpaceByte(c) {
			return p.fail(BadRequest)
		}
		p.state = rpReason
		return NeedMore

	case rpReason:
		if c == '\r' {
			p.rep.Reason = string(p.reasonBuf)
			p.reasonBuf = p.reasonBuf[:0]
			p.state = rpLfAfterStatus
			return NeedMore
		}
		p.reasonBuf = append(p.reasonBuf, c)
		return NeedMore

	case rpLfAfterStatus:
		if c != '\n' {
			return p.fail(BadRequest)
		}
		p.state = rpHeaderName
		return NeedMore

	case rpHeaderName:
		if c == ':' {
			p.state = rpSpaceAfterName
			return NeedMore
		}
		if c == '\r' {
			p.state = rpLfAfterHeaders
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

	case rpSpaceAfterName:
		if !isSpaceByte(c) {
			return p.fail(BadRequest)
		}
		p.state = rpHeaderValue
		return NeedMore

	case rpHeaderValue:
		if c == '\r' {
			if err := p.commitHeader(); err != nil {
				return p.fail(BadRequest)
			}
			p.state = rpLfAfterHeaderValue
			return NeedMore
		}
		if len(p.headerValue) >= MaxHeaderValueLen {
			return p.fail(BadRequest)
		}
		p.headerValue = append(p.headerValue, c)
		return NeedMore

	case rpLfAfterHeaderValue:
		if c != '\n' {
			return p.fail(BadRequest)
		}
		if len(p.rep.Headers) > MaxHeaders {
			return p.fail(BadRequest)
		}
		p.state = rpHeaderName
		return NeedMore

	case rpLfAfterHeaders:
		if c != '\n' {
			return p.fail(BadRequest)
		}
		if p.nBytes == 0 {
			return p.finish()
		}
		p.content = make([]byte, 0, p.nBytes)
		p.state = rpContent
		return NeedMore

	case rpContent:
		if p.nBytes <= 0 {
			return p.fail(BadRequest)
		}
		p.content = append(p.content, c)
		p.nBytes--
		if p.nBytes == 0 {
			return p.finish()
		}
		return NeedMore

	default:
		return p.fail(BadRequest)
	}
}

func (p *ReplyParser) accumDigit(c byte) Outcome {
	if p.digitLen >= len(p.digitBuf) {
		return p.fail(BadRequest)
	}
	p.digitBuf[p.digitLen] = c
	p.digitLen++
	return NeedMore
}

func (p *ReplyParser) parseDigitBuf() (int, error) {
	if p.digitLen == 0 {
		return 0, strconv.ErrSyntax
	}
	v, err := strconv.Atoi(string(p.digitBuf[:p.digitLen]))
	p.digitLen = 0
	return v, err
}

func (p *ReplyParser) commitHeader() error {
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
		p.rep.Headers = append(p.rep.Headers, IntHeader(name, n))
		return nil
	}
	p.rep.Headers = append(p.rep.Headers, TextHeader(name, value))
	return nil
}

func (p *ReplyParser) finish() Outcome {
	p.rep.Content = p.content
	p.rep.TraceID = uuid.NewV4()
	return Done
}

// ConsumeBytes drives the parser over data, mirroring RequestParser.ConsumeBytes.
func (p *ReplyParser) ConsumeBytes(data []byte) (Outcome, int) {
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
