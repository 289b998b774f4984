package protocol

// utf8State names the byte-at-a-time validator/extractor automaton's
// states. Mirrors vuu::UTF8Validator's curStat / vuu::CodepointFinder.
type utf8State int

const (
	codepointStart utf8State = iota
	twobyteSecond
	threebyteSecond
	threebyteThird
	fourbyteSecond
	fourbyteThird
	fourbyteFourth
)

// MalayalamBlockStart and MalayalamBlockEnd bound the Malayalam Unicode
// block (spec.md glossary).
const (
	MalayalamBlockStart rune = 0x0D00
	MalayalamBlockEnd   rune = 0x0D7F
)

// InMalayalamBlock reports whether cp lies in U+0D00..U+0D7F inclusive.
func InMalayalamBlock(cp rune) bool {
	return cp >= MalayalamBlockStart && cp <= MalayalamBlockEnd
}

// UTF8Validator is a byte-at-a-time validating automaton. It does not
// allocate and holds only its current state, so it is safe to reuse
// across streams after a call to Reset.
type UTF8Validator struct {
	state utf8State
}

// Reset returns the validator to the state-expecting-a-new-codepoint.
func (v *UTF8Validator) Reset() {
	v.state = codepointStart
}

// Step consumes one byte and reports whether it was a legal continuation
// of the current sequence. On a false return the stream is invalid and
// the validator must not be reused without a Reset.
func (v *UTF8Validator) Step(c byte) bool {
	switch v.state {
	case codepointStart:
		switch {
		case c&0x80 == 0x00: // 0xxxxxxx
			return true
		case c&0xE0 == 0xC0: // 110xxxxx
			v.state = twobyteSecond
			return true
		case c&0xF0 == 0xE0: // 1110xxxx
			v.state = threebyteSecond
			return true
		case c&0xF8 == 0xF0: // 11110xxx
			v.state = fourbyteSecond
			return true
		default:
			return false
		}
	case twobyteSecond:
		if c&0xC0 == 0x80 {
			v.state = codepointStart
			return true
		}
		return false
	case threebyteSecond:
		if c&0xC0 == 0x80 {
			v.state = threebyteThird
			return true
		}
		return false
	case threebyteThird:
		if c&0xC0 == 0x80 {
			v.state = codepointStart
			return true
		}
		return false
	case fourbyteSecond:
		if c&0xC0 == 0x80 {
			v.state = fourbyteThird
			return true
		}
		return false
	case fourbyteThird:
		if c&0xC0 == 0x80 {
			v.state = fourbyteFourth
			return true
		}
		return false
	case fourbyteFourth:
		if c&0xC0 == 0x80 {
			v.state = codepointStart
			return true
		}
		return false
	default:
		return false
	}
}

// Done reports whether the validator is at a codepoint boundary, i.e. a
// stream that ends here is well-formed.
func (v *UTF8Validator) Done() bool {
	return v.state == codepointStart
}

// ValidUTF8 reports whether b is a complete, valid UTF-8 byte sequence
// (every byte accepted and the automaton back at a codepoint boundary).
func ValidUTF8(b []byte) bool {
	var v UTF8Validator
	for _, c := range b {
		if !v.Step(c) {
			return false
		}
	}
	return v.Done()
}

// CodepointExtractor is the same automaton as UTF8Validator, but also
// accumulates the payload bits of the codepoint currently being decoded
// and emits the assembled rune each time it returns to codepointStart.
// Mirrors vuu::CodepointFinder.
type CodepointExtractor struct {
	state utf8State
	acc   rune
}

func (e *CodepointExtractor) Reset() {
	e.state = codepointStart
	e.acc = 0
}

// Step consumes one byte. It returns (cp, true, true) when a codepoint was
// just completed, (0, false, true) when the byte was accepted but more
// continuation bytes are needed, and (0, false, false) on an invalid byte.
func (e *CodepointExtractor) Step(c byte) (cp rune, complete bool, ok bool) {
	switch e.state {
	case codepointStart:
		switch {
		case c&0x80 == 0x00:
			return rune(c), true, true
		case c&0xE0 == 0xC0:
			e.acc = rune(c & 0x1F)
			e.state = twobyteSecond
			return 0, false, true
		case c&0xF0 == 0xE0:
			e.acc = rune(c & 0x0F)
			e.state = threebyteSecond
			return 0, false, true
		case c&0xF8 == 0xF0:
			e.acc = rune(c & 0x07)
			e.state = fourbyteSecond
			return 0, false, true
		default:
			return 0, false, false
		}
	case twobyteSecond:
		if c&0xC0 != 0x80 {
			return 0, false, false
		}
		e.acc = (e.acc << 6) | rune(c&0x3F)
		v := e.acc
		e.state = codepointStart
		e.acc = 0
		return v, true, true
	case threebyteSecond:
		if c&0xC0 != 0x80 {
			return 0, false, false
		}
		e.acc = (e.acc << 6) | rune(c&0x3F)
		e.state = threebyteThird
		return 0, false, true
	case threebyteThird:
		if c&0xC0 != 0x80 {
			return 0, false, false
		}
		e.acc = (e.acc << 6) | rune(c&0x3F)
		v := e.acc
		e.state = codepointStart
		e.acc = 0
		return v, true, true
	case fourbyteSecond:
		if c&0xC0 != 0x80 {
			return 0, false, false
		}
		e.acc = (e.acc << 6) | rune(c&0x3F)
		e.state = fourbyteThird
		return 0, false, true
	case fourbyteThird:
		if c&0xC0 != 0x80 {
			return 0, false, false
		}
		e.acc = (e.acc << 6) | rune(c&0x3F)
		e.state = fourbyteFourth
		return 0, false, true
	case fourbyteFourth:
		if c&0xC0 != 0x80 {
			return 0, false, false
		}
		e.acc = (e.acc << 6) | rune(c&0x3F)
		v := e.acc
		e.state = codepointStart
		e.acc = 0
		return v, true, true
	default:
		return 0, false, false
	}
}

// Codepoints decodes b fully and returns every codepoint in order, or ok
// = false on the first invalid byte.
func Codepoints(b []byte) (cps []rune, ok bool) {
	var e CodepointExtractor
	cps = make([]rune, 0, len(b))
	for _, c := range b {
		cp, complete, valid := e.Step(c)
		if !valid {
			return nil, false
		}
		if complete {
			cps = append(cps, cp)
		}
	}
	if e.state != codepointStart {
		return nil, false
	}
	return cps, true
}

// AllMalayalam reports whether every codepoint of b (which must already be
// valid UTF-8) lies within the Malayalam block.
func AllMalayalam(b []byte) bool {
	cps, ok := Codepoints(b)
	if !ok {
		return false
	}
	for _, cp := range cps {
		if !InMalayalamBlock(cp) {
			return false
		}
	}
	return true
}
