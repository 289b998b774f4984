package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidUTF8(t *testing.T) {
	cases := []struct {
		name  string
		b     []byte
		valid bool
	}{
		{"ascii", []byte("hello"), true},
		{"malayalam char", []byte("അ"), true},
		{"malayalam word", []byte("അവൻ"), true},
		{"truncated 2-byte", []byte{0xC0}, false},
		{"bad continuation", []byte{0xC0, 0x20}, false},
		{"lone continuation byte", []byte{0x80}, false},
		{"empty", []byte{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.valid, ValidUTF8(tc.b))
		})
	}
}

func TestCodepointsMalayalam(t *testing.T) {
	cps, ok := Codepoints([]byte("അ"))
	assert.True(t, ok)
	assert.Len(t, cps, 1)
	assert.True(t, InMalayalamBlock(cps[0]))
}

func TestAllMalayalamRejectsLatin(t *testing.T) {
	assert.True(t, ValidUTF8([]byte("A")))
	assert.False(t, AllMalayalam([]byte("A")))
}

func TestUTF8ValidatorStepByStep(t *testing.T) {
	var v UTF8Validator
	word := []byte("അവൻ")
	for _, c := range word {
		assert.True(t, v.Step(c))
	}
	assert.True(t, v.Done())
}

func TestUTF8ValidatorRejectsInvalidByte(t *testing.T) {
	var v UTF8Validator
	assert.True(t, v.Step(0xC0)) // start of malformed 2-byte sequence
	assert.False(t, v.Step(0x20))
}
