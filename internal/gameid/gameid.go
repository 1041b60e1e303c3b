// Package gameid generates sortable identifiers for rounds and table sessions.
// IDs are UUIDv7 values encoded as 26 lowercase Crockford base32 characters, so
// lexical order follows creation time.
package gameid

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/coder/quartz"
)

// Crockford's base32 alphabet (no i, l, o, u)
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length is the number of characters in an encoded ID
const Length = 26

// RandSource supplies the random portion of an ID. *math/rand/v2.Rand satisfies it.
type RandSource interface {
	IntN(n int) int
}

// Generator creates IDs from a clock and an optional deterministic RandSource.
// A nil RandSource uses crypto/rand.
type Generator struct {
	randSource RandSource
	clock      quartz.Clock
}

// NewGenerator creates a generator. A nil clock uses the real wall clock.
func NewGenerator(randSource RandSource, clock quartz.Clock) *Generator {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Generator{randSource: randSource, clock: clock}
}

// Generate creates an ID using crypto randomness and the wall clock
func Generate() string {
	return NewGenerator(nil, nil).Generate()
}

// Generate creates a new ID
func (g *Generator) Generate() string {
	return encode(g.uuidV7())
}

func (g *Generator) uuidV7() [16]byte {
	var id [16]byte

	ms := g.clock.Now("gameid").UnixMilli()
	for i := 0; i < 6; i++ {
		id[i] = byte(ms >> (40 - 8*i))
	}

	if g.randSource != nil {
		for i := 6; i < 16; i++ {
			id[i] = byte(g.randSource.IntN(256))
		}
	} else if _, err := rand.Read(id[6:]); err != nil {
		panic("gameid: crypto/rand failed: " + err.Error())
	}

	id[6] = (id[6] & 0x0f) | 0x70 // version 7
	id[8] = (id[8] & 0x3f) | 0x80 // RFC 4122 variant

	return id
}

// encode writes the 128 bits as 26 base32 digits, padding two zero bits at the
// front so the first digit is always 0-7.
func encode(data [16]byte) string {
	out := make([]byte, Length)
	bitPos := -2
	for i := 0; i < Length; i++ {
		var v byte
		for b := 0; b < 5; b++ {
			v <<= 1
			if bitPos >= 0 {
				v |= (data[bitPos/8] >> (7 - bitPos%8)) & 1
			}
			bitPos++
		}
		out[i] = alphabet[v]
	}
	return string(out)
}

// Validate checks that id is a well-formed encoded ID
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("id must be exactly %d characters, got %d", Length, len(id))
	}
	if id[0] > '7' {
		return fmt.Errorf("id first character must be 0-7, got %c", id[0])
	}
	for i, char := range id {
		if !strings.ContainsRune(alphabet, char) {
			return fmt.Errorf("invalid character %c at position %d", char, i)
		}
	}
	return nil
}
