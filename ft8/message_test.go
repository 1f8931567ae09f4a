package ft8

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnpackStandardCQ(t *testing.T) {
	payload := packStandardPayload("CQ", "K1ABC", "FN42")

	msg, err := Unpack(payload, nil)
	require.NoError(t, err)
	assert.Equal(t, TypeStandard, msg.Type)
	assert.Equal(t, "CQ", msg.CallTo)
	assert.Equal(t, "K1ABC", msg.CallDe)
	assert.Equal(t, "FN42", msg.Extra)
	assert.Equal(t, "CQ K1ABC FN42", msg.String())
}

func TestUnpackStandardDirected(t *testing.T) {
	payload := packStandardPayload("W9XYZ", "K1ABC", "EN37")

	msg, err := Unpack(payload, nil)
	require.NoError(t, err)
	assert.Equal(t, "W9XYZ K1ABC EN37", msg.String())
}

func TestUnpackStandardReport(t *testing.T) {
	var payload [10]uint8
	pos := putBits(payload[:], 0, uint64(packCall28("W9XYZ"))<<1, 29)
	pos = putBits(payload[:], pos, uint64(packCall28("K1ABC"))<<1, 29)
	pos = putBits(payload[:], pos, 1, 1) // roger
	pos = putBits(payload[:], pos, uint64(maxGrid4+35-8), 15)
	putBits(payload[:], pos, 1, 3)

	msg, err := Unpack(payload, nil)
	require.NoError(t, err)
	assert.Equal(t, "R-08", msg.Extra)

	// RR73 acknowledgement.
	var ack [10]uint8
	pos = putBits(ack[:], 0, uint64(packCall28("W9XYZ"))<<1, 29)
	pos = putBits(ack[:], pos, uint64(packCall28("K1ABC"))<<1, 29)
	pos = putBits(ack[:], pos, 0, 1)
	pos = putBits(ack[:], pos, uint64(maxGrid4+3), 15)
	putBits(ack[:], pos, 1, 3)

	msg, err = Unpack(ack, nil)
	require.NoError(t, err)
	assert.Equal(t, "W9XYZ K1ABC RR73", msg.String())
}

func TestUnpackStandardSavesCallsignHashes(t *testing.T) {
	ht := NewCallsignHashTable(0)
	payload := packStandardPayload("CQ", "K1ABC", "FN42")

	_, err := Unpack(payload, ht)
	require.NoError(t, err)

	n22, ok := HashCallsign("K1ABC")
	require.True(t, ok)
	call, found := ht.Lookup(Hash22, n22)
	require.True(t, found)
	assert.Equal(t, "K1ABC", call)
}

func TestUnpackFreeTextRoundTrip(t *testing.T) {
	// Base-42 pack of "TNX BOB 73 GL" (13 chars), the inverse of
	// unpackText13.
	text := "TNX BOB 73 GL"
	var n [9]uint8
	for i := 0; i < 13; i++ {
		d := Nchar(text[i], AlphabetFull)
		require.GreaterOrEqual(t, d, 0)
		carry := uint16(d)
		for j := 8; j >= 0; j-- {
			v := uint16(n[j])*42 + carry
			n[j] = uint8(v)
			carry = v >> 8
		}
	}

	msg, err := Unpack(shiftTextPayload(n), nil)
	require.NoError(t, err)
	assert.Equal(t, TypeFreeText, msg.Type)
	assert.Equal(t, text, msg.Text)
}

// shiftTextPayload places a 71-bit big-endian integer into bits 0-70 of the
// payload, leaving the 6-bit type tag (n3=0, i3=0) clear.
func shiftTextPayload(n [9]uint8) [10]uint8 {
	var payload [10]uint8
	for i := 0; i < 71; i++ {
		// Bit i of the 72-bit n (skipping its top bit, which is always 0
		// for 13 base-42 characters).
		bit := (n[(i+1)/8] >> (7 - (i+1)%8)) & 1
		if bit == 1 {
			payload[i/8] |= 0x80 >> (i % 8)
		}
	}
	return payload
}

func TestUnpackTelemetry(t *testing.T) {
	n := [9]uint8{0x12, 0x34, 0x56, 0x78, 0x9A, 0xBC, 0xDE, 0xF0, 0x1F}
	payload := shiftTextPayload(n)
	putBits(payload[:], 71, 5, 3) // n3=5
	putBits(payload[:], 74, 0, 3) // i3=0

	msg, err := Unpack(payload, nil)
	require.NoError(t, err)
	assert.Equal(t, TypeTelemetry, msg.Type)
	assert.Equal(t, "123456789ABCDEF01F", msg.Text)
}

func TestUnpackUnknownType(t *testing.T) {
	var payload [10]uint8
	putBits(payload[:], 74, 7, 3) // i3=7 is unassigned

	_, err := Unpack(payload, nil)
	var ute *UnknownTypeError
	require.ErrorAs(t, err, &ute)
	assert.Equal(t, uint8(7), ute.I3)
}

func TestUnpackNonstdCall(t *testing.T) {
	ht := NewCallsignHashTable(0)
	ht.Save("K1ABC")
	n22, _ := HashCallsign("K1ABC")

	// h12 c58 h1 r2 c1, i3=4: K1ABC (hashed) answered by PJ4/K1XYZ.
	var n58 uint64
	for _, c := range []byte("PJ4/K1XYZ") {
		n58 = n58*38 + uint64(Nchar(c, AlphabetHashChars))
	}
	for i := len("PJ4/K1XYZ"); i < 11; i++ {
		n58 *= 38
	}

	var payload [10]uint8
	pos := putBits(payload[:], 0, uint64(n22>>10), 12)
	pos = putBits(payload[:], pos, n58, 58)
	pos = putBits(payload[:], pos, 1, 1) // iflip: full call first
	pos = putBits(payload[:], pos, 3, 2) // 73
	pos = putBits(payload[:], pos, 0, 1)
	putBits(payload[:], pos, 4, 3) // i3=4

	msg, err := Unpack(payload, ht)
	require.NoError(t, err)
	assert.Equal(t, TypeNonstdCall, msg.Type)
	assert.Equal(t, "PJ4/K1XYZ", msg.CallTo)
	assert.Equal(t, "<K1ABC>", msg.CallDe)
	assert.Equal(t, "73", msg.Extra)
}

func TestIntToDD(t *testing.T) {
	assert.Equal(t, "+05", IntToDD(5, 2, true))
	assert.Equal(t, "-12", IntToDD(-12, 2, true))
	assert.Equal(t, "007", IntToDD(7, 3, false))
}

func TestCharnNcharInverse(t *testing.T) {
	for _, table := range []Alphabet{AlphabetFull, AlphabetAlphanumSpace, AlphabetAlphanum, AlphabetLettersSpace, AlphabetNumeric, AlphabetHashChars} {
		for i := 0; i < 43; i++ {
			c := Charn(i, table)
			if c == '_' {
				continue
			}
			assert.Equal(t, i, Nchar(c, table), "table %d index %d", table, i)
		}
	}
}
