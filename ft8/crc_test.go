package ft8

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRCRoundTrip(t *testing.T) {
	payload := packStandardPayload("CQ", "K1ABC", "FN42")

	a91 := make([]uint8, 12)
	copy(a91, payload[:])
	AttachCRC(a91)

	assert.True(t, CheckCRC(a91))
	assert.Equal(t, ComputeCRC(func() []uint8 {
		buf := make([]uint8, 12)
		copy(buf, a91)
		buf[9] &= 0xF8
		buf[10], buf[11] = 0, 0
		return buf
	}(), CRCInputBits), ExtractCRC(a91))
}

func TestCRCDetectsBitFlips(t *testing.T) {
	payload := packStandardPayload("W9XYZ", "K1ABC", "EN37")
	a91 := make([]uint8, 12)
	copy(a91, payload[:])
	AttachCRC(a91)
	require.True(t, CheckCRC(a91))

	// Any single payload bit flip must be caught.
	for bit := 0; bit < PayloadBits; bit++ {
		corrupted := make([]uint8, 12)
		copy(corrupted, a91)
		corrupted[bit/8] ^= 0x80 >> (bit % 8)
		assert.False(t, CheckCRC(corrupted), "flip of payload bit %d not detected", bit)
	}

	// Flips in the stored checksum itself.
	for bit := PayloadBits; bit < MessageBits; bit++ {
		corrupted := make([]uint8, 12)
		copy(corrupted, a91)
		corrupted[bit/8] ^= 0x80 >> (bit % 8)
		assert.False(t, CheckCRC(corrupted), "flip of crc bit %d not detected", bit)
	}
}

func TestPackBits(t *testing.T) {
	bits := []uint8{1, 0, 1, 1, 0, 0, 0, 1, 1}
	packed := PackBits(bits)
	require.Len(t, packed, 2)
	assert.Equal(t, uint8(0xB1), packed[0])
	assert.Equal(t, uint8(0x80), packed[1])
}
