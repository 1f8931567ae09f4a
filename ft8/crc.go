package ft8

/*
 * CRC-14 Checksum
 * The 77 payload bits are zero-extended to 82 bits and protected by a
 * 14-bit CRC, stored in bits 77-90 of the 91-bit message.
 */

// PackBits packs a slice of single-bit values into bytes, MSB first. The
// last byte is zero-padded.
func PackBits(bits []uint8) []uint8 {
	packed := make([]uint8, (len(bits)+7)/8)
	for i, b := range bits {
		if b != 0 {
			packed[i/8] |= 0x80 >> (i % 8)
		}
	}
	return packed
}

// ComputeCRC calculates the 14-bit checksum over the first numBits bits of
// the packed message, MSB first.
func ComputeCRC(packed []uint8, numBits int) uint16 {
	const topBit = uint16(1) << (CRCWidth - 1)

	var reg uint16
	for i := 0; i < numBits; i++ {
		bit := (packed[i/8] >> (7 - i%8)) & 1
		reg ^= uint16(bit) << (CRCWidth - 1)
		if reg&topBit != 0 {
			reg = (reg << 1) ^ CRCPolynomial
		} else {
			reg <<= 1
		}
	}
	return reg & ((1 << CRCWidth) - 1)
}

// ExtractCRC reads the stored checksum from bits 77-90 of the packed 91-bit
// message.
func ExtractCRC(a91 []uint8) uint16 {
	return (uint16(a91[9]&0x07) << 11) | (uint16(a91[10]) << 3) | (uint16(a91[11]) >> 5)
}

// CheckCRC verifies the stored checksum against one computed over the
// payload. The payload is zero-extended from 77 to 82 bits before hashing,
// so the three low bits of byte 9 are masked off for the computation.
func CheckCRC(a91 []uint8) bool {
	var buf [12]uint8
	copy(buf[:], a91[:12])
	buf[9] &= 0xF8
	buf[10] = 0
	buf[11] = 0
	return ComputeCRC(buf[:], CRCInputBits) == ExtractCRC(a91)
}

// AttachCRC computes and stores the checksum over the 77 payload bits of
// a91, completing the 91-bit message in place.
func AttachCRC(a91 []uint8) {
	buf := make([]uint8, 12)
	copy(buf, a91[:12])
	buf[9] &= 0xF8
	buf[10] = 0
	buf[11] = 0
	crc := ComputeCRC(buf, CRCInputBits)

	a91[9] = (a91[9] & 0xF8) | uint8(crc>>11)
	a91[10] = uint8(crc >> 3)
	a91[11] = uint8(crc << 5)
}
