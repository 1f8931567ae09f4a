package ft8

import (
	"math"
)

// Test-only encoding support: packing payloads, completing them to valid
// codewords against the parity check tables, and synthesizing the 8-FSK
// waveform. The shipped API is receive-only, so these live with the tests.

// packCall28 is the inverse of unpackCall28 for standard callsigns and the
// CQ/DE/QRZ tokens.
func packCall28(call string) uint32 {
	switch call {
	case "DE":
		return 0
	case "QRZ":
		return 1
	case "CQ":
		return 2
	}

	// Align so the digit lands in the third slot.
	if len(call) < 6 && call[1] >= '0' && call[1] <= '9' {
		call = " " + call
	}
	for len(call) < 6 {
		call += " "
	}

	n := uint32(Nchar(call[0], AlphabetAlphanumSpace))
	n = n*36 + uint32(Nchar(call[1], AlphabetAlphanum))
	n = n*10 + uint32(Nchar(call[2], AlphabetNumeric))
	n = n*27 + uint32(Nchar(call[3], AlphabetLettersSpace))
	n = n*27 + uint32(Nchar(call[4], AlphabetLettersSpace))
	n = n*27 + uint32(Nchar(call[5], AlphabetLettersSpace))
	return numTokens + maxHash22 + n
}

// packGridLocator packs a 4-character locator into the 15-bit grid field.
func packGridLocator(grid string) uint16 {
	g := (uint16(grid[0]-'A')*18+uint16(grid[1]-'A'))*10 + uint16(grid[2]-'0')
	return g*10 + uint16(grid[3]-'0')
}

// putBits writes the low width bits of v into the payload MSB-first,
// starting at bit position pos, and returns the next position.
func putBits(payload []uint8, pos int, v uint64, width int) int {
	for i := width - 1; i >= 0; i-- {
		if v>>i&1 == 1 {
			payload[pos/8] |= 0x80 >> (pos % 8)
		}
		pos++
	}
	return pos
}

// packStandardPayload builds a type-1 payload from two callsigns and a grid.
func packStandardPayload(callTo, callDe, grid string) [10]uint8 {
	var payload [10]uint8

	// Field layout: c29 c29 R1 g15 i3.
	pos := putBits(payload[:], 0, uint64(packCall28(callTo))<<1, 29)
	pos = putBits(payload[:], pos, uint64(packCall28(callDe))<<1, 29)
	pos = putBits(payload[:], pos, 0, 1)
	pos = putBits(payload[:], pos, uint64(packGridLocator(grid)), 15)
	putBits(payload[:], pos, 1, 3)
	return payload
}

// encodeCodeword completes a 77-bit payload into a valid 174-bit codeword:
// CRC attached, then the 83 parity bits solved from the check equations by
// Gaussian elimination over GF(2).
func encodeCodeword(payload [10]uint8) [CodewordBits]uint8 {
	a91 := make([]uint8, 12)
	copy(a91, payload[:])
	AttachCRC(a91)

	var codeword [CodewordBits]uint8
	for i := 0; i < MessageBits; i++ {
		codeword[i] = (a91[i/8] >> (7 - i%8)) & 1
	}

	// One equation per check: XOR of its parity bits equals the XOR of its
	// message bits. Parity bit k is codeword index MessageBits+k.
	type equation struct {
		mask [2]uint64 // Bits over the 83 parity unknowns
		rhs  uint8
	}
	eqs := make([]equation, ParityChecks)
	for m, row := range checkNodeTable {
		for _, v := range row {
			idx := int(v) - 1
			if idx >= MessageBits {
				k := idx - MessageBits
				eqs[m].mask[k/64] ^= 1 << (k % 64)
			} else {
				eqs[m].rhs ^= codeword[idx]
			}
		}
	}

	maskBit := func(e *equation, k int) bool {
		return e.mask[k/64]>>(k%64)&1 == 1
	}
	where := make([]int, ParityChecks)
	row := 0
	for bit := 0; bit < ParityChecks; bit++ {
		piv := -1
		for i := row; i < ParityChecks; i++ {
			if maskBit(&eqs[i], bit) {
				piv = i
				break
			}
		}
		if piv < 0 {
			continue
		}
		eqs[row], eqs[piv] = eqs[piv], eqs[row]
		for i := 0; i < ParityChecks; i++ {
			if i != row && maskBit(&eqs[i], bit) {
				eqs[i].mask[0] ^= eqs[row].mask[0]
				eqs[i].mask[1] ^= eqs[row].mask[1]
				eqs[i].rhs ^= eqs[row].rhs
			}
		}
		where[bit] = row
		row++
	}

	for bit := 0; bit < ParityChecks; bit++ {
		codeword[MessageBits+bit] = eqs[where[bit]].rhs
	}
	return codeword
}

// synthesize renders the 79-tone transmission as continuous-phase 8-FSK at
// the given base frequency, placed offsetSamples into a buffer of
// totalSamples.
func synthesize(tones [NumSymbols]int, rate int, baseHz float64, offsetSamples, totalSamples int, amplitude float64) []float32 {
	samples := make([]float32, totalSamples)
	blockSize := int(float64(rate) * SymbolSeconds)

	phase := 0.0
	for s, tone := range tones {
		step := 2 * math.Pi * (baseHz + float64(tone)*ToneSpacingHz) / float64(rate)
		base := offsetSamples + s*blockSize
		for i := 0; i < blockSize; i++ {
			idx := base + i
			if idx < 0 || idx >= totalSamples {
				phase += step
				continue
			}
			phase += step
			samples[idx] = float32(amplitude * math.Sin(phase))
		}
	}
	return samples
}

// synthesizeMessage is the full test transmitter: payload to waveform.
func synthesizeMessage(payload [10]uint8, rate int, baseHz float64, offsetSamples, totalSamples int) []float32 {
	codeword := encodeCodeword(payload)
	tones := TonesFromCodeword(&codeword)
	return synthesize(tones, rate, baseHz, offsetSamples, totalSamples, 0.5)
}
