package ft8

/*
 * FT8 Protocol Constants
 * Symbol layout and coding parameters per the WSJT-X FT8 definition
 */

// FT8 symbol structure: S D1 S D2 S
// S  - sync block (7 symbols of the Costas pattern)
// D1 - first data block (29 symbols, 3 bits each)
// D2 - second data block (29 symbols, 3 bits each)
const (
	NumDataSymbols = 58 // Data-bearing channel symbols
	NumSymbols     = 79 // Total channel symbols per transmission
	SyncLength     = 7  // Length of each sync group
	NumSyncBlocks  = 3  // Number of sync groups
	SyncOffset     = 36 // Symbol offset between sync groups
)

// LDPC (174,91) code parameters
const (
	CodewordBits = 174 // Bits in the encoded codeword
	MessageBits  = 91  // Information bits (77 payload + 14 CRC)
	ParityChecks = 83  // Parity check equations
	PayloadBits  = 77  // Source-encoded message bits
)

// CRC-14 parameters. The CRC is computed over the payload zero-extended
// from 77 to 82 bits.
const (
	CRCPolynomial = 0x2757 // Polynomial without the leading 1
	CRCWidth      = 14
	CRCInputBits  = 82
)

// Timing and modulation
const (
	SlotSeconds   = 15.0  // One transmit/receive cycle
	SymbolSeconds = 0.160 // Duration of one channel symbol
	ToneSpacingHz = 6.25  // 8-FSK tone spacing (1 / SymbolSeconds)
	NumTones      = 8
)

// CostasPattern is the 7x7 synchronization tone sequence transmitted at
// symbol offsets 0, 36 and 72.
var CostasPattern = [7]uint8{3, 1, 4, 0, 6, 5, 2}

// GrayMap encodes 3-bit groups onto the 8 tones.
var GrayMap = [8]uint8{0, 1, 3, 2, 5, 6, 4, 7}
