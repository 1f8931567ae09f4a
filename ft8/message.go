package ft8

import (
	"strings"
)

/*
 * Message Unpacking
 * Converts the 77 payload bits into a structured message. The type tag
 * i3 (bits 74-76) with subtype n3 (bits 71-73 when i3=0) selects the
 * field layout.
 */

// Field packing limits of the 28-bit callsign space.
const (
	numTokens = 2063592 // DE/QRZ/CQ and the directed-CQ ranges
	maxHash22 = 4194304 // 2^22 hashed callsign values
	maxGrid4  = 32400   // 18*18*10*10 four-character grids
)

// MessageType identifies the payload layout of a decoded message.
type MessageType int

const (
	TypeFreeText   MessageType = iota // 0.0
	TypeDXpedition                    // 0.1
	TypeTelemetry                     // 0.5
	TypeContesting                    // 0.6
	TypeStandard                      // 1, 2
	TypeNonstdCall                    // 4
	TypeUnknown
)

var messageTypeNames = map[MessageType]string{
	TypeFreeText:   "free_text",
	TypeDXpedition: "dxpedition",
	TypeTelemetry:  "telemetry",
	TypeContesting: "contesting",
	TypeStandard:   "standard",
	TypeNonstdCall: "nonstd_call",
	TypeUnknown:    "unknown",
}

func (t MessageType) String() string {
	return messageTypeNames[t]
}

// Message is the structured form of one decoded payload. String() renders
// the conventional on-air text.
type Message struct {
	Type   MessageType
	CallTo string // Addressee, or "CQ"/"DE"/"QRZ" token
	CallDe string // Sender
	Extra  string // Locator, signal report, or RRR/RR73/73
	Text   string // Free text or telemetry hex payload
}

// String renders the message the way it reads on the air.
func (m *Message) String() string {
	if m.Text != "" {
		return m.Text
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{m.CallTo, m.CallDe, m.Extra} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// messageTag reads the i3/n3 type tag from the packed payload.
func messageTag(payload [10]uint8) (i3, n3 uint8) {
	i3 = (payload[9] >> 3) & 0x07
	n3 = ((payload[8] << 2) & 0x04) | ((payload[9] >> 6) & 0x03)
	return i3, n3
}

// Unpack decodes the 77-bit payload into a Message. The hash table resolves
// hashed callsign references and learns full callsigns as a side effect; a
// nil table leaves hashed references as "<...>" placeholders. Layouts not
// carried by this decoder return an UnknownTypeError.
func Unpack(payload [10]uint8, ht *CallsignHashTable) (Message, error) {
	i3, n3 := messageTag(payload)

	switch i3 {
	case 0:
		switch n3 {
		case 0:
			return Message{Type: TypeFreeText, Text: unpackText13(payload)}, nil
		case 1:
			return unpackDXpedition(payload, ht), nil
		case 5:
			return Message{Type: TypeTelemetry, Text: unpackTelemetryHex(payload)}, nil
		case 6:
			return unpackContesting(payload, ht), nil
		}
	case 1, 2:
		return unpackStandard(payload, ht), nil
	case 4:
		return unpackNonstd(payload, ht), nil
	}
	return Message{Type: TypeUnknown}, &UnknownTypeError{I3: i3, N3: n3}
}

// payload71 extracts the 71 information bits preceding the type tag as a
// big-endian 9-byte integer.
func payload71(payload [10]uint8) [9]uint8 {
	var b71 [9]uint8
	var carry uint8
	for i := 0; i < 9; i++ {
		b71[i] = (carry << 7) | (payload[i] >> 1)
		carry = payload[i] & 0x01
	}
	return b71
}

// unpackText13 decodes 13 characters of base-42 free text.
func unpackText13(payload [10]uint8) string {
	b71 := payload71(payload)

	var c13 [13]byte
	for idx := 12; idx >= 0; idx-- {
		rem := uint16(0)
		for i := 0; i < 9; i++ {
			rem = (rem << 8) | uint16(b71[i])
			b71[i] = uint8(rem / 42)
			rem %= 42
		}
		c13[idx] = Charn(int(rem), AlphabetFull)
	}
	return trimSpaces(string(c13[:]))
}

// unpackTelemetryHex renders the 71 telemetry bits as 18 hex digits.
func unpackTelemetryHex(payload [10]uint8) string {
	b71 := payload71(payload)

	const digits = "0123456789ABCDEF"
	var hex [18]byte
	for i := 0; i < 9; i++ {
		hex[i*2] = digits[b71[i]>>4]
		hex[i*2+1] = digits[b71[i]&0x0F]
	}
	return string(hex[:])
}

// unpackStandard decodes type 1/2 layout: c28 r1 c28 r1 R1 g15.
func unpackStandard(payload [10]uint8, ht *CallsignHashTable) Message {
	n29a := uint32(payload[0])<<21 | uint32(payload[1])<<13 | uint32(payload[2])<<5 | uint32(payload[3]>>3)
	n29b := uint32(payload[3]&0x07)<<26 | uint32(payload[4])<<18 | uint32(payload[5])<<10 | uint32(payload[6])<<2 | uint32(payload[7]>>6)
	r1 := (payload[7] >> 5) & 0x01
	igrid4 := uint16(payload[7]&0x1F)<<10 | uint16(payload[8])<<2 | uint16(payload[9]>>6)
	i3 := (payload[9] >> 3) & 0x07

	return Message{
		Type:   TypeStandard,
		CallTo: unpackCall28(n29a>>1, uint8(n29a&1), i3, ht),
		CallDe: unpackCall28(n29b>>1, uint8(n29b&1), i3, ht),
		Extra:  unpackGrid(igrid4, r1),
	}
}

// unpackNonstd decodes type 4 layout: h12 c58 h1 r2 c1.
func unpackNonstd(payload [10]uint8, ht *CallsignHashTable) Message {
	h12 := uint16(payload[0])<<4 | uint16(payload[1]>>4)
	n58 := uint64(payload[1]&0x0F)<<54 | uint64(payload[2])<<46 | uint64(payload[3])<<38 |
		uint64(payload[4])<<30 | uint64(payload[5])<<22 | uint64(payload[6])<<14 |
		uint64(payload[7])<<6 | uint64(payload[8]>>2)
	iflip := (payload[8] >> 1) & 0x01
	nrpt := uint8(payload[8]&0x01)<<1 | uint8(payload[9]>>7)
	icq := (payload[9] >> 6) & 0x01

	full := unpackCall58(n58, ht)
	hashed := "<...>"
	if ht != nil {
		if call, ok := ht.Lookup(Hash12, uint32(h12)); ok {
			hashed = "<" + call + ">"
		}
	}

	call1, call2 := hashed, full
	if iflip == 1 {
		call1, call2 = full, hashed
	}

	msg := Message{Type: TypeNonstdCall}
	if icq != 0 {
		msg.CallTo = "CQ"
		msg.CallDe = call2
		return msg
	}

	msg.CallTo = call1
	msg.CallDe = call2
	switch nrpt {
	case 1:
		msg.Extra = "RRR"
	case 2:
		msg.Extra = "RR73"
	case 3:
		msg.Extra = "73"
	}
	return msg
}

// unpackDXpedition decodes type 0.1 layout: c28 c28 h10 r5. The single
// slot carries two QSOs, rendered fox-style as "K1ABC RR73; W9XYZ <KH1/KH7Z> -08".
func unpackDXpedition(payload [10]uint8, ht *CallsignHashTable) Message {
	n28a := uint32(payload[0])<<20 | uint32(payload[1])<<12 | uint32(payload[2])<<4 | uint32(payload[3]>>4)
	n28b := uint32(payload[3]&0x0F)<<24 | uint32(payload[4])<<16 | uint32(payload[5])<<8 | uint32(payload[6])
	h10 := uint16(payload[7])<<2 | uint16(payload[8]>>6)
	r5 := (payload[8] >> 1) & 0x1F

	callDe := "<...>"
	if ht != nil {
		if call, ok := ht.Lookup(Hash10, uint32(h10)); ok {
			callDe = "<" + call + ">"
		}
	}

	return Message{
		Type:   TypeDXpedition,
		CallTo: unpackCall28(n28a, 0, 0, ht) + " RR73; " + unpackCall28(n28b, 0, 0, ht),
		CallDe: callDe,
		Extra:  IntToDD(int(r5)*2-30, 2, true),
	}
}

// unpackContesting decodes type 0.6 layout: c28 c28 g15.
func unpackContesting(payload [10]uint8, ht *CallsignHashTable) Message {
	n28a := uint32(payload[0])<<20 | uint32(payload[1])<<12 | uint32(payload[2])<<4 | uint32(payload[3]>>4)
	n28b := uint32(payload[3]&0x0F)<<24 | uint32(payload[4])<<16 | uint32(payload[5])<<8 | uint32(payload[6])
	g15 := uint16(payload[7]&0x7F)<<8 | uint16(payload[8])

	return Message{
		Type:   TypeContesting,
		CallTo: unpackCall28(n28a, 0, 0, ht),
		CallDe: unpackCall28(n28b, 0, 0, ht),
		Extra:  unpackGrid(g15, 0),
	}
}

// unpackCall28 decodes one 28-bit callsign field: special tokens, directed
// CQ, hashed reference, or a packed standard callsign. The ip bit appends
// /R (type 1) or /P (type 2).
func unpackCall28(n28 uint32, ip, i3 uint8, ht *CallsignHashTable) string {
	if n28 < numTokens {
		switch {
		case n28 == 0:
			return "DE"
		case n28 == 1:
			return "QRZ"
		case n28 == 2:
			return "CQ"
		case n28 <= 1002:
			// Directed CQ with a 3-digit number.
			return "CQ " + IntToDD(int(n28-3), 3, false)
		case n28 <= 532443:
			// Directed CQ with up to 4 letters.
			n := n28 - 1003
			var aaaa [4]byte
			for i := 3; i >= 0; i-- {
				aaaa[i] = Charn(int(n%27), AlphabetLettersSpace)
				n /= 27
			}
			return "CQ " + strings.TrimLeft(string(aaaa[:]), " ")
		}
		return ""
	}

	n28 -= numTokens
	if n28 < maxHash22 {
		if ht != nil {
			if call, ok := ht.Lookup(Hash22, n28); ok {
				return "<" + call + ">"
			}
		}
		return "<...>"
	}

	// Standard structured callsign: 1+1+1+3 characters from mixed alphabets.
	n := n28 - maxHash22
	var c6 [6]byte
	c6[5] = Charn(int(n%27), AlphabetLettersSpace)
	n /= 27
	c6[4] = Charn(int(n%27), AlphabetLettersSpace)
	n /= 27
	c6[3] = Charn(int(n%27), AlphabetLettersSpace)
	n /= 27
	c6[2] = Charn(int(n%10), AlphabetNumeric)
	n /= 10
	c6[1] = Charn(int(n%36), AlphabetAlphanum)
	n /= 36
	c6[0] = Charn(int(n%37), AlphabetAlphanumSpace)

	call := string(c6[:])
	switch {
	case strings.HasPrefix(call, "3D0") && call[3] != ' ':
		// Swaziland packs as 3D0 + suffix.
		call = "3DA0" + trimSpaces(call[3:])
	case call[0] == 'Q' && isLetter(call[1]):
		// Guinea packs with the 3X prefix folded into Q.
		call = "3X" + trimSpaces(call[1:])
	default:
		call = trimSpaces(call)
	}
	if len(call) < 3 {
		return ""
	}

	if ip != 0 {
		switch i3 {
		case 1:
			call += "/R"
		case 2:
			call += "/P"
		}
	}

	if ht != nil {
		ht.Save(call)
	}
	return call
}

// unpackCall58 decodes an 11-character base-38 non-standard callsign.
func unpackCall58(n58 uint64, ht *CallsignHashTable) string {
	var c11 [11]byte
	for i := 10; i >= 0; i-- {
		c11[i] = Charn(int(n58%38), AlphabetHashChars)
		n58 /= 38
	}

	call := trimSpaces(string(c11[:]))
	if ht != nil && len(call) >= 3 {
		ht.Save(call)
	}
	return call
}

// unpackGrid decodes the 15-bit grid/report field: a 4-character locator,
// a signal report, or one of the RRR/RR73/73 acknowledgements. The R1 bit
// prefixes the roger marker.
func unpackGrid(igrid4 uint16, r1 uint8) string {
	switch igrid4 {
	case 0, maxGrid4 + 1:
		return ""
	case maxGrid4 + 2:
		return "RRR"
	case maxGrid4 + 3:
		return "RR73"
	case maxGrid4 + 4:
		return "73"
	}

	if igrid4 <= maxGrid4 {
		n := int(igrid4)
		var grid [4]byte
		grid[3] = '0' + byte(n%10)
		n /= 10
		grid[2] = '0' + byte(n%10)
		n /= 10
		grid[1] = 'A' + byte(n%18)
		n /= 18
		grid[0] = 'A' + byte(n%18)

		if r1 == 1 {
			return "R " + string(grid[:])
		}
		return string(grid[:])
	}

	report := IntToDD(int(igrid4)-maxGrid4-35, 2, true)
	if r1 == 1 {
		return "R" + report
	}
	return report
}
