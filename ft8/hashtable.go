package ft8

import (
	"sync"
	"time"
)

/*
 * Callsign Hash Table
 * Non-standard and hashed callsign references carry a 22, 12 or 10 bit
 * hash instead of the callsign itself. The table remembers callsigns seen
 * in full so later hashed references resolve, with aged eviction.
 */

// HashWidth selects which of the three hash fields to match on.
type HashWidth int

const (
	Hash22 HashWidth = iota
	Hash12
	Hash10
)

type hashEntry struct {
	callsign string
	seen     time.Time
}

// CallsignHashTable maps callsign hashes to callsigns. Safe for concurrent
// use by the decode workers.
type CallsignHashTable struct {
	mu     sync.RWMutex
	by22   map[uint32]*hashEntry
	by12   map[uint16]uint32 // secondary indexes into by22
	by10   map[uint16]uint32
	maxAge time.Duration
}

// NewCallsignHashTable creates an empty table. Entries older than maxAge are
// dropped by Cleanup; zero means the default of one hour.
func NewCallsignHashTable(maxAge time.Duration) *CallsignHashTable {
	if maxAge == 0 {
		maxAge = time.Hour
	}
	return &CallsignHashTable{
		by22:   make(map[uint32]*hashEntry),
		by12:   make(map[uint16]uint32),
		by10:   make(map[uint16]uint32),
		maxAge: maxAge,
	}
}

// HashCallsign computes the 22-bit callsign hash. The callsign is packed
// base-38 into 58 bits, space padded to 11 characters, and mixed with the
// standard multiplier.
func HashCallsign(callsign string) (uint32, bool) {
	var n58 uint64
	i := 0
	for ; i < len(callsign) && i < 11; i++ {
		j := Nchar(callsign[i], AlphabetHashChars)
		if j < 0 {
			return 0, false
		}
		n58 = n58*38 + uint64(j)
	}
	for ; i < 11; i++ {
		n58 *= 38
	}
	return uint32((47055833459 * n58) >> (64 - 22) & 0x3FFFFF), true
}

// Save stores a callsign under all three hash widths. Invalid callsigns are
// ignored.
func (ht *CallsignHashTable) Save(callsign string) {
	n22, ok := HashCallsign(callsign)
	if !ok {
		return
	}

	ht.mu.Lock()
	defer ht.mu.Unlock()
	ht.by22[n22] = &hashEntry{callsign: callsign, seen: time.Now()}
	ht.by12[uint16(n22>>10)] = n22
	ht.by10[uint16(n22>>12)] = n22
}

// Lookup resolves a hash of the given width to a previously seen callsign.
func (ht *CallsignHashTable) Lookup(width HashWidth, hash uint32) (string, bool) {
	ht.mu.RLock()
	defer ht.mu.RUnlock()

	n22 := hash
	switch width {
	case Hash12:
		var ok bool
		if n22, ok = ht.by12[uint16(hash)]; !ok {
			return "", false
		}
	case Hash10:
		var ok bool
		if n22, ok = ht.by10[uint16(hash)]; !ok {
			return "", false
		}
	}

	entry, ok := ht.by22[n22]
	if !ok {
		return "", false
	}
	return entry.callsign, true
}

// Cleanup drops entries older than the retention age and returns how many
// were removed.
func (ht *CallsignHashTable) Cleanup() int {
	ht.mu.Lock()
	defer ht.mu.Unlock()

	cutoff := time.Now().Add(-ht.maxAge)
	removed := 0
	for n22, entry := range ht.by22 {
		if entry.seen.Before(cutoff) {
			delete(ht.by22, n22)
			delete(ht.by12, uint16(n22>>10))
			delete(ht.by10, uint16(n22>>12))
			removed++
		}
	}
	return removed
}

// Size returns the number of stored callsigns.
func (ht *CallsignHashTable) Size() int {
	ht.mu.RLock()
	defer ht.mu.RUnlock()
	return len(ht.by22)
}
