package encap

//
// Byte counting and per-packet length measurement
//

import "math/bits"

// CountBytes returns the number of valid bytes in a keep bitmap. This is
// the exact popcount of the mask and runs in O(W/8).
func CountBytes(mask KeepMask) int {
	total := 0
	for _, b := range mask {
		total += bits.OnesCount8(b)
	}
	return total
}

// LengthAccumulator sums the valid-byte counts of a packet's transfer
// units and emits the total when the final unit arrives. The zero value
// is ready to use.
//
// Callers MUST invoke [LengthAccumulator.Absorb] only for units that were
// actually accepted, that is on a tick where the producer asserted valid
// and the downstream queue asserted ready. Feeding a stalled unit twice
// would double count it.
type LengthAccumulator struct {
	// total is the running byte count of the packet in flight.
	total uint32
}

// Absorb accounts for one accepted unit. When the unit is the last of
// its packet, Absorb returns the finished payload length and true, and
// resets the running total for the next packet. Otherwise it returns
// zero and false.
func (la *LengthAccumulator) Absorb(unit TransferUnit) (uint16, bool) {
	la.total += uint32(CountBytes(unit.Keep))
	if !unit.Last {
		return 0, false
	}
	length := uint16(la.total)
	la.total = 0
	return length, true
}
