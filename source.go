package encap

//
// Synthetic traffic source
//

import "math/rand"

// PayloadSource generates a deterministic stream of synthetic payload
// packets, already chunked into transfer units, for tests and for the
// cmd/encapgen tool. The zero value is invalid; use [NewPayloadSource]
// to construct.
//
// The source is an infinite producer: [PayloadSource.Peek] always offers
// a unit. Call [PayloadSource.Advance] only on ticks where the pipeline
// accepted the offered unit, which models a producer holding its valid
// signal across stalled ticks.
type PayloadSource struct {
	// maxLen is the largest payload length we generate.
	maxLen int

	// minLen is the smallest payload length we generate.
	minLen int

	// pending is the remainder of the current packet.
	pending []TransferUnit

	// rnd is the random number generator.
	rnd *rand.Rand

	// width is the lane width.
	width int
}

// NewPayloadSource creates a [PayloadSource] emitting packets whose
// payload lengths are uniform in [minLen, maxLen]. The same seed always
// produces the same packet stream.
func NewPayloadSource(width, minLen, maxLen int, seed int64) *PayloadSource {
	return &PayloadSource{
		maxLen:  maxLen,
		minLen:  minLen,
		pending: nil,
		rnd:     rand.New(rand.NewSource(seed)),
		width:   width,
	}
}

// NextPayload generates the next packet's raw payload bytes.
func (ps *PayloadSource) NextPayload() []byte {
	length := ps.minLen + ps.rnd.Intn(ps.maxLen-ps.minLen+1)
	payload := make([]byte, length)
	ps.rnd.Read(payload)
	return payload
}

// Peek returns the unit the source is offering this tick.
func (ps *PayloadSource) Peek() *TransferUnit {
	if len(ps.pending) <= 0 {
		ps.pending = ChunkPayload(ps.width, ps.NextPayload())
	}
	return &ps.pending[0]
}

// Advance consumes the offered unit after the pipeline accepted it.
func (ps *PayloadSource) Advance() {
	ps.pending = ps.pending[1:]
}
