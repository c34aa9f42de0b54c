package encap

//
// Data model
//

import "errors"

// KeepMask is a per-byte validity bitmap over a transfer unit. Bit i,
// counting from the least significant bit of the first byte, covers the
// i-th byte lane of the unit.
type KeepMask []byte

// NewKeepMask creates a [KeepMask] of the given width with the first
// valid bits set. The source stream contract guarantees that valid bytes
// are always the contiguous low-order head of a unit, so this constructor
// covers every well formed mask.
func NewKeepMask(width, valid int) KeepMask {
	mask := make(KeepMask, (width+7)/8)
	for i := 0; i < valid; i++ {
		mask[i/8] |= 1 << (i % 8)
	}
	return mask
}

// Bit returns whether the i-th byte lane is valid.
func (m KeepMask) Bit(i int) bool {
	if i/8 >= len(m) {
		return false
	}
	return m[i/8]&(1<<(i%8)) != 0
}

// TransferUnit is one fixed-width chunk of bytes moved per tick, with a
// per-byte validity bitmap and an end-of-packet flag. Invalid bytes may
// only appear in the final unit of a packet and are always the
// contiguous tail of the unit.
type TransferUnit struct {
	// Data contains exactly the lane-width bytes.
	Data []byte

	// Keep is the validity bitmap covering Data.
	Keep KeepMask

	// Last indicates the final unit of a packet.
	Last bool
}

// NewTransferUnit creates a unit of the given width carrying the given
// payload bytes, which must not exceed the width. The unused tail of the
// unit is zero filled and marked invalid.
func NewTransferUnit(width int, payload []byte, last bool) TransferUnit {
	data := make([]byte, width)
	copy(data, payload)
	return TransferUnit{
		Data: data,
		Keep: NewKeepMask(width, len(payload)),
		Last: last,
	}
}

// ValidBytes returns the valid prefix of the unit's data.
func (u TransferUnit) ValidBytes() []byte {
	return u.Data[:CountBytes(u.Keep)]
}

// ChunkPayload splits a payload into the ordered sequence of transfer
// units that a well formed producer would emit for it: full units with
// every byte valid, terminated by exactly one unit with Last set, which
// is the only unit allowed to be partially valid. A zero-length payload
// yields a single empty unit with Last set.
func ChunkPayload(width int, payload []byte) []TransferUnit {
	var units []TransferUnit
	for {
		n := len(payload)
		if n <= width {
			units = append(units, NewTransferUnit(width, payload, true))
			return units
		}
		units = append(units, NewTransferUnit(width, payload[:width], false))
		payload = payload[width:]
	}
}

// Logger is the logger we're using.
type Logger interface {
	// Debugf formats and emits a debug message.
	Debugf(format string, v ...any)

	// Debug emits a debug message.
	Debug(message string)

	// Infof formats and emits an informational message.
	Infof(format string, v ...any)

	// Info emits an informational message.
	Info(message string)

	// Warnf formats and emits a warning message.
	Warnf(format string, v ...any)

	// Warn emits a warning message.
	Warn(message string)
}

// NullLogger is a [Logger] that does not emit logs.
type NullLogger struct{}

// Debug implements Logger
func (nl *NullLogger) Debug(message string) {
	// nothing
}

// Debugf implements Logger
func (nl *NullLogger) Debugf(format string, v ...any) {
	// nothing
}

// Info implements Logger
func (nl *NullLogger) Info(message string) {
	// nothing
}

// Infof implements Logger
func (nl *NullLogger) Infof(format string, v ...any) {
	// nothing
}

// Warn implements Logger
func (nl *NullLogger) Warn(message string) {
	// nothing
}

// Warnf implements Logger
func (nl *NullLogger) Warnf(format string, v ...any) {
	// nothing
}

var _ Logger = &NullLogger{}

// ErrLaneTooNarrow indicates that the configured lane width does not
// exceed the header size, leaving no room for payload in the first
// output unit of a datagram.
var ErrLaneTooNarrow = errors.New("encap: lane width must exceed the header size")

// ErrQueueCapacity indicates a nonpositive queue capacity.
var ErrQueueCapacity = errors.New("encap: queue capacity must be positive")

// ErrHeaderConfig indicates an invalid [HeaderConfig].
var ErrHeaderConfig = errors.New("encap: invalid header configuration")
