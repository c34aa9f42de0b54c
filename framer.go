package encap

//
// Framing engine: the stateful byte packer
//

// FramerState is the discrete mode of the [FramingEngine].
type FramerState int

const (
	// FramerWaitLength means the engine is waiting for the next
	// packet's length while opportunistically capturing the packet's
	// first payload unit.
	FramerWaitLength = FramerState(iota)

	// FramerBody means the engine is streaming payload units through
	// the sliding window.
	FramerBody

	// FramerTail means the engine owes the consumer one final unit
	// holding the carried payload remainder plus zero filler.
	FramerTail
)

// String implements fmt.Stringer.
func (s FramerState) String() string {
	switch s {
	case FramerWaitLength:
		return "wait-length"
	case FramerBody:
		return "body"
	case FramerTail:
		return "tail"
	default:
		return "unknown"
	}
}

// FramingEngine pops packet lengths and payload units from a
// [PacketBuffer] in lockstep, prepends the fabricated header to each
// packet, and re-emits header plus payload as a new sequence of
// fixed-width output units under two-sided flow control.
//
// Because the header size H does not divide the lane width W, every
// output unit after the first spans two consecutive input units. The
// engine therefore keeps one unit of carry state: the most recently
// received payload unit, whose last H bytes have not been emitted yet.
//
// The zero value is invalid; use [NewFramingEngine] to construct.
type FramingEngine struct {
	// buffers is the elastic buffer pair we drain.
	buffers *PacketBuffer

	// cfg is the static addressing configuration.
	cfg *HeaderConfig

	// logger is the logger to use.
	logger Logger

	// width is the lane width W in bytes.
	width int

	// remainder is R = W - HeaderSize, the payload bytes that share
	// the first output unit with the header.
	remainder int

	// state is the discrete mode.
	state FramerState

	// carry is the most recently captured payload unit.
	carry TransferUnit

	// captured tells whether carry holds a live unit.
	captured bool
}

// NewFramingEngine creates a [FramingEngine] reading from the given
// buffer pair. The lane width must exceed [HeaderSize].
func NewFramingEngine(
	buffers *PacketBuffer, cfg *HeaderConfig, width int, logger Logger) (*FramingEngine, error) {
	if width <= HeaderSize {
		return nil, ErrLaneTooNarrow
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}
	fe := &FramingEngine{
		buffers:   buffers,
		cfg:       cfg,
		logger:    logger,
		width:     width,
		remainder: width - HeaderSize,
		state:     FramerWaitLength,
		carry:     TransferUnit{},
		captured:  false,
	}
	return fe, nil
}

// State returns the engine's current mode.
func (fe *FramingEngine) State() FramerState {
	return fe.state
}

// Step advances the engine by one tick. The outReady flag is the
// downstream consumer's readiness during this tick. When the engine has
// an output unit and outReady holds, Step returns the unit and true and
// commits the corresponding state transition; otherwise it returns nil
// and false and every transition except the opportunistic first-unit
// capture is suspended. The engine pulls at most one payload unit from
// the buffers per emitted output unit, so a stalled consumer stalls the
// queues too.
func (fe *FramingEngine) Step(outReady bool) (*TransferUnit, bool) {
	switch fe.state {
	case FramerBody:
		return fe.stepBody(outReady)
	case FramerTail:
		return fe.stepTail(outReady)
	default:
		return fe.stepWaitLength(outReady)
	}
}

// stepWaitLength handles one tick in the wait-length mode.
func (fe *FramingEngine) stepWaitLength(outReady bool) (*TransferUnit, bool) {
	// the first payload unit may arrive before its packet's length, so
	// capture it as soon as it shows up, ready or not
	if !fe.captured {
		if unit, ok := fe.buffers.PopUnit(); ok {
			fe.carry = unit
			fe.captured = true
		}
	}

	// hold until the length arrived, the first unit arrived, and the
	// consumer accepts output
	if !outReady || !fe.captured || !fe.buffers.LengthAvailable() {
		return nil, false
	}
	length, _ := fe.buffers.PopLength()
	fe.logger.Debugf("encap: framer: payload length %d", length)

	// first output unit: header plus the head of the first payload unit
	header := BuildHeader(fe.cfg, length)
	out := TransferUnit{
		Data: make([]byte, fe.width),
		Keep: nil,
		Last: false,
	}
	copy(out.Data, header)
	count := CountBytes(fe.carry.Keep)

	// short packet: the whole payload fits next to the header
	if fe.carry.Last && count <= fe.remainder {
		copy(out.Data[HeaderSize:], fe.carry.Data[:count])
		out.Keep = NewKeepMask(fe.width, HeaderSize+count)
		out.Last = true
		fe.restart()
		return &out, true
	}

	copy(out.Data[HeaderSize:], fe.carry.Data[:fe.remainder])
	out.Keep = NewKeepMask(fe.width, fe.width)
	if fe.carry.Last {
		fe.state = FramerTail
	} else {
		fe.state = FramerBody
	}
	return &out, true
}

// stepBody handles one tick in the body mode.
func (fe *FramingEngine) stepBody(outReady bool) (*TransferUnit, bool) {
	if !outReady || !fe.buffers.UnitAvailable() {
		return nil, false
	}
	unit, _ := fe.buffers.PopUnit()

	// sliding window: the carried tail of the previous unit plus the
	// head of the one we just pulled
	out := TransferUnit{
		Data: make([]byte, fe.width),
		Keep: nil,
		Last: false,
	}
	copy(out.Data, fe.carry.Data[fe.remainder:])
	count := CountBytes(unit.Keep)

	// final window: the new unit's payload ends within this output unit
	if unit.Last && count <= fe.remainder {
		copy(out.Data[HeaderSize:], unit.Data[:count])
		out.Keep = NewKeepMask(fe.width, HeaderSize+count)
		out.Last = true
		fe.restart()
		return &out, true
	}

	copy(out.Data[HeaderSize:], unit.Data[:fe.remainder])
	out.Keep = NewKeepMask(fe.width, fe.width)
	fe.carry = unit
	if unit.Last {
		fe.state = FramerTail
	}
	return &out, true
}

// stepTail handles one tick in the tail mode: emit the carried payload
// remainder padded with invalid zero bytes.
func (fe *FramingEngine) stepTail(outReady bool) (*TransferUnit, bool) {
	if !outReady {
		return nil, false
	}
	count := CountBytes(fe.carry.Keep) - fe.remainder
	out := TransferUnit{
		Data: make([]byte, fe.width),
		Keep: NewKeepMask(fe.width, count),
		Last: true,
	}
	copy(out.Data, fe.carry.Data[fe.remainder:fe.remainder+count])
	fe.restart()
	return &out, true
}

// restart resets the per-packet state after emitting a packet's final
// output unit.
func (fe *FramingEngine) restart() {
	fe.state = FramerWaitLength
	fe.carry = TransferUnit{}
	fe.captured = false
}
