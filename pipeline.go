package encap

//
// Pipeline: tick-driven wiring of measurement, buffering, and framing
//

// PipelineConfig contains config for creating a [Pipeline]. Make sure
// you initialize all the fields marked as MANDATORY.
type PipelineConfig struct {
	// Header is the MANDATORY static addressing configuration.
	Header *HeaderConfig

	// Logger is the MANDATORY logger.
	Logger Logger

	// LaneWidth is the OPTIONAL transfer-unit width in bytes. A zero
	// value implies [DefaultLaneWidth]. The width must exceed
	// [HeaderSize].
	LaneWidth int

	// DataQueueCapacity is the OPTIONAL Data Queue depth in units. A
	// zero value implies [DefaultDataQueueCapacity]. The queue must be
	// able to hold one maximum-size packet.
	DataQueueCapacity int

	// LengthQueueCapacity is the OPTIONAL Length Queue depth. A zero
	// value implies [DefaultLengthQueueCapacity]. The queue must be
	// able to hold as many entries as minimum-size packets fit into
	// the Data Queue.
	LengthQueueCapacity int

	// CheckLockstep OPTIONALLY enables the elastic buffers' debug
	// assertion on the queue lockstep invariant.
	CheckLockstep bool
}

// Default [PipelineConfig] values.
const (
	// DefaultLaneWidth is the default transfer-unit width.
	DefaultLaneWidth = 64

	// DefaultDataQueueCapacity is the default Data Queue depth. With
	// the default lane width this holds a 1500-byte packet twice over.
	DefaultDataQueueCapacity = 48

	// DefaultLengthQueueCapacity is the default Length Queue depth.
	DefaultLengthQueueCapacity = 48
)

// Pipeline is the full encapsulation pipeline: the input edge feeds the
// elastic buffers while the [LengthAccumulator] measures each packet, and
// the [FramingEngine] drains the buffers into framed output units. The
// zero value is invalid; use [NewPipeline] to construct.
//
// The pipeline is fully synchronous and single flow: one [Pipeline.Tick]
// call advances every component by one discrete time step, and all
// readiness conditions are sampled at the start of the tick.
type Pipeline struct {
	// accumulator measures per-packet payload lengths.
	accumulator LengthAccumulator

	// buffers is the elastic buffer pair.
	buffers *PacketBuffer

	// framer is the framing engine.
	framer *FramingEngine

	// logger is the logger to use.
	logger Logger

	// width is the lane width in bytes.
	width int
}

// NewPipeline creates a [Pipeline] from the given config.
func NewPipeline(config *PipelineConfig) (*Pipeline, error) {
	width := config.LaneWidth
	if width <= 0 {
		width = DefaultLaneWidth
	}
	dataCapacity := config.DataQueueCapacity
	if dataCapacity <= 0 {
		dataCapacity = DefaultDataQueueCapacity
	}
	lengthCapacity := config.LengthQueueCapacity
	if lengthCapacity <= 0 {
		lengthCapacity = DefaultLengthQueueCapacity
	}
	buffers, err := NewPacketBuffer(dataCapacity, lengthCapacity, config.CheckLockstep)
	if err != nil {
		return nil, err
	}
	framer, err := NewFramingEngine(buffers, config.Header, width, config.Logger)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		accumulator: LengthAccumulator{},
		buffers:     buffers,
		framer:      framer,
		logger:      config.Logger,
		width:       width,
	}
	p.logger.Infof(
		"encap: pipeline up: lane width %d, data queue %d, length queue %d",
		width, dataCapacity, lengthCapacity,
	)
	return p, nil
}

// LaneWidth returns the configured transfer-unit width.
func (p *Pipeline) LaneWidth() int {
	return p.width
}

// InputReady returns whether the input edge would accept a unit with the
// given last flag on this tick.
func (p *Pipeline) InputReady(last bool) bool {
	return p.buffers.Ready(last)
}

// Tick advances the whole pipeline by one step. The in argument is the
// unit the producer offers this tick, or nil when the producer is idle;
// outReady is the downstream consumer's readiness. Tick returns whether
// the offered unit was accepted and the output unit emitted this tick,
// if any.
//
// Readiness is sampled at the start of the tick: the framing engine
// operates on the queue state as it was before this tick's input push,
// and the input edge's acceptance does not observe room freed by this
// tick's queue pops.
func (p *Pipeline) Tick(in *TransferUnit, outReady bool) (bool, *TransferUnit) {
	// sample the input edge's readiness before the framer pops
	accepted := in != nil && p.buffers.Ready(in.Last)

	// let the framer observe the start-of-tick queue state
	out, _ := p.framer.Step(outReady)

	// land the accepted unit; an offered-but-stalled unit is not
	// counted, so there is no double counting across stalled ticks
	if accepted {
		length, done := p.accumulator.Absorb(*in)
		p.buffers.Push(*in, length)
		if done {
			p.logger.Debugf("encap: input: packet complete, %d bytes", length)
		}
	}

	return accepted, out
}

// Drain repeatedly ticks the pipeline with an idle producer and a ready
// consumer until no more output units appear, returning the units that
// were emitted. This is how a caller flushes datagrams that are already
// fully buffered.
func (p *Pipeline) Drain() []TransferUnit {
	var units []TransferUnit
	for {
		_, out := p.Tick(nil, true)
		if out == nil {
			return units
		}
		units = append(units, *out)
	}
}
