package encap

//
// Static producer and collecting consumer for driving the pipeline
//

// StaticUnitSource is a producer offering a fixed sequence of transfer
// units, one per tick, holding each until accepted. Use it to replay a
// known input stream through a [Pipeline].
type StaticUnitSource struct {
	// units is the not-yet-accepted remainder of the sequence.
	units []TransferUnit
}

// NewStaticUnitSource creates a [StaticUnitSource] offering the
// given units in order.
func NewStaticUnitSource(units ...TransferUnit) *StaticUnitSource {
	return &StaticUnitSource{units: append([]TransferUnit{}, units...)}
}

// Peek returns the unit offered this tick, or nil when the sequence
// is exhausted.
func (ss *StaticUnitSource) Peek() *TransferUnit {
	if len(ss.units) <= 0 {
		return nil
	}
	return &ss.units[0]
}

// Advance consumes the offered unit after the pipeline accepted it.
func (ss *StaticUnitSource) Advance() {
	ss.units = ss.units[1:]
}

// Exhausted returns whether every unit has been accepted.
func (ss *StaticUnitSource) Exhausted() bool {
	return len(ss.units) <= 0
}

// UnitCollector accumulates the output units a pipeline emits and
// reassembles them into complete datagrams. The zero value is ready
// to use.
type UnitCollector struct {
	// Units holds every collected output unit in emission order.
	Units []TransferUnit

	// Datagrams holds the valid bytes of each completed datagram.
	Datagrams [][]byte

	// current is the datagram being reassembled.
	current []byte
}

// Collect appends one output unit.
func (uc *UnitCollector) Collect(unit TransferUnit) {
	uc.Units = append(uc.Units, unit)
	uc.current = append(uc.current, unit.ValidBytes()...)
	if unit.Last {
		uc.Datagrams = append(uc.Datagrams, uc.current)
		uc.current = nil
	}
}

// RunPipeline drives a [Pipeline] with the given source until the source
// is exhausted and the pipeline has emitted every buffered datagram,
// collecting the output. The outReady function gives the consumer's
// readiness at each tick; a nil function means always ready. RunPipeline
// gives up after maxTicks ticks without completing, returning false, so
// a test against a wedged pipeline fails instead of spinning forever.
func RunPipeline(
	pipeline *Pipeline,
	source *StaticUnitSource,
	outReady func(tick int) bool,
	maxTicks int,
	collector *UnitCollector,
) bool {
	idle := 0
	for tick := 0; tick < maxTicks; tick++ {
		ready := outReady == nil || outReady(tick)
		accepted, out := pipeline.Tick(source.Peek(), ready)
		if accepted {
			source.Advance()
		}
		if out != nil {
			collector.Collect(*out)
		}
		if !accepted && out == nil {
			if source.Exhausted() {
				idle++
				// several consecutive silent ticks with a ready
				// consumer mean the pipeline is fully drained
				if ready && idle >= 4 {
					return true
				}
			}
			continue
		}
		idle = 0
	}
	return false
}
