package encap

//
// Elastic buffers: the bounded FIFO pair decoupling measurement from framing
//

// fifo is a bounded FIFO queue. The zero value is invalid; the capacity
// must be set by the owning constructor.
type fifo[T any] struct {
	capacity int
	items    []T
}

// Push appends an item and returns false when the queue is full.
func (q *fifo[T]) Push(item T) bool {
	if len(q.items) >= q.capacity {
		return false
	}
	q.items = append(q.items, item)
	return true
}

// Pop removes the oldest item. When the queue is empty, Pop reports not
// ready rather than returning stale data.
func (q *fifo[T]) Pop() (T, bool) {
	if len(q.items) <= 0 {
		var zero T
		return zero, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// Empty returns whether the queue holds no items.
func (q *fifo[T]) Empty() bool {
	return len(q.items) <= 0
}

// Full returns whether the queue cannot accept another item.
func (q *fifo[T]) Full() bool {
	return len(q.items) >= q.capacity
}

// Len returns the number of queued items.
func (q *fifo[T]) Len() int {
	return len(q.items)
}

// PacketBuffer owns the Data Queue and the Length Queue together so that
// their positional lockstep becomes locally checkable. Payload units
// enter the Data Queue one per accepted transfer; a packet's total length
// enters the Length Queue exactly once, in the same step as the packet's
// final unit. The i-th length popped always pairs with the i-th packet
// popped, because nothing else relates the two queues.
//
// The zero value is invalid; use [NewPacketBuffer] to construct.
//
// The capacity precondition is the caller's to guarantee: the Data Queue
// must hold at least one maximum-size packet and the Length Queue at
// least as many entries as minimum-size packets fit in the Data Queue.
// Violating it desynchronizes the queues in a way this type cannot
// repair at runtime. With check enabled, the positional invariant is
// asserted on every length push, converting the configuration mistake
// into a panic near its cause.
type PacketBuffer struct {
	// check enables the lockstep assertion.
	check bool

	// data queues payload transfer units.
	data fifo[TransferUnit]

	// lengths queues finished packet lengths.
	lengths fifo[uint16]
}

// NewPacketBuffer creates a [PacketBuffer] with the given queue
// capacities. The check flag enables the debug-mode lockstep assertion.
func NewPacketBuffer(dataCapacity, lengthCapacity int, check bool) (*PacketBuffer, error) {
	if dataCapacity <= 0 || lengthCapacity <= 0 {
		return nil, ErrQueueCapacity
	}
	pb := &PacketBuffer{
		check:   check,
		data:    fifo[TransferUnit]{capacity: dataCapacity},
		lengths: fifo[uint16]{capacity: lengthCapacity},
	}
	return pb, nil
}

// Ready returns whether the buffer can accept a unit this tick. For the
// final unit of a packet the length push happens in the same step, so
// readiness additionally requires room in the Length Queue.
func (pb *PacketBuffer) Ready(last bool) bool {
	if pb.data.Full() {
		return false
	}
	if last && pb.lengths.Full() {
		return false
	}
	return true
}

// Push inserts a payload unit and, when the unit is the last of its
// packet, the packet's total length, in one step. It returns false
// without any effect when the buffer is not ready.
func (pb *PacketBuffer) Push(unit TransferUnit, length uint16) bool {
	if !pb.Ready(unit.Last) {
		return false
	}
	pb.data.Push(unit)
	if unit.Last {
		pb.lengths.Push(length)
		pb.assertLockstep()
	}
	return true
}

// PopUnit removes the oldest payload unit, if any.
func (pb *PacketBuffer) PopUnit() (TransferUnit, bool) {
	return pb.data.Pop()
}

// PopLength removes the oldest packet length, if any.
func (pb *PacketBuffer) PopLength() (uint16, bool) {
	return pb.lengths.Pop()
}

// UnitAvailable returns whether a payload unit can be popped.
func (pb *PacketBuffer) UnitAvailable() bool {
	return !pb.data.Empty()
}

// LengthAvailable returns whether a packet length can be popped.
func (pb *PacketBuffer) LengthAvailable() bool {
	return !pb.lengths.Empty()
}

// assertLockstep panics when the Length Queue is deeper than the number
// of complete packets resident in the Data Queue, which can only happen
// when the capacity precondition was violated. The one packet of slack
// accounts for the framing engine's lookahead: it may capture a short
// packet's only unit out of the Data Queue before popping its length.
func (pb *PacketBuffer) assertLockstep() {
	if !pb.check {
		return
	}
	complete := 0
	for _, unit := range pb.data.items {
		if unit.Last {
			complete++
		}
	}
	if pb.lengths.Len() > complete+1 {
		panic("encap: elastic buffers out of lockstep: check queue capacities")
	}
}
