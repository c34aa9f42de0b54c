package encap

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPacketBufferContract(t *testing.T) {
	t.Run("constructor rejects nonpositive capacities", func(t *testing.T) {
		if _, err := NewPacketBuffer(0, 8, false); err != ErrQueueCapacity {
			t.Fatal("expected ErrQueueCapacity, got", err)
		}
		if _, err := NewPacketBuffer(8, 0, false); err != ErrQueueCapacity {
			t.Fatal("expected ErrQueueCapacity, got", err)
		}
	})

	t.Run("pop when empty reports not ready", func(t *testing.T) {
		pb := Must1(NewPacketBuffer(4, 4, false))
		if _, ok := pb.PopUnit(); ok {
			t.Fatal("expected not ready")
		}
		if _, ok := pb.PopLength(); ok {
			t.Fatal("expected not ready")
		}
		if pb.UnitAvailable() || pb.LengthAvailable() {
			t.Fatal("expected empty buffers")
		}
	})

	t.Run("push refuses when the data queue is full", func(t *testing.T) {
		pb := Must1(NewPacketBuffer(2, 4, false))
		unit := NewTransferUnit(64, make([]byte, 64), false)
		if !pb.Push(unit, 0) || !pb.Push(unit, 0) {
			t.Fatal("expected pushes to succeed")
		}
		if pb.Ready(false) {
			t.Fatal("expected not ready")
		}
		if pb.Push(unit, 0) {
			t.Fatal("expected push to fail")
		}
	})

	t.Run("final unit requires room in both queues", func(t *testing.T) {
		pb := Must1(NewPacketBuffer(8, 1, false))
		last := NewTransferUnit(64, make([]byte, 10), true)
		if !pb.Push(last, 10) {
			t.Fatal("expected push to succeed")
		}
		// length queue now full: a mid-packet unit is fine but a
		// packet-final unit must stall
		if !pb.Ready(false) {
			t.Fatal("expected ready for a non-final unit")
		}
		if pb.Ready(true) {
			t.Fatal("expected not ready for a final unit")
		}
		if pb.Push(last, 10) {
			t.Fatal("expected push to fail")
		}
	})

	t.Run("FIFO ordering on both queues", func(t *testing.T) {
		pb := Must1(NewPacketBuffer(8, 8, false))
		var lengths []uint16
		for _, size := range []int{1, 2, 3} {
			unit := NewTransferUnit(64, make([]byte, size), true)
			if !pb.Push(unit, uint16(size)) {
				t.Fatal("expected push to succeed")
			}
			lengths = append(lengths, uint16(size))
		}
		var gotLengths []uint16
		var gotSizes []int
		for pb.LengthAvailable() {
			length, _ := pb.PopLength()
			unit, ok := pb.PopUnit()
			if !ok {
				t.Fatal("expected a unit for each length")
			}
			gotLengths = append(gotLengths, length)
			gotSizes = append(gotSizes, CountBytes(unit.Keep))
		}
		if diff := cmp.Diff(lengths, gotLengths); diff != "" {
			t.Fatal(diff)
		}
		if diff := cmp.Diff([]int{1, 2, 3}, gotSizes); diff != "" {
			t.Fatal(diff)
		}
	})
}

func TestPacketBufferLockstepCheck(t *testing.T) {
	t.Run("well formed traffic does not trip the check", func(t *testing.T) {
		pb := Must1(NewPacketBuffer(48, 48, true))
		for packet := 0; packet < 8; packet++ {
			for _, unit := range ChunkPayload(64, make([]byte, 100)) {
				if !pb.Push(unit, 100) {
					t.Fatal("expected push to succeed")
				}
			}
		}
	})

	t.Run("desynchronized queues trip the check", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Fatal("expected a panic")
			}
		}()
		pb := Must1(NewPacketBuffer(48, 48, true))
		last := NewTransferUnit(64, make([]byte, 10), true)
		// pop the data while leaving the lengths behind, simulating a
		// misconfigured system losing lockstep, then push two more
		// complete packets so the slack for the framer lookahead is
		// exceeded
		pb.Push(last, 10)
		pb.PopUnit()
		pb.Push(last, 10)
		pb.PopUnit()
		pb.Push(last, 10)
		pb.PopUnit()
		pb.Push(last, 10)
	})
}
