package encap

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPayloadSourceDeterminism(t *testing.T) {
	first := NewPayloadSource(64, 0, 512, 7)
	second := NewPayloadSource(64, 0, 512, 7)
	for i := 0; i < 50; i++ {
		if diff := cmp.Diff(first.NextPayload(), second.NextPayload()); diff != "" {
			t.Fatal(diff)
		}
	}
}

func TestPayloadSourceBounds(t *testing.T) {
	source := NewPayloadSource(64, 10, 20, 3)
	for i := 0; i < 200; i++ {
		payload := source.NextPayload()
		if len(payload) < 10 || len(payload) > 20 {
			t.Fatal("length out of bounds:", len(payload))
		}
	}
}

func TestPayloadSourceHoldsUnitsUntilAccepted(t *testing.T) {
	source := NewPayloadSource(64, 100, 100, 9)
	offered := source.Peek()
	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(offered, source.Peek()); diff != "" {
			t.Fatal("expected the same unit across stalled ticks:", diff)
		}
	}
	source.Advance()
	if CountBytes(source.Peek().Keep) != 36 {
		t.Fatal("expected the packet's second unit next")
	}
}
