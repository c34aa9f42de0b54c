package encap

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

func TestPCAPSinkRoundTrip(t *testing.T) {
	// run a few packets through the pipeline into the sink and verify
	// that a standard receiving stack can decode the capture
	pipeline := newPipelineForTesting(t)

	payloads := [][]byte{
		payloadForTesting(22),
		payloadForTesting(0),
		payloadForTesting(1000),
	}
	var units []TransferUnit
	for _, payload := range payloads {
		units = append(units, ChunkPayload(64, payload)...)
	}

	filename := filepath.Join(t.TempDir(), "encap.pcap")
	sink := Must1(NewPCAPSink(filename, &NullLogger{}))
	source := NewStaticUnitSource(units...)
	for tick := 0; tick < 10000 && sink.FrameCount() < len(payloads); tick++ {
		accepted, out := pipeline.Tick(source.Peek(), true)
		if accepted {
			source.Advance()
		}
		if out != nil {
			if err := sink.Collect(*out); err != nil {
				t.Fatal(err)
			}
		}
	}
	if sink.FrameCount() != len(payloads) {
		t.Fatal("expected", len(payloads), "frames, got", sink.FrameCount())
	}
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}

	// read the capture back and decode each frame
	filep, err := os.Open(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer filep.Close()
	reader, err := pcapgo.NewReader(filep)
	if err != nil {
		t.Fatal(err)
	}
	if reader.LinkType() != layers.LinkTypeEthernet {
		t.Fatal("unexpected link type", reader.LinkType())
	}
	for _, payload := range payloads {
		data, _, err := reader.ReadPacketData()
		if err != nil {
			t.Fatal(err)
		}
		packet := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.Default)
		if err := packet.ErrorLayer(); err != nil {
			t.Fatal("gopacket failed to decode the frame:", err)
		}
		udp := packet.Layer(layers.LayerTypeUDP)
		if udp == nil {
			t.Fatal("expected an UDP layer")
		}
		// bytes.Equal because a zero-length payload decodes as nil
		if !bytes.Equal(payload, udp.(*layers.UDP).Payload) {
			t.Fatal("unexpected payload bytes")
		}
	}
}

func TestPCAPSinkWriter(t *testing.T) {
	// the writer-based constructor writes the file header eagerly
	buffer := &bytes.Buffer{}
	sink, err := NewPCAPSinkWriter(buffer, &NullLogger{})
	if err != nil {
		t.Fatal(err)
	}
	if buffer.Len() <= 0 {
		t.Fatal("expected a pcap file header")
	}
	if err := sink.Close(); err != nil {
		t.Fatal("expected Close to be a no-op without a file:", err)
	}
}

func TestNewPCAPSinkFailure(t *testing.T) {
	_, err := NewPCAPSink(filepath.Join(t.TempDir(), "missing", "encap.pcap"), &NullLogger{})
	if err == nil {
		t.Fatal("expected an error")
	}
}
