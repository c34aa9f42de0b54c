package encap

//
// PCAP sink for emitted datagrams
//

import (
	"io"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// PCAPSink consumes the pipeline's output units, reassembles complete
// datagrams, restores the header's standard byte order, and writes the
// resulting Ethernet frames into a PCAP file so that a standard stack
// (tcpdump, wireshark, gopacket) can decode them. The zero value is
// invalid; use [NewPCAPSink] or [NewPCAPSinkWriter] to construct.
//
// The sink is a synchronous, always-ready consumer: use it as the
// downstream edge of a [Pipeline] by feeding every emitted unit to
// [PCAPSink.Collect].
type PCAPSink struct {
	// closer closes the underlying file, when we own one.
	closer io.Closer

	// current is the datagram being reassembled.
	current []byte

	// logger is the logger to use.
	logger Logger

	// count is the number of frames written so far.
	count int

	// w writes the PCAP entries.
	w *pcapgo.Writer
}

// pcapSnapLen is the snapshot length declared in the PCAP file header.
const pcapSnapLen = 262144

// NewPCAPSink creates a [PCAPSink] writing to the given file.
func NewPCAPSink(filename string, logger Logger) (*PCAPSink, error) {
	filep, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	sink, err := NewPCAPSinkWriter(filep, logger)
	if err != nil {
		filep.Close()
		return nil, err
	}
	sink.closer = filep
	return sink, nil
}

// NewPCAPSinkWriter creates a [PCAPSink] writing to the given writer.
func NewPCAPSinkWriter(writer io.Writer, logger Logger) (*PCAPSink, error) {
	w := pcapgo.NewWriter(writer)
	if err := w.WriteFileHeader(pcapSnapLen, layers.LinkTypeEthernet); err != nil {
		return nil, err
	}
	sink := &PCAPSink{
		closer:  nil,
		current: nil,
		logger:  logger,
		count:   0,
		w:       w,
	}
	return sink, nil
}

// Collect consumes one output unit. When the unit completes a datagram,
// Collect writes the reassembled frame to the PCAP file.
func (ps *PCAPSink) Collect(unit TransferUnit) error {
	ps.current = append(ps.current, unit.ValidBytes()...)
	if !unit.Last {
		return nil
	}
	frame := ps.current
	ps.current = nil

	// undo the lane transmission order to obtain a standard frame
	RestoreHeader(frame)

	ci := gopacket.CaptureInfo{
		Timestamp:      time.Now(),
		CaptureLength:  len(frame),
		Length:         len(frame),
		InterfaceIndex: 0,
	}
	if err := ps.w.WritePacket(ci, frame); err != nil {
		ps.logger.Warnf("encap: PCAPSink: WritePacket: %s", err.Error())
		return err
	}
	ps.count++
	ps.logger.Debugf("encap: PCAPSink: wrote frame %d (%d bytes)", ps.count, len(frame))
	return nil
}

// FrameCount returns the number of complete frames written.
func (ps *PCAPSink) FrameCount() int {
	return ps.count
}

// Close closes the underlying file, when the sink owns one.
func (ps *PCAPSink) Close() error {
	if ps.closer != nil {
		return ps.closer.Close()
	}
	return nil
}
