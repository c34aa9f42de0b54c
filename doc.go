// Package encap encapsulates a raw payload byte stream into well formed
// Ethernet/IPv4/UDP datagrams under ready/valid flow control.
//
// The payload enters the pipeline as a stream of [TransferUnit], each
// carrying up to W bytes, a per-byte validity bitmap, and an end-of-packet
// flag. While a packet streams into the Data Queue, a [LengthAccumulator]
// measures its payload length; when the final unit arrives, the total is
// pushed to the Length Queue in the same step. The [FramingEngine] then
// drains both queues in lockstep, fabricates a 42-byte Ethernet+IPv4+UDP
// header with [BuildHeader], and re-emits header plus payload as a new
// stream of W-byte output units.
//
// Because the header size (42) is not a multiple of the usual lane width
// (64), every output unit after the first is assembled from bytes spanning
// two consecutive input units. The [FramingEngine] keeps exactly one unit
// of carry state to implement this sliding window.
//
// Use [NewPipeline] to wire the whole thing together and drive it with
// [Pipeline.Tick], one discrete time step at a time. All components are
// fully synchronous: a transfer happens only on a tick where the producer
// asserts valid and the consumer asserts ready. There is no internal
// goroutine, no timeout, and no cancellation; a consumer that never
// becomes ready stalls the pipeline forever, which we consider an
// external fault.
//
// The [PayloadSource] generates synthetic traffic for tests and for the
// cmd/encapgen tool, and the [PCAPSink] reassembles the emitted datagrams
// into a PCAP file that a standard receiving stack can decode.
package encap
