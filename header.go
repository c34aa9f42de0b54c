package encap

//
// Ethernet/IPv4/UDP header fabrication
//

import (
	"encoding/binary"
	"net"
	"net/netip"
)

// Header layout sizes in bytes.
const (
	// EthernetSize is the size of the Ethernet header.
	EthernetSize = 14

	// IPv4Size is the size of the IPv4 header without options.
	IPv4Size = 20

	// UDPSize is the size of the UDP header.
	UDPSize = 8

	// HeaderSize is the size of the full Ethernet+IPv4+UDP header.
	HeaderSize = EthernetSize + IPv4Size + UDPSize
)

// Fixed IPv4 field values used for every emitted datagram.
const (
	// headerTTL is the IPv4 time to live.
	headerTTL = 64

	// headerFlags is the IPv4 flags/fragment word (don't fragment).
	headerFlags = 0x4000
)

// HeaderConfig contains the static addressing configuration used to
// fabricate datagram headers. Set once at pipeline construction and
// never mutated afterwards. Make sure you initialize all the fields
// marked as MANDATORY.
type HeaderConfig struct {
	// SrcMAC is the MANDATORY six-byte source MAC address.
	SrcMAC net.HardwareAddr

	// DstMAC is the MANDATORY six-byte destination MAC address.
	DstMAC net.HardwareAddr

	// SrcIP is the MANDATORY IPv4 source address.
	SrcIP netip.Addr

	// DstIP is the MANDATORY IPv4 destination address.
	DstIP netip.Addr

	// SrcPort is the MANDATORY UDP source port.
	SrcPort uint16

	// DstPort is the MANDATORY UDP destination port.
	DstPort uint16
}

// check validates the configuration.
func (cfg *HeaderConfig) check() error {
	if len(cfg.SrcMAC) != 6 || len(cfg.DstMAC) != 6 {
		return ErrHeaderConfig
	}
	if !cfg.SrcIP.Is4() || !cfg.DstIP.Is4() {
		return ErrHeaderConfig
	}
	return nil
}

// BuildHeader fabricates the 42-byte Ethernet+IPv4+UDP header for a
// datagram carrying payloadLen payload bytes. The function is pure:
// identical arguments always yield byte-identical output.
//
// The returned slice is byte reversed as a whole, so the byte that is
// logically first (the first octet of the destination MAC) is physically
// last. This matches the transmission order expected by the lane the
// output stream feeds. Reverse it again to obtain the standard on-wire
// layout, as [RestoreHeader] does.
func BuildHeader(cfg *HeaderConfig, payloadLen uint16) []byte {
	hdr := make([]byte, 0, HeaderSize)

	// Ethernet
	hdr = append(hdr, cfg.DstMAC...)
	hdr = append(hdr, cfg.SrcMAC...)
	hdr = binary.BigEndian.AppendUint16(hdr, 0x0800) // EtherType IPv4

	// IPv4
	srcIP := cfg.SrcIP.As4()
	dstIP := cfg.DstIP.As4()
	ip4Len := uint16(IPv4Size+UDPSize) + payloadLen
	hdr = append(hdr, 0x45, 0x00) // version/IHL, DSCP/ECN
	hdr = binary.BigEndian.AppendUint16(hdr, ip4Len)
	hdr = binary.BigEndian.AppendUint16(hdr, 0) // identification
	hdr = binary.BigEndian.AppendUint16(hdr, headerFlags)
	hdr = append(hdr, headerTTL, 17) // TTL, protocol UDP
	hdr = binary.BigEndian.AppendUint16(hdr, ipv4Checksum(hdr[EthernetSize:], srcIP, dstIP))
	hdr = append(hdr, srcIP[:]...)
	hdr = append(hdr, dstIP[:]...)

	// UDP
	hdr = binary.BigEndian.AppendUint16(hdr, cfg.SrcPort)
	hdr = binary.BigEndian.AppendUint16(hdr, cfg.DstPort)
	hdr = binary.BigEndian.AppendUint16(hdr, uint16(UDPSize)+payloadLen)
	hdr = binary.BigEndian.AppendUint16(hdr, 0) // checksum unused

	reverseBytes(hdr)
	return hdr
}

// ipv4Checksum computes the standard one's-complement IPv4 header
// checksum: sum the 16-bit header words with the checksum field treated
// as zero, fold any carry out of bit 16 back into the low bits, and
// complement the result. The partial argument holds the first ten bytes
// of the IPv4 header (up to and including the protocol field).
func ipv4Checksum(partial []byte, srcIP, dstIP [4]byte) uint16 {
	var sum uint32
	for i := 0; i+1 < len(partial); i += 2 {
		sum += uint32(binary.BigEndian.Uint16(partial[i : i+2]))
	}
	sum += uint32(binary.BigEndian.Uint16(srcIP[0:2]))
	sum += uint32(binary.BigEndian.Uint16(srcIP[2:4]))
	sum += uint32(binary.BigEndian.Uint16(dstIP[0:2]))
	sum += uint32(binary.BigEndian.Uint16(dstIP[2:4]))
	for sum>>16 != 0 {
		sum = sum&0xffff + sum>>16
	}
	return ^uint16(sum)
}

// RestoreHeader reverses the first [HeaderSize] bytes of a reassembled
// datagram in place, undoing the lane transmission order applied by
// [BuildHeader] and restoring the standard Ethernet frame layout.
func RestoreHeader(datagram []byte) {
	reverseBytes(datagram[:HeaderSize])
}

// reverseBytes reverses a byte slice in place.
func reverseBytes(data []byte) {
	for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
		data[i], data[j] = data[j], data[i]
	}
}
