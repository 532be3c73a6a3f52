package pwospfd

import (
	"encoding/binary"
	"errors"
	"net"
)

// Ethernet/IP/OSPF wire constants, see spec.md §4.A/§6.
const (
	ethernetHeaderLen = 14
	ipHeaderLen       = 20
	ospfHeaderLen     = 24
	helloBodyLen      = 8
	advertLen         = 12

	etherTypeIPv4 = 0x0800

	ipProtoOSPF = 89

	ospfVersion2 = 2

	// OSPFTypeHello is the PWOSPF packet type for HELLO packets.
	OSPFTypeHello uint8 = 1
	// OSPFTypeLSU is the PWOSPF packet type for Link-State Update packets.
	OSPFTypeLSU uint8 = 4
)

// AllSPFRoutersIP is the well-known multicast address for HELLO packets (§6).
var AllSPFRoutersIP = net.IPv4(224, 0, 0, 5).To4()

// AllSPFRoutersMAC is the multicast MAC corresponding to AllSPFRoutersIP,
// kept as a precomputed constant the way the original sr_pwospf.c hard-codes
// hello_broadcast_addr rather than deriving it from the IP at runtime.
var AllSPFRoutersMAC = net.HardwareAddr{0x01, 0x00, 0x5e, 0x00, 0x00, 0x05}

var (
	errTruncated    = errors.New("pwospfd: truncated frame")
	errBadVersion   = errors.New("pwospfd: unsupported OSPF version")
	errBadLength    = errors.New("pwospfd: OSPF length mismatch")
	errBadChecksum  = errors.New("pwospfd: OSPF checksum invalid")
	errWrongArea    = errors.New("pwospfd: area id mismatch")
	errUnknownType  = errors.New("pwospfd: unknown OSPF packet type")
)

// EthernetHeader is the fixed 14-byte Ethernet header.
type EthernetHeader struct {
	DstMAC net.HardwareAddr
	SrcMAC net.HardwareAddr
	Type   uint16
}

// IPv4Header is the fixed 20-byte IPv4 header (no options), as emitted and
// expected on PWOSPF frames.
type IPv4Header struct {
	TOS      uint8
	TotalLen uint16
	TTL      uint8
	Protocol uint8
	Checksum uint16
	SrcIP    net.IP
	DstIP    net.IP
}

// OSPFHeader is the fixed 24-byte OSPFv2 header (§4.A).
type OSPFHeader struct {
	Version  uint8
	Type     uint8
	Len      uint16
	RouterID uint32
	AreaID   uint32
	Checksum uint16
	AuType   uint16
	Auth     uint16
}

// HelloBody is the HELLO packet body (§4.A).
type HelloBody struct {
	NetworkMask   uint32
	HelloInterval uint16
	Padding       uint16
}

// Advertisement is one {subnet, mask, neighbor_router_id} triple inside an
// LSU body (§4.A, GLOSSARY).
type Advertisement struct {
	Subnet            uint32
	Mask              uint32
	NeighborRouterID  uint32
}

// LSUBody is the LSU packet body (§4.A).
type LSUBody struct {
	Sequence uint16
	TTL      uint8
	Adverts  []Advertisement
}

// Frame is a fully decoded ingress frame: Ethernet + IPv4 + OSPF header, with
// the type-specific body left undecoded in Payload until the caller knows
// which one to parse.
type Frame struct {
	Eth     EthernetHeader
	IP      IPv4Header
	OSPF    OSPFHeader
	Payload []byte // OSPF body, i.e. bytes after the 24-byte OSPF header
}

// decodeEthernetIPOSPF parses the common Ethernet+IPv4+OSPFv2 prefix shared
// by HELLO and LSU frames. It performs every §4.A ingress validation except
// area-id matching, which the caller checks against its own configured area
// (the codec has no notion of "local").
func decodeEthernetIPOSPF(data []byte) (*Frame, error) {
	if len(data) < ethernetHeaderLen+ipHeaderLen+ospfHeaderLen {
		return nil, errTruncated
	}

	eth := EthernetHeader{
		DstMAC: net.HardwareAddr(append([]byte(nil), data[0:6]...)),
		SrcMAC: net.HardwareAddr(append([]byte(nil), data[6:12]...)),
		Type:   binary.BigEndian.Uint16(data[12:14]),
	}

	ipData := data[ethernetHeaderLen:]
	ihl := int(ipData[0]&0x0F) * 4
	if ihl < ipHeaderLen || len(ipData) < ihl {
		return nil, errTruncated
	}
	ip := IPv4Header{
		TOS:      ipData[1],
		TotalLen: binary.BigEndian.Uint16(ipData[2:4]),
		TTL:      ipData[8],
		Protocol: ipData[9],
		Checksum: binary.BigEndian.Uint16(ipData[10:12]),
		SrcIP:    net.IP(append([]byte(nil), ipData[12:16]...)),
		DstIP:    net.IP(append([]byte(nil), ipData[16:20]...)),
	}
	if int(ip.TotalLen) != len(ipData) {
		return nil, errBadLength
	}

	ospfData := ipData[ihl:]
	if len(ospfData) < ospfHeaderLen {
		return nil, errTruncated
	}
	if int(binary.BigEndian.Uint16(ospfData[2:4])) != len(ospfData) {
		return nil, errBadLength
	}

	hdr := OSPFHeader{
		Version:  ospfData[0],
		Type:     ospfData[1],
		Len:      binary.BigEndian.Uint16(ospfData[2:4]),
		RouterID: binary.BigEndian.Uint32(ospfData[4:8]),
		AreaID:   binary.BigEndian.Uint32(ospfData[8:12]),
		Checksum: binary.BigEndian.Uint16(ospfData[12:14]),
		AuType:   binary.BigEndian.Uint16(ospfData[14:16]),
		Auth:     binary.BigEndian.Uint16(ospfData[22:24]),
	}
	if hdr.Version != ospfVersion2 {
		return nil, errBadVersion
	}
	if !verifyChecksum(ospfData) {
		return nil, errBadChecksum
	}

	return &Frame{
		Eth:     eth,
		IP:      ip,
		OSPF:    hdr,
		Payload: ospfData[ospfHeaderLen:],
	}, nil
}

// DecodeHello decodes a full HELLO frame.
func DecodeHello(data []byte) (*Frame, *HelloBody, error) {
	f, err := decodeEthernetIPOSPF(data)
	if err != nil {
		return nil, nil, err
	}
	if f.OSPF.Type != OSPFTypeHello {
		return nil, nil, errUnknownType
	}
	if len(f.Payload) < helloBodyLen {
		return nil, nil, errTruncated
	}
	body := &HelloBody{
		NetworkMask:   binary.BigEndian.Uint32(f.Payload[0:4]),
		HelloInterval: binary.BigEndian.Uint16(f.Payload[4:6]),
		Padding:       binary.BigEndian.Uint16(f.Payload[6:8]),
	}
	return f, body, nil
}

// DecodeLSU decodes a full LSU frame.
func DecodeLSU(data []byte) (*Frame, *LSUBody, error) {
	f, err := decodeEthernetIPOSPF(data)
	if err != nil {
		return nil, nil, err
	}
	if f.OSPF.Type != OSPFTypeLSU {
		return nil, nil, errUnknownType
	}
	if len(f.Payload) < 4 {
		return nil, nil, errTruncated
	}
	seq := binary.BigEndian.Uint16(f.Payload[0:2])
	ttl := f.Payload[2]
	num := int(f.Payload[3])

	rest := f.Payload[4:]
	if len(rest) < num*advertLen {
		return nil, nil, errTruncated
	}
	adverts := make([]Advertisement, num)
	for i := 0; i < num; i++ {
		b := rest[i*advertLen : (i+1)*advertLen]
		adverts[i] = Advertisement{
			Subnet:           binary.BigEndian.Uint32(b[0:4]),
			Mask:             binary.BigEndian.Uint32(b[4:8]),
			NeighborRouterID: binary.BigEndian.Uint32(b[8:12]),
		}
	}
	return f, &LSUBody{Sequence: seq, TTL: ttl, Adverts: adverts}, nil
}

// EncodeHello serializes a full HELLO frame ready to hand to send_packet.
func EncodeHello(srcMAC net.HardwareAddr, srcIP net.IP, routerID, areaID uint32, body HelloBody) []byte {
	buf := GetBytes(ethernetHeaderLen + ipHeaderLen + ospfHeaderLen + helloBodyLen)
	buf = buf[:ethernetHeaderLen+ipHeaderLen+ospfHeaderLen+helloBodyLen]

	writeEthernet(buf, AllSPFRoutersMAC, srcMAC, etherTypeIPv4)
	writeIPv4(buf[ethernetHeaderLen:], srcIP, AllSPFRoutersIP, ipHeaderLen+ospfHeaderLen+helloBodyLen, 1, ipProtoOSPF)

	ospf := buf[ethernetHeaderLen+ipHeaderLen:]
	writeOSPFHeader(ospf, OSPFTypeHello, ospfHeaderLen+helloBodyLen, routerID, areaID)

	helloBuf := ospf[ospfHeaderLen:]
	binary.BigEndian.PutUint32(helloBuf[0:4], body.NetworkMask)
	binary.BigEndian.PutUint16(helloBuf[4:6], body.HelloInterval)
	binary.BigEndian.PutUint16(helloBuf[6:8], body.Padding)

	binary.BigEndian.PutUint16(ospf[12:14], calculateChecksum(ospf))

	return buf
}

// EncodeLSU serializes a full LSU frame unicast to dstMAC/dstIP ready to hand
// to send_packet, used for LSU origination. Re-flooding does not re-encode:
// it copies the ingested frame and updates it with RewriteLSUTTLAndChecksum.
func EncodeLSU(srcMAC, dstMAC net.HardwareAddr, srcIP, dstIP net.IP, routerID, areaID uint32, body LSUBody) []byte {
	bodyLen := 4 + len(body.Adverts)*advertLen
	total := ethernetHeaderLen + ipHeaderLen + ospfHeaderLen + bodyLen
	buf := GetBytes(total)
	buf = buf[:total]

	writeEthernet(buf, dstMAC, srcMAC, etherTypeIPv4)
	writeIPv4(buf[ethernetHeaderLen:], srcIP, dstIP, ipHeaderLen+ospfHeaderLen+bodyLen, body.TTL, ipProtoOSPF)

	ospf := buf[ethernetHeaderLen+ipHeaderLen:]
	writeOSPFHeader(ospf, OSPFTypeLSU, ospfHeaderLen+bodyLen, routerID, areaID)

	lsuBuf := ospf[ospfHeaderLen:]
	binary.BigEndian.PutUint16(lsuBuf[0:2], body.Sequence)
	lsuBuf[2] = body.TTL
	lsuBuf[3] = uint8(len(body.Adverts))
	for i, a := range body.Adverts {
		b := lsuBuf[4+i*advertLen : 4+(i+1)*advertLen]
		binary.BigEndian.PutUint32(b[0:4], a.Subnet)
		binary.BigEndian.PutUint32(b[4:8], a.Mask)
		binary.BigEndian.PutUint32(b[8:12], a.NeighborRouterID)
	}

	binary.BigEndian.PutUint16(ospf[12:14], calculateChecksum(ospf))

	return buf
}

// RewriteLSUTTLAndChecksum mutates an already-encoded LSU frame in place for
// re-flood: decrements the OSPF-body TTL field and recomputes the checksum,
// leaving sequence/router_id untouched so downstream peers can dedupe (§4.E).
func RewriteLSUTTLAndChecksum(frame []byte) {
	ospf := frame[ethernetHeaderLen+ipHeaderLen:]
	lsuBuf := ospf[ospfHeaderLen:]
	if lsuBuf[2] > 0 {
		lsuBuf[2]--
	}
	binary.BigEndian.PutUint16(ospf[12:14], 0)
	binary.BigEndian.PutUint16(ospf[12:14], calculateChecksum(ospf))
}

func writeEthernet(buf []byte, dst, src net.HardwareAddr, etherType uint16) {
	copy(buf[0:6], dst)
	copy(buf[6:12], src)
	binary.BigEndian.PutUint16(buf[12:14], etherType)
}

func writeIPv4(buf []byte, src, dst net.IP, totalLen int, ttl uint8, proto uint8) {
	buf[0] = 0x45 // version 4, IHL 5
	buf[1] = 0
	binary.BigEndian.PutUint16(buf[2:4], uint16(totalLen))
	binary.BigEndian.PutUint16(buf[4:6], 0) // id
	binary.BigEndian.PutUint16(buf[6:8], 0) // flags/frag
	buf[8] = ttl
	buf[9] = proto
	binary.BigEndian.PutUint16(buf[10:12], 0) // checksum, filled below
	copy(buf[12:16], src.To4())
	copy(buf[16:20], dst.To4())
	binary.BigEndian.PutUint16(buf[10:12], calculateChecksum(buf[0:ipHeaderLen]))
}

func writeOSPFHeader(buf []byte, typ uint8, length int, routerID, areaID uint32) {
	buf[0] = ospfVersion2
	buf[1] = typ
	binary.BigEndian.PutUint16(buf[2:4], uint16(length))
	binary.BigEndian.PutUint32(buf[4:8], routerID)
	binary.BigEndian.PutUint32(buf[8:12], areaID)
	binary.BigEndian.PutUint16(buf[12:14], 0) // checksum, filled by caller
	binary.BigEndian.PutUint16(buf[14:16], 0) // autype
	binary.BigEndian.PutUint64(buf[16:24], 0) // auth, zero field per §4.A
}
