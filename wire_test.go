package pwospfd

import (
	"bytes"
	"net"
	"testing"
)

var (
	testSrcMAC = net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	testDstMAC = net.HardwareAddr{0x00, 0xaa, 0xbb, 0xcc, 0xdd, 0xee}
	testSrcIP  = net.ParseIP("10.0.0.1").To4()
	testDstIP  = net.ParseIP("10.0.0.2").To4()
)

func ipv4Uint32(s string) uint32 {
	ip := net.ParseIP(s).To4()
	return uint32(ip[0])<<24 | uint32(ip[1])<<16 | uint32(ip[2])<<8 | uint32(ip[3])
}

func TestDecodeHelloRoundTrip(t *testing.T) {
	body := HelloBody{NetworkMask: ipv4Uint32("255.255.255.254"), HelloInterval: DefaultHelloInterval, Padding: 0}
	frame := EncodeHello(testSrcMAC, testSrcIP, 0x01010101, 171, body)

	f, got, err := DecodeHello(frame)
	if err != nil {
		t.Fatalf("DecodeHello: %v", err)
	}
	if f.OSPF.RouterID != 0x01010101 || f.OSPF.AreaID != 171 {
		t.Fatalf("OSPF header = %+v, want router 0x01010101 area 171", f.OSPF)
	}
	if *got != body {
		t.Fatalf("decoded body = %+v, want %+v", *got, body)
	}
	if !f.IP.SrcIP.Equal(testSrcIP) || !f.IP.DstIP.Equal(AllSPFRoutersIP) {
		t.Fatalf("IP src/dst = %s/%s, want %s/%s", f.IP.SrcIP, f.IP.DstIP, testSrcIP, AllSPFRoutersIP)
	}
}

func TestDecodeLSURoundTrip(t *testing.T) {
	body := LSUBody{
		Sequence: 42,
		TTL:      DefaultLSUMaxHops,
		Adverts: []Advertisement{
			{Subnet: ipv4Uint32("10.0.0.0"), Mask: ipv4Uint32("255.255.255.254"), NeighborRouterID: 0x02020202},
			{Subnet: ipv4Uint32("10.0.1.0"), Mask: ipv4Uint32("255.255.255.254"), NeighborRouterID: 0},
		},
	}
	frame := EncodeLSU(testSrcMAC, testDstMAC, testSrcIP, testDstIP, 0x01010101, 171, body)

	f, got, err := DecodeLSU(frame)
	if err != nil {
		t.Fatalf("DecodeLSU: %v", err)
	}
	if f.OSPF.Type != OSPFTypeLSU {
		t.Fatalf("OSPF type = %d, want %d", f.OSPF.Type, OSPFTypeLSU)
	}
	if got.Sequence != body.Sequence || got.TTL != body.TTL {
		t.Fatalf("decoded seq/ttl = %d/%d, want %d/%d", got.Sequence, got.TTL, body.Sequence, body.TTL)
	}
	if len(got.Adverts) != len(body.Adverts) {
		t.Fatalf("decoded %d adverts, want %d", len(got.Adverts), len(body.Adverts))
	}
	for i, want := range body.Adverts {
		if got.Adverts[i] != want {
			t.Fatalf("advert[%d] = %+v, want %+v", i, got.Adverts[i], want)
		}
	}
}

func TestEncodeHelloChecksumIsValid(t *testing.T) {
	frame := EncodeHello(testSrcMAC, testSrcIP, 0x01010101, 171, HelloBody{NetworkMask: ipv4Uint32("255.255.255.254"), HelloInterval: DefaultHelloInterval})
	ospf := frame[ethernetHeaderLen+ipHeaderLen:]
	if !verifyChecksum(ospf) {
		t.Fatalf("EncodeHello produced an invalid OSPF checksum")
	}
}

func TestEncodeLSUChecksumIsValid(t *testing.T) {
	frame := EncodeLSU(testSrcMAC, testDstMAC, testSrcIP, testDstIP, 0x01010101, 171, LSUBody{
		Sequence: 1,
		TTL:      DefaultLSUMaxHops,
		Adverts:  []Advertisement{{Subnet: ipv4Uint32("10.0.0.0"), Mask: ipv4Uint32("255.255.255.254")}},
	})
	ospf := frame[ethernetHeaderLen+ipHeaderLen:]
	if !verifyChecksum(ospf) {
		t.Fatalf("EncodeLSU produced an invalid OSPF checksum")
	}
}

func TestDecodeRejectsCorruptedChecksum(t *testing.T) {
	frame := EncodeHello(testSrcMAC, testSrcIP, 0x01010101, 171, HelloBody{NetworkMask: ipv4Uint32("255.255.255.254"), HelloInterval: DefaultHelloInterval})
	// Flip a bit in the router_id field, after the checksum was already computed.
	frame[ethernetHeaderLen+ipHeaderLen+4] ^= 0xFF

	if _, _, err := DecodeHello(frame); err != errBadChecksum {
		t.Fatalf("DecodeHello on corrupted frame = %v, want errBadChecksum", err)
	}
}

func TestDecodeRejectsTruncatedFrame(t *testing.T) {
	frame := EncodeHello(testSrcMAC, testSrcIP, 0x01010101, 171, HelloBody{NetworkMask: ipv4Uint32("255.255.255.254"), HelloInterval: DefaultHelloInterval})

	for _, n := range []int{0, 1, ethernetHeaderLen, ethernetHeaderLen + ipHeaderLen, ethernetHeaderLen + ipHeaderLen + ospfHeaderLen - 1} {
		if _, _, err := DecodeHello(frame[:n]); err != errTruncated {
			t.Fatalf("DecodeHello(%d bytes) = %v, want errTruncated", n, err)
		}
	}
}

func TestDecodeRejectsTruncatedHelloBody(t *testing.T) {
	frame := EncodeHello(testSrcMAC, testSrcIP, 0x01010101, 171, HelloBody{NetworkMask: ipv4Uint32("255.255.255.254"), HelloInterval: DefaultHelloInterval})
	// Cut off inside the HELLO body, after a valid common header+length field.
	short := append([]byte(nil), frame[:len(frame)-1]...)
	if _, _, err := DecodeHello(short); err != errBadLength && err != errTruncated {
		t.Fatalf("DecodeHello(short hello body) = %v, want errBadLength or errTruncated", err)
	}
}

func TestDecodeRejectsBadVersion(t *testing.T) {
	frame := EncodeHello(testSrcMAC, testSrcIP, 0x01010101, 171, HelloBody{NetworkMask: ipv4Uint32("255.255.255.254"), HelloInterval: DefaultHelloInterval})
	ospf := frame[ethernetHeaderLen+ipHeaderLen:]
	ospf[0] = 3 // corrupt version, then recompute checksum so the version check is what fires
	ospf[12], ospf[13] = 0, 0
	sum := calculateChecksum(ospf)
	ospf[12], ospf[13] = byte(sum>>8), byte(sum)

	if _, _, err := DecodeHello(frame); err != errBadVersion {
		t.Fatalf("DecodeHello(bad version) = %v, want errBadVersion", err)
	}
}

func TestDecodeRejectsBadLength(t *testing.T) {
	frame := EncodeHello(testSrcMAC, testSrcIP, 0x01010101, 171, HelloBody{NetworkMask: ipv4Uint32("255.255.255.254"), HelloInterval: DefaultHelloInterval})
	ipData := frame[ethernetHeaderLen:]
	// Claim an IP total length shorter than the actual remaining buffer.
	ipData[2], ipData[3] = 0, 10

	if _, _, err := DecodeHello(frame); err != errBadLength {
		t.Fatalf("DecodeHello(bad IP length) = %v, want errBadLength", err)
	}
}

func TestDecodeHelloRejectsWrongType(t *testing.T) {
	frame := EncodeLSU(testSrcMAC, testDstMAC, testSrcIP, testDstIP, 0x01010101, 171, LSUBody{Sequence: 1, TTL: 1})
	if _, _, err := DecodeHello(frame); err != errUnknownType {
		t.Fatalf("DecodeHello(lsu frame) = %v, want errUnknownType", err)
	}
}

func TestRewriteLSUTTLAndChecksumDecrementsAndStaysValid(t *testing.T) {
	frame := EncodeLSU(testSrcMAC, testDstMAC, testSrcIP, testDstIP, 0x01010101, 171, LSUBody{
		Sequence: 7,
		TTL:      5,
		Adverts:  []Advertisement{{Subnet: ipv4Uint32("10.0.0.0"), Mask: ipv4Uint32("255.255.255.254")}},
	})
	before := bytes.Clone(frame)

	RewriteLSUTTLAndChecksum(frame)

	_, body, err := DecodeLSU(frame)
	if err != nil {
		t.Fatalf("DecodeLSU after rewrite: %v", err)
	}
	if body.TTL != 4 {
		t.Fatalf("TTL after rewrite = %d, want 4", body.TTL)
	}
	if body.Sequence != 7 {
		t.Fatalf("sequence changed by rewrite: got %d, want 7", body.Sequence)
	}
	if bytes.Equal(before, frame) {
		t.Fatalf("RewriteLSUTTLAndChecksum did not modify the frame")
	}
}
