package pwospfd

import (
	"net"
	"testing"
)

func pendingByIface(pending []PendingSend) map[string][][]byte {
	out := make(map[string][][]byte)
	for _, p := range pending {
		out[p.Iface] = append(out[p.Iface], p.Frame)
	}
	return out
}

func TestLSUEngineOriginateFloodsKnownNeighborsOnly(t *testing.T) {
	ifaces := []Interface{
		testInterface("eth0", "10.0.0.1", "255.255.255.254", true),
		testInterface("eth1", "10.0.1.1", "255.255.255.254", true),
	}
	provider := &fakeProvider{
		ifaces: ifaces,
		bindings: map[string]*Binding{
			"eth0": {NeighborRouterID: 0x02020202, NeighborIP: net.ParseIP("10.0.0.2"), NeighborMAC: net.HardwareAddr{1, 2, 3, 4, 5, 6}},
			"eth1": {}, // no neighbor yet
		},
	}
	db := NewTopologyDB(60)

	eng := NewLSUEngine(0x01010101, 171, 64)
	pending := eng.Originate(ifaces, provider, db)
	sent := pendingByIface(pending)

	if len(sent["eth0"]) != 1 {
		t.Fatalf("eth0 sent %d frames, want 1", len(sent["eth0"]))
	}
	if len(sent["eth1"]) != 0 {
		t.Fatalf("eth1 sent %d frames, want 0 (no neighbor)", len(sent["eth1"]))
	}
	if db.Len() != 2 {
		t.Fatalf("db.Len() = %d, want 2 self-records", db.Len())
	}
}

func TestLSUEngineIngestAppliesAndReflood(t *testing.T) {
	ifaces := []Interface{
		testInterface("eth0", "10.0.0.1", "255.255.255.254", true),
		testInterface("eth1", "10.0.1.1", "255.255.255.254", true),
	}
	provider := &fakeProvider{
		ifaces: ifaces,
		bindings: map[string]*Binding{
			"eth0": {NeighborRouterID: 0x02020202, NeighborIP: net.ParseIP("10.0.0.2"), NeighborMAC: net.HardwareAddr{1, 2, 3, 4, 5, 6}},
			"eth1": {NeighborRouterID: 0x03030303, NeighborIP: net.ParseIP("10.0.1.2"), NeighborMAC: net.HardwareAddr{1, 2, 3, 4, 5, 7}},
		},
	}
	db := NewTopologyDB(60)

	remote := NewLSUEngine(0x02020202, 171, 64)
	remoteIfaces := []Interface{testInterface("eth0", "10.0.0.2", "255.255.255.254", true)}
	remoteProvider := &fakeProvider{
		ifaces: remoteIfaces,
		bindings: map[string]*Binding{
			"eth0": {NeighborRouterID: 0x01010101, NeighborIP: net.ParseIP("10.0.0.1"), NeighborMAC: net.HardwareAddr{0, 0, 0, 0, 0, 1}},
		},
	}
	originated := remote.Originate(remoteIfaces, remoteProvider, NewTopologyDB(60))
	rawFrame := pendingByIface(originated)["eth0"][0]

	frame, body, err := DecodeLSU(rawFrame)
	if err != nil {
		t.Fatalf("DecodeLSU: %v", err)
	}

	local := NewLSUEngine(0x01010101, 171, 64)
	spfNeeded, reflood := local.Ingest("eth0", ifaces, provider, db, rawFrame, frame, body)
	if !spfNeeded {
		t.Fatalf("spfNeeded = false, want true for a New advert")
	}
	if db.Len() != 1 {
		t.Fatalf("db.Len() = %d, want 1", db.Len())
	}
	sent := pendingByIface(reflood)
	// Re-flooded out eth1 (not the ingress interface) but not eth0.
	if len(sent["eth1"]) != 1 {
		t.Fatalf("eth1 reflood count = %d, want 1", len(sent["eth1"]))
	}
	if len(sent["eth0"]) != 0 {
		t.Fatalf("eth0 (ingress) reflood count = %d, want 0", len(sent["eth0"]))
	}
}

func TestLSUEngineIngestDropsSelfSourced(t *testing.T) {
	ifaces := []Interface{
		testInterface("eth0", "10.0.0.1", "255.255.255.254", true),
		testInterface("eth1", "10.0.1.1", "255.255.255.254", true),
	}
	provider := &fakeProvider{
		ifaces: ifaces,
		bindings: map[string]*Binding{
			"eth0": {NeighborRouterID: 0x02020202, NeighborIP: net.ParseIP("10.0.0.2"), NeighborMAC: net.HardwareAddr{1, 2, 3, 4, 5, 6}},
			"eth1": {},
		},
	}
	db := NewTopologyDB(60)

	selfSourced := EncodeLSU(
		net.HardwareAddr{1, 2, 3, 4, 5, 6}, net.HardwareAddr{0, 0, 0, 0, 0, 1},
		net.ParseIP("10.0.0.2"), net.ParseIP("10.0.0.1"),
		0x01010101, 171,
		LSUBody{Sequence: 1, TTL: 64, Adverts: []Advertisement{{Subnet: 0x0A000200, Mask: 0xFFFFFFFE}}},
	)
	frame, body, err := DecodeLSU(selfSourced)
	if err != nil {
		t.Fatalf("DecodeLSU: %v", err)
	}

	local := NewLSUEngine(0x01010101, 171, 64)
	spfNeeded, reflood := local.Ingest("eth0", ifaces, provider, db, selfSourced, frame, body)
	if spfNeeded {
		t.Fatalf("spfNeeded = true for self-sourced LSU, want false")
	}
	if len(reflood) != 0 {
		t.Fatalf("reflood = %v, want none for self-sourced LSU", reflood)
	}
	if db.Len() != 0 {
		t.Fatalf("db.Len() = %d, want 0 (self-sourced must be dropped before ingest)", db.Len())
	}
}

func TestLSUEngineIngestSuppressesDuplicate(t *testing.T) {
	ifaces := []Interface{
		testInterface("eth0", "10.0.0.1", "255.255.255.254", true),
		testInterface("eth1", "10.0.1.1", "255.255.255.254", true),
	}
	provider := &fakeProvider{
		ifaces: ifaces,
		bindings: map[string]*Binding{
			"eth0": {NeighborRouterID: 0x02020202, NeighborIP: net.ParseIP("10.0.0.2"), NeighborMAC: net.HardwareAddr{1, 2, 3, 4, 5, 6}},
			"eth1": {NeighborRouterID: 0x03030303, NeighborIP: net.ParseIP("10.0.1.2"), NeighborMAC: net.HardwareAddr{1, 2, 3, 4, 5, 7}},
		},
	}
	db := NewTopologyDB(60)

	remoteIfaces := []Interface{testInterface("eth0", "10.0.0.2", "255.255.255.254", true)}
	remoteProvider := &fakeProvider{ifaces: remoteIfaces, bindings: map[string]*Binding{
		"eth0": {NeighborRouterID: 0x01010101, NeighborIP: net.ParseIP("10.0.0.1"), NeighborMAC: net.HardwareAddr{0, 0, 0, 0, 0, 1}},
	}}
	remote := NewLSUEngine(0x02020202, 171, 64)
	originated := remote.Originate(remoteIfaces, remoteProvider, NewTopologyDB(60))
	rawFrame := pendingByIface(originated)["eth0"][0]
	frame, body, _ := DecodeLSU(rawFrame)

	local := NewLSUEngine(0x01010101, 171, 64)
	local.Ingest("eth0", ifaces, provider, db, rawFrame, frame, body)

	// Second delivery of the identical frame: every advert is now a
	// Duplicate, so it must not be re-flooded again.
	spfNeeded, reflood := local.Ingest("eth0", ifaces, provider, db, rawFrame, frame, body)
	if spfNeeded {
		t.Fatalf("spfNeeded = true on duplicate delivery, want false")
	}
	if len(reflood) != 0 {
		t.Fatalf("reflood on duplicate = %v, want none", reflood)
	}
}
