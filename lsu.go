package pwospfd

// PendingSend is one frame awaiting delivery via PacketSender.SendPacket,
// returned by the LSU engine instead of sent directly so callers can release
// subsysLock before performing the (possibly blocking) I/O, per §5's "never
// held across send_packet" rule.
type PendingSend struct {
	Iface string
	Frame []byte
}

// LSUEngine originates and ingests link-state updates, per §4.E. Like
// HelloEngine, it performs no locking and no I/O of its own.
type LSUEngine struct {
	routerID uint32
	areaID   uint32
	maxHops  int
	sequence uint16
}

// NewLSUEngine builds an LSUEngine for the given router identity.
func NewLSUEngine(routerID, areaID uint32, maxHops int) *LSUEngine {
	return &LSUEngine{routerID: routerID, areaID: areaID, maxHops: maxHops}
}

// Originate rebuilds this router's self-records from the current interface
// bindings, increments the sequence counter, and returns one encoded LSU
// per interface with a known neighbor, ready to flood (§4.D invariant, §4.E
// origination).
func (e *LSUEngine) Originate(ifaces []Interface, bindings InterfaceProvider, db *TopologyDB) []PendingSend {
	db.PurgeRouter(e.routerID)
	e.sequence++

	adverts := make([]Advertisement, 0, len(ifaces))
	for _, iface := range ifaces {
		if !iface.Enabled {
			continue
		}
		mask := ipv4ToUint32(iface.Mask)
		subnet := ipv4ToUint32(iface.IP) & mask

		var neighborID uint32
		if b := bindings.Binding(iface.Name); b != nil {
			neighborID = b.NeighborRouterID
		}

		advert := Advertisement{Subnet: subnet, Mask: mask, NeighborRouterID: neighborID}
		adverts = append(adverts, advert)
		db.Ingest(advert, e.routerID, e.sequence)
	}

	body := LSUBody{Sequence: e.sequence, TTL: uint8(e.maxHops), Adverts: adverts}

	var pending []PendingSend
	for _, iface := range ifaces {
		if !iface.Enabled {
			continue
		}
		b := bindings.Binding(iface.Name)
		if b == nil || !b.HasNeighbor() {
			continue
		}
		frame := EncodeLSU(iface.MAC, b.NeighborMAC, iface.IP, b.NeighborIP, e.routerID, e.areaID, body)
		pending = append(pending, PendingSend{Iface: iface.Name, Frame: frame})
	}
	return pending
}

// Ingest processes an LSU received as rawFrame on ingressIface, applying
// every advertisement to db. It reports whether an SPF recomputation should
// be enqueued, and the re-flood frames (if any) to send out every other
// interface with a known neighbor (§4.E steps 1-4).
func (e *LSUEngine) Ingest(ingressIface string, ifaces []Interface, bindings InterfaceProvider, db *TopologyDB, rawFrame []byte, frame *Frame, body *LSUBody) (spfNeeded bool, pending []PendingSend) {
	if frame.OSPF.RouterID == e.routerID {
		logger.Debugf("pwospfd: lsu dropped: self-sourced (loopback)")
		return false, nil
	}

	anyNewer := false
	for _, advert := range body.Adverts {
		res := db.Ingest(advert, frame.OSPF.RouterID, body.Sequence)
		if res == IngestNew || res == IngestUpdated {
			anyNewer = true
		}
	}

	if !anyNewer {
		// Every advert was Duplicate or Stale: suppressed, not re-flooded
		// (§4.E duplicate suppression bounds amplification to O(edges)).
		return false, nil
	}

	if body.TTL > 1 {
		flood := make([]byte, len(rawFrame))
		copy(flood, rawFrame)
		RewriteLSUTTLAndChecksum(flood)

		for _, out := range ifaces {
			if out.Name == ingressIface || !out.Enabled {
				continue
			}
			b := bindings.Binding(out.Name)
			if b == nil || !b.HasNeighbor() {
				continue
			}
			pending = append(pending, PendingSend{Iface: out.Name, Frame: flood})
		}
	}

	return true, pending
}
