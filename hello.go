package pwospfd

import "net"

// HelloEngine emits periodic HELLOs on each enabled interface and processes
// received ones, per §4.C. It never locks anything itself; the subsystem
// holds subsysLock around Tick and Receive. Build reads only the engine's own
// fixed fields and is called without the lock.
type HelloEngine struct {
	helloInterval int
	routerID      uint32
	areaID        uint32
}

// NewHelloEngine builds a HelloEngine for the given router identity.
func NewHelloEngine(routerID, areaID uint32, helloInterval int) *HelloEngine {
	return &HelloEngine{
		helloInterval: helloInterval,
		routerID:      routerID,
		areaID:        areaID,
	}
}

// Tick decrements the countdown on every enabled interface, returning the
// names of interfaces whose countdown reached zero this tick. A disabled
// interface is skipped without decrement (§4.C).
func (h *HelloEngine) Tick(ifaces []Interface, bindings InterfaceProvider) []string {
	var due []string
	for _, iface := range ifaces {
		if !iface.Enabled {
			continue
		}
		b := bindings.Binding(iface.Name)
		if b == nil {
			continue
		}
		b.HelloCountdown--
		if b.HelloCountdown <= 0 {
			b.HelloCountdown = h.helloInterval
			due = append(due, iface.Name)
		}
	}
	return due
}

// Build constructs the outbound HELLO frame for iface, per §4.C's frame
// layout: multicast MAC/IP, TTL 1, network_mask = iface's mask, hello_interval
// = the configured constant, padding zeroed.
func (h *HelloEngine) Build(iface Interface) []byte {
	mask := ipv4ToUint32(iface.Mask)
	body := HelloBody{
		NetworkMask:   mask,
		HelloInterval: uint16(h.helloInterval),
		Padding:       0,
	}
	return EncodeHello(iface.MAC, iface.IP, h.routerID, h.areaID, body)
}

// AdjacencyChanged reports whether accepting a HELLO from sourceRouterID
// changes the interface's previously known neighbor, which per §4.C must
// trigger immediate LSU origination.
type AdjacencyChanged bool

// Receive validates and processes an inbound HELLO on iface. On acceptance,
// it updates binding.NeighborRouterID/NeighborIP, refreshes the neighbor
// table, and reports whether the adjacency changed.
//
// Drops (silent, per §4.A/§4.C): self-sourced, mask mismatch, hello_interval
// mismatch, disabled interface. A bad checksum is rejected earlier, by
// DecodeHello, before a frame reaches Receive.
func (h *HelloEngine) Receive(iface Interface, binding *Binding, neighbors *NeighborTable, frame *Frame, body *HelloBody) (accepted bool, adjacencyChanged AdjacencyChanged) {
	if !iface.Enabled {
		logger.Debugf("pwospfd: hello dropped: interface %s disabled", iface.Name)
		return false, false
	}
	if frame.OSPF.RouterID == h.routerID {
		logger.Debugf("pwospfd: hello dropped: self-sourced")
		return false, false
	}
	ifaceMask := ipv4ToUint32(iface.Mask)
	if body.NetworkMask != ifaceMask {
		logger.Debugf("pwospfd: hello dropped: mask mismatch on %s", iface.Name)
		return false, false
	}
	if int(body.HelloInterval) != h.helloInterval {
		logger.Debugf("pwospfd: hello dropped: hello_interval mismatch on %s", iface.Name)
		return false, false
	}

	prior := binding.NeighborRouterID
	binding.NeighborRouterID = frame.OSPF.RouterID
	binding.NeighborIP = frame.IP.SrcIP
	binding.NeighborMAC = frame.Eth.SrcMAC
	neighbors.Refresh(frame.OSPF.RouterID, frame.IP.SrcIP)

	return true, AdjacencyChanged(prior != frame.OSPF.RouterID)
}

func ipv4ToUint32(ip net.IP) uint32 {
	ip4 := ip.To4()
	if ip4 == nil {
		return 0
	}
	return uint32(ip4[0])<<24 | uint32(ip4[1])<<16 | uint32(ip4[2])<<8 | uint32(ip4[3])
}

func uint32ToIPv4(v uint32) net.IP {
	return net.IPv4(byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
