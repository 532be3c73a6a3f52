package pwospfd

import "net"

// Interface is the host's static description of one router-owned interface:
// name, MAC, IP, and subnet mask. It never changes once handed to the
// subsystem; mutable per-interface state lives in Binding.
type Interface struct {
	Name string
	MAC  net.HardwareAddr
	IP   net.IP
	Mask net.IP

	// Enabled gates both HELLO emission and LSU flooding on this interface;
	// a disabled interface is skipped without decrementing its countdown.
	Enabled bool
}

// Binding is the mutable state the core owns per interface: the discovered
// neighbor (if any) and the HELLO countdown. The on-wire HELLO_INTERVAL
// constant is deliberately not stored here — hello_countdown is runtime
// state, distinct from the wire constant it counts down from.
type Binding struct {
	NeighborRouterID uint32
	NeighborIP       net.IP
	HelloCountdown   int

	// NeighborMAC is captured from the source MAC of the neighbor's HELLO
	// frames. §3's binding only names neighbor_router_id/neighbor_ip, but the
	// LSU engine needs a concrete Ethernet destination for unicast flooding
	// (§4.E), and the HELLO frame already carries it — no ARP step needed.
	NeighborMAC net.HardwareAddr
}

// HasNeighbor reports whether this interface currently has a discovered
// adjacency.
func (b *Binding) HasNeighbor() bool {
	return b.NeighborRouterID != 0
}

// PacketSender delivers a fully framed outbound packet on the named
// interface. Implementations are the host's data-plane send primitive; the
// core never constructs sockets itself.
type PacketSender interface {
	SendPacket(ifaceName string, frame []byte) error
}

// InterfaceProvider enumerates the router's interfaces and gives access to
// the core-owned mutable binding for each, per §6's iter_interfaces /
// interface_binding host API.
type InterfaceProvider interface {
	Interfaces() []Interface
	Binding(ifaceName string) *Binding
}

// Route is a single forwarding-table entry, as installed by the SPF engine
// or a host-static entry the core must never touch.
type Route struct {
	Subnet        net.IP
	Mask          net.IP
	NextHop       net.IP
	Iface         string
	AdminDistance int
}

// RouteTable is the host's forwarding-table handle. The core only ever
// touches entries with AdminDistance == AdminDistance (110); ClearOwned must
// never remove entries installed by anything else.
type RouteTable interface {
	ClearOwned(adminDistance int)
	Add(route Route)
	Contains(subnet net.IP) bool
}
