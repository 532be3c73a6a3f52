package statusview

import (
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/ddddddO/pwospfd"
)

func formatRouterID(id uint32) string {
	return uint32ToIP(id).String()
}

// uint32ToIP renders a topology/neighbor record's network-byte-order uint32
// field (router ID, subnet, mask) as a dotted-quad net.IP.
func uint32ToIP(v uint32) net.IP {
	return net.IPv4(byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func formatNeighbors(neighbors []pwospfd.NeighborRecord) string {
	if len(neighbors) == 0 {
		return "[gray](none)\n"
	}
	sorted := append([]pwospfd.NeighborRecord(nil), neighbors...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RouterID < sorted[j].RouterID })

	var b strings.Builder
	for _, n := range sorted {
		fmt.Fprintf(&b, "[yellow]%-15s[white] via %-15s [green]%2ds left\n",
			formatRouterID(n.RouterID), n.SourceIP, n.TTLSeconds)
	}
	return b.String()
}

func formatTopology(links []pwospfd.TopologyLink) string {
	if len(links) == 0 {
		return "[gray](empty)\n"
	}
	sorted := append([]pwospfd.TopologyLink(nil), links...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].RouterID != sorted[j].RouterID {
			return sorted[i].RouterID < sorted[j].RouterID
		}
		return sorted[i].Subnet < sorted[j].Subnet
	})

	var b strings.Builder
	for _, l := range sorted {
		neighbor := "[gray]stub[white]"
		if l.NeighborRouterID != 0 {
			neighbor = formatRouterID(l.NeighborRouterID)
		}
		fmt.Fprintf(&b, "[yellow]%-15s[white] %s/%s -> %s [blue](age %ds)\n",
			formatRouterID(l.RouterID), formatRouterID(l.Subnet), maskBits(uint32ToIP(l.Mask)), neighbor, l.AgeSeconds)
	}
	return b.String()
}

func formatRoutes(routes []pwospfd.Route) string {
	if len(routes) == 0 {
		return "[gray](none)\n"
	}
	sorted := append([]pwospfd.Route(nil), routes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Subnet.String() < sorted[j].Subnet.String() })

	var b strings.Builder
	for _, r := range sorted {
		fmt.Fprintf(&b, "[yellow]%-15s[white]/%s via [green]%-15s[white] dev %s [blue](AD %d)\n",
			r.Subnet, maskBits(r.Mask), r.NextHop, r.Iface, r.AdminDistance)
	}
	return b.String()
}

func formatInterfaces(ifaces []pwospfd.Interface) string {
	if len(ifaces) == 0 {
		return "[gray](none)\n"
	}
	var b strings.Builder
	for _, iface := range ifaces {
		state := "[green]up"
		if !iface.Enabled {
			state = "[red]down"
		}
		fmt.Fprintf(&b, "[yellow]%-8s[white]%-15s %s[white]\n", iface.Name, iface.IP, state)
	}
	return b.String()
}

// maskBits renders a dotted-quad mask as its CIDR prefix length.
func maskBits(mask net.IP) string {
	m := mask.To4()
	if m == nil {
		return "?"
	}
	ones, _ := net.IPMask(m).Size()
	return fmt.Sprintf("%d", ones)
}
