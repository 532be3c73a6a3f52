//go:build linux

// Package netlink implements pwospfd.RouteTable by programming the Linux
// kernel FIB directly, for a host that wants PWOSPF-learned routes to
// actually carry real traffic rather than just live in-process.
package netlink

import (
	"net"
	"sync"

	vnetlink "github.com/vishvananda/netlink"

	"github.com/ddddddO/pwospfd"
)

// RouteTable installs routes into the kernel via RTNETLINK. Routes this
// table owns are tagged with routeProtocol so ClearOwned can distinguish
// them from routes installed by anything else (static config, other
// daemons) without keeping its own shadow copy of kernel state.
type RouteTable struct {
	mu             sync.Mutex
	routeProtocol  int
	linkIndexCache map[string]int
}

// routeProtocolPWOSPF is an RTPROT_* value in the "unassigned, free for
// experimentation" range (RFC-less convention many routing daemons use);
// it never collides with the kernel's own RTPROT_KERNEL/RTPROT_BOOT/etc.
const routeProtocolPWOSPF = 171

// New returns a RouteTable that programs the default network namespace's
// kernel routing table.
func New() *RouteTable {
	return &RouteTable{
		routeProtocol:  routeProtocolPWOSPF,
		linkIndexCache: make(map[string]int),
	}
}

// ClearOwned deletes every kernel route tagged with this table's protocol
// value. adminDistance is accepted to satisfy pwospfd.RouteTable but is not
// itself representable in the kernel FIB, so routeProtocol is the tag.
func (r *RouteTable) ClearOwned(adminDistance int) {
	existing, err := vnetlink.RouteListFiltered(vnetlink.FAMILY_V4, &vnetlink.Route{Protocol: r.routeProtocol}, vnetlink.RT_FILTER_PROTOCOL)
	if err != nil {
		return
	}
	for i := range existing {
		_ = vnetlink.RouteDel(&existing[i])
	}
}

// Add programs route as a kernel route, replacing any existing route for
// the same destination.
func (r *RouteTable) Add(route pwospfd.Route) {
	linkIndex, err := r.resolveLinkIndex(route.Iface)
	if err != nil {
		return
	}

	ones, _ := net.IPMask(route.Mask.To4()).Size()
	dst := &net.IPNet{IP: route.Subnet.To4(), Mask: net.CIDRMask(ones, 32)}

	_ = vnetlink.RouteReplace(&vnetlink.Route{
		LinkIndex: linkIndex,
		Dst:       dst,
		Gw:        route.NextHop,
		Protocol:  r.routeProtocol,
		Priority:  route.AdminDistance,
	})
}

// Contains reports whether the kernel already has a route covering subnet
// (any protocol), per §4.F's "lower-distance route already exists" check.
func (r *RouteTable) Contains(subnet net.IP) bool {
	routes, err := vnetlink.RouteGet(subnet)
	if err != nil {
		return false
	}
	return len(routes) > 0
}

// Routes returns every kernel route this table owns, for display purposes
// (e.g. internal/statusview). Not part of pwospfd.RouteTable.
func (r *RouteTable) Routes() []pwospfd.Route {
	existing, err := vnetlink.RouteListFiltered(vnetlink.FAMILY_V4, &vnetlink.Route{Protocol: r.routeProtocol}, vnetlink.RT_FILTER_PROTOCOL)
	if err != nil {
		return nil
	}
	out := make([]pwospfd.Route, 0, len(existing))
	for _, rt := range existing {
		if rt.Dst == nil {
			continue
		}
		linkName := ""
		if link, err := vnetlink.LinkByIndex(rt.LinkIndex); err == nil {
			linkName = link.Attrs().Name
		}
		ones, _ := rt.Dst.Mask.Size()
		out = append(out, pwospfd.Route{
			Subnet:        rt.Dst.IP,
			Mask:          net.IP(net.CIDRMask(ones, 32)),
			NextHop:       rt.Gw,
			Iface:         linkName,
			AdminDistance: rt.Priority,
		})
	}
	return out
}

func (r *RouteTable) resolveLinkIndex(ifaceName string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if idx, ok := r.linkIndexCache[ifaceName]; ok {
		return idx, nil
	}
	link, err := vnetlink.LinkByName(ifaceName)
	if err != nil {
		return 0, err
	}
	idx := link.Attrs().Index
	r.linkIndexCache[ifaceName] = idx
	return idx, nil
}
